// Package sheettest draws synthetic answer sheets for tests.
package sheettest

import (
	"image"
	"image/color"
	"image/draw"
)

// Layout describes a ruled table drawn on a white page.
type Layout struct {
	PageWidth, PageHeight int
	Origin                image.Point
	Rows, Columns         int
	CellSize              int
	LineWidth             int
}

// DefaultLayout is a 5x5 table of 60 pixel cells with 3 pixel rulings at
// (50,50) on a 400x400 page: a header row, a label column and a 4x4 block
// of answer cells.
func DefaultLayout() Layout {
	return Layout{
		PageWidth:  400,
		PageHeight: 400,
		Origin:     image.Pt(50, 50),
		Rows:       5,
		Columns:    5,
		CellSize:   60,
		LineWidth:  3,
	}
}

// Blank returns a white page of the layout's size.
func (l Layout) Blank() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, l.PageWidth, l.PageHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

// Page returns a blank page with the table rulings drawn.
func (l Layout) Page() *image.RGBA {
	img := l.Blank()
	l.DrawRulings(img)
	return img
}

// TableRect is the outer extent of the rulings.
func (l Layout) TableRect() image.Rectangle {
	return image.Rect(
		l.Origin.X, l.Origin.Y,
		l.Origin.X+l.Columns*l.CellSize+l.LineWidth,
		l.Origin.Y+l.Rows*l.CellSize+l.LineWidth,
	)
}

// DrawRulings draws every row and column line of the table.
func (l Layout) DrawRulings(img draw.Image) {
	t := l.TableRect()
	for r := 0; r <= l.Rows; r++ {
		y := l.Origin.Y + r*l.CellSize
		Fill(img, image.Rect(t.Min.X, y, t.Max.X, y+l.LineWidth), color.Black)
	}
	for c := 0; c <= l.Columns; c++ {
		x := l.Origin.X + c*l.CellSize
		Fill(img, image.Rect(x, t.Min.Y, x+l.LineWidth, t.Max.Y), color.Black)
	}
}

// CellInterior is the white area of a cell, inside its rulings.
func (l Layout) CellInterior(row, col int) image.Rectangle {
	x := l.Origin.X + col*l.CellSize + l.LineWidth
	y := l.Origin.Y + row*l.CellSize + l.LineWidth
	return image.Rect(x, y, x+l.CellSize-l.LineWidth, y+l.CellSize-l.LineWidth)
}

// Mark draws a filled square of the given side, centred in a cell.
func (l Layout) Mark(img draw.Image, row, col, side int) {
	in := l.CellInterior(row, col)
	cx := (in.Min.X + in.Max.X) / 2
	cy := (in.Min.Y + in.Max.Y) / 2
	Fill(img, image.Rect(cx-side/2, cy-side/2, cx-side/2+side, cy-side/2+side), color.Black)
}

// Box draws an empty square outline of the given side and stroke, centred
// in a cell.
func (l Layout) Box(img draw.Image, row, col, side, stroke int) {
	in := l.CellInterior(row, col)
	x0 := (in.Min.X+in.Max.X)/2 - side/2
	y0 := (in.Min.Y+in.Max.Y)/2 - side/2
	x1, y1 := x0+side, y0+side
	Fill(img, image.Rect(x0, y0, x1, y0+stroke), color.Black)
	Fill(img, image.Rect(x0, y1-stroke, x1, y1), color.Black)
	Fill(img, image.Rect(x0, y0, x0+stroke, y1), color.Black)
	Fill(img, image.Rect(x1-stroke, y0, x1, y1), color.Black)
}

// Fill paints a rectangle in a solid colour.
func Fill(img draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}
