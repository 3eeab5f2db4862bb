// Package geometry provides the integer rectangle used to describe tables and
// cells on a page, along with table-relative (normalised) rectangles used for
// region templates.
//
// All coordinates use a top-left origin, X increasing rightward and Y
// increasing downward.
package geometry

import "image"

// Rect is an axis-aligned rectangle in pixel coordinates.
type Rect struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// FromImage converts an image.Rectangle (exclusive max corner) to a Rect.
func FromImage(r image.Rectangle) Rect {
	r = r.Canon()
	return Rect{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// Image converts r to an image.Rectangle with an exclusive max corner.
func (r Rect) Image() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Right returns the exclusive right edge.
func (r Rect) Right() int { return r.X + r.Width }

// Bottom returns the exclusive bottom edge.
func (r Rect) Bottom() int { return r.Y + r.Height }

// Area returns Width*Height, or 0 for an empty rectangle.
func (r Rect) Area() int {
	if r.Empty() {
		return 0
	}
	return r.Width * r.Height
}

// Empty reports whether r covers no pixels.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Offset returns r translated by (dx, dy).
func (r Rect) Offset(dx, dy int) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// EnsureWithin clamps r to an image of the given size.
//
// The origin is clamped to the last valid pixel on each axis and the size is
// trimmed to what remains of the image, but never below 1x1. For any
// non-empty image the result therefore lies fully inside it and always has a
// positive area, which lets callers crop without bounds checks.
func (r Rect) EnsureWithin(width, height int) Rect {
	x := max(0, min(r.X, width-1))
	y := max(0, min(r.Y, height-1))
	return Rect{
		X:      x,
		Y:      y,
		Width:  max(1, min(r.Width, width-x)),
		Height: max(1, min(r.Height, height-y)),
	}
}

// Intersects reports whether r and o share at least one pixel.
func (r Rect) Intersects(o Rect) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	return r.X < o.Right() && o.X < r.Right() && r.Y < o.Bottom() && o.Y < r.Bottom()
}

// Intersect returns the overlap of r and o. The result is empty when they do
// not overlap.
func (r Rect) Intersect(o Rect) Rect {
	x1, y1 := max(r.X, o.X), max(r.Y, o.Y)
	x2, y2 := min(r.Right(), o.Right()), min(r.Bottom(), o.Bottom())
	if x2 <= x1 || y2 <= y1 {
		return Rect{}
	}
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// Union returns the smallest rectangle enclosing both r and o.
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	x1, y1 := min(r.X, o.X), min(r.Y, o.Y)
	x2, y2 := max(r.Right(), o.Right()), max(r.Bottom(), o.Bottom())
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// VerticalOverlap returns how many rows r and o share, or a negative gap
// when they are vertically disjoint.
func (r Rect) VerticalOverlap(o Rect) int {
	return min(r.Bottom(), o.Bottom()) - max(r.Y, o.Y)
}

// IntersectsAny reports whether r intersects at least one of the regions.
func (r Rect) IntersectsAny(regions []Rect) bool {
	for _, region := range regions {
		if r.Intersects(region) {
			return true
		}
	}
	return false
}
