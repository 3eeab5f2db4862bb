package imaging

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/omr-tools-mcp/internal/geometry"
)

// OverlayKind selects how a box is drawn.
type OverlayKind int

const (
	// OverlayTable outlines a detected table.
	OverlayTable OverlayKind = iota
	// OverlayCell outlines a grid cell.
	OverlayCell
	// OverlayMark outlines and tints a cell judged as marked.
	OverlayMark
)

// OverlayBox is one rectangle to draw, with an optional text label placed
// at its top-left corner.
type OverlayBox struct {
	Rect  geometry.Rect
	Kind  OverlayKind
	Label string
}

// OverlayStyle holds the palette as hex strings ("#RRGGBB").
type OverlayStyle struct {
	TableColor string  `json:"table_color" yaml:"table_color"`
	CellColor  string  `json:"cell_color" yaml:"cell_color"`
	MarkColor  string  `json:"mark_color" yaml:"mark_color"`
	MarkTint   float64 `json:"mark_tint" yaml:"mark_tint"`
}

// DefaultOverlayStyle returns the palette used when none is configured.
func DefaultOverlayStyle() OverlayStyle {
	return OverlayStyle{
		TableColor: "#1f77b4",
		CellColor:  "#9edae5",
		MarkColor:  "#d62728",
		MarkTint:   0.35,
	}
}

// OverlayResult contains the rendered overlay.
type OverlayResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Boxes       int    `json:"boxes"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// RenderOverlay draws boxes over a copy of img and returns it as PNG.
// Colours that fail to parse fall back to the default palette.
func RenderOverlay(img image.Image, boxes []OverlayBox, style OverlayStyle) (*OverlayResult, error) {
	canvas := renderOverlay(img, boxes, style)
	encoded, err := EncodePNGBase64(canvas)
	if err != nil {
		return nil, err
	}
	return &OverlayResult{
		Width:       canvas.Bounds().Dx(),
		Height:      canvas.Bounds().Dy(),
		Boxes:       len(boxes),
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}

func renderOverlay(img image.Image, boxes []OverlayBox, style OverlayStyle) *image.RGBA {
	b := img.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(canvas, canvas.Bounds(), img, b.Min, draw.Src)

	defaults := DefaultOverlayStyle()
	table := parseColor(style.TableColor, defaults.TableColor)
	cell := parseColor(style.CellColor, defaults.CellColor)
	mark := parseColor(style.MarkColor, defaults.MarkColor)
	tint := style.MarkTint
	if tint <= 0 || tint > 1 {
		tint = defaults.MarkTint
	}

	// Cells first so table borders and marks stay visible on top.
	for _, kind := range []OverlayKind{OverlayCell, OverlayMark, OverlayTable} {
		for _, box := range boxes {
			if box.Kind != kind {
				continue
			}
			r := box.Rect.EnsureWithin(b.Dx(), b.Dy())
			switch kind {
			case OverlayCell:
				strokeRect(canvas, r, cell, 1)
			case OverlayMark:
				tintRect(canvas, r, mark, tint)
				strokeRect(canvas, r, mark, 2)
			case OverlayTable:
				strokeRect(canvas, r, table, 3)
			}
			if box.Label != "" {
				drawLabel(canvas, r.X+2, r.Y+2, box.Label)
			}
		}
	}
	return canvas
}

// parseColor parses hex, falling back to def.
func parseColor(hex, def string) colorful.Color {
	if c, err := colorful.Hex(hex); err == nil {
		return c
	}
	c, _ := colorful.Hex(def)
	return c
}

func strokeRect(img *image.RGBA, r geometry.Rect, c colorful.Color, thickness int) {
	rgba := toRGBA(c)
	bounds := img.Bounds()
	for t := 0; t < thickness; t++ {
		x0, y0 := r.X+t, r.Y+t
		x1, y1 := r.Right()-1-t, r.Bottom()-1-t
		if x1 < x0 || y1 < y0 {
			return
		}
		for x := x0; x <= x1; x++ {
			setIn(img, bounds, x, y0, rgba)
			setIn(img, bounds, x, y1, rgba)
		}
		for y := y0; y <= y1; y++ {
			setIn(img, bounds, x0, y, rgba)
			setIn(img, bounds, x1, y, rgba)
		}
	}
}

// tintRect blends c over r in Lab space.
func tintRect(img *image.RGBA, r geometry.Rect, c colorful.Color, amount float64) {
	for y := r.Y; y < r.Bottom(); y++ {
		for x := r.X; x < r.Right(); x++ {
			under, ok := colorful.MakeColor(img.RGBAAt(x, y))
			if !ok {
				continue
			}
			img.SetRGBA(x, y, toRGBA(under.BlendLab(c, amount).Clamped()))
		}
	}
}

func toRGBA(c colorful.Color) color.RGBA {
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func setIn(img *image.RGBA, bounds image.Rectangle, x, y int, c color.RGBA) {
	if image.Pt(x, y).In(bounds) {
		img.SetRGBA(x, y, c)
	}
}

// drawLabel writes text on a dark backing box with the built-in 7x13 face.
func drawLabel(img *image.RGBA, x, y int, text string) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: face,
	}
	width := d.MeasureString(text).Ceil()
	height := face.Metrics().Height.Ceil()

	bg := image.NewUniform(color.RGBA{0, 0, 0, 180})
	box := image.Rect(x-1, y-1, x+width+1, y+height).Intersect(img.Bounds())
	draw.Draw(img, box, bg, image.Point{}, draw.Over)

	d.Dot = fixed.P(x, y+face.Metrics().Ascent.Ceil())
	d.DrawString(text)
}
