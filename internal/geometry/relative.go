package geometry

import (
	"errors"
	"fmt"
	"math"
)

// RelativeRect is a rectangle expressed as fractions (0..1) of a reference
// rectangle, typically a detected table. Region templates are stored this
// way so they can be applied to tables found at different positions and
// scales on other sheets.
type RelativeRect struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// ErrInvalidRegion is returned by Validate for unusable relative rectangles.
var ErrInvalidRegion = errors.New("invalid relative region")

// Relativize expresses sel relative to ref. Only the part of sel that
// overlaps ref is kept; ok is false when they do not overlap.
func Relativize(sel, ref Rect) (RelativeRect, bool) {
	if ref.Empty() {
		return RelativeRect{}, false
	}
	overlap := sel.Intersect(ref)
	if overlap.Empty() {
		return RelativeRect{}, false
	}
	rw, rh := float64(ref.Width), float64(ref.Height)
	return RelativeRect{
		X:      clamp01(float64(overlap.X-ref.X) / rw),
		Y:      clamp01(float64(overlap.Y-ref.Y) / rh),
		Width:  clamp01(float64(overlap.Width) / rw),
		Height: clamp01(float64(overlap.Height) / rh),
	}, true
}

// Denormalize maps r back to pixel coordinates inside ref.
//
// Components are clamped to 0..1 first and a non-positive width or height is
// read as the full reference extent. The result is at least 1x1 and never
// extends past ref.
func (r RelativeRect) Denormalize(ref Rect) Rect {
	x, y := clamp01(r.X), clamp01(r.Y)
	w, h := clamp01(r.Width), clamp01(r.Height)
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}

	absX := ref.X + int(math.Round(x*float64(ref.Width)))
	absY := ref.Y + int(math.Round(y*float64(ref.Height)))
	absW := max(1, int(math.Round(w*float64(ref.Width))))
	absH := max(1, int(math.Round(h*float64(ref.Height))))

	absX = min(absX, ref.Right()-1)
	absY = min(absY, ref.Bottom()-1)
	absW = max(1, min(absW, ref.Right()-absX))
	absH = max(1, min(absH, ref.Bottom()-absY))
	return Rect{X: absX, Y: absY, Width: absW, Height: absH}
}

// Validate rejects rectangles that cannot describe a region of a table.
func (r RelativeRect) Validate() error {
	for _, v := range []float64{r.X, r.Y, r.Width, r.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite component", ErrInvalidRegion)
		}
	}
	if r.X < 0 || r.X >= 1 || r.Y < 0 || r.Y >= 1 {
		return fmt.Errorf("%w: origin (%g, %g) outside 0..1", ErrInvalidRegion, r.X, r.Y)
	}
	if r.Width <= 0 || r.Height <= 0 || r.Width > 1 || r.Height > 1 {
		return fmt.Errorf("%w: size %gx%g outside (0, 1]", ErrInvalidRegion, r.Width, r.Height)
	}
	return nil
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
