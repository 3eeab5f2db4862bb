package detection

import (
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/disintegration/imaging"

	omrimaging "github.com/ironsheep/omr-tools-mcp/internal/imaging"
)

const (
	// deskewMaxWidth bounds the working copy used for angle estimation.
	deskewMaxWidth = 1000
	// deskewMaxAngle excludes segments that are not page rulings.
	deskewMaxAngle = 15.0
	// deskewMinAngle is the smallest skew worth resampling the page for.
	deskewMinAngle = 0.3
)

// EstimateSkew returns the dominant tilt of near-horizontal lines on a page,
// in degrees. Positive values mean lines descend to the right. The second
// return value is false when no ruling was found.
//
// # Algorithm
//
//  1. Downscale to at most 1000 pixels wide
//  2. Canny edges and Hough segments at least a fifth of the width long
//  3. Median angle of the segments within 15 degrees of horizontal
func EstimateSkew(page image.Image) (float64, bool) {
	work := page
	if w := page.Bounds().Dx(); w > deskewMaxWidth {
		work = imaging.Resize(page, deskewMaxWidth, 0, imaging.Box)
	}
	w, h := work.Bounds().Dx(), work.Bounds().Dy()
	if w < 2 || h < 2 {
		return 0, false
	}

	edges := omrimaging.Canny(work, cannyLow, cannyHigh)
	segments := HoughSegments(edges, HoughParams{
		Threshold:     max(30, w/10),
		MinLineLength: w / 5,
		MaxLineGap:    10,
		MaxLines:      64,
	})

	angles := make([]float64, 0, len(segments))
	for _, s := range segments {
		if a := s.AngleDegrees(); math.Abs(a) < deskewMaxAngle {
			angles = append(angles, a)
		}
	}
	if len(angles) == 0 {
		return 0, false
	}
	sort.Float64s(angles)
	mid := len(angles) / 2
	if len(angles)%2 == 0 {
		return (angles[mid-1] + angles[mid]) / 2, true
	}
	return angles[mid], true
}

// Deskew rotates a page so its rulings are horizontal. Pages tilted less
// than 0.3 degrees, or without rulings, are returned unchanged. The canvas
// grows to fit the rotated page and the new corners are white.
//
// Returns the corrected page and the angle that was removed.
func Deskew(page image.Image) (image.Image, float64) {
	angle, ok := EstimateSkew(page)
	if !ok || math.Abs(angle) < deskewMinAngle {
		return page, 0
	}
	// imaging.Rotate turns counter-clockwise, which undoes a clockwise
	// (descending) tilt of the same size.
	return imaging.Rotate(page, angle, color.White), angle
}
