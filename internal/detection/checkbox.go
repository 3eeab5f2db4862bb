package detection

import (
	"image"
	"math"

	"github.com/ironsheep/omr-tools-mcp/internal/imaging"
)

// CheckboxAnalysis describes the best box or bubble shape found in a cell.
type CheckboxAnalysis struct {
	// FillRatio is the ink fraction inside the shape, with its border
	// stroke trimmed off.
	FillRatio float64 `json:"fill_ratio"`

	// BoxAreaRatio is the shape's bounding box area over the cell area.
	BoxAreaRatio float64 `json:"box_area_ratio"`

	// ContourAreaRatio is the area enclosed by the outline over the area of
	// its bounding box.
	ContourAreaRatio float64 `json:"contour_area_ratio"`

	// Confidence is the shape score (see CheckboxConfig.Score).
	Confidence float64 `json:"confidence"`
}

// CheckboxConfig holds the shape filters and the scoring weights. The
// scoring formula lives in Score and nowhere else.
type CheckboxConfig struct {
	MinContourAreaRatio float64 `json:"min_contour_area_ratio" yaml:"min_contour_area_ratio"`
	MinSide             int     `json:"min_side" yaml:"min_side"`
	MinAspect           float64 `json:"min_aspect" yaml:"min_aspect"`
	MaxAspect           float64 `json:"max_aspect" yaml:"max_aspect"`
	MinVertices         int     `json:"min_vertices" yaml:"min_vertices"`
	MaxVertices         int     `json:"max_vertices" yaml:"max_vertices"`
	PolygonEpsilon      float64 `json:"polygon_epsilon" yaml:"polygon_epsilon"`
	MinBoxAreaRatio     float64 `json:"min_box_area_ratio" yaml:"min_box_area_ratio"`
	MaxBoxAreaRatio     float64 `json:"max_box_area_ratio" yaml:"max_box_area_ratio"`
	MinOutlineFill      float64 `json:"min_outline_fill" yaml:"min_outline_fill"`
	InnerMargin         float64 `json:"inner_margin" yaml:"inner_margin"`

	SquarenessWeight float64 `json:"squareness_weight" yaml:"squareness_weight"`
	CoverageWeight   float64 `json:"coverage_weight" yaml:"coverage_weight"`
	FillWeight       float64 `json:"fill_weight" yaml:"fill_weight"`
	CoverageGain     float64 `json:"coverage_gain" yaml:"coverage_gain"`
	FillGain         float64 `json:"fill_gain" yaml:"fill_gain"`
}

// DefaultCheckboxConfig returns the standard filters and weights.
func DefaultCheckboxConfig() CheckboxConfig {
	return CheckboxConfig{
		MinContourAreaRatio: 0.01,
		MinSide:             6,
		MinAspect:           0.6,
		MaxAspect:           1.4,
		MinVertices:         4,
		MaxVertices:         6,
		PolygonEpsilon:      0.05,
		MinBoxAreaRatio:     0.04,
		MaxBoxAreaRatio:     0.85,
		MinOutlineFill:      0.35,
		InnerMargin:         0.15,

		SquarenessWeight: 0.3,
		CoverageWeight:   0.3,
		FillWeight:       0.4,
		CoverageGain:     1.5,
		FillGain:         1.2,
	}
}

// Score combines squareness, coverage and fill into a confidence in 0..1:
//
//	w_s*(1 - min(|aspect-1|, 1)) + w_c*min(1, g_c*coverage) + w_f*min(1, g_f*fill)
func (c CheckboxConfig) Score(aspect, coverage, fill float64) float64 {
	squareness := 1 - math.Min(math.Abs(aspect-1), 1)
	return c.SquarenessWeight*squareness +
		c.CoverageWeight*math.Min(1, coverage*c.CoverageGain) +
		c.FillWeight*math.Min(1, fill*c.FillGain)
}

// AnalyzeCheckbox looks for a drawn box or bubble in a cell crop and
// measures how much of it is filled.
//
// Returns the best-scoring candidate, or false when no outline passes the
// filters (the cell has no box, or holds text or stray marks only).
//
// # Algorithm
//
//  1. Grayscale, min-max normalisation, Gaussian blur
//  2. Otsu inverse threshold and a 3x3 open to drop speckles
//  3. Connected components; each outline must enclose at least
//     MinContourAreaRatio of the cell, be at least MinSide pixels on each
//     side, have an aspect ratio within [MinAspect, MaxAspect], simplify to
//     MinVertices..MaxVertices corners, cover MinBoxAreaRatio..MaxBoxAreaRatio
//     of the cell with its bounding box, and fill at least MinOutlineFill of
//     that box
//  4. Fill is measured on the box interior after trimming InnerMargin of
//     the smaller side from every edge, so the border stroke of an empty
//     box does not count as a mark
func AnalyzeCheckbox(cell image.Image, cfg CheckboxConfig) (CheckboxAnalysis, bool) {
	gray := imaging.ToGray(cell)
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	cellArea := float64(w * h)
	if cellArea == 0 {
		return CheckboxAnalysis{}, false
	}

	smoothed := imaging.GaussianBlur(imaging.Normalize(gray), 1.0)
	binary := imaging.OtsuInverse(smoothed)
	cleaned := imaging.Open(binary, 3, 3, 1)

	var best CheckboxAnalysis
	found := false
	for _, comp := range FindComponents(cleaned, 1) {
		area := comp.Area()
		if area < cellArea*cfg.MinContourAreaRatio {
			continue
		}
		bw, bh := comp.Bounds.Width, comp.Bounds.Height
		if bw < cfg.MinSide || bh < cfg.MinSide {
			continue
		}
		aspect := float64(bw) / float64(bh)
		if aspect < cfg.MinAspect || aspect > cfg.MaxAspect {
			continue
		}
		vertices := len(ApproxPolygon(comp.Outline, cfg.PolygonEpsilon*comp.Perimeter()))
		if vertices < cfg.MinVertices || vertices > cfg.MaxVertices {
			continue
		}
		boxArea := float64(bw * bh)
		boxRatio := boxArea / cellArea
		if boxRatio < cfg.MinBoxAreaRatio || boxRatio > cfg.MaxBoxAreaRatio {
			continue
		}
		contourRatio := area / boxArea
		if contourRatio < cfg.MinOutlineFill {
			continue
		}

		fill := innerFill(cleaned, comp, cfg.InnerMargin)
		score := cfg.Score(aspect, contourRatio, fill)
		if !found || score > best.Confidence {
			best = CheckboxAnalysis{
				FillRatio:        fill,
				BoxAreaRatio:     boxRatio,
				ContourAreaRatio: contourRatio,
				Confidence:       score,
			}
			found = true
		}
	}
	return best, found
}

// innerFill measures the ink fraction inside a component's box after
// trimming a margin from every side. Boxes too small to trim are measured
// whole.
func innerFill(mask *image.Gray, comp Component, marginRatio float64) float64 {
	b := comp.Bounds
	margin := max(1, int(math.Round(float64(min(b.Width, b.Height))*marginRatio)))
	inner := b
	inner.X += margin
	inner.Y += margin
	inner.Width -= 2 * margin
	inner.Height -= 2 * margin
	if inner.Width <= 2 || inner.Height <= 2 {
		inner = b
	}
	sub := mask.SubImage(inner.Image()).(*image.Gray)
	return imaging.InkFraction(imaging.ToGray(sub))
}
