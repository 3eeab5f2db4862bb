// Package classify fills an empty table grid with per-cell measurements:
// recognised text, a confidence score and the ink density used for mark
// detection.
package classify

import (
	"context"
	"image"
	"math"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/omr-tools-mcp/internal/detection"
	"github.com/ironsheep/omr-tools-mcp/internal/geometry"
	"github.com/ironsheep/omr-tools-mcp/internal/imaging"
	"github.com/ironsheep/omr-tools-mcp/internal/ocr"
	"github.com/ironsheep/omr-tools-mcp/internal/sheet"
)

const (
	// minCropSide is the smallest cell side that is classified at all.
	minCropSide = 5
	// inkInset trims this fraction of the smaller side from each edge
	// before measuring ink, so rulings captured at the cell border are not
	// read as marks.
	inkInset = 0.1
)

// Options configures a Classifier.
type Options struct {
	// Checkbox holds the shape filters and scoring weights.
	Checkbox detection.CheckboxConfig

	// Regions routes parts of each table to OCR or to mark detection.
	Regions RegionOverrides

	// DigitsInColumnZero expects question numbers in the first column
	// instead of the header row.
	DigitsInColumnZero bool

	// Fallbacks overrides the OCR fallback modes (nil = defaults).
	Fallbacks map[ocr.CharClass][]ocr.Mode
}

// DefaultOptions returns the standard classifier options.
func DefaultOptions() Options {
	return Options{Checkbox: detection.DefaultCheckboxConfig()}
}

// Classifier measures every cell of a table. It is safe for concurrent use
// when its recognizer is.
type Classifier struct {
	reader *ocr.Reader
	opts   Options
	log    *logrus.Entry

	degradedOnce sync.Once
}

// New creates a Classifier. A nil or unavailable recognizer runs the
// classifier in density-only mode.
func New(rec ocr.Recognizer, opts Options, log *logrus.Entry) *Classifier {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	c := &Classifier{opts: opts, log: log}
	if rec != nil && ocr.Describe(rec).Available {
		c.reader = ocr.NewReader(rec, opts.Fallbacks, log)
	}
	return c
}

// OCREnabled reports whether cells can be routed through OCR.
func (c *Classifier) OCREnabled() bool {
	return c.reader != nil
}

// ClassifyTable measures every cell of table and returns a new snapshot;
// table itself is not modified.
//
// Each cell is cropped (clamped to the page). Crops under 5x5 pixels yield a
// placeholder with zero confidence and density so the grid keeps its shape.
// Answer cells (row > 0, column > 0) get a checkbox analysis. Cells outside
// mark-only zones are read with OCR when a recognizer is available; other
// cells take their confidence from the checkbox analysis, or from the crop's
// intensity variance. Ink density is the Otsu dark fraction of the crop
// interior, raised to the checkbox fill ratio when a box was found.
//
// Returns ctx.Err() when the context ends between cells.
func (c *Classifier) ClassifyTable(ctx context.Context, page image.Image, table sheet.TableExtraction) (sheet.TableExtraction, error) {
	if c.reader == nil {
		c.degradedOnce.Do(func() {
			c.log.Warn("OCR unavailable, classifying cells by ink density only")
		})
	}

	pb := page.Bounds()
	ref := geometry.Rect{X: 0, Y: 0, Width: pb.Dx(), Height: pb.Dy()}
	if table.Bounds != nil {
		ref = *table.Bounds
	}
	regions := c.opts.Regions.resolve(ref, c.log)

	cells := make([]sheet.CellResult, 0, len(table.Cells))
	for _, cell := range table.Cells {
		if err := ctx.Err(); err != nil {
			return sheet.TableExtraction{}, err
		}
		cells = append(cells, c.classifyCell(page, cell, regions))
	}

	c.log.WithFields(logrus.Fields{
		"source": table.Source,
		"page":   table.PageIndex,
		"rows":   table.RowCount,
		"cols":   table.ColumnCount,
		"ocr":    c.reader != nil,
	}).Debug("Classified table")
	return table.WithCells(cells), nil
}

func (c *Classifier) classifyCell(page image.Image, cell sheet.CellResult, regions resolvedRegions) sheet.CellResult {
	pb := page.Bounds()
	out := sheet.CellResult{Row: cell.Row, Column: cell.Column, Bounds: cell.Bounds}

	r := cell.Bounds.EnsureWithin(pb.Dx(), pb.Dy())
	if r.Width < minCropSide || r.Height < minCropSide {
		return out
	}
	crop := imaging.CropRect(page, r)

	var box *detection.CheckboxAnalysis
	if cell.Row > 0 && cell.Column > 0 {
		if analysis, ok := detection.AnalyzeCheckbox(crop, c.opts.Checkbox); ok {
			box = &analysis
		}
	}

	if c.reader != nil && !regions.markOnly(cell.Bounds) {
		reading := c.reader.ReadCell(crop, c.expectedClass(cell.Row, cell.Column))
		out.Text = reading.Text
		out.Confidence = reading.Confidence
	} else if box != nil {
		out.Confidence = box.Confidence
	} else {
		out.Confidence = imaging.NormalizedVariance(crop)
	}

	out.InkDensity = imaging.InkDensity(insetCrop(crop))
	if box != nil {
		out.InkDensity = math.Max(out.InkDensity, box.FillRatio)
	}
	return out
}

// expectedClass picks the character class OCR should find in a cell.
// Question numbers live in the header row (or in column 0 when configured);
// everything else holds letters.
func (c *Classifier) expectedClass(row, col int) ocr.CharClass {
	if c.opts.DigitsInColumnZero {
		if col == 0 {
			return ocr.Digits
		}
		return ocr.Letters
	}
	if row == 0 && col > 0 {
		return ocr.Digits
	}
	return ocr.Letters
}

// insetCrop trims a margin from every side of a crop, unless that would
// leave less than 5x5 pixels.
func insetCrop(crop image.Image) image.Image {
	b := crop.Bounds()
	w, h := b.Dx(), b.Dy()
	margin := max(1, int(math.Round(float64(min(w, h))*inkInset)))
	if w-2*margin < minCropSide || h-2*margin < minCropSide {
		return crop
	}
	return imaging.CropRect(crop, geometry.Rect{
		X:      margin,
		Y:      margin,
		Width:  w - 2*margin,
		Height: h - 2*margin,
	})
}
