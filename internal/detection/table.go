package detection

import (
	"image"
	"sort"

	"github.com/ironsheep/omr-tools-mcp/internal/geometry"
	"github.com/ironsheep/omr-tools-mcp/internal/imaging"
	"github.com/ironsheep/omr-tools-mcp/internal/sheet"
)

// tableBlurRadius smooths scan noise before adaptive thresholding.
const tableBlurRadius = 1.0

// DetectTables locates answer tables on a page and partitions each into a
// grid of empty cells.
//
// Parameters:
//   - page: The full page raster.
//   - source: Identifier copied into each result (usually the file path).
//   - pageIndex: Page number copied into each result.
//   - cfg: Detector configuration.
//   - roi: Optional region to search; nil searches the whole page.
//
// Returns the tables in reading order (top to bottom, then left to right).
// A page without any qualifying outline yields an empty slice, never an
// error: callers decide whether to retry with a narrower roi.
//
// # Algorithm
//
//  1. Grayscale, Gaussian blur, Sauvola adaptive threshold (ink = 255)
//  2. Morphological close with a square kernel of KernelScale times the
//     larger dimension, twice, to bridge breaks in table borders
//  3. Connected components; keep outlines enclosing at least
//     MinTableAreaRatio of the searched area
//  4. Bounding rectangles in page coordinates
//  5. Optional merge of fragments (see MergeBoxes)
//  6. Grid estimation per rectangle; rectangles without cells are dropped
func DetectTables(page image.Image, source string, pageIndex int, cfg Config, roi *geometry.Rect) []sheet.TableExtraction {
	cfg = cfg.withDefaults()
	pb := page.Bounds()

	search := page
	offset := image.Point{}
	if roi != nil {
		r := roi.EnsureWithin(pb.Dx(), pb.Dy())
		search = imaging.CropRect(page, r)
		offset = image.Pt(r.X, r.Y)
	}

	gray := imaging.GaussianBlur(imaging.ToGray(search), tableBlurRadius)
	h, w := gray.Bounds().Dy(), gray.Bounds().Dx()
	if w == 0 || h == 0 {
		return nil
	}

	mask := imaging.AdaptiveInkMask(gray, 0)
	k := max(3, int(cfg.KernelScale*float64(max(h, w))))
	closed := imaging.Close(mask, k, k, 2)

	minArea := cfg.MinTableAreaRatio * float64(h*w)
	boxes := make([]geometry.Rect, 0)
	for _, c := range FindComponents(closed, 1) {
		if c.Area() < minArea {
			continue
		}
		boxes = append(boxes, c.Bounds.Offset(offset.X, offset.Y))
	}

	if cfg.MergeNearbyTables && len(boxes) > 1 {
		boxes = MergeBoxes(boxes, cfg.MaxTableGap)
	}

	tables := make([]sheet.TableExtraction, 0, len(boxes))
	for _, box := range boxes {
		box = box.EnsureWithin(pb.Dx(), pb.Dy())
		grid, ok := EstimateGrid(imaging.CropRect(page, box), cfg)
		if !ok {
			continue
		}
		cells := BuildCells(page, image.Pt(box.X, box.Y), grid)
		if len(cells) == 0 {
			continue
		}
		bounds := box
		tables = append(tables, sheet.TableExtraction{
			Source:      source,
			PageIndex:   pageIndex,
			Bounds:      &bounds,
			Cells:       cells,
			RowCount:    grid.RowCount(),
			ColumnCount: grid.ColumnCount(),
		})
	}

	sort.SliceStable(tables, func(i, j int) bool {
		a, b := tables[i].Bounds, tables[j].Bounds
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	return tables
}

// DetectTable returns the first table in reading order, if any.
func DetectTable(page image.Image, source string, pageIndex int, cfg Config, roi *geometry.Rect) (sheet.TableExtraction, bool) {
	tables := DetectTables(page, source, pageIndex, cfg, roi)
	if len(tables) == 0 {
		return sheet.TableExtraction{}, false
	}
	return tables[0], true
}

// MergeBoxes joins table fragments that sit side by side.
//
// Boxes are sorted by (y, x) and grouped into bands: a box joins the
// current band when it overlaps the band's last box vertically or its top
// is within maxGap of the band's first box. Inside a band, boxes are taken
// left to right and merged into their enclosing rectangle while the
// horizontal gap is at most maxGap.
func MergeBoxes(boxes []geometry.Rect, maxGap int) []geometry.Rect {
	if len(boxes) < 2 {
		return append([]geometry.Rect(nil), boxes...)
	}
	sorted := append([]geometry.Rect(nil), boxes...)
	sortByPosition(sorted)

	bands := [][]geometry.Rect{{sorted[0]}}
	for _, box := range sorted[1:] {
		band := bands[len(bands)-1]
		last := band[len(band)-1]
		if box.VerticalOverlap(last) > 0 || abs(box.Y-band[0].Y) < maxGap {
			bands[len(bands)-1] = append(band, box)
		} else {
			bands = append(bands, []geometry.Rect{box})
		}
	}

	merged := make([]geometry.Rect, 0, len(boxes))
	for _, band := range bands {
		sort.SliceStable(band, func(i, j int) bool { return band[i].X < band[j].X })
		current := band[0]
		for _, box := range band[1:] {
			if box.X-current.Right() <= maxGap {
				current = current.Union(box)
				continue
			}
			merged = append(merged, current)
			current = box
		}
		merged = append(merged, current)
	}
	return merged
}

func sortByPosition(rects []geometry.Rect) {
	sort.SliceStable(rects, func(i, j int) bool {
		if rects[i].Y != rects[j].Y {
			return rects[i].Y < rects[j].Y
		}
		return rects[i].X < rects[j].X
	})
}
