package detection

import (
	"image"
	"sort"

	"github.com/ironsheep/omr-tools-mcp/internal/geometry"
	"github.com/ironsheep/omr-tools-mcp/internal/imaging"
	"github.com/ironsheep/omr-tools-mcp/internal/sheet"
)

// Grid is the row and column boundary positions of one table, in the
// table region's own coordinates. Rows and Columns always start at 0 and
// end at the region's height and width.
type Grid struct {
	Rows    []int `json:"rows"`
	Columns []int `json:"columns"`
}

// RowCount returns the number of cell rows.
func (g Grid) RowCount() int { return max(0, len(g.Rows)-1) }

// ColumnCount returns the number of cell columns.
func (g Grid) ColumnCount() int { return max(0, len(g.Columns)-1) }

const (
	// rulerScale sizes the line-isolating open kernels from the region size.
	rulerScale = 0.03
	// axisTolerance is the largest endpoint offset for a segment to count
	// as vertical (x) or horizontal (y).
	axisTolerance = 15
	// cannyLow and cannyHigh are the hysteresis thresholds for rulings.
	cannyLow  = 30
	cannyHigh = 100
	// profileFraction of the mean profile separates content from gaps in
	// the projection fallback.
	profileFraction = 0.7
)

// EstimateGrid finds the row and column boundaries of a table region.
//
// Parameters:
//   - region: The cropped table image.
//   - cfg: Detector configuration; MinCellSize drives line lengths and
//     position filtering.
//
// Returns the grid and true, or false when fewer than two positions survive
// on either axis.
//
// # Algorithm
//
//  1. Grayscale and Otsu inverse threshold
//  2. Open with 1xN and Nx1 "rulers" to keep only long vertical and
//     horizontal strokes, and union the two masks
//  3. Canny edges of the union, then Hough segments with a vote threshold
//     of 10% of the smaller dimension (at least 50)
//  4. Near-vertical segments give column positions, near-horizontal ones
//     give row positions, both seeded with 0 and the region extent
//  5. With fewer than 3 positions on an axis, fall back to projection
//     profiles of the grayscale image
//  6. Sort, drop positions closer than MinCellSize, keep the true extents
func EstimateGrid(region image.Image, cfg Config) (Grid, bool) {
	cfg = cfg.withDefaults()
	gray := imaging.ToGray(region)
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	if w < 2 || h < 2 {
		return Grid{}, false
	}
	minCell := cfg.MinCellSize

	binary := imaging.OtsuInverse(gray)
	vertical := imaging.Open(binary, 1, max(3, int(float64(h)*rulerScale)), 2)
	horizontal := imaging.Open(binary, max(3, int(float64(w)*rulerScale)), 1, 2)
	rulings := imaging.Union(vertical, horizontal)

	edges := imaging.Canny(rulings, cannyLow, cannyHigh)
	segments := HoughSegments(edges, HoughParams{
		Threshold:     max(50, int(float64(min(h, w))*0.1)),
		MinLineLength: 2 * minCell,
		MaxLineGap:    2 * minCell,
	})

	rows, cols := classifySegments(segments)
	rows = append(rows, 0, h)
	cols = append(cols, 0, w)

	if len(rows) < 3 || len(cols) < 3 {
		projRows, projCols := projectionBoundaries(gray, minCell)
		if len(projRows) > len(rows) {
			rows = projRows
		}
		if len(projCols) > len(cols) {
			cols = projCols
		}
	}

	rows = filterPositions(rows, h, minCell)
	cols = filterPositions(cols, w, minCell)
	if len(rows) < 2 || len(cols) < 2 {
		return Grid{}, false
	}
	return Grid{Rows: rows, Columns: cols}, true
}

// classifySegments turns segments into row and column positions. The two
// axes are tested separately, so a short segment within tolerance on both
// contributes to both.
func classifySegments(segments []Segment) (rows, cols []int) {
	rows = make([]int, 0, len(segments))
	cols = make([]int, 0, len(segments))
	for _, s := range segments {
		if abs(s.X1-s.X2) < axisTolerance {
			cols = append(cols, min(s.X1, s.X2))
		}
		if abs(s.Y1-s.Y2) < axisTolerance {
			rows = append(rows, min(s.Y1, s.Y2))
		}
	}
	return rows, cols
}

// projectionBoundaries records where the row and column intensity
// profiles cross 70% of their mean, keeping crossings at least minCell
// apart.
func projectionBoundaries(gray *image.Gray, minCell int) (rows, cols []int) {
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	rowSums := make([]float64, h)
	colSums := make([]float64, w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := float64(gray.Pix[y*gray.Stride+x])
			rowSums[y] += v
			colSums[x] += v
		}
	}
	return profileCrossings(rowSums, minCell), profileCrossings(colSums, minCell)
}

func profileCrossings(profile []float64, minCell int) []int {
	var mean float64
	for _, v := range profile {
		mean += v
	}
	mean /= float64(len(profile))
	threshold := mean * profileFraction

	positions := []int{0}
	inContent := false
	for i, v := range profile {
		above := v > threshold
		if above != inContent {
			if i-positions[len(positions)-1] >= minCell {
				positions = append(positions, i)
			}
			inContent = above
		}
	}
	return append(positions, len(profile))
}

// filterPositions sorts and de-duplicates boundary positions so neighbours
// are at least minCell apart. The first position is always kept. The true
// extent replaces the last kept position when they are too close, so a
// thin final row or column is absorbed rather than lost.
func filterPositions(positions []int, extent, minCell int) []int {
	uniq := make(map[int]struct{}, len(positions))
	sorted := make([]int, 0, len(positions))
	for _, p := range positions {
		if p < 0 || p > extent {
			continue
		}
		if _, ok := uniq[p]; ok {
			continue
		}
		uniq[p] = struct{}{}
		sorted = append(sorted, p)
	}
	sort.Ints(sorted)
	if len(sorted) == 0 {
		return nil
	}

	kept := []int{sorted[0]}
	last := sorted[len(sorted)-1]
	for _, p := range sorted[1 : len(sorted)-1] {
		if p-kept[len(kept)-1] >= minCell {
			kept = append(kept, p)
		}
	}
	if len(sorted) > 1 {
		if last-kept[len(kept)-1] >= minCell {
			kept = append(kept, last)
		} else if len(kept) > 1 {
			kept[len(kept)-1] = last
		}
	}
	return kept
}

// BuildCells turns a grid into empty cells in page coordinates. origin is
// the table's top-left corner on the page. Each cell's initial confidence
// is its mean brightness, a placeholder until classification.
func BuildCells(page image.Image, origin image.Point, g Grid) []sheet.CellResult {
	cells := make([]sheet.CellResult, 0, g.RowCount()*g.ColumnCount())
	for r := 0; r < g.RowCount(); r++ {
		for c := 0; c < g.ColumnCount(); c++ {
			rect := geometry.Rect{
				X:      origin.X + g.Columns[c],
				Y:      origin.Y + g.Rows[r],
				Width:  g.Columns[c+1] - g.Columns[c],
				Height: g.Rows[r+1] - g.Rows[r],
			}
			if rect.Empty() {
				continue
			}
			cells = append(cells, sheet.CellResult{
				Row:        r,
				Column:     c,
				Bounds:     rect,
				Confidence: imaging.MeanIntensity(imaging.CropRect(page, rect)),
			})
		}
	}
	return cells
}
