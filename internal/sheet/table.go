package sheet

import "github.com/ironsheep/omr-tools-mcp/internal/geometry"

// CellResult is one classified grid cell.
//
// Row 0 holds the question-number header and column 0 the choice-label
// header; every other cell is an answer cell.
type CellResult struct {
	Row        int           `json:"row"`
	Column     int           `json:"column"`
	Text       string        `json:"text"`
	Confidence float64       `json:"confidence"`
	Bounds     geometry.Rect `json:"bounds"`
	InkDensity float64       `json:"ink_density"`
}

// HasMark reports whether the cell carries at least threshold ink.
// A non-positive threshold never matches.
func (c CellResult) HasMark(threshold float64) bool {
	return threshold > 0 && c.InkDensity >= threshold
}

// TableExtraction is one detected answer table.
type TableExtraction struct {
	Source      string         `json:"source"`
	PageIndex   int            `json:"page_index"`
	Bounds      *geometry.Rect `json:"bounds,omitempty"`
	Cells       []CellResult   `json:"cells"`
	RowCount    int            `json:"row_count"`
	ColumnCount int            `json:"column_count"`
}

// WithCells returns a copy of t carrying cells. The receiver is left
// untouched.
func (t TableExtraction) WithCells(cells []CellResult) TableExtraction {
	out := t
	out.Cells = append([]CellResult(nil), cells...)
	if t.Bounds != nil {
		b := *t.Bounds
		out.Bounds = &b
	}
	return out
}

// Complete reports whether every grid position has a cell.
func (t TableExtraction) Complete() bool {
	return t.RowCount > 0 && t.ColumnCount > 0 && len(t.Cells) == t.RowCount*t.ColumnCount
}

// Grid arranges cells by position. Positions without a cell (or cells that
// fall outside RowCount x ColumnCount) are nil.
func (t TableExtraction) Grid(cells []CellResult) [][]*CellResult {
	grid := make([][]*CellResult, t.RowCount)
	for r := range grid {
		grid[r] = make([]*CellResult, t.ColumnCount)
	}
	for i := range cells {
		c := &cells[i]
		if c.Row < 0 || c.Row >= t.RowCount || c.Column < 0 || c.Column >= t.ColumnCount {
			continue
		}
		grid[c.Row][c.Column] = c
	}
	return grid
}

// MeanInkDensity averages the ink density over the table's cells, or returns
// 0 when the table has none.
func (t TableExtraction) MeanInkDensity() float64 {
	if len(t.Cells) == 0 {
		return 0
	}
	var sum float64
	for _, c := range t.Cells {
		sum += c.InkDensity
	}
	return sum / float64(len(t.Cells))
}
