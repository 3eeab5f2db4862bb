package marks

import (
	"github.com/ironsheep/omr-tools-mcp/internal/sheet"
)

// buildTable lays out a classified table from header texts and a density
// matrix. headers[0] is the label column header; labels[i] is the text of
// row i+1 in column 0; densities[i][j] is the ink density of answer row i+1,
// question column j+1.
func buildTable(headers, labels []string, densities [][]float64) sheet.TableExtraction {
	rows := len(labels) + 1
	cols := len(headers)
	cells := make([]sheet.CellResult, 0, rows*cols)
	for c, h := range headers {
		cells = append(cells, sheet.CellResult{Row: 0, Column: c, Text: h})
	}
	for r := 1; r < rows; r++ {
		cells = append(cells, sheet.CellResult{Row: r, Column: 0, Text: labels[r-1]})
		for c := 1; c < cols; c++ {
			cells = append(cells, sheet.CellResult{Row: r, Column: c, InkDensity: densities[r-1][c-1]})
		}
	}
	return sheet.TableExtraction{Cells: cells, RowCount: rows, ColumnCount: cols}
}

func choicesOf(densities ...float64) []sheet.Choice {
	labels := []string{"A", "B", "C", "D", "E", "F"}
	choices := make([]sheet.Choice, len(densities))
	for i, d := range densities {
		choices[i] = sheet.Choice{Label: labels[i], Cell: sheet.CellResult{Row: i + 1, Column: 1, InkDensity: d}}
	}
	return choices
}

func labelsOf(choices []sheet.Choice) []string {
	out := make([]string, len(choices))
	for i, c := range choices {
		out[i] = c.Label
	}
	return out
}
