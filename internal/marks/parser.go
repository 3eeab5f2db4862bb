package marks

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/ironsheep/omr-tools-mcp/internal/sheet"
)

var defaultRowLabels = []string{"A", "B", "C", "D"}

// ParseChoiceTable reads one classified table into per-question marks.
//
// Parameters:
//   - table: The table shape (RowCount, ColumnCount).
//   - cells: The classified cells of the table.
//   - opts: Baseline, label overrides and thresholds.
//
// Returns the questions sorted by (question number, column), or nil when the
// table has no rows or no answer columns. Every column after the first is a
// question; a question lists one choice per labelled row that has a cell.
func ParseChoiceTable(table sheet.TableExtraction, cells []sheet.CellResult, opts Options) []sheet.QuestionMarks {
	if table.RowCount <= 0 || table.ColumnCount <= 1 {
		return nil
	}

	grid := table.Grid(cells)
	headers := make([]string, table.ColumnCount)
	for col, cell := range grid[0] {
		if cell != nil {
			headers[col] = cell.Text
		}
	}
	numbers := InferQuestionNumbers(headers)
	labels := inferRowLabels(grid, opts.RowLabels)

	questions := make([]sheet.QuestionMarks, 0, table.ColumnCount-1)
	for col := 1; col < table.ColumnCount; col++ {
		choices := make([]sheet.Choice, 0, len(labels))
		for _, rl := range labels {
			cell := grid[rl.row][col]
			if cell == nil {
				continue
			}
			choices = setChoice(choices, sheet.Choice{Label: rl.label, Cell: *cell})
		}
		questions = append(questions, sheet.QuestionMarks{
			Question:    numbers[col],
			ColumnIndex: col,
			Choices:     choices,
			Marked:      SelectMarkedChoices(choices, opts.Baseline, opts.Thresholds),
		})
	}

	sort.SliceStable(questions, func(i, j int) bool {
		if questions[i].Question != questions[j].Question {
			return questions[i].Question < questions[j].Question
		}
		return questions[i].ColumnIndex < questions[j].ColumnIndex
	})
	return questions
}

// setChoice appends c, or replaces the earlier choice with the same label
// so every label appears once.
func setChoice(choices []sheet.Choice, c sheet.Choice) []sheet.Choice {
	for i := range choices {
		if choices[i].Label == c.Label {
			choices[i].Cell = c.Cell
			return choices
		}
	}
	return append(choices, c)
}

// InferQuestionNumbers maps header texts to question numbers.
//
// headers[i] is the OCR text of the header cell in column i. The result has
// the same length; index 0 is the label column and is always 0.
//
// # Algorithm
//
//  1. Parse the first run of digits in every header
//  2. Walk columns left to right filling the gaps: one more than the last
//     known number on the left; otherwise counted back from the next known
//     number on the right; otherwise offset from the first number parsed
//     anywhere; otherwise the column index itself
func InferQuestionNumbers(headers []string) []int {
	numbers := make([]int, len(headers))
	known := make([]bool, len(headers))
	fallback, haveFallback := 0, false

	for col := 1; col < len(headers); col++ {
		if n, ok := parseQuestionNumber(headers[col]); ok {
			numbers[col], known[col] = n, true
			if !haveFallback {
				fallback, haveFallback = n, true
			}
		}
	}

	last := 0
	for col := 1; col < len(headers); col++ {
		if known[col] {
			last = numbers[col]
			continue
		}
		if last > 0 {
			numbers[col] = last + 1
			last = numbers[col]
			continue
		}
		if next, ok := nextKnown(known, col); ok {
			numbers[col] = numbers[next] - (next - col)
			last = numbers[col]
			continue
		}
		if haveFallback {
			numbers[col] = fallback + col - 1
		} else {
			numbers[col] = col
		}
	}
	return numbers
}

func nextKnown(known []bool, col int) (int, bool) {
	for next := col + 1; next < len(known); next++ {
		if known[next] {
			return next, true
		}
	}
	return 0, false
}

// parseQuestionNumber returns the first run of decimal digits in text.
func parseQuestionNumber(text string) (int, bool) {
	start := strings.IndexFunc(text, isDigit)
	if start < 0 {
		return 0, false
	}
	end := start
	for end < len(text) && isDigit(rune(text[end])) {
		end++
	}
	n, err := strconv.Atoi(text[start:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

type rowLabel struct {
	row   int
	label string
}

// inferRowLabels names the choice rows (row 1 onward).
func inferRowLabels(grid [][]*sheet.CellResult, overrides []string) []rowLabel {
	cleaned := make([]string, 0, len(overrides))
	for _, o := range overrides {
		if o = strings.TrimSpace(o); o != "" {
			cleaned = append(cleaned, o)
		}
	}

	labels := make([]rowLabel, 0, len(grid))
	for row := 1; row < len(grid); row++ {
		if len(cleaned) > 0 {
			if row-1 >= len(cleaned) {
				break
			}
			labels = append(labels, rowLabel{row: row, label: cleaned[row-1]})
			continue
		}

		var text string
		if len(grid[row]) > 0 && grid[row][0] != nil {
			text = grid[row][0].Text
		}
		label, ok := firstLetter(strings.ToUpper(strings.TrimSpace(text)))
		if !ok {
			label = defaultRowLabel(row)
		}
		labels = append(labels, rowLabel{row: row, label: label})
	}
	return labels
}

func defaultRowLabel(row int) string {
	if row-1 < len(defaultRowLabels) {
		return defaultRowLabels[row-1]
	}
	return fmt.Sprintf("Option%d", row)
}

func firstLetter(s string) (string, bool) {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return string(r), true
		}
	}
	return "", false
}
