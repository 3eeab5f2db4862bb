package marks

import (
	"reflect"
	"testing"

	"github.com/ironsheep/omr-tools-mcp/internal/sheet"
)

func TestInferQuestionNumbers(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    []int
	}{
		{"gaps between known numbers", []string{"", "1", "", "", "4"}, []int{0, 1, 2, 3, 4}},
		{"counted back from the right", []string{"", "", "", "5"}, []int{0, 3, 4, 5}},
		{"nothing readable", []string{"", "", ""}, []int{0, 1, 2}},
		{"first digit run", []string{"", "Q7", "8a", "9 10"}, []int{0, 7, 8, 9}},
		{"known numbers are kept", []string{"", "3", "x", "12"}, []int{0, 3, 4, 12}},
		{"zero header falls back to offset", []string{"", "0", ""}, []int{0, 0, 1}},
		{"label column ignored", []string{"5"}, []int{0}},
		{"empty", []string{}, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferQuestionNumbers(tt.headers); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("InferQuestionNumbers(%q) = %v, want %v", tt.headers, got, tt.want)
			}
		})
	}
}

func TestParseChoiceTable(t *testing.T) {
	table := buildTable(
		[]string{"", "1", "2", "3"},
		[]string{"A", "B", "C", "D"},
		[][]float64{
			{0.0, 0.0, 0.0},
			{0.4, 0.0, 0.0},
			{0.0, 0.0, 0.0},
			{0.0, 0.3, 0.0},
		},
	)

	questions := ParseChoiceTable(table, table.Cells, DefaultOptions())
	if len(questions) != 3 {
		t.Fatalf("Expected 3 questions, got %d", len(questions))
	}

	wantAnswers := []string{"B", "D", ""}
	for i, q := range questions {
		if q.Question != i+1 || q.ColumnIndex != i+1 {
			t.Errorf("Question %d: number %d column %d", i, q.Question, q.ColumnIndex)
		}
		if len(q.Choices) != 4 {
			t.Errorf("Question %d: expected 4 choices, got %d", q.Question, len(q.Choices))
		}
		if got := q.Answer(); got != wantAnswers[i] {
			t.Errorf("Question %d: answer %q, want %q", q.Question, got, wantAnswers[i])
		}
	}

	cell, ok := questions[0].Choice("B")
	if !ok || cell.Row != 2 || cell.Column != 1 {
		t.Errorf("Choice B of question 1 = %+v, %v", cell, ok)
	}
}

func TestParseChoiceTable_Degenerate(t *testing.T) {
	tests := []struct {
		name  string
		table sheet.TableExtraction
	}{
		{"no rows", sheet.TableExtraction{RowCount: 0, ColumnCount: 4}},
		{"label column only", buildTable([]string{""}, []string{"A", "B"}, [][]float64{{}, {}})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseChoiceTable(tt.table, tt.table.Cells, DefaultOptions()); got != nil {
				t.Errorf("Expected nil, got %v", got)
			}
		})
	}
}

func TestParseChoiceTable_SortedByQuestion(t *testing.T) {
	table := buildTable([]string{"", "5", "2"}, []string{"A"}, [][]float64{{0, 0}})
	questions := ParseChoiceTable(table, table.Cells, DefaultOptions())

	if len(questions) != 2 || questions[0].Question != 2 || questions[1].Question != 5 {
		t.Fatalf("Unexpected order: %+v", questions)
	}
	if questions[0].ColumnIndex != 2 {
		t.Errorf("Question 2 should come from column 2, got %d", questions[0].ColumnIndex)
	}
}

func TestParseChoiceTable_RowLabels(t *testing.T) {
	densities := [][]float64{{0}, {0}, {0}, {0}, {0}, {0}}

	tests := []struct {
		name      string
		labels    []string
		overrides []string
		want      []string
	}{
		{
			name:   "read from the label column",
			labels: []string{"a)", "", "(c)", "D.", "", ""},
			want:   []string{"A", "B", "C", "D", "Option5", "Option6"},
		},
		{
			name:      "overrides stop when exhausted",
			labels:    []string{"A", "B", "C", "D", "E", "F"},
			overrides: []string{"  ", "X", " Y "},
			want:      []string{"X", "Y"},
		},
		{
			name:      "blank overrides fall back to the text",
			labels:    []string{"T", "F", "", "", "", ""},
			overrides: []string{"", " "},
			want:      []string{"T", "F", "C", "D", "Option5", "Option6"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := buildTable([]string{"", "1"}, tt.labels, densities)
			opts := DefaultOptions()
			opts.RowLabels = tt.overrides

			questions := ParseChoiceTable(table, table.Cells, opts)
			if len(questions) != 1 {
				t.Fatalf("Expected 1 question, got %d", len(questions))
			}
			got := make([]string, len(questions[0].Choices))
			for i, c := range questions[0].Choices {
				got[i] = c.Label
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Labels = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseChoiceTable_MissingCells(t *testing.T) {
	table := buildTable([]string{"", "1", "2"}, []string{"A", "B"}, [][]float64{{0, 0.5}, {0, 0}})
	cells := make([]sheet.CellResult, 0, len(table.Cells))
	for _, c := range table.Cells {
		if c.Row == 1 && c.Column == 1 {
			continue
		}
		cells = append(cells, c)
	}

	questions := ParseChoiceTable(table, cells, DefaultOptions())
	if len(questions[0].Choices) != 1 || questions[0].Choices[0].Label != "B" {
		t.Errorf("Question 1 should only have choice B, got %+v", questions[0].Choices)
	}
	if got := questions[1].Answer(); got != "A" {
		t.Errorf("Question 2 answer = %q, want A", got)
	}
}
