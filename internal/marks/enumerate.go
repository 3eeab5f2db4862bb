package marks

import (
	"sort"

	"github.com/ironsheep/omr-tools-mcp/internal/sheet"
)

// EnumerateQuestionMarks parses several tables of one page and numbers
// their questions as one ascending sequence starting at start.
//
// Tables are taken in the given order and questions in column order. Each
// question is expected to be one more than the previous. A table's own
// number is kept when it is at least the expected one and no more than
// MaxForwardJump past the previous question; otherwise the expected number
// is used. A misread header therefore cannot derail the numbering of the
// tables that follow.
func EnumerateQuestionMarks(tables []sheet.TableExtraction, start int, opts Options) []sheet.NumberedQuestion {
	jump := opts.MaxForwardJump
	if jump <= 0 {
		jump = DefaultMaxForwardJump
	}

	previous := start - 1
	out := make([]sheet.NumberedQuestion, 0)
	for _, table := range tables {
		questions := ParseChoiceTable(table, table.Cells, opts)
		sort.SliceStable(questions, func(i, j int) bool {
			return questions[i].ColumnIndex < questions[j].ColumnIndex
		})
		for _, q := range questions {
			expected := previous + 1
			number := expected
			if q.Question >= expected && q.Question-previous <= jump {
				number = q.Question
			}
			previous = number
			out = append(out, sheet.NumberedQuestion{Number: number, Marks: q})
		}
	}
	return out
}
