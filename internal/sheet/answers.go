package sheet

import "strings"

// Choice pairs a choice label with the cell it was read from.
type Choice struct {
	Label string     `json:"label"`
	Cell  CellResult `json:"cell"`
}

// QuestionMarks is the mark decision for one question column.
//
// Choices lists every row of the column in row order. Marked is a subset of
// Choices; it is empty for an unanswered question and holds more than one
// entry when several choices were marked.
type QuestionMarks struct {
	Question    int      `json:"question"`
	ColumnIndex int      `json:"column_index"`
	Choices     []Choice `json:"choices"`
	Marked      []Choice `json:"marked"`
}

// Choice looks up a choice by label.
func (q QuestionMarks) Choice(label string) (CellResult, bool) {
	for _, c := range q.Choices {
		if c.Label == label {
			return c.Cell, true
		}
	}
	return CellResult{}, false
}

// MarkedLabels returns the labels of the marked choices in row order.
func (q QuestionMarks) MarkedLabels() []string {
	labels := make([]string, len(q.Marked))
	for i, m := range q.Marked {
		labels[i] = m.Label
	}
	return labels
}

// Answer joins the marked labels without a separator ("AC" for a double
// mark) or returns "" when nothing was marked.
func (q QuestionMarks) Answer() string {
	return strings.Join(q.MarkedLabels(), "")
}

// NumberedQuestion is a question after cross-table renumbering. Number is
// the page-wide question number; Marks.Question keeps the number read from
// the table itself.
type NumberedQuestion struct {
	Number int           `json:"number"`
	Marks  QuestionMarks `json:"marks"`
}

// AnswerKey maps question numbers to expected answers.
type AnswerKey struct {
	Source  string         `json:"source,omitempty"`
	Answers map[int]string `json:"answers"`
}

// Expected returns the key's answer for question and whether one exists.
func (k AnswerKey) Expected(question int) (string, bool) {
	a, ok := k.Answers[question]
	return a, ok
}

// Len returns the number of questions in the key.
func (k AnswerKey) Len() int { return len(k.Answers) }

// PageAnswer is one question's extracted answer on a graded page.
//
// IsCorrect is nil when the key has no entry for the question.
type PageAnswer struct {
	Question  int    `json:"question"`
	Extracted string `json:"extracted"`
	Expected  string `json:"expected,omitempty"`
	IsCorrect *bool  `json:"is_correct"`
}

// PageResult holds the graded answers for one scanned page.
type PageResult struct {
	Source     string       `json:"source"`
	PageIndex  int          `json:"page_index"`
	Answers    []PageAnswer `json:"answers"`
	Correct    int          `json:"correct"`
	Incorrect  int          `json:"incorrect"`
	Unanswered int          `json:"unanswered"`
	Total      int          `json:"total"`
}
