// Package grading compares the answers read from student sheets against an
// answer key read from a key sheet.
package grading

import (
	"errors"
	"sort"
	"strings"
	"unicode"

	"github.com/ironsheep/omr-tools-mcp/internal/sheet"
)

// ErrEmptyAnswerKey is returned when a key sheet yields no answered
// question.
var ErrEmptyAnswerKey = errors.New("grading: answer key sheet has no marked answers")

// BuildAnswerKey turns the numbered questions of a key sheet into an answer
// key. Unanswered questions are left out of the key, so they are never
// graded.
func BuildAnswerKey(source string, questions []sheet.NumberedQuestion) (sheet.AnswerKey, error) {
	answers := make(map[int]string, len(questions))
	for _, q := range questions {
		if a := q.Marks.Answer(); a != "" {
			answers[q.Number] = a
		}
	}
	if len(answers) == 0 {
		return sheet.AnswerKey{}, ErrEmptyAnswerKey
	}
	return sheet.AnswerKey{Source: source, Answers: answers}, nil
}

// BuildPageResult records the extracted answers of one page, ungraded.
// Answers are ordered by question number; a number seen twice keeps its
// first answer.
func BuildPageResult(source string, pageIndex int, questions []sheet.NumberedQuestion) sheet.PageResult {
	seen := make(map[int]bool, len(questions))
	answers := make([]sheet.PageAnswer, 0, len(questions))
	for _, q := range questions {
		if seen[q.Number] {
			continue
		}
		seen[q.Number] = true
		answers = append(answers, sheet.PageAnswer{Question: q.Number, Extracted: q.Marks.Answer()})
	}
	sort.SliceStable(answers, func(i, j int) bool { return answers[i].Question < answers[j].Question })

	return sheet.PageResult{
		Source:    source,
		PageIndex: pageIndex,
		Answers:   answers,
		Total:     len(answers),
	}
}

// Evaluate grades result against key and returns the graded copy.
//
// Answers compare equal ignoring case and whitespace. A question the key
// does not cover keeps a nil IsCorrect and counts toward neither Correct nor
// Incorrect. Unanswered counts every empty extracted answer, graded or not;
// an unanswered question with a key entry is also Incorrect.
func Evaluate(result sheet.PageResult, key sheet.AnswerKey) sheet.PageResult {
	out := result
	out.Answers = make([]sheet.PageAnswer, len(result.Answers))
	out.Correct, out.Incorrect, out.Unanswered = 0, 0, 0
	out.Total = len(result.Answers)

	for i, a := range result.Answers {
		a.IsCorrect = nil
		a.Expected = ""
		if normalizeAnswer(a.Extracted) == "" {
			out.Unanswered++
		}
		if expected, ok := key.Expected(a.Question); ok {
			correct := normalizeAnswer(a.Extracted) == normalizeAnswer(expected)
			a.Expected = expected
			a.IsCorrect = &correct
			if correct {
				out.Correct++
			} else {
				out.Incorrect++
			}
		}
		out.Answers[i] = a
	}
	return out
}

// Score returns the share of keyed questions answered correctly, or 0 when
// none were keyed.
func Score(result sheet.PageResult) float64 {
	graded := result.Correct + result.Incorrect
	if graded == 0 {
		return 0
	}
	return float64(result.Correct) / float64(graded)
}

func normalizeAnswer(s string) string {
	return strings.ToUpper(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s))
}
