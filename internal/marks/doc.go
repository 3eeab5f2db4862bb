// Package marks turns classified answer tables into per-question mark
// decisions.
//
// # Table Layout
//
// Row 0 of a table carries the question numbers and column 0 the choice
// labels. Every other column is one question and every other row one
// choice:
//
//	   |  1  |  2  |  3
//	A  |     |  x  |
//	B  |  x  |     |
//	C  |     |     |  x
//
// Header cells that OCR could not read are filled in from their neighbours
// (InferQuestionNumbers). Missing choice labels default to A, B, C, D.
//
// # Mark Selection
//
// SelectMarkedChoices compares the ink density of every choice of a
// question against an adaptive threshold derived from the question's own
// median density. A calibration baseline measured on a blank sheet can be
// subtracted first. When no choice crosses the threshold, a clearly darkest
// choice is still accepted (near-miss rescue).
//
// # Numbering Across Tables
//
// EnumerateQuestionMarks walks several tables of one page and assigns a
// single ascending sequence of question numbers, trusting a table's own
// numbers only while they continue the sequence without a large jump.
package marks
