// Package sheet holds the values passed between the stages of the grading
// pipeline: classified cells, detected tables, per-question mark decisions,
// answer keys and graded page results.
//
// Every value is treated as immutable once built. Stages that refine a value
// (for example the classifier filling in a table's cells) return a new value
// rather than editing the one they were given, so a table snapshot can be
// shared between goroutines without locking.
package sheet
