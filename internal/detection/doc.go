// Package detection finds the structure of an answer sheet: tables, their
// row and column rulings, and the checkboxes or bubbles inside cells.
//
// # Table Detection
//
// DetectTables binarizes a page with an adaptive threshold, closes small
// breaks in the borders and keeps connected outlines that cover enough of
// the page. Fragments of one table that sit side by side can be merged back
// together (MergeBoxes). Each surviving rectangle is handed to the grid
// estimator.
//
// # Grid Estimation
//
// EstimateGrid isolates long horizontal and vertical strokes with
// morphological rulers, runs Canny and a Hough transform over them, and
// collects the line positions. When too few lines are found it falls back
// to projection profiles of the region. Positions closer than the minimum
// cell size are merged, and the region's true extents are always kept.
//
// # Checkbox Analysis
//
// AnalyzeCheckbox scores box-like outlines inside a single cell and
// measures how much of the best one is filled.
//
// # Deskew
//
// Deskew estimates the dominant tilt of the page rulings and rotates the
// page to remove it.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Rectangles are X, Y, Width, Height
//
// Grid positions are relative to the table region; cells and table bounds
// are in page coordinates.
//
// # Limitations
//
// The detector expects ruled tables. Tables drawn without borders are only
// found when the caller supplies a region of interest, and their grid then
// comes from the projection fallback alone.
package detection
