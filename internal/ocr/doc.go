// Package ocr reads the short texts found in answer-sheet cells: question
// numbers in the header row and choice letters in the label column.
//
// # Recognizers
//
// Recognition goes through the Recognizer interface so the engine can be
// swapped or faked in tests. Tesseract wraps a single gosseract client
// behind a mutex; Unavailable stands in when Tesseract cannot be set up and
// makes every call fail with ErrUnavailable.
//
// # Prerequisites
//
// The Tesseract backend needs the Tesseract and Leptonica libraries at
// build time and language data at run time:
//   - Ubuntu/Debian: apt-get install libtesseract-dev tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// TesseractOptions.TessdataPrefix points at a custom tessdata directory.
//
// # Cell Reading
//
// Reader.ReadCell pads the crop with white, prepares it (upscaling, median
// denoise, CLAHE, Otsu, light cleanup, sharpening) and runs up to three kinds
// of passes: a primary unconstrained pass, a whitelist-constrained retry
// when the text is not of the expected class, and a list of fallback
// segmentation modes when nothing was read. Errors are logged per attempt
// and never returned.
//
// # Text Cleanup
//
// CleanCellText folds look-alike characters into digits (|, !, l, I to 1;
// O, o, D to 0; S, s to 5; Z, z to 2; B to 8; G to 6), drops everything that
// is not alphanumeric and upper-cases the rest. It is idempotent.
// CleanLabelText does the same without folding, for letter cells.
package ocr
