package ocr

import (
	"errors"
	"image"
)

// Tesseract page segmentation modes used for cell reading.
const (
	PSMBlock      = 6
	PSMSingleLine = 7
	PSMSingleWord = 8
	PSMSingleChar = 10
	PSMRawLine    = 13
)

// ErrUnavailable is returned by recognizers that have no working backend.
var ErrUnavailable = errors.New("ocr: text recognition backend unavailable")

// Mode selects how a recognizer reads an image.
type Mode struct {
	// PageSegMode is a Tesseract page segmentation mode (PSM*).
	PageSegMode int

	// Whitelist restricts recognised characters. Empty means unrestricted.
	Whitelist string
}

// Result is the outcome of one recognition call.
type Result struct {
	// Text is the raw recognised text.
	Text string `json:"text"`

	// Confidence is the recogniser's confidence in 0..1, or 0 when the
	// backend does not report one.
	Confidence float64 `json:"confidence"`
}

// Recognizer turns an image crop into text.
//
// Implementations must be safe for concurrent use, either by being
// stateless or by serialising access internally, and must accept crops as
// small as 5x5 pixels without failing.
type Recognizer interface {
	Recognize(img image.Image, mode Mode) (Result, error)
}

// Unavailable is a Recognizer that always fails with ErrUnavailable. It
// stands in when Tesseract cannot be initialised, so callers keep a single
// code path.
type Unavailable struct {
	// Reason describes why no backend is available.
	Reason string
}

// Recognize implements Recognizer.
func (Unavailable) Recognize(image.Image, Mode) (Result, error) {
	return Result{}, ErrUnavailable
}

// Info describes the state of the OCR subsystem.
type Info struct {
	Available      bool   `json:"available"`
	Backend        string `json:"backend"`
	Version        string `json:"version,omitempty"`
	Language       string `json:"language,omitempty"`
	TessdataPrefix string `json:"tessdata_prefix,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Describe reports what a recognizer is. Recognizers that know more about
// themselves implement Describe() Info.
func Describe(r Recognizer) Info {
	switch v := r.(type) {
	case nil:
		return Info{Backend: "none", Error: "OCR disabled"}
	case interface{ Describe() Info }:
		return v.Describe()
	case Unavailable:
		return Info{Backend: "none", Error: v.Reason}
	case *Unavailable:
		return Info{Backend: "none", Error: v.Reason}
	default:
		return Info{Available: true, Backend: "custom"}
	}
}
