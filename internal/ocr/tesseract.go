package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// TesseractOptions configures the Tesseract backend.
type TesseractOptions struct {
	// Language is a Tesseract language code such as "eng". Several codes
	// may be joined with "+".
	Language string

	// TessdataPrefix overrides the directory holding *.traineddata files.
	// Empty uses the Tesseract default (TESSDATA_PREFIX or the install
	// location).
	TessdataPrefix string
}

// Tesseract is a Recognizer backed by a single gosseract client.
//
// The underlying TessBaseAPI is not safe for concurrent use, so every call
// holds a mutex for the whole set-image/recognise sequence. Create one
// Tesseract per process and share it.
type Tesseract struct {
	mu      sync.Mutex
	client  *gosseract.Client
	opts    TesseractOptions
	version string
}

// NewTesseract creates and configures a Tesseract client.
//
// Returns an error when the language or tessdata prefix cannot be applied or
// the engine fails its first recognition. Callers usually fall back to
// Unavailable in that case.
func NewTesseract(opts TesseractOptions) (*Tesseract, error) {
	if opts.Language == "" {
		opts.Language = "eng"
	}

	client := gosseract.NewClient()
	if opts.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(opts.TessdataPrefix); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(strings.Split(opts.Language, "+")...); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set language: %w", err)
	}

	if err := probe(client); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialise tesseract: %w", err)
	}

	return &Tesseract{
		client:  client,
		opts:    opts,
		version: client.Version(),
	}, nil
}

// probe runs one recognition on a blank image. gosseract initialises the
// engine lazily, so a missing language file only shows up here.
func probe(client *gosseract.Client) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 16, 16))); err != nil {
		return err
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return err
	}
	_, err := client.Text()
	return err
}

// Recognize reads the text in img.
//
// The crop is sent to Tesseract as PNG bytes, so no temporary files are
// involved. Confidence is the mean word confidence reported by Tesseract,
// scaled to 0..1; it is 0 when no words were found.
func (t *Tesseract) Recognize(img image.Image, mode Mode) (Result, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Result{}, fmt.Errorf("failed to encode crop: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.client == nil {
		return Result{}, ErrUnavailable
	}
	if err := t.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return Result{}, fmt.Errorf("failed to set image: %w", err)
	}
	if mode.PageSegMode > 0 {
		if err := t.client.SetPageSegMode(gosseract.PageSegMode(mode.PageSegMode)); err != nil {
			return Result{}, fmt.Errorf("failed to set page segmentation mode: %w", err)
		}
	}
	// An empty whitelist clears the previous call's restriction.
	if err := t.client.SetWhitelist(mode.Whitelist); err != nil {
		return Result{}, fmt.Errorf("failed to set whitelist: %w", err)
	}

	text, err := t.client.Text()
	if err != nil {
		return Result{}, fmt.Errorf("OCR failed: %w", err)
	}

	result := Result{Text: text}
	boxes, err := t.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		// Text is still usable without word confidences
		return result, nil
	}
	var sum float64
	words := 0
	for _, box := range boxes {
		if box.Word == "" {
			continue
		}
		sum += box.Confidence
		words++
	}
	if words > 0 {
		result.Confidence = sum / float64(words) / 100.0
	}
	return result, nil
}

// Describe reports the backend's configuration.
func (t *Tesseract) Describe() Info {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Info{
		Available:      t.client != nil,
		Backend:        "tesseract (gosseract)",
		Version:        t.version,
		Language:       t.opts.Language,
		TessdataPrefix: t.opts.TessdataPrefix,
	}
}

// Close releases the Tesseract client. Recognize fails with ErrUnavailable
// afterwards.
func (t *Tesseract) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client == nil {
		return nil
	}
	err := t.client.Close()
	t.client = nil
	return err
}

// Open returns a Tesseract recognizer, or an Unavailable one describing why
// Tesseract could not be set up. It never fails.
func Open(opts TesseractOptions) Recognizer {
	t, err := NewTesseract(opts)
	if err != nil {
		return Unavailable{Reason: err.Error()}
	}
	return t
}
