package ocr

import (
	"errors"
	"image"

	"github.com/sirupsen/logrus"

	omrimaging "github.com/ironsheep/omr-tools-mcp/internal/imaging"
)

// Reading is the cleaned outcome of reading one cell.
type Reading struct {
	// Text is the cleaned text, empty when nothing usable was read.
	Text string `json:"text"`

	// Confidence is the recognizer's confidence, or the normalised pixel
	// variance of the prepared crop when the recognizer reports none.
	Confidence float64 `json:"confidence"`

	// Attempts is the number of recognizer calls made.
	Attempts int `json:"attempts"`
}

// Reader runs the multi-pass recognition strategy for single cells.
type Reader struct {
	rec Recognizer
	log *logrus.Entry

	primary   map[CharClass]Mode
	fallbacks map[CharClass][]Mode
}

// DefaultFallbacks returns the alternate modes tried when the primary and
// whitelist passes produced nothing.
func DefaultFallbacks() map[CharClass][]Mode {
	return map[CharClass][]Mode{
		Digits: {
			{PageSegMode: PSMSingleWord, Whitelist: DigitWhitelist},
			{PageSegMode: PSMBlock, Whitelist: DigitWhitelist},
			{PageSegMode: PSMRawLine, Whitelist: DigitWhitelist},
			{PageSegMode: PSMSingleLine},
		},
		Letters: {
			{PageSegMode: PSMSingleWord, Whitelist: LetterWhitelist},
			{PageSegMode: PSMRawLine, Whitelist: LetterWhitelist},
			{PageSegMode: PSMSingleChar},
			{PageSegMode: PSMSingleWord},
		},
	}
}

// NewReader creates a Reader. A nil fallbacks map uses DefaultFallbacks; an
// empty one disables fallback passes.
func NewReader(rec Recognizer, fallbacks map[CharClass][]Mode, log *logrus.Entry) *Reader {
	if fallbacks == nil {
		fallbacks = DefaultFallbacks()
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Reader{
		rec: rec,
		log: log,
		primary: map[CharClass]Mode{
			Digits:  {PageSegMode: PSMSingleLine},
			Letters: {PageSegMode: PSMSingleChar},
		},
		fallbacks: fallbacks,
	}
}

// ReadCell pads and prepares a raw cell crop and reads it.
//
// # Passes
//
//  1. Primary mode without a whitelist (single line for digits, single
//     character for letters)
//  2. When the cleaned text is non-empty but not of the expected class, the
//     same mode again with the class whitelist; its result replaces the
//     first only when it matches the class
//  3. When nothing was read, each fallback mode in turn until one yields
//     text
//
// Recognizer errors end the attempt they occurred in and are logged at
// debug level; they never abort the read. ErrUnavailable stops all passes.
func (r *Reader) ReadCell(crop image.Image, class CharClass) Reading {
	prepared := PrepareCell(PadCell(crop))
	reading := Reading{}

	attempt := func(mode Mode) (string, float64, bool) {
		reading.Attempts++
		res, err := r.rec.Recognize(prepared, mode)
		if err != nil {
			r.log.WithError(err).WithFields(logrus.Fields{
				"psm":       mode.PageSegMode,
				"whitelist": mode.Whitelist != "",
				"class":     class.String(),
			}).Debug("OCR attempt failed")
			return "", 0, !errors.Is(err, ErrUnavailable)
		}
		return class.Clean(res.Text), res.Confidence, true
	}

	primary := r.primary[class]
	text, conf, ok := attempt(primary)
	if !ok {
		return Reading{Attempts: reading.Attempts}
	}

	if text != "" && !class.Matches(text) {
		retry := primary
		retry.Whitelist = class.Whitelist()
		if t2, c2, ok2 := attempt(retry); ok2 && class.Matches(t2) {
			text, conf = t2, c2
		}
	}

	if text == "" {
		for _, mode := range r.fallbacks[class] {
			t, c, ok := attempt(mode)
			if !ok {
				break
			}
			if t != "" {
				text, conf = t, c
				break
			}
		}
	}

	if text == "" {
		return Reading{Attempts: reading.Attempts}
	}
	if conf <= 0 {
		conf = omrimaging.NormalizedVariance(prepared)
	}
	reading.Text = text
	reading.Confidence = conf
	return reading
}
