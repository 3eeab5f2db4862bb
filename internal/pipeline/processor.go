// Package pipeline runs scanned pages through detection, classification and
// mark parsing, one page at a time or as a bounded concurrent batch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/omr-tools-mcp/internal/classify"
	"github.com/ironsheep/omr-tools-mcp/internal/detection"
	"github.com/ironsheep/omr-tools-mcp/internal/geometry"
	"github.com/ironsheep/omr-tools-mcp/internal/grading"
	"github.com/ironsheep/omr-tools-mcp/internal/marks"
	"github.com/ironsheep/omr-tools-mcp/internal/ocr"
	"github.com/ironsheep/omr-tools-mcp/internal/sheet"
)

// ErrNoTables is returned when a page has no detectable answer table.
var ErrNoTables = errors.New("pipeline: no answer tables found")

// Options configures a Processor.
type Options struct {
	Detection detection.Config
	Classify  classify.Options
	Marks     marks.Options

	// Deskew straightens each page before detection.
	Deskew bool

	// Workers bounds the pages processed at once (0 = number of CPUs).
	Workers int

	// PageTimeout limits the time spent on one page of a batch (0 = none).
	PageTimeout time.Duration

	// FirstQuestion is the number given to the first question of a page.
	FirstQuestion int
}

// DefaultOptions returns the standard pipeline options.
func DefaultOptions() Options {
	return Options{
		Detection:     detection.DefaultConfig(),
		Classify:      classify.DefaultOptions(),
		Marks:         marks.DefaultOptions(),
		PageTimeout:   2 * time.Minute,
		FirstQuestion: 1,
	}
}

// Page is one scanned page.
type Page struct {
	Source string
	Index  int
	Image  image.Image
}

// Reference carries what earlier sheets established for the ones that
// follow: the blank-sheet baseline and the table boxes of the answer key.
// It is read-only once processing starts.
type Reference struct {
	// Baseline replaces Options.Marks.Baseline when positive.
	Baseline float64 `json:"baseline"`

	// TableBoxes are searched one by one when a page yields no table.
	TableBoxes []geometry.Rect `json:"table_boxes,omitempty"`
}

// Sheet is a fully read page.
type Sheet struct {
	Source    string                   `json:"source"`
	PageIndex int                      `json:"page_index"`
	Skew      float64                  `json:"skew_degrees"`
	Fallback  bool                     `json:"roi_fallback"`
	Tables    []sheet.TableExtraction  `json:"tables"`
	Questions []sheet.NumberedQuestion `json:"questions"`
	Result    sheet.PageResult         `json:"result"`

	// Image is the page the tables refer to, after deskewing.
	Image image.Image `json:"-"`
}

// TableBoxes returns the bounds of the sheet's tables.
func (s *Sheet) TableBoxes() []geometry.Rect {
	boxes := make([]geometry.Rect, 0, len(s.Tables))
	for _, t := range s.Tables {
		if t.Bounds != nil {
			boxes = append(boxes, *t.Bounds)
		}
	}
	return boxes
}

// Processor reads answer sheets. It holds no per-page state and is safe for
// concurrent use.
type Processor struct {
	opts       Options
	classifier *classify.Classifier
	log        *logrus.Entry
}

// NewProcessor creates a Processor. rec may be nil to run without OCR.
func NewProcessor(rec ocr.Recognizer, opts Options, log *logrus.Entry) *Processor {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if opts.FirstQuestion <= 0 {
		opts.FirstQuestion = 1
	}
	return &Processor{
		opts:       opts,
		classifier: classify.New(rec, opts.Classify, log.WithField("component", "classify")),
		log:        log,
	}
}

// Options returns the processor's options.
func (p *Processor) Options() Options { return p.opts }

// OCREnabled reports whether cells are read with OCR.
func (p *Processor) OCREnabled() bool { return p.classifier.OCREnabled() }

// Detection is the outcome of table detection and classification on one
// page.
type Detection struct {
	// Image is the page the tables were found on, after deskewing.
	Image image.Image

	// Skew is the rotation removed from the page, in degrees.
	Skew float64

	// Fallback is set when the tables came from the reference boxes.
	Fallback bool

	Tables []sheet.TableExtraction
}

// DetectTables finds and classifies the tables of a page without parsing
// marks. It is the first half of ProcessPage.
func (p *Processor) DetectTables(ctx context.Context, page Page, ref Reference) (*Detection, error) {
	d := &Detection{Image: page.Image}
	if p.opts.Deskew {
		d.Image, d.Skew = detection.Deskew(page.Image)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tables := detection.DetectTables(d.Image, page.Source, page.Index, p.opts.Detection, nil)
	if len(tables) == 0 && len(ref.TableBoxes) > 0 {
		tables = p.detectInBoxes(d.Image, page, ref.TableBoxes)
		d.Fallback = len(tables) > 0
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.Tables = make([]sheet.TableExtraction, 0, len(tables))
	for _, t := range tables {
		c, err := p.classifier.ClassifyTable(ctx, d.Image, t)
		if err != nil {
			return nil, fmt.Errorf("classify table: %w", err)
		}
		d.Tables = append(d.Tables, c)
	}
	return d, nil
}

// detectInBoxes retries detection inside each reference box and keeps the
// first table found in each.
func (p *Processor) detectInBoxes(img image.Image, page Page, boxes []geometry.Rect) []sheet.TableExtraction {
	tables := make([]sheet.TableExtraction, 0, len(boxes))
	for i := range boxes {
		box := boxes[i]
		if t, ok := detection.DetectTable(img, page.Source, page.Index, p.opts.Detection, &box); ok {
			tables = append(tables, t)
		}
	}
	p.log.WithFields(logrus.Fields{
		"source": page.Source,
		"page":   page.Index,
		"boxes":  len(boxes),
		"found":  len(tables),
	}).Info("Retried detection inside reference boxes")
	return tables
}

// ProcessPage reads one page: optional deskew, table detection (with the
// reference-box fallback), cell classification, mark parsing and question
// numbering. The returned result is ungraded.
//
// A page without tables is not an error: it yields a Sheet with no
// questions. The context is checked between stages and between cells.
func (p *Processor) ProcessPage(ctx context.Context, page Page, ref Reference) (*Sheet, error) {
	start := time.Now()
	d, err := p.DetectTables(ctx, page, ref)
	if err != nil {
		return nil, fmt.Errorf("%s page %d: %w", page.Source, page.Index, err)
	}
	tables := d.Tables

	opts := p.opts.Marks
	if ref.Baseline > 0 {
		opts.Baseline = ref.Baseline
	}
	questions := marks.EnumerateQuestionMarks(tables, p.opts.FirstQuestion, opts)

	s := &Sheet{
		Source:    page.Source,
		PageIndex: page.Index,
		Skew:      d.Skew,
		Fallback:  d.Fallback,
		Tables:    tables,
		Questions: questions,
		Result:    grading.BuildPageResult(page.Source, page.Index, questions),
		Image:     d.Image,
	}
	p.log.WithFields(logrus.Fields{
		"source":    page.Source,
		"page":      page.Index,
		"tables":    len(tables),
		"questions": len(questions),
		"elapsed":   time.Since(start).String(),
	}).Debug("Processed page")
	return s, nil
}

// Calibrate measures the mean ink density of a blank answer sheet. The
// value is the mean over tables of each table's mean cell density.
func (p *Processor) Calibrate(ctx context.Context, page Page) (float64, error) {
	d, err := p.DetectTables(ctx, page, Reference{})
	if err != nil {
		return 0, fmt.Errorf("calibrate %s: %w", page.Source, err)
	}
	tables := d.Tables
	if len(tables) == 0 {
		return 0, fmt.Errorf("calibrate %s: %w", page.Source, ErrNoTables)
	}
	var sum float64
	for _, t := range tables {
		sum += t.MeanInkDensity()
	}
	baseline := sum / float64(len(tables))
	p.log.WithFields(logrus.Fields{
		"source":   page.Source,
		"tables":   len(tables),
		"baseline": baseline,
	}).Info("Calibrated blank sheet")
	return baseline, nil
}

// ReadAnswerKey processes a key sheet and builds the answer key from it.
// The sheet's table boxes are returned for use as reference boxes.
func (p *Processor) ReadAnswerKey(ctx context.Context, page Page, ref Reference) (sheet.AnswerKey, []geometry.Rect, error) {
	s, err := p.ProcessPage(ctx, page, ref)
	if err != nil {
		return sheet.AnswerKey{}, nil, err
	}
	if len(s.Tables) == 0 {
		return sheet.AnswerKey{}, nil, fmt.Errorf("answer key %s: %w", page.Source, ErrNoTables)
	}
	key, err := grading.BuildAnswerKey(page.Source, s.Questions)
	if err != nil {
		return sheet.AnswerKey{}, nil, fmt.Errorf("answer key %s: %w", page.Source, err)
	}
	return key, s.TableBoxes(), nil
}

func (p *Processor) workers(n int) int {
	w := p.opts.Workers
	if w <= 0 {
		w = runtime.NumCPU()
	}
	return max(1, min(w, n))
}
