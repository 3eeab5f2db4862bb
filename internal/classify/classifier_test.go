package classify

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/ironsheep/omr-tools-mcp/internal/geometry"
	"github.com/ironsheep/omr-tools-mcp/internal/ocr"
	"github.com/ironsheep/omr-tools-mcp/internal/sheet"
	"github.com/ironsheep/omr-tools-mcp/internal/sheet/sheettest"
)

// constantRecognizer reads the same text from every crop.
type constantRecognizer struct {
	mu    sync.Mutex
	text  string
	calls int
}

func (c *constantRecognizer) Recognize(image.Image, ocr.Mode) (ocr.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return ocr.Result{Text: c.text, Confidence: 0.9}, nil
}

func nullLog() (*logrus.Entry, *test.Hook) {
	l, hook := test.NewNullLogger()
	return logrus.NewEntry(l), hook
}

// layoutTable builds the empty grid of a layout directly, each cell
// spanning from its own rulings to the next ones.
func layoutTable(l sheettest.Layout) sheet.TableExtraction {
	cells := make([]sheet.CellResult, 0, l.Rows*l.Columns)
	for r := 0; r < l.Rows; r++ {
		for c := 0; c < l.Columns; c++ {
			cells = append(cells, sheet.CellResult{
				Row:    r,
				Column: c,
				Bounds: geometry.Rect{
					X:      l.Origin.X + c*l.CellSize,
					Y:      l.Origin.Y + r*l.CellSize,
					Width:  l.CellSize + l.LineWidth,
					Height: l.CellSize + l.LineWidth,
				},
			})
		}
	}
	bounds := geometry.FromImage(l.TableRect())
	return sheet.TableExtraction{
		Source:      "sheet.png",
		Bounds:      &bounds,
		Cells:       cells,
		RowCount:    l.Rows,
		ColumnCount: l.Columns,
	}
}

func cellAt(t *testing.T, table sheet.TableExtraction, row, col int) sheet.CellResult {
	t.Helper()
	for _, c := range table.Cells {
		if c.Row == row && c.Column == col {
			return c
		}
	}
	t.Fatalf("No cell at (%d,%d)", row, col)
	return sheet.CellResult{}
}

func TestClassifyTable_DensityOnly(t *testing.T) {
	layout := sheettest.DefaultLayout()
	page := layout.Page()
	layout.Mark(page, 2, 1, 14)
	table := layoutTable(layout)

	log, _ := nullLog()
	got, err := New(nil, DefaultOptions(), log).ClassifyTable(context.Background(), page, table)
	if err != nil {
		t.Fatalf("ClassifyTable failed: %v", err)
	}
	if len(got.Cells) != len(table.Cells) {
		t.Fatalf("Expected %d cells, got %d", len(table.Cells), len(got.Cells))
	}

	for _, c := range got.Cells {
		if c.Text != "" {
			t.Errorf("Cell (%d,%d) has text %q without OCR", c.Row, c.Column, c.Text)
		}
		if c.Row == 2 && c.Column == 1 {
			if c.InkDensity < 0.05 {
				t.Errorf("Marked cell density = %f, want >= 0.05", c.InkDensity)
			}
			if c.Confidence <= 0 {
				t.Errorf("Marked cell confidence = %f, want > 0", c.Confidence)
			}
			continue
		}
		if c.InkDensity > 0.01 {
			t.Errorf("Blank cell (%d,%d) density = %f", c.Row, c.Column, c.InkDensity)
		}
	}

	if table.Cells[11].InkDensity != 0 {
		t.Error("Input table was modified")
	}
}

func TestClassifyTable_TinyCellPlaceholder(t *testing.T) {
	page := sheettest.DefaultLayout().Page()
	table := sheet.TableExtraction{
		RowCount:    1,
		ColumnCount: 2,
		Cells: []sheet.CellResult{
			{Row: 0, Column: 0, Bounds: geometry.Rect{X: 10, Y: 10, Width: 4, Height: 30}, Confidence: 0.7},
			{Row: 0, Column: 1, Bounds: geometry.Rect{X: 398, Y: 398, Width: 30, Height: 30}},
		},
	}

	log, _ := nullLog()
	got, err := New(nil, DefaultOptions(), log).ClassifyTable(context.Background(), page, table)
	if err != nil {
		t.Fatalf("ClassifyTable failed: %v", err)
	}
	for _, c := range got.Cells {
		if c.Text != "" || c.Confidence != 0 || c.InkDensity != 0 {
			t.Errorf("Expected placeholder for cell %d, got %+v", c.Column, c)
		}
	}
	if got.Cells[0].Bounds != table.Cells[0].Bounds {
		t.Error("Placeholder should keep the original bounds")
	}
}

func TestClassifyTable_OCRRouting(t *testing.T) {
	layout := sheettest.DefaultLayout()
	page := layout.Page()
	table := layoutTable(layout)
	whole := geometry.RelativeRect{X: 0, Y: 0, Width: 1, Height: 1}
	header := geometry.RelativeRect{X: 0, Y: 0, Width: 1, Height: 0.1}

	tests := []struct {
		name      string
		regions   RegionOverrides
		wantText  map[[2]int]string
		wantCalls bool
	}{
		{
			name:      "no overrides reads every cell",
			wantText:  map[[2]int]string{{0, 0}: "A", {1, 0}: "A", {3, 2}: "A"},
			wantCalls: true,
		},
		{
			name:     "mark-only table skips OCR",
			regions:  RegionOverrides{OMR: []geometry.RelativeRect{whole}},
			wantText: map[[2]int]string{{0, 0}: "", {1, 0}: "", {3, 2}: ""},
		},
		{
			name: "OCR zone wins over mark zone",
			regions: RegionOverrides{
				OCR: []geometry.RelativeRect{header},
				OMR: []geometry.RelativeRect{whole},
			},
			wantText:  map[[2]int]string{{0, 0}: "A", {1, 0}: "", {3, 2}: ""},
			wantCalls: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &constantRecognizer{text: "A"}
			opts := DefaultOptions()
			opts.Regions = tt.regions
			log, _ := nullLog()

			c := New(rec, opts, log)
			if !c.OCREnabled() {
				t.Fatal("Expected OCR to be enabled")
			}
			got, err := c.ClassifyTable(context.Background(), page, table)
			if err != nil {
				t.Fatalf("ClassifyTable failed: %v", err)
			}
			for pos, want := range tt.wantText {
				if text := cellAt(t, got, pos[0], pos[1]).Text; text != want {
					t.Errorf("Cell %v text = %q, want %q", pos, text, want)
				}
			}
			if (rec.calls > 0) != tt.wantCalls {
				t.Errorf("Recognizer calls = %d, wantCalls %v", rec.calls, tt.wantCalls)
			}
		})
	}
}

func TestClassifyTable_OCRConfidence(t *testing.T) {
	layout := sheettest.DefaultLayout()
	page := layout.Page()
	log, _ := nullLog()

	got, err := New(&constantRecognizer{text: "C"}, DefaultOptions(), log).
		ClassifyTable(context.Background(), page, layoutTable(layout))
	if err != nil {
		t.Fatalf("ClassifyTable failed: %v", err)
	}
	if c := cellAt(t, got, 3, 0); c.Confidence != 0.9 {
		t.Errorf("Expected recognizer confidence 0.9, got %f", c.Confidence)
	}
}

func TestClassifyTable_UnavailableRecognizer(t *testing.T) {
	log, hook := nullLog()
	c := New(ocr.Unavailable{Reason: "no tesseract"}, DefaultOptions(), log)
	if c.OCREnabled() {
		t.Fatal("Unavailable recognizer should disable OCR")
	}

	layout := sheettest.DefaultLayout()
	page := layout.Page()
	for range 2 {
		if _, err := c.ClassifyTable(context.Background(), page, layoutTable(layout)); err != nil {
			t.Fatalf("ClassifyTable failed: %v", err)
		}
	}

	warnings := 0
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings++
		}
	}
	if warnings != 1 {
		t.Errorf("Expected degraded mode to be logged once, got %d warnings", warnings)
	}
}

func TestClassifyTable_InvalidRegionSkipped(t *testing.T) {
	layout := sheettest.DefaultLayout()
	page := layout.Page()
	log, hook := nullLog()

	opts := DefaultOptions()
	opts.Regions = RegionOverrides{OMR: []geometry.RelativeRect{{X: 1.5, Y: 0, Width: 0.5, Height: 0.5}}}
	got, err := New(&constantRecognizer{text: "A"}, opts, log).
		ClassifyTable(context.Background(), page, layoutTable(layout))
	if err != nil {
		t.Fatalf("ClassifyTable failed: %v", err)
	}
	if text := cellAt(t, got, 1, 0).Text; text != "A" {
		t.Errorf("Invalid OMR zone should be ignored, got text %q", text)
	}

	var skipped bool
	for _, e := range hook.AllEntries() {
		if e.Message == "Skipping region override" && e.Data["kind"] == "omr" {
			skipped = true
		}
	}
	if !skipped {
		t.Error("Expected a warning for the invalid region")
	}
}

func TestClassifyTable_Cancelled(t *testing.T) {
	layout := sheettest.DefaultLayout()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	log, _ := nullLog()
	_, err := New(nil, DefaultOptions(), log).ClassifyTable(ctx, layout.Page(), layoutTable(layout))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestExpectedClass(t *testing.T) {
	tests := []struct {
		row, col    int
		digitsInCol bool
		want        ocr.CharClass
	}{
		{0, 1, false, ocr.Digits},
		{0, 4, false, ocr.Digits},
		{0, 0, false, ocr.Letters},
		{2, 0, false, ocr.Letters},
		{2, 3, false, ocr.Letters},
		{0, 0, true, ocr.Digits},
		{3, 0, true, ocr.Digits},
		{0, 2, true, ocr.Letters},
	}
	for _, tt := range tests {
		c := &Classifier{opts: Options{DigitsInColumnZero: tt.digitsInCol}}
		if got := c.expectedClass(tt.row, tt.col); got != tt.want {
			t.Errorf("expectedClass(%d, %d, %v) = %v, want %v", tt.row, tt.col, tt.digitsInCol, got, tt.want)
		}
	}
}

func TestInsetCrop(t *testing.T) {
	tests := []struct {
		name  string
		w, h  int
		wantW int
		wantH int
	}{
		{"regular cell", 60, 50, 50, 40},
		{"small cell keeps one pixel", 9, 9, 7, 7},
		{"too small to trim", 6, 6, 6, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewGray(image.Rect(0, 0, tt.w, tt.h))
			b := insetCrop(img).Bounds()
			if b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Errorf("insetCrop(%dx%d) = %dx%d, want %dx%d", tt.w, tt.h, b.Dx(), b.Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestInsetCrop_DropsBorderRulings(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 40, 40))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	sheettest.Fill(img, image.Rect(0, 0, 40, 3), color.Black)
	sheettest.Fill(img, image.Rect(0, 0, 3, 40), color.Black)

	inner := insetCrop(img)
	b := inner.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if r, _, _, _ := inner.At(x, y).RGBA(); r != 0xffff {
				t.Fatalf("Ruling pixel left at (%d,%d)", x, y)
			}
		}
	}
}
