package detection

import (
	"image"
	"image/color"
	"reflect"
	"testing"

	"github.com/ironsheep/omr-tools-mcp/internal/geometry"
	"github.com/ironsheep/omr-tools-mcp/internal/sheet/sheettest"
)

func TestDetectTables_SingleTable(t *testing.T) {
	layout := sheettest.DefaultLayout()
	page := layout.Page()

	tables := DetectTables(page, "page.png", 2, DefaultConfig(), nil)
	if len(tables) != 1 {
		t.Fatalf("Expected 1 table, got %d", len(tables))
	}

	table := tables[0]
	if table.Source != "page.png" || table.PageIndex != 2 {
		t.Errorf("Provenance not copied: %q %d", table.Source, table.PageIndex)
	}
	if table.RowCount != 5 || table.ColumnCount != 5 {
		t.Errorf("Expected 5x5 table, got %dx%d", table.RowCount, table.ColumnCount)
	}
	if len(table.Cells) != 25 {
		t.Errorf("Expected 25 cells, got %d", len(table.Cells))
	}

	want := layout.TableRect()
	b := table.Bounds
	if b == nil {
		t.Fatal("Expected table bounds")
	}
	if abs(b.X-want.Min.X) > 3 || abs(b.Y-want.Min.Y) > 3 ||
		abs(b.Right()-want.Max.X) > 3 || abs(b.Bottom()-want.Max.Y) > 3 {
		t.Errorf("Bounds %+v too far from %v", *b, want)
	}

	for _, c := range table.Cells {
		if !b.Intersects(c.Bounds) {
			t.Errorf("Cell %+v outside table", c.Bounds)
		}
	}
}

func TestDetectTables_BlankPage(t *testing.T) {
	page := createTestImage(300, 300, color.White)
	if tables := DetectTables(page, "", 0, DefaultConfig(), nil); len(tables) != 0 {
		t.Errorf("Expected no tables, got %d", len(tables))
	}
}

func TestDetectTables_SmallOutlineRejected(t *testing.T) {
	page := createTestImage(400, 400, color.White)
	sheettest.Fill(page, image.Rect(10, 10, 40, 40), color.Black)
	if tables := DetectTables(page, "", 0, DefaultConfig(), nil); len(tables) != 0 {
		t.Errorf("Expected the small square to be rejected, got %d tables", len(tables))
	}
}

func TestDetectTable_ROI(t *testing.T) {
	layout := sheettest.DefaultLayout()
	page := layout.Page()

	roi := geometry.Rect{X: 30, Y: 30, Width: 340, Height: 340}
	table, ok := DetectTable(page, "", 0, DefaultConfig(), &roi)
	if !ok {
		t.Fatal("Expected a table inside the ROI")
	}
	// Bounds are reported in page coordinates.
	if abs(table.Bounds.X-layout.Origin.X) > 3 || abs(table.Bounds.Y-layout.Origin.Y) > 3 {
		t.Errorf("Expected page coordinates near %v, got %+v", layout.Origin, *table.Bounds)
	}

	empty := geometry.Rect{X: 360, Y: 360, Width: 40, Height: 40}
	if _, ok := DetectTable(page, "", 0, DefaultConfig(), &empty); ok {
		t.Error("Expected no table in a blank corner")
	}
}

func TestMergeBoxes(t *testing.T) {
	tests := []struct {
		name     string
		boxes    []geometry.Rect
		maxGap   int
		expected []geometry.Rect
	}{
		{
			name: "side by side fragments",
			boxes: []geometry.Rect{
				{X: 120, Y: 5, Width: 100, Height: 100},
				{X: 0, Y: 0, Width: 100, Height: 100},
			},
			maxGap:   40,
			expected: []geometry.Rect{{X: 0, Y: 0, Width: 220, Height: 105}},
		},
		{
			name: "far apart",
			boxes: []geometry.Rect{
				{X: 0, Y: 0, Width: 100, Height: 100},
				{X: 300, Y: 0, Width: 100, Height: 100},
			},
			maxGap: 40,
			expected: []geometry.Rect{
				{X: 0, Y: 0, Width: 100, Height: 100},
				{X: 300, Y: 0, Width: 100, Height: 100},
			},
		},
		{
			name: "stacked tables stay apart",
			boxes: []geometry.Rect{
				{X: 0, Y: 300, Width: 100, Height: 50},
				{X: 0, Y: 0, Width: 100, Height: 50},
			},
			maxGap: 40,
			expected: []geometry.Rect{
				{X: 0, Y: 0, Width: 100, Height: 50},
				{X: 0, Y: 300, Width: 100, Height: 50},
			},
		},
		{
			name:     "single box",
			boxes:    []geometry.Rect{{X: 1, Y: 2, Width: 3, Height: 4}},
			maxGap:   40,
			expected: []geometry.Rect{{X: 1, Y: 2, Width: 3, Height: 4}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeBoxes(tt.boxes, tt.maxGap)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestDetectTables_MergesSplitTable(t *testing.T) {
	// Two ruled blocks separated by a 45px gutter read as one table.
	layout := sheettest.Layout{
		PageWidth: 500, PageHeight: 300,
		Origin: image.Pt(40, 40), Rows: 3, Columns: 3,
		CellSize: 60, LineWidth: 3,
	}
	page := layout.Page()
	right := layout
	right.Origin = image.Pt(40+3*60+3+45, 40)
	right.DrawRulings(page)

	cfg := DefaultConfig()
	merged := DetectTables(page, "", 0, cfg, nil)
	if len(merged) != 1 {
		t.Fatalf("Expected the fragments to merge, got %d tables", len(merged))
	}
	if merged[0].Bounds.Width < 2*3*60 {
		t.Errorf("Merged table too narrow: %+v", *merged[0].Bounds)
	}

	cfg.MergeNearbyTables = false
	split := DetectTables(page, "", 0, cfg, nil)
	if len(split) != 2 {
		t.Fatalf("Expected 2 tables without merging, got %d", len(split))
	}
	if split[0].Bounds.X > split[1].Bounds.X {
		t.Error("Tables should be in reading order")
	}
}
