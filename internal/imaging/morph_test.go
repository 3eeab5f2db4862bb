package imaging

import (
	"image"
	"testing"
)

func TestOpen_RemovesThinStrokes(t *testing.T) {
	// A long vertical line and a short horizontal tick.
	mask := createMask(60, 60,
		image.Rect(30, 0, 32, 60),
		image.Rect(5, 10, 20, 12),
	)

	vertical := Open(mask, 1, 20, 1)
	if vertical.GrayAt(31, 30).Y != Ink {
		t.Error("vertical ruler should survive a 1x20 open")
	}
	if vertical.GrayAt(10, 11).Y != Background {
		t.Error("horizontal tick should be removed by a 1x20 open")
	}
}

func TestClose_BridgesGaps(t *testing.T) {
	mask := createMask(40, 10,
		image.Rect(0, 4, 18, 6),
		image.Rect(21, 4, 40, 6),
	)
	closed := Close(mask, 5, 5, 1)
	for x := 18; x < 21; x++ {
		if closed.GrayAt(x, 5).Y != Ink {
			t.Fatalf("gap at x=%d not bridged", x)
		}
	}
}

func TestErodeDilate_PreserveSquare(t *testing.T) {
	mask := createMask(30, 30, image.Rect(10, 10, 20, 20))
	roundTrip := Dilate(Erode(mask, 3, 3), 3, 3)
	if got, want := countInk(roundTrip), 100; got != want {
		t.Errorf("open of a 10x10 square kept %d pixels, want %d", got, want)
	}
}

func TestUnion(t *testing.T) {
	a := createMask(10, 10, image.Rect(0, 0, 5, 5))
	b := createMask(10, 10, image.Rect(5, 5, 10, 10))
	if got := countInk(Union(a, b)); got != 50 {
		t.Errorf("Union ink = %d, want 50", got)
	}
	if countInk(a) != 25 {
		t.Error("Union modified its input")
	}
}
