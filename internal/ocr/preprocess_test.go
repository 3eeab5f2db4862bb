package ocr

import (
	"image"
	"image/color"
	"image/draw"
	"testing"
)

func createCellImage(width, height int, ink image.Rectangle) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(img, ink, image.NewUniform(color.Black), image.Point{}, draw.Src)
	return img
}

func TestUpscaleFactor(t *testing.T) {
	tests := []struct {
		minSide  int
		expected int
	}{
		{10, 4}, {19, 4}, {20, 3}, {29, 3}, {30, 2}, {49, 2}, {50, 1}, {200, 1},
	}
	for _, tt := range tests {
		if got := upscaleFactor(tt.minSide); got != tt.expected {
			t.Errorf("upscaleFactor(%d) = %d, expected %d", tt.minSide, got, tt.expected)
		}
	}
}

func TestPrepareCell_TinyCropUntouched(t *testing.T) {
	img := createCellImage(8, 12, image.Rect(2, 2, 5, 5))
	out := PrepareCell(img)
	if out.Bounds().Dx() != 8 || out.Bounds().Dy() != 12 {
		t.Errorf("Expected 8x12, got %v", out.Bounds())
	}
}

func TestPrepareCell_UpscalesAndBinarizes(t *testing.T) {
	img := createCellImage(40, 40, image.Rect(15, 10, 25, 30))
	out := PrepareCell(img)

	if out.Bounds().Dx() != 80 || out.Bounds().Dy() != 80 {
		t.Fatalf("Expected 80x80 after x2 upscale, got %v", out.Bounds())
	}

	dark := 0
	for _, v := range out.Pix {
		if v != 0 && v != 255 {
			t.Fatalf("Expected a binary image, found level %d", v)
		}
		if v == 0 {
			dark++
		}
	}
	if dark == 0 {
		t.Error("Expected the stroke to survive preprocessing")
	}
	// The stroke sits in the middle; the corners stay white.
	if out.Pix[0] != 255 || out.Pix[len(out.Pix)-1] != 255 {
		t.Error("Expected white corners")
	}
	centre := out.Pix[40*out.Stride+40]
	if centre != 0 {
		t.Errorf("Expected dark centre, got %d", centre)
	}
}

func TestPadCell(t *testing.T) {
	out := PadCell(createCellImage(20, 10, image.Rectangle{}))
	if out.Bounds().Dx() != 36 || out.Bounds().Dy() != 26 {
		t.Errorf("Expected 36x26, got %v", out.Bounds())
	}
}
