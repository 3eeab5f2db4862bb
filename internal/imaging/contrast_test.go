package imaging

import (
	"image"
	"testing"
)

func TestCLAHE_StretchesLowContrast(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 128, 128))
	for y := 0; y < 128; y++ {
		for x := 0; x < 128; x++ {
			img.Pix[y*img.Stride+x] = uint8(100 + x%41)
		}
	}

	out := CLAHE(img, 2.0, 4, 4)
	lo, hi := MinMax(out)
	if int(hi)-int(lo) <= 40 {
		t.Errorf("contrast not increased: range %d..%d", lo, hi)
	}
	if out.Bounds() != img.Bounds() {
		t.Error("CLAHE changed the image size")
	}
}

func TestCLAHE_SmallImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 3))
	out := CLAHE(img, 2.0, 4, 4)
	if out.Bounds().Dx() != 2 || out.Bounds().Dy() != 3 {
		t.Errorf("bounds = %v", out.Bounds())
	}
}
