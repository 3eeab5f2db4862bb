package imaging

import (
	"encoding/base64"
	"image"
	"image/color"
	"testing"

	"github.com/ironsheep/omr-tools-mcp/internal/geometry"
)

func TestCropRect_Clamps(t *testing.T) {
	img := createSolidImage(50, 40, color.White)

	tests := []struct {
		name  string
		r     geometry.Rect
		wantW int
		wantH int
	}{
		{"inside", geometry.Rect{X: 5, Y: 5, Width: 10, Height: 10}, 10, 10},
		{"overflow", geometry.Rect{X: 45, Y: 35, Width: 20, Height: 20}, 5, 5},
		{"outside", geometry.Rect{X: 100, Y: 100, Width: 20, Height: 20}, 1, 1},
		{"negative", geometry.Rect{X: -10, Y: -10, Width: 5, Height: 5}, 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CropRect(img, tt.r)
			if got.Bounds().Dx() != tt.wantW || got.Bounds().Dy() != tt.wantH {
				t.Errorf("crop size %dx%d, want %dx%d", got.Bounds().Dx(), got.Bounds().Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestCropRect_SubImageOrigin(t *testing.T) {
	img := createSolidImage(40, 40, color.White)
	fillRect(img, image.Rect(20, 20, 25, 25), color.Black)
	sub := img.SubImage(image.Rect(10, 10, 40, 40))

	// (10,10) relative to the sub-image is (20,20) on the page.
	got := CropRect(sub, geometry.Rect{X: 10, Y: 10, Width: 5, Height: 5})
	if r, _, _, _ := got.At(2, 2).RGBA(); r != 0 {
		t.Error("crop should be relative to the image bounds")
	}
}

func TestPadWhite(t *testing.T) {
	img := createSolidImage(10, 6, color.Black)
	padded := PadWhite(img, 8)
	if padded.Bounds().Dx() != 26 || padded.Bounds().Dy() != 22 {
		t.Fatalf("padded size %v", padded.Bounds())
	}
	if r, _, _, _ := padded.At(0, 0).RGBA(); r>>8 != 255 {
		t.Error("border should be white")
	}
	if r, _, _, _ := padded.At(12, 12).RGBA(); r != 0 {
		t.Error("content should be preserved")
	}
}

func TestUpscale(t *testing.T) {
	out := Upscale(createSolidImage(7, 5, color.White), 3)
	if out.Bounds().Dx() != 21 || out.Bounds().Dy() != 15 {
		t.Errorf("upscaled size %v", out.Bounds())
	}
}

func TestCropRegion(t *testing.T) {
	img := createSolidImage(100, 100, color.White)

	result, err := CropRegion(img, geometry.Rect{X: 90, Y: 0, Width: 50, Height: 50}, 2.0)
	if err != nil {
		t.Fatalf("CropRegion failed: %v", err)
	}
	if result.Region.Width != 10 || result.Width != 20 || result.Height != 100 {
		t.Errorf("unexpected result %+v", result.Region)
	}
	if result.MimeType != "image/png" {
		t.Errorf("MimeType: got %s", result.MimeType)
	}
	if _, err := base64.StdEncoding.DecodeString(result.ImageBase64); err != nil {
		t.Errorf("failed to decode base64: %v", err)
	}
}
