package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/omr-tools-mcp/internal/geometry"
)

// CropResult contains a cropped region encoded for transport.
type CropResult struct {
	Region      geometry.Rect `json:"region"`
	Width       int           `json:"width"`
	Height      int           `json:"height"`
	ImageBase64 string        `json:"image_base64"`
	MimeType    string        `json:"mime_type"`
}

// CropRect extracts r from img. The rectangle is first clamped to the image
// so the crop never indexes out of bounds and is at least 1x1. The returned
// image has its origin at (0,0).
func CropRect(img image.Image, r geometry.Rect) *image.NRGBA {
	b := img.Bounds()
	r = r.EnsureWithin(b.Dx(), b.Dy()).Offset(b.Min.X, b.Min.Y)
	return imaging.Crop(img, r.Image())
}

// PadWhite surrounds img with a white border of pad pixels.
func PadWhite(img image.Image, pad int) *image.NRGBA {
	b := img.Bounds()
	bg := imaging.New(b.Dx()+2*pad, b.Dy()+2*pad, color.White)
	return imaging.Paste(bg, img, image.Pt(pad, pad))
}

// Upscale enlarges img by an integer factor with bicubic (Catmull-Rom)
// resampling.
func Upscale(img image.Image, factor int) *image.NRGBA {
	b := img.Bounds()
	return imaging.Resize(img, b.Dx()*factor, b.Dy()*factor, imaging.CatmullRom)
}

// CropRegion crops r from img, optionally rescales it, and returns it as a
// base64 PNG.
func CropRegion(img image.Image, r geometry.Rect, scale float64) (*CropResult, error) {
	b := img.Bounds()
	clamped := r.EnsureWithin(b.Dx(), b.Dy())
	cropped := CropRect(img, clamped)

	if scale != 1.0 && scale > 0 {
		newWidth := max(1, int(float64(cropped.Bounds().Dx())*scale))
		newHeight := max(1, int(float64(cropped.Bounds().Dy())*scale))
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	encoded, err := EncodePNGBase64(cropped)
	if err != nil {
		return nil, err
	}

	return &CropResult{
		Region:      clamped,
		Width:       cropped.Bounds().Dx(),
		Height:      cropped.Bounds().Dy(),
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}

// EncodePNG encodes img as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodePNGBase64 encodes img as a base64 PNG string.
func EncodePNGBase64(img image.Image) (string, error) {
	data, err := EncodePNG(img)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
