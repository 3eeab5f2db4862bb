package detection

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/ironsheep/omr-tools-mcp/internal/imaging"
)

// createTestImage creates a solid color test image
func createTestImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

// createMask creates an ink mask with the given rectangles filled
func createMask(width, height int, rects ...image.Rectangle) *image.Gray {
	m := image.NewGray(image.Rect(0, 0, width, height))
	for _, r := range rects {
		draw.Draw(m, r, image.NewUniform(color.Gray{Y: imaging.Ink}), image.Point{}, draw.Src)
	}
	return m
}
