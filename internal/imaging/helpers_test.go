package imaging

import (
	"image"
	"image/color"
	"image/draw"
)

// createSolidImage creates an in-memory image filled with c.
func createSolidImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

// fillRect paints r (exclusive max corner) with c.
func fillRect(img draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

// createMask builds an ink mask of the given size with the listed
// rectangles set to ink.
func createMask(width, height int, rects ...image.Rectangle) *image.Gray {
	m := image.NewGray(image.Rect(0, 0, width, height))
	for _, r := range rects {
		fillRect(m, r, color.Gray{Y: Ink})
	}
	return m
}

func countInk(m *image.Gray) int {
	n := 0
	for _, v := range m.Pix {
		if v == Ink {
			n++
		}
	}
	return n
}
