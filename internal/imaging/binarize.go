package imaging

import (
	"image"

	"rescribe.xyz/preproc"
)

// sauvolaK is Sauvola's sensitivity parameter; 0.2 is the usual choice for
// printed documents.
const sauvolaK = 0.2

// AdaptiveInkMask binarizes a page with Sauvola's local threshold, which
// copes with uneven lighting and paper tone better than a single global
// level. Ink pixels are 255 in the returned mask.
//
// A windowSize of 0 picks a window from the page width (about 1/60th, odd,
// never below 15 pixels).
func AdaptiveInkMask(img *image.Gray, windowSize int) *image.Gray {
	b := img.Bounds()
	if windowSize <= 0 {
		windowSize = b.Dx() / 60
	}
	windowSize = max(windowSize, 15)
	if windowSize%2 == 0 {
		windowSize++
	}

	bin := preproc.IntegralSauvola(ToGray(img), sauvolaK, windowSize)

	mask := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	bb := bin.Bounds()
	for y := 0; y < bb.Dy(); y++ {
		row := bin.Pix[y*bin.Stride : y*bin.Stride+bb.Dx()]
		dst := mask.Pix[y*mask.Stride : y*mask.Stride+bb.Dx()]
		for x, v := range row {
			if v == 0 {
				dst[x] = Ink
			}
		}
	}
	return mask
}
