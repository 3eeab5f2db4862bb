package imaging

import (
	"image"
	"image/draw"
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/histogram"
)

// Ink masks produced by this package use 255 for ink (foreground) and 0 for
// background, with the origin at (0,0).
const (
	Ink        = 255
	Background = 0
)

// minInkContrast is the smallest spread between the darkest and lightest
// pixel for which Otsu's split is meaningful. Flatter crops are measured
// against a fixed mid-grey instead.
const minInkContrast = 32

// ToGray converts img to an 8-bit grayscale image with its origin at (0,0).
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// GaussianBlur smooths img with a Gaussian of the given radius.
func GaussianBlur(img image.Image, radius float64) *image.Gray {
	return ToGray(blur.Gaussian(img, radius))
}

// OtsuThreshold returns the gray level that best separates img into dark and
// light classes. Pixels at or below the returned level form the dark class.
// A uniform image yields 0.
func OtsuThreshold(img *image.Gray) uint8 {
	h := histogram.NewRGBAHistogram(img)
	return otsuLevel(h.R.Bins)
}

func otsuLevel(bins []int) uint8 {
	total := 0
	var sum float64
	for i, n := range bins {
		total += n
		sum += float64(i * n)
	}

	var sumB, best float64
	wB, level := 0, 0
	for i, n := range bins {
		wB += n
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(i * n)
		mB := sumB / float64(wB)
		mF := (sum - sumB) / float64(wF)
		between := float64(wB) * float64(wF) * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			level = i
		}
	}
	return uint8(level)
}

// ThresholdInverse marks every pixel at or below level as ink.
func ThresholdInverse(img *image.Gray, level uint8) *image.Gray {
	b := img.Bounds()
	mask := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+b.Dx()]
		dst := mask.Pix[y*mask.Stride : y*mask.Stride+b.Dx()]
		for x, v := range src {
			if v <= level {
				dst[x] = Ink
			}
		}
	}
	return mask
}

// OtsuInverse binarizes img with Otsu's level, ink = 255.
func OtsuInverse(img *image.Gray) *image.Gray {
	return ThresholdInverse(img, OtsuThreshold(img))
}

// InkFraction returns the share of mask pixels that are ink.
func InkFraction(mask *image.Gray) float64 {
	b := mask.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return 0
	}
	count := 0
	for y := 0; y < b.Dy(); y++ {
		for _, v := range mask.Pix[y*mask.Stride : y*mask.Stride+b.Dx()] {
			if v != Background {
				count++
			}
		}
	}
	return float64(count) / float64(total)
}

// InkDensity estimates the fraction of dark pixels in img.
//
// The crop is split with Otsu's threshold. Crops with almost no contrast
// (blank paper, or a solidly filled box) have no meaningful Otsu split, so
// they are measured against mid-grey instead: white paper reads 0 and a
// solid fill reads close to 1.
func InkDensity(img image.Image) float64 {
	gray := ToGray(img)
	lo, hi := MinMax(gray)
	if int(hi)-int(lo) < minInkContrast {
		return InkFraction(ThresholdInverse(gray, 127))
	}
	return InkFraction(OtsuInverse(gray))
}

// MinMax returns the darkest and lightest gray levels in img.
func MinMax(img *image.Gray) (lo, hi uint8) {
	b := img.Bounds()
	lo, hi = 255, 0
	for y := 0; y < b.Dy(); y++ {
		for _, v := range img.Pix[y*img.Stride : y*img.Stride+b.Dx()] {
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}
	if lo > hi {
		return 0, 0
	}
	return lo, hi
}

// Normalize stretches img linearly so its darkest pixel becomes 0 and its
// lightest 255. Uniform images are returned unchanged.
func Normalize(img *image.Gray) *image.Gray {
	lo, hi := MinMax(img)
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	span := float64(hi) - float64(lo)
	for y := 0; y < b.Dy(); y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+b.Dx()]
		dst := out.Pix[y*out.Stride : y*out.Stride+b.Dx()]
		for x, v := range src {
			if span == 0 {
				dst[x] = v
				continue
			}
			dst[x] = uint8(math.Round((float64(v) - float64(lo)) * 255 / span))
		}
	}
	return out
}

// MeanIntensity returns the average gray level of img scaled to 0..1.
func MeanIntensity(img image.Image) float64 {
	gray := ToGray(img)
	b := gray.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return 0
	}
	var sum int
	for y := 0; y < b.Dy(); y++ {
		for _, v := range gray.Pix[y*gray.Stride : y*gray.Stride+b.Dx()] {
			sum += int(v)
		}
	}
	return float64(sum) / float64(n) / 255
}

// NormalizedVariance returns the gray-level variance of img divided by 255²,
// clamped to 0..1. It is a cheap "has visible content" signal.
func NormalizedVariance(img image.Image) float64 {
	gray := ToGray(img)
	b := gray.Bounds()
	n := float64(b.Dx() * b.Dy())
	if n == 0 {
		return 0
	}
	var sum, sumSq float64
	for y := 0; y < b.Dy(); y++ {
		for _, v := range gray.Pix[y*gray.Stride : y*gray.Stride+b.Dx()] {
			f := float64(v)
			sum += f
			sumSq += f * f
		}
	}
	mean := sum / n
	variance := sumSq/n - mean*mean
	return math.Max(0, math.Min(1, variance/(255*255)))
}
