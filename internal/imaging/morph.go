package imaging

import "image"

// Morphology on ink masks with rectangular structuring elements.
//
// A kw x kh rectangle is separable, so each operation runs as a horizontal
// pass followed by a vertical pass. Each pass counts ink in a sliding window
// with a prefix sum, which keeps the cost independent of the kernel size.
// The anchor sits at the kernel centre (k/2) and pixels outside the image
// are ignored, matching the usual border convention for erosion and
// dilation.

// Dilate grows ink by a kw x kh rectangle.
func Dilate(mask *image.Gray, kw, kh int) *image.Gray {
	return slide(slide(mask, kw, true, false), kh, false, false)
}

// Erode shrinks ink by a kw x kh rectangle.
func Erode(mask *image.Gray, kw, kh int) *image.Gray {
	return slide(slide(mask, kw, true, true), kh, false, true)
}

// Open removes ink structures smaller than the kernel: iterations erosions
// followed by the same number of dilations.
func Open(mask *image.Gray, kw, kh, iterations int) *image.Gray {
	out := mask
	for i := 0; i < iterations; i++ {
		out = Erode(out, kw, kh)
	}
	for i := 0; i < iterations; i++ {
		out = Dilate(out, kw, kh)
	}
	return out
}

// Close bridges gaps narrower than the kernel: iterations dilations
// followed by the same number of erosions.
func Close(mask *image.Gray, kw, kh, iterations int) *image.Gray {
	out := mask
	for i := 0; i < iterations; i++ {
		out = Dilate(out, kw, kh)
	}
	for i := 0; i < iterations; i++ {
		out = Erode(out, kw, kh)
	}
	return out
}

// Union returns a mask that is ink wherever a or b is. Both masks must have
// the same size.
func Union(a, b *image.Gray) *image.Gray {
	out := cloneMask(a)
	for i, v := range b.Pix {
		if v != Background {
			out.Pix[i] = Ink
		}
	}
	return out
}

func cloneMask(m *image.Gray) *image.Gray {
	b := m.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		copy(out.Pix[y*out.Stride:], m.Pix[y*m.Stride:y*m.Stride+b.Dx()])
	}
	return out
}

// slide runs a 1-D erosion (or dilation) of length k along rows
// (horizontal) or columns.
func slide(src *image.Gray, k int, horizontal, erode bool) *image.Gray {
	if k <= 1 {
		return cloneMask(src)
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))

	n, lines := w, h
	if !horizontal {
		n, lines = h, w
	}
	at := func(m *image.Gray, line, i int) int {
		if horizontal {
			return line*m.Stride + i
		}
		return i*m.Stride + line
	}

	before := k / 2
	after := k - 1 - before
	prefix := make([]int, n+1)
	for line := 0; line < lines; line++ {
		for i := 0; i < n; i++ {
			prefix[i+1] = prefix[i]
			if src.Pix[at(src, line, i)] != Background {
				prefix[i+1]++
			}
		}
		for i := 0; i < n; i++ {
			lo := max(0, i-before)
			hi := min(n-1, i+after)
			count := prefix[hi+1] - prefix[lo]
			on := count > 0
			if erode {
				on = count == hi-lo+1
			}
			if on {
				dst.Pix[at(dst, line, i)] = Ink
			}
		}
	}
	return dst
}
