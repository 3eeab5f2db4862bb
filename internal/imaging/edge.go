package imaging

import (
	"image"
	"math"
)

// Canny performs Canny edge detection and returns an edge mask (edges 255).
//
// Parameters:
//   - img: Source image. Ink masks work as well as photographs.
//   - thresholdLow: Gradient magnitude (0-255 scale) below which a pixel is
//     never an edge.
//   - thresholdHigh: Gradient magnitude above which a pixel is always an
//     edge.
//
// # Algorithm
//
//  1. Grayscale conversion, scaled to 0..1
//
//  2. Gradient computation: Sobel operators for X and Y gradients,
//     magnitude = sqrt(Gx² + Gy²), direction = atan2(Gy, Gx)
//
//  3. Non-maximum suppression: keep only local maxima along the gradient
//     direction
//
//  4. Hysteresis: pixels above thresholdHigh seed edges, which then grow
//     through 8-connected pixels above thresholdLow
//
// No smoothing is applied; callers that need it blur first. The grid
// estimator feeds clean morphological masks where blurring would only
// widen the ruling lines.
func Canny(img image.Image, thresholdLow, thresholdHigh int) *image.Gray {
	gray := ToGray(img)
	width, height := gray.Bounds().Dx(), gray.Bounds().Dy()
	result := image.NewGray(image.Rect(0, 0, width, height))
	if width < 3 || height < 3 {
		return result
	}

	lum := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			lum[y*width+x] = float64(gray.Pix[y*gray.Stride+x]) / 255.0
		}
	}

	sobelX := [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY := [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}

	magnitude := make([]float64, width*height)
	direction := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					v := lum[clamp(y+ky, 0, height-1)*width+clamp(x+kx, 0, width-1)]
					gx += v * sobelX[ky+1][kx+1]
					gy += v * sobelY[ky+1][kx+1]
				}
			}
			magnitude[y*width+x] = math.Sqrt(gx*gx + gy*gy)
			direction[y*width+x] = math.Atan2(gy, gx)
		}
	}

	// Non-maximum suppression
	suppressed := make([]float64, width*height)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			angle := direction[i]
			mag := magnitude[i]

			var n1, n2 float64
			switch {
			case (angle >= -math.Pi/8 && angle < math.Pi/8) || angle >= 7*math.Pi/8 || angle < -7*math.Pi/8:
				n1, n2 = magnitude[i-1], magnitude[i+1]
			case (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8):
				n1, n2 = magnitude[i-width+1], magnitude[i+width-1]
			case (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8):
				n1, n2 = magnitude[i-width], magnitude[i+width]
			default:
				n1, n2 = magnitude[i-width-1], magnitude[i+width+1]
			}

			if mag >= n1 && mag >= n2 {
				suppressed[i] = mag
			}
		}
	}

	// Hysteresis
	low := float64(thresholdLow) / 255.0
	high := float64(thresholdHigh) / 255.0
	stack := make([]int, 0, 1024)
	for i, v := range suppressed {
		if v >= high && v > 0 {
			result.Pix[(i/width)*result.Stride+i%width] = Ink
			stack = append(stack, i)
		}
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%width, i/width
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= width || ny >= height {
					continue
				}
				j := ny*width + nx
				p := ny*result.Stride + nx
				if result.Pix[p] == Ink || suppressed[j] < low || suppressed[j] == 0 {
					continue
				}
				result.Pix[p] = Ink
				stack = append(stack, j)
			}
		}
	}

	return result
}

// clamp constrains an integer value to the range [lo, hi].
func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
