package imaging

import (
	"image"
	"math"
)

// CLAHE applies contrast-limited adaptive histogram equalization.
//
// The image is split into tilesX x tilesY tiles. Each tile's histogram is
// clipped at clipLimit times the mean bin count, the excess is spread evenly
// over all bins, and the resulting lookup tables are bilinearly
// interpolated between tile centres so no tile seams appear.
func CLAHE(img *image.Gray, clipLimit float64, tilesX, tilesY int) *image.Gray {
	src := ToGray(img)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	tilesX = max(1, min(tilesX, w))
	tilesY = max(1, min(tilesY, h))
	if w == 0 || h == 0 {
		return out
	}

	luts := make([][256]uint8, tilesX*tilesY)
	for ty := 0; ty < tilesY; ty++ {
		y0, y1 := ty*h/tilesY, (ty+1)*h/tilesY
		for tx := 0; tx < tilesX; tx++ {
			x0, x1 := tx*w/tilesX, (tx+1)*w/tilesX
			luts[ty*tilesX+tx] = tileLUT(src, x0, y0, x1, y1, clipLimit)
		}
	}

	tileW := float64(w) / float64(tilesX)
	tileH := float64(h) / float64(tilesY)
	for y := 0; y < h; y++ {
		fy := (float64(y)+0.5)/tileH - 0.5
		ty0 := clamp(int(math.Floor(fy)), 0, tilesY-1)
		ty1 := min(ty0+1, tilesY-1)
		ay := math.Max(0, math.Min(1, fy-float64(ty0)))
		for x := 0; x < w; x++ {
			fx := (float64(x)+0.5)/tileW - 0.5
			tx0 := clamp(int(math.Floor(fx)), 0, tilesX-1)
			tx1 := min(tx0+1, tilesX-1)
			ax := math.Max(0, math.Min(1, fx-float64(tx0)))

			v := src.Pix[y*src.Stride+x]
			top := (1-ax)*float64(luts[ty0*tilesX+tx0][v]) + ax*float64(luts[ty0*tilesX+tx1][v])
			bottom := (1-ax)*float64(luts[ty1*tilesX+tx0][v]) + ax*float64(luts[ty1*tilesX+tx1][v])
			out.Pix[y*out.Stride+x] = uint8(math.Round((1-ay)*top + ay*bottom))
		}
	}
	return out
}

func tileLUT(img *image.Gray, x0, y0, x1, y1 int, clipLimit float64) [256]uint8 {
	var hist [256]int
	for y := y0; y < y1; y++ {
		for _, v := range img.Pix[y*img.Stride+x0 : y*img.Stride+x1] {
			hist[v]++
		}
	}
	area := (x1 - x0) * (y1 - y0)

	var lut [256]uint8
	if area == 0 {
		for i := range lut {
			lut[i] = uint8(i)
		}
		return lut
	}

	if clipLimit > 0 {
		limit := max(1, int(clipLimit*float64(area)/256))
		excess := 0
		for i, n := range hist {
			if n > limit {
				excess += n - limit
				hist[i] = limit
			}
		}
		share, rest := excess/256, excess%256
		for i := range hist {
			hist[i] += share
			if i < rest {
				hist[i]++
			}
		}
	}

	cdf := 0
	scale := 255.0 / float64(area)
	for i, n := range hist {
		cdf += n
		lut[i] = uint8(math.Min(255, math.Round(float64(cdf)*scale)))
	}
	return lut
}
