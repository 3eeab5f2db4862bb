package detection

import (
	"image"
	"math"
	"sort"

	"github.com/ironsheep/omr-tools-mcp/internal/geometry"
	"github.com/ironsheep/omr-tools-mcp/internal/imaging"
)

// Component is an 8-connected group of ink pixels together with its outer
// outline.
//
// The outline is the convex hull of the component's pixel centres. For the
// shapes this package looks for (table frames, checkboxes, bubbles) the
// hull coincides with the external contour, and it gives a stable enclosed
// area and perimeter even when a stroke is broken or ragged.
type Component struct {
	// Bounds is the bounding box of the component's pixels.
	Bounds geometry.Rect

	// Pixels is the number of ink pixels in the component.
	Pixels int

	// Outline is the convex hull in clockwise order (image coordinates).
	// It has fewer than three points for dots and straight strokes.
	Outline []image.Point
}

// Area returns the area enclosed by the outline (shoelace formula).
func (c Component) Area() float64 {
	return polygonArea(c.Outline)
}

// Perimeter returns the length of the closed outline.
func (c Component) Perimeter() float64 {
	return arcLength(c.Outline, true)
}

// FindComponents groups the ink pixels of mask into 8-connected components.
//
// Parameters:
//   - mask: Ink mask (ink = 255) with its origin at (0,0).
//   - minPixels: Components with fewer pixels are discarded as noise.
//
// Returns the components in raster order of their first pixel.
//
// # Algorithm
//
//  1. Raster scan for an unvisited ink pixel
//  2. Iterative flood fill (explicit stack, so very large components such
//     as a whole table frame cannot overflow the goroutine stack)
//  3. Track the leftmost and rightmost pixel of every row; only those can
//     lie on the hull
//  4. Convex hull of the row extremes (monotone chain)
func FindComponents(mask *image.Gray, minPixels int) []Component {
	b := mask.Bounds()
	width, height := b.Dx(), b.Dy()
	visited := make([]bool, width*height)
	components := make([]Component, 0)

	isInk := func(x, y int) bool {
		return mask.Pix[y*mask.Stride+x] != imaging.Background
	}

	stack := make([]int, 0, 256)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if visited[y*width+x] || !isInk(x, y) {
				continue
			}

			rowMin := map[int]int{}
			rowMax := map[int]int{}
			minX, minY, maxX, maxY := x, y, x, y
			pixels := 0

			visited[y*width+x] = true
			stack = append(stack[:0], y*width+x)
			for len(stack) > 0 {
				i := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				px, py := i%width, i/width
				pixels++

				if lo, ok := rowMin[py]; !ok || px < lo {
					rowMin[py] = px
				}
				if hi, ok := rowMax[py]; !ok || px > hi {
					rowMax[py] = px
				}
				minX, maxX = min(minX, px), max(maxX, px)
				minY, maxY = min(minY, py), max(maxY, py)

				// 8-connected neighbors
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						nx, ny := px+dx, py+dy
						if nx < 0 || ny < 0 || nx >= width || ny >= height {
							continue
						}
						j := ny*width + nx
						if visited[j] || !isInk(nx, ny) {
							continue
						}
						visited[j] = true
						stack = append(stack, j)
					}
				}
			}

			if pixels < minPixels {
				continue
			}

			candidates := make([]image.Point, 0, 2*len(rowMin))
			for row, lo := range rowMin {
				candidates = append(candidates, image.Pt(lo, row))
				if hi := rowMax[row]; hi != lo {
					candidates = append(candidates, image.Pt(hi, row))
				}
			}

			components = append(components, Component{
				Bounds:  geometry.Rect{X: minX, Y: minY, Width: maxX - minX + 1, Height: maxY - minY + 1},
				Pixels:  pixels,
				Outline: convexHull(candidates),
			})
		}
	}

	return components
}

// convexHull returns the hull of pts with collinear points removed, in
// clockwise order for image coordinates (y down).
func convexHull(pts []image.Point) []image.Point {
	if len(pts) < 3 {
		out := append([]image.Point(nil), pts...)
		sortPoints(out)
		return dedupePoints(out)
	}
	sorted := append([]image.Point(nil), pts...)
	sortPoints(sorted)
	sorted = dedupePoints(sorted)
	if len(sorted) < 3 {
		return sorted
	}

	cross := func(o, a, b image.Point) int {
		return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
	}

	hull := make([]image.Point, 0, 2*len(sorted))
	for _, p := range sorted {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(sorted) - 2; i >= 0; i-- {
		p := sorted[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

func sortPoints(pts []image.Point) {
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})
}

func dedupePoints(pts []image.Point) []image.Point {
	out := pts[:0]
	for i, p := range pts {
		if i > 0 && p == pts[i-1] {
			continue
		}
		out = append(out, p)
	}
	return out
}

// polygonArea returns the absolute shoelace area of a closed polygon.
func polygonArea(pts []image.Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	var sum int
	for i := range pts {
		j := (i + 1) % len(pts)
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return math.Abs(float64(sum)) / 2
}

func arcLength(pts []image.Point, closed bool) float64 {
	if len(pts) < 2 {
		return 0
	}
	var total float64
	for i := 1; i < len(pts); i++ {
		total += distance(pts[i-1], pts[i])
	}
	if closed {
		total += distance(pts[len(pts)-1], pts[0])
	}
	return total
}

func distance(a, b image.Point) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}

// ApproxPolygon simplifies a closed polygon with the Douglas-Peucker
// algorithm. Points closer than epsilon to the simplified outline are
// dropped.
func ApproxPolygon(pts []image.Point, epsilon float64) []image.Point {
	if len(pts) < 3 {
		return append([]image.Point(nil), pts...)
	}

	// Split the closed curve at the point farthest from the first one and
	// simplify both halves as open chains.
	far := 0
	best := -1.0
	for i, p := range pts {
		if d := distance(pts[0], p); d > best {
			best, far = d, i
		}
	}
	if far == 0 {
		return []image.Point{pts[0]}
	}

	first := douglasPeucker(pts[:far+1], epsilon)
	second := douglasPeucker(append(append([]image.Point(nil), pts[far:]...), pts[0]), epsilon)

	out := append([]image.Point(nil), first[:len(first)-1]...)
	out = append(out, second[:len(second)-1]...)
	return out
}

func douglasPeucker(chain []image.Point, epsilon float64) []image.Point {
	if len(chain) < 3 {
		return append([]image.Point(nil), chain...)
	}
	a, b := chain[0], chain[len(chain)-1]
	idx, dmax := 0, 0.0
	for i := 1; i < len(chain)-1; i++ {
		if d := pointLineDistance(chain[i], a, b); d > dmax {
			idx, dmax = i, d
		}
	}
	if dmax <= epsilon {
		return []image.Point{a, b}
	}
	left := douglasPeucker(chain[:idx+1], epsilon)
	right := douglasPeucker(chain[idx:], epsilon)
	return append(left[:len(left)-1], right...)
}

func pointLineDistance(p, a, b image.Point) float64 {
	dx, dy := float64(b.X-a.X), float64(b.Y-a.Y)
	length := math.Hypot(dx, dy)
	if length == 0 {
		return distance(p, a)
	}
	return math.Abs(dy*float64(p.X-a.X)-dx*float64(p.Y-a.Y)) / length
}
