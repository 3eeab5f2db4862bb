package detection

import (
	"image"
	"math"
	"sort"

	"github.com/ironsheep/omr-tools-mcp/internal/imaging"
)

// Segment is a detected straight line segment.
type Segment struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Length returns the Euclidean length of the segment.
func (s Segment) Length() float64 {
	return math.Hypot(float64(s.X2-s.X1), float64(s.Y2-s.Y1))
}

// AngleDegrees returns the segment's angle from the x axis, normalised to
// (-90, 90]. Positive angles descend to the right in image coordinates.
func (s Segment) AngleDegrees() float64 {
	a := math.Atan2(float64(s.Y2-s.Y1), float64(s.X2-s.X1)) * 180 / math.Pi
	for a > 90 {
		a -= 180
	}
	for a <= -90 {
		a += 180
	}
	return a
}

// HoughParams tunes HoughSegments.
type HoughParams struct {
	// Threshold is the minimum number of edge pixels voting for a line.
	Threshold int

	// MinLineLength drops segments shorter than this many pixels.
	MinLineLength int

	// MaxLineGap is the largest gap, in pixels along the line, that is
	// bridged when joining edge pixels into one segment.
	MaxLineGap int

	// MaxLines caps the number of accumulator peaks examined (0 = 512).
	MaxLines int
}

const (
	houghAngles    = 180
	houghTolerance = 1.0
	peakWindow     = 2
)

// HoughSegments finds line segments in an edge mask using the Hough
// transform.
//
// # Algorithm
//
//  1. Every edge pixel votes for all (rho, theta) lines through it, with
//     1 pixel rho and 1 degree theta resolution
//  2. Accumulator cells with at least Threshold votes that are local maxima
//     in a 5x5 window become peaks, strongest first; a peak closer than the
//     window to an accepted one is skipped
//  3. For each peak, the edge pixels within one pixel of the line that no
//     earlier segment has claimed are recounted; peaks left with fewer than
//     Threshold pixels are skipped
//  4. The remaining pixels are ordered along the line and split wherever
//     consecutive pixels are more than MaxLineGap apart
//  5. Runs spanning at least MinLineLength become segments; once a peak
//     yields a segment, every pixel it recounted is claimed
//
// Splitting by gaps turns an infinite Hough line into the finite segments a
// probabilistic transform reports. Claiming pixels keeps a slightly tilted
// peak from re-tracing the pixels of several real lines at once.
func HoughSegments(edges *image.Gray, p HoughParams) []Segment {
	b := edges.Bounds()
	width, height := b.Dx(), b.Dy()
	maxLines := p.MaxLines
	if maxLines <= 0 {
		maxLines = 512
	}

	points := make([]image.Point, 0)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if edges.Pix[y*edges.Stride+x] != imaging.Background {
				points = append(points, image.Pt(x, y))
			}
		}
	}
	if len(points) == 0 {
		return nil
	}

	cosT := make([]float64, houghAngles)
	sinT := make([]float64, houghAngles)
	for t := 0; t < houghAngles; t++ {
		angle := float64(t) * math.Pi / 180.0
		cosT[t] = math.Cos(angle)
		sinT[t] = math.Sin(angle)
	}

	maxDist := int(math.Ceil(math.Hypot(float64(width), float64(height))))
	rhoBins := 2*maxDist + 1
	accumulator := make([]int32, rhoBins*houghAngles)
	for _, pt := range points {
		for t := 0; t < houghAngles; t++ {
			rho := float64(pt.X)*cosT[t] + float64(pt.Y)*sinT[t]
			accumulator[(int(math.Round(rho))+maxDist)*houghAngles+t]++
		}
	}

	type peak struct {
		rho, theta int
		votes      int32
	}
	peaks := make([]peak, 0)
	for r := 0; r < rhoBins; r++ {
		for t := 0; t < houghAngles; t++ {
			v := accumulator[r*houghAngles+t]
			if int(v) < p.Threshold {
				continue
			}
			isMax := true
			for dr := -peakWindow; dr <= peakWindow && isMax; dr++ {
				for dt := -peakWindow; dt <= peakWindow && isMax; dt++ {
					nr, nt := r+dr, t+dt
					if nr < 0 || nr >= rhoBins || nt < 0 || nt >= houghAngles {
						continue
					}
					if accumulator[nr*houghAngles+nt] > v {
						isMax = false
					}
				}
			}
			if isMax {
				peaks = append(peaks, peak{rho: r - maxDist, theta: t, votes: v})
			}
		}
	}

	sort.Slice(peaks, func(i, j int) bool {
		if peaks[i].votes != peaks[j].votes {
			return peaks[i].votes > peaks[j].votes
		}
		if peaks[i].theta != peaks[j].theta {
			return peaks[i].theta < peaks[j].theta
		}
		return peaks[i].rho < peaks[j].rho
	})

	accepted := make([]peak, 0, maxLines)
	segments := make([]Segment, 0)
	claimed := make([]bool, len(points))
	for _, pk := range peaks {
		if len(accepted) >= maxLines {
			break
		}
		duplicate := false
		for _, a := range accepted {
			if abs(a.rho-pk.rho) <= peakWindow && abs(a.theta-pk.theta) <= peakWindow {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		accepted = append(accepted, pk)
		segments = append(segments, traceSegments(points, claimed, pk.rho, cosT[pk.theta], sinT[pk.theta], p)...)
	}

	return segments
}

// traceSegments collects the unclaimed edge points lying on a Hough line
// and splits them into gap-separated runs. When any run becomes a segment,
// all of the line's points are claimed, short runs included.
func traceSegments(points []image.Point, claimed []bool, rho int, cosA, sinA float64, p HoughParams) []Segment {
	type onLine struct {
		idx int
		t   float64
	}
	line := make([]onLine, 0)
	for i, pt := range points {
		if claimed[i] {
			continue
		}
		d := float64(pt.X)*cosA + float64(pt.Y)*sinA - float64(rho)
		if math.Abs(d) <= houghTolerance {
			line = append(line, onLine{idx: i, t: -float64(pt.X)*sinA + float64(pt.Y)*cosA})
		}
	}
	if len(line) == 0 || len(line) < p.Threshold {
		return nil
	}
	sort.Slice(line, func(i, j int) bool { return line[i].t < line[j].t })

	segments := make([]Segment, 0, 1)
	start := 0
	flush := func(end int) {
		if line[end].t-line[start].t < float64(p.MinLineLength) {
			return
		}
		a, b := points[line[start].idx], points[line[end].idx]
		segments = append(segments, Segment{X1: a.X, Y1: a.Y, X2: b.X, Y2: b.Y})
	}
	for i := 1; i < len(line); i++ {
		if line[i].t-line[i-1].t > float64(p.MaxLineGap) {
			flush(i - 1)
			start = i
		}
	}
	flush(len(line) - 1)
	if len(segments) > 0 {
		for _, l := range line {
			claimed[l.idx] = true
		}
	}
	return segments
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
