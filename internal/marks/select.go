package marks

import (
	"math"
	"sort"

	"github.com/ironsheep/omr-tools-mcp/internal/sheet"
)

const (
	// rescueRatio is the share of the threshold a lone darkest choice must
	// reach to be rescued.
	rescueRatio = 0.6
	// rescueLead is the share of the margin by which it must lead the
	// runner-up.
	rescueLead = 0.5
)

// SelectMarkedChoices decides which choices of one question are marked.
//
// Parameters:
//   - choices: The question's choices in row order.
//   - baseline: Blank-sheet ink density to subtract (0 = uncalibrated).
//   - th: Threshold floor and margin.
//
// Returns the marked choices in row order: empty for an unanswered question,
// more than one for a multi-mark.
//
// # Algorithm
//
//  1. adjusted = max(0, raw - baseline). If that leaves nothing at all, the
//     raw densities are used and the baseline is dropped
//  2. threshold = max(MarkThreshold, median(adjusted) + DensityMargin)
//  3. A choice is marked when adjusted >= threshold, or raw >= baseline +
//     threshold, or the cell reports a mark at baseline + threshold
//  4. With no mark, the darkest choice is accepted alone if it reaches 60%
//     of the threshold, leads the runner-up by half the margin and its raw
//     density clears baseline + margin
func SelectMarkedChoices(choices []sheet.Choice, baseline float64, th Thresholds) []sheet.Choice {
	if len(choices) == 0 {
		return []sheet.Choice{}
	}
	baseline = math.Max(0, baseline)

	raw := make([]float64, len(choices))
	adjusted := make([]float64, len(choices))
	signal := false
	for i, c := range choices {
		raw[i] = math.Max(0, c.Cell.InkDensity)
		adjusted[i] = math.Max(0, raw[i]-baseline)
		signal = signal || adjusted[i] > 0
	}
	if !signal {
		copy(adjusted, raw)
		baseline = 0
	}

	threshold := math.Max(th.MarkThreshold, median(adjusted)+th.DensityMargin)
	absolute := baseline + threshold

	marked := make([]sheet.Choice, 0, 1)
	for i, c := range choices {
		if adjusted[i] >= threshold || raw[i] >= absolute || c.Cell.HasMark(absolute) {
			marked = append(marked, c)
		}
	}
	if len(marked) > 0 {
		return marked
	}

	best := 0
	for i := range adjusted {
		if adjusted[i] > adjusted[best] {
			best = i
		}
	}
	runnerUp := 0.0
	for i, v := range adjusted {
		if i != best {
			runnerUp = math.Max(runnerUp, v)
		}
	}
	if adjusted[best] >= rescueRatio*threshold &&
		adjusted[best]-runnerUp >= rescueLead*th.DensityMargin &&
		raw[best] >= baseline+th.DensityMargin {
		return []sheet.Choice{choices[best]}
	}
	return marked
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
