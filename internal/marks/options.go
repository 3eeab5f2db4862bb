package marks

// Default tuning values.
const (
	DefaultMarkThreshold  = 0.018
	DefaultDensityMargin  = 0.012
	DefaultMaxForwardJump = 3
)

// Thresholds tunes mark selection.
type Thresholds struct {
	// MarkThreshold is the lowest adjusted density that counts as a mark.
	MarkThreshold float64 `json:"mark_threshold" yaml:"mark_threshold"`

	// DensityMargin is added to a question's median density to form its
	// adaptive threshold.
	DensityMargin float64 `json:"density_margin" yaml:"density_margin"`
}

// DefaultThresholds returns the standard thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MarkThreshold: DefaultMarkThreshold,
		DensityMargin: DefaultDensityMargin,
	}
}

// Options configures table parsing.
type Options struct {
	// Baseline is the mean ink density of a blank sheet (0 = uncalibrated).
	Baseline float64 `json:"baseline" yaml:"baseline"`

	// RowLabels overrides the choice labels, row 1 first. Blank entries are
	// ignored; rows beyond the list are dropped.
	RowLabels []string `json:"row_labels,omitempty" yaml:"row_labels"`

	Thresholds Thresholds `json:"thresholds" yaml:"thresholds"`

	// MaxForwardJump is the largest step a table's own question number may
	// take past the previous question and still be trusted.
	MaxForwardJump int `json:"max_forward_jump" yaml:"max_forward_jump"`
}

// DefaultOptions returns uncalibrated options with the standard thresholds.
func DefaultOptions() Options {
	return Options{
		Thresholds:     DefaultThresholds(),
		MaxForwardJump: DefaultMaxForwardJump,
	}
}
