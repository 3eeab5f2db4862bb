package detection

// Config bundles the tunables shared by the table detector and the grid
// estimator.
type Config struct {
	// MinTableAreaRatio is the smallest outline area, as a fraction of the
	// searched image area, accepted as a table candidate.
	MinTableAreaRatio float64 `json:"min_table_area_ratio" yaml:"min_table_area_ratio"`

	// KernelScale sizes the closing kernel as a fraction of the larger image
	// dimension.
	KernelScale float64 `json:"kernel_scale" yaml:"kernel_scale"`

	// MinCellSize is the smallest row height or column width in pixels.
	MinCellSize int `json:"min_cell_size" yaml:"min_cell_size"`

	// MergeNearbyTables joins fragments of one table that the outline step
	// split apart.
	MergeNearbyTables bool `json:"merge_nearby_tables" yaml:"merge_nearby_tables"`

	// MaxTableGap is the largest gap in pixels bridged when merging.
	MaxTableGap int `json:"max_table_gap" yaml:"max_table_gap"`
}

// DefaultConfig returns the detector defaults.
func DefaultConfig() Config {
	return Config{
		MinTableAreaRatio: 0.08,
		KernelScale:       0.008,
		MinCellSize:       8,
		MergeNearbyTables: true,
		MaxTableGap:       50,
	}
}

// withDefaults fills zero-valued fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MinTableAreaRatio <= 0 {
		c.MinTableAreaRatio = d.MinTableAreaRatio
	}
	if c.KernelScale <= 0 {
		c.KernelScale = d.KernelScale
	}
	if c.MinCellSize <= 0 {
		c.MinCellSize = d.MinCellSize
	}
	if c.MaxTableGap < 0 {
		c.MaxTableGap = 0
	}
	return c
}
