package analysis

import "strings"

// Plausibility thresholds. These are empirical limits on output per setter
// beyond which a shift is assumed to have lost setters to bad name merges.
const (
	DefaultMaxBouldersPerSetter = 12
	DefaultMaxRoutesPerSetter   = 3
	DefaultShiftHours           = 8
)

// DefaultBaselineKey names the baseline applied when a gym has none.
const DefaultBaselineKey = "DEFAULT"

// Baseline holds the per-gym tuning that feeds analysis.
type Baseline struct {
	MaxBouldersPerSetter float64 `json:"max_boulders_per_setter" yaml:"max_boulders_per_setter"`
	MaxRoutesPerSetter   float64 `json:"max_routes_per_setter" yaml:"max_routes_per_setter"`
	ShiftHours           float64 `json:"shift_hours" yaml:"shift_hours"`
}

// DefaultBaseline returns the built-in thresholds.
func DefaultBaseline() Baseline {
	return Baseline{
		MaxBouldersPerSetter: DefaultMaxBouldersPerSetter,
		MaxRoutesPerSetter:   DefaultMaxRoutesPerSetter,
		ShiftHours:           DefaultShiftHours,
	}
}

// Options controls one analysis run.
type Options struct {
	// Gym restricts the run to one gym code. Empty or "ALL" means every gym.
	Gym                  string
	MaxBouldersPerSetter float64
	MaxRoutesPerSetter   float64
}

// OptionsFor resolves thresholds for gym from its own baseline, then the
// DEFAULT baseline, then the built-in constants. Zero fields fall through.
func OptionsFor(baselines map[string]Baseline, gym string) Options {
	b := DefaultBaseline()
	for _, key := range []string{DefaultBaselineKey, strings.ToUpper(gym)} {
		src, ok := baselines[key]
		if !ok {
			continue
		}
		if src.MaxBouldersPerSetter > 0 {
			b.MaxBouldersPerSetter = src.MaxBouldersPerSetter
		}
		if src.MaxRoutesPerSetter > 0 {
			b.MaxRoutesPerSetter = src.MaxRoutesPerSetter
		}
		if src.ShiftHours > 0 {
			b.ShiftHours = src.ShiftHours
		}
	}
	return Options{
		Gym:                  gym,
		MaxBouldersPerSetter: b.MaxBouldersPerSetter,
		MaxRoutesPerSetter:   b.MaxRoutesPerSetter,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxBouldersPerSetter <= 0 {
		o.MaxBouldersPerSetter = DefaultMaxBouldersPerSetter
	}
	if o.MaxRoutesPerSetter <= 0 {
		o.MaxRoutesPerSetter = DefaultMaxRoutesPerSetter
	}
	return o
}
