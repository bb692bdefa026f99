package pricing

// DemandLevel buckets the demand/supply balance around a pickup point.
type DemandLevel string

const (
	DemandLow      DemandLevel = "low"
	DemandMedium   DemandLevel = "medium"
	DemandHigh     DemandLevel = "high"
	DemandVeryHigh DemandLevel = "very_high"
)

// SurgeConfig contains the demand/supply ratios that move between levels.
type SurgeConfig struct {
	MediumRatio   float64
	HighRatio     float64
	VeryHighRatio float64
}

// DefaultSurgeConfig returns the default surge thresholds.
func DefaultSurgeConfig() SurgeConfig {
	return SurgeConfig{
		MediumRatio:   1.2,
		HighRatio:     1.5,
		VeryHighRatio: 2.0,
	}
}

var surgeMultipliers = map[DemandLevel]float64{
	DemandLow:      1.0,
	DemandMedium:   1.2,
	DemandHigh:     1.5,
	DemandVeryHigh: 2.0,
}

// SurgeMultiplier returns the fare multiplier for level. Unknown levels do not surge.
func SurgeMultiplier(level DemandLevel) float64 {
	if m, ok := surgeMultipliers[level]; ok {
		return m
	}
	return 1.0
}

// DemandLevelFor classifies supply (online drivers) against demand (open requests).
func DemandLevelFor(supply, demand int, cfg SurgeConfig) DemandLevel {
	if supply == 0 {
		if demand > 0 {
			return DemandVeryHigh
		}
		return DemandLow
	}

	ratio := float64(demand) / float64(supply)
	switch {
	case ratio >= cfg.VeryHighRatio:
		return DemandVeryHigh
	case ratio >= cfg.HighRatio:
		return DemandHigh
	case ratio >= cfg.MediumRatio:
		return DemandMedium
	default:
		return DemandLow
	}
}
