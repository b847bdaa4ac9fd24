package module

import "oracle/internal/platform/config"

// Options holds configuration settings for the matters module
type Options struct {
	SimilarityFloor float64
	ComparableLimit int
}

// FromConfig reads CORE_FORECAST_* settings
func FromConfig(cfg config.Conf) Options {
	fc := cfg.Prefix("CORE_FORECAST_")
	return Options{
		SimilarityFloor: fc.MayUnit("SIMILARITY_FLOOR", 0.3),
		ComparableLimit: fc.MayInt("COMPARABLE_LIMIT", 20),
	}
}
