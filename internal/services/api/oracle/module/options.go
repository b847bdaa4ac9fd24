package module

import (
	"strconv"
	"time"

	"oracle/internal/core/forecast"
	"oracle/internal/platform/config"
	"oracle/internal/platform/logger"
)

// Options holds configuration settings for the oracle api
type Options struct {
	Forecast         forecast.Options
	ComparableLimit  int
	HistoryTimeout   time.Duration
	NarrativeTimeout time.Duration
	InsightLimit     int
	RulesPath        string
}

// FromConfig reads CORE_FORECAST_*, CORE_NARRATIVE_* and CORE_ORACLE_* settings
func FromConfig(cfg config.Conf) Options {
	fc := cfg.Prefix("CORE_FORECAST_")
	nc := cfg.Prefix("CORE_NARRATIVE_")
	oc := cfg.Prefix("CORE_ORACLE_")
	return Options{
		Forecast: forecast.Options{
			Horizons:       horizons(fc.MayCSV("HORIZONS_DAYS", []string{"30", "60", "90"})),
			MinComparables: fc.MayInt("MIN_COMPARABLES", 3),
			BurnWindowDays: fc.MayInt("BURN_WINDOW_DAYS", 90),
		},
		ComparableLimit:  fc.MayInt("COMPARABLE_LIMIT", 20),
		HistoryTimeout:   fc.MayDuration("HISTORY_TIMEOUT", 3*time.Second),
		NarrativeTimeout: nc.MayDuration("TIMEOUT", 30*time.Second),
		InsightLimit:     oc.MayInt("INSIGHT_LIMIT", 50),
		RulesPath:        oc.MayString("RULES_PATH", ""),
	}
}

// horizons keeps the positive integers; an empty result falls back to defaults
func horizons(xs []string) []int {
	out := make([]int, 0, len(xs))
	for _, x := range xs {
		n, err := strconv.Atoi(x)
		if err != nil || n <= 0 {
			logger.Get().Warn().Str("value", x).Msg("ignoring invalid forecast horizon")
			continue
		}
		out = append(out, n)
	}
	return out
}
