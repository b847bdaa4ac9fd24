package module

import (
	"time"

	"oracle/internal/platform/config"
)

// Options holds configuration settings for the privilege module
type Options struct {
	CacheTTL time.Duration
}

// FromConfig reads CORE_PRIVILEGE_* settings
func FromConfig(cfg config.Conf) Options {
	pc := cfg.Prefix("CORE_PRIVILEGE_")
	return Options{
		CacheTTL: pc.MayDuration("CACHE_TTL", 0),
	}
}
