package module

import (
	"time"

	"oracle/internal/platform/config"
)

// Options for the sweep module
type Options struct {
	Schedule     string
	Workers      int
	EnableLeases bool
	LeaseTTL     time.Duration
	RunTimeout   time.Duration
	RulesPath    string
}

// FromConfig fills options from environment
// CORE_SWEEP_SCHEDULE (default "0 0 2 * * *") is a six field cron spec, seconds first
// CORE_SWEEP_WORKERS (default 4) bounds matters scored concurrently
// CORE_SWEEP_LEASES (default true) takes the shared lease so sweeps never overlap
// CORE_SWEEP_RUN_TIMEOUT (default 30m) caps one sweep
func FromConfig(cfg config.Conf) Options {
	s := cfg.Prefix("CORE_SWEEP_")
	return Options{
		Schedule:     s.MayString("SCHEDULE", "0 0 2 * * *"),
		Workers:      s.MayInt("WORKERS", 4),
		EnableLeases: s.MayBool("LEASES", true),
		LeaseTTL:     s.MayDuration("LEASE_TTL", 45*time.Minute),
		RunTimeout:   s.MayDuration("RUN_TIMEOUT", 30*time.Minute),
		RulesPath:    cfg.Prefix("CORE_ORACLE_").MayString("RULES_PATH", ""),
	}
}
