package module

import (
	"time"

	"oracle/internal/platform/config"
)

// Sink choices
const (
	SinkAuto       = "auto"
	SinkClickhouse = "clickhouse"
	SinkPostgres   = "postgres"
)

// Options holds configuration settings for the audit module
type Options struct {
	Sink         string
	QueueSize    int
	BatchSize    int
	FlushEvery   time.Duration
	WriteTimeout time.Duration
}

// FromConfig reads CORE_AUDIT_* settings
func FromConfig(cfg config.Conf) Options {
	ac := cfg.Prefix("CORE_AUDIT_")
	return Options{
		Sink:         ac.MayEnum("SINK", SinkAuto, SinkAuto, SinkClickhouse, SinkPostgres),
		QueueSize:    ac.MayInt("QUEUE_SIZE", 1024),
		BatchSize:    ac.MayInt("BATCH_SIZE", 64),
		FlushEvery:   ac.MayDuration("FLUSH_EVERY", time.Second),
		WriteTimeout: ac.MayDuration("WRITE_TIMEOUT", 5*time.Second),
	}
}
