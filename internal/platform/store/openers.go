package store

import (
	"context"
	"fmt"
	"time"

	"oracle/internal/platform/logger"
	chx "oracle/internal/platform/store/ch"
	"oracle/internal/platform/store/pg"
)

const (
	backoffStart   = 150 * time.Millisecond
	backoffCeiling = 2 * time.Second
)

// openPG opens pg behind the traced adapter; slow and failed statements
// are always logged, every statement only with LogSQL
func openPG(ctx context.Context, cfg Config, s *Store) (TxRunner, error) {
	p, err := pg.Open(ctx, pg.Config{
		URL:      cfg.PG.URL,
		AppName:  cfg.AppName,
		MaxConns: cfg.PG.MaxConns,
		SlowMs:   cfg.PG.SlowQueryMs,
	}, pg.Tracer(s.Log, cfg.PG.LogSQL))
	if err != nil {
		return nil, err
	}

	attempts := cfg.PG.ConnectRetries
	if attempts <= 0 {
		attempts = 20
	}
	timeout := cfg.PG.PingTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if err := pingBackoff(ctx, s.Log, "postgres", p.Pool.Ping, attempts, timeout); err != nil {
		p.Close()
		return nil, err
	}
	return newPGAdapter(p), nil
}

// pingBackoff retries ping with doubling backoff so boot does not race
// the database container
func pingBackoff(ctx context.Context, log logger.Logger, name string, ping func(context.Context) error, attempts int, timeout time.Duration) error {
	var err error
	wait := backoffStart
	for i := 1; i <= attempts; i++ {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		err = ping(pctx)
		cancel()
		if err == nil {
			return nil
		}
		if i == attempts {
			break
		}
		log.Warn().Err(err).Str("backend", name).Int("attempt", i).Dur("retry_in", wait).Msg("backend not ready")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait = min(wait*2, backoffCeiling)
	}
	return fmt.Errorf("%s ping failed after %d attempts: %w", name, attempts, err)
}

// openCH opens a lazy native connection; Guard does the reachability check
func openCH(ctx context.Context, cfg Config, s *Store) (Clickhouse, error) {
	c, err := chx.Open(ctx, chx.Config{
		URL:         cfg.CH.URL,
		Role:        cfg.CH.Role,
		Tag:         cfg.CH.Tag,
		DialTimeout: cfg.CH.DialTimeout,
		MaxOpen:     cfg.CH.MaxOpen,
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info().Str("role", cfg.CH.Role).Str("tag", cfg.CH.Tag).Msg("clickhouse configured")
	return newCHAdapter(c), nil
}
