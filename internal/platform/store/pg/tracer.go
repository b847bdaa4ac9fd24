package pg

import (
	"context"
	"errors"
	"strings"

	"oracle/internal/platform/logger"

	"github.com/jackc/pgx/v5"
)

// QueryEvent describes one finished statement
type QueryEvent struct {
	SQL       string
	Args      []any
	ElapsedUS int64
	Err       error
	Slow      bool
}

// QueryTracer receives an event per statement
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// Tracer logs slow and failed statements; verbose logs every statement
// bind values are reduced to a count; they hold privileged matter data
func Tracer(root logger.Logger, verbose bool) QueryTracer {
	return &zlTracer{log: root.With().Str("component", "pg").Logger(), verbose: verbose}
}

type zlTracer struct {
	log     logger.Logger
	verbose bool
}

func (z *zlTracer) OnQuery(_ context.Context, ev QueryEvent) {
	evt := z.log.Debug()
	switch {
	case ev.Err != nil && !errors.Is(ev.Err, pgx.ErrNoRows):
		evt = z.log.Error()
	case ev.Slow:
		evt = z.log.Warn()
	case !z.verbose:
		return
	}
	evt.Float64("elapsed_ms", float64(ev.ElapsedUS)/1000).
		Bool("slow", ev.Slow).
		Str("sql", compact(ev.SQL)).
		Int("args", len(ev.Args)).
		Err(ev.Err).
		Msg("pg query")
}

// compact folds runs of whitespace into a single space
func compact(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
