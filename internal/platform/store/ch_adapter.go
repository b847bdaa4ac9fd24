package store

import (
	"context"
	"errors"
	"fmt"

	"oracle/internal/platform/store/ch"
)

// chAdapter narrows *ch.CH to the Clickhouse seam repos depend on
type chAdapter struct {
	c *ch.CH
}

var _ Clickhouse = (*chAdapter)(nil)

func newCHAdapter(c *ch.CH) Clickhouse { return &chAdapter{c: c} }

// Insert expects data as [][]any with values in table column order
func (a *chAdapter) Insert(ctx context.Context, table string, data any) error {
	switch rows := data.(type) {
	case [][]any:
		return a.c.Insert(ctx, table, rows)
	case []any:
		return a.c.Insert(ctx, table, [][]any{rows})
	default:
		return fmt.Errorf("store: clickhouse insert into %s wants [][]any, got %T", table, data)
	}
}

func (a *chAdapter) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	r, err := a.c.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return chRows{r}, nil
}

func (a *chAdapter) Exec(ctx context.Context, sql string, args ...any) error {
	return a.c.Exec(ctx, sql, args...)
}

func (a *chAdapter) Ping(ctx context.Context) error {
	if a == nil || a.c == nil {
		return errors.New("store: clickhouse not open")
	}
	return a.c.Ping(ctx)
}

func (a *chAdapter) Close() error { return a.c.Close() }

// chRows adapts Close to the store.Rows signature
type chRows struct{ ch.Rows }

func (r chRows) Close() { _ = r.Rows.Close() }
