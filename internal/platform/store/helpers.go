package store

import (
	"context"

	perr "oracle/internal/platform/errors"
)

// ExecOne runs a write that must touch exactly one row; zero rows is
// perr.ErrNotFound so callers can surface a 404
func ExecOne(ctx context.Context, q RowQuerier, sql string, args ...any) error {
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	switch n := tag.RowsAffected(); n {
	case 1:
		return nil
	case 0:
		return perr.ErrNotFound
	default:
		return perr.Newf(perr.ErrorCodeDB, "%d rows affected, want 1", n)
	}
}

// One scans the only row of a query; no row is perr.ErrNotFound
func One[T any](ctx context.Context, q RowQuerier, scan func(Row) (T, error), sql string, args ...any) (T, error) {
	var zero T
	xs, err := collect(ctx, q, scan, 2, sql, args...)
	if err != nil {
		return zero, err
	}
	switch len(xs) {
	case 0:
		return zero, perr.ErrNotFound
	case 1:
		return xs[0], nil
	}
	return zero, perr.Newf(perr.ErrorCodeDB, "query returned more than one row")
}

// Many scans every row of a query in order
func Many[T any](ctx context.Context, q RowQuerier, scan func(Row) (T, error), sql string, args ...any) ([]T, error) {
	return collect(ctx, q, scan, 0, sql, args...)
}

// collect stops after limit rows when limit > 0
func collect[T any](ctx context.Context, q RowQuerier, scan func(Row) (T, error), limit int, sql string, args ...any) ([]T, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		x, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, x)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, rows.Err()
}
