// Package guardrails keeps sweeps from overlapping across processes
package guardrails

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"oracle/internal/platform/store"

	"github.com/jackc/pgx/v5"
)

// ErrLeaseHeld signals another process is already sweeping
var ErrLeaseHeld = errors.New("sweep: lease already held")

// Lease runs do while holding the named lease
type Lease func(ctx context.Context, do func(context.Context) error) error

// MakeLease claims the named sweep_leases row until ttl passes or do returns.
// An expired lease is reclaimed by the next caller
func MakeLease(db store.TxRunner, name, owner string, ttl time.Duration) Lease {
	owner = fmt.Sprintf("%s:%d", owner, os.Getpid())
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	interval := fmt.Sprintf("%d seconds", int64(ttl/time.Second))

	return func(ctx context.Context, do func(context.Context) error) error {
		var claimed bool
		if err := db.Tx(ctx, func(q store.RowQuerier) error {
			row := q.QueryRow(ctx, `
				INSERT INTO sweep_leases (name, owner, claimed_at, expires_at)
				VALUES ($1, $2, now(), now() + ($3)::interval)
				ON CONFLICT (name) DO UPDATE
				   SET owner = EXCLUDED.owner, claimed_at = now(), expires_at = EXCLUDED.expires_at
				 WHERE sweep_leases.expires_at <= now()
				RETURNING true
			`, name, owner, interval)
			err := row.Scan(&claimed)
			if errors.Is(err, pgx.ErrNoRows) {
				claimed = false // someone else holds it
				return nil
			}
			return err
		}); err != nil {
			return err
		}
		if !claimed {
			return ErrLeaseHeld
		}
		defer func() {
			// release on a fresh context so cancellation still frees the row
			rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = db.Tx(rctx, func(q store.RowQuerier) error {
				_, err := q.Exec(rctx, `UPDATE sweep_leases SET expires_at = now() WHERE name = $1 AND owner = $2`, name, owner)
				return err
			})
		}()
		return do(ctx)
	}
}
