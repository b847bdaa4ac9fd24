package repokit

import (
	"context"
	"fmt"
	"time"
)

// GuardTimeout bounds MustGuard when ctx carries no deadline
const GuardTimeout = 5 * time.Second

type guarder interface {
	Guard(context.Context) error
}

// MustGuard pings every configured backend and panics on any failure
// binaries call it once after store.Open so a bad DSN fails at boot
func MustGuard(ctx context.Context, st guarder) {
	if st == nil {
		panic("dependency guard: nil store")
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, GuardTimeout)
		defer cancel()
	}
	if err := st.Guard(ctx); err != nil {
		panic(fmt.Errorf("dependency guard failed: %w", err))
	}
}
