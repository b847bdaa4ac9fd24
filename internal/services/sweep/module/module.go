// Package module wires the portfolio sweep and its cron schedule
package module

import (
	"context"
	"fmt"
	"sync"

	"oracle/internal/core/patterns"
	"oracle/internal/modkit"
	"oracle/internal/modkit/httpkit"
	"oracle/internal/platform/logger"
	adomain "oracle/internal/services/audit/domain"
	mdomain "oracle/internal/services/matters/domain"
	"oracle/internal/services/sweep/domain"
	"oracle/internal/services/sweep/guardrails"
	"oracle/internal/services/sweep/repo"
	"oracle/internal/services/sweep/service"

	"github.com/robfig/cron/v3"
)

// Ports exported by the sweep module
type Ports struct {
	Runner domain.RunnerPort
}

// Needs are the ports other modules provide
type Needs struct {
	Snapshots mdomain.SnapshotPort
	Lister    mdomain.ListPort
	Audit     adomain.RecorderPort
}

// Module implements modkit.Module for the sweep; it has no routes
type Module struct {
	opts  Options
	ports Ports

	mu   sync.Mutex
	cron *cron.Cron
}

// New constructs the sweep. A bad rule pack is a wiring bug and panics
func New(deps modkit.Deps, needs Needs, opts Options) *Module {
	pack, err := patterns.LoadFile(opts.RulesPath)
	if err != nil {
		panic(err)
	}
	var lease guardrails.Lease
	if opts.EnableLeases {
		lease = guardrails.MakeLease(deps.PG, "portfolio", "oracle-sweep", opts.LeaseTTL)
	}
	svc := service.New(service.Deps{
		DB:        deps.PG,
		Binder:    repo.NewPG(),
		Snapshots: needs.Snapshots,
		Lister:    needs.Lister,
		Detector:  patterns.New(pack),
		Audit:     needs.Audit,
		Lease:     lease,
	}, service.Config{Workers: opts.Workers, EnableLeases: opts.EnableLeases})
	return &Module{opts: opts, ports: Ports{Runner: svc}}
}

// Start schedules RunOnce on opts.Schedule until ctx ends or Stop is called
func (m *Module) Start(ctx context.Context) error {
	l := logger.Named("oracle-sweep")
	c := cron.New(cron.WithSeconds())
	_, err := c.AddFunc(m.opts.Schedule, func() {
		rctx := ctx
		if m.opts.RunTimeout > 0 {
			var cancel context.CancelFunc
			rctx, cancel = context.WithTimeout(ctx, m.opts.RunTimeout)
			defer cancel()
		}
		if _, err := m.ports.Runner.RunOnce(rctx); err != nil {
			l.Error().Err(err).Msg("scheduled sweep failed")
		}
	})
	if err != nil {
		return fmt.Errorf("sweep: schedule %q: %w", m.opts.Schedule, err)
	}

	m.mu.Lock()
	m.cron = c
	m.mu.Unlock()

	c.Start()
	l.Info().Str("schedule", m.opts.Schedule).Msg("sweep scheduled")

	go func() {
		<-ctx.Done()
		m.Stop()
	}()
	return nil
}

// Stop halts the schedule and waits for a running sweep to return
func (m *Module) Stop() {
	m.mu.Lock()
	c := m.cron
	m.cron = nil
	m.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

// Name returns the module name
func (m *Module) Name() string { return "sweep" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// MountRoutes is a no-op: the sweep has no HTTP routes
func (m *Module) MountRoutes(httpkit.Router) {}
