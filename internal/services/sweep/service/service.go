// Package service recomputes risk across the active portfolio
package service

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"oracle/internal/core/patterns"
	"oracle/internal/core/risk"
	"oracle/internal/modkit/repokit"
	"oracle/internal/platform/logger"
	adomain "oracle/internal/services/audit/domain"
	mdomain "oracle/internal/services/matters/domain"
	"oracle/internal/services/sweep/domain"
	"oracle/internal/services/sweep/guardrails"

	"github.com/google/uuid"
)

const finishTimeout = 5 * time.Second

// Config controls concurrency and overlap protection
type Config struct {
	Workers int

	// EnableLeases takes the shared sweep lease so only one process sweeps at a time
	EnableLeases bool

	// Owner names this process in sweep_runs and the lease row
	Owner string
}

// Deps are the collaborators a sweep reads from and writes to
type Deps struct {
	DB        repokit.TxRunner
	Binder    repokit.Binder[domain.StorageRepo]
	Snapshots mdomain.SnapshotPort
	Lister    mdomain.ListPort
	Detector  *patterns.Detector
	Audit     adomain.RecorderPort
	Lease     guardrails.Lease
}

// Service implements domain.RunnerPort
type Service struct {
	d     Deps
	cfg   Config
	now   func() time.Time
	newID func() uuid.UUID
}

// New constructs the sweep; Lease may be nil
func New(d Deps, cfg Config) *Service {
	switch {
	case d.DB == nil:
		panic("sweep.Service requires a non nil TxRunner")
	case d.Binder == nil:
		panic("sweep.Service requires a non nil Repo binder")
	case d.Snapshots == nil, d.Lister == nil:
		panic("sweep.Service requires matter ports")
	case d.Detector == nil:
		panic("sweep.Service requires a detector")
	case d.Audit == nil:
		panic("sweep.Service requires an audit recorder")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Owner == "" {
		cfg.Owner = "oracle-sweep"
	}
	return &Service{d: d, cfg: cfg, now: time.Now, newID: uuid.New}
}

// RunOnce sweeps the portfolio. Another process holding the lease is a clean skip
func (s *Service) RunOnce(ctx context.Context) (domain.Result, error) {
	l := logger.C(ctx).With().Str("mod", "sweep").Logger()

	var res domain.Result
	run := func(ctx context.Context) error {
		var err error
		res, err = s.sweep(ctx)
		return err
	}

	var err error
	if s.d.Lease != nil && s.cfg.EnableLeases {
		err = s.d.Lease(ctx, run)
		if errors.Is(err, guardrails.ErrLeaseHeld) {
			l.Debug().Msg("sweep: lease not acquired; clean skip")
			return domain.Result{}, nil
		}
	} else {
		err = run(ctx)
	}
	if err != nil {
		l.Error().Err(err).Msg("sweep: run failed")
	}
	return res, err
}

func (s *Service) sweep(ctx context.Context) (res domain.Result, retErr error) {
	l := logger.C(ctx).With().Str("mod", "sweep").Logger()
	start := s.now().UTC()
	res.Elevated = []string{}

	// always record the run and exactly one audit entry, even on error
	defer func() {
		run := domain.Run{
			ID:         s.newID(),
			Owner:      s.cfg.Owner,
			StartedAt:  start,
			FinishedAt: s.now().UTC(),
			Status:     res.Status(retErr),
			Result:     res,
		}
		if retErr != nil {
			run.ErrText = retErr.Error()
		}
		// a cancelled sweep still gets its row
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
		defer cancel()
		if err := s.d.DB.Tx(fctx, func(q repokit.Queryer) error {
			return s.d.Binder.Bind(q).FinishRun(fctx, run)
		}); err != nil {
			l.Warn().Err(err).Msg("sweep: finish run not recorded")
		}
		s.d.Audit.Record(fctx, adomain.OracleSweep, map[string]any{
			"runId":      run.ID.String(),
			"status":     run.Status,
			"matters":    res.Matters,
			"written":    res.Written,
			"failed":     res.Failed,
			"elevated":   res.Elevated,
			"durationMs": run.FinishedAt.Sub(start).Milliseconds(),
		}, adomain.Context{ActorID: domain.Actor})
		l.Info().
			Str("status", run.Status).
			Int("matters", res.Matters).
			Int("written", res.Written).
			Int("failed", res.Failed).
			Int("elevated", len(res.Elevated)).
			Msg("sweep: done")
	}()

	ids, err := s.d.Lister.Active(ctx)
	if err != nil {
		return res, err
	}
	res.Matters = len(ids)

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, s.cfg.Workers)
	)
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(id string) {
			defer func() { <-sem; wg.Done() }()
			score, err := s.one(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failed++
				l.Warn().Err(err).Str("matter_id", id).Msg("sweep: matter failed")
				return
			}
			res.Written++
			if score.Category.Rank() >= risk.Elevated.Rank() {
				res.Elevated = append(res.Elevated, id)
			}
		}(id)
	}
	wg.Wait()
	slices.Sort(res.Elevated)

	if err := ctx.Err(); err != nil {
		res.Failed = res.Matters - res.Written
		return res, err
	}
	return res, nil
}

func (s *Service) one(ctx context.Context, matterID string) (risk.Score, error) {
	snap, err := s.d.Snapshots.Snapshot(ctx, matterID)
	if err != nil {
		return risk.Score{}, err
	}
	found := s.d.Detector.Detect(snap)
	f := risk.Derive(snap, found)
	score := risk.Compute(f)
	row := domain.HistoryRow{
		MatterID:     matterID,
		Score:        score,
		Factors:      f,
		PatternCount: len(found),
		ComputedAt:   s.now().UTC(),
	}
	err = s.d.DB.Tx(ctx, func(q repokit.Queryer) error {
		return s.d.Binder.Bind(q).AppendHistory(ctx, row)
	})
	return score, err
}
