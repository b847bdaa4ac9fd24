// Package service loads matter snapshots and history for analysis
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"oracle/internal/core/forecast"
	"oracle/internal/core/matter"
	"oracle/internal/modkit/repokit"
	perr "oracle/internal/platform/errors"
	"oracle/internal/services/matters/repo"
)

// Config tunes comparable selection
type Config struct {
	SimilarityFloor float64
	ComparableLimit int
}

// Service implements the SnapshotPort, HistoryPort and ListPort
type Service struct {
	db     repokit.TxRunner
	binder repokit.Binder[repo.Repo]
	cfg    Config
	now    func() time.Time
}

// snapshotTx pins every read of one snapshot to the same database state
func snapshotTx(ctx context.Context, q repokit.Queryer) error {
	_, err := q.Exec(ctx, "SET TRANSACTION ISOLATION LEVEL REPEATABLE READ, READ ONLY")
	return err
}

// New constructs the service; nil deps are wiring bugs
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], cfg Config) *Service {
	if db == nil {
		panic("matters.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("matters.Service requires a non nil Repo binder")
	}
	if cfg.ComparableLimit <= 0 {
		cfg.ComparableLimit = 20
	}
	return &Service{
		db:     repokit.WithBeginHooks(db, snapshotTx),
		binder: binder,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Snapshot reads every part of a matter inside one read-only transaction
// and stamps it with the evaluation instant
func (s *Service) Snapshot(ctx context.Context, matterID string) (matter.Snapshot, error) {
	var snap matter.Snapshot
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)
		h, err := r.Header(ctx, matterID)
		if err != nil {
			return err
		}
		snap = matter.Snapshot{
			MatterID:   matterID,
			ClientID:   h.ClientID,
			AsOf:       s.now().UTC(),
			Profile:    h.Profile,
			Compliance: h.Compliance,
			Billing:    matter.Billing{WorkInProgress: h.WIP, BilledToDate: h.Billed},
			Client:     matter.ClientSignals{HealthIndex: 1},
		}
		if h.HealthIndex != nil {
			snap.Client.HealthIndex = *h.HealthIndex
		}
		if h.LastRiskScore != nil {
			snap.RiskScore = *h.LastRiskScore
		}
		if snap.Team, err = r.Team(ctx, matterID); err != nil {
			return fmt.Errorf("team: %w", err)
		}
		if snap.Timeline.Events, err = r.Events(ctx, matterID); err != nil {
			return fmt.Errorf("events: %w", err)
		}
		if snap.Timeline.Milestones, err = r.Milestones(ctx, matterID); err != nil {
			return fmt.Errorf("milestones: %w", err)
		}
		if snap.Billing.Entries, err = r.BillingEntries(ctx, matterID); err != nil {
			return fmt.Errorf("billing: %w", err)
		}
		if snap.Documents, err = r.Documents(ctx, matterID); err != nil {
			return fmt.Errorf("documents: %w", err)
		}
		cands, err := r.Candidates(ctx, matterID)
		if err != nil {
			return fmt.Errorf("comparables: %w", err)
		}
		ranked := forecast.Rank(h.Profile, cands, s.cfg.SimilarityFloor, s.cfg.ComparableLimit)
		snap.HistorySimilarity = forecast.AdverseSimilarity(ranked)
		return nil
	})
	if err != nil {
		if errors.Is(err, perr.ErrNotFound) {
			return matter.Snapshot{}, perr.NotFoundf("matter %s not found", matterID)
		}
		return matter.Snapshot{}, perr.WithOp(perr.FromPostgres(err, "load snapshot"), "matters.snapshot")
	}
	return snap, nil
}

// Comparables ranks closed matters against matterID's profile
func (s *Service) Comparables(ctx context.Context, matterID string, limit int) ([]matter.Comparable, error) {
	if limit <= 0 || limit > s.cfg.ComparableLimit {
		limit = s.cfg.ComparableLimit
	}
	var out []matter.Comparable
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)
		h, err := r.Header(ctx, matterID)
		if err != nil {
			return err
		}
		cands, err := r.Candidates(ctx, matterID)
		if err != nil {
			return err
		}
		out = forecast.Rank(h.Profile, cands, s.cfg.SimilarityFloor, limit)
		return nil
	})
	if err != nil {
		if errors.Is(err, perr.ErrNotFound) {
			return nil, perr.NotFoundf("matter %s not found", matterID)
		}
		return nil, perr.WithOp(perr.FromPostgres(err, "load comparables"), "matters.comparables")
	}
	return out, nil
}

// Active lists matters with status active
func (s *Service) Active(ctx context.Context) ([]string, error) {
	return s.binder.Bind(s.db).Active(ctx)
}

// ByClient lists every matter for clientID
func (s *Service) ByClient(ctx context.Context, clientID string) ([]string, error) {
	return s.binder.Bind(s.db).ByClient(ctx, clientID)
}
