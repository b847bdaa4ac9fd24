package service

import (
	"context"
	"time"

	"oracle/internal/core/forecast"
	"oracle/internal/core/matter"
	"oracle/internal/core/patterns"
	"oracle/internal/core/risk"
	"oracle/internal/platform/logger"
	mdomain "oracle/internal/services/matters/domain"
)

// Forecaster projects trajectory and cost from the matter's current state.
// It never fails: a history lookup error or thin history yields a
// low-confidence forecast
type Forecaster struct {
	snapshots mdomain.SnapshotPort
	history   mdomain.HistoryPort
	detector  *patterns.Detector
	opts      forecast.Options
	limit     int
	timeout   time.Duration
	now       func() time.Time
}

// NewForecaster builds a Forecaster; timeout bounds each history lookup
func NewForecaster(snapshots mdomain.SnapshotPort, history mdomain.HistoryPort, detector *patterns.Detector, opts forecast.Options, limit int, timeout time.Duration) *Forecaster {
	if snapshots == nil || history == nil || detector == nil {
		panic("oracle.Forecaster requires snapshot and history ports and a detector")
	}
	return &Forecaster{snapshots: snapshots, history: history, detector: detector, opts: opts, limit: limit, timeout: timeout, now: time.Now}
}

// rescore stamps s with the score its current state produces; the stored
// score only reflects the last sweep
func rescore(d *patterns.Detector, s matter.Snapshot) matter.Snapshot {
	return s.WithRiskScore(risk.Compute(risk.Derive(s, d.Detect(s))).Value)
}

func (f *Forecaster) comparables(ctx context.Context, matterID string) []matter.Comparable {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}
	comps, err := f.history.Comparables(ctx, matterID, f.limit)
	if err != nil {
		logger.C(ctx).Warn().Err(err).Str("op", "oracle.forecast").Msg("comparables unavailable, forecasting on current state")
		return nil
	}
	return comps
}

// current loads and rescores the matter, falling back to a bare snapshot
// stamped now when loading fails
func (f *Forecaster) current(ctx context.Context, matterID string) matter.Snapshot {
	s, err := f.snapshots.Snapshot(ctx, matterID)
	if err != nil {
		logger.C(ctx).Warn().Err(err).Str("op", "oracle.forecast").Msg("snapshot unavailable, forecasting on empty state")
		s = matter.Snapshot{MatterID: matterID, AsOf: f.now().UTC()}
	}
	return rescore(f.detector, s)
}

// Trajectory loads the matter and projects its risk trajectory
func (f *Forecaster) Trajectory(ctx context.Context, matterID string) forecast.Trajectory {
	return forecast.ProjectTrajectory(f.current(ctx, matterID), f.comparables(ctx, matterID), f.opts)
}

// Cost loads the matter and projects its cumulative spend
func (f *Forecaster) Cost(ctx context.Context, matterID string) forecast.Cost {
	return forecast.ProjectCost(f.current(ctx, matterID), f.comparables(ctx, matterID), f.opts)
}

// Both projects s, which must already carry its current score, over one
// comparables lookup so trajectory and cost rest on the same corpus
func (f *Forecaster) Both(ctx context.Context, s matter.Snapshot) forecast.Forecast {
	comps := f.comparables(ctx, s.MatterID)
	return forecast.Forecast{
		Trajectory: forecast.ProjectTrajectory(s, comps, f.opts),
		Cost:       forecast.ProjectCost(s, comps, f.opts),
	}
}
