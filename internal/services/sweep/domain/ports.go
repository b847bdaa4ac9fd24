// Package domain defines the portfolio sweep ports and records
package domain

import (
	"context"
	"time"

	"oracle/internal/core/risk"

	"github.com/google/uuid"
)

// Actor is the audit actor id a sweep records under
const Actor = "system:sweep"

// RunnerPort is what the cron schedule and the CLI call
type RunnerPort interface {
	// RunOnce scores every active matter once and appends one history row each
	RunOnce(ctx context.Context) (Result, error)
}

// HistoryRow is one append-only risk_history record
type HistoryRow struct {
	MatterID     string
	Score        risk.Score
	Factors      risk.Factors
	PatternCount int
	ComputedAt   time.Time
}

// Run is the bookkeeping row for one sweep
type Run struct {
	ID         uuid.UUID
	Owner      string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string
	Result     Result
	ErrText    string
}

// Result counts what a sweep did
type Result struct {
	Matters  int      `json:"matters"`
	Written  int      `json:"written"`
	Failed   int      `json:"failed"`
	Elevated []string `json:"elevated"`
}

// Status reports ok, partial or error for r
func (r Result) Status(err error) string {
	switch {
	case err != nil:
		return "error"
	case r.Failed > 0:
		return "partial"
	}
	return "ok"
}

// StorageRepo is everything the sweep persists
type StorageRepo interface {
	// AppendHistory inserts one risk_history row; rows are never updated
	AppendHistory(ctx context.Context, row HistoryRow) error

	// FinishRun records the outcome of a sweep
	FinishRun(ctx context.Context, run Run) error
}
