// Package repo persists sweep output in Postgres
package repo

import (
	"context"
	"encoding/json"

	"oracle/internal/modkit/repokit"
	"oracle/internal/platform/store"
	"oracle/internal/services/sweep/domain"
)

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[domain.StorageRepo] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) domain.StorageRepo { return &pg{q: q} }

const historySQL = `
INSERT INTO risk_history (matter_id, value, category, factors, pattern_count, computed_at)
VALUES ($1, $2, $3, $4::jsonb, $5, $6)`

func (r *pg) AppendHistory(ctx context.Context, row domain.HistoryRow) error {
	raw, err := json.Marshal(row.Factors)
	if err != nil {
		return err
	}
	return store.ExecOne(ctx, r.q, historySQL,
		row.MatterID, row.Score.Value, string(row.Score.Category), string(raw),
		row.PatternCount, row.ComputedAt.UTC())
}

const runSQL = `
INSERT INTO sweep_runs (id, owner, started_at, finished_at, status, matters, written, failed, elevated, err_text)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''))`

func (r *pg) FinishRun(ctx context.Context, run domain.Run) error {
	res := run.Result
	return store.ExecOne(ctx, r.q, runSQL,
		run.ID, run.Owner, run.StartedAt.UTC(), run.FinishedAt.UTC(), run.Status,
		res.Matters, res.Written, res.Failed, len(res.Elevated), run.ErrText)
}
