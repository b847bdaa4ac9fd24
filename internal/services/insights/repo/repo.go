// Package repo stores insights in Postgres
package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"oracle/internal/core/patterns"
	"oracle/internal/modkit/repokit"
	"oracle/internal/platform/store"
	"oracle/internal/services/insights/domain"
)

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Repo] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Repo { return &pg{q: q} }

// Repo is the insights storage
type Repo interface {
	List(ctx context.Context, f domain.Filters) ([]domain.Insight, error)
	Insert(ctx context.Context, in domain.Insight) error
}

func (r *pg) List(ctx context.Context, f domain.Filters) ([]domain.Insight, error) {
	var sb strings.Builder
	var args []any
	arg := func(v any) string { args = append(args, v); return fmt.Sprintf("$%d", len(args)) }

	sb.WriteString(`
		SELECT id, matter_id, COALESCE(client_id, ''), category, severity,
		       confidence, summary, evidence, created_by, created_at
		FROM insights
		WHERE true
	`)
	if f.MatterID != "" {
		sb.WriteString("  AND matter_id = " + arg(f.MatterID) + "\n")
	}
	// a matter list already resolves the client, and insights may carry
	// no client id of their own
	switch {
	case f.MatterIDs != nil:
		sb.WriteString("  AND matter_id = ANY(" + arg(f.MatterIDs) + ")\n")
	case f.ClientID != "":
		sb.WriteString("  AND client_id = " + arg(f.ClientID) + "\n")
	}
	if f.Category != "" {
		sb.WriteString("  AND category = " + arg(f.Category) + "\n")
	}
	if f.Severity != "" {
		sb.WriteString("  AND severity = " + arg(f.Severity) + "\n")
	}
	sb.WriteString("ORDER BY created_at DESC, id\nLIMIT " + arg(f.Limit))

	return store.Many(ctx, r.q, func(row store.Row) (domain.Insight, error) {
		var (
			in  domain.Insight
			raw []byte
		)
		err := row.Scan(&in.ID, &in.MatterID, &in.ClientID, &in.Category, &in.Severity,
			&in.Confidence, &in.Summary, &raw, &in.CreatedBy, &in.CreatedAt)
		if err != nil {
			return domain.Insight{}, err
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &in.Evidence); err != nil {
				return domain.Insight{}, fmt.Errorf("insight %s evidence: %w", in.ID, err)
			}
		}
		in.CreatedAt = in.CreatedAt.UTC()
		return in, nil
	}, sb.String(), args...)
}

const insertSQL = `
INSERT INTO insights
	(id, matter_id, client_id, category, severity, confidence, summary, evidence, created_by, created_at)
VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8::jsonb, $9, $10)`

func (r *pg) Insert(ctx context.Context, in domain.Insight) error {
	ev := in.Evidence
	if ev == nil {
		ev = []patterns.Evidence{}
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return store.ExecOne(ctx, r.q, insertSQL,
		in.ID, in.MatterID, in.ClientID, in.Category, in.Severity,
		in.Confidence, in.Summary, string(raw), in.CreatedBy, in.CreatedAt)
}
