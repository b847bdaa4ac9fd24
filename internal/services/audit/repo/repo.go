// Package repo holds the append-only audit sinks
package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"oracle/internal/modkit/repokit"
	"oracle/internal/platform/store"
	"oracle/internal/services/audit/domain"
)

// CH writes to the oracle_audit MergeTree table
type CH struct{ ch store.Clickhouse }

// NewCH builds the clickhouse sink
func NewCH(ch store.Clickhouse) *CH {
	if ch == nil {
		panic("audit.CH requires a non nil clickhouse")
	}
	return &CH{ch: ch}
}

// Name identifies the sink in logs
func (*CH) Name() string { return "clickhouse" }

// Write batch-inserts entries
func (s *CH) Write(ctx context.Context, xs []domain.Entry) error {
	if len(xs) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(xs))
	for _, e := range xs {
		payload, err := encode(e.Payload)
		if err != nil {
			return err
		}
		rows = append(rows, []any{e.ID, string(e.EventType), e.ActorID, e.MatterID, string(payload), e.At.UTC()})
	}
	return s.ch.Insert(ctx, "oracle_audit", rows)
}

// PG writes to the audit_log table
type PG struct{ q repokit.Queryer }

// NewPG builds the postgres sink
func NewPG(q repokit.Queryer) *PG {
	return &PG{q: repokit.RequireQueryer(q)}
}

// Name identifies the sink in logs
func (*PG) Name() string { return "postgres" }

// Write inserts entries in one statement
func (s *PG) Write(ctx context.Context, xs []domain.Entry) error {
	if len(xs) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO audit_log (id, event_type, actor_id, matter_id, payload, at) VALUES `)
	args := make([]any, 0, len(xs)*6)
	for i, e := range xs {
		if i > 0 {
			sb.WriteByte(',')
		}
		base := i*6 + 1
		fmt.Fprintf(&sb, "($%d,$%d,$%d,NULLIF($%d,''),$%d::jsonb,$%d)",
			base, base+1, base+2, base+3, base+4, base+5)
		payload, err := encode(e.Payload)
		if err != nil {
			return err
		}
		args = append(args, e.ID, string(e.EventType), e.ActorID, e.MatterID, string(payload), e.At.UTC())
	}
	_, err := s.q.Exec(ctx, sb.String(), args...)
	return err
}

func encode(p map[string]any) ([]byte, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("audit payload: %w", err)
	}
	return b, nil
}
