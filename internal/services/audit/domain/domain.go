// Package domain defines audit entries and the recorder and sink ports
package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType names what happened
type EventType string

const (
	OracleQuery            EventType = "oracle_query"
	OracleAccessDenied     EventType = "oracle_access_denied"
	OracleInsightGenerated EventType = "oracle_insight_generated"
	OracleBriefingArchived EventType = "oracle_briefing_archived"
	OracleSweep            EventType = "oracle_sweep"
)

// Context identifies who acted and on what
type Context struct {
	ActorID  string
	MatterID string
}

// Entry is one append-only audit record
type Entry struct {
	ID        uuid.UUID      `json:"id"`
	EventType EventType      `json:"event_type"`
	ActorID   string         `json:"actor_id"`
	MatterID  string         `json:"matter_id,omitempty"`
	Payload   map[string]any `json:"payload"`
	At        time.Time      `json:"at"`
}

// RecorderPort accepts entries without ever failing or blocking the caller
type RecorderPort interface {
	Record(ctx context.Context, t EventType, payload map[string]any, c Context)
}

// Sink persists batches and exposes no update or delete
type Sink interface {
	Name() string
	Write(ctx context.Context, entries []Entry) error
}
