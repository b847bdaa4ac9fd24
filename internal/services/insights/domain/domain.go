// Package domain defines stored insights and their ports
package domain

import (
	"context"
	"time"

	"oracle/internal/core/patterns"

	"github.com/google/uuid"
)

// Insight is a persisted analytical finding about a matter
type Insight struct {
	ID         uuid.UUID           `json:"id"`
	MatterID   string              `json:"matter_id"`
	ClientID   string              `json:"client_id,omitempty"`
	Category   string              `json:"category"`
	Severity   string              `json:"severity"`
	Confidence float64             `json:"confidence"`
	Summary    string              `json:"summary"`
	Evidence   []patterns.Evidence `json:"evidence"`
	CreatedBy  string              `json:"created_by"`
	CreatedAt  time.Time           `json:"created_at"`
}

// Filters select insights; MatterID or ClientID is required.
// MatterIDs, when non-nil, restricts results to those matters
type Filters struct {
	MatterID  string   `json:"matter_id,omitempty"  validate:"omitempty,ident,max=100"`
	ClientID  string   `json:"client_id,omitempty"  validate:"omitempty,ident,max=100"`
	Category  string   `json:"category,omitempty"   validate:"omitempty,max=64"`
	Severity  string   `json:"severity,omitempty"   validate:"omitempty,oneof=low medium high critical"`
	Limit     int      `json:"limit,omitempty"      validate:"omitempty,min=1,max=200"`
	MatterIDs []string `json:"-"`
}

// CreateInput is a new insight before an id and timestamp are assigned
type CreateInput struct {
	MatterID   string              `json:"matter_id"  validate:"required,ident,max=100" example:"m-1001"`
	ClientID   string              `json:"client_id,omitempty" validate:"omitempty,ident,max=100"`
	Category   string              `json:"category"   validate:"required,max=64" example:"billing-stall"`
	Severity   string              `json:"severity"   validate:"required,oneof=low medium high critical" example:"high"`
	Confidence float64             `json:"confidence" validate:"unit" example:"0.72"`
	Summary    string              `json:"summary"    validate:"required,max=2000"`
	Evidence   []patterns.Evidence `json:"evidence,omitempty" validate:"omitempty,max=100"`
}

// Port is what other modules use to read and write insights
type Port interface {
	List(ctx context.Context, f Filters) ([]Insight, error)
	Create(ctx context.Context, actorID string, in CreateInput) (Insight, error)
}
