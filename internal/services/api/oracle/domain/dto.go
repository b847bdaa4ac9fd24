// Package domain holds DTOs and ports for the oracle api
package domain

import (
	"context"
	"time"

	"oracle/internal/core/forecast"
	"oracle/internal/core/matter"
	"oracle/internal/core/narrative"
	"oracle/internal/core/patterns"
	"oracle/internal/core/risk"
	idomain "oracle/internal/services/insights/domain"
	mdomain "oracle/internal/services/matters/domain"

	"github.com/google/uuid"
)

// Scope is how widely a diagnostic looks
type Scope string

const (
	ScopeMatter     Scope = "matter"
	ScopePredictive Scope = "predictive"
)

// DiagnosticInput asks for patterns, a risk score and a narrative for one
// matter, or for every readable matter of a client when MatterID is empty
type DiagnosticInput struct {
	MatterID  string            `json:"matter_id,omitempty" validate:"omitempty,ident,max=100" example:"m-1001"`
	ClientID  string            `json:"client_id,omitempty" validate:"omitempty,ident,max=100"`
	Scope     Scope             `json:"scope,omitempty" validate:"omitempty,oneof=matter predictive" example:"matter"`
	Narrative *narrative.Config `json:"narrative,omitempty"`
}

// MatterDiagnostic is one matter's share of a client diagnostic
type MatterDiagnostic struct {
	MatterID  string             `json:"matter_id"`
	RiskScore risk.Score         `json:"risk_score"`
	Patterns  []patterns.Pattern `json:"patterns"`
}

// DiagnosticOutput is the diagnostic result. A client diagnostic leaves
// MatterID empty, lists each matter riskiest first and reports the riskiest
// matter's score and factors
type DiagnosticOutput struct {
	MatterID    string              `json:"matter_id,omitempty"`
	ClientID    string              `json:"client_id,omitempty"`
	Matters     []MatterDiagnostic  `json:"matters,omitempty"`
	Patterns    []patterns.Pattern  `json:"patterns"`
	RiskScore   risk.Score          `json:"risk_score"`
	Factors     risk.Factors        `json:"factors"`
	Forecast    *forecast.Forecast  `json:"forecast,omitempty"`
	Narrative   narrative.Narrative `json:"narrative"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// QueryMode is the kind of analysis a free-text query asks for
type QueryMode string

const (
	ModeDiagnostic QueryMode = "diagnostic"
	ModePredictive QueryMode = "predictive"
	ModeStrategic  QueryMode = "strategic"
	ModeCapital    QueryMode = "capital"
	ModeEconomics  QueryMode = "economics"
)

// QueryInput is a free-text question, optionally about one matter
type QueryInput struct {
	Text     string    `json:"text"                validate:"required,min=1,max=5000" example:"Why is billing stalling?"`
	Mode     QueryMode `json:"mode"                validate:"required,oneof=diagnostic predictive strategic capital economics" example:"diagnostic"`
	MatterID string    `json:"matter_id,omitempty" validate:"omitempty,ident,max=100"`
}

// Query is an accepted query, stamped with its author
type Query struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	Mode      QueryMode `json:"mode"`
	MatterID  string    `json:"matter_id,omitempty"`
	ActorID   string    `json:"actor_id"`
	CreatedAt time.Time `json:"created_at"`
}

// InsightsOutput wraps a listing
type InsightsOutput struct {
	Insights []idomain.Insight `json:"insights"`
}

// Matter360Output is the comprehensive matter view
type Matter360Output struct {
	Matter      matter.Snapshot        `json:"matter"`
	Graph       mdomain.Graph          `json:"graph"`
	Timeline    []mdomain.TimelineItem `json:"timeline"`
	Patterns    []patterns.Pattern     `json:"patterns"`
	Forecasts   forecast.Forecast      `json:"forecasts"`
	RiskScore   risk.Score             `json:"risk_score"`
	Insights    []idomain.Insight      `json:"insights"`
	GeneratedAt time.Time              `json:"generated_at"`
}

// ForecastOutput is the predictive view of one matter
type ForecastOutput struct {
	MatterID    string              `json:"matter_id"`
	Trajectory  forecast.Trajectory `json:"trajectory"`
	Cost        forecast.Cost       `json:"cost"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// ScoreInput is a what-if scoring request. MatterID is optional and, when
// set, gates the request on that matter
type ScoreInput struct {
	MatterID string       `json:"matter_id,omitempty" validate:"omitempty,ident,max=100"`
	Factors  risk.Factors `json:"factors"`
}

// ScoreOutput is the composite score for the supplied factors
type ScoreOutput struct {
	RiskScore risk.Score   `json:"risk_score"`
	Factors   risk.Factors `json:"factors"`
}

// BriefingInput asks for a narrative to be generated and archived
type BriefingInput struct {
	MatterID  string           `json:"matter_id" validate:"required,ident,max=100" example:"m-1001"`
	Narrative narrative.Config `json:"narrative"`
}

// BriefingOutput points at the archived briefing
type BriefingOutput struct {
	MatterID    string              `json:"matter_id"`
	Key         string              `json:"key"`
	Narrative   narrative.Narrative `json:"narrative"`
	RiskScore   risk.Score          `json:"risk_score"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// ArchivePort stores rendered briefings
type ArchivePort interface {
	Put(ctx context.Context, matterID string, body []byte, meta map[string]string) (string, error)
}
