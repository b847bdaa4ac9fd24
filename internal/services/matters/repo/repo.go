// Package repo reads matter state from Postgres
package repo

import (
	"context"
	"encoding/json"
	"time"

	"oracle/internal/core/forecast"
	"oracle/internal/core/matter"
	"oracle/internal/modkit/repokit"
	"oracle/internal/platform/store"
)

// Header is the matters row plus client health and the last stored score
type Header struct {
	ClientID      string
	Profile       matter.Profile
	Compliance    matter.ComplianceSignals
	WIP           matter.Money
	Billed        matter.Money
	HealthIndex   *float64
	LastRiskScore *float64
}

// Repo is the read surface the matters service needs
type Repo interface {
	Header(ctx context.Context, matterID string) (Header, error)
	Team(ctx context.Context, matterID string) ([]matter.TeamMember, error)
	Events(ctx context.Context, matterID string) ([]matter.Event, error)
	Milestones(ctx context.Context, matterID string) ([]matter.Milestone, error)
	BillingEntries(ctx context.Context, matterID string) ([]matter.BillingEntry, error)
	Documents(ctx context.Context, matterID string) ([]matter.Document, error)
	Candidates(ctx context.Context, excludeID string) ([]forecast.Candidate, error)
	Active(ctx context.Context) ([]string, error)
	ByClient(ctx context.Context, clientID string) ([]string, error)
}

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG returns a binder for the Postgres repo
func NewPG() repokit.Binder[Repo] { return binder{} }

func (binder) Bind(q repokit.Queryer) Repo { return &pg{q: q} }

const headerSQL = `
SELECT m.client_id, m.code, m.name, m.matter_type, m.jurisdiction, m.status,
       m.compliance_state, m.open_breaches, m.opened_at, m.currency,
       m.budget_minor, m.wip_minor, m.billed_minor, cs.health_index,
       (SELECT rh.value FROM risk_history rh
         WHERE rh.matter_id = m.id ORDER BY rh.computed_at DESC LIMIT 1)
  FROM matters m
  LEFT JOIN client_signals cs ON cs.client_id = m.client_id
 WHERE m.id = $1`

// Header returns perr.ErrNotFound when the matter does not exist
func (r *pg) Header(ctx context.Context, matterID string) (Header, error) {
	return store.One(ctx, r.q, func(row store.Row) (Header, error) {
		var (
			h                    Header
			compliance, currency string
			openedAt             *time.Time
			budget, wip, billed  int64
		)
		err := row.Scan(
			&h.ClientID, &h.Profile.Code, &h.Profile.Name, &h.Profile.Type, &h.Profile.Jurisdiction, &h.Profile.Status,
			&compliance, &h.Compliance.OpenBreaches, &openedAt, &currency,
			&budget, &wip, &billed, &h.HealthIndex, &h.LastRiskScore,
		)
		if err != nil {
			return Header{}, err
		}
		h.Profile.Compliance = matter.ComplianceState(compliance)
		h.Compliance.State = h.Profile.Compliance
		if openedAt != nil {
			h.Profile.OpenedAt = openedAt.UTC()
		}
		h.Profile.Budget = matter.Money{Minor: budget, Currency: currency}
		h.WIP = matter.Money{Minor: wip, Currency: currency}
		h.Billed = matter.Money{Minor: billed, Currency: currency}
		return h, nil
	}, headerSQL, matterID)
}

func (r *pg) Team(ctx context.Context, matterID string) ([]matter.TeamMember, error) {
	return store.Many(ctx, r.q, func(row store.Row) (matter.TeamMember, error) {
		var t matter.TeamMember
		err := row.Scan(&t.UserID, &t.Role)
		return t, err
	}, `SELECT user_id, team_role FROM matter_team WHERE matter_id = $1 ORDER BY user_id`, matterID)
}

func (r *pg) Events(ctx context.Context, matterID string) ([]matter.Event, error) {
	return store.Many(ctx, r.q, func(row store.Row) (matter.Event, error) {
		var (
			e   matter.Event
			raw []byte
		)
		if err := row.Scan(&e.ID, &e.At, &e.Type, &e.Title, &raw); err != nil {
			return e, err
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &e.Payload); err != nil {
				return e, err
			}
		}
		e.At = e.At.UTC()
		return e, nil
	}, `SELECT id, occurred_at, event_type, title, payload
	      FROM matter_events WHERE matter_id = $1 ORDER BY occurred_at, id`, matterID)
}

func (r *pg) Milestones(ctx context.Context, matterID string) ([]matter.Milestone, error) {
	return store.Many(ctx, r.q, func(row store.Row) (matter.Milestone, error) {
		var m matter.Milestone
		err := row.Scan(&m.ID, &m.Label, &m.DueAt, &m.CompletedAt)
		return m, err
	}, `SELECT id, label, due_at, completed_at
	      FROM matter_milestones WHERE matter_id = $1 ORDER BY due_at, id`, matterID)
}

func (r *pg) BillingEntries(ctx context.Context, matterID string) ([]matter.BillingEntry, error) {
	return store.Many(ctx, r.q, func(row store.Row) (matter.BillingEntry, error) {
		var e matter.BillingEntry
		err := row.Scan(&e.ID, &e.At, &e.Amount.Minor, &e.Amount.Currency, &e.Biller, &e.Role)
		return e, err
	}, `SELECT id, entry_at, amount_minor, currency, biller, role
	      FROM billing_entries WHERE matter_id = $1 ORDER BY entry_at, id`, matterID)
}

func (r *pg) Documents(ctx context.Context, matterID string) ([]matter.Document, error) {
	return store.Many(ctx, r.q, func(row store.Row) (matter.Document, error) {
		var d matter.Document
		err := row.Scan(&d.ID, &d.Name, &d.Kind, &d.FiledAt, &d.Pages, &d.PrivilegeClass)
		return d, err
	}, `SELECT id, name, kind, filed_at, pages, privilege_class
	      FROM matter_documents WHERE matter_id = $1 ORDER BY filed_at, id`, matterID)
}

// Candidates lists every closed matter with a recorded outcome
func (r *pg) Candidates(ctx context.Context, excludeID string) ([]forecast.Candidate, error) {
	return store.Many(ctx, r.q, func(row store.Row) (forecast.Candidate, error) {
		var (
			c        forecast.Candidate
			openedAt *time.Time
			currency string
		)
		err := row.Scan(&c.MatterID, &c.Type, &c.Jurisdiction, &c.Budget.Minor, &currency,
			&openedAt, &c.ClosedAt, &c.FinalCost.Minor, &c.DurationDays, &c.RiskDrift, &c.Outcome)
		if err != nil {
			return c, err
		}
		c.Budget.Currency, c.FinalCost.Currency = currency, currency
		if openedAt != nil {
			c.OpenedAt = *openedAt
		}
		return c, nil
	}, `SELECT m.id, m.matter_type, m.jurisdiction, m.budget_minor, m.currency,
	           m.opened_at, o.closed_at, o.final_cost_minor, o.duration_days, o.risk_drift, o.outcome
	      FROM matter_outcomes o
	      JOIN matters m ON m.id = o.matter_id
	     WHERE m.id <> $1`, excludeID)
}

func (r *pg) Active(ctx context.Context) ([]string, error) {
	return store.Many(ctx, r.q, scanID, `SELECT id FROM matters WHERE status = 'active' ORDER BY id`)
}

func (r *pg) ByClient(ctx context.Context, clientID string) ([]string, error) {
	return store.Many(ctx, r.q, scanID, `SELECT id FROM matters WHERE client_id = $1 ORDER BY id`, clientID)
}

func scanID(row store.Row) (string, error) {
	var id string
	err := row.Scan(&id)
	return id, err
}
