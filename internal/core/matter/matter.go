// Package matter holds the point-in-time view of a legal matter that every
// analysis runs against. A Snapshot is a value: loaders build a new one per
// request and nothing downstream mutates it
package matter

import (
	"sort"
	"time"
)

// ComplianceState is the coarse compliance posture recorded on a matter
type ComplianceState string

const (
	ComplianceGreen ComplianceState = "green"
	ComplianceAmber ComplianceState = "amber"
	ComplianceRed   ComplianceState = "red"
)

// Profile is the descriptive header of a matter
type Profile struct {
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	Type         string          `json:"matter_type"`
	Jurisdiction string          `json:"jurisdiction"`
	Status       string          `json:"status"`
	Compliance   ComplianceState `json:"compliance_state"`
	OpenedAt     time.Time       `json:"opened_at"`
	Budget       Money           `json:"budget"`
}

// Event is one entry on the matter timeline
type Event struct {
	ID      string         `json:"id"`
	At      time.Time      `json:"at"`
	Type    string         `json:"type"`
	Title   string         `json:"title,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Milestone is a dated obligation; CompletedAt nil means unresolved
type Milestone struct {
	ID          string     `json:"id"`
	Label       string     `json:"label"`
	DueAt       time.Time  `json:"due_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Resolved reports whether the milestone has been completed
func (m Milestone) Resolved() bool { return m.CompletedAt != nil }

// Late reports whether a completed milestone finished after its due date
func (m Milestone) Late() bool {
	return m.CompletedAt != nil && m.CompletedAt.After(m.DueAt)
}

// BillingEntry is one recorded time or disbursement entry
type BillingEntry struct {
	ID     string    `json:"id"`
	At     time.Time `json:"at"`
	Amount Money     `json:"amount"`
	Biller string    `json:"biller"`
	Role   string    `json:"role,omitempty"`
}

// Billing is the financial position of a matter
type Billing struct {
	Entries        []BillingEntry `json:"entries"`
	WorkInProgress Money          `json:"work_in_progress"`
	BilledToDate   Money          `json:"billed_to_date"`
}

// Document is document metadata; contents never reach this layer
type Document struct {
	ID             string    `json:"id"`
	Name           string    `json:"name,omitempty"`
	Kind           string    `json:"kind"`
	FiledAt        time.Time `json:"filed_at"`
	Pages          int       `json:"pages"`
	PrivilegeClass string    `json:"privilege_class,omitempty"`
}

// TeamMember is one person staffed on the matter
type TeamMember struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// IsPartner reports whether the role counts as partner involvement
func (t TeamMember) IsPartner() bool {
	switch t.Role {
	case "partner", "lead_partner", "supervising_partner":
		return true
	}
	return false
}

// ClientSignals summarises the client relationship; HealthIndex is 1 for healthy
type ClientSignals struct {
	HealthIndex float64 `json:"health_index"`
}

// ComplianceSignals is the compliance posture plus open breach count
type ComplianceSignals struct {
	State        ComplianceState `json:"state"`
	OpenBreaches int             `json:"open_breaches"`
}

// Timeline groups events and milestones
type Timeline struct {
	Events     []Event     `json:"events"`
	Milestones []Milestone `json:"milestones"`
}

// Snapshot is an immutable point-in-time view of one matter
// AsOf is the evaluation instant so derived artifacts are pure functions of it
type Snapshot struct {
	MatterID   string            `json:"matter_id"`
	ClientID   string            `json:"client_id,omitempty"`
	AsOf       time.Time         `json:"as_of"`
	Profile    Profile           `json:"profile"`
	Timeline   Timeline          `json:"timeline"`
	Billing    Billing           `json:"billing"`
	Documents  []Document        `json:"documents"`
	Team       []TeamMember      `json:"team"`
	Client     ClientSignals     `json:"client"`
	Compliance ComplianceSignals `json:"compliance"`

	// HistorySimilarity is how closely this matter tracks troubled comparables, in [0,1]
	HistorySimilarity float64 `json:"history_similarity"`

	// RiskScore is the last persisted composite score, in [0,1]
	RiskScore float64 `json:"risk_score"`
}

// Empty reports whether the snapshot carries no activity at all
func (s Snapshot) Empty() bool {
	return len(s.Timeline.Events) == 0 &&
		len(s.Timeline.Milestones) == 0 &&
		len(s.Billing.Entries) == 0 &&
		len(s.Documents) == 0 &&
		s.Billing.WorkInProgress.IsZero()
}

// LastBilledAt returns the most recent billing entry time
func (s Snapshot) LastBilledAt() (time.Time, bool) {
	var last time.Time
	for _, e := range s.Billing.Entries {
		if e.At.After(last) {
			last = e.At
		}
	}
	return last, !last.IsZero()
}

// FirstActivity returns the earliest known instant for the matter
// OpenedAt wins when set, else the earliest event or billing entry
func (s Snapshot) FirstActivity() (time.Time, bool) {
	if !s.Profile.OpenedAt.IsZero() {
		return s.Profile.OpenedAt, true
	}
	var first time.Time
	consider := func(t time.Time) {
		if t.IsZero() {
			return
		}
		if first.IsZero() || t.Before(first) {
			first = t
		}
	}
	for _, e := range s.Timeline.Events {
		consider(e.At)
	}
	for _, e := range s.Billing.Entries {
		consider(e.At)
	}
	for _, d := range s.Documents {
		consider(d.FiledAt)
	}
	return first, !first.IsZero()
}

// EvaluatedAt is the instant analysis runs against
// AsOf when set, else the latest timestamp the snapshot carries
func (s Snapshot) EvaluatedAt() time.Time {
	if !s.AsOf.IsZero() {
		return s.AsOf
	}
	var last time.Time
	consider := func(t time.Time) {
		if t.After(last) {
			last = t
		}
	}
	for _, e := range s.Timeline.Events {
		consider(e.At)
	}
	for _, m := range s.Timeline.Milestones {
		if m.CompletedAt != nil {
			consider(*m.CompletedAt)
		}
	}
	for _, e := range s.Billing.Entries {
		consider(e.At)
	}
	for _, d := range s.Documents {
		consider(d.FiledAt)
	}
	return last
}

// WithAsOf returns a copy evaluated at t
func (s Snapshot) WithAsOf(t time.Time) Snapshot {
	s.AsOf = t
	return s
}

// WithRiskScore returns a copy carrying a recomputed score
func (s Snapshot) WithRiskScore(v float64) Snapshot {
	s.RiskScore = v
	return s
}

// SortedEvents returns a copy of the events ordered by time then id
func (s Snapshot) SortedEvents() []Event {
	out := append([]Event(nil), s.Timeline.Events...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].At.Equal(out[j].At) {
			return out[i].ID < out[j].ID
		}
		return out[i].At.Before(out[j].At)
	})
	return out
}

// Comparable is one closed historical matter used for forecasting
type Comparable struct {
	MatterID     string    `json:"matter_id"`
	Similarity   float64   `json:"similarity"`
	OpenedAt     time.Time `json:"opened_at"`
	ClosedAt     time.Time `json:"closed_at"`
	FinalCost    Money     `json:"final_cost"`
	DurationDays int       `json:"duration_days"`
	// RiskDrift is the average change in risk value per 30 days over its life
	RiskDrift float64 `json:"risk_drift"`
	Outcome   string  `json:"outcome"`
}
