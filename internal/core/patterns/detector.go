package patterns

import (
	"fmt"
	"math"
	"sort"
	"time"

	"oracle/internal/core/matter"
)

const day = 24 * time.Hour

// Detector evaluates a rule pack against snapshots
// it holds no mutable state and is safe for concurrent use
type Detector struct {
	pack *RulePack
}

// New builds a detector over pack
func New(pack *RulePack) *Detector {
	if pack == nil {
		panic("patterns: nil rule pack")
	}
	return &Detector{pack: pack}
}

// Default builds a detector over the embedded rule pack
func Default() *Detector { return New(MustLoad()) }

// Pack returns the rule pack in use
func (d *Detector) Pack() *RulePack { return d.pack }

// Detect runs every rule against s and returns findings ordered by
// severity desc, confidence desc, category asc
func (d *Detector) Detect(s matter.Snapshot) []Pattern {
	out := []Pattern{}
	if s.Empty() {
		return out
	}
	now := s.EvaluatedAt()

	rules := []func(matter.Snapshot, time.Time) (Pattern, bool){
		d.deadlinePressure,
		d.billingStall,
		d.documentSpike,
		d.budgetOverrun,
		d.wipAccumulation,
		d.milestoneSlippage,
	}
	for _, rule := range rules {
		if p, ok := rule(s, now); ok {
			out = append(out, p)
		}
	}
	Sort(out)
	return out
}

// Sort orders findings by severity desc, confidence desc, category asc
func Sort(ps []Pattern) {
	sort.SliceStable(ps, func(i, j int) bool {
		a, b := ps[i], ps[j]
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		return a.Category < b.Category
	})
}

// confidence grows with the relative overshoot and saturates at 1
func confidence(c Curve, excess float64) float64 {
	if excess < 0 || math.IsNaN(excess) {
		excess = 0
	}
	v := c.Base + (1-c.Base)*math.Min(1, excess/c.Saturation)
	return math.Round(v*1e4) / 1e4
}

// overshoot is (metric - threshold) / threshold, using 1 for a zero threshold
func overshoot(metric, threshold float64) float64 {
	if threshold <= 0 {
		return metric - threshold
	}
	return (metric - threshold) / threshold
}

func (d *Detector) severity(conf float64) Severity {
	b := d.pack.Bands
	switch {
	case conf >= b.Critical:
		return SeverityCritical
	case conf >= b.High:
		return SeverityHigh
	case conf >= b.Medium:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func (d *Detector) finding(cat Category, c Curve, excess float64, ev []Evidence, summary string) Pattern {
	conf := confidence(c, excess)
	if len(ev) > d.pack.MaxEvidence {
		ev = ev[:d.pack.MaxEvidence]
	}
	return Pattern{
		Category:   cat,
		Confidence: conf,
		Severity:   d.severity(conf),
		Evidence:   ev,
		Summary:    summary,
	}
}

func (d *Detector) deadlinePressure(s matter.Snapshot, now time.Time) (Pattern, bool) {
	r := d.pack.Rules.Deadline
	horizon := now.Add(time.Duration(r.WindowDays) * day)

	var due, overdue int
	var ev []Evidence
	for _, m := range s.Timeline.Milestones {
		if m.Resolved() {
			continue
		}
		switch {
		case m.DueAt.Before(now):
			overdue++
			ev = append(ev, Evidence{Kind: "milestone", Ref: m.ID, Detail: fmt.Sprintf("%s overdue since %s", m.Label, m.DueAt.Format(time.DateOnly))})
		case !m.DueAt.After(horizon):
			due++
			ev = append(ev, Evidence{Kind: "milestone", Ref: m.ID, Detail: fmt.Sprintf("%s due %s", m.Label, m.DueAt.Format(time.DateOnly))})
		}
	}
	metric := float64(due) + r.OverdueWeight*float64(overdue)
	if metric <= r.MaxDue {
		return Pattern{}, false
	}
	summary := fmt.Sprintf("%d unresolved milestones due within %d days and %d overdue", due, r.WindowDays, overdue)
	return d.finding(DeadlinePressure, r.Curve, overshoot(metric, r.MaxDue), ev, summary), true
}

func (d *Detector) billingStall(s matter.Snapshot, now time.Time) (Pattern, bool) {
	r := d.pack.Rules.Stall
	if s.Billing.WorkInProgress.Minor <= 0 {
		return Pattern{}, false
	}

	ref, ok := s.LastBilledAt()
	evidence := Evidence{Kind: "billing"}
	if ok {
		for _, e := range s.Billing.Entries {
			if e.At.Equal(ref) {
				evidence.Ref = e.ID
			}
		}
		evidence.Detail = "last billing entry " + ref.Format(time.DateOnly)
	} else {
		ref, ok = s.FirstActivity()
		if !ok {
			return Pattern{}, false
		}
		evidence.Kind = "matter"
		evidence.Ref = s.MatterID
		evidence.Detail = "no billing entries since " + ref.Format(time.DateOnly)
	}

	stalled := now.Sub(ref).Hours() / 24
	if stalled <= float64(r.StallDays) {
		return Pattern{}, false
	}
	ev := []Evidence{
		evidence,
		{Kind: "metric", Ref: "billing.work_in_progress", Detail: s.Billing.WorkInProgress.String()},
	}
	summary := fmt.Sprintf("no billing for %.0f days with %s work in progress", stalled, s.Billing.WorkInProgress)
	return d.finding(BillingStall, r.Curve, overshoot(stalled, float64(r.StallDays)), ev, summary), true
}

func (d *Detector) documentSpike(s matter.Snapshot, now time.Time) (Pattern, bool) {
	r := d.pack.Rules.Spike
	if len(s.Documents) == 0 {
		return Pattern{}, false
	}
	period := time.Duration(r.PeriodDays) * day
	start := now.Add(-period)
	trailingStart := start.Add(-time.Duration(r.TrailingPeriods) * period)

	var current, trailing int
	var ev []Evidence
	for _, doc := range s.Documents {
		switch {
		case doc.FiledAt.After(start) && !doc.FiledAt.After(now):
			current++
			ev = append(ev, Evidence{Kind: "document", Ref: doc.ID, Detail: doc.Kind})
		case doc.FiledAt.After(trailingStart) && !doc.FiledAt.After(start):
			trailing++
		}
	}
	if current < r.MinDocs {
		return Pattern{}, false
	}
	avg := float64(trailing) / float64(r.TrailingPeriods)
	threshold := r.Factor * math.Max(avg, 1)
	if float64(current) <= threshold {
		return Pattern{}, false
	}
	summary := fmt.Sprintf("%d documents in the last %d days against a trailing average of %.1f", current, r.PeriodDays, avg)
	return d.finding(DocumentSpike, r.Curve, overshoot(float64(current), threshold), ev, summary), true
}

func (d *Detector) budgetOverrun(s matter.Snapshot, _ time.Time) (Pattern, bool) {
	r := d.pack.Rules.Budget
	budget := s.Profile.Budget.Minor
	if budget <= 0 {
		return Pattern{}, false
	}
	spent := s.Billing.BilledToDate.Add(s.Billing.WorkInProgress)
	used := float64(spent.Minor) / float64(budget)
	if used <= r.Ratio {
		return Pattern{}, false
	}
	ev := []Evidence{
		{Kind: "metric", Ref: "profile.budget", Detail: s.Profile.Budget.String()},
		{Kind: "metric", Ref: "billing.billed_plus_wip", Detail: spent.String()},
	}
	summary := fmt.Sprintf("%.0f%% of budget consumed including work in progress", used*100)
	return d.finding(BudgetOverrun, r.Curve, overshoot(used, r.Ratio), ev, summary), true
}

func (d *Detector) wipAccumulation(s matter.Snapshot, _ time.Time) (Pattern, bool) {
	r := d.pack.Rules.WIP
	wip := s.Billing.WorkInProgress.Minor
	if wip < r.MinWIPMinor || wip <= 0 {
		return Pattern{}, false
	}
	billed := math.Max(float64(s.Billing.BilledToDate.Minor), 1)
	ratio := float64(wip) / billed
	if ratio <= r.Ratio {
		return Pattern{}, false
	}
	ev := []Evidence{
		{Kind: "metric", Ref: "billing.work_in_progress", Detail: s.Billing.WorkInProgress.String()},
		{Kind: "metric", Ref: "billing.billed_to_date", Detail: s.Billing.BilledToDate.String()},
	}
	summary := fmt.Sprintf("unbilled work is %.1fx the amount billed to date", math.Min(ratio, 999))
	return d.finding(WIPAccumulation, r.Curve, overshoot(ratio, r.Ratio), ev, summary), true
}

func (d *Detector) milestoneSlippage(s matter.Snapshot, _ time.Time) (Pattern, bool) {
	r := d.pack.Rules.Slippage
	var completed, late int
	var ev []Evidence
	for _, m := range s.Timeline.Milestones {
		if !m.Resolved() {
			continue
		}
		completed++
		if m.Late() {
			late++
			slip := m.CompletedAt.Sub(m.DueAt).Hours() / 24
			ev = append(ev, Evidence{Kind: "milestone", Ref: m.ID, Detail: fmt.Sprintf("%s completed %.0f days late", m.Label, math.Ceil(slip))})
		}
	}
	if completed < r.MinCompleted {
		return Pattern{}, false
	}
	share := float64(late) / float64(completed)
	if share <= r.Ratio {
		return Pattern{}, false
	}
	summary := fmt.Sprintf("%d of %d completed milestones finished late", late, completed)
	return d.finding(MilestoneSlippage, r.Curve, overshoot(share, r.Ratio), ev, summary), true
}
