package risk

import (
	"math"
	"time"

	"oracle/internal/core/matter"
	"oracle/internal/core/patterns"
)

// compliance posture to factor
var complianceBase = map[matter.ComplianceState]float64{
	matter.ComplianceGreen: 0.1,
	matter.ComplianceAmber: 0.5,
	matter.ComplianceRed:   0.9,
}

const breachStep = 0.05

// Derive builds fresh factors for s, using detector findings where one covers
// a factor and snapshot measurements otherwise
func Derive(s matter.Snapshot, found []patterns.Pattern) Factors {
	f := Factors{
		DeadlinePressure:         softDeadline(s),
		PartnerInvolvement:       partnerShare(s.Team),
		HistorySimilarityScore:   s.HistorySimilarity,
		ComplexityScore:          complexity(s),
		ClientRelationshipHealth: 1 - s.Client.HealthIndex,
		ComplianceRisk:           compliance(s.Compliance),
	}
	if p, ok := patterns.Find(found, patterns.DeadlinePressure); ok {
		f.DeadlinePressure = math.Max(f.DeadlinePressure, p.Confidence)
	}
	if p, ok := patterns.Find(found, patterns.BillingStall); ok {
		f.BillingStall = p.Confidence
	}
	if p, ok := patterns.Find(found, patterns.DocumentSpike); ok {
		f.DocumentVolumeSpike = p.Confidence
	}
	return f.Clamped()
}

// softDeadline reads unresolved milestones in the next 30 days below the detector threshold
func softDeadline(s matter.Snapshot) float64 {
	now := s.EvaluatedAt()
	horizon := now.Add(30 * 24 * time.Hour)
	n := 0
	for _, m := range s.Timeline.Milestones {
		if !m.Resolved() && !m.DueAt.After(horizon) {
			n++
		}
	}
	return math.Min(0.4, 0.1*float64(n))
}

func partnerShare(team []matter.TeamMember) float64 {
	if len(team) == 0 {
		return 0
	}
	n := 0
	for _, m := range team {
		if m.IsPartner() {
			n++
		}
	}
	return float64(n) / float64(len(team))
}

// complexity blends document volume, staffing and activity on log-ish scales
func complexity(s matter.Snapshot) float64 {
	pages := 0
	for _, d := range s.Documents {
		pages += d.Pages
	}
	docs := math.Min(1, float64(pages)/5000)
	team := math.Min(1, float64(len(s.Team))/10)
	activity := math.Min(1, float64(len(s.Timeline.Events))/200)
	return 0.4*docs + 0.3*team + 0.3*activity
}

func compliance(c matter.ComplianceSignals) float64 {
	return complianceBase[c.State] + breachStep*float64(c.OpenBreaches)
}
