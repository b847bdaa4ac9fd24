package narrative

import (
	"fmt"
	"strings"

	"oracle/internal/core/forecast"
	"oracle/internal/core/matter"
	"oracle/internal/core/patterns"
	"oracle/internal/core/risk"
)

// Input is what a narrative summarises
type Input struct {
	MatterLabel string             `json:"matter_label,omitempty"`
	Patterns    []patterns.Pattern `json:"patterns"`
	Score       risk.Score         `json:"risk_score"`
	Forecast    *forecast.Forecast `json:"forecast,omitempty"`
}

type phrase struct{ internal, client string }

var describe = map[patterns.Category]phrase{
	patterns.DeadlinePressure:  {"deadline pressure from clustered unresolved milestones", "several deadlines falling close together"},
	patterns.BillingStall:      {"a billing stall with work in progress left unbilled", "a pause in billing while work continues"},
	patterns.DocumentSpike:     {"a spike in document volume against the trailing average", "an unusual increase in documents filed"},
	patterns.BudgetOverrun:     {"spend approaching or exceeding budget", "costs running close to the agreed budget"},
	patterns.WIPAccumulation:   {"unbilled work accumulating faster than billing", "a build-up of work not yet invoiced"},
	patterns.MilestoneSlippage: {"repeated milestone slippage", "several milestones completed later than planned"},
}

var recommend = map[patterns.Category]phrase{
	patterns.DeadlinePressure:  {"Re-sequence the milestone calendar and confirm staffing against the next two weeks of deadlines.", "We will confirm the timetable with you and make sure the team is resourced for the upcoming dates."},
	patterns.BillingStall:      {"Review and issue outstanding WIP, and confirm time capture with the billing team.", "We will review unbilled work and send an updated invoice."},
	patterns.DocumentSpike:     {"Assign review capacity to the incoming document volume and check privilege classification.", "We are adding review capacity to handle the new documents."},
	patterns.BudgetOverrun:     {"Prepare a budget variance note and discuss scope or fee revision with the client.", "We would like to discuss the budget and the remaining scope with you."},
	patterns.WIPAccumulation:   {"Bill accumulated WIP on the next cycle and check for write-down exposure.", "We will bring invoicing up to date on the next cycle."},
	patterns.MilestoneSlippage: {"Hold a schedule review with the matter lead and reset realistic milestone dates.", "We will review the schedule and share revised dates."},
}

func (in Input) label() string {
	if in.MatterLabel != "" {
		return in.MatterLabel
	}
	return "this matter"
}

func pick(p phrase, a Audience) string {
	if a == Client {
		return p.client
	}
	return p.internal
}

func pct(v float64) string { return fmt.Sprintf("%.0f%%", v*100) }

// Render produces deterministic prose for one section
func Render(k Kind, in Input, cfg Config) string {
	switch k {
	case Summary:
		return renderSummary(in, cfg)
	case Findings:
		return renderFindings(in, cfg)
	case RiskAssessment:
		return renderRisk(in, cfg)
	case Outlook:
		return renderOutlook(in, cfg)
	case Evidence:
		return renderEvidence(in, cfg)
	case Recommendations:
		return renderRecommendations(in, cfg)
	}
	return ""
}

func renderSummary(in Input, cfg Config) string {
	n := len(in.Patterns)
	var b strings.Builder
	lead := "Analysis of %s indicates an overall risk rating of %s"
	if cfg.Tone == Plain {
		lead = "Looking at %s, overall risk is %s"
	}
	fmt.Fprintf(&b, lead, in.label(), in.Score.Category)
	if cfg.Audience != Client {
		fmt.Fprintf(&b, " (%.2f)", in.Score.Value)
	}
	b.WriteString(". ")
	switch {
	case n == 0:
		if cfg.Tone == Plain {
			b.WriteString("Nothing unusual stood out.")
		} else {
			b.WriteString("No adverse patterns were detected.")
		}
	case n == 1:
		fmt.Fprintf(&b, "One pattern was identified: %s.", pick(describe[in.Patterns[0].Category], cfg.Audience))
	default:
		fmt.Fprintf(&b, "%d patterns were identified, led by %s.", n, pick(describe[in.Patterns[0].Category], cfg.Audience))
	}
	return b.String()
}

func renderFindings(in Input, cfg Config) string {
	if len(in.Patterns) == 0 {
		return "No findings met the detection thresholds."
	}
	lines := make([]string, 0, len(in.Patterns))
	for _, p := range in.Patterns {
		line := "- " + upperFirst(pick(describe[p.Category], cfg.Audience))
		if cfg.Audience == Client {
			line += "."
		} else {
			line += fmt.Sprintf(" (%s severity, %s confidence): %s.", p.Severity, pct(p.Confidence), p.Summary)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func renderRisk(in Input, cfg Config) string {
	s := in.Score
	switch cfg.Audience {
	case Client:
		return fmt.Sprintf("On our scale the matter currently sits in the %s band.", s.Category)
	default:
		next := nextBand(s.Category)
		out := fmt.Sprintf("Composite score %.2f places the matter in the %s band", s.Value, s.Category)
		if next != "" {
			out += fmt.Sprintf("; %s begins at %.2f", next, bandFloor(next))
		}
		return out + "."
	}
}

func nextBand(c risk.Category) risk.Category {
	switch c {
	case risk.Low:
		return risk.Moderate
	case risk.Moderate:
		return risk.Elevated
	case risk.Elevated:
		return risk.Critical
	}
	return ""
}

func bandFloor(c risk.Category) float64 {
	switch c {
	case risk.Moderate:
		return risk.ThresholdModerate
	case risk.Elevated:
		return risk.ThresholdElevated
	case risk.Critical:
		return risk.ThresholdCritical
	}
	return 0
}

func renderOutlook(in Input, cfg Config) string {
	f := in.Forecast
	if f == nil || len(f.Trajectory.Points) == 0 {
		return "No forward projection was available for this briefing."
	}
	last := f.Trajectory.Points[len(f.Trajectory.Points)-1]
	out := fmt.Sprintf("By %s the matter is projected to be %s with risk in the %s band",
		last.At.Format("2 January 2006"), last.Stage, last.RiskCategory)
	if n := len(f.Cost.Points); n > 0 && cfg.Audience != Client {
		c := f.Cost.Points[n-1]
		out += " and cumulative spend near " + matter.Money{Minor: c.Expected, Currency: f.Cost.Currency}.String()
	}
	out += "."
	if f.Trajectory.LowConfidence {
		out += " Comparable history is thin, so treat this projection as indicative only."
	}
	return out
}

func renderEvidence(in Input, cfg Config) string {
	var lines []string
	for _, p := range in.Patterns {
		for _, e := range p.Evidence {
			detail := e.Detail
			if detail == "" {
				detail = e.Ref
			}
			if cfg.Audience == Client {
				lines = append(lines, "- "+detail)
				continue
			}
			lines = append(lines, fmt.Sprintf("- [%s %s] %s", e.Kind, e.Ref, detail))
		}
	}
	if len(lines) == 0 {
		return "No supporting records were cited."
	}
	return strings.Join(lines, "\n")
}

func renderRecommendations(in Input, cfg Config) string {
	if len(in.Patterns) == 0 {
		if cfg.Audience == Client {
			return "No action is needed from you at this time."
		}
		return "Continue routine monitoring; no intervention is indicated."
	}
	seen := map[patterns.Category]bool{}
	var lines []string
	for _, p := range in.Patterns {
		if seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		lines = append(lines, "- "+pick(recommend[p.Category], cfg.Audience))
	}
	return strings.Join(lines, "\n")
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
