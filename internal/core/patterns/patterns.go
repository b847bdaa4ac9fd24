// Package patterns classifies risk and behaviour findings from a matter snapshot.
// Detection is pure and deterministic: the same snapshot and rule pack always
// yield the same ordered findings
package patterns

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Category is the closed set of pattern kinds
type Category string

const (
	DeadlinePressure  Category = "deadline-pressure"
	BillingStall      Category = "billing-stall"
	DocumentSpike     Category = "document-spike"
	BudgetOverrun     Category = "budget-overrun"
	WIPAccumulation   Category = "wip-accumulation"
	MilestoneSlippage Category = "milestone-slippage"
)

// Categories lists every category in name order
func Categories() []Category {
	return []Category{
		BillingStall,
		BudgetOverrun,
		DeadlinePressure,
		DocumentSpike,
		MilestoneSlippage,
		WIPAccumulation,
	}
}

// ParseCategory accepts a category name
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories() {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown pattern category %q", s)
}

// Severity is ordered low < medium < high < critical
type Severity int

const (
	SeverityLow Severity = iota + 1
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

var severityNames = map[Severity]string{
	SeverityLow:      "low",
	SeverityMedium:   "medium",
	SeverityHigh:     "high",
	SeverityCritical: "critical",
}

func (s Severity) String() string {
	if n, ok := severityNames[s]; ok {
		return n
	}
	return "unknown"
}

// ParseSeverity accepts a severity name
func ParseSeverity(s string) (Severity, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for k, v := range severityNames {
		if v == want {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown severity %q", s)
}

// MarshalJSON writes the severity name
func (s Severity) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

// UnmarshalJSON reads a severity name
func (s *Severity) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	v, err := ParseSeverity(name)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Evidence points back into the snapshot that produced a finding
type Evidence struct {
	Kind   string `json:"kind"`
	Ref    string `json:"ref"`
	Detail string `json:"detail,omitempty"`
}

// Pattern is one detected finding
type Pattern struct {
	Category   Category   `json:"category"`
	Confidence float64    `json:"confidence"`
	Severity   Severity   `json:"severity"`
	Evidence   []Evidence `json:"evidence"`
	Summary    string     `json:"summary"`
}

// Strongest returns the highest severity in ps, or zero when empty
func Strongest(ps []Pattern) Severity {
	var top Severity
	for _, p := range ps {
		if p.Severity > top {
			top = p.Severity
		}
	}
	return top
}

// Find returns the pattern of category c when present
func Find(ps []Pattern, c Category) (Pattern, bool) {
	for _, p := range ps {
		if p.Category == c {
			return p, true
		}
	}
	return Pattern{}, false
}
