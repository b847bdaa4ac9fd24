package patterns

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var embedded []byte

// Curve shapes confidence once a rule fires
type Curve struct {
	Base       float64 `yaml:"base"`
	Saturation float64 `yaml:"saturation"`
}

// DeadlineRule fires on unresolved milestones bunching up near or past due
type DeadlineRule struct {
	Curve         `yaml:",inline"`
	WindowDays    int     `yaml:"window_days"`
	MaxDue        float64 `yaml:"max_due"`
	OverdueWeight float64 `yaml:"overdue_weight"`
}

// StallRule fires when WIP sits unbilled for too long
type StallRule struct {
	Curve     `yaml:",inline"`
	StallDays int `yaml:"stall_days"`
}

// SpikeRule fires when current-period filings outrun the trailing average
type SpikeRule struct {
	Curve           `yaml:",inline"`
	PeriodDays      int     `yaml:"period_days"`
	TrailingPeriods int     `yaml:"trailing_periods"`
	Factor          float64 `yaml:"factor"`
	MinDocs         int     `yaml:"min_docs"`
}

// RatioRule fires when a ratio exceeds its threshold
type RatioRule struct {
	Curve `yaml:",inline"`
	Ratio float64 `yaml:"ratio"`
}

// WIPRule fires when WIP dwarfs what has been billed
type WIPRule struct {
	Curve       `yaml:",inline"`
	Ratio       float64 `yaml:"ratio"`
	MinWIPMinor int64   `yaml:"min_wip_minor"`
}

// SlippageRule fires when too many completed milestones landed late
type SlippageRule struct {
	Curve        `yaml:",inline"`
	Ratio        float64 `yaml:"ratio"`
	MinCompleted int     `yaml:"min_completed"`
}

// Bands are minimum confidences per severity
type Bands struct {
	Medium   float64 `yaml:"medium"`
	High     float64 `yaml:"high"`
	Critical float64 `yaml:"critical"`
}

// RulePack is the full detector configuration
type RulePack struct {
	Version int   `yaml:"version"`
	Bands   Bands `yaml:"severity_bands"`
	Rules   struct {
		Deadline DeadlineRule `yaml:"deadline_pressure"`
		Stall    StallRule    `yaml:"billing_stall"`
		Spike    SpikeRule    `yaml:"document_spike"`
		Budget   RatioRule    `yaml:"budget_overrun"`
		WIP      WIPRule      `yaml:"wip_accumulation"`
		Slippage SlippageRule `yaml:"milestone_slippage"`
	} `yaml:"rules"`
	MaxEvidence int `yaml:"max_evidence"`
}

// Load parses the embedded rules.yaml
func Load() (*RulePack, error) {
	return Parse(embedded)
}

// LoadFile parses the pack at path, or the embedded one when path is empty
func LoadFile(path string) (*RulePack, error) {
	if path == "" {
		return Load()
	}
	doc, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("patterns: read %s: %w", path, err)
	}
	return Parse(doc)
}

// Parse decodes and validates a rule pack document
func Parse(doc []byte) (*RulePack, error) {
	var p RulePack
	if err := yaml.Unmarshal(doc, &p); err != nil {
		return nil, fmt.Errorf("patterns: parse rules: %w", err)
	}
	if p.Version != 1 {
		return nil, fmt.Errorf("patterns: unsupported rules version %d (want 1)", p.Version)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	if p.MaxEvidence <= 0 {
		p.MaxEvidence = 10
	}
	return &p, nil
}

func (p *RulePack) validate() error {
	b := p.Bands
	if !(0 < b.Medium && b.Medium < b.High && b.High < b.Critical && b.Critical <= 1) {
		return fmt.Errorf("patterns: severity bands must be increasing in (0,1]: %+v", b)
	}
	r := p.Rules
	curves := map[string]Curve{
		string(DeadlinePressure):  r.Deadline.Curve,
		string(BillingStall):      r.Stall.Curve,
		string(DocumentSpike):     r.Spike.Curve,
		string(BudgetOverrun):     r.Budget.Curve,
		string(WIPAccumulation):   r.WIP.Curve,
		string(MilestoneSlippage): r.Slippage.Curve,
	}
	for name, c := range curves {
		if c.Base < 0 || c.Base >= 1 {
			return fmt.Errorf("patterns: %s base must be in [0,1)", name)
		}
		if c.Saturation <= 0 {
			return fmt.Errorf("patterns: %s saturation must be positive", name)
		}
	}
	if r.Deadline.WindowDays <= 0 || r.Stall.StallDays <= 0 || r.Spike.PeriodDays <= 0 || r.Spike.TrailingPeriods <= 0 {
		return fmt.Errorf("patterns: day windows must be positive")
	}
	return nil
}

// MustLoad is Load for process start; a broken embedded pack is a build bug
func MustLoad() *RulePack {
	p, err := Load()
	if err != nil {
		panic(err)
	}
	return p
}
