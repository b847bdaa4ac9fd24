// Package forecast projects where a matter is heading from its snapshot and
// a corpus of closed comparables. Projections are pure; sparse history yields a
// flagged low-confidence forecast instead of an error
package forecast

import (
	"math"
	"time"

	"oracle/internal/core/matter"
	"oracle/internal/core/risk"
)

const day = 24 * time.Hour

// Stage is the projected lifecycle stage at a checkpoint
type Stage string

const (
	StageActive  Stage = "active"
	StageClosing Stage = "closing"
	StageOverrun Stage = "overrun"
)

// Options tune projection
type Options struct {
	// Horizons are checkpoint offsets in days from evaluation time
	Horizons []int
	// MinComparables below this many the forecast is low confidence
	MinComparables int
	// BurnWindowDays is the trailing window for billing burn rate
	BurnWindowDays int
}

// DefaultOptions are the production settings
func DefaultOptions() Options {
	return Options{Horizons: []int{30, 60, 90}, MinComparables: 3, BurnWindowDays: 90}
}

func (o Options) norm() Options {
	d := DefaultOptions()
	if len(o.Horizons) == 0 {
		o.Horizons = d.Horizons
	}
	if o.MinComparables <= 0 {
		o.MinComparables = d.MinComparables
	}
	if o.BurnWindowDays <= 0 {
		o.BurnWindowDays = d.BurnWindowDays
	}
	return o
}

// TrajectoryPoint is one projected checkpoint
type TrajectoryPoint struct {
	At           time.Time     `json:"at"`
	RiskValue    float64       `json:"risk_value"`
	RiskCategory risk.Category `json:"risk_category"`
	Stage        Stage         `json:"stage"`
}

// Trajectory is the projected state sequence
type Trajectory struct {
	Points        []TrajectoryPoint `json:"points"`
	Confidence    float64           `json:"confidence"`
	LowConfidence bool              `json:"low_confidence"`
	Basis         string            `json:"basis"`
	Comparables   int               `json:"comparables"`
}

// CostPoint is one projected spend checkpoint, cumulative
type CostPoint struct {
	At       time.Time `json:"at"`
	Expected int64     `json:"expected_minor"`
	Low      int64     `json:"low_minor"`
	High     int64     `json:"high_minor"`
}

// Cost is the projected cumulative spend trend
type Cost struct {
	Currency      string      `json:"currency"`
	SpentToDate   int64       `json:"spent_to_date_minor"`
	Points        []CostPoint `json:"points"`
	Confidence    float64     `json:"confidence"`
	LowConfidence bool        `json:"low_confidence"`
	Basis         string      `json:"basis"`
}

// Forecast bundles both projections
type Forecast struct {
	Trajectory Trajectory `json:"trajectory"`
	Cost       Cost       `json:"cost"`
}

// confidenceOf grows with corpus size and mean similarity. A corpus with no
// similarity at all carries no signal however large it is
func confidenceOf(comps []matter.Comparable, o Options) (float64, bool) {
	n := len(comps)
	if n == 0 {
		return 0, true
	}
	var sim float64
	for _, c := range comps {
		sim += c.Similarity
	}
	mean := sim / float64(n)
	conf := mean * math.Min(1, float64(n)/float64(2*o.MinComparables))
	conf = math.Round(conf*1e4) / 1e4
	return conf, n < o.MinComparables || conf == 0
}

// weightedMean averages f over comparables by similarity
func weightedMean(comps []matter.Comparable, f func(matter.Comparable) float64) (float64, bool) {
	var num, den float64
	for _, c := range comps {
		if c.Similarity <= 0 {
			continue
		}
		num += c.Similarity * f(c)
		den += c.Similarity
	}
	if den == 0 {
		return 0, false
	}
	return num / den, true
}

// ProjectTrajectory projects risk and stage at each horizon
// with too few comparables the current state is held flat
func ProjectTrajectory(s matter.Snapshot, comps []matter.Comparable, o Options) Trajectory {
	o = o.norm()
	now := s.EvaluatedAt()
	conf, low := confidenceOf(comps, o)

	drift := 0.0
	expectedDays := 0.0
	basis := "insufficient history; current state held"
	if !low {
		drift, _ = weightedMean(comps, func(c matter.Comparable) float64 { return c.RiskDrift })
		expectedDays, _ = weightedMean(comps, func(c matter.Comparable) float64 { return float64(c.DurationDays) })
		basis = "similarity-weighted drift of closed comparables"
	}

	elapsed := 0.0
	if opened, ok := s.FirstActivity(); ok {
		elapsed = now.Sub(opened).Hours() / 24
	}

	t := Trajectory{Confidence: conf, LowConfidence: low, Basis: basis, Comparables: len(comps)}
	for _, h := range o.Horizons {
		v := risk.Clamp(s.RiskScore + drift*float64(h)/30)
		stage := StageActive
		if expectedDays > 0 {
			switch at := elapsed + float64(h); {
			case at > expectedDays*1.25:
				stage = StageOverrun
			case at >= expectedDays*0.85:
				stage = StageClosing
			}
		}
		t.Points = append(t.Points, TrajectoryPoint{
			At:           now.Add(time.Duration(h) * day),
			RiskValue:    math.Round(v*1e4) / 1e4,
			RiskCategory: risk.CategoryOf(v),
			Stage:        stage,
		})
	}
	return t
}

// BurnRate is average billed minor units per day over the trailing window
func BurnRate(s matter.Snapshot, windowDays int) float64 {
	now := s.EvaluatedAt()
	from := now.Add(-time.Duration(windowDays) * day)
	var sum int64
	for _, e := range s.Billing.Entries {
		if e.At.After(from) && !e.At.After(now) {
			sum += e.Amount.Minor
		}
	}
	return float64(sum) / float64(windowDays)
}

// ProjectCost projects cumulative spend at each horizon
// comparables blend their average daily cost into the matter's own burn
func ProjectCost(s matter.Snapshot, comps []matter.Comparable, o Options) Cost {
	o = o.norm()
	now := s.EvaluatedAt()
	conf, low := confidenceOf(comps, o)
	spent := s.Billing.BilledToDate.Add(s.Billing.WorkInProgress)

	daily := BurnRate(s, o.BurnWindowDays)
	basis := "trailing burn rate extrapolated"
	if !low {
		if compDaily, ok := weightedMean(comps, func(c matter.Comparable) float64 {
			if c.DurationDays <= 0 {
				return 0
			}
			return float64(c.FinalCost.Minor) / float64(c.DurationDays)
		}); ok {
			daily = 0.5*daily + 0.5*compDaily
			basis = "trailing burn blended with comparable daily cost"
		}
	}

	spread := 0.5
	if !low {
		spread = 0.15 + 0.35*(1-conf)
	}

	c := Cost{
		Currency:      spent.Code(),
		SpentToDate:   spent.Minor,
		Confidence:    conf,
		LowConfidence: low,
		Basis:         basis,
	}
	for _, h := range o.Horizons {
		inc := daily * float64(h)
		c.Points = append(c.Points, CostPoint{
			At:       now.Add(time.Duration(h) * day),
			Expected: spent.Minor + int64(math.Round(inc)),
			Low:      spent.Minor + int64(math.Round(inc*(1-spread))),
			High:     spent.Minor + int64(math.Round(inc*(1+spread))),
		})
	}
	return c
}

// Project runs both projections over the same inputs
func Project(s matter.Snapshot, comps []matter.Comparable, o Options) Forecast {
	return Forecast{
		Trajectory: ProjectTrajectory(s, comps, o),
		Cost:       ProjectCost(s, comps, o),
	}
}
