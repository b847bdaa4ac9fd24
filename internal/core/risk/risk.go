// Package risk combines eight normalized factors into a composite matter score.
//
// Weights are fixed basis points summing to 10000 and the category bands are
// fixed constants. Historical scores stay comparable only while both stay put,
// so changing either is a data migration, not a tuning tweak
package risk

import (
	"fmt"
	"math"
	"strings"
)

// Weights in basis points, in Factors field order
const (
	WeightDeadlinePressure         = 2000
	WeightBillingStall             = 1500
	WeightDocumentVolumeSpike      = 1000
	WeightPartnerInvolvement       = 500
	WeightHistorySimilarityScore   = 1500
	WeightComplexityScore          = 1000
	WeightClientRelationshipHealth = 1000
	WeightComplianceRisk           = 1500

	weightTotal = 10000
)

// Category band lower bounds; a value on a bound belongs to the higher band
const (
	ThresholdModerate = 0.25
	ThresholdElevated = 0.50
	ThresholdCritical = 0.75
)

// Category is the banded reading of a score
type Category string

const (
	Low      Category = "low"
	Moderate Category = "moderate"
	Elevated Category = "elevated"
	Critical Category = "critical"
)

// Rank orders categories low=0 .. critical=3
func (c Category) Rank() int {
	switch c {
	case Moderate:
		return 1
	case Elevated:
		return 2
	case Critical:
		return 3
	default:
		return 0
	}
}

// ParseCategory accepts a category name
func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case Low, Moderate, Elevated, Critical:
		return c, nil
	}
	return "", fmt.Errorf("unknown risk category %q", s)
}

// Factors are the eight scorer inputs; every one reads "higher is riskier"
type Factors struct {
	DeadlinePressure         float64 `json:"deadline_pressure"`
	BillingStall             float64 `json:"billing_stall"`
	DocumentVolumeSpike      float64 `json:"document_volume_spike"`
	PartnerInvolvement       float64 `json:"partner_involvement"`
	HistorySimilarityScore   float64 `json:"history_similarity_score"`
	ComplexityScore          float64 `json:"complexity_score"`
	ClientRelationshipHealth float64 `json:"client_relationship_health"`
	ComplianceRisk           float64 `json:"compliance_risk"`
}

// Score is the scorer output
type Score struct {
	Value    float64  `json:"value"`
	Category Category `json:"category"`
}

type weighted struct {
	w int
	f float64
}

func (f Factors) weighted() [8]weighted {
	return [8]weighted{
		{WeightDeadlinePressure, f.DeadlinePressure},
		{WeightBillingStall, f.BillingStall},
		{WeightDocumentVolumeSpike, f.DocumentVolumeSpike},
		{WeightPartnerInvolvement, f.PartnerInvolvement},
		{WeightHistorySimilarityScore, f.HistorySimilarityScore},
		{WeightComplexityScore, f.ComplexityScore},
		{WeightClientRelationshipHealth, f.ClientRelationshipHealth},
		{WeightComplianceRisk, f.ComplianceRisk},
	}
}

// Clamped returns a copy with every factor forced into [0,1]; NaN reads as 0
func (f Factors) Clamped() Factors {
	return Factors{
		DeadlinePressure:         Clamp(f.DeadlinePressure),
		BillingStall:             Clamp(f.BillingStall),
		DocumentVolumeSpike:      Clamp(f.DocumentVolumeSpike),
		PartnerInvolvement:       Clamp(f.PartnerInvolvement),
		HistorySimilarityScore:   Clamp(f.HistorySimilarityScore),
		ComplexityScore:          Clamp(f.ComplexityScore),
		ClientRelationshipHealth: Clamp(f.ClientRelationshipHealth),
		ComplianceRisk:           Clamp(f.ComplianceRisk),
	}
}

// Clamp forces v into [0,1]
func Clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Compute scores f; total over any input, out of range factors are clamped
func Compute(f Factors) Score {
	var sum float64
	for _, x := range f.Clamped().weighted() {
		sum += float64(x.w) * x.f
	}
	v := Clamp(sum / weightTotal)
	return Score{Value: v, Category: CategoryOf(v)}
}

// CategoryOf maps a value onto its band
func CategoryOf(v float64) Category {
	switch {
	case v >= ThresholdCritical:
		return Critical
	case v >= ThresholdElevated:
		return Elevated
	case v >= ThresholdModerate:
		return Moderate
	default:
		return Low
	}
}
