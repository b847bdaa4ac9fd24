package forecast

import (
	"math"
	"sort"
	"strings"

	"oracle/internal/core/matter"
)

// Candidate is a closed matter before it is scored against a target
type Candidate struct {
	matter.Comparable
	Type         string
	Jurisdiction string
	Budget       matter.Money
}

// adverse outcomes count toward history similarity
var adverse = map[string]bool{
	"lost":            true,
	"settled_adverse": true,
	"written_off":     true,
	"sanctioned":      true,
	"disputed_fees":   true,
}

// Similarity scores a candidate against the target profile in [0,1]
// type 0.4, jurisdiction 0.3, budget closeness 0.3 (same order of magnitude scores high)
func Similarity(target matter.Profile, c Candidate) float64 {
	var s float64
	if target.Type != "" && strings.EqualFold(target.Type, c.Type) {
		s += 0.4
	}
	if target.Jurisdiction != "" && strings.EqualFold(target.Jurisdiction, c.Jurisdiction) {
		s += 0.3
	}
	if target.Budget.Minor > 0 && c.Budget.Minor > 0 {
		ratio := math.Abs(math.Log10(float64(target.Budget.Minor) / float64(c.Budget.Minor)))
		s += 0.3 * math.Max(0, 1-ratio)
	}
	return math.Round(s*1e4) / 1e4
}

// Rank scores candidates, drops those below floor and keeps the best limit
// ties break on matter id so ranking is stable across runs
func Rank(target matter.Profile, cands []Candidate, floor float64, limit int) []matter.Comparable {
	out := make([]matter.Comparable, 0, len(cands))
	for _, c := range cands {
		sim := Similarity(target, c)
		if sim < floor {
			continue
		}
		cmp := c.Comparable
		cmp.Similarity = sim
		out = append(out, cmp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].MatterID < out[j].MatterID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// AdverseSimilarity is the similarity-weighted share of comparables that ended badly
// it feeds the historySimilarityScore risk factor
func AdverseSimilarity(comps []matter.Comparable) float64 {
	var num, den float64
	for _, c := range comps {
		den += c.Similarity
		if adverse[strings.ToLower(c.Outcome)] {
			num += c.Similarity
		}
	}
	if den == 0 {
		return 0
	}
	return num / den
}
