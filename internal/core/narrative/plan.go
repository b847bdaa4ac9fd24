package narrative

import (
	"strings"

	"oracle/internal/core/normalize"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind identifies a narrative section
type Kind string

const (
	Summary         Kind = "summary"
	Findings        Kind = "key findings"
	RiskAssessment  Kind = "risk assessment"
	Outlook         Kind = "outlook"
	Evidence        Kind = "evidence"
	Recommendations Kind = "recommended actions"
)

// Heading is the display heading for a section
// a Caser is stateful, so one is built per call
func (k Kind) Heading() string { return cases.Title(language.English).String(string(k)) }

// aliases a model may use instead of the planned heading
var aliases = map[string]Kind{
	"recommendations":   Recommendations,
	"next steps":        Recommendations,
	"executive summary": Summary,
	"forecast":          Outlook,
}

// Plan lists the sections cfg calls for, in output order
func Plan(cfg Config) []Kind {
	var out []Kind
	switch cfg.Length {
	case Brief:
		out = []Kind{Summary}
	case Detailed:
		out = []Kind{Summary, Findings, RiskAssessment, Outlook}
	default:
		out = []Kind{Summary, Findings, RiskAssessment}
	}
	if cfg.IncludeEvidence {
		out = append(out, Evidence)
	}
	if cfg.IncludeRecommendations {
		out = append(out, Recommendations)
	}
	return out
}

// kindFor matches a heading back to a planned kind, ignoring case, accents,
// width and surrounding punctuation
func kindFor(heading string, plan []Kind) (Kind, bool) {
	h := normalize.Key(heading)
	for _, k := range plan {
		if h == string(k) {
			return k, true
		}
	}
	if k, ok := aliases[h]; ok {
		for _, p := range plan {
			if p == k {
				return k, true
			}
		}
	}
	// tolerate single-word forms like "findings" or "risk"
	for _, k := range plan {
		for _, w := range strings.Fields(string(k)) {
			if len(w) > 3 && h == w {
				return k, true
			}
		}
	}
	return "", false
}

// Parse splits model output on "## " headings into planned sections
// text before the first heading and unplanned headings are dropped
func Parse(text string, plan []Kind) map[Kind]string {
	out := make(map[Kind]string, len(plan))
	var cur Kind
	var buf strings.Builder
	flush := func() {
		if cur != "" {
			if body := strings.TrimSpace(buf.String()); body != "" {
				out[cur] = body
			}
		}
		buf.Reset()
	}
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			flush()
			k, ok := kindFor(line, plan)
			if ok {
				cur = k
			} else {
				cur = ""
			}
			continue
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	flush()
	return out
}
