// Package narrative turns detected patterns and a risk score into sectioned
// prose for a chosen audience. Section structure is fixed by the config; the
// wording comes from a Completer when one is wired and from templates otherwise
package narrative

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"oracle/internal/core/normalize"
)

// ErrUpstream marks a failure of the language-generation dependency
var ErrUpstream = errors.New("narrative: upstream generation failed")

// Completer is the language-generation port
type Completer interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// Section is one heading and its prose
type Section struct {
	Kind    Kind   `json:"kind"`
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// Narrative is the generated briefing
type Narrative struct {
	Sections []Section `json:"sections"`
	Text     string    `json:"text"`
	Provider string    `json:"provider"`
}

// Generator produces narratives; a nil Completer renders templates only
type Generator struct {
	completer Completer
}

// NewGenerator builds a Generator over c (may be nil)
func NewGenerator(c Completer) *Generator { return &Generator{completer: c} }

// Provider names the prose source
func (g *Generator) Provider() string {
	if g == nil || g.completer == nil {
		return "template"
	}
	return g.completer.Name()
}

// Generate renders in under cfg. Unset enums take defaults and invalid ones
// are rejected. A completer error is returned wrapped in ErrUpstream; there is
// no silent template fallback for a failed call
func (g *Generator) Generate(ctx context.Context, in Input, cfg Config) (Narrative, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return Narrative{}, err
	}
	plan := Plan(cfg)

	var parsed map[Kind]string
	if g != nil && g.completer != nil {
		out, err := g.completer.Complete(ctx, Prompt(in, cfg))
		if err != nil {
			return Narrative{}, fmt.Errorf("%w: %s: %w", ErrUpstream, g.completer.Name(), err)
		}
		out = normalize.Sanitize(out)
		if strings.TrimSpace(out) == "" {
			return Narrative{}, fmt.Errorf("%w: %s: empty completion", ErrUpstream, g.completer.Name())
		}
		parsed = Parse(out, plan)
	}
	return Assemble(plan, parsed, in, cfg, g.Provider()), nil
}

// Assemble orders sections per plan, using parsed bodies where present and
// template bodies for the rest, so no planned section is ever empty
func Assemble(plan []Kind, parsed map[Kind]string, in Input, cfg Config, provider string) Narrative {
	n := Narrative{Provider: provider, Sections: make([]Section, 0, len(plan))}
	var b strings.Builder
	for i, k := range plan {
		body := strings.TrimSpace(parsed[k])
		if body == "" {
			body = Render(k, in, cfg)
		}
		s := Section{Kind: k, Heading: k.Heading(), Body: body}
		n.Sections = append(n.Sections, s)
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "## %s\n\n%s", s.Heading, s.Body)
	}
	n.Text = b.String()
	return n
}

var audienceBrief = map[Audience]string{
	Partner:   "a supervising partner who wants exposure, numbers and decisions",
	Associate: "an associate who needs concrete operational next steps",
	Client:    "the client; avoid internal jargon, scores and billing codes",
}

var lengthBrief = map[Length]string{
	Brief:    "one short paragraph per section",
	Standard: "two to four sentences per section",
	Detailed: "a thorough paragraph per section with specifics",
}

// Prompt builds the completion request for in under cfg
func Prompt(in Input, cfg Config) string {
	cfg = cfg.WithDefaults()
	var b strings.Builder
	fmt.Fprintf(&b, "You are drafting a legal matter briefing for %s.\n", audienceBrief[cfg.Audience])
	fmt.Fprintf(&b, "Tone: %s. Length: %s.\n", cfg.Tone, lengthBrief[cfg.Length])
	b.WriteString("Use exactly these markdown headings, in order, and nothing else:\n")
	for _, k := range Plan(cfg) {
		fmt.Fprintf(&b, "## %s\n", k.Heading())
	}
	b.WriteString("\nFacts:\n")
	fmt.Fprintf(&b, "Matter: %s\n", in.label())
	fmt.Fprintf(&b, "Risk: %s (%.2f)\n", in.Score.Category, in.Score.Value)
	if len(in.Patterns) == 0 {
		b.WriteString("Patterns: none detected\n")
	}
	for _, p := range in.Patterns {
		fmt.Fprintf(&b, "Pattern %s: severity %s, confidence %.2f. %s\n", p.Category, p.Severity, p.Confidence, p.Summary)
		if cfg.IncludeEvidence {
			for _, e := range p.Evidence {
				fmt.Fprintf(&b, "  evidence %s %s: %s\n", e.Kind, e.Ref, e.Detail)
			}
		}
	}
	if f := in.Forecast; f != nil && len(f.Trajectory.Points) > 0 {
		last := f.Trajectory.Points[len(f.Trajectory.Points)-1]
		fmt.Fprintf(&b, "Forecast: %s, risk %s by %s (confidence %.2f)\n",
			last.Stage, last.RiskCategory, last.At.Format("2006-01-02"), f.Trajectory.Confidence)
	}
	b.WriteString("Do not invent facts beyond those listed.\n")
	return b.String()
}
