package narrative

import (
	"fmt"
	"strings"
)

// Audience is who the narrative is written for
type Audience string

// Tone is the register of the prose
type Tone string

// Length controls how many sections are produced and how dense they are
type Length string

const (
	Partner   Audience = "partner"
	Associate Audience = "associate"
	Client    Audience = "client"

	Formal Tone = "formal"
	Plain  Tone = "plain"

	Brief    Length = "brief"
	Standard Length = "standard"
	Detailed Length = "detailed"
)

// Config is the closed set of narrative knobs
type Config struct {
	Audience               Audience `json:"audience" validate:"omitempty,oneof=partner associate client"`
	Tone                   Tone     `json:"tone" validate:"omitempty,oneof=formal plain"`
	Length                 Length   `json:"length" validate:"omitempty,oneof=brief standard detailed"`
	IncludeEvidence        bool     `json:"include_evidence"`
	IncludeRecommendations bool     `json:"include_recommendations"`
}

// DefaultConfig is the partner briefing used by diagnostics
func DefaultConfig() Config {
	return Config{
		Audience:               Partner,
		Tone:                   Formal,
		Length:                 Standard,
		IncludeEvidence:        true,
		IncludeRecommendations: true,
	}
}

// WithDefaults fills unset enums from DefaultConfig; flags are kept as given
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.Audience == "" {
		c.Audience = d.Audience
	}
	if c.Tone == "" {
		c.Tone = d.Tone
	}
	if c.Length == "" {
		c.Length = d.Length
	}
	return c
}

// Validate rejects values outside the closed sets
func (c Config) Validate() error {
	var bad []string
	switch c.Audience {
	case Partner, Associate, Client:
	default:
		bad = append(bad, fmt.Sprintf("audience %q", c.Audience))
	}
	switch c.Tone {
	case Formal, Plain:
	default:
		bad = append(bad, fmt.Sprintf("tone %q", c.Tone))
	}
	switch c.Length {
	case Brief, Standard, Detailed:
	default:
		bad = append(bad, fmt.Sprintf("length %q", c.Length))
	}
	if len(bad) > 0 {
		return fmt.Errorf("narrative: invalid %s", strings.Join(bad, ", "))
	}
	return nil
}
