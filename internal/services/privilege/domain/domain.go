// Package domain defines privilege levels and the gate port
package domain

import (
	"context"
	"fmt"
	"strings"
)

// Level is an ordered access level; the zero value grants nothing
type Level int

const (
	LevelNone Level = iota
	LevelRead
	LevelFull
)

// String returns the storage form
func (l Level) String() string {
	switch l {
	case LevelRead:
		return "read"
	case LevelFull:
		return "full"
	}
	return "none"
}

// ParseLevel parses "read" or "full"; an empty string is LevelNone
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return LevelNone, nil
	case "read":
		return LevelRead, nil
	case "full":
		return LevelFull, nil
	}
	return LevelNone, fmt.Errorf("privilege: unknown level %q", s)
}

// Valid reports whether l may be requested
func (l Level) Valid() bool { return l == LevelRead || l == LevelFull }

// Allows reports whether holding l satisfies want
func (l Level) Allows(want Level) bool { return want.Valid() && l >= want }

// Grant is what storage knows about an actor for one matter
type Grant struct {
	Team Level // matter_team row
	Org  Level // firm-wide grant
}

// Effective is the stronger of the two sources
func (g Grant) Effective() Level { return max(g.Team, g.Org) }

// GatePort decides access; it never errors and fails closed
type GatePort interface {
	Check(ctx context.Context, actorID, matterID string, want Level) bool
}
