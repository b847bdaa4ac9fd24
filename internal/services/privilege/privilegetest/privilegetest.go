// Package privilegetest provides gate doubles for tests
package privilegetest

import (
	"context"
	"sync"

	"oracle/internal/services/privilege/domain"
)

// AllowAll grants every valid request
type AllowAll struct{}

// Check implements domain.GatePort
func (AllowAll) Check(_ context.Context, actorID, matterID string, want domain.Level) bool {
	return actorID != "" && matterID != "" && want.Valid()
}

// DenyAll refuses everything, as the real gate does when storage is down
type DenyAll struct{}

// Check implements domain.GatePort
func (DenyAll) Check(context.Context, string, string, domain.Level) bool { return false }

// Static grants levels per actor and matter and records every call
type Static struct {
	mu     sync.Mutex
	grants map[[2]string]domain.Level
	Calls  int
}

// NewStatic returns an empty Static gate
func NewStatic() *Static { return &Static{grants: map[[2]string]domain.Level{}} }

// Grant sets actorID's level on matterID
func (s *Static) Grant(actorID, matterID string, l domain.Level) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[[2]string{actorID, matterID}] = l
	return s
}

// Check implements domain.GatePort
func (s *Static) Check(_ context.Context, actorID, matterID string, want domain.Level) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	return s.grants[[2]string{actorID, matterID}].Allows(want)
}
