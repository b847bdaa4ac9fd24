// Package audittest provides recorder and sink doubles
package audittest

import (
	"context"
	"maps"
	"sync"
	"time"

	"oracle/internal/services/audit/domain"

	"github.com/google/uuid"
)

// Recorder keeps entries in memory synchronously
type Recorder struct {
	mu      sync.Mutex
	entries []domain.Entry
}

// Record implements domain.RecorderPort
func (r *Recorder) Record(_ context.Context, t domain.EventType, payload map[string]any, c domain.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, domain.Entry{
		ID:        uuid.New(),
		EventType: t,
		ActorID:   c.ActorID,
		MatterID:  c.MatterID,
		Payload:   maps.Clone(payload),
		At:        time.Now().UTC(),
	})
}

// Entries returns a copy of everything recorded
func (r *Recorder) Entries() []domain.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Entry(nil), r.entries...)
}

// OfType returns the entries of type t
func (r *Recorder) OfType(t domain.EventType) []domain.Entry {
	var out []domain.Entry
	for _, e := range r.Entries() {
		if e.EventType == t {
			out = append(out, e)
		}
	}
	return out
}

// Sink stores written batches; Err makes every write fail
type Sink struct {
	Err error

	mu      sync.Mutex
	entries []domain.Entry
	batches int
}

// Name implements domain.Sink
func (s *Sink) Name() string { return "memory" }

// Write implements domain.Sink
func (s *Sink) Write(_ context.Context, xs []domain.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.batches++
	s.entries = append(s.entries, xs...)
	return nil
}

// Entries returns a copy of everything written
func (s *Sink) Entries() []domain.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Entry(nil), s.entries...)
}

// Batches counts successful writes
func (s *Sink) Batches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batches
}
