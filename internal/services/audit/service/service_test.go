package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	kit "oracle/internal/platform/testkit"
	"oracle/internal/services/audit/audittest"
	"oracle/internal/services/audit/domain"
)

func closeWriter(t *testing.T, w *Writer) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestWriter_DrainsOnClose(t *testing.T) {
	t.Parallel()

	sink := &audittest.Sink{}
	w := New(sink, Config{BatchSize: 2, FlushEvery: time.Hour})
	payload := map[string]any{"patternCount": 3}
	for i := 0; i < 5; i++ {
		w.Record(context.Background(), domain.OracleQuery, payload, domain.Context{ActorID: "u-1", MatterID: "m-1"})
	}
	payload["patternCount"] = 99
	closeWriter(t, w)

	got := sink.Entries()
	if len(got) != 5 {
		t.Fatalf("written = %d, want 5", len(got))
	}
	for _, e := range got {
		if e.EventType != domain.OracleQuery || e.ActorID != "u-1" || e.MatterID != "m-1" || e.At.IsZero() {
			t.Fatalf("entry = %+v", e)
		}
		if e.Payload["patternCount"] != 3 {
			t.Fatal("payload must be copied at record time")
		}
	}
	if written, failed := w.Stats(); written != 5 || failed != 0 {
		t.Fatalf("stats = %d/%d", written, failed)
	}
}

type stalledSink struct {
	release chan struct{}
	mu      sync.Mutex
	n       int
}

func (s *stalledSink) Name() string { return "stalled" }

func (s *stalledSink) Write(ctx context.Context, xs []domain.Entry) error {
	select {
	case <-s.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	s.mu.Lock()
	s.n += len(xs)
	s.mu.Unlock()
	return nil
}

func TestWriter_RecordNeverBlocksOnStalledSink(t *testing.T) {
	t.Parallel()

	sink := &stalledSink{release: make(chan struct{})}
	w := New(sink, Config{QueueSize: 1, BatchSize: 1, WriteTimeout: 10 * time.Second})

	start := time.Now()
	for i := 0; i < 100; i++ {
		w.Record(context.Background(), domain.OracleQuery, nil, domain.Context{ActorID: "u"})
	}
	if d := time.Since(start); d > 2*time.Second {
		t.Fatalf("Record blocked for %s", d)
	}

	close(sink.release)
	closeWriter(t, w)
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.n != 100 {
		t.Fatalf("written = %d, want 100", sink.n)
	}
}

func TestWriter_FailuresGoToOperationalChannel(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var seen []domain.EventType
	cause := errors.New("clickhouse unavailable")
	w := New(&audittest.Sink{Err: cause}, Config{OnFailure: func(e domain.Entry, err error) {
		mu.Lock()
		defer mu.Unlock()
		if errors.Is(err, cause) {
			seen = append(seen, e.EventType)
		}
	}})

	kit.MustNotPanic(t, func() {
		w.Record(context.Background(), domain.OracleAccessDenied, nil, domain.Context{ActorID: "u", MatterID: "m"})
		w.Record(context.Background(), domain.OracleQuery, nil, domain.Context{ActorID: "u", MatterID: "m"})
	})
	closeWriter(t, w)

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 {
		t.Fatalf("failures seen = %v", seen)
	}
	if _, failed := w.Stats(); failed != 2 {
		t.Fatalf("failed = %d", failed)
	}
}

func TestWriter_RecordAfterCloseIsSafe(t *testing.T) {
	t.Parallel()

	sink := &audittest.Sink{}
	w := New(sink, Config{})
	closeWriter(t, w)
	kit.MustNotPanic(t, func() {
		w.Record(context.Background(), domain.OracleSweep, nil, domain.Context{ActorID: "system"})
	})
	closeWriter(t, w)
}

func TestNew_NilSinkPanics(t *testing.T) {
	kit.MustPanic(t, func() { _ = New(nil, Config{}) })
}
