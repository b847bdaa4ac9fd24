// Package service implements the asynchronous audit recorder
package service

import (
	"context"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"oracle/internal/platform/logger"
	"oracle/internal/services/audit/domain"

	"github.com/google/uuid"
)

// Config tunes the writer
type Config struct {
	QueueSize    int
	BatchSize    int
	FlushEvery   time.Duration
	WriteTimeout time.Duration

	// OnFailure sees every entry a sink rejected; it may be called concurrently
	OnFailure func(domain.Entry, error)
}

func (c Config) norm() Config {
	if c.QueueSize <= 0 {
		c.QueueSize = 1024
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 64
	}
	if c.FlushEvery <= 0 {
		c.FlushEvery = time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 5 * time.Second
	}
	return c
}

// Writer implements domain.RecorderPort with a bounded queue and a
// background flusher; Record never blocks and never returns an error
type Writer struct {
	sink domain.Sink
	cfg  Config
	log  *logger.Logger

	mu     sync.RWMutex
	closed bool
	q      chan domain.Entry
	done   chan struct{}

	detached sync.WaitGroup
	failures atomic.Int64
	written  atomic.Int64

	now   func() time.Time
	newID func() uuid.UUID
}

// New starts a writer over sink
func New(sink domain.Sink, cfg Config) *Writer {
	if sink == nil {
		panic("audit.Writer requires a non nil Sink")
	}
	cfg = cfg.norm()
	w := &Writer{
		sink:  sink,
		cfg:   cfg,
		log:   logger.Named("audit-writer"),
		q:     make(chan domain.Entry, cfg.QueueSize),
		done:  make(chan struct{}),
		now:   time.Now,
		newID: uuid.New,
	}
	go w.loop()
	return w
}

// Record enqueues an entry; when the queue is full or the writer is closed
// the entry is written on its own goroutine instead
func (w *Writer) Record(ctx context.Context, t domain.EventType, payload map[string]any, c domain.Context) {
	e := domain.Entry{
		ID:        w.newID(),
		EventType: t,
		ActorID:   c.ActorID,
		MatterID:  c.MatterID,
		Payload:   maps.Clone(payload),
		At:        w.now().UTC(),
	}

	w.mu.RLock()
	closed := w.closed
	if !closed {
		select {
		case w.q <- e:
			w.mu.RUnlock()
			return
		default:
		}
		// Close waits on these; entries after Close are best effort
		w.detached.Add(1)
	}
	w.mu.RUnlock()

	logger.C(ctx).Debug().Str("event_type", string(t)).Bool("closed", closed).Msg("audit queue unavailable; writing detached")
	go func() {
		if !closed {
			defer w.detached.Done()
		}
		w.write([]domain.Entry{e})
	}()
}

func (w *Writer) loop() {
	defer close(w.done)
	tick := time.NewTicker(w.cfg.FlushEvery)
	defer tick.Stop()

	batch := make([]domain.Entry, 0, w.cfg.BatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		w.write(batch)
		batch = make([]domain.Entry, 0, w.cfg.BatchSize)
	}
	for {
		select {
		case e, ok := <-w.q:
			if !ok {
				flush()
				return
			}
			batch = append(batch, e)
			if len(batch) >= w.cfg.BatchSize {
				flush()
			}
		case <-tick.C:
			flush()
		}
	}
}

func (w *Writer) write(xs []domain.Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), w.cfg.WriteTimeout)
	defer cancel()
	if err := w.sink.Write(ctx, xs); err != nil {
		w.failures.Add(int64(len(xs)))
		for _, e := range xs {
			w.log.Error().Err(err).
				Str("sink", w.sink.Name()).
				Str("audit_id", e.ID.String()).
				Str("event_type", string(e.EventType)).
				Str("matter_id", e.MatterID).
				Msg("audit write failed")
			if w.cfg.OnFailure != nil {
				w.cfg.OnFailure(e, err)
			}
		}
		return
	}
	w.written.Add(int64(len(xs)))
}

// Stats reports entries written and entries lost to sink failures
func (w *Writer) Stats() (written, failed int64) {
	return w.written.Load(), w.failures.Load()
}

// Close stops intake, drains the queue and waits for detached writes
// until ctx is done
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.q)
	}
	w.mu.Unlock()

	all := make(chan struct{})
	go func() {
		<-w.done
		w.detached.Wait()
		close(all)
	}()
	select {
	case <-all:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
