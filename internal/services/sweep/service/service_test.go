package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"oracle/internal/core/matter"
	"oracle/internal/core/patterns"
	"oracle/internal/core/risk"
	"oracle/internal/modkit/repokit"
	kit "oracle/internal/platform/testkit"
	"oracle/internal/services/audit/audittest"
	adomain "oracle/internal/services/audit/domain"
	"oracle/internal/services/sweep/domain"
	"oracle/internal/services/sweep/guardrails"

	"github.com/google/uuid"
)

var now = time.Date(2025, 7, 1, 2, 0, 0, 0, time.UTC)

type fakeTx struct{}

func (fakeTx) Tx(_ context.Context, fn func(q repokit.Queryer) error) error { return fn(nil) }
func (fakeTx) Exec(context.Context, string, ...any) (repokit.CommandTag, error) {
	return nil, nil
}
func (fakeTx) Query(context.Context, string, ...any) (repokit.Rows, error) { return nil, nil }
func (fakeTx) QueryRow(context.Context, string, ...any) repokit.Row        { return nil }

type fakeStore struct {
	mu      sync.Mutex
	rows    []domain.HistoryRow
	runs    []domain.Run
	failFor string
}

func (s *fakeStore) AppendHistory(_ context.Context, row domain.HistoryRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row.MatterID == s.failFor {
		return errors.New("insert failed")
	}
	s.rows = append(s.rows, row)
	return nil
}

func (s *fakeStore) FinishRun(ctx context.Context, run domain.Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	return nil
}

type fakeMatters struct {
	active    []string
	activeErr error
	missing   string
	onActive  func()
}

func (f *fakeMatters) Snapshot(_ context.Context, id string) (matter.Snapshot, error) {
	if id == f.missing {
		return matter.Snapshot{}, errors.New("not found")
	}
	return matter.Snapshot{
		MatterID: id,
		AsOf:     now,
		Profile:  matter.Profile{OpenedAt: now.AddDate(0, 0, -200)},
		Billing:  matter.Billing{WorkInProgress: matter.Cents(90_000)},
	}, nil
}

func (f *fakeMatters) Active(context.Context) ([]string, error) {
	if f.onActive != nil {
		f.onActive()
	}
	return f.active, f.activeErr
}

// ctxTx refuses to open a transaction on a done context
type ctxTx struct{ fakeTx }

func (ctxTx) Tx(ctx context.Context, fn func(q repokit.Queryer) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(nil)
}
func (f *fakeMatters) ByClient(context.Context, string) ([]string, error) {
	return nil, nil
}

func newSvc(t *testing.T, m *fakeMatters, st *fakeStore, lease guardrails.Lease) (*Service, *audittest.Recorder) {
	t.Helper()
	rec := &audittest.Recorder{}
	s := New(Deps{
		DB:        fakeTx{},
		Binder:    repokit.BindFunc[domain.StorageRepo](func(repokit.Queryer) domain.StorageRepo { return st }),
		Snapshots: m,
		Lister:    m,
		Detector:  patterns.Default(),
		Audit:     rec,
		Lease:     lease,
	}, Config{Workers: 2, EnableLeases: lease != nil})
	s.now = func() time.Time { return now }
	s.newID = func() uuid.UUID { return uuid.MustParse("00000000-0000-0000-0000-000000000001") }
	return s, rec
}

func TestRunOnce_OneHistoryRowPerActiveMatter(t *testing.T) {
	t.Parallel()

	st := &fakeStore{}
	s, rec := newSvc(t, &fakeMatters{active: []string{"m-1", "m-2", "m-3"}}, st, nil)

	res, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Matters != 3 || res.Written != 3 || res.Failed != 0 || res.Elevated == nil {
		t.Fatalf("result = %+v", res)
	}
	if len(st.rows) != 3 {
		t.Fatalf("rows = %d", len(st.rows))
	}
	seen := map[string]bool{}
	for _, row := range st.rows {
		seen[row.MatterID] = true
		if row.Score != risk.Compute(row.Factors) {
			t.Fatalf("score %+v does not match factors", row.Score)
		}
		if !row.ComputedAt.Equal(now) {
			t.Fatalf("computed_at = %v", row.ComputedAt)
		}
	}
	if len(seen) != 3 {
		t.Fatalf("duplicate rows: %+v", st.rows)
	}

	entries := rec.Entries()
	if len(entries) != 1 || entries[0].EventType != adomain.OracleSweep || entries[0].ActorID != domain.Actor {
		t.Fatalf("audit = %+v", entries)
	}
	if entries[0].Payload["status"] != "ok" || entries[0].Payload["written"] != 3 {
		t.Fatalf("payload = %+v", entries[0].Payload)
	}
	if len(st.runs) != 1 || st.runs[0].Status != "ok" {
		t.Fatalf("runs = %+v", st.runs)
	}
}

func TestRunOnce_MatterFailuresArePartial(t *testing.T) {
	t.Parallel()

	st := &fakeStore{failFor: "m-2"}
	s, rec := newSvc(t, &fakeMatters{active: []string{"m-1", "m-2", "m-3"}, missing: "m-3"}, st, nil)

	res, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Written != 1 || res.Failed != 2 {
		t.Fatalf("result = %+v", res)
	}
	if got := rec.OfType(adomain.OracleSweep); len(got) != 1 || got[0].Payload["status"] != "partial" {
		t.Fatalf("audit = %+v", got)
	}
}

func TestRunOnce_ListFailureStillAudited(t *testing.T) {
	t.Parallel()

	cause := errors.New("db down")
	st := &fakeStore{}
	s, rec := newSvc(t, &fakeMatters{activeErr: cause}, st, nil)

	if _, err := s.RunOnce(context.Background()); !errors.Is(err, cause) {
		t.Fatalf("err = %v", err)
	}
	if got := rec.OfType(adomain.OracleSweep); len(got) != 1 || got[0].Payload["status"] != "error" {
		t.Fatalf("audit = %+v", got)
	}
	if len(st.runs) != 1 || st.runs[0].ErrText != "db down" {
		t.Fatalf("runs = %+v", st.runs)
	}
}

func TestRunOnce_NoActiveMatters(t *testing.T) {
	t.Parallel()

	s, rec := newSvc(t, &fakeMatters{}, &fakeStore{}, nil)
	res, err := s.RunOnce(context.Background())
	if err != nil || res.Matters != 0 || res.Written != 0 {
		t.Fatalf("res = %+v err = %v", res, err)
	}
	if len(rec.Entries()) != 1 {
		t.Fatal("an empty sweep is still audited once")
	}
}

func TestRunOnce_HeldLeaseIsCleanSkip(t *testing.T) {
	t.Parallel()

	held := func(context.Context, func(context.Context) error) error { return guardrails.ErrLeaseHeld }
	st := &fakeStore{}
	s, rec := newSvc(t, &fakeMatters{active: []string{"m-1"}}, st, held)

	res, err := s.RunOnce(context.Background())
	if err != nil || res.Matters != 0 {
		t.Fatalf("res = %+v err = %v", res, err)
	}
	if len(st.rows) != 0 || len(rec.Entries()) != 0 {
		t.Fatal("skipped sweep must not write or audit")
	}
}

func TestRunOnce_LeaseWrapsWork(t *testing.T) {
	t.Parallel()

	calls := 0
	lease := func(ctx context.Context, do func(context.Context) error) error {
		calls++
		return do(ctx)
	}
	st := &fakeStore{}
	s, _ := newSvc(t, &fakeMatters{active: []string{"m-1"}}, st, lease)
	if _, err := s.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if calls != 1 || len(st.rows) != 1 {
		t.Fatalf("calls = %d rows = %d", calls, len(st.rows))
	}
}

func TestResultStatus(t *testing.T) {
	t.Parallel()

	if (domain.Result{}).Status(nil) != "ok" {
		t.Fatal("ok")
	}
	if (domain.Result{Failed: 1}).Status(nil) != "partial" {
		t.Fatal("partial")
	}
	if (domain.Result{}).Status(errors.New("x")) != "error" {
		t.Fatal("error")
	}
}

func TestNew_PanicsOnMissingDeps(t *testing.T) {
	t.Parallel()

	kit.MustPanic(t, func() { New(Deps{}, Config{}) })
	kit.MustPanic(t, func() { New(Deps{DB: fakeTx{}}, Config{}) })
}

func TestRunOnce_CancelledRunStillRecorded(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := &fakeMatters{activeErr: context.Canceled, onActive: cancel}
	st := &fakeStore{}
	s, rec := newSvc(t, m, st, nil)
	s.d.DB = ctxTx{}

	if _, err := s.RunOnce(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if len(st.runs) != 1 || st.runs[0].ErrText == "" {
		t.Fatalf("runs = %+v", st.runs)
	}
	if len(rec.OfType(adomain.OracleSweep)) != 1 {
		t.Fatalf("entries = %+v", rec.Entries())
	}
}
