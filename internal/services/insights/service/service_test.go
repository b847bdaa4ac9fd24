package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"oracle/internal/modkit/repokit"
	perr "oracle/internal/platform/errors"
	kit "oracle/internal/platform/testkit"
	"oracle/internal/services/insights/domain"
	"oracle/internal/services/insights/repo"

	"github.com/google/uuid"
)

type nopTx struct{}

func (nopTx) Tx(_ context.Context, fn func(q repokit.Queryer) error) error { return fn(nopTx{}) }
func (nopTx) Exec(context.Context, string, ...any) (repokit.CommandTag, error) {
	return nil, nil
}
func (nopTx) Query(context.Context, string, ...any) (repokit.Rows, error) { return nil, nil }
func (nopTx) QueryRow(context.Context, string, ...any) repokit.Row        { return nil }

type fakeRepo struct {
	listed   []domain.Filters
	inserted []domain.Insight
	rows     []domain.Insight
	err      error
}

func (f *fakeRepo) List(_ context.Context, fl domain.Filters) ([]domain.Insight, error) {
	f.listed = append(f.listed, fl)
	return f.rows, f.err
}

func (f *fakeRepo) Insert(_ context.Context, in domain.Insight) error {
	f.inserted = append(f.inserted, in)
	return f.err
}

func newSvc(r *fakeRepo) *Service {
	s := New(nopTx{}, repokit.BindFunc[repo.Repo](func(repokit.Queryer) repo.Repo { return r }))
	s.now = func() time.Time { return time.Date(2025, 8, 1, 10, 0, 0, 0, time.FixedZone("x", 3600)) }
	s.newID = func() uuid.UUID { return uuid.MustParse("00000000-0000-0000-0000-000000000001") }
	return s
}

func TestList_RequiresMatterOrClient(t *testing.T) {
	t.Parallel()

	r := &fakeRepo{}
	_, err := newSvc(r).List(context.Background(), domain.Filters{Category: "billing-stall"})
	if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("err = %v", err)
	}
	if len(r.listed) != 0 {
		t.Fatal("repo must not be queried")
	}
}

func TestList_LimitDefaultsAndEmptyScope(t *testing.T) {
	t.Parallel()

	r := &fakeRepo{}
	s := newSvc(r)
	got, err := s.List(context.Background(), domain.Filters{ClientID: "c-1"})
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("want empty non-nil, got %#v", got)
	}
	if r.listed[0].Limit != defaultLimit {
		t.Fatalf("limit = %d", r.listed[0].Limit)
	}

	got, err = s.List(context.Background(), domain.Filters{ClientID: "c-1", MatterIDs: []string{}})
	if err != nil || len(got) != 0 || len(r.listed) != 1 {
		t.Fatalf("empty scope queried: %v %v %d", got, err, len(r.listed))
	}
}

func TestList_RejectsBadSeverity(t *testing.T) {
	t.Parallel()

	_, err := newSvc(&fakeRepo{}).List(context.Background(), domain.Filters{MatterID: "m-1", Severity: "severe"})
	if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("err = %v", err)
	}
}

func TestCreate(t *testing.T) {
	t.Parallel()

	r := &fakeRepo{}
	in, err := newSvc(r).Create(context.Background(), "u-1", domain.CreateInput{
		MatterID:   "m-1",
		Category:   "billing-stall",
		Severity:   "high",
		Confidence: 0.7,
		Summary:    "no billing for 62 days",
	})
	if err != nil {
		t.Fatal(err)
	}
	if in.ID.String() != "00000000-0000-0000-0000-000000000001" || in.CreatedBy != "u-1" {
		t.Fatalf("insight = %+v", in)
	}
	if in.CreatedAt.Location() != time.UTC || in.Evidence == nil {
		t.Fatalf("created_at %v evidence %v", in.CreatedAt, in.Evidence)
	}
	if len(r.inserted) != 1 || r.inserted[0].ID != in.ID {
		t.Fatalf("inserted = %+v", r.inserted)
	}
}

func TestCreate_Validation(t *testing.T) {
	t.Parallel()

	cases := map[string]domain.CreateInput{
		"no matter":   {Category: "c", Severity: "low", Summary: "s"},
		"severity":    {MatterID: "m", Category: "c", Severity: "grave", Summary: "s"},
		"confidence":  {MatterID: "m", Category: "c", Severity: "low", Summary: "s", Confidence: 1.5},
		"no summary":  {MatterID: "m", Category: "c", Severity: "low"},
		"no category": {MatterID: "m", Severity: "low", Summary: "s"},
		"unknown cat": {MatterID: "m", Category: "vibes", Severity: "low", Summary: "s"},
	}
	for name, in := range cases {
		r := &fakeRepo{}
		_, err := newSvc(r).Create(context.Background(), "u-1", in)
		if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
			t.Fatalf("%s: err = %v", name, err)
		}
		if len(r.inserted) != 0 {
			t.Fatalf("%s: inserted invalid insight", name)
		}
	}
}

func TestCreate_RepoErrorWrapped(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	_, err := newSvc(&fakeRepo{err: cause}).Create(context.Background(), "u-1", domain.CreateInput{
		MatterID: "m-1", Category: "budget-overrun", Severity: "low", Summary: "s",
	})
	if !errors.Is(err, cause) || !perr.IsCode(err, perr.ErrorCodeDB) {
		t.Fatalf("err = %v", err)
	}
}

func TestCategory_Normalized(t *testing.T) {
	t.Parallel()

	r := &fakeRepo{}
	in, err := newSvc(r).Create(context.Background(), "u-1", domain.CreateInput{
		MatterID: "m-1", Category: " Billing-Stall ", Severity: "low", Summary: "s",
	})
	if err != nil || in.Category != "billing-stall" {
		t.Fatalf("insight %+v err %v", in, err)
	}
	_, err = newSvc(r).List(context.Background(), domain.Filters{MatterID: "m-1", Category: "vibes"})
	if f, _ := perr.As(err); f == nil || f.Field() != "category" {
		t.Fatalf("list err = %v", err)
	}
	if len(r.listed) != 0 {
		t.Fatal("unknown category reached the repo")
	}
}

func TestNew_PanicsOnNilDeps(t *testing.T) {
	t.Parallel()

	kit.MustPanic(t, func() { New(nil, repo.NewPG()) })
	kit.MustPanic(t, func() { New(nopTx{}, nil) })
}
