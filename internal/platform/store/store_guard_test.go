package store

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// plainTx satisfies TxRunner but not Pinger
type plainTx struct{}

func (plainTx) Tx(context.Context, func(RowQuerier) error) error         { return nil }
func (plainTx) Exec(context.Context, string, ...any) (CommandTag, error) { return nil, nil }
func (plainTx) Query(context.Context, string, ...any) (Rows, error)      { return nil, nil }
func (plainTx) QueryRow(context.Context, string, ...any) Row             { return nil }

type pingTx struct {
	plainTx
	ping, close error
}

func (p pingTx) Ping(context.Context) error { return p.ping }
func (p pingTx) Close() error               { return p.close }

type fakeCH struct{ ping, close error }

func (*fakeCH) Insert(context.Context, string, any) error           { return nil }
func (*fakeCH) Query(context.Context, string, ...any) (Rows, error) { return nil, nil }
func (*fakeCH) Exec(context.Context, string, ...any) error          { return nil }
func (f *fakeCH) Close() error                                      { return f.close }
func (f *fakeCH) Ping(context.Context) error                        { return f.ping }

func TestGuard(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		s    *Store
		want []string
	}{
		{"nil store", nil, []string{"nil store"}},
		{"no backends", &Store{}, nil},
		{"pg not a pinger", &Store{PG: plainTx{}}, nil},
		{"pg ok", &Store{PG: pingTx{}}, nil},
		{"pg down", &Store{PG: pingTx{ping: errors.New("boom")}}, []string{"pg: boom"}},
		{"ch down", &Store{CH: &fakeCH{ping: errors.New("down")}}, []string{"ch: down"}},
		{"both down", &Store{
			PG: pingTx{ping: errors.New("pg down")},
			CH: &fakeCH{ping: errors.New("ch down")},
		}, []string{"pg: pg down", "ch: ch down"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.s.Guard(context.Background())
			if len(tc.want) == 0 {
				if err != nil {
					t.Fatalf("unexpected %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			for _, w := range tc.want {
				if !strings.Contains(err.Error(), w) {
					t.Fatalf("missing %q in %q", w, err.Error())
				}
			}
		})
	}
}

func TestClose_JoinsErrors(t *testing.T) {
	t.Parallel()

	s := &Store{
		PG: pingTx{close: errors.New("pool busy")},
		CH: &fakeCH{close: errors.New("conn reset")},
	}
	err := s.Close(context.Background())
	if err == nil {
		t.Fatal("expected joined error")
	}
	got := err.Error()
	if !strings.Contains(got, "pg: pool busy") || !strings.Contains(got, "ch: conn reset") {
		t.Fatalf("close error %q", got)
	}
	if strings.Index(got, "ch:") > strings.Index(got, "pg:") {
		t.Fatalf("clickhouse should close first: %q", got)
	}
	if err := (&Store{PG: plainTx{}}).Close(context.Background()); err != nil {
		t.Fatalf("non closer: %v", err)
	}
}
