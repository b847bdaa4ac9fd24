package store

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	kit "oracle/internal/platform/testkit"

	"github.com/rs/zerolog"
)

func TestOpen(t *testing.T) {
	t.Parallel()

	chOK := CHConfig{Enabled: true, URL: "clickhouse://local:9000/oracle"}
	pgBad := PGConfig{Enabled: true, URL: "://bad", MaxConns: 1}

	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
		wantCH  bool
	}{
		{"nothing enabled", Config{}, false, false},
		{"clickhouse only", Config{CH: chOK}, false, true},
		{"bad pg url", Config{PG: pgBad}, true, false},
		{"pg fails before ch", Config{PG: pgBad, CH: chOK}, true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			s, err := Open(context.Background(), tc.cfg, WithLogger(zerolog.New(&buf)))
			if tc.wantErr {
				if err == nil || s != nil {
					t.Fatalf("want error and nil store, got %v %#v", err, s)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if s.PG != nil || (s.CH != nil) != tc.wantCH {
				t.Fatalf("backends pg=%T ch=%T", s.PG, s.CH)
			}
			if tc.wantCH {
				kit.MustContain(t, buf.String(), `"component":"store"`)
				kit.MustContain(t, buf.String(), "clickhouse configured")
			}
			if err := s.Close(context.Background()); err != nil {
				t.Fatalf("close: %v", err)
			}
		})
	}
}

func TestOpen_OptionError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	_, err := Open(context.Background(), Config{}, func(*Store) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestPingBackoff(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := zerolog.New(&buf)

	calls := 0
	flaky := func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("refused")
		}
		return nil
	}
	if err := pingBackoff(context.Background(), log, "postgres", flaky, 5, time.Second); err != nil {
		t.Fatal(err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d", calls)
	}
	kit.MustContain(t, buf.String(), `"attempt":2`)

	down := func(context.Context) error { return errors.New("refused") }
	err := pingBackoff(context.Background(), log, "postgres", down, 1, time.Second)
	if err == nil {
		t.Fatal("expected failure")
	}
	kit.MustContain(t, err.Error(), "after 1 attempts")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := pingBackoff(ctx, log, "postgres", down, 3, time.Second); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled err = %v", err)
	}
}
