package pg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

func TestCompact(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"select 1":                   "select 1",
		"  select   1  ":             "select 1",
		"SELECT\t*\nFROM\r\tmatters": "SELECT * FROM matters",
		"":                           "",
	}
	for in, want := range cases {
		if got := compact(in); got != want {
			t.Fatalf("compact(%q) = %q want %q", in, got, want)
		}
	}
}

func TestTracer_Levels(t *testing.T) {
	t.Parallel()

	sql := "SELECT note\n  FROM matter_notes WHERE matter_id = $1"
	args := []any{"m-1001"}
	cases := []struct {
		name    string
		verbose bool
		ev      QueryEvent
		level   string
	}{
		{"quiet fast", false, QueryEvent{SQL: sql, Args: args, ElapsedUS: 900}, ""},
		{"quiet no rows", false, QueryEvent{SQL: sql, Args: args, Err: pgx.ErrNoRows}, ""},
		{"verbose fast", true, QueryEvent{SQL: sql, Args: args, ElapsedUS: 900}, "debug"},
		{"slow", false, QueryEvent{SQL: sql, Args: args, ElapsedUS: 2_500_000, Slow: true}, "warn"},
		{"failed", false, QueryEvent{SQL: sql, Args: args, Err: errors.New("deadlock detected"), Slow: true}, "error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			Tracer(zerolog.New(&buf), tc.verbose).OnQuery(context.Background(), tc.ev)
			if tc.level == "" {
				if buf.Len() != 0 {
					t.Fatalf("unexpected log %s", buf.String())
				}
				return
			}
			var line struct {
				Level     string  `json:"level"`
				Component string  `json:"component"`
				ElapsedMS float64 `json:"elapsed_ms"`
				SQL       string  `json:"sql"`
				Args      int     `json:"args"`
			}
			if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
				t.Fatalf("%v: %s", err, buf.String())
			}
			if line.Level != tc.level || line.Component != "pg" || line.Args != 1 {
				t.Fatalf("line %+v", line)
			}
			if line.SQL != "SELECT note FROM matter_notes WHERE matter_id = $1" {
				t.Fatalf("sql %q", line.SQL)
			}
			if line.ElapsedMS != float64(tc.ev.ElapsedUS)/1000 {
				t.Fatalf("elapsed %v", line.ElapsedMS)
			}
			if strings.Contains(buf.String(), "m-1001") {
				t.Fatalf("bind value leaked: %s", buf.String())
			}
		})
	}
}
