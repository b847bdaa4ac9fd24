package errors

import (
	"context"
	stderrs "errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func pg(code, col, constraint string) *pgconn.PgError {
	return &pgconn.PgError{
		Code:           code,
		ColumnName:     col,
		ConstraintName: constraint,
	}
}

func TestDBCodeMappings(t *testing.T) {
	cases := []struct {
		code string
		want ErrorCode
	}{
		{"23505", ErrorCodeDuplicateKey},    // unique violation
		{"23503", ErrorCodeInvalidArgument}, // fk violation -> invalid input
		{"23502", ErrorCodeValidation},      // not null
		{"23514", ErrorCodeValidation},      // check
		{"22001", ErrorCodeInvalidArgument}, // string truncation
		{"22P02", ErrorCodeInvalidArgument}, // invalid text representation
		{"42501", ErrorCodeForbidden},       // append-only trigger
		{"40001", ErrorCodeDB},              // serialization failure
		{"40P01", ErrorCodeDB},              // deadlock
		{"55P03", ErrorCodeDB},              // lock not available
		{"57014", ErrorCodeUnavailable},     // statement timeout
		{"25006", ErrorCodeUnavailable},     // read-only
		{"57P03", ErrorCodeUnavailable},     // cannot connect now
		{"XXXXX", ErrorCodeDB},              // default branch
	}
	for _, c := range cases {
		got, ok := dbCode(pg(c.code, "", ""))
		if !ok || got != c.want {
			t.Fatalf("dbCode(%s) = %v %v, want %v", c.code, got, ok, c.want)
		}
	}
	if _, ok := dbCode(stderrs.New("nope")); ok {
		t.Fatalf("dbCode should return ok=false for non-pg error")
	}
}

func TestFromPostgres(t *testing.T) {
	if FromPostgres(nil, "x") != nil {
		t.Fatalf("FromPostgres(nil) should be nil")
	}

	cases := []struct {
		name  string
		err   *pgconn.PgError
		code  ErrorCode
		field string
	}{
		{"column wins", pg("23502", "summary", "insights_summary_check"), ErrorCodeValidation, "summary"},
		{"check constraint", &pgconn.PgError{Code: "23514", TableName: "insights", ConstraintName: "insights_confidence_check"}, ErrorCodeValidation, "confidence"},
		{"fk constraint", &pgconn.PgError{Code: "23503", TableName: "matter_team", ConstraintName: "matter_team_matter_id_fkey"}, ErrorCodeInvalidArgument, "matter_id"},
		{"unnamed", pg("23505", "", ""), ErrorCodeDuplicateKey, ""},
		{"opaque constraint", pg("23505", "", "uniq"), ErrorCodeDuplicateKey, ""},
		{"append only", pg("42501", "", ""), ErrorCodeForbidden, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := FromPostgres(tc.err, "write")
			e, ok := As(err)
			if !ok || e.Code() != tc.code || e.Field() != tc.field {
				t.Fatalf("got %+v", e)
			}
		})
	}

	if CodeOf(FromPostgres(stderrs.New("conn reset"), "read")) != ErrorCodeDB {
		t.Fatal("non-pg error should map to DB")
	}
}

func TestPredicates(t *testing.T) {
	wrapped := Wrap(pg("42501", "", ""), ErrorCodeForbidden, "delete audit row")
	if !IsAppendOnlyViolation(wrapped) || IsSQLState(wrapped, "23505") {
		t.Fatal("append-only predicate")
	}
	if IsAppendOnlyViolation(stderrs.New("permission denied")) {
		t.Fatal("text alone is not a violation")
	}
}

func TestIsRetryable(t *testing.T) {
	cases := map[string]struct {
		err  error
		want bool
	}{
		"serialization":  {pg("40001", "", ""), true},
		"deadlock":       {pg("40P01", "", ""), true},
		"lock timeout":   {Wrap(pg("55P03", "", ""), ErrorCodeDB, "sweep lease"), true},
		"unique":         {pg("23505", "", ""), false},
		"plain":          {stderrs.New("nope"), false},
		"commit text":    {stderrs.New("ERROR: commit unexpectedly resulted in rollback"), true},
		"admin shutdown": {stderrs.New("FATAL: terminating connection due to administrator command"), true},
		"canceled":       {Wrap(context.Canceled, ErrorCodeDB, "tx"), false},
		"deadline":       {context.DeadlineExceeded, false},
		"nil":            {nil, false},
	}
	for name, tc := range cases {
		if got := IsRetryable(tc.err); got != tc.want {
			t.Errorf("%s: IsRetryable = %v, want %v", name, got, tc.want)
		}
	}
}
