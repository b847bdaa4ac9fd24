package errors

import (
	"context"
	stderrs "errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// stateInsufficientPrivilege is raised by the audit_log trigger and by
// the read-only role
const stateInsufficientPrivilege = "42501"

// stateCodes maps the SQLSTATEs the schema can raise; anything else is
// ErrorCodeDB
var stateCodes = map[string]ErrorCode{
	"23505": ErrorCodeDuplicateKey,
	"23503": ErrorCodeInvalidArgument, // row names a matter that does not exist
	"23502": ErrorCodeValidation,
	"23514": ErrorCodeValidation,
	"22001": ErrorCodeInvalidArgument,
	"22P02": ErrorCodeInvalidArgument,

	stateInsufficientPrivilege: ErrorCodeForbidden,

	"57014": ErrorCodeUnavailable, // statement_timeout
	"25006": ErrorCodeUnavailable, // read only transaction
	"57P03": ErrorCodeUnavailable, // server starting up
}

// retryStates are conflicts a fresh transaction can win
var retryStates = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
}

// retryPhrases catch the same conflicts when they arrive as driver text
var retryPhrases = []string{
	"commit unexpectedly resulted in rollback",
	"deadlock detected",
	"could not serialize access",
	"serialization failure",
	"canceling statement due to lock timeout",
	"could not obtain lock on row",
	"terminating connection due to administrator command",
}

func pgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if stderrs.As(root(err), &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// IsSQLState reports whether err is a Postgres error with the given SQLSTATE
func IsSQLState(err error, code string) bool {
	pgErr, ok := pgError(err)
	return ok && pgErr.Code == code
}

// IsAppendOnlyViolation reports an UPDATE or DELETE rejected by an
// append-only table trigger
func IsAppendOnlyViolation(err error) bool { return IsSQLState(err, stateInsufficientPrivilege) }

// dbCode maps a Postgres error to an ErrorCode; !ok means err is not a PgError
func dbCode(err error) (ErrorCode, bool) {
	pgErr, ok := pgError(err)
	if !ok {
		return ErrorCodeUnknown, false
	}
	if code, known := stateCodes[pgErr.Code]; known {
		return code, true
	}
	return ErrorCodeDB, true
}

// FromPostgres wraps a pg error with a mapped ErrorCode and message and
// attaches the offending column when Postgres names one. If err is nil, returns nil
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	code, ok := dbCode(err)
	if !ok {
		code = ErrorCodeDB
	}
	return attachField(Wrap(err, code, msg))
}

// attachField derives a field from the PgError: ColumnName first, then the
// column part of a default constraint name (insights_confidence_check -> confidence)
func attachField(err error) error {
	pgErr, ok := pgError(err)
	if !ok {
		return err
	}
	if col := strings.TrimSpace(pgErr.ColumnName); col != "" {
		return WithField(err, col)
	}
	c := strings.TrimSpace(pgErr.ConstraintName)
	if c == "" {
		return err
	}
	if t := strings.TrimSpace(pgErr.TableName); t != "" {
		c = strings.TrimPrefix(c, t+"_")
	}
	for _, suffix := range []string{"_check", "_fkey", "_key", "_pkey"} {
		if strings.HasSuffix(c, suffix) {
			c = strings.TrimSuffix(c, suffix)
			break
		}
	}
	if c == "" || c == pgErr.ConstraintName {
		return err
	}
	return WithField(err, c)
}

// IsRetryable reports a transient conflict worth running the
// transaction again for. Local cancellation never is.
func IsRetryable(err error) bool {
	if err == nil || stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}
	if pgErr, ok := pgError(err); ok {
		return retryStates[pgErr.Code]
	}
	msg := strings.ToLower(root(err).Error())
	for _, p := range retryPhrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
