package database

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nfrund/batepapo/internal/domain"
)

// Errors reported by the SurrealDB layer. Check them with errors.Is.
var (
	ErrNotConnected  = errors.New("database not connected")
	ErrQueryFailed   = errors.New("query execution failed")
	ErrAlreadyExists = errors.New("record already exists")
)

// DBError carries the statement that failed alongside the driver error so
// the log line that reports it is useful on its own.
type DBError struct {
	err     error
	context string
	query   string
}

// NewDBError creates a DBError describing what was being attempted.
func NewDBError(err error, context string) *DBError {
	return &DBError{err: err, context: context}
}

// WithQuery adds query information to the error.
func (e *DBError) WithQuery(query string) *DBError {
	e.query = query
	return e
}

// Query returns the statement that failed, if recorded.
func (e *DBError) Query() string {
	return e.query
}

func (e *DBError) Error() string {
	msg := e.context
	if e.query != "" {
		msg = fmt.Sprintf("%s (query: %s)", msg, e.query)
	}
	if e.err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.err)
	}
	return msg
}

func (e *DBError) Unwrap() error {
	return e.err
}

// wrapQueryError classifies a driver error. Duplicate record ids become
// ErrAlreadyExists; everything else is ErrQueryFailed.
func wrapQueryError(err error, query string) error {
	if err == nil {
		return nil
	}
	sentinel := ErrQueryFailed
	if strings.Contains(strings.ToLower(err.Error()), "already exists") {
		sentinel = ErrAlreadyExists
	}
	return NewDBError(fmt.Errorf("%w: %w", sentinel, err), "surrealdb").WithQuery(query)
}

// toDomain maps a database error to the domain taxonomy at the repository
// boundary. A failed statement is logged here, the caller only sees op.
func toDomain(op string, err error) error {
	if err == nil {
		return nil
	}
	var dbErr *DBError
	if errors.As(err, &dbErr) && dbErr.Query() != "" {
		slog.Error("SurrealDB statement failed",
			"event", "db_query_failure", "op", op, "query", dbErr.Query(), "error", dbErr.Unwrap())
	}
	return domain.NewBackingStoreError(op, err)
}
