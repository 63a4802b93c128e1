package app

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNoRowsAffected is reported in strict mode when a write matched nothing.
	ErrNoRowsAffected = errors.New("no rows affected")

	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("row not found")
)

// ErrConnection represents a database connection error.
type ErrConnection struct {
	Cause error
}

func (e *ErrConnection) Error() string {
	return fmt.Sprintf("connection error: %v", e.Cause)
}

func (e *ErrConnection) Unwrap() error {
	return e.Cause
}

// ErrQuery represents a statement that failed at the database. Code and
// Constraint carry the SQLSTATE details when the server reported them.
type ErrQuery struct {
	Query      string
	Code       string
	Constraint string
	Cause      error
}

func (e *ErrQuery) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("query error (SQLSTATE %s): %v", e.Code, e.Cause)
	}
	return fmt.Sprintf("query error: %v", e.Cause)
}

func (e *ErrQuery) Unwrap() error {
	return e.Cause
}

// ErrConfig represents a configuration error.
type ErrConfig struct {
	Cause error
}

func (e *ErrConfig) Error() string {
	return fmt.Sprintf("config error: %v", e.Cause)
}

func (e *ErrConfig) Unwrap() error {
	return e.Cause
}

func newQueryError(query string, cause error) *ErrQuery {
	qe := &ErrQuery{Query: query, Cause: cause}
	var pgErr *pgconn.PgError
	if errors.As(cause, &pgErr) {
		qe.Code = pgErr.Code
		qe.Constraint = pgErr.ConstraintName
	}
	return qe
}
