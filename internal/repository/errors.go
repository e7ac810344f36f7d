package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var ErrNotFound = errors.New("repository: record not found")

type ConstraintKind int

const (
	ConstraintUnique ConstraintKind = iota + 1
	ConstraintForeignKey
)

// ConstraintError reports that the store rejected a write because it would
// break a uniqueness or reference constraint.
type ConstraintError struct {
	Kind ConstraintKind
	// Field is the column the constraint covers when it can be told from
	// the driver error: "username", "email" or "user_id".
	Field string
	Err   error
}

func (e *ConstraintError) Error() string {
	kind := "unique"
	if e.Kind == ConstraintForeignKey {
		kind = "foreign key"
	}
	if e.Field != "" {
		return "repository: " + kind + " constraint on " + e.Field + ": " + e.Err.Error()
	}
	return "repository: " + kind + " constraint: " + e.Err.Error()
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

// IsUnique reports whether err is a unique violation, optionally on field.
func IsUnique(err error, field string) bool {
	var ce *ConstraintError
	if !errors.As(err, &ce) || ce.Kind != ConstraintUnique {
		return false
	}
	return field == "" || ce.Field == field
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// classify turns driver-specific constraint failures into *ConstraintError
// and returns every other error unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fromPostgres(string(pqErr.Code), pqErr.Constraint, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fromPostgres(pgErr.Code, pgErr.ConstraintName, err)
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return &ConstraintError{Kind: ConstraintUnique, Field: fieldFrom(liteErr.Error()), Err: err}
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return &ConstraintError{Kind: ConstraintForeignKey, Field: "user_id", Err: err}
		}
	}

	return err
}

func fromPostgres(code, constraint string, err error) error {
	switch code {
	case pgUniqueViolation:
		return &ConstraintError{Kind: ConstraintUnique, Field: fieldFrom(constraint), Err: err}
	case pgForeignKeyViolation:
		return &ConstraintError{Kind: ConstraintForeignKey, Field: "user_id", Err: err}
	}
	return err
}

// fieldFrom pulls the column out of a constraint name (users_email_key) or
// a SQLite message (UNIQUE constraint failed: users.email).
func fieldFrom(s string) string {
	switch {
	case strings.Contains(s, "username"):
		return "username"
	case strings.Contains(s, "email"):
		return "email"
	}
	return ""
}
