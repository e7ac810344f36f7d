package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestClassifyPostgresErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantKind  ConstraintKind
		wantField string
	}{
		{"pq username", &pq.Error{Code: "23505", Constraint: "users_username_key"}, ConstraintUnique, "username"},
		{"pq email", &pq.Error{Code: "23505", Constraint: "users_email_key"}, ConstraintUnique, "email"},
		{"pq student email", &pq.Error{Code: "23505", Constraint: "students_email_key"}, ConstraintUnique, "email"},
		{"pq fk", &pq.Error{Code: "23503", Constraint: "students_user_id_fkey"}, ConstraintForeignKey, "user_id"},
		{"pgx username", &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"}, ConstraintUnique, "username"},
		{"pgx wrapped email", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}), ConstraintUnique, "email"},
		{"pgx fk", &pgconn.PgError{Code: "23503"}, ConstraintForeignKey, "user_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ce *ConstraintError
			if !errors.As(classify(tt.err), &ce) {
				t.Fatalf("classify(%v) is not a ConstraintError", tt.err)
			}
			if ce.Kind != tt.wantKind || ce.Field != tt.wantField {
				t.Errorf("got kind=%v field=%q, want kind=%v field=%q", ce.Kind, ce.Field, tt.wantKind, tt.wantField)
			}
			if !errors.Is(ce, tt.err) && !errors.Is(ce.Err, tt.err) {
				t.Errorf("cause not preserved")
			}
		})
	}
}

func TestClassifyPassesThroughOtherErrors(t *testing.T) {
	plain := errors.New("connection reset")
	if got := classify(plain); got != plain {
		t.Errorf("classify(plain) = %v", got)
	}
	other := &pq.Error{Code: "42P01"}
	if got := classify(other); got != error(other) {
		t.Errorf("classify(undefined table) = %v", got)
	}
	if classify(nil) != nil {
		t.Error("classify(nil) != nil")
	}
}

func TestIsUnique(t *testing.T) {
	err := fmt.Errorf("wrap: %w", &ConstraintError{Kind: ConstraintUnique, Field: "email", Err: errors.New("dup")})
	if !IsUnique(err, "") || !IsUnique(err, "email") {
		t.Error("IsUnique should match email violation")
	}
	if IsUnique(err, "username") {
		t.Error("IsUnique matched the wrong field")
	}
	fk := &ConstraintError{Kind: ConstraintForeignKey, Field: "user_id", Err: errors.New("fk")}
	if IsUnique(fk, "") {
		t.Error("foreign key violation reported as unique")
	}
}
