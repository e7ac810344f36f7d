package apperr

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("bad"), KindValidation},
		{"conflict", Conflict("username", "taken"), KindConflict},
		{"authentication", Unauthenticated("who"), KindAuthentication},
		{"forbidden", Forbidden("no"), KindForbidden},
		{"not found", NotFound("gone"), KindNotFound},
		{"wrapped", fmt.Errorf("handler: %w", Forbidden("no")), KindForbidden},
		{"plain", sql.ErrConnDone, KindInternal},
		{"internal", Internal(sql.ErrConnDone), KindInternal},
	}
	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("%s: KindOf = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestMessageHidesInternalDetail(t *testing.T) {
	err := Internal(errors.New("pq: password authentication failed for user \"postgres\""))
	if got := Message(err); got != "Internal server error" {
		t.Errorf("Message = %q", got)
	}
	if !errors.Is(err, err.Err) {
		t.Errorf("Internal should unwrap to its cause")
	}
	if got := Message(errors.New("boom")); got != "Internal server error" {
		t.Errorf("Message(plain) = %q", got)
	}
	if got := Message(NotFound("Student not found")); got != "Student not found" {
		t.Errorf("Message(not found) = %q", got)
	}
}
