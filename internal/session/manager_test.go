package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"studentrecords/internal/clock"
	"studentrecords/internal/entity"
)

var epoch = time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)

func newTestManager(t *testing.T) (*Manager, *clock.Fake) {
	t.Helper()
	fake := clock.NewFake(epoch)
	return NewManager(DefaultIdleTimeout, WithClock(fake)), fake
}

func alice() *entity.User {
	return &entity.User{ID: 4, Username: "alice", FullName: "Alice A", Role: entity.RoleUser}
}

func TestCreateThenValidate(t *testing.T) {
	m, _ := newTestManager(t)

	s, err := m.Create(alice())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.Token == "" {
		t.Fatal("empty token")
	}
	if s.UserID != 4 || s.Username != "alice" || s.FullName != "Alice A" || s.Role != entity.RoleUser {
		t.Errorf("session = %+v", s)
	}
	if !s.LastActivityAt.Equal(epoch) {
		t.Errorf("LastActivityAt = %v, want %v", s.LastActivityAt, epoch)
	}

	got, ok := m.Validate(s.Token)
	if !ok {
		t.Fatal("fresh session did not validate")
	}
	if got.UserID != 4 {
		t.Errorf("validated session user = %d", got.UserID)
	}
}

func TestSlidingExpiration(t *testing.T) {
	m, fake := newTestManager(t)
	s, _ := m.Create(alice())

	// Repeated use within the window keeps the session alive well past
	// the idle timeout measured from login.
	for i := 0; i < 5; i++ {
		fake.Advance(29 * time.Minute)
		if _, ok := m.Validate(s.Token); !ok {
			t.Fatalf("session expired after %d refreshes", i)
		}
	}

	fake.Advance(30 * time.Minute)
	if _, ok := m.Validate(s.Token); ok {
		t.Fatal("session survived 30 minutes of inactivity")
	}
	if m.Len() != 0 {
		t.Errorf("expired session was not removed, Len = %d", m.Len())
	}
}

func TestExpiryBoundary(t *testing.T) {
	m, fake := newTestManager(t)
	s, _ := m.Create(alice())

	fake.Advance(30*time.Minute - time.Nanosecond)
	if _, ok := m.Validate(s.Token); !ok {
		t.Fatal("session expired just before the timeout")
	}

	fake.Advance(30 * time.Minute)
	if _, ok := m.Validate(s.Token); ok {
		t.Fatal("session valid at exactly the timeout")
	}
}

func TestValidateRefreshesLastActivity(t *testing.T) {
	m, fake := newTestManager(t)
	s, _ := m.Create(alice())

	fake.Advance(10 * time.Minute)
	got, ok := m.Validate(s.Token)
	if !ok {
		t.Fatal("Validate failed")
	}
	if want := epoch.Add(10 * time.Minute); !got.LastActivityAt.Equal(want) {
		t.Errorf("LastActivityAt = %v, want %v", got.LastActivityAt, want)
	}
}

func TestInvalidate(t *testing.T) {
	m, _ := newTestManager(t)
	s, _ := m.Create(alice())

	m.Invalidate(s.Token)
	if _, ok := m.Validate(s.Token); ok {
		t.Fatal("session valid after Invalidate")
	}

	// Unknown and repeated tokens are no-ops.
	m.Invalidate(s.Token)
	m.Invalidate("never-issued")
}

func TestValidateUnknownAndEmpty(t *testing.T) {
	m, _ := newTestManager(t)
	if _, ok := m.Validate(""); ok {
		t.Error("empty token validated")
	}
	if _, ok := m.Validate("nope"); ok {
		t.Error("unknown token validated")
	}
}

func TestMultipleSessionsPerUser(t *testing.T) {
	m, _ := newTestManager(t)
	a, _ := m.Create(alice())
	b, _ := m.Create(alice())
	if a.Token == b.Token {
		t.Fatal("two logins produced the same token")
	}

	m.Invalidate(a.Token)
	if _, ok := m.Validate(b.Token); !ok {
		t.Error("logging out one session ended the other")
	}
}

func TestReturnedSessionIsACopy(t *testing.T) {
	m, fake := newTestManager(t)
	s, _ := m.Create(alice())

	s.LastActivityAt = epoch.Add(-time.Hour)
	s.Role = entity.RoleAdmin

	fake.Advance(time.Minute)
	got, ok := m.Validate(s.Token)
	if !ok {
		t.Fatal("mutating the returned copy affected the stored session")
	}
	if got.Role != entity.RoleUser {
		t.Errorf("stored role changed to %q", got.Role)
	}
}

func TestCreateRetriesOnCollision(t *testing.T) {
	tokens := []string{"dup", "dup", "fresh"}
	next := 0
	source := func() (string, error) {
		tok := tokens[next]
		next++
		return tok, nil
	}
	m := NewManager(time.Minute, WithTokenSource(source))

	first, err := m.Create(alice())
	if err != nil || first.Token != "dup" {
		t.Fatalf("first Create = %v, %v", first, err)
	}
	second, err := m.Create(alice())
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if second.Token != "fresh" {
		t.Errorf("second token = %q, want fresh", second.Token)
	}
}

func TestCreateGivesUpOnPersistentCollision(t *testing.T) {
	m := NewManager(time.Minute, WithTokenSource(func() (string, error) { return "same", nil }))
	if _, err := m.Create(alice()); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	if _, err := m.Create(alice()); !errors.Is(err, ErrTokenGeneration) {
		t.Fatalf("Create error = %v, want ErrTokenGeneration", err)
	}
}

func TestRandomTokensAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		tok, err := randomToken()
		if err != nil {
			t.Fatal(err)
		}
		if len(tok) < 40 {
			t.Fatalf("token %q too short", tok)
		}
		if seen[tok] {
			t.Fatalf("duplicate token after %d draws", i)
		}
		seen[tok] = true
	}
}

func TestConcurrentAccess(t *testing.T) {
	m, fake := newTestManager(t)

	var wg sync.WaitGroup
	tokens := make(chan string, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := m.Create(alice())
			if err != nil {
				t.Error(err)
				return
			}
			for j := 0; j < 50; j++ {
				if _, ok := m.Validate(s.Token); !ok {
					t.Error("session lost during concurrent validation")
					return
				}
				fake.Advance(time.Millisecond)
			}
			tokens <- s.Token
		}()
	}
	wg.Wait()
	close(tokens)

	n := 0
	for tok := range tokens {
		m.Invalidate(tok)
		n++
	}
	if n != 64 {
		t.Errorf("got %d sessions, want 64", n)
	}
	if m.Len() != 0 {
		t.Errorf("Len = %d after invalidating everything", m.Len())
	}
}

func TestClose(t *testing.T) {
	m, _ := newTestManager(t)
	s, _ := m.Create(alice())
	m.Close()
	if _, ok := m.Validate(s.Token); ok {
		t.Error("session survived Close")
	}
}
