// Package session keeps the server-side session table.
//
// A session binds an opaque token to the identity of a logged in user and
// expires after a period of inactivity. Expiry is lazy: nothing sweeps the
// table, an expired entry is dropped the next time its token is validated.
package session

import (
	"encoding/base64"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/securecookie"

	"studentrecords/internal/clock"
	"studentrecords/internal/entity"
	"studentrecords/internal/policy"
)

const DefaultIdleTimeout = 30 * time.Minute

const tokenBytes = 32

var ErrTokenGeneration = errors.New("session: could not generate token")

type Session struct {
	Token          string
	UserID         int
	Username       string
	FullName       string
	Role           entity.Role
	CreatedAt      time.Time
	LastActivityAt time.Time
}

func (s *Session) Actor() policy.Actor {
	return policy.Actor{UserID: s.UserID, Role: s.Role}
}

type Manager struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	idleTimeout time.Duration
	clock       clock.Clock
	newToken    func() (string, error)
}

type Option func(*Manager)

func WithClock(c clock.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithTokenSource replaces the random token generator. Tests use it to
// force collisions.
func WithTokenSource(f func() (string, error)) Option {
	return func(m *Manager) { m.newToken = f }
}

func NewManager(idleTimeout time.Duration, opts ...Option) *Manager {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	m := &Manager{
		sessions:    make(map[string]*Session),
		idleTimeout: idleTimeout,
		clock:       clock.Real(),
		newToken:    randomToken,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func randomToken() (string, error) {
	key := securecookie.GenerateRandomKey(tokenBytes)
	if key == nil {
		return "", ErrTokenGeneration
	}
	return base64.RawURLEncoding.EncodeToString(key), nil
}

func (m *Manager) IdleTimeout() time.Duration {
	return m.idleTimeout
}

// Create starts a new session for user and returns a copy of it.
func (m *Manager) Create(user *entity.User) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var token string
	for attempt := 0; ; attempt++ {
		if attempt == 3 {
			return nil, ErrTokenGeneration
		}
		t, err := m.newToken()
		if err != nil {
			return nil, err
		}
		if _, taken := m.sessions[t]; !taken && t != "" {
			token = t
			break
		}
	}

	now := m.clock.Now()
	s := &Session{
		Token:          token,
		UserID:         user.ID,
		Username:       user.Username,
		FullName:       user.FullName,
		Role:           user.Role,
		CreatedAt:      now,
		LastActivityAt: now,
	}
	m.sessions[token] = s

	out := *s
	return &out, nil
}

// Validate returns the session for token if it is still live and marks it
// as used. The lookup, the expiry check and the refresh happen under one
// lock so concurrent requests cannot resurrect an expired session.
func (m *Manager) Validate(token string) (*Session, bool) {
	if token == "" {
		return nil, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[token]
	if !ok {
		return nil, false
	}
	now := m.clock.Now()
	if now.Sub(s.LastActivityAt) >= m.idleTimeout {
		delete(m.sessions, token)
		return nil, false
	}
	s.LastActivityAt = now

	out := *s
	return &out, true
}

// Invalidate removes token. Unknown tokens are ignored.
func (m *Manager) Invalidate(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
}

// Len counts stored sessions, including expired ones not yet validated.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close drops every session. The manager stays usable afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = make(map[string]*Session)
}
