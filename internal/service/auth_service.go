package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"studentrecords/internal/apperr"
	"studentrecords/internal/entity"
	"studentrecords/internal/repository"
	"studentrecords/internal/session"
)

type UserStore interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id int) (*entity.User, error)
	FindByLogin(ctx context.Context, identifier string) ([]*entity.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
}

const (
	minUsernameLen = 3
	minPasswordLen = 6
)

var (
	errUsernameTaken = apperr.Conflict("username", "Username already exists")
	errEmailTaken    = apperr.Conflict("email", "Email already registered")
	errBadLogin      = apperr.Unauthenticated("Invalid username or password")
	errNoSession     = apperr.Unauthenticated("Please login first")
)

type AuthService struct {
	users    UserStore
	sessions *session.Manager
	hasher   *PasswordHasher
	log      *slog.Logger
}

func NewAuthService(users UserStore, sessions *session.Manager, hasher *PasswordHasher, log *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		log:      log,
	}
}

// Register creates an ordinary user account. It does not log the user in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	return s.CreateUser(ctx, in, entity.RoleUser)
}

// CreateUser validates in and stores a new account with the given role.
// Checks run in a fixed order and the first failure is returned.
func (s *AuthService) CreateUser(ctx context.Context, in RegisterInput, role entity.Role) (*entity.User, error) {
	if !role.Valid() {
		return nil, apperr.Validation("Unknown role")
	}

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)

	if in.Username == "" || in.Email == "" || strings.TrimSpace(in.Password) == "" || in.FullName == "" {
		return nil, apperr.Validation("All fields are required")
	}
	if utf8.RuneCountInString(in.Username) < minUsernameLen {
		return nil, apperr.Validation("Username must be at least 3 characters")
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLen {
		return nil, apperr.Validation("Password must be at least 6 characters")
	}
	if len(in.Password) > maxPasswordLen {
		return nil, apperr.Validation("Password must be at most 72 bytes")
	}

	taken, err := s.users.UsernameExists(ctx, in.Username)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("check username: %w", err))
	}
	if taken {
		return nil, errUsernameTaken
	}
	taken, err = s.users.EmailExists(ctx, in.Email)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("check email: %w", err))
	}
	if taken {
		return nil, errEmailTaken
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("hash password: %w", err))
	}

	u := &entity.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FullName:     in.FullName,
		Role:         role,
	}
	// A concurrent registration may still hit the unique constraints.
	if err := s.users.Create(ctx, u); err != nil {
		switch {
		case repository.IsUnique(err, "username"):
			return nil, errUsernameTaken
		case repository.IsUnique(err, "email"):
			return nil, errEmailTaken
		case repository.IsUnique(err, ""):
			return nil, apperr.Conflict("", "Username or email already exists")
		}
		return nil, apperr.Internal(fmt.Errorf("create user: %w", err))
	}

	s.log.Info("user registered", "user_id", u.ID, "username", u.Username, "role", u.Role)
	return u, nil
}

// Login checks the credentials and opens a session. identifier may be a
// username or an email address. The error never says which part was wrong.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*entity.User, *session.Session, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || strings.TrimSpace(password) == "" {
		return nil, nil, apperr.Validation("Username and password are required")
	}

	candidates, err := s.users.FindByLogin(ctx, identifier)
	if err != nil {
		return nil, nil, apperr.Internal(fmt.Errorf("find user: %w", err))
	}
	if len(candidates) == 0 {
		s.hasher.burn(password)
		s.log.Info("login failed", "identifier", identifier)
		return nil, nil, errBadLogin
	}

	var user *entity.User
	for _, c := range candidates {
		if s.hasher.Check(password, c.PasswordHash) {
			user = c
			break
		}
	}
	if user == nil {
		s.log.Info("login failed", "identifier", identifier)
		return nil, nil, errBadLogin
	}

	sess, err := s.sessions.Create(user)
	if err != nil {
		return nil, nil, apperr.Internal(fmt.Errorf("create session: %w", err))
	}
	s.log.Info("login", "user_id", user.ID, "username", user.Username, "role", user.Role)
	return user, sess, nil
}

// Logout ends the session for token. Unknown tokens are ignored.
func (s *AuthService) Logout(token string) {
	if token == "" {
		return
	}
	s.sessions.Invalidate(token)
}

// Authenticate resolves token to a live session and extends it.
func (s *AuthService) Authenticate(token string) (*session.Session, error) {
	sess, ok := s.sessions.Validate(token)
	if !ok {
		return nil, errNoSession
	}
	return sess, nil
}

// Profile loads the stored account behind sess.
func (s *AuthService) Profile(ctx context.Context, sess *session.Session) (*entity.User, error) {
	u, err := s.users.GetByID(ctx, sess.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("load user %d: %w", sess.UserID, err))
	}
	return u, nil
}
