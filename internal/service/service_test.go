package service

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"studentrecords/internal/clock"
	"studentrecords/internal/entity"
	"studentrecords/internal/repository"
	"studentrecords/internal/session"
	"studentrecords/internal/testutil"
)

type fixture struct {
	auth     *AuthService
	students *StudentService
	sessions *session.Manager
	clock    *clock.Fake
	users    *repository.UserRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.OpenDB(t)
	log := testutil.Logger()

	hasher, err := NewPasswordHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	fake := clock.NewFake(epoch)
	sessions := session.NewManager(session.DefaultIdleTimeout, session.WithClock(fake))
	users := repository.NewUserRepository(db)

	return &fixture{
		auth:     NewAuthService(users, sessions, hasher, log),
		students: NewStudentService(repository.NewStudentRepository(db), fake, log),
		sessions: sessions,
		clock:    fake,
		users:    users,
	}
}

func (f *fixture) register(t *testing.T, username string, role entity.Role) *entity.User {
	t.Helper()
	u, err := f.auth.CreateUser(context.Background(), RegisterInput{
		Username: username,
		Email:    username + "@x.com",
		Password: "secret1",
		FullName: username + " full",
	}, role)
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return u
}

func (f *fixture) login(t *testing.T, username string) *session.Session {
	t.Helper()
	_, sess, err := f.auth.Login(context.Background(), username, "secret1")
	if err != nil {
		t.Fatalf("login %s: %v", username, err)
	}
	return sess
}
