package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cwrk-planet/messenger/internal/domain"
	"github.com/cwrk-planet/messenger/internal/security"

	"golang.org/x/crypto/bcrypt"
)

func newAuth(t *testing.T) (*AuthService, *memDB) {
	t.Helper()

	db := newMemDB()
	signer := security.NewTokenSigner("test-secret-0123456789", "messenger", time.Hour, time.Minute)
	policy := security.PasswordPolicy{Cost: bcrypt.MinCost, MinLength: 6}
	return NewAuthService(db.repos().Users, signer, policy, nil, nil), db
}

func TestAuth_RegisterLoginAuthenticate(t *testing.T) {
	s, _ := newAuth(t)
	ctx := context.Background()

	reg, err := s.Register(ctx, "  Alice ", "secret1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if reg.User.Username != "alice" {
		t.Fatalf("username = %q, want lowercased", reg.User.Username)
	}
	if reg.AccessToken == "" || reg.ExpiresIn != time.Hour {
		t.Fatalf("token result = %+v", reg)
	}

	login, err := s.Login(ctx, "ALICE", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	who, err := s.Authenticate(ctx, login.AccessToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if who.Username != "alice" || who.ID != reg.User.ID {
		t.Fatalf("who = %+v", who)
	}
}

func TestAuth_Failures(t *testing.T) {
	s, _ := newAuth(t)
	ctx := context.Background()

	if _, err := s.Register(ctx, "alice", "secret1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := s.Register(ctx, "ALICE", "secret2"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("duplicate err = %v", err)
	}
	if _, err := s.Register(ctx, "bob", "123"); !errors.Is(err, domain.ErrPasswordTooShort) {
		t.Fatalf("short password err = %v", err)
	}
	if _, err := s.Register(ctx, "a_b", "secret1"); !errors.Is(err, domain.ErrInvalidUsername) {
		t.Fatalf("underscore err = %v", err)
	}
	if _, err := s.Register(ctx, "Group", "secret1"); !errors.Is(err, domain.ErrReservedUsername) {
		t.Fatalf("reserved name err = %v", err)
	}
	if _, err := s.Login(ctx, "alice", "wrong-pass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("wrong password err = %v", err)
	}
	if _, err := s.Login(ctx, "nobody", "secret1"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown user err = %v", err)
	}
	if _, err := s.Authenticate(ctx, "garbage"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("garbage token err = %v", err)
	}
}

func TestAuth_ChangeUsernameAndPassword(t *testing.T) {
	s, _ := newAuth(t)
	ctx := context.Background()

	reg, _ := s.Register(ctx, "alice", "secret1")
	s.Register(ctx, "bob", "secret1")

	if _, err := s.ChangeUsername(ctx, reg.User.ID, "bob"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("taken name err = %v", err)
	}
	if _, err := s.ChangeUsername(ctx, reg.User.ID, "al"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("short name err = %v", err)
	}
	res, err := s.ChangeUsername(ctx, reg.User.ID, "alicia")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	who, _ := s.Authenticate(ctx, res.AccessToken)
	if who.Username != "alicia" {
		t.Fatalf("who = %+v", who)
	}

	if err := s.ChangePassword(ctx, reg.User.ID, "nope", "another1"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("bad old password err = %v", err)
	}
	if err := s.ChangePassword(ctx, reg.User.ID, "secret1", "short"); !errors.Is(err, domain.ErrPasswordTooShort) {
		t.Fatalf("short new password err = %v", err)
	}
	if err := s.ChangePassword(ctx, reg.User.ID, "secret1", "another1"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if _, err := s.Login(ctx, "alicia", "another1"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}
