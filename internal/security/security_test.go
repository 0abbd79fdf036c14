package security

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cwrk-planet/messenger/internal/domain"
)

func TestHashAndCompare(t *testing.T) {
	p := PasswordPolicy{Cost: 4}
	hash, err := HashPassword("s3cret-pass", p)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := ComparePassword(hash, "s3cret-pass"); err != nil {
		t.Fatalf("compare ok: %v", err)
	}
	if err := ComparePassword(hash, "nope"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("mismatch must be invalid credentials, got %v", err)
	}
}

func TestPasswordPolicy(t *testing.T) {
	if _, err := HashPassword("12345", PasswordPolicy{Cost: 4}); !errors.Is(err, domain.ErrPasswordTooShort) {
		t.Fatalf("expected too short, got %v", err)
	}
	strict := PasswordPolicy{Cost: 4, MinEntropyBits: 60}
	if err := strict.Check("aaaaaaaa"); !errors.Is(err, domain.ErrWeakPassword) {
		t.Fatalf("expected weak password, got %v", err)
	}
	if err := strict.Check("Tr0ub4dor&3-correct-horse"); err != nil {
		t.Fatalf("strong password rejected: %v", err)
	}
}

func TestNewInviteCode(t *testing.T) {
	a, err := NewInviteCode()
	if err != nil {
		t.Fatalf("invite code: %v", err)
	}
	b, _ := NewInviteCode()
	if a == b || len(a) != InviteCodeLen {
		t.Fatalf("unexpected codes %q %q", a, b)
	}
	if strings.ContainsAny(a, "+/=") {
		t.Fatalf("code is not url-safe: %q", a)
	}
	if !LooksLikeInviteCode(a) {
		t.Fatalf("fresh code rejected: %q", a)
	}
	for _, bad := range []string{"", "nope", a[:InviteCodeLen-1], a[:InviteCodeLen-1] + "=", strings.Repeat("a", InviteCodeLen+1)} {
		if LooksLikeInviteCode(bad) {
			t.Fatalf("%q must not look like an invite code", bad)
		}
	}
}

func TestTokenSigner_RoundTrip(t *testing.T) {
	s := NewTokenSigner("0123456789abcdef", "messenger", time.Hour, 30*time.Second)
	tok, err := s.Sign(42, "alice")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	claims, err := s.Parse(tok)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	id, err := claims.UserID()
	if err != nil || id != 42 || claims.Username != "alice" {
		t.Fatalf("claims mismatch: id=%d user=%q err=%v", id, claims.Username, err)
	}
}

func TestTokenSigner_Rejects(t *testing.T) {
	s := NewTokenSigner("0123456789abcdef", "messenger", time.Minute, 0)
	tok, _ := s.Sign(1, "bob")

	other := NewTokenSigner("fedcba9876543210", "messenger", time.Minute, 0)
	if _, err := other.Parse(tok); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("foreign secret must fail, got %v", err)
	}

	wrongIss := NewTokenSigner("0123456789abcdef", "someone-else", time.Minute, 0)
	if _, err := wrongIss.Parse(tok); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("issuer mismatch must fail, got %v", err)
	}

	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := s.Parse(tok); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expired token must fail, got %v", err)
	}

	if _, err := s.Parse("garbage"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("garbage must fail, got %v", err)
	}
}
