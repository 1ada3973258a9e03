package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"contas/internal/core"
	"contas/internal/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { repo.Close() })
	return NewService(repo, bcrypt.MinCost, time.Hour)
}

func TestSignupAndLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	account, token, err := svc.Signup(ctx, "Alice", "alice@example.com", "correcthorse")
	if err != nil {
		t.Fatal(err)
	}
	if token == "" {
		t.Fatal("signup should issue a token")
	}
	if account.PasswordHash == "correcthorse" {
		t.Fatal("password must not be stored in clear")
	}

	resolved, err := svc.Resolve(token)
	if err != nil || resolved != account.ID {
		t.Fatalf("token should resolve to the account, got %q (%v)", resolved, err)
	}

	if _, _, err := svc.Login(ctx, "alice@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password should fail, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email should fail identically, got %v", err)
	}

	got, loginToken, err := svc.Login(ctx, "Alice@Example.com", "correcthorse")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != account.ID || loginToken == "" {
		t.Fatal("login should return the account with a fresh token")
	}
}

func TestSignupValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name, userName, email, password string
	}{
		{"empty name", "", "a@example.com", "longenough"},
		{"bad email", "Bob", "not-an-email", "longenough"},
		{"short password", "Bob", "bob@example.com", "short"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := svc.Signup(ctx, tc.userName, tc.email, tc.password); !errors.Is(err, core.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	if _, _, err := svc.Signup(ctx, "Bob", "bob@example.com", "longenough"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.Signup(ctx, "Bob2", "bob@example.com", "longenough"); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("duplicate email should be rejected, got %v", err)
	}
}

func TestTokenExpiry(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, token, err := svc.Signup(ctx, "Carol", "carol@example.com", "longenough")
	if err != nil {
		t.Fatal(err)
	}

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := svc.Resolve(token); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expired token should not resolve, got %v", err)
	}
}

func TestRevoke(t *testing.T) {
	svc := newTestService(t)
	_, token, err := svc.Signup(context.Background(), "Dave", "dave@example.com", "longenough")
	if err != nil {
		t.Fatal(err)
	}
	svc.Revoke(token)
	if _, err := svc.Resolve(token); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("revoked token should not resolve, got %v", err)
	}
}
