package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/dannylekim/billsnap-sub000/internal/apperr"
	"github.com/dannylekim/billsnap-sub000/internal/storage/sqlite"
)

func newTestAuthenticator(t *testing.T) *PasswordAuthenticator {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)
}

func TestPasswordAuthenticator(t *testing.T) {
	ctx := context.Background()
	a := newTestAuthenticator(t)

	account, err := a.Register(ctx, "Alice@Example.com", "Alice", "Liddell", "correct-horse")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if account.Email != "alice@example.com" {
		t.Errorf("expected normalized email, got %s", account.Email)
	}
	if account.PasswordHash == "correct-horse" {
		t.Error("password stored in plain text")
	}
	if cost, err := bcrypt.Cost([]byte(account.PasswordHash)); err != nil || cost != bcrypt.MinCost {
		t.Errorf("hash cost = %d (%v), want %d", cost, err, bcrypt.MinCost)
	}

	tests := []struct {
		name       string
		email      string
		credential string
		wantErr    error
	}{
		{"valid credentials", "alice@example.com", "correct-horse", nil},
		{"email is case-insensitive", "ALICE@example.com", "correct-horse", nil},
		{"wrong password", "alice@example.com", "battery-staple", ErrInvalidCredentials},
		{"unknown email", "bob@example.com", "correct-horse", ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.Authenticate(ctx, tt.email, tt.credential)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Authenticate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Authenticate() unexpected error: %v", err)
			}
			if got.ID != account.ID {
				t.Errorf("Authenticate() returned account %s, want %s", got.ID, account.ID)
			}
		})
	}
}

func TestRegisterRejects(t *testing.T) {
	ctx := context.Background()
	a := newTestAuthenticator(t)

	if _, err := a.Register(ctx, "short@example.com", "S", "P", "1234567"); !errors.Is(err, apperr.ErrWeakPassword) {
		t.Errorf("expected ErrWeakPassword, got %v", err)
	}

	if _, err := a.Register(ctx, "dup@example.com", "D", "U", "password1"); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	_, err := a.Register(ctx, " DUP@example.com", "D", "U", "password2")
	if !errors.Is(err, apperr.ErrEmailAlreadyExists) {
		t.Errorf("expected ErrEmailAlreadyExists, got %v", err)
	}
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("expected validation kind, got %s", apperr.KindOf(err))
	}
}
