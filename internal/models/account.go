package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Account represents a registered person who can create, join and pay bills.
type Account struct {
	// ID is the unique identifier for the account (UUID format).
	ID string

	// Email is the account's unique email address.
	// Used to resolve invitations and to authorize answers.
	Email string

	FirstName string
	LastName  string

	// PasswordHash is the bcrypt hash of the account's password.
	PasswordHash string

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64
}

// NewAccount builds an Account with a fresh ID and normalized email.
func NewAccount(email, firstName, lastName, passwordHash string) *Account {
	return &Account{
		ID:           uuid.NewString(),
		Email:        NormalizeEmail(email),
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().Unix(),
	}
}

// NormalizeEmail lower-cases and trims an email for comparisons and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
