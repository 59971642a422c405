package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/dannylekim/billsnap-sub000/internal/apperr"
	"github.com/dannylekim/billsnap-sub000/internal/models"
)

var (
	// ErrInvalidCredentials is returned for an unknown email or a wrong password.
	// The two cases are indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrMissingCredentials = errors.New("credentials required")
)

const minPasswordLength = 8

// AccountStorage is the subset of storage.Tx the authenticator needs.
type AccountStorage interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
}

// PasswordAuthenticator implements password-based authentication using bcrypt.
type PasswordAuthenticator struct {
	storage AccountStorage
	cost    int
}

var _ Authenticator = (*PasswordAuthenticator)(nil)

// NewPasswordAuthenticator creates a new password-based authenticator.
func NewPasswordAuthenticator(storage AccountStorage) *PasswordAuthenticator {
	return &PasswordAuthenticator{
		storage: storage,
		cost:    bcrypt.DefaultCost,
	}
}

// WithCost sets the bcrypt cost used for new hashes and returns a.
// Existing hashes keep verifying at whatever cost they were made with.
func (a *PasswordAuthenticator) WithCost(cost int) *PasswordAuthenticator {
	a.cost = cost
	return a
}

// ValidateCredential checks if the password meets minimum requirements.
func (a *PasswordAuthenticator) ValidateCredential(credential string) error {
	if len(credential) < minPasswordLength {
		return apperr.ErrWeakPassword
	}
	return nil
}

// Register creates a new account with a hashed password.
func (a *PasswordAuthenticator) Register(ctx context.Context, email, firstName, lastName, credential string) (*models.Account, error) {
	if err := a.ValidateCredential(credential); err != nil {
		return nil, err
	}

	_, err := a.storage.GetAccountByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: %s", apperr.ErrEmailAlreadyExists, models.NormalizeEmail(email))
	case !errors.Is(err, apperr.ErrAccountDoesNotExist):
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(credential), a.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := models.NewAccount(email, firstName, lastName, string(hashedPassword))
	if err := a.storage.CreateAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return account, nil
}

// Authenticate verifies the email and password, returning the account if valid.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, email, credential string) (*models.Account, error) {
	account, err := a.storage.GetAccountByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(credential)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return account, nil
}
