// Package auth registers accounts and checks their credentials.
package auth

import (
	"context"

	"github.com/dannylekim/billsnap-sub000/internal/models"
)

// Authenticator defines the interface for authentication implementations.
// Bill operations identify callers by email; an Authenticator is what turns
// a credential into that email.
type Authenticator interface {
	// Register creates a new account with the given email and credential.
	// Returns the created account or an error if registration fails.
	Register(ctx context.Context, email, firstName, lastName, credential string) (*models.Account, error)

	// Authenticate verifies the credential and returns the account if successful.
	Authenticate(ctx context.Context, email, credential string) (*models.Account, error)

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}
