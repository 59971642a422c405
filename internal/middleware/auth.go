package middleware

import (
	"context"
	"net/http"

	"github.com/dannylekim/billsnap-sub000/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// AccountIDKey is the context key for storing the authenticated account ID.
	AccountIDKey contextKey = "account_id"
	// EmailKey is the context key for storing the authenticated account's email.
	EmailKey contextKey = "email"
)

// GetAccountID extracts the account ID from the context.
// Returns empty string if not found.
func GetAccountID(ctx context.Context) string {
	accountID, _ := ctx.Value(AccountIDKey).(string)
	return accountID
}

// GetEmail extracts the account email from the context.
// Returns empty string if not found.
func GetEmail(ctx context.Context) string {
	email, _ := ctx.Value(EmailKey).(string)
	return email
}

// RequireAuth returns a middleware that checks HTTP Basic credentials with
// authenticator and adds the account ID and email to the request context.
// onFail writes the response for missing or invalid credentials.
func RequireAuth(authenticator auth.Authenticator, onFail func(http.ResponseWriter, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email, password, ok := r.BasicAuth()
			if !ok {
				w.Header().Set("WWW-Authenticate", `Basic realm="billsnap"`)
				onFail(w, auth.ErrMissingCredentials)
				return
			}

			account, err := authenticator.Authenticate(r.Context(), email, password)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Basic realm="billsnap"`)
				onFail(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), AccountIDKey, account.ID)
			ctx = context.WithValue(ctx, EmailKey, account.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
