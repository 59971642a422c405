package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dannylekim/billsnap-sub000/internal/auth"
	"github.com/dannylekim/billsnap-sub000/internal/models"
)

type stubAuthenticator struct {
	account *models.Account
}

func (s stubAuthenticator) Register(ctx context.Context, email, firstName, lastName, credential string) (*models.Account, error) {
	return nil, errors.New("not implemented")
}

func (s stubAuthenticator) Authenticate(ctx context.Context, email, credential string) (*models.Account, error) {
	if email != s.account.Email || credential != "secret" {
		return nil, auth.ErrInvalidCredentials
	}
	return s.account, nil
}

func (s stubAuthenticator) ValidateCredential(credential string) error { return nil }

func TestRequireAuth(t *testing.T) {
	authenticator := stubAuthenticator{account: &models.Account{ID: "acc-1", Email: "alice@example.com"}}

	tests := []struct {
		name      string
		email     string
		password  string
		noAuth    bool
		wantCode  int
		wantErr   error
		wantEmail string
	}{
		{name: "valid", email: "alice@example.com", password: "secret", wantCode: http.StatusOK, wantEmail: "alice@example.com"},
		{name: "wrong password", email: "alice@example.com", password: "nope", wantCode: http.StatusUnauthorized, wantErr: auth.ErrInvalidCredentials},
		{name: "missing header", noAuth: true, wantCode: http.StatusUnauthorized, wantErr: auth.ErrMissingCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotErr error
			var gotEmail, gotID string
			handler := RequireAuth(authenticator, func(w http.ResponseWriter, err error) {
				gotErr = err
				w.WriteHeader(http.StatusUnauthorized)
			})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotEmail = GetEmail(r.Context())
				gotID = GetAccountID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if !tt.noAuth {
				req.SetBasicAuth(tt.email, tt.password)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantCode)
			}
			if !errors.Is(gotErr, tt.wantErr) {
				t.Errorf("onFail error = %v, want %v", gotErr, tt.wantErr)
			}
			if gotEmail != tt.wantEmail {
				t.Errorf("email in context = %q, want %q", gotEmail, tt.wantEmail)
			}
			if tt.wantEmail != "" && gotID != "acc-1" {
				t.Errorf("account id in context = %q, want acc-1", gotID)
			}
			if tt.wantErr != nil && rr.Header().Get("WWW-Authenticate") == "" {
				t.Error("expected WWW-Authenticate header")
			}
		})
	}
}
