package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dannylekim/billsnap-sub000/internal/apperr"
)

// envelope is the standard response wrapper.
type envelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON sends data with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: status < http.StatusBadRequest, Data: data}); err != nil {
		slog.Warn("Failed to encode response", "error", err)
	}
}

// writeErrorCode sends an error with an explicit status and code.
func writeErrorCode(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Error: &apiError{Code: code, Message: message}}); err != nil {
		slog.Warn("Failed to encode error response", "error", err)
	}
}

// writeError maps err to a status through its apperr kind. Untyped errors
// are reported as a generic internal error.
func writeError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		writeErrorCode(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	writeErrorCode(w, kind.HTTPStatus(), apperr.Code(err), err.Error())
}

func badRequest(w http.ResponseWriter, message string) {
	writeErrorCode(w, http.StatusBadRequest, "BAD_REQUEST", message)
}

func unauthorized(w http.ResponseWriter, err error) {
	writeErrorCode(w, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
}
