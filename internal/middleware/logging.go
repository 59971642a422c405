// Package middleware provides HTTP middleware for the operational server.
package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Logging returns a middleware that logs every request.
// It logs the method, path, status and duration; server errors are logged
// at ERROR, client errors at WARN and everything else at the given level.
func Logging(logger *slog.Logger, level slog.Level) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"remote_addr", r.RemoteAddr,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			switch {
			case rec.status >= http.StatusInternalServerError:
				logger.Error("Request failed", attrs...)
			case rec.status >= http.StatusBadRequest:
				logger.Warn("Request rejected", attrs...)
			default:
				logger.Log(r.Context(), level, "Request completed", attrs...)
			}
		})
	}
}
