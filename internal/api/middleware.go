package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/auth"
)

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, status: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.status = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

// Logging returns a structured access log middleware.
func Logging(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrapResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			logger.InfoContext(r.Context(), "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", wrapped.status),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}

// Gate enforces the configured authentication strategy: excluded paths
// pass, requests without credentials get 401, credentials that resolve
// to nobody get 403, and anything else continues with the user attached.
func (api *Api) Gate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		outcome, user, err := auth.Evaluate(r.Context(), api.auth, r)
		if err != nil {
			api.logger.ErrorContext(r.Context(), "authentication failed", "path", r.URL.Path, "error", err)
			api.metrics.AuthOutcome(api.auth.Name(), "error")
			writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
			return
		}
		api.metrics.AuthOutcome(api.auth.Name(), outcome.String())

		switch outcome {
		case auth.Unauthorized:
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		case auth.Forbidden:
			writeError(w, http.StatusForbidden, "Forbidden")
			return
		case auth.Authenticated:
			r = r.WithContext(auth.WithUser(r.Context(), user))
		}
		next.ServeHTTP(w, r)
	})
}
