package middleware

import (
	"log/slog"
	"net/http"
)

// CSRFHeader carries the agent's anti-forgery token
const CSRFHeader = "X-CSRF-Token"

// TokenValidator checks a submitted CSRF token
type TokenValidator interface {
	Valid(submitted string) bool
}

// CSRF rejects state-changing requests that don't carry a valid token in
// the X-CSRF-Token header. Safe methods pass through.
func CSRF(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			if !validator.Valid(r.Header.Get(CSRFHeader)) {
				slog.Warn("CSRF validation failed",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("origin", r.Header.Get("Origin")),
					slog.String("remote_addr", r.RemoteAddr),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"Forbidden"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isSafeMethod(method string) bool {
	return method == http.MethodGet ||
		method == http.MethodHead ||
		method == http.MethodOptions
}
