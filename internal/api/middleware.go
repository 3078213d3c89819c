package api

import (
	"net"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/7shantanu7/CodeSync-CMPE-281/internal/ratelimit"
	"github.com/7shantanu7/CodeSync-CMPE-281/internal/security"
)

const bearerPrefix = "bearer "

// Auth returns middleware that validates the Bearer token from the
// Authorization header and sets the identity in context for protected routes.
func Auth(tokens *security.TokenProvider) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearer(r)
			if token == "" {
				RespondError(w, http.StatusUnauthorized, "missing or invalid authorization")
				return
			}
			id, err := tokens.Verify(token)
			if err != nil {
				RespondError(w, http.StatusUnauthorized, "missing or invalid authorization")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), *id)))
		})
	}
}

// RateLimit returns middleware enforcing the limiter per client IP. A nil
// limiter disables limiting.
func RateLimit(l *ratelimit.Limiter) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(r.Context(), clientIP(r)) {
				RespondError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractBearer returns the Bearer token from the Authorization header, or ""
// if missing or malformed.
func extractBearer(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}

// clientIP returns the first X-Forwarded-For hop when present, else the
// connection's remote host.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
