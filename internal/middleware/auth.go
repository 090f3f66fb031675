package middleware

import (
	"net/http"

	"github.com/pliu/attention-tracker/internal/auth"
)

const realm = `Basic realm="attention-tracker"`

// BasicAuth rejects requests without valid credentials. A nil creds disables
// the check and returns next unchanged.
func BasicAuth(creds *auth.Credentials) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if creds == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || !creds.Check(user, pass) {
				w.Header().Set("WWW-Authenticate", realm)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
