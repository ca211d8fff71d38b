package middleware

import (
	"net/http"

	"github.com/opsportal/ops-portal/internal"
	"github.com/opsportal/ops-portal/pkg/logger"
)

// UserContext adds the authenticated caller to the request logger. It runs
// after the auth middleware; anonymous requests pass through untouched.
func UserContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := internal.PrincipalFromContext(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		ctx := logger.With(r.Context(), "user_id", p.UserID, "session_id", p.SessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
