package middleware

import (
	"net/http"
	"slices"

	"github.com/opsportal/ops-portal/internal"
	"github.com/opsportal/ops-portal/internal/transport"
)

// RequireRoles lets the request through when the caller has one of roles.
func RequireRoles(base *transport.BaseHandler, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := base.Principal(w, r)
			if !ok {
				return
			}

			if !slices.Contains(roles, p.Role) {
				base.Logger.Warn("access denied: insufficient role",
					"user_id", p.UserID,
					"required_roles", roles,
					"role", p.Role)
				base.WriteAppError(w, r, internal.ErrUnauthorizedAccess)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func RequireAdmin(base *transport.BaseHandler) func(http.Handler) http.Handler {
	return RequireRoles(base, "admin")
}
