package financegate

import (
	"context"
	"net/http"
	"time"

	"github.com/opsportal/ops-portal/internal"
	"github.com/opsportal/ops-portal/internal/transport"
)

type Gate interface {
	IsUnlocked(ctx context.Context, sessionID string) (bool, time.Time, error)
}

// RequireUnlocked rejects finance requests from sessions without a live unlock.
func RequireUnlocked(gate Gate, base *transport.BaseHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := base.Principal(w, r)
			if !ok {
				return
			}
			unlocked, _, err := gate.IsUnlocked(r.Context(), p.SessionID)
			if err != nil {
				base.HandleServiceError(w, r, internal.NewInternalError("failed to check finance unlock", err))
				return
			}
			if !unlocked {
				base.WriteAppError(w, r, ErrFinanceLocked)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
