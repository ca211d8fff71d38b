package summary

import (
	"context"
	"net/http"
	"time"

	"github.com/opsportal/ops-portal/internal"
	"github.com/opsportal/ops-portal/internal/transport"
)

type ServiceAPI interface {
	WeeklyForUser(ctx context.Context, userID string, weekOf time.Time) (*WeeklySummary, error)
	LifetimeForUser(ctx context.Context, userID string) (*BalanceSummary, error)
	MonthlyForUser(ctx context.Context, userID, monthKey string) (*BalanceSummary, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	now     internal.Clock
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, now internal.Clock) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		now:         now,
	}
}

// targetUser lets admins read another user's summary through ?userId=.
func (h *Handler) targetUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	p, ok := h.Principal(w, r)
	if !ok {
		return "", false
	}
	if other := r.URL.Query().Get("userId"); other != "" && other != p.UserID {
		if !p.IsAdmin() {
			h.WriteAppError(w, r, internal.ErrUnauthorizedAccess)
			return "", false
		}
		return other, true
	}
	return p.UserID, true
}

func (h *Handler) Week(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.targetUser(w, r)
	if !ok {
		return
	}
	weekOf := h.now()
	if v := r.URL.Query().Get("weekOf"); v != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, v, weekOf.Location())
		if err != nil {
			h.WriteAppError(w, r, internal.NewValidationFieldError("weekOf", "weekOf debe tener formato AAAA-MM-DD", internal.ErrCodeInvalidDate))
			return
		}
		weekOf = parsed
	}
	summary, err := h.Service.WeeklyForUser(r.Context(), userID, weekOf)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) Month(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.targetUser(w, r)
	if !ok {
		return
	}
	month := r.URL.Query().Get("month")
	if month == "" {
		month = h.now().Format("2006-01")
	}
	summary, err := h.Service.MonthlyForUser(r.Context(), userID, month)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.targetUser(w, r)
	if !ok {
		return
	}
	summary, err := h.Service.LifetimeForUser(r.Context(), userID)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, summary)
}
