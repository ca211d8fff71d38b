package financegate

import (
	"context"
	"net/http"
	"time"

	"github.com/opsportal/ops-portal/internal/transport"
)

type ServiceAPI interface {
	Gate
	Unlock(ctx context.Context, sessionID, pin string) (time.Time, error)
	Lock(ctx context.Context, sessionID string) error
	Status(ctx context.Context, sessionID string) (*StatusResponse, error)
	SetKey(ctx context.Context, dto SetKeyDTO) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) Unlock(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	var dto UnlockDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	expiresAt, err := h.Service.Unlock(r.Context(), p.SessionID, dto.PIN)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	ms := expiresAt.UnixMilli()
	h.WriteJSON(w, http.StatusOK, StatusResponse{Unlocked: true, Configured: true, ExpiresAt: &ms})
}

func (h *Handler) Lock(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	if err := h.Service.Lock(r.Context(), p.SessionID); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	status, err := h.Service.Status(r.Context(), p.SessionID)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, status)
}

func (h *Handler) SetKey(w http.ResponseWriter, r *http.Request) {
	var dto SetKeyDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	if err := h.Service.SetKey(r.Context(), dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
