package schedule

import (
	"context"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/opsportal/ops-portal/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context) ([]WorkSchedule, error)
	Get(ctx context.Context, id string) (*WorkSchedule, error)
	Save(ctx context.Context, dto SaveScheduleDTO) (*WorkSchedule, error)
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

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	schedules, err := h.Service.List(r.Context())
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"schedules": schedules})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ws, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ws)
}

func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	var dto SaveScheduleDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	ws, err := h.Service.Save(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ws)
}
