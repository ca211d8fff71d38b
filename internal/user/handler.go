package user

import (
	"context"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/opsportal/ops-portal/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context) ([]ProfileResponse, error)
	Create(ctx context.Context, dto CreateUserDTO) (*Profile, error)
	Register(ctx context.Context, dto RegisterDTO) (*Profile, error)
	UpdateRole(ctx context.Context, uid string, dto UpdateRoleDTO) (*Profile, error)
	SetActive(ctx context.Context, uid string, active bool) (*Profile, error)
	Approve(ctx context.Context, uid string) (*Profile, error)
	AssignSchedule(ctx context.Context, uid string, dto AssignScheduleDTO) (*Profile, error)
	UpdateProfile(ctx context.Context, uid string, dto UpdateProfileDTO) (*Profile, error)
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
	users, err := h.Service.List(r.Context())
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var dto CreateUserDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated)(h.Service.Create(r.Context(), dto))
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var dto RegisterDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated)(h.Service.Register(r.Context(), dto))
}

func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var dto UpdateRoleDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK)(h.Service.UpdateRole(r.Context(), chi.URLParam(r, "uid"), dto))
}

func (h *Handler) SetActive(w http.ResponseWriter, r *http.Request) {
	var dto SetActiveDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK)(h.Service.SetActive(r.Context(), chi.URLParam(r, "uid"), dto.Active))
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK)(h.Service.Approve(r.Context(), chi.URLParam(r, "uid")))
}

func (h *Handler) AssignSchedule(w http.ResponseWriter, r *http.Request) {
	var dto AssignScheduleDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK)(h.Service.AssignSchedule(r.Context(), chi.URLParam(r, "uid"), dto))
}

// UpdateProfile edits the caller's own profile.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	var dto UpdateProfileDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK)(h.Service.UpdateProfile(r.Context(), p.UserID, dto))
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int) func(*Profile, error) {
	return func(p *Profile, err error) {
		if err != nil {
			h.HandleServiceError(w, r, err)
			return
		}
		h.WriteJSON(w, status, p.ToResponse())
	}
}
