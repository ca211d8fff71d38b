package category

import (
	"context"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/opsportal/ops-portal/internal/transport"
)

type ServiceAPI interface {
	GetAllCategories(ctx context.Context, kind Kind) ([]CategoryResponse, error)
	GetCategoryByName(ctx context.Context, name string) (*CategoryResponse, error)
	IsValidCategory(ctx context.Context, name string) bool
	CreateCategory(ctx context.Context, dto CreateCategoryDTO) (*Category, error)
	DeactivateCategory(ctx context.Context, id string) (*Category, error)
	ActivateCategory(ctx context.Context, id string) (*Category, error)
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

func (h *Handler) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Service.GetAllCategories(r.Context(), Kind(r.URL.Query().Get("kind")))
	if err != nil {
		h.Logger.Error("GetCategories: failed to get categories", "error", err)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, CategoriesResponse{
		Categories: categories,
	})
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var dto CreateCategoryDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	c, err := h.Service.CreateCategory(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) DeactivateCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.Service.DeactivateCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) ActivateCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.Service.ActivateCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, c)
}
