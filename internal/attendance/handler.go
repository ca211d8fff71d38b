package attendance

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/opsportal/ops-portal/internal"
	"github.com/opsportal/ops-portal/internal/transport"
)

type ServiceAPI interface {
	Today(ctx context.Context, userID string) (*TodayView, error)
	CheckIn(ctx context.Context, userID string) (*Record, error)
	StartBreak(ctx context.Context, userID string) (*Record, error)
	EndBreak(ctx context.Context, userID string) (*Record, error)
	CheckOut(ctx context.Context, userID string) (*Record, error)
	SaveNote(ctx context.Context, userID string, dto SaveNoteDTO) (*Record, error)
	ListRecordsForWeek(ctx context.Context, userID string, weekOf time.Time) ([]Record, error)
	ListRecordsForRange(ctx context.Context, userID, from, to string) ([]Record, error)
	CreateExtra(ctx context.Context, userID string, dto CreateExtraDTO) (*ExtraActivity, error)
	ListExtras(ctx context.Context, userID string) ([]ExtraActivity, error)
	ReviewExtra(ctx context.Context, id, reviewerID string, approve bool) (*ExtraActivity, error)
	CreateRequest(ctx context.Context, userID string, dto CreateRequestDTO) (*Request, error)
	ListRequests(ctx context.Context, userID string, status ReviewStatus) ([]Request, error)
	ReviewRequest(ctx context.Context, id, reviewerID string, approve bool) (*Request, error)
	CreateCorrection(ctx context.Context, userID string, dto CreateCorrectionDTO) (*CorrectionRequest, error)
	ListCorrections(ctx context.Context, userID string) ([]CorrectionRequest, error)
	ReviewCorrection(ctx context.Context, id, reviewerID string, approve bool) (*CorrectionRequest, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	now     internal.Clock
}

// NewHandler takes the clock that decides the default week; pass one in the
// ledger's zone.
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

func (h *Handler) Today(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	view, err := h.Service.Today(r.Context(), p.UserID)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.Service.CheckIn, http.StatusCreated)
}

func (h *Handler) StartBreak(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.Service.StartBreak, http.StatusOK)
}

func (h *Handler) EndBreak(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.Service.EndBreak, http.StatusOK)
}

func (h *Handler) CheckOut(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.Service.CheckOut, http.StatusOK)
}

func (h *Handler) runTransition(w http.ResponseWriter, r *http.Request, fn func(context.Context, string) (*Record, error), status int) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	rec, err := fn(r.Context(), p.UserID)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, status, rec)
}

func (h *Handler) SaveNote(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	var dto SaveNoteDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	rec, err := h.Service.SaveNote(r.Context(), p.UserID, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, rec)
}

// Week lists the records of the week containing ?weekOf=, defaulting to the
// current week.
func (h *Handler) Week(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("weekOf") == "" {
		q := r.URL.Query()
		q.Set("weekOf", h.now().Format(time.DateOnly))
		r.URL.RawQuery = q.Encode()
	}
	h.ListRecords(w, r)
}

// ListRecords accepts either ?weekOf=YYYY-MM-DD or a ?from=&to= range.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()

	var (
		records []Record
		err     error
	)
	if weekOf := q.Get("weekOf"); weekOf != "" {
		day, parseErr := time.ParseInLocation(time.DateOnly, weekOf, h.now().Location())
		if parseErr != nil {
			h.HandleServiceError(w, r, internal.NewValidationFieldError("weekOf", "weekOf debe tener formato AAAA-MM-DD", internal.ErrCodeInvalidDate))
			return
		}
		records, err = h.Service.ListRecordsForWeek(r.Context(), p.UserID, day)
	} else {
		records, err = h.Service.ListRecordsForRange(r.Context(), p.UserID, q.Get("from"), q.Get("to"))
	}
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"records": records})
}

func (h *Handler) CreateExtra(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	var dto CreateExtraDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	extra, err := h.Service.CreateExtra(r.Context(), p.UserID, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, extra)
}

func (h *Handler) ListExtras(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	extras, err := h.Service.ListExtras(r.Context(), scopeUser(p, r))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"extras": extras})
}

func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	var dto CreateRequestDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	req, err := h.Service.CreateRequest(r.Context(), p.UserID, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, req)
}

func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	status := ReviewStatus(r.URL.Query().Get("status"))
	requests, err := h.Service.ListRequests(r.Context(), scopeUser(p, r), status)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"requests": requests})
}

func (h *Handler) CreateCorrection(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	var dto CreateCorrectionDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	c, err := h.Service.CreateCorrection(r.Context(), p.UserID, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) ListCorrections(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	corrections, err := h.Service.ListCorrections(r.Context(), scopeUser(p, r))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"corrections": corrections})
}

func (h *Handler) ReviewRequest(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, func(ctx context.Context, id, reviewerID string, approve bool) (interface{}, error) {
		return h.Service.ReviewRequest(ctx, id, reviewerID, approve)
	})
}

func (h *Handler) ReviewExtra(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, func(ctx context.Context, id, reviewerID string, approve bool) (interface{}, error) {
		return h.Service.ReviewExtra(ctx, id, reviewerID, approve)
	})
}

func (h *Handler) ReviewCorrection(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, func(ctx context.Context, id, reviewerID string, approve bool) (interface{}, error) {
		return h.Service.ReviewCorrection(ctx, id, reviewerID, approve)
	})
}

type reviewFunc func(ctx context.Context, id, reviewerID string, approve bool) (interface{}, error)

func (h *Handler) review(w http.ResponseWriter, r *http.Request, fn reviewFunc) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	var dto ReviewDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	result, err := fn(r.Context(), chi.URLParam(r, "id"), p.UserID, dto.Approve)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, result)
}

// scopeUser limits listings to the caller unless an admin asks for ?all=true.
func scopeUser(p *internal.Principal, r *http.Request) string {
	if p.IsAdmin() && r.URL.Query().Get("all") == "true" {
		return ""
	}
	return p.UserID
}
