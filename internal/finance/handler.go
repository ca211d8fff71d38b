package finance

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/opsportal/ops-portal/internal/transport"
)

type ServiceAPI interface {
	CreateTransaction(ctx context.Context, in TransactionInput) (*CreateResult, error)
	Record(ctx context.Context, in TransactionInput, confirmDuplicate bool, createdBy string) (*CreateResult, error)
	ListTransactions(ctx context.Context, f Filter) ([]Transaction, error)
	ReplaceTransactions(ctx context.Context, txs []Transaction) error
	ListAccounts(ctx context.Context) ([]Account, error)
	SaveAccount(ctx context.Context, dto SaveAccountDTO) (*Account, error)
	AccountBalances(ctx context.Context, monthKey string) ([]AccountBalance, error)
	Movements(ctx context.Context, monthKey string) ([]Movement, error)
	KPIs(ctx context.Context, monthKey string) (*KPIs, error)
	Groupings(ctx context.Context, monthKey string) (*Groupings, error)
	CloseMonth(ctx context.Context, monthKey, closedBy string) (*MonthClosure, error)
	ListClosures(ctx context.Context) ([]MonthClosure, error)
	ExportMonth(ctx context.Context, monthKey string, w io.Writer) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	now     func() time.Time
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		now:         now,
	}
}

func (h *Handler) month(r *http.Request) string {
	if m := r.URL.Query().Get("month"); m != "" {
		return m
	}
	return h.now().Format("2006-01")
}

type recordRequest struct {
	TransactionInput
	ConfirmDuplicate bool `json:"confirmDuplicate"`
}

// Preview runs duplicate detection without saving.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var in TransactionInput
	if err := h.DecodeJSON(r, &in); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	result, err := h.Service.CreateTransaction(r.Context(), in)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	var req recordRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	result, err := h.Service.Record(r.Context(), req.TransactionInput, req.ConfirmDuplicate, p.UserID)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	txs, err := h.Service.ListTransactions(r.Context(), Filter{
		MonthKey:  q.Get("month"),
		Type:      TransactionType(q.Get("type")),
		Status:    TransactionStatus(q.Get("status")),
		AccountID: AccountID(q.Get("account")),
	})
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"transactions": txs})
}

func (h *Handler) ReplaceTransactions(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Transactions []Transaction `json:"transactions"`
	}
	if err := h.DecodeJSON(r, &body); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	if err := h.Service.ReplaceTransactions(r.Context(), body.Transactions); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"count": len(body.Transactions)})
}

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	balances, err := h.Service.AccountBalances(r.Context(), r.URL.Query().Get("month"))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"accounts": balances})
}

func (h *Handler) SaveAccount(w http.ResponseWriter, r *http.Request) {
	var dto SaveAccountDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	account, err := h.Service.SaveAccount(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, account)
}

func (h *Handler) Movements(w http.ResponseWriter, r *http.Request) {
	movements, err := h.Service.Movements(r.Context(), r.URL.Query().Get("month"))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"movements": movements})
}

func (h *Handler) KPIs(w http.ResponseWriter, r *http.Request) {
	k, err := h.Service.KPIs(r.Context(), h.month(r))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, k)
}

func (h *Handler) Groupings(w http.ResponseWriter, r *http.Request) {
	g, err := h.Service.Groupings(r.Context(), h.month(r))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, g)
}

func (h *Handler) CloseMonth(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	var body struct {
		MonthKey string `json:"monthKey"`
	}
	if err := h.DecodeJSON(r, &body); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	closure, err := h.Service.CloseMonth(r.Context(), body.MonthKey, p.UserID)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, closure)
}

func (h *Handler) ListClosures(w http.ResponseWriter, r *http.Request) {
	closures, err := h.Service.ListClosures(r.Context())
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"closures": closures})
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	month := h.month(r)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="finanzas-%s.xlsx"`, month))

	var buf bytes.Buffer
	if err := h.Service.ExportMonth(r.Context(), month, &buf); err != nil {
		w.Header().Del("Content-Disposition")
		h.HandleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.Logger.Error("failed to write export", "month", month, "error", err)
	}
}
