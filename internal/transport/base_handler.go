package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/opsportal/ops-portal/internal"
	"github.com/opsportal/ops-portal/internal/i18n"
	"github.com/opsportal/ops-portal/pkg/logger"
)

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger     *slog.Logger
	Translator *i18n.Translator
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger, translator *i18n.Translator) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg, Translator: translator}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteAppError writes err in the standard error envelope, localized for r.
func (h *BaseHandler) WriteAppError(w http.ResponseWriter, r *http.Request, err *internal.AppError) {
	if h.Translator != nil {
		localized := *err
		localized.Message = h.Translator.T(i18n.LocaleFromContext(r.Context()), string(err.Code), err.Message)
		err = &localized
	}
	status, body := err.ToHTTPResponse()
	h.WriteJSON(w, status, body)
}

// HandleServiceError maps service errors onto HTTP responses. Anything that
// is not an AppError is logged and reported as an internal error.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if appErr, ok := internal.IsAppError(err); ok {
		if appErr.StatusCode >= http.StatusInternalServerError {
			h.Logger.Error("service error", "error", err, "path", r.URL.Path)
		}
		h.WriteAppError(w, r, appErr)
		return
	}

	h.Logger.Error("unexpected service error", "error", err, "path", r.URL.Path)
	h.WriteAppError(w, r, internal.NewInternalError("Ocurrió un error interno.", err))
}

// DecodeJSON reads the request body into dst. Malformed bodies produce a
// validation AppError.
func (h *BaseHandler) DecodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return internal.NewValidationError("Cuerpo de la solicitud vacío", internal.ErrCodeValidationFailed)
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return internal.NewValidationError("Cuerpo de la solicitud inválido", internal.ErrCodeValidationFailed).WithCause(err)
	}
	return nil
}

// Principal returns the authenticated caller or writes a 401.
func (h *BaseHandler) Principal(w http.ResponseWriter, r *http.Request) (*internal.Principal, bool) {
	p, ok := internal.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, r, internal.ErrInvalidToken)
		return nil, false
	}
	return p, true
}

// ExtractTokenFromHeader extracts Bearer token from Authorization header
func (h *BaseHandler) ExtractTokenFromHeader(r *http.Request) string {
	return BearerToken(r)
}

func BearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "Bearer ") {
		return ""
	}

	return authHeader[7:]
}
