package middleware

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/google/uuid"
	"github.com/opsportal/ops-portal/pkg/logger"
)

const RequestIDHeader = "X-Request-Id"

// RequestContext seeds the request-scoped logger from base, tagged with the
// request id, method and path, and echoes the id in X-Request-Id. An id set by
// chi's RequestID middleware wins over the incoming header.
func RequestContext(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := middleware.GetReqID(r.Context())
			if id == "" {
				id = r.Header.Get(RequestIDHeader)
			}
			if id == "" {
				id = uuid.NewString()
			}

			lg := base.With("request_id", id, "method", r.Method, "path", r.URL.Path)
			w.Header().Set(RequestIDHeader, id)
			next.ServeHTTP(w, r.WithContext(logger.NewContext(r.Context(), lg)))
		})
	}
}
