package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/opsportal/ops-portal/api"
	"github.com/opsportal/ops-portal/internal/attendance"
	"github.com/opsportal/ops-portal/internal/auth"
	"github.com/opsportal/ops-portal/internal/category"
	"github.com/opsportal/ops-portal/internal/finance"
	"github.com/opsportal/ops-portal/internal/financegate"
	"github.com/opsportal/ops-portal/internal/i18n"
	"github.com/opsportal/ops-portal/internal/schedule"
	"github.com/opsportal/ops-portal/internal/session"
	"github.com/opsportal/ops-portal/internal/store"
	"github.com/opsportal/ops-portal/internal/summary"
	"github.com/opsportal/ops-portal/internal/transport"
	"github.com/opsportal/ops-portal/internal/transport/rest"
	"github.com/opsportal/ops-portal/internal/user"
	"github.com/opsportal/ops-portal/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

var _ = Describe("RegisterAllRoutes", func() {
	var (
		router  *chi.Mux
		users   *user.Service
		pingers map[string]rest.Pinger
	)

	build := func() {
		lg := logger.Discard()
		st := store.New(store.NewMemoryBackend(), lg)
		sessions := session.NewMemoryStore(time.Now)
		translator, err := i18n.New("es")
		Expect(err).NotTo(HaveOccurred())
		base := transport.NewBaseHandler(lg, translator)

		users = user.NewService(user.NewStoreRepository(st), lg, user.WithBCryptCost(bcrypt.MinCost))
		schedules := schedule.NewService(schedule.NewStoreRepository(st), lg)
		attendanceSvc := attendance.NewService(attendance.NewStoreRepository(st), lg)
		categories := category.NewService(category.NewStoreRepository(st), lg)
		refs, err := finance.NewSnowflakeReferences(1)
		Expect(err).NotTo(HaveOccurred())
		financeSvc := finance.NewService(finance.NewStoreRepository(st), refs, lg, finance.WithCategoryValidator(categories))
		gate := financegate.NewService(financegate.NewStoreRepository(st), sessions, lg)
		authSvc := auth.NewService(users, auth.NewJWTTokenGenerator("router-test-secret-0123456789abcdef", time.Hour), sessions, lg, time.Hour)

		if pingers == nil {
			pingers = map[string]rest.Pinger{"store": st, "sessions": sessions}
		}

		router = chi.NewRouter()
		rest.RegisterAllRoutes(router, rest.Handlers{
			Base:       base,
			Translator: translator,
			Health:     rest.NewHealthHandler(pingers),
			Auth:       auth.NewHandler(base, authSvc),
			User:       user.NewHandler(base, users),
			Attendance: attendance.NewHandler(base, attendanceSvc, time.Now),
			Summary:    summary.NewHandler(base, summary.NewService(attendanceSvc, schedules, users, lg), time.Now),
			Schedule:   schedule.NewHandler(base, schedules),
			Category:   category.NewHandler(base, categories),
			Finance:    finance.NewHandler(base, financeSvc, time.Now),
			FinanceKey: financegate.NewHandler(base, gate),
			OpenAPI:    api.OpenAPI,
		}, lg)
	}

	do := func(method, path, token string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	login := func(email, portal string) string {
		rec := do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"email": email, "password": "secret123", "portal": portal,
		})
		Expect(rec.Code).To(Equal(http.StatusOK), rec.Body.String())
		var resp auth.LoginResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		return resp.Token
	}

	errorCode := func(rec *httptest.ResponseRecorder) string {
		var envelope struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		Expect(json.Unmarshal(rec.Body.Bytes(), &envelope)).To(Succeed())
		return envelope.Error.Code
	}

	BeforeEach(func() {
		pingers = nil
		build()

		ctx := context.Background()
		_, err := users.Create(ctx, user.CreateUserDTO{
			Email: "admin@ops.test", Password: "secret123", DisplayName: "Admin", Role: user.RoleAdmin,
		})
		Expect(err).NotTo(HaveOccurred())
		_, err = users.Create(ctx, user.CreateUserDTO{
			Email: "ana@ops.test", Password: "secret123", DisplayName: "Ana", Role: user.RoleCollab,
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("public routes", func() {
		It("serves ping and health without a token", func() {
			Expect(do(http.MethodGet, "/api/v1/ping", "", nil).Code).To(Equal(http.StatusOK))
			Expect(do(http.MethodGet, "/api/v1/health", "", nil).Code).To(Equal(http.StatusOK))
		})

		It("reports 503 when a component fails its ping", func() {
			pingers = map[string]rest.Pinger{"store": failingPinger{}}
			build()

			Expect(do(http.MethodGet, "/api/v1/health", "", nil).Code).To(Equal(http.StatusServiceUnavailable))
		})

		It("serves the OpenAPI document", func() {
			rec := do(http.MethodGet, "/openapi.yml", "", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring("Ops Portal API"))
		})
	})

	Describe("authentication", func() {
		It("rejects protected routes without a token", func() {
			rec := do(http.MethodGet, "/api/v1/attendance/today", "", nil)
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})

		It("keeps collaborators out of admin routes", func() {
			token := login("ana@ops.test", auth.PortalCollab)

			Expect(do(http.MethodGet, "/api/v1/attendance/today", token, nil).Code).To(Equal(http.StatusOK))
			Expect(do(http.MethodGet, "/api/v1/admin/users", token, nil).Code).To(Equal(http.StatusForbidden))
			Expect(do(http.MethodGet, "/api/v1/finance/status", token, nil).Code).To(Equal(http.StatusForbidden))
		})

		It("stops accepting the token after logout", func() {
			token := login("ana@ops.test", auth.PortalCollab)

			Expect(do(http.MethodPost, "/api/v1/auth/logout", token, nil).Code).To(Equal(http.StatusNoContent))
			Expect(do(http.MethodGet, "/api/v1/auth/me", token, nil).Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("finance gate", func() {
		var token string

		BeforeEach(func() {
			token = login("admin@ops.test", auth.PortalAdmin)
		})

		It("requires an unlock before finance data is served", func() {
			rec := do(http.MethodGet, "/api/v1/finance/kpis?month=2024-05", token, nil)
			Expect(rec.Code).To(Equal(http.StatusForbidden))
			Expect(errorCode(rec)).To(Equal("FINANCE_LOCKED"))

			Expect(do(http.MethodPut, "/api/v1/finance/settings/key", token, map[string]string{"pin": "4321"}).Code).
				To(Equal(http.StatusNoContent))
			Expect(do(http.MethodPost, "/api/v1/finance/unlock", token, map[string]string{"pin": "0000"}).Code).
				To(Equal(http.StatusUnauthorized))
			Expect(do(http.MethodPost, "/api/v1/finance/unlock", token, map[string]string{"pin": "4321"}).Code).
				To(Equal(http.StatusOK))

			Expect(do(http.MethodGet, "/api/v1/finance/kpis?month=2024-05", token, nil).Code).To(Equal(http.StatusOK))

			Expect(do(http.MethodPost, "/api/v1/finance/lock", token, nil).Code).To(Equal(http.StatusNoContent))
			Expect(do(http.MethodGet, "/api/v1/finance/kpis?month=2024-05", token, nil).Code).To(Equal(http.StatusForbidden))
		})

		It("leaves category reads outside the gate", func() {
			Expect(do(http.MethodGet, "/api/v1/categories?kind=expense", token, nil).Code).To(Equal(http.StatusOK))
		})
	})
})
