package rest

import (
	"log/slog"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/opsportal/ops-portal/internal/attendance"
	"github.com/opsportal/ops-portal/internal/auth"
	"github.com/opsportal/ops-portal/internal/category"
	"github.com/opsportal/ops-portal/internal/finance"
	"github.com/opsportal/ops-portal/internal/financegate"
	"github.com/opsportal/ops-portal/internal/i18n"
	"github.com/opsportal/ops-portal/internal/schedule"
	"github.com/opsportal/ops-portal/internal/summary"
	"github.com/opsportal/ops-portal/internal/transport"
	"github.com/opsportal/ops-portal/internal/transport/middleware"
	"github.com/opsportal/ops-portal/internal/transport/swagger"
	"github.com/opsportal/ops-portal/internal/user"
)

type Handlers struct {
	Base       *transport.BaseHandler
	Translator *i18n.Translator
	Health     *HealthHandler
	Auth       *auth.Handler
	User       *user.Handler
	Attendance *attendance.Handler
	Summary    *summary.Handler
	Schedule   *schedule.Handler
	Category   *category.Handler
	Finance    *finance.Handler
	FinanceKey *financegate.Handler
	// OpenAPI is the raw document served at /openapi.yml.
	OpenAPI        []byte
	AllowedOrigins string
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, logger *slog.Logger) {
	router.Use(middleware.CORS(h.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestContext(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(h.Base))
	router.Use(middleware.Locale(h.Translator))

	if h.OpenAPI != nil {
		router.Get("/openapi.yml", swagger.SpecHandler(h.OpenAPI))
		router.Handle("/swagger/*", swagger.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health.healthCheckHandler)
		r.Get("/ping", h.Health.pingHandler)

		r.Route("/auth", func(ar chi.Router) {
			ar.Post("/login", h.Auth.Login)
			ar.Post("/register", h.User.Register)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)
			pr.Use(middleware.UserContext)

			pr.Post("/auth/logout", h.Auth.Logout)
			pr.Get("/auth/me", h.Auth.Me)
			pr.Patch("/me/profile", h.User.UpdateProfile)

			pr.Route("/attendance", func(ar chi.Router) {
				ar.Get("/today", h.Attendance.Today)
				ar.Post("/check-in", h.Attendance.CheckIn)
				ar.Post("/break/start", h.Attendance.StartBreak)
				ar.Post("/break/end", h.Attendance.EndBreak)
				ar.Post("/check-out", h.Attendance.CheckOut)
				ar.Put("/notes", h.Attendance.SaveNote)
				ar.Get("/week", h.Attendance.Week)
				ar.Get("/records", h.Attendance.ListRecords)
				ar.Get("/extras", h.Attendance.ListExtras)
				ar.Post("/extras", h.Attendance.CreateExtra)
				ar.Get("/corrections", h.Attendance.ListCorrections)
				ar.Post("/corrections", h.Attendance.CreateCorrection)
			})

			pr.Get("/requests", h.Attendance.ListRequests)
			pr.Post("/requests", h.Attendance.CreateRequest)

			pr.Route("/summary", func(sr chi.Router) {
				sr.Get("/week", h.Summary.Week)
				sr.Get("/month", h.Summary.Month)
				sr.Get("/balance", h.Summary.Balance)
			})

			pr.Get("/schedules", h.Schedule.List)
			pr.Get("/schedules/{id}", h.Schedule.Get)
			pr.Get("/categories", h.Category.GetCategories)

			pr.Group(func(admin chi.Router) {
				admin.Use(middleware.RequireAdmin(h.Base))

				admin.Route("/admin", func(ad chi.Router) {
					ad.Get("/users", h.User.List)
					ad.Post("/users", h.User.Create)
					ad.Patch("/users/{uid}/role", h.User.UpdateRole)
					ad.Patch("/users/{uid}/active", h.User.SetActive)
					ad.Patch("/users/{uid}/approve", h.User.Approve)
					ad.Patch("/users/{uid}/schedule", h.User.AssignSchedule)

					ad.Patch("/requests/{id}/review", h.Attendance.ReviewRequest)
					ad.Patch("/extras/{id}/review", h.Attendance.ReviewExtra)
					ad.Patch("/corrections/{id}/review", h.Attendance.ReviewCorrection)

					ad.Put("/schedules", h.Schedule.Save)
				})

				admin.Route("/finance", func(fr chi.Router) {
					fr.Post("/unlock", h.FinanceKey.Unlock)
					fr.Post("/lock", h.FinanceKey.Lock)
					fr.Get("/status", h.FinanceKey.Status)
					fr.Put("/settings/key", h.FinanceKey.SetKey)

					fr.Group(func(gr chi.Router) {
						gr.Use(financegate.RequireUnlocked(h.FinanceKey.Service, h.Base))

						gr.Post("/transactions/preview", h.Finance.Preview)
						gr.Get("/transactions", h.Finance.ListTransactions)
						gr.Post("/transactions", h.Finance.CreateTransaction)
						gr.Put("/transactions", h.Finance.ReplaceTransactions)
						gr.Get("/accounts", h.Finance.ListAccounts)
						gr.Put("/accounts/{id}", h.Finance.SaveAccount)
						gr.Get("/movements", h.Finance.Movements)
						gr.Get("/kpis", h.Finance.KPIs)
						gr.Get("/groupings", h.Finance.Groupings)
						gr.Get("/closures", h.Finance.ListClosures)
						gr.Post("/closures", h.Finance.CloseMonth)
						gr.Get("/export", h.Finance.Export)

						gr.Post("/categories", h.Category.CreateCategory)
						gr.Patch("/categories/{id}/activate", h.Category.ActivateCategory)
						gr.Patch("/categories/{id}/deactivate", h.Category.DeactivateCategory)
					})
				})
			})
		})
	})
}
