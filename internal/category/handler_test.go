package category_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/go-chi/chi"
	"github.com/opsportal/ops-portal/internal/category"
	"github.com/opsportal/ops-portal/internal/i18n"
	"github.com/opsportal/ops-portal/internal/store"
	"github.com/opsportal/ops-portal/internal/store/gormstore"
	"github.com/opsportal/ops-portal/internal/transport"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ = Describe("Category Handler Integration", func() {
	var (
		db      *gorm.DB
		service *category.Service
		router  *chi.Mux
		slogger *slog.Logger
	)

	BeforeEach(func() {
		var err error
		slogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)

		backend := gormstore.New(db)
		Expect(backend.AutoMigrate()).To(Succeed())

		service = category.NewService(category.NewStoreRepository(store.New(backend, slogger)), slogger)
		translator, err := i18n.New("es")
		Expect(err).NotTo(HaveOccurred())
		handler := category.NewHandler(transport.NewBaseHandler(slogger, translator), service)

		router = chi.NewRouter()
		router.Get("/categories", handler.GetCategories)
		router.Post("/categories", handler.CreateCategory)
		router.Patch("/categories/{id}/deactivate", handler.DeactivateCategory)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	list := func(query string) category.CategoriesResponse {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/categories"+query, nil))
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Content-Type")).To(Equal("application/json"))

		var response category.CategoriesResponse
		Expect(json.Unmarshal(w.Body.Bytes(), &response)).To(Succeed())
		return response
	}

	Describe("GET /categories", func() {
		It("should return the default categories on a fresh store", func() {
			response := list("")
			Expect(response.Categories).To(HaveLen(len(category.DefaultCategories())))
		})

		It("should filter by kind", func() {
			response := list("?kind=income")
			names := make([]string, len(response.Categories))
			for i, c := range response.Categories {
				names[i] = c.Name
			}
			Expect(names).To(ConsistOf("Servicios", "Ventas"))
		})
	})

	Describe("POST /categories", func() {
		post := func(body string) *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/categories", bytes.NewBufferString(body)))
			return w
		}

		It("should persist the category in the SQL store", func() {
			w := post(`{"name":"Viajes","kind":"expense","description":"Pasajes"}`)
			Expect(w.Code).To(Equal(http.StatusCreated))
			Expect(service.IsValidCategory(context.Background(), "Viajes")).To(BeTrue())
			Expect(list("?kind=expense").Categories).To(ContainElement(HaveField("Name", "Viajes")))
		})

		It("should report a duplicate as a conflict", func() {
			w := post(`{"name":"software","kind":"expense"}`)
			Expect(w.Code).To(Equal(http.StatusConflict))
		})

		It("should reject an invalid body", func() {
			w := post(`{"name":"x"}`)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("PATCH /categories/{id}/deactivate", func() {
		It("should remove the category from listings", func() {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/categories/marketing/deactivate", nil))
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(list("?kind=expense").Categories).NotTo(ContainElement(HaveField("Name", "Marketing")))
		})

		It("should return 404 for an unknown id", func() {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/categories/nope/deactivate", nil))
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})
})
