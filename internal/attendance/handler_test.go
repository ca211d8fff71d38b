package attendance_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/go-chi/chi"
	"github.com/opsportal/ops-portal/internal"
	"github.com/opsportal/ops-portal/internal/attendance"
	"github.com/opsportal/ops-portal/internal/i18n"
	"github.com/opsportal/ops-portal/internal/store"
	"github.com/opsportal/ops-portal/internal/transport"
	"github.com/opsportal/ops-portal/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Handler", func() {
	var (
		router *chi.Mux
		now    time.Time
	)

	withPrincipal := func(req *http.Request, p *internal.Principal) *http.Request {
		return req.WithContext(internal.ContextWithPrincipal(req.Context(), p))
	}

	BeforeEach(func() {
		now = time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
		st := store.New(store.NewMemoryBackend(), logger.Discard())
		service := attendance.NewService(attendance.NewStoreRepository(st), logger.Discard(),
			attendance.WithClock(func() time.Time { return now }),
			attendance.WithLocation(time.UTC),
		)
		translator, err := i18n.New("es")
		Expect(err).NotTo(HaveOccurred())
		handler := attendance.NewHandler(transport.NewBaseHandler(logger.Discard(), translator), service, func() time.Time { return now })

		router = chi.NewRouter()
		router.Post("/attendance/check-in", handler.CheckIn)
		router.Post("/attendance/check-out", handler.CheckOut)
		router.Get("/attendance/today", handler.Today)
		router.Post("/requests", handler.CreateRequest)
		router.Patch("/admin/requests/{id}/review", handler.ReviewRequest)
	})

	It("requires an authenticated caller", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/attendance/check-in", nil))
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("checks in and reports conflicts in the caller's language", func() {
		user := &internal.Principal{UserID: "u1", Role: "team"}

		w := httptest.NewRecorder()
		router.ServeHTTP(w, withPrincipal(httptest.NewRequest(http.MethodPost, "/attendance/check-in", nil), user))
		Expect(w.Code).To(Equal(http.StatusCreated))

		req := httptest.NewRequest(http.MethodPost, "/attendance/check-in", nil)
		req = req.WithContext(i18n.WithLocale(req.Context(), "en"))
		w = httptest.NewRecorder()
		router.ServeHTTP(w, withPrincipal(req, user))
		Expect(w.Code).To(Equal(http.StatusConflict))

		var body struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body.Error.Code).To(Equal("ALREADY_CHECKED_IN"))
		Expect(body.Error.Message).To(Equal("You already checked in today."))
	})

	It("creates and reviews a request", func() {
		user := &internal.Principal{UserID: "u1", Role: "team"}
		admin := &internal.Principal{UserID: "a1", Role: "admin"}

		payload, _ := json.Marshal(attendance.CreateRequestDTO{Type: attendance.RequestDayOff, Date: "2026-01-09", Reason: "viaje"})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, withPrincipal(httptest.NewRequest(http.MethodPost, "/requests", bytes.NewReader(payload)), user))
		Expect(w.Code).To(Equal(http.StatusCreated))

		var created attendance.Request
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())

		w = httptest.NewRecorder()
		review := httptest.NewRequest(http.MethodPatch, "/admin/requests/"+created.ID+"/review", bytes.NewBufferString(`{"approve":true}`))
		router.ServeHTTP(w, withPrincipal(review, admin))
		Expect(w.Code).To(Equal(http.StatusOK))

		var reviewed attendance.Request
		Expect(json.NewDecoder(w.Body).Decode(&reviewed)).To(Succeed())
		Expect(reviewed.Status).To(Equal(attendance.StatusApproved))
		Expect(*reviewed.ReviewedBy).To(Equal("a1"))
	})

	It("rejects malformed bodies", func() {
		user := &internal.Principal{UserID: "u1", Role: "team"}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, withPrincipal(httptest.NewRequest(http.MethodPost, "/requests", bytes.NewBufferString("{")), user))
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("reports the derived state for today", func() {
		user := &internal.Principal{UserID: "u1", Role: "team"}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, withPrincipal(httptest.NewRequest(http.MethodGet, "/attendance/today", nil).WithContext(context.Background()), user))
		Expect(w.Code).To(Equal(http.StatusOK))

		var view attendance.TodayView
		Expect(json.NewDecoder(w.Body).Decode(&view)).To(Succeed())
		Expect(view.State).To(Equal(attendance.StateOff))
		Expect(view.Date).To(Equal("2026-01-05"))
	})
})

var _ = Describe("Handler in a configured zone", func() {
	It("defaults the week to the one holding today's local record", func() {
		lima, err := time.LoadLocation("America/Lima")
		Expect(err).NotTo(HaveOccurred())
		now := time.Date(2026, 1, 12, 2, 0, 0, 0, time.UTC)
		clock := internal.LocalClock(func() time.Time { return now }, lima)

		st := store.New(store.NewMemoryBackend(), logger.Discard())
		service := attendance.NewService(attendance.NewStoreRepository(st), logger.Discard(),
			attendance.WithClock(clock),
			attendance.WithLocation(lima),
		)
		translator, err := i18n.New("es")
		Expect(err).NotTo(HaveOccurred())
		handler := attendance.NewHandler(transport.NewBaseHandler(logger.Discard(), translator), service, clock)
		router := chi.NewRouter()
		router.Get("/attendance/week", handler.Week)

		_, err = service.CheckIn(context.Background(), "u1")
		Expect(err).NotTo(HaveOccurred())

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/attendance/week", nil)
		router.ServeHTTP(w, req.WithContext(internal.ContextWithPrincipal(req.Context(), &internal.Principal{UserID: "u1", Role: "collab"})))
		Expect(w.Code).To(Equal(http.StatusOK))

		var body struct {
			Records []attendance.Record `json:"records"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body.Records).To(HaveLen(1))
		Expect(body.Records[0].Date).To(Equal("2026-01-11"))
	})
})
