package attendance_test

import (
	"context"
	"sync"
	"time"

	"github.com/opsportal/ops-portal/internal"
	"github.com/opsportal/ops-portal/internal/attendance"
	"github.com/opsportal/ops-portal/internal/core/events"
	"github.com/opsportal/ops-portal/internal/store"
	"github.com/opsportal/ops-portal/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type recordingPublisher struct {
	mu    sync.Mutex
	types []string
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types = append(p.types, e.EventType())
	return nil
}

func (p *recordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.types...)
}

var _ = Describe("Service", func() {
	var (
		ctx       context.Context
		st        *store.Store
		service   *attendance.Service
		now       time.Time
		publisher *recordingPublisher
	)

	BeforeEach(func() {
		ctx = context.Background()
		st = store.New(store.NewMemoryBackend(), logger.Discard())
		now = time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
		publisher = &recordingPublisher{}
		service = attendance.NewService(attendance.NewStoreRepository(st), logger.Discard(),
			attendance.WithClock(func() time.Time { return now }),
			attendance.WithLocation(time.UTC),
			attendance.WithPublisher(publisher),
		)
	})

	Describe("daily transitions", func() {
		It("runs a full day and stores the total", func() {
			_, err := service.CheckIn(ctx, "u1")
			Expect(err).NotTo(HaveOccurred())

			now = now.Add(4 * time.Hour)
			_, err = service.StartBreak(ctx, "u1")
			Expect(err).NotTo(HaveOccurred())

			now = now.Add(30 * time.Minute)
			_, err = service.EndBreak(ctx, "u1")
			Expect(err).NotTo(HaveOccurred())

			now = time.Date(2026, 1, 5, 18, 0, 0, 0, time.UTC)
			rec, err := service.CheckOut(ctx, "u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.TotalMinutes).To(Equal(510))

			view, err := service.Today(ctx, "u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(view.State).To(Equal(attendance.StateClosed))
			Expect(view.Record.TotalMinutes).To(Equal(510))

			Expect(publisher.Types()).To(Equal([]string{events.EventTypeCheckedIn, events.EventTypeCheckedOut}))
		})

		It("allows only one record per user and day", func() {
			_, err := service.CheckIn(ctx, "u1")
			Expect(err).NotTo(HaveOccurred())

			now = now.Add(time.Hour)
			_, err = service.CheckIn(ctx, "u1")
			Expect(err).To(MatchError(attendance.ErrAlreadyCheckedIn))

			_, err = service.CheckIn(ctx, "u2")
			Expect(err).NotTo(HaveOccurred())
		})

		It("reports NOT_CHECKED_IN before check-in", func() {
			_, err := service.StartBreak(ctx, "u1")
			Expect(err).To(MatchError(attendance.ErrNotCheckedIn))
			_, err = service.CheckOut(ctx, "u1")
			Expect(err).To(MatchError(attendance.ErrNotCheckedIn))

			view, err := service.Today(ctx, "u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(view.State).To(Equal(attendance.StateOff))
			Expect(view.Record).To(BeNil())
		})

		It("rejects a second check-out without changing the stored record", func() {
			_, err := service.CheckIn(ctx, "u1")
			Expect(err).NotTo(HaveOccurred())
			now = now.Add(8 * time.Hour)
			first, err := service.CheckOut(ctx, "u1")
			Expect(err).NotTo(HaveOccurred())

			now = now.Add(time.Hour)
			_, err = service.CheckOut(ctx, "u1")
			Expect(err).To(MatchError(attendance.ErrAlreadyCheckedOut))

			view, err := service.Today(ctx, "u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(view.Record.CheckOutAt.Equal(*first.CheckOutAt)).To(BeTrue())
		})

		It("saves and clears notes", func() {
			_, err := service.CheckIn(ctx, "u1")
			Expect(err).NotTo(HaveOccurred())

			rec, err := service.SaveNote(ctx, "u1", attendance.SaveNoteDTO{Date: "2026-01-05", Note: " reunión con cliente "})
			Expect(err).NotTo(HaveOccurred())
			Expect(*rec.Notes).To(Equal("reunión con cliente"))

			rec, err = service.SaveNote(ctx, "u1", attendance.SaveNoteDTO{Date: "2026-01-05", Note: ""})
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Notes).To(BeNil())

			_, err = service.SaveNote(ctx, "u1", attendance.SaveNoteDTO{Date: "2026-01-04", Note: "x"})
			Expect(err).To(MatchError(attendance.ErrRecordNotFound))
		})
	})

	Describe("listing records", func() {
		BeforeEach(func() {
			for _, d := range []string{"2026-01-04", "2026-01-05", "2026-01-09", "2026-01-11", "2026-01-12"} {
				day, _ := time.Parse(time.DateOnly, d)
				now = day.Add(9 * time.Hour)
				_, err := service.CheckIn(ctx, "u1")
				Expect(err).NotTo(HaveOccurred())
			}
		})

		It("returns only the Monday-based week, bounded on both sides", func() {
			wednesday := time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC)
			records, err := service.ListRecordsForWeek(ctx, "u1", wednesday)
			Expect(err).NotTo(HaveOccurred())

			dates := make([]string, len(records))
			for i, r := range records {
				dates[i] = r.Date
			}
			Expect(dates).To(Equal([]string{"2026-01-05", "2026-01-09", "2026-01-11"}))
		})

		It("returns the full history sorted by date", func() {
			records, err := service.ListRecordsForUser(ctx, "u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(5))
			Expect(records[0].Date).To(Equal("2026-01-04"))
			Expect(records[4].Date).To(Equal("2026-01-12"))
		})
	})

	Describe("requests", func() {
		It("creates pending requests and stamps the reviewer", func() {
			req, err := service.CreateRequest(ctx, "u1", attendance.CreateRequestDTO{
				Type:   attendance.RequestHours,
				Date:   "2026-01-08",
				Hours:  2.5,
				Reason: "Cita",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(req.Status).To(Equal(attendance.StatusPending))
			Expect(*req.Hours).To(Equal(2.5))

			reviewed, err := service.ReviewRequest(ctx, req.ID, "admin-1", true)
			Expect(err).NotTo(HaveOccurred())
			Expect(reviewed.Status).To(Equal(attendance.StatusApproved))
			Expect(*reviewed.ReviewedBy).To(Equal("admin-1"))
			Expect(reviewed.ReviewedAt.Equal(now)).To(BeTrue())
			Expect(publisher.Types()).To(ContainElement(events.EventTypeRequestReviewed))

			_, err = service.ReviewRequest(ctx, req.ID, "admin-1", false)
			Expect(err).To(MatchError(attendance.ErrAlreadyReviewed))
		})

		It("validates hours only for hour permits", func() {
			_, err := service.CreateRequest(ctx, "u1", attendance.CreateRequestDTO{
				Type: attendance.RequestHours, Date: "2026-01-08", Hours: 0, Reason: "x",
			})
			Expect(err).To(HaveOccurred())

			req, err := service.CreateRequest(ctx, "u1", attendance.CreateRequestDTO{
				Type: attendance.RequestDayOff, Date: "2026-01-08", EndDate: "2026-01-09", Hours: 3, Reason: "viaje",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(req.Hours).To(BeNil())
			Expect(*req.EndDate).To(Equal("2026-01-09"))
		})

		It("rejects an end date before the start", func() {
			_, err := service.CreateRequest(ctx, "u1", attendance.CreateRequestDTO{
				Type: attendance.RequestMedical, Date: "2026-01-08", EndDate: "2026-01-07", Reason: "x",
			})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("filters by owner and status", func() {
			a, _ := service.CreateRequest(ctx, "u1", attendance.CreateRequestDTO{Type: attendance.RequestDayOff, Date: "2026-01-08", Reason: "a"})
			_, _ = service.CreateRequest(ctx, "u1", attendance.CreateRequestDTO{Type: attendance.RequestDayOff, Date: "2026-01-09", Reason: "b"})
			_, _ = service.CreateRequest(ctx, "u2", attendance.CreateRequestDTO{Type: attendance.RequestDayOff, Date: "2026-01-09", Reason: "c"})
			_, err := service.ReviewRequest(ctx, a.ID, "admin", false)
			Expect(err).NotTo(HaveOccurred())

			mine, err := service.ListRequests(ctx, "u1", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(mine).To(HaveLen(2))

			pending, err := service.ListRequests(ctx, "", attendance.StatusPending)
			Expect(err).NotTo(HaveOccurred())
			Expect(pending).To(HaveLen(2))
		})

		It("reads requests saved under the legacy collection", func() {
			legacy := store.NewCollection[attendance.Request](st, store.LegacyRequests)
			Expect(legacy.Set(ctx, []attendance.Request{{ID: "old-1", UserID: "u1", Type: attendance.RequestDayOff, Date: "2025-12-01", Review: attendance.Review{Status: attendance.StatusPending}}})).To(Succeed())

			all, err := service.ListRequests(ctx, "u1", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(1))
			Expect(all[0].ID).To(Equal("old-1"))
		})

		It("returns REQUEST_NOT_FOUND for unknown ids", func() {
			_, err := service.ReviewRequest(ctx, "missing", "admin", true)
			Expect(err).To(MatchError(attendance.ErrRequestNotFound))
		})
	})

	Describe("extras", func() {
		It("creates pending extras and rejects unknown types", func() {
			extra, err := service.CreateExtra(ctx, "u1", attendance.CreateExtraDTO{
				Date: "2026-01-05", Minutes: 45, Type: attendance.ExtraMeeting, Project: "Portal",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(extra.Status).To(Equal(attendance.StatusPending))
			Expect(*extra.Project).To(Equal("Portal"))
			Expect(extra.Note).To(BeNil())

			_, err = service.CreateExtra(ctx, "u1", attendance.CreateExtraDTO{Date: "2026-01-05", Minutes: 45, Type: "Fiesta"})
			Expect(err).To(HaveOccurred())

			reviewed, err := service.ReviewExtra(ctx, extra.ID, "admin", true)
			Expect(err).NotTo(HaveOccurred())
			Expect(reviewed.Status).To(Equal(attendance.StatusApproved))
		})

		It("returns EXTRA_NOT_FOUND for unknown ids", func() {
			_, err := service.ReviewExtra(ctx, "missing", "admin", true)
			Expect(err).To(MatchError(attendance.ErrExtraNotFound))
			Expect(err).NotTo(MatchError(attendance.ErrRequestNotFound))
		})
	})

	Describe("corrections", func() {
		It("files a correction against the caller's record without changing it", func() {
			rec, err := service.CheckIn(ctx, "u1")
			Expect(err).NotTo(HaveOccurred())

			c, err := service.CreateCorrection(ctx, "u1", attendance.CreateCorrectionDTO{
				AttendanceID:    rec.ID,
				ProposedChanges: "Entrada 08:30",
				Reason:          "Olvidé marcar",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Date).To(Equal("2026-01-05"))
			Expect(c.Status).To(Equal(attendance.StatusPending))

			view, err := service.Today(ctx, "u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(view.Record.CheckInAt.Equal(*rec.CheckInAt)).To(BeTrue())
		})

		It("refuses corrections on someone else's record", func() {
			rec, err := service.CheckIn(ctx, "u1")
			Expect(err).NotTo(HaveOccurred())

			_, err = service.CreateCorrection(ctx, "u2", attendance.CreateCorrectionDTO{
				AttendanceID: rec.ID, ProposedChanges: "x", Reason: "y",
			})
			Expect(err).To(MatchError(internal.ErrUnauthorizedAccess))
		})

		It("returns CORRECTION_NOT_FOUND for unknown ids", func() {
			_, err := service.ReviewCorrection(ctx, "missing", "admin", false)
			Expect(err).To(MatchError(attendance.ErrCorrectionNotFound))
			Expect(err).NotTo(MatchError(attendance.ErrRequestNotFound))
		})
	})
})
