package summary_test

import (
	"context"
	"time"

	"github.com/opsportal/ops-portal/internal/attendance"
	"github.com/opsportal/ops-portal/internal/schedule"
	"github.com/opsportal/ops-portal/internal/store"
	"github.com/opsportal/ops-portal/internal/summary"
	"github.com/opsportal/ops-portal/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func closed(date string, minutes int) attendance.Record {
	day, _ := time.Parse(time.DateOnly, date)
	in := day.Add(9 * time.Hour)
	out := in.Add(time.Duration(minutes) * time.Minute)
	return attendance.Record{
		ID: date, UserID: "u1", Date: date,
		CheckInAt: &in, CheckOutAt: &out,
		TotalMinutes: minutes, Status: attendance.RecordClosed,
	}
}

func open(date string) attendance.Record {
	day, _ := time.Parse(time.DateOnly, date)
	in := day.Add(9 * time.Hour)
	return attendance.Record{ID: date, UserID: "u1", Date: date, CheckInAt: &in, Status: attendance.RecordOpen}
}

var _ = Describe("Weekly", func() {
	records := []attendance.Record{
		closed("2026-01-04", 300), // previous Sunday
		closed("2026-01-05", 510),
		closed("2026-01-06", 480),
		open("2026-01-07"),
		closed("2026-01-10", 240),
		closed("2026-01-11", 60),  // Sunday
		closed("2026-01-12", 480), // next Monday
	}

	It("normalises to Monday and sums only that week", func() {
		s := summary.Weekly(records, time.Date(2026, 1, 8, 15, 0, 0, 0, time.UTC), nil)

		Expect(s.WeekStart).To(Equal("2026-01-05"))
		Expect(s.WeekEnd).To(Equal("2026-01-11"))
		Expect(s.Days).To(HaveLen(7))
		Expect(s.WorkedMinutes).To(Equal(510 + 480 + 240 + 60))
		Expect(s.ExpectedMinutes).To(Equal(44 * 60))
		Expect(s.BalanceMinutes).To(Equal(s.WorkedMinutes - s.ExpectedMinutes))
	})

	It("counts closed days except Sundays", func() {
		s := summary.Weekly(records, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), nil)
		Expect(s.CompletedDays).To(Equal(3))
		Expect(s.Days[2].State).To(Equal(attendance.StateInShift))
		Expect(s.Days[3].State).To(Equal(attendance.StateOff))
	})

	It("uses the assigned schedule for expected minutes", func() {
		pt := schedule.DefaultPartTime()
		s := summary.Weekly(nil, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), &pt)
		Expect(s.ExpectedMinutes).To(Equal(1200))
		Expect(s.BalanceMinutes).To(Equal(-1200))
	})
})

var _ = Describe("Lifetime and Monthly", func() {
	records := []attendance.Record{
		closed("2025-12-29", 500), // Monday, +20
		closed("2026-01-03", 200), // Saturday, -40
		closed("2026-01-04", 30),  // Sunday, +30
		closed("2026-01-05", 480), // Monday, 0
	}

	It("carries the balance across months", func() {
		s := summary.Lifetime(records, nil)
		Expect(s.Records).To(Equal(4))
		Expect(s.BalanceMinutes).To(Equal(20 - 40 + 30 + 0))
		Expect(s.From).To(Equal("2025-12-29"))
		Expect(s.To).To(Equal("2026-01-05"))
	})

	It("restricts the monthly view to records of that month", func() {
		s := summary.Monthly(records, "2026-01", nil)
		Expect(s.Records).To(Equal(3))
		Expect(s.BalanceMinutes).To(Equal(-10))
	})

	It("skips records with unreadable dates", func() {
		s := summary.Lifetime([]attendance.Record{{Date: "garbage", TotalMinutes: 100}}, nil)
		Expect(s.Records).To(Equal(0))
		Expect(s.BalanceMinutes).To(Equal(0))
	})
})

type staticProfiles map[string]*string

func (p staticProfiles) WorkScheduleID(_ context.Context, userID string) (*string, error) {
	return p[userID], nil
}

var _ = Describe("Service", func() {
	var (
		ctx     context.Context
		service *summary.Service
		now     time.Time
		ledger  *attendance.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		st := store.New(store.NewMemoryBackend(), logger.Discard())
		ledger = attendance.NewService(attendance.NewStoreRepository(st), logger.Discard(),
			attendance.WithClock(func() time.Time { return now }),
			attendance.WithLocation(time.UTC),
		)
		schedules := schedule.NewService(schedule.NewStoreRepository(st), logger.Discard())
		partTime := schedule.DefaultPartTimeID
		profiles := staticProfiles{"pt": &partTime}
		service = summary.NewService(ledger, schedules, profiles, logger.Discard())

		for _, userID := range []string{"ft", "pt"} {
			now = time.Date(2026, 1, 6, 9, 0, 0, 0, time.UTC)
			_, err := ledger.CheckIn(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			now = now.Add(5 * time.Hour)
			_, err = ledger.CheckOut(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
		}
	})

	It("resolves each user's schedule", func() {
		ft, err := service.WeeklyForUser(ctx, "ft", time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC))
		Expect(err).NotTo(HaveOccurred())
		Expect(ft.WorkedMinutes).To(Equal(300))
		Expect(ft.ExpectedMinutes).To(Equal(2640))

		pt, err := service.WeeklyForUser(ctx, "pt", time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC))
		Expect(err).NotTo(HaveOccurred())
		Expect(pt.ExpectedMinutes).To(Equal(1200))
		Expect(pt.CompletedDays).To(Equal(1))
	})

	It("computes record-based lifetime and monthly balances", func() {
		life, err := service.LifetimeForUser(ctx, "pt")
		Expect(err).NotTo(HaveOccurred())
		Expect(life.BalanceMinutes).To(Equal(300 - 240))

		month, err := service.MonthlyForUser(ctx, "ft", "2026-01")
		Expect(err).NotTo(HaveOccurred())
		Expect(month.BalanceMinutes).To(Equal(300 - 480))

		_, err = service.MonthlyForUser(ctx, "ft", "2026/01")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Service in a configured zone", func() {
	It("puts a late-evening check-in in the local week", func() {
		lima, err := time.LoadLocation("America/Lima")
		Expect(err).NotTo(HaveOccurred())
		ctx := context.Background()
		now := time.Date(2026, 1, 12, 2, 0, 0, 0, time.UTC)

		st := store.New(store.NewMemoryBackend(), logger.Discard())
		ledger := attendance.NewService(attendance.NewStoreRepository(st), logger.Discard(),
			attendance.WithClock(func() time.Time { return now }),
			attendance.WithLocation(lima),
		)
		service := summary.NewService(ledger, schedule.NewService(schedule.NewStoreRepository(st), logger.Discard()),
			staticProfiles{}, logger.Discard(), summary.WithLocation(lima))

		rec, err := ledger.CheckIn(ctx, "u1")
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.Date).To(Equal("2026-01-11"))
		now = now.Add(time.Hour)
		_, err = ledger.CheckOut(ctx, "u1")
		Expect(err).NotTo(HaveOccurred())

		week, err := service.WeeklyForUser(ctx, "u1", now)
		Expect(err).NotTo(HaveOccurred())
		Expect(week.WeekStart).To(Equal("2026-01-05"))
		Expect(week.WorkedMinutes).To(Equal(60))
	})
})
