package attendance_test

import (
	"math/rand"
	"time"

	"github.com/opsportal/ops-portal/internal/attendance"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func at(hhmm string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", "2026-01-05 "+hhmm)
	Expect(err).NotTo(HaveOccurred())
	return t
}

var _ = Describe("Record", func() {
	It("computes 510 minutes for a 09:00-18:00 day with a 30 minute break", func() {
		rec := attendance.NewRecord("u1", "2026-01-05", at("09:00"))
		Expect(rec.State()).To(Equal(attendance.StateInShift))

		Expect(rec.StartBreak(at("13:00"))).To(Succeed())
		Expect(rec.State()).To(Equal(attendance.StateOnBreak))
		Expect(rec.EndBreak(at("13:30"))).To(Succeed())
		Expect(rec.CheckOut(at("18:00"))).To(Succeed())

		Expect(rec.TotalMinutes).To(Equal(510))
		Expect(rec.Status).To(Equal(attendance.RecordClosed))
		Expect(rec.State()).To(Equal(attendance.StateClosed))
	})

	It("rejects a second check-out and leaves the record untouched", func() {
		rec := attendance.NewRecord("u1", "2026-01-05", at("09:00"))
		Expect(rec.CheckOut(at("17:00"))).To(Succeed())
		before := *rec.CheckOutAt

		Expect(rec.CheckOut(at("18:00"))).To(MatchError(attendance.ErrAlreadyCheckedOut))
		Expect(*rec.CheckOutAt).To(Equal(before))
		Expect(rec.TotalMinutes).To(Equal(480))
	})

	It("refuses to check out during a break", func() {
		rec := attendance.NewRecord("u1", "2026-01-05", at("09:00"))
		Expect(rec.StartBreak(at("12:00"))).To(Succeed())
		Expect(rec.CheckOut(at("12:10"))).To(MatchError(attendance.ErrBreakStillOpen))
		Expect(rec.StartBreak(at("12:20"))).To(MatchError(attendance.ErrBreakAlreadyOpen))
	})

	It("refuses to end a break that was never started", func() {
		rec := attendance.NewRecord("u1", "2026-01-05", at("09:00"))
		Expect(rec.EndBreak(at("10:00"))).To(MatchError(attendance.ErrNoOpenBreak))
	})

	It("derives OFF for a missing record", func() {
		Expect(attendance.StateOf(nil)).To(Equal(attendance.StateOff))
	})

	It("never reports negative totals", func() {
		in := at("09:00")
		b := attendance.Break{StartAt: in, EndAt: ptr(in.Add(3 * time.Hour))}
		Expect(attendance.ComputeTotalMinutes(in, in.Add(time.Hour), []attendance.Break{b})).To(Equal(0))
	})

	It("ignores open breaks when summing", func() {
		in := at("09:00")
		breaks := []attendance.Break{
			{StartAt: in.Add(time.Hour), EndAt: ptr(in.Add(90 * time.Minute))},
			{StartAt: in.Add(2 * time.Hour)},
		}
		Expect(attendance.BreakMinutes(breaks)).To(Equal(30))
	})

	It("keeps status, state and totals consistent over random operation sequences", func() {
		rng := rand.New(rand.NewSource(42))
		for run := 0; run < 200; run++ {
			now := at("08:00")
			rec := attendance.NewRecord("u1", "2026-01-05", now)

			for step := 0; step < 20; step++ {
				now = now.Add(time.Duration(rng.Intn(90)) * time.Minute)
				switch rng.Intn(3) {
				case 0:
					_ = rec.StartBreak(now)
				case 1:
					_ = rec.EndBreak(now)
				case 2:
					_ = rec.CheckOut(now)
				}

				open := 0
				for _, b := range rec.Breaks {
					if b.EndAt == nil {
						open++
					}
				}
				Expect(open).To(BeNumerically("<=", 1))
				Expect(rec.TotalMinutes).To(BeNumerically(">=", 0))

				if rec.State() == attendance.StateClosed {
					Expect(rec.Status).To(Equal(attendance.RecordClosed))
					Expect(open).To(Equal(0))
				} else {
					Expect(rec.Status).To(Equal(attendance.RecordOpen))
				}
			}
		}
	})
})

func ptr[T any](v T) *T {
	return &v
}
