// Package summary derives worked, expected and balance figures from
// attendance records. Nothing here is cached; every view is recomputed.
package summary

import (
	"strings"
	"time"

	"github.com/opsportal/ops-portal/internal/attendance"
	"github.com/opsportal/ops-portal/internal/schedule"
)

type DaySummary struct {
	Date            string           `json:"date"`
	Weekday         schedule.Weekday `json:"weekday"`
	WorkedMinutes   int              `json:"workedMinutes"`
	ExpectedMinutes int              `json:"expectedMinutes"`
	BalanceMinutes  int              `json:"balanceMinutes"`
	State           attendance.State `json:"state"`
}

type WeeklySummary struct {
	WeekStart       string       `json:"weekStart"`
	WeekEnd         string       `json:"weekEnd"`
	WorkedMinutes   int          `json:"workedMinutes"`
	ExpectedMinutes int          `json:"expectedMinutes"`
	BalanceMinutes  int          `json:"balanceMinutes"`
	CompletedDays   int          `json:"completedDays"`
	Days            []DaySummary `json:"days"`
}

// BalanceSummary is the record-based balance over a span of days.
type BalanceSummary struct {
	From            string `json:"from,omitempty"`
	To              string `json:"to,omitempty"`
	Records         int    `json:"records"`
	WorkedMinutes   int    `json:"workedMinutes"`
	ExpectedMinutes int    `json:"expectedMinutes"`
	BalanceMinutes  int    `json:"balanceMinutes"`
}

// WeekStart normalises any date to the Monday of its week.
func WeekStart(t time.Time) time.Time {
	return schedule.WeekStart(t)
}

// Weekly summarises the Monday-based week containing weekOf. Expected minutes
// cover all seven calendar days whether or not a record exists.
func Weekly(records []attendance.Record, weekOf time.Time, ws *schedule.WorkSchedule) WeeklySummary {
	start := WeekStart(weekOf)
	end := start.AddDate(0, 0, 7)
	from := start.Format(time.DateOnly)
	to := end.Format(time.DateOnly)

	byDate := make(map[string]attendance.Record, len(records))
	for _, r := range records {
		if r.Date >= from && r.Date < to {
			byDate[r.Date] = r
		}
	}

	s := WeeklySummary{
		WeekStart: from,
		WeekEnd:   start.AddDate(0, 0, 6).Format(time.DateOnly),
		Days:      make([]DaySummary, 0, 7),
	}
	for i := 0; i < 7; i++ {
		date := start.AddDate(0, 0, i)
		key := date.Format(time.DateOnly)
		day := DaySummary{
			Date:            key,
			Weekday:         schedule.WeekdayKey(date.Weekday()),
			ExpectedMinutes: schedule.ExpectedMinutesForDate(date, ws),
			State:           attendance.StateOff,
		}
		if rec, ok := byDate[key]; ok {
			day.WorkedMinutes = rec.TotalMinutes
			day.State = rec.State()
			if day.State == attendance.StateClosed && date.Weekday() != time.Sunday {
				s.CompletedDays++
			}
		}
		day.BalanceMinutes = day.WorkedMinutes - day.ExpectedMinutes

		s.WorkedMinutes += day.WorkedMinutes
		s.ExpectedMinutes += day.ExpectedMinutes
		s.Days = append(s.Days, day)
	}
	s.BalanceMinutes = s.WorkedMinutes - s.ExpectedMinutes
	return s
}

// Lifetime is the running balance over every record the user has. It is
// never reset per month.
func Lifetime(records []attendance.Record, ws *schedule.WorkSchedule) BalanceSummary {
	return balance(records, ws, func(string) bool { return true })
}

// Monthly applies the lifetime rule to records dated inside monthKey (YYYY-MM).
func Monthly(records []attendance.Record, monthKey string, ws *schedule.WorkSchedule) BalanceSummary {
	prefix := monthKey + "-"
	return balance(records, ws, func(date string) bool { return strings.HasPrefix(date, prefix) })
}

func balance(records []attendance.Record, ws *schedule.WorkSchedule, include func(date string) bool) BalanceSummary {
	var s BalanceSummary
	for _, r := range records {
		if !include(r.Date) {
			continue
		}
		expected, err := schedule.ExpectedMinutesForDay(r.Date, ws)
		if err != nil {
			continue
		}
		s.Records++
		s.WorkedMinutes += r.TotalMinutes
		s.ExpectedMinutes += expected
		if s.From == "" || r.Date < s.From {
			s.From = r.Date
		}
		if r.Date > s.To {
			s.To = r.Date
		}
	}
	s.BalanceMinutes = s.WorkedMinutes - s.ExpectedMinutes
	return s
}
