package schedule

import (
	"time"

	"github.com/opsportal/ops-portal/internal"
)

type Weekday string

const (
	Monday    Weekday = "mon"
	Tuesday   Weekday = "tue"
	Wednesday Weekday = "wed"
	Thursday  Weekday = "thu"
	Friday    Weekday = "fri"
	Saturday  Weekday = "sat"
	Sunday    Weekday = "sun"
)

// indexed by time.Weekday (0 = Sunday)
var weekdayKeys = [7]Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// Weekdays lists the keys Monday first.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

func WeekdayKey(d time.Weekday) Weekday {
	return weekdayKeys[d]
}

// WeekStart returns midnight of the Monday on or before t, in t's location.
func WeekStart(t time.Time) time.Time {
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	offset := (int(midnight.Weekday()) + 6) % 7
	return midnight.AddDate(0, 0, -offset)
}

const (
	DefaultFullTimeID = "default-fulltime"
	DefaultPartTimeID = "default-parttime"
)

type WorkSchedule struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	WeeklyMinutes int             `json:"weeklyMinutes"`
	Days          map[Weekday]int `json:"days"`
}

// DefaultFullTime is 44h a week: 8h Monday to Friday, a 4h Saturday, Sunday off.
func DefaultFullTime() WorkSchedule {
	return WorkSchedule{
		ID:            DefaultFullTimeID,
		Name:          "Tiempo completo (44h)",
		WeeklyMinutes: 2640,
		Days: map[Weekday]int{
			Monday: 480, Tuesday: 480, Wednesday: 480, Thursday: 480, Friday: 480,
			Saturday: 240, Sunday: 0,
		},
	}
}

// DefaultPartTime is 20h a week: 4h Monday to Friday.
func DefaultPartTime() WorkSchedule {
	return WorkSchedule{
		ID:            DefaultPartTimeID,
		Name:          "Medio tiempo (20h)",
		WeeklyMinutes: 1200,
		Days: map[Weekday]int{
			Monday: 240, Tuesday: 240, Wednesday: 240, Thursday: 240, Friday: 240,
			Saturday: 0, Sunday: 0,
		},
	}
}

func Presets() []WorkSchedule {
	return []WorkSchedule{DefaultFullTime(), DefaultPartTime()}
}

func defaultMinutes(day Weekday) int {
	switch day {
	case Saturday:
		return 240
	case Sunday:
		return 0
	default:
		return 480
	}
}

// ExpectedMinutesForDate returns the target minutes for date. A schedule that
// does not define the weekday falls back to the full-time default.
func ExpectedMinutesForDate(date time.Time, s *WorkSchedule) int {
	day := WeekdayKey(date.Weekday())
	if s != nil {
		if minutes, ok := s.Days[day]; ok {
			return minutes
		}
	}
	return defaultMinutes(day)
}

// ExpectedMinutesForDay is ExpectedMinutesForDate over an ISO day string.
func ExpectedMinutesForDay(day string, s *WorkSchedule) (int, error) {
	d, err := time.Parse(time.DateOnly, day)
	if err != nil {
		return 0, err
	}
	return ExpectedMinutesForDate(d, s), nil
}

func (s WorkSchedule) SumDays() int {
	total := 0
	for _, minutes := range s.Days {
		total += minutes
	}
	return total
}

func (s WorkSchedule) IsPreset() bool {
	return s.ID == DefaultFullTimeID || s.ID == DefaultPartTimeID
}

var ErrScheduleNotFound = internal.NewNotFoundError("Horario no encontrado.", internal.ErrCodeScheduleNotFound)
