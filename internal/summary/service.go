package summary

import (
	"context"
	"log/slog"
	"time"

	"github.com/opsportal/ops-portal/internal/attendance"
	"github.com/opsportal/ops-portal/internal/core/common/validation"
	"github.com/opsportal/ops-portal/internal/schedule"
)

type RecordSource interface {
	ListRecordsForRange(ctx context.Context, userID, from, to string) ([]attendance.Record, error)
}

type ScheduleResolver interface {
	ResolveForUser(ctx context.Context, scheduleID *string) (*schedule.WorkSchedule, error)
}

// ProfileSource tells which work schedule a user is assigned to.
type ProfileSource interface {
	WorkScheduleID(ctx context.Context, userID string) (*string, error)
}

type Service struct {
	records   RecordSource
	schedules ScheduleResolver
	profiles  ProfileSource
	logger    *slog.Logger
	loc       *time.Location
}

type Option func(*Service)

// WithLocation sets the zone that decides which calendar week an instant
// falls in. It should match the attendance ledger's zone.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

func NewService(records RecordSource, schedules ScheduleResolver, profiles ProfileSource, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		records:   records,
		schedules: schedules,
		profiles:  profiles,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) scheduleFor(ctx context.Context, userID string) (*schedule.WorkSchedule, error) {
	id, err := s.profiles.WorkScheduleID(ctx, userID)
	if err != nil {
		s.logger.Error("failed to load user schedule id", "user_id", userID, "error", err)
		return nil, err
	}
	return s.schedules.ResolveForUser(ctx, id)
}

func (s *Service) WeeklyForUser(ctx context.Context, userID string, weekOf time.Time) (*WeeklySummary, error) {
	ws, err := s.scheduleFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.loc != nil {
		weekOf = weekOf.In(s.loc)
	}
	start := WeekStart(weekOf)
	records, err := s.records.ListRecordsForRange(ctx, userID,
		start.Format(time.DateOnly), start.AddDate(0, 0, 7).Format(time.DateOnly))
	if err != nil {
		return nil, err
	}
	summary := Weekly(records, start, ws)
	return &summary, nil
}

func (s *Service) LifetimeForUser(ctx context.Context, userID string) (*BalanceSummary, error) {
	ws, err := s.scheduleFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	records, err := s.records.ListRecordsForRange(ctx, userID, "", "")
	if err != nil {
		return nil, err
	}
	summary := Lifetime(records, ws)
	return &summary, nil
}

func (s *Service) MonthlyForUser(ctx context.Context, userID, monthKey string) (*BalanceSummary, error) {
	if err := validation.ValidateMonthKey(monthKey); err != nil {
		return nil, err
	}
	ws, err := s.scheduleFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	first, _ := time.Parse("2006-01", monthKey)
	records, err := s.records.ListRecordsForRange(ctx, userID,
		first.Format(time.DateOnly), first.AddDate(0, 1, 0).Format(time.DateOnly))
	if err != nil {
		return nil, err
	}
	summary := Monthly(records, monthKey, ws)
	return &summary, nil
}
