package schedule

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]WorkSchedule, error)
	Save(ctx context.Context, ws WorkSchedule) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// List returns the presets followed by stored schedules. A stored schedule
// with a preset id replaces that preset.
func (s *Service) List(ctx context.Context) ([]WorkSchedule, error) {
	stored, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to load work schedules", "error", err)
		return nil, err
	}

	byID := make(map[string]WorkSchedule, len(stored))
	for _, ws := range stored {
		byID[ws.ID] = ws
	}

	result := make([]WorkSchedule, 0, len(stored)+2)
	for _, preset := range Presets() {
		if override, ok := byID[preset.ID]; ok {
			result = append(result, override)
			delete(byID, preset.ID)
			continue
		}
		result = append(result, preset)
	}
	for _, ws := range stored {
		if _, ok := byID[ws.ID]; ok {
			result = append(result, ws)
		}
	}
	return result, nil
}

func (s *Service) Get(ctx context.Context, id string) (*WorkSchedule, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, ws := range all {
		if ws.ID == id {
			found := ws
			return &found, nil
		}
	}
	return nil, ErrScheduleNotFound
}

func (s *Service) Save(ctx context.Context, dto SaveScheduleDTO) (*WorkSchedule, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	ws := WorkSchedule{
		ID:            strings.TrimSpace(dto.ID),
		Name:          strings.TrimSpace(dto.Name),
		WeeklyMinutes: dto.WeeklyMinutes,
		Days:          make(map[Weekday]int, len(dto.Days)),
	}
	for day, minutes := range dto.Days {
		ws.Days[day] = minutes
	}
	if ws.ID == "" {
		ws.ID = uuid.NewString()
	}
	if ws.WeeklyMinutes == 0 {
		ws.WeeklyMinutes = ws.SumDays()
	}

	if err := s.repo.Save(ctx, ws); err != nil {
		s.logger.Error("failed to save work schedule", "schedule_id", ws.ID, "error", err)
		return nil, err
	}

	s.logger.Info("work schedule saved", "schedule_id", ws.ID, "weekly_minutes", ws.WeeklyMinutes)
	return &ws, nil
}

// ResolveForUser maps a user's schedule id to a schedule. No id, or an id
// that no longer exists, resolves to nil so callers use the default.
func (s *Service) ResolveForUser(ctx context.Context, scheduleID *string) (*WorkSchedule, error) {
	if scheduleID == nil || *scheduleID == "" {
		return nil, nil
	}
	ws, err := s.Get(ctx, *scheduleID)
	if errors.Is(err, ErrScheduleNotFound) {
		s.logger.Warn("user references unknown work schedule, using default", "schedule_id", *scheduleID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ws, nil
}
