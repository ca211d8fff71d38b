package attendance

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/opsportal/ops-portal/internal"
	"github.com/opsportal/ops-portal/internal/core/events"
	"github.com/opsportal/ops-portal/internal/schedule"
)

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
	events events.Publisher
	now    internal.Clock
	loc    *time.Location
}

type Option func(*Service)

func WithClock(now internal.Clock) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the zone that decides which calendar day "today" is.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.events = p }
}

func NewService(repo RepositoryAPI, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		logger: logger,
		events: events.NopPublisher{},
		now:    time.Now,
		loc:    time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) today() (time.Time, string) {
	now := s.now()
	return now, internal.DayKey(now, s.loc)
}

// TodayView is the caller's record for the current day and its derived state.
type TodayView struct {
	Date   string  `json:"date"`
	State  State   `json:"state"`
	Record *Record `json:"record"`
}

func (s *Service) Today(ctx context.Context, userID string) (*TodayView, error) {
	_, date := s.today()
	rec, err := s.repo.GetRecord(ctx, userID, date)
	if errors.Is(err, ErrRecordNotFound) {
		return &TodayView{Date: date, State: StateOff}, nil
	}
	if err != nil {
		s.logger.Error("failed to load today's record", "user_id", userID, "error", err)
		return nil, err
	}
	return &TodayView{Date: date, State: rec.State(), Record: rec}, nil
}

func (s *Service) CheckIn(ctx context.Context, userID string) (*Record, error) {
	now, date := s.today()
	rec := NewRecord(userID, date, now)

	if err := s.repo.CreateRecord(ctx, rec); err != nil {
		if !errors.Is(err, ErrAlreadyCheckedIn) {
			s.logger.Error("failed to create attendance record", "user_id", userID, "date", date, "error", err)
		}
		return nil, err
	}

	s.logger.Info("checked in", "user_id", userID, "date", date, "record_id", rec.ID)
	s.publish(ctx, events.EventTypeCheckedIn, now, map[string]interface{}{
		"userId":   userID,
		"date":     date,
		"recordId": rec.ID,
	})
	return rec, nil
}

func (s *Service) StartBreak(ctx context.Context, userID string) (*Record, error) {
	return s.transition(ctx, userID, "break started", (*Record).StartBreak)
}

func (s *Service) EndBreak(ctx context.Context, userID string) (*Record, error) {
	return s.transition(ctx, userID, "break ended", (*Record).EndBreak)
}

func (s *Service) CheckOut(ctx context.Context, userID string) (*Record, error) {
	rec, err := s.transition(ctx, userID, "checked out", (*Record).CheckOut)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventTypeCheckedOut, *rec.CheckOutAt, map[string]interface{}{
		"userId":       userID,
		"date":         rec.Date,
		"recordId":     rec.ID,
		"totalMinutes": rec.TotalMinutes,
	})
	return rec, nil
}

func (s *Service) transition(ctx context.Context, userID, action string, apply func(*Record, time.Time) error) (*Record, error) {
	now, date := s.today()
	rec, err := s.repo.UpdateRecord(ctx, userID, date, func(r *Record) error {
		return apply(r, now)
	})
	if errors.Is(err, ErrRecordNotFound) {
		return nil, ErrNotCheckedIn
	}
	if err != nil {
		if _, ok := internal.IsAppError(err); !ok {
			s.logger.Error("attendance transition failed", "action", action, "user_id", userID, "error", err)
		}
		return nil, err
	}
	s.logger.Info(action, "user_id", userID, "date", date, "state", rec.State(), "total_minutes", rec.TotalMinutes)
	return rec, nil
}

// SaveNote sets or clears the note on the caller's record for dto.Date.
func (s *Service) SaveNote(ctx context.Context, userID string, dto SaveNoteDTO) (*Record, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	now := s.now()
	note := strings.TrimSpace(dto.Note)
	rec, err := s.repo.UpdateRecord(ctx, userID, dto.Date, func(r *Record) error {
		r.SetNote(note, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListRecordsForWeek returns the records of the Monday-based week containing
// weekOf. weekOf is read as a calendar date.
// ListRecordsForWeek lists the records of the week holding weekOf, read as a
// calendar day in the ledger's zone.
func (s *Service) ListRecordsForWeek(ctx context.Context, userID string, weekOf time.Time) ([]Record, error) {
	if s.loc != nil {
		weekOf = weekOf.In(s.loc)
	}
	start := schedule.WeekStart(weekOf)
	from := start.Format(time.DateOnly)
	to := start.AddDate(0, 0, 7).Format(time.DateOnly)
	return s.ListRecordsForRange(ctx, userID, from, to)
}

func (s *Service) ListRecordsForUser(ctx context.Context, userID string) ([]Record, error) {
	return s.ListRecordsForRange(ctx, userID, "", "")
}

// ListRecordsForRange returns records with from <= date < to.
func (s *Service) ListRecordsForRange(ctx context.Context, userID, from, to string) ([]Record, error) {
	records, err := s.repo.ListRecords(ctx, userID, from, to)
	if err != nil {
		s.logger.Error("failed to list attendance records", "user_id", userID, "from", from, "to", to, "error", err)
		return nil, err
	}
	return records, nil
}

func (s *Service) CreateExtra(ctx context.Context, userID string, dto CreateExtraDTO) (*ExtraActivity, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	extra := &ExtraActivity{
		ID:        uuid.NewString(),
		UserID:    userID,
		Date:      dto.Date,
		Minutes:   dto.Minutes,
		Type:      dto.Type,
		Project:   optional(dto.Project),
		Note:      optional(dto.Note),
		Review:    pendingReview(),
		CreatedAt: s.now(),
	}
	if err := s.repo.CreateExtra(ctx, extra); err != nil {
		s.logger.Error("failed to create extra activity", "user_id", userID, "error", err)
		return nil, err
	}
	s.logger.Info("extra activity created", "user_id", userID, "extra_id", extra.ID, "minutes", extra.Minutes)
	return extra, nil
}

// ListExtras lists one user's extras, or everyone's when userID is empty.
func (s *Service) ListExtras(ctx context.Context, userID string) ([]ExtraActivity, error) {
	return s.repo.ListExtras(ctx, userID)
}

func (s *Service) ReviewExtra(ctx context.Context, id, reviewerID string, approve bool) (*ExtraActivity, error) {
	now := s.now()
	extra, err := s.repo.UpdateExtra(ctx, id, func(e *ExtraActivity) error {
		return e.decide(reviewerID, approve, now)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("extra activity reviewed", "extra_id", id, "reviewer_id", reviewerID, "status", extra.Status)
	return extra, nil
}

func (s *Service) CreateRequest(ctx context.Context, userID string, dto CreateRequestDTO) (*Request, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	req := &Request{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      dto.Type,
		Date:      dto.Date,
		Reason:    strings.TrimSpace(dto.Reason),
		Review:    pendingReview(),
		CreatedAt: s.now(),
	}
	if dto.Type == RequestHours {
		hours := dto.Hours
		req.Hours = &hours
	} else {
		req.EndDate = optional(dto.EndDate)
	}
	if err := s.repo.CreateRequest(ctx, req); err != nil {
		s.logger.Error("failed to create request", "user_id", userID, "error", err)
		return nil, err
	}
	s.logger.Info("request created", "user_id", userID, "request_id", req.ID, "type", req.Type)
	return req, nil
}

// ListRequests filters by owner and status; empty values match everything.
func (s *Service) ListRequests(ctx context.Context, userID string, status ReviewStatus) ([]Request, error) {
	all, err := s.repo.ListRequests(ctx, userID)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return all, nil
	}
	result := make([]Request, 0, len(all))
	for _, r := range all {
		if r.Status == status {
			result = append(result, r)
		}
	}
	return result, nil
}

func (s *Service) ReviewRequest(ctx context.Context, id, reviewerID string, approve bool) (*Request, error) {
	now := s.now()
	req, err := s.repo.UpdateRequest(ctx, id, func(r *Request) error {
		return r.decide(reviewerID, approve, now)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("request reviewed", "request_id", id, "reviewer_id", reviewerID, "status", req.Status)
	s.publish(ctx, events.EventTypeRequestReviewed, now, map[string]interface{}{
		"requestId":  id,
		"userId":     req.UserID,
		"reviewerId": reviewerID,
		"status":     string(req.Status),
	})
	return req, nil
}

// CreateCorrection files a correction against one of the caller's own
// records. The record itself is left untouched.
func (s *Service) CreateCorrection(ctx context.Context, userID string, dto CreateCorrectionDTO) (*CorrectionRequest, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	rec, err := s.repo.GetRecordByID(ctx, dto.AttendanceID)
	if err != nil {
		return nil, err
	}
	if rec.UserID != userID {
		return nil, internal.ErrUnauthorizedAccess
	}

	c := &CorrectionRequest{
		ID:              uuid.NewString(),
		UserID:          userID,
		Date:            rec.Date,
		AttendanceID:    rec.ID,
		ProposedChanges: strings.TrimSpace(dto.ProposedChanges),
		Reason:          strings.TrimSpace(dto.Reason),
		Review:          pendingReview(),
		CreatedAt:       s.now(),
	}
	if err := s.repo.CreateCorrection(ctx, c); err != nil {
		s.logger.Error("failed to create correction", "user_id", userID, "error", err)
		return nil, err
	}
	s.logger.Info("correction requested", "user_id", userID, "correction_id", c.ID, "attendance_id", rec.ID)
	return c, nil
}

func (s *Service) ListCorrections(ctx context.Context, userID string) ([]CorrectionRequest, error) {
	return s.repo.ListCorrections(ctx, userID)
}

func (s *Service) ReviewCorrection(ctx context.Context, id, reviewerID string, approve bool) (*CorrectionRequest, error) {
	now := s.now()
	c, err := s.repo.UpdateCorrection(ctx, id, func(c *CorrectionRequest) error {
		return c.decide(reviewerID, approve, now)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("correction reviewed", "correction_id", id, "reviewer_id", reviewerID, "status", c.Status)
	return c, nil
}

func (s *Service) publish(ctx context.Context, eventType string, at time.Time, data map[string]interface{}) {
	if err := s.events.Publish(ctx, events.NewEvent(eventType, at, data)); err != nil {
		s.logger.Warn("failed to publish event", "event_type", eventType, "error", err)
	}
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
