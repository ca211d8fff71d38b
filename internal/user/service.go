package user

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/opsportal/ops-portal/internal"
	"github.com/opsportal/ops-portal/internal/core/events"
	"github.com/opsportal/ops-portal/internal/schedule"
	"golang.org/x/crypto/bcrypt"
)

type ScheduleLookup interface {
	Get(ctx context.Context, id string) (*schedule.WorkSchedule, error)
}

type Service struct {
	repo       RepositoryAPI
	logger     *slog.Logger
	now        internal.Clock
	publisher  events.Publisher
	schedules  ScheduleLookup
	bcryptCost int
}

type Option func(*Service)

func WithClock(now internal.Clock) Option {
	return func(s *Service) { s.now = now }
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithScheduleLookup(l ScheduleLookup) Option {
	return func(s *Service) { s.schedules = l }
}

func WithBCryptCost(cost int) Option {
	return func(s *Service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.bcryptCost = cost
		}
	}
}

func NewService(repo RepositoryAPI, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		logger:     logger,
		now:        time.Now,
		publisher:  events.NopPublisher{},
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) GetByID(ctx context.Context, uid string) (*Profile, error) {
	all, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to load users", "error", err)
		return nil, err
	}
	for i := range all {
		if all[i].UID == uid {
			return &all[i], nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	all, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to load users", "error", err)
		return nil, err
	}
	want := NormalizeEmail(email)
	for i := range all {
		if NormalizeEmail(all[i].Email) == want {
			return &all[i], nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *Service) List(ctx context.Context) ([]ProfileResponse, error) {
	all, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to load users", "error", err)
		return nil, err
	}
	out := make([]ProfileResponse, len(all))
	for i := range all {
		out[i] = all[i].ToResponse()
	}
	return out, nil
}

// Create adds an approved, active account on behalf of an admin.
func (s *Service) Create(ctx context.Context, dto CreateUserDTO) (*Profile, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkSchedule(ctx, dto.WorkScheduleID); err != nil {
		return nil, err
	}
	p, err := s.newProfile(dto.Email, dto.Password, dto.DisplayName)
	if err != nil {
		return nil, err
	}
	p.Role = dto.Role
	p.Position = strings.TrimSpace(dto.Position)
	p.WorkScheduleID = dto.WorkScheduleID
	p.Approved = flag(true)

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("user created", "user_id", p.UID, "role", p.Role)
	return p, nil
}

// Register is self sign-up: a collaborator account that an admin must approve.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*Profile, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	p, err := s.newProfile(dto.Email, dto.Password, dto.DisplayName)
	if err != nil {
		return nil, err
	}
	p.Approved = flag(false)
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("user registered", "user_id", p.UID)
	return p, nil
}

func (s *Service) newProfile(email, password, displayName string) (*Profile, error) {
	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		s.logger.Error("failed to hash password", "error", err)
		return nil, internal.NewInternalError("failed to hash password", err)
	}
	return &Profile{
		UID:          uuid.NewString(),
		Email:        NormalizeEmail(email),
		DisplayName:  strings.TrimSpace(displayName),
		Role:         RoleCollab,
		Active:       true,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}, nil
}

// UpdateRole changes a role. Demoting the only active admin is refused.
func (s *Service) UpdateRole(ctx context.Context, uid string, dto UpdateRoleDTO) (*Profile, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	var previous Role
	p, err := s.repo.Update(ctx, uid, func(p *Profile, all []Profile) error {
		previous = p.Role
		if p.isActiveAdmin() && dto.Role != RoleAdmin && countActiveAdmins(all, uid) == 0 {
			return ErrLastAdminDemote
		}
		p.Role = dto.Role
		return nil
	})
	if err != nil {
		s.logger.Warn("role change rejected", "user_id", uid, "role", dto.Role, "error", err)
		return nil, err
	}
	if previous != p.Role {
		s.publish(ctx, events.EventTypeUserRoleChanged, map[string]interface{}{
			"user_id": uid, "from": string(previous), "to": string(p.Role),
		})
	}
	s.logger.Info("user role updated", "user_id", uid, "role", p.Role)
	return p, nil
}

// SetActive enables or disables an account. Deactivating the only active
// admin fails with ErrLastAdmin and nothing is written.
func (s *Service) SetActive(ctx context.Context, uid string, active bool) (*Profile, error) {
	var changed bool
	p, err := s.repo.Update(ctx, uid, func(p *Profile, all []Profile) error {
		if !active && p.isActiveAdmin() && countActiveAdmins(all, uid) == 0 {
			return ErrLastAdmin
		}
		changed = p.IsEnabled() != active
		p.Active = active
		if p.IsActive != nil {
			p.IsActive = flag(active)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("active change rejected", "user_id", uid, "active", active, "error", err)
		return nil, err
	}
	if changed {
		s.publish(ctx, events.EventTypeUserActiveChanged, map[string]interface{}{
			"user_id": uid, "active": active,
		})
	}
	s.logger.Info("user active flag updated", "user_id", uid, "active", active)
	return p, nil
}

func (s *Service) Approve(ctx context.Context, uid string) (*Profile, error) {
	p, err := s.repo.Update(ctx, uid, func(p *Profile, _ []Profile) error {
		p.Approved = flag(true)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("user approved", "user_id", uid)
	return p, nil
}

// AssignSchedule sets the user's work schedule. A nil id restores the default.
func (s *Service) AssignSchedule(ctx context.Context, uid string, dto AssignScheduleDTO) (*Profile, error) {
	if err := s.checkSchedule(ctx, dto.WorkScheduleID); err != nil {
		return nil, err
	}
	p, err := s.repo.Update(ctx, uid, func(p *Profile, _ []Profile) error {
		p.WorkScheduleID = dto.WorkScheduleID
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("work schedule assigned", "user_id", uid, "schedule_id", dto.WorkScheduleID)
	return p, nil
}

func (s *Service) UpdateProfile(ctx context.Context, uid string, dto UpdateProfileDTO) (*Profile, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, uid, func(p *Profile, _ []Profile) error {
		if dto.DisplayName != nil {
			p.DisplayName = strings.TrimSpace(*dto.DisplayName)
		}
		if dto.PhotoURL != nil {
			p.PhotoURL = strings.TrimSpace(*dto.PhotoURL)
		}
		if dto.Position != nil {
			p.Position = strings.TrimSpace(*dto.Position)
		}
		return nil
	})
}

// WorkScheduleID returns the schedule assigned to uid, nil for the default.
func (s *Service) WorkScheduleID(ctx context.Context, uid string) (*string, error) {
	p, err := s.GetByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	return p.WorkScheduleID, nil
}

func (s *Service) checkSchedule(ctx context.Context, id *string) error {
	if id == nil || s.schedules == nil {
		return nil
	}
	_, err := s.schedules.Get(ctx, *id)
	return err
}

func (s *Service) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if err := s.publisher.Publish(ctx, events.NewEvent(eventType, s.now(), data)); err != nil {
		s.logger.Warn("failed to publish event", "event_type", eventType, "error", err)
	}
}
