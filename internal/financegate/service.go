package financegate

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/opsportal/ops-portal/internal"
	"github.com/opsportal/ops-portal/internal/session"
	"github.com/opsportal/ops-portal/internal/store"
)

type SettingsRepository interface {
	Get(ctx context.Context) (Settings, error)
	Set(ctx context.Context, s Settings) error
}

func NewStoreRepository(s *store.Store) SettingsRepository {
	return store.NewDocument[Settings](s, store.SettingsFinance)
}

type Service struct {
	settings SettingsRepository
	sessions session.Store
	logger   *slog.Logger
	ttl      time.Duration
	now      internal.Clock
}

type Option func(*Service)

func WithClock(now internal.Clock) Option {
	return func(s *Service) { s.now = now }
}

func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func NewService(settings SettingsRepository, sessions session.Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		settings: settings,
		sessions: sessions,
		logger:   logger,
		ttl:      DefaultUnlockTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Unlock checks pin and opens the finance views for sessionID until the
// returned time.
func (s *Service) Unlock(ctx context.Context, sessionID, pin string) (time.Time, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		s.logger.Error("failed to load finance settings", "error", err)
		return time.Time{}, err
	}
	if !settings.Configured() {
		return time.Time{}, ErrNotConfigured
	}
	if !settings.Matches(pin) {
		s.logger.Warn("finance unlock rejected", "session_id", sessionID)
		return time.Time{}, ErrInvalidPIN
	}

	expiresAt := s.now().Add(s.ttl)
	value := Unlock{ExpiresAt: expiresAt.UnixMilli()}
	if err := session.SetJSON(ctx, s.sessions, session.FinanceUnlockKey(sessionID), value, s.ttl); err != nil {
		s.logger.Error("failed to store finance unlock", "session_id", sessionID, "error", err)
		return time.Time{}, err
	}

	s.logger.Info("finance unlocked", "session_id", sessionID, "expires_at", expiresAt)
	return value.Expiry(), nil
}

// IsUnlocked reports the unlock expiry for sessionID. An entry past its
// expiry is removed here.
func (s *Service) IsUnlocked(ctx context.Context, sessionID string) (bool, time.Time, error) {
	key := session.FinanceUnlockKey(sessionID)

	var value Unlock
	err := session.GetJSON(ctx, s.sessions, key, &value)
	if errors.Is(err, session.ErrNotFound) {
		return false, time.Time{}, nil
	}
	if err != nil {
		s.logger.Warn("dropping unreadable finance unlock", "session_id", sessionID, "error", err)
		_ = s.sessions.Delete(ctx, key)
		return false, time.Time{}, nil
	}

	expiry := value.Expiry()
	if !s.now().Before(expiry) {
		if err := s.sessions.Delete(ctx, key); err != nil {
			return false, time.Time{}, err
		}
		return false, time.Time{}, nil
	}
	return true, expiry, nil
}

func (s *Service) Lock(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, session.FinanceUnlockKey(sessionID)); err != nil {
		s.logger.Error("failed to lock finance", "session_id", sessionID, "error", err)
		return err
	}
	s.logger.Info("finance locked", "session_id", sessionID)
	return nil
}

func (s *Service) Status(ctx context.Context, sessionID string) (*StatusResponse, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	unlocked, expiry, err := s.IsUnlocked(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	resp := &StatusResponse{Unlocked: unlocked, Configured: settings.Configured()}
	if unlocked {
		ms := expiry.UnixMilli()
		resp.ExpiresAt = &ms
	}
	return resp, nil
}

// SetKey replaces the finance key with the SHA-256 digest of pin.
func (s *Service) SetKey(ctx context.Context, dto SetKeyDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}
	if err := s.settings.Set(ctx, Settings{FinanceKeyHash: HashPIN(dto.PIN)}); err != nil {
		s.logger.Error("failed to save finance key", "error", err)
		return err
	}
	s.logger.Info("finance key updated")
	return nil
}

// EnsureKey stores pin only when no finance key exists yet. It reports
// whether a key was written.
func (s *Service) EnsureKey(ctx context.Context, pin string) (bool, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return false, err
	}
	if settings.Configured() {
		return false, nil
	}
	if err := s.SetKey(ctx, SetKeyDTO{PIN: pin}); err != nil {
		return false, err
	}
	return true, nil
}
