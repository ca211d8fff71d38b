package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/opsportal/ops-portal/internal"
	"github.com/opsportal/ops-portal/internal/session"
	"github.com/opsportal/ops-portal/internal/user"
)

type UserSource interface {
	GetByID(ctx context.Context, uid string) (*user.Profile, error)
	GetByEmail(ctx context.Context, email string) (*user.Profile, error)
}

type Service struct {
	users          UserSource
	tokenGenerator TokenGeneratorAPI
	sessions       session.Store
	logger         *slog.Logger
	sessionTTL     time.Duration
}

func NewService(users UserSource, tokenGen TokenGeneratorAPI, sessions session.Store, logger *slog.Logger, sessionTTL time.Duration) *Service {
	return &Service{
		users:          users,
		tokenGenerator: tokenGen,
		sessions:       sessions,
		logger:         logger,
		sessionTTL:     sessionTTL,
	}
}

// Login checks credentials, then the account state, then the portal role,
// and opens a new session.
func (s *Service) Login(ctx context.Context, dto LoginDTO) (*LoginResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	profile, err := s.users.GetByEmail(ctx, dto.Email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("failed to load user for login", "error", err)
		return nil, err
	}
	if profile.PasswordHash == "" || user.VerifyPassword(profile.PasswordHash, dto.Password) != nil {
		s.logger.Warn("login rejected: bad credentials", "user_id", profile.UID)
		return nil, ErrInvalidCredentials
	}
	if !profile.IsEnabled() {
		return nil, ErrUserInactive
	}
	if !profile.IsApproved() {
		return nil, ErrUserNotApproved
	}
	if dto.Portal == PortalAdmin && !profile.IsAdmin() {
		return nil, ErrRoleMismatch
	}

	p := &internal.Principal{
		UserID:    profile.UID,
		Email:     profile.Email,
		Role:      string(profile.Role),
		SessionID: uuid.NewString(),
	}
	token, expiresAt, err := s.tokenGenerator.GenerateAccessToken(p)
	if err != nil {
		s.logger.Error("failed to sign access token", "user_id", p.UserID, "error", err)
		return nil, internal.NewInternalError("failed to sign access token", err)
	}

	identity := session.Identity{UID: profile.UID, Email: profile.Email}
	if err := session.SetJSON(ctx, s.sessions, session.IdentityKey(p.SessionID), identity, s.sessionTTL); err != nil {
		s.logger.Error("failed to store session identity", "user_id", p.UserID, "error", err)
		return nil, err
	}

	s.logger.Info("user logged in", "user_id", p.UserID, "session_id", p.SessionID, "portal", dto.Portal)
	return &LoginResponse{Token: token, ExpiresAt: expiresAt, User: profile.ToResponse()}, nil
}

// Logout drops the session identity and any finance unlock it held.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	for _, key := range []string{session.IdentityKey(sessionID), session.FinanceUnlockKey(sessionID)} {
		if err := s.sessions.Delete(ctx, key); err != nil {
			s.logger.Error("failed to clear session key", "session_id", sessionID, "key", key, "error", err)
			return err
		}
	}
	s.logger.Info("user logged out", "session_id", sessionID)
	return nil
}

func (s *Service) Me(ctx context.Context, uid string) (*user.ProfileResponse, error) {
	profile, err := s.users.GetByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	resp := profile.ToResponse()
	return &resp, nil
}

// Authenticate turns a bearer token into the caller's principal. The session
// must still exist and the account must still be active; the role comes from
// the stored profile so role changes apply without a new login.
func (s *Service) Authenticate(ctx context.Context, token string) (*internal.Principal, error) {
	claims, err := s.tokenGenerator.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	var identity session.Identity
	if err := session.GetJSON(ctx, s.sessions, session.IdentityKey(claims.SessionID), &identity); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrSessionExpired
		}
		s.logger.Error("failed to read session identity", "session_id", claims.SessionID, "error", err)
		return nil, err
	}
	if identity.UID != claims.UserID {
		return nil, internal.ErrInvalidToken
	}

	profile, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, internal.ErrInvalidToken
		}
		return nil, err
	}
	if !profile.IsEnabled() {
		return nil, ErrUserInactive
	}

	p := claims.Principal()
	p.Role = string(profile.Role)
	return p, nil
}
