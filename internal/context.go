package internal

import (
	"context"
	"time"
)

type ctxKey string

const (
	ContextUserKey      ctxKey = "userID"
	ContextSessionKey   ctxKey = "sessionID"
	ContextPrincipalKey ctxKey = "principal"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID    string
	Email     string
	Role      string
	SessionID string
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == "admin"
}

func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	if ctx == nil {
		return nil, false
	}
	p, ok := ctx.Value(ContextPrincipalKey).(*Principal)
	return p, ok && p != nil
}

// ContextWithPrincipal also sets the user and session id keys.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	ctx = context.WithValue(ctx, ContextPrincipalKey, p)
	ctx = ContextWithUserID(ctx, p.UserID)
	return ContextWithSessionID(ctx, p.SessionID)
}

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if userID, ok := ctx.Value(ContextUserKey).(string); ok {
		return userID
	}
	return ""
}

func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ContextUserKey, userID)
}

func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if sessionID, ok := ctx.Value(ContextSessionKey).(string); ok {
		return sessionID
	}
	return ""
}

func ContextWithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, ContextSessionKey, sessionID)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}

// Clock returns the current time. Services take one so tests can pin "now".
type Clock func() time.Time

// LocalClock reads now in loc, so calendar math on its result follows the
// configured zone rather than the host's.
func LocalClock(now Clock, loc *time.Location) Clock {
	if loc == nil {
		return now
	}
	return func() time.Time { return now().In(loc) }
}

// DayKey formats t as the ISO calendar day in loc.
func DayKey(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(time.DateOnly)
}
