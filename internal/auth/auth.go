package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/opsportal/ops-portal/internal"
)

// Claims is the access token payload. SessionID ties the token to the
// identity and finance-unlock keys in the session store.
type Claims struct {
	UserID    string `json:"uid"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

func (c *Claims) Principal() *internal.Principal {
	return &internal.Principal{
		UserID:    c.UserID,
		Email:     c.Email,
		Role:      c.Role,
		SessionID: c.SessionID,
	}
}

type TokenGeneratorAPI interface {
	GenerateAccessToken(p *internal.Principal) (token string, expiresAt time.Time, err error)
	ValidateToken(tokenString string) (*Claims, error)
}

type JWTTokenGenerator struct {
	AccessTokenSecret []byte
	AccessTokenTTL    time.Duration
	now               func() time.Time
}

func NewJWTTokenGenerator(accessSecret string, accessTTL time.Duration) *JWTTokenGenerator {
	if accessTTL <= 0 {
		accessTTL = 12 * time.Hour
	}
	return &JWTTokenGenerator{
		AccessTokenSecret: []byte(accessSecret),
		AccessTokenTTL:    accessTTL,
		now:               time.Now,
	}
}

func (j *JWTTokenGenerator) GenerateAccessToken(p *internal.Principal) (string, time.Time, error) {
	issuedAt := j.now()
	expiresAt := issuedAt.Add(j.AccessTokenTTL)

	claims := &Claims{
		UserID:    p.UserID,
		Email:     p.Email,
		Role:      p.Role,
		SessionID: p.SessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			Subject:   p.UserID,
			ID:        p.SessionID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(j.AccessTokenSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

func (j *JWTTokenGenerator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.AccessTokenSecret, nil
	}, jwt.WithTimeFunc(j.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, internal.ErrTokenExpired
		}
		return nil, internal.ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.SessionID != "" {
		return claims, nil
	}
	return nil, internal.ErrInvalidToken
}

var (
	ErrInvalidCredentials = internal.NewUnauthorizedError("Correo o contraseña incorrectos.", internal.ErrCodeInvalidCredentials)
	ErrUserInactive       = internal.NewForbiddenError("Tu cuenta está desactivada.", internal.ErrCodeUserInactive)
	ErrUserNotApproved    = internal.NewForbiddenError("Tu cuenta está pendiente de aprobación.", internal.ErrCodeUserNotApproved)
	ErrRoleMismatch       = internal.NewForbiddenError("No tienes permisos de administrador.", internal.ErrCodeRoleMismatch)
	ErrSessionExpired     = internal.NewUnauthorizedError("Tu sesión expiró, vuelve a iniciar sesión.", internal.ErrCodeSessionExpired)
)
