package auth

import (
	"time"

	"github.com/opsportal/ops-portal/internal"
	"github.com/opsportal/ops-portal/internal/core/common/validation"
	"github.com/opsportal/ops-portal/internal/user"
)

const (
	PortalCollab = "collab"
	PortalAdmin  = "admin"
)

// LoginDTO is the login form. Portal selects which console the user is
// signing into and defaults to the collaborator one.
type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Portal   string `json:"portal"`
}

func (d LoginDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("email", d.Email).Required()
	v.Field("password", d.Password).Required()
	if d.Portal != "" {
		v.Field("portal", d.Portal).OneOf(internal.ErrCodeInvalidRole, PortalCollab, PortalAdmin)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type LoginResponse struct {
	Token     string               `json:"token"`
	ExpiresAt time.Time            `json:"expiresAt"`
	User      user.ProfileResponse `json:"user"`
}
