package user

import (
	"strings"
	"time"

	"github.com/opsportal/ops-portal/internal"
	"golang.org/x/crypto/bcrypt"
)

type Role string

const (
	RoleCollab Role = "collab"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleCollab || r == RoleAdmin
}

// Profile is one entry of the users collection.
type Profile struct {
	UID            string    `json:"uid"`
	Email          string    `json:"email"`
	DisplayName    string    `json:"displayName"`
	PhotoURL       string    `json:"photoURL,omitempty"`
	Role           Role      `json:"role"`
	Position       string    `json:"position,omitempty"`
	WorkScheduleID *string   `json:"workScheduleId,omitempty"`
	Active         bool      `json:"active"`
	Approved       *bool     `json:"approved,omitempty"`
	IsActive       *bool     `json:"isActive,omitempty"`
	PasswordHash   string    `json:"passwordHash,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// IsEnabled reports whether the account may sign in. The optional isActive
// flag only blocks when it is explicitly false.
func (p *Profile) IsEnabled() bool {
	return p.Active && (p.IsActive == nil || *p.IsActive)
}

// IsApproved is false only for an explicit approved=false.
func (p *Profile) IsApproved() bool {
	return p.Approved == nil || *p.Approved
}

func (p *Profile) isActiveAdmin() bool {
	return p.IsAdmin() && p.IsEnabled()
}

// ProfileResponse is Profile without credentials.
type ProfileResponse struct {
	UID            string    `json:"uid"`
	Email          string    `json:"email"`
	DisplayName    string    `json:"displayName"`
	PhotoURL       string    `json:"photoURL,omitempty"`
	Role           Role      `json:"role"`
	Position       string    `json:"position,omitempty"`
	WorkScheduleID *string   `json:"workScheduleId,omitempty"`
	Active         bool      `json:"active"`
	Approved       bool      `json:"approved"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (p *Profile) ToResponse() ProfileResponse {
	return ProfileResponse{
		UID:            p.UID,
		Email:          p.Email,
		DisplayName:    p.DisplayName,
		PhotoURL:       p.PhotoURL,
		Role:           p.Role,
		Position:       p.Position,
		WorkScheduleID: p.WorkScheduleID,
		Active:         p.IsEnabled(),
		Approved:       p.IsApproved(),
		CreatedAt:      p.CreatedAt,
	}
}

func flag(v bool) *bool {
	return &v
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// countActiveAdmins counts active admins other than exclude.
func countActiveAdmins(all []Profile, exclude string) int {
	n := 0
	for i := range all {
		if all[i].UID != exclude && all[i].isActiveAdmin() {
			n++
		}
	}
	return n
}

var (
	ErrUserNotFound    = internal.NewNotFoundError("Usuario no encontrado.", internal.ErrCodeUserNotFound)
	ErrEmailTaken      = internal.NewConflictError("Ya existe un usuario con ese correo.", internal.ErrCodeEmailTaken)
	ErrLastAdmin       = internal.NewConflictError("No puedes desactivar al último admin.", internal.ErrCodeLastAdmin)
	ErrLastAdminDemote = internal.NewConflictError("No puedes quitar el rol al último admin.", internal.ErrCodeLastAdminDemote)
)

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
