package user

import (
	"net/mail"
	"strings"

	"github.com/opsportal/ops-portal/internal"
	"github.com/opsportal/ops-portal/internal/core/common/validation"
)

type CreateUserDTO struct {
	Email          string  `json:"email"`
	Password       string  `json:"password"`
	DisplayName    string  `json:"displayName"`
	Role           Role    `json:"role"`
	Position       string  `json:"position"`
	WorkScheduleID *string `json:"workScheduleId"`
}

func (dto CreateUserDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("email", dto.Email).Required().Custom(email)
	v.Field("password", dto.Password).Required().MinLength(8).MaxLength(72)
	v.Field("displayName", dto.DisplayName).Required().MaxLength(80)
	v.Field("role", string(dto.Role)).Required().OneOf(internal.ErrCodeInvalidRole, string(RoleCollab), string(RoleAdmin))
	v.Field("position", dto.Position).MaxLength(80)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// RegisterDTO is the self sign-up form. New accounts wait for approval.
type RegisterDTO struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

func (dto RegisterDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("email", dto.Email).Required().Custom(email)
	v.Field("password", dto.Password).Required().MinLength(8).MaxLength(72)
	v.Field("displayName", dto.DisplayName).Required().MaxLength(80)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type UpdateRoleDTO struct {
	Role Role `json:"role"`
}

func (dto UpdateRoleDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("role", string(dto.Role)).Required().OneOf(internal.ErrCodeInvalidRole, string(RoleCollab), string(RoleAdmin))
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type SetActiveDTO struct {
	Active bool `json:"active"`
}

type AssignScheduleDTO struct {
	WorkScheduleID *string `json:"workScheduleId"`
}

type UpdateProfileDTO struct {
	DisplayName *string `json:"displayName"`
	PhotoURL    *string `json:"photoURL"`
	Position    *string `json:"position"`
}

func (dto UpdateProfileDTO) Validate() error {
	v := validation.NewValidator()
	if dto.DisplayName != nil {
		v.Field("displayName", *dto.DisplayName).Required().MaxLength(80)
	}
	if dto.PhotoURL != nil {
		v.Field("photoURL", *dto.PhotoURL).MaxLength(500)
	}
	if dto.Position != nil {
		v.Field("position", *dto.Position).MaxLength(80)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func email(value interface{}) *internal.AppError {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if addr, err := mail.ParseAddress(s); err != nil || addr.Address != strings.TrimSpace(s) {
		return internal.NewValidationFieldError("email", "El correo no es válido.", internal.ErrCodeValidationFailed)
	}
	return nil
}
