package financegate

import (
	"github.com/opsportal/ops-portal/internal"
	"github.com/opsportal/ops-portal/internal/core/common/validation"
)

type UnlockDTO struct {
	PIN string `json:"pin"`
}

type SetKeyDTO struct {
	PIN string `json:"pin"`
}

func (dto SetKeyDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("pin", dto.PIN).Required().Custom(func(value interface{}) *internal.AppError {
		if n := len(value.(string)); n < 4 || n > 64 {
			return internal.NewValidationFieldError("pin", "La clave debe tener entre 4 y 64 caracteres.", internal.ErrCodeInvalidPINFormat)
		}
		return nil
	})
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type StatusResponse struct {
	Unlocked   bool   `json:"unlocked"`
	Configured bool   `json:"configured"`
	ExpiresAt  *int64 `json:"expiresAt,omitempty"`
}
