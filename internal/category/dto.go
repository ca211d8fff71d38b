package category

import (
	"github.com/opsportal/ops-portal/internal"
	"github.com/opsportal/ops-portal/internal/core/common/validation"
)

type CategoryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Kind        Kind   `json:"kind"`
	Description string `json:"description"`
}

type CategoriesResponse struct {
	Categories []CategoryResponse `json:"categories"`
}

type CreateCategoryDTO struct {
	Name        string `json:"name"`
	Kind        Kind   `json:"kind"`
	Description string `json:"description"`
}

func (dto CreateCategoryDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", dto.Name).Required().MinLength(2).MaxLength(60)
	v.Field("kind", string(dto.Kind)).Required().OneOf(internal.ErrCodeInvalidCategory, string(KindIncome), string(KindExpense))
	v.Field("description", dto.Description).MaxLength(200)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
