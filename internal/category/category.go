package category

import (
	"strings"
	"time"

	"github.com/opsportal/ops-portal/internal"
)

type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Kind        Kind      `json:"kind"`
	Description string    `json:"description"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

var (
	ErrCategoryExists   = internal.NewConflictError("La categoría ya existe.", internal.ErrCodeCategoryExists)
	ErrCategoryNotFound = internal.NewNotFoundError("Categoría no encontrada.", internal.ErrCodeCategoryNotFound)
)

func (c *Category) IsActiveCategory() bool {
	return c.IsActive
}

func (c *Category) ToResponse() CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Kind:        c.Kind,
		Description: c.Description,
	}
}

func (c *Category) Activate(now time.Time) {
	c.IsActive = true
	c.UpdatedAt = now
}

func (c *Category) Deactivate(now time.Time) {
	c.IsActive = false
	c.UpdatedAt = now
}

// SameName compares names case-insensitively, ignoring surrounding spaces.
func (c *Category) SameName(name string) bool {
	return strings.EqualFold(strings.TrimSpace(c.Name), strings.TrimSpace(name))
}

func NewCategory(id, name string, kind Kind, description string, now time.Time) *Category {
	return &Category{
		ID:          id,
		Name:        strings.TrimSpace(name),
		Kind:        kind,
		Description: strings.TrimSpace(description),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// DefaultCategories is what an empty financeCategories collection reads as.
func DefaultCategories() []Category {
	defaults := []struct {
		id, name string
		kind     Kind
	}{
		{"servicios", "Servicios", KindIncome},
		{"ventas", "Ventas", KindIncome},
		{"software", "Software", KindExpense},
		{"oficina", "Oficina", KindExpense},
		{"marketing", "Marketing", KindExpense},
		{"nomina", "Nómina", KindExpense},
		{"impuestos", "Impuestos", KindExpense},
		{"otros", "Otros", KindExpense},
	}
	out := make([]Category, len(defaults))
	for i, d := range defaults {
		out[i] = Category{ID: d.id, Name: d.name, Kind: d.kind, IsActive: true}
	}
	return out
}
