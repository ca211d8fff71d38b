package category

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]Category, error)
	GetByID(ctx context.Context, id string) (*Category, error)
	Create(ctx context.Context, c *Category) error
	Update(ctx context.Context, id string, fn func(*Category)) (*Category, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// GetAllCategories lists active categories, optionally of one kind.
func (s *Service) GetAllCategories(ctx context.Context, kind Kind) ([]CategoryResponse, error) {
	categories, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to get categories from repository", "error", err)
		return nil, err
	}

	responses := make([]CategoryResponse, 0, len(categories))
	for i := range categories {
		c := &categories[i]
		if !c.IsActiveCategory() || (kind != "" && c.Kind != kind) {
			continue
		}
		responses = append(responses, c.ToResponse())
	}

	s.logger.Debug("retrieved categories", "count", len(responses), "kind", kind)
	return responses, nil
}

func (s *Service) GetCategoryByName(ctx context.Context, name string) (*CategoryResponse, error) {
	categories, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to get categories from repository", "error", err)
		return nil, err
	}

	for i := range categories {
		c := &categories[i]
		if c.SameName(name) && c.IsActiveCategory() {
			response := c.ToResponse()
			return &response, nil
		}
	}

	return nil, nil
}

func (s *Service) IsValidCategory(ctx context.Context, name string) bool {
	category, err := s.GetCategoryByName(ctx, name)
	if err != nil {
		s.logger.Warn("error checking category validity", "name", name, "error", err)
		return false
	}
	return category != nil
}

func (s *Service) CreateCategory(ctx context.Context, dto CreateCategoryDTO) (*Category, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	c := NewCategory(uuid.NewString(), dto.Name, dto.Kind, dto.Description, s.now())
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info("category created", "category_id", c.ID, "name", c.Name, "kind", c.Kind)
	return c, nil
}

func (s *Service) DeactivateCategory(ctx context.Context, id string) (*Category, error) {
	now := s.now()
	c, err := s.repo.Update(ctx, id, func(c *Category) { c.Deactivate(now) })
	if err != nil {
		return nil, err
	}
	s.logger.Info("category deactivated", "category_id", id)
	return c, nil
}

func (s *Service) ActivateCategory(ctx context.Context, id string) (*Category, error) {
	now := s.now()
	c, err := s.repo.Update(ctx, id, func(c *Category) { c.Activate(now) })
	if err != nil {
		return nil, err
	}
	s.logger.Info("category activated", "category_id", id)
	return c, nil
}
