package category

import (
	"context"

	"github.com/opsportal/ops-portal/internal/store"
)

type storeRepository struct {
	categories *store.Collection[Category]
}

func NewStoreRepository(s *store.Store) RepositoryAPI {
	return &storeRepository{
		categories: store.NewCollection[Category](s, store.FinanceCategories).WithDefault(DefaultCategories),
	}
}

func (r *storeRepository) GetAll(ctx context.Context) ([]Category, error) {
	return r.categories.Get(ctx)
}

func (r *storeRepository) GetByID(ctx context.Context, id string) (*Category, error) {
	all, err := r.categories.Get(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, ErrCategoryNotFound
}

func (r *storeRepository) Create(ctx context.Context, c *Category) error {
	return r.categories.Update(ctx, func(all []Category) ([]Category, error) {
		for i := range all {
			if all[i].Kind == c.Kind && all[i].SameName(c.Name) {
				return nil, ErrCategoryExists
			}
		}
		return append(all, *c), nil
	})
}

func (r *storeRepository) Update(ctx context.Context, id string, fn func(*Category)) (*Category, error) {
	var updated Category
	err := r.categories.Update(ctx, func(all []Category) ([]Category, error) {
		for i := range all {
			if all[i].ID == id {
				fn(&all[i])
				updated = all[i]
				return all, nil
			}
		}
		return nil, ErrCategoryNotFound
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
