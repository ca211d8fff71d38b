package user

import (
	"context"

	"github.com/opsportal/ops-portal/internal/store"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]Profile, error)
	Create(ctx context.Context, p *Profile) error
	// Update applies fn to the profile with uid while holding the collection
	// lock. fn sees every profile so it can check cross-user rules; an error
	// from fn leaves the collection untouched.
	Update(ctx context.Context, uid string, fn func(p *Profile, all []Profile) error) (*Profile, error)
}

type storeRepository struct {
	users *store.Collection[Profile]
}

func NewStoreRepository(s *store.Store) RepositoryAPI {
	return &storeRepository{users: store.NewCollection[Profile](s, store.Users)}
}

func (r *storeRepository) GetAll(ctx context.Context) ([]Profile, error) {
	return r.users.Get(ctx)
}

func (r *storeRepository) Create(ctx context.Context, p *Profile) error {
	return r.users.Update(ctx, func(all []Profile) ([]Profile, error) {
		for i := range all {
			if NormalizeEmail(all[i].Email) == NormalizeEmail(p.Email) {
				return nil, ErrEmailTaken
			}
		}
		return append(all, *p), nil
	})
}

func (r *storeRepository) Update(ctx context.Context, uid string, fn func(*Profile, []Profile) error) (*Profile, error) {
	var updated Profile
	err := r.users.Update(ctx, func(all []Profile) ([]Profile, error) {
		for i := range all {
			if all[i].UID != uid {
				continue
			}
			next := all[i]
			if err := fn(&next, all); err != nil {
				return nil, err
			}
			all[i] = next
			updated = next
			return all, nil
		}
		return nil, ErrUserNotFound
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
