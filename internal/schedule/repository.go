package schedule

import (
	"context"

	"github.com/opsportal/ops-portal/internal/store"
)

type storeRepository struct {
	schedules *store.Collection[WorkSchedule]
}

func NewStoreRepository(s *store.Store) RepositoryAPI {
	return &storeRepository{schedules: store.NewCollection[WorkSchedule](s, store.WorkSchedules)}
}

func (r *storeRepository) GetAll(ctx context.Context) ([]WorkSchedule, error) {
	return r.schedules.Get(ctx)
}

func (r *storeRepository) Save(ctx context.Context, ws WorkSchedule) error {
	return r.schedules.Update(ctx, func(all []WorkSchedule) ([]WorkSchedule, error) {
		for i := range all {
			if all[i].ID == ws.ID {
				all[i] = ws
				return all, nil
			}
		}
		return append(all, ws), nil
	})
}
