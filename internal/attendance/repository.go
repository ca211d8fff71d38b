package attendance

import (
	"context"
	"sort"

	"github.com/opsportal/ops-portal/internal/store"
)

type RecordRepository interface {
	GetRecord(ctx context.Context, userID, date string) (*Record, error)
	GetRecordByID(ctx context.Context, id string) (*Record, error)
	// CreateRecord fails with ErrAlreadyCheckedIn when (userID, date) exists.
	CreateRecord(ctx context.Context, r *Record) error
	UpdateRecord(ctx context.Context, userID, date string, fn func(*Record) error) (*Record, error)
	// ListRecords returns records with from <= date < to. Empty bounds are open.
	ListRecords(ctx context.Context, userID, from, to string) ([]Record, error)
}

type ExtraRepository interface {
	CreateExtra(ctx context.Context, e *ExtraActivity) error
	ListExtras(ctx context.Context, userID string) ([]ExtraActivity, error)
	UpdateExtra(ctx context.Context, id string, fn func(*ExtraActivity) error) (*ExtraActivity, error)
}

type CorrectionRepository interface {
	CreateCorrection(ctx context.Context, c *CorrectionRequest) error
	ListCorrections(ctx context.Context, userID string) ([]CorrectionRequest, error)
	UpdateCorrection(ctx context.Context, id string, fn func(*CorrectionRequest) error) (*CorrectionRequest, error)
}

type RequestRepository interface {
	CreateRequest(ctx context.Context, r *Request) error
	ListRequests(ctx context.Context, userID string) ([]Request, error)
	UpdateRequest(ctx context.Context, id string, fn func(*Request) error) (*Request, error)
}

type RepositoryAPI interface {
	RecordRepository
	ExtraRepository
	CorrectionRepository
	RequestRepository
}

type storeRepository struct {
	records     *store.Collection[Record]
	extras      *store.Collection[ExtraActivity]
	corrections *store.Collection[CorrectionRequest]
	requests    *store.Collection[Request]
}

func NewStoreRepository(s *store.Store) RepositoryAPI {
	return &storeRepository{
		records:     store.NewCollection[Record](s, store.AttendanceRecords).WithLegacy(store.LegacyAttendance),
		extras:      store.NewCollection[ExtraActivity](s, store.AttendanceExtras),
		corrections: store.NewCollection[CorrectionRequest](s, store.AttendanceCorrections),
		requests:    store.NewCollection[Request](s, store.AttendanceRequests).WithLegacy(store.LegacyRequests),
	}
}

func (r *storeRepository) GetRecord(ctx context.Context, userID, date string) (*Record, error) {
	all, err := r.records.Get(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].UserID == userID && all[i].Date == date {
			return &all[i], nil
		}
	}
	return nil, ErrRecordNotFound
}

func (r *storeRepository) GetRecordByID(ctx context.Context, id string) (*Record, error) {
	all, err := r.records.Get(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, ErrRecordNotFound
}

func (r *storeRepository) CreateRecord(ctx context.Context, rec *Record) error {
	return r.records.Update(ctx, func(all []Record) ([]Record, error) {
		for _, existing := range all {
			if existing.UserID == rec.UserID && existing.Date == rec.Date {
				return nil, ErrAlreadyCheckedIn
			}
		}
		return append(all, *rec), nil
	})
}

func (r *storeRepository) UpdateRecord(ctx context.Context, userID, date string, fn func(*Record) error) (*Record, error) {
	var updated Record
	err := r.records.Update(ctx, func(all []Record) ([]Record, error) {
		for i := range all {
			if all[i].UserID == userID && all[i].Date == date {
				if err := fn(&all[i]); err != nil {
					return nil, err
				}
				updated = all[i]
				return all, nil
			}
		}
		return nil, ErrRecordNotFound
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *storeRepository) ListRecords(ctx context.Context, userID, from, to string) ([]Record, error) {
	all, err := r.records.Get(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]Record, 0)
	for _, rec := range all {
		if rec.UserID != userID {
			continue
		}
		if from != "" && rec.Date < from {
			continue
		}
		if to != "" && rec.Date >= to {
			continue
		}
		result = append(result, rec)
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Date < result[j].Date })
	return result, nil
}

func (r *storeRepository) CreateExtra(ctx context.Context, e *ExtraActivity) error {
	return appendItem(ctx, r.extras, *e)
}

func (r *storeRepository) ListExtras(ctx context.Context, userID string) ([]ExtraActivity, error) {
	return listForUser(ctx, r.extras, userID, func(e *ExtraActivity) string { return e.UserID })
}

func (r *storeRepository) UpdateExtra(ctx context.Context, id string, fn func(*ExtraActivity) error) (*ExtraActivity, error) {
	return updateByID(ctx, r.extras, id, func(e *ExtraActivity) string { return e.ID }, ErrExtraNotFound, fn)
}

func (r *storeRepository) CreateCorrection(ctx context.Context, c *CorrectionRequest) error {
	return appendItem(ctx, r.corrections, *c)
}

func (r *storeRepository) ListCorrections(ctx context.Context, userID string) ([]CorrectionRequest, error) {
	return listForUser(ctx, r.corrections, userID, func(c *CorrectionRequest) string { return c.UserID })
}

func (r *storeRepository) UpdateCorrection(ctx context.Context, id string, fn func(*CorrectionRequest) error) (*CorrectionRequest, error) {
	return updateByID(ctx, r.corrections, id, func(c *CorrectionRequest) string { return c.ID }, ErrCorrectionNotFound, fn)
}

func (r *storeRepository) CreateRequest(ctx context.Context, req *Request) error {
	return appendItem(ctx, r.requests, *req)
}

func (r *storeRepository) ListRequests(ctx context.Context, userID string) ([]Request, error) {
	return listForUser(ctx, r.requests, userID, func(req *Request) string { return req.UserID })
}

func (r *storeRepository) UpdateRequest(ctx context.Context, id string, fn func(*Request) error) (*Request, error) {
	return updateByID(ctx, r.requests, id, func(req *Request) string { return req.ID }, ErrRequestNotFound, fn)
}

func appendItem[T any](ctx context.Context, c *store.Collection[T], item T) error {
	return c.Update(ctx, func(items []T) ([]T, error) {
		return append(items, item), nil
	})
}

// listForUser filters by owner; an empty userID returns everything.
func listForUser[T any](ctx context.Context, c *store.Collection[T], userID string, ownerOf func(*T) string) ([]T, error) {
	all, err := c.Get(ctx)
	if err != nil {
		return nil, err
	}
	if userID == "" {
		return all, nil
	}
	result := make([]T, 0)
	for i := range all {
		if ownerOf(&all[i]) == userID {
			result = append(result, all[i])
		}
	}
	return result, nil
}

func updateByID[T any](ctx context.Context, c *store.Collection[T], id string, idOf func(*T) string, notFound error, fn func(*T) error) (*T, error) {
	var updated T
	err := c.Update(ctx, func(items []T) ([]T, error) {
		for i := range items {
			if idOf(&items[i]) == id {
				if err := fn(&items[i]); err != nil {
					return nil, err
				}
				updated = items[i]
				return items, nil
			}
		}
		return nil, notFound
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
