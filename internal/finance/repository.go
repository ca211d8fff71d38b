package finance

import (
	"context"

	"github.com/opsportal/ops-portal/internal/store"
)

type RepositoryAPI interface {
	ListTransactions(ctx context.Context) ([]Transaction, error)
	// UpdateTransactions runs fn under the collection lock; an error from fn
	// aborts without writing.
	UpdateTransactions(ctx context.Context, fn func([]Transaction) ([]Transaction, error)) error
	ReplaceTransactions(ctx context.Context, txs []Transaction) error

	ListAccounts(ctx context.Context) ([]Account, error)
	SaveAccount(ctx context.Context, account Account) error

	ListClosures(ctx context.Context) ([]MonthClosure, error)
	// AddClosure fails with ErrMonthClosed when the month is already closed.
	AddClosure(ctx context.Context, closure MonthClosure) error
}

type storeRepository struct {
	transactions *store.Collection[Transaction]
	accounts     *store.Collection[Account]
	closures     *store.Collection[MonthClosure]
}

func NewStoreRepository(s *store.Store) RepositoryAPI {
	return &storeRepository{
		transactions: store.NewCollection[Transaction](s, store.FinanceTransactions),
		accounts:     store.NewCollection[Account](s, store.FinanceAccounts).WithDefault(DefaultAccounts),
		closures:     store.NewCollection[MonthClosure](s, store.FinanceMonthClosures),
	}
}

func (r *storeRepository) ListTransactions(ctx context.Context) ([]Transaction, error) {
	return r.transactions.Get(ctx)
}

func (r *storeRepository) UpdateTransactions(ctx context.Context, fn func([]Transaction) ([]Transaction, error)) error {
	return r.transactions.Update(ctx, fn)
}

func (r *storeRepository) ReplaceTransactions(ctx context.Context, txs []Transaction) error {
	return r.transactions.Set(ctx, txs)
}

func (r *storeRepository) ListAccounts(ctx context.Context) ([]Account, error) {
	accounts, err := r.accounts.Get(ctx)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return DefaultAccounts(), nil
	}
	return accounts, nil
}

func (r *storeRepository) SaveAccount(ctx context.Context, account Account) error {
	return r.accounts.Update(ctx, func(all []Account) ([]Account, error) {
		if len(all) == 0 {
			all = DefaultAccounts()
		}
		for i := range all {
			if all[i].ID == account.ID {
				all[i] = account
				return all, nil
			}
		}
		return append(all, account), nil
	})
}

func (r *storeRepository) ListClosures(ctx context.Context) ([]MonthClosure, error) {
	return r.closures.Get(ctx)
}

func (r *storeRepository) AddClosure(ctx context.Context, closure MonthClosure) error {
	return r.closures.Update(ctx, func(all []MonthClosure) ([]MonthClosure, error) {
		for _, c := range all {
			if c.MonthKey == closure.MonthKey {
				return nil, ErrMonthClosed
			}
		}
		return append(all, closure), nil
	})
}
