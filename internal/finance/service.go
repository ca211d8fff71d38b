package finance

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/opsportal/ops-portal/internal"
	"github.com/opsportal/ops-portal/internal/core/common/validation"
	"github.com/opsportal/ops-portal/internal/core/events"
)

// CategoryValidator checks income and expense categories against the
// managed category list.
type CategoryValidator interface {
	IsValidCategory(ctx context.Context, name string) bool
}

type Service struct {
	repo       RepositoryAPI
	logger     *slog.Logger
	events     events.Publisher
	refs       ReferenceGenerator
	categories CategoryValidator
	now        func() time.Time
	loc        *time.Location
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithLocation sets the zone used to decide how far into a month "now" is.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

func WithCategoryValidator(v CategoryValidator) Option {
	return func(s *Service) { s.categories = v }
}

func NewService(repo RepositoryAPI, refs ReferenceGenerator, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		logger: logger,
		events: events.NopPublisher{},
		refs:   refs,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateResult struct {
	Transaction Transaction   `json:"transaction"`
	Duplicates  []Transaction `json:"duplicates"`
}

func (s *Service) build(ctx context.Context, in TransactionInput) (Transaction, error) {
	if err := in.Validate(); err != nil {
		return Transaction{}, err
	}
	if s.categories != nil && (in.Type == TypeIncome || in.Type == TypeExpense) {
		if !s.categories.IsValidCategory(ctx, in.Category) {
			return Transaction{}, internal.NewValidationFieldError("category", "La categoría no es válida.", internal.ErrCodeInvalidCategory)
		}
	}
	return BuildTransaction(in, s.now(), s.refs), nil
}

// CreateTransaction builds a transaction and reports soft duplicates. Nothing
// is persisted.
func (s *Service) CreateTransaction(ctx context.Context, in TransactionInput) (*CreateResult, error) {
	tx, err := s.build(ctx, in)
	if err != nil {
		return nil, err
	}
	existing, err := s.repo.ListTransactions(ctx)
	if err != nil {
		s.logger.Error("failed to load transactions", "error", err)
		return nil, err
	}
	return &CreateResult{
		Transaction: tx,
		Duplicates:  FindDuplicates(tx, existing, in.ReferenceID != ""),
	}, nil
}

// AddTransaction appends a built transaction as-is.
func (s *Service) AddTransaction(ctx context.Context, tx Transaction) (*Transaction, error) {
	if err := s.ensureOpen(ctx, tx.MonthKey); err != nil {
		return nil, err
	}
	err := s.repo.UpdateTransactions(ctx, func(all []Transaction) ([]Transaction, error) {
		return append(all, tx), nil
	})
	if err != nil {
		s.logger.Error("failed to add transaction", "transaction_id", tx.ID, "error", err)
		return nil, err
	}
	s.logger.Info("transaction added", "transaction_id", tx.ID, "reference_id", tx.ReferenceID,
		"type", tx.Type, "final_amount", tx.FinalAmount.String(), "month", tx.MonthKey)
	s.publishAdded(ctx, tx, 0)
	return &tx, nil
}

// Record creates and stores a transaction in one step. Soft duplicates abort
// with ErrDuplicateTransaction unless confirmDuplicate is set.
func (s *Service) Record(ctx context.Context, in TransactionInput, confirmDuplicate bool, createdBy string) (*CreateResult, error) {
	tx, err := s.build(ctx, in)
	if err != nil {
		return nil, err
	}
	tx.CreatedBy = createdBy
	if err := s.ensureOpen(ctx, tx.MonthKey); err != nil {
		return nil, err
	}

	var dups []Transaction
	err = s.repo.UpdateTransactions(ctx, func(all []Transaction) ([]Transaction, error) {
		dups = FindDuplicates(tx, all, in.ReferenceID != "")
		if len(dups) > 0 && !confirmDuplicate {
			return nil, ErrDuplicateTransaction.WithDetails(DuplicateDetails{Candidate: tx, Duplicates: dups})
		}
		return append(all, tx), nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("transaction recorded", "transaction_id", tx.ID, "reference_id", tx.ReferenceID,
		"type", tx.Type, "final_amount", tx.FinalAmount.String(), "duplicates", len(dups))
	s.publishAdded(ctx, tx, len(dups))
	return &CreateResult{Transaction: tx, Duplicates: dups}, nil
}

func (s *Service) publishAdded(ctx context.Context, tx Transaction, duplicates int) {
	data := map[string]interface{}{
		"transactionId": tx.ID,
		"referenceId":   tx.ReferenceID,
		"type":          string(tx.Type),
		"finalAmount":   tx.FinalAmount.String(),
		"monthKey":      tx.MonthKey,
	}
	s.publish(ctx, events.EventTypeTransactionAdded, data)
	if duplicates > 0 {
		s.publish(ctx, events.EventTypeDuplicateConfirmed, map[string]interface{}{
			"transactionId": tx.ID,
			"duplicates":    duplicates,
		})
	}
}

func (s *Service) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if err := s.events.Publish(ctx, events.NewEvent(eventType, s.now(), data)); err != nil {
		s.logger.Warn("failed to publish event", "event_type", eventType, "error", err)
	}
}

// ListTransactions returns matching transactions ordered by date.
func (s *Service) ListTransactions(ctx context.Context, f Filter) ([]Transaction, error) {
	all, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]Transaction, 0, len(all))
	for _, t := range all {
		if f.matches(t) {
			result = append(result, t)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date < result[j].Date
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// ReplaceTransactions overwrites the whole ledger. Dates are truncated to
// their calendar day and the month key is recomputed from it.
func (s *Service) ReplaceTransactions(ctx context.Context, txs []Transaction) error {
	for i := range txs {
		day := DayOf(txs[i].Date)
		if day == "" {
			return internal.NewValidationFieldError(fmt.Sprintf("transactions[%d].date", i), "La fecha debe tener formato AAAA-MM-DD.", internal.ErrCodeInvalidDate)
		}
		txs[i].Date = day
		txs[i].MonthKey = day[:7]
		if txs[i].ID == "" {
			txs[i].ID = newID()
		}
	}
	if err := s.repo.ReplaceTransactions(ctx, txs); err != nil {
		s.logger.Error("failed to replace transactions", "count", len(txs), "error", err)
		return err
	}
	s.logger.Warn("transaction ledger replaced", "count", len(txs))
	return nil
}

func (s *Service) ListAccounts(ctx context.Context) ([]Account, error) {
	return s.repo.ListAccounts(ctx)
}

func (s *Service) SaveAccount(ctx context.Context, dto SaveAccountDTO) (*Account, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	account := Account{
		ID:             dto.ID,
		Name:           dto.Name,
		Currency:       dto.Currency,
		InitialBalance: dto.InitialBalance,
		Active:         dto.Active,
	}
	if account.Currency == "" {
		account.Currency = DefaultCurrency
	}
	if err := s.repo.SaveAccount(ctx, account); err != nil {
		s.logger.Error("failed to save account", "account_id", account.ID, "error", err)
		return nil, err
	}
	return &account, nil
}

// AccountBalances gives per-account balances. An empty monthKey is all-time;
// otherwise only that month's movements count.
func (s *Service) AccountBalances(ctx context.Context, monthKey string) ([]AccountBalance, error) {
	if monthKey != "" {
		if err := validation.ValidateMonthKey(monthKey); err != nil {
			return nil, err
		}
	}
	accounts, txs, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return Balances(accounts, txs, monthKey), nil
}

func (s *Service) Movements(ctx context.Context, monthKey string) ([]Movement, error) {
	txs, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}
	all := Movements(txs)
	if monthKey == "" {
		return all, nil
	}
	result := make([]Movement, 0, len(all))
	for _, m := range all {
		if m.MonthKey == monthKey {
			result = append(result, m)
		}
	}
	return result, nil
}

func (s *Service) KPIs(ctx context.Context, monthKey string) (*KPIs, error) {
	if err := validation.ValidateMonthKey(monthKey); err != nil {
		return nil, err
	}
	accounts, txs, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	asOf := s.now()
	if s.loc != nil {
		asOf = asOf.In(s.loc)
	}
	k := ComputeKPIs(txs, accounts, monthKey, asOf)
	return &k, nil
}

type Groupings struct {
	MonthKey          string          `json:"monthKey"`
	Weekly            []WeekTotal     `json:"weekly"`
	ExpenseCategories []CategoryTotal `json:"expenseCategories"`
	IncomeCategories  []CategoryTotal `json:"incomeCategories"`
}

// Groupings feeds the dashboard charts for one month.
func (s *Service) Groupings(ctx context.Context, monthKey string) (*Groupings, error) {
	if err := validation.ValidateMonthKey(monthKey); err != nil {
		return nil, err
	}
	txs, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}
	return &Groupings{
		MonthKey:          monthKey,
		Weekly:            WeeklyTotals(txs, monthKey),
		ExpenseCategories: CategoryTotals(txs, monthKey, TypeExpense),
		IncomeCategories:  CategoryTotals(txs, monthKey, TypeIncome),
	}, nil
}

func (s *Service) CloseMonth(ctx context.Context, monthKey, closedBy string) (*MonthClosure, error) {
	k, err := s.KPIs(ctx, monthKey)
	if err != nil {
		return nil, err
	}
	closure := MonthClosure{
		MonthKey: monthKey,
		ClosedAt: s.now(),
		ClosedBy: closedBy,
		KPIs:     *k,
	}
	if err := s.repo.AddClosure(ctx, closure); err != nil {
		return nil, err
	}
	s.logger.Info("month closed", "month", monthKey, "closed_by", closedBy, "net_income", k.NetIncome.String())
	s.publish(ctx, events.EventTypeMonthClosed, map[string]interface{}{
		"monthKey":  monthKey,
		"closedBy":  closedBy,
		"netIncome": k.NetIncome.String(),
	})
	return &closure, nil
}

func (s *Service) ListClosures(ctx context.Context) ([]MonthClosure, error) {
	closures, err := s.repo.ListClosures(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(closures, func(i, j int) bool { return closures[i].MonthKey < closures[j].MonthKey })
	return closures, nil
}

func (s *Service) ensureOpen(ctx context.Context, monthKey string) error {
	closures, err := s.repo.ListClosures(ctx)
	if err != nil {
		return err
	}
	for _, c := range closures {
		if c.MonthKey == monthKey {
			return ErrMonthClosed
		}
	}
	return nil
}

func (s *Service) snapshot(ctx context.Context) ([]Account, []Transaction, error) {
	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return nil, nil, err
	}
	txs, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return nil, nil, err
	}
	return accounts, txs, nil
}
