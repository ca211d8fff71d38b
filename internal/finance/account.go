package finance

import (
	"sort"

	"github.com/opsportal/ops-portal/internal"
	"github.com/shopspring/decimal"
)

type AccountID string

const (
	AccountLuis    AccountID = "LUIS"
	AccountEmpresa AccountID = "EMPRESA"
	AccountCaja    AccountID = "CAJA"
	AccountBanco   AccountID = "BANCO"
)

var AccountIDs = []AccountID{AccountLuis, AccountEmpresa, AccountCaja, AccountBanco}

const DefaultCurrency = "USD"

var ErrUnknownAccount = internal.NewValidationError("La cuenta no es válida.", internal.ErrCodeInvalidAccount)

func IsAccountID(id AccountID) bool {
	for _, known := range AccountIDs {
		if known == id {
			return true
		}
	}
	return false
}

type Account struct {
	ID             AccountID       `json:"id"`
	Name           string          `json:"name"`
	Currency       string          `json:"currency"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
	Active         bool            `json:"active"`
}

func DefaultAccounts() []Account {
	names := map[AccountID]string{
		AccountLuis:    "Luis",
		AccountEmpresa: "Empresa",
		AccountCaja:    "Caja chica",
		AccountBanco:   "Banco",
	}
	accounts := make([]Account, 0, len(AccountIDs))
	for _, id := range AccountIDs {
		accounts = append(accounts, Account{
			ID:             id,
			Name:           names[id],
			Currency:       DefaultCurrency,
			InitialBalance: decimal.Zero,
			Active:         true,
		})
	}
	return accounts
}

// Movement is the signed effect of one paid transaction on one account.
type Movement struct {
	TransactionID string          `json:"transactionId"`
	ReferenceID   string          `json:"referenceId"`
	AccountID     AccountID       `json:"accountId"`
	Date          string          `json:"date"`
	MonthKey      string          `json:"monthKey"`
	Type          TransactionType `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
}

// Movements credits accountTo and debits accountFrom for every paid
// transaction. Pending transactions do not move money.
func Movements(txs []Transaction) []Movement {
	out := make([]Movement, 0, len(txs))
	for _, t := range txs {
		if !t.IsPaid() {
			continue
		}
		if t.AccountTo != nil {
			out = append(out, movement(t, *t.AccountTo, t.FinalAmount))
		}
		if t.AccountFrom != nil {
			out = append(out, movement(t, *t.AccountFrom, t.FinalAmount.Neg()))
		}
	}
	return out
}

func movement(t Transaction, account AccountID, amount decimal.Decimal) Movement {
	return Movement{
		TransactionID: t.ID,
		ReferenceID:   t.ReferenceID,
		AccountID:     account,
		Date:          t.Date,
		MonthKey:      t.MonthKey,
		Type:          t.Type,
		Amount:        amount,
	}
}

type AccountBalance struct {
	AccountID      AccountID       `json:"accountId"`
	Name           string          `json:"name"`
	Currency       string          `json:"currency"`
	Active         bool            `json:"active"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
	Inflow         decimal.Decimal `json:"inflow"`
	Outflow        decimal.Decimal `json:"outflow"`
	Balance        decimal.Decimal `json:"balance"`
}

// Balances is initialBalance plus paid movements. An empty monthKey gives
// all-time balances; otherwise only that month's movements are counted.
func Balances(accounts []Account, txs []Transaction, monthKey string) []AccountBalance {
	byID := make(map[AccountID]*AccountBalance, len(accounts))
	result := make([]AccountBalance, len(accounts))
	for i, a := range accounts {
		result[i] = AccountBalance{
			AccountID:      a.ID,
			Name:           a.Name,
			Currency:       a.Currency,
			Active:         a.Active,
			InitialBalance: a.InitialBalance,
			Inflow:         decimal.Zero,
			Outflow:        decimal.Zero,
		}
		byID[a.ID] = &result[i]
	}

	for _, m := range Movements(txs) {
		if monthKey != "" && m.MonthKey != monthKey {
			continue
		}
		b, ok := byID[m.AccountID]
		if !ok {
			continue
		}
		if m.Amount.IsPositive() {
			b.Inflow = b.Inflow.Add(m.Amount)
		} else {
			b.Outflow = b.Outflow.Add(m.Amount.Neg())
		}
	}

	for i := range result {
		result[i].Balance = result[i].InitialBalance.Add(result[i].Inflow).Sub(result[i].Outflow)
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].AccountID < result[j].AccountID })
	return result
}

// TotalCash sums the all-time balance of every active account.
func TotalCash(accounts []Account, txs []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, b := range Balances(accounts, txs, "") {
		if b.Active {
			total = total.Add(b.Balance)
		}
	}
	return total
}
