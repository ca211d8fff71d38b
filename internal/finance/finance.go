package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/opsportal/ops-portal/internal"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TypeIncome              TransactionType = "income"
	TypeExpense             TransactionType = "expense"
	TypeCollaboratorPayment TransactionType = "collaborator_payment"
	TypeTransfer            TransactionType = "transfer"
	TypeRefund              TransactionType = "refund"
	TypeTax                 TransactionType = "tax"
)

var TransactionTypes = []TransactionType{
	TypeIncome, TypeExpense, TypeCollaboratorPayment, TypeTransfer, TypeRefund, TypeTax,
}

type TransactionStatus string

const (
	StatusPending TransactionStatus = "pending"
	StatusPaid    TransactionStatus = "paid"
)

// Transaction is one finance ledger entry. Entries are appended or replaced
// wholesale, never edited in place.
type Transaction struct {
	ID          string            `json:"id"`
	Date        string            `json:"date"`
	Type        TransactionType   `json:"type"`
	Category    string            `json:"category"`
	Client      *string           `json:"client,omitempty"`
	Project     *string           `json:"project,omitempty"`
	Amount      decimal.Decimal   `json:"amount"`
	Bonus       decimal.Decimal   `json:"bonus"`
	Discount    decimal.Decimal   `json:"discount"`
	Refund      decimal.Decimal   `json:"refund"`
	FinalAmount decimal.Decimal   `json:"finalAmount"`
	Responsible string            `json:"responsible"`
	AccountFrom *AccountID        `json:"accountFrom,omitempty"`
	AccountTo   *AccountID        `json:"accountTo,omitempty"`
	Status      TransactionStatus `json:"status"`
	PaidAt      *time.Time        `json:"paidAt,omitempty"`
	ReferenceID string            `json:"referenceId"`
	Notes       *string           `json:"notes,omitempty"`
	ReceiptURL  *string           `json:"receiptUrl,omitempty"`
	MonthKey    string            `json:"monthKey"`
	CreatedBy   string            `json:"createdBy,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}

func newID() string {
	return uuid.NewString()
}

func (t Transaction) IsPaid() bool {
	return t.Status == StatusPaid
}

// FinalAmountOf is amount + bonus - discount - refund.
func FinalAmountOf(amount, bonus, discount, refund decimal.Decimal) decimal.Decimal {
	return amount.Add(bonus).Sub(discount).Sub(refund)
}

// DayOf truncates an ISO date or timestamp to its YYYY-MM-DD calendar day.
// Unparseable input yields "".
func DayOf(date string) string {
	if len(date) < len(time.DateOnly) {
		return ""
	}
	day := date[:len(time.DateOnly)]
	if _, err := time.Parse(time.DateOnly, day); err != nil {
		return ""
	}
	return day
}

// MonthKeyOf returns the YYYY-MM month of an ISO date or timestamp.
func MonthKeyOf(date string) string {
	day := DayOf(date)
	if day == "" {
		return ""
	}
	return day[:7]
}

var duplicateTolerance = decimal.NewFromFloat(0.01)

// FindDuplicates lists existing transactions that look like candidate: same
// day, type and account pair with a final amount within 0.01. The reference
// is only compared when the caller supplied one. Matches are advisory.
func FindDuplicates(candidate Transaction, existing []Transaction, referenceProvided bool) []Transaction {
	dups := make([]Transaction, 0)
	for _, t := range existing {
		if t.ID == candidate.ID {
			continue
		}
		if DayOf(t.Date) != DayOf(candidate.Date) || t.Type != candidate.Type {
			continue
		}
		if t.FinalAmount.Sub(candidate.FinalAmount).Abs().GreaterThanOrEqual(duplicateTolerance) {
			continue
		}
		if !sameAccount(t.AccountFrom, candidate.AccountFrom) || !sameAccount(t.AccountTo, candidate.AccountTo) {
			continue
		}
		if referenceProvided && t.ReferenceID != candidate.ReferenceID {
			continue
		}
		dups = append(dups, t)
	}
	return dups
}

func sameAccount(a, b *AccountID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

var (
	ErrDuplicateTransaction = internal.NewConflictError("Posible movimiento duplicado.", internal.ErrCodeDuplicateTransaction)
	ErrMonthClosed          = internal.NewConflictError("El mes ya está cerrado.", internal.ErrCodeMonthClosed)
)

// DuplicateDetails is attached to ErrDuplicateTransaction.
type DuplicateDetails struct {
	Candidate  Transaction   `json:"candidate"`
	Duplicates []Transaction `json:"duplicates"`
}
