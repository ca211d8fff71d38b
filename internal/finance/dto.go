package finance

import (
	"strings"
	"time"

	"github.com/opsportal/ops-portal/internal"
	"github.com/opsportal/ops-portal/internal/core/common/validation"
	"github.com/shopspring/decimal"
)

// TransactionInput is the payload for creating a transaction. Omitted
// FinalAmount, MonthKey and ReferenceID are derived.
type TransactionInput struct {
	Date        string            `json:"date"`
	Type        TransactionType   `json:"type"`
	Category    string            `json:"category"`
	Client      string            `json:"client"`
	Project     string            `json:"project"`
	Amount      decimal.Decimal   `json:"amount"`
	Bonus       decimal.Decimal   `json:"bonus"`
	Discount    decimal.Decimal   `json:"discount"`
	Refund      decimal.Decimal   `json:"refund"`
	FinalAmount *decimal.Decimal  `json:"finalAmount,omitempty"`
	Responsible string            `json:"responsible"`
	AccountFrom *AccountID        `json:"accountFrom,omitempty"`
	AccountTo   *AccountID        `json:"accountTo,omitempty"`
	Status      TransactionStatus `json:"status"`
	PaidAt      *time.Time        `json:"paidAt,omitempty"`
	ReferenceID string            `json:"referenceId"`
	Notes       string            `json:"notes"`
	ReceiptURL  string            `json:"receiptUrl"`
	MonthKey    string            `json:"monthKey"`
}

func (in TransactionInput) Validate() error {
	types := make([]string, len(TransactionTypes))
	for i, t := range TransactionTypes {
		types[i] = string(t)
	}

	v := validation.NewValidator()
	v.Field("date", in.Date).Required().ISODate()
	v.Field("type", string(in.Type)).Required().OneOf(internal.ErrCodeInvalidType, types...)
	v.Field("category", in.Category).Required().MaxLength(80)
	v.Field("responsible", in.Responsible).MaxLength(80)
	v.Field("amount", in.Amount).Custom(positive("amount"))
	v.Field("bonus", in.Bonus).Custom(nonNegative("bonus"))
	v.Field("discount", in.Discount).Custom(nonNegative("discount"))
	v.Field("refund", in.Refund).Custom(nonNegative("refund"))
	if in.Status != "" {
		v.Field("status", string(in.Status)).OneOf(internal.ErrCodeInvalidType, string(StatusPending), string(StatusPaid))
	}
	if in.AccountFrom != nil {
		v.Field("accountFrom", *in.AccountFrom).Custom(knownAccount("accountFrom"))
	}
	if in.AccountTo != nil {
		v.Field("accountTo", *in.AccountTo).Custom(knownAccount("accountTo"))
	}
	if in.MonthKey != "" {
		v.Field("monthKey", in.MonthKey).Custom(func(interface{}) *internal.AppError {
			if _, err := time.Parse("2006-01", in.MonthKey); err != nil {
				return internal.NewValidationFieldError("monthKey", "monthKey debe tener formato AAAA-MM", internal.ErrCodeInvalidDate)
			}
			return nil
		})
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func positive(field string) func(interface{}) *internal.AppError {
	return func(value interface{}) *internal.AppError {
		if d, ok := value.(decimal.Decimal); ok && !d.IsPositive() {
			return internal.NewValidationFieldError(field, field+" debe ser mayor que 0", internal.ErrCodeInvalidAmount)
		}
		return nil
	}
}

func nonNegative(field string) func(interface{}) *internal.AppError {
	return func(value interface{}) *internal.AppError {
		if d, ok := value.(decimal.Decimal); ok && d.IsNegative() {
			return internal.NewValidationFieldError(field, field+" no puede ser negativo", internal.ErrCodeInvalidAmount)
		}
		return nil
	}
}

func knownAccount(field string) func(interface{}) *internal.AppError {
	return func(value interface{}) *internal.AppError {
		if id, ok := value.(AccountID); ok && !IsAccountID(id) {
			return internal.NewValidationFieldError(field, field+" no es una cuenta válida", internal.ErrCodeInvalidAccount)
		}
		return nil
	}
}

// BuildTransaction turns validated input into a transaction without
// persisting it.
func BuildTransaction(in TransactionInput, now time.Time, refs ReferenceGenerator) Transaction {
	t := Transaction{
		ID:          newID(),
		Date:        in.Date,
		Type:        in.Type,
		Category:    strings.TrimSpace(in.Category),
		Client:      optional(in.Client),
		Project:     optional(in.Project),
		Amount:      in.Amount,
		Bonus:       in.Bonus,
		Discount:    in.Discount,
		Refund:      in.Refund,
		Responsible: strings.TrimSpace(in.Responsible),
		AccountFrom: in.AccountFrom,
		AccountTo:   in.AccountTo,
		Status:      in.Status,
		PaidAt:      in.PaidAt,
		ReferenceID: strings.TrimSpace(in.ReferenceID),
		Notes:       optional(in.Notes),
		ReceiptURL:  optional(in.ReceiptURL),
		MonthKey:    in.MonthKey,
		CreatedAt:   now,
	}

	if in.FinalAmount != nil {
		t.FinalAmount = *in.FinalAmount
	} else {
		t.FinalAmount = FinalAmountOf(in.Amount, in.Bonus, in.Discount, in.Refund)
	}
	if t.MonthKey == "" {
		t.MonthKey = MonthKeyOf(in.Date)
	}
	if t.Status == "" {
		t.Status = StatusPending
	}
	if t.Status == StatusPaid && t.PaidAt == nil {
		paid := now
		t.PaidAt = &paid
	}
	if t.ReferenceID == "" && refs != nil {
		t.ReferenceID = refs.Next(t.MonthKey)
	}
	return t
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

type SaveAccountDTO struct {
	ID             AccountID       `json:"id"`
	Name           string          `json:"name"`
	Currency       string          `json:"currency"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
	Active         bool            `json:"active"`
}

func (dto SaveAccountDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("id", dto.ID).Custom(knownAccount("id"))
	v.Field("name", dto.Name).Required().MaxLength(60)
	v.Field("currency", dto.Currency).MaxLength(3)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// Filter narrows ListTransactions. Zero fields match everything.
type Filter struct {
	MonthKey  string
	Type      TransactionType
	Status    TransactionStatus
	AccountID AccountID
}

func (f Filter) matches(t Transaction) bool {
	if f.MonthKey != "" && t.MonthKey != f.MonthKey {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.AccountID != "" && !touches(t, f.AccountID) {
		return false
	}
	return true
}

func touches(t Transaction, id AccountID) bool {
	return (t.AccountFrom != nil && *t.AccountFrom == id) || (t.AccountTo != nil && *t.AccountTo == id)
}
