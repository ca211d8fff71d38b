package finance

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type KPIs struct {
	MonthKey        string           `json:"monthKey"`
	IncomePaid      decimal.Decimal  `json:"incomePaid"`
	IncomePending   decimal.Decimal  `json:"incomePending"`
	ExpensesPaid    decimal.Decimal  `json:"expensesPaid"`
	ExpensesPending decimal.Decimal  `json:"expensesPending"`
	NetIncome       decimal.Decimal  `json:"netIncome"`
	Margin          decimal.Decimal  `json:"margin"`
	TotalCash       decimal.Decimal  `json:"totalCash"`
	WeeksElapsed    int              `json:"weeksElapsed"`
	Runway          *decimal.Decimal `json:"runway"`
}

// ComputeKPIs rolls up income and expense transactions of monthKey.
// TotalCash is the all-time position of active accounts. Runway is in weeks
// and stays nil when nothing was paid out this month.
func ComputeKPIs(txs []Transaction, accounts []Account, monthKey string, asOf time.Time) KPIs {
	k := KPIs{
		MonthKey:        monthKey,
		IncomePaid:      decimal.Zero,
		IncomePending:   decimal.Zero,
		ExpensesPaid:    decimal.Zero,
		ExpensesPending: decimal.Zero,
		Margin:          decimal.Zero,
	}

	for _, t := range txs {
		if t.MonthKey != monthKey {
			continue
		}
		switch {
		case t.Type == TypeIncome && t.IsPaid():
			k.IncomePaid = k.IncomePaid.Add(t.FinalAmount)
		case t.Type == TypeIncome:
			k.IncomePending = k.IncomePending.Add(t.FinalAmount)
		case t.Type == TypeExpense && t.IsPaid():
			k.ExpensesPaid = k.ExpensesPaid.Add(t.FinalAmount)
		case t.Type == TypeExpense:
			k.ExpensesPending = k.ExpensesPending.Add(t.FinalAmount)
		}
	}

	k.NetIncome = k.IncomePaid.Sub(k.ExpensesPaid)
	if !k.IncomePaid.IsZero() {
		k.Margin = k.NetIncome.Div(k.IncomePaid).Mul(hundred).Round(2)
	}

	k.TotalCash = TotalCash(accounts, txs)
	k.WeeksElapsed = WeeksElapsed(monthKey, asOf)
	if !k.ExpensesPaid.IsZero() {
		weeklyBurn := k.ExpensesPaid.Div(decimal.NewFromInt(int64(k.WeeksElapsed)))
		runway := k.TotalCash.Div(weeklyBurn).Round(1)
		k.Runway = &runway
	}
	return k
}

// WeeksElapsed counts started weeks of monthKey as of asOf: the whole month
// once it is over, at least one.
func WeeksElapsed(monthKey string, asOf time.Time) int {
	first, err := time.Parse("2006-01", monthKey)
	if err != nil {
		return 1
	}
	last := first.AddDate(0, 1, -1)
	asOfDay := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)

	days := last.Day()
	switch {
	case asOfDay.Before(first):
		days = 1
	case !asOfDay.After(last):
		days = asOfDay.Day()
	}
	weeks := (days + 6) / 7
	if weeks < 1 {
		weeks = 1
	}
	return weeks
}

type WeekTotal struct {
	Week    int             `json:"week"`
	From    string          `json:"from"`
	To      string          `json:"to"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// WeeklyTotals buckets a month's income and expenses by day-of-month weeks
// (1-7, 8-14, ...). Pending and paid entries both count.
func WeeklyTotals(txs []Transaction, monthKey string) []WeekTotal {
	first, err := time.Parse("2006-01", monthKey)
	if err != nil {
		return []WeekTotal{}
	}
	last := first.AddDate(0, 1, -1)

	weeks := make([]WeekTotal, 0, 5)
	for start := 1; start <= last.Day(); start += 7 {
		end := start + 6
		if end > last.Day() {
			end = last.Day()
		}
		weeks = append(weeks, WeekTotal{
			Week:    len(weeks) + 1,
			From:    first.AddDate(0, 0, start-1).Format(time.DateOnly),
			To:      first.AddDate(0, 0, end-1).Format(time.DateOnly),
			Income:  decimal.Zero,
			Expense: decimal.Zero,
		})
	}

	for _, t := range txs {
		if t.MonthKey != monthKey {
			continue
		}
		day, err := time.Parse(time.DateOnly, DayOf(t.Date))
		if err != nil {
			continue
		}
		i := (day.Day() - 1) / 7
		if i >= len(weeks) {
			continue
		}
		switch t.Type {
		case TypeIncome:
			weeks[i].Income = weeks[i].Income.Add(t.FinalAmount)
		case TypeExpense:
			weeks[i].Expense = weeks[i].Expense.Add(t.FinalAmount)
		}
	}
	return weeks
}

type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}

// CategoryTotals groups a month's transactions of one type by category,
// largest first.
func CategoryTotals(txs []Transaction, monthKey string, txType TransactionType) []CategoryTotal {
	index := make(map[string]int)
	totals := make([]CategoryTotal, 0)
	for _, t := range txs {
		if t.MonthKey != monthKey || t.Type != txType {
			continue
		}
		name := t.Category
		if name == "" {
			name = "Sin categoría"
		}
		i, ok := index[name]
		if !ok {
			i = len(totals)
			index[name] = i
			totals = append(totals, CategoryTotal{Category: name, Total: decimal.Zero})
		}
		totals[i].Total = totals[i].Total.Add(t.FinalAmount)
		totals[i].Count++
	}
	sort.SliceStable(totals, func(i, j int) bool {
		if c := totals[i].Total.Cmp(totals[j].Total); c != 0 {
			return c > 0
		}
		return totals[i].Category < totals[j].Category
	})
	return totals
}
