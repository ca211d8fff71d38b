package finance_test

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/opsportal/ops-portal/internal/finance"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
)

type fixedRefs struct{ n int }

func (f *fixedRefs) Next(monthKey string) string {
	f.n++
	return "TX-" + monthKey + "-" + string(rune('A'+f.n-1))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func account(id finance.AccountID) *finance.AccountID {
	return &id
}

func paid(date string, txType finance.TransactionType, amount string, from, to *finance.AccountID) finance.Transaction {
	return finance.Transaction{
		ID: date + string(txType) + amount, Date: date, Type: txType,
		Amount: dec(amount), FinalAmount: dec(amount),
		AccountFrom: from, AccountTo: to,
		Status: finance.StatusPaid, MonthKey: finance.MonthKeyOf(date),
	}
}

var now = time.Date(2026, 1, 20, 10, 0, 0, 0, time.UTC)

var _ = Describe("BuildTransaction", func() {
	It("derives finalAmount, monthKey and a reference", func() {
		tx := finance.BuildTransaction(finance.TransactionInput{
			Date: "2026-01-05", Type: finance.TypeExpense, Category: "Software",
			Amount: dec("100"), Discount: dec("10"),
		}, now, &fixedRefs{})

		Expect(tx.FinalAmount.Equal(dec("90"))).To(BeTrue())
		Expect(tx.MonthKey).To(Equal("2026-01"))
		Expect(tx.ReferenceID).To(Equal("TX-2026-01-A"))
		Expect(tx.Status).To(Equal(finance.StatusPending))
		Expect(tx.PaidAt).To(BeNil())
	})

	It("keeps explicit values and stamps paid transactions", func() {
		final := dec("75.5")
		tx := finance.BuildTransaction(finance.TransactionInput{
			Date: "2026-01-31", Type: finance.TypeIncome, Category: "Servicios",
			Amount: dec("100"), Bonus: dec("5"), FinalAmount: &final,
			MonthKey: "2026-02", ReferenceID: " INV-7 ", Status: finance.StatusPaid,
		}, now, &fixedRefs{})

		Expect(tx.FinalAmount.Equal(final)).To(BeTrue())
		Expect(tx.MonthKey).To(Equal("2026-02"))
		Expect(tx.ReferenceID).To(Equal("INV-7"))
		Expect(tx.PaidAt).NotTo(BeNil())
		Expect(tx.PaidAt.Equal(now)).To(BeTrue())
	})

	It("computes amount + bonus - discount - refund", func() {
		Expect(finance.FinalAmountOf(dec("100"), dec("20"), dec("5"), dec("2.5")).Equal(dec("112.5"))).To(BeTrue())
	})
})

var _ = DescribeTable("DayOf and MonthKeyOf",
	func(date, day, month string) {
		Expect(finance.DayOf(date)).To(Equal(day))
		Expect(finance.MonthKeyOf(date)).To(Equal(month))
	},
	Entry("plain day", "2026-01-05", "2026-01-05", "2026-01"),
	Entry("timestamp", "2026-01-05T10:30:00.000Z", "2026-01-05", "2026-01"),
	Entry("not a date", "05/01/2026", "", ""),
	Entry("too short", "2026-01", "", ""),
)

var _ = Describe("FindDuplicates", func() {
	luis := account(finance.AccountLuis)

	It("flags same day, type, amount and accounts", func() {
		first := paid("2026-01-05", finance.TypeExpense, "1400", luis, nil)
		second := paid("2026-01-05", finance.TypeExpense, "1400", luis, nil)
		second.ID = "other"

		dups := finance.FindDuplicates(second, []finance.Transaction{first}, false)
		Expect(dups).To(HaveLen(1))
		Expect(dups[0].ID).To(Equal(first.ID))
	})

	It("compares calendar days when a stored date carries a time", func() {
		first := paid("2026-01-05", finance.TypeExpense, "1400", luis, nil)
		first.Date = "2026-01-05T10:30:00.000Z"
		second := paid("2026-01-05", finance.TypeExpense, "1400", luis, nil)
		second.ID = "other"
		Expect(finance.FindDuplicates(second, []finance.Transaction{first}, false)).To(HaveLen(1))
	})

	It("tolerates differences below one cent", func() {
		first := paid("2026-01-05", finance.TypeExpense, "1400.004", luis, nil)
		second := paid("2026-01-05", finance.TypeExpense, "1400", luis, nil)
		second.ID = "other"
		Expect(finance.FindDuplicates(second, []finance.Transaction{first}, false)).To(HaveLen(1))

		third := paid("2026-01-05", finance.TypeExpense, "1400.02", luis, nil)
		third.ID = "third"
		Expect(finance.FindDuplicates(third, []finance.Transaction{first}, false)).To(BeEmpty())
	})

	DescribeTable("ignores transactions that differ",
		func(mutate func(*finance.Transaction)) {
			first := paid("2026-01-05", finance.TypeExpense, "1400", luis, nil)
			second := first
			second.ID = "other"
			mutate(&second)
			Expect(finance.FindDuplicates(second, []finance.Transaction{first}, false)).To(BeEmpty())
		},
		Entry("another day", func(t *finance.Transaction) { t.Date = "2026-01-06" }),
		Entry("another type", func(t *finance.Transaction) { t.Type = finance.TypeTax }),
		Entry("another source account", func(t *finance.Transaction) { t.AccountFrom = account(finance.AccountBanco) }),
		Entry("a destination account", func(t *finance.Transaction) { t.AccountTo = account(finance.AccountCaja) }),
	)

	It("compares references only when the caller provided one", func() {
		first := paid("2026-01-05", finance.TypeExpense, "1400", luis, nil)
		first.ReferenceID = "TX-A"
		second := first
		second.ID = "other"
		second.ReferenceID = "TX-B"

		Expect(finance.FindDuplicates(second, []finance.Transaction{first}, false)).To(HaveLen(1))
		Expect(finance.FindDuplicates(second, []finance.Transaction{first}, true)).To(BeEmpty())
	})
})

var _ = Describe("Balances", func() {
	txs := []finance.Transaction{
		paid("2025-12-10", finance.TypeIncome, "1000", nil, account(finance.AccountBanco)),
		paid("2026-01-03", finance.TypeExpense, "200", account(finance.AccountBanco), nil),
		paid("2026-01-04", finance.TypeTransfer, "300", account(finance.AccountBanco), account(finance.AccountCaja)),
		{ID: "pending", Date: "2026-01-05", Type: finance.TypeIncome, FinalAmount: dec("999"), AccountTo: account(finance.AccountBanco), Status: finance.StatusPending, MonthKey: "2026-01"},
	}

	It("counts only paid movements, all-time by default", func() {
		balances := finance.Balances(finance.DefaultAccounts(), txs, "")
		byID := map[finance.AccountID]finance.AccountBalance{}
		for _, b := range balances {
			byID[b.AccountID] = b
		}
		Expect(byID[finance.AccountBanco].Balance.Equal(dec("500"))).To(BeTrue())
		Expect(byID[finance.AccountCaja].Balance.Equal(dec("300"))).To(BeTrue())
		Expect(finance.TotalCash(finance.DefaultAccounts(), txs).Equal(dec("800"))).To(BeTrue())
	})

	It("restricts monthly views to that month", func() {
		for _, b := range finance.Balances(finance.DefaultAccounts(), txs, "2026-01") {
			if b.AccountID == finance.AccountBanco {
				Expect(b.Inflow.IsZero()).To(BeTrue())
				Expect(b.Outflow.Equal(dec("500"))).To(BeTrue())
				Expect(b.Balance.Equal(dec("-500"))).To(BeTrue())
			}
		}
	})

	It("leaves inactive accounts out of total cash", func() {
		accounts := finance.DefaultAccounts()
		for i := range accounts {
			if accounts[i].ID == finance.AccountCaja {
				accounts[i].Active = false
			}
		}
		Expect(finance.TotalCash(accounts, txs).Equal(dec("500"))).To(BeTrue())
	})

	It("derives signed movements", func() {
		movements := finance.Movements(txs)
		Expect(movements).To(HaveLen(4))
		Expect(movements[2].Amount.Equal(dec("300"))).To(BeTrue())
		Expect(movements[3].Amount.Equal(dec("-300"))).To(BeTrue())
	})
})

var _ = Describe("ComputeKPIs", func() {
	It("keeps runway nil when nothing was paid out", func() {
		txs := []finance.Transaction{paid("2026-01-05", finance.TypeIncome, "500", nil, account(finance.AccountBanco))}
		k := finance.ComputeKPIs(txs, finance.DefaultAccounts(), "2026-01", now)
		Expect(k.Runway).To(BeNil())
		Expect(k.Margin.Equal(dec("100"))).To(BeTrue())
	})

	It("computes runway in weeks from the weekly burn", func() {
		txs := []finance.Transaction{
			paid("2025-12-01", finance.TypeIncome, "4000", nil, account(finance.AccountBanco)),
			paid("2026-01-02", finance.TypeExpense, "300", account(finance.AccountBanco), nil),
		}
		// as of the 20th, three weeks have started: burn is 100 per week.
		k := finance.ComputeKPIs(txs, finance.DefaultAccounts(), "2026-01", now)
		Expect(k.WeeksElapsed).To(Equal(3))
		Expect(k.TotalCash.Equal(dec("3700"))).To(BeTrue())
		Expect(k.Runway).NotTo(BeNil())
		Expect(k.Runway.Equal(dec("37"))).To(BeTrue())
		Expect(k.Margin.IsZero()).To(BeTrue())
	})

	It("splits paid and pending per type", func() {
		pending := paid("2026-01-06", finance.TypeExpense, "50", nil, nil)
		pending.Status = finance.StatusPending
		txs := []finance.Transaction{
			paid("2026-01-05", finance.TypeIncome, "1000", nil, nil),
			paid("2026-01-05", finance.TypeExpense, "250", nil, nil),
			paid("2026-01-05", finance.TypeTax, "80", nil, nil),
			pending,
		}
		k := finance.ComputeKPIs(txs, finance.DefaultAccounts(), "2026-01", now)
		Expect(k.IncomePaid.Equal(dec("1000"))).To(BeTrue())
		Expect(k.ExpensesPaid.Equal(dec("250"))).To(BeTrue())
		Expect(k.ExpensesPending.Equal(dec("50"))).To(BeTrue())
		Expect(k.NetIncome.Equal(dec("750"))).To(BeTrue())
		Expect(k.Margin.Equal(dec("75"))).To(BeTrue())
	})

	It("always satisfies netIncome = incomePaid - expensesPaid", func() {
		rng := rand.New(rand.NewSource(7))
		types := []finance.TransactionType{finance.TypeIncome, finance.TypeExpense, finance.TypeTransfer}
		for run := 0; run < 100; run++ {
			txs := make([]finance.Transaction, 0, 30)
			for i := 0; i < 30; i++ {
				t := paid(fmt.Sprintf("2026-01-%02d", 1+rng.Intn(28)), types[rng.Intn(len(types))],
					decimal.New(int64(rng.Intn(100000)), -2).String(), nil, account(finance.AccountCaja))
				if rng.Intn(2) == 0 {
					t.Status = finance.StatusPending
				}
				txs = append(txs, t)
			}
			k := finance.ComputeKPIs(txs, finance.DefaultAccounts(), "2026-01", now)
			Expect(k.NetIncome.Equal(k.IncomePaid.Sub(k.ExpensesPaid))).To(BeTrue())
		}
	})
})

var _ = Describe("WeeksElapsed", func() {
	DescribeTable("counts started weeks",
		func(asOf time.Time, expected int) {
			Expect(finance.WeeksElapsed("2026-01", asOf)).To(Equal(expected))
		},
		Entry("first day", time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC), 1),
		Entry("day 8", time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC), 2),
		Entry("month over", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), 5),
		Entry("month not started", time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), 1),
	)
})

var _ = Describe("Groupings", func() {
	txs := []finance.Transaction{
		paid("2026-01-02", finance.TypeIncome, "100", nil, nil),
		paid("2026-01-09", finance.TypeExpense, "40", nil, nil),
		paid("2026-01-31", finance.TypeExpense, "60", nil, nil),
		paid("2026-02-01", finance.TypeExpense, "999", nil, nil),
	}
	txs[1].Category = "Software"
	txs[2].Category = "Oficina"

	It("buckets by day-of-month weeks", func() {
		weeks := finance.WeeklyTotals(txs, "2026-01")
		Expect(weeks).To(HaveLen(5))
		Expect(weeks[0].Income.Equal(dec("100"))).To(BeTrue())
		Expect(weeks[1].Expense.Equal(dec("40"))).To(BeTrue())
		Expect(weeks[4].From).To(Equal("2026-01-29"))
		Expect(weeks[4].To).To(Equal("2026-01-31"))
		Expect(weeks[4].Expense.Equal(dec("60"))).To(BeTrue())
	})

	It("groups by category, largest first", func() {
		totals := finance.CategoryTotals(txs, "2026-01", finance.TypeExpense)
		Expect(totals).To(HaveLen(2))
		Expect(totals[0].Category).To(Equal("Oficina"))
		Expect(totals[1].Category).To(Equal("Software"))
	})
})
