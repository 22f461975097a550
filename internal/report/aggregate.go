// Package report computes dashboard totals over the transaction collections.
// Aggregation is a pure function of its inputs; the reference time is passed
// in explicitly so callers and tests control the clock.
package report

import (
	"time"

	"github.com/shopspring/decimal"

	"bizbook/internal/core"
)

// Options selects the records to aggregate and supplies starting balances.
type Options struct {
	Period   Period
	Business string // exact business-unit label, empty means all
	Now      time.Time

	StartingCash decimal.Decimal
	StartingUPI  decimal.Decimal
}

// Totals is the aggregation result consumed by the dashboard.
type Totals struct {
	CashInHand    decimal.Decimal `json:"cash_in_hand"`
	UPIInHand     decimal.Decimal `json:"upi_in_hand"`
	SalesTotal    decimal.Decimal `json:"sales_total"`
	ExpensesTotal decimal.Decimal `json:"expenses_total"`
	Profit        decimal.Decimal `json:"profit"`
	ProfitMargin  decimal.Decimal `json:"profit_margin"`

	SalesCash    decimal.Decimal `json:"sales_cash"`
	SalesUPI     decimal.Decimal `json:"sales_upi"`
	ExpensesCash decimal.Decimal `json:"expenses_cash"`
	ExpensesUPI  decimal.Decimal `json:"expenses_upi"`

	SalesCount    int `json:"sales_count"`
	ExpensesCount int `json:"expenses_count"`
}

// Aggregate filters both collections by business and period, then computes
// the period totals. Expenses whose payment method is neither "cash" nor
// "upi" stay out of both breakdown sums and the expenses total but are still
// counted; that asymmetry matches the books as kept today.
func Aggregate(sales []core.Sale, expenses []core.Expense, opts Options) Totals {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	t := Totals{
		SalesCash:    decimal.Zero,
		SalesUPI:     decimal.Zero,
		ExpensesCash: decimal.Zero,
		ExpensesUPI:  decimal.Zero,
	}

	for _, s := range sales {
		if opts.Business != "" && s.Business != opts.Business {
			continue
		}
		if !opts.Period.Contains(s.Date.Time, now) {
			continue
		}
		t.SalesCash = t.SalesCash.Add(s.Cash)
		t.SalesUPI = t.SalesUPI.Add(s.UPI)
		t.SalesCount++
	}
	t.SalesTotal = t.SalesCash.Add(t.SalesUPI)

	for _, e := range expenses {
		if opts.Business != "" && e.Business != opts.Business {
			continue
		}
		if !opts.Period.Contains(e.Date.Time, now) {
			continue
		}
		switch {
		case e.PaymentMethod.Is(core.PaymentCash):
			t.ExpensesCash = t.ExpensesCash.Add(e.Amount)
		case e.PaymentMethod.Is(core.PaymentUPI):
			t.ExpensesUPI = t.ExpensesUPI.Add(e.Amount)
		}
		t.ExpensesCount++
	}
	t.ExpensesTotal = t.ExpensesCash.Add(t.ExpensesUPI)

	t.CashInHand = opts.StartingCash.Add(t.SalesCash).Sub(t.ExpensesCash)
	t.UPIInHand = opts.StartingUPI.Add(t.SalesUPI).Sub(t.ExpensesUPI)

	t.Profit = t.SalesTotal.Sub(t.ExpensesTotal)
	if t.SalesTotal.IsZero() {
		t.ProfitMargin = decimal.Zero
	} else {
		t.ProfitMargin = t.Profit.Mul(decimal.NewFromInt(100)).Div(t.SalesTotal)
	}
	return t
}
