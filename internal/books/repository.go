package books

import (
	"context"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"bizbook/internal/core"

	"github.com/shopspring/decimal"
)

// SaleInput carries the caller-provided fields of a sale. Derived fields
// (id, total, stamps) are filled by the ledger.
type SaleInput struct {
	Date     core.Date       `json:"date"`
	Business string          `json:"business"`
	Cash     decimal.Decimal `json:"cash"`
	UPI      decimal.Decimal `json:"upi"`
}

// ExpenseInput carries the caller-provided fields of an expense.
type ExpenseInput struct {
	Date          core.Date          `json:"date"`
	Business      string             `json:"business"`
	Purpose       string             `json:"purpose"`
	Amount        decimal.Decimal    `json:"amount"`
	PaymentMethod core.PaymentMethod `json:"payment_method"`
	Image         string             `json:"image,omitempty"`
	ImageName     string             `json:"imageName,omitempty"`
}

// Filter narrows list results. Zero values match everything.
type Filter struct {
	Search string
	From   core.Date
	To     core.Date
}

// CreateSale validates, stores and persists a new sale. The record is kept
// even when the remote save fails; the sync state records the failure.
func (l *Ledger) CreateSale(ctx context.Context, in SaleInput, by core.Identity) (core.Sale, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now().UTC()
	sale := core.Sale{
		Date:          in.Date,
		Business:      strings.TrimSpace(in.Business),
		Cash:          in.Cash,
		UPI:           in.UPI,
		CreatedBy:     by.Username,
		CreatedByName: by.Name,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	sale.Recalculate()
	if err := sale.Validate(); err != nil {
		return core.Sale{}, err
	}

	sale.ID = nextID(core.SaleIDPrefix, l.saleIDsLocked())
	l.sales = slices.Insert(l.sales, 0, sale)
	l.saveLocked(ctx)

	slog.InfoContext(ctx, "Sale recorded",
		"id", sale.ID, "business", sale.Business, "total", sale.Total)
	l.publish(ctx, "sale", sale.ID, "created")
	return sale, nil
}

// CreateExpense validates, stores and persists a new expense, bumping the
// purpose frequency used for suggestions.
func (l *Ledger) CreateExpense(ctx context.Context, in ExpenseInput, by core.Identity) (core.Expense, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now().UTC()
	expense := core.Expense{
		Date:          in.Date,
		Business:      strings.TrimSpace(in.Business),
		Purpose:       strings.TrimSpace(in.Purpose),
		Amount:        in.Amount,
		PaymentMethod: in.PaymentMethod,
		Image:         in.Image,
		ImageName:     in.ImageName,
		CreatedBy:     by.Username,
		CreatedByName: by.Name,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := expense.Validate(); err != nil {
		return core.Expense{}, err
	}

	expense.ID = nextID(core.ExpenseIDPrefix, l.expenseIDsLocked())
	l.expenses = slices.Insert(l.expenses, 0, expense)
	l.purposes[core.NormalizePurpose(expense.Purpose)]++
	l.saveLocked(ctx)

	slog.InfoContext(ctx, "Expense recorded",
		"id", expense.ID, "business", expense.Business, "amount", expense.Amount)
	l.publish(ctx, "expense", expense.ID, "created")
	return expense, nil
}

// Sale returns the sale with the given id or ErrNotFound.
func (l *Ledger) Sale(id string) (core.Sale, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, s := range l.sales {
		if s.ID == id {
			return s, nil
		}
	}
	return core.Sale{}, core.ErrNotFound
}

// Expense returns the expense with the given id or ErrNotFound.
func (l *Ledger) Expense(id string) (core.Expense, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, e := range l.expenses {
		if e.ID == id {
			return e, nil
		}
	}
	return core.Expense{}, core.ErrNotFound
}

// UpdateSale replaces the editable fields of an existing sale.
func (l *Ledger) UpdateSale(ctx context.Context, id string, in SaleInput) (core.Sale, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := slices.IndexFunc(l.sales, func(s core.Sale) bool { return s.ID == id })
	if idx < 0 {
		return core.Sale{}, core.ErrNotFound
	}

	sale := l.sales[idx]
	sale.Date = in.Date
	sale.Business = strings.TrimSpace(in.Business)
	sale.Cash = in.Cash
	sale.UPI = in.UPI
	sale.Recalculate()
	sale.UpdatedAt = l.now().UTC()
	if err := sale.Validate(); err != nil {
		return core.Sale{}, err
	}

	l.sales[idx] = sale
	l.saveLocked(ctx)

	slog.InfoContext(ctx, "Sale updated", "id", sale.ID)
	l.publish(ctx, "sale", sale.ID, "updated")
	return sale, nil
}

// UpdateExpense replaces the editable fields of an existing expense.
func (l *Ledger) UpdateExpense(ctx context.Context, id string, in ExpenseInput) (core.Expense, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := slices.IndexFunc(l.expenses, func(e core.Expense) bool { return e.ID == id })
	if idx < 0 {
		return core.Expense{}, core.ErrNotFound
	}

	expense := l.expenses[idx]
	oldPurpose := expense.Purpose
	expense.Date = in.Date
	expense.Business = strings.TrimSpace(in.Business)
	expense.Purpose = strings.TrimSpace(in.Purpose)
	expense.Amount = in.Amount
	expense.PaymentMethod = in.PaymentMethod
	expense.Image = in.Image
	expense.ImageName = in.ImageName
	expense.UpdatedAt = l.now().UTC()
	if err := expense.Validate(); err != nil {
		return core.Expense{}, err
	}

	if !strings.EqualFold(oldPurpose, expense.Purpose) {
		l.purposes[core.NormalizePurpose(expense.Purpose)]++
	}

	l.expenses[idx] = expense
	l.saveLocked(ctx)

	slog.InfoContext(ctx, "Expense updated", "id", expense.ID)
	l.publish(ctx, "expense", expense.ID, "updated")
	return expense, nil
}

// DeleteSale removes a sale optimistically. When the remote save fails the
// record is restored at its original position and the failure returned; the
// local mirror is rewritten to match the restored dataset.
func (l *Ledger) DeleteSale(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := slices.IndexFunc(l.sales, func(s core.Sale) bool { return s.ID == id })
	if idx < 0 {
		return core.ErrNotFound
	}

	removed := l.sales[idx]
	l.sales = slices.Delete(l.sales, idx, idx+1)

	result := l.saveLocked(ctx)
	if result.RemoteErr != nil {
		l.sales = slices.Insert(l.sales, idx, removed)
		if err := l.local.SaveSnapshot(ctx, l.snapshotLocked()); err != nil {
			slog.ErrorContext(ctx, "Failed to re-mirror dataset after delete rollback", "error", err)
		}
		slog.WarnContext(ctx, "Sale delete rolled back after remote failure",
			"id", id, "error", result.RemoteErr)
		return result.RemoteErr
	}

	slog.InfoContext(ctx, "Sale deleted", "id", id)
	l.publish(ctx, "sale", id, "deleted")
	return nil
}

// DeleteExpense removes an expense optimistically with the same rollback
// contract as DeleteSale. The purpose frequency is left untouched.
func (l *Ledger) DeleteExpense(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := slices.IndexFunc(l.expenses, func(e core.Expense) bool { return e.ID == id })
	if idx < 0 {
		return core.ErrNotFound
	}

	removed := l.expenses[idx]
	l.expenses = slices.Delete(l.expenses, idx, idx+1)

	result := l.saveLocked(ctx)
	if result.RemoteErr != nil {
		l.expenses = slices.Insert(l.expenses, idx, removed)
		if err := l.local.SaveSnapshot(ctx, l.snapshotLocked()); err != nil {
			slog.ErrorContext(ctx, "Failed to re-mirror dataset after delete rollback", "error", err)
		}
		slog.WarnContext(ctx, "Expense delete rolled back after remote failure",
			"id", id, "error", result.RemoteErr)
		return result.RemoteErr
	}

	slog.InfoContext(ctx, "Expense deleted", "id", id)
	l.publish(ctx, "expense", id, "deleted")
	return nil
}

// SalesList returns sales matching the filter, newest first as stored.
func (l *Ledger) SalesList(f Filter) []core.Sale {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]core.Sale, 0, len(l.sales))
	for _, s := range l.sales {
		if !dateInRange(s.Date, f) {
			continue
		}
		if f.Search != "" && !matchesAny(f.Search, s.ID, s.Business, s.CreatedByName) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// ExpensesList returns expenses matching the filter, newest first as stored.
func (l *Ledger) ExpensesList(f Filter) []core.Expense {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]core.Expense, 0, len(l.expenses))
	for _, e := range l.expenses {
		if !dateInRange(e.Date, f) {
			continue
		}
		if f.Search != "" && !matchesAny(f.Search, e.ID, e.Business, e.Purpose, e.CreatedByName) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// PurposeSuggestions returns up to limit purposes ordered by how often they
// have been used, most frequent first. A non-empty prefix narrows the set.
func (l *Ledger) PurposeSuggestions(prefix string, limit int) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	prefix = core.NormalizePurpose(prefix)
	type entry struct {
		purpose string
		count   int
	}
	entries := make([]entry, 0, len(l.purposes))
	for purpose, count := range l.purposes {
		if prefix != "" && !strings.HasPrefix(purpose, prefix) {
			continue
		}
		entries = append(entries, entry{purpose, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].purpose < entries[j].purpose
	})

	if limit <= 0 || limit > len(entries) {
		limit = len(entries)
	}
	out := make([]string, limit)
	for i := range out {
		out[i] = entries[i].purpose
	}
	return out
}

func dateInRange(d core.Date, f Filter) bool {
	if !f.From.IsZero() && d.Before(f.From.Time) {
		return false
	}
	if !f.To.IsZero() && d.After(f.To.Time) {
		return false
	}
	return true
}

func matchesAny(search string, fields ...string) bool {
	search = strings.ToLower(strings.TrimSpace(search))
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}
