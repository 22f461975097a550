package books

import (
	"context"
	"errors"
	"testing"

	"bizbook/internal/core"
	"bizbook/internal/remote/memory"

	"github.com/shopspring/decimal"
)

func newTestLedger(t *testing.T) (*Ledger, *memory.Store, *fakeLocal) {
	t.Helper()
	remoteStore := memory.New()
	local := &fakeLocal{}
	return New(local, remoteStore, nil), remoteStore, local
}

func TestCreateSaleAllocatesSequentialIDs(t *testing.T) {
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	first, err := ledger.CreateSale(ctx, saleInput("store", 100, 0), testIdentity())
	if err != nil {
		t.Fatalf("CreateSale() error = %v", err)
	}
	second, err := ledger.CreateSale(ctx, saleInput("store", 0, 50), testIdentity())
	if err != nil {
		t.Fatalf("CreateSale() error = %v", err)
	}

	if first.ID != "SL001" || second.ID != "SL002" {
		t.Errorf("ids = %q, %q, want SL001, SL002", first.ID, second.ID)
	}
	if !second.Total.Equal(decimal.NewFromInt(50)) {
		t.Errorf("total = %s, want 50", second.Total)
	}
}

func TestIDReusedAfterDeletingNewestRecord(t *testing.T) {
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	ledger.CreateSale(ctx, saleInput("store", 10, 0), testIdentity())
	second, _ := ledger.CreateSale(ctx, saleInput("store", 20, 0), testIdentity())

	if err := ledger.DeleteSale(ctx, second.ID); err != nil {
		t.Fatalf("DeleteSale() error = %v", err)
	}

	// The allocator scans live records, so deleting the highest id hands
	// it out again.
	third, err := ledger.CreateSale(ctx, saleInput("store", 30, 0), testIdentity())
	if err != nil {
		t.Fatalf("CreateSale() error = %v", err)
	}
	if third.ID != "SL002" {
		t.Errorf("id after deleting newest = %q, want SL002", third.ID)
	}
}

func TestIDSkipsGapsFromEarlierDeletions(t *testing.T) {
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	first, _ := ledger.CreateExpense(ctx, expenseInput("store", "tea", 10), testIdentity())
	ledger.CreateExpense(ctx, expenseInput("store", "milk", 20), testIdentity())

	if err := ledger.DeleteExpense(ctx, first.ID); err != nil {
		t.Fatalf("DeleteExpense() error = %v", err)
	}

	third, err := ledger.CreateExpense(ctx, expenseInput("store", "sugar", 5), testIdentity())
	if err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}
	if third.ID != "EX003" {
		t.Errorf("id after deleting older record = %q, want EX003", third.ID)
	}
}

func TestCreateRecordsNewestFirst(t *testing.T) {
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	ledger.CreateSale(ctx, saleInput("store", 10, 0), testIdentity())
	ledger.CreateSale(ctx, saleInput("store", 20, 0), testIdentity())

	sales := ledger.SalesList(Filter{})
	if len(sales) != 2 || sales[0].ID != "SL002" || sales[1].ID != "SL001" {
		t.Errorf("unexpected order: %q, %q", sales[0].ID, sales[1].ID)
	}
}

func TestCreateSaleValidation(t *testing.T) {
	ledger, remoteStore, _ := newTestLedger(t)

	_, err := ledger.CreateSale(context.Background(), saleInput("", 100, 0), testIdentity())
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("CreateSale() error = %v, want *ValidationError", err)
	}
	if remoteStore.ReplaceCount() != 0 {
		t.Errorf("remote writes after rejected create = %d, want 0", remoteStore.ReplaceCount())
	}
}

func TestUpdateSaleRecomputesTotal(t *testing.T) {
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	sale, _ := ledger.CreateSale(ctx, saleInput("store", 100, 50), testIdentity())

	updated, err := ledger.UpdateSale(ctx, sale.ID, saleInput("store", 70, 30))
	if err != nil {
		t.Fatalf("UpdateSale() error = %v", err)
	}
	if !updated.Total.Equal(decimal.NewFromInt(100)) {
		t.Errorf("total = %s, want 100", updated.Total)
	}
	if updated.CreatedBy != "asha" {
		t.Errorf("update must keep creator, got %q", updated.CreatedBy)
	}
}

func TestUpdateMissingRecord(t *testing.T) {
	ledger, _, _ := newTestLedger(t)

	_, err := ledger.UpdateSale(context.Background(), "SL999", saleInput("store", 10, 0))
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("UpdateSale() error = %v, want ErrNotFound", err)
	}
	_, err = ledger.UpdateExpense(context.Background(), "EX999", expenseInput("store", "tea", 10))
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("UpdateExpense() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteRollbackRestoresOriginalPosition(t *testing.T) {
	ledger, remoteStore, local := newTestLedger(t)
	ctx := context.Background()

	ledger.CreateSale(ctx, saleInput("store", 10, 0), testIdentity())
	ledger.CreateSale(ctx, saleInput("store", 20, 0), testIdentity())
	ledger.CreateSale(ctx, saleInput("store", 30, 0), testIdentity())

	remoteStore.ReplaceErr = errors.New("gist rejected")

	// Middle of the list: SL003, SL002, SL001.
	err := ledger.DeleteSale(ctx, "SL002")
	var syncErr *SyncError
	if !errors.As(err, &syncErr) {
		t.Fatalf("DeleteSale() error = %v, want *SyncError", err)
	}

	sales := ledger.SalesList(Filter{})
	if len(sales) != 3 {
		t.Fatalf("len(sales) = %d, want 3 after rollback", len(sales))
	}
	if sales[0].ID != "SL003" || sales[1].ID != "SL002" || sales[2].ID != "SL001" {
		t.Errorf("order after rollback = %q, %q, %q, want SL003, SL002, SL001",
			sales[0].ID, sales[1].ID, sales[2].ID)
	}
	// Local mirror must match the restored dataset, not the deleted one.
	if got := len(local.snap.Sales); got != 3 {
		t.Errorf("local mirror sales = %d, want 3 after rollback", got)
	}
}

func TestDeleteMissingRecord(t *testing.T) {
	ledger, _, _ := newTestLedger(t)

	if err := ledger.DeleteSale(context.Background(), "SL404"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("DeleteSale() error = %v, want ErrNotFound", err)
	}
	if err := ledger.DeleteExpense(context.Background(), "EX404"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("DeleteExpense() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteKeepsPurposeFrequency(t *testing.T) {
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	expense, _ := ledger.CreateExpense(ctx, expenseInput("store", "Tea", 10), testIdentity())
	if err := ledger.DeleteExpense(ctx, expense.ID); err != nil {
		t.Fatalf("DeleteExpense() error = %v", err)
	}

	got := ledger.PurposeSuggestions("", 0)
	if len(got) != 1 || got[0] != "tea" {
		t.Errorf("PurposeSuggestions() = %v, want [tea]", got)
	}
}

func TestPurposeSuggestionsOrderAndPrefix(t *testing.T) {
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ledger.CreateExpense(ctx, expenseInput("store", "tea", 10), testIdentity())
	}
	ledger.CreateExpense(ctx, expenseInput("store", "transport", 50), testIdentity())
	ledger.CreateExpense(ctx, expenseInput("store", "milk", 20), testIdentity())

	got := ledger.PurposeSuggestions("", 2)
	if len(got) != 2 || got[0] != "tea" {
		t.Errorf("PurposeSuggestions(\"\", 2) = %v, want tea first", got)
	}

	got = ledger.PurposeSuggestions("tr", 0)
	if len(got) != 1 || got[0] != "transport" {
		t.Errorf("PurposeSuggestions(\"tr\", 0) = %v, want [transport]", got)
	}
}

func TestListFilters(t *testing.T) {
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	ledger.CreateExpense(ctx, ExpenseInput{
		Date:          core.NewDate(2025, 3, 1),
		Business:      "store",
		Purpose:       "rent",
		Amount:        decimal.NewFromInt(500),
		PaymentMethod: core.PaymentUPI,
	}, testIdentity())
	ledger.CreateExpense(ctx, ExpenseInput{
		Date:          core.NewDate(2025, 3, 15),
		Business:      "cafe",
		Purpose:       "beans",
		Amount:        decimal.NewFromInt(80),
		PaymentMethod: core.PaymentCash,
	}, testIdentity())

	if got := ledger.ExpensesList(Filter{Search: "RENT"}); len(got) != 1 || got[0].Purpose != "rent" {
		t.Errorf("search filter = %+v, want the rent expense", got)
	}

	from := core.NewDate(2025, 3, 10)
	if got := ledger.ExpensesList(Filter{From: from}); len(got) != 1 || got[0].Purpose != "beans" {
		t.Errorf("date filter = %+v, want the beans expense", got)
	}

	to := core.NewDate(2025, 3, 1)
	if got := ledger.ExpensesList(Filter{To: to}); len(got) != 1 || got[0].Purpose != "rent" {
		t.Errorf("inclusive to-bound = %+v, want the rent expense", got)
	}
}

func TestNextID(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		want     string
	}{
		{"empty", nil, "SL001"},
		{"sequential", []string{"SL001", "SL002"}, "SL003"},
		{"ignores other prefixes", []string{"EX005"}, "SL001"},
		{"ignores malformed", []string{"SLabc", "SL002"}, "SL003"},
		{"grows past padding", []string{"SL999"}, "SL1000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextID("SL", tt.existing); got != tt.want {
				t.Errorf("nextID() = %q, want %q", got, tt.want)
			}
		})
	}
}
