package books

import (
	"context"
	"errors"
	"testing"
	"time"

	"bizbook/internal/core"
	"bizbook/internal/remote/memory"

	"github.com/shopspring/decimal"
)

// fakeLocal is an in-memory LocalStore with injectable failures.
type fakeLocal struct {
	snap    core.Snapshot
	saved   int
	loadErr error
	saveErr error
}

func (f *fakeLocal) LoadSnapshot(ctx context.Context) (core.Snapshot, error) {
	if f.loadErr != nil {
		return core.Snapshot{}, f.loadErr
	}
	snap := f.snap.Clone()
	snap.Normalize()
	return snap, nil
}

func (f *fakeLocal) SaveSnapshot(ctx context.Context, snap core.Snapshot) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.snap = snap.Clone()
	f.saved++
	return nil
}

func testIdentity() core.Identity {
	return core.Identity{Username: "asha", Name: "Asha"}
}

func saleInput(business string, cash, upi int64) SaleInput {
	return SaleInput{
		Date:     core.NewDate(2025, 3, 10),
		Business: business,
		Cash:     decimal.NewFromInt(cash),
		UPI:      decimal.NewFromInt(upi),
	}
}

func expenseInput(business, purpose string, amount int64) ExpenseInput {
	return ExpenseInput{
		Date:          core.NewDate(2025, 3, 10),
		Business:      business,
		Purpose:       purpose,
		Amount:        decimal.NewFromInt(amount),
		PaymentMethod: core.PaymentCash,
	}
}

func TestLoadFromRemoteMirrorsLocally(t *testing.T) {
	remoteStore := memory.New()
	remoteStore.Replace(context.Background(), core.Snapshot{
		Sales: []core.Sale{{ID: "SL001", Business: "store", Cash: decimal.NewFromInt(10)}},
	})
	local := &fakeLocal{}
	ledger := New(local, remoteStore, nil)

	if err := ledger.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := ledger.State(); got != StateSynced {
		t.Errorf("State() = %q, want %q", got, StateSynced)
	}
	if local.saved != 1 {
		t.Errorf("local mirror writes = %d, want 1", local.saved)
	}
	snap := ledger.Snapshot()
	if len(snap.Sales) != 1 || snap.Sales[0].ID != "SL001" {
		t.Errorf("unexpected sales after load: %+v", snap.Sales)
	}
}

func TestLoadFallsBackToLocalOnRemoteFailure(t *testing.T) {
	remoteStore := memory.New()
	remoteStore.FetchErr = errors.New("gist unreachable")
	local := &fakeLocal{snap: core.Snapshot{
		Expenses: []core.Expense{{ID: "EX001", Business: "store"}},
	}}
	ledger := New(local, remoteStore, nil)

	err := ledger.Load(context.Background())
	var syncErr *SyncError
	if !errors.As(err, &syncErr) {
		t.Fatalf("Load() error = %v, want *SyncError", err)
	}
	if syncErr.Op != "load" {
		t.Errorf("SyncError.Op = %q, want %q", syncErr.Op, "load")
	}
	if got := ledger.State(); got != StateError {
		t.Errorf("State() = %q, want %q", got, StateError)
	}
	snap := ledger.Snapshot()
	if len(snap.Expenses) != 1 || snap.Expenses[0].ID != "EX001" {
		t.Errorf("expected local fallback dataset, got %+v", snap.Expenses)
	}
	if local.saved != 0 {
		t.Errorf("local mirror writes = %d, want 0 on failed remote load", local.saved)
	}
}

func TestLoadOfflineNeverWritesLocal(t *testing.T) {
	remoteStore := memory.New()
	local := &fakeLocal{snap: core.Snapshot{
		Sales: []core.Sale{{ID: "SL001", Business: "store"}},
	}}
	ledger := New(local, remoteStore, nil)
	ledger.SetOnline(context.Background(), false)
	local.saved = 0

	if err := ledger.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := ledger.State(); got != StateLocal {
		t.Errorf("State() = %q, want %q", got, StateLocal)
	}
	if local.saved != 0 {
		t.Errorf("local mirror writes = %d, want 0 for offline load", local.saved)
	}
}

func TestLoadWithoutRemoteUsesLocal(t *testing.T) {
	local := &fakeLocal{snap: core.Snapshot{
		Sales: []core.Sale{{ID: "SL007", Business: "store"}},
	}}
	ledger := New(local, nil, nil)

	if err := ledger.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := ledger.State(); got != StateLocal {
		t.Errorf("State() = %q, want %q", got, StateLocal)
	}
}

func TestSaveFailureStillMirrorsLocally(t *testing.T) {
	remoteStore := memory.New()
	remoteStore.ReplaceErr = errors.New("gist rejected")
	local := &fakeLocal{}
	ledger := New(local, remoteStore, nil)

	result := ledger.Save(context.Background())
	if result.State != StateError {
		t.Errorf("SaveResult.State = %q, want %q", result.State, StateError)
	}
	var syncErr *SyncError
	if !errors.As(result.RemoteErr, &syncErr) {
		t.Errorf("SaveResult.RemoteErr = %v, want *SyncError", result.RemoteErr)
	}
	if result.LocalErr != nil {
		t.Errorf("SaveResult.LocalErr = %v, want nil", result.LocalErr)
	}
	if local.saved != 1 {
		t.Errorf("local mirror writes = %d, want 1", local.saved)
	}
}

func TestSaveStampsLastUpdated(t *testing.T) {
	remoteStore := memory.New()
	local := &fakeLocal{}
	ledger := New(local, remoteStore, nil)
	fixed := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	ledger.now = func() time.Time { return fixed }

	result := ledger.Save(context.Background())
	if result.State != StateSynced {
		t.Fatalf("SaveResult.State = %q, want %q", result.State, StateSynced)
	}
	if got := remoteStore.Snapshot().LastUpdated; !got.Equal(fixed) {
		t.Errorf("remote lastUpdated = %v, want %v", got, fixed)
	}
}

func TestSetOnlineFlushesAndOfflineGoesLocal(t *testing.T) {
	remoteStore := memory.New()
	local := &fakeLocal{}
	ledger := New(local, remoteStore, nil)
	ctx := context.Background()

	ledger.SetOnline(ctx, false)
	if got := ledger.State(); got != StateLocal {
		t.Errorf("State() after going offline = %q, want %q", got, StateLocal)
	}

	if _, err := ledger.CreateSale(ctx, saleInput("store", 100, 0), testIdentity()); err != nil {
		t.Fatalf("CreateSale() error = %v", err)
	}
	if remoteStore.ReplaceCount() != 0 {
		t.Fatalf("remote writes while offline = %d, want 0", remoteStore.ReplaceCount())
	}

	ledger.SetOnline(ctx, true)
	if remoteStore.ReplaceCount() != 1 {
		t.Errorf("remote writes after reconnect = %d, want 1", remoteStore.ReplaceCount())
	}
	if got := ledger.State(); got != StateSynced {
		t.Errorf("State() after reconnect = %q, want %q", got, StateSynced)
	}
	if len(remoteStore.Snapshot().Sales) != 1 {
		t.Errorf("expected offline sale flushed to remote")
	}
}

func TestSnapshotReturnsCopy(t *testing.T) {
	local := &fakeLocal{}
	ledger := New(local, nil, nil)
	if _, err := ledger.CreateSale(context.Background(), saleInput("store", 10, 0), testIdentity()); err != nil {
		t.Fatalf("CreateSale() error = %v", err)
	}

	snap := ledger.Snapshot()
	snap.Sales[0].Business = "tampered"

	if got := ledger.Snapshot().Sales[0].Business; got != "store" {
		t.Errorf("ledger dataset mutated through snapshot copy: business = %q", got)
	}
}
