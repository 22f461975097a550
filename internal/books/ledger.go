package books

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bizbook/internal/core"
	"bizbook/internal/remote"
)

// SyncState describes the relationship between the in-memory dataset and the
// remote document after the most recent load or save.
type SyncState string

const (
	// StateLocal means the dataset lives only locally: no remote store is
	// configured, or the ledger is offline.
	StateLocal SyncState = "local"
	// StateSyncing means a remote exchange is in flight.
	StateSyncing SyncState = "syncing"
	// StateSynced means the last remote exchange succeeded.
	StateSynced SyncState = "synced"
	// StateError means the last remote exchange failed; the in-memory
	// dataset is still authoritative.
	StateError SyncState = "error"
)

// LocalStore mirrors the dataset on disk so restarts and offline periods do
// not lose data.
type LocalStore interface {
	LoadSnapshot(ctx context.Context) (core.Snapshot, error)
	SaveSnapshot(ctx context.Context, snap core.Snapshot) error
}

// EventPublisher receives a notification after every successful mutation.
// Implementations must tolerate being nil-checked by the caller; a nil
// publisher disables events.
type EventPublisher interface {
	PublishRecordEvent(ctx context.Context, kind, id, action string) error
}

// SyncError reports a failed remote exchange. The wrapped error keeps the
// transport detail; Op says which exchange failed.
type SyncError struct {
	Op  string
	Err error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s: %v", e.Op, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// SaveResult reports the outcome of a save. Remote and local persistence are
// independent: a failed remote write with a good local mirror is still a
// usable state.
type SaveResult struct {
	State     SyncState
	RemoteErr error
	LocalErr  error
}

// Ledger owns the in-memory dataset and coordinates the local mirror and the
// remote document store. All mutations go through it; a mutex serializes
// them, so whichever save completes last wins the remote document, matching
// the remote store's own last-writer-wins behavior.
type Ledger struct {
	mu          sync.Mutex
	sales       []core.Sale
	expenses    []core.Expense
	purposes    map[string]int
	lastUpdated time.Time
	state       SyncState
	online      bool

	local  LocalStore
	remote remote.DocumentStore
	events EventPublisher
	now    func() time.Time
}

// New creates a ledger. remote may be nil for a purely local setup; events
// may be nil to disable mutation events.
func New(local LocalStore, remoteStore remote.DocumentStore, events EventPublisher) *Ledger {
	return &Ledger{
		purposes: map[string]int{},
		state:    StateLocal,
		online:   true,
		local:    local,
		remote:   remoteStore,
		events:   events,
		now:      time.Now,
	}
}

// Load populates the dataset. With a reachable remote the fetched document is
// authoritative and gets mirrored locally; otherwise the local mirror is
// loaded as-is, without writing anything back.
func (l *Ledger) Load(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadLocked(ctx)
}

func (l *Ledger) loadLocked(ctx context.Context) error {
	if l.remote != nil && l.online {
		l.state = StateSyncing
		snap, err := l.remote.Fetch(ctx)
		if err == nil {
			l.replaceLocked(snap)
			l.state = StateSynced
			if mirrorErr := l.local.SaveSnapshot(ctx, snap); mirrorErr != nil {
				slog.WarnContext(ctx, "Failed to mirror remote snapshot locally", "error", mirrorErr)
			}
			slog.InfoContext(ctx, "Loaded dataset from remote store",
				"sales", len(l.sales), "expenses", len(l.expenses))
			return nil
		}

		slog.WarnContext(ctx, "Remote fetch failed, falling back to local mirror", "error", err)
		snap, localErr := l.local.LoadSnapshot(ctx)
		if localErr != nil {
			l.state = StateError
			return &SyncError{Op: "load", Err: err}
		}
		l.replaceLocked(snap)
		l.state = StateError
		return &SyncError{Op: "load", Err: err}
	}

	snap, err := l.local.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("load local snapshot: %w", err)
	}
	l.replaceLocked(snap)
	l.state = StateLocal
	slog.InfoContext(ctx, "Loaded dataset from local mirror",
		"sales", len(l.sales), "expenses", len(l.expenses))
	return nil
}

func (l *Ledger) replaceLocked(snap core.Snapshot) {
	snap.Normalize()
	l.sales = snap.Sales
	l.expenses = snap.Expenses
	l.purposes = snap.PurposeFrequency
	l.lastUpdated = snap.LastUpdated
}

func (l *Ledger) snapshotLocked() core.Snapshot {
	return core.Snapshot{
		Sales:            l.sales,
		Expenses:         l.expenses,
		PurposeFrequency: l.purposes,
		LastUpdated:      l.lastUpdated,
	}.Clone()
}

// saveLocked persists the dataset: local mirror always, remote when online
// and configured. The caller must hold the mutex.
func (l *Ledger) saveLocked(ctx context.Context) SaveResult {
	l.lastUpdated = l.now().UTC()
	snap := l.snapshotLocked()

	var result SaveResult
	if err := l.local.SaveSnapshot(ctx, snap); err != nil {
		result.LocalErr = fmt.Errorf("save local snapshot: %w", err)
		slog.ErrorContext(ctx, "Failed to mirror dataset locally", "error", err)
	}

	if l.remote == nil || !l.online {
		l.state = StateLocal
		result.State = StateLocal
		return result
	}

	l.state = StateSyncing
	if err := l.remote.Replace(ctx, snap); err != nil {
		l.state = StateError
		result.State = StateError
		result.RemoteErr = &SyncError{Op: "save", Err: err}
		slog.ErrorContext(ctx, "Failed to replace remote document", "error", err)
		return result
	}

	l.state = StateSynced
	result.State = StateSynced
	return result
}

// Save persists the current dataset without mutating it.
func (l *Ledger) Save(ctx context.Context) SaveResult {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.saveLocked(ctx)
}

// SetOnline flips connectivity. Coming back online immediately pushes the
// in-memory dataset; going offline just marks the state local.
func (l *Ledger) SetOnline(ctx context.Context, online bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.online == online {
		return
	}
	l.online = online
	if online {
		slog.InfoContext(ctx, "Connectivity restored, pushing dataset to remote store")
		l.saveLocked(ctx)
		return
	}
	slog.InfoContext(ctx, "Going offline, dataset stays local")
	l.state = StateLocal
}

// Online reports current connectivity.
func (l *Ledger) Online() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.online
}

// State returns the sync state after the most recent exchange.
func (l *Ledger) State() SyncState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Snapshot returns a deep copy of the current dataset.
func (l *Ledger) Snapshot() core.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *Ledger) publish(ctx context.Context, kind, id, action string) {
	if l.events == nil {
		return
	}
	if err := l.events.PublishRecordEvent(ctx, kind, id, action); err != nil {
		slog.WarnContext(ctx, "Failed to publish record event",
			"kind", kind, "id", id, "action", action, "error", err)
	}
}
