// Package memory provides an in-memory document store used by tests and as
// the backend when no remote credentials are configured.
package memory

import (
	"context"
	"sync"

	"bizbook/internal/core"
	"bizbook/internal/remote"
)

type Store struct {
	mu   sync.Mutex
	snap core.Snapshot

	// FetchErr and ReplaceErr, when set, make the next calls fail.
	FetchErr   error
	ReplaceErr error

	replaceCount int
}

var _ remote.DocumentStore = (*Store)(nil)

func New() *Store {
	var snap core.Snapshot
	snap.Normalize()
	return &Store{snap: snap}
}

func (s *Store) Fetch(_ context.Context) (core.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FetchErr != nil {
		return core.Snapshot{}, s.FetchErr
	}
	return s.snap.Clone(), nil
}

func (s *Store) Replace(_ context.Context, snap core.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ReplaceErr != nil {
		return s.ReplaceErr
	}
	s.snap = snap.Clone()
	s.replaceCount++
	return nil
}

// Snapshot returns a copy of the stored document.
func (s *Store) Snapshot() core.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone()
}

// ReplaceCount returns how many overwrites succeeded.
func (s *Store) ReplaceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceCount
}
