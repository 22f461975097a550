package core

import (
	"maps"
	"slices"
	"strings"
	"time"
)

// Snapshot is the whole-dataset document exchanged with the remote store and
// mirrored into local storage. The in-memory collections are the source of
// truth on save; a successfully fetched remote snapshot is authoritative on
// load.
type Snapshot struct {
	Sales            []Sale         `json:"sales"`
	Expenses         []Expense      `json:"expenses"`
	PurposeFrequency map[string]int `json:"purposeFrequency"`
	LastUpdated      time.Time      `json:"lastUpdated"`
}

// Normalize defaults missing collections to empty ones and restores the
// derived sale totals, so a partially filled document never leaves records
// inconsistent.
func (s *Snapshot) Normalize() {
	if s.Sales == nil {
		s.Sales = []Sale{}
	}
	if s.Expenses == nil {
		s.Expenses = []Expense{}
	}
	if s.PurposeFrequency == nil {
		s.PurposeFrequency = map[string]int{}
	}
	for i := range s.Sales {
		s.Sales[i].Recalculate()
	}
}

// Clone returns a deep copy so callers can hold a snapshot without aliasing
// the live collections.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Sales:            slices.Clone(s.Sales),
		Expenses:         slices.Clone(s.Expenses),
		PurposeFrequency: maps.Clone(s.PurposeFrequency),
		LastUpdated:      s.LastUpdated,
	}
}

// NormalizePurpose canonicalizes free-text purposes for frequency counting.
func NormalizePurpose(purpose string) string {
	return strings.ToLower(strings.TrimSpace(purpose))
}
