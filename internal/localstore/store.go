package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"bizbook/internal/core"

	_ "modernc.org/sqlite"
)

// Slot keys under which the three mirrored collections live.
const (
	KeySales     = "business_tracker_sales"
	KeyExpenses  = "business_tracker_expenses"
	KeyFrequency = "business_tracker_frequency"
)

// Store is a key-value mirror of the remote document, backed by SQLite.
// Each slot holds one JSON-encoded collection.
type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns the value stored under key. The second return is false when
// the slot has never been written.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM slots WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read slot %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) Put(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO slots (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("write slot %s: %w", key, err)
	}
	return nil
}

// LoadSnapshot reads the three mirrored slots and assembles a snapshot.
// Missing slots yield empty collections.
func (s *Store) LoadSnapshot(ctx context.Context) (core.Snapshot, error) {
	var snap core.Snapshot

	if raw, ok, err := s.Get(ctx, KeySales); err != nil {
		return core.Snapshot{}, err
	} else if ok {
		if err := json.Unmarshal([]byte(raw), &snap.Sales); err != nil {
			return core.Snapshot{}, fmt.Errorf("decode sales slot: %w", err)
		}
	}

	if raw, ok, err := s.Get(ctx, KeyExpenses); err != nil {
		return core.Snapshot{}, err
	} else if ok {
		if err := json.Unmarshal([]byte(raw), &snap.Expenses); err != nil {
			return core.Snapshot{}, fmt.Errorf("decode expenses slot: %w", err)
		}
	}

	if raw, ok, err := s.Get(ctx, KeyFrequency); err != nil {
		return core.Snapshot{}, err
	} else if ok {
		if err := json.Unmarshal([]byte(raw), &snap.PurposeFrequency); err != nil {
			return core.Snapshot{}, fmt.Errorf("decode frequency slot: %w", err)
		}
	}

	snap.Normalize()
	return snap, nil
}

// SaveSnapshot mirrors the snapshot into the three slots.
func (s *Store) SaveSnapshot(ctx context.Context, snap core.Snapshot) error {
	snap.Normalize()

	sales, err := json.Marshal(snap.Sales)
	if err != nil {
		return fmt.Errorf("encode sales: %w", err)
	}
	expenses, err := json.Marshal(snap.Expenses)
	if err != nil {
		return fmt.Errorf("encode expenses: %w", err)
	}
	frequency, err := json.Marshal(snap.PurposeFrequency)
	if err != nil {
		return fmt.Errorf("encode frequency: %w", err)
	}

	if err := s.Put(ctx, KeySales, string(sales)); err != nil {
		return err
	}
	if err := s.Put(ctx, KeyExpenses, string(expenses)); err != nil {
		return err
	}
	return s.Put(ctx, KeyFrequency, string(frequency))
}
