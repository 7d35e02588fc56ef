package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pthm-cable/orbs/neural"

	_ "modernc.org/sqlite"
)

// SQLiteStore archives every saved brain set as a run of ranked rows.
// LoadBrains returns the most recent save.
type SQLiteStore struct {
	path  string
	act   neural.Activation
	runID string

	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteStore creates a store backed by the database file at path. Each
// store instance writes under its own run ID.
func NewSQLiteStore(path string, act neural.Activation) *SQLiteStore {
	return &SQLiteStore{path: path, act: act, runID: uuid.NewString()}
}

// RunID identifies the rows written by this store.
func (s *SQLiteStore) RunID() string { return s.runID }

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

// SaveBrains replaces this run's rows and stamps them with the save time.
func (s *SQLiteStore) SaveBrains(ctx context.Context, brains []*neural.Brain) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	recs, err := encodeRecords(brains)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM brains WHERE run_id = ?`, s.runID); err != nil {
		return err
	}
	savedAt := time.Now().UnixNano()
	for rank, r := range recs {
		payload, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encoding brain %d: %w", rank, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO brains (run_id, rank, saved_at, payload)
			VALUES (?, ?, ?, ?)
		`, s.runID, rank, savedAt, payload); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) LoadBrains(ctx context.Context) ([]*neural.Brain, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	var runID string
	err = db.QueryRowContext(ctx, `
		SELECT run_id FROM brains ORDER BY saved_at DESC, rowid DESC LIMIT 1
	`).Scan(&runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMissingPersistedState
		}
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT payload FROM brains WHERE run_id = ? ORDER BY rank
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var brains []*neural.Brain
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		b, err := decodeRecord(payload, len(brains), s.act)
		if err != nil {
			return nil, err
		}
		brains = append(brains, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return brains, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS brains (
			run_id TEXT NOT NULL,
			rank INTEGER NOT NULL,
			saved_at INTEGER NOT NULL,
			payload BLOB NOT NULL,
			PRIMARY KEY (run_id, rank)
		);
		CREATE INDEX IF NOT EXISTS brains_saved_at ON brains (saved_at);
	`)
	return err
}
