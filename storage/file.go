package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/pthm-cable/orbs/neural"
)

// FileStore keeps brains as a JSON array of records in a single file.
type FileStore struct {
	path string
	act  neural.Activation

	mu sync.Mutex
}

// NewFileStore creates a store at path. Loaded brains use act for their
// hidden layers.
func NewFileStore(path string, act neural.Activation) *FileStore {
	return &FileStore{path: path, act: act}
}

func (s *FileStore) Init(_ context.Context) error {
	if s.path == "" {
		return errors.New("file path is required")
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

// SaveBrains overwrites the file. The write goes through a temp file so a
// crash never leaves a truncated array behind.
func (s *FileStore) SaveBrains(_ context.Context, brains []*neural.Brain) error {
	recs, err := encodeRecords(brains)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding brains: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) LoadBrains(_ context.Context) ([]*neural.Brain, error) {
	s.mu.Lock()
	data, err := os.ReadFile(s.path)
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrMissingPersistedState
		}
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}

	var recs []neural.Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedPersistedRecord, s.path, err)
	}
	if len(recs) == 0 {
		return nil, ErrMissingPersistedState
	}
	return decodeRecords(recs, s.act)
}

func (s *FileStore) Close() error { return nil }
