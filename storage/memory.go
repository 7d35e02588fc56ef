package storage

import (
	"context"
	"sync"

	"github.com/pthm-cable/orbs/neural"
)

// MemoryStore keeps brains for the lifetime of the process. It backs tests
// and runs that should not touch disk.
type MemoryStore struct {
	mu     sync.RWMutex
	brains []*neural.Brain
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error { return nil }

func (s *MemoryStore) SaveBrains(_ context.Context, brains []*neural.Brain) error {
	cloned := make([]*neural.Brain, len(brains))
	for i, b := range brains {
		cloned[i] = b.Clone()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.brains = cloned
	return nil
}

func (s *MemoryStore) LoadBrains(_ context.Context) ([]*neural.Brain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.brains) == 0 {
		return nil, ErrMissingPersistedState
	}
	out := make([]*neural.Brain, len(s.brains))
	for i, b := range s.brains {
		out[i] = b.Clone()
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
