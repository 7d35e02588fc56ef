package storage

import (
	"context"
	"fmt"

	"github.com/pthm-cable/orbs/config"
	"github.com/pthm-cable/orbs/neural"
)

// NewStore builds and initializes the backend named by kind.
// Backend "none" returns a nil store and no error.
func NewStore(ctx context.Context, kind, path string, act neural.Activation) (Store, error) {
	var s Store
	switch kind {
	case config.BackendNone:
		return nil, nil
	case "", config.BackendMemory:
		s = NewMemoryStore()
	case config.BackendJSON:
		s = NewFileStore(path, act)
	case config.BackendSQLite:
		s = NewSQLiteStore(path, act)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
	if err := s.Init(ctx); err != nil {
		return nil, fmt.Errorf("init %s store: %w", kind, err)
	}
	return s, nil
}
