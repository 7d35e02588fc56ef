// Package storage persists the best brains between runs.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pthm-cable/orbs/neural"
)

var (
	// ErrMissingPersistedState means nothing has been saved yet. Callers
	// treat it as "start from scratch".
	ErrMissingPersistedState = errors.New("no persisted brains")
	// ErrMalformedPersistedRecord means a stored record could not be decoded
	// into a brain.
	ErrMalformedPersistedRecord = errors.New("malformed brain record")
)

// Store saves and loads ranked brain sets. The first brain is the best.
type Store interface {
	Init(ctx context.Context) error
	SaveBrains(ctx context.Context, brains []*neural.Brain) error
	LoadBrains(ctx context.Context) ([]*neural.Brain, error)
	Close() error
}

func encodeRecords(brains []*neural.Brain) ([]neural.Record, error) {
	recs := make([]neural.Record, 0, len(brains))
	for i, b := range brains {
		if b == nil {
			return nil, fmt.Errorf("brain %d is nil", i)
		}
		recs = append(recs, b.Record())
	}
	return recs, nil
}

func decodeRecords(recs []neural.Record, act neural.Activation) ([]*neural.Brain, error) {
	brains := make([]*neural.Brain, 0, len(recs))
	for i, r := range recs {
		b, err := neural.FromRecord(r, act)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", ErrMalformedPersistedRecord, i, err)
		}
		brains = append(brains, b)
	}
	return brains, nil
}

func decodeRecord(payload []byte, idx int, act neural.Activation) (*neural.Brain, error) {
	var r neural.Record
	if err := json.Unmarshal(payload, &r); err != nil {
		return nil, fmt.Errorf("%w: record %d: %w", ErrMalformedPersistedRecord, idx, err)
	}
	b, err := neural.FromRecord(r, act)
	if err != nil {
		return nil, fmt.Errorf("%w: record %d: %w", ErrMalformedPersistedRecord, idx, err)
	}
	return b, nil
}
