package vizserver

import (
	"encoding/json"
	"sync"

	"github.com/pthm-cable/orbs/events"
	"github.com/pthm-cable/orbs/telemetry"
)

// DefaultHistorySize is the number of generation summaries kept for /api/generations.
const DefaultHistorySize = 200

// State holds the latest data published by the simulation goroutine.
// Every field is replaced, never mutated, so readers can share it.
type State struct {
	mu          sync.RWMutex
	frame       *telemetry.Frame
	frameJSON   []byte
	hallJSON    []byte
	generations []events.GenerationComplete
	historySize int
}

// NewState creates an empty state keeping historySize generations.
func NewState(historySize int) *State {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	return &State{historySize: historySize}
}

// SetFrame stores the latest frame and returns its JSON encoding.
func (s *State) SetFrame(f *telemetry.Frame) ([]byte, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.frame = f
	s.frameJSON = data
	s.mu.Unlock()
	return data, nil
}

// Frame returns the latest frame, or nil before the first one.
func (s *State) Frame() *telemetry.Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame
}

// FrameJSON returns the encoded latest frame.
func (s *State) FrameJSON() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frameJSON
}

// RecordGeneration appends a generation summary and replaces the hall of
// fame. The hall is encoded immediately since its owner keeps mutating it.
func (s *State) RecordGeneration(e events.GenerationComplete, hall json.Marshaler) error {
	var data []byte
	if hall != nil {
		var err error
		if data, err = hall.MarshalJSON(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations = append(s.generations, e)
	if over := len(s.generations) - s.historySize; over > 0 {
		s.generations = append([]events.GenerationComplete(nil), s.generations[over:]...)
	}
	if data != nil {
		s.hallJSON = data
	}
	return nil
}

// Generations returns a copy of the recorded summaries, oldest first.
func (s *State) Generations() []events.GenerationComplete {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]events.GenerationComplete(nil), s.generations...)
}

// HallJSON returns the encoded hall of fame, or nil before the first generation ends.
func (s *State) HallJSON() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hallJSON
}
