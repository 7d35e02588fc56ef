package evolution

import (
	"encoding/json"
	"sort"

	"github.com/pthm-cable/orbs/neural"
)

// HallEntry is one archived brain with the score that earned its place.
type HallEntry struct {
	Brain      *neural.Brain
	Fitness    float32
	Generation int
	OrbID      uint32

	source *neural.Brain // live brain this entry was copied from
}

// HallOfFame keeps the best brains seen across all generations, sorted by
// descending fitness. These are the brains that get persisted between runs.
type HallOfFame struct {
	entries []HallEntry
	maxSize int
}

// NewHallOfFame creates a hall holding at most maxSize brains.
func NewHallOfFame(maxSize int) *HallOfFame {
	if maxSize < 1 {
		maxSize = 1
	}
	return &HallOfFame{
		entries: make([]HallEntry, 0, maxSize),
		maxSize: maxSize,
	}
}

// Consider offers a brain to the hall and reports whether it was kept.
// Elites survive unchanged across generations, so a brain already in the hall
// only has its entry raised when it scores higher.
func (h *HallOfFame) Consider(brain *neural.Brain, fitness float32, generation int, orbID uint32) bool {
	for i := range h.entries {
		if h.entries[i].source != brain {
			continue
		}
		if fitness <= h.entries[i].Fitness {
			return false
		}
		entry := h.entries[i]
		entry.Fitness = fitness
		entry.Generation = generation
		entry.OrbID = orbID
		h.entries = append(h.entries[:i], h.entries[i+1:]...)
		h.entries = h.insertEntry(h.entries, entry)
		return true
	}

	entry := HallEntry{
		Brain:      brain.Clone(),
		Fitness:    fitness,
		Generation: generation,
		OrbID:      orbID,
		source:     brain,
	}
	h.entries = h.insertEntry(h.entries, entry)
	return h.contains(entry.Brain)
}

// insertEntry adds an entry, maintaining sorted order by fitness.
// If the hall is full, the lowest-fitness entry is removed.
func (h *HallOfFame) insertEntry(hall []HallEntry, entry HallEntry) []HallEntry {
	idx := sort.Search(len(hall), func(i int) bool {
		return hall[i].Fitness < entry.Fitness
	})

	if len(hall) >= h.maxSize && idx >= h.maxSize {
		return hall
	}

	hall = append(hall, HallEntry{})
	copy(hall[idx+1:], hall[idx:])
	hall[idx] = entry

	if len(hall) > h.maxSize {
		hall = hall[:h.maxSize]
	}
	return hall
}

func (h *HallOfFame) contains(b *neural.Brain) bool {
	for _, e := range h.entries {
		if e.Brain == b {
			return true
		}
	}
	return false
}

// Brains returns the archived brains, best first.
func (h *HallOfFame) Brains() []*neural.Brain {
	out := make([]*neural.Brain, len(h.entries))
	for i, e := range h.entries {
		out[i] = e.Brain
	}
	return out
}

// Entries returns a copy of the archive, best first.
func (h *HallOfFame) Entries() []HallEntry {
	return append([]HallEntry(nil), h.entries...)
}

// Len returns the number of archived brains.
func (h *HallOfFame) Len() int { return len(h.entries) }

// TopFitness returns the best archived score, or 0 when empty.
func (h *HallOfFame) TopFitness() float32 {
	if len(h.entries) == 0 {
		return 0
	}
	return h.entries[0].Fitness
}

type hallEntryJSON struct {
	OrbID      uint32        `json:"orb_id"`
	Fitness    float32       `json:"fitness"`
	Generation int           `json:"generation"`
	Brain      neural.Record `json:"brain"`
}

// MarshalJSON serializes the hall with scores and brain records.
func (h *HallOfFame) MarshalJSON() ([]byte, error) {
	export := make([]hallEntryJSON, len(h.entries))
	for i, e := range h.entries {
		export[i] = hallEntryJSON{
			OrbID:      e.OrbID,
			Fitness:    e.Fitness,
			Generation: e.Generation,
			Brain:      e.Brain.Record(),
		}
	}
	return json.MarshalIndent(export, "", "  ")
}
