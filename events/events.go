// Package events is the notification bus between the simulation core and its
// collaborators (UI, vizserver, telemetry).
//
// The set of event kinds is closed: each kind has its own typed Topic on Bus.
// Publishing delivers synchronously to every subscriber registered at the time
// of the call. Spawn requests travel the other way, from collaborators into the
// core, and are queued until the next tick boundary.
package events

import (
	"sync"

	"github.com/pthm-cable/orbs/components"
)

// TargetDestroyed is published when an orb consumes a target.
type TargetDestroyed struct {
	Tick     int32
	TargetID uint32
	OrbID    uint32
}

// GenerationComplete is published after the population has been evolved.
type GenerationComplete struct {
	Generation int
	Best       float32
	Mean       float32
	HighScore  float32
}

// SpawnRequested asks the core to add an entity. Without a position the core
// picks one from its spawn field.
type SpawnRequested struct {
	Kind        components.Kind
	X, Y        float32
	HasPosition bool
}

// Topic is a typed subscriber list for one event kind.
type Topic[T any] struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscriber[T]
}

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// Subscribe registers fn and returns a function that removes it.
// Calling the returned function more than once is a no-op.
func (t *Topic[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	id := t.nextID
	t.subs = append(t.subs, subscriber[T]{id: id, fn: fn})
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		// Build a new slice so a concurrent Publish keeps a consistent view.
		subs := make([]subscriber[T], 0, len(t.subs))
		for _, s := range t.subs {
			if s.id != id {
				subs = append(subs, s)
			}
		}
		t.subs = subs
	}
}

// Publish calls every current subscriber in registration order.
func (t *Topic[T]) Publish(ev T) {
	t.mu.RLock()
	subs := t.subs
	t.mu.RUnlock()
	for _, s := range subs {
		s.fn(ev)
	}
}

// Len returns the number of active subscribers.
func (t *Topic[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.subs)
}

// DefaultSpawnQueue is the spawn queue capacity used by NewBus.
const DefaultSpawnQueue = 64

// Bus groups the topics published by the core and the spawn request queue it
// consumes.
type Bus struct {
	TargetDestroyed    Topic[TargetDestroyed]
	GenerationComplete Topic[GenerationComplete]

	spawns chan SpawnRequested
}

// NewBus creates a bus whose spawn queue holds up to queueSize pending
// requests. A non-positive size uses DefaultSpawnQueue.
func NewBus(queueSize int) *Bus {
	if queueSize <= 0 {
		queueSize = DefaultSpawnQueue
	}
	return &Bus{spawns: make(chan SpawnRequested, queueSize)}
}

// RequestSpawn queues a spawn request. It never blocks and reports false when
// the queue is full. Safe for concurrent use.
func (b *Bus) RequestSpawn(req SpawnRequested) bool {
	select {
	case b.spawns <- req:
		return true
	default:
		return false
	}
}

// DrainSpawns appends every pending request to dst and returns it.
func (b *Bus) DrainSpawns(dst []SpawnRequested) []SpawnRequested {
	for {
		select {
		case req := <-b.spawns:
			dst = append(dst, req)
		default:
			return dst
		}
	}
}

// Pending returns the number of queued spawn requests.
func (b *Bus) Pending() int {
	return len(b.spawns)
}
