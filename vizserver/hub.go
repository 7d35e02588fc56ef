package vizserver

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const watcherBuffer = 16

// Watcher is one websocket client receiving frames.
type Watcher struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// NewWatcher wraps a websocket connection.
func NewWatcher(conn *websocket.Conn) *Watcher {
	return &Watcher{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, watcherBuffer),
	}
}

// ID returns the watcher identifier.
func (w *Watcher) ID() string { return w.id }

// Hub fans frames out to every watcher. A watcher that falls behind misses
// frames rather than slowing the simulation down.
type Hub struct {
	mu       sync.RWMutex
	watchers map[string]*Watcher
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{watchers: make(map[string]*Watcher)}
}

// Add registers a watcher.
func (h *Hub) Add(w *Watcher) {
	h.mu.Lock()
	h.watchers[w.id] = w
	h.mu.Unlock()
}

// Remove unregisters a watcher and closes its queue.
func (h *Hub) Remove(id string) {
	h.mu.Lock()
	w, ok := h.watchers[id]
	delete(h.watchers, id)
	h.mu.Unlock()
	if ok {
		close(w.send)
	}
}

// Len returns the number of watchers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.watchers)
}

// Broadcast queues msg for every watcher and returns how many were skipped
// because their queue was full.
func (h *Hub) Broadcast(msg []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	dropped := 0
	for _, w := range h.watchers {
		select {
		case w.send <- msg:
		default:
			dropped++
		}
	}
	return dropped
}
