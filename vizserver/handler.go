package vizserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/orbs/components"
	"github.com/pthm-cable/orbs/events"
)

const writeWait = 5 * time.Second

// Spawner accepts spawn requests from outside the simulation goroutine.
type Spawner interface {
	RequestSpawn(req events.SpawnRequested) bool
}

type spawnRequest struct {
	Kind string   `json:"kind"`
	X    *float32 `json:"x,omitempty"`
	Y    *float32 `json:"y,omitempty"`
}

type message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("vizserver", "event", "write_failed", "error", err)
	}
}

func writeRaw(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// StateHandler serves the latest frame.
func StateHandler(state *State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := state.FrameJSON()
		if data == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeRaw(w, data)
	}
}

// BrainsHandler serves the hall of fame.
func BrainsHandler(state *State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := state.HallJSON()
		if data == nil {
			writeRaw(w, []byte("[]"))
			return
		}
		writeRaw(w, data)
	}
}

// GenerationsHandler serves the recent generation summaries.
func GenerationsHandler(state *State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, state.Generations())
	}
}

// SpawnHandler queues a target or orb spawn. Position is optional; both
// coordinates must be given to place the entity.
func SpawnHandler(spawner Spawner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body spawnRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		req := events.SpawnRequested{}
		switch body.Kind {
		case components.KindOrb.String():
			req.Kind = components.KindOrb
		case components.KindTarget.String():
			req.Kind = components.KindTarget
		default:
			writeError(w, http.StatusBadRequest, "kind must be orb or target")
			return
		}
		if (body.X == nil) != (body.Y == nil) {
			writeError(w, http.StatusBadRequest, "x and y must be given together")
			return
		}
		if body.X != nil {
			req.X, req.Y, req.HasPosition = *body.X, *body.Y, true
		}

		if !spawner.RequestSpawn(req) {
			writeError(w, http.StatusServiceUnavailable, "spawn queue full")
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebsocketHandler streams frames to the client. The latest frame is sent
// on connect.
func WebsocketHandler(hub *Hub, state *State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Debug("vizserver", "event", "upgrade_failed", "error", err)
			return
		}

		watcher := NewWatcher(conn)
		hub.Add(watcher)
		slog.Info("vizserver", "event", "client_connected", "watcher", watcher.ID(), "remote", r.RemoteAddr, "watchers", hub.Len())

		if data := state.FrameJSON(); data != nil {
			select {
			case watcher.send <- frameMessage(data):
			default:
			}
		}

		// Reads notice the client closing the socket
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		defer func() {
			hub.Remove(watcher.ID())
			conn.Close()
			slog.Info("vizserver", "event", "client_disconnected", "watcher", watcher.ID(), "watchers", hub.Len())
		}()

		for {
			select {
			case <-closed:
				return
			case msg, ok := <-watcher.send:
				if !ok {
					return
				}
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			}
		}
	}
}

func frameMessage(frame []byte) []byte {
	data, _ := json.Marshal(message{Type: "frame", Data: frame})
	return data
}
