package vizserver

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/orbs/components"
	"github.com/pthm-cable/orbs/events"
	"github.com/pthm-cable/orbs/evolution"
	"github.com/pthm-cable/orbs/neural"
	"github.com/pthm-cable/orbs/telemetry"
)

func newTestService(queue int) (*VizService, *events.Bus) {
	bus := events.NewBus(queue)
	return NewVizService("", bus, nil), bus
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStateBeforeFirstFrame(t *testing.T) {
	viz, _ := newTestService(4)
	rec := do(t, viz.Router(), "GET", "/api/state", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
}

func TestStateServesLatestFrame(t *testing.T) {
	viz, _ := newTestService(4)
	viz.PublishFrame(&telemetry.Frame{Tick: 1})
	viz.PublishFrame(&telemetry.Frame{
		Tick:       7,
		Generation: 2,
		Orbs:       []telemetry.FrameOrb{{ID: 3, X: 10, Y: 20, Radius: 20, Fitness: 4.5}},
	})

	rec := do(t, viz.Router(), "GET", "/api/state", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got telemetry.Frame
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Tick != 7 || got.Generation != 2 || len(got.Orbs) != 1 || got.Orbs[0].Fitness != 4.5 {
		t.Errorf("frame = %+v", got)
	}
}

func TestSpawnHandler(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		want   *events.SpawnRequested
	}{
		{"orb anywhere", `{"kind":"orb"}`, http.StatusAccepted, &events.SpawnRequested{Kind: components.KindOrb}},
		{"target at point", `{"kind":"target","x":100,"y":50}`, http.StatusAccepted,
			&events.SpawnRequested{Kind: components.KindTarget, X: 100, Y: 50, HasPosition: true}},
		{"player", `{"kind":"player"}`, http.StatusBadRequest, nil},
		{"missing kind", `{}`, http.StatusBadRequest, nil},
		{"half position", `{"kind":"target","x":1}`, http.StatusBadRequest, nil},
		{"not json", `spawn please`, http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viz, bus := newTestService(4)
			rec := do(t, viz.Router(), "POST", "/api/spawn", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}

			got := bus.DrainSpawns(nil)
			if tt.want == nil {
				if len(got) != 0 {
					t.Errorf("queued %+v, want nothing", got)
				}
				return
			}
			if len(got) != 1 || got[0] != *tt.want {
				t.Errorf("queued %+v, want %+v", got, *tt.want)
			}
		})
	}
}

func TestSpawnQueueFull(t *testing.T) {
	viz, _ := newTestService(1)
	router := viz.Router()

	if rec := do(t, router, "POST", "/api/spawn", `{"kind":"target"}`); rec.Code != http.StatusAccepted {
		t.Fatalf("first spawn status = %d, want 202", rec.Code)
	}
	if rec := do(t, router, "POST", "/api/spawn", `{"kind":"target"}`); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("second spawn status = %d, want 503", rec.Code)
	}
}

func TestSpawnRequiresPost(t *testing.T) {
	viz, _ := newTestService(4)
	rec := do(t, viz.Router(), "GET", "/api/spawn", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestBrainsHandler(t *testing.T) {
	viz, _ := newTestService(4)
	router := viz.Router()

	rec := do(t, router, "GET", "/api/brains", "")
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("empty hall body = %q, want []", rec.Body.String())
	}

	hall := evolution.NewHallOfFame(4)
	rng := rand.New(rand.NewSource(42))
	topo := neural.Topology{Inputs: 4, Outputs: 2, Hidden: []int{3}}
	hall.Consider(neural.NewBrain(rng, topo, neural.ReLU), 12, 0, 5)
	viz.RecordGeneration(events.GenerationComplete{Generation: 0, Best: 12}, hall)

	// Later changes to the hall are not visible until the next generation
	hall.Consider(neural.NewBrain(rng, topo, neural.ReLU), 20, 1, 6)

	rec = do(t, router, "GET", "/api/brains", "")
	var entries []struct {
		OrbID   uint32        `json:"orb_id"`
		Fitness float32       `json:"fitness"`
		Brain   neural.Record `json:"brain"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 1 || entries[0].OrbID != 5 || entries[0].Fitness != 12 {
		t.Fatalf("entries = %+v", entries)
	}
	if len(entries[0].Brain.Weights) != topo.WeightCount() {
		t.Errorf("brain has %d weights, want %d", len(entries[0].Brain.Weights), topo.WeightCount())
	}
}

func TestGenerationHistoryTrimmed(t *testing.T) {
	state := NewState(2)
	for i := 0; i < 3; i++ {
		if err := state.RecordGeneration(events.GenerationComplete{Generation: i}, nil); err != nil {
			t.Fatal(err)
		}
	}
	got := state.Generations()
	if len(got) != 2 || got[0].Generation != 1 || got[1].Generation != 2 {
		t.Errorf("generations = %+v, want 1 and 2", got)
	}
}

func TestHubDropsForSlowWatcher(t *testing.T) {
	hub := NewHub()
	w := &Watcher{id: "slow", send: make(chan []byte, 1)}
	hub.Add(w)

	if dropped := hub.Broadcast([]byte("a")); dropped != 0 {
		t.Errorf("first broadcast dropped %d, want 0", dropped)
	}
	if dropped := hub.Broadcast([]byte("b")); dropped != 1 {
		t.Errorf("second broadcast dropped %d, want 1", dropped)
	}

	hub.Remove("slow")
	if hub.Len() != 0 {
		t.Errorf("hub len = %d, want 0", hub.Len())
	}
	<-w.send
	if _, ok := <-w.send; ok {
		t.Error("watcher queue should be closed after removal")
	}
}

func TestWebsocketStreamsFrames(t *testing.T) {
	viz, _ := newTestService(4)
	viz.PublishFrame(&telemetry.Frame{Tick: 1})

	srv := httptest.NewServer(viz.Router())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	read := func() telemetry.Frame {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg struct {
			Type string          `json:"type"`
			Data telemetry.Frame `json:"data"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if msg.Type != "frame" {
			t.Fatalf("message type = %q, want frame", msg.Type)
		}
		return msg.Data
	}

	if f := read(); f.Tick != 1 {
		t.Errorf("initial frame tick = %d, want 1", f.Tick)
	}

	deadline := time.Now().Add(2 * time.Second)
	for viz.Hub().Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	viz.PublishFrame(&telemetry.Frame{Tick: 2})
	if f := read(); f.Tick != 2 {
		t.Errorf("streamed frame tick = %d, want 2", f.Tick)
	}
}
