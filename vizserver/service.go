// Package vizserver exposes a running simulation over HTTP: the latest
// frame, the hall of fame, spawn requests and a websocket frame stream.
package vizserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/pthm-cable/orbs/events"
	"github.com/pthm-cable/orbs/telemetry"
)

// VizService serves the simulation state.
type VizService struct {
	addr    string
	state   *State
	hub     *Hub
	spawner Spawner
	logOut  io.Writer
}

// NewVizService creates a service. Access logs go to logOut in combined log
// format; nil disables them.
func NewVizService(addr string, spawner Spawner, logOut io.Writer) *VizService {
	return &VizService{
		addr:    addr,
		state:   NewState(DefaultHistorySize),
		hub:     NewHub(),
		spawner: spawner,
		logOut:  logOut,
	}
}

// State returns the shared state.
func (viz *VizService) State() *State { return viz.state }

// Hub returns the watcher hub.
func (viz *VizService) Hub() *Hub { return viz.hub }

// PublishFrame stores the frame and pushes it to websocket watchers.
// Call it from the simulation goroutine.
func (viz *VizService) PublishFrame(f *telemetry.Frame) {
	data, err := viz.state.SetFrame(f)
	if err != nil {
		slog.Debug("vizserver", "event", "encode_failed", "error", err)
		return
	}
	if viz.hub.Len() == 0 {
		return
	}
	if dropped := viz.hub.Broadcast(frameMessage(data)); dropped > 0 {
		slog.Debug("vizserver", "event", "frames_dropped", "watchers", dropped)
	}
}

// RecordGeneration stores a generation summary and the current hall of fame.
func (viz *VizService) RecordGeneration(e events.GenerationComplete, hall json.Marshaler) {
	if err := viz.state.RecordGeneration(e, hall); err != nil {
		slog.Error("vizserver", "event", "encode_hall_failed", "error", err)
	}
}

func (viz *VizService) wrap(h http.HandlerFunc) http.Handler {
	if viz.logOut == nil {
		return h
	}
	return handlers.CombinedLoggingHandler(viz.logOut, h)
}

// Router builds the HTTP routes.
func (viz *VizService) Router() http.Handler {
	router := mux.NewRouter()
	router.Handle("/api/state", viz.wrap(StateHandler(viz.state))).Methods("GET")
	router.Handle("/api/brains", viz.wrap(BrainsHandler(viz.state))).Methods("GET")
	router.Handle("/api/generations", viz.wrap(GenerationsHandler(viz.state))).Methods("GET")
	router.Handle("/api/spawn", viz.wrap(SpawnHandler(viz.spawner))).Methods("POST")
	router.Handle("/ws", viz.wrap(WebsocketHandler(viz.hub, viz.state))).Methods("GET")
	return router
}

// ListenAndServe serves until ctx is cancelled.
func (viz *VizService) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              viz.addr,
		Handler:           viz.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("vizserver", "event", "listening", "addr", viz.addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
