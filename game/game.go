// Package game runs the orbs simulation: the ECS world, the per-tick
// pipeline and the generation boundary.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/orbs/components"
	"github.com/pthm-cable/orbs/config"
	"github.com/pthm-cable/orbs/events"
	"github.com/pthm-cable/orbs/evolution"
	"github.com/pthm-cable/orbs/neural"
	"github.com/pthm-cable/orbs/storage"
	"github.com/pthm-cable/orbs/systems"
	"github.com/pthm-cable/orbs/telemetry"
)

// Options configures a new game.
type Options struct {
	Config         *config.Config // nil uses config.Cfg()
	Seed           int64
	RNG            *rand.Rand // nil creates one from Seed
	Headless       bool
	StepsPerUpdate int
	LogStats       bool
	OutputDir      string
	SnapshotDir    string
	LoadSnapshot   string
	Store          storage.Store // nil disables persistence
	Bus            *events.Bus   // nil creates a private bus

	// OnFrame receives a read-only frame every viz.frame_every ticks.
	OnFrame func(*telemetry.Frame)
}

// Game holds the complete game state.
type Game struct {
	cfg  *config.Config
	seed int64
	rng  *rand.Rand

	world *ecs.World

	// Movable + Perceiving
	orbMapper *ecs.Map7[
		components.Position,
		components.Velocity,
		components.Body,
		components.Mobility,
		components.Steering,
		components.Orb,
		components.Perception,
	]
	// Consumable
	targetMapper *ecs.Map3[components.Position, components.Body, components.Target]
	targetFilter *ecs.Filter3[components.Position, components.Body, components.Target]
	// Movable + Controllable
	playerMapper *ecs.Map6[
		components.Position,
		components.Velocity,
		components.Body,
		components.Mobility,
		components.Steering,
		components.Player,
	]

	orbMap    *ecs.Map1[components.Orb]
	targetMap *ecs.Map1[components.Target]
	playerMap *ecs.Map1[components.Player]

	// Population in spawn order. Brains are owned here, keyed by orb ID.
	orbs      []ecs.Entity
	brains    map[uint32]*neural.Brain
	player    ecs.Entity
	hasPlayer bool

	topology   neural.Topology
	activation neural.Activation
	engine     *evolution.Engine
	hall       *evolution.HallOfFame

	// Spatial index and per-tick scratch
	arena       systems.Rect
	index       *systems.QuadTree
	maxRadius   float32
	perceiver   systems.Perceiver
	resolver    *systems.CollisionResolver
	moveParams  systems.MoveParams
	orbField    *systems.SpawnField
	targetField *systems.SpawnField
	nearby      []systems.Entry
	agents      []systems.Entry
	destroyed   []destroyedTarget
	spawnBuf    []events.SpawnRequested

	bus   *events.Bus
	store storage.Store

	// Telemetry
	collector         *telemetry.Collector
	perfCollector     *telemetry.PerfCollector
	milestoneDetector *telemetry.MilestoneDetector
	outputManager     *telemetry.OutputManager
	snapshotDir       string
	logStats          bool
	onFrame           func(*telemetry.Frame)

	// State
	tick           int32
	generation     int
	genTick        int32
	genLen         int32
	highScore      float32
	nextID         uint32
	paused         bool
	stepsPerUpdate int
	headless       bool
	playerSteer    components.Steering
}

type destroyedTarget struct {
	entity   ecs.Entity
	targetID uint32
	orbID    uint32
}

// NewGame creates a game, seeds the population from the store when one is
// configured and spawns targets.
func NewGame(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}
	rng := opts.RNG
	if rng == nil {
		rng = rand.New(rand.NewSource(opts.Seed))
	}
	bus := opts.Bus
	if bus == nil {
		bus = events.NewBus(0)
	}

	act, err := neural.ParseActivation(cfg.Brain.Activation)
	if err != nil {
		return nil, err
	}
	evoCfg, err := evolution.FromConfig(cfg.Evolution)
	if err != nil {
		return nil, err
	}

	world := ecs.NewWorld()
	g := &Game{
		cfg:    cfg,
		seed:   opts.Seed,
		rng:    rng,
		world:  world,
		brains: make(map[uint32]*neural.Brain),
		orbMapper: ecs.NewMap7[
			components.Position,
			components.Velocity,
			components.Body,
			components.Mobility,
			components.Steering,
			components.Orb,
			components.Perception,
		](world),
		targetMapper: ecs.NewMap3[components.Position, components.Body, components.Target](world),
		targetFilter: ecs.NewFilter3[components.Position, components.Body, components.Target](world),
		playerMapper: ecs.NewMap6[
			components.Position,
			components.Velocity,
			components.Body,
			components.Mobility,
			components.Steering,
			components.Player,
		](world),
		orbMap:    ecs.NewMap1[components.Orb](world),
		targetMap: ecs.NewMap1[components.Target](world),
		playerMap: ecs.NewMap1[components.Player](world),

		topology: neural.Topology{
			Inputs:  cfg.Derived.NumInputs,
			Outputs: cfg.Brain.Outputs,
			Hidden:  cfg.Brain.HiddenLayers,
		},
		activation: act,
		engine:     evolution.NewEngine(evoCfg, rng),
		hall:       evolution.NewHallOfFame(cfg.Evolution.HallOfFameSize),

		arena:    systems.Rect{W: cfg.Derived.ArenaW32, H: cfg.Derived.ArenaH32},
		resolver: systems.NewCollisionResolver(),
		moveParams: systems.MoveParams{
			Inertia:     float32(cfg.Physics.Inertia),
			Restitution: float32(cfg.Physics.Restitution),
		},

		bus:   bus,
		store: opts.Store,

		collector:     telemetry.NewCollector(),
		perfCollector: telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		milestoneDetector: telemetry.NewMilestoneDetector(telemetry.MilestoneConfig{
			HistorySize:          cfg.Milestones.HistorySize,
			BreakthroughMultiple: cfg.Milestones.BreakthroughMultiple,
			StagnationGens:       cfg.Milestones.StagnationGens,
		}),
		snapshotDir: opts.SnapshotDir,
		logStats:    opts.LogStats,
		onFrame:     opts.OnFrame,

		genLen:         int32(cfg.Generation.Ticks),
		nextID:         1,
		stepsPerUpdate: max(opts.StepsPerUpdate, 1),
		headless:       opts.Headless,
	}

	g.index = systems.NewQuadTree(g.arena, cfg.Spatial.Capacity, cfg.Spatial.MaxDepth)
	g.perceiver = newPerceiver(cfg)
	g.orbField = systems.NewSpawnField(rng.Int63(), g.arena, float32(cfg.Orb.Radius), false, 0, 1)
	g.targetField = systems.NewSpawnField(rng.Int63(), g.arena, float32(cfg.Target.Radius),
		cfg.Target.Distribution == config.DistributionClustered, cfg.Target.NoiseScale, cfg.Target.Contrast)

	if g.outputManager, err = telemetry.NewOutputManager(opts.OutputDir); err != nil {
		return nil, err
	}
	if err := g.outputManager.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}
	if err := g.outputManager.WriteManifest(opts.Seed, opts.Headless); err != nil {
		slog.Error("failed to write manifest", "error", err)
	}

	if opts.LoadSnapshot != "" {
		snap, err := telemetry.LoadSnapshot(opts.LoadSnapshot)
		if err != nil {
			return nil, err
		}
		if err := g.restoreSnapshot(snap); err != nil {
			return nil, fmt.Errorf("restoring %s: %w", opts.LoadSnapshot, err)
		}
	} else {
		g.spawnInitialPopulation(g.loadBrains())
		g.spawnTargets(cfg.Target.Count)
	}

	if cfg.Player.Enabled && !opts.Headless && !g.hasPlayer {
		g.spawnPlayer(g.arena.W/2, g.arena.H/2)
	}
	return g, nil
}

func newPerceiver(cfg *config.Config) systems.Perceiver {
	if cfg.Perception.Mode == config.PerceptionNearest {
		return &systems.NearestPerception{
			Targets:     cfg.Perception.NearestTargets,
			VisionRange: float32(cfg.Perception.VisionRange),
			Width:       cfg.Derived.ArenaW32,
			Height:      cfg.Derived.ArenaH32,
			Sentinel:    float32(cfg.Perception.Sentinel),
		}
	}
	return systems.NewRaycastPerception(cfg.Perception.Rays, float32(cfg.Perception.VisionRange))
}

// loadBrains reads persisted brains. Any failure starts from scratch.
func (g *Game) loadBrains() []*neural.Brain {
	if g.store == nil {
		return nil
	}
	brains, err := g.store.LoadBrains(context.Background())
	switch {
	case errors.Is(err, storage.ErrMissingPersistedState):
		slog.Info("persistence", "event", "load", "brains", 0, "reason", "no prior generation")
		return nil
	case err != nil:
		slog.Warn("persistence", "event", "load_failed", "error", err)
		return nil
	}
	slog.Info("persistence", "event", "load", "brains", len(brains))
	return brains
}

// saveBrains persists the hall of fame. An empty hall is not written.
func (g *Game) saveBrains() {
	if g.store == nil || g.hall.Len() == 0 {
		return
	}
	brains := g.hall.Brains()
	if err := g.store.SaveBrains(context.Background(), brains); err != nil {
		slog.Error("persistence", "event", "save_failed", "generation", g.generation, "error", err)
		return
	}
	slog.Debug("persistence", "event", "save", "generation", g.generation, "brains", len(brains))
}

// Bus returns the event bus shared with collaborators.
func (g *Game) Bus() *events.Bus { return g.bus }

// Tick returns the number of completed ticks.
func (g *Game) Tick() int32 { return g.tick }

// Generation returns the index of the running generation.
func (g *Game) Generation() int { return g.generation }

// GenerationLength returns the tick count of the running generation.
func (g *Game) GenerationLength() int32 { return g.genLen }

// HighScore returns the best fitness seen at any generation end.
func (g *Game) HighScore() float32 { return g.highScore }

// HallOfFame returns the all-time best brains.
func (g *Game) HallOfFame() *evolution.HallOfFame { return g.hall }

// Population returns the number of evolving orbs.
func (g *Game) Population() int { return len(g.orbs) }

// TargetCount returns the number of live targets.
func (g *Game) TargetCount() int {
	n := 0
	query := g.targetFilter.Query()
	for query.Next() {
		_, _, t := query.Get()
		if !t.Destroyed {
			n++
		}
	}
	return n
}

// Paused reports whether the simulation is paused.
func (g *Game) Paused() bool { return g.paused }

// Unload saves the hall of fame and closes output files.
func (g *Game) Unload() {
	g.saveBrains()
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
}
