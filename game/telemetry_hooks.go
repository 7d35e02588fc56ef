package game

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/orbs/components"
	"github.com/pthm-cable/orbs/neural"
	"github.com/pthm-cable/orbs/telemetry"
)

// recordGeneration logs and writes the stats of a finished generation and
// handles milestones.
func (g *Game) recordGeneration(stats telemetry.GenerationStats) {
	if g.logStats {
		stats.LogStats()
	}

	if err := g.outputManager.WriteGeneration(stats); err != nil {
		slog.Error("failed to write generation stats", "error", err)
	}
	if err := g.outputManager.WriteHallOfFame(g.hall); err != nil {
		slog.Error("failed to write hall of fame", "error", err)
	}

	for _, m := range g.milestoneDetector.Check(stats, g.tick) {
		if g.logStats {
			m.LogMilestone()
		}
		if err := g.outputManager.WriteMilestone(m); err != nil {
			slog.Error("failed to write milestone", "error", err)
		}
		if g.snapshotDir != "" {
			g.saveSnapshot(&m)
		}
	}
}

// flushPerf writes perf stats once per collector window.
func (g *Game) flushPerf() {
	window := int32(g.cfg.Telemetry.PerfCollectorWindow)
	if window <= 0 || g.tick%window != 0 {
		return
	}
	stats := g.perfCollector.Stats()
	if g.logStats {
		stats.LogStats()
	}
	if err := g.outputManager.WritePerf(stats, g.tick, g.generation); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
}

// saveSnapshot writes the current state to the snapshot directory.
func (g *Game) saveSnapshot(m *telemetry.Milestone) {
	snap := g.createSnapshot(m)
	path, err := telemetry.SaveSnapshot(snap, g.snapshotDir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "tick", g.tick, "generation", g.generation)
}

// createSnapshot captures orbs with their brains, live targets and the player.
func (g *Game) createSnapshot(m *telemetry.Milestone) *telemetry.Snapshot {
	snap := &telemetry.Snapshot{
		Version:        telemetry.SnapshotVersion,
		RNGSeed:        g.seed,
		ArenaWidth:     g.arena.W,
		ArenaHeight:    g.arena.H,
		Tick:           g.tick,
		Generation:     g.generation,
		GenerationTick: g.genTick,
		GenerationLen:  g.genLen,
		HighScore:      g.highScore,
		Milestone:      m,
	}

	for _, e := range g.orbs {
		pos, vel, body, _, _, orb, _ := g.orbMapper.Get(e)
		state := telemetry.OrbState{
			ID:        orb.ID,
			X:         pos.X,
			Y:         pos.Y,
			VelX:      vel.X,
			VelY:      vel.Y,
			Radius:    body.Radius,
			Fitness:   orb.Fitness,
			Consumed:  int(orb.Consumed),
			WallTicks: int(orb.WallTicks),
			Contacts:  int(orb.Contacts),
		}
		if b := g.brains[orb.ID]; b != nil {
			state.Brain = b.Record()
		}
		snap.Orbs = append(snap.Orbs, state)
	}

	snap.Targets = g.targetStates()
	snap.Player = g.playerState()
	return snap
}

func (g *Game) targetStates() []telemetry.TargetState {
	var out []telemetry.TargetState
	query := g.targetFilter.Query()
	for query.Next() {
		pos, body, target := query.Get()
		if target.Destroyed {
			continue
		}
		out = append(out, telemetry.TargetState{ID: target.ID, X: pos.X, Y: pos.Y, Radius: body.Radius})
	}
	return out
}

func (g *Game) playerState() *telemetry.PlayerState {
	if !g.hasPlayer {
		return nil
	}
	pos, vel, body, _, _, player := g.playerMapper.Get(g.player)
	return &telemetry.PlayerState{ID: player.ID, X: pos.X, Y: pos.Y, VelX: vel.X, VelY: vel.Y, Radius: body.Radius}
}

// restoreSnapshot rebuilds the world from a snapshot. Brains use the
// configured activation.
func (g *Game) restoreSnapshot(snap *telemetry.Snapshot) error {
	if snap.ArenaWidth != g.arena.W || snap.ArenaHeight != g.arena.H {
		slog.Warn("snapshot arena differs from config",
			"snapshot_w", snap.ArenaWidth, "snapshot_h", snap.ArenaHeight,
			"arena_w", g.arena.W, "arena_h", g.arena.H,
		)
	}

	for i, o := range snap.Orbs {
		brain, err := neural.FromRecord(o.Brain, g.activation)
		if err != nil {
			return fmt.Errorf("orb %d: %w", i, err)
		}
		if !brain.Topology.Equal(g.topology) {
			return fmt.Errorf("orb %d: %w: brain topology differs from config", i, neural.ErrShapeMismatch)
		}
		e := g.spawnOrb(o.X, o.Y, brain)
		_, vel, _, _, _, orb, _ := g.orbMapper.Get(e)
		*vel = components.Velocity{X: o.VelX, Y: o.VelY}
		orb.Fitness = o.Fitness
		orb.Consumed = int32(o.Consumed)
		orb.WallTicks = int32(o.WallTicks)
		orb.Contacts = int32(o.Contacts)
	}
	for _, t := range snap.Targets {
		g.spawnTarget(t.X, t.Y)
	}
	if snap.Player != nil && g.cfg.Player.Enabled && !g.headless {
		g.spawnPlayer(snap.Player.X, snap.Player.Y)
	}

	g.tick = snap.Tick
	g.generation = snap.Generation
	g.genTick = snap.GenerationTick
	g.genLen = snap.GenerationLen
	if g.genLen <= 0 {
		g.genLen = int32(g.cfg.Generation.Ticks)
	}
	g.highScore = snap.HighScore
	g.collector.Restart(g.generation, g.tick-g.genTick)

	slog.Info("snapshot restored",
		"tick", g.tick,
		"generation", g.generation,
		"orbs", len(snap.Orbs),
		"targets", len(snap.Targets),
	)
	return nil
}

// Frame captures a read-only view of the arena.
func (g *Game) Frame() *telemetry.Frame {
	f := &telemetry.Frame{
		Tick:           g.tick,
		Generation:     g.generation,
		GenerationTick: g.genTick,
		GenerationLen:  g.genLen,
		HighScore:      g.highScore,
		Paused:         g.paused,
		Orbs:           make([]telemetry.FrameOrb, 0, len(g.orbs)),
		Targets:        g.targetStates(),
		Player:         g.playerState(),
	}
	for _, e := range g.orbs {
		pos, _, body, _, _, orb, _ := g.orbMapper.Get(e)
		f.Orbs = append(f.Orbs, telemetry.FrameOrb{ID: orb.ID, X: pos.X, Y: pos.Y, Radius: body.Radius, Fitness: orb.Fitness})
	}
	return f
}

func (g *Game) publishFrame() {
	every := int32(g.cfg.Viz.FrameEvery)
	if g.onFrame == nil || every <= 0 || g.tick%every != 0 {
		return
	}
	g.onFrame(g.Frame())
}
