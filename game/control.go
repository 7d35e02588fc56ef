package game

import (
	"context"
	"math"

	"github.com/pthm-cable/orbs/components"
	"github.com/pthm-cable/orbs/events"
	"github.com/pthm-cable/orbs/systems"
	"github.com/pthm-cable/orbs/telemetry"
)

// MaxStepsPerUpdate caps the fast-forward multiplier.
const MaxStepsPerUpdate = 10

// Update runs StepsPerUpdate ticks unless paused.
func (g *Game) Update() {
	if g.paused {
		return
	}
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.Step()
	}
}

// RunHeadless steps until one of the limits is reached. Zero disables a
// limit; with both zero it never returns.
func (g *Game) RunHeadless(maxTicks int32, maxGenerations int) {
	_ = g.RunHeadlessContext(context.Background(), maxTicks, maxGenerations)
}

// RunHeadlessContext is RunHeadless with cancellation. It checks ctx once
// per tick and returns ctx.Err() when cancelled.
func (g *Game) RunHeadlessContext(ctx context.Context, maxTicks int32, maxGenerations int) error {
	for {
		if maxTicks > 0 && g.tick >= maxTicks {
			return nil
		}
		if maxGenerations > 0 && g.generation >= maxGenerations {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		g.Step()
	}
}

// SetPaused pauses or resumes the simulation.
func (g *Game) SetPaused(paused bool) { g.paused = paused }

// TogglePause flips the paused state and returns the new value.
func (g *Game) TogglePause() bool {
	g.paused = !g.paused
	return g.paused
}

// StepsPerUpdate returns the fast-forward multiplier.
func (g *Game) StepsPerUpdate() int { return g.stepsPerUpdate }

// AdjustSteps changes the multiplier by delta within [1, MaxStepsPerUpdate].
func (g *Game) AdjustSteps(delta int) {
	g.stepsPerUpdate = min(max(g.stepsPerUpdate+delta, 1), MaxStepsPerUpdate)
}

// SetPlayerSteer sets the player's steering for the next ticks. The vector
// is clamped to unit length; non-finite components are dropped.
func (g *Game) SetPlayerSteer(x, y float32) {
	if !finite(x) || !finite(y) {
		x, y = 0, 0
	}
	if l := float32(math.Hypot(float64(x), float64(y))); l > 1 {
		x, y = x/l, y/l
	}
	g.playerSteer = components.Steering{X: x, Y: y}
}

// HasPlayer reports whether the player orb exists.
func (g *Game) HasPlayer() bool { return g.hasPlayer }

// RequestSpawn queues a spawn for the next tick. It reports false when the
// queue is full.
func (g *Game) RequestSpawn(kind components.Kind, x, y float32, hasPosition bool) bool {
	return g.bus.RequestSpawn(events.SpawnRequested{Kind: kind, X: x, Y: y, HasPosition: hasPosition})
}

// VisitRays calls fn for every ray cast this tick, starting at its orb.
func (g *Game) VisitRays(fn func(fromX, fromY float32, hit components.RayHit)) {
	for _, e := range g.orbs {
		pos, _, _, _, _, _, perception := g.orbMapper.Get(e)
		for _, hit := range perception.Rays {
			fn(pos.X, pos.Y, hit)
		}
	}
}

// VisitIndex walks the quad-tree nodes as of the last rebuild.
func (g *Game) VisitIndex(fn func(bounds systems.Rect, level, entries int)) {
	g.index.VisitNodes(fn)
}

// ClusteredTargets reports whether targets spawn from a noise density.
func (g *Game) ClusteredTargets() bool { return g.targetField.Clustered() }

// TargetDensity rasterizes the target spawn density over the arena.
func (g *Game) TargetDensity(cols, rows int, dst []float32) []float32 {
	return g.targetField.Rasterize(cols, rows, dst)
}

// Arena returns the bounds orbs move in.
func (g *Game) Arena() systems.Rect { return g.arena }

// VisionRange returns the configured perception range.
func (g *Game) VisionRange() float32 { return float32(g.cfg.Perception.VisionRange) }

// RecordFrame marks a rendered frame for FPS reporting.
func (g *Game) RecordFrame() { g.perfCollector.RecordFrame() }

// PerfStats returns step timings over the collector window.
func (g *Game) PerfStats() telemetry.PerfStats { return g.perfCollector.Stats() }

func finite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// OrbDetail is the inspectable state of one orb.
type OrbDetail struct {
	ID             uint32
	X, Y           float32
	VelX, VelY     float32
	SteerX, SteerY float32
	Fitness        float32
	Consumed       int32
	WallTicks      int32
	Contacts       int32
	AtWall         bool
}

// OrbAt returns the orb whose body contains the point.
func (g *Game) OrbAt(x, y float32) (uint32, bool) {
	for _, e := range g.orbs {
		pos, _, body, _, _, orb, _ := g.orbMapper.Get(e)
		dx, dy := pos.X-x, pos.Y-y
		if dx*dx+dy*dy <= body.Radius*body.Radius {
			return orb.ID, true
		}
	}
	return 0, false
}

// OrbDetail looks up an orb by ID.
func (g *Game) OrbDetail(id uint32) (OrbDetail, bool) {
	for _, e := range g.orbs {
		pos, vel, _, _, steer, orb, _ := g.orbMapper.Get(e)
		if orb.ID != id {
			continue
		}
		return OrbDetail{
			ID:        orb.ID,
			X:         pos.X,
			Y:         pos.Y,
			VelX:      vel.X,
			VelY:      vel.Y,
			SteerX:    steer.X,
			SteerY:    steer.Y,
			Fitness:   orb.Fitness,
			Consumed:  orb.Consumed,
			WallTicks: orb.WallTicks,
			Contacts:  orb.Contacts,
			AtWall:    orb.WallContact,
		}, true
	}
	return OrbDetail{}, false
}
