package game

import (
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/orbs/components"
	"github.com/pthm-cable/orbs/events"
	"github.com/pthm-cable/orbs/neural"
)

// spawnInitialPopulation creates the starting orbs, seeding their brains from
// loaded when possible.
func (g *Game) spawnInitialPopulation(loaded []*neural.Brain) {
	count := g.cfg.Orb.Count
	brains := g.engine.Seed(loaded, count, g.topology, g.activation)
	for _, b := range brains {
		x, y := g.orbField.Sample(g.rng)
		g.spawnOrb(x, y, b)
	}
}

// spawnOrb creates an orb owning brain.
func (g *Game) spawnOrb(x, y float32, brain *neural.Brain) ecs.Entity {
	id := g.nextID
	g.nextID++

	pos := components.Position{X: x, Y: y}
	vel := components.Velocity{}
	body := components.Body{Radius: float32(g.cfg.Orb.Radius)}
	mob := components.Mobility{Speed: float32(g.cfg.Orb.Speed)}
	steer := components.Steering{}
	orb := components.Orb{ID: id}
	perc := components.Perception{Inputs: make([]float32, g.perceiver.InputSize())}

	entity := g.orbMapper.NewEntity(&pos, &vel, &body, &mob, &steer, &orb, &perc)
	g.orbs = append(g.orbs, entity)
	g.brains[id] = brain
	return entity
}

// spawnTargets places n targets from the target spawn field.
func (g *Game) spawnTargets(n int) {
	for i := 0; i < n; i++ {
		x, y := g.targetField.Sample(g.rng)
		g.spawnTarget(x, y)
	}
}

func (g *Game) spawnTarget(x, y float32) ecs.Entity {
	id := g.nextID
	g.nextID++

	pos := components.Position{X: x, Y: y}
	body := components.Body{Radius: float32(g.cfg.Target.Radius)}
	target := components.Target{ID: id}
	return g.targetMapper.NewEntity(&pos, &body, &target)
}

func (g *Game) spawnPlayer(x, y float32) {
	id := g.nextID
	g.nextID++

	pos := components.Position{X: x, Y: y}
	vel := components.Velocity{}
	body := components.Body{Radius: float32(g.cfg.Player.Radius)}
	mob := components.Mobility{Speed: float32(g.cfg.Player.Speed)}
	steer := components.Steering{}
	player := components.Player{ID: id}

	g.player = g.playerMapper.NewEntity(&pos, &vel, &body, &mob, &steer, &player)
	g.hasPlayer = true
}

// resetOrb prepares an orb for a new generation. The entity, ID and position
// are kept; brain is installed and everything earned is cleared.
func (g *Game) resetOrb(e ecs.Entity, brain *neural.Brain) {
	_, vel, _, _, steer, orb, perc := g.orbMapper.Get(e)
	*vel = components.Velocity{}
	*steer = components.Steering{}
	orb.Reset()
	clear(perc.Inputs)
	perc.Rays = perc.Rays[:0]
	g.brains[orb.ID] = brain
}

// respawnTargets removes every remaining target and places a fresh set.
func (g *Game) respawnTargets() {
	// Collect first: the world cannot change while a query is open
	var toRemove []ecs.Entity
	query := g.targetFilter.Query()
	for query.Next() {
		toRemove = append(toRemove, query.Entity())
	}
	for _, e := range toRemove {
		g.world.RemoveEntity(e)
	}
	g.spawnTargets(g.cfg.Target.Count)
}

// removeDestroyed deletes targets consumed this tick and announces them.
func (g *Game) removeDestroyed() {
	for _, d := range g.destroyed {
		if g.world.Alive(d.entity) {
			g.world.RemoveEntity(d.entity)
		}
		g.bus.TargetDestroyed.Publish(events.TargetDestroyed{
			Tick:     g.tick,
			TargetID: d.targetID,
			OrbID:    d.orbID,
		})
	}
	g.destroyed = g.destroyed[:0]
}

// applySpawnRequests adds the entities queued on the bus since the last tick.
// New orbs get a fresh brain and join the next evolution step.
func (g *Game) applySpawnRequests() {
	g.spawnBuf = g.bus.DrainSpawns(g.spawnBuf[:0])
	for _, req := range g.spawnBuf {
		switch req.Kind {
		case components.KindTarget:
			x, y := g.spawnPosition(req, g.targetField.Sample)
			g.spawnTarget(x, y)
		case components.KindOrb:
			x, y := g.spawnPosition(req, g.orbField.Sample)
			g.spawnOrb(x, y, g.engine.NewBrain(g.topology, g.activation))
		default:
			slog.Debug("ignoring spawn request", "kind", req.Kind.String())
			continue
		}
		g.collector.RecordSpawn()
	}
}

func (g *Game) spawnPosition(req events.SpawnRequested, sample func(*rand.Rand) (float32, float32)) (float32, float32) {
	if req.HasPosition && g.arena.Contains(req.X, req.Y) {
		return req.X, req.Y
	}
	return sample(g.rng)
}
