package game

import (
	"log/slog"

	"github.com/pthm-cable/orbs/components"
	"github.com/pthm-cable/orbs/systems"
	"github.com/pthm-cable/orbs/telemetry"
)

// Step advances the simulation by one tick and, when the generation's ticks
// are used up, evolves the population.
func (g *Game) Step() {
	g.perfCollector.StartTick()

	g.perfCollector.StartPhase(telemetry.PhaseSpawn)
	g.applySpawnRequests()

	// Snapshot for perception: every orb sees the same start-of-tick state
	g.perfCollector.StartPhase(telemetry.PhaseIndex)
	g.rebuildIndex()

	g.perfCollector.StartPhase(telemetry.PhasePerceive)
	g.perceiveAll()

	g.perfCollector.StartPhase(telemetry.PhaseThink)
	g.thinkAll()

	g.perfCollector.StartPhase(telemetry.PhaseMove)
	g.moveAll()

	g.perfCollector.StartPhase(telemetry.PhaseCollide)
	g.rebuildIndex()
	g.resolveCollisions()

	g.perfCollector.StartPhase(telemetry.PhaseCleanup)
	g.removeDestroyed()

	g.tick++
	g.genTick++
	if g.genTick >= g.genLen {
		g.perfCollector.StartPhase(telemetry.PhaseEvolve)
		g.endGeneration()
	}

	g.perfCollector.EndTick()
	g.flushPerf()
	g.publishFrame()
}

// rebuildIndex inserts every orb, the player and every live target into an
// empty quad-tree.
func (g *Game) rebuildIndex() {
	g.index.Clear()
	g.maxRadius = 0

	for _, e := range g.orbs {
		pos, _, body, _, _, orb, _ := g.orbMapper.Get(e)
		g.insert(systems.Entry{ID: orb.ID, Entity: e, Kind: components.KindOrb, X: pos.X, Y: pos.Y, Radius: body.Radius})
	}

	if g.hasPlayer {
		pos, _, body, _, _, player := g.playerMapper.Get(g.player)
		g.insert(systems.Entry{ID: player.ID, Entity: g.player, Kind: components.KindPlayer, X: pos.X, Y: pos.Y, Radius: body.Radius})
	}

	query := g.targetFilter.Query()
	for query.Next() {
		pos, body, target := query.Get()
		if target.Destroyed {
			continue
		}
		g.insert(systems.Entry{ID: target.ID, Entity: query.Entity(), Kind: components.KindTarget, X: pos.X, Y: pos.Y, Radius: body.Radius})
	}
}

func (g *Game) insert(e systems.Entry) {
	g.index.Insert(e)
	if e.Radius > g.maxRadius {
		g.maxRadius = e.Radius
	}
}

// perceiveAll fills every orb's sensory vector from the current index.
func (g *Game) perceiveAll() {
	radius := g.perceiver.QueryRadius() + g.maxRadius
	for _, e := range g.orbs {
		pos, _, body, _, _, orb, perc := g.orbMapper.Get(e)
		self := systems.Observer{ID: orb.ID, X: pos.X, Y: pos.Y, Radius: body.Radius, WallContact: orb.WallContact}
		g.nearby = g.index.RetrieveRadius(g.nearby[:0], pos.X, pos.Y, radius, orb.ID)
		g.perceiver.Perceive(self, g.nearby, perc)
	}
}

// thinkAll runs every brain and stores its action as steering.
// A failed prediction steers nowhere for this tick.
func (g *Game) thinkAll() {
	for _, e := range g.orbs {
		_, _, _, _, steer, orb, perc := g.orbMapper.Get(e)
		brain := g.brains[orb.ID]
		if brain == nil {
			*steer = components.Steering{}
			continue
		}
		out, err := brain.Predict(perc.Inputs)
		if err != nil {
			slog.Debug("predict failed", "orb", orb.ID, "error", err)
			*steer = components.Steering{}
			continue
		}
		steer.X, steer.Y = out[0], out[1]
	}
}

// moveAll integrates every orb and the player, applying the wall penalty and
// movement bonus to orbs.
func (g *Game) moveAll() {
	wallPenalty := float32(g.cfg.Fitness.WallPenalty)
	moveBonus := float32(g.cfg.Fitness.MovementBonus)

	for _, e := range g.orbs {
		pos, vel, body, mob, steer, orb, _ := g.orbMapper.Get(e)
		res := systems.Move(systems.Movable{Pos: pos, Vel: vel, Body: body, Mobility: mob, Steer: steer}, g.arena, g.moveParams)

		orb.WallContact = res.WallContact
		if res.WallContact {
			orb.Fitness -= wallPenalty
			orb.WallTicks++
			g.collector.RecordWallTick()
		}
		if res.Moved {
			orb.Fitness += moveBonus
		}
	}

	if g.hasPlayer {
		pos, vel, body, mob, steer, _ := g.playerMapper.Get(g.player)
		*steer = g.playerSteer
		systems.Move(systems.Movable{Pos: pos, Vel: vel, Body: body, Mobility: mob, Steer: steer}, g.arena, g.moveParams)
	}
}

// resolveCollisions finds consumptions and contacts at the post-move
// positions and applies their fitness deltas.
func (g *Game) resolveCollisions() {
	g.agents = g.agents[:0]
	for _, e := range g.orbs {
		pos, _, body, _, _, orb, _ := g.orbMapper.Get(e)
		g.agents = append(g.agents, systems.Entry{ID: orb.ID, Entity: e, Kind: components.KindOrb, X: pos.X, Y: pos.Y, Radius: body.Radius})
	}
	if g.hasPlayer {
		pos, _, body, _, _, player := g.playerMapper.Get(g.player)
		g.agents = append(g.agents, systems.Entry{ID: player.ID, Entity: g.player, Kind: components.KindPlayer, X: pos.X, Y: pos.Y, Radius: body.Radius})
	}

	reward := float32(g.cfg.Fitness.ConsumeReward)
	contactPenalty := float32(g.cfg.Fitness.ContactPenalty)

	for _, c := range g.resolver.Resolve(g.agents, g.index, g.maxRadius) {
		switch c.Kind {
		case systems.ContactTarget:
			orb := g.orbMap.Get(c.Agent.Entity)
			orb.Fitness += reward
			orb.Consumed++
			g.targetMap.Get(c.Other.Entity).Destroyed = true
			g.destroyed = append(g.destroyed, destroyedTarget{entity: c.Other.Entity, targetID: c.Other.ID, orbID: orb.ID})
			g.collector.RecordConsume()

		case systems.ContactOrb:
			g.recordContact(c.Agent, contactPenalty)
			g.recordContact(c.Other, contactPenalty)
			g.collector.RecordContact()
		}
	}
}

func (g *Game) recordContact(e systems.Entry, penalty float32) {
	switch e.Kind {
	case components.KindOrb:
		orb := g.orbMap.Get(e.Entity)
		orb.Contacts++
		orb.Fitness -= penalty
	case components.KindPlayer:
		g.playerMap.Get(e.Entity).Contacts++
	}
}
