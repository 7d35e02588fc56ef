package game

import (
	"log/slog"

	"github.com/pthm-cable/orbs/events"
	"github.com/pthm-cable/orbs/evolution"
	"github.com/pthm-cable/orbs/telemetry"
)

// endGeneration scores the population, evolves it in one step and starts the
// next generation. When evolution fails the previous brains carry over.
func (g *Game) endGeneration() {
	completed := g.generation
	pop := make([]evolution.Scored, len(g.orbs))
	fitness := make([]float64, len(g.orbs))
	for i, e := range g.orbs {
		orb := g.orbMap.Get(e)
		brain := g.brains[orb.ID]
		pop[i] = evolution.Scored{Brain: brain, Fitness: orb.Fitness}
		fitness[i] = float64(orb.Fitness)
		g.hall.Consider(brain, orb.Fitness, completed, orb.ID)
	}

	var outcome telemetry.EvolveOutcome
	report, err := g.engine.Generate(pop)
	if err != nil {
		slog.Error("evolution failed, keeping previous brains",
			"generation", completed,
			"population", len(pop),
			"error", err,
		)
		outcome.Failed = true
	} else {
		outcome.Elites = report.Elites
		outcome.Mutations = report.Mutations
		outcome.Reinitialized = report.Reinitialized
	}

	summary := telemetry.SummarizeFitness(fitness)
	best := float32(summary.Best)
	if len(fitness) > 0 && best > g.highScore {
		g.highScore = best
	}

	alive := g.TargetCount()
	for i, e := range g.orbs {
		brain := pop[i].Brain
		if err == nil {
			brain = report.Brains[i]
		}
		g.resetOrb(e, brain)
	}
	g.respawnTargets()

	g.generation++
	g.genTick = 0
	g.genLen += int32(g.cfg.Generation.Growth)

	stats := g.collector.Flush(g.tick, fitness, float64(g.highScore), alive, outcome)
	g.bus.GenerationComplete.Publish(events.GenerationComplete{
		Generation: completed,
		Best:       best,
		Mean:       float32(summary.Mean),
		HighScore:  g.highScore,
	})
	g.recordGeneration(stats)

	if every := g.cfg.Persistence.SaveEvery; every > 0 && g.generation%every == 0 {
		g.saveBrains()
	}
}
