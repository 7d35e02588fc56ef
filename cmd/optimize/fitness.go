package main

import (
	"fmt"
	"math"
	"sync"

	"github.com/pthm-cable/orbs/config"
	"github.com/pthm-cable/orbs/events"
	"github.com/pthm-cable/orbs/evolution"
	"github.com/pthm-cable/orbs/game"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	generations int
	window      int // trailing generations that count toward the score
	seeds       []int64
	baseConfig  *config.Config

	// Best run tracking
	mu             sync.Mutex
	bestFitness    float64
	bestHallOfFame *evolution.HallOfFame
	lastRate       float64 // intake rate from the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, generations int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	window := generations / 2
	if window < 1 {
		window = 1
	}
	return &FitnessEvaluator{
		params:      params,
		generations: generations,
		window:      window,
		seeds:       seeds,
		baseConfig:  baseCfg,
		bestFitness: math.Inf(1),
	}
}

// BestHallOfFame returns the hall of fame from the best evaluation.
func (fe *FitnessEvaluator) BestHallOfFame() *evolution.HallOfFame {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestHallOfFame
}

// LastRate returns the intake rate from the most recent evaluation.
func (fe *FitnessEvaluator) LastRate() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastRate
}

// runResult holds the results from a single simulation run.
type runResult struct {
	rates      []float64 // targets eaten per orb per 1000 ticks, one per generation
	hallOfFame *evolution.HallOfFame
	err        error
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is the negative intake rate over the trailing window so configs
// with different reward scales stay comparable.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]*runResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(x, s)
		}(i, seed)
	}
	wg.Wait()

	var total float64
	bestSeedFitness := math.Inf(1)
	var bestSeedHall *evolution.HallOfFame
	for _, r := range results {
		if r.err != nil {
			// Invalid configs rank last
			return 0
		}
		f := -fe.trailingRate(r.rates)
		total += f
		if f < bestSeedFitness {
			bestSeedFitness = f
			bestSeedHall = r.hallOfFame
		}
	}
	avg := total / float64(len(fe.seeds))

	fe.mu.Lock()
	if avg < fe.bestFitness {
		fe.bestFitness = avg
		fe.bestHallOfFame = bestSeedHall
	}
	fe.lastRate = -avg
	fe.mu.Unlock()

	return avg
}

// runSimulation executes a single headless run for the configured number of
// generations.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) *runResult {
	cfg := fe.baseConfig.Clone()
	if err := fe.params.ApplyToConfig(cfg, x); err != nil {
		return &runResult{err: err}
	}
	cfg.Player.Enabled = false

	result := &runResult{}
	bus := events.NewBus(0)

	var g *game.Game
	var eaten int
	var lastTick int32
	bus.TargetDestroyed.Subscribe(func(events.TargetDestroyed) { eaten++ })
	bus.GenerationComplete.Subscribe(func(events.GenerationComplete) {
		ticks := g.Tick() - lastTick
		lastTick = g.Tick()
		result.rates = append(result.rates, intakeRate(eaten, g.Population(), ticks))
		eaten = 0
	})

	g, err := game.NewGame(game.Options{
		Config:         cfg,
		Seed:           seed,
		Headless:       true,
		StepsPerUpdate: 1,
		Bus:            bus,
	})
	if err != nil {
		return &runResult{err: fmt.Errorf("seed %d: %w", seed, err)}
	}
	defer g.Unload()

	g.RunHeadless(0, fe.generations)
	result.hallOfFame = g.HallOfFame()
	return result
}

// trailingRate averages the last window generations.
func (fe *FitnessEvaluator) trailingRate(rates []float64) float64 {
	if len(rates) == 0 {
		return 0
	}
	start := len(rates) - fe.window
	if start < 0 {
		start = 0
	}
	var sum float64
	for _, r := range rates[start:] {
		sum += r
	}
	return sum / float64(len(rates)-start)
}

// intakeRate returns targets eaten per orb per 1000 ticks.
func intakeRate(eaten, orbs int, ticks int32) float64 {
	if orbs <= 0 || ticks <= 0 {
		return 0
	}
	return float64(eaten) * 1000 / (float64(orbs) * float64(ticks))
}
