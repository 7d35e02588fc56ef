// Package evolution produces successive generations of brains with a genetic algorithm.
package evolution

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/pthm-cable/orbs/config"
	"github.com/pthm-cable/orbs/neural"
)

// ErrInsufficientPopulation reports a population smaller than the elite count.
var ErrInsufficientPopulation = errors.New("insufficient population")

// Strategy selects how a generation is replaced.
type Strategy uint8

const (
	// Elitist carries the top K brains unchanged and breeds the rest from them.
	Elitist Strategy = iota
	// Reinit breeds every slot from the top ReinitPoolFraction, and
	// reinitializes the whole population when no score clears the stagnation
	// threshold.
	Reinit
)

// ReinitPoolFraction is the share of the ranked population the Reinit
// strategy breeds from.
const ReinitPoolFraction = 0.2

// ParseStrategy converts a config name into a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case config.StrategyElitist, "":
		return Elitist, nil
	case config.StrategyReinit:
		return Reinit, nil
	default:
		return Elitist, fmt.Errorf("unknown evolution strategy %q", name)
	}
}

func (s Strategy) String() string {
	if s == Reinit {
		return config.StrategyReinit
	}
	return config.StrategyElitist
}

// Config holds engine parameters.
type Config struct {
	Strategy            Strategy
	EliteCount          int
	EliteFraction       float64 // overrides EliteCount when > 0
	MutationRate        float64
	StagnationThreshold float32
}

// FromConfig converts the loaded evolution settings.
func FromConfig(c config.EvolutionConfig) (Config, error) {
	s, err := ParseStrategy(c.Strategy)
	if err != nil {
		return Config{}, err
	}
	return Config{
		Strategy:            s,
		EliteCount:          c.EliteCount,
		EliteFraction:       c.EliteFraction,
		MutationRate:        c.MutationRate,
		StagnationThreshold: float32(c.StagnationThreshold),
	}, nil
}

// Scored pairs a brain with the fitness it earned this generation.
type Scored struct {
	Brain   *neural.Brain
	Fitness float32
}

// Report describes one generation transition.
type Report struct {
	Brains        []*neural.Brain // next generation, same length as the input
	Elites        int             // brains carried over unchanged
	Reinitialized bool            // stagnation reset was taken
	Mutations     int             // genes perturbed across all children
	Best          float32
}

// Engine runs the genetic algorithm. It owns the random source used for
// parent selection, crossover, mutation and fresh brains.
type Engine struct {
	cfg Config
	rng *rand.Rand
}

// NewEngine creates an engine drawing all randomness from rng.
func NewEngine(cfg Config, rng *rand.Rand) *Engine {
	return &Engine{cfg: cfg, rng: rng}
}

// Config returns the engine parameters.
func (e *Engine) Config() Config { return e.cfg }

// EliteCount returns ceil(fraction*n), at least 1, when fraction > 0 and
// count otherwise.
func EliteCount(n, count int, fraction float64) int {
	if fraction > 0 {
		return max(int(math.Ceil(float64(n)*fraction)), 1)
	}
	return count
}

// EliteCount returns K for a population of n.
func (e *Engine) EliteCount(n int) int {
	return EliteCount(n, e.cfg.EliteCount, e.cfg.EliteFraction)
}

// PoolSize returns how many of the ranked brains may parent children.
func (e *Engine) PoolSize(n int) int {
	if e.cfg.Strategy == Reinit {
		return EliteCount(n, 0, ReinitPoolFraction)
	}
	return e.EliteCount(n)
}

// Rank returns a copy of pop sorted by descending fitness.
// Equal scores keep their input order.
func Rank(pop []Scored) []Scored {
	ranked := append([]Scored(nil), pop...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Fitness > ranked[j].Fitness
	})
	return ranked
}

// Evolve returns the next generation of brains, one per input.
// With the elitist strategy the first K entries are the K best input brains.
func (e *Engine) Evolve(pop []Scored) ([]*neural.Brain, error) {
	r, err := e.Generate(pop)
	if err != nil {
		return nil, err
	}
	return r.Brains, nil
}

// Generate is Evolve with details about the transition.
func (e *Engine) Generate(pop []Scored) (Report, error) {
	n := len(pop)
	k := e.PoolSize(n)
	if n == 0 || k <= 0 || n < k {
		return Report{}, fmt.Errorf("%w: population %d, breeding pool %d", ErrInsufficientPopulation, n, k)
	}

	ranked := Rank(pop)
	report := Report{Brains: make([]*neural.Brain, n), Best: ranked[0].Fitness}

	if e.cfg.Strategy == Reinit && stagnated(ranked, e.cfg.StagnationThreshold) {
		for i, s := range pop {
			report.Brains[i] = neural.NewBrain(e.rng, s.Brain.Topology, s.Brain.Activation)
		}
		report.Reinitialized = true
		return report, nil
	}

	pool := make([]*neural.Brain, k)
	for i := range pool {
		pool[i] = ranked[i].Brain
	}

	start := 0
	if e.cfg.Strategy == Elitist {
		copy(report.Brains, pool)
		report.Elites = k
		start = k
	}

	for i := start; i < n; i++ {
		p1 := pool[e.rng.Intn(k)]
		p2 := pool[e.rng.Intn(k)]
		child, err := Crossover(e.rng, p1, p2)
		if err != nil {
			return Report{}, fmt.Errorf("breeding slot %d: %w", i, err)
		}
		report.Mutations += Mutate(e.rng, child, e.cfg.MutationRate)
		report.Brains[i] = child
	}

	return report, nil
}

// stagnated reports whether no score rises above threshold.
// ranked is sorted, so only the best needs checking.
func stagnated(ranked []Scored, threshold float32) bool {
	return ranked[0].Fitness <= threshold
}

// Seed builds an initial population of n brains.
// Loaded brains matching topo and act fill the first slots; the remaining slots are
// bred from them. Without usable loaded brains every slot is random.
func (e *Engine) Seed(loaded []*neural.Brain, n int, topo neural.Topology, act neural.Activation) []*neural.Brain {
	var usable []*neural.Brain
	for _, b := range loaded {
		if b != nil && b.Activation == act && b.Topology.Equal(topo) {
			usable = append(usable, b)
		}
	}
	if len(usable) > n {
		usable = usable[:n]
	}

	out := make([]*neural.Brain, n)
	copy(out, usable)
	for i := len(usable); i < n; i++ {
		if len(usable) == 0 {
			out[i] = neural.NewBrain(e.rng, topo, act)
			continue
		}
		p1 := usable[e.rng.Intn(len(usable))]
		p2 := usable[e.rng.Intn(len(usable))]
		child, err := Crossover(e.rng, p1, p2)
		if err != nil {
			// usable brains share topo and activation
			child = neural.NewBrain(e.rng, topo, act)
		}
		Mutate(e.rng, child, e.cfg.MutationRate)
		out[i] = child
	}
	return out
}

// NewBrain returns a fresh random brain from the engine's source.
func (e *Engine) NewBrain(topo neural.Topology, act neural.Activation) *neural.Brain {
	return neural.NewBrain(e.rng, topo, act)
}
