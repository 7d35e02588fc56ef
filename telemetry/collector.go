package telemetry

// Collector accumulates events within a generation and produces
// GenerationStats when the generation ends.
type Collector struct {
	generation int
	startTick  int32

	consumed  int
	wallTicks int
	contacts  int
	spawned   int
}

// NewCollector creates a collector for generation 0 starting at tick 0.
func NewCollector() *Collector {
	return &Collector{}
}

// RecordConsume records a target consumed by an orb.
func (c *Collector) RecordConsume() {
	c.consumed++
}

// RecordWallTick records one orb spending one tick against a wall.
func (c *Collector) RecordWallTick() {
	c.wallTicks++
}

// RecordContact records one agent-agent contact.
func (c *Collector) RecordContact() {
	c.contacts++
}

// RecordSpawn records an entity added from a spawn request.
func (c *Collector) RecordSpawn() {
	c.spawned++
}

// Restart discards the counters and resumes collecting at generation,
// starting at tick.
func (c *Collector) Restart(generation int, tick int32) {
	*c = Collector{generation: generation, startTick: tick}
}

// Generation returns the generation currently being collected.
func (c *Collector) Generation() int {
	return c.generation
}

// EvolveOutcome describes what the evolution step did at the boundary.
type EvolveOutcome struct {
	Elites        int
	Mutations     int
	Reinitialized bool
	Failed        bool
}

// Flush produces the stats for the generation ending at currentTick and
// resets the counters for the next one.
func (c *Collector) Flush(currentTick int32, fitness []float64, highScore float64, targetsAlive int, out EvolveOutcome) GenerationStats {
	sum := SummarizeFitness(fitness)

	stats := GenerationStats{
		Generation: c.generation,
		Ticks:      currentTick - c.startTick,
		Population: len(fitness),

		BestFitness: sum.Best,
		MeanFitness: sum.Mean,
		StdFitness:  sum.Std,
		P10Fitness:  sum.P10,
		P50Fitness:  sum.P50,
		P90Fitness:  sum.P90,
		HighScore:   highScore,

		Consumed:     c.consumed,
		WallTicks:    c.wallTicks,
		Contacts:     c.contacts,
		Spawned:      c.spawned,
		TargetsAlive: targetsAlive,

		Elites:        out.Elites,
		Mutations:     out.Mutations,
		Reinitialized: out.Reinitialized,
		EvolveFailed:  out.Failed,
	}

	c.generation++
	c.startTick = currentTick
	c.consumed = 0
	c.wallTicks = 0
	c.contacts = 0
	c.spawned = 0

	return stats
}
