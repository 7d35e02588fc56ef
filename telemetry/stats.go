package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// GenerationStats summarizes one completed generation.
type GenerationStats struct {
	Generation int   `csv:"generation"`
	Ticks      int32 `csv:"ticks"`
	Population int   `csv:"population"`

	// Fitness distribution over the population
	BestFitness float64 `csv:"best"`
	MeanFitness float64 `csv:"mean"`
	StdFitness  float64 `csv:"std"`
	P10Fitness  float64 `csv:"p10"`
	P50Fitness  float64 `csv:"p50"`
	P90Fitness  float64 `csv:"p90"`
	HighScore   float64 `csv:"high_score"`

	// Events during the generation
	Consumed     int `csv:"consumed"`
	WallTicks    int `csv:"wall_ticks"`
	Contacts     int `csv:"contacts"`
	Spawned      int `csv:"spawned"`
	TargetsAlive int `csv:"targets_alive"`

	// Evolution outcome
	Elites        int  `csv:"elites"`
	Mutations     int  `csv:"mutations"`
	Reinitialized bool `csv:"reinitialized"`
	EvolveFailed  bool `csv:"evolve_failed"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// FitnessSummary holds the distribution of a population's fitness.
type FitnessSummary struct {
	Best, Mean, Std, P10, P50, P90 float64
}

// SummarizeFitness computes the fitness distribution. Std is the population
// standard deviation.
func SummarizeFitness(values []float64) FitnessSummary {
	if len(values) == 0 {
		return FitnessSummary{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean, variance := stat.PopMeanVariance(sorted, nil)
	return FitnessSummary{
		Best: sorted[len(sorted)-1],
		Mean: mean,
		Std:  math.Sqrt(math.Max(variance, 0)),
		P10:  Percentile(sorted, 0.10),
		P50:  Percentile(sorted, 0.50),
		P90:  Percentile(sorted, 0.90),
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s GenerationStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generation", s.Generation),
		slog.Int("ticks", int(s.Ticks)),
		slog.Int("population", s.Population),
		slog.Float64("best", s.BestFitness),
		slog.Float64("mean", s.MeanFitness),
		slog.Float64("std", s.StdFitness),
		slog.Float64("p50", s.P50Fitness),
		slog.Float64("high_score", s.HighScore),
		slog.Int("consumed", s.Consumed),
		slog.Int("wall_ticks", s.WallTicks),
		slog.Int("contacts", s.Contacts),
		slog.Int("spawned", s.Spawned),
		slog.Int("targets_alive", s.TargetsAlive),
		slog.Int("elites", s.Elites),
		slog.Int("mutations", s.Mutations),
		slog.Bool("reinitialized", s.Reinitialized),
		slog.Bool("evolve_failed", s.EvolveFailed),
	)
}

// LogStats logs the generation stats using slog.
func (s GenerationStats) LogStats() {
	slog.Info("generation", "stats", s)
}
