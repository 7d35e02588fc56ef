package telemetry

import (
	"math"
	"testing"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestSummarizeFitness(t *testing.T) {
	values := []float64{10, 2, 8, 4, 6}
	s := SummarizeFitness(values)

	if s.Best != 10 {
		t.Errorf("best = %v, want 10", s.Best)
	}
	if math.Abs(s.Mean-6) > 1e-9 {
		t.Errorf("mean = %v, want 6", s.Mean)
	}
	// population variance of {2,4,6,8,10} is 8
	if math.Abs(s.Std-math.Sqrt(8)) > 1e-9 {
		t.Errorf("std = %v, want %v", s.Std, math.Sqrt(8))
	}
	if math.Abs(s.P50-6) > 1e-9 {
		t.Errorf("p50 = %v, want 6", s.P50)
	}
	if values[0] != 10 {
		t.Error("SummarizeFitness reordered its input")
	}
}

func TestSummarizeFitnessEmpty(t *testing.T) {
	if s := SummarizeFitness(nil); s != (FitnessSummary{}) {
		t.Errorf("empty summary = %+v, want zero", s)
	}
}

func TestCollectorFlush(t *testing.T) {
	c := NewCollector()
	c.RecordConsume()
	c.RecordConsume()
	c.RecordWallTick()
	c.RecordContact()
	c.RecordSpawn()

	stats := c.Flush(300, []float64{20, -1, 5}, 42, 198, EvolveOutcome{Elites: 4, Mutations: 12})

	if stats.Generation != 0 || stats.Ticks != 300 || stats.Population != 3 {
		t.Errorf("header = gen %d ticks %d pop %d", stats.Generation, stats.Ticks, stats.Population)
	}
	if stats.Consumed != 2 || stats.WallTicks != 1 || stats.Contacts != 1 || stats.Spawned != 1 {
		t.Errorf("counters = %+v", stats)
	}
	if stats.BestFitness != 20 || stats.HighScore != 42 || stats.TargetsAlive != 198 {
		t.Errorf("fitness = %+v", stats)
	}
	if stats.Elites != 4 || stats.Mutations != 12 {
		t.Errorf("evolve outcome = %d elites %d mutations", stats.Elites, stats.Mutations)
	}

	next := c.Flush(601, nil, 42, 200, EvolveOutcome{})
	if next.Generation != 1 || next.Ticks != 301 {
		t.Errorf("second flush = gen %d ticks %d, want 1 and 301", next.Generation, next.Ticks)
	}
	if next.Consumed != 0 || next.Spawned != 0 {
		t.Error("counters not reset after flush")
	}
}
