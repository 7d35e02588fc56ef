package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/orbs/config"
)

func TestParamVectorNormalizeRoundTrip(t *testing.T) {
	pv := NewParamVector()
	def := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(def))
	for i := range def {
		if math.Abs(back[i]-def[i]) > 1e-9 {
			t.Errorf("%s: round trip %v, want %v", pv.Specs[i].Name, back[i], def[i])
		}
	}
}

func TestParamVectorDefaultsInBounds(t *testing.T) {
	for _, spec := range NewParamVector().Specs {
		if spec.Default < spec.Min || spec.Default > spec.Max {
			t.Errorf("%s default %v outside [%v, %v]", spec.Name, spec.Default, spec.Min, spec.Max)
		}
	}
}

func TestParamVectorClamp(t *testing.T) {
	pv := NewParamVector()
	v := make([]float64, pv.Dim())
	for i, spec := range pv.Specs {
		v[i] = spec.Max * 10
	}
	v[0] = math.NaN()

	got := pv.Clamp(v)
	if got[0] != pv.Specs[0].Default {
		t.Errorf("NaN clamped to %v, want default %v", got[0], pv.Specs[0].Default)
	}
	for i := 1; i < len(got); i++ {
		if got[i] != pv.Specs[i].Max {
			t.Errorf("%s = %v, want max %v", pv.Specs[i].Name, got[i], pv.Specs[i].Max)
		}
	}
}

func TestApplyAndExtract(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	pv := NewParamVector()
	want := pv.Denormalize(make([]float64, pv.Dim())) // all minimums
	if err := pv.ApplyToConfig(cfg, want); err != nil {
		t.Fatalf("ApplyToConfig: %v", err)
	}

	got := pv.ExtractFromConfig(cfg)
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("%s = %v, want %v", pv.Specs[i].Name, got[i], want[i])
		}
	}
	if cfg.Evolution.HallOfFameSize != 1 {
		t.Errorf("hall_of_fame_size = %d, want 1", cfg.Evolution.HallOfFameSize)
	}
}

func TestIntakeRate(t *testing.T) {
	tests := []struct {
		eaten, orbs int
		ticks       int32
		want        float64
	}{
		{10, 10, 1000, 1},
		{0, 10, 1000, 0},
		{5, 0, 1000, 0},
		{5, 10, 0, 0},
		{30, 20, 300, 5},
	}
	for _, tt := range tests {
		if got := intakeRate(tt.eaten, tt.orbs, tt.ticks); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("intakeRate(%d, %d, %d) = %v, want %v", tt.eaten, tt.orbs, tt.ticks, got, tt.want)
		}
	}
}

func TestTrailingRate(t *testing.T) {
	fe := NewFitnessEvaluator(NewParamVector(), 4, []int64{1}, nil)
	if fe.window != 2 {
		t.Fatalf("window = %d, want 2", fe.window)
	}
	if got := fe.trailingRate([]float64{100, 100, 1, 3}); got != 2 {
		t.Errorf("trailingRate = %v, want 2", got)
	}
	if got := fe.trailingRate([]float64{4}); got != 4 {
		t.Errorf("short history trailingRate = %v, want 4", got)
	}
	if got := fe.trailingRate(nil); got != 0 {
		t.Errorf("empty trailingRate = %v, want 0", got)
	}
}

func TestEvaluateRunsHeadless(t *testing.T) {
	if testing.Short() {
		t.Skip("runs full simulations")
	}
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Orb.Count = 6
	cfg.Target.Count = 40
	cfg.Generation.Ticks = 60

	pv := NewParamVector()
	fe := NewFitnessEvaluator(pv, 2, []int64{1, 2}, cfg)
	fitness := fe.Evaluate(pv.DefaultVector())

	if fitness > 0 || math.IsNaN(fitness) {
		t.Errorf("fitness = %v, want a non-positive number", fitness)
	}
	if fe.LastRate() != -fitness {
		t.Errorf("LastRate = %v, want %v", fe.LastRate(), -fitness)
	}
	if fe.BestHallOfFame() == nil {
		t.Error("best hall of fame not recorded")
	}
	if cfg.Evolution.MutationRate != 0.03 {
		t.Errorf("base config modified: mutation_rate = %v", cfg.Evolution.MutationRate)
	}
}
