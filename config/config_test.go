package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Orb.Count != 24 {
		t.Errorf("orb.count = %d, want 24", cfg.Orb.Count)
	}
	if cfg.Target.Count != 200 {
		t.Errorf("target.count = %d, want 200", cfg.Target.Count)
	}
	if cfg.Spatial.Capacity != 10 || cfg.Spatial.MaxDepth != 5 {
		t.Errorf("spatial = %+v, want capacity 10 depth 5", cfg.Spatial)
	}
	if cfg.Derived.NumInputs != cfg.Perception.Rays {
		t.Errorf("NumInputs = %d, want %d rays", cfg.Derived.NumInputs, cfg.Perception.Rays)
	}
	if cfg.Derived.ArenaW32 != float32(cfg.Screen.Width) {
		t.Errorf("arena width should default to screen width, got %v", cfg.Derived.ArenaW32)
	}
}

func TestLoadYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	data := []byte("perception:\n  mode: nearest\n  nearest_targets: 3\norb:\n  count: 10\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Orb.Count != 10 {
		t.Errorf("orb.count = %d, want 10", cfg.Orb.Count)
	}
	// Untouched fields keep their defaults
	if cfg.Target.Count != 200 {
		t.Errorf("target.count = %d, want default 200", cfg.Target.Count)
	}
	if cfg.Derived.NumInputs != 5+2*3 {
		t.Errorf("NumInputs = %d, want %d", cfg.Derived.NumInputs, 5+2*3)
	}
}

func TestLoadINIOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.ini")
	data := []byte("[evolution]\nstrategy = reinit\nmutation_rate = 0.1\n\n[brain]\nhidden_layers = 8,4\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Evolution.Strategy != StrategyReinit {
		t.Errorf("strategy = %q, want %q", cfg.Evolution.Strategy, StrategyReinit)
	}
	if cfg.Evolution.MutationRate != 0.1 {
		t.Errorf("mutation_rate = %v, want 0.1", cfg.Evolution.MutationRate)
	}
	if len(cfg.Brain.HiddenLayers) != 2 || cfg.Brain.HiddenLayers[0] != 8 || cfg.Brain.HiddenLayers[1] != 4 {
		t.Errorf("hidden_layers = %v, want [8 4]", cfg.Brain.HiddenLayers)
	}
	if cfg.Evolution.EliteCount != 4 {
		t.Errorf("elite_count = %d, want default 4", cfg.Evolution.EliteCount)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad mode", "perception:\n  mode: sonar\n"},
		{"bad strategy", "evolution:\n  strategy: roulette\n"},
		{"bad backend", "persistence:\n  backend: redis\n"},
		{"bad outputs", "brain:\n  outputs: 3\n"},
		{"no elites", "evolution:\n  elite_count: 0\n  elite_fraction: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cfg.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Orb.Count = 7

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if back.Orb.Count != 7 {
		t.Errorf("orb.count = %d, want 7", back.Orb.Count)
	}
}

func TestCloneIsDeep(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cp := cfg.Clone()
	cp.Brain.HiddenLayers[0] = 99
	cp.Orb.Count = 3
	if cfg.Brain.HiddenLayers[0] == 99 {
		t.Error("clone shares hidden_layers with the original")
	}
	if cfg.Orb.Count != 24 {
		t.Errorf("orb.count = %d after modifying clone, want 24", cfg.Orb.Count)
	}
}

func TestRefreshRecomputesDerived(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Perception.Rays = 8
	if err := cfg.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if cfg.Derived.NumInputs != 8 {
		t.Errorf("NumInputs = %d, want 8", cfg.Derived.NumInputs)
	}

	cfg.Perception.VisionRange = 0
	if err := cfg.Refresh(); err == nil {
		t.Error("expected validation error for zero vision range")
	}
}
