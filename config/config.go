// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Perception modes.
const (
	PerceptionRaycast = "raycast"
	PerceptionNearest = "nearest"
)

// Evolution strategies.
const (
	StrategyElitist = "elitist"
	StrategyReinit  = "reinit"
)

// Persistence backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
	BackendNone   = "none"
)

// Target distributions.
const (
	DistributionUniform   = "uniform"
	DistributionClustered = "clustered"
)

// Config holds all simulation configuration parameters.
type Config struct {
	Screen      ScreenConfig      `yaml:"screen" ini:"screen"`
	Arena       ArenaConfig       `yaml:"arena" ini:"arena"`
	Physics     PhysicsConfig     `yaml:"physics" ini:"physics"`
	Orb         OrbConfig         `yaml:"orb" ini:"orb"`
	Target      TargetConfig      `yaml:"target" ini:"target"`
	Player      PlayerConfig      `yaml:"player" ini:"player"`
	Generation  GenerationConfig  `yaml:"generation" ini:"generation"`
	Brain       BrainConfig       `yaml:"brain" ini:"brain"`
	Perception  PerceptionConfig  `yaml:"perception" ini:"perception"`
	Evolution   EvolutionConfig   `yaml:"evolution" ini:"evolution"`
	Fitness     FitnessConfig     `yaml:"fitness" ini:"fitness"`
	Spatial     SpatialConfig     `yaml:"spatial" ini:"spatial"`
	Persistence PersistenceConfig `yaml:"persistence" ini:"persistence"`
	Telemetry   TelemetryConfig   `yaml:"telemetry" ini:"telemetry"`
	Milestones  MilestonesConfig  `yaml:"milestones" ini:"milestones"`
	Viz         VizConfig         `yaml:"viz" ini:"viz"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-" ini:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width" ini:"width"`
	Height    int `yaml:"height" ini:"height"`
	TargetFPS int `yaml:"target_fps" ini:"target_fps"`
}

// ArenaConfig holds arena dimensions in world units (0 = use screen size).
type ArenaConfig struct {
	Width  int `yaml:"width" ini:"width"`
	Height int `yaml:"height" ini:"height"`
}

// PhysicsConfig holds movement integration parameters.
type PhysicsConfig struct {
	DT          float64 `yaml:"dt" ini:"dt"`
	Inertia     float64 `yaml:"inertia" ini:"inertia"`         // Velocity retained per tick
	Restitution float64 `yaml:"restitution" ini:"restitution"` // Velocity kept after bouncing off a wall
}

// OrbConfig holds evolving agent parameters.
type OrbConfig struct {
	Count  int     `yaml:"count" ini:"count"`
	Radius float64 `yaml:"radius" ini:"radius"`
	Speed  float64 `yaml:"speed" ini:"speed"`
}

// TargetConfig holds consumable target parameters.
type TargetConfig struct {
	Count        int     `yaml:"count" ini:"count"`
	Radius       float64 `yaml:"radius" ini:"radius"`
	Distribution string  `yaml:"distribution" ini:"distribution"`
	NoiseScale   float64 `yaml:"noise_scale" ini:"noise_scale"`
	Contrast     float64 `yaml:"contrast" ini:"contrast"` // Exponent applied to noise density (higher = tighter clusters)
}

// PlayerConfig holds the keyboard-controlled orb parameters.
type PlayerConfig struct {
	Enabled bool    `yaml:"enabled" ini:"enabled"`
	Radius  float64 `yaml:"radius" ini:"radius"`
	Speed   float64 `yaml:"speed" ini:"speed"`
}

// GenerationConfig holds generation length parameters.
type GenerationConfig struct {
	Ticks  int `yaml:"ticks" ini:"ticks"`
	Growth int `yaml:"growth" ini:"growth"` // Extra ticks added each generation
}

// BrainConfig holds network topology parameters.
type BrainConfig struct {
	HiddenLayers []int  `yaml:"hidden_layers" ini:"hidden_layers" delim:","`
	Activation   string `yaml:"activation" ini:"activation"`
	Outputs      int    `yaml:"outputs" ini:"outputs"`
}

// PerceptionConfig holds sensor parameters.
type PerceptionConfig struct {
	Mode           string  `yaml:"mode" ini:"mode"`
	Rays           int     `yaml:"rays" ini:"rays"`
	VisionRange    float64 `yaml:"vision_range" ini:"vision_range"`
	NearestTargets int     `yaml:"nearest_targets" ini:"nearest_targets"`
	Sentinel       float64 `yaml:"sentinel" ini:"sentinel"`
}

// EvolutionConfig holds genetic algorithm parameters.
type EvolutionConfig struct {
	Strategy            string  `yaml:"strategy" ini:"strategy"`
	EliteCount          int     `yaml:"elite_count" ini:"elite_count"`
	EliteFraction       float64 `yaml:"elite_fraction" ini:"elite_fraction"` // Overrides elite_count when > 0
	MutationRate        float64 `yaml:"mutation_rate" ini:"mutation_rate"`
	StagnationThreshold float64 `yaml:"stagnation_threshold" ini:"stagnation_threshold"`
	HallOfFameSize      int     `yaml:"hall_of_fame_size" ini:"hall_of_fame_size"`
}

// FitnessConfig holds per-event fitness deltas.
type FitnessConfig struct {
	ConsumeReward  float64 `yaml:"consume_reward" ini:"consume_reward"`
	WallPenalty    float64 `yaml:"wall_penalty" ini:"wall_penalty"`
	MovementBonus  float64 `yaml:"movement_bonus" ini:"movement_bonus"`
	ContactPenalty float64 `yaml:"contact_penalty" ini:"contact_penalty"` // 0 disables orb contact scoring
}

// SpatialConfig holds quad-tree parameters.
type SpatialConfig struct {
	Capacity int `yaml:"capacity" ini:"capacity"`
	MaxDepth int `yaml:"max_depth" ini:"max_depth"`
}

// PersistenceConfig holds brain archive settings.
type PersistenceConfig struct {
	Backend   string `yaml:"backend" ini:"backend"`
	Path      string `yaml:"path" ini:"path"`
	SaveEvery int    `yaml:"save_every" ini:"save_every"` // Generations between saves (0 = only on shutdown)
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	PerfCollectorWindow int `yaml:"perf_collector_window" ini:"perf_collector_window"`
}

// MilestonesConfig holds milestone detection thresholds.
type MilestonesConfig struct {
	HistorySize          int     `yaml:"history_size" ini:"history_size"`
	BreakthroughMultiple float64 `yaml:"breakthrough_multiple" ini:"breakthrough_multiple"`
	StagnationGens       int     `yaml:"stagnation_generations" ini:"stagnation_generations"`
}

// VizConfig holds visualization server settings.
type VizConfig struct {
	Addr       string `yaml:"addr" ini:"addr"` // Empty disables the server
	FrameEvery int    `yaml:"frame_every" ini:"frame_every"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32      float32 // Physics.DT as float32
	NumInputs int     // Brain input size for the selected perception mode
	ScreenW32 float32
	ScreenH32 float32
	ArenaW32  float32 // Effective arena width
	ArenaH32  float32 // Effective arena height
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load reads the embedded defaults and overlays the file at path.
// Files ending in .ini are read with ini section/key mapping, everything else as YAML.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		if strings.EqualFold(filepath.Ext(path), ".ini") {
			if err := overlayINI(cfg, path); err != nil {
				return nil, err
			}
		} else {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
			// Unmarshal into same struct - only overwrites fields present in file
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

func overlayINI(cfg *Config, path string) error {
	f, err := ini.Load(path)
	if err != nil {
		return fmt.Errorf("reading ini config: %w", err)
	}
	if err := f.MapTo(cfg); err != nil {
		return fmt.Errorf("mapping ini config: %w", err)
	}
	return nil
}

// Validate checks enumerated settings and sizes.
func (c *Config) Validate() error {
	var errs []error
	switch c.Perception.Mode {
	case PerceptionRaycast, PerceptionNearest:
	default:
		errs = append(errs, fmt.Errorf("perception.mode %q: want %s or %s", c.Perception.Mode, PerceptionRaycast, PerceptionNearest))
	}
	switch c.Evolution.Strategy {
	case StrategyElitist, StrategyReinit:
	default:
		errs = append(errs, fmt.Errorf("evolution.strategy %q: want %s or %s", c.Evolution.Strategy, StrategyElitist, StrategyReinit))
	}
	switch c.Persistence.Backend {
	case BackendJSON, BackendSQLite, BackendMemory, BackendNone:
	default:
		errs = append(errs, fmt.Errorf("persistence.backend %q is not supported", c.Persistence.Backend))
	}
	switch c.Target.Distribution {
	case DistributionUniform, DistributionClustered:
	default:
		errs = append(errs, fmt.Errorf("target.distribution %q is not supported", c.Target.Distribution))
	}
	if c.Perception.Mode == PerceptionRaycast && c.Perception.Rays <= 0 {
		errs = append(errs, errors.New("perception.rays must be positive"))
	}
	if c.Perception.VisionRange <= 0 {
		errs = append(errs, errors.New("perception.vision_range must be positive"))
	}
	if c.Brain.Outputs != 2 {
		errs = append(errs, fmt.Errorf("brain.outputs must be 2, got %d", c.Brain.Outputs))
	}
	for _, h := range c.Brain.HiddenLayers {
		if h <= 0 {
			errs = append(errs, fmt.Errorf("brain.hidden_layers: invalid size %d", h))
		}
	}
	if c.Evolution.EliteCount <= 0 && c.Evolution.EliteFraction <= 0 {
		errs = append(errs, errors.New("evolution: elite_count or elite_fraction must be positive"))
	}
	if c.Spatial.Capacity <= 0 || c.Spatial.MaxDepth < 0 {
		errs = append(errs, errors.New("spatial: capacity must be positive and max_depth non-negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Physics.DT)
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)

	// Arena dimensions default to screen size if not specified
	w := c.Arena.Width
	if w == 0 {
		w = c.Screen.Width
	}
	h := c.Arena.Height
	if h == 0 {
		h = c.Screen.Height
	}
	c.Derived.ArenaW32 = float32(w)
	c.Derived.ArenaH32 = float32(h)

	c.Derived.NumInputs = c.InputSize()
}

// InputSize returns the brain input length implied by the perception settings.
func (c *Config) InputSize() int {
	if c.Perception.Mode == PerceptionNearest {
		// wall flag, own x/y, nearest orb x/y, then x/y per target slot
		return 5 + 2*c.Perception.NearestTargets
	}
	return c.Perception.Rays
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Clone returns a deep copy that can be modified without touching c.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Brain.HiddenLayers = append([]int(nil), c.Brain.HiddenLayers...)
	return &cp
}

// Refresh validates c and recomputes derived values after fields were set
// programmatically.
func (c *Config) Refresh() error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}
