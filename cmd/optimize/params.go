// Package main tunes evolution and reward settings with CMA-ES.
package main

import (
	"math"

	"github.com/pthm-cable/orbs/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Column name in the log
	Path    string  // Config path
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64
	Integer bool // Rounded before it is applied

	get func(*config.Config) float64
	set func(*config.Config, float64)
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Evolution
			{
				Name: "mutation_rate", Path: "evolution.mutation_rate", Min: 0.005, Max: 0.2, Default: 0.03,
				get: func(c *config.Config) float64 { return c.Evolution.MutationRate },
				set: func(c *config.Config, v float64) { c.Evolution.MutationRate = v },
			},
			{
				Name: "elite_fraction", Path: "evolution.elite_fraction", Min: 0.05, Max: 0.5, Default: 0.17,
				get: func(c *config.Config) float64 { return c.Evolution.EliteFraction },
				set: func(c *config.Config, v float64) { c.Evolution.EliteFraction = v },
			},
			// Fitness shaping
			{
				Name: "consume_reward", Path: "fitness.consume_reward", Min: 1, Max: 30, Default: 10,
				get: func(c *config.Config) float64 { return c.Fitness.ConsumeReward },
				set: func(c *config.Config, v float64) { c.Fitness.ConsumeReward = v },
			},
			{
				Name: "wall_penalty", Path: "fitness.wall_penalty", Min: 0, Max: 5, Default: 1,
				get: func(c *config.Config) float64 { return c.Fitness.WallPenalty },
				set: func(c *config.Config, v float64) { c.Fitness.WallPenalty = v },
			},
			{
				Name: "movement_bonus", Path: "fitness.movement_bonus", Min: 0, Max: 0.1, Default: 0.01,
				get: func(c *config.Config) float64 { return c.Fitness.MovementBonus },
				set: func(c *config.Config, v float64) { c.Fitness.MovementBonus = v },
			},
			// Body and senses
			{
				Name: "vision_range", Path: "perception.vision_range", Min: 50, Max: 400, Default: 200,
				get: func(c *config.Config) float64 { return c.Perception.VisionRange },
				set: func(c *config.Config, v float64) { c.Perception.VisionRange = v },
			},
			{
				Name: "inertia", Path: "physics.inertia", Min: 0.5, Max: 0.99, Default: 0.92,
				get: func(c *config.Config) float64 { return c.Physics.Inertia },
				set: func(c *config.Config, v float64) { c.Physics.Inertia = v },
			},
			{
				Name: "orb_speed", Path: "orb.speed", Min: 2, Max: 30, Default: 10,
				get: func(c *config.Config) float64 { return c.Orb.Speed },
				set: func(c *config.Config, v float64) { c.Orb.Speed = v },
			},
			{
				Name: "hall_of_fame_size", Path: "evolution.hall_of_fame_size", Min: 1, Max: 24, Default: 8, Integer: true,
				get: func(c *config.Config) float64 { return float64(c.Evolution.HallOfFameSize) },
				set: func(c *config.Config, v float64) { c.Evolution.HallOfFameSize = int(v) },
			},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds and integers are whole.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if math.IsNaN(val) {
			val = spec.Default
		}
		if spec.Integer {
			val = math.Round(val)
		}
		clamped[i] = math.Max(spec.Min, math.Min(spec.Max, val))
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into cfg and refreshes its
// derived fields.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) error {
	for i, v := range pv.Clamp(values) {
		pv.Specs[i].set(cfg, v)
	}
	return cfg.Refresh()
}

// ExtractFromConfig reads the current parameter values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.get(cfg)
	}
	return v
}
