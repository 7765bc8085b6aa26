package main

import (
	"github.com/pthm-cable/leyline/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value

	field func(*config.Config) *float64
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Structures
			{Name: "sanctuary_radius", Path: "structures.sanctuary.radius", Min: 2, Max: 10, Default: 5,
				field: func(c *config.Config) *float64 { return &c.Structures.Sanctuary.Radius }},
			{Name: "sanctuary_strength", Path: "structures.sanctuary.strength", Min: 0.05, Max: 0.5, Default: 0.2,
				field: func(c *config.Config) *float64 { return &c.Structures.Sanctuary.Strength }},
			{Name: "pit_radius", Path: "structures.pit.radius", Min: 1, Max: 8, Default: 3,
				field: func(c *config.Config) *float64 { return &c.Structures.Pit.Radius }},
			{Name: "pit_strength", Path: "structures.pit.strength", Min: 0.05, Max: 0.6, Default: 0.3,
				field: func(c *config.Config) *float64 { return &c.Structures.Pit.Strength }},
			// Corruption spread
			{Name: "base_rate", Path: "corruption.base_rate", Min: 0.02, Max: 0.3, Default: 0.1,
				field: func(c *config.Config) *float64 { return &c.Corruption.BaseRate }},
			{Name: "mana_attraction", Path: "corruption.mana_attraction", Min: 0, Max: 0.8, Default: 0.3,
				field: func(c *config.Config) *float64 { return &c.Corruption.ManaAttraction }},
			{Name: "expansion_threshold", Path: "corruption.expansion_threshold", Min: 0.05, Max: 0.5, Default: 0.15,
				field: func(c *config.Config) *float64 { return &c.Corruption.ExpansionThreshold }},
			{Name: "sanctuary_max_suppression", Path: "corruption.sanctuary_max_suppression", Min: 0.3, Max: 1.0, Default: 0.8,
				field: func(c *config.Config) *float64 { return &c.Corruption.SanctuaryMaxSuppression }},
			// Terrain growth
			{Name: "birth_probability", Path: "terrain.birth_probability", Min: 0.05, Max: 0.8, Default: 0.3,
				field: func(c *config.Config) *float64 { return &c.Terrain.BirthProbability }},
			{Name: "corruption_mana_reduction", Path: "terrain.corruption_mana_reduction", Min: 0.05, Max: 0.6, Default: 0.25,
				field: func(c *config.Config) *float64 { return &c.Terrain.CorruptionManaReduction }},
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

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into cfg. Call
// cfg.Finalize afterwards.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	for i, v := range pv.Clamp(values) {
		*pv.Specs[i].field(cfg) = v
	}
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = *spec.field(cfg)
	}
	return v
}
