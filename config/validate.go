package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON string

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// ConfigurationError reports an invalid tunable. It is returned at
// construction time and never silently clamped.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

func schema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = jsonschema.CompileString("config.schema.json", schemaJSON)
	})
	return compiledSchema, schemaErr
}

// Validate checks the configuration against the embedded JSON schema and
// then applies cross-field rules. All failures are joined.
func (c *Config) Validate() error {
	var errs []error

	doc, err := c.jsonDocument()
	if err != nil {
		return fmt.Errorf("preparing config for validation: %w", err)
	}
	s, err := schema()
	if err != nil {
		return fmt.Errorf("compiling config schema: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			return fmt.Errorf("validating config: %w", err)
		}
		for _, leaf := range leafCauses(ve) {
			errs = append(errs, &ConfigurationError{Field: pointerToField(leaf.InstanceLocation), Reason: leaf.Message})
		}
		return errors.Join(errs...)
	}

	errs = append(errs, c.Grid.Validate())
	errs = append(errs, c.Sim.Validate())
	errs = append(errs, c.Seeding.Validate())
	errs = append(errs, c.Terrain.Validate())
	errs = append(errs, c.Corruption.Validate())
	errs = append(errs, c.Structures.Validate())
	errs = append(errs, c.Events.Validate())
	for i, s := range c.Structures.Initial {
		x, y := s.X, s.Y
		if x < 0 {
			x += c.Grid.Width
		}
		if y < 0 {
			y += c.Grid.Height
		}
		if x < 0 || x >= c.Grid.Width || y < 0 || y >= c.Grid.Height {
			errs = append(errs, &ConfigurationError{
				Field:  fmt.Sprintf("structures.initial[%d]", i),
				Reason: fmt.Sprintf("(%d,%d) outside %dx%d grid", s.X, s.Y, c.Grid.Width, c.Grid.Height),
			})
		}
	}
	return errors.Join(errs...)
}

// jsonDocument converts the config to the generic JSON value the schema
// validator expects, keyed by YAML field names.
func (c *Config) jsonDocument() (any, error) {
	raw, err := yaml.Marshal(c)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	js, err := json.Marshal(generic)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(js))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func leafCauses(ve *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*jsonschema.ValidationError{ve}
	}
	var out []*jsonschema.ValidationError
	for _, c := range ve.Causes {
		out = append(out, leafCauses(c)...)
	}
	return out
}

// pointerToField turns "/terrain/birth_probability" into "terrain.birth_probability".
func pointerToField(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return "<root>"
	}
	return strings.ReplaceAll(ptr, "/", ".")
}

func checkProb(field string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return &ConfigurationError{Field: field, Reason: fmt.Sprintf("probability %v outside [0,1]", v)}
	}
	return nil
}

func checkNonNeg(field string, v float64) error {
	if math.IsNaN(v) || v < 0 {
		return &ConfigurationError{Field: field, Reason: fmt.Sprintf("must be non-negative, got %v", v)}
	}
	return nil
}

func checkPositive(field string, v float64) error {
	if math.IsNaN(v) || v <= 0 {
		return &ConfigurationError{Field: field, Reason: fmt.Sprintf("must be positive, got %v", v)}
	}
	return nil
}

// Validate checks grid dimensions.
func (g GridConfig) Validate() error {
	var errs []error
	if g.Width <= 0 {
		errs = append(errs, &ConfigurationError{Field: "grid.width", Reason: fmt.Sprintf("must be positive, got %d", g.Width)})
	}
	if g.Height <= 0 {
		errs = append(errs, &ConfigurationError{Field: "grid.height", Reason: fmt.Sprintf("must be positive, got %d", g.Height)})
	}
	return errors.Join(errs...)
}

// Validate checks scheduler parameters.
func (s SimConfig) Validate() error {
	errs := []error{
		checkPositive("sim.dt", s.DT),
		checkPositive("sim.terrain_interval", s.TerrainInterval),
		checkPositive("sim.corruption_interval", s.CorruptionInterval),
	}
	if s.Erosion != ErosionTerrainDecay && s.Erosion != ErosionFeedbackDamage {
		errs = append(errs, &ConfigurationError{Field: "sim.erosion", Reason: fmt.Sprintf("unknown mode %q", s.Erosion)})
	}
	return errors.Join(errs...)
}

// Validate checks seeding densities.
func (s SeedingConfig) Validate() error {
	errs := []error{
		checkProb("seeding.mana_density", s.ManaDensity),
		checkProb("seeding.tree_density", s.TreeDensity),
		checkProb("seeding.crystal_density", s.CrystalDensity),
		checkProb("seeding.corruption_density", s.CorruptionDensity),
		checkProb("seeding.corruption_min", s.CorruptionMin),
		checkProb("seeding.corruption_max", s.CorruptionMax),
	}
	if s.CorruptionMin > s.CorruptionMax {
		errs = append(errs, &ConfigurationError{Field: "seeding.corruption_min", Reason: "exceeds corruption_max"})
	}
	if s.ManaDensity+s.TreeDensity+s.CrystalDensity > 1 {
		errs = append(errs, &ConfigurationError{Field: "seeding", Reason: "terrain densities sum above 1"})
	}
	switch s.Mode {
	case SeedUniform, SeedNoise, SeedEmpty:
	default:
		errs = append(errs, &ConfigurationError{Field: "seeding.mode", Reason: fmt.Sprintf("unknown mode %q", s.Mode)})
	}
	return errors.Join(errs...)
}

// Validate checks terrain automaton tunables.
func (t TerrainConfig) Validate() error {
	errs := []error{
		checkProb("terrain.birth_probability", t.BirthProbability),
		checkProb("terrain.corruption_threshold", t.CorruptionThreshold),
		checkProb("terrain.corruption_mana_reduction", t.CorruptionManaReduction),
		checkProb("terrain.decay_attuned", t.DecayAttuned),
		checkProb("terrain.decay_crystallized", t.DecayCrystallized),
		checkProb("terrain.decay_tree", t.DecayTree),
		checkProb("terrain.tree_emission_probability", t.TreeEmissionProbability),
		checkNonNeg("terrain.tree_emission_radius", t.TreeEmissionRadius),
		checkNonNeg("terrain.tree_suppression_radius", t.TreeSuppressionRadius),
		checkNonNeg("terrain.tree_suppression_power", t.TreeSuppressionPower),
	}
	if t.NeighborRadius < 1 {
		errs = append(errs, &ConfigurationError{Field: "terrain.neighbor_radius", Reason: fmt.Sprintf("must be at least 1, got %d", t.NeighborRadius)})
	}
	if t.IsolationThreshold < 0 || t.CrystallizationThreshold < 0 || t.BirthThreshold < 0 {
		errs = append(errs, &ConfigurationError{Field: "terrain", Reason: "neighbour thresholds must be non-negative"})
	}
	if t.IsolationThreshold > t.CrystallizationThreshold {
		errs = append(errs, &ConfigurationError{Field: "terrain.isolation_threshold", Reason: "exceeds crystallization_threshold"})
	}
	return errors.Join(errs...)
}

// Validate checks corruption automaton tunables.
func (c CorruptionConfig) Validate() error {
	return errors.Join(
		checkProb("corruption.activity_threshold", c.ActivityThreshold),
		checkProb("corruption.ceiling", c.Ceiling),
		checkProb("corruption.base_rate", c.BaseRate),
		checkProb("corruption.mana_attraction", c.ManaAttraction),
		checkProb("corruption.expansion_threshold", c.ExpansionThreshold),
		checkProb("corruption.source_weight", c.SourceWeight),
		checkProb("corruption.mana_weight", c.ManaWeight),
		checkProb("corruption.sanctuary_max_suppression", c.SanctuaryMaxSuppression),
		checkProb("corruption.damage_threshold", c.DamageThreshold),
		checkProb("corruption.damage_frequency", c.DamageFrequency),
		checkProb("corruption.damage_attuned", c.DamageAttuned),
		checkProb("corruption.damage_crystallized", c.DamageCrystallized),
		checkProb("corruption.damage_tree", c.DamageTree),
	)
}

// Validate checks one structure kind.
func (s StructureKindConfig) Validate(prefix string) error {
	return errors.Join(
		checkNonNeg(prefix+".radius", s.Radius),
		checkNonNeg(prefix+".strength", s.Strength),
		checkNonNeg(prefix+".placement_radius", s.PlacementRadius),
		checkNonNeg(prefix+".placement_strength", s.PlacementStrength),
	)
}

// Validate checks structure parameters.
func (s StructuresConfig) Validate() error {
	errs := []error{
		s.Sanctuary.Validate("structures.sanctuary"),
		s.Pit.Validate("structures.pit"),
	}
	for i, in := range s.Initial {
		if in.Kind != StructureSanctuary && in.Kind != StructurePit {
			errs = append(errs, &ConfigurationError{Field: fmt.Sprintf("structures.initial[%d].kind", i), Reason: fmt.Sprintf("unknown kind %q", in.Kind)})
		}
	}
	return errors.Join(errs...)
}

// Validate checks one event kind.
func (e EventKindConfig) Validate(prefix string) error {
	errs := []error{
		checkProb(prefix+".probability", e.Probability),
		checkNonNeg(prefix+".strength", e.Strength),
		checkNonNeg(prefix+".radius", e.Radius),
	}
	if e.Epicenters < 1 || e.Epicenters > 5 {
		errs = append(errs, &ConfigurationError{Field: prefix + ".epicenters", Reason: fmt.Sprintf("must be in [1,5], got %d", e.Epicenters)})
	}
	return errors.Join(errs...)
}

// Validate checks event layer parameters.
func (e EventsConfig) Validate() error {
	errs := []error{
		checkPositive("events.interval", e.Interval),
		checkPositive("events.duration", e.Duration),
		e.ManaSurge.Validate("events.mana_surge"),
		e.Bloom.Validate("events.corruption_bloom"),
		e.Purification.Validate("events.purification_wave"),
		e.Earthquake.Validate("events.magical_earthquake"),
	}
	total := e.ManaSurge.Probability + e.Bloom.Probability + e.Purification.Probability + e.Earthquake.Probability
	if total > 1+1e-9 {
		errs = append(errs, &ConfigurationError{Field: "events", Reason: fmt.Sprintf("kind probabilities sum to %.3f, above 1", total)})
	}
	if e.EdgeMargin < 0 {
		errs = append(errs, &ConfigurationError{Field: "events.edge_margin", Reason: "must be non-negative"})
	}
	return errors.Join(errs...)
}
