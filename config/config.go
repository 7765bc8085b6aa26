// Package config provides configuration loading and validation for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	Grid       GridConfig       `yaml:"grid"`
	Sim        SimConfig        `yaml:"sim"`
	Seeding    SeedingConfig    `yaml:"seeding"`
	Terrain    TerrainConfig    `yaml:"terrain"`
	Corruption CorruptionConfig `yaml:"corruption"`
	Structures StructuresConfig `yaml:"structures"`
	Events     EventsConfig     `yaml:"events"`
	Fauna      FaunaConfig      `yaml:"fauna"`
	Units      UnitsConfig      `yaml:"units"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings for the windowed viewer.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
	CellSize  int `yaml:"cell_size"` // Pixels per grid cell
}

// GridConfig holds the fixed map dimensions.
type GridConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// SimConfig holds scheduler parameters.
type SimConfig struct {
	DT                 float64 `yaml:"dt"`                  // Seconds per fixed step
	TerrainInterval    float64 `yaml:"terrain_interval"`    // Seconds between terrain automaton ticks
	CorruptionInterval float64 `yaml:"corruption_interval"` // Seconds between corruption automaton ticks
	Erosion            string  `yaml:"erosion"`             // terrain_decay | feedback_damage
	Workers            int     `yaml:"workers"`             // Row shards for neighbour counting (<=1 = serial)
}

// Erosion modes select the single authoritative corruption-erodes-terrain rule.
const (
	ErosionTerrainDecay   = "terrain_decay"
	ErosionFeedbackDamage = "feedback_damage"
)

// SeedingConfig controls the initial population of both fields.
type SeedingConfig struct {
	Mode              string  `yaml:"mode"`               // uniform | noise | empty
	ManaDensity       float64 `yaml:"mana_density"`       // Fraction of cells seeded Attuned
	TreeDensity       float64 `yaml:"tree_density"`       // Fraction of cells seeded AncientTree
	CrystalDensity    float64 `yaml:"crystal_density"`    // Fraction of cells seeded Crystallized
	CorruptionDensity float64 `yaml:"corruption_density"` // Fraction of cells seeded with corruption
	CorruptionMin     float64 `yaml:"corruption_min"`
	CorruptionMax     float64 `yaml:"corruption_max"`
	NoiseScale        float64 `yaml:"noise_scale"` // Spatial frequency for noise mode
}

// Seeding modes.
const (
	SeedUniform = "uniform"
	SeedNoise   = "noise"
	SeedEmpty   = "empty"
)

// TerrainConfig holds terrain automaton tunables.
type TerrainConfig struct {
	NeighborRadius           int     `yaml:"neighbor_radius"`
	IsolationThreshold       int     `yaml:"isolation_threshold"`       // Attuned reverts below this many magical neighbours
	CrystallizationThreshold int     `yaml:"crystallization_threshold"` // Attuned crystallizes above this many
	BirthThreshold           int     `yaml:"birth_threshold"`           // Barren needs at least this many
	BirthProbability         float64 `yaml:"birth_probability"`
	CorruptionThreshold      float64 `yaml:"corruption_threshold"` // Cells above this are "corrupted"
	CorruptionManaReduction  float64 `yaml:"corruption_mana_reduction"`
	DecayAttuned             float64 `yaml:"decay_attuned"`      // Tier factor, scaled by corruption_mana_reduction
	DecayCrystallized        float64 `yaml:"decay_crystallized"` // Tier factor
	DecayTree                float64 `yaml:"decay_tree"`         // Tier factor
	DecayEnabled             bool    `yaml:"-"`                  // Set from sim.erosion
	TreeEmissionRadius       float64 `yaml:"tree_emission_radius"`
	TreeEmissionProbability  float64 `yaml:"tree_emission_probability"`
	TreeSuppressionRadius    float64 `yaml:"tree_suppression_radius"`
	TreeSuppressionPower     float64 `yaml:"tree_suppression_power"`
	Workers                  int     `yaml:"-"` // Set from sim.workers
}

// CorruptionConfig holds corruption automaton tunables.
type CorruptionConfig struct {
	ActivityThreshold       float64 `yaml:"activity_threshold"` // Source cells must exceed this to expand
	Ceiling                 float64 `yaml:"ceiling"`            // Neighbours at or above this are not expanded into
	BaseRate                float64 `yaml:"base_rate"`
	ManaAttraction          float64 `yaml:"mana_attraction"`
	ExpansionThreshold      float64 `yaml:"expansion_threshold"`
	SourceWeight            float64 `yaml:"source_weight"`
	ManaWeight              float64 `yaml:"mana_weight"`
	SanctuaryMaxSuppression float64 `yaml:"sanctuary_max_suppression"` // Cap per tick
	DamageEnabled           bool    `yaml:"-"`                         // Set from sim.erosion
	DamageThreshold         float64 `yaml:"damage_threshold"`
	DamageFrequency         float64 `yaml:"damage_frequency"` // Fraction of cells sampled per tick
	DamageAttuned           float64 `yaml:"damage_attuned"`
	DamageCrystallized      float64 `yaml:"damage_crystallized"`
	DamageTree              float64 `yaml:"damage_tree"`
}

// StructureKindConfig holds radial parameters for one structure kind.
type StructureKindConfig struct {
	Radius            float64 `yaml:"radius"`             // Per-tick influence radius
	Strength          float64 `yaml:"strength"`           // Per-tick influence strength
	PlacementRadius   float64 `yaml:"placement_radius"`   // One-shot burst radius on placement
	PlacementStrength float64 `yaml:"placement_strength"` // One-shot burst strength on placement
}

// InitialStructure is a structure placed at simulation start.
// Negative coordinates count from the far edge.
type InitialStructure struct {
	Kind string `yaml:"kind"` // sanctuary | pit
	X    int    `yaml:"x"`
	Y    int    `yaml:"y"`
}

// StructuresConfig holds emitter structure parameters.
type StructuresConfig struct {
	Sanctuary StructureKindConfig `yaml:"sanctuary"`
	Pit       StructureKindConfig `yaml:"pit"`
	Initial   []InitialStructure  `yaml:"initial"`
}

// Structure kinds as written in configuration.
const (
	StructureSanctuary = "sanctuary"
	StructurePit       = "pit"
)

// EventKindConfig holds parameters for one world event kind.
type EventKindConfig struct {
	Probability float64 `yaml:"probability"`
	Strength    float64 `yaml:"strength"`
	Radius      float64 `yaml:"radius"` // 0 = grid-wide
	Epicenters  int     `yaml:"epicenters"`
}

// EventsConfig holds event perturbation layer parameters.
type EventsConfig struct {
	Enabled      bool            `yaml:"enabled"`
	Interval     float64         `yaml:"interval"` // Seconds between rolls while idle
	Duration     float64         `yaml:"duration"` // Seconds an event stays active
	EdgeMargin   int             `yaml:"edge_margin"`
	ManaSurge    EventKindConfig `yaml:"mana_surge"`
	Bloom        EventKindConfig `yaml:"corruption_bloom"`
	Purification EventKindConfig `yaml:"purification_wave"`
	Earthquake   EventKindConfig `yaml:"magical_earthquake"`
}

// FaunaConfig holds wandering creature parameters.
type FaunaConfig struct {
	Enabled       bool    `yaml:"enabled"`
	Max           int     `yaml:"max"`
	SpawnInterval float64 `yaml:"spawn_interval"` // Seconds between spawn attempts
	SpawnChance   float64 `yaml:"spawn_chance"`
	StepInterval  float64 `yaml:"step_interval"` // Seconds between move/act steps
	InitialEnergy float64 `yaml:"initial_energy"`
	EnergyDrain   float64 `yaml:"energy_drain"` // Per step
	SearchRadius  int     `yaml:"search_radius"`
	SpawnAttempts int     `yaml:"spawn_attempts"`
}

// UnitsConfig holds faction unit parameters.
type UnitsConfig struct {
	Enabled        bool    `yaml:"enabled"`
	PerStructure   int     `yaml:"per_structure"`
	MovePeriod     float64 `yaml:"move_period"`     // Seconds between greedy moves
	ActionInterval float64 `yaml:"action_interval"` // Seconds between point effects
	ActionRadius   float64 `yaml:"action_radius"`
	ActionStrength float64 `yaml:"action_strength"`
	SearchRadius   int     `yaml:"search_radius"`
	Leash          float64 `yaml:"leash"` // Max distance from home structure
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow    float64 `yaml:"stats_window"`    // Seconds per stats window
	PerfWindow     int     `yaml:"perf_window"`     // Steps in perf rolling window
	CorruptedLevel float64 `yaml:"corrupted_level"` // Corrupted-fraction threshold
}

// DerivedConfig holds values computed after loading.
type DerivedConfig struct {
	DT32              float32
	InitialStructures []InitialStructure // Coordinates resolved against the grid
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used. The merged result is
// validated before being returned.
func Load(path string) (*Config, error) {
	cfg, err := Defaults()
	if err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Defaults returns the embedded defaults without derived values.
func Defaults() (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	return cfg, nil
}

// MustDefaults is like Defaults followed by Finalize but panics on error.
func MustDefaults() *Config {
	cfg, err := Defaults()
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	if err := cfg.Finalize(); err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return cfg
}

// Finalize validates the configuration and recomputes derived values.
// Call it again after mutating fields programmatically.
func (c *Config) Finalize() error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Sim.DT)

	c.Terrain.DecayEnabled = c.Sim.Erosion == ErosionTerrainDecay
	c.Corruption.DamageEnabled = c.Sim.Erosion == ErosionFeedbackDamage
	c.Terrain.Workers = c.Sim.Workers

	c.Derived.InitialStructures = c.Derived.InitialStructures[:0]
	for _, s := range c.Structures.Initial {
		r := s
		if r.X < 0 {
			r.X += c.Grid.Width
		}
		if r.Y < 0 {
			r.Y += c.Grid.Height
		}
		c.Derived.InitialStructures = append(c.Derived.InitialStructures, r)
	}
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	out := *c
	out.Structures.Initial = append([]InitialStructure(nil), c.Structures.Initial...)
	out.Derived.InitialStructures = append([]InitialStructure(nil), c.Derived.InitialStructures...)
	return &out
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
