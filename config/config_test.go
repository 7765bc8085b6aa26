package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}
	if cfg.Grid.Width != 50 || cfg.Grid.Height != 30 {
		t.Errorf("grid = %dx%d, want 50x30", cfg.Grid.Width, cfg.Grid.Height)
	}
	if !cfg.Terrain.DecayEnabled || cfg.Corruption.DamageEnabled {
		t.Error("default erosion should enable terrain decay only")
	}
	if len(cfg.Derived.InitialStructures) != 4 {
		t.Fatalf("expected 4 initial structures, got %d", len(cfg.Derived.InitialStructures))
	}
	// (-10,-10) resolves against the 50x30 grid
	got := cfg.Derived.InitialStructures[1]
	if got.X != 40 || got.Y != 20 {
		t.Errorf("resolved structure = (%d,%d), want (40,20)", got.X, got.Y)
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	body := "grid:\n  width: 12\n  height: 8\nstructures:\n  initial: []\nsim:\n  erosion: feedback_damage\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Grid.Width != 12 || cfg.Grid.Height != 8 {
		t.Errorf("grid = %dx%d, want 12x8", cfg.Grid.Width, cfg.Grid.Height)
	}
	// Untouched keys keep their defaults
	if cfg.Terrain.BirthProbability != 0.3 {
		t.Errorf("birth_probability = %v, want default 0.3", cfg.Terrain.BirthProbability)
	}
	if cfg.Terrain.DecayEnabled || !cfg.Corruption.DamageEnabled {
		t.Error("feedback_damage should disable terrain decay and enable damage")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"zero width", func(c *Config) { c.Grid.Width = 0 }, "grid.width"},
		{"negative height", func(c *Config) { c.Grid.Height = -3 }, "grid.height"},
		{"probability above one", func(c *Config) { c.Terrain.BirthProbability = 1.5 }, "terrain.birth_probability"},
		{"negative radius", func(c *Config) { c.Structures.Sanctuary.Radius = -1 }, "structures.sanctuary.radius"},
		{"negative suppression radius", func(c *Config) { c.Terrain.TreeSuppressionRadius = -2 }, "terrain.tree_suppression_radius"},
		{"unknown erosion", func(c *Config) { c.Sim.Erosion = "both" }, "sim.erosion"},
		{"too many epicenters", func(c *Config) { c.Events.ManaSurge.Epicenters = 9 }, "events.mana_surge.epicenters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Defaults()
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(cfg)
			err = cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			var ce *ConfigurationError
			if !errors.As(err, &ce) {
				t.Fatalf("error %v is not a ConfigurationError", err)
			}
			if !mentionsField(err, tt.field) {
				t.Errorf("error %q does not mention %s", err, tt.field)
			}
		})
	}
}

func TestValidateCrossField(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"isolation above crystallization", func(c *Config) {
			c.Terrain.IsolationThreshold = 5
			c.Terrain.CrystallizationThreshold = 3
		}},
		{"event probabilities above one", func(c *Config) {
			c.Events.ManaSurge.Probability = 0.6
			c.Events.Bloom.Probability = 0.6
		}},
		{"corruption min above max", func(c *Config) {
			c.Seeding.CorruptionMin = 0.9
			c.Seeding.CorruptionMax = 0.2
		}},
		{"initial structure off grid", func(c *Config) {
			c.Structures.Initial = []InitialStructure{{Kind: StructurePit, X: 200, Y: 0}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, _ := Defaults()
			tt.mutate(cfg)
			var ce *ConfigurationError
			if err := cfg.Validate(); !errors.As(err, &ce) {
				t.Errorf("expected ConfigurationError, got %v", err)
			}
		})
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := MustDefaults()
	cfg.Grid.Width = 33
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load of written config failed: %v", err)
	}
	if back.Grid.Width != 33 {
		t.Errorf("width = %d, want 33", back.Grid.Width)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	cfg := MustDefaults()
	cp := cfg.Clone()
	cp.Structures.Initial[0].X = 1
	if cfg.Structures.Initial[0].X == 1 {
		t.Error("Clone shares the initial structure slice")
	}
}

func mentionsField(err error, field string) bool {
	var found bool
	walk(err, func(e error) {
		var ce *ConfigurationError
		if errors.As(e, &ce) && ce.Field == field {
			found = true
		}
	})
	return found
}

func walk(err error, fn func(error)) {
	if err == nil {
		return
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range j.Unwrap() {
			walk(e, fn)
		}
		return
	}
	fn(err)
}
