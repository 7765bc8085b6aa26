package game

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/leyline/config"
	"github.com/pthm-cable/leyline/field"
	"github.com/pthm-cable/leyline/systems"
	"github.com/pthm-cable/leyline/telemetry"
)

func newHeadless(t *testing.T, seed int64, mutate func(*config.Config), opts Options) *Game {
	t.Helper()
	cfg := config.MustDefaults()
	if mutate != nil {
		mutate(cfg)
	}
	opts.Seed = seed
	opts.Headless = true
	g, err := New(cfg, opts)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { g.Close() })
	return g
}

func TestSameSeedSameDigest(t *testing.T) {
	a := newHeadless(t, 42, nil, Options{})
	b := newHeadless(t, 42, nil, Options{})
	for i := 0; i < 200; i++ {
		a.Step()
		b.Step()
	}
	if a.Digest() != b.Digest() {
		t.Fatalf("digests diverged after 200 steps: %s vs %s", a.Digest(), b.Digest())
	}

	c := newHeadless(t, 43, nil, Options{})
	for i := 0; i < 200; i++ {
		c.Step()
	}
	if c.Digest() == a.Digest() {
		t.Error("different seeds produced identical grids")
	}
}

func TestAdvanceRunsFixedSteps(t *testing.T) {
	g := newHeadless(t, 1, nil, Options{})

	if n := g.Advance(1.0); n != 10 {
		t.Fatalf("Advance(1.0) ran %d steps, want 10", n)
	}
	if n := g.Advance(0.05); n != 0 {
		t.Fatalf("Advance(0.05) ran %d steps, want 0", n)
	}
	if n := g.Advance(0.05); n != 1 {
		t.Fatalf("second Advance(0.05) ran %d steps, want 1", n)
	}
	if g.Tick() != 11 {
		t.Fatalf("Tick = %d, want 11", g.Tick())
	}

	g.Pause()
	if n := g.Advance(5); n != 0 {
		t.Errorf("paused Advance ran %d steps", n)
	}
	g.Step()
	if g.Tick() != 12 {
		t.Errorf("Step while paused: Tick = %d, want 12", g.Tick())
	}
	if g.TogglePause() {
		t.Error("TogglePause should resume")
	}
}

func TestIntervalsGateAutomata(t *testing.T) {
	g := newHeadless(t, 3, func(c *config.Config) {
		c.Events.Enabled = false
		c.Fauna.Enabled = false
		c.Units.Enabled = false
		c.Structures.Initial = nil
	}, Options{})

	// Terrain and corruption both run every 0.5s at dt 0.1.
	rev := g.Grid().Revision()
	for i := 0; i < 4; i++ {
		g.Step()
	}
	if g.Grid().Revision() != rev {
		t.Fatalf("grid committed before the first interval elapsed")
	}
	g.Step()
	if g.Grid().Revision() != rev+1 {
		t.Fatalf("revision = %d, want %d after first interval", g.Grid().Revision(), rev+1)
	}
}

func TestSetTickInterval(t *testing.T) {
	g := newHeadless(t, 1, nil, Options{})

	tests := []struct {
		name    string
		auto    string
		seconds float64
		wantErr bool
	}{
		{"terrain", "terrain", 1.5, false},
		{"corruption", "corruption", 0.2, false},
		{"zero", "terrain", 0, true},
		{"negative", "corruption", -1, true},
		{"unknown", "weather", 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.SetTickInterval(tt.auto, tt.seconds)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SetTickInterval(%q, %v) error = %v, wantErr %v", tt.auto, tt.seconds, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			got, err := g.TickInterval(tt.auto)
			if err != nil || got != tt.seconds {
				t.Errorf("TickInterval(%q) = %v, %v", tt.auto, got, err)
			}
		})
	}

	var ce *config.ConfigurationError
	if err := g.SetTickInterval("terrain", 0); !errors.As(err, &ce) {
		t.Errorf("zero interval error = %v, want ConfigurationError", err)
	}
}

func TestPlaceStructure(t *testing.T) {
	g := newHeadless(t, 1, func(c *config.Config) {
		c.Seeding.Mode = config.SeedEmpty
		c.Structures.Initial = nil
		c.Fauna.Enabled = false
	}, Options{})
	grid := g.Grid()

	// Barren ground cannot take a sanctuary.
	if _, err := g.PlaceStructure(systems.KindSanctuary, 20, 15); !errors.Is(err, systems.ErrInvalidPlacement) {
		t.Fatalf("sanctuary on barren: err = %v, want ErrInvalidPlacement", err)
	}

	grid.SetTerrain(20, 15, field.Attuned)
	grid.SetCorruption(20, 15, 0.2)
	rev := grid.Revision()
	id, err := g.PlaceStructure(systems.KindSanctuary, 20, 15)
	if err != nil {
		t.Fatalf("sanctuary on attuned: %v", err)
	}
	if grid.Revision() == rev {
		t.Error("placement was not committed")
	}
	if grid.Corruption(20, 15) >= 0.2 {
		t.Errorf("placement burst left corruption at %v", grid.Corruption(20, 15))
	}
	if g.UnitCount() != g.Config().Units.PerStructure {
		t.Errorf("UnitCount = %d, want %d", g.UnitCount(), g.Config().Units.PerStructure)
	}
	if s, ok := g.StructureAt(20, 15); !ok || s.ID != id {
		t.Errorf("StructureAt = %+v %v", s, ok)
	}

	// Pits need already corrupted ground.
	if _, err := g.PlaceStructure(systems.KindPit, 5, 5); !errors.Is(err, systems.ErrInvalidPlacement) {
		t.Fatalf("pit on clean ground: err = %v", err)
	}
	grid.SetCorruption(5, 5, 0.9)
	if _, err := g.PlaceStructure(systems.KindPit, 5, 5); err != nil {
		t.Fatalf("pit on corrupted ground: %v", err)
	}
	if _, err := g.PlaceStructure(systems.KindPit, -1, 5); !errors.Is(err, systems.ErrInvalidPlacement) {
		t.Errorf("out of bounds: err = %v", err)
	}

	if !g.RemoveStructure(id) {
		t.Fatal("RemoveStructure returned false")
	}
	if g.RemoveStructure(id) {
		t.Error("second RemoveStructure returned true")
	}
	if g.Structures().Len() != 1 {
		t.Errorf("Structures().Len() = %d, want 1", g.Structures().Len())
	}
}

func TestStepNeverSkipsATier(t *testing.T) {
	g := newHeadless(t, 11, func(c *config.Config) {
		c.Sim.TerrainInterval = c.Sim.DT
		c.Sim.CorruptionInterval = c.Sim.DT
		c.Terrain.TreeEmissionProbability = 1
		for _, kc := range []*config.EventKindConfig{&c.Events.ManaSurge, &c.Events.Purification, &c.Events.Earthquake} {
			kc.Strength = 1
		}
		c.Events.ManaSurge.Radius = 8
		c.Events.ManaSurge.Epicenters = 5
	}, Options{})
	grid := g.Grid()

	kinds := []systems.EventKind{systems.ManaSurge, systems.PurificationWave, systems.MagicalEarthquake}
	before := make([]field.Terrain, grid.Len())
	for i := 0; i < 60; i++ {
		g.TriggerEvent(kinds[i%len(kinds)])
		for y := 0; y < grid.Height(); y++ {
			for x := 0; x < grid.Width(); x++ {
				before[y*grid.Width()+x] = grid.Terrain(x, y)
			}
		}
		g.Step()
		for y := 0; y < grid.Height(); y++ {
			for x := 0; x < grid.Width(); x++ {
				from, to := before[y*grid.Width()+x], grid.Terrain(x, y)
				if from == field.Barren && (to == field.Crystallized || to == field.AncientTree) {
					t.Fatalf("step %d: (%d,%d) went %s→%s", i, x, y, from, to)
				}
			}
		}
	}
}

func TestResetRestoresInitialState(t *testing.T) {
	g := newHeadless(t, 7, nil, Options{})
	initial := g.Digest()
	structures := g.Structures().Len()
	units := g.UnitCount()

	if err := g.SetTickInterval("terrain", 0.3); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 150; i++ {
		g.Step()
	}
	g.TriggerEvent(systems.ManaSurge)

	if err := g.Reset(); err != nil {
		t.Fatal(err)
	}
	if g.Tick() != 0 {
		t.Errorf("Tick = %d after reset", g.Tick())
	}
	if g.Digest() != initial {
		t.Error("reset grid differs from the initial grid")
	}
	if g.Structures().Len() != structures || g.UnitCount() != units {
		t.Errorf("reset left %d structures and %d units, want %d and %d",
			g.Structures().Len(), g.UnitCount(), structures, units)
	}
	if g.FaunaCount() != 0 {
		t.Errorf("FaunaCount = %d after reset", g.FaunaCount())
	}
	if _, _, ok := g.Events().CurrentEvent(); ok {
		t.Error("event still active after reset")
	}
	if iv, _ := g.TickInterval("terrain"); iv != 0.3 {
		t.Errorf("terrain interval = %v after reset, want 0.3 kept", iv)
	}
}

func TestTelemetryOutput(t *testing.T) {
	dir := t.TempDir()
	var windows []telemetry.WindowStats
	g := newHeadless(t, 5, nil, Options{
		OutputDir:      dir,
		StatsWindowSec: 1.0,
		StatsCallback:  func(s telemetry.WindowStats) { windows = append(windows, s) },
	})

	g.TriggerEvent(systems.CorruptionBloom)
	for i := 0; i < 30; i++ {
		g.Step()
	}
	if len(windows) != 3 {
		t.Fatalf("got %d windows, want 3", len(windows))
	}
	last := windows[2]
	if last.WindowEndTick != 30 || g.LastStats().WindowEndTick != 30 {
		t.Errorf("last window ends at %d", last.WindowEndTick)
	}
	cells := last.Barren + last.Attuned + last.Crystallized + last.Trees
	if cells != g.Grid().Len() {
		t.Errorf("terrain counts sum to %d, want %d", cells, g.Grid().Len())
	}

	if err := g.Close(); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"config.yaml", "telemetry.csv", "perf.csv", "events.csv"} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", name)
		}
	}

	if _, err := config.Load(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config snapshot does not reload: %v", err)
	}
}

func TestCellAt(t *testing.T) {
	g := newHeadless(t, 1, nil, Options{})
	size := g.Config().Screen.CellSize

	tests := []struct {
		name   string
		px, py float32
		x, y   int
		ok     bool
	}{
		{"origin", 0, 0, 0, 0, true},
		{"inside", float32(size)*3 + 1, float32(size)*2 + 1, 3, 2, true},
		{"negative", -1, 5, 0, 0, false},
		{"past right edge", float32(size * g.Grid().Width()), 0, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, ok := g.CellAt(tt.px, tt.py)
			if ok != tt.ok || (ok && (x != tt.x || y != tt.y)) {
				t.Errorf("CellAt(%v, %v) = %d, %d, %v", tt.px, tt.py, x, y, ok)
			}
		})
	}
}
