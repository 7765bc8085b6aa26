// Package game owns one running simulation: it builds the grid, automata,
// structures, events, agents and telemetry from a config, advances them on
// a fixed step, and optionally draws them with raylib.
package game

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/leyline/config"
	"github.com/pthm-cable/leyline/field"
	"github.com/pthm-cable/leyline/renderer"
	"github.com/pthm-cable/leyline/systems"
	"github.com/pthm-cable/leyline/telemetry"
	"github.com/pthm-cable/leyline/ui"
)

// Options configures a game beyond what the config file holds.
type Options struct {
	Seed           int64
	LogStats       bool                        // Log window and perf stats via slog
	StatsWindowSec float64                     // 0 = telemetry.stats_window
	OutputDir      string                      // Empty disables CSV output
	Headless       bool                        // No renderer or UI
	Workers        int                         // 0 = sim.workers
	StatsCallback  func(telemetry.WindowStats) // Called after each window flush
}

// Game holds the complete simulation state.
type Game struct {
	cfg  *config.Config
	seed int64
	rng  *rand.Rand

	// Fields and the automata that evolve them
	grid       *field.Grid
	terrain    *systems.TerrainAutomaton
	corruption *systems.CorruptionAutomaton
	stepper    systems.Stepper
	due        []systems.Automaton

	structures *systems.Structures
	events     *systems.EventLayer

	// Mobile agents
	world *ecs.World
	fauna *systems.FaunaSystem
	units *systems.UnitSystem

	// Telemetry
	collector        *telemetry.Collector
	perfCollector    *telemetry.PerfCollector
	outputManager    *telemetry.OutputManager
	bookmarkDetector *telemetry.BookmarkDetector
	statsCallback    func(telemetry.WindowStats)
	statsScratch     []float64
	lastStats        telemetry.WindowStats
	logStats         bool

	// Scheduler
	tick               int32
	accum              float64
	terrainInterval    float64
	corruptionInterval float64
	terrainTimer       float64
	corruptionTimer    float64
	paused             bool

	// Rendering (nil when headless)
	headless     bool
	gridRenderer *renderer.GridRenderer
	hud          *ui.HUD
	controls     *ui.ControlPanel
	perfPanel    *ui.PerfPanel
	overlays     *ui.OverlayRegistry
	cellSize     float32
}

// New builds a game from cfg. cfg is cloned; the caller may keep using it.
func New(cfg *config.Config, opts Options) (*Game, error) {
	cfg = cfg.Clone()
	if opts.Workers > 0 {
		cfg.Sim.Workers = opts.Workers
	}
	if opts.StatsWindowSec > 0 {
		cfg.Telemetry.StatsWindow = opts.StatsWindowSec
	}
	if err := cfg.Finalize(); err != nil {
		return nil, err
	}

	grid, err := field.New(cfg.Grid.Width, cfg.Grid.Height)
	if err != nil {
		return nil, err
	}
	terrain, err := systems.NewTerrainAutomaton(cfg.Terrain)
	if err != nil {
		return nil, fmt.Errorf("terrain automaton: %w", err)
	}
	corruption, err := systems.NewCorruptionAutomaton(cfg.Corruption)
	if err != nil {
		return nil, fmt.Errorf("corruption automaton: %w", err)
	}
	structures, err := systems.NewStructures(cfg.Structures)
	if err != nil {
		return nil, fmt.Errorf("structures: %w", err)
	}
	events, err := systems.NewEventLayer(cfg.Events)
	if err != nil {
		return nil, fmt.Errorf("event layer: %w", err)
	}

	world := ecs.NewWorld()

	g := &Game{
		cfg:        cfg,
		seed:       opts.Seed,
		rng:        rand.New(rand.NewSource(opts.Seed)),
		grid:       grid,
		terrain:    terrain,
		corruption: corruption,
		structures: structures,
		events:     events,
		world:      world,
		fauna:      systems.NewFaunaSystem(world, cfg.Fauna),
		units:      systems.NewUnitSystem(world, cfg.Units),

		collector:        telemetry.NewCollector(cfg.Telemetry.StatsWindow, cfg.Derived.DT32),
		perfCollector:    telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		bookmarkDetector: telemetry.NewBookmarkDetector(10),
		statsCallback:    opts.StatsCallback,
		logStats:         opts.LogStats,

		terrainInterval:    cfg.Sim.TerrainInterval,
		corruptionInterval: cfg.Sim.CorruptionInterval,
		headless:           opts.Headless,
		cellSize:           float32(cfg.Screen.CellSize),
	}
	g.stepper.OnPhase = g.perfCollector.StartPhase
	g.events.OnChange(g.onEventChange)

	if opts.OutputDir != "" {
		om, err := telemetry.NewOutputManager(opts.OutputDir)
		if err != nil {
			return nil, fmt.Errorf("output manager: %w", err)
		}
		g.outputManager = om
		if err := om.WriteConfig(cfg); err != nil {
			slog.Error("failed to write config snapshot", "error", err)
		}
	}

	if err := g.populate(); err != nil {
		g.Close()
		return nil, err
	}

	if !g.headless {
		g.initView()
	}

	slog.Info("simulation created",
		"seed", g.seed,
		"grid", fmt.Sprintf("%dx%d", cfg.Grid.Width, cfg.Grid.Height),
		"erosion", cfg.Sim.Erosion,
		"structures", g.structures.Len(),
		"workers", cfg.Sim.Workers,
	)
	return g, nil
}

// Config returns the effective configuration.
func (g *Game) Config() *config.Config { return g.cfg }

// Seed returns the RNG seed the game was built with.
func (g *Game) Seed() int64 { return g.seed }

// Tick returns the number of fixed steps run since start or reset.
func (g *Game) Tick() int32 { return g.tick }

// SimTime returns elapsed simulation seconds.
func (g *Game) SimTime() float64 { return float64(g.tick) * g.cfg.Sim.DT }

// Grid returns the committed grid. Callers must not mutate it.
func (g *Game) Grid() *field.Grid { return g.grid }

// Events returns the event layer.
func (g *Game) Events() *systems.EventLayer { return g.events }

// Structures returns the structure registry.
func (g *Game) Structures() *systems.Structures { return g.structures }

// FaunaCount returns the number of living creatures.
func (g *Game) FaunaCount() int { return g.fauna.Count() }

// UnitCount returns the number of faction units.
func (g *Game) UnitCount() int { return g.units.Count() }

// LastStats returns the most recently flushed telemetry window.
func (g *Game) LastStats() telemetry.WindowStats { return g.lastStats }

// Territory counts mana, corrupted and neutral cells on the committed grid.
func (g *Game) Territory() telemetry.Territory {
	return g.computeFieldStats().Territory
}

func (g *Game) computeFieldStats() telemetry.FieldStats {
	var fs telemetry.FieldStats
	fs, g.statsScratch = telemetry.ComputeFieldStats(g.grid, g.cfg.Telemetry.CorruptedLevel, g.statsScratch)
	return fs
}

// Digest returns the state digest of the committed grid.
func (g *Game) Digest() string { return field.Digest(g.grid) }

// Close flushes telemetry output and releases view resources.
func (g *Game) Close() error {
	if g.gridRenderer != nil {
		g.gridRenderer.Unload()
		g.gridRenderer = nil
	}
	err := g.outputManager.Close()
	g.outputManager = nil
	return err
}
