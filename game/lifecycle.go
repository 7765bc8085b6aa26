package game

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/pthm-cable/leyline/systems"
	"github.com/pthm-cable/leyline/telemetry"
)

// populate seeds both fields, registers the configured initial structures
// and arms the interval timers.
func (g *Game) populate() error {
	systems.SeedGrid(g.grid, g.cfg.Seeding, g.seed, g.rng)

	// Initial structures are registered as-is: no placement check and no
	// placement burst.
	for i, is := range g.cfg.Derived.InitialStructures {
		kind, err := systems.ParseStructureKind(is.Kind)
		if err != nil {
			return fmt.Errorf("structures.initial[%d]: %w", i, err)
		}
		id := g.structures.Add(kind, is.X, is.Y)
		s, _ := g.structures.Get(id)
		g.units.SpawnFor(s)
	}

	g.terrainTimer = g.terrainInterval
	g.corruptionTimer = g.corruptionInterval
	g.grid.Commit()
	return nil
}

// Reset restores the state the game was created in: same seed, same
// initial structures. Tuned tick intervals and the pause state are kept.
func (g *Game) Reset() error {
	g.grid.Reset()
	g.rng = rand.New(rand.NewSource(g.seed))
	g.structures.Clear()
	g.fauna.Clear()
	g.units.Clear()
	g.events.Reset()

	g.tick = 0
	g.accum = 0
	g.collector.Reset()
	g.perfCollector.Reset()
	g.bookmarkDetector = telemetry.NewBookmarkDetector(10)
	g.lastStats = telemetry.WindowStats{}

	if err := g.populate(); err != nil {
		return err
	}
	if g.gridRenderer != nil {
		g.gridRenderer.Invalidate()
	}
	slog.Info("simulation reset", "seed", g.seed)
	return nil
}
