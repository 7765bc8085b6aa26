package telemetry

import (
	"math"

	"github.com/pthm-cable/leyline/field"
	"github.com/pthm-cable/leyline/systems"
)

// Collector accumulates activity within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float32

	// Current window tracking
	windowStartTick int32

	// Counters for current window
	terrainTicks    int
	corruptionTicks int
	promotions      int
	demotions       int
	eventsStarted   int
	placements      int
	faunaSpawned    int
	faunaDied       int
	unitActions     int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec float64, dt float32) *Collector {
	ticksPerWindow := int32(math.Round(windowDurationSec / float64(dt)))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordStep records which automata ran and the terrain transitions they
// caused. Moves to a denser state count as promotions.
func (c *Collector) RecordStep(res systems.StepResult) {
	for _, name := range res.Ran {
		switch name {
		case PhaseTerrain:
			c.terrainTicks++
		case PhaseCorruption:
			c.corruptionTicks++
		}
	}
	for from := range res.Transitions {
		for to, n := range res.Transitions[from] {
			if n == 0 || from == to {
				continue
			}
			if field.ManaDensity(field.Terrain(to)) > field.ManaDensity(field.Terrain(from)) {
				c.promotions += n
			} else {
				c.demotions += n
			}
		}
	}
}

// RecordEventStart records a world event starting.
func (c *Collector) RecordEventStart() {
	c.eventsStarted++
}

// RecordPlacement records a structure placement.
func (c *Collector) RecordPlacement() {
	c.placements++
}

// RecordFauna records spawns and deaths from one fauna update.
func (c *Collector) RecordFauna(stats systems.FaunaStats) {
	c.faunaSpawned += stats.Spawned
	c.faunaDied += stats.Died
}

// RecordUnitActions records point effects applied by units.
func (c *Collector) RecordUnitActions(n int) {
	c.unitActions += n
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Population holds agent and structure counts at window end.
type Population struct {
	Fauna      int
	Units      int
	Structures int
}

// Flush produces a WindowStats and resets counters for the next window.
// The caller must provide:
// - currentTick: the current simulation tick
// - fs: field statistics sampled at window end
// - pop: agent and structure counts
// - activeEvent: the running event kind, or "none"
func (c *Collector) Flush(currentTick int32, fs FieldStats, pop Population, activeEvent string) WindowStats {
	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * float64(c.dt),

		Barren:       fs.Counts[field.Barren],
		Attuned:      fs.Counts[field.Attuned],
		Crystallized: fs.Counts[field.Crystallized],
		Trees:        fs.Counts[field.AncientTree],

		CorruptionMean: fs.CorruptionMean,
		CorruptionStd:  fs.CorruptionStd,
		CorruptionP10:  fs.CorruptionP10,
		CorruptionP50:  fs.CorruptionP50,
		CorruptionP90:  fs.CorruptionP90,

		ManaTerritory:       fs.Territory.Mana,
		CorruptionTerritory: fs.Territory.Corruption,
		ManaShare:           fs.Territory.ManaShare(),
		CorruptedFraction:   fs.Territory.CorruptionShare(),

		TerrainTicks:    c.terrainTicks,
		CorruptionTicks: c.corruptionTicks,
		Promotions:      c.promotions,
		Demotions:       c.demotions,
		EventsStarted:   c.eventsStarted,
		Placements:      c.placements,
		FaunaSpawned:    c.faunaSpawned,
		FaunaDied:       c.faunaDied,
		UnitActions:     c.unitActions,

		Fauna:      pop.Fauna,
		Units:      pop.Units,
		Structures: pop.Structures,

		ActiveEvent: activeEvent,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.terrainTicks = 0
	c.corruptionTicks = 0
	c.promotions = 0
	c.demotions = 0
	c.eventsStarted = 0
	c.placements = 0
	c.faunaSpawned = 0
	c.faunaDied = 0
	c.unitActions = 0

	return stats
}

// Reset discards the current window and restarts counting at tick 0.
func (c *Collector) Reset() {
	c.Flush(0, FieldStats{}, Population{}, "")
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
