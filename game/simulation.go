package game

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/leyline/config"
	"github.com/pthm-cable/leyline/field"
	"github.com/pthm-cable/leyline/systems"
	"github.com/pthm-cable/leyline/telemetry"
)

// timerEpsilon absorbs float drift when interval timers count down in
// multiples of dt.
const timerEpsilon = 1e-9

// Advance feeds dt seconds of wall time into the fixed-step accumulator and
// runs every step that became due. It returns the number of steps run.
// A paused game discards the time.
func (g *Game) Advance(dt float64) int {
	if g.paused || dt <= 0 {
		return 0
	}
	step := g.cfg.Sim.DT
	g.accum += dt
	n := 0
	for g.accum+timerEpsilon >= step {
		g.accum -= step
		g.simulationStep()
		n++
	}
	if g.accum < 0 {
		g.accum = 0
	}
	return n
}

// Step runs exactly one fixed step, ignoring pause.
func (g *Game) Step() {
	g.simulationStep()
}

// simulationStep runs a single tick of the simulation.
func (g *Game) simulationStep() {
	dt := g.cfg.Sim.DT
	g.perfCollector.StartTick()
	g.grid.BeginTick()

	// 1. Coordinated automaton step for whichever layers are due
	g.due = g.due[:0]
	g.terrainTimer -= dt
	if g.terrainTimer <= timerEpsilon {
		g.terrainTimer += g.terrainInterval
		g.due = append(g.due, g.terrain)
	}
	g.corruptionTimer -= dt
	if g.corruptionTimer <= timerEpsilon {
		g.corruptionTimer += g.corruptionInterval
		g.due = append(g.due, g.corruption)
	}
	if len(g.due) > 0 {
		res, err := g.stepper.Step(g.grid, g.structures, g.rng, g.due...)
		if err != nil {
			slog.Error("automaton step failed", "tick", g.tick, "error", err)
		} else {
			g.collector.RecordStep(res)
		}
	}

	// 2. Event perturbations write straight to the committed grid. Cells
	// the automaton promoted this tick are not promoted again.
	g.perfCollector.StartPhase(telemetry.PhaseEvents)
	dirty := g.events.Update(g.grid, dt, g.rng)

	// 3. Agents
	g.perfCollector.StartPhase(telemetry.PhaseFauna)
	fauna := g.fauna.Update(g.grid, dt, g.rng)
	g.collector.RecordFauna(fauna)
	dirty = dirty || g.fauna.Count() > 0 || fauna.Died > 0

	g.perfCollector.StartPhase(telemetry.PhaseUnits)
	actions := g.units.Update(g.grid, dt)
	g.collector.RecordUnitActions(actions)
	dirty = dirty || actions > 0

	if dirty {
		g.grid.Commit()
	}

	g.tick++

	// 4. Telemetry
	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.flushTelemetry()
	g.perfCollector.EndTick()
}

// TickInterval returns the seconds between ticks of the named automaton.
func (g *Game) TickInterval(name string) (float64, error) {
	switch name {
	case g.terrain.Name():
		return g.terrainInterval, nil
	case g.corruption.Name():
		return g.corruptionInterval, nil
	}
	return 0, fmt.Errorf("unknown automaton %q", name)
}

// SetTickInterval changes how often the named automaton ("terrain" or
// "corruption") runs. A pending tick is brought forward when the new
// interval is shorter than the time left.
func (g *Game) SetTickInterval(name string, seconds float64) error {
	if !(seconds > 0) {
		return &config.ConfigurationError{Field: "sim." + name + "_interval", Reason: "must be > 0"}
	}
	switch name {
	case g.terrain.Name():
		g.terrainInterval = seconds
		g.terrainTimer = min(g.terrainTimer, seconds)
	case g.corruption.Name():
		g.corruptionInterval = seconds
		g.corruptionTimer = min(g.corruptionTimer, seconds)
	default:
		return fmt.Errorf("unknown automaton %q", name)
	}
	slog.Info("tick interval changed", "automaton", name, "seconds", seconds)
	return nil
}

// Pause stops Advance from running steps.
func (g *Game) Pause() { g.paused = true }

// Resume lets Advance run steps again.
func (g *Game) Resume() { g.paused = false }

// TogglePause flips the paused state and returns it.
func (g *Game) TogglePause() bool {
	g.paused = !g.paused
	return g.paused
}

// Paused reports whether the game is paused.
func (g *Game) Paused() bool { return g.paused }

// TriggerEvent starts a world event immediately. EventNone picks a kind at
// random. An active event is replaced.
func (g *Game) TriggerEvent(kind systems.EventKind) {
	if kind == systems.EventNone {
		kind = systems.EventKinds[g.rng.Intn(len(systems.EventKinds))]
	}
	g.events.Trigger(kind, g.grid, g.rng)
}

// SetEventsEnabled toggles the random event timer.
func (g *Game) SetEventsEnabled(on bool) {
	g.events.SetEnabled(on)
	slog.Info("events toggled", "enabled", on)
}

// PlaceStructure validates and builds a structure at (x, y). A new
// structure applies its one-shot placement burst, spawns its units and is
// committed immediately. Invalid cells return systems.ErrInvalidPlacement.
func (g *Game) PlaceStructure(kind systems.StructureKind, x, y int) (systems.StructureID, error) {
	if !systems.CanPlace(g.grid, kind, x, y, float32(g.cfg.Telemetry.CorruptedLevel)) {
		return 0, fmt.Errorf("%s at (%d,%d): %w", kind, x, y, systems.ErrInvalidPlacement)
	}

	systems.PlacementBurst(g.grid, kind, x, y, g.structures.Params(kind))
	id := g.structures.Add(kind, x, y)
	s, _ := g.structures.Get(id)
	g.units.SpawnFor(s)
	g.grid.Commit()

	g.recordPlacement(s)
	return id, nil
}

// RemoveStructure deregisters a structure and retires its units. The field
// changes it already caused remain.
func (g *Game) RemoveStructure(id systems.StructureID) bool {
	if !g.structures.Remove(id) {
		return false
	}
	g.units.RemoveFor(id)
	slog.Info("structure removed", "id", id, "tick", g.tick)
	return true
}

// StructureAt returns the structure standing on (x, y), if any.
func (g *Game) StructureAt(x, y int) (systems.Structure, bool) {
	for _, s := range g.structures.All() {
		if s.X == x && s.Y == y {
			return s, true
		}
	}
	return systems.Structure{}, false
}

// CellAt maps a screen position to a grid cell.
func (g *Game) CellAt(px, py float32) (int, int, bool) {
	if g.cellSize <= 0 || px < 0 || py < 0 {
		return 0, 0, false
	}
	x, y := int(px/g.cellSize), int(py/g.cellSize)
	return x, y, g.grid.IsValid(x, y)
}

// influenceAt sums structure influence at a cell for the cell tooltip.
func (g *Game) influenceAt(x, y int) (sanctuary, pit float64) {
	return field.AccumulateInfluence(g.structures.Sanctuaries(), x, y),
		field.AccumulateInfluence(g.structures.Pits(), x, y)
}
