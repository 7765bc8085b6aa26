package game

import (
	"errors"
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/leyline/systems"
	"github.com/pthm-cable/leyline/ui"
)

// maxFrameTime caps the wall time fed to Advance after a stall.
const maxFrameTime = 0.25

// Update handles input and advances the simulation by one frame.
func (g *Game) Update() {
	g.handleInput()

	dt := float64(rl.GetFrameTime())
	if dt > maxFrameTime {
		dt = maxFrameTime
	}
	g.Advance(dt)
}

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	if rl.IsKeyPressed(rl.KeySpace) {
		g.TogglePause()
	}
	if rl.IsKeyPressed(rl.KeyE) {
		g.TriggerEvent(systems.EventNone)
	}
	if rl.IsKeyPressed(rl.KeyR) {
		if err := g.Reset(); err != nil {
			slog.Error("reset failed", "error", err)
		}
	}

	// Overlay toggles
	for key := rl.GetKeyPressed(); key != 0; key = rl.GetKeyPressed() {
		g.overlays.HandleKeyPress(key)
	}

	g.handleMouse()
}

// handleMouse places structures: left click builds a sanctuary, right click
// a corruptor pit. Shift-click removes the structure under the cursor.
func (g *Game) handleMouse() {
	left := rl.IsMouseButtonPressed(rl.MouseButtonLeft)
	right := rl.IsMouseButtonPressed(rl.MouseButtonRight)
	if !left && !right {
		return
	}

	mouse := rl.GetMousePosition()
	if g.controls.Contains(mouse.X, mouse.Y, g.controls.Height(g.overlays)) {
		return
	}
	x, y, ok := g.CellAt(mouse.X, mouse.Y)
	if !ok {
		return
	}

	if rl.IsKeyDown(rl.KeyLeftShift) || rl.IsKeyDown(rl.KeyRightShift) {
		if s, ok := g.StructureAt(x, y); ok {
			g.RemoveStructure(s.ID)
		}
		return
	}

	kind := systems.KindSanctuary
	if right {
		kind = systems.KindPit
	}
	if _, err := g.PlaceStructure(kind, x, y); err != nil {
		if errors.Is(err, systems.ErrInvalidPlacement) {
			slog.Debug("placement rejected", "error", err)
			return
		}
		slog.Error("placement failed", "error", err)
	}
}

// applyControls applies the actions taken on the control panel.
func (g *Game) applyControls(a ui.ControlActions) {
	if a.IntervalsChanged {
		g.applyInterval(g.terrain.Name(), g.terrainInterval, a.TerrainInterval)
		g.applyInterval(g.corruption.Name(), g.corruptionInterval, a.CorruptionInterval)
	}
	if a.TogglePause {
		g.TogglePause()
	}
	if a.ToggleEvents {
		g.SetEventsEnabled(!g.events.Enabled())
	}
	if a.TriggerEvent {
		g.TriggerEvent(systems.EventNone)
	}
	if a.Reset {
		if err := g.Reset(); err != nil {
			slog.Error("reset failed", "error", err)
		}
	}
}

func (g *Game) applyInterval(name string, current float64, v float32) {
	if float32(current) == v {
		return
	}
	if err := g.SetTickInterval(name, float64(v)); err != nil {
		slog.Error("invalid tick interval", "automaton", name, "error", err)
	}
}
