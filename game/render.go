package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/leyline/components"
	"github.com/pthm-cable/leyline/renderer"
	"github.com/pthm-cable/leyline/systems"
	"github.com/pthm-cable/leyline/ui"
)

// Side panel layout
const (
	panelWidth  = 260
	panelMargin = 10
)

// Agent colours by kind.
var agentColors = [components.NumAgentKinds]rl.Color{
	components.Lumispark:     {R: 255, G: 240, B: 120, A: 255},
	components.Shadowling:    {R: 90, G: 20, B: 110, A: 255},
	components.NeutralSpirit: {R: 200, G: 200, B: 200, A: 255},
	components.Mage:          {R: 120, G: 200, B: 255, A: 255},
	components.Thrall:        {R: 220, G: 60, B: 30, A: 255},
}

// initView creates the renderer and panels. The raylib window must exist
// before the first Draw.
func (g *Game) initView() {
	g.gridRenderer = renderer.NewGridRenderer(g.grid)
	g.overlays = ui.NewOverlayRegistry()

	panelX := int32(float32(g.grid.Width())*g.cellSize) + panelMargin
	g.controls = ui.NewControlPanel(panelX, panelMargin, panelWidth)
	g.hud = ui.NewHUD(panelX, panelMargin+g.controls.Height(g.overlays)+panelMargin, panelWidth)
	g.perfPanel = ui.NewPerfPanel(panelMargin+6, int32(float32(g.grid.Height())*g.cellSize)+panelMargin+6, systems.NewSystemRegistry())
}

// Draw renders the game.
func (g *Game) Draw() {
	g.perfCollector.RecordFrame()

	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 15, G: 18, B: 22, A: 255})

	g.gridRenderer.Draw(g.grid, 0, 0, g.cellSize)
	if g.overlays.IsEnabled(ui.OverlayGridLines) {
		g.gridRenderer.DrawGridLines(0, 0, g.cellSize)
	}
	if g.overlays.IsEnabled(ui.OverlayRadii) {
		g.drawRadii()
	}
	if g.overlays.IsEnabled(ui.OverlayEpicenters) {
		g.drawEpicenters()
	}
	if g.overlays.IsEnabled(ui.OverlayStructures) {
		g.drawStructures()
	}
	if g.overlays.IsEnabled(ui.OverlayAgents) {
		g.drawAgents()
	}

	g.drawUI()

	rl.EndDrawing()
}

// cellCenter returns the screen centre of a cell.
func (g *Game) cellCenter(x, y int) (int32, int32) {
	half := g.cellSize / 2
	return int32(float32(x)*g.cellSize + half), int32(float32(y)*g.cellSize + half)
}

// drawStructures draws sanctuaries as light diamonds and pits as dark squares.
func (g *Game) drawStructures() {
	size := g.cellSize * 0.8
	for _, s := range g.structures.All() {
		cx, cy := g.cellCenter(s.X, s.Y)
		center := rl.Vector2{X: float32(cx), Y: float32(cy)}
		if s.Kind == systems.KindPit {
			rl.DrawPoly(center, 4, size/2, 0, rl.Color{R: 40, G: 0, B: 30, A: 255})
			rl.DrawPolyLines(center, 4, size/2, 0, rl.Color{R: 200, G: 40, B: 60, A: 255})
			continue
		}
		rl.DrawPoly(center, 4, size/2, 45, rl.Color{R: 250, G: 245, B: 210, A: 255})
		rl.DrawPolyLines(center, 4, size/2, 45, rl.Color{R: 90, G: 140, B: 255, A: 255})
	}
}

// drawRadii outlines each structure's per-tick influence radius.
func (g *Game) drawRadii() {
	for _, e := range g.structures.Sanctuaries() {
		cx, cy := g.cellCenter(e.X, e.Y)
		rl.DrawCircleLines(cx, cy, float32(e.Radius)*g.cellSize, rl.Color{R: 120, G: 170, B: 255, A: 160})
	}
	for _, e := range g.structures.Pits() {
		cx, cy := g.cellCenter(e.X, e.Y)
		rl.DrawCircleLines(cx, cy, float32(e.Radius)*g.cellSize, rl.Color{R: 255, G: 80, B: 80, A: 160})
	}
}

// drawEpicenters marks the active event's epicenters.
func (g *Game) drawEpicenters() {
	for _, e := range g.events.Epicenters() {
		cx, cy := g.cellCenter(e.X, e.Y)
		r := float32(e.Radius) * g.cellSize
		if r <= 0 {
			r = g.cellSize
		}
		rl.DrawCircleLines(cx, cy, r, rl.Color{R: 255, G: 220, B: 0, A: 200})
		rl.DrawCircle(cx, cy, g.cellSize*0.2, rl.Color{R: 255, G: 220, B: 0, A: 200})
	}
}

// drawAgents draws fauna and units as dots; units are outlined.
func (g *Game) drawAgents() {
	radius := g.cellSize * 0.25
	g.fauna.Each(func(pos components.Position, agent components.Agent) {
		cx, cy := g.cellCenter(pos.X, pos.Y)
		rl.DrawCircle(cx, cy, radius, agentColors[agent.Kind])
	})
	g.units.Each(func(pos components.Position, agent components.Agent) {
		cx, cy := g.cellCenter(pos.X, pos.Y)
		rl.DrawCircle(cx, cy, radius*1.3, agentColors[agent.Kind])
		rl.DrawCircleLines(cx, cy, radius*1.3, rl.Black)
	})
}

// drawUI renders the control panel, HUD, event banner and tooltips.
func (g *Game) drawUI() {
	actions := g.controls.Draw(ui.ControlState{
		TerrainInterval:    float32(g.terrainInterval),
		CorruptionInterval: float32(g.corruptionInterval),
		Paused:             g.paused,
		EventsEnabled:      g.events.Enabled(),
	}, g.overlays)

	fs := g.computeFieldStats()
	g.hud.Draw(ui.HUDData{
		Tick:           g.tick,
		SimTime:        g.SimTime(),
		FPS:            rl.GetFPS(),
		Paused:         g.paused,
		Counts:         fs.Counts,
		Territory:      fs.Territory,
		CorruptionMean: fs.CorruptionMean,
		Fauna:          g.fauna.Count(),
		Units:          g.units.Count(),
		Structures:     g.structures.Len(),
		Event:          g.events.Status(),
	})

	g.hud.DrawEventBanner(g.events.Status(), int32(float32(g.grid.Width())*g.cellSize))
	g.hud.DrawControls(int32(rl.GetScreenHeight()),
		"[LMB] Sanctuary  [RMB] Pit  [Shift+Click] Remove  [Space] Pause  [E] Event  [R] Reset")

	if g.overlays.IsEnabled(ui.OverlayPerformance) {
		g.perfPanel.Draw(g.perfCollector.Stats())
	}

	if g.overlays.IsEnabled(ui.OverlayCellInfo) {
		mouse := rl.GetMousePosition()
		if x, y, ok := g.CellAt(mouse.X, mouse.Y); ok {
			sanct, pit := g.influenceAt(x, y)
			g.hud.DrawCellInfo(ui.CellInfo{
				X:          x,
				Y:          y,
				Terrain:    g.grid.Terrain(x, y),
				Corruption: g.grid.Corruption(x, y),
				Age:        g.grid.Age(x, y),
				Sanctuary:  sanct,
				Pit:        pit,
			}, int32(mouse.X), int32(mouse.Y))
		}
	}

	g.applyControls(actions)
}
