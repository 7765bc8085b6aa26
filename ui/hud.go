package ui

import (
	"fmt"
	"strings"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/leyline/field"
	"github.com/pthm-cable/leyline/systems"
	"github.com/pthm-cable/leyline/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Tick           int32
	SimTime        float64
	FPS            int32
	Paused         bool
	Counts         field.TerrainCounts
	Territory      telemetry.Territory
	CorruptionMean float64
	Fauna          int
	Units          int
	Structures     int
	Event          systems.EventStatus
}

func hud(d any) *HUDData { return d.(*HUDData) }

// hudSections describes the territory panel.
var hudSections = []SectionDescriptor{
	{
		Title: "Territory",
		Fields: []FieldDescriptor{
			{Label: "Mana", Widget: WidgetBar, Color: DefaultTheme().ManaColor,
				Getter: func(d any) float32 { return float32(hud(d).Territory.ManaShare()) }},
			{Label: "Corrupted", Widget: WidgetBar, Color: DefaultTheme().CorruptColor,
				Getter: func(d any) float32 { return float32(hud(d).Territory.CorruptionShare()) }},
			{Label: "Mean c", Widget: WidgetText, Format: "%.3f",
				Getter: func(d any) float32 { return float32(hud(d).CorruptionMean) }},
		},
	},
	{
		Title: "Terrain",
		Fields: []FieldDescriptor{
			{Label: "Barren", Widget: WidgetText, Format: "%.0f",
				Getter: func(d any) float32 { return float32(hud(d).Counts[field.Barren]) }},
			{Label: "Attuned", Widget: WidgetText, Format: "%.0f",
				Getter: func(d any) float32 { return float32(hud(d).Counts[field.Attuned]) }},
			{Label: "Crystallized", Widget: WidgetText, Format: "%.0f",
				Getter: func(d any) float32 { return float32(hud(d).Counts[field.Crystallized]) }},
			{Label: "Trees", Widget: WidgetText, Format: "%.0f",
				Getter: func(d any) float32 { return float32(hud(d).Counts[field.AncientTree]) }},
		},
	},
	{
		Title: "Agents",
		Fields: []FieldDescriptor{
			{Label: "Structures", Widget: WidgetText, Format: "%.0f",
				Getter: func(d any) float32 { return float32(hud(d).Structures) }},
			{Label: "Units", Widget: WidgetText, Format: "%.0f",
				Getter: func(d any) float32 { return float32(hud(d).Units) }},
			{Label: "Fauna", Widget: WidgetText, Format: "%.0f",
				Getter: func(d any) float32 { return float32(hud(d).Fauna) }},
		},
	},
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewHUD creates a HUD whose territory panel is anchored at (x, y).
func NewHUD(x, y, width int32) *HUD {
	return &HUD{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (h *HUD) SetPosition(x, y int32) {
	h.x = x
	h.y = y
}

// Draw renders the status line and the territory panel.
func (h *HUD) Draw(data HUDData) {
	r := h.renderer
	padding := r.Theme.Padding

	statusText := "Running"
	statusColor := rl.Green
	if data.Paused {
		statusText = "PAUSED"
		statusColor = rl.Yellow
	}
	rl.DrawText(
		fmt.Sprintf("Tick: %d | Time: %.1fs | FPS: %d", data.Tick, data.SimTime, data.FPS),
		h.x, h.y, 14, rl.LightGray,
	)
	rl.DrawText(statusText, h.x, h.y+18, 14, statusColor)

	y := h.y + 40
	height := padding*2 + r.Theme.BarHeight + 8
	for _, sd := range hudSections {
		height += r.SectionHeight(sd, &data)
	}
	r.DrawPanel(h.x, y, h.width, height)

	y += padding
	inner := h.width - padding*2
	t := data.Territory
	y = r.DrawTerritoryBar(h.x+padding, y, inner, t.Mana, t.Neutral, t.Corruption)
	for _, sd := range hudSections {
		y = r.DrawSection(h.x+padding, y, sd, &data, inner)
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// EventLabel returns the display name of an event kind.
func EventLabel(k systems.EventKind) string {
	words := strings.Split(k.String(), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// eventColor is the banner colour for an event kind.
func eventColor(k systems.EventKind) rl.Color {
	switch k {
	case systems.ManaSurge:
		return rl.Color{R: 80, G: 130, B: 240, A: 230}
	case systems.CorruptionBloom:
		return rl.Color{R: 150, G: 20, B: 40, A: 230}
	case systems.PurificationWave:
		return rl.Color{R: 230, G: 230, B: 240, A: 230}
	case systems.MagicalEarthquake:
		return rl.Color{R: 180, G: 120, B: 40, A: 230}
	}
	return rl.Gray
}

// DrawEventBanner shows the active event centred at the top of the screen.
func (h *HUD) DrawEventBanner(status systems.EventStatus, screenWidth int32) {
	if !status.Active {
		return
	}
	text := fmt.Sprintf("%s  %.1fs", EventLabel(status.Kind), status.Remaining)
	const fontSize = 20
	textW := rl.MeasureText(text, fontSize)
	w := textW + 40
	x := (screenWidth - w) / 2

	bg := eventColor(status.Kind)
	rl.DrawRectangle(x, 8, w, 34, bg)
	rl.DrawRectangleLines(x, 8, w, 34, h.renderer.Theme.PanelBorder)
	textColor := rl.White
	if status.Kind == systems.PurificationWave {
		textColor = rl.Black
	}
	rl.DrawText(text, x+20, 15, fontSize, textColor)
}

// CellInfo describes the cell under the cursor.
type CellInfo struct {
	X, Y       int
	Terrain    field.Terrain
	Corruption float32
	Age        int
	Sanctuary  float64 // summed sanctuary influence
	Pit        float64 // summed pit influence
}

// DrawCellInfo draws a tooltip for a cell next to the cursor.
func (h *HUD) DrawCellInfo(info CellInfo, mouseX, mouseY int32) {
	r := h.renderer
	lines := []string{
		fmt.Sprintf("(%d, %d) %s", info.X, info.Y, info.Terrain),
		fmt.Sprintf("corruption %.3f", info.Corruption),
		fmt.Sprintf("stable for %d ticks", info.Age),
		fmt.Sprintf("sanctuary %.3f  pit %.3f", info.Sanctuary, info.Pit),
	}
	var w int32
	for _, l := range lines {
		if lw := rl.MeasureText(l, r.Theme.FontSize); lw > w {
			w = lw
		}
	}
	w += r.Theme.Padding * 2
	height := int32(len(lines))*r.Theme.LineHeight + r.Theme.Padding*2

	x, y := mouseX+16, mouseY+16
	r.DrawPanel(x, y, w, height)
	y += r.Theme.Padding
	for _, l := range lines {
		rl.DrawText(l, x+r.Theme.Padding, y, r.Theme.FontSize, r.Theme.ValueColor)
		y += r.Theme.LineHeight
	}
}

// PerfPanel renders the per-phase step timing.
type PerfPanel struct {
	renderer *Renderer
	registry *systems.SystemRegistry
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32, registry *systems.SystemRegistry) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		registry: registry,
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	x := p.x
	y := p.y

	const width, height = 230, 150
	p.renderer.DrawPanel(x-6, y-6, width, height)

	rl.DrawText("Step Performance", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Avg: %s | %.0f ticks/s", stats.AvgTickDuration.Round(time.Microsecond), stats.TicksPerSecond), x, y, 12, rl.Yellow)
	y += 16

	for _, name := range telemetry.Phases {
		pct := stats.PhasePct[name]
		color := rl.LightGray
		if pct > 40 {
			color = rl.Red
		} else if pct > 20 {
			color = rl.Orange
		}

		displayName := name
		if p.registry != nil {
			displayName = p.registry.GetName(name)
		}

		rl.DrawText(
			fmt.Sprintf("%-12s %8s %5.1f%%", displayName, stats.PhaseAvg[name].Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}
