package ui

import (
	"fmt"
	"math"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Slider bounds for the automaton tick intervals, in seconds.
const (
	MinTickInterval  = 0.1
	MaxTickInterval  = 3.0
	tickIntervalStep = 0.05
)

// ControlState is the simulation state the panel displays and edits.
type ControlState struct {
	TerrainInterval    float32
	CorruptionInterval float32
	Paused             bool
	EventsEnabled      bool
}

// ControlActions reports what the user changed this frame.
type ControlActions struct {
	TerrainInterval    float32
	CorruptionInterval float32
	IntervalsChanged   bool
	TogglePause        bool
	ToggleEvents       bool
	TriggerEvent       bool
	Reset              bool
}

// ControlPanel renders the simulation controls and the overlay toggles.
type ControlPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewControlPanel creates a control panel anchored at (x, y).
func NewControlPanel(x, y, width int32) *ControlPanel {
	return &ControlPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (c *ControlPanel) SetPosition(x, y int32) {
	c.x = x
	c.y = y
}

// Contains reports whether a screen point lies over the panel.
func (c *ControlPanel) Contains(px, py float32, height int32) bool {
	return px >= float32(c.x) && px < float32(c.x+c.width) &&
		py >= float32(c.y) && py < float32(c.y+height)
}

// Height returns the panel height for the given overlays.
func (c *ControlPanel) Height(overlays *OverlayRegistry) int32 {
	r := c.renderer
	lines := int32(len(overlays.All()) + len(overlays.Categories()))
	return r.Theme.Padding*2 + 200 + lines*r.Theme.LineHeight
}

// Draw renders the panel and returns the actions taken this frame.
func (c *ControlPanel) Draw(state ControlState, overlays *OverlayRegistry) ControlActions {
	r := c.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight
	actions := ControlActions{
		TerrainInterval:    state.TerrainInterval,
		CorruptionInterval: state.CorruptionInterval,
	}

	r.DrawPanel(c.x, c.y, c.width, c.Height(overlays))

	x := float32(c.x + padding)
	y := float32(c.y + padding)
	sliderW := float32(c.width-padding*2) - 50

	rl.DrawText("Controls", int32(x), int32(y), 16, rl.White)
	y += float32(lineHeight) + 6

	// Tick interval sliders
	rl.DrawText("Terrain interval (s)", int32(x), int32(y), r.Theme.FontSize, r.Theme.LabelColor)
	y += float32(lineHeight)
	newTerrain := gui.SliderBar(
		rl.Rectangle{X: x, Y: y, Width: sliderW, Height: 16},
		"", "",
		state.TerrainInterval, MinTickInterval, MaxTickInterval,
	)
	rl.DrawText(fmt.Sprintf("%.2f", state.TerrainInterval), int32(x+sliderW+6), int32(y+2), r.Theme.FontSize, r.Theme.ValueColor)
	y += 24

	rl.DrawText("Corruption interval (s)", int32(x), int32(y), r.Theme.FontSize, r.Theme.LabelColor)
	y += float32(lineHeight)
	newCorruption := gui.SliderBar(
		rl.Rectangle{X: x, Y: y, Width: sliderW, Height: 16},
		"", "",
		state.CorruptionInterval, MinTickInterval, MaxTickInterval,
	)
	rl.DrawText(fmt.Sprintf("%.2f", state.CorruptionInterval), int32(x+sliderW+6), int32(y+2), r.Theme.FontSize, r.Theme.ValueColor)
	y += 28

	// Intervals loaded from config may sit off the slider step; snap only
	// values the user dragged.
	if newTerrain != state.TerrainInterval {
		actions.TerrainInterval = SnapInterval(newTerrain)
		actions.IntervalsChanged = true
	}
	if newCorruption != state.CorruptionInterval {
		actions.CorruptionInterval = SnapInterval(newCorruption)
		actions.IntervalsChanged = true
	}

	// Buttons
	half := (float32(c.width-padding*2) - 8) / 2
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 26}, toggleText(state.Paused, "Resume", "Pause")) {
		actions.TogglePause = true
	}
	if gui.Button(rl.Rectangle{X: x + half + 8, Y: y, Width: half, Height: 26}, "Reset") {
		actions.Reset = true
	}
	y += 32
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 26}, "Trigger Event") {
		actions.TriggerEvent = true
	}
	if gui.Button(rl.Rectangle{X: x + half + 8, Y: y, Width: half, Height: 26}, toggleText(state.EventsEnabled, "Events: On", "Events: Off")) {
		actions.ToggleEvents = true
	}
	y += 38

	// Overlay toggles by category
	iy := int32(y)
	for _, category := range overlays.Categories() {
		rl.DrawText(categoryLabel(category), c.x+padding, iy, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
		iy += lineHeight
		for _, desc := range overlays.ByCategory(category) {
			c.drawToggle(c.x+padding, iy, desc, overlays.IsEnabled(desc.ID), c.width-padding*2)
			iy += lineHeight
		}
	}

	return actions
}

// SnapInterval clamps a slider value to the allowed range and rounds it to
// the slider step.
func SnapInterval(v float32) float32 {
	v = float32(math.Round(float64(v)/tickIntervalStep) * tickIntervalStep)
	if v < MinTickInterval {
		return MinTickInterval
	}
	if v > MaxTickInterval {
		return MaxTickInterval
	}
	return v
}

// drawToggle draws a single overlay toggle line.
func (c *ControlPanel) drawToggle(x, y int32, desc OverlayDescriptor, enabled bool, width int32) {
	r := c.renderer

	statusColor := rl.Color{R: 80, G: 80, B: 80, A: 255}
	if enabled {
		statusColor = rl.Color{R: 100, G: 200, B: 100, A: 255}
	}
	rl.DrawRectangle(x, y+2, 8, 8, statusColor)

	nameColor := r.Theme.LabelColor
	if enabled {
		nameColor = rl.White
	}
	rl.DrawText(desc.Name, x+14, y, r.Theme.FontSize, nameColor)

	if desc.KeyLabel != "" {
		keyText := fmt.Sprintf("[%s]", desc.KeyLabel)
		keyWidth := rl.MeasureText(keyText, r.Theme.FontSize)
		rl.DrawText(keyText, x+width-keyWidth, y, r.Theme.FontSize, rl.Color{R: 150, G: 150, B: 150, A: 255})
	}
}

func toggleText(on bool, onText, offText string) string {
	if on {
		return onText
	}
	return offText
}

// categoryLabel returns a display label for a category.
func categoryLabel(cat string) string {
	switch cat {
	case "map":
		return "Map"
	case "debug":
		return "Debug"
	default:
		return cat
	}
}
