package systems

import (
	"log/slog"
	"math/rand"

	"github.com/pthm-cable/leyline/config"
	"github.com/pthm-cable/leyline/field"
)

// EventKind identifies a world event.
type EventKind uint8

const (
	EventNone EventKind = iota
	ManaSurge
	CorruptionBloom
	PurificationWave
	MagicalEarthquake
)

// EventKinds lists the kinds in cumulative-probability order.
var EventKinds = []EventKind{ManaSurge, CorruptionBloom, PurificationWave, MagicalEarthquake}

func (k EventKind) String() string {
	switch k {
	case ManaSurge:
		return "mana_surge"
	case CorruptionBloom:
		return "corruption_bloom"
	case PurificationWave:
		return "purification_wave"
	case MagicalEarthquake:
		return "magical_earthquake"
	}
	return "none"
}

// Per-application effect scales. Each is multiplied by the kind's strength.
const (
	surgeAttuneScale      = 0.3
	surgeCrystalScale     = 0.1
	surgeCleanseScale     = 0.2
	bloomCorruptScale     = 0.5
	bloomBlightLevel      = 0.6
	bloomBlightScale      = 0.2
	purifyCleanseScale    = 0.3
	purifyCrystalScale    = 0.15
	quakeCellScale        = 0.1
	quakeTerrainChance    = 0.3
	quakeCorruptionChance = 0.4
)

// EventChange is delivered to listeners when an event starts or ends.
type EventChange struct {
	Kind       EventKind
	Started    bool
	Duration   float64
	Epicenters []field.Emitter
}

// EventStatus is a point-in-time view for notification, audio and HUD.
type EventStatus struct {
	Kind       EventKind
	Active     bool
	Remaining  float64
	Epicenters int
	NextRollIn float64
}

// LogValue implements slog.LogValuer for structured logging.
func (s EventStatus) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("kind", s.Kind.String()),
		slog.Bool("active", s.Active),
		slog.Float64("remaining", s.Remaining),
		slog.Int("epicenters", s.Epicenters),
		slog.Float64("next_roll_in", s.NextRollIn),
	)
}

// EventLayer is the Idle → Active(kind, remaining) → Idle state machine
// that applies one-shot perturbations directly to the committed grid.
// Effects are permanent and never rolled back.
type EventLayer struct {
	cfg config.EventsConfig

	timer      float64 // seconds until the next roll while idle
	active     bool
	kind       EventKind
	remaining  float64
	epicenters []field.Emitter

	listeners []func(EventChange)
}

// NewEventLayer validates cfg and returns an idle layer.
func NewEventLayer(cfg config.EventsConfig) (*EventLayer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &EventLayer{cfg: cfg, timer: cfg.Interval}, nil
}

// OnChange registers a listener for event start and end.
func (e *EventLayer) OnChange(fn func(EventChange)) {
	if fn != nil {
		e.listeners = append(e.listeners, fn)
	}
}

// CurrentEvent returns the active kind and its remaining seconds.
func (e *EventLayer) CurrentEvent() (EventKind, float64, bool) {
	if !e.active {
		return EventNone, 0, false
	}
	return e.kind, e.remaining, true
}

// Status returns a snapshot of the layer state.
func (e *EventLayer) Status() EventStatus {
	return EventStatus{
		Kind:       e.kind,
		Active:     e.active,
		Remaining:  e.remaining,
		Epicenters: len(e.epicenters),
		NextRollIn: e.timer,
	}
}

// Epicenters returns the active event's epicenters.
func (e *EventLayer) Epicenters() []field.Emitter {
	if !e.active {
		return nil
	}
	return e.epicenters
}

// SetEnabled toggles the interval timer. An active event keeps running.
func (e *EventLayer) SetEnabled(on bool) { e.cfg.Enabled = on }

// Enabled reports whether the interval timer is running.
func (e *EventLayer) Enabled() bool { return e.cfg.Enabled }

// Reset returns the layer to Idle with a full interval.
func (e *EventLayer) Reset() {
	e.active = false
	e.kind = EventNone
	e.remaining = 0
	e.epicenters = e.epicenters[:0]
	e.timer = e.cfg.Interval
}

func (e *EventLayer) kindConfig(k EventKind) config.EventKindConfig {
	switch k {
	case ManaSurge:
		return e.cfg.ManaSurge
	case CorruptionBloom:
		return e.cfg.Bloom
	case PurificationWave:
		return e.cfg.Purification
	default:
		return e.cfg.Earthquake
	}
}

// Update advances timers by dt seconds and, while active, applies one
// application of the event's effect. It reports whether the grid was
// modified. Terrain only rises through Grid.Promote, so cells promoted
// earlier in the tick, or by an overlapping epicenter, stay put.
func (e *EventLayer) Update(g *field.Grid, dt float64, rng *rand.Rand) bool {
	if !e.active {
		if !e.cfg.Enabled {
			return false
		}
		e.timer -= dt
		if e.timer > 0 {
			return false
		}
		e.timer = e.cfg.Interval
		if k := e.roll(rng); k != EventNone {
			e.start(k, g.Width(), g.Height(), rng)
		}
		if !e.active {
			return false
		}
	}

	e.remaining -= dt
	e.apply(g, rng)
	if e.remaining <= 0 {
		e.end()
	}
	return true
}

// roll walks the cumulative probability table. No match means no event
// this interval.
func (e *EventLayer) roll(rng *rand.Rand) EventKind {
	u := rng.Float64()
	var cum float64
	for _, k := range EventKinds {
		cum += e.kindConfig(k).Probability
		if u < cum {
			return k
		}
	}
	return EventNone
}

// Trigger starts an event of the given kind immediately, replacing any
// active event.
func (e *EventLayer) Trigger(k EventKind, g *field.Grid, rng *rand.Rand) {
	if k == EventNone {
		return
	}
	if e.active {
		e.end()
	}
	e.start(k, g.Width(), g.Height(), rng)
}

func (e *EventLayer) start(k EventKind, w, h int, rng *rand.Rand) {
	kc := e.kindConfig(k)
	e.active = true
	e.kind = k
	e.remaining = e.cfg.Duration
	e.epicenters = e.epicenters[:0]
	for i := 0; i < kc.Epicenters; i++ {
		e.epicenters = append(e.epicenters, field.Emitter{
			X:        pickCoord(w, e.cfg.EdgeMargin, rng),
			Y:        pickCoord(h, e.cfg.EdgeMargin, rng),
			Kind:     field.EventEpicenter,
			Radius:   kc.Radius,
			Strength: kc.Strength,
		})
	}

	slog.Info("event started", "kind", k.String(), "duration", e.cfg.Duration, "epicenters", len(e.epicenters))
	e.notify(EventChange{Kind: k, Started: true, Duration: e.cfg.Duration, Epicenters: e.epicenters})
}

func (e *EventLayer) end() {
	k := e.kind
	e.active = false
	e.remaining = 0
	slog.Info("event ended", "kind", k.String())
	e.notify(EventChange{Kind: k, Started: false})
	e.kind = EventNone
	e.timer = e.cfg.Interval
}

func (e *EventLayer) notify(c EventChange) {
	for _, fn := range e.listeners {
		fn(c)
	}
}

// pickCoord draws from [margin, n-margin), or the full axis when the grid
// is too small for the margin.
func pickCoord(n, margin int, rng *rand.Rand) int {
	if n-2*margin <= 0 {
		return rng.Intn(n)
	}
	return margin + rng.Intn(n-2*margin)
}

func (e *EventLayer) apply(g *field.Grid, rng *rand.Rand) {
	kc := e.kindConfig(e.kind)
	str := kc.Strength
	w, h := g.Width(), g.Height()

	switch e.kind {
	case ManaSurge:
		for _, ep := range e.epicenters {
			field.ForEachInRadius(w, h, ep.X, ep.Y, ep.Radius, func(x, y int, _ float64) {
				if !g.Promoted(x, y) {
					switch g.Terrain(x, y) {
					case field.Barren:
						if rng.Float64() < str*surgeAttuneScale {
							g.Promote(x, y)
						}
					case field.Attuned:
						if rng.Float64() < str*surgeCrystalScale {
							g.Promote(x, y)
						}
					}
				}
				g.AddCorruption(x, y, -float32(str*surgeCleanseScale))
			})
		}

	case CorruptionBloom:
		for _, ep := range e.epicenters {
			field.ForEachInRadius(w, h, ep.X, ep.Y, ep.Radius, func(x, y int, d float64) {
				g.AddCorruption(x, y, float32(field.Influence(d, ep.Radius, str*bloomCorruptScale)))
				if g.Corruption(x, y) > bloomBlightLevel && g.Terrain(x, y) == field.Attuned &&
					rng.Float64() < str*bloomBlightScale {
					g.SetTerrain(x, y, field.Barren)
				}
			})
		}

	case PurificationWave:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				g.AddCorruption(x, y, -float32(str*purifyCleanseScale))
				if g.Terrain(x, y) == field.Attuned && !g.Promoted(x, y) && rng.Float64() < str*purifyCrystalScale {
					g.Promote(x, y)
				}
			}
		}

	case MagicalEarthquake:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if rng.Float64() >= str*quakeCellScale {
					continue
				}
				if rng.Float64() < quakeTerrainChance {
					switch g.Terrain(x, y) {
					case field.Barren:
						g.Promote(x, y)
					case field.Attuned:
						if rng.Float64() < 0.5 {
							g.SetTerrain(x, y, field.Barren)
						} else {
							g.Promote(x, y)
						}
					}
				}
				if rng.Float64() < quakeCorruptionChance {
					g.SetCorruption(x, y, rng.Float32())
				}
			}
		}
	}
}
