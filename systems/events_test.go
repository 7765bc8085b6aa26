package systems

import (
	"math/rand"
	"testing"

	"github.com/pthm-cable/leyline/config"
	"github.com/pthm-cable/leyline/field"
)

func newEventLayer(t *testing.T, mutate func(*config.EventsConfig)) *EventLayer {
	t.Helper()
	cfg := config.MustDefaults().Events
	if mutate != nil {
		mutate(&cfg)
	}
	e, err := NewEventLayer(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestEventTriggerRunsForDuration(t *testing.T) {
	e := newEventLayer(t, nil)
	g, _ := field.New(50, 30)
	rng := rand.New(rand.NewSource(1))

	var changes []EventChange
	e.OnChange(func(c EventChange) { changes = append(changes, c) })

	e.Trigger(PurificationWave, g, rng)
	kind, remaining, ok := e.CurrentEvent()
	if !ok || kind != PurificationWave || remaining != 8 {
		t.Fatalf("CurrentEvent = %s %.1f %v", kind, remaining, ok)
	}

	steps := 0
	for {
		if !e.Update(g, 0.5, rng) {
			t.Fatal("active event did not modify the grid")
		}
		steps++
		if _, _, ok := e.CurrentEvent(); !ok {
			break
		}
		if steps > 100 {
			t.Fatal("event never ended")
		}
	}
	if steps != 16 {
		t.Errorf("event lasted %d steps, want 16", steps)
	}
	if len(changes) != 2 || !changes[0].Started || changes[1].Started {
		t.Fatalf("changes = %+v, want start then end", changes)
	}
	if st := e.Status(); st.Active || st.NextRollIn != 10 {
		t.Errorf("status after end = %+v", st)
	}
}

func TestEventZeroProbabilityNeverStarts(t *testing.T) {
	e := newEventLayer(t, func(c *config.EventsConfig) {
		c.ManaSurge.Probability = 0
		c.Bloom.Probability = 0
		c.Purification.Probability = 0
		c.Earthquake.Probability = 0
	})
	g, _ := field.New(20, 20)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		if e.Update(g, 1, rng) {
			t.Fatalf("event fired at update %d", i)
		}
	}
}

func TestEventCertainProbabilityStartsOnInterval(t *testing.T) {
	e := newEventLayer(t, func(c *config.EventsConfig) {
		c.ManaSurge.Probability = 1
		c.Bloom.Probability = 0
		c.Purification.Probability = 0
		c.Earthquake.Probability = 0
	})
	g, _ := field.New(50, 30)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 9; i++ {
		e.Update(g, 1, rng)
		if _, _, ok := e.CurrentEvent(); ok {
			t.Fatalf("event started early at %ds", i+1)
		}
	}
	e.Update(g, 1, rng)
	kind, _, ok := e.CurrentEvent()
	if !ok || kind != ManaSurge {
		t.Fatalf("CurrentEvent = %s %v, want mana_surge", kind, ok)
	}
	eps := e.Epicenters()
	if len(eps) != 3 {
		t.Fatalf("epicenters = %d, want 3", len(eps))
	}
	for _, ep := range eps {
		if ep.X < 5 || ep.X >= 45 || ep.Y < 5 || ep.Y >= 25 {
			t.Errorf("epicenter (%d,%d) inside edge margin", ep.X, ep.Y)
		}
	}
}

func TestEventDisabledHoldsTimer(t *testing.T) {
	e := newEventLayer(t, func(c *config.EventsConfig) { c.Enabled = false })
	g, _ := field.New(10, 10)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		e.Update(g, 1, rng)
	}
	if st := e.Status(); st.NextRollIn != 10 || st.Active {
		t.Errorf("disabled layer advanced: %+v", st)
	}
}

func TestPickCoordSmallGrid(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		if v := pickCoord(6, 5, rng); v < 0 || v >= 6 {
			t.Fatalf("pickCoord = %d outside [0,6)", v)
		}
	}
}

func TestEventEffects(t *testing.T) {
	tests := []struct {
		kind  EventKind
		check func(t *testing.T, before, after *field.Grid)
	}{
		{PurificationWave, func(t *testing.T, before, after *field.Grid) {
			if after.Corruption(0, 0) >= before.Corruption(0, 0) {
				t.Error("purification did not reduce corruption")
			}
		}},
		{CorruptionBloom, func(t *testing.T, before, after *field.Grid) {
			var b, a float64
			for y := 0; y < after.Height(); y++ {
				for x := 0; x < after.Width(); x++ {
					b += float64(before.Corruption(x, y))
					a += float64(after.Corruption(x, y))
				}
			}
			if a <= b {
				t.Error("bloom did not add corruption")
			}
		}},
		{ManaSurge, func(t *testing.T, before, after *field.Grid) {
			if after.Counts()[field.Crystallized] > before.Counts()[field.Crystallized]+before.Counts()[field.Attuned] {
				t.Error("surge crystallized more cells than were attuned")
			}
		}},
		{MagicalEarthquake, func(t *testing.T, before, after *field.Grid) {
			changed := 0
			for y := 0; y < after.Height(); y++ {
				for x := 0; x < after.Width(); x++ {
					if c := after.Corruption(x, y); c < 0 || c > 1 {
						t.Fatalf("corruption at (%d,%d) = %v outside [0,1]", x, y, c)
					}
					if after.Corruption(x, y) != before.Corruption(x, y) {
						changed++
					}
				}
			}
			if changed == 0 {
				t.Error("earthquake left corruption untouched")
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			e := newEventLayer(t, nil)
			g, _ := field.New(30, 30)
			before, _ := field.New(30, 30)
			for y := 0; y < 30; y++ {
				for x := 0; x < 30; x++ {
					g.SetCorruption(x, y, 0.5)
					before.SetCorruption(x, y, 0.5)
				}
			}
			rng := rand.New(rand.NewSource(2))
			e.Trigger(tt.kind, g, rng)
			e.Update(g, 0.1, rng)
			tt.check(t, before, g)
		})
	}
}

// strongEvents makes every kind fire at full strength with five wide
// epicenters so that they overlap on a small grid.
func strongEvents(c *config.EventsConfig) {
	for _, kc := range []*config.EventKindConfig{&c.ManaSurge, &c.Bloom, &c.Purification, &c.Earthquake} {
		kc.Strength = 1
		kc.Radius = 4
		kc.Epicenters = 5
	}
}

func TestEventNeverSkipsATier(t *testing.T) {
	for _, kind := range EventKinds {
		t.Run(kind.String(), func(t *testing.T) {
			for seed := int64(0); seed < 200; seed++ {
				e := newEventLayer(t, strongEvents)
				g, _ := field.New(6, 6)
				rng := rand.New(rand.NewSource(seed))
				e.Trigger(kind, g, rng)
				e.Update(g, 0.1, rng)
				if n := g.Counts()[field.Crystallized]; n != 0 {
					t.Fatalf("seed %d: %d Barren cells crystallized in one application", seed, n)
				}
			}
		})
	}
}

func TestEventSkipsCellsPromotedThisTick(t *testing.T) {
	for _, kind := range EventKinds {
		t.Run(kind.String(), func(t *testing.T) {
			for seed := int64(0); seed < 50; seed++ {
				e := newEventLayer(t, strongEvents)
				g, _ := field.New(6, 6)
				// The terrain automaton attuned every cell earlier this tick.
				next := make([]field.Terrain, g.Len())
				for i := range next {
					next[i] = field.Attuned
				}
				if err := g.ReplaceTerrain(next); err != nil {
					t.Fatal(err)
				}
				rng := rand.New(rand.NewSource(seed))
				e.Trigger(kind, g, rng)
				e.Update(g, 0.1, rng)
				if n := g.Counts()[field.Crystallized]; n != 0 {
					t.Fatalf("seed %d: %d freshly attuned cells crystallized", seed, n)
				}
			}
		})
	}
}

func TestEarthquakeJoltsOneTier(t *testing.T) {
	e := newEventLayer(t, func(c *config.EventsConfig) {
		c.Earthquake.Strength = 10 // every cell rolls a jolt
	})
	g, _ := field.New(12, 3)
	before, _ := field.New(12, 3)
	rows := []field.Terrain{field.Barren, field.Attuned, field.Crystallized}
	for y, tr := range rows {
		for x := 0; x < 12; x++ {
			g.SetTerrain(x, y, tr)
			before.SetTerrain(x, y, tr)
		}
	}
	g.BeginTick()

	rng := rand.New(rand.NewSource(4))
	e.Trigger(MagicalEarthquake, g, rng)
	e.Update(g, 0.1, rng)

	allowed := map[field.Terrain][]field.Terrain{
		field.Barren:       {field.Barren, field.Attuned},
		field.Attuned:      {field.Barren, field.Attuned, field.Crystallized},
		field.Crystallized: {field.Crystallized},
	}
	for y := 0; y < 3; y++ {
		for x := 0; x < 12; x++ {
			from, to := before.Terrain(x, y), g.Terrain(x, y)
			ok := false
			for _, a := range allowed[from] {
				ok = ok || a == to
			}
			if !ok {
				t.Errorf("(%d,%d) jolted %s→%s", x, y, from, to)
			}
		}
	}
}
