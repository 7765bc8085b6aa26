package systems

import (
	"math/rand"

	"github.com/pthm-cable/leyline/config"
	"github.com/pthm-cable/leyline/field"
)

// CorruptionAutomaton advances the continuous corruption field: pit
// generation, expansion toward magically dense cells, sanctuary
// suppression and, when enabled, feedback damage to terrain.
type CorruptionAutomaton struct {
	cfg config.CorruptionConfig

	next        []float32
	suppression []float32
	damage      []int // cell indices to demote one tier after the swap
	w, h        int

	// Per-tick stats
	Expansions int
	Damaged    int
}

// NewCorruptionAutomaton validates cfg and returns an automaton.
func NewCorruptionAutomaton(cfg config.CorruptionConfig) (*CorruptionAutomaton, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &CorruptionAutomaton{cfg: cfg}, nil
}

// Config returns the active tunables.
func (c *CorruptionAutomaton) Config() config.CorruptionConfig { return c.cfg }

// Name implements Automaton.
func (c *CorruptionAutomaton) Name() string { return "corruption" }

// Tick runs one standalone corruption step and commits.
func (c *CorruptionAutomaton) Tick(g *field.Grid, structures StructureRegistry, rng *rand.Rand) error {
	var s Stepper
	_, err := s.Step(g, structures, rng, c)
	return err
}

// neighbour offsets in a fixed order so RNG consumption is deterministic
var moore = [8][2]int{{-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {-1, 1}, {0, 1}, {1, 1}}

// Prepare implements Automaton.
func (c *CorruptionAutomaton) Prepare(snap *field.Snapshot, structures StructureRegistry, rng *rand.Rand) error {
	w, h := snap.Width(), snap.Height()
	n := w * h
	if len(c.suppression) != n {
		c.suppression = make([]float32, n)
	}
	c.w, c.h = w, h
	c.next = append(c.next[:0], snap.CorruptionCells()...)
	clear(c.suppression)
	c.damage = c.damage[:0]
	c.Expansions, c.Damaged = 0, 0

	var pits, sanctuaries []field.Emitter
	if structures != nil {
		pits = structures.Pits()
		sanctuaries = structures.Sanctuaries()
	}

	// Sanctuary suppression per cell, capped per tick.
	for _, s := range sanctuaries {
		field.ForEachInRadius(w, h, s.X, s.Y, s.Radius, func(x, y int, d float64) {
			c.suppression[y*w+x] += float32(field.Influence(d, s.Radius, s.Strength))
		})
	}
	maxSup := float32(c.cfg.SanctuaryMaxSuppression)
	for i, v := range c.suppression {
		if v > maxSup {
			c.suppression[i] = maxSup
		}
	}

	// 1. Generation. Additive, clamped at the end of the tick.
	for _, p := range pits {
		field.ForEachInRadius(w, h, p.X, p.Y, p.Radius, func(x, y int, d float64) {
			c.next[y*w+x] += float32(field.Influence(d, p.Radius, p.Strength))
		})
	}

	// 2. Expansion toward magically dense neighbours.
	activity := float32(c.cfg.ActivityThreshold)
	ceiling := float32(c.cfg.Ceiling)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src := snap.Corruption(x, y)
			if src <= activity {
				continue
			}
			for _, o := range moore {
				nx, ny := x+o[0], y+o[1]
				if !snap.IsValid(nx, ny) || snap.Corruption(nx, ny) >= ceiling {
					continue
				}
				j := ny*w + nx
				density := float64(field.ManaDensity(snap.Terrain(nx, ny)))
				rate := c.cfg.BaseRate + density*c.cfg.ManaAttraction - float64(c.suppression[j])
				if rate <= c.cfg.ExpansionThreshold || rng.Float64() >= rate {
					continue
				}
				v := min(float32(float64(src)*c.cfg.SourceWeight+density*c.cfg.ManaWeight), 1)
				if v > c.next[j] {
					c.next[j] = v
					c.Expansions++
				}
			}
		}
	}

	// 3. Sanctuary suppression after generation and expansion.
	for i, s := range c.suppression {
		if s > 0 {
			c.next[i] -= s
		}
	}

	// 4. Feedback damage on a random subset of cells.
	if c.cfg.DamageEnabled && c.cfg.DamageFrequency > 0 {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if rng.Float64() >= c.cfg.DamageFrequency {
					continue
				}
				if float64(snap.Corruption(x, y)) <= c.cfg.DamageThreshold {
					continue
				}
				var p float64
				switch snap.Terrain(x, y) {
				case field.Attuned:
					p = c.cfg.DamageAttuned
				case field.Crystallized:
					p = c.cfg.DamageCrystallized
				case field.AncientTree:
					p = c.cfg.DamageTree
				default:
					continue
				}
				if rng.Float64() < p {
					c.damage = append(c.damage, y*w+x)
				}
			}
		}
	}

	// 5. Clamp.
	for i, v := range c.next {
		c.next[i] = field.Clamp01(v)
	}
	return nil
}

// Swap implements Automaton.
func (c *CorruptionAutomaton) Swap(g *field.Grid) error {
	return g.ReplaceCorruption(c.next)
}

// ApplyImmediate demotes the terrain of damaged cells one tier.
func (c *CorruptionAutomaton) ApplyImmediate(g *field.Grid) {
	if g.Width() != c.w || g.Height() != c.h {
		return
	}
	for _, i := range c.damage {
		x, y := i%c.w, i/c.w
		g.SetTerrain(x, y, g.Terrain(x, y).Lower())
		c.Damaged++
	}
}
