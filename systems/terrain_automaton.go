package systems

import (
	"math/rand"

	"github.com/pthm-cable/leyline/config"
	"github.com/pthm-cable/leyline/field"
)

// TerrainAutomaton advances the discrete terrain field: tree emission,
// neighbour-count rules, and corruption decay.
type TerrainAutomaton struct {
	cfg config.TerrainConfig

	next     []field.Terrain
	counts   []int
	suppress []float32 // tree suppression, applied directly after the swap
	w, h     int

	// Per-tick stats
	Emitted int // Barren cells promoted by tree emission
	Decayed int // cells demoted by corruption decay
}

// NewTerrainAutomaton validates cfg and returns an automaton.
func NewTerrainAutomaton(cfg config.TerrainConfig) (*TerrainAutomaton, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &TerrainAutomaton{cfg: cfg}, nil
}

// Config returns the active tunables.
func (t *TerrainAutomaton) Config() config.TerrainConfig { return t.cfg }

// Name implements Automaton.
func (t *TerrainAutomaton) Name() string { return "terrain" }

// Tick runs one standalone terrain step and commits.
func (t *TerrainAutomaton) Tick(g *field.Grid, rng *rand.Rand) error {
	var s Stepper
	_, err := s.Step(g, nil, rng, t)
	return err
}

func (t *TerrainAutomaton) ensure(w, h int) {
	n := w * h
	if len(t.next) != n {
		t.next = make([]field.Terrain, n)
		t.counts = make([]int, n)
		t.suppress = make([]float32, n)
	}
	t.w, t.h = w, h
}

// Prepare implements Automaton. Terrain reads trees off the field, so the
// structure registry is unused.
func (t *TerrainAutomaton) Prepare(snap *field.Snapshot, _ StructureRegistry, rng *rand.Rand) error {
	w, h := snap.Width(), snap.Height()
	t.ensure(w, h)
	t.next = append(t.next[:0], snap.TerrainCells()...)
	clear(t.suppress)
	t.Emitted, t.Decayed = 0, 0

	// 1. Trees emit mana into Barren neighbours and suppress corruption.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if snap.Terrain(x, y) != field.AncientTree {
				continue
			}
			t.emit(snap, x, y, rng)
		}
	}

	// 2. Neighbour counts from the pre-tick snapshot.
	if err := CountMagicalNeighbors(snap, t.cfg.NeighborRadius, t.counts, t.cfg.Workers); err != nil {
		return err
	}

	// 3. Transition rules. A rule only writes when the cell changes, so
	// tree emission into a cell the rules leave alone survives.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			cur := snap.Terrain(x, y)
			nxt := t.rule(cur, t.counts[i], snap.Corruption(x, y), rng)
			if nxt != cur {
				t.next[i] = nxt
			}
		}
	}
	return nil
}

func (t *TerrainAutomaton) emit(snap *field.Snapshot, cx, cy int, rng *rand.Rand) {
	w, h := snap.Width(), snap.Height()
	field.ForEachInRadius(w, h, cx, cy, t.cfg.TreeEmissionRadius, func(x, y int, d float64) {
		if d == 0 || snap.Terrain(x, y) != field.Barren {
			return
		}
		if rng.Float64() < t.cfg.TreeEmissionProbability {
			i := y*w + x
			if t.next[i] == field.Barren {
				t.next[i] = field.Attuned
				t.Emitted++
			}
		}
	})

	field.ForEachInRadius(w, h, cx, cy, t.cfg.TreeSuppressionRadius, func(x, y int, d float64) {
		v := field.Influence(d, t.cfg.TreeSuppressionRadius, t.cfg.TreeSuppressionPower)
		t.suppress[y*w+x] += float32(v)
	})
}

func (t *TerrainAutomaton) rule(cur field.Terrain, magical int, corruption float32, rng *rand.Rand) field.Terrain {
	if float64(corruption) > t.cfg.CorruptionThreshold {
		if !t.cfg.DecayEnabled {
			return cur
		}
		var factor float64
		switch cur {
		case field.Attuned:
			factor = t.cfg.DecayAttuned
		case field.Crystallized:
			factor = t.cfg.DecayCrystallized
		case field.AncientTree:
			factor = t.cfg.DecayTree
		default:
			return cur
		}
		if rng.Float64() < t.cfg.CorruptionManaReduction*factor {
			t.Decayed++
			return cur.Lower()
		}
		return cur
	}

	switch cur {
	case field.Barren:
		if magical >= t.cfg.BirthThreshold && rng.Float64() < t.cfg.BirthProbability {
			return field.Attuned
		}
	case field.Attuned:
		if magical < t.cfg.IsolationThreshold {
			return field.Barren
		}
		if magical > t.cfg.CrystallizationThreshold {
			return field.Crystallized
		}
	}
	return cur
}

// Swap implements Automaton.
func (t *TerrainAutomaton) Swap(g *field.Grid) error {
	return g.ReplaceTerrain(t.next)
}

// ApplyImmediate writes tree suppression straight into the committed
// corruption field.
func (t *TerrainAutomaton) ApplyImmediate(g *field.Grid) {
	if g.Width() != t.w || g.Height() != t.h {
		return
	}
	for i, v := range t.suppress {
		if v > 0 {
			g.AddCorruption(i%t.w, i/t.w, -v)
		}
	}
}
