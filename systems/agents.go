package systems

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/leyline/field"
)

// Polarity selects the direction of a point effect.
type Polarity int8

const (
	Purify Polarity = iota
	Corrupt
)

func (p Polarity) String() string {
	if p == Corrupt {
		return "corrupt"
	}
	return "purify"
}

// Affinity weights the inputs of ScoreCell. Origin is the agent's
// current cell, used for the distance penalty.
type Affinity struct {
	Mana       float64 // weight on mana density
	Corruption float64 // weight on corruption level
	Balance    float64 // weight on 1-|mana-corruption|
	Distance   float64 // penalty per cell of distance from Origin
	OriginX    int
	OriginY    int
}

// AgentHook is the contract mobile agents use to edit and read the grid.
// It is built for one operation and not retained across ticks.
type AgentHook struct {
	g *field.Grid
}

// NewAgentHook wraps g for the current tick.
func NewAgentHook(g *field.Grid) AgentHook { return AgentHook{g: g} }

// ApplyPointEffect purifies or corrupts the cells within radius of (x,y)
// using the shared influence falloff. It returns the number of cells
// touched.
func (h AgentHook) ApplyPointEffect(x, y int, radius float64, polarity Polarity, strength float64) int {
	sign := float32(-1)
	if polarity == Corrupt {
		sign = 1
	}
	n := 0
	field.ForEachInRadius(h.g.Width(), h.g.Height(), x, y, radius, func(cx, cy int, d float64) {
		v := field.Influence(d, radius, strength)
		if v <= 0 {
			return
		}
		h.g.AddCorruption(cx, cy, sign*float32(v))
		n++
	})
	return n
}

// ScoreCell rates (x,y) for greedy target selection. Out-of-range cells
// score -Inf.
func (h AgentHook) ScoreCell(x, y int, a Affinity) float64 {
	if !h.g.IsValid(x, y) {
		return math.Inf(-1)
	}
	m := float64(field.ManaDensity(h.g.Terrain(x, y)))
	c := float64(h.g.Corruption(x, y))
	score := a.Mana*m + a.Corruption*c + a.Balance*(1-math.Abs(m-c))
	if a.Distance != 0 {
		score -= a.Distance * field.Distance(a.OriginX, a.OriginY, x, y)
	}
	return score
}

// BestCell scans the square of the given radius around the origin and
// returns the highest-scoring in-bounds cell. Ties keep the origin, then
// the first cell in row-major order. allow, if non-nil, filters candidates.
func (h AgentHook) BestCell(a Affinity, radius int, allow func(x, y int) bool) (int, int, float64) {
	bx, by := a.OriginX, a.OriginY
	best := math.Inf(-1)
	if allow == nil || allow(bx, by) {
		best = h.ScoreCell(bx, by, a)
	}
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			x, y := a.OriginX+dx, a.OriginY+dy
			if !h.g.IsValid(x, y) || (allow != nil && !allow(x, y)) {
				continue
			}
			if s := h.ScoreCell(x, y, a); s > best {
				best, bx, by = s, x, y
			}
		}
	}
	return bx, by, best
}

// ShiftTerrain moves the cell one tier up or down with probability p.
// Upward shifts follow Barren→Attuned→Crystallized and skip cells already
// promoted this tick; trees are left alone.
func (h AgentHook) ShiftTerrain(x, y int, up bool, p float64, rng *rand.Rand) bool {
	if !h.g.IsValid(x, y) || rng.Float64() >= p {
		return false
	}
	if up {
		return h.g.Promote(x, y)
	}
	cur := h.g.Terrain(x, y)
	next := cur.Lower()
	if next == cur {
		return false
	}
	h.g.SetTerrain(x, y, next)
	return true
}
