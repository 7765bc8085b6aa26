package field

import (
	"errors"
	"fmt"
	"math"

	"github.com/pthm-cable/leyline/config"
)

// ErrOutOfRange is matched by errors.Is for every out-of-bounds access.
var ErrOutOfRange = errors.New("cell out of range")

// OutOfRangeError is the panic value raised by point accessors when the
// coordinate is outside the grid. Callers bounds-check with IsValid.
type OutOfRangeError struct {
	X, Y   int
	W, H   int
	Access string
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("field: %s(%d,%d) outside %dx%d grid", e.Access, e.X, e.Y, e.W, e.H)
}

// Is reports ErrOutOfRange equivalence.
func (e *OutOfRangeError) Is(target error) bool { return target == ErrOutOfRange }

// ErrInvalidTerrain is matched by errors.Is for writes of a state outside
// the Terrain enum.
var ErrInvalidTerrain = errors.New("invalid terrain state")

func checkTerrain(t Terrain, access string) error {
	if int(t) >= NumTerrains {
		return fmt.Errorf("field: %s: %w %d", access, ErrInvalidTerrain, uint8(t))
	}
	return nil
}

// Grid owns the terrain and corruption fields of a fixed-size map.
// It is the single writer of record; automata and effects receive it for
// the duration of one operation.
type Grid struct {
	w, h int

	terrain    []Terrain
	corruption []float32
	age        []uint16 // consecutive terrain ticks a cell kept its state
	promoted   []bool   // cells that rose a tier since the last BeginTick

	revision    uint64
	subscribers []func(rev uint64)
}

// New allocates a grid with every cell Barren and uncorrupted.
func New(width, height int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, &config.ConfigurationError{
			Field:  "grid",
			Reason: fmt.Sprintf("dimensions must be positive, got %dx%d", width, height),
		}
	}
	n := width * height
	return &Grid{
		w:          width,
		h:          height,
		terrain:    make([]Terrain, n),
		corruption: make([]float32, n),
		age:        make([]uint16, n),
		promoted:   make([]bool, n),
	}, nil
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.w }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.h }

// Len returns the number of cells.
func (g *Grid) Len() int { return g.w * g.h }

// IsValid reports whether (x,y) lies inside the grid.
func (g *Grid) IsValid(x, y int) bool {
	return x >= 0 && x < g.w && y >= 0 && y < g.h
}

func (g *Grid) index(x, y int, access string) int {
	if !g.IsValid(x, y) {
		panic(&OutOfRangeError{X: x, Y: y, W: g.w, H: g.h, Access: access})
	}
	return y*g.w + x
}

// Terrain returns the terrain state at (x,y).
func (g *Grid) Terrain(x, y int) Terrain {
	return g.terrain[g.index(x, y, "Terrain")]
}

// SetTerrain writes the terrain state at (x,y) and resets its stable age
// when the state changes. It is a raw write for seeding and setup and does
// not mark promotions; live effects raise cells with Promote. States outside
// the enum panic with ErrInvalidTerrain.
func (g *Grid) SetTerrain(x, y int, t Terrain) {
	i := g.index(x, y, "SetTerrain")
	if err := checkTerrain(t, "SetTerrain"); err != nil {
		panic(err)
	}
	if g.terrain[i] != t {
		g.terrain[i] = t
		g.age[i] = 0
	}
}

// BeginTick clears the promotion marks. The game calls it once at the
// start of every simulation tick.
func (g *Grid) BeginTick() { clear(g.promoted) }

// Promote raises the cell one tier along Barren→Attuned→Crystallized and
// reports whether it changed. A cell already promoted since the last
// BeginTick is left alone, so no cell climbs two tiers in one tick.
func (g *Grid) Promote(x, y int) bool {
	i := g.index(x, y, "Promote")
	if g.promoted[i] {
		return false
	}
	cur := g.terrain[i]
	next := cur.Raise()
	if next == cur {
		return false
	}
	g.terrain[i] = next
	g.age[i] = 0
	g.promoted[i] = true
	return true
}

// Promoted reports whether the cell rose a tier since the last BeginTick.
func (g *Grid) Promoted(x, y int) bool {
	return g.promoted[g.index(x, y, "Promoted")]
}

// Corruption returns the corruption level at (x,y).
func (g *Grid) Corruption(x, y int) float32 {
	return g.corruption[g.index(x, y, "Corruption")]
}

// SetCorruption writes the corruption level at (x,y), clamped to [0,1].
func (g *Grid) SetCorruption(x, y int, v float32) {
	g.corruption[g.index(x, y, "SetCorruption")] = Clamp01(v)
}

// AddCorruption adds delta to the corruption level at (x,y) and clamps.
func (g *Grid) AddCorruption(x, y int, delta float32) {
	i := g.index(x, y, "AddCorruption")
	g.corruption[i] = Clamp01(g.corruption[i] + delta)
}

// Age returns how many terrain ticks the cell has kept its current state.
func (g *Grid) Age(x, y int) int {
	return int(g.age[g.index(x, y, "Age")])
}

// Commit notifies subscribers that both fields changed. It has no other
// effect on grid state.
func (g *Grid) Commit() {
	g.revision++
	for _, fn := range g.subscribers {
		fn(g.revision)
	}
}

// Subscribe registers fn to be called on every Commit.
func (g *Grid) Subscribe(fn func(rev uint64)) {
	if fn != nil {
		g.subscribers = append(g.subscribers, fn)
	}
}

// Revision returns the number of commits so far.
func (g *Grid) Revision() uint64 { return g.revision }

// ReplaceTerrain swaps in a full next-state terrain buffer. Cells whose
// state is unchanged age by one tick; cells that rose a tier are marked
// promoted.
func (g *Grid) ReplaceTerrain(next []Terrain) error {
	if len(next) != len(g.terrain) {
		return fmt.Errorf("field: terrain buffer has %d cells, want %d", len(next), len(g.terrain))
	}
	for _, t := range next {
		if err := checkTerrain(t, "ReplaceTerrain"); err != nil {
			return err
		}
	}
	for i, t := range next {
		cur := g.terrain[i]
		if cur == t {
			if g.age[i] < math.MaxUint16 {
				g.age[i]++
			}
			continue
		}
		g.age[i] = 0
		if t.tier() > cur.tier() {
			g.promoted[i] = true
		}
	}
	copy(g.terrain, next)
	return nil
}

// ReplaceCorruption swaps in a full next-state corruption buffer,
// clamping every value.
func (g *Grid) ReplaceCorruption(next []float32) error {
	if len(next) != len(g.corruption) {
		return fmt.Errorf("field: corruption buffer has %d cells, want %d", len(next), len(g.corruption))
	}
	for i, v := range next {
		g.corruption[i] = Clamp01(v)
	}
	return nil
}

// Reset returns every cell to Barren and uncorrupted.
func (g *Grid) Reset() {
	clear(g.terrain)
	clear(g.corruption)
	clear(g.age)
	clear(g.promoted)
}

// Counts returns the terrain histogram.
func (g *Grid) Counts() TerrainCounts {
	var c TerrainCounts
	for _, t := range g.terrain {
		c[t]++
	}
	return c
}

// CorruptionValues appends every corruption value to dst as float64.
func (g *Grid) CorruptionValues(dst []float64) []float64 {
	for _, v := range g.corruption {
		dst = append(dst, float64(v))
	}
	return dst
}

// Clamp01 clamps v to [0,1]. NaN maps to 0.
func Clamp01(v float32) float32 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
