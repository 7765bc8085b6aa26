package field

import "math"

// EmitterKind identifies the source of a radial influence.
type EmitterKind uint8

const (
	Sanctuary EmitterKind = iota
	CorruptorPit
	TreeSource
	EventEpicenter
)

func (k EmitterKind) String() string {
	switch k {
	case Sanctuary:
		return "sanctuary"
	case CorruptorPit:
		return "corruptor_pit"
	case TreeSource:
		return "tree"
	case EventEpicenter:
		return "event"
	}
	return "unknown"
}

// Emitter is a point source of radial influence. Emitters are not owned
// by the grid.
type Emitter struct {
	X, Y     int
	Kind     EmitterKind
	Radius   float64
	Strength float64
}

// Influence is strength × max(0, 1 − distance/radius).
func Influence(distance, radius, strength float64) float64 {
	if radius <= 0 {
		return 0
	}
	f := 1 - distance/radius
	if f <= 0 {
		return 0
	}
	return strength * f
}

// At returns the emitter's influence on cell (x,y).
func (e Emitter) At(x, y int) float64 {
	return Influence(Distance(e.X, e.Y, x, y), e.Radius, e.Strength)
}

// Distance is the Euclidean distance between two cells.
func Distance(x0, y0, x1, y1 int) float64 {
	dx := float64(x1 - x0)
	dy := float64(y1 - y0)
	return math.Sqrt(dx*dx + dy*dy)
}

// ForEachInRadius calls fn for every in-bounds cell whose Euclidean
// distance from (cx,cy) is at most radius. Out-of-bounds cells are
// skipped; there is no wraparound.
func ForEachInRadius(w, h, cx, cy int, radius float64, fn func(x, y int, d float64)) {
	if radius < 0 {
		return
	}
	r := int(math.Floor(radius))
	y0, y1 := max(cy-r, 0), min(cy+r, h-1)
	x0, x1 := max(cx-r, 0), min(cx+r, w-1)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			d := Distance(cx, cy, x, y)
			if d <= radius {
				fn(x, y, d)
			}
		}
	}
}

// AccumulateInfluence sums the influence of every emitter on (x,y).
func AccumulateInfluence(emitters []Emitter, x, y int) float64 {
	var sum float64
	for _, e := range emitters {
		sum += e.At(x, y)
	}
	return sum
}

// Apply adds the emitter's signed influence directly to the grid's
// corruption field over its radius. Sanctuaries subtract, everything else
// adds.
func (e Emitter) Apply(g *Grid) {
	sign := float32(1)
	if e.Kind == Sanctuary {
		sign = -1
	}
	ForEachInRadius(g.w, g.h, e.X, e.Y, e.Radius, func(x, y int, d float64) {
		if v := Influence(d, e.Radius, e.Strength); v > 0 {
			g.AddCorruption(x, y, sign*float32(v))
		}
	})
}
