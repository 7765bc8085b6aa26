package field

import (
	"math"
	"testing"
)

func TestInfluence(t *testing.T) {
	tests := []struct {
		name                       string
		distance, radius, strength float64
		want                       float64
	}{
		{"center", 0, 5, 0.2, 0.2},
		{"half radius", 2.5, 5, 0.2, 0.1},
		{"edge", 5, 5, 0.2, 0},
		{"outside", 7, 5, 0.2, 0},
		{"zero radius", 0, 0, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Influence(tt.distance, tt.radius, tt.strength)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Influence(%v,%v,%v) = %v, want %v", tt.distance, tt.radius, tt.strength, got, tt.want)
			}
		})
	}
}

func TestForEachInRadiusCorner(t *testing.T) {
	// Radius 3 around (0,0) only visits in-bounds cells.
	var visited int
	ForEachInRadius(10, 10, 0, 0, 3, func(x, y int, d float64) {
		if x < 0 || y < 0 || x >= 10 || y >= 10 {
			t.Fatalf("visited out-of-bounds cell (%d,%d)", x, y)
		}
		if d > 3 {
			t.Fatalf("visited (%d,%d) at distance %v", x, y, d)
		}
		visited++
	})
	// Quarter disc of radius 3 on the lattice: x,y >= 0 with x²+y² <= 9
	if visited != 11 {
		t.Errorf("visited %d cells, want 11", visited)
	}
}

func TestEmitterApplyCorner(t *testing.T) {
	g, _ := New(6, 6)
	pit := Emitter{X: 0, Y: 0, Kind: CorruptorPit, Radius: 3, Strength: 0.3}
	pit.Apply(g)
	if got := g.Corruption(0, 0); math.Abs(float64(got)-0.3) > 1e-6 {
		t.Errorf("corner = %v, want 0.3", got)
	}
	if got := g.Corruption(3, 3); got != 0 {
		t.Errorf("(3,3) outside radius got %v", got)
	}
	// No wraparound: the opposite corner is untouched.
	if got := g.Corruption(5, 5); got != 0 {
		t.Errorf("wraparound leaked %v into (5,5)", got)
	}

	sanctuary := Emitter{X: 0, Y: 0, Kind: Sanctuary, Radius: 3, Strength: 1}
	sanctuary.Apply(g)
	if got := g.Corruption(0, 0); got != 0 {
		t.Errorf("sanctuary left %v at corner", got)
	}
}

func TestAccumulateInfluence(t *testing.T) {
	es := []Emitter{
		{X: 0, Y: 0, Radius: 2, Strength: 1},
		{X: 4, Y: 0, Radius: 2, Strength: 1},
	}
	if got := AccumulateInfluence(es, 2, 0); got != 0 {
		t.Errorf("midpoint at both edges = %v, want 0", got)
	}
	if got := AccumulateInfluence(es, 1, 0); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("(1,0) = %v, want 0.5", got)
	}
}
