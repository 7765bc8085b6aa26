// Package field holds the two coupled per-cell fields of the map: the
// discrete terrain state and the continuous corruption intensity.
package field

import "fmt"

// Terrain is the discrete magical classification of a cell.
type Terrain uint8

const (
	Barren Terrain = iota
	Attuned
	Crystallized
	AncientTree

	NumTerrains = 4
)

var terrainNames = [NumTerrains]string{"barren", "attuned", "crystallized", "ancient_tree"}

// manaDensity is the single lookup shared by every automaton, scorer and
// event. Ordering: Barren < Attuned < AncientTree < Crystallized.
var manaDensity = [NumTerrains]float32{0, 0.55, 0.85, 0.75}

func (t Terrain) String() string {
	if int(t) < NumTerrains {
		return terrainNames[t]
	}
	return fmt.Sprintf("terrain(%d)", uint8(t))
}

// ParseTerrain is the inverse of String.
func ParseTerrain(s string) (Terrain, error) {
	for i, n := range terrainNames {
		if n == s {
			return Terrain(i), nil
		}
	}
	return Barren, fmt.Errorf("unknown terrain %q", s)
}

// IsMagical reports whether the state counts as a magical neighbour.
func (t Terrain) IsMagical() bool { return t != Barren }

// Lower returns the state one tier down. Trees fall to Attuned.
func (t Terrain) Lower() Terrain {
	switch t {
	case Crystallized, AncientTree:
		return Attuned
	default:
		return Barren
	}
}

// Raise returns the state one tier up along Barren→Attuned→Crystallized.
// Trees never arise from promotion and are returned unchanged.
func (t Terrain) Raise() Terrain {
	switch t {
	case Barren:
		return Attuned
	case Attuned:
		return Crystallized
	default:
		return t
	}
}

// tier is the promotion level: Barren 0, Attuned 1, Crystallized and
// trees 2.
func (t Terrain) tier() int {
	switch t {
	case Barren:
		return 0
	case Attuned:
		return 1
	default:
		return 2
	}
}

// ManaDensity returns the magical density of a terrain state.
func ManaDensity(t Terrain) float32 {
	if int(t) < NumTerrains {
		return manaDensity[t]
	}
	return 0
}

// TerrainCounts is a histogram of terrain states.
type TerrainCounts [NumTerrains]int

// Magical returns the number of non-Barren cells.
func (c TerrainCounts) Magical() int {
	return c[Attuned] + c[Crystallized] + c[AncientTree]
}

// Total returns the number of cells counted.
func (c TerrainCounts) Total() int {
	return c[Barren] + c.Magical()
}
