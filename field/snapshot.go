package field

// Snapshot is an immutable copy of both fields taken before a tick.
// Automata read neighbours from it so neither sees the other's
// in-progress output.
type Snapshot struct {
	w, h       int
	terrain    []Terrain
	corruption []float32
}

// Snapshot copies the current fields.
func (g *Grid) Snapshot() *Snapshot {
	s := &Snapshot{}
	g.SnapshotInto(s)
	return s
}

// SnapshotInto copies the current fields into s, reusing its buffers.
func (g *Grid) SnapshotInto(s *Snapshot) {
	s.w, s.h = g.w, g.h
	s.terrain = append(s.terrain[:0], g.terrain...)
	s.corruption = append(s.corruption[:0], g.corruption...)
}

// Width returns the number of columns.
func (s *Snapshot) Width() int { return s.w }

// Height returns the number of rows.
func (s *Snapshot) Height() int { return s.h }

// IsValid reports whether (x,y) lies inside the snapshot.
func (s *Snapshot) IsValid(x, y int) bool {
	return x >= 0 && x < s.w && y >= 0 && y < s.h
}

func (s *Snapshot) index(x, y int, access string) int {
	if !s.IsValid(x, y) {
		panic(&OutOfRangeError{X: x, Y: y, W: s.w, H: s.h, Access: access})
	}
	return y*s.w + x
}

// Terrain returns the pre-tick terrain state at (x,y).
func (s *Snapshot) Terrain(x, y int) Terrain {
	return s.terrain[s.index(x, y, "Snapshot.Terrain")]
}

// Corruption returns the pre-tick corruption level at (x,y).
func (s *Snapshot) Corruption(x, y int) float32 {
	return s.corruption[s.index(x, y, "Snapshot.Corruption")]
}

// TerrainCells returns a copy of the terrain buffer, the seed for a
// next-state buffer.
func (s *Snapshot) TerrainCells() []Terrain {
	return append([]Terrain(nil), s.terrain...)
}

// CorruptionCells returns a copy of the corruption buffer.
func (s *Snapshot) CorruptionCells() []float32 {
	return append([]float32(nil), s.corruption...)
}

// Reader is the read-only view shared by Grid and Snapshot.
type Reader interface {
	Width() int
	Height() int
	IsValid(x, y int) bool
	Terrain(x, y int) Terrain
	Corruption(x, y int) float32
}

var (
	_ Reader = (*Grid)(nil)
	_ Reader = (*Snapshot)(nil)
)
