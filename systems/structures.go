package systems

import (
	"errors"
	"fmt"
	"sort"

	"github.com/pthm-cable/leyline/config"
	"github.com/pthm-cable/leyline/field"
)

// StructureRegistry is queried by the automata each tick for the current
// sanctuary and pit emitters.
type StructureRegistry interface {
	Sanctuaries() []field.Emitter
	Pits() []field.Emitter
}

// StructureID identifies a placed structure.
type StructureID uint32

// StructureKind is the faction building type.
type StructureKind uint8

const (
	KindSanctuary StructureKind = iota
	KindPit
)

func (k StructureKind) String() string {
	if k == KindPit {
		return config.StructurePit
	}
	return config.StructureSanctuary
}

// ParseStructureKind maps a config kind string.
func ParseStructureKind(s string) (StructureKind, error) {
	switch s {
	case config.StructureSanctuary:
		return KindSanctuary, nil
	case config.StructurePit:
		return KindPit, nil
	}
	return 0, fmt.Errorf("unknown structure kind %q", s)
}

// ErrInvalidPlacement is returned when a structure cannot be placed on a cell.
var ErrInvalidPlacement = errors.New("invalid structure placement")

// Structure is a placed emitter.
type Structure struct {
	ID   StructureID
	Kind StructureKind
	X, Y int
}

// Structures is the registry that placed structures register into and
// deregister from. Iteration order is by ID.
type Structures struct {
	cfg    config.StructuresConfig
	nextID StructureID
	byID   map[StructureID]Structure
	order  []StructureID

	// cached emitter lists, rebuilt on change
	sanctuaries []field.Emitter
	pits        []field.Emitter
	dirty       bool
}

// NewStructures creates an empty registry.
func NewStructures(cfg config.StructuresConfig) (*Structures, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Structures{cfg: cfg, nextID: 1, byID: make(map[StructureID]Structure)}, nil
}

// Add registers a structure and returns its ID.
func (s *Structures) Add(kind StructureKind, x, y int) StructureID {
	id := s.nextID
	s.nextID++
	s.byID[id] = Structure{ID: id, Kind: kind, X: x, Y: y}
	s.order = append(s.order, id)
	s.dirty = true
	return id
}

// Remove deregisters a structure. It reports whether the ID existed.
func (s *Structures) Remove(id StructureID) bool {
	if _, ok := s.byID[id]; !ok {
		return false
	}
	delete(s.byID, id)
	i := sort.Search(len(s.order), func(i int) bool { return s.order[i] >= id })
	s.order = append(s.order[:i], s.order[i+1:]...)
	s.dirty = true
	return true
}

// Get returns a structure by ID.
func (s *Structures) Get(id StructureID) (Structure, bool) {
	st, ok := s.byID[id]
	return st, ok
}

// Len returns the number of registered structures.
func (s *Structures) Len() int { return len(s.order) }

// All returns every structure in ID order.
func (s *Structures) All() []Structure {
	out := make([]Structure, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Clear removes every structure.
func (s *Structures) Clear() {
	clear(s.byID)
	s.order = s.order[:0]
	s.dirty = true
}

// Params returns the radial parameters for a kind.
func (s *Structures) Params(kind StructureKind) config.StructureKindConfig {
	if kind == KindPit {
		return s.cfg.Pit
	}
	return s.cfg.Sanctuary
}

// SetParams replaces the radial parameters for a kind.
func (s *Structures) SetParams(kind StructureKind, p config.StructureKindConfig) {
	if kind == KindPit {
		s.cfg.Pit = p
	} else {
		s.cfg.Sanctuary = p
	}
	s.dirty = true
}

func (s *Structures) rebuild() {
	if !s.dirty {
		return
	}
	s.sanctuaries = s.sanctuaries[:0]
	s.pits = s.pits[:0]
	for _, id := range s.order {
		st := s.byID[id]
		p := s.Params(st.Kind)
		if st.Kind == KindPit {
			s.pits = append(s.pits, field.Emitter{X: st.X, Y: st.Y, Kind: field.CorruptorPit, Radius: p.Radius, Strength: p.Strength})
		} else {
			s.sanctuaries = append(s.sanctuaries, field.Emitter{X: st.X, Y: st.Y, Kind: field.Sanctuary, Radius: p.Radius, Strength: p.Strength})
		}
	}
	s.dirty = false
}

// Sanctuaries implements StructureRegistry.
func (s *Structures) Sanctuaries() []field.Emitter {
	s.rebuild()
	return s.sanctuaries
}

// Pits implements StructureRegistry.
func (s *Structures) Pits() []field.Emitter {
	s.rebuild()
	return s.pits
}

// CanPlace reports whether kind may be built at (x,y): sanctuaries need
// magical, uncorrupted land and pits need corrupted land.
func CanPlace(g *field.Grid, kind StructureKind, x, y int, corruptedAbove float32) bool {
	if !g.IsValid(x, y) {
		return false
	}
	if kind == KindPit {
		return g.Corruption(x, y) > corruptedAbove
	}
	return g.Terrain(x, y).IsMagical() && g.Corruption(x, y) < corruptedAbove
}

// PlacementBurst applies the one-shot field change of a new structure.
// Sanctuaries purify with radial falloff; pits corrupt a flat disc.
func PlacementBurst(g *field.Grid, kind StructureKind, x, y int, p config.StructureKindConfig) {
	if kind == KindPit {
		field.ForEachInRadius(g.Width(), g.Height(), x, y, p.PlacementRadius, func(cx, cy int, _ float64) {
			g.AddCorruption(cx, cy, float32(p.PlacementStrength))
		})
		return
	}
	e := field.Emitter{X: x, Y: y, Kind: field.Sanctuary, Radius: p.PlacementRadius, Strength: p.PlacementStrength}
	e.Apply(g)
}
