package systems

import (
	"fmt"
	"math/rand"

	"github.com/pthm-cable/leyline/field"
)

// Automaton is one double-buffered field update. Prepare builds the full
// next state from the shared pre-tick snapshot, Swap installs it, and
// ApplyImmediate performs the direct writes that bypass the buffer.
type Automaton interface {
	Name() string
	Prepare(snap *field.Snapshot, structures StructureRegistry, rng *rand.Rand) error
	Swap(g *field.Grid) error
	ApplyImmediate(g *field.Grid)
}

// TransitionCounts[from][to] counts cells that changed terrain in a step.
type TransitionCounts [field.NumTerrains][field.NumTerrains]int

// Total returns the number of changed cells.
func (t TransitionCounts) Total() int {
	n := 0
	for from := range t {
		for to := range t[from] {
			if from != to {
				n += t[from][to]
			}
		}
	}
	return n
}

// StepResult summarises one coordinated step.
type StepResult struct {
	Ran         []string
	Transitions TransitionCounts
	Revision    uint64
}

// Stepper runs several automata against one snapshot and commits once.
// It reuses its snapshot buffer across steps.
type Stepper struct {
	snap field.Snapshot

	// OnPhase, if set, is called with each automaton name before it runs
	// and with "swap" before buffers are installed.
	OnPhase func(name string)
}

// Step takes a snapshot, prepares every automaton from it, swaps all
// next-state buffers, applies direct writes, then commits. No automaton
// observes another's output from the same step.
func (s *Stepper) Step(g *field.Grid, structures StructureRegistry, rng *rand.Rand, automata ...Automaton) (StepResult, error) {
	var res StepResult
	if len(automata) == 0 {
		return res, nil
	}

	g.SnapshotInto(&s.snap)

	for _, a := range automata {
		s.phase(a.Name())
		if err := a.Prepare(&s.snap, structures, rng); err != nil {
			return res, fmt.Errorf("%s prepare: %w", a.Name(), err)
		}
		res.Ran = append(res.Ran, a.Name())
	}

	s.phase("swap")
	for _, a := range automata {
		if err := a.Swap(g); err != nil {
			return res, fmt.Errorf("%s swap: %w", a.Name(), err)
		}
	}
	for _, a := range automata {
		a.ApplyImmediate(g)
	}

	w, h := g.Width(), g.Height()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			from, to := s.snap.Terrain(x, y), g.Terrain(x, y)
			if from != to {
				res.Transitions[from][to]++
			}
		}
	}

	g.Commit()
	res.Revision = g.Revision()
	return res, nil
}

func (s *Stepper) phase(name string) {
	if s.OnPhase != nil {
		s.OnPhase(name)
	}
}
