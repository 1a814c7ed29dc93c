package world

import (
	"fmt"

	"github.com/vsaulue/Gustave-sub000/internal/sim/grid"
	"github.com/vsaulue/Gustave-sub000/internal/sim/scene"
	"github.com/vsaulue/Gustave-sub000/internal/solver"
)

// Structure pairs a scene structure with its solver outcome.
type Structure struct {
	scene  *scene.Structure
	result solver.Result
	status StructureStatus
}

func (s *Structure) ID() scene.StructureID { return s.scene.ID() }

func (s *Structure) Status() StructureStatus { return s.status }

// Result is kept for unsolved structures too.
func (s *Structure) Result() solver.Result { return s.result }

func (s *Structure) Scene() *scene.Structure { return s.scene }

func (s *Structure) Members() ([]grid.BlockIndex, error) {
	if s.status == StatusInvalid {
		return nil, fmt.Errorf("structure %d: %w", s.ID(), ErrStaleStructure)
	}
	return s.scene.Members()
}

func (s *Structure) solution() (*solver.Solution, error) {
	switch {
	case s.status == StatusInvalid:
		return nil, fmt.Errorf("structure %d: %w", s.ID(), ErrStaleStructure)
	case s.status != StatusSolved || s.result.Solution == nil:
		return nil, fmt.Errorf("structure %d (%v): %w", s.ID(), s.result.Status, ErrNotSolved)
	}
	return s.result.Solution, nil
}
