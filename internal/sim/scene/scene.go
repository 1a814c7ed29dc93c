// Package scene keeps a cuboid grid of blocks and its partition into
// structures. Every non-foundation block belongs to exactly one structure;
// foundations only appear as leaves of the structures touching them.
package scene

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/vsaulue/Gustave-sub000/internal/sim/grid"
	"github.com/vsaulue/Gustave-sub000/internal/sim/model"
	"github.com/vsaulue/Gustave-sub000/internal/sim/units"
	"github.com/vsaulue/Gustave-sub000/internal/solver"
)

var (
	ErrNoBlock   = errors.New("no block at index")
	ErrNoContact = errors.New("no contact")
)

type Scene struct {
	size       BlockSize
	blocks     blockStore
	structures map[StructureID]*Structure
	nextID     StructureID
}

func New(size BlockSize) (*Scene, error) {
	if err := size.Validate(); err != nil {
		return nil, err
	}
	return &Scene{
		size:       size,
		blocks:     newBlockStore(),
		structures: map[StructureID]*Structure{},
		nextID:     1,
	}, nil
}

func (s *Scene) BlockSize() BlockSize { return s.size }

func (s *Scene) Len() int { return s.blocks.len() }

// Modify applies tx atomically. An invalid transaction is rejected before any
// change and reported as *InvalidTransactionError.
func (s *Scene) Modify(tx *Transaction) (TransactionResult, error) {
	if err := s.checkTransaction(tx); err != nil {
		return TransactionResult{}, err
	}
	u := updater{
		scene:  s,
		result: newTransactionResult(),
		isRoot: map[grid.BlockIndex]bool{},
	}
	if err := u.run(tx); err != nil {
		return u.result, fmt.Errorf("modify: %w", err)
	}
	return u.result, nil
}

func (s *Scene) Block(i grid.BlockIndex) (Block, bool) {
	b := s.blocks.find(i)
	if b == nil {
		return Block{}, false
	}
	return b.view(), true
}

// Blocks returns every block sorted by index.
func (s *Scene) Blocks() []Block {
	idx := s.blocks.sortedIndices()
	out := make([]Block, len(idx))
	for k, i := range idx {
		out[k] = s.blocks.find(i).view()
	}
	return out
}

type Neighbour struct {
	Direction grid.Direction
	Block     Block
}

func (s *Scene) Neighbours(i grid.BlockIndex) []Neighbour {
	var out []Neighbour
	for _, nb := range s.blocks.neighbours(i) {
		out = append(out, Neighbour{Direction: nb.direction, Block: nb.block.view()})
	}
	return out
}

func (s *Scene) Structure(id StructureID) (*Structure, bool) {
	st, ok := s.structures[id]
	return st, ok
}

// Structures returns the valid structures sorted by id.
func (s *Scene) Structures() []*Structure {
	out := make([]*Structure, 0, len(s.structures))
	for _, st := range s.structures {
		out = append(out, st)
	}
	slices.SortFunc(out, byID)
	return out
}

// StructureOf returns the structure owning a non-foundation block.
func (s *Scene) StructureOf(i grid.BlockIndex) (*Structure, bool) {
	b := s.blocks.find(i)
	if b == nil || b.structure == nil || !b.structure.valid {
		return nil, false
	}
	return b.structure, true
}

// StructuresOf returns every structure containing the block: its own for a
// non-foundation block, those of its neighbours for a foundation.
func (s *Scene) StructuresOf(i grid.BlockIndex) []*Structure {
	b := s.blocks.find(i)
	if b == nil {
		return nil
	}
	if !b.IsFoundation {
		if st, ok := s.StructureOf(i); ok {
			return []*Structure{st}
		}
		return nil
	}
	var out []*Structure
	for _, nb := range s.blocks.neighbours(i) {
		st := nb.block.structure
		if st == nil || !st.valid || slices.Contains(out, st) {
			continue
		}
		out = append(out, st)
	}
	slices.SortFunc(out, byID)
	return out
}

func byID(a, b *Structure) int { return cmp.Compare(a.id, b.id) }

// Contact is the face shared by Source and Other, seen from Source.
type Contact struct {
	Source    grid.BlockIndex
	Other     grid.BlockIndex
	Direction grid.Direction
	Link      solver.LinkIndex
	// SourceNode and OtherNode index the structure's solver graph.
	SourceNode solver.NodeIndex
	OtherNode  solver.NodeIndex
	Area       units.Area
	MaxStress  model.PressureStress

	structure *Structure
}

func (c Contact) Structure() *Structure { return c.structure }

// Normal points from Source to Other.
func (c Contact) Normal() units.Vector3 { return c.Direction.Normal() }

// Contact finds the contact between block i and its neighbour along d.
func (s *Scene) Contact(i grid.BlockIndex, d grid.Direction) (Contact, error) {
	src := s.blocks.find(i)
	if src == nil {
		return Contact{}, fmt.Errorf("contact %v%v: %w", i, d, ErrNoBlock)
	}
	oi, ok := i.Step(d)
	if !ok {
		return Contact{}, fmt.Errorf("contact %v%v: %w", i, d, ErrNoContact)
	}
	other := s.blocks.find(oi)
	if other == nil {
		return Contact{}, fmt.Errorf("contact %v%v: %w", i, d, ErrNoBlock)
	}

	owner, slot := src, d
	if src.IsFoundation {
		owner, slot = other, d.Opposite()
	}
	if owner.IsFoundation {
		return Contact{}, fmt.Errorf("contact %v%v: between foundations: %w", i, d, ErrNoContact)
	}
	st := owner.structure
	if st == nil || !st.valid {
		return Contact{}, fmt.Errorf("contact %v%v: %w", i, d, ErrStaleStructure)
	}
	li := owner.links[slot]
	if li == noLink {
		return Contact{}, fmt.Errorf("contact %v%v: %w", i, d, ErrNoContact)
	}
	return Contact{
		Source:     i,
		Other:      oi,
		Direction:  d,
		Link:       li,
		SourceNode: st.nodeOf[i],
		OtherNode:  st.nodeOf[oi],
		Area:       s.size.ContactArea(d.Axis()),
		MaxStress:  model.MinStress(src.MaxStress, other.MaxStress),
		structure:  st,
	}, nil
}
