package scene

import (
	"errors"
	"fmt"
	"slices"

	"github.com/vsaulue/Gustave-sub000/internal/sim/grid"
	"github.com/vsaulue/Gustave-sub000/internal/sim/model"
	"github.com/vsaulue/Gustave-sub000/internal/solver"
)

var (
	ErrStaleStructure = errors.New("structure is no longer valid")
	ErrNotInStructure = errors.New("block is not part of structure")
)

// Structure is one connected set of non-foundation blocks, plus the foundation
// blocks touching them. It is immutable once built. An edit touching it clears
// its validity flag; its data stays as it was, but queries then fail with
// ErrStaleStructure.
type Structure struct {
	id     StructureID
	valid  bool
	graph  *solver.Structure
	nodeOf map[grid.BlockIndex]solver.NodeIndex
	blocks []grid.BlockIndex
}

func (s *Structure) ID() StructureID { return s.id }

func (s *Structure) IsValid() bool { return s.valid }

func (s *Structure) stale() error {
	if !s.valid {
		return fmt.Errorf("structure %d: %w", s.id, ErrStaleStructure)
	}
	return nil
}

// SolverStructure returns the node/link graph handed to the solver.
func (s *Structure) SolverStructure() (*solver.Structure, error) {
	if err := s.stale(); err != nil {
		return nil, err
	}
	return s.graph, nil
}

func (s *Structure) NodeOf(i grid.BlockIndex) (solver.NodeIndex, error) {
	if err := s.stale(); err != nil {
		return 0, err
	}
	n, ok := s.nodeOf[i]
	if !ok {
		return 0, fmt.Errorf("block %v, structure %d: %w", i, s.id, ErrNotInStructure)
	}
	return n, nil
}

func (s *Structure) Contains(i grid.BlockIndex) (bool, error) {
	if err := s.stale(); err != nil {
		return false, err
	}
	_, ok := s.nodeOf[i]
	return ok, nil
}

// Blocks lists every node's block in node order, foundations included.
func (s *Structure) Blocks() ([]grid.BlockIndex, error) {
	if err := s.stale(); err != nil {
		return nil, err
	}
	return slices.Clone(s.blocks), nil
}

// Members lists the non-foundation blocks, sorted.
func (s *Structure) Members() ([]grid.BlockIndex, error) {
	if err := s.stale(); err != nil {
		return nil, err
	}
	var out []grid.BlockIndex
	for n, i := range s.blocks {
		if !s.graph.Node(solver.NodeIndex(n)).IsFoundation {
			out = append(out, i)
		}
	}
	slices.SortFunc(out, grid.Compare)
	return out, nil
}

func (s *Structure) NodeCount() int { return len(s.graph.Nodes()) }
func (s *Structure) LinkCount() int { return len(s.graph.Links()) }

// structureBuilder flood-fills one structure from a root block.
type structureBuilder struct {
	st    *Structure
	store *blockStore
	size  BlockSize
}

func buildStructure(id StructureID, store *blockStore, size BlockSize, root *blockData) (*Structure, error) {
	b := structureBuilder{
		st: &Structure{
			id:     id,
			valid:  true,
			graph:  solver.NewStructure(),
			nodeOf: map[grid.BlockIndex]solver.NodeIndex{},
		},
		store: store,
		size:  size,
	}

	queue := []*blockData{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.structure == b.st {
			continue
		}
		b.declare(cur)
		cur.structure = b.st
		cur.clearLinks()
		for _, nb := range store.neighbours(cur.Index) {
			switch {
			case nb.block.IsFoundation:
				b.declare(nb.block)
				if err := b.addContact(cur, nb); err != nil {
					return nil, err
				}
			case nb.block.structure != b.st:
				queue = append(queue, nb.block)
			default:
				if err := b.addContact(cur, nb); err != nil {
					return nil, err
				}
			}
		}
	}
	return b.st, nil
}

func (b *structureBuilder) declare(d *blockData) solver.NodeIndex {
	if n, ok := b.st.nodeOf[d.Index]; ok {
		return n
	}
	n := b.st.graph.AddNode(solver.Node{Mass: d.Mass, IsFoundation: d.IsFoundation})
	b.st.nodeOf[d.Index] = n
	b.st.blocks = append(b.st.blocks, d.Index)
	return n
}

// addContact links src to a neighbour already declared in the structure. The
// link's local node is the block with the lower coordinate.
func (b *structureBuilder) addContact(src *blockData, nb dataNeighbour) error {
	local, other, dir := src, nb.block, nb.direction
	if !dir.IsPlus() {
		local, other, dir = nb.block, src, dir.Opposite()
	}
	li, err := b.st.graph.AddLink(solver.Link{
		Local:     b.st.nodeOf[local.Index],
		Other:     b.st.nodeOf[other.Index],
		Normal:    dir.Normal(),
		Area:      b.size.ContactArea(dir.Axis()),
		Thickness: b.size.Thickness(dir.Axis()),
		MaxStress: model.MinStress(local.MaxStress, other.MaxStress),
	})
	if err != nil {
		return fmt.Errorf("structure %d: %w", b.st.id, err)
	}
	src.links[nb.direction] = li
	if !nb.block.IsFoundation {
		nb.block.links[nb.direction.Opposite()] = li
	}
	return nil
}
