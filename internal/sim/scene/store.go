package scene

import (
	"slices"

	"github.com/vsaulue/Gustave-sub000/internal/sim/grid"
)

// blockStore is the sparse block map of one scene.
type blockStore struct {
	blocks map[grid.BlockIndex]*blockData
}

func newBlockStore() blockStore {
	return blockStore{blocks: map[grid.BlockIndex]*blockData{}}
}

func (s *blockStore) find(i grid.BlockIndex) *blockData { return s.blocks[i] }

func (s *blockStore) contains(i grid.BlockIndex) bool {
	_, ok := s.blocks[i]
	return ok
}

func (s *blockStore) insert(info BlockInfo) *blockData {
	b := newBlockData(info)
	s.blocks[info.Index] = b
	return b
}

func (s *blockStore) erase(i grid.BlockIndex) { delete(s.blocks, i) }

func (s *blockStore) len() int { return len(s.blocks) }

type dataNeighbour struct {
	direction grid.Direction
	block     *blockData
}

// neighbours lists the stored face neighbours of i.
func (s *blockStore) neighbours(i grid.BlockIndex) []dataNeighbour {
	var out []dataNeighbour
	for _, n := range i.Neighbours() {
		if b := s.blocks[n.Index]; b != nil {
			out = append(out, dataNeighbour{direction: n.Direction, block: b})
		}
	}
	return out
}

// sortedIndices returns every stored index in grid.Compare order.
func (s *blockStore) sortedIndices() []grid.BlockIndex {
	out := make([]grid.BlockIndex, 0, len(s.blocks))
	for i := range s.blocks {
		out = append(out, i)
	}
	slices.SortFunc(out, grid.Compare)
	return out
}
