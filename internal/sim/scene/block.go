package scene

import (
	"errors"
	"fmt"

	"github.com/vsaulue/Gustave-sub000/internal/sim/grid"
	"github.com/vsaulue/Gustave-sub000/internal/sim/model"
	"github.com/vsaulue/Gustave-sub000/internal/sim/units"
	"github.com/vsaulue/Gustave-sub000/internal/solver"
)

var ErrInvalidGeometry = errors.New("invalid block geometry")

// BlockSize is the extent of every block of a scene.
type BlockSize struct {
	X units.Length `json:"x"`
	Y units.Length `json:"y"`
	Z units.Length `json:"z"`
}

func (s BlockSize) Validate() error {
	if !(s.X > 0 && s.Y > 0 && s.Z > 0) {
		return fmt.Errorf("%w: block size must be > 0 on every axis (got %v,%v,%v)", ErrInvalidGeometry, s.X, s.Y, s.Z)
	}
	return nil
}

// ContactArea is the area of the face shared by two blocks along axis a.
func (s BlockSize) ContactArea(a grid.Axis) units.Area {
	switch a {
	case grid.AxisX:
		return s.Y.Times(s.Z)
	case grid.AxisY:
		return s.X.Times(s.Z)
	default:
		return s.X.Times(s.Y)
	}
}

// Thickness is the distance between the centres of two blocks along axis a.
func (s BlockSize) Thickness(a grid.Axis) units.Length {
	switch a {
	case grid.AxisX:
		return s.X
	case grid.AxisY:
		return s.Y
	default:
		return s.Z
	}
}

// BlockInfo describes a block to insert.
type BlockInfo struct {
	Index        grid.BlockIndex      `json:"index"`
	MaxStress    model.PressureStress `json:"max_stress"`
	Mass         units.Mass           `json:"mass"`
	IsFoundation bool                 `json:"foundation,omitempty"`
}

func (b BlockInfo) Validate() error {
	if !(b.Mass > 0) {
		return fmt.Errorf("block %v: mass must be > 0 (got %v)", b.Index, b.Mass)
	}
	if !b.MaxStress.Positive() {
		return fmt.Errorf("block %v: max stress must be > 0 (got %+v)", b.Index, b.MaxStress)
	}
	return nil
}

const noLink solver.LinkIndex = -1

// blockData is the stored record of a block. For non-foundation blocks, links
// maps each direction to a link of the owning structure. Foundations own no
// link slots: a foundation contact is found from its non-foundation side.
type blockData struct {
	BlockInfo
	structure *Structure
	links     [6]solver.LinkIndex
}

func newBlockData(info BlockInfo) *blockData {
	b := &blockData{BlockInfo: info}
	b.clearLinks()
	return b
}

func (b *blockData) clearLinks() {
	for i := range b.links {
		b.links[i] = noLink
	}
}

func (b *blockData) structureID() StructureID {
	if b.structure == nil {
		return NoStructure
	}
	return b.structure.id
}

// Block is a read-only copy of a stored block.
type Block struct {
	BlockInfo
	// Structure is NoStructure for foundations.
	Structure StructureID
}

func (b *blockData) view() Block {
	return Block{BlockInfo: b.BlockInfo, Structure: b.structureID()}
}
