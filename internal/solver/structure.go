// Package solver computes how weight spreads through a graph of blocks resting
// on foundations. Nodes are blocks, links are face contacts, and the solved
// state is one potential per node.
package solver

import (
	"fmt"

	"github.com/vsaulue/Gustave-sub000/internal/sim/model"
	"github.com/vsaulue/Gustave-sub000/internal/sim/units"
)

type (
	NodeIndex int
	LinkIndex int
)

type Node struct {
	Mass         units.Mass
	IsFoundation bool
}

// Link is a contact between two nodes. Normal points from Local to Other.
type Link struct {
	Local     NodeIndex
	Other     NodeIndex
	Normal    units.Vector3
	Area      units.Area
	Thickness units.Length
	MaxStress model.PressureStress
}

// Conductivity is the link's stress limits scaled by its geometry.
func (l Link) Conductivity() model.ConductivityStress {
	return model.ConductivityOf(l.MaxStress, l.Area, l.Thickness)
}

// Structure stores nodes and links in flat arenas. It is filled once and only
// read afterwards; the solver never mutates it.
type Structure struct {
	nodes []Node
	links []Link
}

func NewStructure() *Structure { return &Structure{} }

func (s *Structure) AddNode(n Node) NodeIndex {
	s.nodes = append(s.nodes, n)
	return NodeIndex(len(s.nodes) - 1)
}

func (s *Structure) AddLink(l Link) (LinkIndex, error) {
	if err := s.checkNode(l.Local); err != nil {
		return 0, err
	}
	if err := s.checkNode(l.Other); err != nil {
		return 0, err
	}
	if l.Local == l.Other {
		return 0, fmt.Errorf("link %d-%d: self link", l.Local, l.Other)
	}
	if l.Area <= 0 || l.Thickness <= 0 {
		return 0, fmt.Errorf("link %d-%d: non-positive geometry", l.Local, l.Other)
	}
	s.links = append(s.links, l)
	return LinkIndex(len(s.links) - 1), nil
}

func (s *Structure) checkNode(i NodeIndex) error {
	if i < 0 || int(i) >= len(s.nodes) {
		return fmt.Errorf("node %d out of range [0,%d)", i, len(s.nodes))
	}
	return nil
}

func (s *Structure) Nodes() []Node { return s.nodes }
func (s *Structure) Links() []Link { return s.links }

func (s *Structure) Node(i NodeIndex) Node { return s.nodes[i] }
func (s *Structure) Link(i LinkIndex) Link { return s.links[i] }
