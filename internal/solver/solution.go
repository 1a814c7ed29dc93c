package solver

import (
	"errors"
	"fmt"
	"math"

	"github.com/vsaulue/Gustave-sub000/internal/sim/units"
)

var ErrNotEndpoint = errors.New("node is not an endpoint of link")

// Solution exposes forces derived from a set of potentials. Positive forces
// point along gravity.
type Solution struct {
	g    *graph
	pots []float64
}

func (s *Solution) Structure() *Structure { return s.g.structure }

// GravityDirection is the unit vector forces are projected on.
func (s *Solution) GravityDirection() units.Vector3 { return s.g.gDir }

func (s *Solution) Potential(n NodeIndex) units.Potential { return units.Potential(s.pots[n]) }

func (s *Solution) Weight(n NodeIndex) units.Force { return units.Force(s.g.nodes[n].weight) }

// NetForce is the weight of n plus every contact force applied on it.
func (s *Solution) NetForce(n NodeIndex) units.Force {
	f, _ := s.g.nodeForce(s.pots, n, s.pots[n])
	return units.Force(f)
}

// RelativeError is |NetForce / weight|. Foundations report 0.
func (s *Solution) RelativeError(n NodeIndex) float64 {
	gn := s.g.nodes[n]
	if gn.foundation {
		return 0
	}
	return math.Abs(float64(s.NetForce(n)) / gn.weight)
}

func (s *Solution) MaxRelativeError() float64 {
	worst := 0.0
	for i := range s.g.nodes {
		worst = max(worst, s.RelativeError(NodeIndex(i)))
	}
	return worst
}

// ForceOn returns the signed force applied on n through link l.
func (s *Solution) ForceOn(n NodeIndex, l LinkIndex) (units.Force, error) {
	c, err := s.side(n, l)
	if err != nil {
		return 0, err
	}
	f, _ := c.force(s.pots[n], s.pots[c.other])
	return units.Force(f), nil
}

// ForceVectorOn is ForceOn projected along gravity.
func (s *Solution) ForceVectorOn(n NodeIndex, l LinkIndex) (units.Vector3, error) {
	f, err := s.ForceOn(n, l)
	if err != nil {
		return units.Vector3{}, err
	}
	return s.g.gDir.Scale(float64(f)), nil
}

// ForceFrom sums the forces applied on n by other. ok is false when the two
// nodes share no link.
func (s *Solution) ForceFrom(n, other NodeIndex) (f units.Force, ok bool) {
	for _, c := range s.g.contactsOf(n) {
		if c.other != other {
			continue
		}
		cf, _ := c.force(s.pots[n], s.pots[other])
		f += units.Force(cf)
		ok = true
	}
	return f, ok
}

func (s *Solution) side(n NodeIndex, l LinkIndex) (contact, error) {
	if l < 0 || int(l) >= len(s.g.linkSides) {
		return contact{}, fmt.Errorf("link %d out of range", l)
	}
	link := s.g.structure.links[l]
	switch n {
	case link.Local:
		return s.g.contacts[s.g.linkSides[l][0]], nil
	case link.Other:
		return s.g.contacts[s.g.linkSides[l][1]], nil
	}
	return contact{}, fmt.Errorf("node %d, link %d: %w", n, l, ErrNotEndpoint)
}
