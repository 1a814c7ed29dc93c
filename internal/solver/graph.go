package solver

import (
	"math"

	"github.com/vsaulue/Gustave-sub000/internal/sim/units"
)

// contact is one side of a link, as seen from the node that owns it.
type contact struct {
	other  NodeIndex
	link   LinkIndex
	cPlus  float64
	cMinus float64
}

// force returns the force applied on the source node and the conductance used.
func (c contact) force(source, other float64) (f, cond float64) {
	delta := other - source
	cond = c.cPlus
	if math.Signbit(delta) {
		cond = c.cMinus
	}
	return delta * cond, cond
}

type graphNode struct {
	weight     float64
	foundation bool
	first, end int
}

// graph is the solver's view of a Structure: node weights under gravity and
// per-node contact spans in one arena.
type graph struct {
	structure *Structure
	nodes     []graphNode
	contacts  []contact
	// linkSides[l] holds the contact index of link l on its local node, then
	// on its other node.
	linkSides [][2]int
	gDir      units.Vector3
	gNorm     float64
}

func newGraph(s *Structure, gravity units.Vector3) *graph {
	g := &graph{
		structure: s,
		nodes:     make([]graphNode, len(s.nodes)),
		contacts:  make([]contact, 2*len(s.links)),
		linkSides: make([][2]int, len(s.links)),
		gDir:      gravity.Normalized(),
		gNorm:     gravity.Norm(),
	}

	degree := make([]int, len(s.nodes))
	for _, l := range s.links {
		degree[l.Local]++
		degree[l.Other]++
	}
	next := 0
	for i, n := range s.nodes {
		g.nodes[i] = graphNode{
			weight:     float64(n.Mass.Weight(units.Acceleration(g.gNorm))),
			foundation: n.IsFoundation,
			first:      next,
			end:        next,
		}
		next += degree[i]
	}

	for li, l := range s.links {
		plus, minus := contactConductances(l.Conductivity(), l.Normal, g.gDir)
		local := &g.nodes[l.Local]
		other := &g.nodes[l.Other]

		g.contacts[local.end] = contact{other: l.Other, link: LinkIndex(li), cPlus: plus, cMinus: minus}
		g.contacts[other.end] = contact{other: l.Local, link: LinkIndex(li), cPlus: minus, cMinus: plus}
		g.linkSides[li] = [2]int{local.end, other.end}
		local.end++
		other.end++
	}
	return g
}

func (g *graph) contactsOf(n NodeIndex) []contact {
	gn := g.nodes[n]
	return g.contacts[gn.first:gn.end]
}

// anchored reports whether every node can reach a foundation.
func (g *graph) anchored() bool {
	reached := make([]bool, len(g.nodes))
	var stack []NodeIndex
	count := 0
	for i, n := range g.nodes {
		if n.foundation {
			reached[i] = true
			count++
			stack = append(stack, NodeIndex(i))
		}
	}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, c := range g.contactsOf(cur) {
			if !reached[c.other] {
				reached[c.other] = true
				count++
				stack = append(stack, c.other)
			}
		}
	}
	return count == len(g.nodes)
}

// nodeForce is the net force on n when its potential is pot and every other
// node keeps its value in pots.
func (g *graph) nodeForce(pots []float64, n NodeIndex, pot float64) (f, deriv float64) {
	f = g.nodes[n].weight
	for _, c := range g.contactsOf(n) {
		cf, cond := c.force(pot, pots[c.other])
		f += cf
		deriv += cond
	}
	return f, deriv
}
