package solver

const noCluster = -1

// minLadderClusters stops the width ladder once a level gets too coarse to
// help.
const minLadderClusters = 8

type cluster struct {
	members []NodeIndex
	weight  float64
	// boundary lists the contacts leaving the cluster, foundations included.
	boundary []localContact
}

// clusterStructure groups chains of low-degree nodes so that a whole chain can
// be shifted in one balance step.
type clusterStructure struct {
	width     int
	clusters  []cluster
	clusterOf []int
}

// newClusterStructure grows clusters of at most width BFS rings.
//
// remaining[n] counts the contacts of n to non-foundation nodes that are not
// yet clustered. A ring consisting of a single node with a single unclaimed
// successor does not count toward width. After ring growth, neighbours whose
// remaining count drops to zero are absorbed, transitively. A cluster with no
// contact to an outside non-foundation node is discarded.
func newClusterStructure(g *graph, width int) *clusterStructure {
	if width < 1 {
		width = 1
	}
	cs := &clusterStructure{
		width:     width,
		clusterOf: make([]int, len(g.nodes)),
	}
	remaining := make([]int, len(g.nodes))
	for i, n := range g.nodes {
		cs.clusterOf[i] = noCluster
		if n.foundation {
			continue
		}
		for _, c := range g.contactsOf(NodeIndex(i)) {
			if !g.nodes[c.other].foundation {
				remaining[i]++
			}
		}
	}

	b := clusterBuilder{g: g, cs: cs, remaining: remaining, discarded: make([]bool, len(g.nodes))}
	for i := range g.nodes {
		if remaining[i] == 0 || cs.clusterOf[i] != noCluster || b.discarded[i] {
			continue
		}
		b.build(b.selectRoot(NodeIndex(i)))
	}
	return cs
}

// clusterBuilder carries the working state of one newClusterStructure call.
type clusterBuilder struct {
	g         *graph
	cs        *clusterStructure
	remaining []int
	// discarded marks nodes of rejected candidates; they may still join a
	// later cluster but are not used as roots again.
	discarded []bool

	// journal records remaining counts overwritten while growing the current
	// candidate, so that a discarded candidate can be rolled back.
	journal []journalEntry
}

type journalEntry struct {
	node  NodeIndex
	count int
}

func (b *clusterBuilder) setRemaining(n NodeIndex, v int) {
	b.journal = append(b.journal, journalEntry{node: n, count: b.remaining[n]})
	b.remaining[n] = v
}

// selectRoot moves off a chain end: a node with a single remaining contact
// hands the root over to that neighbour.
func (b *clusterBuilder) selectRoot(n NodeIndex) NodeIndex {
	if b.remaining[n] != 1 {
		return n
	}
	for _, c := range b.g.contactsOf(n) {
		if b.remaining[c.other] > 0 && b.cs.clusterOf[c.other] == noCluster {
			return c.other
		}
	}
	return n
}

func (b *clusterBuilder) build(root NodeIndex) {
	id := len(b.cs.clusters)
	b.journal = b.journal[:0]

	var members []NodeIndex
	claim := func(n NodeIndex) {
		b.cs.clusterOf[n] = id
		b.setRemaining(n, 0)
		members = append(members, n)
	}
	claimable := func(n NodeIndex) bool {
		return b.remaining[n] > 0 && b.cs.clusterOf[n] == noCluster
	}

	claim(root)
	frontier := []NodeIndex{root}
	for rings := 0; rings < b.cs.width; {
		var ring []NodeIndex
		for _, n := range frontier {
			for _, c := range b.g.contactsOf(n) {
				if claimable(c.other) {
					claim(c.other)
					ring = append(ring, c.other)
				}
			}
		}
		if len(ring) == 0 {
			break
		}
		if len(frontier) != 1 || len(ring) != 1 {
			rings++
		}
		frontier = ring
	}

	// Absorb nodes left with no unclustered neighbour.
	for i := 0; i < len(members); i++ {
		for _, c := range b.g.contactsOf(members[i]) {
			if !claimable(c.other) {
				continue
			}
			b.setRemaining(c.other, b.remaining[c.other]-1)
			if b.remaining[c.other] == 0 {
				claim(c.other)
			}
		}
	}

	cl := cluster{members: members}
	external := false
	for _, n := range members {
		cl.weight += b.g.nodes[n].weight
		for _, c := range b.g.contactsOf(n) {
			if b.cs.clusterOf[c.other] == id {
				continue
			}
			cl.boundary = append(cl.boundary, localContact{local: n, contact: c})
			if !b.g.nodes[c.other].foundation {
				external = true
			}
		}
	}
	if !external {
		for _, n := range members {
			b.cs.clusterOf[n] = noCluster
			b.discarded[n] = true
		}
		for i := len(b.journal) - 1; i >= 0; i-- {
			b.remaining[b.journal[i].node] = b.journal[i].count
		}
		return
	}
	b.cs.clusters = append(b.cs.clusters, cl)
}

// step balances every cluster against its boundary and shifts its members.
// Internal contacts are left untouched by a uniform shift, so only boundary
// contacts take part.
func (cs *clusterStructure) step(pots []float64, maxErrorFactor float64) {
	offsets := make([]float64, len(cs.clusters))
	for i := range cs.clusters {
		cl := &cs.clusters[i]
		eval := func(offset float64) balancePoint {
			p := balancePoint{offset: offset, force: cl.weight}
			for _, lc := range cl.boundary {
				f, cond := lc.force(pots[lc.local]+offset, pots[lc.other])
				p.force += f
				p.deriv += cond
			}
			return p
		}
		offsets[i] = balance(eval, 0, maxErrorFactor*cl.weight)
	}
	for n, id := range cs.clusterOf {
		if id != noCluster {
			pots[n] += offsets[id]
		}
	}
}

// clusterLadder builds cluster structures of increasing width starting at
// width, stopping once a level gets fewer than minLadderClusters clusters.
// Without ladder only the base width is built.
func clusterLadder(g *graph, width int, ladder bool) []*clusterStructure {
	if width <= 0 {
		return nil
	}
	if !ladder {
		cs := newClusterStructure(g, width)
		if len(cs.clusters) == 0 {
			return nil
		}
		return []*clusterStructure{cs}
	}
	var out []*clusterStructure
	for w := width; w <= len(g.nodes); w = 2*w + 1 {
		cs := newClusterStructure(g, w)
		if len(cs.clusters) < minLadderClusters {
			break
		}
		out = append(out, cs)
	}
	return out
}
