package solver

// localContact is a contact tagged with the node it departs from.
type localContact struct {
	local NodeIndex
	contact
}

type layer struct {
	nodes []NodeIndex
	// low holds the contacts reaching the previous layer.
	low []localContact
	// weight is the weight of this layer and of every layer above it.
	weight float64
}

// layerStructure splits the graph by BFS depth from the foundations. Layer k
// holds the nodes at depth k+1.
type layerStructure struct {
	layers  []layer
	reached int
}

func newLayerStructure(g *graph) *layerStructure {
	ls := &layerStructure{}
	depth := make([]int, len(g.nodes))
	for i := range depth {
		depth[i] = -1
	}

	var cur []NodeIndex
	for i, n := range g.nodes {
		if n.foundation {
			depth[i] = 0
			cur = append(cur, NodeIndex(i))
		}
	}
	ls.reached += len(cur)

	var next []NodeIndex
	for _, n := range cur {
		for _, c := range g.contactsOf(n) {
			if depth[c.other] < 0 {
				depth[c.other] = 1
				next = append(next, c.other)
			}
		}
	}
	cur, next = next, cur[:0]

	for d := 1; len(cur) > 0; d++ {
		ls.reached += len(cur)
		l := layer{nodes: append([]NodeIndex(nil), cur...)}
		for _, n := range cur {
			l.weight += g.nodes[n].weight
			for _, c := range g.contactsOf(n) {
				od := depth[c.other]
				switch {
				case od < 0:
					depth[c.other] = d + 1
					next = append(next, c.other)
				case od < d:
					l.low = append(l.low, localContact{local: n, contact: c})
				}
			}
		}
		ls.layers = append(ls.layers, l)
		cur, next = next, cur[:0]
	}

	cumulated := 0.0
	for i := len(ls.layers) - 1; i >= 0; i-- {
		cumulated += ls.layers[i].weight
		ls.layers[i].weight = cumulated
	}
	return ls
}

// step shifts each layer, and everything above it, by the offset that balances
// the cumulated weight against the contacts holding the layer up.
func (ls *layerStructure) step(pots []float64, maxErrorFactor float64) {
	offsets := make([]float64, len(ls.layers))
	for i, l := range ls.layers {
		eval := func(offset float64) balancePoint {
			p := balancePoint{offset: offset, force: l.weight}
			for _, lc := range l.low {
				f, cond := lc.force(pots[lc.local]+offset, pots[lc.other])
				p.force += f
				p.deriv += cond
			}
			return p
		}
		offsets[i] = balance(eval, 0, maxErrorFactor*l.weight)
	}
	cumulated := 0.0
	for i, l := range ls.layers {
		cumulated += offsets[i]
		for _, n := range l.nodes {
			pots[n] += cumulated
		}
	}
}
