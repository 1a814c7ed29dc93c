package solver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vsaulue/Gustave-sub000/internal/sim/model"
	"github.com/vsaulue/Gustave-sub000/internal/sim/units"
)

var (
	gravity    = units.Vec(0, -10, 0)
	concrete20 = model.PressureStress{Compression: 20e6, Shear: 14e6, Tensile: 2e6}
)

const blockMass = units.Mass(3000)

type cell [3]int

// gridBuilder lays unit cubes on a grid and links every pair of face
// neighbours, foundation pairs excepted.
type gridBuilder struct {
	s  *Structure
	at map[cell]NodeIndex
}

func newGridBuilder() *gridBuilder {
	return &gridBuilder{s: NewStructure(), at: map[cell]NodeIndex{}}
}

func (b *gridBuilder) add(x, y, z int, foundation bool) *gridBuilder {
	b.at[cell{x, y, z}] = b.s.AddNode(Node{Mass: blockMass, IsFoundation: foundation})
	return b
}

func (b *gridBuilder) column(x, z, y0, y1 int, foundationBelow int) *gridBuilder {
	for y := y0; y <= y1; y++ {
		b.add(x, y, z, y < foundationBelow)
	}
	return b
}

func (b *gridBuilder) build(t *testing.T) *Structure {
	t.Helper()
	steps := []struct {
		d      cell
		normal units.Vector3
	}{
		{cell{1, 0, 0}, units.Vec(1, 0, 0)},
		{cell{0, 1, 0}, units.Vec(0, 1, 0)},
		{cell{0, 0, 1}, units.Vec(0, 0, 1)},
	}
	// Deterministic link order: walk nodes by index.
	byIndex := make([]cell, len(b.at))
	for c, i := range b.at {
		byIndex[i] = c
	}
	for li, c := range byIndex {
		local := NodeIndex(li)
		for _, st := range steps {
			nc := cell{c[0] + st.d[0], c[1] + st.d[1], c[2] + st.d[2]}
			other, ok := b.at[nc]
			if !ok {
				continue
			}
			if b.s.Node(local).IsFoundation && b.s.Node(other).IsFoundation {
				continue
			}
			_, err := b.s.AddLink(Link{
				Local:     local,
				Other:     other,
				Normal:    st.normal,
				Area:      1,
				Thickness: 1,
				MaxStress: concrete20,
			})
			require.NoError(t, err)
		}
	}
	return b.s
}

func (b *gridBuilder) node(x, y, z int) NodeIndex { return b.at[cell{x, y, z}] }

func newTestSolver(t *testing.T, cfg Config) *Solver {
	t.Helper()
	if cfg.G.IsZero() {
		cfg.G = gravity
	}
	if cfg.Precision == 0 {
		cfg.Precision = 0.001
	}
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

// bridge is two pillars joined by a deck, resting on two foundations.
func bridge() *gridBuilder {
	b := newGridBuilder()
	b.column(0, 0, 0, 3, 1)
	b.column(6, 0, 0, 3, 1)
	for x := 1; x < 6; x++ {
		b.add(x, 3, 0, false)
	}
	return b
}

// slab is a 6x6 deck carried by four corner pillars. Its load paths form
// cycles, so the layer step alone cannot settle it.
func slab() *gridBuilder {
	b := newGridBuilder()
	for _, c := range [][2]int{{0, 0}, {5, 0}, {0, 5}, {5, 5}} {
		b.column(c[0], c[1], 0, 1, 1)
	}
	for x := 0; x < 6; x++ {
		for z := 0; z < 6; z++ {
			b.add(x, 2, z, false)
		}
	}
	return b
}
