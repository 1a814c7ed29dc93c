package solver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vsaulue/Gustave-sub000/internal/sim/model"
	"github.com/vsaulue/Gustave-sub000/internal/sim/units"
)

func TestContactConductances(t *testing.T) {
	c := model.ConductivityStress{Compression: 20, Shear: 14, Tensile: 2}
	down := units.Vec(0, -1, 0)

	cases := []struct {
		name        string
		normal      units.Vector3
		g           units.Vector3
		plus, minus float64
	}{
		// Local node below: pulled by the other node through compression.
		{"vertical up", units.Vec(0, 1, 0), down, 20, 2},
		{"vertical down", units.Vec(0, -1, 0), down, 2, 20},
		{"horizontal", units.Vec(1, 0, 0), down, 14, 14},
		{"diagonal gravity", units.Vec(1, 0, 0), units.Vec(-1, -1, 0).Normalized(), 14 * math.Sqrt2, 2 * math.Sqrt2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plus, minus := contactConductances(c, tc.normal, tc.g)
			assert.InDelta(t, tc.plus, plus, 1e-9)
			assert.InDelta(t, tc.minus, minus, 1e-9)
		})
	}
}

func TestGraphContactsMirror(t *testing.T) {
	b := newGridBuilder().add(0, 0, 0, true).add(0, 1, 0, false).add(1, 1, 0, false)
	g := newGraph(b.build(t), gravity)

	assert.InDelta(t, 30000.0, g.nodes[1].weight, 1e-9)
	for li, sides := range g.linkSides {
		local, other := g.contacts[sides[0]], g.contacts[sides[1]]
		assert.Equal(t, LinkIndex(li), local.link)
		assert.Equal(t, local.cPlus, other.cMinus)
		assert.Equal(t, local.cMinus, other.cPlus)
	}
	assert.Len(t, g.contactsOf(1), 2)
	assert.True(t, g.anchored())
}
