package solver

import (
	"math"

	"github.com/vsaulue/Gustave-sub000/internal/sim/model"
	"github.com/vsaulue/Gustave-sub000/internal/sim/units"
)

// contactConductances returns the two conductances seen from the local node of
// a link: plus applies when the other node's potential is above the local one,
// minus when it is below. gDir must be normalized.
//
// The component of the normal along gravity decides which stress resists each
// direction; the shear limit caps both.
func contactConductances(c model.ConductivityStress, normal, gDir units.Vector3) (plus, minus float64) {
	nComp := normal.Dot(gDir)
	tangent := math.Inf(1)
	if t := 1 - nComp*nComp; t > 0 {
		tangent = float64(c.Shear) / math.Sqrt(t)
	}

	var nPlus, nMinus float64
	switch {
	case nComp == 0:
		nPlus, nMinus = math.Inf(1), math.Inf(1)
	case nComp > 0:
		nMinus = float64(c.Compression) / nComp
		nPlus = float64(c.Tensile) / nComp
	default:
		nMinus = -float64(c.Tensile) / nComp
		nPlus = -float64(c.Compression) / nComp
	}
	return min(nPlus, tangent), min(nMinus, tangent)
}
