// Package units holds the scalar quantity types shared by the scene and the solver.
//
// Each type is a float64 underneath. Only the products and quotients that keep
// dimensions consistent are exposed as methods.
package units

import "math"

type (
	Mass         float64 // kg
	Length       float64 // m
	Area         float64 // m²
	Acceleration float64 // m/s²
	Force        float64 // N
	Pressure     float64 // Pa
	Conductivity float64 // N/m
	Potential    float64 // m
)

// InfConductivity is used for contacts that cannot fail in a given direction.
var InfConductivity = Conductivity(math.Inf(1))

func (l Length) Times(o Length) Area { return Area(float64(l) * float64(o)) }

func (m Mass) Weight(g Acceleration) Force { return Force(float64(m) * float64(g)) }

func (p Pressure) Times(a Area) Force { return Force(float64(p) * float64(a)) }

// Conductivity converts a stress limit over a contact of the given geometry.
func (p Pressure) Conductivity(a Area, thickness Length) Conductivity {
	return Conductivity(float64(p) * float64(a) / float64(thickness))
}

func (f Force) Per(a Area) Pressure { return Pressure(float64(f) / float64(a)) }

// Ratio is f / o, dimensionless.
func (f Force) Ratio(o Force) float64 { return float64(f) / float64(o) }

func (f Force) Abs() Force { return Force(math.Abs(float64(f))) }

func (c Conductivity) Times(p Potential) Force { return Force(float64(c) * float64(p)) }

func (c Conductivity) IsInf() bool { return math.IsInf(float64(c), 1) }
