// Package model defines the stress triples exchanged between the scene, the
// solver and the read views.
package model

import (
	"math"

	"github.com/vsaulue/Gustave-sub000/internal/sim/units"
)

type Stress[T ~float64] struct {
	Compression T `json:"compression" yaml:"compression"`
	Shear       T `json:"shear" yaml:"shear"`
	Tensile     T `json:"tensile" yaml:"tensile"`
}

type (
	PressureStress     = Stress[units.Pressure]
	ForceStress        = Stress[units.Force]
	ConductivityStress = Stress[units.Conductivity]
	StressRatio        = Stress[float64]
)

// MinStress keeps the weakest limit of each component.
func MinStress[T ~float64](a, b Stress[T]) Stress[T] {
	return Stress[T]{
		Compression: min(a.Compression, b.Compression),
		Shear:       min(a.Shear, b.Shear),
		Tensile:     min(a.Tensile, b.Tensile),
	}
}

// MaxStress keeps the strongest value of each component.
func MaxStress[T ~float64](a, b Stress[T]) Stress[T] {
	return Stress[T]{
		Compression: max(a.Compression, b.Compression),
		Shear:       max(a.Shear, b.Shear),
		Tensile:     max(a.Tensile, b.Tensile),
	}
}

// Positive reports whether every component is strictly positive and finite.
func (s Stress[T]) Positive() bool {
	ok := func(v T) bool { return v > 0 && !math.IsInf(float64(v), 1) }
	return ok(s.Compression) && ok(s.Shear) && ok(s.Tensile)
}

func (s Stress[T]) MaxComponent() T {
	return max(s.Compression, s.Shear, s.Tensile)
}

// Ratio divides num by den component-wise.
func Ratio[T ~float64](num, den Stress[T]) StressRatio {
	return StressRatio{
		Compression: float64(num.Compression) / float64(den.Compression),
		Shear:       float64(num.Shear) / float64(den.Shear),
		Tensile:     float64(num.Tensile) / float64(den.Tensile),
	}
}

// ConductivityOf converts material limits into link conductivities for a
// contact of the given area and thickness.
func ConductivityOf(limits PressureStress, area units.Area, thickness units.Length) ConductivityStress {
	return ConductivityStress{
		Compression: limits.Compression.Conductivity(area, thickness),
		Shear:       limits.Shear.Conductivity(area, thickness),
		Tensile:     limits.Tensile.Conductivity(area, thickness),
	}
}

// PressureOf spreads a force triple over an area.
func PressureOf(f ForceStress, area units.Area) PressureStress {
	return PressureStress{
		Compression: f.Compression.Per(area),
		Shear:       f.Shear.Per(area),
		Tensile:     f.Tensile.Per(area),
	}
}

// ForceOf scales pressure limits by an area.
func ForceOf(p PressureStress, area units.Area) ForceStress {
	return ForceStress{
		Compression: p.Compression.Times(area),
		Shear:       p.Shear.Times(area),
		Tensile:     p.Tensile.Times(area),
	}
}
