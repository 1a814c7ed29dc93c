package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsaulue/Gustave-sub000/internal/sim/units"
)

func TestMinMaxStress(t *testing.T) {
	a := PressureStress{Compression: 10, Shear: 5, Tensile: 1}
	b := PressureStress{Compression: 2, Shear: 8, Tensile: 3}

	assert.Equal(t, PressureStress{Compression: 2, Shear: 5, Tensile: 1}, MinStress(a, b))
	assert.Equal(t, PressureStress{Compression: 10, Shear: 8, Tensile: 3}, MaxStress(a, b))
	assert.Equal(t, units.Pressure(10), a.MaxComponent())
}

func TestPositive(t *testing.T) {
	assert.True(t, PressureStress{1, 1, 1}.Positive())
	assert.False(t, PressureStress{1, 0, 1}.Positive())
	assert.False(t, PressureStress{1, 1, -2}.Positive())
}

func TestConductivityOf(t *testing.T) {
	c := ConductivityOf(PressureStress{Compression: 20, Shear: 10, Tensile: 4}, 2, 4)
	require.Equal(t, ConductivityStress{Compression: 10, Shear: 5, Tensile: 2}, c)
}

func TestRatioAndPressure(t *testing.T) {
	p := PressureOf(ForceStress{Compression: 8, Shear: 4, Tensile: 0}, 2)
	r := Ratio(p, PressureStress{Compression: 8, Shear: 1, Tensile: 1})
	assert.InDelta(t, 0.5, r.Compression, 1e-12)
	assert.InDelta(t, 2.0, r.Shear, 1e-12)
	assert.InDelta(t, 0.0, r.Tensile, 1e-12)
}
