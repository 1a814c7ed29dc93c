// Package grid has the index arithmetic of the cuboid block grid.
package grid

import (
	"fmt"
	"strings"

	"github.com/vsaulue/Gustave-sub000/internal/sim/units"
)

type Axis uint8

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

type Direction uint8

const (
	PlusX Direction = iota
	MinusX
	PlusY
	MinusY
	PlusZ
	MinusZ
)

var Directions = [6]Direction{PlusX, MinusX, PlusY, MinusY, PlusZ, MinusZ}

var directionNames = [6]string{"+x", "-x", "+y", "-y", "+z", "-z"}

func (d Direction) Axis() Axis { return Axis(d / 2) }

func (d Direction) IsPlus() bool { return d%2 == 0 }

func (d Direction) Opposite() Direction { return d ^ 1 }

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return fmt.Sprintf("Direction(%d)", uint8(d))
}

// Normal is the unit basis vector pointing along d.
func (d Direction) Normal() units.Vector3 {
	s := 1.0
	if !d.IsPlus() {
		s = -1
	}
	switch d.Axis() {
	case AxisX:
		return units.Vec(s, 0, 0)
	case AxisY:
		return units.Vec(0, s, 0)
	default:
		return units.Vec(0, 0, s)
	}
}

func ParseDirection(s string) (Direction, error) {
	for i, n := range directionNames {
		if strings.EqualFold(s, n) {
			return Direction(i), nil
		}
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}
