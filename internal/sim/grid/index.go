package grid

import (
	"fmt"
	"math"
)

// BlockIndex addresses one cell of the cuboid grid.
type BlockIndex struct {
	X int64 `json:"x"`
	Y int64 `json:"y"`
	Z int64 `json:"z"`
}

func Idx(x, y, z int64) BlockIndex { return BlockIndex{X: x, Y: y, Z: z} }

func FromArray(a [3]int64) BlockIndex { return BlockIndex{X: a[0], Y: a[1], Z: a[2]} }

func (i BlockIndex) ToArray() [3]int64 { return [3]int64{i.X, i.Y, i.Z} }

func (i BlockIndex) String() string { return fmt.Sprintf("(%d,%d,%d)", i.X, i.Y, i.Z) }

// Less orders indices by X, then Y, then Z.
func (i BlockIndex) Less(o BlockIndex) bool {
	if i.X != o.X {
		return i.X < o.X
	}
	if i.Y != o.Y {
		return i.Y < o.Y
	}
	return i.Z < o.Z
}

func Compare(a, b BlockIndex) int {
	switch {
	case a == b:
		return 0
	case a.Less(b):
		return -1
	default:
		return 1
	}
}

// Step returns the index next to i in direction d. ok is false when the step
// would overflow the coordinate range.
func (i BlockIndex) Step(d Direction) (n BlockIndex, ok bool) {
	n = i
	c := n.coord(d.Axis())
	if d.IsPlus() {
		if *c == math.MaxInt64 {
			return i, false
		}
		*c++
	} else {
		if *c == math.MinInt64 {
			return i, false
		}
		*c--
	}
	return n, true
}

func (i *BlockIndex) coord(a Axis) *int64 {
	switch a {
	case AxisX:
		return &i.X
	case AxisY:
		return &i.Y
	default:
		return &i.Z
	}
}

type Neighbour struct {
	Direction Direction
	Index     BlockIndex
}

// Neighbours lists the face neighbours of i in Directions order.
func (i BlockIndex) Neighbours() []Neighbour {
	out := make([]Neighbour, 0, len(Directions))
	for _, d := range Directions {
		if n, ok := i.Step(d); ok {
			out = append(out, Neighbour{Direction: d, Index: n})
		}
	}
	return out
}
