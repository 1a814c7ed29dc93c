package units

import "math"

type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func Vec(x, y, z float64) Vector3 { return Vector3{X: x, Y: y, Z: z} }

func (v Vector3) Add(o Vector3) Vector3 { return Vector3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vector3) Sub(o Vector3) Vector3 { return Vector3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vector3) Scale(k float64) Vector3 {
	return Vector3{v.X * k, v.Y * k, v.Z * k}
}
func (v Vector3) Dot(o Vector3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vector3) Norm() float64         { return math.Sqrt(v.Dot(v)) }
func (v Vector3) IsZero() bool          { return v.X == 0 && v.Y == 0 && v.Z == 0 }

// Normalized returns v scaled to unit length. The zero vector stays zero.
func (v Vector3) Normalized() Vector3 {
	n := v.Norm()
	if n == 0 {
		return v
	}
	return v.Scale(1 / n)
}

func (v Vector3) Array() [3]float64 { return [3]float64{v.X, v.Y, v.Z} }

func FromArray(a [3]float64) Vector3 { return Vector3{a[0], a[1], a[2]} }
