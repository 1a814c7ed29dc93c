package units

import (
	"math"
	"testing"
)

func TestConductivity(t *testing.T) {
	c := Pressure(20e6).Conductivity(Length(1).Times(2), 4)
	if c != 10e6 {
		t.Fatalf("conductivity: got %v", c)
	}
	if f := c.Times(0.5); f != 5e6 {
		t.Fatalf("force: got %v", f)
	}
	if !InfConductivity.IsInf() || c.IsInf() {
		t.Fatalf("IsInf mismatch")
	}
}

func TestVector3(t *testing.T) {
	v := Vec(3, 0, -4)
	if v.Norm() != 5 {
		t.Fatalf("norm: got %v", v.Norm())
	}
	n := v.Normalized()
	if math.Abs(n.Norm()-1) > 1e-12 {
		t.Fatalf("normalized norm: %v", n.Norm())
	}
	if got := v.Dot(Vec(1, 7, 1)); got != -1 {
		t.Fatalf("dot: got %v", got)
	}
	if !(Vector3{}).Normalized().IsZero() {
		t.Fatalf("zero vector should stay zero")
	}
	if got := v.Sub(v.Scale(2)).Add(v); !got.IsZero() {
		t.Fatalf("sub/add: got %v", got)
	}
}
