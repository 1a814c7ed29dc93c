package grid

import (
	"math"
	"testing"
)

func TestDirectionOpposite(t *testing.T) {
	for _, d := range Directions {
		o := d.Opposite()
		if o == d || o.Opposite() != d {
			t.Fatalf("%v: bad opposite %v", d, o)
		}
		if o.Axis() != d.Axis() || o.IsPlus() == d.IsPlus() {
			t.Fatalf("%v: opposite %v on wrong axis/side", d, o)
		}
		if got := d.Normal().Add(o.Normal()); !got.IsZero() {
			t.Fatalf("%v: normals do not cancel: %v", d, got)
		}
	}
}

func TestStepAndNeighbours(t *testing.T) {
	i := Idx(1, 2, 3)
	n, ok := i.Step(MinusY)
	if !ok || n != Idx(1, 1, 3) {
		t.Fatalf("step: got %v ok=%v", n, ok)
	}
	if got := len(i.Neighbours()); got != 6 {
		t.Fatalf("neighbours: got %d", got)
	}

	edge := Idx(math.MaxInt64, 0, math.MinInt64)
	if _, ok := edge.Step(PlusX); ok {
		t.Fatalf("expected overflow on +x")
	}
	if _, ok := edge.Step(MinusZ); ok {
		t.Fatalf("expected overflow on -z")
	}
	if got := len(edge.Neighbours()); got != 4 {
		t.Fatalf("edge neighbours: got %d", got)
	}
}

func TestParseDirection(t *testing.T) {
	for _, d := range Directions {
		got, err := ParseDirection(d.String())
		if err != nil || got != d {
			t.Fatalf("parse %q: got %v err=%v", d.String(), got, err)
		}
	}
	if _, err := ParseDirection("up"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestCompare(t *testing.T) {
	if Compare(Idx(0, 1, 0), Idx(0, 0, 5)) != 1 || Compare(Idx(0, 0, 0), Idx(0, 0, 0)) != 0 {
		t.Fatalf("compare mismatch")
	}
}
