package solver

import "math"

// maxBalanceSteps bounds one local balance search.
const maxBalanceSteps = 64

// balancePoint is one evaluation of a monotonically decreasing force function.
// deriv is the sum of the conductances in use, so -deriv is the slope.
type balancePoint struct {
	offset float64
	force  float64
	deriv  float64
}

func (p balancePoint) next() float64 { return p.offset + p.force/p.deriv }

type evaluator func(offset float64) balancePoint

// balance finds an offset where |force| <= maxForce. It takes Newton steps
// until the force changes sign, then narrows the bracket around the root.
// When no offset within maxForce is found, the best one seen is returned.
func balance(eval evaluator, start, maxForce float64) float64 {
	cur := eval(start)
	if math.Abs(cur.force) <= maxForce || cur.deriv == 0 {
		return cur.offset
	}
	best := cur
	keep := func(p balancePoint) bool {
		if math.Abs(p.force) < math.Abs(best.force) {
			best = p
		}
		return math.Abs(p.force) <= maxForce
	}

	nxt := eval(cur.next())
	steps := 1
	if keep(nxt) {
		return nxt.offset
	}
	startSign := math.Signbit(cur.force)
	for math.Signbit(nxt.force) == startSign {
		if steps >= maxBalanceSteps || nxt.deriv == 0 || nxt.offset == cur.offset {
			return best.offset
		}
		cur = nxt
		nxt = eval(cur.next())
		steps++
		if keep(nxt) {
			return nxt.offset
		}
	}
	for steps < maxBalanceSteps {
		x, ok := bracketStep(cur, nxt)
		if !ok {
			break
		}
		mid := eval(x)
		steps++
		if keep(mid) {
			return mid.offset
		}
		if math.Signbit(mid.force) == startSign {
			cur = mid
		} else {
			nxt = mid
		}
	}
	return best.offset
}

// bracketStep picks the next offset strictly inside (a, b). A Newton step from
// either end is preferred, the end closer to balance first; otherwise the
// secant through both ends is used.
func bracketStep(a, b balancePoint) (float64, bool) {
	lo, hi := min(a.offset, b.offset), max(a.offset, b.offset)
	inside := func(x float64) bool { return x > lo && x < hi }

	first, second := a, b
	if math.Abs(b.force) < math.Abs(a.force) {
		first, second = b, a
	}
	for _, p := range [2]balancePoint{first, second} {
		if p.deriv == 0 {
			continue
		}
		if x := p.next(); inside(x) {
			return x, true
		}
	}
	span := b.force - a.force
	if span == 0 {
		return 0, false
	}
	x := a.offset - (b.offset-a.offset)/span*a.force
	return x, inside(x)
}
