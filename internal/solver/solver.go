package solver

import (
	"errors"
	"fmt"
	"math"
)

var ErrEmptyStructure = errors.New("structure has no non-foundation node")

type Status int

const (
	StatusUnsolved Status = iota
	StatusSolving
	StatusConverged
	StatusDiverged
	StatusExhaustedIterations
	// StatusUnanchored: some node cannot reach any foundation.
	StatusUnanchored
)

var statusNames = map[Status]string{
	StatusUnsolved:            "UNSOLVED",
	StatusSolving:             "SOLVING",
	StatusConverged:           "CONVERGED",
	StatusDiverged:            "DIVERGED",
	StatusExhaustedIterations: "EXHAUSTED_ITERATIONS",
	StatusUnanchored:          "UNANCHORED",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

type Result struct {
	Status           Status
	Iterations       int
	MaxRelativeError float64
	// Solution is set whenever potentials were computed, converged or not.
	Solution *Solution
	// Clusters is the cluster count of each level used by the run.
	Clusters []int
}

func (r Result) Solved() bool { return r.Status == StatusConverged }

type Solver struct {
	cfg Config
}

func New(cfg Config) (*Solver, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Solver{cfg: cfg}, nil
}

func (s *Solver) Config() Config { return s.cfg }

// Run relaxes the potentials of st until every non-foundation node is balanced
// within Precision, or the iteration cap is hit. Non-convergence is reported in
// Result.Status, not as an error.
func (s *Solver) Run(st *Structure) (Result, error) {
	if st == nil {
		return Result{}, fmt.Errorf("run: %w", ErrEmptyStructure)
	}
	free := 0
	for _, n := range st.nodes {
		if !n.IsFoundation {
			free++
		}
	}
	if free == 0 {
		return Result{}, fmt.Errorf("run: %w", ErrEmptyStructure)
	}

	g := newGraph(st, s.cfg.G)
	if !g.anchored() {
		return Result{Status: StatusUnanchored}, nil
	}

	r := runState{
		cfg:    s.cfg,
		g:      g,
		layers: newLayerStructure(g),
		pots:   make([]float64, len(g.nodes)),
		status: StatusSolving,
	}
	r.clusters = clusterLadder(g, s.cfg.ClusterWidth, s.cfg.ClusterLadder)
	r.run()

	res := Result{
		Status:     r.status,
		Iterations: r.iterations,
		Solution:   &Solution{g: g, pots: r.pots},
	}
	res.MaxRelativeError = res.Solution.MaxRelativeError()
	for _, cs := range r.clusters {
		res.Clusters = append(res.Clusters, len(cs.clusters))
	}
	return res, nil
}

type runState struct {
	cfg        Config
	g          *graph
	layers     *layerStructure
	clusters   []*clusterStructure
	pots       []float64
	iterations int
	status     Status
}

func (r *runState) run() {
	factor := balanceErrorFactor * r.cfg.Precision
	for {
		maxErr := r.maxRelativeError()
		switch {
		case math.IsNaN(maxErr) || math.IsInf(maxErr, 0):
			r.status = StatusDiverged
			return
		case maxErr < r.cfg.Precision:
			r.status = StatusConverged
			return
		case r.iterations >= r.cfg.MaxIterations:
			r.status = StatusExhaustedIterations
			return
		}
		r.layers.step(r.pots, factor)
		for _, cs := range r.clusters {
			cs.step(r.pots, factor)
		}
		r.sweep(factor)
		r.iterations++
	}
}

// sweep is one in-place Gauss-Seidel pass over the non-foundation nodes.
func (r *runState) sweep(factor float64) {
	for i, n := range r.g.nodes {
		if n.foundation {
			continue
		}
		id := NodeIndex(i)
		eval := func(pot float64) balancePoint {
			f, d := r.g.nodeForce(r.pots, id, pot)
			return balancePoint{offset: pot, force: f, deriv: d}
		}
		r.pots[i] = balance(eval, r.pots[i], factor*n.weight)
	}
}

func (r *runState) maxRelativeError() float64 {
	worst := 0.0
	for i, n := range r.g.nodes {
		if n.foundation {
			continue
		}
		f, _ := r.g.nodeForce(r.pots, NodeIndex(i), r.pots[i])
		e := math.Abs(f / n.weight)
		if math.IsNaN(e) {
			return e
		}
		worst = max(worst, e)
	}
	return worst
}
