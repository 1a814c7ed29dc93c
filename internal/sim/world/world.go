// Package world keeps a scene solved: every structure created by a
// transaction is handed to the solver before Modify returns.
package world

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/vsaulue/Gustave-sub000/internal/sim/grid"
	"github.com/vsaulue/Gustave-sub000/internal/sim/scene"
	"github.com/vsaulue/Gustave-sub000/internal/solver"
)

type World struct {
	cfg    Config
	scene  *scene.Scene
	solver *solver.Solver

	structures map[scene.StructureID]*Structure
	// lastID is the highest structure id handed out so far.
	lastID scene.StructureID
	seq    uint64

	// Optional loggers (may be nil).
	txLogger    TxLogger
	solveLogger SolveLogger

	now func() time.Time
	// run replaces solver.Run when set.
	run func(*solver.Structure) (solver.Result, error)
}

func New(cfg Config) (*World, error) {
	sc, err := scene.New(cfg.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("world: %w", err)
	}
	sv, err := solver.New(cfg.Solver)
	if err != nil {
		return nil, fmt.Errorf("world: %w", err)
	}
	cfg.Solver = sv.Config()
	return &World{
		cfg:        cfg,
		scene:      sc,
		solver:     sv,
		structures: map[scene.StructureID]*Structure{},
		now:        time.Now,
	}, nil
}

func (w *World) SetTxLogger(l TxLogger)       { w.txLogger = l }
func (w *World) SetSolveLogger(l SolveLogger) { w.solveLogger = l }

// Config returns the normalized configuration.
func (w *World) Config() Config { return w.cfg }

func (w *World) Scene() *scene.Scene { return w.scene }

// Seq is the number of transactions applied so far.
func (w *World) Seq() uint64 { return w.seq }

// Modify applies tx to the scene and solves every new structure. Structures
// the solver cannot balance are kept as StatusUnsolved; that is not an error.
func (w *World) Modify(tx *scene.Transaction) (scene.TransactionResult, error) {
	return w.apply(tx, w.seq+1)
}

// Replay applies tx as a transaction numbered after both the world's sequence
// and seq. Restoring a snapshot taken at seq goes through Replay so that later
// transactions never reuse a sequence number of the saved history.
func (w *World) Replay(tx *scene.Transaction, seq uint64) (scene.TransactionResult, error) {
	return w.apply(tx, max(w.seq, seq)+1)
}

func (w *World) apply(tx *scene.Transaction, seq uint64) (scene.TransactionResult, error) {
	res, err := w.scene.Modify(tx)
	if err != nil {
		transactionsTotal.WithLabelValues("rejected").Inc()
		return res, err
	}
	transactionsTotal.WithLabelValues("applied").Inc()
	w.seq = seq

	// The scene already holds the new structures: every one of them gets a
	// world entry, solved or not, before any is published.
	newIDs := res.NewIDs()
	solved := make([]*Structure, 0, len(newIDs))
	for _, id := range newIDs {
		sst, ok := w.scene.Structure(id)
		if !ok {
			continue
		}
		solved = append(solved, w.solve(sst))
	}

	for _, id := range res.DeletedIDs() {
		if st, ok := w.structures[id]; ok {
			st.status = StatusInvalid
			delete(w.structures, id)
		}
	}
	for _, st := range solved {
		w.structures[st.ID()] = st
		w.lastID = max(w.lastID, st.ID())
	}
	liveStructures.Set(float64(len(w.structures)))

	if w.txLogger != nil {
		_ = w.txLogger.WriteTransaction(w.transactionEntry(tx, res))
	}
	return res, nil
}

func (w *World) transactionEntry(tx *scene.Transaction, res scene.TransactionResult) TransactionEntry {
	e := TransactionEntry{
		Seq:        w.seq,
		Time:       w.now().UTC(),
		Removed:    removedRecords(tx.Removed()),
		NewIDs:     res.NewIDs(),
		DeletedIDs: res.DeletedIDs(),
	}
	for _, b := range tx.Added() {
		e.Added = append(e.Added, RecordOf(b))
	}
	return e
}

// solve never fails: a structure the solver rejects is kept as StatusUnsolved
// with an empty result, and the error goes to the solve log.
func (w *World) solve(sst *scene.Structure) *Structure {
	st := &Structure{scene: sst, status: StatusUnsolved}
	entry := SolveEntry{
		StructureID: sst.ID(),
		Nodes:       sst.NodeCount(),
		Links:       sst.LinkCount(),
	}

	start := time.Now()
	res, err := w.runSolver(sst)
	took := time.Since(start)
	if err != nil {
		solveStatusTotal.WithLabelValues(solveError).Inc()
		entry.Status = solveError
		entry.MaxError = -1
		entry.Error = err.Error()
	} else {
		solveDuration.Observe(took.Seconds())
		solveIterations.Observe(float64(res.Iterations))
		solveStatusTotal.WithLabelValues(res.Status.String()).Inc()

		st.result = res
		if res.Solved() {
			st.status = StatusSolved
		}
		entry.Status = res.Status.String()
		entry.Iterations = res.Iterations
		entry.MaxError = finiteOr(res.MaxRelativeError, -1)
	}

	if w.solveLogger != nil {
		entry.Time = w.now().UTC()
		entry.Duration = took
		_ = w.solveLogger.WriteSolve(entry)
	}
	return st
}

func (w *World) runSolver(sst *scene.Structure) (solver.Result, error) {
	graph, err := sst.SolverStructure()
	if err != nil {
		return solver.Result{}, err
	}
	if w.run != nil {
		return w.run(graph)
	}
	res, err := w.solver.Run(graph)
	if err != nil {
		return res, fmt.Errorf("solve structure %d: %w", sst.ID(), err)
	}
	return res, nil
}

func (w *World) Block(i grid.BlockIndex) (scene.Block, bool) { return w.scene.Block(i) }

func (w *World) Blocks() []scene.Block { return w.scene.Blocks() }

func (w *World) Neighbours(i grid.BlockIndex) []scene.Neighbour { return w.scene.Neighbours(i) }

// Structure looks up a valid structure. Ids that existed once fail with
// ErrStaleStructure, unknown ones with ErrNoStructure.
func (w *World) Structure(id scene.StructureID) (*Structure, error) {
	if st, ok := w.structures[id]; ok {
		return st, nil
	}
	if id != scene.NoStructure && id <= w.lastID {
		return nil, fmt.Errorf("structure %d: %w", id, ErrStaleStructure)
	}
	return nil, fmt.Errorf("structure %d: %w", id, ErrNoStructure)
}

// Structures returns the valid structures sorted by id.
func (w *World) Structures() []*Structure {
	out := make([]*Structure, 0, len(w.structures))
	for _, st := range w.structures {
		out = append(out, st)
	}
	slices.SortFunc(out, func(a, b *Structure) int { return cmp.Compare(a.ID(), b.ID()) })
	return out
}

func (w *World) StructureOf(i grid.BlockIndex) (*Structure, bool) {
	sst, ok := w.scene.StructureOf(i)
	if !ok {
		return nil, false
	}
	st, ok := w.structures[sst.ID()]
	return st, ok
}

func (w *World) StructuresOf(i grid.BlockIndex) []*Structure {
	var out []*Structure
	for _, sst := range w.scene.StructuresOf(i) {
		if st, ok := w.structures[sst.ID()]; ok {
			out = append(out, st)
		}
	}
	return out
}

func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
