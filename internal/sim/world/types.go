package world

import (
	"errors"
	"fmt"
	"time"

	"github.com/vsaulue/Gustave-sub000/internal/sim/grid"
	"github.com/vsaulue/Gustave-sub000/internal/sim/model"
	"github.com/vsaulue/Gustave-sub000/internal/sim/scene"
	"github.com/vsaulue/Gustave-sub000/internal/solver"
)

var (
	// ErrStaleStructure is scene.ErrStaleStructure, so either can be matched.
	ErrStaleStructure = scene.ErrStaleStructure
	ErrNotSolved      = errors.New("structure is not solved")
	ErrNoStructure    = errors.New("no such structure")
)

type Config struct {
	BlockSize scene.BlockSize
	Solver    solver.Config
}

type StructureStatus int

const (
	StatusInvalid StructureStatus = iota
	StatusUnsolved
	StatusSolved
)

func (s StructureStatus) String() string {
	switch s {
	case StatusInvalid:
		return "INVALID"
	case StatusUnsolved:
		return "UNSOLVED"
	case StatusSolved:
		return "SOLVED"
	}
	return fmt.Sprintf("StructureStatus(%d)", int(s))
}

type TxLogger interface {
	WriteTransaction(entry TransactionEntry) error
}

type SolveLogger interface {
	WriteSolve(entry SolveEntry) error
}

// BlockRecord is the logged form of an added block.
type BlockRecord struct {
	Pos        [3]int64             `json:"pos"`
	Mass       float64              `json:"mass"`
	MaxStress  model.PressureStress `json:"max_stress"`
	Foundation bool                 `json:"foundation,omitempty"`
}

func RecordOf(b scene.BlockInfo) BlockRecord {
	return BlockRecord{
		Pos:        b.Index.ToArray(),
		Mass:       float64(b.Mass),
		MaxStress:  b.MaxStress,
		Foundation: b.IsFoundation,
	}
}

type TransactionEntry struct {
	Seq        uint64              `json:"seq"`
	Time       time.Time           `json:"ts"`
	Added      []BlockRecord       `json:"added,omitempty"`
	Removed    [][3]int64          `json:"removed,omitempty"`
	NewIDs     []scene.StructureID `json:"new_ids,omitempty"`
	DeletedIDs []scene.StructureID `json:"deleted_ids,omitempty"`
}

type SolveEntry struct {
	StructureID scene.StructureID `json:"structure_id"`
	Time        time.Time         `json:"ts"`
	Nodes       int               `json:"nodes"`
	Links       int               `json:"links"`
	Status      string            `json:"status"`
	Iterations  int               `json:"iterations"`
	// MaxError is -1 when the solver diverged or failed.
	MaxError float64       `json:"max_error"`
	Duration time.Duration `json:"duration_ns"`
	Error    string        `json:"error,omitempty"`
}

// solveError is the SolveEntry status of a structure the solver rejected.
const solveError = "ERROR"

func removedRecords(idx []grid.BlockIndex) [][3]int64 {
	out := make([][3]int64, len(idx))
	for k, i := range idx {
		out[k] = i.ToArray()
	}
	return out
}
