package world

import (
	"errors"
	"math"

	"github.com/vsaulue/Gustave-sub000/internal/sim/grid"
	"github.com/vsaulue/Gustave-sub000/internal/sim/model"
	"github.com/vsaulue/Gustave-sub000/internal/sim/scene"
)

// Report is a deterministic dump of the world: structures by id, blocks by
// index.
type Report struct {
	Structures []StructureReport `json:"structures"`
	Blocks     []BlockReport     `json:"blocks"`
}

type StructureReport struct {
	ID         scene.StructureID `json:"id"`
	Status     string            `json:"status"`
	Solver     string            `json:"solver_status"`
	Iterations int               `json:"iterations"`
	// MaxError is omitted when the solver diverged.
	MaxError *float64 `json:"max_error,omitempty"`
	Blocks   int      `json:"blocks"`
	Clusters []int    `json:"clusters,omitempty"`
}

type BlockReport struct {
	Pos        grid.BlockIndex   `json:"pos"`
	Foundation bool              `json:"foundation,omitempty"`
	Structure  scene.StructureID `json:"structure,omitempty"`
	// StressRatio is nil when a structure holding the block is not solved.
	StressRatio *model.StressRatio `json:"stress_ratio,omitempty"`
}

func (w *World) Report() Report {
	r := Report{
		Structures: []StructureReport{},
		Blocks:     []BlockReport{},
	}
	for _, st := range w.Structures() {
		r.Structures = append(r.Structures, w.structureReport(st))
	}
	for _, b := range w.scene.Blocks() {
		br := BlockReport{Pos: b.Index, Foundation: b.IsFoundation, Structure: b.Structure}
		if ratio, err := w.StressRatio(b.Index); err == nil {
			br.StressRatio = &ratio
		}
		r.Blocks = append(r.Blocks, br)
	}
	return r
}

func (w *World) structureReport(st *Structure) StructureReport {
	res := st.Result()
	sr := StructureReport{
		ID:         st.ID(),
		Status:     st.Status().String(),
		Solver:     res.Status.String(),
		Iterations: res.Iterations,
		Clusters:   res.Clusters,
	}
	if e := res.MaxRelativeError; !math.IsNaN(e) && !math.IsInf(e, 0) {
		sr.MaxError = &e
	}
	if m, err := st.Members(); err == nil {
		sr.Blocks = len(m)
	}
	return sr
}

// BlockDetail is the full view of one block.
type BlockDetail struct {
	Block       scene.Block
	Status      StructureStatus
	StressRatio *model.StressRatio
	Contacts    []Contact
}

// DescribeBlock gathers what is known about block i. Forces are only filled in
// when every structure holding the block is solved.
func (w *World) DescribeBlock(i grid.BlockIndex) (BlockDetail, error) {
	b, ok := w.scene.Block(i)
	if !ok {
		return BlockDetail{}, scene.ErrNoBlock
	}
	d := BlockDetail{Block: b, Status: StatusInvalid}
	if st, ok := w.StructureOf(i); ok {
		d.Status = st.Status()
	}
	cs, err := w.Contacts(i)
	switch {
	case errors.Is(err, ErrNotSolved):
		return d, nil
	case err != nil:
		return d, err
	}
	ratio := model.StressRatio{}
	for _, c := range cs {
		ratio = model.MaxStress(ratio, c.StressRatio)
	}
	d.Contacts = cs
	d.StressRatio = &ratio
	return d, nil
}

// StructureDetail is the full view of one structure.
type StructureDetail struct {
	Report  StructureReport
	Members []grid.BlockIndex
}

func (w *World) DescribeStructure(id scene.StructureID) (StructureDetail, error) {
	st, err := w.Structure(id)
	if err != nil {
		return StructureDetail{}, err
	}
	m, err := st.Members()
	if err != nil {
		return StructureDetail{}, err
	}
	return StructureDetail{Report: w.structureReport(st), Members: m}, nil
}
