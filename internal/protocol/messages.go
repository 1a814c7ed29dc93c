package protocol

import (
	"fmt"

	"github.com/vsaulue/Gustave-sub000/internal/sim/grid"
	"github.com/vsaulue/Gustave-sub000/internal/sim/model"
	"github.com/vsaulue/Gustave-sub000/internal/sim/scene"
	"github.com/vsaulue/Gustave-sub000/internal/sim/units"
)

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	SessionID       string      `json:"session_id"`
	WorldParams     WorldParams `json:"world_params"`
}

type WorldParams struct {
	BlockSize     [3]float64 `json:"block_size"`
	Gravity       [3]float64 `json:"gravity"`
	Precision     float64    `json:"precision"`
	MaxIterations int        `json:"max_iterations"`
	ClusterWidth  int        `json:"cluster_width,omitempty"`
}

// BlockSpec describes one block to add.
type BlockSpec struct {
	Pos        [3]int64             `json:"pos"`
	Mass       float64              `json:"mass"`
	MaxStress  model.PressureStress `json:"max_stress"`
	Foundation bool                 `json:"foundation,omitempty"`
}

func (b BlockSpec) Info() scene.BlockInfo {
	return scene.BlockInfo{
		Index:        grid.FromArray(b.Pos),
		Mass:         units.Mass(b.Mass),
		MaxStress:    b.MaxStress,
		IsFoundation: b.Foundation,
	}
}

// EDIT (client -> server)
type EditMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	ReqID           string      `json:"req_id"`
	Add             []BlockSpec `json:"add,omitempty"`
	Remove          [][3]int64  `json:"remove,omitempty"`
}

// Transaction converts the edit. Removals are declared first; the order does
// not change the outcome.
func (m EditMsg) Transaction() (*scene.Transaction, error) {
	tx := scene.NewTransaction()
	for _, p := range m.Remove {
		tx.RemoveBlock(grid.FromArray(p))
	}
	for _, b := range m.Add {
		if err := tx.AddBlock(b.Info()); err != nil {
			return nil, fmt.Errorf("edit %s: %w", m.ReqID, err)
		}
	}
	return tx, nil
}

// EDIT_RESULT (server -> client)
type EditResultMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	ReqID           string   `json:"req_id"`
	New             []uint32 `json:"new"`
	Deleted         []uint32 `json:"deleted"`
}

// QUERY_BLOCK (client -> server)
type QueryBlockMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	ReqID           string   `json:"req_id"`
	Pos             [3]int64 `json:"pos"`
}

// BLOCK (server -> client)
type BlockMsg struct {
	Type            string             `json:"type"`
	ProtocolVersion string             `json:"protocol_version"`
	ReqID           string             `json:"req_id"`
	Pos             [3]int64           `json:"pos"`
	Foundation      bool               `json:"foundation,omitempty"`
	Structure       uint32             `json:"structure,omitempty"`
	Status          string             `json:"status"`
	StressRatio     *model.StressRatio `json:"stress_ratio,omitempty"`
	Contacts        []ContactMsg       `json:"contacts,omitempty"`
}

type ContactMsg struct {
	Dir         string            `json:"dir"`
	Other       [3]int64          `json:"other"`
	Structure   uint32            `json:"structure"`
	Force       [3]float64        `json:"force"`
	ForceStress model.ForceStress `json:"force_stress"`
	StressRatio model.StressRatio `json:"stress_ratio"`
}

// QUERY_STRUCTURE (client -> server)
type QueryStructureMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id"`
	ID              uint32 `json:"id"`
}

// STRUCTURE (server -> client)
type StructureMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	ReqID           string     `json:"req_id"`
	ID              uint32     `json:"id"`
	Status          string     `json:"status"`
	SolverStatus    string     `json:"solver_status"`
	Iterations      int        `json:"iterations"`
	MaxError        *float64   `json:"max_error,omitempty"`
	Blocks          [][3]int64 `json:"blocks"`
}

// ERROR (server -> client)
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id,omitempty"`
	Code            string `json:"code"`
	Message         string `json:"message"`
}

func NewError(reqID, code, msg string) ErrorMsg {
	return ErrorMsg{
		Type:            TypeError,
		ProtocolVersion: Version,
		ReqID:           reqID,
		Code:            code,
		Message:         msg,
	}
}
