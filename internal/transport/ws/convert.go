package ws

import (
	"github.com/vsaulue/Gustave-sub000/internal/protocol"
	"github.com/vsaulue/Gustave-sub000/internal/sim/scene"
	"github.com/vsaulue/Gustave-sub000/internal/sim/world"
)

func idList(ids []scene.StructureID) []uint32 {
	out := make([]uint32, len(ids))
	for i, id := range ids {
		out[i] = uint32(id)
	}
	return out
}

func blockMsg(reqID string, d world.BlockDetail) protocol.BlockMsg {
	m := protocol.BlockMsg{
		Type:            protocol.TypeBlock,
		ProtocolVersion: protocol.Version,
		ReqID:           reqID,
		Pos:             d.Block.Index.ToArray(),
		Foundation:      d.Block.IsFoundation,
		Structure:       uint32(d.Block.Structure),
		Status:          d.Status.String(),
		StressRatio:     d.StressRatio,
	}
	if d.Block.IsFoundation {
		m.Status = ""
	}
	for _, c := range d.Contacts {
		m.Contacts = append(m.Contacts, protocol.ContactMsg{
			Dir:         c.Direction.String(),
			Other:       c.Other.ToArray(),
			Structure:   uint32(c.Structure().ID()),
			Force:       c.Force.Array(),
			ForceStress: c.ForceStress,
			StressRatio: c.StressRatio,
		})
	}
	return m
}

func structureMsg(reqID string, d world.StructureDetail) protocol.StructureMsg {
	m := protocol.StructureMsg{
		Type:            protocol.TypeStructure,
		ProtocolVersion: protocol.Version,
		ReqID:           reqID,
		ID:              uint32(d.Report.ID),
		Status:          d.Report.Status,
		SolverStatus:    d.Report.Solver,
		Iterations:      d.Report.Iterations,
		MaxError:        d.Report.MaxError,
		Blocks:          make([][3]int64, len(d.Members)),
	}
	for i, b := range d.Members {
		m.Blocks[i] = b.ToArray()
	}
	return m
}
