package world

import (
	"errors"
	"fmt"
	"math"

	"github.com/vsaulue/Gustave-sub000/internal/sim/grid"
	"github.com/vsaulue/Gustave-sub000/internal/sim/model"
	"github.com/vsaulue/Gustave-sub000/internal/sim/scene"
	"github.com/vsaulue/Gustave-sub000/internal/sim/units"
)

// Contact is a solved scene contact.
type Contact struct {
	scene.Contact
	// Force is applied on Source by Other.
	Force       units.Vector3
	ForceStress model.ForceStress
	StressRatio model.StressRatio
}

// Contact returns the force through the face between block i and its
// neighbour along d. The owning structure must be solved.
func (w *World) Contact(i grid.BlockIndex, d grid.Direction) (Contact, error) {
	sc, err := w.scene.Contact(i, d)
	if err != nil {
		return Contact{}, err
	}
	st, ok := w.structures[sc.Structure().ID()]
	if !ok {
		return Contact{}, fmt.Errorf("contact %v%v: %w", i, d, ErrStaleStructure)
	}
	sol, err := st.solution()
	if err != nil {
		return Contact{}, fmt.Errorf("contact %v%v: %w", i, d, err)
	}
	f, err := sol.ForceVectorOn(sc.SourceNode, sc.Link)
	if err != nil {
		return Contact{}, fmt.Errorf("contact %v%v: %w", i, d, err)
	}
	fs := forceStress(f, sc.Normal())
	return Contact{
		Contact:     sc,
		Force:       f,
		ForceStress: fs,
		StressRatio: model.Ratio(fs, model.ForceOf(sc.MaxStress, sc.Area)),
	}, nil
}

// forceStress splits f along the contact normal n (from source to other).
// Pulling towards other is tensile.
func forceStress(f, n units.Vector3) model.ForceStress {
	nc := f.Dot(n)
	return model.ForceStress{
		Compression: units.Force(math.Max(-nc, 0)),
		Shear:       units.Force(f.Sub(n.Scale(nc)).Norm()),
		Tensile:     units.Force(math.Max(nc, 0)),
	}
}

// Contacts lists the solved contacts of block i, in direction order.
// Neighbours sharing no link (two foundations) are skipped.
func (w *World) Contacts(i grid.BlockIndex) ([]Contact, error) {
	if _, ok := w.scene.Block(i); !ok {
		return nil, fmt.Errorf("contacts %v: %w", i, scene.ErrNoBlock)
	}
	if st, ok := w.StructureOf(i); ok {
		if _, err := st.solution(); err != nil {
			return nil, fmt.Errorf("contacts %v: %w", i, err)
		}
	}
	var out []Contact
	for _, nb := range w.scene.Neighbours(i) {
		c, err := w.Contact(i, nb.Direction)
		if errors.Is(err, scene.ErrNoContact) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// StressRatio is the component-wise maximum of the stress ratios of the
// block's contacts. A block without contacts has a zero ratio.
func (w *World) StressRatio(i grid.BlockIndex) (model.StressRatio, error) {
	cs, err := w.Contacts(i)
	if err != nil {
		return model.StressRatio{}, err
	}
	var r model.StressRatio
	for _, c := range cs {
		r = model.MaxStress(r, c.StressRatio)
	}
	return r, nil
}
