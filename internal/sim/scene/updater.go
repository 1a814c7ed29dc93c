package scene

import (
	"github.com/vsaulue/Gustave-sub000/internal/sim/grid"
)

// updater applies one transaction. Roots are blocks whose structure must be
// rebuilt; they are kept in declaration order so that ids are assigned
// deterministically.
type updater struct {
	scene  *Scene
	result TransactionResult
	roots  []grid.BlockIndex
	isRoot map[grid.BlockIndex]bool
}

func (s *Scene) checkTransaction(tx *Transaction) error {
	for _, i := range tx.removed {
		if !s.blocks.contains(i) {
			return &InvalidTransactionError{Index: i, Reason: "deleting a missing block"}
		}
	}
	for _, b := range tx.added {
		if s.blocks.contains(b.Index) && !tx.removes(b.Index) {
			return &InvalidTransactionError{Index: b.Index, Reason: "inserting onto an occupied index"}
		}
	}
	return nil
}

func (u *updater) run(tx *Transaction) error {
	for _, i := range tx.removed {
		u.removeBlock(i)
	}
	for _, b := range tx.added {
		u.addBlock(b)
	}
	for _, r := range u.roots {
		if !u.isRoot[r] {
			continue
		}
		b := u.scene.blocks.find(r)
		if b == nil || b.IsFoundation || (b.structure != nil && b.structure.valid) {
			continue
		}
		id := u.scene.nextID
		st, err := buildStructure(id, &u.scene.blocks, u.scene.size, b)
		if err != nil {
			return err
		}
		u.scene.nextID++
		u.scene.structures[id] = st
		u.result.New.Add(uint32(id))
	}
	return nil
}

func (u *updater) removeBlock(i grid.BlockIndex) {
	b := u.scene.blocks.find(i)
	delete(u.isRoot, i)
	u.invalidate(b.structure)
	for _, nb := range u.scene.blocks.neighbours(i) {
		u.declareRoot(nb.block)
	}
	u.scene.blocks.erase(i)
}

func (u *updater) addBlock(info BlockInfo) {
	b := u.scene.blocks.insert(info)
	neighbours := u.scene.blocks.neighbours(info.Index)
	if info.IsFoundation {
		for _, nb := range neighbours {
			u.declareRoot(nb.block)
		}
		return
	}
	u.declareRoot(b)
	// A new block may bridge several structures.
	for _, nb := range neighbours {
		u.invalidate(nb.block.structure)
	}
}

func (u *updater) declareRoot(b *blockData) {
	if b.IsFoundation || u.isRoot[b.Index] {
		return
	}
	u.isRoot[b.Index] = true
	u.roots = append(u.roots, b.Index)
	u.invalidate(b.structure)
}

func (u *updater) invalidate(st *Structure) {
	if st == nil || !st.valid {
		return
	}
	st.valid = false
	delete(u.scene.structures, st.id)
	u.result.Deleted.Add(uint32(st.id))
}
