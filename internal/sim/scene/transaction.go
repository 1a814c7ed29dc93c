package scene

import (
	"errors"
	"fmt"

	"github.com/vsaulue/Gustave-sub000/internal/sim/grid"
)

var ErrInvalidTransaction = errors.New("invalid transaction")

// InvalidTransactionError reports the block that made a transaction unusable.
// It matches ErrInvalidTransaction with errors.Is.
type InvalidTransactionError struct {
	Index  grid.BlockIndex
	Reason string
}

func (e *InvalidTransactionError) Error() string {
	return fmt.Sprintf("invalid transaction at %v: %s", e.Index, e.Reason)
}

func (e *InvalidTransactionError) Unwrap() error { return ErrInvalidTransaction }

// Transaction is a batch of insertions and deletions applied atomically by
// Scene.Modify. Deletions always run before insertions, so a block can be
// replaced by removing and adding the same index.
type Transaction struct {
	added    []BlockInfo
	addedAt  map[grid.BlockIndex]struct{}
	removed  []grid.BlockIndex
	removeAt map[grid.BlockIndex]struct{}
}

func NewTransaction() *Transaction {
	return &Transaction{
		addedAt:  map[grid.BlockIndex]struct{}{},
		removeAt: map[grid.BlockIndex]struct{}{},
	}
}

func (t *Transaction) AddBlock(info BlockInfo) error {
	if err := info.Validate(); err != nil {
		return &InvalidTransactionError{Index: info.Index, Reason: err.Error()}
	}
	if _, dup := t.addedAt[info.Index]; dup {
		return &InvalidTransactionError{Index: info.Index, Reason: "block added twice"}
	}
	t.addedAt[info.Index] = struct{}{}
	t.added = append(t.added, info)
	return nil
}

// RemoveBlock declares a deletion. Repeated deletions of one index collapse.
func (t *Transaction) RemoveBlock(i grid.BlockIndex) {
	if _, dup := t.removeAt[i]; dup {
		return
	}
	t.removeAt[i] = struct{}{}
	t.removed = append(t.removed, i)
}

func (t *Transaction) Added() []BlockInfo         { return t.added }
func (t *Transaction) Removed() []grid.BlockIndex { return t.removed }
func (t *Transaction) Empty() bool                { return len(t.added) == 0 && len(t.removed) == 0 }

func (t *Transaction) removes(i grid.BlockIndex) bool {
	_, ok := t.removeAt[i]
	return ok
}

func (t *Transaction) Clear() {
	t.added = t.added[:0]
	t.removed = t.removed[:0]
	clear(t.addedAt)
	clear(t.removeAt)
}
