package scene

import "github.com/RoaringBitmap/roaring"

// StructureID identifies a structure for the whole life of a scene. Ids start
// at 1 and are never reused.
type StructureID uint32

const NoStructure StructureID = 0

// TransactionResult lists the structures created and invalidated by one
// transaction.
type TransactionResult struct {
	New     *roaring.Bitmap
	Deleted *roaring.Bitmap
}

func newTransactionResult() TransactionResult {
	return TransactionResult{New: roaring.New(), Deleted: roaring.New()}
}

func (r TransactionResult) NewIDs() []StructureID     { return toIDs(r.New) }
func (r TransactionResult) DeletedIDs() []StructureID { return toIDs(r.Deleted) }

func toIDs(b *roaring.Bitmap) []StructureID {
	if b == nil {
		return nil
	}
	out := make([]StructureID, 0, b.GetCardinality())
	it := b.Iterator()
	for it.HasNext() {
		out = append(out, StructureID(it.Next()))
	}
	return out
}
