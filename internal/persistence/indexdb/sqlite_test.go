package indexdb

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vsaulue/Gustave-sub000/internal/persistence/snapshot"
	"github.com/vsaulue/Gustave-sub000/internal/sim/scene"
	"github.com/vsaulue/Gustave-sub000/internal/sim/world"
)

func TestSQLiteIndex_QueueDropStats(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}
	s.ch <- req{kind: reqTransaction}

	_ = s.WriteTransaction(world.TransactionEntry{Seq: 2})
	_ = s.WriteSolve(world.SolveEntry{StructureID: 2})
	s.RecordSnapshot("/tmp/2.snap.zst", snapshot.SnapshotV1{})

	st := s.Stats()
	if st.DropTxTotal != 1 || st.DropSolveTotal != 1 || st.DropSnapshotTotal != 1 {
		t.Fatalf("drop stats mismatch: %+v", st)
	}
	if st.QueueDepth != 1 || st.QueueCapacity != 1 {
		t.Fatalf("queue stats mismatch: depth=%d cap=%d", st.QueueDepth, st.QueueCapacity)
	}
}

func TestSQLiteIndex_WritesRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index", "ledger.sqlite")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	_ = idx.WriteTransaction(world.TransactionEntry{
		Seq:        1,
		Time:       ts,
		Added:      []world.BlockRecord{{Pos: [3]int64{0, 0, 0}, Mass: 1}, {Pos: [3]int64{0, 1, 0}, Mass: 1}},
		NewIDs:     []scene.StructureID{1},
		DeletedIDs: nil,
	})
	_ = idx.WriteSolve(world.SolveEntry{
		StructureID: 1,
		Time:        ts,
		Nodes:       2,
		Links:       1,
		Status:      "CONVERGED",
		Iterations:  3,
		MaxError:    0.0002,
		Duration:    time.Millisecond,
	})
	idx.RecordSnapshot("/abs/1.snap.zst", snapshot.SnapshotV1{Header: snapshot.Header{Seq: 1}, Blocks: make([]snapshot.BlockV1, 2)})
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// Writes after close are ignored.
	_ = idx.WriteSolve(world.SolveEntry{StructureID: 9})

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()

	var (
		added   int
		newIDs  string
		deleted string
	)
	if err := db.QueryRow(`SELECT added,new_ids,deleted_ids FROM transactions WHERE seq=1`).Scan(&added, &newIDs, &deleted); err != nil {
		t.Fatalf("Scan transactions: %v", err)
	}
	if added != 2 || newIDs != "[1]" || deleted != "[]" {
		t.Fatalf("transaction row mismatch: added=%d new=%q deleted=%q", added, newIDs, deleted)
	}

	var (
		status     string
		iterations int
		maxErr     float64
		links      int
	)
	if err := db.QueryRow(`SELECT status,iterations,max_error,links FROM solves WHERE structure_id=1`).Scan(&status, &iterations, &maxErr, &links); err != nil {
		t.Fatalf("Scan solves: %v", err)
	}
	if status != "CONVERGED" || iterations != 3 || maxErr != 0.0002 || links != 1 {
		t.Fatalf("solve row mismatch: %s %d %v %d", status, iterations, maxErr, links)
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM solves`).Scan(&n); err != nil || n != 1 {
		t.Fatalf("solves count=%d err=%v", n, err)
	}
	var blocks int
	if err := db.QueryRow(`SELECT blocks FROM snapshots WHERE seq=1`).Scan(&blocks); err != nil || blocks != 2 {
		t.Fatalf("snapshot blocks=%d err=%v", blocks, err)
	}
}

func TestSQLiteIndex_AsWorldLoggers(t *testing.T) {
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "ledger.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer idx.Close()
	var (
		_ world.TxLogger    = idx
		_ world.SolveLogger = idx
	)
}
