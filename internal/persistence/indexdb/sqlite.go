// Package indexdb keeps a SQLite read model of applied transactions and
// solver runs. The JSONL logs remain the source of truth; rows may be dropped
// when the writer falls behind.
package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vsaulue/Gustave-sub000/internal/persistence/snapshot"
	"github.com/vsaulue/Gustave-sub000/internal/sim/world"
)

type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropTx       atomic.Uint64
	dropSolve    atomic.Uint64
	dropSnapshot atomic.Uint64
}

type reqKind int

const (
	reqTransaction reqKind = iota + 1
	reqSolve
	reqSnapshot
)

type req struct {
	kind reqKind

	tx       world.TransactionEntry
	solve    world.SolveEntry
	snapshot snapshotRow
}

type snapshotRow struct {
	Seq    uint64
	Path   string
	Blocks int
	At     string
}

type Stats struct {
	QueueDepth        int
	QueueCapacity     int
	DropTxTotal       uint64
	DropSolveTotal    uint64
	DropSnapshotTotal uint64
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS transactions (
			seq INTEGER PRIMARY KEY,
			ts TEXT NOT NULL,
			added INTEGER NOT NULL,
			removed INTEGER NOT NULL,
			new_ids TEXT NOT NULL,
			deleted_ids TEXT NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS solves (
			structure_id INTEGER PRIMARY KEY,
			ts TEXT NOT NULL,
			nodes INTEGER NOT NULL,
			links INTEGER NOT NULL,
			status TEXT NOT NULL,
			iterations INTEGER NOT NULL,
			max_error REAL NOT NULL,
			duration_ns INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS solves_status ON solves(status);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			seq INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			blocks INTEGER NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
	}
	for _, q := range stmts {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:        len(s.ch),
		QueueCapacity:     cap(s.ch),
		DropTxTotal:       s.dropTx.Load(),
		DropSolveTotal:    s.dropSolve.Load(),
		DropSnapshotTotal: s.dropSnapshot.Load(),
	}
}

// WriteTransaction implements world.TxLogger.
func (s *SQLiteIndex) WriteTransaction(entry world.TransactionEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTransaction, tx: entry}:
	default:
		s.dropTx.Add(1)
	}
	return nil
}

// WriteSolve implements world.SolveLogger.
func (s *SQLiteIndex) WriteSolve(entry world.SolveEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqSolve, solve: entry}:
	default:
		s.dropSolve.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	if s == nil || s.closed.Load() {
		return
	}
	r := snapshotRow{
		Seq:    snap.Header.Seq,
		Path:   path,
		Blocks: len(snap.Blocks),
		At:     time.Now().UTC().Format(time.RFC3339),
	}
	select {
	case s.ch <- req{kind: reqSnapshot, snapshot: r}:
	default:
		s.dropSnapshot.Add(1)
	}
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertTx, _ := s.db.Prepare(`INSERT OR REPLACE INTO transactions(seq,ts,added,removed,new_ids,deleted_ids,raw_json) VALUES(?,?,?,?,?,?,?)`)
	insertSolve, _ := s.db.Prepare(`INSERT OR REPLACE INTO solves(structure_id,ts,nodes,links,status,iterations,max_error,duration_ns) VALUES(?,?,?,?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(seq,path,blocks,recorded_at) VALUES(?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertTx, insertSolve, insertSnapshot} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	exec := func(st *sql.Stmt, args ...any) {
		if st == nil || tx == nil {
			return
		}
		if _, err := tx.Stmt(st).Exec(args...); err != nil {
			rollback()
			return
		}
		opCount++
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqTransaction:
			e := r.tx
			raw, _ := json.Marshal(e)
			newIDs, _ := json.Marshal(e.NewIDs)
			deletedIDs, _ := json.Marshal(e.DeletedIDs)
			exec(insertTx,
				int64(e.Seq),
				e.Time.Format(time.RFC3339Nano),
				len(e.Added),
				len(e.Removed),
				string(nullToEmpty(newIDs)),
				string(nullToEmpty(deletedIDs)),
				string(raw),
			)
		case reqSolve:
			e := r.solve
			exec(insertSolve,
				int64(e.StructureID),
				e.Time.Format(time.RFC3339Nano),
				e.Nodes,
				e.Links,
				e.Status,
				e.Iterations,
				e.MaxError,
				int64(e.Duration),
			)
		case reqSnapshot:
			sn := r.snapshot
			exec(insertSnapshot, int64(sn.Seq), sn.Path, sn.Blocks, sn.At)
		}
		if tx != nil && (opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait) {
			commit()
		}
	}

	commit()
}

func nullToEmpty(b []byte) []byte {
	if string(b) == "null" {
		return []byte("[]")
	}
	return b
}
