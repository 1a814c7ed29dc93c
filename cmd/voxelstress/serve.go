package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/vsaulue/Gustave-sub000/internal/persistence/archive"
	"github.com/vsaulue/Gustave-sub000/internal/persistence/indexdb"
	persistlog "github.com/vsaulue/Gustave-sub000/internal/persistence/log"
	"github.com/vsaulue/Gustave-sub000/internal/persistence/snapshot"
	"github.com/vsaulue/Gustave-sub000/internal/sim/tuning"
	"github.com/vsaulue/Gustave-sub000/internal/sim/world"
	"github.com/vsaulue/Gustave-sub000/internal/transport/ws"
)

var (
	serveAddr       string
	serveSnapshot   string
	serveLoadLatest bool
	serveSaveOnExit bool
	serveDisableDB  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a world over websocket, with prometheus metrics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tune, err := loadTuning()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, tune)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "http listen address")
	serveCmd.Flags().StringVar(&serveSnapshot, "snapshot", "", "snapshot to load at start (optional)")
	serveCmd.Flags().BoolVar(&serveLoadLatest, "load-latest", true, "load the latest snapshot of the data dir when --snapshot is empty")
	serveCmd.Flags().BoolVar(&serveSaveOnExit, "save-on-exit", true, "write a snapshot to the data dir on shutdown")
	serveCmd.Flags().BoolVar(&serveDisableDB, "disable-db", false, "disable the SQLite ledger")
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, tune tuning.Tuning) error {
	w, err := world.New(tune.WorldConfig())
	if err != nil {
		return err
	}

	path := serveSnapshot
	if path == "" && serveLoadLatest {
		path = archive.Latest(tune.DataDir)
	}
	if path != "" {
		if err := restore(w, path); err != nil {
			return err
		}
	}

	var idx *indexdb.SQLiteIndex
	if tune.Ledger != "" && !serveDisableDB {
		idx, err = indexdb.OpenSQLite(tune.Ledger)
		if err != nil {
			return fmt.Errorf("open ledger: %w", err)
		}
		defer idx.Close()
		logger.Printf("ledger: %s", tune.Ledger)
	}

	var txLogs txLoggers
	var solveLogs solveLoggers
	if tune.TxLog {
		txLog := persistlog.NewTransactionLogger(tune.DataDir)
		solveLog := persistlog.NewSolveLogger(tune.DataDir)
		defer txLog.Close()
		defer solveLog.Close()
		txLogs = append(txLogs, txLog)
		solveLogs = append(solveLogs, solveLog)
	}
	if idx != nil {
		txLogs = append(txLogs, idx)
		solveLogs = append(solveLogs, idx)
	}
	if len(txLogs) > 0 {
		w.SetTxLogger(txLogs)
		w.SetSolveLogger(solveLogs)
	}

	rt := world.NewRuntime(w, logger)
	runErr := make(chan error, 1)
	go func() { runErr <- rt.Run(ctx) }()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/admin/v1/snapshot", snapshotHandler(rt, tune.DataDir, idx))
	mux.HandleFunc("/v1/ws", ws.NewServer(rt, logger).Handler())

	srv := &http.Server{
		Addr:              serveAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", serveAddr)
	listenErr := srv.ListenAndServe()
	if errors.Is(listenErr, http.ErrServerClosed) {
		listenErr = nil
	}
	rt.Stop()
	if err := <-runErr; err != nil && !errors.Is(err, context.Canceled) {
		logger.Printf("world stopped: %v", err)
	}

	// Run has returned: w is no longer shared.
	if serveSaveOnExit && len(w.Blocks()) > 0 {
		snap := snapshot.Export(w)
		p, err := archive.Save(tune.DataDir, snap)
		if err != nil {
			logger.Printf("snapshot write: %v", err)
		} else {
			idx.RecordSnapshot(p, snap)
			logger.Printf("snapshot: %s (%d blocks)", p, len(snap.Blocks))
		}
	}
	return listenErr
}

func restore(w *world.World, path string) error {
	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	res, err := snapshot.Import(w, snap)
	if err != nil {
		return fmt.Errorf("import snapshot %s: %w", filepath.Base(path), err)
	}
	logger.Printf("loaded snapshot %s: %d blocks, %d structures", path, len(snap.Blocks), len(res.NewIDs()))
	return nil
}

// snapshotHandler saves the live world on POST and returns the file path.
func snapshotHandler(rt *world.Runtime, dataDir string, idx *indexdb.SQLiteIndex) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			rw.Header().Set("Allow", http.MethodPost)
			http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		seq, blocks, err := rt.Export(r.Context())
		if err != nil {
			http.Error(rw, err.Error(), http.StatusServiceUnavailable)
			return
		}
		snap := snapshot.FromBlocks(rt.Config(), seq, blocks)
		p, err := archive.Save(dataDir, snap)
		if err != nil {
			logger.Printf("snapshot write: %v", err)
			http.Error(rw, "snapshot write failed", http.StatusInternalServerError)
			return
		}
		idx.RecordSnapshot(p, snap)
		rw.Header().Set("Content-Type", "application/json")
		_ = printJSON(rw, map[string]any{"path": p, "seq": seq, "blocks": len(blocks)})
	}
}

type txLoggers []world.TxLogger

func (ls txLoggers) WriteTransaction(e world.TransactionEntry) error {
	var first error
	for _, l := range ls {
		if err := l.WriteTransaction(e); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type solveLoggers []world.SolveLogger

func (ls solveLoggers) WriteSolve(e world.SolveEntry) error {
	var first error
	for _, l := range ls {
		if err := l.WriteSolve(e); err != nil && first == nil {
			first = err
		}
	}
	return first
}
