package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vsaulue/Gustave-sub000/internal/persistence/archive"
	"github.com/vsaulue/Gustave-sub000/internal/persistence/snapshot"
	"github.com/vsaulue/Gustave-sub000/internal/protocol"
	"github.com/vsaulue/Gustave-sub000/internal/sim/world"
)

var sceneOut string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Convert between scene files and compressed snapshots",
}

var snapshotExportCmd = &cobra.Command{
	Use:   "export [scene.json] [out.snap.zst]",
	Short: "Solve a scene file and write it as a snapshot",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tune, err := loadTuning()
		if err != nil {
			return err
		}
		w, err := loadScene(tune, args[0])
		if err != nil {
			return err
		}
		snap := snapshot.Export(w)
		if err := snapshot.WriteSnapshot(args[1], snap); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		return printJSON(cmd.OutOrStdout(), snap.Header)
	},
}

var snapshotImportCmd = &cobra.Command{
	Use:   "import [in.snap.zst]",
	Short: "Load a snapshot, solve it and print the stress report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tune, err := loadTuning()
		if err != nil {
			return err
		}
		snap, err := snapshot.ReadSnapshot(args[0])
		if err != nil {
			return fmt.Errorf("read snapshot: %w", err)
		}
		w, err := world.New(snap.Header.WorldConfig(tune.WorldConfig()))
		if err != nil {
			return err
		}
		if _, err := snapshot.Import(w, snap); err != nil {
			return err
		}
		if sceneOut != "" {
			cfg := w.Config()
			b, err := protocol.SceneFileFromBlocks(cfg.BlockSize, cfg.Solver.G, w.Blocks()).MarshalIndent()
			if err != nil {
				return err
			}
			if err := os.WriteFile(sceneOut, append(b, '\n'), 0o644); err != nil {
				return err
			}
		}
		return printJSON(cmd.OutOrStdout(), w.Report())
	},
}

var snapshotInfoCmd = &cobra.Command{
	Use:   "info [in.snap.zst]",
	Short: "Print the header of a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := snapshot.ReadSnapshotHeader(args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), h)
	},
}

var snapshotArchiveCmd = &cobra.Command{
	Use:   "archive [in.snap.zst] [label]",
	Short: "Copy a snapshot into the archives of the data dir",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tune, err := loadTuning()
		if err != nil {
			return err
		}
		snap, err := snapshot.ReadSnapshot(args[0])
		if err != nil {
			return fmt.Errorf("read snapshot: %w", err)
		}
		dst, err := archive.Archive(tune.DataDir, args[1], args[0], snap)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), dst)
		return nil
	},
}

func init() {
	snapshotImportCmd.Flags().StringVar(&sceneOut, "scene-out", "", "also write the imported blocks as a scene file")
	snapshotCmd.AddCommand(snapshotExportCmd, snapshotImportCmd, snapshotInfoCmd, snapshotArchiveCmd)
	rootCmd.AddCommand(snapshotCmd)
}
