package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/vsaulue/Gustave-sub000/internal/protocol"
	"github.com/vsaulue/Gustave-sub000/internal/sim/tuning"
	"github.com/vsaulue/Gustave-sub000/internal/sim/world"
)

var (
	tuningPath string

	logger = log.New(os.Stderr, "[voxelstress] ", log.LstdFlags|log.Lmicroseconds)
)

var rootCmd = &cobra.Command{
	Use:           "voxelstress",
	Short:         "Track voxel structures and solve their internal forces",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&tuningPath, "tuning", "configs/tuning.yaml", "path to tuning.yaml (empty for built-in defaults)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadTuning falls back to the defaults when the tuning file does not exist.
func loadTuning() (tuning.Tuning, error) {
	tune, err := tuning.Load(tuningPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", tuningPath)
			return tuning.Load("")
		}
		return tune, fmt.Errorf("load tuning: %w", err)
	}
	return tune, nil
}

// sceneWorld builds an empty world using the block size of f and its gravity
// when it has one.
func sceneWorld(tune tuning.Tuning, f protocol.SceneFile) (*world.World, error) {
	cfg := tune.WorldConfig()
	cfg.BlockSize = f.Size()
	cfg.Solver.G = f.GravityOr(cfg.Solver.G)
	return world.New(cfg)
}

// loadScene reads a scene file and solves it in a fresh world.
func loadScene(tune tuning.Tuning, path string) (*world.World, error) {
	f, err := protocol.LoadSceneFile(path)
	if err != nil {
		return nil, err
	}
	w, err := sceneWorld(tune, f)
	if err != nil {
		return nil, err
	}
	tx, err := f.Transaction()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if _, err := w.Modify(tx); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
