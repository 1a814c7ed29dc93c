package tuning

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/vsaulue/Gustave-sub000/internal/sim/scene"
	"github.com/vsaulue/Gustave-sub000/internal/sim/units"
	"github.com/vsaulue/Gustave-sub000/internal/sim/world"
	"github.com/vsaulue/Gustave-sub000/internal/solver"
)

type Tuning struct {
	BlockSize [3]float64 `yaml:"block_size" validate:"dive,gt=0"`
	Gravity   [3]float64 `yaml:"gravity"`

	Precision     float64 `yaml:"precision" validate:"gt=0,lt=1"`
	MaxIterations int     `yaml:"max_iterations" validate:"gte=0"`
	ClusterWidth  int     `yaml:"cluster_width" validate:"gte=0,lte=64"`
	ClusterLadder bool    `yaml:"cluster_ladder"`

	DataDir string `yaml:"data_dir" validate:"required"`
	TxLog   bool   `yaml:"tx_log"`
	Ledger  string `yaml:"ledger"`
}

var validate = validator.New()

func Defaults() Tuning {
	return Tuning{
		BlockSize:     [3]float64{1, 1, 1},
		Gravity:       [3]float64{0, -9.81, 0},
		Precision:     0.001,
		MaxIterations: solver.DefaultMaxIterations,
		ClusterWidth:  3,
		ClusterLadder: true,
		DataDir:       "data",
		TxLog:         true,
	}
}

// Load reads a tuning file over the defaults. An empty path returns the
// defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	if strings.TrimSpace(path) == "" {
		t.Normalize()
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t *Tuning) Normalize() {
	if t == nil {
		return
	}
	t.DataDir = strings.TrimSpace(t.DataDir)
	t.Ledger = strings.TrimSpace(t.Ledger)
	if t.MaxIterations == 0 {
		t.MaxIterations = solver.DefaultMaxIterations
	}
}

func (t Tuning) Validate() error {
	if err := validate.Struct(t); err != nil {
		return err
	}
	if units.FromArray(t.Gravity).IsZero() {
		return errors.New("gravity must be non-zero")
	}
	return nil
}

func (t Tuning) SolverConfig() solver.Config {
	return solver.Config{
		G:             units.FromArray(t.Gravity),
		Precision:     t.Precision,
		MaxIterations: t.MaxIterations,
		ClusterWidth:  t.ClusterWidth,
		ClusterLadder: t.ClusterLadder,
	}
}

func (t Tuning) WorldConfig() world.Config {
	return world.Config{
		BlockSize: scene.BlockSize{
			X: units.Length(t.BlockSize[0]),
			Y: units.Length(t.BlockSize[1]),
			Z: units.Length(t.BlockSize[2]),
		},
		Solver: t.SolverConfig(),
	}
}
