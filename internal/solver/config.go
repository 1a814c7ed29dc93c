package solver

import (
	"errors"
	"fmt"
	"math"

	"github.com/vsaulue/Gustave-sub000/internal/sim/units"
)

const DefaultMaxIterations = 10000

// balanceErrorFactor scales Precision into the tolerance of a single local
// balance, so that local steps undershoot the global target.
const balanceErrorFactor = 0.75

var ErrInvalidConfig = errors.New("invalid solver config")

type Config struct {
	// G is the gravity acceleration vector.
	G units.Vector3
	// Precision is the maximum accepted |net force / weight| of any node.
	Precision float64
	// MaxIterations caps the relaxation loop. Zero means DefaultMaxIterations.
	MaxIterations int
	// ClusterWidth enables coarsening when > 0.
	ClusterWidth int
	// ClusterLadder builds clusters of widths W, 2W+1, 4W+3... until a level
	// yields fewer than minLadderClusters clusters.
	ClusterLadder bool
}

func (c *Config) Normalize() {
	if c.MaxIterations <= 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	if c.ClusterWidth < 0 {
		c.ClusterWidth = 0
	}
}

func (c Config) Validate() error {
	if c.G.IsZero() || !finite(c.G.X) || !finite(c.G.Y) || !finite(c.G.Z) {
		return fmt.Errorf("%w: gravity must be a finite non-zero vector", ErrInvalidConfig)
	}
	if !(c.Precision > 0) || !finite(c.Precision) {
		return fmt.Errorf("%w: precision must be > 0 (got %v)", ErrInvalidConfig, c.Precision)
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
