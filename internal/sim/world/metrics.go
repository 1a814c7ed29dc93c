package world

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voxelstress_transactions_total",
		Help: "Scene transactions by result",
	}, []string{"result"})

	solveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voxelstress_solve_duration_seconds",
		Help:    "Time spent solving one structure",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
	})

	solveIterations = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voxelstress_solve_iterations",
		Help:    "Solver iterations per structure",
		Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
	})

	solveStatusTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voxelstress_solve_status_total",
		Help: "Solver outcomes by status",
	}, []string{"status"})

	liveStructures = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voxelstress_structures",
		Help: "Valid structures in the world",
	})
)
