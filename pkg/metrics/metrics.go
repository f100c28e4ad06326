package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds the metrics reported by annealing runs
type Registry struct {
	registry *prometheus.Registry

	RunsTotal       *prometheus.CounterVec
	RunDuration     *prometheus.HistogramVec
	IterationsTotal prometheus.Counter
	MovesTotal      *prometheus.CounterVec
	ActiveSpins     prometheus.Gauge
	FinalEnergy     prometheus.Gauge
}

// NewRegistry creates a registry with every metric registered on a fresh
// prometheus.Registry
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	factory := promauto.With(r.registry)

	r.RunsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spinglass_runs_total",
			Help: "Total number of community detection runs",
		},
		[]string{"corr", "status"},
	)

	r.RunDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spinglass_run_duration_seconds",
			Help:    "Community detection run duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1.0, 5.0, 30.0, 120.0},
		},
		[]string{"corr"},
	)

	r.IterationsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "spinglass_iterations_total",
			Help: "Total number of annealing iterations completed",
		},
	)

	r.MovesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spinglass_moves_total",
			Help: "Spin flip proposals by Metropolis outcome",
		},
		[]string{"outcome"},
	)

	r.ActiveSpins = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "spinglass_active_spins",
			Help: "Number of distinct spin values in use after the last iteration",
		},
	)

	r.FinalEnergy = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "spinglass_final_energy",
			Help: "Hamiltonian of the partition returned by the last run",
		},
	)

	return r
}

// Gatherer exposes the underlying registry, e.g. for promhttp
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// RecordIteration records one completed annealing iteration
func (r *Registry) RecordIteration(accepted, rejected int64, activeSpins int) {
	if r == nil {
		return
	}
	r.IterationsTotal.Inc()
	r.MovesTotal.WithLabelValues("accepted").Add(float64(accepted))
	r.MovesTotal.WithLabelValues("rejected").Add(float64(rejected))
	r.ActiveSpins.Set(float64(activeSpins))
}

// RecordRun records the end of a run. status is "ok", "invalid" or "io_error".
func (r *Registry) RecordRun(corr, status string, duration time.Duration, energy float64) {
	if r == nil {
		return
	}
	r.RunsTotal.WithLabelValues(corr, status).Inc()
	r.RunDuration.WithLabelValues(corr).Observe(duration.Seconds())
	if status == "ok" {
		r.FinalEnergy.Set(energy)
	}
}
