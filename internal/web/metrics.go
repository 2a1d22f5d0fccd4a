package web

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/elys-network/feelab/internal/match"
	"github.com/elys-network/feelab/internal/types"
)

var _ match.Reporter = (*Metrics)(nil)

// Metrics records match outcomes in its own Prometheus registry. It satisfies match.Reporter.
type Metrics struct {
	registry *prometheus.Registry

	runs         *prometheus.CounterVec
	failures     *prometheus.CounterVec
	simulations  *prometheus.CounterVec
	outcomes     *prometheus.CounterVec
	edge         *prometheus.HistogramVec
	lastMeanEdge *prometheus.GaugeVec
	duration     prometheus.Histogram
}

// NewMetrics registers the match collectors plus the Go and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "feelab",
			Name:      "match_runs_total",
			Help:      "Completed match runs.",
		}, []string{"strategy"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "feelab",
			Name:      "match_run_failures_total",
			Help:      "Match runs that failed or were abandoned.",
		}, []string{"strategy", "reason"}),
		simulations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "feelab",
			Name:      "simulations_total",
			Help:      "Simulations scored in completed runs.",
		}, []string{"strategy"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "feelab",
			Name:      "simulation_outcomes_total",
			Help:      "Simulation outcomes against the normalizer.",
		}, []string{"strategy", "outcome"}),
		edge: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "feelab",
			Name:      "simulation_edge",
			Help:      "Candidate edge per simulation.",
			Buckets:   []float64{-200, -100, -50, -20, 0, 20, 50, 100, 200, 300, 400, 500},
		}, []string{"strategy"}),
		lastMeanEdge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "feelab",
			Name:      "last_mean_edge",
			Help:      "Mean edge of the latest completed run.",
		}, []string{"strategy"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "feelab",
			Name:      "match_run_duration_seconds",
			Help:      "Wall-clock duration of completed runs.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}

	m.registry.MustRegister(
		m.runs, m.failures, m.simulations, m.outcomes, m.edge, m.lastMeanEdge, m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry served on /metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RunCompleted records a scored run.
func (m *Metrics) RunCompleted(result types.MatchResult, elapsed time.Duration) {
	strategy := result.StrategyName
	m.runs.WithLabelValues(strategy).Inc()
	m.simulations.WithLabelValues(strategy).Add(float64(len(result.Simulations)))
	m.lastMeanEdge.WithLabelValues(strategy).Set(result.Summary.MeanEdge)
	m.duration.Observe(elapsed.Seconds())

	for _, sim := range result.Simulations {
		m.outcomes.WithLabelValues(strategy, string(sim.Outcome)).Inc()
		m.edge.WithLabelValues(strategy).Observe(sim.Candidate.Edge)
	}
}

// RunFailed records a run that produced no result.
func (m *Metrics) RunFailed(strategy string, abandoned bool) {
	reason := "error"
	if abandoned {
		reason = "abandoned"
	}
	m.failures.WithLabelValues(strategy, reason).Inc()
}
