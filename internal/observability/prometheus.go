package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/echotrust/advisory-backend/model"
)

// PrometheusMetrics is the process-lifetime metric set, fed from each run's
// RunMetrics snapshot when the run completes.
type PrometheusMetrics struct {
	RunsTotal            *prometheus.CounterVec
	RunDuration          prometheus.Histogram
	ObservationsIngested prometheus.Counter
	MalformedDropped     prometheus.Counter
	StateChanges         prometheus.Counter
	DecisionsTotal       *prometheus.CounterVec
	AdvisoriesCurrent    *prometheus.GaugeVec
}

func NewPrometheusMetrics() *PrometheusMetrics {
	m := &PrometheusMetrics{}

	m.RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisory_pipeline_runs_total",
			Help: "Total number of pipeline runs",
		},
		[]string{"status"},
	)

	m.RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "advisory_pipeline_run_duration_seconds",
			Help:    "Duration of pipeline runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	m.ObservationsIngested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "advisory_observations_ingested_total",
			Help: "Total number of source observations ingested",
		},
	)

	m.MalformedDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "advisory_observations_malformed_total",
			Help: "Total number of observations dropped for malformed identity",
		},
	)

	m.StateChanges = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "advisory_state_changes_total",
			Help: "Total number of advisory state history versions written",
		},
	)

	m.DecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisory_decisions_total",
			Help: "Total decisions by reason code",
		},
		[]string{"reason_code"},
	)

	m.AdvisoriesCurrent = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "advisory_current_state_count",
			Help: "Current advisories by lifecycle state",
		},
		[]string{"state"},
	)

	prometheus.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.ObservationsIngested,
		m.MalformedDropped,
		m.StateChanges,
		m.DecisionsTotal,
		m.AdvisoriesCurrent,
	)

	return m
}

// ObserveRun pushes one completed run's counters into the process metrics.
func (m *PrometheusMetrics) ObserveRun(run *model.PipelineRun) {
	m.RunsTotal.WithLabelValues(run.Status).Inc()
	if run.CompletedAt != nil {
		m.RunDuration.Observe(run.CompletedAt.Sub(run.StartedAt).Seconds())
	}

	m.ObservationsIngested.Add(float64(run.ObservationsIngested))
	m.MalformedDropped.Add(float64(run.MalformedDropped))
	m.StateChanges.Add(float64(run.StateChanges))

	for state, count := range run.StateCounts {
		m.AdvisoriesCurrent.WithLabelValues(state).Set(float64(count))
	}
	for reason, count := range run.ReasonCounts {
		m.DecisionsTotal.WithLabelValues(reason).Add(float64(count))
	}
}
