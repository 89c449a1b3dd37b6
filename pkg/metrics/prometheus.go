// Package metrics provides Prometheus metrics for fantaledger runs.
//
// The tool is a batch job, so metrics are exported by writing the registry
// to a node-exporter textfile at the end of a run instead of being scraped.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeRetry   = "retry"
	OutcomeFailure = "failure"
)

// Manager manages all Prometheus metrics for a run.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Fetch Metrics - remote ranking pages
	fetchAttempts *prometheus.CounterVec
	fetchLatency  *prometheus.HistogramVec

	// Snapshot Metrics - parsed observations
	observationsParsed  *prometheus.CounterVec
	observationsDropped prometheus.Counter
	snapshotTeams       prometheus.Gauge

	// Reconcile Metrics - ledger decisions
	teamsByClass   *prometheus.GaugeVec
	roundsCreated  prometheus.Counter
	ledgerEntries  prometheus.Gauge
	ledgerTeams    prometheus.Gauge
	ledgerMaxRound prometheus.Gauge

	// Run Metrics
	runs            *prometheus.CounterVec
	runDuration     prometheus.Histogram
	lastSuccessUnix prometheus.Gauge

	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Init rebuilds the global manager from opts on a fresh registry. Call it
// once at startup, before any run records metrics.
func Init(opts ...Option) {
	customRegistry = prometheus.NewRegistry()
	globalManager = NewManager(append([]Option{WithPrometheusRegistry(customRegistry)}, opts...)...)
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "fantaledger",
		subsystem:        "run",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.fetchAttempts = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "fetch_attempts_total",
		Help:        "Ranking page fetch attempts by source and outcome",
		ConstLabels: labels,
	}, []string{"source", "outcome"})

	m.fetchLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "fetch_duration_seconds",
		Help:        "Duration of a successful ranking page fetch including retries",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"source"})

	m.observationsParsed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "observations_parsed_total",
		Help:        "Ranking rows extracted per source",
		ConstLabels: labels,
	}, []string{"source"})

	m.observationsDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "observations_dropped_total",
		Help:        "Rows dropped because the team or score could not be read",
		ConstLabels: labels,
	})

	m.snapshotTeams = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "snapshot_teams",
		Help:        "Distinct teams in the reduced snapshot after filtering",
		ConstLabels: labels,
	})

	m.teamsByClass = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "teams",
		Help:        "Teams per reconciliation outcome (changed, new, unchanged)",
		ConstLabels: labels,
	}, []string{"class"})

	m.roundsCreated = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "rounds_created_total",
		Help:        "Rounds appended to the ledger",
		ConstLabels: labels,
	})

	m.ledgerEntries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "ledger_entries",
		Help:        "Entries in the ledger after the run",
		ConstLabels: labels,
	})

	m.ledgerTeams = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "ledger_teams",
		Help:        "Distinct teams in the ledger after the run",
		ConstLabels: labels,
	})

	m.ledgerMaxRound = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "ledger_max_round",
		Help:        "Highest round in the ledger after the run",
		ConstLabels: labels,
	})

	m.runs = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "runs_total",
		Help:        "Completed runs by status",
		ConstLabels: labels,
	}, []string{"status"})

	m.runDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "duration_seconds",
		Help:        "Wall time of a run",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.lastSuccessUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "last_success_timestamp_seconds",
		Help:        "Unix time of the last successful run",
		ConstLabels: labels,
	})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_total",
		Help:        "Errors by component and type",
		ConstLabels: labels,
	}, []string{"component", "error_type"})
}

// RecordFetch counts a fetch attempt for source.
func (m *Manager) RecordFetch(source, outcome string) {
	if m.enabled {
		m.fetchAttempts.WithLabelValues(source, outcome).Inc()
	}
}

// RecordFetchDuration observes how long a fetch of source took.
func (m *Manager) RecordFetchDuration(source string, d time.Duration) {
	if m.enabled {
		m.fetchLatency.WithLabelValues(source).Observe(d.Seconds())
	}
}

// RecordObservations counts rows extracted from source.
func (m *Manager) RecordObservations(source string, n int) {
	if m.enabled {
		m.observationsParsed.WithLabelValues(source).Add(float64(n))
	}
}

// RecordDropped counts rows dropped by the reducer.
func (m *Manager) RecordDropped(n int) {
	if m.enabled {
		m.observationsDropped.Add(float64(n))
	}
}

// UpdateSnapshotTeams sets the size of the reduced snapshot.
func (m *Manager) UpdateSnapshotTeams(n int) {
	if m.enabled {
		m.snapshotTeams.Set(float64(n))
	}
}

// UpdateReconcile sets the per-class team gauges and counts a created round.
func (m *Manager) UpdateReconcile(changed, fresh, unchanged int, roundCreated bool) {
	if !m.enabled {
		return
	}
	m.teamsByClass.WithLabelValues("changed").Set(float64(changed))
	m.teamsByClass.WithLabelValues("new").Set(float64(fresh))
	m.teamsByClass.WithLabelValues("unchanged").Set(float64(unchanged))
	if roundCreated {
		m.roundsCreated.Inc()
	}
}

// UpdateLedger sets the ledger size gauges.
func (m *Manager) UpdateLedger(entries, teams, maxRound int) {
	if !m.enabled {
		return
	}
	m.ledgerEntries.Set(float64(entries))
	m.ledgerTeams.Set(float64(teams))
	m.ledgerMaxRound.Set(float64(maxRound))
}

// RecordRun counts a finished run and its duration. Any status other than
// "failed" updates the last success timestamp.
func (m *Manager) RecordRun(status string, d time.Duration, at time.Time) {
	if !m.enabled {
		return
	}
	m.runs.WithLabelValues(status).Inc()
	m.runDuration.Observe(d.Seconds())
	if status != "failed" {
		m.lastSuccessUnix.Set(float64(at.Unix()))
	}
}

// RecordError counts an error raised by component.
func (m *Manager) RecordError(component, errorType string) {
	if m.enabled {
		m.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// WriteTextfile writes every metric of the manager's registry to path in the
// text exposition format.
func (m *Manager) WriteTextfile(path string) error {
	g, ok := m.registry.(prometheus.Gatherer)
	if !ok {
		return ErrNotGatherer
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteTextfile, err)
	}
	return nil
}

// RecordFetch counts a fetch attempt on the global manager.
func RecordFetch(source, outcome string) { globalManager.RecordFetch(source, outcome) }

// RecordFetchDuration observes a fetch duration on the global manager.
func RecordFetchDuration(source string, d time.Duration) {
	globalManager.RecordFetchDuration(source, d)
}

// RecordObservations counts extracted rows on the global manager.
func RecordObservations(source string, n int) { globalManager.RecordObservations(source, n) }

// RecordDropped counts dropped rows on the global manager.
func RecordDropped(n int) { globalManager.RecordDropped(n) }

// UpdateSnapshotTeams sets the snapshot size on the global manager.
func UpdateSnapshotTeams(n int) { globalManager.UpdateSnapshotTeams(n) }

// UpdateReconcile records a reconciliation on the global manager.
func UpdateReconcile(changed, fresh, unchanged int, roundCreated bool) {
	globalManager.UpdateReconcile(changed, fresh, unchanged, roundCreated)
}

// UpdateLedger sets the ledger gauges on the global manager.
func UpdateLedger(entries, teams, maxRound int) { globalManager.UpdateLedger(entries, teams, maxRound) }

// RecordRun records a finished run on the global manager.
func RecordRun(status string, d time.Duration, at time.Time) { globalManager.RecordRun(status, d, at) }

// RecordError counts an error on the global manager.
func RecordError(component, errorType string) { globalManager.RecordError(component, errorType) }

// WriteTextfile exports the global registry to path.
func WriteTextfile(path string) error { return globalManager.WriteTextfile(path) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
