package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"docsdiff/pkg/models"
)

const namespace = "docsdiff"

// PassMetrics records sync pass outcomes in a private Prometheus registry.
// A pass is a short-lived process, so the registry is written to a
// node-exporter textfile instead of being scraped.
type PassMetrics struct {
	registry *prometheus.Registry

	listed       prometheus.Gauge
	repositories *prometheus.CounterVec
	diffBytes    *prometheus.GaugeVec
	commits      prometheus.Counter
	duration     prometheus.Gauge
	lastCutoff   prometheus.Gauge
	lastSuccess  prometheus.Gauge
}

// NewPassMetrics creates and registers the pass metrics
func NewPassMetrics() *PassMetrics {
	m := &PassMetrics{
		registry: prometheus.NewRegistry(),
		listed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "repositories_listed",
			Help:      "Repositories returned by the directory after exclusions.",
		}),
		repositories: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "repositories_processed_total",
			Help:      "Repositories processed, by outcome.",
		}, []string{"outcome"}),
		diffBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "diff_bytes",
			Help:      "Size of the diff recorded for a repository in the last pass.",
		}, []string{"repo"}),
		commits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_commits_total",
			Help:      "Commits created in the diff archive.",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Wall time of the last pass.",
		}),
		lastCutoff: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pass_cutoff_timestamp_seconds",
			Help:      "Cutoff of the last pass as a Unix timestamp.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pass_success",
			Help:      "1 if the last pass had no failures, 0 otherwise.",
		}),
	}

	m.registry.MustRegister(
		m.listed,
		m.repositories,
		m.diffBytes,
		m.commits,
		m.duration,
		m.lastCutoff,
		m.lastSuccess,
	)
	for _, outcome := range []string{
		models.OutcomeCloned,
		models.OutcomeUpdated,
		models.OutcomeUnchanged,
		models.OutcomeFailed,
	} {
		m.repositories.WithLabelValues(outcome)
	}
	return m
}

// Registry exposes the underlying registry
func (m *PassMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveListing records the size of the filtered repository listing
func (m *PassMetrics) ObserveListing(n int) {
	m.listed.Set(float64(n))
}

// ObserveRepository records one repository result
func (m *PassMetrics) ObserveRepository(result models.RepoResult) {
	m.repositories.WithLabelValues(result.Outcome()).Inc()
	if !result.Failed() {
		m.diffBytes.WithLabelValues(result.Name).Set(float64(result.DiffBytes))
	}
}

// ObservePass records the pass summary
func (m *PassMetrics) ObservePass(report *models.PassReport, passErr error) {
	if report == nil {
		return
	}
	if report.Committed {
		m.commits.Inc()
	}
	m.duration.Set(report.Duration.Seconds())
	m.lastCutoff.Set(float64(report.Cutoff.Unix()))
	if passErr == nil && len(report.Failures()) == 0 {
		m.lastSuccess.Set(1)
	} else {
		m.lastSuccess.Set(0)
	}
}

// WriteTextfile atomically writes every metric in the text exposition format
func (m *PassMetrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
