package mergequeue

import (
	"bytes"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

const metricNamespace = "landlord"

const (
	queueEntriesMetricName = "queue_entries"
	runDurationMetricName  = "run_duration_seconds"
	runTimestampMetricName = "last_run_completion_timestamp_seconds"
	runOutcomeMetricName   = "last_run_outcome"
)

const (
	stateLabel   = "state"
	outcomeLabel = "outcome"
)

// runOutcomeAborted only occurs in metrics, for runs that failed before
// producing a report.
const runOutcomeAborted RunOutcome = "aborted"

var runOutcomes = []RunOutcome{
	RunOutcomeAction,
	RunOutcomeNoop,
	RunOutcomeFailureRecorded,
	runOutcomeAborted,
}

// RunMetrics records queue and run gauges and writes them in Prometheus text
// format to a file, for collection via the node-exporter textfile collector.
type RunMetrics struct {
	path     string
	registry *prometheus.Registry

	queueEntries *prometheus.GaugeVec
	runDuration  prometheus.Gauge
	runTimestamp prometheus.Gauge
	runOutcome   *prometheus.GaugeVec
}

func NewRunMetrics(path string) *RunMetrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &RunMetrics{
		path:     path,
		registry: registry,
		queueEntries: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricNamespace,
				Name:      queueEntriesMetricName,
				Help:      "number of merge queue entries per state",
			},
			[]string{stateLabel},
		),
		runDuration: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricNamespace,
				Name:      runDurationMetricName,
				Help:      "duration of the last reconciliation run in seconds",
			},
		),
		runTimestamp: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricNamespace,
				Name:      runTimestampMetricName,
				Help:      "unix timestamp of the last run completion",
			},
		),
		runOutcome: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricNamespace,
				Name:      runOutcomeMetricName,
				Help:      "outcome of the last run, 1 for the outcome that happened",
			},
			[]string{outcomeLabel},
		),
	}
}

// RecordQueue records the per state entry counts of the queue.
func (m *RunMetrics) RecordQueue(queue *Queue) {
	sizes := queue.sizesByState()

	for _, state := range allStates {
		m.queueEntries.WithLabelValues(string(state)).Set(float64(sizes[state]))
	}
}

// RecordRun records duration and outcome of a finished run. report may be
// nil when the run aborted.
func (m *RunMetrics) RecordRun(report *RunReport, duration time.Duration) {
	m.runDuration.Set(duration.Seconds())
	m.runTimestamp.SetToCurrentTime()

	outcome := runOutcomeAborted
	if report != nil {
		outcome = report.Outcome
	}

	for _, o := range runOutcomes {
		var val float64
		if o == outcome {
			val = 1
		}

		m.runOutcome.WithLabelValues(string(o)).Set(val)
	}
}

// WriteTextfile writes the recorded metrics in Prometheus text format to the
// configured path. The file is replaced atomically.
func (m *RunMetrics) WriteTextfile() error {
	mfs, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics failed: %w", err)
	}

	var buf bytes.Buffer

	enc := expfmt.NewEncoder(&buf, expfmt.FmtText)
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encoding metrics failed: %w", err)
		}
	}

	if err := writeFileAtomic(m.path, buf.Bytes()); err != nil {
		return fmt.Errorf("writing metrics textfile failed: %w", err)
	}

	return nil
}
