// Package metrics exports the counters of a merge run in the Prometheus
// text format, for node_exporter's textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pcdnban"

// MergeMetrics holds the gauges describing one merge run.
type MergeMetrics struct {
	registry *prometheus.Registry

	lines    prometheus.Gauge
	unique   prometheus.Gauge
	skipped  prometheus.Gauge
	kept     prometheus.Gauge
	removed  prometheus.Gauge
	covered  prometheus.Gauge
	duration prometheus.Gauge
	lastRun  prometheus.Gauge
}

// Summary carries the values recorded by Observe.
type Summary struct {
	Lines    int
	Unique   int
	Skipped  int
	Kept     int
	Removed  int
	Covered  uint64
	Duration time.Duration
	Finished time.Time
}

// NewMergeMetrics registers the merge gauges on a fresh registry.
func NewMergeMetrics() *MergeMetrics {
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "merge",
			Name:      name,
			Help:      help,
		})
	}

	m := &MergeMetrics{
		registry: prometheus.NewRegistry(),
		lines:    gauge("input_lines", "Non-blank input lines read."),
		unique:   gauge("unique_literals", "Distinct literals after deduplication."),
		skipped:  gauge("skipped_literals", "Literals rejected as malformed."),
		kept:     gauge("kept_blocks", "Blocks written to the output."),
		removed:  gauge("removed_blocks", "Blocks dropped because a broader block contains them."),
		covered:  gauge("covered_addresses", "Distinct addresses described by the kept blocks."),
		duration: gauge("duration_seconds", "Wall time of the last run."),
		lastRun:  gauge("last_run_timestamp_seconds", "Unix time the last run finished."),
	}

	m.registry.MustRegister(m.lines, m.unique, m.skipped, m.kept, m.removed, m.covered, m.duration, m.lastRun)
	return m
}

// Observe records the result of a run.
func (m *MergeMetrics) Observe(s Summary) {
	m.lines.Set(float64(s.Lines))
	m.unique.Set(float64(s.Unique))
	m.skipped.Set(float64(s.Skipped))
	m.kept.Set(float64(s.Kept))
	m.removed.Set(float64(s.Removed))
	m.covered.Set(float64(s.Covered))
	m.duration.Set(s.Duration.Seconds())
	m.lastRun.Set(float64(s.Finished.Unix()))
}

// WriteTextfile atomically writes the gauges to path.
func (m *MergeMetrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// Registry exposes the underlying registry.
func (m *MergeMetrics) Registry() *prometheus.Registry {
	return m.registry
}
