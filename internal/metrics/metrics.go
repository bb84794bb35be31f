// Package metrics collects per-run counters for the pages command and
// writes them in the node_exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Input kinds for RecordsParsed.
const (
	InputSequences = "sequences"
	InputNotes     = "notes"
	InputSummaries = "summaries"
)

// Run holds the metrics of one pages invocation on its own registry, so
// repeated runs in one process never collide.
type Run struct {
	registry *prometheus.Registry

	RecordsParsed   *prometheus.CounterVec
	LineagesEmitted prometheus.Counter
	LineagesRetired prometheus.Counter
	FilesWritten    prometheus.Counter
	Duration        prometheus.Gauge
	LastSuccess     prometheus.Gauge
}

// NewRun creates and registers the run metrics.
func NewRun() *Run {
	m := &Run{
		registry: prometheus.NewRegistry(),
		RecordsParsed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "covsupport",
				Name:      "records_parsed_total",
				Help:      "Input rows parsed, by input kind",
			},
			[]string{"input"},
		),
		LineagesEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covsupport",
			Name:      "lineages_emitted_total",
			Help:      "Lineage pages written",
		}),
		LineagesRetired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covsupport",
			Name:      "lineages_retired_total",
			Help:      "Lineage pages written for retired lineages",
		}),
		FilesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covsupport",
			Name:      "files_written_total",
			Help:      "Output files written",
		}),
		Duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "covsupport",
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last pages run",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "covsupport",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful pages run",
		}),
	}
	m.registry.MustRegister(
		m.RecordsParsed,
		m.LineagesEmitted,
		m.LineagesRetired,
		m.FilesWritten,
		m.Duration,
		m.LastSuccess,
	)
	return m
}

// Finish records the duration and success time of a completed run.
func (m *Run) Finish(start, end time.Time) {
	m.Duration.Set(end.Sub(start).Seconds())
	m.LastSuccess.Set(float64(end.Unix()))
}

// Registry exposes the underlying registry.
func (m *Run) Registry() *prometheus.Registry { return m.registry }

// WriteFile writes the metrics atomically to path.
func (m *Run) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
