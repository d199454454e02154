// Package metrics collects per-run counters for export and ingest runs.
//
// Each run owns a private registry. A nil *Run is valid and records nothing.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Run struct {
	registry *prometheus.Registry
	started  time.Time

	Considered prometheus.Counter
	Emitted    *prometheus.CounterVec
	Skipped    *prometheus.CounterVec
	Excluded   prometheus.Counter
	Ingested   *prometheus.CounterVec
	Duration   prometheus.Gauge
	LastRun    prometheus.Gauge
}

// NewRun starts a run. command labels every series, e.g. "export".
func NewRun(command string) *Run {
	labels := prometheus.Labels{"command": command}
	r := &Run{
		registry: prometheus.NewRegistry(),
		started:  time.Now(),

		Considered: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "kalimax_records_considered_total",
			Help:        "Bilingual records read from the store",
			ConstLabels: labels,
		}),
		Emitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "kalimax_records_emitted_total",
			Help:        "Training records written, by target mode",
			ConstLabels: labels,
		}, []string{"mode"}),
		Skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "kalimax_records_skipped_total",
			Help:        "Records skipped, by reason",
			ConstLabels: labels,
		}, []string{"reason"}),
		Excluded: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "kalimax_records_challenge_excluded_total",
			Help:        "Records withheld because they overlap the challenge set",
			ConstLabels: labels,
		}),
		Ingested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "kalimax_rows_ingested_total",
			Help:        "CSV rows processed by ingest, by kind and outcome",
			ConstLabels: labels,
		}, []string{"kind", "outcome"}),
		Duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "kalimax_run_duration_seconds",
			Help:        "Wall-clock duration of the last run",
			ConstLabels: labels,
		}),
		LastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "kalimax_run_last_timestamp_seconds",
			Help:        "Unix time the last run finished",
			ConstLabels: labels,
		}),
	}
	r.registry.MustRegister(r.Considered, r.Emitted, r.Skipped, r.Excluded, r.Ingested, r.Duration, r.LastRun)
	return r
}

func (r *Run) IncConsidered() {
	if r != nil {
		r.Considered.Inc()
	}
}

func (r *Run) IncEmitted(mode string) {
	if r != nil {
		r.Emitted.WithLabelValues(mode).Inc()
	}
}

func (r *Run) IncSkipped(reason string) {
	if r != nil {
		r.Skipped.WithLabelValues(reason).Inc()
	}
}

func (r *Run) IncExcluded() {
	if r != nil {
		r.Excluded.Inc()
	}
}

func (r *Run) AddIngested(kind, outcome string, n int) {
	if r != nil && n > 0 {
		r.Ingested.WithLabelValues(kind, outcome).Add(float64(n))
	}
}

// Finish stamps the duration and completion time.
func (r *Run) Finish() {
	if r == nil {
		return
	}
	r.Duration.Set(time.Since(r.started).Seconds())
	r.LastRun.SetToCurrentTime()
}

// Registry exposes the run's registry.
func (r *Run) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes the registry in the textfile-collector format. An
// empty path is a no-op.
func (r *Run) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
