// Package metrics provides Prometheus metrics for the editor.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Import metrics
	ImportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "editor_imports_total",
			Help: "Total number of project imports by outcome",
		},
		[]string{"status"},
	)

	ImportDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "editor_import_duration_seconds",
			Help:    "Time taken to import a project",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
	)

	ClipsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "editor_import_clips_created_total",
			Help: "Total number of timeline clips created by imports",
		},
	)

	PlacementsDiscarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "editor_import_placements_discarded_total",
			Help: "Total number of project placements skipped during import",
		},
		[]string{"reason"},
	)

	MissingFiles = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "editor_import_missing_files_total",
			Help: "Total number of referenced media files not found on disk",
		},
	)

	// Media metrics
	ProbesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "editor_media_probes_total",
			Help: "Total number of media probe lookups by source",
		},
		[]string{"source"},
	)

	ProbeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "editor_media_probe_duration_seconds",
			Help:    "Time taken to probe a media file",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Edit metrics
	EditsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "editor_edits_total",
			Help: "Total number of timeline edits by outcome",
		},
		[]string{"status"},
	)

	TimelineClips = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "editor_timeline_clips",
			Help: "Number of clips currently on the timeline",
		},
	)
)

// RecordImport records the outcome of one import.
func RecordImport(status string, duration time.Duration) {
	ImportsTotal.WithLabelValues(status).Inc()
	ImportDuration.Observe(duration.Seconds())
}

func RecordDiscard(reason string) {
	PlacementsDiscarded.WithLabelValues(reason).Inc()
}

// RecordProbe records a probe lookup served from source ("cache" or "probe").
func RecordProbe(source string, duration time.Duration) {
	ProbesTotal.WithLabelValues(source).Inc()
	if source == "probe" {
		ProbeDuration.Observe(duration.Seconds())
	}
}

// Timer is a helper for measuring duration
type Timer struct {
	start time.Time
}

func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
