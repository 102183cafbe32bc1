package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Load metrics
	ObjectsLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "burrow_objects_loaded",
			Help: "Number of objects read from the input snapshot",
		},
	)

	ProgramsLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "burrow_programs_loaded",
			Help: "Number of verb programs read from the input snapshot",
		},
	)

	LoadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "burrow_load_duration_seconds",
			Help:    "Time taken to load the input snapshot in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ValidationRepairs = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "burrow_validation_repairs_total",
			Help: "Total number of dangling references repaired during load",
		},
	)

	// Checkpoint metrics
	CheckpointsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "burrow_checkpoints_total",
			Help: "Total number of dump attempts by reason and status",
		},
		[]string{"reason", "status"},
	)

	CheckpointDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "burrow_checkpoint_duration_seconds",
			Help:    "Time taken to write a snapshot in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	SnapshotBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "burrow_snapshot_bytes",
			Help: "Byte size of the last successful snapshot",
		},
	)

	DumpGeneration = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "burrow_dump_generation",
			Help: "Current dump generation counter",
		},
	)

	// Exec facility metrics
	ExecRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "burrow_exec_running",
			Help: "Number of external processes currently running",
		},
	)

	ExecTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "burrow_exec_total",
			Help: "Total number of external process launches by outcome",
		},
		[]string{"outcome"},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(ObjectsLoaded)
	prometheus.MustRegister(ProgramsLoaded)
	prometheus.MustRegister(LoadDuration)
	prometheus.MustRegister(ValidationRepairs)
	prometheus.MustRegister(CheckpointsTotal)
	prometheus.MustRegister(CheckpointDuration)
	prometheus.MustRegister(SnapshotBytes)
	prometheus.MustRegister(DumpGeneration)
	prometheus.MustRegister(ExecRunning)
	prometheus.MustRegister(ExecTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// Duration returns the elapsed time since timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
