package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Cleanup metrics
var (
	// EntriesDeletedTotal counts output directory entries removed
	EntriesDeletedTotal prometheus.Counter

	// EntriesFailedTotal counts entries that could not be removed, by reason
	EntriesFailedTotal *prometheus.CounterVec

	// BytesFreedTotal counts bytes of regular files removed
	BytesFreedTotal prometheus.Counter

	// RunDuration tracks how long a cleanup pass takes
	RunDuration prometheus.Histogram

	// LastRunTimestamp records the Unix timestamp of the last completed pass
	LastRunTimestamp prometheus.Gauge

	// LastRunDeleted records the count reported by the last pass
	LastRunDeleted prometheus.Gauge
)

func initCleanupMetrics() {
	EntriesDeletedTotal = NewCounter(
		"postpack_entries_deleted_total",
		"Total number of output directory entries deleted.",
	)

	EntriesFailedTotal = NewCounterVec(
		"postpack_entries_failed_total",
		"Total number of output directory entries that could not be deleted.",
		[]string{"reason"},
	)

	BytesFreedTotal = NewCounter(
		"postpack_bytes_freed_total",
		"Total bytes of regular files deleted.",
	)

	RunDuration = NewDurationHistogram(
		"postpack_run_duration_seconds",
		"Duration of cleanup passes in seconds.",
	)

	LastRunTimestamp = NewGauge(
		"postpack_last_run_timestamp_seconds",
		"Timestamp of the last cleanup pass (Unix epoch seconds).",
	)

	LastRunDeleted = NewGauge(
		"postpack_last_run_deleted_entries",
		"Number of entries deleted by the last cleanup pass.",
	)
}

func registerCleanupMetrics(reg prometheus.Registerer) {
	reg.MustRegister(EntriesDeletedTotal)
	reg.MustRegister(EntriesFailedTotal)
	reg.MustRegister(BytesFreedTotal)
	reg.MustRegister(RunDuration)
	reg.MustRegister(LastRunTimestamp)
	reg.MustRegister(LastRunDeleted)
}

// RecordDeletion records one removed entry and the bytes it held
func RecordDeletion(bytes int64) {
	EntriesDeletedTotal.Inc()
	if bytes > 0 {
		BytesFreedTotal.Add(float64(bytes))
	}
}

// RecordFailure records one entry that could not be removed
func RecordFailure(reason string) {
	EntriesFailedTotal.WithLabelValues(reason).Inc()
}

// RecordRun records a completed pass that started at start
func RecordRun(start time.Time, deleted int) {
	RunDuration.Observe(time.Since(start).Seconds())
	LastRunTimestamp.Set(float64(time.Now().Unix()))
	LastRunDeleted.Set(float64(deleted))
}
