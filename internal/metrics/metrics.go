package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	initOnce sync.Once

	// Registry holds every postpack metric. A dedicated registry keeps the
	// textfile free of Go runtime collectors.
	Registry *prometheus.Registry
)

// Init creates and registers all metrics.
// This function is safe to call multiple times (uses sync.Once)
func Init() {
	initOnce.Do(func() {
		Registry = prometheus.NewRegistry()

		initCleanupMetrics()
		registerCleanupMetrics(Registry)

		// Present in the textfile even before the first run completes
		LastRunTimestamp.Set(0)
	})
}

// WriteTextfile writes the registry in text exposition format for the
// node_exporter textfile collector. The file is replaced atomically.
func WriteTextfile(path string) error {
	Init()
	return prometheus.WriteToTextfile(path, Registry)
}
