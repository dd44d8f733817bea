package metrics

import "github.com/hymofs/hymo/pkg/mount"

// NewMountMetrics creates a Prometheus-backed mount.Metrics instance.
//
// Returns nil when metrics are not enabled (InitRegistry not called);
// the executor treats a nil Metrics as disabled, so the call site needs
// no branching.
func NewMountMetrics() mount.Metrics {
	if !IsEnabled() {
		return nil
	}
	return newPrometheusMountMetrics()
}

// newPrometheusMountMetrics is implemented in pkg/metrics/prometheus.
// The indirection avoids an import cycle while keeping the prometheus
// dependency out of callers that only want the interface.
var newPrometheusMountMetrics func() mount.Metrics

// RegisterMountMetricsConstructor is called by pkg/metrics/prometheus
// during package initialization.
func RegisterMountMetricsConstructor(constructor func() mount.Metrics) {
	newPrometheusMountMetrics = constructor
}
