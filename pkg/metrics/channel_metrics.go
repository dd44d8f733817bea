package metrics

import "github.com/hymofs/hymo/pkg/hymofs"

// NewChannelMetrics creates a Prometheus-backed hymofs.Metrics instance,
// or nil when metrics are not enabled.
func NewChannelMetrics() hymofs.Metrics {
	if !IsEnabled() {
		return nil
	}
	return newPrometheusChannelMetrics()
}

var newPrometheusChannelMetrics func() hymofs.Metrics

// RegisterChannelMetricsConstructor is called by pkg/metrics/prometheus
// during package initialization.
func RegisterChannelMetricsConstructor(constructor func() hymofs.Metrics) {
	newPrometheusChannelMetrics = constructor
}
