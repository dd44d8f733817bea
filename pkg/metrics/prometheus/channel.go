package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hymofs/hymo/pkg/hymofs"
	"github.com/hymofs/hymo/pkg/metrics"
)

func init() {
	metrics.RegisterChannelMetricsConstructor(newChannelMetrics)
}

// channelMetrics implements hymofs.Metrics.
type channelMetrics struct {
	commands *prometheus.CounterVec
}

func newChannelMetrics() hymofs.Metrics {
	return &channelMetrics{
		commands: promauto.With(metrics.GetRegistry()).NewCounterVec(
			prometheus.CounterOpts{
				Name: "hymo_hymofs_commands_total",
				Help: "HymoFS channel commands by verb and result",
			},
			[]string{"verb", "result"},
		),
	}
}

func (m *channelMetrics) RecordCommand(verb, result string) {
	m.commands.WithLabelValues(verb, result).Inc()
}
