// Package prometheus holds the Prometheus implementations of hymo's
// metrics interfaces. Importing it (for side effects) registers the
// constructors with pkg/metrics.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hymofs/hymo/pkg/metrics"
	"github.com/hymofs/hymo/pkg/mount"
)

func init() {
	metrics.RegisterMountMetricsConstructor(newMountMetrics)
}

// mountMetrics implements mount.Metrics.
type mountMetrics struct {
	overlayMounts   *prometheus.CounterVec
	fallbackModules prometheus.Counter
	magicBatches    *prometheus.CounterVec
	magicModules    *prometheus.CounterVec
	mountedModules  *prometheus.GaugeVec
}

func newMountMetrics() mount.Metrics {
	reg := metrics.GetRegistry()

	return &mountMetrics{
		overlayMounts: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "hymo_overlay_mounts_total",
				Help: "Overlay mount attempts by result",
			},
			[]string{"result"}, // "success", "fallback"
		),
		fallbackModules: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "hymo_fallback_modules_total",
				Help: "Modules that fell back from overlay to magic mount",
			},
		),
		magicBatches: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "hymo_magic_batches_total",
				Help: "Magic mount replication batches by result",
			},
			[]string{"result"}, // "success", "failure"
		),
		magicModules: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "hymo_magic_modules_total",
				Help: "Modules covered by magic mount batches, by batch result",
			},
			[]string{"result"},
		),
		mountedModules: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hymo_mounted_modules",
				Help: "Modules currently mounted, by mechanism",
			},
			[]string{"mechanism"}, // "overlay", "magic"
		),
	}
}

func (m *mountMetrics) RecordOverlayMount(result string) {
	m.overlayMounts.WithLabelValues(result).Inc()
}

func (m *mountMetrics) RecordFallbackModules(count int) {
	m.fallbackModules.Add(float64(count))
}

func (m *mountMetrics) RecordMagicBatch(result string, moduleCount int) {
	m.magicBatches.WithLabelValues(result).Inc()
	m.magicModules.WithLabelValues(result).Add(float64(moduleCount))
}

func (m *mountMetrics) RecordMountedModules(mechanism string, count int) {
	m.mountedModules.WithLabelValues(mechanism).Set(float64(count))
}
