package prometheus

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hymofs/hymo/pkg/metrics"
)

func TestMountMetricsRecording(t *testing.T) {
	metrics.InitRegistry()

	m := metrics.NewMountMetrics()
	require.NotNil(t, m)

	m.RecordOverlayMount("success")
	m.RecordOverlayMount("success")
	m.RecordOverlayMount("fallback")
	m.RecordFallbackModules(3)
	m.RecordMagicBatch("success", 2)
	m.RecordMountedModules("overlay", 4)
	m.RecordMountedModules("magic", 1)
	m.RecordMountedModules("magic", 2)

	expected := `
# HELP hymo_overlay_mounts_total Overlay mount attempts by result
# TYPE hymo_overlay_mounts_total counter
hymo_overlay_mounts_total{result="fallback"} 1
hymo_overlay_mounts_total{result="success"} 2
`
	err := testutil.GatherAndCompare(metrics.GetRegistry(),
		strings.NewReader(expected), "hymo_overlay_mounts_total")
	assert.NoError(t, err)

	expected = `
# HELP hymo_fallback_modules_total Modules that fell back from overlay to magic mount
# TYPE hymo_fallback_modules_total counter
hymo_fallback_modules_total 3
`
	err = testutil.GatherAndCompare(metrics.GetRegistry(),
		strings.NewReader(expected), "hymo_fallback_modules_total")
	assert.NoError(t, err)

	expected = `
# HELP hymo_magic_modules_total Modules covered by magic mount batches, by batch result
# TYPE hymo_magic_modules_total counter
hymo_magic_modules_total{result="success"} 2
`
	err = testutil.GatherAndCompare(metrics.GetRegistry(),
		strings.NewReader(expected), "hymo_magic_modules_total")
	assert.NoError(t, err)

	// Gauge keeps the last set value, not a sum.
	expected = `
# HELP hymo_mounted_modules Modules currently mounted, by mechanism
# TYPE hymo_mounted_modules gauge
hymo_mounted_modules{mechanism="magic"} 2
hymo_mounted_modules{mechanism="overlay"} 4
`
	err = testutil.GatherAndCompare(metrics.GetRegistry(),
		strings.NewReader(expected), "hymo_mounted_modules")
	assert.NoError(t, err)
}
