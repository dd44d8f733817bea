package prometheus

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hymofs/hymo/pkg/metrics"
)

func TestChannelMetricsRecording(t *testing.T) {
	metrics.InitRegistry()

	m := metrics.NewChannelMetrics()
	require.NotNil(t, m)

	m.RecordCommand("add", "success")
	m.RecordCommand("add", "success")
	m.RecordCommand("hide", "failure")

	expected := `
# HELP hymo_hymofs_commands_total HymoFS channel commands by verb and result
# TYPE hymo_hymofs_commands_total counter
hymo_hymofs_commands_total{result="success",verb="add"} 2
hymo_hymofs_commands_total{result="failure",verb="hide"} 1
`
	err := testutil.GatherAndCompare(metrics.GetRegistry(),
		strings.NewReader(expected), "hymo_hymofs_commands_total")
	assert.NoError(t, err)
}
