package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, defaultModuleDir, cfg.ModuleDir)
	assert.Equal(t, defaultPartitions, cfg.Partitions)
	assert.Equal(t, defaultMountSource, cfg.MountSource)
	assert.Empty(t, cfg.StagingDir)
	assert.False(t, cfg.DisableUmount)
	assert.False(t, cfg.Hymofs.Enabled)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, defaultMetricsPort, cfg.Metrics.Port)
	assert.Equal(t, defaultDebounce, cfg.Watch.Debounce)
}

func TestApplyDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Logging:     LoggingConfig{Level: "debug"},
		ModuleDir:   "/explicit",
		Partitions:  []string{"system"},
		MountSource: "custom",
		Watch:       WatchConfig{Debounce: time.Minute},
	}
	ApplyDefaults(cfg)

	assert.Equal(t, "DEBUG", cfg.Logging.Level, "level normalized to uppercase")
	assert.Equal(t, "/explicit", cfg.ModuleDir)
	assert.Equal(t, []string{"system"}, cfg.Partitions)
	assert.Equal(t, "custom", cfg.MountSource)
	assert.Equal(t, time.Minute, cfg.Watch.Debounce)
}

func TestApplyDefaultsDoesNotShareDefaultSlice(t *testing.T) {
	a := DefaultConfig()
	b := DefaultConfig()
	a.Partitions[0] = "mutated"
	assert.NotEqual(t, a.Partitions[0], b.Partitions[0])
}
