package config

import (
	"strings"
	"time"
)

// Built-in defaults.
const (
	defaultModuleDir   = "/var/lib/hymo/modules"
	defaultMountSource = "hymo"
	defaultMetricsPort = 9360
	defaultDebounce    = 2 * time.Second
)

// defaultPartitions are the partitions modules conventionally contribute
// to, in mount order.
var defaultPartitions = []string{"system", "vendor", "product", "system_ext", "odm"}

// DefaultConfig returns a configuration populated entirely from defaults.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills unset fields with defaults. Explicit values are
// preserved; zero values are replaced.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)

	if cfg.ModuleDir == "" {
		cfg.ModuleDir = defaultModuleDir
	}
	if len(cfg.Partitions) == 0 {
		cfg.Partitions = append([]string(nil), defaultPartitions...)
	}
	if cfg.MountSource == "" {
		cfg.MountSource = defaultMountSource
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = defaultMetricsPort
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = defaultDebounce
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}
