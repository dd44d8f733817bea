// Package config loads and validates hymo configuration.
//
// Configuration sources, in order of precedence:
//  1. Environment variables (HYMO_*)
//  2. Configuration file (YAML)
//  3. Default values
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the static configuration of the hymo tool.
type Config struct {
	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// ModuleDir is the directory holding installed module roots.
	ModuleDir string `mapstructure:"module_dir" validate:"required" yaml:"module_dir"`

	// Partitions are the partition names modules may contribute to, in
	// mount order.
	Partitions []string `mapstructure:"partitions" validate:"required,min=1" yaml:"partitions"`

	// MountSource is the source identifier stamped on mounts created by
	// hymo, so they can be recognized (and unmounted) later.
	MountSource string `mapstructure:"mount_source" validate:"required" yaml:"mount_source"`

	// StagingDir overrides the computed staging location for magic mount
	// replication. Empty selects a default at execution time.
	StagingDir string `mapstructure:"staging_dir" yaml:"staging_dir,omitempty"`

	// DisableUmount suppresses per-namespace unmount tagging on all
	// mounts created by hymo.
	DisableUmount bool `mapstructure:"disable_umount" yaml:"disable_umount"`

	// Hymofs controls use of the HymoFS kernel rule channel.
	Hymofs HymofsConfig `mapstructure:"hymofs" yaml:"hymofs"`

	// Metrics contains Prometheus metrics configuration (watch mode only).
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Watch configures the module directory watcher (watch mode only).
	Watch WatchConfig `mapstructure:"watch" yaml:"watch"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level: DEBUG, INFO, WARN, ERROR.
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format is the output format: text or json.
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output is stdout, stderr, or a file path.
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// HymofsConfig controls use of the HymoFS kernel rule channel.
type HymofsConfig struct {
	// Enabled allows hymo to use the kernel channel when the probe
	// reports it available. Disabled leaves only overlay and magic mount.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// MetricsConfig configures the Prometheus endpoint served in watch mode.
// When Enabled is false no metrics are collected at all.
type MetricsConfig struct {
	// Enabled turns metrics collection and the HTTP endpoint on.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port for the /metrics endpoint.
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// WatchConfig configures the module directory watcher.
type WatchConfig struct {
	// Debounce is how long to wait after the last filesystem event
	// before re-executing the mount plan.
	Debounce time.Duration `mapstructure:"debounce" validate:"omitempty,gt=0" yaml:"debounce"`
}

// DefaultConfigPath is where hymo looks for its configuration when no
// --config flag is given.
const DefaultConfigPath = "/etc/hymo/config.yaml"

// Load loads configuration from file, environment, and defaults.
// An empty configPath uses the default location; a missing file is not an
// error and yields defaults plus environment overrides.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}
	if !found {
		cfg := DefaultConfig()
		return cfg, nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHooks())); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration against its struct tags.
func Validate(cfg *Config) error {
	return validator.New().Struct(cfg)
}

// SaveConfig writes the configuration to path in YAML, creating parent
// directories as needed.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// InitConfig writes a default configuration file to path (or the default
// location when empty). Refuses to overwrite unless force is set.
func InitConfig(path string, force bool) (string, error) {
	if path == "" {
		path = DefaultConfigPath
	}
	if _, err := os.Stat(path); err == nil && !force {
		return "", fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}
	if err := SaveConfig(DefaultConfig(), path); err != nil {
		return "", err
	}
	return path, nil
}

func setupViper(v *viper.Viper, configPath string) {
	// Environment overrides use the HYMO_ prefix with underscores, e.g.
	// HYMO_LOGGING_LEVEL=DEBUG or HYMO_DISABLE_UMOUNT=true.
	v.SetEnvPrefix("HYMO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(DefaultConfigPath)
	}
}

// readConfigFile reads the config file if present. A missing file is not
// an error.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read config file: %w", err)
	}
	return true, nil
}

// decodeHooks converts config file strings into richer types, currently
// durations ("2s") and comma-separated lists.
func decodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}
