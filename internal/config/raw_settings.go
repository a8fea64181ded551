package config

import "time"

// RawSettingsConfig holds general application settings
type RawSettingsConfig struct {
	InternalMetrics RawInternalMetricsConfig `yaml:"internal_metrics"`
	Monitor         RawMonitorConfig         `yaml:"monitor"`
}

// RawInternalMetricsConfig controls the collector's self-monitoring metrics
type RawInternalMetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Format  string `yaml:"format"`
}

// RawMonitorConfig controls the process resource monitor
type RawMonitorConfig struct {
	Enabled  *bool         `yaml:"enabled,omitempty"`
	Interval time.Duration `yaml:"interval,omitempty"`
}
