package config

import (
	"fmt"
	"time"
)

// SettingsConfig holds general application settings.
type SettingsConfig struct {
	InternalMetrics InternalMetricsConfig
	Monitor         MonitorConfig
}

// InternalMetricsConfig controls the collector's self-monitoring metrics.
type InternalMetricsConfig struct {
	Enabled bool
	Format  NamingFormat
}

// MonitorConfig controls the process resource monitor.
type MonitorConfig struct {
	Enabled  bool
	Interval time.Duration
}

// NamingFormat defines the naming convention for internal metrics.
type NamingFormat string

const (
	// NamingFormatNative uses each exporter's native convention
	// (underscore for Prometheus, dot for OTEL)
	NamingFormatNative NamingFormat = "native"

	// NamingFormatUnderscore forces underscore-separated names
	NamingFormatUnderscore NamingFormat = "underscore"

	// NamingFormatDot forces dot-separated names
	NamingFormatDot NamingFormat = "dot"
)

// Validate applies defaults and validates settings configuration.
func (s *SettingsConfig) Validate() error {
	if s.Monitor.Interval == 0 {
		s.Monitor.Interval = DefaultMonitorInterval
	}
	if s.Monitor.Interval < 0 {
		return fmt.Errorf("monitor interval must be positive")
	}

	if s.InternalMetrics.Format == "" {
		s.InternalMetrics.Format = NamingFormatNative
	}

	switch s.InternalMetrics.Format {
	case NamingFormatNative, NamingFormatUnderscore, NamingFormatDot:
		return nil
	default:
		return fmt.Errorf("invalid naming format: %s (must be native, underscore, or dot)", s.InternalMetrics.Format)
	}
}
