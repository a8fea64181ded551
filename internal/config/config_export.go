package config

import (
	"fmt"
	"time"

	"github.com/neox5/doglessdata/internal/version"
)

const (
	// Prometheus defaults
	DefaultPrometheusPort = 9090
	DefaultPrometheusPath = "/metrics"

	// OTEL defaults
	DefaultOTELPushInterval  = 10 * time.Second
	DefaultOTELExportTimeout = 30 * time.Second
	DefaultOTELTransport     = "grpc"
	DefaultOTELHost          = "localhost"
	DefaultOTELPortGRPC      = 4317
	DefaultOTELPortHTTP      = 4318
	DefaultServiceName       = "doglessdata"
)

// ExportConfig defines how metrics are exposed.
type ExportConfig struct {
	Prometheus *PrometheusExportConfig
	OTEL       *OTELExportConfig
}

// Validate applies defaults and validates export configuration.
func (e *ExportConfig) Validate() error {
	// Default to Prometheus enabled if no exporters configured
	if e.Prometheus == nil && e.OTEL == nil {
		e.Prometheus = &PrometheusExportConfig{
			Enabled: true,
			Port:    DefaultPrometheusPort,
			Path:    DefaultPrometheusPath,
		}
		return nil
	}

	// Validate individual exporters
	if e.PrometheusEnabled() {
		if err := e.Prometheus.Validate(); err != nil {
			return err
		}
	}

	if e.OTELEnabled() {
		if err := e.OTEL.Validate(); err != nil {
			return err
		}
	}

	// Both exporters may run together. Having none is only an error for
	// collect, which checks it itself.
	return nil
}

// PrometheusEnabled reports whether the Prometheus exporter should run.
func (e *ExportConfig) PrometheusEnabled() bool {
	return e.Prometheus != nil && e.Prometheus.Enabled
}

// OTELEnabled reports whether the OTEL exporter should run.
func (e *ExportConfig) OTELEnabled() bool {
	return e.OTEL != nil && e.OTEL.Enabled
}

// PrometheusExportConfig defines Prometheus pull endpoint settings.
type PrometheusExportConfig struct {
	Enabled bool
	Port    int
	Path    string
}

// Validate applies defaults and validates Prometheus configuration.
func (c *PrometheusExportConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	// Apply defaults
	if c.Port == 0 {
		c.Port = DefaultPrometheusPort
	}
	if c.Path == "" {
		c.Path = DefaultPrometheusPath
	}

	// Validate port range
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid prometheus port: %d", c.Port)
	}

	return nil
}

// OTELExportConfig defines OTEL push settings.
type OTELExportConfig struct {
	Enabled   bool
	Transport string
	Host      string
	Port      int
	Interval  IntervalConfig
	Resource  map[string]string
	Headers   map[string]string
}

// IntervalConfig defines the OTLP push cadence and per-export timeout.
type IntervalConfig struct {
	Push    time.Duration
	Timeout time.Duration
}

// Validate applies defaults and validates OTEL configuration.
func (c *OTELExportConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	// Apply transport default
	if c.Transport == "" {
		c.Transport = DefaultOTELTransport
	}

	// Validate transport
	if c.Transport != "grpc" && c.Transport != "http" {
		return fmt.Errorf("invalid transport: %s (must be grpc or http)", c.Transport)
	}

	// Apply host default
	if c.Host == "" {
		c.Host = DefaultOTELHost
	}

	// Apply port default based on transport
	if c.Port == 0 {
		if c.Transport == "grpc" {
			c.Port = DefaultOTELPortGRPC
		} else {
			c.Port = DefaultOTELPortHTTP
		}
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid otel port: %d", c.Port)
	}

	// Apply interval defaults
	if c.Interval.Push == 0 {
		c.Interval.Push = DefaultOTELPushInterval
	}
	if c.Interval.Timeout == 0 {
		c.Interval.Timeout = DefaultOTELExportTimeout
	}

	// Apply resource defaults
	if c.Resource == nil {
		c.Resource = make(map[string]string)
	}
	if _, exists := c.Resource["service.name"]; !exists {
		c.Resource["service.name"] = DefaultServiceName
	}
	if _, exists := c.Resource["service.version"]; !exists {
		c.Resource["service.version"] = version.String()
	}

	return nil
}

// GetEndpoint returns the full endpoint address.
func (c *OTELExportConfig) GetEndpoint() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
