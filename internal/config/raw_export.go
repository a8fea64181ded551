package config

import (
	"fmt"
	"time"

	"go.yaml.in/yaml/v4"
)

// RawExportConfig selects where collected samples are exposed.
type RawExportConfig struct {
	Prometheus *RawPullConfig `yaml:"prometheus,omitempty"`
	OTEL       *RawPushConfig `yaml:"otel,omitempty"`
}

// RawPullConfig is the Prometheus scrape endpoint.
type RawPullConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

// RawPushConfig is the OTLP destination.
type RawPushConfig struct {
	Enabled   bool              `yaml:"enabled"`
	Transport string            `yaml:"transport"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	Interval  RawPushInterval   `yaml:"interval"`
	Resource  map[string]string `yaml:"resource,omitempty"`
	Headers   map[string]string `yaml:"headers,omitempty"`
}

// RawPushInterval is written either as a bare duration ("10s") or as a
// mapping with push and timeout keys.
type RawPushInterval struct {
	Push    time.Duration
	Timeout time.Duration
}

func (i *RawPushInterval) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var d time.Duration
		if err := value.Decode(&d); err != nil {
			return fmt.Errorf("line %d: invalid push interval %q: %w", value.Line, value.Value, err)
		}
		*i = RawPushInterval{Push: d}
	case yaml.MappingNode:
		var m struct {
			Push    time.Duration `yaml:"push"`
			Timeout time.Duration `yaml:"timeout"`
		}
		if err := value.Decode(&m); err != nil {
			return err
		}
		*i = RawPushInterval{Push: m.Push, Timeout: m.Timeout}
	default:
		return fmt.Errorf("line %d: interval must be a duration or a push/timeout mapping", value.Line)
	}

	if i.Push < 0 || i.Timeout < 0 {
		return fmt.Errorf("line %d: interval durations must not be negative", value.Line)
	}
	return nil
}
