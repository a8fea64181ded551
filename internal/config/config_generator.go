package config

import (
	"fmt"
	"time"
)

// Source types
const (
	SourceTypeRandomInt = "random_int"
)

// Transform types
const (
	TransformAccumulate = "accumulate"
)

// GeneratedMetricType is the emitter operation a generated metric uses.
type GeneratedMetricType string

const (
	GeneratedCount     GeneratedMetricType = "count"
	GeneratedGauge     GeneratedMetricType = "gauge"
	GeneratedHistogram GeneratedMetricType = "histogram"
	GeneratedTiming    GeneratedMetricType = "timing"
)

// GeneratorConfig defines synthetic metric generation.
type GeneratorConfig struct {
	Interval time.Duration
	Sources  map[string]SourceConfig
	Metrics  []GeneratedMetricConfig
}

// SourceConfig defines a simv source and the value built on it.
type SourceConfig struct {
	Type       string
	Min        int
	Max        int
	Transforms []string

	// ResetOnRead wraps the value so each read restarts from ResetValue.
	ResetOnRead bool
	ResetValue  int
}

// GeneratedMetricConfig binds a source to an emitted metric.
type GeneratedMetricConfig struct {
	Name   string
	Type   GeneratedMetricType
	Source string
	Tags   []string
}

// Validate applies defaults and validates generator configuration.
func (g *GeneratorConfig) Validate() error {
	if g.Interval == 0 {
		g.Interval = DefaultGeneratorInterval
	}
	if g.Interval < 0 {
		return fmt.Errorf("generator interval must be positive")
	}

	for name, src := range g.Sources {
		if src.Type != SourceTypeRandomInt {
			return fmt.Errorf("source %q: unknown source type: %s", name, src.Type)
		}
		if src.Min > src.Max {
			return fmt.Errorf("source %q: min %d greater than max %d", name, src.Min, src.Max)
		}
		for _, tf := range src.Transforms {
			if tf != TransformAccumulate {
				return fmt.Errorf("source %q: unknown transform: %s", name, tf)
			}
		}
	}

	for i, m := range g.Metrics {
		if m.Name == "" {
			return fmt.Errorf("generated metric at index %d: name cannot be empty", i)
		}
		switch m.Type {
		case GeneratedCount, GeneratedGauge, GeneratedHistogram, GeneratedTiming:
		default:
			return fmt.Errorf("generated metric %q: unsupported type: %s", m.Name, m.Type)
		}
		if _, ok := g.Sources[m.Source]; !ok {
			return fmt.Errorf("generated metric %q references unknown source %q", m.Name, m.Source)
		}
	}

	return nil
}
