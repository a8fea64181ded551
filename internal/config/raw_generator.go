package config

import "time"

// RawGeneratorConfig defines synthetic metric generation
type RawGeneratorConfig struct {
	Interval time.Duration              `yaml:"interval,omitempty"`
	Sources  map[string]RawSourceConfig `yaml:"sources,omitempty"`
	Metrics  []RawGeneratedMetric       `yaml:"metrics,omitempty"`
}

// RawSourceConfig defines a simv value source
type RawSourceConfig struct {
	Type       string   `yaml:"type"`
	Min        *int     `yaml:"min,omitempty"`
	Max        *int     `yaml:"max,omitempty"`
	Transforms []string `yaml:"transforms,omitempty"`
	Reset      *int     `yaml:"reset,omitempty"`
}

// RawGeneratedMetric binds a source to an emitted metric
type RawGeneratedMetric struct {
	Name   string   `yaml:"name"`
	Type   string   `yaml:"type"`
	Source string   `yaml:"source"`
	Tags   []string `yaml:"tags,omitempty"`
}
