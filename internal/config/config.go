package config

import "time"

const (
	// Monitor defaults
	DefaultMonitorInterval = 5 * time.Second

	// Generator defaults
	DefaultGeneratorInterval = 1 * time.Second
)

// Config holds the complete, validated application configuration.
type Config struct {
	Emitter   EmitterConfig
	Export    ExportConfig
	Settings  SettingsConfig
	Generator GeneratorConfig
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg, err := Resolve(&RawConfig{})
	if err != nil {
		// An empty raw config always resolves.
		panic(err)
	}
	return cfg
}
