package config

import (
	"fmt"

	"github.com/spf13/afero"
	"go.yaml.in/yaml/v4"
)

// Parse reads and parses a YAML configuration file
func Parse(path string) (*RawConfig, error) {
	return ParseFS(afero.NewOsFs(), path)
}

// ParseFS reads and parses a YAML configuration file from fsys
func ParseFS(fsys afero.Fs, path string) (*RawConfig, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseBytes(data)
}

// ParseBytes parses YAML configuration content
func ParseBytes(data []byte) (*RawConfig, error) {
	var raw RawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := Validate(&raw); err != nil {
		return nil, err
	}

	return &raw, nil
}
