package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/spf13/afero"
)

// Load reads and resolves a YAML configuration file. An empty path yields the
// defaults. A missing file is an error only when required is set.
func Load(path string, required bool) (*Config, error) {
	return LoadFS(afero.NewOsFs(), path, required)
}

// LoadFS is Load reading from fsys.
func LoadFS(fsys afero.Fs, path string, required bool) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	raw, err := ParseFS(fsys, path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			slog.Debug("config file not found, using defaults", "path", path)
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg, err := Resolve(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config: %w", err)
	}

	return cfg, nil
}
