package config

import (
	"fmt"
	"strings"
)

// Validate performs syntactic validation on raw config
func Validate(raw *RawConfig) error {
	return validateRawSyntax(raw)
}

// validateRawSyntax performs basic syntactic validation on raw config
func validateRawSyntax(raw *RawConfig) error {
	for i, tag := range raw.Emitter.GlobalTags {
		if tag == "" {
			return fmt.Errorf("global tag at index %d: tag cannot be empty", i)
		}
		if strings.ContainsAny(tag, "|,\n") {
			return fmt.Errorf("global tag %q: must not contain '|', ',' or newlines", tag)
		}
	}

	for name, src := range raw.Generator.Sources {
		if src.Type == "" {
			return fmt.Errorf("source %q: type cannot be empty", name)
		}
	}

	for i, metric := range raw.Generator.Metrics {
		if metric.Name == "" {
			return fmt.Errorf("generated metric at index %d: name cannot be empty", i)
		}
		if metric.Type == "" {
			return fmt.Errorf("generated metric %q: type cannot be empty", metric.Name)
		}
		if metric.Source == "" {
			return fmt.Errorf("generated metric %q: source cannot be empty", metric.Name)
		}
	}

	return nil
}
