package config

import (
	"fmt"
	"log/slog"
)

// Resolve converts a raw configuration into a validated Config with defaults applied.
func Resolve(raw *RawConfig) (*Config, error) {
	cfg := &Config{
		Emitter:   resolveEmitter(raw.Emitter),
		Export:    resolveExport(raw.Export),
		Settings:  resolveSettings(raw.Settings),
		Generator: resolveGenerator(raw.Generator),
	}

	if err := cfg.Export.Validate(); err != nil {
		return nil, fmt.Errorf("invalid export config: %w", err)
	}
	if err := cfg.Settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	if err := cfg.Generator.Validate(); err != nil {
		return nil, fmt.Errorf("invalid generator config: %w", err)
	}

	slog.Debug("resolved config",
		"global_tags", len(cfg.Emitter.GlobalTags),
		"prometheus", cfg.Export.PrometheusEnabled(),
		"otel", cfg.Export.OTELEnabled(),
		"sources", len(cfg.Generator.Sources),
		"generated_metrics", len(cfg.Generator.Metrics))

	return cfg, nil
}

func resolveEmitter(raw RawEmitterConfig) EmitterConfig {
	resolved := EmitterConfig{
		GlobalTags: append([]string(nil), raw.GlobalTags...),
	}
	if raw.FunctionName != nil {
		resolved.FunctionName = *raw.FunctionName
		resolved.functionNameSet = true
	}
	if raw.Region != nil {
		resolved.Region = *raw.Region
		resolved.regionSet = true
	}
	return resolved
}

func resolveExport(raw RawExportConfig) ExportConfig {
	var resolved ExportConfig
	if raw.Prometheus != nil {
		resolved.Prometheus = &PrometheusExportConfig{
			Enabled: raw.Prometheus.Enabled,
			Port:    raw.Prometheus.Port,
			Path:    raw.Prometheus.Path,
		}
	}
	if raw.OTEL != nil {
		resolved.OTEL = &OTELExportConfig{
			Enabled:   raw.OTEL.Enabled,
			Transport: raw.OTEL.Transport,
			Host:      raw.OTEL.Host,
			Port:      raw.OTEL.Port,
			Interval: IntervalConfig{
				Push:    raw.OTEL.Interval.Push,
				Timeout: raw.OTEL.Interval.Timeout,
			},
			Resource: copyMap(raw.OTEL.Resource),
			Headers:  copyMap(raw.OTEL.Headers),
		}
	}
	return resolved
}

func resolveSettings(raw RawSettingsConfig) SettingsConfig {
	resolved := SettingsConfig{
		InternalMetrics: InternalMetricsConfig{
			Enabled: raw.InternalMetrics.Enabled,
			Format:  NamingFormat(raw.InternalMetrics.Format),
		},
		Monitor: MonitorConfig{
			Enabled:  true,
			Interval: raw.Monitor.Interval,
		},
	}
	if raw.Monitor.Enabled != nil {
		resolved.Monitor.Enabled = *raw.Monitor.Enabled
	}
	return resolved
}

func resolveGenerator(raw RawGeneratorConfig) GeneratorConfig {
	resolved := GeneratorConfig{
		Interval: raw.Interval,
		Sources:  make(map[string]SourceConfig, len(raw.Sources)),
	}

	for name, src := range raw.Sources {
		s := SourceConfig{
			Type:       src.Type,
			Transforms: append([]string(nil), src.Transforms...),
		}
		if src.Min != nil {
			s.Min = *src.Min
		}
		if src.Max != nil {
			s.Max = *src.Max
		}
		if src.Reset != nil {
			s.ResetOnRead = true
			s.ResetValue = *src.Reset
		}
		resolved.Sources[name] = s
	}

	for _, m := range raw.Metrics {
		resolved.Metrics = append(resolved.Metrics, GeneratedMetricConfig{
			Name:   m.Name,
			Type:   GeneratedMetricType(m.Type),
			Source: m.Source,
			Tags:   append([]string(nil), m.Tags...),
		})
	}

	return resolved
}

func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
