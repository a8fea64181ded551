package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullConfig = `
emitter:
  global_tags: ["team:payments", "env:prod"]
  function_name: us-east-1_billing-api_charge
export:
  prometheus:
    enabled: true
    port: 9102
  otel:
    enabled: true
    transport: http
    interval: 10s
    headers:
      x-api-key: secret
settings:
  monitor:
    enabled: false
  internal_metrics:
    enabled: true
    format: dot
generator:
  interval: 250ms
  sources:
    requests:
      type: random_int
      min: 0
      max: 10
      transforms: [accumulate]
      reset: 0
  metrics:
    - name: api.requests
      type: count
      source: requests
      tags: ["route:/charge"]
`

func TestParseAndResolve(t *testing.T) {
	raw, err := ParseBytes([]byte(fullConfig))
	require.NoError(t, err)

	cfg, err := Resolve(raw)
	require.NoError(t, err)

	assert.Equal(t, []string{"team:payments", "env:prod"}, cfg.Emitter.GlobalTags)
	assert.Equal(t, "us-east-1_billing-api_charge", cfg.Emitter.FunctionName)

	require.True(t, cfg.Export.PrometheusEnabled())
	assert.Equal(t, 9102, cfg.Export.Prometheus.Port)
	assert.Equal(t, DefaultPrometheusPath, cfg.Export.Prometheus.Path)

	require.True(t, cfg.Export.OTELEnabled())
	assert.Equal(t, "http", cfg.Export.OTEL.Transport)
	assert.Equal(t, DefaultOTELPortHTTP, cfg.Export.OTEL.Port)
	assert.Equal(t, 10*time.Second, cfg.Export.OTEL.Interval.Push)
	assert.Equal(t, "localhost:4318", cfg.Export.OTEL.GetEndpoint())
	assert.Equal(t, DefaultServiceName, cfg.Export.OTEL.Resource["service.name"])
	assert.Equal(t, "secret", cfg.Export.OTEL.Headers["x-api-key"])

	assert.False(t, cfg.Settings.Monitor.Enabled)
	assert.Equal(t, DefaultMonitorInterval, cfg.Settings.Monitor.Interval)
	assert.Equal(t, NamingFormatDot, cfg.Settings.InternalMetrics.Format)

	assert.Equal(t, 250*time.Millisecond, cfg.Generator.Interval)
	src := cfg.Generator.Sources["requests"]
	assert.Equal(t, SourceConfig{
		Type:        SourceTypeRandomInt,
		Min:         0,
		Max:         10,
		Transforms:  []string{TransformAccumulate},
		ResetOnRead: true,
		ResetValue:  0,
	}, src)
	require.Len(t, cfg.Generator.Metrics, 1)
	assert.Equal(t, GeneratedCount, cfg.Generator.Metrics[0].Type)
}

func TestDefault(t *testing.T) {
	cfg := Default()

	require.True(t, cfg.Export.PrometheusEnabled())
	assert.Equal(t, DefaultPrometheusPort, cfg.Export.Prometheus.Port)
	assert.False(t, cfg.Export.OTELEnabled())
	assert.True(t, cfg.Settings.Monitor.Enabled)
	assert.Equal(t, NamingFormatNative, cfg.Settings.InternalMetrics.Format)
	assert.Equal(t, DefaultGeneratorInterval, cfg.Generator.Interval)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fullConfig), 0o600))

	cfg, err := Load(path, true)
	require.NoError(t, err)
	assert.Len(t, cfg.Generator.Metrics, 1)

	missing := filepath.Join(dir, "missing.yaml")

	cfg, err = Load(missing, false)
	require.NoError(t, err)
	assert.Empty(t, cfg.Generator.Metrics)

	_, err = Load(missing, true)
	assert.Error(t, err)
}

func TestLoadFS(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/etc/doglessdata.yaml", []byte(fullConfig), 0o600))

	cfg, err := LoadFS(fsys, "/etc/doglessdata.yaml", true)
	require.NoError(t, err)
	assert.Equal(t, 9102, cfg.Export.Prometheus.Port)

	cfg, err = LoadFS(fsys, "/etc/other.yaml", false)
	require.NoError(t, err)
	assert.Equal(t, DefaultPrometheusPort, cfg.Export.Prometheus.Port)

	_, err = LoadFS(fsys, "/etc/other.yaml", true)
	assert.Error(t, err)

	cfg, err = LoadFS(fsys, "", true)
	require.NoError(t, err)
	assert.True(t, cfg.Export.PrometheusEnabled())
}

func TestLoadFS_NoExporterEnabled(t *testing.T) {
	fsys := afero.NewMemMapFs()
	yaml := "emitter:\n  global_tags: [\"team:payments\"]\nexport:\n  prometheus:\n    enabled: false\n"
	require.NoError(t, afero.WriteFile(fsys, "emit.yaml", []byte(yaml), 0o600))

	cfg, err := LoadFS(fsys, "emit.yaml", true)
	require.NoError(t, err)
	assert.False(t, cfg.Export.PrometheusEnabled())
	assert.False(t, cfg.Export.OTELEnabled())
	assert.Equal(t, []string{"team:payments"}, cfg.Emitter.GlobalTags)
}

func TestPushIntervalForms(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		want    RawPushInterval
		wantErr bool
	}{
		{
			name: "bare duration",
			yaml: `export: {otel: {interval: 15s}}`,
			want: RawPushInterval{Push: 15 * time.Second},
		},
		{
			name: "push and timeout",
			yaml: `export: {otel: {interval: {push: 30s, timeout: 5s}}}`,
			want: RawPushInterval{Push: 30 * time.Second, Timeout: 5 * time.Second},
		},
		{
			name: "timeout only",
			yaml: `export: {otel: {interval: {timeout: 2s}}}`,
			want: RawPushInterval{Timeout: 2 * time.Second},
		},
		{
			name:    "not a duration",
			yaml:    `export: {otel: {interval: often}}`,
			wantErr: true,
		},
		{
			name:    "sequence",
			yaml:    `export: {otel: {interval: [10s]}}`,
			wantErr: true,
		},
		{
			name:    "negative push",
			yaml:    `export: {otel: {interval: -1s}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := ParseBytes([]byte(tt.yaml))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, raw.Export.OTEL)
			assert.Equal(t, tt.want, raw.Export.OTEL.Interval)
		})
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "empty global tag",
			yaml: `emitter: {global_tags: [""]}`,
		},
		{
			name: "global tag with separator",
			yaml: `emitter: {global_tags: ["a|b"]}`,
		},
		{
			name: "bad transport",
			yaml: `export: {otel: {enabled: true, transport: udp}}`,
		},
		{
			name: "bad naming format",
			yaml: `settings: {internal_metrics: {format: camel}}`,
		},
		{
			name: "unknown source type",
			yaml: `generator: {sources: {a: {type: sine}}}`,
		},
		{
			name: "unknown transform",
			yaml: `generator: {sources: {a: {type: random_int, max: 1, transforms: [smooth]}}}`,
		},
		{
			name: "min above max",
			yaml: `generator: {sources: {a: {type: random_int, min: 5, max: 1}}}`,
		},
		{
			name: "unknown source reference",
			yaml: `generator: {metrics: [{name: x, type: gauge, source: nope}]}`,
		},
		{
			name: "unsupported metric type",
			yaml: `generator: {sources: {a: {type: random_int, max: 1}}, metrics: [{name: x, type: set, source: a}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := ParseBytes([]byte(tt.yaml))
			if err == nil {
				_, err = Resolve(raw)
			}
			assert.Error(t, err)
		})
	}
}

func TestEmitterOptions(t *testing.T) {
	env := LambdaEnv{FunctionName: "from-env", Region: "eu-west-1"}

	raw, err := ParseBytes([]byte(`emitter: {global_tags: [a], region: us-east-1}`))
	require.NoError(t, err)
	cfg, err := Resolve(raw)
	require.NoError(t, err)

	opts := cfg.Emitter.Options(env)
	assert.Equal(t, []string{"a"}, opts.GlobalTags)
	assert.Equal(t, "from-env", opts.FunctionName)
	assert.Equal(t, "us-east-1", opts.Region)

	opts = Default().Emitter.Options(env)
	assert.Equal(t, "eu-west-1", opts.Region)
}

func TestLookupLambdaEnv(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "fn")
	t.Setenv("AWS_REGION", "ap-south-1")

	assert.Equal(t, LambdaEnv{FunctionName: "fn", Region: "ap-south-1"}, LookupLambdaEnv())
}
