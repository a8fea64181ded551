package exporter

import (
	"context"
	"testing"

	"github.com/neox5/doglessdata/emitter"
	"github.com/neox5/doglessdata/internal/config"
	"github.com/neox5/doglessdata/internal/scrape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collectOTEL(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestOTELExporter_Observe(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	e, err := newOTELExporter(&config.OTELExportConfig{}, provider, config.InternalMetricsConfig{}, nil)
	require.NoError(t, err)

	e.Observe(emitter.Sample{Type: emitter.TypeCount, Name: "lambda.jobs.run", Value: 2, Tags: []string{"lambda"}})
	e.Observe(emitter.Sample{Type: emitter.TypeCount, Name: "lambda.jobs.run", Value: 3, Tags: []string{"lambda"}})
	e.Observe(emitter.Sample{Type: emitter.TypeGauge, Name: "lambda.queue.depth", Value: 12})
	e.Observe(emitter.Sample{Type: emitter.TypeHistogram, Name: "lambda.db.query", Value: 8})
	e.Observe(emitter.Sample{Type: emitter.TypeCheck, Name: "lambda.db", Value: 1, Message: "slow"})

	metrics := collectOTEL(t, reader)

	sum, ok := metrics["lambda.jobs.run"].Data.(metricdata.Sum[float64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, float64(5), sum.DataPoints[0].Value)
	assert.False(t, sum.IsMonotonic)
	v, found := sum.DataPoints[0].Attributes.Value("lambda")
	require.True(t, found)
	assert.Equal(t, "true", v.AsString())

	gauge, ok := metrics["lambda.queue.depth"].Data.(metricdata.Gauge[float64])
	require.True(t, ok)
	assert.Equal(t, float64(12), gauge.DataPoints[0].Value)

	hist, ok := metrics["lambda.db.query"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	assert.Equal(t, "ms", metrics["lambda.db.query"].Unit)

	check, ok := metrics["lambda.db"].Data.(metricdata.Gauge[float64])
	require.True(t, ok)
	assert.Equal(t, float64(1), check.DataPoints[0].Value)
}

func TestOTELExporter_CheckRecovery(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	e, err := newOTELExporter(&config.OTELExportConfig{}, provider, config.InternalMetricsConfig{}, nil)
	require.NoError(t, err)

	tags := []string{"lambda", "disk"}
	e.Observe(emitter.Sample{Type: emitter.TypeCheck, Name: "lambda.disk", Value: float64(emitter.Critical), Tags: tags, Message: "disk full"})
	e.Observe(emitter.Sample{Type: emitter.TypeCheck, Name: "lambda.disk", Value: float64(emitter.OK), Tags: tags})

	check, ok := collectOTEL(t, reader)["lambda.disk"].Data.(metricdata.Gauge[float64])
	require.True(t, ok)
	require.Len(t, check.DataPoints, 1)
	assert.Equal(t, float64(emitter.OK), check.DataPoints[0].Value)
	_, found := check.DataPoints[0].Attributes.Value("message")
	assert.False(t, found)
}

func TestOTELExporter_InternalMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	stats := func() scrape.Stats { return scrape.Stats{Lines: 4, Samples: 3, Malformed: 1} }
	_, err := newOTELExporter(
		&config.OTELExportConfig{},
		provider,
		config.InternalMetricsConfig{Enabled: true, Format: config.NamingFormatNative},
		stats,
	)
	require.NoError(t, err)

	metrics := collectOTEL(t, reader)

	lines, ok := metrics[linesTotalDot].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, int64(4), lines.DataPoints[0].Value)
	assert.True(t, lines.IsMonotonic)
}

func TestCreateOTLPExporter_UnsupportedTransport(t *testing.T) {
	_, err := createOTLPExporter(&config.OTELExportConfig{Transport: "udp"})
	assert.Error(t, err)
}

func TestCreateOTELResource(t *testing.T) {
	t.Setenv("OTEL_RESOURCE_ATTRIBUTES", "deployment.environment=test,service.name=from-env")

	res, err := createOTELResource(map[string]string{"service.name": "doglessdata"})
	require.NoError(t, err)

	set := res.Set()
	name, ok := set.Value("service.name")
	require.True(t, ok)
	assert.Equal(t, "doglessdata", name.AsString())

	env, ok := set.Value("deployment.environment")
	require.True(t, ok)
	assert.Equal(t, "test", env.AsString())

	_, ok = set.Value("telemetry.sdk.name")
	assert.True(t, ok)
}
