package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/neox5/doglessdata/emitter"
	"github.com/neox5/doglessdata/internal/config"
	"github.com/neox5/doglessdata/internal/metric"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "github.com/neox5/doglessdata"

// OTELExporter records scraped samples on OTEL instruments and pushes them to
// an OTLP collector.
type OTELExporter struct {
	config        *config.OTELExportConfig
	meterProvider *sdkmetric.MeterProvider
	meter         otelmetric.Meter

	mu          sync.Mutex
	instruments map[string]instrument
}

// instrument holds the synchronous instrument used for one name and type.
type instrument struct {
	counter   otelmetric.Float64UpDownCounter
	gauge     otelmetric.Float64Gauge
	histogram otelmetric.Float64Histogram
}

// NewOTELExporter creates a new OTEL exporter pushing over OTLP.
func NewOTELExporter(
	cfg *config.OTELExportConfig,
	settings config.InternalMetricsConfig,
	stats StatsFunc,
) (*OTELExporter, error) {
	res, err := createOTELResource(cfg.Resource)
	if err != nil {
		return nil, err
	}

	meterProvider, err := createMeterProvider(cfg, res)
	if err != nil {
		return nil, err
	}

	return newOTELExporter(cfg, meterProvider, settings, stats)
}

// newOTELExporter wires an exporter to an existing meter provider.
func newOTELExporter(
	cfg *config.OTELExportConfig,
	meterProvider *sdkmetric.MeterProvider,
	settings config.InternalMetricsConfig,
	stats StatsFunc,
) (*OTELExporter, error) {
	e := &OTELExporter{
		config:        cfg,
		meterProvider: meterProvider,
		meter:         meterProvider.Meter(meterName),
		instruments:   make(map[string]instrument),
	}

	if settings.Enabled && stats != nil {
		if err := registerOTELCallback(e, namesFor(settings.Format, true), stats); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Observe records a sample. Counts become up-down counters since deltas may
// be negative, histograms use the registry bucket bounds.
func (e *OTELExporter) Observe(sample emitter.Sample) {
	inst, err := e.instrument(sample.Type, sample.Name)
	if err != nil {
		slog.Warn("failed to create otel instrument", "name", sample.Name, "type", sample.Type, "error", err)
		return
	}

	// Check messages are not attributes: a new message would start a new
	// series and the previous status would keep being exported.
	opt := otelmetric.WithAttributes(attributes(metric.Attributes(sample.Tags))...)

	ctx := context.Background()
	switch {
	case inst.counter != nil:
		inst.counter.Add(ctx, sample.Value, opt)
	case inst.gauge != nil:
		inst.gauge.Record(ctx, sample.Value, opt)
	case inst.histogram != nil:
		inst.histogram.Record(ctx, sample.Value, opt)
	}
}

// instrument returns the cached instrument for a name and type, creating it on first use.
func (e *OTELExporter) instrument(typ emitter.MetricType, name string) (instrument, error) {
	key := string(typ) + "|" + name

	e.mu.Lock()
	defer e.mu.Unlock()

	if inst, ok := e.instruments[key]; ok {
		return inst, nil
	}

	var (
		inst instrument
		err  error
	)
	desc := otelmetric.WithDescription("Emitted as " + string(typ) + " by lambda functions")

	switch typ {
	case emitter.TypeCount:
		inst.counter, err = e.meter.Float64UpDownCounter(name, desc)
	case emitter.TypeHistogram:
		inst.histogram, err = e.meter.Float64Histogram(name, desc,
			otelmetric.WithUnit("ms"),
			otelmetric.WithExplicitBucketBoundaries(metric.DefaultBuckets...))
	default:
		inst.gauge, err = e.meter.Float64Gauge(name, desc)
	}
	if err != nil {
		return instrument{}, fmt.Errorf("failed to create %s %q: %w", typ, name, err)
	}

	e.instruments[key] = inst
	slog.Debug("registered otel instrument", "name", name, "type", typ)
	return inst, nil
}

// Start begins periodic metric export.
func (e *OTELExporter) Start(ctx context.Context) error {
	slog.Info("starting otel exporter",
		"transport", e.config.Transport,
		"endpoint", e.config.GetEndpoint(),
		"push_interval", e.config.Interval.Push,
	)

	// Periodic reader handles push automatically
	<-ctx.Done()
	return e.Stop()
}

// Stop flushes pending data and shuts the meter provider down.
func (e *OTELExporter) Stop() error {
	slog.Info("shutting down otel exporter")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return e.meterProvider.Shutdown(ctx)
}

// registerOTELCallback registers observable counters for the scanner counters.
func registerOTELCallback(e *OTELExporter, names internalNames, stats StatsFunc) error {
	lines, err := e.meter.Int64ObservableCounter(names.lines,
		otelmetric.WithDescription("Total number of input lines read"))
	if err != nil {
		return fmt.Errorf("failed to create counter %q: %w", names.lines, err)
	}
	samples, err := e.meter.Int64ObservableCounter(names.samples,
		otelmetric.WithDescription("Total number of metric lines parsed"))
	if err != nil {
		return fmt.Errorf("failed to create counter %q: %w", names.samples, err)
	}
	malformed, err := e.meter.Int64ObservableCounter(names.malformed,
		otelmetric.WithDescription("Total number of malformed metric lines skipped"))
	if err != nil {
		return fmt.Errorf("failed to create counter %q: %w", names.malformed, err)
	}
	oversized, err := e.meter.Int64ObservableCounter(names.oversized,
		otelmetric.WithDescription("Total number of oversized input lines skipped"))
	if err != nil {
		return fmt.Errorf("failed to create counter %q: %w", names.oversized, err)
	}

	_, err = e.meter.RegisterCallback(
		func(ctx context.Context, observer otelmetric.Observer) error {
			s := stats()
			slog.Debug("otel push", "lines", s.Lines, "samples", s.Samples)
			observer.ObserveInt64(lines, s.Lines)
			observer.ObserveInt64(samples, s.Samples)
			observer.ObserveInt64(malformed, s.Malformed)
			observer.ObserveInt64(oversized, s.Oversized)
			return nil
		},
		lines, samples, malformed, oversized,
	)
	if err != nil {
		return fmt.Errorf("failed to register callback: %w", err)
	}

	return nil
}

// attributes converts a label map into OTEL attributes.
func attributes(attrs map[string]string) []attribute.KeyValue {
	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		kvs = append(kvs, attribute.String(k, v))
	}
	return kvs
}
