package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/neox5/doglessdata/emitter"
	"github.com/neox5/doglessdata/internal/exporter"
	"github.com/neox5/doglessdata/internal/metric"
	"github.com/neox5/doglessdata/internal/monitor"
	"github.com/neox5/doglessdata/internal/scrape"
)

// ErrNoExporter is returned when collect runs without any exporter enabled.
var ErrNoExporter = errors.New("no exporter enabled")

// Collector reads metric lines, aggregates them and serves them to the
// configured exporters.
type Collector struct {
	Metrics            *metric.Registry
	Scanner            *scrape.Scanner
	PrometheusExporter *exporter.PrometheusExporter
	OTELExporter       *exporter.OTELExporter
	Monitor            *monitor.Monitor

	logger *slog.Logger
}

// Collector builds the collect pipeline. Non-metric lines are copied to
// passthrough when it is not nil.
func (a *App) Collector(passthrough io.Writer, opts ...scrape.Option) (*Collector, error) {
	cfg := a.Config
	if !cfg.Export.PrometheusEnabled() && !cfg.Export.OTELEnabled() {
		return nil, ErrNoExporter
	}

	c := &Collector{
		Metrics: metric.New(),
		Scanner: scrape.New(passthrough, a.Logger, opts...),
		logger:  a.Logger,
	}

	if cfg.Export.PrometheusEnabled() {
		c.PrometheusExporter = exporter.NewPrometheusExporter(
			cfg.Export.Prometheus,
			c.Metrics,
			cfg.Settings.InternalMetrics,
			c.Scanner.Stats,
		)
	}

	if cfg.Export.OTELEnabled() {
		otelExporter, err := exporter.NewOTELExporter(
			cfg.Export.OTEL,
			cfg.Settings.InternalMetrics,
			c.Scanner.Stats,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTEL exporter: %w", err)
		}
		c.OTELExporter = otelExporter
	}

	if cfg.Settings.Monitor.Enabled {
		mon, err := monitor.New(cfg.Settings.Monitor.Interval, a.Logger, c.Record)
		if err != nil {
			return nil, fmt.Errorf("failed to create monitor: %w", err)
		}
		c.Monitor = mon
	}

	return c, nil
}

// Record hands a sample to the registry and to the OTEL exporter.
func (c *Collector) Record(sample emitter.Sample) {
	c.Metrics.Observe(sample)
	if c.OTELExporter != nil {
		c.OTELExporter.Observe(sample)
	}
}

// Run scans r and serves the exporters until ctx is cancelled. With exitOnEOF
// set, the end of input also ends the run.
func (c *Collector) Run(ctx context.Context, r io.Reader, exitOnEOF bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if c.Monitor != nil {
		c.Monitor.Run(ctx)
		defer c.Monitor.Wait()
	}

	var wg sync.WaitGroup
	errChan := make(chan error, 2)

	if c.PrometheusExporter != nil {
		wg.Go(func() {
			if err := c.PrometheusExporter.Start(ctx); err != nil {
				errChan <- fmt.Errorf("prometheus exporter: %w", err)
			}
		})
	}

	if c.OTELExporter != nil {
		wg.Go(func() {
			if err := c.OTELExporter.Start(ctx); err != nil {
				errChan <- fmt.Errorf("otel exporter: %w", err)
			}
		})
	}

	// The scanner is not joined: a blocked read on stdin cannot be interrupted.
	scanDone := make(chan error, 1)
	go func() {
		scanDone <- c.Scanner.Run(ctx, r, c.Record)
	}()

	var runErr error
	scanning := true
	for scanning {
		select {
		case err := <-errChan:
			runErr = err
			scanning = false
		case err := <-scanDone:
			if err != nil && !errors.Is(err, context.Canceled) {
				runErr = err
				scanning = false
				continue
			}
			stats := c.Scanner.Stats()
			c.logger.Info("input closed", "lines", stats.Lines, "samples", stats.Samples, "malformed", stats.Malformed, "oversized", stats.Oversized)
			if exitOnEOF {
				scanning = false
			}
			scanDone = nil
		case <-ctx.Done():
			scanning = false
		}
	}

	cancel()
	wg.Wait()

	return runErr
}
