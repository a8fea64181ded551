package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/neox5/doglessdata/internal/config"
	"github.com/neox5/doglessdata/internal/metric"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusExporter provides HTTP server for Prometheus metrics.
type PrometheusExporter struct {
	addr         string
	path         string
	server       *http.Server
	promRegistry *prometheus.Registry
}

// NewPrometheusExporter creates a new Prometheus HTTP exporter. stats may be
// nil when internal metrics are disabled.
func NewPrometheusExporter(
	cfg *config.PrometheusExportConfig,
	metrics *metric.Registry,
	settings config.InternalMetricsConfig,
	stats StatsFunc,
) *PrometheusExporter {
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(newCollector(metrics))

	if settings.Enabled && stats != nil {
		names := namesFor(settings.Format, false)
		promRegistry.MustRegister(
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Name: names.lines,
				Help: "Total number of input lines read",
			}, func() float64 { return float64(stats().Lines) }),
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Name: names.samples,
				Help: "Total number of metric lines parsed",
			}, func() float64 { return float64(stats().Samples) }),
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Name: names.malformed,
				Help: "Total number of malformed metric lines skipped",
			}, func() float64 { return float64(stats().Malformed) }),
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Name: names.oversized,
				Help: "Total number of oversized input lines skipped",
			}, func() float64 { return float64(stats().Oversized) }),
		)

		slog.Info("registered prometheus internal metrics",
			"format", settings.Format,
			"lines_total", names.lines,
			"samples_total", names.samples,
			"malformed_total", names.malformed,
			"oversized_total", names.oversized)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)

	return &PrometheusExporter{
		addr:         addr,
		path:         cfg.Path,
		promRegistry: promRegistry,
		server:       newScrapeServer(addr, cfg.Path, promRegistry, settings.Enabled),
	}
}

// Gatherer exposes the underlying registry.
func (e *PrometheusExporter) Gatherer() prometheus.Gatherer {
	return e.promRegistry
}

// Handler returns the HTTP handler serving the metrics path.
func (e *PrometheusExporter) Handler() http.Handler {
	return e.server.Handler
}

// Start begins serving HTTP requests.
func (e *PrometheusExporter) Start(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		slog.Info("starting prometheus exporter", "addr", e.addr, "path", e.path)
		if err := e.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return e.Stop()
	}
}

// Stop gracefully stops the exporter.
func (e *PrometheusExporter) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down prometheus exporter")
	return e.server.Shutdown(ctx)
}
