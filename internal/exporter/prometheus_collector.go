package exporter

import (
	"log/slog"
	"sort"

	"github.com/neox5/doglessdata/emitter"
	"github.com/neox5/doglessdata/internal/metric"
	"github.com/prometheus/client_golang/prometheus"
)

// collector implements prometheus.Collector over registry snapshots.
// It describes nothing up front because series appear as lines arrive.
type collector struct {
	registry *metric.Registry
}

// newCollector creates a collector from metric registry.
func newCollector(metrics *metric.Registry) *collector {
	return &collector{registry: metrics}
}

// Describe sends no descriptors, making this an unchecked collector.
func (c *collector) Describe(chan<- *prometheus.Desc) {}

// Collect converts each series into a constant metric.
// This is called on each Prometheus scrape.
func (c *collector) Collect(ch chan<- prometheus.Metric) {
	for _, s := range c.registry.Snapshot() {
		m, err := constMetric(s)
		if err != nil {
			slog.Debug("skipping series", "name", s.Name, "type", s.Type, "error", err)
			continue
		}
		ch <- m

		if s.Type == emitter.TypeHistogram && len(s.Histogram.Quantiles) > 0 {
			q, err := quantileSummary(s)
			if err != nil {
				slog.Debug("skipping quantiles", "name", s.Name, "error", err)
				continue
			}
			ch <- q
		}
	}
}

// constMetric builds the Prometheus metric for one series.
func constMetric(s metric.Series) (prometheus.Metric, error) {
	labelNames, labelValues := labels(s)

	desc := prometheus.NewDesc(
		s.PrometheusName(),
		"Emitted as "+string(s.Type)+" by lambda functions",
		labelNames,
		nil, // No constant labels
	)

	switch s.Type {
	case emitter.TypeCount:
		return prometheus.NewConstMetric(desc, prometheus.CounterValue, s.Value, labelValues...)
	case emitter.TypeHistogram:
		return prometheus.NewConstHistogram(desc, s.Histogram.Count, s.Histogram.Sum, s.Histogram.Buckets, labelValues...)
	default:
		// Gauges and service check statuses are both point-in-time values
		return prometheus.NewConstMetric(desc, prometheus.GaugeValue, s.Value, labelValues...)
	}
}

// quantileSummary exposes the histogram quantile estimates as <name>_summary.
func quantileSummary(s metric.Series) (prometheus.Metric, error) {
	labelNames, labelValues := labels(s)

	desc := prometheus.NewDesc(
		s.PrometheusName()+"_summary",
		"Quantile estimates of a lambda histogram",
		labelNames,
		nil,
	)
	return prometheus.NewConstSummary(desc, s.Histogram.Count, s.Histogram.Sum, s.Histogram.Quantiles, labelValues...)
}

// labels returns the series label names in sorted order with matching values.
func labels(s metric.Series) ([]string, []string) {
	attrs := s.Attributes()

	// Extract and sort label names for consistent ordering
	labelNames := make([]string, 0, len(attrs))
	for key := range attrs {
		labelNames = append(labelNames, key)
	}
	sort.Strings(labelNames)

	// Build label values in same order
	labelValues := make([]string, len(labelNames))
	for i, name := range labelNames {
		labelValues[i] = attrs[name]
	}
	return labelNames, labelValues
}
