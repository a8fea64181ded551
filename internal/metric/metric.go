package metric

import (
	"regexp"
	"strings"

	"github.com/neox5/doglessdata/emitter"
)

// DefaultBuckets are the histogram upper bounds. Histogram samples are mostly
// millisecond timings.
var DefaultBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

var (
	invalidNameChars  = regexp.MustCompile(`[^a-zA-Z0-9_:]`)
	invalidLabelChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)
)

// Series is the aggregated state of one metric name and tag set.
type Series struct {
	Name string
	Type emitter.MetricType
	Tags []string

	// Value is the running sum for counts, the last value for gauges and the
	// last status for checks.
	Value float64

	// Histogram is set for histogram series only.
	Histogram *HistogramData

	// Message is the last service check message.
	Message string

	// Timestamp is the unix time of the last sample.
	Timestamp int64
}

// HistogramData holds a fixed-bucket distribution.
type HistogramData struct {
	Count uint64
	Sum   float64
	Min   float64
	Max   float64

	// Buckets maps each upper bound to the cumulative count of samples <= it.
	Buckets map[float64]uint64

	// Quantiles maps each of Quantiles to an estimate accurate to three
	// significant figures.
	Quantiles map[float64]float64
}

// PrometheusName converts the dotted name into a valid Prometheus metric name.
func (s Series) PrometheusName() string {
	return PrometheusName(s.Name)
}

// OTELName returns the dotted name, which OTEL accepts as is.
func (s Series) OTELName() string {
	return s.Name
}

// Attributes converts the tags into key/value pairs.
func (s Series) Attributes() map[string]string {
	return Attributes(s.Tags)
}

// PrometheusName replaces every character Prometheus rejects with '_'.
func PrometheusName(name string) string {
	n := invalidNameChars.ReplaceAllString(name, "_")
	if n == "" || (n[0] >= '0' && n[0] <= '9') {
		n = "_" + n
	}
	return n
}

// Attributes converts "key:value" tags into key/value pairs and bare tags into
// key "true". Keys are sanitized to label-safe names; repeated keys keep all
// values joined by ','.
func Attributes(tags []string) map[string]string {
	attrs := make(map[string]string, len(tags))
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		key, value, ok := strings.Cut(tag, ":")
		if !ok {
			value = "true"
		}
		key = labelName(key)
		if key == "" {
			continue
		}
		if prev, exists := attrs[key]; exists && prev != value {
			value = prev + "," + value
		}
		attrs[key] = value
	}
	return attrs
}

func labelName(key string) string {
	k := invalidLabelChars.ReplaceAllString(key, "_")
	k = strings.TrimLeft(k, "_")
	if k == "" {
		return ""
	}
	if k[0] >= '0' && k[0] <= '9' {
		k = "t_" + k
	}
	return k
}
