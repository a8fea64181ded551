package metric

import (
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/neox5/doglessdata/emitter"
)

// Quantiles reported for every histogram series.
var Quantiles = []float64{0.5, 0.9, 0.99}

// hdrHighest bounds recorded histogram values: one hour in milliseconds.
const hdrHighest = 3_600_000

// Registry aggregates samples into series keyed by type, name and tag set.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	series  map[string]*Series
	hdr     map[string]*hdrhistogram.Histogram
	buckets []float64
}

// New creates an empty registry using DefaultBuckets for histograms.
func New() *Registry {
	return &Registry{
		series:  make(map[string]*Series),
		hdr:     make(map[string]*hdrhistogram.Histogram),
		buckets: DefaultBuckets,
	}
}

// Observe folds a sample into its series.
func (r *Registry) Observe(sample emitter.Sample) {
	tags := append([]string(nil), sample.Tags...)
	sort.Strings(tags)
	key := string(sample.Type) + "|" + sample.Name + "|" + strings.Join(tags, ",")

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.series[key]
	if !ok {
		s = &Series{Name: sample.Name, Type: sample.Type, Tags: tags}
		if sample.Type == emitter.TypeHistogram {
			s.Histogram = &HistogramData{
				Min:     math.Inf(1),
				Max:     math.Inf(-1),
				Buckets: make(map[float64]uint64, len(r.buckets)),
			}
			for _, b := range r.buckets {
				s.Histogram.Buckets[b] = 0
			}
			r.hdr[key] = hdrhistogram.New(1, hdrHighest, 3)
		}
		r.series[key] = s
	}

	s.Timestamp = sample.Timestamp

	switch sample.Type {
	case emitter.TypeCount:
		s.Value += sample.Value
	case emitter.TypeGauge:
		s.Value = sample.Value
	case emitter.TypeCheck:
		s.Value = sample.Value
		s.Message = sample.Message
	case emitter.TypeHistogram:
		h := s.Histogram
		h.Count++
		h.Sum += sample.Value
		h.Min = math.Min(h.Min, sample.Value)
		h.Max = math.Max(h.Max, sample.Value)
		for _, b := range r.buckets {
			if sample.Value <= b {
				h.Buckets[b]++
			}
		}
		recordHDR(r.hdr[key], sample.Value)
		s.Value = sample.Value
	}
}

// Snapshot returns a copy of every series ordered by name, then type, then tags.
func (r *Registry) Snapshot() []Series {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Series, 0, len(r.series))
	for key, s := range r.series {
		c := *s
		c.Tags = append([]string(nil), s.Tags...)
		if s.Histogram != nil {
			h := *s.Histogram
			h.Buckets = make(map[float64]uint64, len(s.Histogram.Buckets))
			for b, n := range s.Histogram.Buckets {
				h.Buckets[b] = n
			}
			h.Quantiles = quantiles(r.hdr[key])
			c.Histogram = &h
		}
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return strings.Join(out[i].Tags, ",") < strings.Join(out[j].Tags, ",")
	})
	return out
}

// Len returns the number of series.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.series)
}

// recordHDR clamps v into the trackable range. Sub-millisecond values count as 1.
func recordHDR(h *hdrhistogram.Histogram, v float64) {
	n := int64(math.Round(v))
	n = max(n, h.LowestTrackableValue())
	n = min(n, h.HighestTrackableValue())
	_ = h.RecordValue(n)
}

func quantiles(h *hdrhistogram.Histogram) map[float64]float64 {
	out := make(map[float64]float64, len(Quantiles))
	if h.TotalCount() == 0 {
		return out
	}
	for _, q := range Quantiles {
		out[q] = float64(h.ValueAtQuantile(q * 100))
	}
	return out
}
