package generator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/neox5/doglessdata/emitter"
	"github.com/neox5/doglessdata/internal/config"
	simclock "github.com/neox5/simv/clock"
	"github.com/neox5/simv/source"
	"github.com/neox5/simv/transform"
	"github.com/neox5/simv/value"
)

// Generator samples simv values on an interval and emits them as metric lines.
type Generator struct {
	interval time.Duration
	simClock simclock.Clock
	clock    clock.Clock
	emitter  *emitter.Emitter
	logger   *slog.Logger
	metrics  []generated
}

// generated is one configured metric bound to its own value.
type generated struct {
	name  string
	typ   config.GeneratedMetricType
	tags  []string
	value value.Value[int]
}

// New creates a generator from configuration. clk drives the emission ticker
// and defaults to the wall clock when nil.
func New(cfg config.GeneratorConfig, em *emitter.Emitter, clk clock.Clock, logger *slog.Logger) (*Generator, error) {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = slog.Default()
	}

	simClk := simclock.NewPeriodicClock(cfg.Interval)

	sources := make(map[string]source.Publisher[int], len(cfg.Sources))
	for name, srcCfg := range cfg.Sources {
		switch srcCfg.Type {
		case config.SourceTypeRandomInt:
			sources[name] = source.NewRandomIntSource(simClk, srcCfg.Min, srcCfg.Max)
		default:
			return nil, fmt.Errorf("unknown source type: %s", srcCfg.Type)
		}
	}

	metrics := make([]generated, 0, len(cfg.Metrics))
	for _, m := range cfg.Metrics {
		src, ok := sources[m.Source]
		if !ok {
			return nil, fmt.Errorf("source %q not found for metric %q", m.Source, m.Name)
		}

		val, err := newValue(src, cfg.Sources[m.Source])
		if err != nil {
			return nil, fmt.Errorf("metric %q: %w", m.Name, err)
		}

		metrics = append(metrics, generated{
			name:  m.Name,
			typ:   m.Type,
			tags:  m.Tags,
			value: val,
		})
	}

	return &Generator{
		interval: cfg.Interval,
		simClock: simClk,
		clock:    clk,
		emitter:  em,
		logger:   logger,
		metrics:  metrics,
	}, nil
}

// newValue builds a value over src with the source's transforms and wrapping.
func newValue(src source.Publisher[int], cfg config.SourceConfig) (value.Value[int], error) {
	var transforms []transform.Transformation[int]
	for _, tfName := range cfg.Transforms {
		switch tfName {
		case config.TransformAccumulate:
			transforms = append(transforms, transform.NewAccumulate[int]())
		default:
			return nil, fmt.Errorf("unknown transform: %s", tfName)
		}
	}

	var val value.Value[int] = value.New(src, transforms...)
	if cfg.ResetOnRead {
		val = value.NewResetOnRead(val.Clone(), cfg.ResetValue)
	}
	return val, nil
}

// Run starts the sources and emits every configured metric once per interval
// until ctx is cancelled.
func (g *Generator) Run(ctx context.Context) error {
	g.simClock.Start()
	defer g.simClock.Stop()

	ticker := g.clock.Ticker(g.interval)
	defer ticker.Stop()

	g.logger.Info("generator started", "interval", g.interval, "metrics", len(g.metrics))

	for {
		select {
		case <-ctx.Done():
			g.logger.Info("generator stopped")
			return nil
		case <-ticker.C:
			g.Tick()
		}
	}
}

// Tick reads each value and emits one line per metric.
func (g *Generator) Tick() {
	for _, m := range g.metrics {
		v := m.value.Value()

		switch m.typ {
		case config.GeneratedCount:
			g.emitter.Count(m.name, int64(v), m.tags...)
		case config.GeneratedGauge:
			g.emitter.Gauge(m.name, float64(v), m.tags...)
		case config.GeneratedHistogram:
			g.emitter.Histogram(m.name, float64(v), m.tags...)
		case config.GeneratedTiming:
			g.emitter.Timing(m.name, time.Duration(v)*time.Millisecond, m.tags...)
		}
	}
}

// Len reports the number of metrics emitted per tick.
func (g *Generator) Len() int {
	return len(g.metrics)
}
