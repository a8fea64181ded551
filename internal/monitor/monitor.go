package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/neox5/doglessdata/emitter"
	"github.com/shirou/gopsutil/v4/process"
)

// Gauge names recorded for the collector process itself.
const (
	GaugeCPUPercent = "doglessdata.collector.cpu_percent"
	GaugeHeapBytes  = "doglessdata.collector.heap_alloc_bytes"
	GaugeGoroutines = "doglessdata.collector.goroutines"
	GaugeGCCount    = "doglessdata.collector.gc_count"
)

// Saturation levels by CPU utilization across GOMAXPROCS cores.
const (
	SaturationNormal    = "normal"
	SaturationHigh      = "high"
	SaturationSaturated = "saturated"
)

// Recorder receives the monitor's readings as gauge samples.
type Recorder func(emitter.Sample)

// Reading is one resource sample of the current process.
type Reading struct {
	CPUPercent  float64
	Cores       int
	Goroutines  int
	HeapAlloc   uint64
	HeapSys     uint64
	StackInuse  uint64
	NumGC       uint32
	GCCPU       float64
	Utilization float64
}

// Saturation classifies the CPU utilization.
func (r Reading) Saturation() string {
	switch {
	case r.Utilization > 0.95:
		return SaturationSaturated
	case r.Utilization > 0.80:
		return SaturationHigh
	default:
		return SaturationNormal
	}
}

// Monitor periodically samples the process and feeds gauges to a Recorder.
type Monitor struct {
	interval time.Duration
	logger   *slog.Logger
	record   Recorder
	wg       sync.WaitGroup
	proc     *process.Process
}

// New creates a monitor. record may be nil to only log.
func New(interval time.Duration, logger *slog.Logger, record Recorder) (*Monitor, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("failed to get process handle: %w", err)
	}

	return &Monitor{
		interval: interval,
		logger:   logger,
		record:   record,
		proc:     proc,
	}, nil
}

// Run starts the sampling loop in a background goroutine and returns.
// The loop exits when ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	m.wg.Go(func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		m.collect()

		for {
			select {
			case <-ctx.Done():
				m.logger.Info("monitor shutdown complete")
				return
			case <-ticker.C:
				m.collect()
			}
		}
	})
}

// Wait blocks until the monitor goroutine exits.
func (m *Monitor) Wait() {
	m.wg.Wait()
}

// Read samples the process once.
func (m *Monitor) Read() Reading {
	cpu, err := m.proc.CPUPercent()
	if err != nil {
		m.logger.Warn("failed to get CPU percent", "error", err)
		cpu = 0
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	r := Reading{
		CPUPercent: cpu,
		Cores:      runtime.GOMAXPROCS(-1),
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  ms.HeapAlloc,
		HeapSys:    ms.HeapSys,
		StackInuse: ms.StackInuse,
		NumGC:      ms.NumGC,
		GCCPU:      ms.GCCPUFraction,
	}
	if maxCPU := float64(r.Cores * 100); maxCPU > 0 {
		r.Utilization = cpu / maxCPU
	}
	return r
}

func (m *Monitor) collect() {
	r := m.Read()

	m.logger.LogAttrs(
		context.Background(),
		slog.LevelDebug,
		"resource",
		slog.String("cpu", fmt.Sprintf("%.4f%%", r.CPUPercent)),
		slog.String("util", fmt.Sprintf("%.4f%%", r.Utilization*100)),
		slog.Int("cores", r.Cores),
		slog.Int("gor", r.Goroutines),
		slog.String("mem", fmt.Sprintf("alloc:%.2fMB sys:%.2fMB stack:%.0fKB",
			float64(r.HeapAlloc)/(1<<20), float64(r.HeapSys)/(1<<20), float64(r.StackInuse)/(1<<10))),
		slog.Uint64("gc", uint64(r.NumGC)),
		slog.String("gc_cpu", fmt.Sprintf("%.3f", r.GCCPU)),
		slog.String("sat", r.Saturation()),
	)

	if r.Saturation() == SaturationSaturated {
		m.logger.Warn("cpu saturation detected",
			"cpu", r.CPUPercent,
			"util_pct", r.Utilization*100,
			"action", "reduce input rate or increase GOMAXPROCS",
		)
	}

	m.Record(r)
}

// Record hands a reading to the recorder as gauge samples.
func (m *Monitor) Record(r Reading) {
	if m.record == nil {
		return
	}

	now := time.Now().Unix()
	for _, g := range []struct {
		name  string
		value float64
	}{
		{GaugeCPUPercent, r.CPUPercent},
		{GaugeHeapBytes, float64(r.HeapAlloc)},
		{GaugeGoroutines, float64(r.Goroutines)},
		{GaugeGCCount, float64(r.NumGC)},
	} {
		m.record(emitter.Sample{
			Timestamp: now,
			Value:     g.value,
			Type:      emitter.TypeGauge,
			Name:      g.name,
			Tags:      []string{"collector"},
		})
	}
}
