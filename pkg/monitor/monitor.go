// Package monitor runs an optional background goroutine that samples
// host CPU usage and this process's memory footprint and publishes the result through a
// double-buffered atomic snapshot. It deliberately does not invoke
// callbacks with any lock held (Design Notes: resource-monitoring
// callback), and it only ever reads host state — it never writes to
// sysfs or any other control surface, so a quality-mode or
// thermal-policy decision based on its samples stays the caller's
// responsibility.
package monitor

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/metric"

	rt "github.com/crlotwhite/libetude-sub008/pkg/runtime"
)

// ResourceSample is one measurement taken by the monitor goroutine.
type ResourceSample struct {
	Timestamp    time.Time
	CPUPercent   float64
	MemoryBytes  uint64
	ThermalState ThermalState
}

// ThermalState is a coarse, best-effort classification; this runtime has
// no platform-specific thermal sensor access, so it always reports
// ThermalUnknown.
type ThermalState uint8

const (
	ThermalUnknown ThermalState = iota
	ThermalNominal
	ThermalThrottled
)

// Monitor owns the sampling goroutine, its latest snapshot, and an
// optional callback/meter pair.
type Monitor struct {
	interval time.Duration
	runtime  *rt.Runtime

	latest atomic.Pointer[ResourceSample]

	mu       sync.Mutex
	callback func(ResourceSample)

	cpuGauge metric.Float64ObservableGauge
	memGauge metric.Int64ObservableGauge

	wg   sync.WaitGroup
	stop context.CancelFunc

	prevSample procStatSample
	havePrev   bool
}

// Start builds a Monitor and launches its sampling goroutine, sampling
// every interval until ctx is cancelled or Stop is called. interval <= 0
// falls back to one second.
func Start(ctx context.Context, engine *rt.Runtime, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = time.Second
	}
	ctx, cancel := context.WithCancel(ctx)
	m := &Monitor{interval: interval, runtime: engine, stop: cancel}

	if meter := engine.Meter(); meter != nil {
		m.registerGauges(meter)
	}

	m.wg.Add(1)
	go m.run(ctx)
	return m
}

// OnSample registers fn to be invoked, outside any lock, after every
// sample. Only one callback is kept; a later call replaces the former.
func (m *Monitor) OnSample(fn func(ResourceSample)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callback = fn
}

// Latest returns the most recently published sample, or the zero value
// if Start has not yet produced one.
func (m *Monitor) Latest() ResourceSample {
	if s := m.latest.Load(); s != nil {
		return *s
	}
	return ResourceSample{}
}

// Stop cancels the sampling goroutine and waits for it to exit.
func (m *Monitor) Stop() {
	m.stop()
	m.wg.Wait()
}

func (m *Monitor) run(ctx context.Context) {
	defer m.wg.Done()
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.sampleOnce()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sampleOnce()
		}
	}
}

func (m *Monitor) sampleOnce() {
	sample := ResourceSample{
		Timestamp:    timeNow(),
		CPUPercent:   m.sampleCPUPercent(),
		MemoryBytes:  sampleMemoryBytes(),
		ThermalState: ThermalUnknown,
	}
	m.latest.Store(&sample)

	m.mu.Lock()
	cb := m.callback
	m.mu.Unlock()
	if cb != nil {
		cb(sample)
	}
}

func timeNow() time.Time { return time.Now() }

func sampleMemoryBytes() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.Sys
}
