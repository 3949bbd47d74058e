package monitor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

// registerGauges wires libetude.cpu.percent and libetude.memory.bytes as
// async gauges that read from Monitor's latest snapshot on every collect,
// so the OTel SDK's own collection cadence drives export independently
// of the sampler's interval.
func (m *Monitor) registerGauges(meter metric.Meter) {
	cpuGauge, err := meter.Float64ObservableGauge(
		"libetude.cpu.percent",
		metric.WithDescription("Host CPU utilization sampled by the resource monitor"),
		metric.WithFloat64Callback(func(_ context.Context, o metric.Float64Observer) error {
			o.Observe(m.Latest().CPUPercent)
			return nil
		}),
	)
	if err == nil {
		m.cpuGauge = cpuGauge
	}

	memGauge, err := meter.Int64ObservableGauge(
		"libetude.memory.bytes",
		metric.WithDescription("Process memory usage sampled by the resource monitor"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(m.Latest().MemoryBytes))
			return nil
		}),
	)
	if err == nil {
		m.memGauge = memGauge
	}
}
