package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/metric"

	"github.com/itsneelabh/rovermind/core"
)

// FrameworkMetricsRegistry implements core.MetricsRegistry over the
// telemetry registry. Registering it with core lets the scheduler,
// watchdog, and dashboard emit metrics without importing this package.
type FrameworkMetricsRegistry struct {
	registry *Registry
}

// NewFrameworkMetricsRegistry creates the core bridge.
func NewFrameworkMetricsRegistry(registry *Registry) *FrameworkMetricsRegistry {
	return &FrameworkMetricsRegistry{registry: registry}
}

// Counter implements core.MetricsRegistry.
func (f *FrameworkMetricsRegistry) Counter(name string, labels ...string) {
	if c := f.registry.counter(name); c != nil {
		c.Add(context.Background(), 1, metric.WithAttributes(labelAttributes(labels)...))
	}
}

// EmitWithContext implements core.MetricsRegistry.
func (f *FrameworkMetricsRegistry) EmitWithContext(ctx context.Context, name string, value float64, labels ...string) {
	if c := f.registry.counter(name); c != nil {
		c.Add(ctx, value, metric.WithAttributes(labelAttributes(labels)...))
	}
}

// Gauge implements core.MetricsRegistry.
func (f *FrameworkMetricsRegistry) Gauge(name string, value float64, labels ...string) {
	if g := f.registry.gauge(name); g != nil {
		g.Record(context.Background(), value, metric.WithAttributes(labelAttributes(labels)...))
	}
}

// Histogram implements core.MetricsRegistry.
func (f *FrameworkMetricsRegistry) Histogram(name string, value float64, labels ...string) {
	if h := f.registry.histogram(name); h != nil {
		h.Record(context.Background(), value, metric.WithAttributes(labelAttributes(labels)...))
	}
}

// GetBaggage implements core.MetricsRegistry.
func (f *FrameworkMetricsRegistry) GetBaggage(ctx context.Context) map[string]string {
	return GetBaggage(ctx)
}

// EnableFrameworkIntegration registers the telemetry module with core so
// every framework component emits metrics through it.
func EnableFrameworkIntegration(registry *Registry) {
	core.SetMetricsRegistry(NewFrameworkMetricsRegistry(registry))
}
