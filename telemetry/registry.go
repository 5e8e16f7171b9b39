package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/itsneelabh/rovermind/core"
)

// Config configures telemetry initialization.
type Config struct {
	ServiceName  string
	Endpoint     string
	Stdout       bool
	SamplingRate float64
	Logger       core.Logger
}

// Registry manages the telemetry pipeline and caches metric instruments so
// hot-path emission never re-creates them.
type Registry struct {
	provider *OTelProvider
	logger   core.Logger

	mu         sync.Mutex
	counters   map[string]metric.Float64Counter
	gauges     map[string]metric.Float64Gauge
	histograms map[string]metric.Float64Histogram
}

var (
	registryMu     sync.RWMutex
	globalRegistry *Registry
)

// Initialize activates the telemetry system. Call it once from the robot
// program's main, after which framework components emit metrics through
// core.MetricsRegistry transparently. Calling it again replaces the
// pipeline, which only tests should do.
func Initialize(ctx context.Context, cfg Config) (*Registry, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = &core.NoOpLogger{}
	}
	if cal, ok := logger.(core.ComponentAwareLogger); ok {
		logger = cal.WithComponent("framework/telemetry")
	}

	provider, err := NewOTelProvider(ctx, ProviderOptions{
		ServiceName:  cfg.ServiceName,
		Endpoint:     cfg.Endpoint,
		Stdout:       cfg.Stdout,
		SamplingRate: cfg.SamplingRate,
	})
	if err != nil {
		logger.Error("Telemetry initialization failed", map[string]interface{}{
			"error":    err.Error(),
			"endpoint": cfg.Endpoint,
			"impact":   "framework metrics will be discarded",
		})
		return nil, err
	}

	r := newRegistry(provider, logger)

	registryMu.Lock()
	globalRegistry = r
	registryMu.Unlock()

	EnableFrameworkIntegration(r)

	logger.Info("Telemetry initialized", map[string]interface{}{
		"service_name": cfg.ServiceName,
		"endpoint":     cfg.Endpoint,
		"stdout":       cfg.Stdout,
	})
	return r, nil
}

func newRegistry(provider *OTelProvider, logger core.Logger) *Registry {
	return &Registry{
		provider:   provider,
		logger:     logger,
		counters:   make(map[string]metric.Float64Counter),
		gauges:     make(map[string]metric.Float64Gauge),
		histograms: make(map[string]metric.Float64Histogram),
	}
}

// Shutdown flushes and stops the telemetry pipeline.
func (r *Registry) Shutdown(ctx context.Context) error {
	return r.provider.Shutdown(ctx)
}

// Provider returns the underlying OTel provider, which implements
// core.Telemetry.
func (r *Registry) Provider() *OTelProvider {
	return r.provider
}

func (r *Registry) counter(name string) metric.Float64Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.counters[name]; ok {
		return c
	}
	c, err := r.provider.Meter().Float64Counter(name)
	if err != nil {
		r.logger.Error("Failed to create counter instrument", map[string]interface{}{
			"metric_name": name,
			"error":       err.Error(),
		})
		return nil
	}
	r.counters[name] = c
	return c
}

func (r *Registry) gauge(name string) metric.Float64Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.gauges[name]; ok {
		return g
	}
	g, err := r.provider.Meter().Float64Gauge(name)
	if err != nil {
		r.logger.Error("Failed to create gauge instrument", map[string]interface{}{
			"metric_name": name,
			"error":       err.Error(),
		})
		return nil
	}
	r.gauges[name] = g
	return g
}

func (r *Registry) histogram(name string) metric.Float64Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.histograms[name]; ok {
		return h
	}
	h, err := r.provider.Meter().Float64Histogram(name)
	if err != nil {
		r.logger.Error("Failed to create histogram instrument", map[string]interface{}{
			"metric_name": name,
			"error":       err.Error(),
		})
		return nil
	}
	r.histograms[name] = h
	return h
}

// labelAttributes converts alternating key/value labels into otel
// attributes, dropping a trailing odd key.
func labelAttributes(labels []string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(labels)/2)
	for i := 0; i+1 < len(labels); i += 2 {
		attrs = append(attrs, attribute.String(labels[i], labels[i+1]))
	}
	return attrs
}

// Emit records a counter increment on the global registry. A no-op before
// Initialize.
func Emit(name string, value float64, labels ...string) {
	EmitWithContext(context.Background(), name, value, labels...)
}

// EmitWithContext records a counter increment with trace correlation.
func EmitWithContext(ctx context.Context, name string, value float64, labels ...string) {
	registryMu.RLock()
	r := globalRegistry
	registryMu.RUnlock()
	if r == nil {
		return
	}
	if c := r.counter(name); c != nil {
		c.Add(ctx, value, metric.WithAttributes(labelAttributes(labels)...))
	}
}

// GetBaggage extracts trace correlation identifiers from the context.
func GetBaggage(ctx context.Context) map[string]string {
	baggage := make(map[string]string)
	if ctx == nil {
		return baggage
	}
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		baggage["trace_id"] = spanCtx.TraceID().String()
		baggage["span_id"] = spanCtx.SpanID().String()
	}
	return baggage
}
