// Package observability wires OpenTelemetry tracing and a Prometheus-backed
// meter for the chat pipeline.
package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Config controls what gets set up.
type Config struct {
	ServiceName string
	// TraceStdout enables the debug stdout span exporter. Off in production.
	TraceStdout bool
	// Registry receives the OTel-bridged metrics; nil uses the default
	// Prometheus registry.
	Registry *prometheus.Registry
}

// Provider bundles the initialized telemetry handles.
type Provider struct {
	Tracer  trace.Tracer
	Meter   metric.Meter
	Metrics *Metrics

	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider
}

// Metrics are the domain instruments recorded by the chat pipeline.
type Metrics struct {
	ChatTurns         metric.Int64Counter
	RateLimitedTotal  metric.Int64Counter
	FilteredTotal     metric.Int64Counter
	GenerationSeconds metric.Float64Histogram
	AdherenceScore    metric.Float64Histogram
}

// Setup initializes tracing and metrics and installs the global providers.
func Setup(_ context.Context, cfg Config) (*Provider, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "persona-chat"
	}

	res, err := resource.Merge(resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName)))
	if err != nil {
		return nil, fmt.Errorf("build resource: %w", err)
	}

	var traceOpts []sdktrace.TracerProviderOption
	traceOpts = append(traceOpts, sdktrace.WithResource(res))
	if cfg.TraceStdout {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("stdout trace exporter: %w", err)
		}
		traceOpts = append(traceOpts, sdktrace.WithBatcher(exporter))
	}
	tp := sdktrace.NewTracerProvider(traceOpts...)
	otel.SetTracerProvider(tp)

	var promOpts []otelprom.Option
	if cfg.Registry != nil {
		promOpts = append(promOpts, otelprom.WithRegisterer(cfg.Registry))
	}
	promExporter, err := otelprom.New(promOpts...)
	if err != nil {
		return nil, fmt.Errorf("prometheus exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(promExporter),
	)
	otel.SetMeterProvider(mp)

	meter := mp.Meter(cfg.ServiceName)
	metrics, err := newMetrics(meter)
	if err != nil {
		return nil, err
	}

	return &Provider{
		Tracer:  tp.Tracer(cfg.ServiceName),
		Meter:   meter,
		Metrics: metrics,
		tp:      tp,
		mp:      mp,
	}, nil
}

// Shutdown flushes and stops both providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	var firstErr error
	if err := p.tp.Shutdown(ctx); err != nil {
		firstErr = err
	}
	if err := p.mp.Shutdown(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.ChatTurns, err = meter.Int64Counter("chat_turns_total",
		metric.WithDescription("Completed chat turns")); err != nil {
		return nil, err
	}
	if m.RateLimitedTotal, err = meter.Int64Counter("chat_rate_limited_total",
		metric.WithDescription("Chat requests denied by the per-client quota")); err != nil {
		return nil, err
	}
	if m.FilteredTotal, err = meter.Int64Counter("content_filtered_total",
		metric.WithDescription("Messages rewritten by the content filter")); err != nil {
		return nil, err
	}
	if m.GenerationSeconds, err = meter.Float64Histogram("generation_duration_seconds",
		metric.WithDescription("Reply generation latency")); err != nil {
		return nil, err
	}
	if m.AdherenceScore, err = meter.Float64Histogram("persona_adherence_score",
		metric.WithDescription("Style adherence score per generated reply")); err != nil {
		return nil, err
	}
	return m, nil
}
