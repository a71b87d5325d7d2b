package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Provider wraps an OpenTelemetry tracer provider with lifecycle hooks.
type Provider struct {
	provider *sdktrace.TracerProvider
}

// NewStdoutProvider creates a tracer provider that writes spans to stdout.
// Intended for development and the demo daemon; production deployments
// plug in their own trace.Tracer via pool.Config.
func NewStdoutProvider() (*Provider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	return &Provider{provider: tp}, nil
}

// Tracer returns a tracer for task execution spans.
func (p *Provider) Tracer() trace.Tracer {
	return p.provider.Tracer("github.com/taskmeshio/taskmesh")
}

// Shutdown flushes buffered spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.provider.Shutdown(ctx)
}
