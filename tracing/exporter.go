package tracing

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ExporterFactory builds the span exporter used by State.Initialize.
// Returning an error wrapping ErrDependencyUnavailable degrades tracing with a warning.
type ExporterFactory func(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error)

// NewOTLPExporter builds an OTLP/HTTP exporter that sends spans to cfg's
// endpoint with Basic authentication.
func NewOTLPExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(cfg.TracesURL()),
		otlptracehttp.WithHeaders(map[string]string{
			"Authorization": cfg.AuthHeader(),
		}),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create OTLP trace exporter", goerr.V("endpoint", cfg.TracesURL()))
	}
	return exporter, nil
}
