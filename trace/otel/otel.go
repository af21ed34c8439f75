// Package otel provides an OpenTelemetry trace handler for alfred.
//
// It bridges alfred's trace events to OpenTelemetry spans, so that every
// LLM call and tool invocation made by the agent shows up as a child of the
// active request span.
//
// Basic usage with global TracerProvider:
//
//	agent := alfred.New(client, alfred.WithTrace(otel.New()))
//
// With explicit TracerProvider:
//
//	agent := alfred.New(client, alfred.WithTrace(
//	    otel.New(otel.WithTracerProvider(tp)),
//	))
package otel

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/m-mizutani/alfred/trace"
	otelAPI "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	otelTrace "go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/m-mizutani/alfred"
)

// Option is a functional option for configuring the OTel handler.
type Option func(*handler)

// WithTracerProvider sets an explicit TracerProvider.
// If not set, the global TracerProvider is used.
func WithTracerProvider(tp otelTrace.TracerProvider) Option {
	return func(h *handler) {
		h.tracerProvider = tp
	}
}

// handler implements trace.Handler by bridging events to OpenTelemetry spans.
type handler struct {
	tracerProvider otelTrace.TracerProvider
	tracer         otelTrace.Tracer
}

// New creates a new OTel trace handler.
// If no TracerProvider is specified via options, the global TracerProvider is used.
func New(opts ...Option) trace.Handler {
	h := &handler{}
	for _, opt := range opts {
		opt(h)
	}

	if h.tracerProvider == nil {
		h.tracerProvider = otelAPI.GetTracerProvider()
	}
	h.tracer = h.tracerProvider.Tracer(tracerName)

	return h
}

func (h *handler) StartLLMCall(ctx context.Context) context.Context {
	ctx, _ = h.tracer.Start(ctx, "llm_call",
		otelTrace.WithSpanKind(otelTrace.SpanKindClient),
	)
	return ctx
}

func (h *handler) EndLLMCall(ctx context.Context, data *trace.LLMCallData, err error) {
	span := otelTrace.SpanFromContext(ctx)
	if data != nil {
		span.SetAttributes(
			llmModelAttr(data.Model),
			llmInputTokensAttr(data.InputTokens),
			llmOutputTokensAttr(data.OutputTokens),
		)
		if data.Response != nil {
			span.SetAttributes(llmFunctionCallsAttr(len(data.Response.FunctionCalls)))
		}
	}
	endSpan(span, err)
}

func (h *handler) StartToolExec(ctx context.Context, toolName string, args map[string]any) context.Context {
	ctx, span := h.tracer.Start(ctx, fmt.Sprintf("tool:%s", toolName),
		otelTrace.WithSpanKind(otelTrace.SpanKindInternal),
	)
	span.SetAttributes(toolNameAttr(toolName))
	if args != nil {
		if b, err := json.Marshal(args); err == nil {
			span.SetAttributes(toolArgsAttr(string(b)))
		}
	}
	return ctx
}

func (h *handler) EndToolExec(ctx context.Context, result string, err error) {
	span := otelTrace.SpanFromContext(ctx)
	span.SetAttributes(toolResultAttr(result))
	endSpan(span, err)
}

func (h *handler) AddEvent(ctx context.Context, kind string, data any) {
	span := otelTrace.SpanFromContext(ctx)
	if data != nil {
		if b, err := json.Marshal(data); err == nil {
			span.AddEvent(kind, otelTrace.WithAttributes(eventDataAttr(string(b))))
			return
		}
	}
	span.AddEvent(kind)
}

func endSpan(span otelTrace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
