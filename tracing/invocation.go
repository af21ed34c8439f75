package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/codes"
	otelTrace "go.opentelemetry.io/otel/trace"
)

// SpanName is the name of the span recorded for each top-level invocation.
const SpanName = "user_request"

// Invocation runs a function inside a request span when tracing is enabled.
type Invocation[T any] struct {
	state *State
}

// Instrument returns an Invocation bound to st. A nil or disabled st makes
// Invoke a plain call.
func Instrument[T any](st *State) *Invocation[T] {
	return &Invocation[T]{state: st}
}

// Invoke calls inner and returns its result and error unchanged. When tracing
// is enabled, the call runs inside a "user_request" span that is ended on
// every exit path. An error is recorded on the span and the span status is
// set to Error with the error message. A panic is recorded the same way and
// then re-raised with the original value.
func (x *Invocation[T]) Invoke(ctx context.Context, inner func(ctx context.Context) (T, error)) (result T, err error) {
	tracer := x.state.Tracer()
	if tracer == nil {
		return inner(ctx)
	}

	ctx, span := tracer.Start(ctx, SpanName, otelTrace.WithSpanKind(otelTrace.SpanKindServer))
	defer span.End()

	x.logTraceID(ctx)

	defer func() {
		if r := recover(); r != nil {
			perr := fmt.Errorf("panic: %v", r)
			span.RecordError(perr)
			span.SetStatus(codes.Error, perr.Error())
			panic(r)
		}
	}()

	result, err = inner(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return result, err
	}

	span.SetStatus(codes.Ok, "")
	return result, nil
}

func (x *Invocation[T]) logTraceID(ctx context.Context) {
	sc := otelTrace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		x.state.logger.Debug("could not get current trace ID")
		return
	}
	x.state.logger.Debug("started trace", "trace_id", sc.TraceID().String())
}

// Wrap returns a function equivalent to fn. If st is disabled when Wrap is
// called, fn itself is returned. Otherwise each call runs through
// Instrument[T](st).Invoke. Initialize must finish before Wrap is called.
func Wrap[A, T any](st *State, fn func(ctx context.Context, arg A) (T, error)) func(ctx context.Context, arg A) (T, error) {
	if !st.Enabled() {
		return fn
	}

	inv := Instrument[T](st)
	return func(ctx context.Context, arg A) (T, error) {
		return inv.Invoke(ctx, func(ctx context.Context) (T, error) {
			return fn(ctx, arg)
		})
	}
}
