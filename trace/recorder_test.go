package trace_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/m-mizutani/alfred/trace"
	"github.com/m-mizutani/gt"
)

func TestRecorderContextPropagation(t *testing.T) {
	rec := trace.NewRecorder()
	ctx := context.Background()

	gt.Value(t, trace.HandlerFrom(ctx)).Nil()

	ctx = trace.WithHandler(ctx, rec)
	gt.Value(t, trace.HandlerFrom(ctx)).NotNil()
	gt.Equal[trace.Handler](t, trace.HandlerFrom(ctx), rec)
}

func TestRecorderToolExec(t *testing.T) {
	rec := trace.NewRecorder()
	ctx := context.Background()

	toolCtx := rec.StartToolExec(ctx, "weather_info", map[string]any{"location": "Paris"})
	span := trace.CurrentSpanFrom(toolCtx)
	gt.Value(t, span).NotNil()
	gt.Equal(t, span.Kind, trace.SpanKindToolExec)
	gt.Equal(t, span.Name, "weather_info")

	rec.EndToolExec(toolCtx, "Weather in Paris: sunny", nil)

	spans := rec.Spans()
	gt.A(t, spans).Length(1)
	gt.Equal(t, spans[0].Status, trace.SpanStatusOK)
	gt.Equal(t, spans[0].ToolExec.Result, "Weather in Paris: sunny")
	gt.Equal(t, spans[0].ToolExec.Args["location"], any("Paris"))
}

func TestRecorderToolExecWithError(t *testing.T) {
	rec := trace.NewRecorder()
	ctx := context.Background()

	toolCtx := rec.StartToolExec(ctx, "unknown", nil)
	rec.EndToolExec(toolCtx, "Error: tool not found", errors.New("tool not found"))

	span := trace.CurrentSpanFrom(toolCtx)
	gt.Equal(t, span.Status, trace.SpanStatusError)
	gt.Equal(t, span.Error, "tool not found")
	gt.Equal(t, span.ToolExec.Error, "tool not found")
}

func TestRecorderNestedSpans(t *testing.T) {
	rec := trace.NewRecorder()
	ctx := context.Background()

	llmCtx := rec.StartLLMCall(ctx)
	rec.AddEvent(llmCtx, "planning", &trace.PlanningData{Step: 0, Plan: "look up guest"})
	rec.EndLLMCall(llmCtx, &trace.LLMCallData{Model: "test", InputTokens: 10, OutputTokens: 5}, nil)

	spans := rec.Spans()
	gt.A(t, spans).Length(1)
	gt.Equal(t, spans[0].Kind, trace.SpanKindLLMCall)
	gt.Equal(t, spans[0].LLMCall.InputTokens, 10)
	gt.A(t, spans[0].Children).Length(1)
	gt.Equal(t, spans[0].Children[0].ParentID, spans[0].SpanID)

	events := rec.SpansOf(trace.SpanKindEvent)
	gt.A(t, events).Length(1)
	gt.Equal(t, events[0].Event.Kind, "planning")
}

func TestRecorderEndWithMismatchedKind(t *testing.T) {
	rec := trace.NewRecorder()
	ctx := context.Background()

	llmCtx := rec.StartLLMCall(ctx)
	// Ending a tool span on an llm_call context is ignored
	rec.EndToolExec(llmCtx, "ignored", errors.New("ignored"))

	span := trace.CurrentSpanFrom(llmCtx)
	gt.Equal(t, span.Status, trace.SpanStatusOK)
	gt.B(t, span.EndedAt.IsZero()).True()
}

func TestRecorderConcurrentToolExec(t *testing.T) {
	rec := trace.NewRecorder()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			toolCtx := rec.StartToolExec(ctx, "hub_stats", nil)
			rec.EndToolExec(toolCtx, "ok", nil)
		}()
	}
	wg.Wait()

	gt.A(t, rec.Spans()).Length(10)
}
