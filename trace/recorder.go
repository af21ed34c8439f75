package trace

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Recorder collects spans in memory. Spans started without a parent span in
// the context are recorded as top-level spans in start order.
type Recorder struct {
	mu    sync.Mutex
	spans []*Span
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

type currentSpanKey struct{}

func withCurrentSpan(ctx context.Context, span *Span) context.Context {
	return context.WithValue(ctx, currentSpanKey{}, span)
}

func currentSpanFrom(ctx context.Context) *Span {
	s, _ := ctx.Value(currentSpanKey{}).(*Span)
	return s
}

// Spans returns the recorded top-level spans.
func (r *Recorder) Spans() []*Span {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Span(nil), r.spans...)
}

// SpansOf returns all recorded spans of the given kind, depth first.
func (r *Recorder) SpansOf(kind SpanKind) []*Span {
	r.mu.Lock()
	defer r.mu.Unlock()

	var found []*Span
	var walk func(spans []*Span)
	walk = func(spans []*Span) {
		for _, s := range spans {
			if s.Kind == kind {
				found = append(found, s)
			}
			walk(s.Children)
		}
	}
	walk(r.spans)
	return found
}

// StartLLMCall starts an llm_call span.
func (r *Recorder) StartLLMCall(ctx context.Context) context.Context {
	span := r.attach(ctx, &Span{Kind: SpanKindLLMCall, Name: "llm_call"})
	return withCurrentSpan(ctx, span)
}

// EndLLMCall ends the llm_call span with the given data.
func (r *Recorder) EndLLMCall(ctx context.Context, data *LLMCallData, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	span := currentSpanFrom(ctx)
	if span == nil || span.Kind != SpanKindLLMCall {
		return
	}
	span.LLMCall = data
	finish(span, err)
}

// StartToolExec starts a tool_exec span.
func (r *Recorder) StartToolExec(ctx context.Context, toolName string, args map[string]any) context.Context {
	span := r.attach(ctx, &Span{
		Kind: SpanKindToolExec,
		Name: toolName,
		ToolExec: &ToolExecData{
			ToolName: toolName,
			Args:     args,
		},
	})
	return withCurrentSpan(ctx, span)
}

// EndToolExec ends the tool_exec span with the result.
func (r *Recorder) EndToolExec(ctx context.Context, result string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	span := currentSpanFrom(ctx)
	if span == nil || span.Kind != SpanKindToolExec {
		return
	}

	span.ToolExec.Result = result
	if err != nil {
		span.ToolExec.Error = err.Error()
	}
	finish(span, err)
}

// AddEvent adds a zero-length event span.
func (r *Recorder) AddEvent(ctx context.Context, kind string, data any) {
	span := r.attach(ctx, &Span{
		Kind:  SpanKindEvent,
		Name:  kind,
		Event: &EventData{Kind: kind, Data: data},
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	finish(span, nil)
}

func (r *Recorder) attach(ctx context.Context, span *Span) *Span {
	r.mu.Lock()
	defer r.mu.Unlock()

	span.SpanID = uuid.New().String()
	span.StartedAt = time.Now()
	span.Status = SpanStatusOK

	if parent := currentSpanFrom(ctx); parent != nil {
		span.ParentID = parent.SpanID
		parent.Children = append(parent.Children, span)
	} else {
		r.spans = append(r.spans, span)
	}
	return span
}

func finish(span *Span, err error) {
	span.EndedAt = time.Now()
	span.Duration = span.EndedAt.Sub(span.StartedAt)
	if err != nil {
		span.Status = SpanStatusError
		span.Error = err.Error()
	}
}
