// Package trace defines the lifecycle events emitted while the agent runs
// and the Handler interface that receives them.
package trace

import "context"

// Handler is the interface for trace backends.
// Implementations receive lifecycle events during agent execution
// and can record, export, or forward them as needed.
type Handler interface {
	// StartLLMCall starts an LLM call span.
	StartLLMCall(ctx context.Context) context.Context
	// EndLLMCall ends an LLM call span with the given data.
	EndLLMCall(ctx context.Context, data *LLMCallData, err error)

	// StartToolExec starts a tool execution span.
	StartToolExec(ctx context.Context, toolName string, args map[string]any) context.Context
	// EndToolExec ends a tool execution span with the text result.
	// err is set only when the call could not reach the tool (unknown name, invalid arguments).
	EndToolExec(ctx context.Context, result string, err error)

	// AddEvent adds an event to the current span.
	AddEvent(ctx context.Context, kind string, data any)
}

type handlerKey struct{}

// WithHandler stores the Handler in the context.
func WithHandler(ctx context.Context, h Handler) context.Context {
	return context.WithValue(ctx, handlerKey{}, h)
}

// HandlerFrom retrieves the Handler from the context. Returns nil if not set.
func HandlerFrom(ctx context.Context) Handler {
	h, _ := ctx.Value(handlerKey{}).(Handler)
	return h
}
