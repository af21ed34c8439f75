package trace

import (
	"context"
)

// multiHandler fans out trace events to multiple Handler implementations.
// Each handler receives its own isolated context so that span state kept
// in the context by one handler never leaks into another.
type multiHandler struct {
	handlers []Handler
}

// Multi creates a Handler that forwards all events to the given handlers.
// Nil handlers are skipped. With a single handler, that handler is returned as is.
func Multi(handlers ...Handler) Handler {
	var active []Handler
	for _, h := range handlers {
		if h != nil {
			active = append(active, h)
		}
	}
	if len(active) == 1 {
		return active[0]
	}
	return &multiHandler{handlers: active}
}

// multiCtxKey is the context key for per-handler contexts.
type multiCtxKey struct{}

// getContexts retrieves per-handler contexts from the context.
// If not found, returns the base context for each handler.
func (m *multiHandler) getContexts(ctx context.Context) []context.Context {
	if v, ok := ctx.Value(multiCtxKey{}).([]context.Context); ok && len(v) == len(m.handlers) {
		return v
	}
	ctxs := make([]context.Context, len(m.handlers))
	for i := range ctxs {
		ctxs[i] = ctx
	}
	return ctxs
}

// wrapContexts stores per-handler contexts into a new context.
func (m *multiHandler) wrapContexts(base context.Context, handlerCtxs []context.Context) context.Context {
	return context.WithValue(base, multiCtxKey{}, handlerCtxs)
}

func (m *multiHandler) StartLLMCall(ctx context.Context) context.Context {
	parentCtxs := m.getContexts(ctx)
	handlerCtxs := make([]context.Context, len(m.handlers))
	for i, h := range m.handlers {
		handlerCtxs[i] = h.StartLLMCall(parentCtxs[i])
	}
	return m.wrapContexts(ctx, handlerCtxs)
}

func (m *multiHandler) EndLLMCall(ctx context.Context, data *LLMCallData, err error) {
	ctxs := m.getContexts(ctx)
	for i, h := range m.handlers {
		h.EndLLMCall(ctxs[i], data, err)
	}
}

func (m *multiHandler) StartToolExec(ctx context.Context, toolName string, args map[string]any) context.Context {
	parentCtxs := m.getContexts(ctx)
	handlerCtxs := make([]context.Context, len(m.handlers))
	for i, h := range m.handlers {
		handlerCtxs[i] = h.StartToolExec(parentCtxs[i], toolName, args)
	}
	return m.wrapContexts(ctx, handlerCtxs)
}

func (m *multiHandler) EndToolExec(ctx context.Context, result string, err error) {
	ctxs := m.getContexts(ctx)
	for i, h := range m.handlers {
		h.EndToolExec(ctxs[i], result, err)
	}
}

func (m *multiHandler) AddEvent(ctx context.Context, kind string, data any) {
	ctxs := m.getContexts(ctx)
	for i, h := range m.handlers {
		h.AddEvent(ctxs[i], kind, data)
	}
}
