package trace

import (
	"time"
)

// SpanKind represents the type of a span.
type SpanKind string

const (
	SpanKindLLMCall  SpanKind = "llm_call"
	SpanKindToolExec SpanKind = "tool_exec"
	SpanKindEvent    SpanKind = "event"
)

// SpanStatus represents the status of a span.
type SpanStatus string

const (
	SpanStatusOK    SpanStatus = "ok"
	SpanStatusError SpanStatus = "error"
)

// Span represents a single unit of operation recorded by a Recorder.
type Span struct {
	SpanID    string        `json:"span_id"`
	ParentID  string        `json:"parent_id,omitempty"`
	Kind      SpanKind      `json:"kind"`
	Name      string        `json:"name"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at"`
	Duration  time.Duration `json:"duration"`
	Status    SpanStatus    `json:"status"`
	Error     string        `json:"error,omitempty"`
	Children  []*Span       `json:"children,omitempty"`

	// Kind-specific data (only one is non-nil based on Kind)
	LLMCall  *LLMCallData  `json:"llm_call,omitempty"`
	ToolExec *ToolExecData `json:"tool_exec,omitempty"`
	Event    *EventData    `json:"event,omitempty"`
}

// ToolExecData holds data specific to a tool execution span.
type ToolExecData struct {
	ToolName string         `json:"tool_name"`
	Args     map[string]any `json:"args"`
	Result   string         `json:"result,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// EventData holds data of an event span.
type EventData struct {
	Kind string `json:"kind"`
	Data any    `json:"data"`
}
