package alfred

import (
	"context"
	"log/slog"
)

// LLMClient is a client for each LLM service.
type LLMClient interface {
	NewSession(ctx context.Context, options ...SessionOption) (Session, error)
}

// Session is a stateful conversation with an LLM. It keeps the message
// history so that consecutive calls continue the same conversation.
type Session interface {
	GenerateContent(ctx context.Context, input ...Input) (*Response, error)
}

// SessionConfig is the configuration applied when a session is created.
type SessionConfig struct {
	systemPrompt string
	tools        []ToolSpec
}

// SystemPrompt returns the system prompt of the session.
func (c *SessionConfig) SystemPrompt() string { return c.systemPrompt }

// Tools returns the tool specs made available to the LLM.
func (c *SessionConfig) Tools() []ToolSpec { return c.tools }

// SessionOption is the type for the options of a session.
type SessionOption func(cfg *SessionConfig)

// NewSessionConfig builds a SessionConfig from options. LLM clients call it in NewSession.
func NewSessionConfig(options ...SessionOption) SessionConfig {
	cfg := SessionConfig{}
	for _, opt := range options {
		opt(&cfg)
	}
	return cfg
}

// WithSessionSystemPrompt sets the system prompt for the session.
func WithSessionSystemPrompt(systemPrompt string) SessionOption {
	return func(cfg *SessionConfig) {
		cfg.systemPrompt = systemPrompt
	}
}

// WithSessionTools sets the tool specs for the session.
func WithSessionTools(tools ...ToolSpec) SessionOption {
	return func(cfg *SessionConfig) {
		cfg.tools = append(cfg.tools, tools...)
	}
}

// FunctionCall is a tool call requested by the LLM.
type FunctionCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// LogValue returns a slog.Value for the FunctionCall
func (f FunctionCall) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", f.ID),
		slog.String("name", f.Name),
		slog.Any("arguments", f.Arguments),
	)
}

// Response is a general response type for each LLM.
type Response struct {
	Texts         []string
	FunctionCalls []*FunctionCall
	InputToken    int
	OutputToken   int
}

func (r *Response) HasData() bool {
	return len(r.Texts) > 0 || len(r.FunctionCalls) > 0
}

type Input interface {
	isInput() restrictedValue
	LogValue() slog.Value
	String() string
}

type restrictedValue struct{}

// Text is a text input as prompt.
// Usage:
// input := alfred.Text("Hello, world!")
type Text string

func (t Text) isInput() restrictedValue {
	return restrictedValue{}
}

func (t Text) LogValue() slog.Value {
	return slog.StringValue(string(t))
}

func (t Text) String() string {
	return string(t)
}

// FunctionResponse carries the text result of a tool call back to the LLM.
type FunctionResponse struct {
	ID      string
	Name    string
	Content string
}

func (f FunctionResponse) isInput() restrictedValue {
	return restrictedValue{}
}

// String returns a string representation of the FunctionResponse
func (f FunctionResponse) String() string {
	return f.Name + ": " + f.Content
}

// LogValue returns a slog.Value for the FunctionResponse
func (f FunctionResponse) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", f.ID),
		slog.String("name", f.Name),
		slog.String("content", f.Content),
	)
}
