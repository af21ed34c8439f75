package alfred

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/m-mizutani/alfred/trace"
	"github.com/m-mizutani/goerr/v2"
)

// Agent is the tool-augmented conversational agent. It owns one LLM session
// that persists across Run calls, so consecutive prompts continue the same
// conversation.
type Agent struct {
	llm LLMClient

	agentConfig

	session      Session
	toolRegistry *Registry

	// pending holds function responses the session has not received yet
	// because the previous Run stopped early. They lead the next request.
	pending []Input
}

const (
	DefaultLoopLimit        = 32
	DefaultPlanningInterval = 3
)

type agentConfig struct {
	loopLimit        int
	planningInterval int
	systemPrompt     string

	tools    []Tool
	registry *Registry

	messageHook      MessageHook
	toolRequestHook  ToolRequestHook
	toolResponseHook ToolResponseHook

	traceHandler trace.Handler
	logger       *slog.Logger
}

// New creates a new agent.
func New(llmClient LLMClient, options ...Option) *Agent {
	x := &Agent{
		llm: llmClient,
		agentConfig: agentConfig{
			loopLimit:        DefaultLoopLimit,
			planningInterval: DefaultPlanningInterval,

			messageHook:      defaultMessageHook,
			toolRequestHook:  defaultToolRequestHook,
			toolResponseHook: defaultToolResponseHook,
			logger:           slog.New(slog.DiscardHandler),
		},
	}

	for _, opt := range options {
		opt(&x.agentConfig)
	}

	x.logger.Info("alfred agent created",
		"loop_limit", x.loopLimit,
		"planning_interval", x.planningInterval,
		"tools_count", len(x.tools),
		"has_registry", x.agentConfig.registry != nil,
		"has_trace", x.traceHandler != nil,
	)

	return x
}

// Option is the type for the options of the agent.
type Option func(*agentConfig)

// WithLoopLimit sets the maximum number of steps in one Run (ask LLM and execute tools is one step).
func WithLoopLimit(loopLimit int) Option {
	return func(c *agentConfig) {
		c.loopLimit = loopLimit
	}
}

// WithPlanningInterval sets how often a planning prompt is added. A planning
// prompt is added on step 0 and on every interval-th step after that. Zero
// disables planning.
func WithPlanningInterval(interval int) Option {
	return func(c *agentConfig) {
		c.planningInterval = interval
	}
}

// WithSystemPrompt sets the system prompt for the agent. Default is no system prompt.
func WithSystemPrompt(systemPrompt string) Option {
	return func(c *agentConfig) {
		c.systemPrompt = systemPrompt
	}
}

// WithTools adds tools to the agent, in order.
func WithTools(tools ...Tool) Option {
	return func(c *agentConfig) {
		c.tools = append(c.tools, tools...)
	}
}

// WithRegistry sets a prebuilt tool registry. Tools given by WithTools are registered after it.
func WithRegistry(registry *Registry) Option {
	return func(c *agentConfig) {
		c.registry = registry
	}
}

// WithTrace sets the trace handler that receives LLM call, tool execution
// and planning events. A nil handler disables tracing.
func WithTrace(h trace.Handler) Option {
	return func(c *agentConfig) {
		c.traceHandler = h
	}
}

// WithMessageHook sets a callback for every text generated by the LLM,
// including intermediate texts. An error aborts Run.
func WithMessageHook(callback MessageHook) Option {
	return func(c *agentConfig) {
		c.messageHook = callback
	}
}

// WithToolRequestHook sets a callback called just before a tool call is dispatched. An error aborts Run.
func WithToolRequestHook(callback ToolRequestHook) Option {
	return func(c *agentConfig) {
		c.toolRequestHook = callback
	}
}

// WithToolResponseHook sets a callback called with the text result of each tool call. An error aborts Run.
func WithToolResponseHook(callback ToolResponseHook) Option {
	return func(c *agentConfig) {
		c.toolResponseHook = callback
	}
}

// WithLogger sets the logger for the agent. Default is discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *agentConfig) {
		c.logger = logger
	}
}

func (x *Agent) setupRegistry() (*Registry, error) {
	if x.toolRegistry != nil {
		return x.toolRegistry, nil
	}

	var tools []Tool
	if x.agentConfig.registry != nil {
		if len(x.tools) == 0 {
			x.toolRegistry = x.agentConfig.registry
			return x.toolRegistry, nil
		}
		tools = append(tools, x.agentConfig.registry.Tools()...)
	}
	tools = append(tools, x.tools...)

	registry, err := NewRegistry(tools...)
	if err != nil {
		return nil, err
	}
	x.toolRegistry = registry
	return registry, nil
}

// Run answers prompt. The agent asks the LLM, dispatches requested tool calls
// through the registry and feeds their results back until the LLM replies
// without tool calls. The texts of that final reply are joined by newlines
// and returned. If Run stops early, the tool results the session has not
// received are sent ahead of the next prompt.
func (x *Agent) Run(ctx context.Context, prompt string) (string, error) {
	logger := x.logger.With("alfred.request_id", uuid.New().String())
	ctx = ctxWithLogger(ctx, logger)
	if x.traceHandler != nil {
		ctx = trace.WithHandler(ctx, x.traceHandler)
	}

	logger.Info("starting agent run",
		"prompt", prompt,
		"has_existing_session", x.session != nil,
	)

	registry, err := x.setupRegistry()
	if err != nil {
		return "", err
	}

	if x.session == nil {
		options := []SessionOption{WithSessionSystemPrompt(x.systemPrompt)}
		if registry.Len() > 0 {
			options = append(options, WithSessionTools(registry.Specs()...))
		}

		ssn, err := x.llm.NewSession(ctx, options...)
		if err != nil {
			return "", goerr.Wrap(err, "failed to create LLM session")
		}
		x.session = ssn
	}

	input := append(x.pending, Text(prompt))
	x.pending = nil

	for step := 0; step < x.loopLimit; step++ {
		planning := isPlanningStep(step, x.planningInterval)
		if planning {
			p, err := buildPlanningPrompt(step, registry.Specs())
			if err != nil {
				x.hold(input)
				return "", err
			}
			input = append(input, p)
		}

		logger.Debug("agent input", "input", input, "step", step)

		resp, err := x.generate(ctx, input)
		if err != nil {
			x.hold(input)
			return "", err
		}

		if planning {
			x.recordPlan(ctx, step, resp)
		}

		for _, text := range resp.Texts {
			if err := x.messageHook(ctx, text); err != nil {
				x.hold(abortedResponses(resp.FunctionCalls))
				return "", goerr.Wrap(err, "failed to call MessageHook")
			}
		}

		if len(resp.FunctionCalls) == 0 {
			logger.Info("agent run finished", "step", step)
			return strings.Join(resp.Texts, "\n"), nil
		}

		input, err = x.dispatch(ctx, registry, resp.FunctionCalls)
		if err != nil {
			x.hold(input)
			return "", err
		}
	}

	x.hold(input)
	return "", goerr.Wrap(ErrLoopLimitExceeded, "agent stopped", goerr.V("loop_limit", x.loopLimit))
}

// hold keeps the function responses of input for the next Run. Every tool
// call in the session history must be answered before a new prompt.
func (x *Agent) hold(input []Input) {
	x.pending = nil
	for _, in := range input {
		if fr, ok := in.(FunctionResponse); ok {
			x.pending = append(x.pending, fr)
		}
	}
}

const abortedToolResult = "Error: tool call was aborted"

func abortedResponses(calls []*FunctionCall) []Input {
	responses := make([]Input, len(calls))
	for i, call := range calls {
		responses[i] = FunctionResponse{ID: call.ID, Name: call.Name, Content: abortedToolResult}
	}
	return responses
}

func (x *Agent) generate(ctx context.Context, input []Input) (*Response, error) {
	h := trace.HandlerFrom(ctx)
	if h == nil {
		resp, err := x.session.GenerateContent(ctx, input...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to generate content")
		}
		return resp, nil
	}

	ctx = h.StartLLMCall(ctx)
	resp, err := x.session.GenerateContent(ctx, input...)

	data := &trace.LLMCallData{
		Request: &trace.LLMRequest{Inputs: make([]string, len(input))},
	}
	for i, in := range input {
		data.Request.Inputs[i] = in.String()
	}
	if resp != nil {
		data.InputTokens = resp.InputToken
		data.OutputTokens = resp.OutputToken
		data.Response = &trace.LLMResponse{Texts: resp.Texts}
		for _, fc := range resp.FunctionCalls {
			data.Response.FunctionCalls = append(data.Response.FunctionCalls, &trace.FunctionCall{
				ID:        fc.ID,
				Name:      fc.Name,
				Arguments: fc.Arguments,
			})
		}
	}
	h.EndLLMCall(ctx, data, err)

	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content")
	}
	return resp, nil
}

func (x *Agent) recordPlan(ctx context.Context, step int, resp *Response) {
	plan := strings.Join(resp.Texts, "\n")
	LoggerFromContext(ctx).Debug("agent planning", "step", step, "plan", plan)

	if h := trace.HandlerFrom(ctx); h != nil {
		h.AddEvent(ctx, "planning", &trace.PlanningData{Step: step, Plan: plan})
	}
}

// dispatch runs calls in order. When a hook aborts, the returned responses
// still answer every call, the unfinished ones with abortedToolResult.
func (x *Agent) dispatch(ctx context.Context, registry *Registry, calls []*FunctionCall) ([]Input, error) {
	logger := LoggerFromContext(ctx)
	next := make([]Input, 0, len(calls))

	for i, call := range calls {
		logger.Debug("agent received tool request", "tool", call.Name, "args", call.Arguments)

		if err := x.toolRequestHook(ctx, *call); err != nil {
			return append(next, abortedResponses(calls[i:])...), goerr.Wrap(err, "failed to call ToolRequestHook")
		}

		result := registry.Invoke(ctx, *call)
		next = append(next, FunctionResponse{
			ID:      call.ID,
			Name:    call.Name,
			Content: result,
		})

		if err := x.toolResponseHook(ctx, *call, result); err != nil {
			return append(next, abortedResponses(calls[i+1:])...), goerr.Wrap(err, "failed to call ToolResponseHook")
		}
	}

	return next, nil
}
