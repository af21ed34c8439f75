package alfred_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/m-mizutani/alfred"
	"github.com/m-mizutani/alfred/internal"
	"github.com/m-mizutani/alfred/trace"
	"github.com/m-mizutani/gt"
)

// mockLLM returns scripted responses and records every input it receives.
type mockLLM struct {
	responses []*alfred.Response
	err       error

	sessions int
	inputs   [][]alfred.Input
	config   alfred.SessionConfig
}

func (x *mockLLM) NewSession(ctx context.Context, options ...alfred.SessionOption) (alfred.Session, error) {
	x.sessions++
	x.config = alfred.NewSessionConfig(options...)
	return x, nil
}

func (x *mockLLM) GenerateContent(ctx context.Context, input ...alfred.Input) (*alfred.Response, error) {
	x.inputs = append(x.inputs, input)
	if x.err != nil {
		return nil, x.err
	}
	if len(x.responses) == 0 {
		return &alfred.Response{Texts: []string{"done"}}, nil
	}
	resp := x.responses[0]
	x.responses = x.responses[1:]
	return resp, nil
}

func callEcho(id, msg string) *alfred.Response {
	return &alfred.Response{
		FunctionCalls: []*alfred.FunctionCall{
			{ID: id, Name: "echo", Arguments: map[string]any{"message": msg}},
		},
	}
}

func TestAgentRunWithoutTools(t *testing.T) {
	llm := &mockLLM{responses: []*alfred.Response{{Texts: []string{"Good evening,", "sir."}}}}
	agent := alfred.New(llm, alfred.WithLogger(internal.TestLogger()), alfred.WithSystemPrompt("You are Alfred."))

	answer, err := agent.Run(context.Background(), "hello")
	gt.NoError(t, err).Required()
	gt.Equal(t, answer, "Good evening,\nsir.")
	gt.Equal(t, llm.config.SystemPrompt(), "You are Alfred.")
	gt.A(t, llm.config.Tools()).Length(0)
}

func TestAgentRunDispatchesToolCalls(t *testing.T) {
	llm := &mockLLM{responses: []*alfred.Response{
		callEcho("c1", "first"),
		{Texts: []string{"final answer"}},
	}}

	var requested []string
	var results []string
	agent := alfred.New(llm,
		alfred.WithTools(&echoTool{name: "echo"}),
		alfred.WithPlanningInterval(0),
		alfred.WithToolRequestHook(func(ctx context.Context, call alfred.FunctionCall) error {
			requested = append(requested, call.Name)
			return nil
		}),
		alfred.WithToolResponseHook(func(ctx context.Context, call alfred.FunctionCall, result string) error {
			results = append(results, result)
			return nil
		}),
	)

	answer, err := agent.Run(context.Background(), "echo first")
	gt.NoError(t, err).Required()
	gt.Equal(t, answer, "final answer")
	gt.Equal(t, requested, []string{"echo"})
	gt.Equal(t, results, []string{"echo: first"})

	gt.A(t, llm.inputs).Length(2)
	resp, ok := llm.inputs[1][0].(alfred.FunctionResponse)
	gt.True(t, ok)
	gt.Equal(t, resp.ID, "c1")
	gt.Equal(t, resp.Content, "echo: first")
	gt.A(t, llm.config.Tools()).Length(1)
}

func TestAgentRunUnknownToolIsReportedToLLM(t *testing.T) {
	llm := &mockLLM{responses: []*alfred.Response{
		{FunctionCalls: []*alfred.FunctionCall{{ID: "x", Name: "missing"}}},
		{Texts: []string{"sorry"}},
	}}
	agent := alfred.New(llm, alfred.WithTools(&echoTool{name: "echo"}), alfred.WithPlanningInterval(0))

	answer, err := agent.Run(context.Background(), "call something")
	gt.NoError(t, err).Required()
	gt.Equal(t, answer, "sorry")

	resp := llm.inputs[1][0].(alfred.FunctionResponse)
	gt.S(t, resp.Content).Contains("missing is not found")
}

func TestAgentPlanningInterval(t *testing.T) {
	llm := &mockLLM{responses: []*alfred.Response{
		callEcho("1", "a"),
		callEcho("2", "b"),
		callEcho("3", "c"),
		callEcho("4", "d"),
		{Texts: []string{"done"}},
	}}
	rec := trace.NewRecorder()
	agent := alfred.New(llm,
		alfred.WithTools(&echoTool{name: "echo"}),
		alfred.WithPlanningInterval(3),
		alfred.WithTrace(rec),
	)

	_, err := agent.Run(context.Background(), "go")
	gt.NoError(t, err).Required()
	gt.A(t, llm.inputs).Length(5)

	hasPlanning := func(inputs []alfred.Input) bool {
		for _, in := range inputs {
			if txt, ok := in.(alfred.Text); ok && strings.Contains(string(txt), "Before taking the next action") {
				return true
			}
		}
		return false
	}
	gt.True(t, hasPlanning(llm.inputs[0]))
	gt.False(t, hasPlanning(llm.inputs[1]))
	gt.False(t, hasPlanning(llm.inputs[2]))
	gt.True(t, hasPlanning(llm.inputs[3]))
	gt.False(t, hasPlanning(llm.inputs[4]))

	events := rec.SpansOf(trace.SpanKindEvent)
	gt.A(t, events).Length(2)
	gt.Equal(t, events[0].Event.Data.(*trace.PlanningData).Step, 0)
	gt.Equal(t, events[1].Event.Data.(*trace.PlanningData).Step, 3)

	gt.A(t, rec.SpansOf(trace.SpanKindLLMCall)).Length(5)
	gt.A(t, rec.SpansOf(trace.SpanKindToolExec)).Length(4)
}

func TestAgentLoopLimit(t *testing.T) {
	llm := &mockLLM{responses: []*alfred.Response{
		callEcho("1", "a"),
		callEcho("2", "b"),
		callEcho("3", "c"),
	}}
	agent := alfred.New(llm, alfred.WithTools(&echoTool{name: "echo"}), alfred.WithLoopLimit(2))

	_, err := agent.Run(context.Background(), "loop")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, alfred.ErrLoopLimitExceeded))
}

func TestAgentLoopLimitAnswersPendingCalls(t *testing.T) {
	llm := &mockLLM{responses: []*alfred.Response{
		callEcho("1", "a"),
		callEcho("2", "b"),
	}}
	agent := alfred.New(llm,
		alfred.WithTools(&echoTool{name: "echo"}),
		alfred.WithLoopLimit(2),
		alfred.WithPlanningInterval(0),
	)

	_, err := agent.Run(context.Background(), "loop")
	gt.True(t, errors.Is(err, alfred.ErrLoopLimitExceeded))
	gt.A(t, llm.inputs).Length(2)

	answer, err := agent.Run(context.Background(), "second")
	gt.NoError(t, err).Required()
	gt.Equal(t, answer, "done")

	next := llm.inputs[2]
	gt.A(t, next).Length(2)
	fr, ok := next[0].(alfred.FunctionResponse)
	gt.True(t, ok)
	gt.Equal(t, fr.ID, "2")
	gt.Equal(t, fr.Name, "echo")
	gt.Equal(t, next[1], alfred.Input(alfred.Text("second")))

	_, err = agent.Run(context.Background(), "third")
	gt.NoError(t, err).Required()
	gt.Equal(t, llm.inputs[3], []alfred.Input{alfred.Text("third")})
}

func TestAgentToolHookAbortAnswersEveryCall(t *testing.T) {
	errStop := errors.New("stop")
	llm := &mockLLM{responses: []*alfred.Response{{
		FunctionCalls: []*alfred.FunctionCall{
			{ID: "a", Name: "echo", Arguments: map[string]any{"message": "x"}},
			{ID: "b", Name: "echo", Arguments: map[string]any{"message": "y"}},
		},
	}}}
	agent := alfred.New(llm,
		alfred.WithTools(&echoTool{name: "echo"}),
		alfred.WithPlanningInterval(0),
		alfred.WithToolRequestHook(func(ctx context.Context, call alfred.FunctionCall) error {
			if call.ID == "b" {
				return errStop
			}
			return nil
		}),
	)

	_, err := agent.Run(context.Background(), "first")
	gt.True(t, errors.Is(err, errStop))

	_, err = agent.Run(context.Background(), "second")
	gt.NoError(t, err).Required()

	next := llm.inputs[1]
	gt.A(t, next).Length(3)
	first, ok := next[0].(alfred.FunctionResponse)
	gt.True(t, ok)
	gt.Equal(t, first.ID, "a")
	gt.False(t, strings.HasPrefix(first.Content, "Error:"))

	second, ok := next[1].(alfred.FunctionResponse)
	gt.True(t, ok)
	gt.Equal(t, second.ID, "b")
	gt.Equal(t, second.Content, "Error: tool call was aborted")
	gt.Equal(t, next[2], alfred.Input(alfred.Text("second")))
}

func TestAgentLLMErrorKeepsPendingResponses(t *testing.T) {
	llm := &mockLLM{responses: []*alfred.Response{callEcho("1", "a")}}
	agent := alfred.New(llm,
		alfred.WithTools(&echoTool{name: "echo"}),
		alfred.WithPlanningInterval(0),
		alfred.WithToolResponseHook(func(ctx context.Context, call alfred.FunctionCall, result string) error {
			llm.err = errors.New("connection reset")
			return nil
		}),
	)

	_, err := agent.Run(context.Background(), "first")
	gt.Error(t, err)

	llm.err = nil
	_, err = agent.Run(context.Background(), "second")
	gt.NoError(t, err).Required()

	next := llm.inputs[2]
	gt.A(t, next).Length(2)
	fr, ok := next[0].(alfred.FunctionResponse)
	gt.True(t, ok)
	gt.Equal(t, fr.ID, "1")
	gt.Equal(t, next[1], alfred.Input(alfred.Text("second")))
}

func TestAgentRunPropagatesLLMError(t *testing.T) {
	errLLM := errors.New("quota exceeded")
	llm := &mockLLM{err: errLLM}
	agent := alfred.New(llm)

	_, err := agent.Run(context.Background(), "hi")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, errLLM))
}

func TestAgentKeepsSessionAcrossRuns(t *testing.T) {
	llm := &mockLLM{}
	agent := alfred.New(llm)

	_, err := agent.Run(context.Background(), "first")
	gt.NoError(t, err).Required()
	_, err = agent.Run(context.Background(), "second")
	gt.NoError(t, err).Required()

	gt.Equal(t, llm.sessions, 1)
}

func TestAgentToolNameConflict(t *testing.T) {
	registry, err := alfred.NewRegistry(&echoTool{name: "echo"})
	gt.NoError(t, err).Required()

	agent := alfred.New(&mockLLM{}, alfred.WithRegistry(registry), alfred.WithTools(&echoTool{name: "echo"}))
	_, err = agent.Run(context.Background(), "hi")
	gt.True(t, errors.Is(err, alfred.ErrToolNameConflict))
}

func TestAgentMessageHookAbort(t *testing.T) {
	errStop := errors.New("stop")
	agent := alfred.New(&mockLLM{}, alfred.WithMessageHook(func(ctx context.Context, msg string) error {
		return errStop
	}))

	_, err := agent.Run(context.Background(), "hi")
	gt.True(t, errors.Is(err, errStop))
}
