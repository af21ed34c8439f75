package trace

// LLMCallData holds data specific to an LLM call span.
type LLMCallData struct {
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	Model        string `json:"model,omitempty"`

	Request  *LLMRequest  `json:"request"`
	Response *LLMResponse `json:"response"`
}

// LLMRequest represents the inputs sent to an LLM in one call.
type LLMRequest struct {
	Inputs []string `json:"inputs"`
}

// LLMResponse represents the response from an LLM.
type LLMResponse struct {
	Texts         []string        `json:"texts,omitempty"`
	FunctionCalls []*FunctionCall `json:"function_calls,omitempty"`
}

// FunctionCall represents a function call in the trace (simplified from alfred.FunctionCall).
type FunctionCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// PlanningData is attached to the "planning" event emitted on planning steps.
type PlanningData struct {
	Step int    `json:"step"`
	Plan string `json:"plan"`
}
