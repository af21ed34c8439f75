package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/m-mizutani/alfred"
	"github.com/m-mizutani/goerr/v2"
	"github.com/sashabaranov/go-openai"
)

const (
	DefaultModel = "gpt-4o-mini"
)

// Client is a client for the OpenAI chat completion API.
type Client struct {
	// client is the underlying OpenAI client.
	client *openai.Client

	// defaultModel is the model to use for chat completions.
	// It can be overridden using WithModel option.
	defaultModel string

	temperature float32
	maxTokens   int
	baseURL     string
	logger      *slog.Logger
}

// Option is a configuration option for the OpenAI client.
type Option func(*Client)

// WithModel sets the default model to use for chat completions.
func WithModel(modelName string) Option {
	return func(c *Client) {
		if modelName != "" {
			c.defaultModel = modelName
		}
	}
}

// WithTemperature sets the temperature parameter for text generation.
func WithTemperature(temp float32) Option {
	return func(c *Client) {
		c.temperature = temp
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(maxTokens int) Option {
	return func(c *Client) {
		c.maxTokens = maxTokens
	}
}

// WithBaseURL sets the custom base URL for the OpenAI API.
// Allows usage with compatible endpoints, proxies, or self-hosted instances.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithLogger sets the logger. Default is discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a new client for the OpenAI API.
func New(ctx context.Context, apiKey string, options ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, goerr.New("OpenAI API key is required")
	}

	client := &Client{
		defaultModel: DefaultModel,
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, option := range options {
		option(client)
	}

	config := openai.DefaultConfig(apiKey)
	if client.baseURL != "" {
		config.BaseURL = client.baseURL
	}
	client.client = openai.NewClientWithConfig(config)

	return client, nil
}

// Session is a session for the OpenAI chat.
// It maintains the conversation state and handles message generation.
type Session struct {
	client *Client
	tools  []openai.Tool

	historyMessages []openai.ChatCompletionMessage
}

// NewSession creates a new session. The system prompt, if any, is the first message of the history.
func (c *Client) NewSession(ctx context.Context, options ...alfred.SessionOption) (alfred.Session, error) {
	cfg := alfred.NewSessionConfig(options...)

	tools := make([]openai.Tool, len(cfg.Tools()))
	for i, spec := range cfg.Tools() {
		tools[i] = convertTool(spec)
	}

	var history []openai.ChatCompletionMessage
	if prompt := cfg.SystemPrompt(); prompt != "" {
		history = append(history, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: prompt,
		})
	}

	return &Session{
		client:          c,
		tools:           tools,
		historyMessages: history,
	}, nil
}

// GenerateContent processes the input and generates a response.
// It handles both text messages and function responses.
func (s *Session) GenerateContent(ctx context.Context, input ...alfred.Input) (*alfred.Response, error) {
	newMessages, err := convertInputs(input...)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid input")
	}

	messages := append(append([]openai.ChatCompletionMessage(nil), s.historyMessages...), newMessages...)

	req := openai.ChatCompletionRequest{
		Model:       s.client.defaultModel,
		Messages:    messages,
		Temperature: s.client.temperature,
		MaxTokens:   s.client.maxTokens,
	}
	if len(s.tools) > 0 {
		req.Tools = s.tools
	}

	s.client.logger.Debug("openai request", "model", req.Model, "messages", len(messages))

	resp, err := s.client.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create chat completion", goerr.V("model", req.Model))
	}

	response := &alfred.Response{
		InputToken:  resp.Usage.PromptTokens,
		OutputToken: resp.Usage.CompletionTokens,
	}
	if len(resp.Choices) == 0 {
		s.historyMessages = messages
		return response, nil
	}

	message := resp.Choices[0].Message
	if message.Content != "" {
		response.Texts = append(response.Texts, message.Content)
	}

	for _, toolCall := range message.ToolCalls {
		var args map[string]any
		if toolCall.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(toolCall.Function.Arguments), &args); err != nil {
				return nil, goerr.Wrap(err, "failed to unmarshal tool arguments",
					goerr.V("tool", toolCall.Function.Name),
					goerr.V("arguments", toolCall.Function.Arguments))
			}
		}

		response.FunctionCalls = append(response.FunctionCalls, &alfred.FunctionCall{
			ID:        toolCall.ID,
			Name:      toolCall.Function.Name,
			Arguments: args,
		})
	}

	if message.Content != "" || len(message.ToolCalls) > 0 {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:      openai.ChatMessageRoleAssistant,
			Content:   message.Content,
			ToolCalls: message.ToolCalls,
		})
	}
	s.historyMessages = messages

	s.client.logger.Debug("openai response",
		"model", resp.Model,
		"finish_reason", resp.Choices[0].FinishReason,
		"texts", len(response.Texts),
		"function_calls", len(response.FunctionCalls),
	)
	return response, nil
}

// convertInputs converts alfred.Input to OpenAI messages. Consecutive texts
// are joined into one user message.
func convertInputs(input ...alfred.Input) ([]openai.ChatCompletionMessage, error) {
	var messages []openai.ChatCompletionMessage
	var texts []string

	flush := func() {
		if len(texts) == 0 {
			return
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: strings.Join(texts, "\n\n"),
		})
		texts = nil
	}

	for _, in := range input {
		switch v := in.(type) {
		case alfred.Text:
			texts = append(texts, string(v))
		case alfred.FunctionResponse:
			flush()
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    v.Content,
				Name:       v.Name,
				ToolCallID: v.ID,
			})
		default:
			return nil, alfred.ErrInvalidParameter
		}
	}
	flush()

	return messages, nil
}

// convertTool converts alfred.ToolSpec to openai.Tool
func convertTool(spec alfred.ToolSpec) openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        spec.Name,
			Description: spec.Description,
			Parameters:  spec.JSONSchema(),
		},
	}
}
