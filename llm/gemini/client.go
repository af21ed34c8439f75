package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m-mizutani/alfred"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

const (
	DefaultModel = "gemini-2.5-flash"
)

// ErrBlocked is returned when the model stops because of a malformed function call or prohibited content.
var ErrBlocked = errors.New("gemini response was blocked")

// Client is a client for the Gemini API.
type Client struct {
	// client is the underlying Gemini client.
	client apiClient

	// defaultModel is the model to use for chat completions.
	// It can be overridden using WithModel option.
	defaultModel string

	// generationConfig contains the default generation parameters
	generationConfig *genai.GenerateContentConfig

	baseURL string
	logger  *slog.Logger
}

// Option is a configuration option for the Gemini client.
type Option func(*Client)

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.defaultModel = model
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temp float32) Option {
	return func(c *Client) {
		c.generationConfig.Temperature = &temp
	}
}

// WithMaxTokens sets the maximum number of output tokens.
func WithMaxTokens(maxTokens int32) Option {
	return func(c *Client) {
		c.generationConfig.MaxOutputTokens = maxTokens
	}
}

// WithBaseURL overrides the API endpoint.
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

// New creates a new client for the Gemini Developer API with an API key.
func New(ctx context.Context, apiKey string, options ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, goerr.New("Gemini API key is required")
	}

	client := newClient(options...)

	config := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if client.baseURL != "" {
		config.HTTPOptions.BaseURL = client.baseURL
	}

	newClient, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Gemini client")
	}

	client.client = &realAPIClient{client: newClient}
	return client, nil
}

func newClient(options ...Option) *Client {
	client := &Client{
		defaultModel:     DefaultModel,
		generationConfig: &genai.GenerateContentConfig{},
		logger:           slog.New(slog.DiscardHandler),
	}
	for _, option := range options {
		option(client)
	}
	return client
}

// NewSession creates a new chat session. The session keeps its own history.
func (c *Client) NewSession(ctx context.Context, options ...alfred.SessionOption) (alfred.Session, error) {
	cfg := alfred.NewSessionConfig(options...)

	config := &genai.GenerateContentConfig{}
	*config = *c.generationConfig

	if prompt := cfg.SystemPrompt(); prompt != "" {
		config.SystemInstruction = &genai.Content{
			Role:  "system",
			Parts: []*genai.Part{{Text: prompt}},
		}
	}

	if len(cfg.Tools()) > 0 {
		tool := &genai.Tool{
			FunctionDeclarations: make([]*genai.FunctionDeclaration, len(cfg.Tools())),
		}
		for i, spec := range cfg.Tools() {
			tool.FunctionDeclarations[i] = convertTool(spec)
		}
		config.Tools = []*genai.Tool{tool}
	}

	return &Session{
		apiClient: c.client,
		model:     c.defaultModel,
		config:    config,
		logger:    c.logger,
	}, nil
}

// Session is a session for the Gemini chat.
type Session struct {
	apiClient apiClient
	model     string
	config    *genai.GenerateContentConfig
	history   []*genai.Content
	logger    *slog.Logger
}

// GenerateContent sends input as a new user turn and returns the model reply.
// Both the input and the reply are appended to the session history.
func (s *Session) GenerateContent(ctx context.Context, input ...alfred.Input) (*alfred.Response, error) {
	parts, err := convertInputs(input...)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid input")
	}

	contents := s.history
	userContent := &genai.Content{Role: "user", Parts: parts}
	if len(parts) > 0 {
		contents = append(contents, userContent)
	}

	s.logger.Debug("gemini request", "model", s.model, "contents", len(contents))

	result, err := s.apiClient.GenerateContent(ctx, s.model, contents, s.config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content", goerr.V("model", s.model))
	}

	response, modelContent, err := processResponse(result)
	if err != nil {
		return nil, err
	}

	s.history = contents
	if modelContent != nil {
		s.history = append(s.history, modelContent)
	}

	s.logger.Debug("gemini response",
		"texts", len(response.Texts),
		"function_calls", len(response.FunctionCalls),
		"input_tokens", response.InputToken,
		"output_tokens", response.OutputToken,
	)
	return response, nil
}

// processResponse converts Gemini response to alfred.Response and the content to keep in history.
func processResponse(resp *genai.GenerateContentResponse) (*alfred.Response, *genai.Content, error) {
	response := &alfred.Response{}
	if resp == nil || len(resp.Candidates) == 0 {
		return response, nil, nil
	}

	if resp.UsageMetadata != nil {
		response.InputToken = int(resp.UsageMetadata.PromptTokenCount)
		response.OutputToken = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	candidate := resp.Candidates[0]
	reason := string(candidate.FinishReason)
	if strings.Contains(reason, "MALFORMED_FUNCTION_CALL") || strings.Contains(reason, "PROHIBITED_CONTENT") {
		return nil, nil, goerr.Wrap(ErrBlocked, "model stopped", goerr.V("finish_reason", reason))
	}

	if candidate.Content == nil {
		return response, nil, nil
	}

	modelContent := &genai.Content{Role: "model"}
	for _, part := range candidate.Content.Parts {
		if part == nil {
			continue
		}
		if part.Text != "" && !part.Thought {
			response.Texts = append(response.Texts, part.Text)
			modelContent.Parts = append(modelContent.Parts, &genai.Part{Text: part.Text})
		}

		if part.FunctionCall != nil {
			id := part.FunctionCall.ID
			if id == "" {
				id = fmt.Sprintf("%s_%d", part.FunctionCall.Name, time.Now().UnixNano())
			}
			response.FunctionCalls = append(response.FunctionCalls, &alfred.FunctionCall{
				ID:        id,
				Name:      part.FunctionCall.Name,
				Arguments: part.FunctionCall.Args,
			})
			modelContent.Parts = append(modelContent.Parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{
					ID:   part.FunctionCall.ID,
					Name: part.FunctionCall.Name,
					Args: part.FunctionCall.Args,
				},
			})
		}
	}

	if len(modelContent.Parts) == 0 {
		return response, nil, nil
	}
	return response, modelContent, nil
}
