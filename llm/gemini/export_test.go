package gemini

import "google.golang.org/genai"

var (
	ConvertTool   = convertTool
	ConvertInputs = convertInputs
)

type APIClient = apiClient

// NewWithAPIClient creates a client backed by a custom API client for testing
func NewWithAPIClient(client apiClient, options ...Option) *Client {
	c := newClient(options...)
	c.client = client
	return c
}

// History returns the session history for testing
func (s *Session) History() []*genai.Content {
	return s.history
}

// Config returns the generation config for testing
func (s *Session) Config() *genai.GenerateContentConfig {
	return s.config
}
