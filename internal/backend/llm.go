package backend

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/alfred"
	"github.com/m-mizutani/alfred/llm/gemini"
	"github.com/m-mizutani/alfred/llm/openai"
	"github.com/m-mizutani/goerr/v2"
)

// LLMFactory creates the model client of a backend.
type LLMFactory func(ctx context.Context, cfg *Config, logger *slog.Logger) (alfred.LLMClient, error)

// NewGemini creates a Gemini client. GEMINI_API_KEY is required.
func NewGemini(ctx context.Context, cfg *Config, logger *slog.Logger) (alfred.LLMClient, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, goerr.New("GEMINI_API_KEY environment variable not set")
	}
	opts := append(cfg.geminiOptions(), gemini.WithLogger(logger))
	client, err := gemini.New(ctx, cfg.GeminiAPIKey, opts...)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// NewOpenAI creates an OpenAI client. OPENAI_API_KEY is required.
func NewOpenAI(ctx context.Context, cfg *Config, logger *slog.Logger) (alfred.LLMClient, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, goerr.New("OPENAI_API_KEY environment variable not set")
	}
	opts := append(cfg.openaiOptions(), openai.WithLogger(logger))
	client, err := openai.New(ctx, cfg.OpenAIAPIKey, opts...)
	if err != nil {
		return nil, err
	}
	return client, nil
}
