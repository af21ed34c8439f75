// Package backend assembles an agent backend: configuration, tools, model
// client, tracing and the interactive console.
package backend

import (
	"context"

	"github.com/m-mizutani/alfred/llm/gemini"
	"github.com/m-mizutani/alfred/llm/openai"
	"github.com/m-mizutani/alfred/tool/retriever"
	"github.com/m-mizutani/goerr/v2"
	"github.com/sethvargo/go-envconfig"
)

// Config is the backend configuration read from the environment.
type Config struct {
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL, default=gemini-2.5-flash"`

	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIModel   string `env:"OPENAI_MODEL, default=gpt-4o-mini"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`

	WeatherAPIKey string `env:"OPENWEATHERMAP_API_KEY"`
	HFToken       string `env:"HF_TOKEN"`
	DatasetURL    string `env:"ALFRED_DATASET_URL, default=https://datasets-server.huggingface.co"`

	PlanningInterval int    `env:"ALFRED_PLANNING_INTERVAL, default=3"`
	LogLevel         string `env:"ALFRED_LOG_LEVEL, default=warn"`
	TraceLog         bool   `env:"ALFRED_TRACE_LOG, default=false"`
	TraceDump        string `env:"ALFRED_TRACE_DUMP"`
}

// LoadConfig reads Config through l. A nil l reads the process environment.
func LoadConfig(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	if l == nil {
		l = envconfig.OsLookuper()
	}

	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to load backend config")
	}
	return &cfg, nil
}

func (c *Config) geminiOptions() []gemini.Option {
	return []gemini.Option{gemini.WithModel(c.GeminiModel)}
}

func (c *Config) openaiOptions() []openai.Option {
	opts := []openai.Option{openai.WithModel(c.OpenAIModel)}
	if c.OpenAIBaseURL != "" {
		opts = append(opts, openai.WithBaseURL(c.OpenAIBaseURL))
	}
	return opts
}

func (c *Config) loadOptions() []retriever.LoadOption {
	return []retriever.LoadOption{retriever.WithBaseURL(c.DatasetURL)}
}
