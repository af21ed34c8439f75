package backend

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/alfred"
	"github.com/m-mizutani/alfred/tool/hubstats"
	"github.com/m-mizutani/alfred/tool/retriever"
	"github.com/m-mizutani/alfred/tool/weather"
	"github.com/m-mizutani/alfred/tool/websearch"
)

type toolsConfig struct {
	guests       []retriever.Document
	weatherOpts  []weather.Option
	hubOpts      []hubstats.Option
	searchOpts   []websearch.Option
	logger       *slog.Logger
	guestsLoaded bool
}

// ToolOption configures BuildTools.
type ToolOption func(*toolsConfig)

// WithGuests uses docs as the retrieval corpus instead of loading the dataset.
func WithGuests(docs []retriever.Document) ToolOption {
	return func(c *toolsConfig) {
		c.guests = docs
		c.guestsLoaded = true
	}
}

// WithWeatherOptions passes options to the weather tool.
func WithWeatherOptions(opts ...weather.Option) ToolOption {
	return func(c *toolsConfig) {
		c.weatherOpts = append(c.weatherOpts, opts...)
	}
}

// WithHubStatsOptions passes options to the hub stats tool.
func WithHubStatsOptions(opts ...hubstats.Option) ToolOption {
	return func(c *toolsConfig) {
		c.hubOpts = append(c.hubOpts, opts...)
	}
}

// WithWebSearchOptions passes options to the web search tool.
func WithWebSearchOptions(opts ...websearch.Option) ToolOption {
	return func(c *toolsConfig) {
		c.searchOpts = append(c.searchOpts, opts...)
	}
}

// WithToolLogger sets the logger passed to every tool.
func WithToolLogger(logger *slog.Logger) ToolOption {
	return func(c *toolsConfig) {
		c.logger = logger
	}
}

// BuildTools returns the backend tools in registration order: guest
// retriever, weather, hub stats and web search. The guest dataset is loaded
// unless WithGuests is given; a load failure or an empty dataset is an error.
func BuildTools(ctx context.Context, cfg *Config, opts ...ToolOption) ([]alfred.Tool, error) {
	tc := toolsConfig{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&tc)
	}

	if !tc.guestsLoaded {
		docs, err := retriever.LoadGuests(ctx, append(cfg.loadOptions(), retriever.WithLoaderLogger(tc.logger))...)
		if err != nil {
			return nil, err
		}
		tc.guests = docs
	}

	guestTool, err := retriever.New(tc.guests, retriever.WithLogger(tc.logger))
	if err != nil {
		return nil, err
	}

	weatherTool := weather.New(cfg.WeatherAPIKey, append([]weather.Option{weather.WithLogger(tc.logger)}, tc.weatherOpts...)...)
	hubTool := hubstats.New(append([]hubstats.Option{
		hubstats.WithLogger(tc.logger),
		hubstats.WithToken(cfg.HFToken),
	}, tc.hubOpts...)...)
	searchTool := websearch.New(append([]websearch.Option{websearch.WithLogger(tc.logger)}, tc.searchOpts...)...)

	return []alfred.Tool{guestTool, weatherTool, hubTool, searchTool}, nil
}
