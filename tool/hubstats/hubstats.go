// Package hubstats provides the hub_stats tool that reports the most
// downloaded model of an author on the Hugging Face Hub.
package hubstats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-resty/resty/v2"
	"github.com/m-mizutani/alfred"
	"github.com/m-mizutani/goerr/v2"
)

const (
	// ToolName is the name under which the tool is registered.
	ToolName = "hub_stats"

	// DefaultBaseURL is the Hugging Face Hub endpoint.
	DefaultBaseURL = "https://huggingface.co"

	defaultTimeout = 10 * time.Second
)

// Model is an entry of the Hub model listing.
type Model struct {
	ID        string `json:"id"`
	Downloads int64  `json:"downloads"`
}

// Tool queries the Hub model listing.
type Tool struct {
	client *resty.Client
	logger *slog.Logger
}

// Option configures a Tool.
type Option func(*Tool)

// WithBaseURL overrides the Hub endpoint.
func WithBaseURL(url string) Option {
	return func(x *Tool) {
		x.client.SetBaseURL(url)
	}
}

// WithToken sets a Hub access token sent as a bearer token.
func WithToken(token string) Option {
	return func(x *Tool) {
		if token != "" {
			x.client.SetAuthToken(token)
		}
	}
}

// WithLogger sets the logger. Default is discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(x *Tool) {
		x.logger = logger
	}
}

// New creates the hub stats tool.
func New(opts ...Option) *Tool {
	x := &Tool{
		client: resty.New().
			SetBaseURL(DefaultBaseURL).
			SetTimeout(defaultTimeout).
			SetRetryCount(0),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Spec implements alfred.Tool.
func (x *Tool) Spec() alfred.ToolSpec {
	return alfred.ToolSpec{
		Name:        ToolName,
		Description: "Fetches the most downloaded model from a specific author on the Hugging Face Hub.",
		Parameters: map[string]*alfred.Parameter{
			"author": {
				Type:        alfred.TypeString,
				Description: "The username of the model author/organization to find models from.",
				Required:    true,
			},
		},
		OutputType: alfred.OutputString,
	}
}

// Invoke implements alfred.Tool.
func (x *Tool) Invoke(ctx context.Context, args map[string]any) string {
	author, _ := args["author"].(string)

	model, err := x.TopModel(ctx, author)
	if err != nil {
		x.logger.Info("hub stats request failed", "author", author, "error", err)
		return fmt.Sprintf("Error fetching models for %s: %v", author, err)
	}
	if model == nil {
		return fmt.Sprintf("No models found for author %s.", author)
	}

	return fmt.Sprintf("The most downloaded model by %s is %s with %s downloads.",
		author, model.ID, humanize.Comma(model.Downloads))
}

// TopModel returns the most downloaded model of author, or nil if the author
// has no models.
func (x *Tool) TopModel(ctx context.Context, author string) (*Model, error) {
	var models []Model
	resp, err := x.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"author":    author,
			"sort":      "downloads",
			"direction": "-1",
			"limit":     "1",
		}).
		SetResult(&models).
		Get("/api/models")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list models", goerr.V("author", author))
	}
	if resp.IsError() {
		return nil, goerr.New(resp.Status(), goerr.V("author", author), goerr.V("body", resp.String()))
	}

	if len(models) == 0 {
		return nil, nil
	}
	return &models[0], nil
}
