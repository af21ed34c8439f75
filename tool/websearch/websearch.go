// Package websearch provides the web_search tool backed by the DuckDuckGo
// Instant Answer API.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/m-mizutani/alfred"
	"github.com/m-mizutani/goerr/v2"
)

const (
	// ToolName is the name under which the tool is registered.
	ToolName = "web_search"

	// DefaultBaseURL is the DuckDuckGo Instant Answer API endpoint.
	DefaultBaseURL = "https://api.duckduckgo.com"

	// NoResults is returned when the answer has nothing to summarize.
	NoResults = "No results found for this query."

	maxRelatedTopics = 5
	defaultTimeout   = 10 * time.Second
)

// Tool searches the web.
type Tool struct {
	client *resty.Client
	logger *slog.Logger
}

// Option configures a Tool.
type Option func(*Tool)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(url string) Option {
	return func(x *Tool) {
		x.client.SetBaseURL(url)
	}
}

// WithLogger sets the logger. Default is discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(x *Tool) {
		x.logger = logger
	}
}

// New creates the web search tool.
func New(opts ...Option) *Tool {
	x := &Tool{
		client: resty.New().
			SetBaseURL(DefaultBaseURL).
			SetTimeout(defaultTimeout).
			SetRetryCount(0).
			SetHeader("User-Agent", "alfred-websearch/1.0"),
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
		Description: "Performs a web search for the given query and returns a summary of instant answers, abstracts, and related topics.",
		Parameters: map[string]*alfred.Parameter{
			"query": {
				Type:        alfred.TypeString,
				Description: "The search query to perform.",
				Required:    true,
			},
		},
		OutputType: alfred.OutputString,
	}
}

// Invoke implements alfred.Tool.
func (x *Tool) Invoke(ctx context.Context, args map[string]any) string {
	query, _ := args["query"].(string)

	answer, err := x.Search(ctx, query)
	if err != nil {
		x.logger.Info("web search failed", "query", query, "error", err)
		return fmt.Sprintf("Error searching the web for '%s': %v", query, err)
	}
	return answer.Summary()
}

// Topic is a related topic entry. Grouped entries carry nested Topics.
type Topic struct {
	FirstURL string  `json:"FirstURL"`
	Text     string  `json:"Text"`
	Name     string  `json:"Name"`
	Topics   []Topic `json:"Topics"`
}

// Answer is the subset of the Instant Answer response used by the tool.
type Answer struct {
	Heading        string  `json:"Heading"`
	AbstractText   string  `json:"AbstractText"`
	AbstractSource string  `json:"AbstractSource"`
	AbstractURL    string  `json:"AbstractURL"`
	Answer         string  `json:"Answer"`
	Definition     string  `json:"Definition"`
	DefinitionURL  string  `json:"DefinitionURL"`
	RelatedTopics  []Topic `json:"RelatedTopics"`
}

// Search runs one request against the API.
func (x *Tool) Search(ctx context.Context, query string) (*Answer, error) {
	resp, err := x.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":             query,
			"format":        "json",
			"no_html":       "1",
			"skip_disambig": "1",
		}).
		Get("/")
	if err != nil {
		return nil, goerr.Wrap(err, "request failed", goerr.V("query", query))
	}
	if code := resp.StatusCode(); code != http.StatusOK && code != http.StatusAccepted {
		return nil, goerr.New("unexpected status code: "+resp.Status(), goerr.V("query", query))
	}

	// The API answers with a javascript content type, so the body is decoded here.
	var answer Answer
	if err := json.Unmarshal(resp.Body(), &answer); err != nil {
		return nil, goerr.Wrap(err, "failed to parse response", goerr.V("query", query))
	}
	return &answer, nil
}

// Summary renders the answer as text, or NoResults when it is empty.
func (a *Answer) Summary() string {
	var parts []string

	if a.AbstractText != "" {
		abstract := "Abstract: " + a.AbstractText
		if a.Heading != "" {
			abstract = a.Heading + "\n" + abstract
		}
		parts = append(parts, abstract)
		if a.AbstractURL != "" {
			parts = append(parts, "Source: "+a.AbstractURL)
		}
	}
	if a.Answer != "" {
		parts = append(parts, "Answer: "+a.Answer)
	}
	if a.Definition != "" {
		parts = append(parts, "Definition: "+a.Definition)
	}

	if topics := a.topicTexts(maxRelatedTopics); len(topics) > 0 {
		parts = append(parts, "Related topics: "+strings.Join(topics, "; "))
	}

	if len(parts) == 0 {
		return NoResults
	}
	return strings.Join(parts, "\n\n")
}

func (a *Answer) topicTexts(limit int) []string {
	var texts []string
	var walk func(topics []Topic)
	walk = func(topics []Topic) {
		for _, t := range topics {
			if len(texts) >= limit {
				return
			}
			if t.Text != "" {
				texts = append(texts, t.Text)
			}
			walk(t.Topics)
		}
	}
	walk(a.RelatedTopics)
	return texts
}
