// Package retriever provides the guest information tool: a BM25 lexical
// retriever built once over the gala invitee corpus.
package retriever

import (
	"context"
	"log/slog"
	"strings"

	"github.com/m-mizutani/alfred"
)

const (
	// ToolName is the name under which the retriever is registered.
	ToolName = "guest_info_retriever"

	// Separator joins the contents of the returned documents.
	Separator = "\n\n---\n\n"

	// NoMatch is returned when no document shares a term with the query.
	NoMatch = "No matching guest information found."

	// DefaultTopK is the number of documents returned per query.
	DefaultTopK = 3
)

// Tool is the guest information retriever.
type Tool struct {
	index  *Index
	topK   int
	logger *slog.Logger
}

// Option configures a Tool.
type Option func(*Tool)

// WithTopK overrides the number of documents returned per query.
func WithTopK(k int) Option {
	return func(x *Tool) {
		x.topK = k
	}
}

// WithLogger sets the logger. Default is discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(x *Tool) {
		x.logger = logger
	}
}

// New builds the BM25 index over docs and returns the tool. It fails with
// ErrEmptyCorpus when docs is empty.
func New(docs []Document, opts ...Option) (*Tool, error) {
	x := &Tool{
		topK:   DefaultTopK,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(x)
	}

	x.logger.Info("building retriever index", "documents", len(docs))
	index, err := NewIndex(docs)
	if err != nil {
		return nil, err
	}
	x.index = index

	return x, nil
}

// Spec implements alfred.Tool.
func (x *Tool) Spec() alfred.ToolSpec {
	return alfred.ToolSpec{
		Name:        ToolName,
		Description: "Retrieves detailed information about gala guests based on their name or relation.",
		Parameters: map[string]*alfred.Parameter{
			"query": {
				Type:        alfred.TypeString,
				Description: "The name or relation of the guest you want information about.",
				Required:    true,
			},
		},
		OutputType: alfred.OutputString,
	}
}

// Invoke implements alfred.Tool.
func (x *Tool) Invoke(ctx context.Context, args map[string]any) string {
	query, ok := args["query"].(string)
	if !ok {
		return "Error: query must be a string."
	}
	return x.Query(query)
}

// Query returns the contents of the best matching documents joined by
// Separator, or NoMatch.
func (x *Tool) Query(query string) string {
	results := x.index.Search(query, x.topK)
	x.logger.Debug("retriever query", "query", query, "matches", len(results))

	if len(results) == 0 {
		return NoMatch
	}

	contents := make([]string, len(results))
	for i, r := range results {
		contents[i] = r.Document.Content
	}
	return strings.Join(contents, Separator)
}
