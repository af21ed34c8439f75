package websearch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/m-mizutani/alfred/tool/websearch"
	"github.com/m-mizutani/gt"
)

func newServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gt.Equal(t, q.Get("format"), "json")
		gt.Equal(t, q.Get("no_html"), "1")
		gt.Equal(t, q.Get("skip_disambig"), "1")
		w.Header().Set("Content-Type", "application/x-javascript")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSpec(t *testing.T) {
	spec := websearch.New().Spec()
	gt.NoError(t, spec.Validate())
	gt.Equal(t, spec.Name, "web_search")
}

func TestInvokeSummary(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{
		"Heading": "Nikola Tesla",
		"AbstractText": "Nikola Tesla was a Serbian-American engineer.",
		"AbstractURL": "https://en.wikipedia.org/wiki/Nikola_Tesla",
		"RelatedTopics": [
			{"Text": "Tesla coil", "FirstURL": "https://duckduckgo.com/Tesla_coil"},
			{"Name": "Inventions", "Topics": [
				{"Text": "Induction motor"},
				{"Text": "Radio"}
			]},
			{"Text": "Wardenclyffe Tower"},
			{"Text": "Tesla unit"},
			{"Text": "Sixth topic is dropped"}
		]
	}`)

	tool := websearch.New(websearch.WithBaseURL(srv.URL))
	out := tool.Invoke(context.Background(), map[string]any{"query": "Nikola Tesla"})

	gt.True(t, strings.HasPrefix(out, "Nikola Tesla\nAbstract: Nikola Tesla was a Serbian-American engineer."))
	gt.S(t, out).Contains("Source: https://en.wikipedia.org/wiki/Nikola_Tesla")
	gt.S(t, out).Contains("Related topics: Tesla coil; Induction motor; Radio; Wardenclyffe Tower; Tesla unit")
	gt.False(t, strings.Contains(out, "Sixth topic"))
}

func TestInvokeAnswerAndDefinition(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"Answer": "42", "Definition": "A number."}`)

	tool := websearch.New(websearch.WithBaseURL(srv.URL))
	out := tool.Invoke(context.Background(), map[string]any{"query": "answer"})
	gt.Equal(t, out, "Answer: 42\n\nDefinition: A number.")
}

func TestInvokeNoResults(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"Heading": "", "RelatedTopics": []}`)

	tool := websearch.New(websearch.WithBaseURL(srv.URL))
	out := tool.Invoke(context.Background(), map[string]any{"query": "zzzz"})
	gt.Equal(t, out, websearch.NoResults)
}

func TestInvokeErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("status", func(t *testing.T) {
		srv := newServer(t, http.StatusTooManyRequests, `{}`)
		tool := websearch.New(websearch.WithBaseURL(srv.URL))
		out := tool.Invoke(ctx, map[string]any{"query": "gala"})
		gt.S(t, out).Contains("Error searching the web for 'gala': ")
		gt.S(t, out).Contains("429")
	})

	t.Run("malformed", func(t *testing.T) {
		srv := newServer(t, http.StatusOK, `<html>`)
		tool := websearch.New(websearch.WithBaseURL(srv.URL))
		out := tool.Invoke(ctx, map[string]any{"query": "gala"})
		gt.S(t, out).Contains("Error searching the web for 'gala': ")
	})
}
