package retriever_test

import (
	"context"
	"strings"
	"testing"

	"github.com/m-mizutani/alfred"
	"github.com/m-mizutani/alfred/tool/retriever"
	"github.com/m-mizutani/gt"
)

func TestNewToolEmptyCorpus(t *testing.T) {
	tool, err := retriever.New(nil)
	gt.Error(t, err)
	gt.Value(t, tool).Nil()
}

func TestToolSpec(t *testing.T) {
	tool, err := retriever.New(guests())
	gt.NoError(t, err).Required()

	spec := tool.Spec()
	gt.NoError(t, spec.Validate())
	gt.Equal(t, spec.Name, "guest_info_retriever")
	gt.Equal(t, spec.OutputType, alfred.OutputString)
	gt.Equal(t, spec.Parameters["query"].Type, alfred.TypeString)
}

func TestToolInvoke(t *testing.T) {
	tool, err := retriever.New(guests())
	gt.NoError(t, err).Required()
	ctx := context.Background()

	t.Run("returns at most three documents", func(t *testing.T) {
		out := tool.Invoke(ctx, map[string]any{"query": "friend Ada Tesla Curie Babbage"})
		parts := strings.Split(out, retriever.Separator)
		gt.A(t, parts).Length(3)
		for _, p := range parts {
			gt.True(t, strings.HasPrefix(p, "Name: "))
		}
	})

	t.Run("best match first", func(t *testing.T) {
		out := tool.Invoke(ctx, map[string]any{"query": "Lady Ada Lovelace"})
		gt.True(t, strings.HasPrefix(out, "Name: Ada Lovelace\nRelation: best friend\n"))
	})

	t.Run("single match has no separator", func(t *testing.T) {
		out := tool.Invoke(ctx, map[string]any{"query": "radioactivity"})
		gt.False(t, strings.Contains(out, retriever.Separator))
		gt.S(t, out).Contains("Email: marie.curie@example.com")
	})

	t.Run("no match returns sentinel exactly", func(t *testing.T) {
		out := tool.Invoke(ctx, map[string]any{"query": "zeppelin"})
		gt.Equal(t, out, "No matching guest information found.")
	})

	t.Run("non string query", func(t *testing.T) {
		out := tool.Invoke(ctx, map[string]any{"query": 42})
		gt.S(t, out).Contains("Error")
	})
}

func TestToolTopK(t *testing.T) {
	tool, err := retriever.New(guests(), retriever.WithTopK(1))
	gt.NoError(t, err).Required()

	out := tool.Query("friend")
	gt.False(t, strings.Contains(out, retriever.Separator))
}

func TestToolInRegistry(t *testing.T) {
	tool, err := retriever.New(guests())
	gt.NoError(t, err).Required()

	registry, err := alfred.NewRegistry(tool)
	gt.NoError(t, err).Required()

	out := registry.Invoke(context.Background(), alfred.FunctionCall{
		Name:      retriever.ToolName,
		Arguments: map[string]any{"query": "Tesla"},
	})
	gt.S(t, out).Contains("Nikola Tesla")
}
