package tools

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penta/email-classifier/internal/core"
)

func echoTool(name string) Definition {
	return Definition{
		Name:        name,
		Description: "echoes its arguments",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"message": map[string]any{"type": "string"},
				"count":   map[string]any{"type": "number"},
			},
			"required": []string{"message"},
		},
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			return args, nil
		},
	}
}

func TestRegistryRegisterAndCall(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("echo")))
	assert.Equal(t, 1, r.Count())

	result, err := r.Call(context.Background(), "echo", map[string]any{"message": "hi"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"message": "hi"}, result)
}

func TestRegistryRejectsInvalidDefinitions(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Register(Definition{Name: "", Handler: func(context.Context, map[string]any) (any, error) { return nil, nil }}))
	assert.Error(t, r.Register(Definition{Name: "no-handler"}))
}

func TestRegistryUnknownTool(t *testing.T) {
	r := NewRegistry()
	_, err := r.Call(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestRegistryValidatesRequiredArguments(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("echo")))

	_, err := r.Call(context.Background(), "echo", map[string]any{"count": 2.0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing required argument "message"`)
}

func TestRegistryValidatesArgumentTypes(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("echo")))

	_, err := r.Call(context.Background(), "echo", map[string]any{"message": 42})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected string")

	_, err = r.Call(context.Background(), "echo", map[string]any{"message": "ok", "count": "three"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected number")

	// Arguments outside the schema pass through
	_, err = r.Call(context.Background(), "echo", map[string]any{"message": "ok", "extra": true})
	assert.NoError(t, err)
}

func TestRegistryHandlerErrorsPropagate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Definition{
		Name: "failing",
		Handler: func(context.Context, map[string]any) (any, error) {
			return nil, fmt.Errorf("backend unavailable")
		},
	}))

	_, err := r.Call(context.Background(), "failing", nil)
	assert.EqualError(t, err, "backend unavailable")
}

type staticSearcher struct {
	entries []core.ScoredEntry
}

func (s *staticSearcher) Query(_ context.Context, _ string, _ core.EntryKind, _ int) ([]core.ScoredEntry, error) {
	return s.entries, nil
}

func TestDefaultRegistryTools(t *testing.T) {
	r := NewDefaultRegistry(nil)
	assert.Equal(t, 4, r.Count())
	assert.ElementsMatch(t,
		[]string{"lookup_order", "check_product_availability", "get_shipping_quote", "search_knowledge_base"},
		r.Names())
}

func TestDefaultRegistrySearchKnowledgeBase(t *testing.T) {
	searcher := &staticSearcher{entries: []core.ScoredEntry{
		{
			Entry:      core.KnowledgeEntry{Content: "Citric Acid: acidulant", Category: "acidulants"},
			Similarity: 0.87,
		},
	}}
	r := NewDefaultRegistry(searcher)

	result, err := r.Call(context.Background(), "search_knowledge_base",
		map[string]any{"query": "citric acid"})
	require.NoError(t, err)

	payload, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "citric acid", payload["query"])

	results, ok := payload["results"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, results, 1)
	assert.Equal(t, "Citric Acid: acidulant", results[0]["content"])
	assert.Equal(t, 0.87, results[0]["similarity"])
}

func TestDefaultRegistryRequiredArgs(t *testing.T) {
	r := NewDefaultRegistry(nil)

	_, err := r.Call(context.Background(), "check_product_availability", map[string]any{})
	assert.Error(t, err)

	_, err = r.Call(context.Background(), "get_shipping_quote", map[string]any{"weight": 10.0})
	assert.Error(t, err)

	result, err := r.Call(context.Background(), "lookup_order", map[string]any{"order_id": "12345"})
	require.NoError(t, err)
	payload := result.(map[string]any)
	assert.Equal(t, "12345", payload["order_id"])
}
