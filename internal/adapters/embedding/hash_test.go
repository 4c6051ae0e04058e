package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashEmbedderDeterministic(t *testing.T) {
	e := NewHashEmbedder(128)
	ctx := context.Background()

	a, err := e.Embed(ctx, "price quote for citric acid")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "price quote for citric acid")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 128)
}

func TestHashEmbedderNormalized(t *testing.T) {
	e := NewHashEmbedder(0) // falls back to DefaultDimensions
	vec, err := e.Embed(context.Background(), "sodium benzoate preservative shelf life")
	require.NoError(t, err)
	require.Len(t, vec, DefaultDimensions)

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestHashEmbedderEmptyText(t *testing.T) {
	e := NewHashEmbedder(64)
	vec, err := e.Embed(context.Background(), "   ")
	require.NoError(t, err)

	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestHashEmbedderSimilarTextsScoreHigher(t *testing.T) {
	e := NewHashEmbedder(256)
	ctx := context.Background()

	base, err := e.Embed(ctx, "requesting a quote for 500 kg citric acid")
	require.NoError(t, err)
	similar, err := e.Embed(ctx, "requesting a quote for 200 kg citric acid")
	require.NoError(t, err)
	unrelated, err := e.Embed(ctx, "invoice payment overdue account balance")
	require.NoError(t, err)

	assert.Greater(t, Cosine(base, similar), Cosine(base, unrelated))
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)

	// Zero vectors and mismatched lengths score zero
	assert.Zero(t, Cosine([]float32{0, 0}, []float32{1, 0}))
	assert.Zero(t, Cosine([]float32{1}, []float32{1, 0}))
}
