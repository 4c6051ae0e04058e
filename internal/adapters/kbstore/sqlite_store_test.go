package kbstore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/penta/email-classifier/internal/core"
)

func newTestSQLiteStore(t *testing.T, path string) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(path, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreInsertAndSearch(t *testing.T) {
	store := newTestSQLiteStore(t, filepath.Join(t.TempDir(), "kb.db"))
	ctx := context.Background()

	err := store.Insert(ctx, &core.KnowledgeEntry{
		ID:        "prod-1",
		Kind:      core.KindProduct,
		Content:   "Citric Acid: food grade acidulant",
		Category:  "acidulants",
		Metadata:  map[string]any{"name": "Citric Acid"},
		CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}, []float32{1, 0, 0})
	require.NoError(t, err)

	err = store.Insert(ctx, &core.KnowledgeEntry{
		ID:      "prod-2",
		Kind:    core.KindProduct,
		Content: "Xanthan Gum: thickener",
	}, []float32{0, 1, 0})
	require.NoError(t, err)

	results, err := store.Search(ctx, []float32{1, 0, 0}, core.KindProduct, 5)
	require.NoError(t, err)
	require.Len(t, results, 2)

	top := results[0]
	assert.Equal(t, "prod-1", top.Entry.ID)
	assert.Equal(t, core.KindProduct, top.Entry.Kind)
	assert.Equal(t, "Citric Acid: food grade acidulant", top.Entry.Content)
	assert.Equal(t, "acidulants", top.Entry.Category)
	assert.Equal(t, "Citric Acid", top.Entry.Metadata["name"])
	assert.Equal(t, 2024, top.Entry.CreatedAt.Year())
	assert.InDelta(t, 1.0, top.Similarity, 1e-6)
	assert.Greater(t, top.Similarity, results[1].Similarity)
}

func TestSQLiteStoreRejectsDuplicateID(t *testing.T) {
	store := newTestSQLiteStore(t, filepath.Join(t.TempDir(), "kb.db"))
	ctx := context.Background()

	entry := &core.KnowledgeEntry{ID: "e1", Kind: core.KindQuery, Content: "q"}
	require.NoError(t, store.Insert(ctx, entry, []float32{1}))

	err := store.Insert(ctx, entry, []float32{1})
	assert.ErrorIs(t, err, core.ErrDuplicateID)
}

func TestSQLiteStoreConcurrentDuplicateInsert(t *testing.T) {
	store := newTestSQLiteStore(t, filepath.Join(t.TempDir(), "kb.db"))
	ctx := context.Background()

	const rounds = 50
	for i := 0; i < rounds; i++ {
		entry := &core.KnowledgeEntry{
			ID:      fmt.Sprintf("dup-%d", i),
			Kind:    core.KindQuery,
			Content: "q",
		}

		errs := make([]error, 2)
		var wg sync.WaitGroup
		for j := range errs {
			wg.Add(1)
			go func(j int) {
				defer wg.Done()
				errs[j] = store.Insert(ctx, entry, []float32{1})
			}(j)
		}
		wg.Wait()

		var inserted, rejected int
		for _, err := range errs {
			switch {
			case err == nil:
				inserted++
			case errors.Is(err, core.ErrDuplicateID):
				rejected++
			default:
				t.Fatalf("round %d: unexpected insert error: %v", i, err)
			}
		}
		assert.Equal(t, 1, inserted, "round %d", i)
		assert.Equal(t, 1, rejected, "round %d", i)
	}
}

func TestSQLiteStoreCount(t *testing.T) {
	store := newTestSQLiteStore(t, filepath.Join(t.TempDir(), "kb.db"))
	ctx := context.Background()

	for _, id := range []string{"h1", "h2", "h3"} {
		require.NoError(t, store.Insert(ctx, &core.KnowledgeEntry{
			ID: id, Kind: core.KindHistory, Content: "c",
		}, []float32{1}))
	}

	n, err := store.Count(ctx, core.KindHistory)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = store.Count(ctx, core.KindProduct)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.Insert(ctx, &core.KnowledgeEntry{
		ID: "persist", Kind: core.KindProduct, Content: "c",
	}, []float32{0.5, 0.5}))
	require.NoError(t, store.Close())

	reopened := newTestSQLiteStore(t, path)
	results, err := reopened.Search(ctx, []float32{0.5, 0.5}, core.KindProduct, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "persist", results[0].Entry.ID)
}

func TestSQLiteStoreSearchToleratesBadTimestamp(t *testing.T) {
	obsCore, logs := observer.New(zap.WarnLevel)
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "kb.db"), zap.New(obsCore))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()

	_, err = store.db.ExecContext(ctx, `
		INSERT INTO kb_entries (id, kind, content, category, metadata, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, "bad-ts", string(core.KindQuery), "q", "", "", encodeVector([]float32{1}), "not-a-timestamp")
	require.NoError(t, err)

	results, err := store.Search(ctx, []float32{1}, core.KindQuery, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Entry.CreatedAt.IsZero())
	assert.Equal(t, 1, logs.FilterMessage("Failed to parse entry timestamp").Len())
}

func TestVectorCodecRoundTrip(t *testing.T) {
	vec := []float32{0.25, -1.5, 3.125, 0}
	decoded, err := decodeVector(encodeVector(vec))
	require.NoError(t, err)
	assert.Equal(t, vec, decoded)

	_, err = decodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}
