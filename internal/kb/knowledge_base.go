// Package kb implements the vector knowledge base used to augment email
// classification with product, query, and historical context.
package kb

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/penta/email-classifier/internal/core"
)

// DefaultTopK is the number of entries retrieved per collection when
// building classification context
const DefaultTopK = 3

// KnowledgeBase owns the embedding index over a KnowledgeStore. All
// ingestion is synchronous: once an Add call returns, a following Query
// observes the entry.
type KnowledgeBase struct {
	store    core.KnowledgeStore
	embedder core.Embedder
	logger   *zap.Logger
	topK     int
}

// New creates a knowledge base over the given store and embedder
func New(store core.KnowledgeStore, embedder core.Embedder, logger *zap.Logger, topK int) *KnowledgeBase {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &KnowledgeBase{
		store:    store,
		embedder: embedder,
		logger:   logger,
		topK:     topK,
	}
}

// AddProduct ingests a product catalog entry
func (kb *KnowledgeBase) AddProduct(ctx context.Context, id, name, description, category string, metadata map[string]any) error {
	meta := map[string]any{
		"product_id": id,
		"name":       name,
	}
	for k, v := range metadata {
		meta[k] = v
	}
	return kb.add(ctx, &core.KnowledgeEntry{
		ID:       id,
		Kind:     core.KindProduct,
		Content:  name + ": " + description,
		Category: category,
		Metadata: meta,
	})
}

// AddCommonQuery ingests a known query/classification pair
func (kb *KnowledgeBase) AddCommonQuery(ctx context.Context, id, text string, category core.Category, confidence float64, metadata map[string]any) error {
	if !category.Valid() {
		return fmt.Errorf("%w: %q", core.ErrUnknownCategory, category)
	}
	meta := map[string]any{
		"query_id":   id,
		"confidence": confidence,
	}
	for k, v := range metadata {
		meta[k] = v
	}
	return kb.add(ctx, &core.KnowledgeEntry{
		ID:       id,
		Kind:     core.KindQuery,
		Content:  text,
		Category: string(category),
		Metadata: meta,
	})
}

// AddClassificationRecord ingests a past classification outcome
func (kb *KnowledgeBase) AddClassificationRecord(ctx context.Context, id, content string, category core.Category, confidence float64, metadata map[string]any) error {
	if !category.Valid() {
		return fmt.Errorf("%w: %q", core.ErrUnknownCategory, category)
	}
	meta := map[string]any{
		"email_id":   id,
		"confidence": confidence,
	}
	for k, v := range metadata {
		meta[k] = v
	}
	return kb.add(ctx, &core.KnowledgeEntry{
		ID:       id,
		Kind:     core.KindHistory,
		Content:  content,
		Category: string(category),
		Metadata: meta,
	})
}

func (kb *KnowledgeBase) add(ctx context.Context, entry *core.KnowledgeEntry) error {
	if entry.ID == "" {
		return fmt.Errorf("knowledge entry id must not be empty")
	}
	vector, err := kb.embedder.Embed(ctx, entry.Content)
	if err != nil {
		return fmt.Errorf("failed to embed knowledge entry %q: %w", entry.ID, err)
	}
	entry.CreatedAt = time.Now()

	if err := kb.store.Insert(ctx, entry, vector); err != nil {
		return err
	}
	kb.logger.Debug("Ingested knowledge entry",
		zap.String("id", entry.ID),
		zap.String("kind", string(entry.Kind)))
	return nil
}

// Query returns up to k entries of one kind ranked by decreasing
// similarity to the text. The result may be empty.
func (kb *KnowledgeBase) Query(ctx context.Context, text string, kind core.EntryKind, k int) ([]core.ScoredEntry, error) {
	if k <= 0 {
		return nil, nil
	}
	vector, err := kb.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return kb.store.Search(ctx, vector, kind, k)
}

// ContextFor gathers retrieval context for a classification call. The
// query text is embedded once and reused across the three collections.
func (kb *KnowledgeBase) ContextFor(ctx context.Context, text string) (*core.RetrievalContext, error) {
	vector, err := kb.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	rctx := &core.RetrievalContext{}
	if rctx.SimilarQueries, err = kb.store.Search(ctx, vector, core.KindQuery, kb.topK); err != nil {
		return nil, err
	}
	if rctx.RelevantProducts, err = kb.store.Search(ctx, vector, core.KindProduct, kb.topK); err != nil {
		return nil, err
	}
	if rctx.SimilarHistory, err = kb.store.Search(ctx, vector, core.KindHistory, kb.topK); err != nil {
		return nil, err
	}
	return rctx, nil
}

// Counts returns per-kind entry counts
func (kb *KnowledgeBase) Counts(ctx context.Context) (products, queries, history int, err error) {
	if products, err = kb.store.Count(ctx, core.KindProduct); err != nil {
		return 0, 0, 0, err
	}
	if queries, err = kb.store.Count(ctx, core.KindQuery); err != nil {
		return 0, 0, 0, err
	}
	if history, err = kb.store.Count(ctx, core.KindHistory); err != nil {
		return 0, 0, 0, err
	}
	return products, queries, history, nil
}

// Close releases the underlying store
func (kb *KnowledgeBase) Close() error {
	return kb.store.Close()
}
