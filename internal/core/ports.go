package core

import (
	"context"
)

// LLMClient defines the interface for classifying emails with an LLM provider
type LLMClient interface {
	// ClassifyEmail classifies an email given retrieval context from the
	// knowledge base. Implementations return *ProviderError for transport
	// failures and *ParseError for unusable responses.
	ClassifyEmail(ctx context.Context, email *Email, rctx *RetrievalContext) (*ClassificationResult, error)

	// ModelName identifies the underlying model for reporting
	ModelName() string
}

// Embedder produces similarity-search vectors for text
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// KnowledgeStore persists knowledge entries together with their embedding
// vectors. Vectors never leave the store except through ranked search.
type KnowledgeStore interface {
	// Insert stores an entry with its vector; ErrDuplicateID if the id exists
	Insert(ctx context.Context, entry *KnowledgeEntry, vector []float32) error

	// Search returns up to k entries of the given kind ranked by
	// decreasing similarity to the query vector
	Search(ctx context.Context, vector []float32, kind EntryKind, k int) ([]ScoredEntry, error)

	// Count returns the number of entries of the given kind
	Count(ctx context.Context, kind EntryKind) (int, error)

	// Close releases any underlying resources
	Close() error
}

// KnowledgeBase is the retrieval-augmentation surface used by the
// classifier. It owns the embedding index end to end.
type KnowledgeBase interface {
	// AddProduct ingests a product catalog entry
	AddProduct(ctx context.Context, id, name, description, category string, metadata map[string]any) error

	// AddCommonQuery ingests a known query/classification pair
	AddCommonQuery(ctx context.Context, id, text string, category Category, confidence float64, metadata map[string]any) error

	// AddClassificationRecord ingests a past classification outcome
	AddClassificationRecord(ctx context.Context, id, content string, category Category, confidence float64, metadata map[string]any) error

	// Query returns up to k entries of one kind, most similar first
	Query(ctx context.Context, text string, kind EntryKind, k int) ([]ScoredEntry, error)

	// ContextFor gathers retrieval context across all three kinds
	ContextFor(ctx context.Context, text string) (*RetrievalContext, error)

	// Counts returns per-kind entry counts (products, queries, history)
	Counts(ctx context.Context) (int, int, int, error)
}

// FeedbackLog is the append-only store of classification corrections
type FeedbackLog interface {
	// Append durably writes one record as a whole unit
	Append(ctx context.Context, record *FeedbackRecord) error

	// Count returns the number of records in the log
	Count(ctx context.Context) (int, error)
}
