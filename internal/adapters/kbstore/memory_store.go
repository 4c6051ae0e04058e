package kbstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/penta/email-classifier/internal/adapters/embedding"
	"github.com/penta/email-classifier/internal/core"
)

// storedEntry pairs a knowledge entry with its embedding vector
type storedEntry struct {
	entry  core.KnowledgeEntry
	vector []float32
}

// MemoryStore is an in-memory implementation of the KnowledgeStore
// interface. Writes are serialized against reads, so a Search issued
// after Insert returns always observes the new entry.
type MemoryStore struct {
	entries map[string]*storedEntry
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewMemoryStore creates a new in-memory knowledge store
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*storedEntry),
		logger:  logger,
	}
}

// Insert stores an entry with its vector
func (s *MemoryStore) Insert(_ context.Context, entry *core.KnowledgeEntry, vector []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[entry.ID]; ok {
		return fmt.Errorf("%w: %q", core.ErrDuplicateID, entry.ID)
	}

	vec := make([]float32, len(vector))
	copy(vec, vector)
	s.entries[entry.ID] = &storedEntry{entry: *entry, vector: vec}
	return nil
}

// Search returns up to k entries of the given kind, most similar first
func (s *MemoryStore) Search(_ context.Context, vector []float32, kind core.EntryKind, k int) ([]core.ScoredEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var scored []core.ScoredEntry
	for _, se := range s.entries {
		if se.entry.Kind != kind {
			continue
		}
		scored = append(scored, core.ScoredEntry{
			Entry:      se.entry,
			Similarity: embedding.Cosine(vector, se.vector),
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// Count returns the number of entries of the given kind
func (s *MemoryStore) Count(_ context.Context, kind core.EntryKind) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, se := range s.entries {
		if se.entry.Kind == kind {
			n++
		}
	}
	return n, nil
}

// Close is a no-op for the in-memory store
func (s *MemoryStore) Close() error {
	return nil
}
