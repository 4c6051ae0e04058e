package kbstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/penta/email-classifier/internal/adapters/embedding"
	"github.com/penta/email-classifier/internal/core"
)

// SQLiteStore is a SQLite implementation of the KnowledgeStore interface
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore creates a new SQLite knowledge store
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS kb_entries (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			content TEXT NOT NULL,
			category TEXT,
			metadata TEXT,
			embedding BLOB NOT NULL,
			created_at TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_kb_kind ON kb_entries(kind)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Insert stores an entry with its vector. Duplicate detection relies on
// the primary key constraint so concurrent inserts of the same id cannot
// race past a pre-check.
func (s *SQLiteStore) Insert(ctx context.Context, entry *core.KnowledgeEntry, vector []float32) error {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal entry metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO kb_entries (id, kind, content, category, metadata, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, string(entry.Kind), entry.Content, entry.Category, string(metadata),
		encodeVector(vector), entry.CreatedAt.Format(time.RFC3339))
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) &&
			(sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
				sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique) {
			return fmt.Errorf("%w: %q", core.ErrDuplicateID, entry.ID)
		}
		return fmt.Errorf("failed to insert knowledge entry: %w", err)
	}
	return nil
}

// Search returns up to k entries of the given kind, most similar first.
// Ranking is brute-force cosine over all rows of the kind; the store is
// local and collection sizes stay small.
func (s *SQLiteStore) Search(ctx context.Context, vector []float32, kind core.EntryKind, k int) ([]core.ScoredEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content, category, metadata, embedding, created_at
		FROM kb_entries
		WHERE kind = ?
	`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to query knowledge entries: %w", err)
	}
	defer rows.Close()

	var scored []core.ScoredEntry
	for rows.Next() {
		var (
			entry     core.KnowledgeEntry
			metadata  string
			blob      []byte
			createdAt string
		)
		if err := rows.Scan(&entry.ID, &entry.Content, &entry.Category, &metadata, &blob, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan knowledge entry: %w", err)
		}
		entry.Kind = kind

		if metadata != "" {
			if err := json.Unmarshal([]byte(metadata), &entry.Metadata); err != nil {
				s.logger.Warn("Failed to decode entry metadata",
					zap.Error(err), zap.String("id", entry.ID))
			}
		}
		if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
			entry.CreatedAt = ts
		} else {
			s.logger.Warn("Failed to parse entry timestamp",
				zap.Error(err), zap.String("id", entry.ID))
		}

		vec, err := decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("failed to decode embedding for %q: %w", entry.ID, err)
		}

		scored = append(scored, core.ScoredEntry{
			Entry:      entry,
			Similarity: embedding.Cosine(vector, vec),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate knowledge entries: %w", err)
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
func (s *SQLiteStore) Count(ctx context.Context, kind core.EntryKind) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM kb_entries WHERE kind = ?`, string(kind)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count knowledge entries: %w", err)
	}
	return n, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close SQLite database: %w", err)
	}
	return nil
}
