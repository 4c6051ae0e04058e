package kbstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/penta/email-classifier/internal/adapters/embedding"
	"github.com/penta/email-classifier/internal/core"
)

// mysqlErrDuplicateEntry is the server error number for a unique key
// violation (ER_DUP_ENTRY)
const mysqlErrDuplicateEntry = 1062

// MySQLStore is a MySQL implementation of the KnowledgeStore interface
type MySQLStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMySQLStore creates a new MySQL knowledge store
func NewMySQLStore(dsn string, logger *zap.Logger) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS kb_entries (
			id VARCHAR(255) PRIMARY KEY,
			kind VARCHAR(32) NOT NULL,
			content TEXT NOT NULL,
			category VARCHAR(64),
			metadata TEXT,
			embedding MEDIUMBLOB NOT NULL,
			created_at TIMESTAMP,
			INDEX idx_kb_kind (kind)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &MySQLStore{db: db, logger: logger}, nil
}

// Insert stores an entry with its vector. Duplicate detection relies on
// the primary key constraint so concurrent inserts of the same id cannot
// race past a pre-check.
func (s *MySQLStore) Insert(ctx context.Context, entry *core.KnowledgeEntry, vector []float32) error {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal entry metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO kb_entries (id, kind, content, category, metadata, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, string(entry.Kind), entry.Content, entry.Category, string(metadata),
		encodeVector(vector), entry.CreatedAt)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry {
			return fmt.Errorf("%w: %q", core.ErrDuplicateID, entry.ID)
		}
		return fmt.Errorf("failed to insert knowledge entry: %w", err)
	}
	return nil
}

// Search returns up to k entries of the given kind, most similar first
func (s *MySQLStore) Search(ctx context.Context, vector []float32, kind core.EntryKind, k int) ([]core.ScoredEntry, error) {
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
			category  sql.NullString
			metadata  sql.NullString
			blob      []byte
			createdAt sql.NullTime
		)
		if err := rows.Scan(&entry.ID, &entry.Content, &category, &metadata, &blob, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan knowledge entry: %w", err)
		}
		entry.Kind = kind
		entry.Category = category.String
		if createdAt.Valid {
			entry.CreatedAt = createdAt.Time
		}

		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &entry.Metadata); err != nil {
				s.logger.Warn("Failed to decode entry metadata",
					zap.Error(err), zap.String("id", entry.ID))
			}
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
func (s *MySQLStore) Count(ctx context.Context, kind core.EntryKind) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM kb_entries WHERE kind = ?`, string(kind)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count knowledge entries: %w", err)
	}
	return n, nil
}

// Close closes the database connection
func (s *MySQLStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close MySQL database: %w", err)
	}
	return nil
}
