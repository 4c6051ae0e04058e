// Package feedback implements the append-only classification feedback log.
package feedback

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/penta/email-classifier/internal/core"
)

// FileLog is a JSONL implementation of the FeedbackLog interface. Each
// record occupies one line, written with a single Write call under a
// mutex so concurrent appends never interleave.
type FileLog struct {
	path   string
	file   *os.File
	mu     sync.Mutex
	logger *zap.Logger
}

// NewFileLog opens (or creates) the feedback log at path
func NewFileLog(path string, logger *zap.Logger) (*FileLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create feedback log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open feedback log: %w", err)
	}

	return &FileLog{path: path, file: file, logger: logger}, nil
}

// Append durably writes one record as a whole unit
func (l *FileLog) Append(_ context.Context, record *core.FeedbackRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal feedback record: %w", err)
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.file.Write(data); err != nil {
		return fmt.Errorf("failed to write feedback record: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync feedback log: %w", err)
	}

	l.logger.Debug("Appended feedback record",
		zap.String("email_id", record.EmailID),
		zap.String("correct_category", string(record.CorrectCategory)))
	return nil
}

// Count returns the number of records in the log
func (l *FileLog) Count(_ context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to open feedback log: %w", err)
	}
	defer f.Close()

	n := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if len(scanner.Bytes()) > 0 {
			n++
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("failed to read feedback log: %w", err)
	}
	return n, nil
}

// Records reads back every record in the log in append order
func (l *FileLog) Records(_ context.Context) ([]core.FeedbackRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open feedback log: %w", err)
	}
	defer f.Close()

	var records []core.FeedbackRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var record core.FeedbackRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, fmt.Errorf("failed to decode feedback record: %w", err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read feedback log: %w", err)
	}
	return records, nil
}

// Close closes the underlying file
func (l *FileLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
