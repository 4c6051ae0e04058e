package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/penta/email-classifier/internal/adapters/kbstore"
	"github.com/penta/email-classifier/internal/config"
	"github.com/penta/email-classifier/internal/core"
)

// StoreFactory creates knowledge stores based on configuration
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new knowledge store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateKnowledgeStore creates a knowledge store based on the configuration
func (f *StoreFactory) CreateKnowledgeStore() (core.KnowledgeStore, error) {
	kbCfg := f.cfg.GetKnowledgeBase()

	switch kbCfg.StoreType {
	case "memory":
		return kbstore.NewMemoryStore(f.logger), nil
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(kbCfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return kbstore.NewSQLiteStore(kbCfg.SQLitePath, f.logger)
	case "mysql":
		return kbstore.NewMySQLStore(kbCfg.MySQLDSN, f.logger)
	default:
		return nil, fmt.Errorf("unsupported knowledge store type: %s", kbCfg.StoreType)
	}
}
