package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/penta/email-classifier/internal/adapters/embedding"
	"github.com/penta/email-classifier/internal/config"
	"github.com/penta/email-classifier/internal/core"
)

// EmbedderFactory creates embedding backends based on configuration
type EmbedderFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewEmbedderFactory creates a new embedder factory
func NewEmbedderFactory(cfg *config.Config, logger *zap.Logger) *EmbedderFactory {
	return &EmbedderFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateEmbedder creates an embedding backend based on the configuration
func (f *EmbedderFactory) CreateEmbedder() (core.Embedder, error) {
	embCfg := f.cfg.GetEmbedding()

	switch embCfg.Provider {
	case "hash":
		return embedding.NewHashEmbedder(embCfg.Dimensions), nil
	case "openai":
		apiKey := f.cfg.GetString("openai.api_key")
		if apiKey == "" {
			return nil, fmt.Errorf("openai API key is required for openai embeddings")
		}
		return embedding.NewOpenAIEmbedder(apiKey, embCfg.OpenAIModel, f.logger), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", embCfg.Provider)
	}
}
