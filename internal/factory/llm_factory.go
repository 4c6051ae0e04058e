package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/penta/email-classifier/internal/adapters/anthropic"
	"github.com/penta/email-classifier/internal/adapters/bedrock"
	"github.com/penta/email-classifier/internal/adapters/gemini"
	"github.com/penta/email-classifier/internal/adapters/openai"
	"github.com/penta/email-classifier/internal/config"
	"github.com/penta/email-classifier/internal/core"
	"github.com/penta/email-classifier/internal/tools"
	"github.com/penta/email-classifier/internal/utils"
)

// LLMFactory creates LLM clients
type LLMFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	registry      *tools.Registry
	textProcessor *utils.TextProcessor
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger, registry *tools.Registry, textProcessor *utils.TextProcessor) *LLMFactory {
	return &LLMFactory{
		cfg:           cfg,
		logger:        logger,
		registry:      registry,
		textProcessor: textProcessor,
	}
}

// CreateLLMClient creates a new LLM client based on the configuration
func (f *LLMFactory) CreateLLMClient() (core.LLMClient, error) {
	llmConfig := f.cfg.GetLLM()

	switch llmConfig.Provider {
	case "anthropic":
		factory := anthropic.NewFactory(f.cfg, f.logger, f.registry, f.textProcessor)
		return factory.CreateLLMClient()
	case "openai":
		factory := openai.NewFactory(f.cfg, f.logger, f.registry, f.textProcessor)
		return factory.CreateLLMClient()
	case "gemini":
		factory := gemini.NewFactory(f.cfg, f.logger, f.textProcessor)
		return factory.CreateLLMClient()
	case "bedrock":
		factory := bedrock.NewFactory(f.cfg, f.logger, f.textProcessor)
		return factory.CreateLLMClient()
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", llmConfig.Provider)
	}
}
