package anthropic

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/penta/email-classifier/internal/config"
	"github.com/penta/email-classifier/internal/core"
	"github.com/penta/email-classifier/internal/tools"
	"github.com/penta/email-classifier/internal/utils"
)

// Factory creates new instances of AnthropicClient
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	registry      *tools.Registry
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new factory for AnthropicClient instances
func NewFactory(cfg *config.Config, logger *zap.Logger, registry *tools.Registry, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		registry:      registry,
		textProcessor: textProcessor,
	}
}

// CreateLLMClient creates a new AnthropicClient
func (f *Factory) CreateLLMClient() (core.LLMClient, error) {
	anthropicCfg := f.cfg.GetAnthropic()
	if anthropicCfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	return NewAnthropicClient(
		anthropicCfg.BaseURL,
		anthropicCfg.APIKey,
		anthropicCfg.Model,
		anthropicCfg.MaxTokens,
		anthropicCfg.Temperature,
		anthropicCfg.MaxBodySize,
		f.logger,
		f.registry,
		f.textProcessor,
	), nil
}
