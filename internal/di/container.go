// Package di wires the classifier CLI together with a dig container.
package di

import (
	"flag"

	"go.uber.org/dig"
	"go.uber.org/zap"

	adapterfeedback "github.com/penta/email-classifier/internal/adapters/feedback"
	"github.com/penta/email-classifier/internal/config"
	"github.com/penta/email-classifier/internal/core"
	"github.com/penta/email-classifier/internal/factory"
	"github.com/penta/email-classifier/internal/kb"
	"github.com/penta/email-classifier/internal/logging"
	"github.com/penta/email-classifier/internal/tools"
	"github.com/penta/email-classifier/internal/utils"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// LLM provider flags
	Provider    string
	MaxTokens   int
	Temperature float64
	TopP        float64
	MaxBodySize int

	// Anthropic flags
	AnthropicAPIKey string
	AnthropicModel  string

	// OpenAI flags
	OpenAIAPIKey    string
	OpenAIModelName string

	// Gemini flags
	GeminiAPIKey    string
	GeminiModelName string

	// Bedrock flags
	BedrockRegion  string
	BedrockModelID string

	// Classification flags
	ConfidenceThreshold float64
	DisableLearning     bool

	// Knowledge base flags
	StoreType  string
	SQLitePath string
	MySQLDSN   string

	// Feedback flags
	FeedbackLogPath  string
	FeedbackOriginal string
	FeedbackCorrect  string
	FeedbackNotes    string

	// Stats flags
	ShowStats bool

	// Input flags
	InputFile  string
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	flags := &CLIFlags{}

	// LLM provider flags
	flag.StringVar(&flags.Provider, "provider", "anthropic", "LLM provider (anthropic, openai, gemini, bedrock)")
	flag.IntVar(&flags.MaxTokens, "max-tokens", 1500, "Maximum tokens for LLM response")
	flag.Float64Var(&flags.Temperature, "temperature", 0.2, "Temperature for LLM generation")
	flag.Float64Var(&flags.TopP, "top-p", 0.9, "Top-p for LLM generation")
	flag.IntVar(&flags.MaxBodySize, "max-body-size", 8192, "Maximum email body size to send to LLM")

	// Anthropic flags
	flag.StringVar(&flags.AnthropicAPIKey, "anthropic-api-key", "", "API key for Anthropic")
	flag.StringVar(&flags.AnthropicModel, "anthropic-model", "claude-3-5-sonnet-20240620", "Anthropic model name")

	// OpenAI flags
	flag.StringVar(&flags.OpenAIAPIKey, "openai-api-key", "", "API key for OpenAI")
	flag.StringVar(&flags.OpenAIModelName, "openai-model", "gpt-4-turbo-preview", "OpenAI model name")

	// Gemini flags
	flag.StringVar(&flags.GeminiAPIKey, "gemini-api-key", "", "API key for Google Gemini")
	flag.StringVar(&flags.GeminiModelName, "gemini-model", "gemini-pro", "Gemini model name")

	// Bedrock flags
	flag.StringVar(&flags.BedrockRegion, "bedrock-region", "us-east-1", "AWS region for Bedrock")
	flag.StringVar(&flags.BedrockModelID, "bedrock-model", "anthropic.claude-v2", "Bedrock model ID")

	// Classification flags
	flag.Float64Var(&flags.ConfidenceThreshold, "threshold", 0.7, "Confidence threshold below which results are flagged for review")
	flag.BoolVar(&flags.DisableLearning, "no-learning", false, "Disable knowledge base learning from classifications")

	// Knowledge base flags
	flag.StringVar(&flags.StoreType, "kb-store", "memory", "Knowledge store type (memory, sqlite, mysql)")
	flag.StringVar(&flags.SQLitePath, "kb-sqlite-path", "./data/knowledge_base.db", "SQLite database path for the knowledge store")
	flag.StringVar(&flags.MySQLDSN, "kb-mysql-dsn", "", "MySQL DSN for the knowledge store")

	// Feedback flags
	flag.StringVar(&flags.FeedbackLogPath, "feedback-log", "./data/feedback_log.jsonl", "Path to the feedback log")
	flag.StringVar(&flags.FeedbackOriginal, "feedback-original", "", "Original category when recording feedback for the input email")
	flag.StringVar(&flags.FeedbackCorrect, "feedback-correct", "", "Correct category when recording feedback for the input email")
	flag.StringVar(&flags.FeedbackNotes, "feedback-notes", "", "Optional notes to attach to the feedback record")

	// Stats flags
	flag.BoolVar(&flags.ShowStats, "stats", false, "Print classifier and knowledge base statistics after processing")

	// Input flags
	flag.StringVar(&flags.InputFile, "file", "", "Input email file (use stdin if not specified)")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	flag.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	flag.Parse()
	return flags
}

// BuildCLIContainer creates and configures a dependency injection
// container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.New()
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}
		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(func(logger *zap.Logger) *utils.TextProcessor {
		return factory.NewTextProcessorFactory(logger).CreateTextProcessor()
	}); err != nil {
		return nil, err
	}

	// Register knowledge store
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (core.KnowledgeStore, error) {
		return factory.NewStoreFactory(cfg, logger).CreateKnowledgeStore()
	}); err != nil {
		return nil, err
	}

	// Register embedder
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (core.Embedder, error) {
		return factory.NewEmbedderFactory(cfg, logger).CreateEmbedder()
	}); err != nil {
		return nil, err
	}

	// Register knowledge base
	if err := container.Provide(func(store core.KnowledgeStore, embedder core.Embedder, cfg *config.Config, logger *zap.Logger) *kb.KnowledgeBase {
		return kb.New(store, embedder, logger, cfg.GetClassifier().ContextResults)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(knowledgeBase *kb.KnowledgeBase) core.KnowledgeBase {
		return knowledgeBase
	}); err != nil {
		return nil, err
	}

	// Register tool registry
	if err := container.Provide(func(knowledgeBase *kb.KnowledgeBase) *tools.Registry {
		return tools.NewDefaultRegistry(knowledgeBase)
	}); err != nil {
		return nil, err
	}

	// Register feedback log
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (core.FeedbackLog, error) {
		return adapterfeedback.NewFileLog(cfg.GetFeedbackLogPath(), logger)
	}); err != nil {
		return nil, err
	}

	// Register LLM client
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger, registry *tools.Registry, tp *utils.TextProcessor) (core.LLMClient, error) {
		return factory.NewLLMFactory(cfg, logger, registry, tp).CreateLLMClient()
	}); err != nil {
		return nil, err
	}

	// Register classifier service
	if err := container.Provide(func(
		llmClient core.LLMClient,
		knowledgeBase core.KnowledgeBase,
		feedbackLog core.FeedbackLog,
		cfg *config.Config,
		logger *zap.Logger,
	) *core.ClassifierService {
		classifierCfg := cfg.GetClassifier()
		return core.NewClassifierService(
			llmClient,
			knowledgeBase,
			feedbackLog,
			logger,
			classifierCfg.ConfidenceThreshold,
			classifierCfg.LearningEnabled,
			cfg.GetLLM().Timeout,
		)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	v.Set("cli.verbose", flags.Verbose)

	// Set LLM provider
	v.Set("llm.provider", flags.Provider)

	// Set provider-specific configuration
	switch flags.Provider {
	case "anthropic":
		v.Set("anthropic.api_key", flags.AnthropicAPIKey)
		v.Set("anthropic.model", flags.AnthropicModel)
		v.Set("anthropic.max_tokens", flags.MaxTokens)
		v.Set("anthropic.temperature", flags.Temperature)
		v.Set("anthropic.max_body_size", flags.MaxBodySize)
	case "openai":
		v.Set("openai.api_key", flags.OpenAIAPIKey)
		v.Set("openai.model_name", flags.OpenAIModelName)
		v.Set("openai.max_tokens", flags.MaxTokens)
		v.Set("openai.temperature", flags.Temperature)
		v.Set("openai.top_p", flags.TopP)
		v.Set("openai.max_body_size", flags.MaxBodySize)
	case "gemini":
		v.Set("gemini.api_key", flags.GeminiAPIKey)
		v.Set("gemini.model_name", flags.GeminiModelName)
		v.Set("gemini.max_tokens", flags.MaxTokens)
		v.Set("gemini.temperature", flags.Temperature)
		v.Set("gemini.top_p", flags.TopP)
		v.Set("gemini.max_body_size", flags.MaxBodySize)
	case "bedrock":
		v.Set("bedrock.region", flags.BedrockRegion)
		v.Set("bedrock.model_id", flags.BedrockModelID)
		v.Set("bedrock.max_tokens", flags.MaxTokens)
		v.Set("bedrock.temperature", flags.Temperature)
		v.Set("bedrock.top_p", flags.TopP)
		v.Set("bedrock.max_body_size", flags.MaxBodySize)
	}

	// Set classification policy
	v.Set("classifier.confidence_threshold", flags.ConfidenceThreshold)
	v.Set("classifier.learning_enabled", !flags.DisableLearning)

	// Set knowledge base storage
	v.Set("kb.store_type", flags.StoreType)
	v.Set("kb.sqlite_path", flags.SQLitePath)
	v.Set("kb.mysql_dsn", flags.MySQLDSN)

	// Set embedding defaults
	v.Set("embedding.provider", "hash")
	v.Set("embedding.dimensions", 256)

	// Set feedback log path
	v.Set("feedback.log_path", flags.FeedbackLogPath)

	return config.NewFromViper(v)
}
