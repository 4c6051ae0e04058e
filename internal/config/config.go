package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/email-classifier/")
	v.AddConfigPath("$HOME/.email-classifier")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("EMAIL_CLASSIFIER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindProviderEnv(v)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// bindProviderEnv keeps the historically documented bare variable names
// working alongside the prefixed ones
func bindProviderEnv(v *viper.Viper) {
	v.BindEnv("llm.provider", "EMAIL_CLASSIFIER_LLM_PROVIDER", "LLM_PROVIDER")
	v.BindEnv("anthropic.api_key", "EMAIL_CLASSIFIER_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	v.BindEnv("openai.api_key", "EMAIL_CLASSIFIER_OPENAI_API_KEY", "OPENAI_API_KEY")
	v.BindEnv("gemini.api_key", "EMAIL_CLASSIFIER_GEMINI_API_KEY", "GEMINI_API_KEY")
	v.BindEnv("anthropic.model", "EMAIL_CLASSIFIER_ANTHROPIC_MODEL", "ANTHROPIC_MODEL")
	v.BindEnv("openai.model_name", "EMAIL_CLASSIFIER_OPENAI_MODEL_NAME", "OPENAI_MODEL")
	v.BindEnv("classifier.confidence_threshold", "EMAIL_CLASSIFIER_CLASSIFIER_CONFIDENCE_THRESHOLD", "CONFIDENCE_THRESHOLD")
	v.BindEnv("classifier.learning_enabled", "EMAIL_CLASSIFIER_CLASSIFIER_LEARNING_ENABLED", "ENABLE_LEARNING")
	v.BindEnv("kb.sqlite_path", "EMAIL_CLASSIFIER_KB_SQLITE_PATH", "KNOWLEDGE_BASE_PATH")
	v.BindEnv("feedback.log_path", "EMAIL_CLASSIFIER_FEEDBACK_LOG_PATH", "FEEDBACK_LOG_PATH")
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// LLM provider defaults
	v.SetDefault("llm.provider", "anthropic")
	v.SetDefault("llm.timeout", "30s")

	// Anthropic defaults
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.base_url", "https://api.anthropic.com/v1/messages")
	v.SetDefault("anthropic.model", "claude-3-5-sonnet-20240620")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("anthropic.temperature", 0.3)
	v.SetDefault("anthropic.max_body_size", 4096)

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model_name", "gpt-4-turbo-preview")
	v.SetDefault("openai.max_tokens", 4096)
	v.SetDefault("openai.temperature", 0.3)
	v.SetDefault("openai.top_p", 0.9)
	v.SetDefault("openai.max_body_size", 4096)

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-pro")
	v.SetDefault("gemini.max_tokens", 4096)
	v.SetDefault("gemini.temperature", 0.3)
	v.SetDefault("gemini.top_p", 0.9)
	v.SetDefault("gemini.max_body_size", 4096)

	// Bedrock defaults
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-v2")
	v.SetDefault("bedrock.max_tokens", 4096)
	v.SetDefault("bedrock.temperature", 0.3)
	v.SetDefault("bedrock.top_p", 0.9)
	v.SetDefault("bedrock.max_body_size", 4096)

	// Classifier defaults
	v.SetDefault("classifier.confidence_threshold", 0.7)
	v.SetDefault("classifier.learning_enabled", true)
	v.SetDefault("classifier.context_results", 3)

	// Knowledge base defaults
	v.SetDefault("kb.store_type", "memory")
	v.SetDefault("kb.sqlite_path", "./data/knowledge_base.db")
	v.SetDefault("kb.mysql_dsn", "user:password@tcp(localhost:3306)/email_classifier?parseTime=true")

	// Embedding defaults
	v.SetDefault("embedding.provider", "hash")
	v.SetDefault("embedding.dimensions", 256)
	v.SetDefault("embedding.openai_model", "text-embedding-3-small")

	// Feedback defaults
	v.SetDefault("feedback.log_path", "./data/feedback_log.jsonl")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
