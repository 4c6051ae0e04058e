package config

import "time"

// LLMConfig represents the configuration for the LLM provider selection
type LLMConfig struct {
	Provider string
	Timeout  time.Duration
}

// AnthropicConfig represents the configuration for the Anthropic API
type AnthropicConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	MaxBodySize int
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// ClassifierConfig represents the classification policy settings
type ClassifierConfig struct {
	ConfidenceThreshold float64
	LearningEnabled     bool
	ContextResults      int
}

// KnowledgeBaseConfig represents the knowledge base storage settings
type KnowledgeBaseConfig struct {
	StoreType  string
	SQLitePath string
	MySQLDSN   string
}

// EmbeddingConfig represents the embedding backend settings
type EmbeddingConfig struct {
	Provider    string
	Dimensions  int
	OpenAIModel string
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	timeout, err := c.GetDuration("llm.timeout")
	if err != nil {
		timeout = 30 * time.Second
	}
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
		Timeout:  timeout,
	}
}

// GetAnthropic returns the Anthropic configuration
func (c *Config) GetAnthropic() AnthropicConfig {
	return AnthropicConfig{
		APIKey:      c.GetString("anthropic.api_key"),
		BaseURL:     c.GetString("anthropic.base_url"),
		Model:       c.GetString("anthropic.model"),
		MaxTokens:   c.GetInt("anthropic.max_tokens"),
		Temperature: float32(c.GetFloat64("anthropic.temperature")),
		MaxBodySize: c.GetInt("anthropic.max_body_size"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
		MaxBodySize: c.GetInt("openai.max_body_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
		MaxBodySize: c.GetInt("gemini.max_body_size"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize: c.GetInt("bedrock.max_body_size"),
	}
}

// GetClassifier returns the classification policy configuration
func (c *Config) GetClassifier() ClassifierConfig {
	return ClassifierConfig{
		ConfidenceThreshold: c.GetFloat64("classifier.confidence_threshold"),
		LearningEnabled:     c.GetBool("classifier.learning_enabled"),
		ContextResults:      c.GetInt("classifier.context_results"),
	}
}

// GetKnowledgeBase returns the knowledge base storage configuration
func (c *Config) GetKnowledgeBase() KnowledgeBaseConfig {
	return KnowledgeBaseConfig{
		StoreType:  c.GetString("kb.store_type"),
		SQLitePath: c.GetString("kb.sqlite_path"),
		MySQLDSN:   c.GetString("kb.mysql_dsn"),
	}
}

// GetEmbedding returns the embedding backend configuration
func (c *Config) GetEmbedding() EmbeddingConfig {
	return EmbeddingConfig{
		Provider:    c.GetString("embedding.provider"),
		Dimensions:  c.GetInt("embedding.dimensions"),
		OpenAIModel: c.GetString("embedding.openai_model"),
	}
}

// GetFeedbackLogPath returns the feedback log path
func (c *Config) GetFeedbackLogPath() string {
	return c.GetString("feedback.log_path")
}
