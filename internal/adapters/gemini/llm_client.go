// Package gemini implements the LLMClient interface using Google Gemini.
// Gemini is classification-only: tool calls are not forwarded to it.
package gemini

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/penta/email-classifier/internal/core"
	"github.com/penta/email-classifier/internal/utils"
)

// GeminiClient is an implementation of the LLMClient interface using
// Google Gemini
type GeminiClient struct {
	client        *genai.Client
	model         *genai.GenerativeModel
	modelName     string
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*GeminiClient, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))

	return &GeminiClient{
		client:        client,
		model:         model,
		modelName:     modelName,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}, nil
}

// ModelName identifies the underlying model
func (c *GeminiClient) ModelName() string {
	return c.modelName
}

// Close closes the Gemini client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// ClassifyEmail classifies an email using Gemini
func (c *GeminiClient) ClassifyEmail(ctx context.Context, email *core.Email, rctx *core.RetrievalContext) (*core.ClassificationResult, error) {
	prepared := *email
	prepared.Body = c.textProcessor.ProcessText(email.Body, c.maxBodySize)

	c.model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(core.BuildSystemPrompt(rctx))},
	}

	resp, err := c.model.GenerateContent(ctx, genai.Text(core.BuildUserPrompt(&prepared)))
	if err != nil {
		return nil, &core.ProviderError{Provider: "gemini",
			Err: fmt.Errorf("failed to generate content: %w", err)}
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, &core.ProviderError{Provider: "gemini", Err: fmt.Errorf("empty response")}
	}

	var responseText string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText += string(text)
		}
	}
	if responseText == "" {
		return nil, &core.ProviderError{Provider: "gemini", Err: fmt.Errorf("no text parts in response")}
	}

	return core.ParseClassification(responseText, c.modelName)
}
