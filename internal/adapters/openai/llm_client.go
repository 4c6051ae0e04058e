// Package openai implements the LLMClient interface using the OpenAI
// chat completions API with function calling.
package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/penta/email-classifier/internal/core"
	"github.com/penta/email-classifier/internal/tools"
	"github.com/penta/email-classifier/internal/utils"
)

// OpenAIClient is an implementation of the LLMClient interface using OpenAI
type OpenAIClient struct {
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	logger        *zap.Logger
	registry      *tools.Registry
	textProcessor *utils.TextProcessor
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	registry *tools.Registry,
	textProcessor *utils.TextProcessor,
) *OpenAIClient {
	return &OpenAIClient{
		client:        client,
		modelName:     modelName,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
		maxBodySize:   maxBodySize,
		logger:        logger,
		registry:      registry,
		textProcessor: textProcessor,
	}
}

// ModelName identifies the underlying model
func (c *OpenAIClient) ModelName() string {
	return c.modelName
}

// ClassifyEmail classifies an email, executing any function calls the
// model requests before parsing the final response
func (c *OpenAIClient) ClassifyEmail(ctx context.Context, email *core.Email, rctx *core.RetrievalContext) (*core.ClassificationResult, error) {
	prepared := *email
	prepared.Body = c.textProcessor.ProcessText(email.Body, c.maxBodySize)

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: core.BuildSystemPrompt(rctx)},
		{Role: openai.ChatMessageRoleUser, Content: core.BuildUserPrompt(&prepared)},
	}

	resp, err := c.createCompletion(ctx, messages, c.toolDefs())
	if err != nil {
		return nil, err
	}

	if len(resp.Choices[0].Message.ToolCalls) > 0 {
		messages, err = c.executeTools(ctx, messages, resp.Choices[0].Message)
		if err != nil {
			return nil, err
		}
		resp, err = c.createCompletion(ctx, messages, nil)
		if err != nil {
			return nil, err
		}
	}

	responseText := resp.Choices[0].Message.Content
	if responseText == "" {
		return nil, &core.ProviderError{Provider: "openai", Err: fmt.Errorf("empty response")}
	}
	return core.ParseClassification(responseText, c.modelName)
}

func (c *OpenAIClient) createCompletion(ctx context.Context, messages []openai.ChatCompletionMessage, toolDefs []openai.Tool) (openai.ChatCompletionResponse, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.modelName,
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
		Tools:       toolDefs,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return openai.ChatCompletionResponse{},
			&core.ProviderError{Provider: "openai", Err: fmt.Errorf("failed to create chat completion: %w", err)}
	}
	if len(resp.Choices) == 0 {
		return openai.ChatCompletionResponse{},
			&core.ProviderError{Provider: "openai", Err: fmt.Errorf("empty response")}
	}
	return resp, nil
}

// executeTools runs every requested function call through the registry
// and appends the assistant turn plus tool results to the conversation
func (c *OpenAIClient) executeTools(ctx context.Context, messages []openai.ChatCompletionMessage, assistant openai.ChatCompletionMessage) ([]openai.ChatCompletionMessage, error) {
	messages = append(messages, assistant)

	for _, tc := range assistant.ToolCalls {
		var args map[string]any
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return nil, &core.ProviderError{Provider: "openai",
					Err: fmt.Errorf("invalid tool arguments for %q: %w", tc.Function.Name, err)}
			}
		}

		c.logger.Debug("Executing tool call",
			zap.String("tool", tc.Function.Name),
			zap.String("tool_call_id", tc.ID))

		var resultPayload any
		result, err := c.registry.Call(ctx, tc.Function.Name, args)
		if err != nil {
			resultPayload = map[string]any{"error": err.Error()}
		} else {
			resultPayload = result
		}

		data, err := json.Marshal(resultPayload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal tool result: %w", err)
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			Content:    string(data),
			ToolCallID: tc.ID,
		})
	}
	return messages, nil
}

func (c *OpenAIClient) toolDefs() []openai.Tool {
	if c.registry == nil {
		return nil
	}
	var defs []openai.Tool
	for _, def := range c.registry.Definitions() {
		defs = append(defs, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.Parameters,
			},
		})
	}
	return defs
}
