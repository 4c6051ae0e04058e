// Package anthropic implements the LLMClient interface against the
// Anthropic messages API, including the tool-use round trip.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/penta/email-classifier/internal/core"
	"github.com/penta/email-classifier/internal/tools"
	"github.com/penta/email-classifier/internal/utils"
)

const defaultAPIURL = "https://api.anthropic.com/v1/messages"

// AnthropicClient is an implementation of the LLMClient interface using
// the Anthropic messages API
type AnthropicClient struct {
	httpClient    *http.Client
	apiURL        string
	apiKey        string
	model         string
	maxTokens     int
	temperature   float32
	maxBodySize   int
	logger        *zap.Logger
	registry      *tools.Registry
	textProcessor *utils.TextProcessor
}

// NewAnthropicClient creates a new Anthropic client
func NewAnthropicClient(
	apiURL string,
	apiKey string,
	model string,
	maxTokens int,
	temperature float32,
	maxBodySize int,
	logger *zap.Logger,
	registry *tools.Registry,
	textProcessor *utils.TextProcessor,
) *AnthropicClient {
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	return &AnthropicClient{
		httpClient:    &http.Client{},
		apiURL:        apiURL,
		apiKey:        apiKey,
		model:         model,
		maxTokens:     maxTokens,
		temperature:   temperature,
		maxBodySize:   maxBodySize,
		logger:        logger,
		registry:      registry,
		textProcessor: textProcessor,
	}
}

// ModelName identifies the underlying model
func (c *AnthropicClient) ModelName() string {
	return c.model
}

type apiRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float32   `json:"temperature"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
	Tools       []toolDef `json:"tools,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type toolDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type contentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
}

type apiResponse struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Error      *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// ClassifyEmail classifies an email, executing any tool calls the model
// requests before parsing the final response
func (c *AnthropicClient) ClassifyEmail(ctx context.Context, email *core.Email, rctx *core.RetrievalContext) (*core.ClassificationResult, error) {
	prepared := *email
	prepared.Body = c.textProcessor.ProcessText(email.Body, c.maxBodySize)

	systemPrompt := core.BuildSystemPrompt(rctx)
	userPrompt := core.BuildUserPrompt(&prepared)

	messages := []message{{Role: "user", Content: userPrompt}}
	resp, err := c.callAPI(ctx, systemPrompt, messages)
	if err != nil {
		return nil, err
	}

	if resp.StopReason == "tool_use" {
		messages, err = c.executeTools(ctx, messages, resp)
		if err != nil {
			return nil, err
		}
		resp, err = c.callAPI(ctx, systemPrompt, messages)
		if err != nil {
			return nil, err
		}
	}

	var responseText string
	for _, block := range resp.Content {
		if block.Type == "text" {
			responseText += block.Text
		}
	}
	if responseText == "" {
		return nil, &core.ProviderError{Provider: "anthropic", Err: fmt.Errorf("empty response")}
	}

	return core.ParseClassification(responseText, c.model)
}

// executeTools runs every tool_use block through the registry and appends
// the assistant turn plus the tool results to the conversation
func (c *AnthropicClient) executeTools(ctx context.Context, messages []message, resp *apiResponse) ([]message, error) {
	var results []contentBlock
	for _, block := range resp.Content {
		if block.Type != "tool_use" {
			continue
		}

		var args map[string]any
		if len(block.Input) > 0 {
			if err := json.Unmarshal(block.Input, &args); err != nil {
				return nil, &core.ProviderError{Provider: "anthropic",
					Err: fmt.Errorf("invalid tool input for %q: %w", block.Name, err)}
			}
		}

		c.logger.Debug("Executing tool call",
			zap.String("tool", block.Name),
			zap.String("tool_use_id", block.ID))

		var resultPayload any
		result, err := c.registry.Call(ctx, block.Name, args)
		if err != nil {
			// Tool failures go back to the model as content, matching
			// the behavior expected by providers
			resultPayload = map[string]any{"error": err.Error()}
		} else {
			resultPayload = result
		}

		data, err := json.Marshal(resultPayload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal tool result: %w", err)
		}
		results = append(results, contentBlock{
			Type:      "tool_result",
			ToolUseID: block.ID,
			Content:   string(data),
		})
	}

	messages = append(messages,
		message{Role: "assistant", Content: resp.Content},
		message{Role: "user", Content: results},
	)
	return messages, nil
}

func (c *AnthropicClient) callAPI(ctx context.Context, systemPrompt string, messages []message) (*apiResponse, error) {
	reqBody := apiRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		System:      systemPrompt,
		Messages:    messages,
		Tools:       c.toolDefs(),
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &core.ProviderError{Provider: "anthropic", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &core.ProviderError{Provider: "anthropic", Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &core.ProviderError{Provider: "anthropic",
			Err: fmt.Errorf("api error (status %d): %s", resp.StatusCode, string(body))}
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, &core.ProviderError{Provider: "anthropic",
			Err: fmt.Errorf("failed to unmarshal response: %w", err)}
	}
	if apiResp.Error != nil {
		return nil, &core.ProviderError{Provider: "anthropic",
			Err: fmt.Errorf("api error: %s", apiResp.Error.Message)}
	}
	return &apiResp, nil
}

func (c *AnthropicClient) toolDefs() []toolDef {
	if c.registry == nil {
		return nil
	}
	var defs []toolDef
	for _, def := range c.registry.Definitions() {
		defs = append(defs, toolDef{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.Parameters,
		})
	}
	return defs
}
