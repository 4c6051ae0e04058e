package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// classificationResponse is the JSON shape the LLM is asked to emit
type classificationResponse struct {
	PrimaryCategory     string         `json:"primary_category"`
	Confidence          *float64       `json:"confidence"`
	SecondaryCategories []string       `json:"secondary_categories"`
	Reasoning           string         `json:"reasoning"`
	ExtractedEntities   map[string]any `json:"extracted_entities"`
	RecommendedAction   string         `json:"recommended_action"`
	Priority            string         `json:"priority"`
}

// ParseClassification maps raw LLM response text onto a
// ClassificationResult. A malformed response, a missing required field,
// a category outside the enumeration, or a confidence outside [0,1] all
// yield a *ParseError rather than a defaulted result.
func ParseClassification(responseText, modelUsed string) (*ClassificationResult, error) {
	jsonText := extractJSON(responseText)
	if jsonText == "" {
		return nil, &ParseError{Reason: "no JSON object in response", Raw: responseText}
	}

	var resp classificationResponse
	if err := json.Unmarshal([]byte(jsonText), &resp); err != nil {
		return nil, &ParseError{Reason: fmt.Sprintf("invalid JSON: %v", err), Raw: responseText}
	}

	if resp.PrimaryCategory == "" {
		return nil, &ParseError{Reason: "missing primary_category", Raw: responseText}
	}
	primary, err := ParseCategory(resp.PrimaryCategory)
	if err != nil {
		return nil, &ParseError{Reason: err.Error(), Raw: responseText}
	}

	if resp.Confidence == nil {
		return nil, &ParseError{Reason: "missing confidence", Raw: responseText}
	}
	confidence := *resp.Confidence
	if confidence < 0 || confidence > 1 {
		return nil, &ParseError{
			Reason: fmt.Sprintf("confidence %v outside [0,1]", confidence),
			Raw:    responseText,
		}
	}

	// Unknown secondary categories are dropped rather than fatal; they do
	// not affect routing
	var secondary []Category
	for _, s := range resp.SecondaryCategories {
		if c, err := ParseCategory(s); err == nil && c != primary {
			secondary = append(secondary, c)
		}
	}

	priority, err := ParsePriority(resp.Priority)
	if err != nil {
		return nil, &ParseError{Reason: err.Error(), Raw: responseText}
	}

	entities := resp.ExtractedEntities
	if entities == nil {
		entities = map[string]any{}
	}

	return &ClassificationResult{
		PrimaryCategory:     primary,
		Confidence:          confidence,
		SecondaryCategories: secondary,
		Reasoning:           resp.Reasoning,
		ExtractedEntities:   entities,
		RecommendedAction:   resp.RecommendedAction,
		Priority:            priority,
		ClassifiedAt:        time.Now(),
		ModelUsed:           modelUsed,
	}, nil
}

// extractJSON pulls the JSON object out of a response that may be wrapped
// in markdown fences or surrounding prose
func extractJSON(text string) string {
	text = strings.TrimSpace(text)

	if idx := strings.Index(text, "```json"); idx >= 0 {
		text = text[idx+len("```json"):]
		if end := strings.Index(text, "```"); end >= 0 {
			text = text[:end]
		}
	} else if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[idx+len("```"):]
		if end := strings.Index(text, "```"); end >= 0 {
			text = text[:end]
		}
	}
	text = strings.TrimSpace(text)

	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}
