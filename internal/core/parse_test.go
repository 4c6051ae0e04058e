package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClassification(t *testing.T) {
	raw := `{
		"primary_category": "quote_request",
		"confidence": 0.92,
		"secondary_categories": ["product_inquiry"],
		"reasoning": "Customer asks for pricing on 500 kg of citric acid",
		"extracted_entities": {"product_names": ["citric acid"], "quantity": "500 kg"},
		"recommended_action": "Route to sales team",
		"priority": "high"
	}`

	result, err := ParseClassification(raw, "test-model")
	require.NoError(t, err)
	assert.Equal(t, CategoryQuoteRequest, result.PrimaryCategory)
	assert.Equal(t, 0.92, result.Confidence)
	assert.Equal(t, []Category{CategoryProductInquiry}, result.SecondaryCategories)
	assert.Equal(t, PriorityHigh, result.Priority)
	assert.Equal(t, "test-model", result.ModelUsed)
	assert.False(t, result.NeedsReview)
	assert.Contains(t, result.ExtractedEntities, "quantity")
	assert.False(t, result.ClassifiedAt.IsZero())
}

func TestParseClassificationMarkdownFences(t *testing.T) {
	raw := "Here is the classification:\n```json\n" +
		`{"primary_category": "spam", "confidence": 0.99}` +
		"\n```\nLet me know if you need anything else."

	result, err := ParseClassification(raw, "test-model")
	require.NoError(t, err)
	assert.Equal(t, CategorySpam, result.PrimaryCategory)
	assert.Equal(t, 0.99, result.Confidence)
}

func TestParseClassificationSurroundingProse(t *testing.T) {
	raw := `Based on my analysis: {"primary_category": "complaint", "confidence": 0.8, "priority": "urgent"} Hope that helps.`

	result, err := ParseClassification(raw, "test-model")
	require.NoError(t, err)
	assert.Equal(t, CategoryComplaint, result.PrimaryCategory)
	assert.Equal(t, PriorityUrgent, result.Priority)
}

func TestParseClassificationDefaultsPriorityToNormal(t *testing.T) {
	result, err := ParseClassification(`{"primary_category": "order_inquiry", "confidence": 0.75}`, "m")
	require.NoError(t, err)
	assert.Equal(t, PriorityNormal, result.Priority)
	assert.NotNil(t, result.ExtractedEntities)
}

func TestParseClassificationDropsUnknownSecondary(t *testing.T) {
	raw := `{
		"primary_category": "order_inquiry",
		"confidence": 0.8,
		"secondary_categories": ["shipping_inquiry", "made_up_category", "order_inquiry"]
	}`
	result, err := ParseClassification(raw, "m")
	require.NoError(t, err)
	// Unknown values and duplicates of the primary are dropped
	assert.Equal(t, []Category{CategoryShippingInquiry}, result.SecondaryCategories)
}

func TestParseClassificationErrors(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		reason string
	}{
		{"no json", "the email looks like spam to me", "no JSON object"},
		{"invalid json", `{"primary_category": `, "no JSON object"},
		{"missing primary", `{"confidence": 0.9}`, "missing primary_category"},
		{"unknown primary", `{"primary_category": "sales_lead", "confidence": 0.9}`, "unknown category"},
		{"missing confidence", `{"primary_category": "spam"}`, "missing confidence"},
		{"confidence too high", `{"primary_category": "spam", "confidence": 1.7}`, "outside [0,1]"},
		{"confidence negative", `{"primary_category": "spam", "confidence": -0.2}`, "outside [0,1]"},
		{"bad priority", `{"primary_category": "spam", "confidence": 0.9, "priority": "asap"}`, "unknown priority"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseClassification(tt.raw, "m")
			require.Error(t, err)

			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr), "expected *ParseError, got %T", err)
			assert.Contains(t, parseErr.Reason, tt.reason)
			assert.Equal(t, tt.raw, parseErr.Raw)
		})
	}
}
