package core

import (
	"fmt"
	"strings"
)

const systemPromptHeader = `You are an expert email classification agent for Penta Fine Ingredients, a company specializing in fine chemical ingredients.

Your job is to classify incoming customer service emails into one of the following categories:

%s

For each email, you must:
1. Analyze the email subject and body carefully
2. Determine the primary intent of the email
3. Extract any relevant entities (product names, order numbers, quantities, etc.)
4. Assign a confidence score (0.0 to 1.0)
5. Identify any secondary categories if applicable
6. Suggest a priority level (low, normal, high, urgent)
7. Provide a recommended action or routing

Consider:
- Product inquiries about chemical ingredients, specifications, or applications
- Quote requests may include specific quantities or technical requirements
- Regulatory compliance questions are common in the chemical industry
- Technical support may involve formulation questions or usage guidance

Be thorough in your analysis and provide clear reasoning for your classification.`

const userPromptFormat = `Please classify this customer service email:

Subject: %s

Body:
%s
%s
Provide your response in the following JSON format:
{
    "primary_category": "category_name",
    "confidence": 0.95,
    "secondary_categories": ["other_category"],
    "reasoning": "Detailed explanation of why you chose this classification",
    "extracted_entities": {
        "product_names": ["Product A", "Product B"],
        "order_number": "12345",
        "quantity": "500 kg",
        "other_info": "any other relevant extracted information"
    },
    "recommended_action": "Route to sales team for quote preparation",
    "priority": "normal"
}

Respond only with the JSON object and nothing else.`

// BuildSystemPrompt assembles the system prompt from the category
// enumeration and any retrieved knowledge base context
func BuildSystemPrompt(rctx *RetrievalContext) string {
	var descs []string
	for _, c := range AllCategories() {
		descs = append(descs, fmt.Sprintf("- %s: %s", c, c.Description()))
	}
	prompt := fmt.Sprintf(systemPromptHeader, strings.Join(descs, "\n"))

	if ctxText := formatContext(rctx); ctxText != "" {
		prompt += "\n\nRelevant Context:\n" + ctxText
	}
	return prompt
}

// formatContext renders retrieved entries into a compact prompt section
func formatContext(rctx *RetrievalContext) string {
	if rctx.Empty() {
		return ""
	}

	var sb strings.Builder
	if len(rctx.SimilarQueries) > 0 {
		sb.WriteString("Similar past queries:\n")
		for i, se := range rctx.SimilarQueries {
			if i >= 2 {
				break
			}
			conf, _ := se.Entry.Metadata["confidence"].(float64)
			fmt.Fprintf(&sb, "  - Category: %s (confidence: %.2f)\n", se.Entry.Category, conf)
		}
	}
	if len(rctx.RelevantProducts) > 0 {
		sb.WriteString("Relevant products:\n")
		for i, se := range rctx.RelevantProducts {
			if i >= 3 {
				break
			}
			name, _ := se.Entry.Metadata["name"].(string)
			if name == "" {
				name = se.Entry.Content
			}
			fmt.Fprintf(&sb, "  - %s\n", name)
		}
	}
	if len(rctx.SimilarHistory) > 0 {
		sb.WriteString("Similar past classifications:\n")
		for i, se := range rctx.SimilarHistory {
			if i >= 2 {
				break
			}
			fmt.Fprintf(&sb, "  - Category: %s\n", se.Entry.Category)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// BuildUserPrompt assembles the per-email classification prompt
func BuildUserPrompt(email *Email) string {
	sender := ""
	if email.Sender != "" {
		sender = fmt.Sprintf("\nSender: %s\n", email.Sender)
	}
	return fmt.Sprintf(userPromptFormat, email.Subject, email.Body, sender)
}
