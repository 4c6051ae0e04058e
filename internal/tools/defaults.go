package tools

import (
	"context"

	"github.com/penta/email-classifier/internal/core"
)

// KnowledgeSearcher is the slice of the knowledge base the
// search_knowledge_base tool needs
type KnowledgeSearcher interface {
	Query(ctx context.Context, text string, kind core.EntryKind, k int) ([]core.ScoredEntry, error)
}

// NewDefaultRegistry builds a registry preloaded with the standard Penta
// customer-service tools. The order, inventory, and shipping tools are
// integration points: they return placeholder payloads until wired to
// the corresponding backend systems. Register only fails on a duplicate
// name and the names below are distinct, so its error is discarded.
func NewDefaultRegistry(kb KnowledgeSearcher) *Registry {
	r := NewRegistry()

	_ = r.Register(Definition{
		Name:        "lookup_order",
		Description: "Look up an order by order ID or customer email",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"order_id": map[string]any{
					"type":        "string",
					"description": "The order ID to look up",
				},
				"customer_email": map[string]any{
					"type":        "string",
					"description": "Customer email address",
				},
			},
		},
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			return map[string]any{
				"status":         "example",
				"message":        "This is a placeholder. Integrate with your order management system.",
				"order_id":       args["order_id"],
				"customer_email": args["customer_email"],
			}, nil
		},
	})

	_ = r.Register(Definition{
		Name:        "check_product_availability",
		Description: "Check if a product is available and get current pricing",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"product_name": map[string]any{
					"type":        "string",
					"description": "Name of the product",
				},
				"product_id": map[string]any{
					"type":        "string",
					"description": "Product ID or SKU",
				},
			},
			"required": []string{"product_name"},
		},
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			return map[string]any{
				"status":       "example",
				"message":      "This is a placeholder. Integrate with your inventory system.",
				"product_name": args["product_name"],
				"product_id":   args["product_id"],
				"available":    true,
				"in_stock":     1000,
			}, nil
		},
	})

	_ = r.Register(Definition{
		Name:        "get_shipping_quote",
		Description: "Get a shipping quote for a location and quantity",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"destination": map[string]any{
					"type":        "string",
					"description": "Destination address or zip code",
				},
				"weight": map[string]any{
					"type":        "number",
					"description": "Weight in pounds",
				},
				"quantity": map[string]any{
					"type":        "number",
					"description": "Quantity of items",
				},
			},
			"required": []string{"destination"},
		},
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			return map[string]any{
				"status":         "example",
				"message":        "This is a placeholder. Integrate with your shipping system.",
				"destination":    args["destination"],
				"estimated_cost": "$25.00",
				"estimated_days": "3-5 business days",
			}, nil
		},
	})

	_ = r.Register(Definition{
		Name:        "search_knowledge_base",
		Description: "Search the company knowledge base for information",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Search query",
				},
			},
			"required": []string{"query"},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			query, _ := args["query"].(string)
			if kb == nil {
				return map[string]any{"query": query, "results": []any{}}, nil
			}
			entries, err := kb.Query(ctx, query, core.KindProduct, 3)
			if err != nil {
				return nil, err
			}
			results := make([]map[string]any, 0, len(entries))
			for _, se := range entries {
				results = append(results, map[string]any{
					"content":    se.Entry.Content,
					"category":   se.Entry.Category,
					"similarity": se.Similarity,
				})
			}
			return map[string]any{"query": query, "results": results}, nil
		},
	})

	return r
}
