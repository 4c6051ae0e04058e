package core

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"
)

// Category is a fixed customer-service email classification category
type Category string

const (
	CategoryQuoteRequest         Category = "quote_request"
	CategoryOrderPlacement       Category = "order_placement"
	CategoryOrderInquiry         Category = "order_inquiry"
	CategoryProductInquiry       Category = "product_inquiry"
	CategoryTechnicalSupport     Category = "technical_support"
	CategoryShippingInquiry      Category = "shipping_inquiry"
	CategoryBillingInquiry       Category = "billing_inquiry"
	CategoryComplaint            Category = "complaint"
	CategoryRegulatoryCompliance Category = "regulatory_compliance"
	CategorySampleRequest        Category = "sample_request"
	CategoryGeneralInquiry       Category = "general_inquiry"
	CategorySpam                 Category = "spam"
)

// categoryDescriptions maps each category to the description used in prompts
var categoryDescriptions = map[Category]string{
	CategoryQuoteRequest:         "Customer requesting a price quote for one or more products",
	CategoryOrderPlacement:       "Customer placing a new order or ready to purchase",
	CategoryOrderInquiry:         "Customer asking about status, tracking, or details of an existing order",
	CategoryProductInquiry:       "Customer asking questions about product specifications, availability, or information",
	CategoryTechnicalSupport:     "Customer needs technical help with product application, formulation, or usage",
	CategoryShippingInquiry:      "Customer asking about shipping options, costs, delivery times, or logistics",
	CategoryBillingInquiry:       "Customer has questions about invoices, payments, or account balance",
	CategoryComplaint:            "Customer expressing dissatisfaction or reporting an issue",
	CategoryRegulatoryCompliance: "Questions about certifications, regulatory compliance, safety data sheets, or documentation",
	CategorySampleRequest:        "Customer requesting product samples for testing or evaluation",
	CategoryGeneralInquiry:       "General questions about the company, policies, or other topics",
	CategorySpam:                 "Unsolicited, irrelevant, or marketing emails not related to customer service",
}

// AllCategories returns every category in a stable order
func AllCategories() []Category {
	return []Category{
		CategoryQuoteRequest,
		CategoryOrderPlacement,
		CategoryOrderInquiry,
		CategoryProductInquiry,
		CategoryTechnicalSupport,
		CategoryShippingInquiry,
		CategoryBillingInquiry,
		CategoryComplaint,
		CategoryRegulatoryCompliance,
		CategorySampleRequest,
		CategoryGeneralInquiry,
		CategorySpam,
	}
}

// ParseCategory converts a string into a Category, rejecting values
// outside the fixed enumeration
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

// Description returns the human-readable description of the category
func (c Category) Description() string {
	if desc, ok := categoryDescriptions[c]; ok {
		return desc
	}
	return "Unknown category"
}

// Valid reports whether the category is a member of the enumeration
func (c Category) Valid() bool {
	_, ok := categoryDescriptions[c]
	return ok
}

// Priority is the handling priority assigned to a classification
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ParsePriority converts a string into a Priority. An empty string maps
// to normal, matching the provider response contract.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return Priority(s), nil
	case "":
		return PriorityNormal, nil
	}
	return "", fmt.Errorf("unknown priority %q", s)
}

// Escalate returns the next higher priority level
func (p Priority) Escalate() Priority {
	switch p {
	case PriorityLow:
		return PriorityNormal
	case PriorityNormal:
		return PriorityHigh
	default:
		return PriorityUrgent
	}
}

// Email represents an incoming customer-service email
type Email struct {
	Subject    string
	Body       string
	Sender     string
	ReceivedAt time.Time
	Metadata   map[string]any
}

// ID returns a stable content-derived identifier for the email
func (e *Email) ID() string {
	sum := md5.Sum([]byte(e.Subject + e.Body + e.Sender + e.ReceivedAt.Format(time.RFC3339)))
	return hex.EncodeToString(sum[:])
}

// Content returns the text used for retrieval and classification
func (e *Email) Content() string {
	return e.Subject + " " + e.Body
}

// ClassificationResult is the structured outcome of classifying one email
type ClassificationResult struct {
	PrimaryCategory     Category
	Confidence          float64
	SecondaryCategories []Category
	Reasoning           string
	ExtractedEntities   map[string]any
	RecommendedAction   string
	Priority            Priority
	NeedsReview         bool
	ClassifiedAt        time.Time
	ModelUsed           string
}

// EntryKind distinguishes the three knowledge base collections
type EntryKind string

const (
	KindProduct EntryKind = "product"
	KindQuery   EntryKind = "query"
	KindHistory EntryKind = "history"
)

// KnowledgeEntry is a single stored knowledge base document. The embedding
// vector is owned by the knowledge store and never appears here.
type KnowledgeEntry struct {
	ID        string
	Kind      EntryKind
	Content   string
	Category  string
	Metadata  map[string]any
	CreatedAt time.Time
}

// ScoredEntry is a knowledge entry ranked by similarity to a query
type ScoredEntry struct {
	Entry      KnowledgeEntry
	Similarity float64
}

// RetrievalContext holds knowledge base context gathered for one
// classification call
type RetrievalContext struct {
	SimilarQueries   []ScoredEntry
	RelevantProducts []ScoredEntry
	SimilarHistory   []ScoredEntry
}

// Empty reports whether no context was retrieved
func (r *RetrievalContext) Empty() bool {
	return r == nil ||
		(len(r.SimilarQueries) == 0 && len(r.RelevantProducts) == 0 && len(r.SimilarHistory) == 0)
}

// FeedbackRecord is one append-only entry in the feedback audit trail
type FeedbackRecord struct {
	EmailID          string    `json:"email_id"`
	EmailContent     string    `json:"email_content"`
	OriginalCategory Category  `json:"original_category"`
	CorrectCategory  Category  `json:"correct_category"`
	Confidence       float64   `json:"confidence"`
	Notes            string    `json:"notes,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// Stats summarizes the state of the classifier and its knowledge base
type Stats struct {
	Provider        string
	Model           string
	TotalProducts   int
	TotalQueries    int
	TotalHistory    int
	ToolsRegistered int
	LearningEnabled bool
}
