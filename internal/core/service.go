package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ClassifierService is the core service for email classification
type ClassifierService struct {
	llmClient           LLMClient
	knowledgeBase       KnowledgeBase
	feedbackLog         FeedbackLog
	logger              *zap.Logger
	confidenceThreshold float64
	learningEnabled     bool
	llmTimeout          time.Duration
}

// NewClassifierService creates a new classifier service
func NewClassifierService(
	llmClient LLMClient,
	knowledgeBase KnowledgeBase,
	feedbackLog FeedbackLog,
	logger *zap.Logger,
	confidenceThreshold float64,
	learningEnabled bool,
	llmTimeout time.Duration,
) *ClassifierService {
	return &ClassifierService{
		llmClient:           llmClient,
		knowledgeBase:       knowledgeBase,
		feedbackLog:         feedbackLog,
		logger:              logger,
		confidenceThreshold: confidenceThreshold,
		learningEnabled:     learningEnabled,
		llmTimeout:          llmTimeout,
	}
}

// Classify classifies an email using the configured LLM provider,
// augmented with knowledge base context
func (s *ClassifierService) Classify(ctx context.Context, email *Email) (*ClassificationResult, error) {
	if strings.TrimSpace(email.Subject) == "" || strings.TrimSpace(email.Body) == "" {
		return nil, fmt.Errorf("%w: subject and body must be non-empty", ErrInvalidInput)
	}

	// A broken knowledge base degrades to an uncontextualized prompt
	// rather than failing the classification
	rctx, err := s.knowledgeBase.ContextFor(ctx, email.Content())
	if err != nil {
		s.logger.Warn("Failed to retrieve knowledge base context", zap.Error(err))
		rctx = &RetrievalContext{}
	}

	callCtx := ctx
	if s.llmTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.llmTimeout)
		defer cancel()
	}

	result, err := s.llmClient.ClassifyEmail(callCtx, email, rctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w after %s: %v", ErrProviderTimeout, s.llmTimeout, err)
		}
		return nil, err
	}

	if result.Confidence < s.confidenceThreshold {
		s.flagForReview(result)
	}

	if s.learningEnabled {
		s.recordClassification(ctx, email, result)
	}

	s.logger.Info("Classified email",
		zap.String("email_id", email.ID()),
		zap.String("category", string(result.PrimaryCategory)),
		zap.Float64("confidence", result.Confidence),
		zap.Bool("needs_review", result.NeedsReview))

	return result, nil
}

// flagForReview marks a low-confidence result for manual handling. The
// raw model output is kept; only the routing fields change.
func (s *ClassifierService) flagForReview(result *ClassificationResult) {
	result.NeedsReview = true
	result.Priority = result.Priority.Escalate()
	note := fmt.Sprintf("Manual review recommended (confidence %.2f below threshold %.2f)",
		result.Confidence, s.confidenceThreshold)
	if result.RecommendedAction != "" {
		result.RecommendedAction = note + ". " + result.RecommendedAction
	} else {
		result.RecommendedAction = note
	}
}

// recordClassification stores the outcome in the history collection for
// future retrieval augmentation. Re-classifying the same email is not an
// error.
func (s *ClassifierService) recordClassification(ctx context.Context, email *Email, result *ClassificationResult) {
	err := s.knowledgeBase.AddClassificationRecord(ctx, email.ID(), email.Content(),
		result.PrimaryCategory, result.Confidence, map[string]any{
			"subject": email.Subject,
			"sender":  email.Sender,
		})
	if err != nil && !errors.Is(err, ErrDuplicateID) {
		s.logger.Error("Failed to record classification history", zap.Error(err))
	}
}

// ProvideFeedback appends a correction to the feedback log. The record is
// always appended, including when the original category is confirmed
// correct. When learning is enabled the correction is also re-ingested
// into the knowledge base.
func (s *ClassifierService) ProvideFeedback(
	ctx context.Context,
	email *Email,
	originalCategory Category,
	correctCategory Category,
	confidence float64,
	notes string,
) error {
	if !originalCategory.Valid() {
		return fmt.Errorf("%w: original %q", ErrUnknownCategory, originalCategory)
	}
	if !correctCategory.Valid() {
		return fmt.Errorf("%w: correct %q", ErrUnknownCategory, correctCategory)
	}

	emailID := email.ID()
	record := &FeedbackRecord{
		EmailID:          emailID,
		EmailContent:     email.Content(),
		OriginalCategory: originalCategory,
		CorrectCategory:  correctCategory,
		Confidence:       confidence,
		Notes:            notes,
		Timestamp:        time.Now(),
	}
	if err := s.feedbackLog.Append(ctx, record); err != nil {
		return fmt.Errorf("failed to append feedback record: %w", err)
	}

	if !s.learningEnabled {
		return nil
	}

	// Corrected classifications go back into the history collection with
	// full confidence so future retrieval favors them
	err := s.knowledgeBase.AddClassificationRecord(ctx, emailID+"_corrected", email.Content(),
		correctCategory, 1.0, map[string]any{
			"original_classification": string(originalCategory),
			"feedback_notes":          notes,
		})
	if err != nil && !errors.Is(err, ErrDuplicateID) {
		s.logger.Error("Failed to ingest corrected classification", zap.Error(err))
	}

	if originalCategory != correctCategory {
		err := s.knowledgeBase.AddCommonQuery(ctx, "feedback_"+emailID, email.Content(),
			correctCategory, 1.0, map[string]any{"source": "feedback"})
		if err != nil && !errors.Is(err, ErrDuplicateID) {
			s.logger.Error("Failed to ingest feedback query", zap.Error(err))
		}
	}

	s.logger.Info("Recorded classification feedback",
		zap.String("email_id", emailID),
		zap.String("original", string(originalCategory)),
		zap.String("correct", string(correctCategory)))
	return nil
}

// Stats reports the current state of the classifier and knowledge base
func (s *ClassifierService) Stats(ctx context.Context, provider string, toolCount int) (*Stats, error) {
	products, queries, history, err := s.knowledgeBase.Counts(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{
		Provider:        provider,
		Model:           s.llmClient.ModelName(),
		TotalProducts:   products,
		TotalQueries:    queries,
		TotalHistory:    history,
		ToolsRegistered: toolCount,
		LearningEnabled: s.learningEnabled,
	}, nil
}
