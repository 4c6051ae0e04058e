package core

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeLLM struct {
	classifyFn func(ctx context.Context, email *Email, rctx *RetrievalContext) (*ClassificationResult, error)
	calls      int
}

func (f *fakeLLM) ClassifyEmail(ctx context.Context, email *Email, rctx *RetrievalContext) (*ClassificationResult, error) {
	f.calls++
	return f.classifyFn(ctx, email, rctx)
}

func (f *fakeLLM) ModelName() string { return "fake-model" }

type fakeKB struct {
	contextErr     error
	rctx           *RetrievalContext
	historyRecords []string
	queryRecords   []string
	products       int
	queries        int
	history        int
}

func (f *fakeKB) AddProduct(_ context.Context, id, _, _, _ string, _ map[string]any) error {
	f.products++
	return nil
}

func (f *fakeKB) AddCommonQuery(_ context.Context, id, _ string, _ Category, _ float64, _ map[string]any) error {
	f.queryRecords = append(f.queryRecords, id)
	f.queries++
	return nil
}

func (f *fakeKB) AddClassificationRecord(_ context.Context, id, _ string, _ Category, _ float64, _ map[string]any) error {
	f.historyRecords = append(f.historyRecords, id)
	f.history++
	return nil
}

func (f *fakeKB) Query(_ context.Context, _ string, _ EntryKind, _ int) ([]ScoredEntry, error) {
	return nil, nil
}

func (f *fakeKB) ContextFor(_ context.Context, _ string) (*RetrievalContext, error) {
	if f.contextErr != nil {
		return nil, f.contextErr
	}
	if f.rctx != nil {
		return f.rctx, nil
	}
	return &RetrievalContext{}, nil
}

func (f *fakeKB) Counts(_ context.Context) (int, int, int, error) {
	return f.products, f.queries, f.history, nil
}

type fakeFeedbackLog struct {
	records []*FeedbackRecord
}

func (f *fakeFeedbackLog) Append(_ context.Context, record *FeedbackRecord) error {
	f.records = append(f.records, record)
	return nil
}

func (f *fakeFeedbackLog) Count(_ context.Context) (int, error) {
	return len(f.records), nil
}

func testEmail() *Email {
	return &Email{
		Subject:    "Quote request for citric acid",
		Body:       "Please quote 500 kg of food grade citric acid.",
		Sender:     "buyer@example.com",
		ReceivedAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func newService(llm LLMClient, kb KnowledgeBase, log FeedbackLog, learning bool) *ClassifierService {
	return NewClassifierService(llm, kb, log, zap.NewNop(), 0.7, learning, time.Second)
}

func TestClassifyRejectsEmptyInput(t *testing.T) {
	llm := &fakeLLM{classifyFn: func(context.Context, *Email, *RetrievalContext) (*ClassificationResult, error) {
		t.Fatal("provider must not be called for invalid input")
		return nil, nil
	}}
	svc := newService(llm, &fakeKB{}, &fakeFeedbackLog{}, true)

	_, err := svc.Classify(context.Background(), &Email{Subject: "   ", Body: "content"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Classify(context.Background(), &Email{Subject: "subject", Body: ""})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, llm.calls)
}

func TestClassifyHighConfidence(t *testing.T) {
	llm := &fakeLLM{classifyFn: func(context.Context, *Email, *RetrievalContext) (*ClassificationResult, error) {
		return &ClassificationResult{
			PrimaryCategory: CategoryQuoteRequest,
			Confidence:      0.92,
			Priority:        PriorityNormal,
		}, nil
	}}
	kb := &fakeKB{}
	svc := newService(llm, kb, &fakeFeedbackLog{}, true)

	result, err := svc.Classify(context.Background(), testEmail())
	require.NoError(t, err)
	assert.Equal(t, CategoryQuoteRequest, result.PrimaryCategory)
	assert.False(t, result.NeedsReview)
	assert.Equal(t, PriorityNormal, result.Priority)

	// Learning stores the outcome in the history collection
	require.Len(t, kb.historyRecords, 1)
	assert.Equal(t, testEmail().ID(), kb.historyRecords[0])
}

func TestClassifyLowConfidenceFlagsForReview(t *testing.T) {
	llm := &fakeLLM{classifyFn: func(context.Context, *Email, *RetrievalContext) (*ClassificationResult, error) {
		return &ClassificationResult{
			PrimaryCategory:   CategoryGeneralInquiry,
			Confidence:        0.45,
			Priority:          PriorityNormal,
			RecommendedAction: "Route to support",
		}, nil
	}}
	svc := newService(llm, &fakeKB{}, &fakeFeedbackLog{}, false)

	result, err := svc.Classify(context.Background(), testEmail())
	require.NoError(t, err)
	assert.True(t, result.NeedsReview)
	assert.Equal(t, PriorityHigh, result.Priority)
	assert.Contains(t, result.RecommendedAction, "Manual review recommended")
	assert.Contains(t, result.RecommendedAction, "Route to support")
	// The model's own category is preserved
	assert.Equal(t, CategoryGeneralInquiry, result.PrimaryCategory)
}

func TestClassifyDegradesWhenKnowledgeBaseFails(t *testing.T) {
	var seen *RetrievalContext
	llm := &fakeLLM{classifyFn: func(_ context.Context, _ *Email, rctx *RetrievalContext) (*ClassificationResult, error) {
		seen = rctx
		return &ClassificationResult{PrimaryCategory: CategorySpam, Confidence: 0.9, Priority: PriorityLow}, nil
	}}
	kb := &fakeKB{contextErr: fmt.Errorf("store unavailable")}
	svc := newService(llm, kb, &fakeFeedbackLog{}, false)

	result, err := svc.Classify(context.Background(), testEmail())
	require.NoError(t, err)
	assert.Equal(t, CategorySpam, result.PrimaryCategory)
	require.NotNil(t, seen)
	assert.True(t, seen.Empty())
}

func TestClassifyProviderTimeout(t *testing.T) {
	llm := &fakeLLM{classifyFn: func(ctx context.Context, _ *Email, _ *RetrievalContext) (*ClassificationResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	svc := NewClassifierService(llm, &fakeKB{}, &fakeFeedbackLog{}, zap.NewNop(), 0.7, false, 20*time.Millisecond)

	_, err := svc.Classify(context.Background(), testEmail())
	assert.ErrorIs(t, err, ErrProviderTimeout)
}

func TestClassifyLearningDisabled(t *testing.T) {
	llm := &fakeLLM{classifyFn: func(context.Context, *Email, *RetrievalContext) (*ClassificationResult, error) {
		return &ClassificationResult{PrimaryCategory: CategorySpam, Confidence: 0.95, Priority: PriorityLow}, nil
	}}
	kb := &fakeKB{}
	svc := newService(llm, kb, &fakeFeedbackLog{}, false)

	_, err := svc.Classify(context.Background(), testEmail())
	require.NoError(t, err)
	assert.Empty(t, kb.historyRecords)
}

func TestProvideFeedbackValidatesCategories(t *testing.T) {
	svc := newService(&fakeLLM{}, &fakeKB{}, &fakeFeedbackLog{}, true)

	err := svc.ProvideFeedback(context.Background(), testEmail(), "bogus", CategorySpam, 0.9, "")
	assert.ErrorIs(t, err, ErrUnknownCategory)

	err = svc.ProvideFeedback(context.Background(), testEmail(), CategorySpam, "bogus", 0.9, "")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestProvideFeedbackCorrection(t *testing.T) {
	kb := &fakeKB{}
	log := &fakeFeedbackLog{}
	svc := newService(&fakeLLM{}, kb, log, true)
	email := testEmail()

	err := svc.ProvideFeedback(context.Background(), email,
		CategoryGeneralInquiry, CategoryQuoteRequest, 0.6, "clearly asking for pricing")
	require.NoError(t, err)

	require.Len(t, log.records, 1)
	record := log.records[0]
	assert.Equal(t, email.ID(), record.EmailID)
	assert.Equal(t, CategoryGeneralInquiry, record.OriginalCategory)
	assert.Equal(t, CategoryQuoteRequest, record.CorrectCategory)
	assert.Equal(t, "clearly asking for pricing", record.Notes)
	assert.False(t, record.Timestamp.IsZero())

	// Learning re-ingests the correction into history and queries
	require.Len(t, kb.historyRecords, 1)
	assert.Equal(t, email.ID()+"_corrected", kb.historyRecords[0])
	require.Len(t, kb.queryRecords, 1)
	assert.Equal(t, "feedback_"+email.ID(), kb.queryRecords[0])
}

func TestProvideFeedbackConfirmationStillAppends(t *testing.T) {
	kb := &fakeKB{}
	log := &fakeFeedbackLog{}
	svc := newService(&fakeLLM{}, kb, log, true)

	err := svc.ProvideFeedback(context.Background(), testEmail(),
		CategorySpam, CategorySpam, 0.99, "")
	require.NoError(t, err)

	assert.Len(t, log.records, 1)
	// Confirmed classifications do not generate a feedback query
	assert.Empty(t, kb.queryRecords)
	assert.Len(t, kb.historyRecords, 1)
}

func TestProvideFeedbackLearningDisabled(t *testing.T) {
	kb := &fakeKB{}
	log := &fakeFeedbackLog{}
	svc := newService(&fakeLLM{}, kb, log, false)

	err := svc.ProvideFeedback(context.Background(), testEmail(),
		CategoryGeneralInquiry, CategoryComplaint, 0.5, "")
	require.NoError(t, err)

	// The audit record is written even when learning is off
	assert.Len(t, log.records, 1)
	assert.Empty(t, kb.historyRecords)
	assert.Empty(t, kb.queryRecords)
}

func TestStats(t *testing.T) {
	kb := &fakeKB{products: 4, queries: 2, history: 7}
	svc := newService(&fakeLLM{}, kb, &fakeFeedbackLog{}, true)

	stats, err := svc.Stats(context.Background(), "anthropic", 4)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", stats.Provider)
	assert.Equal(t, "fake-model", stats.Model)
	assert.Equal(t, 4, stats.TotalProducts)
	assert.Equal(t, 2, stats.TotalQueries)
	assert.Equal(t, 7, stats.TotalHistory)
	assert.Equal(t, 4, stats.ToolsRegistered)
	assert.True(t, stats.LearningEnabled)
}
