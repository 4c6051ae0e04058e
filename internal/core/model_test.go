package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("quote_request")
	require.NoError(t, err)
	assert.Equal(t, CategoryQuoteRequest, c)

	_, err = ParseCategory("not_a_category")
	assert.ErrorIs(t, err, ErrUnknownCategory)

	_, err = ParseCategory("")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestAllCategoriesHaveDescriptions(t *testing.T) {
	cats := AllCategories()
	assert.Len(t, cats, 12)
	for _, c := range cats {
		assert.True(t, c.Valid(), "category %q should be valid", c)
		assert.NotEqual(t, "Unknown category", c.Description())
	}
}

func TestParsePriority(t *testing.T) {
	p, err := ParsePriority("urgent")
	require.NoError(t, err)
	assert.Equal(t, PriorityUrgent, p)

	// Empty priority defaults to normal
	p, err = ParsePriority("")
	require.NoError(t, err)
	assert.Equal(t, PriorityNormal, p)

	_, err = ParsePriority("critical")
	assert.Error(t, err)
}

func TestPriorityEscalate(t *testing.T) {
	assert.Equal(t, PriorityNormal, PriorityLow.Escalate())
	assert.Equal(t, PriorityHigh, PriorityNormal.Escalate())
	assert.Equal(t, PriorityUrgent, PriorityHigh.Escalate())
	assert.Equal(t, PriorityUrgent, PriorityUrgent.Escalate())
}

func TestEmailID(t *testing.T) {
	received := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	a := &Email{Subject: "Quote for citric acid", Body: "Need 500kg", Sender: "buyer@example.com", ReceivedAt: received}
	b := &Email{Subject: "Quote for citric acid", Body: "Need 500kg", Sender: "buyer@example.com", ReceivedAt: received}

	assert.Equal(t, a.ID(), b.ID(), "identical content should hash to the same id")
	assert.Len(t, a.ID(), 32)

	c := &Email{Subject: "Quote for citric acid", Body: "Need 600kg", Sender: "buyer@example.com", ReceivedAt: received}
	assert.NotEqual(t, a.ID(), c.ID())
}

func TestEmailContent(t *testing.T) {
	e := &Email{Subject: "Hello", Body: "World"}
	assert.Equal(t, "Hello World", e.Content())
}

func TestRetrievalContextEmpty(t *testing.T) {
	var nilCtx *RetrievalContext
	assert.True(t, nilCtx.Empty())
	assert.True(t, (&RetrievalContext{}).Empty())

	full := &RetrievalContext{
		RelevantProducts: []ScoredEntry{{Entry: KnowledgeEntry{ID: "p1"}}},
	}
	assert.False(t, full.Empty())
}
