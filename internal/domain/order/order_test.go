package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_IsAwaitingFulfillment(t *testing.T) {
	for _, s := range AwaitingFulfillmentStatuses() {
		assert.True(t, s.IsAwaitingFulfillment(), string(s))
	}
	for _, s := range []Status{StatusCompleted, StatusCancelled, StatusRefunded, StatusFailed, StatusCheckoutDraft, Status("")} {
		assert.False(t, s.IsAwaitingFulfillment(), string(s))
	}
}

func TestFeedFilter_CacheKey(t *testing.T) {
	after := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	a := FeedFilter{After: &after, Statuses: []Status{StatusPending}, Page: 1, PerPage: 50}
	b := FeedFilter{After: &after, Statuses: []Status{StatusPending}, Page: 1, PerPage: 50}
	c := FeedFilter{After: &after, Statuses: []Status{StatusPending}, Page: 2, PerPage: 50}

	assert.Equal(t, a.CacheKey(), b.CacheKey())
	assert.NotEqual(t, a.CacheKey(), c.CacheKey())
	assert.Contains(t, a.CacheKey(), "2026-01-02T03:04:05Z")
}

func TestNewProcessedOrder(t *testing.T) {
	m, err := NewProcessedOrder("500", "#500")
	require.NoError(t, err)
	assert.Equal(t, "500", m.OrderID)
	assert.False(t, m.ProcessedAt.IsZero())

	_, err = NewProcessedOrder(" ", "")
	assert.Error(t, err)
}
