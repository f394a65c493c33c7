package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/storeops/backend/internal/domain/order"
	"github.com/storeops/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormProcessedOrderRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormProcessedOrderRepository(newTestDB(t))

	first, err := order.NewProcessedOrder("500", "500")
	require.NoError(t, err)
	first.ProcessedAt = time.Now().Add(-time.Hour)
	require.NoError(t, repo.Insert(ctx, first))

	second, err := order.NewProcessedOrder("501", "501")
	require.NoError(t, err)
	require.NoError(t, repo.Insert(ctx, second))

	t.Run("second marker for the same order", func(t *testing.T) {
		again, err := order.NewProcessedOrder("500", "500")
		require.NoError(t, err)
		assert.ErrorIs(t, repo.Insert(ctx, again), order.ErrAlreadyProcessed)
	})

	t.Run("find by order id", func(t *testing.T) {
		found, err := repo.FindByOrderID(ctx, "500")
		require.NoError(t, err)
		assert.Equal(t, first.ID, found.ID)

		_, err = repo.FindByOrderID(ctx, "999")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("processed ids", func(t *testing.T) {
		ids, err := repo.ProcessedIDs(ctx, []string{"500", "999"})
		require.NoError(t, err)
		assert.Equal(t, map[string]bool{"500": true}, ids)

		all, err := repo.ProcessedIDs(ctx, nil)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		none, err := repo.ProcessedIDs(ctx, []string{})
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("recent markers newest first", func(t *testing.T) {
		recent, err := repo.FindRecent(ctx, 10)
		require.NoError(t, err)
		require.Len(t, recent, 2)
		assert.Equal(t, "501", recent[0].OrderID)

		recent, err = repo.FindRecent(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, recent, 1)
	})
}
