package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/storeops/backend/internal/domain/ledger"
	"github.com/storeops/backend/internal/domain/material"
	"github.com/storeops/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendEntry(t *testing.T, repo *GormLedgerRepository, key material.StockKey, prev, change int, reason ledger.Reason, at time.Time) *ledger.Entry {
	t.Helper()
	e, err := ledger.NewEntry(key, prev, change, reason)
	require.NoError(t, err)
	e.CreatedAt = at
	require.NoError(t, repo.Append(context.Background(), e))
	return e
}

func TestGormLedgerRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormLedgerRepository(newTestDB(t))

	materialID := uuid.New()
	variationID := uuid.New()
	parent := material.StockKey{MaterialID: materialID}
	variation := material.StockKey{MaterialID: materialID, VariationID: &variationID}
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := appendEntry(t, repo, parent, 0, 10, ledger.ReasonStockTake, base)
	order, err := ledger.NewEntry(parent, 10, -2, ledger.ReasonOrder)
	require.NoError(t, err)
	order.WithOrder("1001", "1001").WithNotes("Order #1001: 2 x Paper")
	order.CreatedAt = base.Add(time.Minute)
	require.NoError(t, repo.Append(ctx, order))
	appendEntry(t, repo, variation, 0, 4, ledger.ReasonManual, base.Add(2*time.Minute))

	t.Run("entries come back oldest first", func(t *testing.T) {
		entries, err := repo.Query(ctx, ledger.Query{MaterialID: &materialID})
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, first.ID, entries[0].ID)
		assert.Equal(t, ledger.ReasonOrder, entries[1].Reason)
		assert.Equal(t, "1001", *entries[1].OrderID)
		assert.Equal(t, "Order #1001: 2 x Paper", entries[1].Notes)
		assert.Equal(t, 8, entries[1].NewStock)
	})

	t.Run("filters", func(t *testing.T) {
		byReason, err := repo.Query(ctx, ledger.Query{Reason: ledger.ReasonOrder})
		require.NoError(t, err)
		assert.Len(t, byReason, 1)

		byOrder, err := repo.Query(ctx, ledger.Query{OrderID: "1001"})
		require.NoError(t, err)
		assert.Len(t, byOrder, 1)

		byVariation, err := repo.Query(ctx, ledger.Query{VariationID: &variationID})
		require.NoError(t, err)
		require.Len(t, byVariation, 1)
		assert.Equal(t, variationID, *byVariation[0].MaterialVariationID)

		from := base.Add(30 * time.Second)
		to := base.Add(90 * time.Second)
		window, err := repo.Query(ctx, ledger.Query{From: &from, To: &to})
		require.NoError(t, err)
		assert.Len(t, window, 1)

		limited, err := repo.Query(ctx, ledger.Query{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, limited, 2)
	})

	t.Run("offset pages past the oldest entries", func(t *testing.T) {
		page, err := repo.Query(ctx, ledger.Query{MaterialID: &materialID, Limit: 2, Offset: 2})
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, variationID, *page[0].MaterialVariationID)

		second, err := repo.Query(ctx, ledger.Query{MaterialID: &materialID, Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, second, 1)
		assert.Equal(t, order.ID, second[0].ID)
	})

	t.Run("latest entry per pool", func(t *testing.T) {
		latest, err := repo.LatestFor(ctx, parent)
		require.NoError(t, err)
		assert.Equal(t, order.ID, latest.ID)

		latest, err = repo.LatestFor(ctx, variation)
		require.NoError(t, err)
		assert.Equal(t, 4, latest.NewStock)

		_, err = repo.LatestFor(ctx, material.StockKey{MaterialID: uuid.New()})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
