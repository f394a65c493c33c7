package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/storeops/backend/internal/domain/material"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReason_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		reason   Reason
		expected bool
	}{
		{"manual is valid", ReasonManual, true},
		{"stock_in is valid", ReasonStockIn, true},
		{"stock_take is valid", ReasonStockTake, true},
		{"order is valid", ReasonOrder, true},
		{"purchase_order is valid", ReasonPurchaseOrder, true},
		{"empty is not valid", Reason(""), false},
		{"unknown is not valid", Reason("transfer"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.reason.IsValid())
		})
	}
}

func TestNewEntry(t *testing.T) {
	materialID := uuid.New()
	variationID := uuid.New()

	t.Run("computes new stock from previous and change", func(t *testing.T) {
		e, err := NewEntry(material.StockKey{MaterialID: materialID}, 50, -8, ReasonStockTake)
		require.NoError(t, err)

		assert.Equal(t, 50, e.PreviousStock)
		assert.Equal(t, -8, e.QuantityChange)
		assert.Equal(t, 42, e.NewStock)
		assert.Nil(t, e.MaterialVariationID)
		assert.True(t, e.IsDecrease())
		assert.False(t, e.CreatedAt.IsZero())
	})

	t.Run("allows going negative", func(t *testing.T) {
		e, err := NewEntry(material.StockKey{MaterialID: materialID}, 2, -5, ReasonOrder)
		require.NoError(t, err)
		assert.Equal(t, -3, e.NewStock)
	})

	t.Run("targets a variation", func(t *testing.T) {
		key := material.StockKey{MaterialID: materialID, VariationID: &variationID}
		e, err := NewEntry(key, 0, 12, ReasonPurchaseOrder)
		require.NoError(t, err)

		require.NotNil(t, e.MaterialVariationID)
		assert.Equal(t, variationID, *e.MaterialVariationID)
		assert.Equal(t, key, e.Key())
	})

	t.Run("rejects invalid reason", func(t *testing.T) {
		_, err := NewEntry(material.StockKey{MaterialID: materialID}, 0, 1, Reason("gift"))
		assert.Error(t, err)
	})

	t.Run("rejects nil material", func(t *testing.T) {
		_, err := NewEntry(material.StockKey{}, 0, 1, ReasonManual)
		assert.Error(t, err)
	})
}

func TestEntry_WithOrder(t *testing.T) {
	e, _ := NewEntry(material.StockKey{MaterialID: uuid.New()}, 10, 8, ReasonPurchaseOrder)
	e.WithOrder("", "PO-2026-0001").WithNotes("received")

	assert.Nil(t, e.OrderID)
	require.NotNil(t, e.OrderNumber)
	assert.Equal(t, "PO-2026-0001", *e.OrderNumber)
	assert.Equal(t, "received", e.Notes)

	e.WithOrder("500", "#500")
	require.NotNil(t, e.OrderID)
	assert.Equal(t, "500", *e.OrderID)
}

func TestQuery_EffectiveLimit(t *testing.T) {
	assert.Equal(t, DefaultQueryLimit, Query{}.EffectiveLimit())
	assert.Equal(t, 5, Query{Limit: 5}.EffectiveLimit())
}
