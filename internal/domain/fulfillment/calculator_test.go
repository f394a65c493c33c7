package fulfillment

import (
	"testing"
	"time"

	"github.com/storeops/backend/internal/domain/mapping"
	"github.com/storeops/backend/internal/domain/material"
	"github.com/storeops/backend/internal/domain/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day1 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func newSimple(t *testing.T, name string, stock int) *material.Material {
	t.Helper()
	m, err := material.NewMaterial(name, "", material.TypeSimple)
	require.NoError(t, err)
	m.WithInitialStock(stock)
	return m
}

func newMapping(t *testing.T, productID string, variationID *string, materialID string, materialVariationID *string, qty int) mapping.Mapping {
	t.Helper()
	mp, err := mapping.NewMapping(productID, variationID, materialID, materialVariationID, qty)
	require.NoError(t, err)
	return *mp
}

func pendingOrder(id string, created time.Time, items ...order.LineItem) order.Order {
	return order.Order{ID: id, Number: "#" + id, Status: order.StatusPending, DateCreated: created, LineItems: items}
}

func TestCalculator_OldestOrderClaimsFirst(t *testing.T) {
	m := newSimple(t, "M", 10)
	catalog := material.NewCatalog([]material.Material{*m})
	mappings := []mapping.Mapping{newMapping(t, "p1", nil, m.ID.String(), nil, 1)}

	// B is passed first but is newer; A must still win
	orders := []order.Order{
		pendingOrder("B", day1.Add(24*time.Hour), order.LineItem{ProductID: "p1", Quantity: 6}),
		pendingOrder("A", day1, order.LineItem{ProductID: "p1", Quantity: 6}),
	}

	got := NewCalculator().Calculate(Input{Orders: orders, Catalog: catalog, Mappings: mappings})

	require.Contains(t, got, "A")
	require.Contains(t, got, "B")
	assert.True(t, got["A"].CanFulfill)
	assert.Empty(t, got["A"].MissingMaterials)

	assert.False(t, got["B"].CanFulfill)
	require.Len(t, got["B"].MissingMaterials, 1)
	missing := got["B"].MissingMaterials[0]
	assert.Equal(t, m.ID.String(), missing.MaterialID)
	assert.Nil(t, missing.VariationID)
	assert.Equal(t, 6, missing.Needed)
	assert.Equal(t, 4, missing.Available)
	assert.Equal(t, "M", missing.Name)
}

func TestCalculator_AllOrNothingPerOrder(t *testing.T) {
	plenty := newSimple(t, "Plenty", 100)
	scarce := newSimple(t, "Scarce", 1)
	catalog := material.NewCatalog([]material.Material{*plenty, *scarce})
	mappings := []mapping.Mapping{
		newMapping(t, "kit", nil, plenty.ID.String(), nil, 60),
		newMapping(t, "kit", nil, scarce.ID.String(), nil, 2),
		newMapping(t, "bag", nil, plenty.ID.String(), nil, 60),
	}

	orders := []order.Order{
		pendingOrder("1", day1, order.LineItem{ProductID: "kit", Quantity: 1}),
		pendingOrder("2", day1.Add(time.Hour), order.LineItem{ProductID: "bag", Quantity: 1}),
	}

	got := NewCalculator().Calculate(Input{Orders: orders, Catalog: catalog, Mappings: mappings})

	assert.False(t, got["1"].CanFulfill)
	require.Len(t, got["1"].MissingMaterials, 1)
	assert.Equal(t, scarce.ID.String(), got["1"].MissingMaterials[0].MaterialID)
	// order 1 released its claim on Plenty, so order 2 still fits
	assert.True(t, got["2"].CanFulfill)
}

func TestCalculator_ProcessedOrdersNeverClaim(t *testing.T) {
	m := newSimple(t, "M", 5)
	catalog := material.NewCatalog([]material.Material{*m})
	mappings := []mapping.Mapping{newMapping(t, "p1", nil, m.ID.String(), nil, 5)}

	orders := []order.Order{
		pendingOrder("old", day1, order.LineItem{ProductID: "p1", Quantity: 1}),
		pendingOrder("new", day1.Add(time.Hour), order.LineItem{ProductID: "p1", Quantity: 1}),
	}

	got := NewCalculator().Calculate(Input{
		Orders: orders, Catalog: catalog, Mappings: mappings,
		Processed: map[string]bool{"old": true},
	})

	assert.True(t, got["old"].CanFulfill)
	assert.True(t, got["old"].IsProcessed)
	assert.True(t, got["new"].CanFulfill)
	assert.False(t, got["new"].IsProcessed)
}

func TestCalculator_SkipsOrphanedMappings(t *testing.T) {
	m := newSimple(t, "M", 1)
	catalog := material.NewCatalog([]material.Material{*m})
	mappings := []mapping.Mapping{
		newMapping(t, "p1", nil, "deleted-material", nil, 50),
		newMapping(t, "p1", nil, m.ID.String(), nil, 1),
	}

	got := NewCalculator().Calculate(Input{
		Orders:   []order.Order{pendingOrder("1", day1, order.LineItem{ProductID: "p1", Quantity: 1})},
		Catalog:  catalog,
		Mappings: mappings,
	})

	assert.True(t, got["1"].CanFulfill)
	assert.Empty(t, got["1"].MissingMaterials)
}

func TestCalculator_FiltersTerminalOrders(t *testing.T) {
	m := newSimple(t, "M", 1)
	catalog := material.NewCatalog([]material.Material{*m})
	mappings := []mapping.Mapping{newMapping(t, "p1", nil, m.ID.String(), nil, 1)}

	done := pendingOrder("done", day1, order.LineItem{ProductID: "p1", Quantity: 1})
	done.Status = order.StatusCompleted
	open := pendingOrder("open", day1.Add(time.Hour), order.LineItem{ProductID: "p1", Quantity: 1})
	open.Status = order.StatusInProduction

	got := NewCalculator().Calculate(Input{Orders: []order.Order{done, open}, Catalog: catalog, Mappings: mappings})

	assert.NotContains(t, got, "done")
	assert.True(t, got["open"].CanFulfill)
}

func TestCalculator_NormalizesAcrossIDSpaces(t *testing.T) {
	m := newSimple(t, "M", 10)
	m.WithExternalID("555")
	catalog := material.NewCatalog([]material.Material{*m})

	// two products reach the same material through different id spaces
	mappings := []mapping.Mapping{
		newMapping(t, "p1", nil, m.ID.String(), nil, 1),
		newMapping(t, "p2", nil, "555", nil, 1),
	}
	orders := []order.Order{
		pendingOrder("1", day1, order.LineItem{ProductID: "p1", Quantity: 6}),
		pendingOrder("2", day1.Add(time.Hour), order.LineItem{ProductID: "p2", Quantity: 6}),
	}

	got := NewCalculator().Calculate(Input{Orders: orders, Catalog: catalog, Mappings: mappings})

	assert.True(t, got["1"].CanFulfill)
	assert.False(t, got["2"].CanFulfill)
	require.Len(t, got["2"].MissingMaterials, 1)
	assert.Equal(t, m.ID.String(), got["2"].MissingMaterials[0].MaterialID)
	assert.Equal(t, 4, got["2"].MissingMaterials[0].Available)
}

func TestCalculator_VariationPools(t *testing.T) {
	thread, err := material.NewMaterial("Thread", "", material.TypeVariable)
	require.NoError(t, err)
	red, _ := thread.AddVariation("Red", "", nil)
	red.StockQuantity = 3
	red.WithExternalID("77")
	blue, _ := thread.AddVariation("Blue", "", nil)
	blue.StockQuantity = 4
	redID := thread.Variations[0].ID.String()

	catalog := material.NewCatalog([]material.Material{*thread})
	mappings := []mapping.Mapping{
		newMapping(t, "red-shirt", nil, thread.ID.String(), strPtr("77"), 1),
		newMapping(t, "any-shirt", nil, thread.ID.String(), nil, 1),
	}
	orders := []order.Order{
		pendingOrder("1", day1, order.LineItem{ProductID: "red-shirt", Quantity: 4}),
		pendingOrder("2", day1.Add(time.Hour), order.LineItem{ProductID: "any-shirt", Quantity: 7}),
	}

	got := NewCalculator().Calculate(Input{Orders: orders, Catalog: catalog, Mappings: mappings})

	assert.False(t, got["1"].CanFulfill)
	require.Len(t, got["1"].MissingMaterials, 1)
	missing := got["1"].MissingMaterials[0]
	require.NotNil(t, missing.VariationID)
	assert.Equal(t, redID, *missing.VariationID)
	assert.Equal(t, "Thread – Red", missing.Name)
	assert.Equal(t, 3, missing.Available)

	// the parent bucket holds the sum of variations
	assert.True(t, got["2"].CanFulfill)
}

func TestCalculator_UnmanagedMaterialsAlwaysPass(t *testing.T) {
	m := newSimple(t, "Untracked", 0)
	m.ManageStock = false
	catalog := material.NewCatalog([]material.Material{*m})
	mappings := []mapping.Mapping{newMapping(t, "p1", nil, m.ID.String(), nil, 3)}

	got := NewCalculator().Calculate(Input{
		Orders:   []order.Order{pendingOrder("1", day1, order.LineItem{ProductID: "p1", Quantity: 10})},
		Catalog:  catalog,
		Mappings: mappings,
	})

	assert.True(t, got["1"].CanFulfill)
}

func TestCalculator_NeverAllocatesMoreThanPool(t *testing.T) {
	m := newSimple(t, "M", 17)
	catalog := material.NewCatalog([]material.Material{*m})
	mappings := []mapping.Mapping{newMapping(t, "p1", nil, m.ID.String(), nil, 1)}

	orders := make([]order.Order, 0, 10)
	quantities := []int{5, 9, 3, 4, 1, 8, 2, 2, 6, 1}
	for i, q := range quantities {
		id := string(rune('a' + i))
		orders = append(orders, pendingOrder(id, day1.Add(time.Duration(i)*time.Minute), order.LineItem{ProductID: "p1", Quantity: q}))
	}

	got := NewCalculator().Calculate(Input{Orders: orders, Catalog: catalog, Mappings: mappings})

	allocated := 0
	for i, q := range quantities {
		if got[string(rune('a'+i))].CanFulfill {
			allocated += q
		}
	}
	assert.LessOrEqual(t, allocated, 17)
	// a(5) fits, b(9) fits (14), c(3) fits (17), everything after is blocked
	assert.Equal(t, 17, allocated)
	assert.False(t, got["e"].CanFulfill)
}

func TestCalculator_WithAwaitingStatuses(t *testing.T) {
	m := newSimple(t, "M", 10)
	catalog := material.NewCatalog([]material.Material{*m})
	mappings := []mapping.Mapping{newMapping(t, "p1", nil, m.ID.String(), nil, 1)}

	o := pendingOrder("1", day1, order.LineItem{ProductID: "p1", Quantity: 1})
	got := NewCalculator(WithAwaitingStatuses(order.StatusProcessing)).
		Calculate(Input{Orders: []order.Order{o}, Catalog: catalog, Mappings: mappings})

	assert.Empty(t, got)
}
