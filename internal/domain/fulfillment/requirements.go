package fulfillment

import (
	"github.com/storeops/backend/internal/domain/mapping"
	"github.com/storeops/backend/internal/domain/material"
	"github.com/storeops/backend/internal/domain/order"
)

// Requirement is what one mapping of one line item asks from stock
type Requirement struct {
	ProductID          string  `json:"product_id"`
	ProductName        string  `json:"product_name"`
	MaterialID         string  `json:"material_id"`
	VariationID        *string `json:"variation_id,omitempty"`
	MaterialName       string  `json:"material_name"`
	QuantityNeeded     int     `json:"quantity_needed"`
	CurrentStock       int     `json:"current_stock"`
	HasSufficientStock bool    `json:"has_sufficient_stock"`
	ManageStock        bool    `json:"manage_stock"`
}

// Requirements lists the material needs of a single order against current
// stock, without competition from other orders.
type Requirements struct {
	Items         []Requirement    `json:"items"`
	UnmappedItems []order.LineItem `json:"unmapped_items"`
	CanFulfill    bool             `json:"can_fulfill"`
}

// RequiredMaterials resolves an order's line items into per-mapping needs.
// A row is sufficient when its pool covers the order's total demand on that
// pool, so two lines sharing a material are judged together.
func RequiredMaterials(o order.Order, catalog *material.Catalog, mappings []mapping.Mapping) Requirements {
	index := NewMappingIndex(mappings)
	totals := CollectNeeds(o, catalog, index)
	totalByKey := make(map[string]Need, len(totals.order))
	for _, n := range totals.Entries() {
		totalByKey[n.Key] = n
	}

	out := Requirements{
		Items:         []Requirement{},
		UnmappedItems: []order.LineItem{},
		CanFulfill:    true,
	}
	for _, item := range o.LineItems {
		mps := index.ForProduct(item.ProductID, item.VariationID)
		if len(mps) == 0 {
			out.UnmappedItems = append(out.UnmappedItems, item)
			continue
		}
		for _, mp := range mps {
			m, ok := catalog.FindMaterial(mp.MaterialProductID)
			if !ok {
				continue
			}
			variationID := catalog.NormalizeVariationID(m, mp.MaterialVariationID)
			var variation *material.Variation
			if variationID != nil {
				variation, _ = material.FindVariation(m, *variationID)
			}

			row := Requirement{
				ProductID:      item.ProductID,
				ProductName:    item.Name,
				MaterialID:     m.ID.String(),
				VariationID:    variationID,
				MaterialName:   m.DisplayName(variation),
				QuantityNeeded: mp.QuantityUsed * item.Quantity,
				ManageStock:    effectiveManageStock(m, variation),
			}
			if !row.ManageStock {
				row.CurrentStock = currentStock(m, variation, variationID)
				row.HasSufficientStock = true
				out.Items = append(out.Items, row)
				continue
			}

			total := totalByKey[PoolKey(row.MaterialID, variationID)]
			row.CurrentStock = total.CurrentStock
			row.HasSufficientStock = total.CurrentStock >= total.Needed
			if !row.HasSufficientStock {
				out.CanFulfill = false
			}
			out.Items = append(out.Items, row)
		}
	}
	return out
}

func currentStock(m *material.Material, v *material.Variation, variationID *string) int {
	if variationID == nil {
		return m.TotalStock()
	}
	if v == nil {
		return 0
	}
	return v.StockQuantity
}
