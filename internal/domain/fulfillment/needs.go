package fulfillment

import (
	"github.com/storeops/backend/internal/domain/mapping"
	"github.com/storeops/backend/internal/domain/material"
	"github.com/storeops/backend/internal/domain/order"
)

// MappingIndex resolves the mappings of a sellable item
type MappingIndex struct {
	byProduct map[string][]mapping.Mapping
}

// NewMappingIndex indexes mappings by (product, variation|null)
func NewMappingIndex(mappings []mapping.Mapping) *MappingIndex {
	idx := &MappingIndex{byProduct: make(map[string][]mapping.Mapping)}
	for _, m := range mappings {
		k := productKey(m.ProductID, m.VariationID)
		idx.byProduct[k] = append(idx.byProduct[k], m)
	}
	return idx
}

// ForProduct returns mappings matching the item exactly, nil variation only matching nil
func (idx *MappingIndex) ForProduct(productID string, variationID *string) []mapping.Mapping {
	if variationID != nil && *variationID == "" {
		variationID = nil
	}
	return idx.byProduct[productKey(productID, variationID)]
}

func productKey(productID string, variationID *string) string {
	if variationID == nil {
		return productID + "|null"
	}
	return productID + "|" + *variationID
}

// Need is the aggregated demand of one order on one stock pool
type Need struct {
	Key         string
	MaterialID  string
	VariationID *string
	Name        string
	Needed      int
	// CurrentStock is the pool's persisted level; zero when the variation no longer exists
	CurrentStock int
}

// Needs keeps per-pool demand in first-seen order
type Needs struct {
	order   []string
	entries map[string]*Need
	// Orphans counts mappings skipped because their material no longer resolves
	Orphans int
}

// Entries returns the aggregated needs in first-seen order
func (n *Needs) Entries() []Need {
	out := make([]Need, 0, len(n.order))
	for _, k := range n.order {
		out = append(out, *n.entries[k])
	}
	return out
}

func (n *Needs) add(need Need) {
	if existing, ok := n.entries[need.Key]; ok {
		existing.Needed += need.Needed
		return
	}
	n.order = append(n.order, need.Key)
	cp := need
	n.entries[need.Key] = &cp
}

// CollectNeeds aggregates quantityUsed × line quantity per normalized pool for
// one order. Orphaned mappings and unmanaged materials contribute nothing.
func CollectNeeds(o order.Order, catalog *material.Catalog, index *MappingIndex) *Needs {
	needs := &Needs{entries: make(map[string]*Need)}
	for _, item := range o.LineItems {
		for _, mp := range index.ForProduct(item.ProductID, item.VariationID) {
			m, ok := catalog.FindMaterial(mp.MaterialProductID)
			if !ok {
				needs.Orphans++
				continue
			}

			materialID := m.ID.String()
			variationID := catalog.NormalizeVariationID(m, mp.MaterialVariationID)

			var variation *material.Variation
			if variationID != nil {
				variation, _ = material.FindVariation(m, *variationID)
			}
			if !effectiveManageStock(m, variation) {
				continue
			}

			current := m.TotalStock()
			if variationID != nil {
				current = 0
				if variation != nil {
					current = variation.StockQuantity
				}
			}

			needs.add(Need{
				Key:          PoolKey(materialID, variationID),
				MaterialID:   materialID,
				VariationID:  variationID,
				Name:         m.DisplayName(variation),
				Needed:       mp.QuantityUsed * item.Quantity,
				CurrentStock: current,
			})
		}
	}
	return needs
}

func effectiveManageStock(m *material.Material, v *material.Variation) bool {
	if v != nil {
		return v.ManageStock
	}
	return m.ManageStock
}
