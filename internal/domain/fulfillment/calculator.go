package fulfillment

import (
	"sort"

	"github.com/storeops/backend/internal/domain/mapping"
	"github.com/storeops/backend/internal/domain/material"
	"github.com/storeops/backend/internal/domain/order"
)

// Calculator is a domain service that decides, for every open order, whether
// it can be fulfilled from remaining stock when orders compete for the same
// materials.
//
// Allocation rules:
//   - orders are served oldest first
//   - an order claims all of its needs or nothing
//   - processed orders are always fulfillable and claim nothing, their stock
//     is already gone from the baseline
//   - mappings pointing at missing materials are ignored
//   - materials with stock management disabled never block and never claim
//
// The calculator only reads its input.
type Calculator struct {
	isAwaiting func(order.Status) bool
}

// CalculatorOption is a functional option for configuring Calculator
type CalculatorOption func(*Calculator)

// WithAwaitingStatuses overrides which order statuses compete for stock
func WithAwaitingStatuses(statuses ...order.Status) CalculatorOption {
	return func(c *Calculator) {
		set := make(map[order.Status]bool, len(statuses))
		for _, s := range statuses {
			set[s] = true
		}
		c.isAwaiting = func(s order.Status) bool { return set[s] }
	}
}

// NewCalculator creates a new fulfillment calculator
func NewCalculator(opts ...CalculatorOption) *Calculator {
	c := &Calculator{
		isAwaiting: order.Status.IsAwaitingFulfillment,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Input is everything a calculation pass reads
type Input struct {
	Orders    []order.Order
	Catalog   *material.Catalog
	Mappings  []mapping.Mapping
	Processed map[string]bool
}

// MissingMaterial is one shortfall that blocks an order
type MissingMaterial struct {
	MaterialID  string  `json:"material_id"`
	VariationID *string `json:"variation_id,omitempty"`
	Name        string  `json:"name"`
	Needed      int     `json:"needed"`
	Available   int     `json:"available"`
}

// Status is the fulfillment decision for one order
type Status struct {
	CanFulfill       bool              `json:"can_fulfill"`
	MissingMaterials []MissingMaterial `json:"missing_materials"`
	IsProcessed      bool              `json:"is_processed"`
}

// Calculate runs one allocation pass and returns a decision per order id.
// Orders whose status does not await fulfillment are absent from the result.
func (c *Calculator) Calculate(in Input) map[string]Status {
	pool := SeedPool(in.Catalog)
	claimed := make(map[string]int)
	index := NewMappingIndex(in.Mappings)
	result := make(map[string]Status)

	for _, o := range c.prioritize(in.Orders) {
		if in.Processed[o.ID] {
			result[o.ID] = Status{CanFulfill: true, IsProcessed: true, MissingMaterials: []MissingMaterial{}}
			continue
		}

		needs := CollectNeeds(o, in.Catalog, index)
		status := Status{CanFulfill: true, MissingMaterials: []MissingMaterial{}}
		for _, n := range needs.Entries() {
			available := pool[n.Key] - claimed[n.Key]
			if available < n.Needed {
				status.CanFulfill = false
				status.MissingMaterials = append(status.MissingMaterials, MissingMaterial{
					MaterialID:  n.MaterialID,
					VariationID: n.VariationID,
					Name:        n.Name,
					Needed:      n.Needed,
					Available:   max(available, 0),
				})
			}
		}

		if status.CanFulfill {
			for _, n := range needs.Entries() {
				claimed[n.Key] += n.Needed
			}
		}
		result[o.ID] = status
	}

	return result
}

// prioritize keeps awaiting orders and sorts them oldest first.
// Ties fall back to order id so repeated passes agree.
func (c *Calculator) prioritize(orders []order.Order) []order.Order {
	open := make([]order.Order, 0, len(orders))
	for _, o := range orders {
		if c.isAwaiting(o.Status) {
			open = append(open, o)
		}
	}
	sort.SliceStable(open, func(i, j int) bool {
		if open[i].DateCreated.Equal(open[j].DateCreated) {
			return open[i].ID < open[j].ID
		}
		return open[i].DateCreated.Before(open[j].DateCreated)
	})
	return open
}

// SeedPool builds the stock pool keyed by canonical (material, variation|null).
// A variable material also gets a parent bucket holding the sum of its
// variations, for mappings that name the material without a variation.
func SeedPool(catalog *material.Catalog) map[string]int {
	pool := make(map[string]int)
	if catalog == nil {
		return pool
	}
	for _, m := range catalog.Materials() {
		pool[PoolKey(m.ID.String(), nil)] = m.TotalStock()
		for i := range m.Variations {
			v := &m.Variations[i]
			vid := v.ID.String()
			pool[PoolKey(m.ID.String(), &vid)] = v.StockQuantity
		}
	}
	return pool
}

// PoolKey renders "<material>-<variation|null>"
func PoolKey(materialID string, variationID *string) string {
	if variationID == nil {
		return materialID + "-null"
	}
	return materialID + "-" + *variationID
}
