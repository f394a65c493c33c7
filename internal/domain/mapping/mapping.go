package mapping

import (
	"strings"
	"time"

	"github.com/storeops/backend/internal/domain/shared"
)

// Mapping associates a sellable product (or one of its variations) with a
// material (or one of its variations) consumed per unit sold.
//
// Material references may be in either id space; they are normalized against
// the material catalog before they are used in any aggregation.
type Mapping struct {
	shared.BaseEntity
	ProductID           string
	VariationID         *string
	MaterialProductID   string
	MaterialVariationID *string
	QuantityUsed        int
}

// NewMapping creates a mapping consuming quantityUsed units per item sold
func NewMapping(productID string, variationID *string, materialID string, materialVariationID *string, quantityUsed int) (*Mapping, error) {
	productID = strings.TrimSpace(productID)
	materialID = strings.TrimSpace(materialID)
	if productID == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if materialID == "" {
		return nil, shared.NewDomainError("INVALID_MATERIAL", "Material ID cannot be empty")
	}
	if quantityUsed <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity used must be positive")
	}

	return &Mapping{
		BaseEntity:          shared.NewBaseEntity(),
		ProductID:           productID,
		VariationID:         blankToNil(variationID),
		MaterialProductID:   materialID,
		MaterialVariationID: blankToNil(materialVariationID),
		QuantityUsed:        quantityUsed,
	}, nil
}

// UpdateQuantity changes the per-unit consumption; the pairing itself is immutable
func (m *Mapping) UpdateQuantity(quantityUsed int) error {
	if quantityUsed <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity used must be positive")
	}
	m.QuantityUsed = quantityUsed
	m.UpdatedAt = time.Now()
	return nil
}

// Key renders the uniqueness tuple (material, material variation, product, variation).
// Nil parts render as "null".
func (m *Mapping) Key() string {
	return strings.Join([]string{
		m.MaterialProductID,
		orNull(m.MaterialVariationID),
		m.ProductID,
		orNull(m.VariationID),
	}, "|")
}

// MatchesProduct reports whether the mapping applies to the sellable item.
// Variation match is exact: nil only matches nil.
func (m *Mapping) MatchesProduct(productID string, variationID *string) bool {
	if m.ProductID != productID {
		return false
	}
	return equalOptional(m.VariationID, blankToNil(variationID))
}

// VariationFilter selects mappings by material variation.
// The zero value matches any variation.
type VariationFilter struct {
	mode         filterMode
	variationIDs []string
}

type filterMode int

const (
	anyVariation filterMode = iota
	noVariation
	exactVariation
)

// AnyVariation matches every mapping of the material
func AnyVariation() VariationFilter {
	return VariationFilter{mode: anyVariation}
}

// NoVariation matches only mappings that target the parent material
func NoVariation() VariationFilter {
	return VariationFilter{mode: noVariation}
}

// ForVariation matches mappings targeting one material variation.
// ids lists the aliases of that variation (local and external id).
func ForVariation(ids ...string) VariationFilter {
	return VariationFilter{mode: exactVariation, variationIDs: ids}
}

// IsAny reports whether the filter matches every variation
func (f VariationFilter) IsAny() bool { return f.mode == anyVariation }

// IsNone reports whether the filter matches only parent-level mappings
func (f VariationFilter) IsNone() bool { return f.mode == noVariation }

// VariationIDs returns the variation aliases, if the filter targets one variation
func (f VariationFilter) VariationIDs() ([]string, bool) {
	return f.variationIDs, f.mode == exactVariation
}

// Matches applies the filter to a mapping's material variation
func (f VariationFilter) Matches(materialVariationID *string) bool {
	switch f.mode {
	case noVariation:
		return materialVariationID == nil
	case exactVariation:
		if materialVariationID == nil {
			return false
		}
		for _, id := range f.variationIDs {
			if id == *materialVariationID {
				return true
			}
		}
		return false
	default:
		return true
	}
}

// BulkResult reports what a bulk create wrote and what it skipped
type BulkResult struct {
	Created []Mapping
	Skipped []Mapping
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func orNull(s *string) string {
	if s == nil {
		return "null"
	}
	return *s
}

func equalOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
