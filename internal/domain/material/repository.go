package material

import (
	"context"

	"github.com/google/uuid"
	"github.com/storeops/backend/internal/domain/shared"
)

// ListFilter narrows material listings
type ListFilter struct {
	shared.Filter
	// IncludeInactive lists soft-deleted materials too; listings are active-only by default
	IncludeInactive bool
	Type            Type
}

// StockKey identifies one stock pool: a parent material or one of its variations
type StockKey struct {
	MaterialID  uuid.UUID
	VariationID *uuid.UUID
}

// String renders the key as "<material>-<variation|null>"
func (k StockKey) String() string {
	if k.VariationID == nil {
		return k.MaterialID.String() + "-null"
	}
	return k.MaterialID.String() + "-" + k.VariationID.String()
}

// IsVariation reports whether the key targets a variation
func (k StockKey) IsVariation() bool {
	return k.VariationID != nil
}

// Repository defines persistence for the material catalog
type Repository interface {
	// FindByID loads a material with its variations regardless of the active flag
	FindByID(ctx context.Context, id uuid.UUID) (*Material, error)

	// FindByExternalID loads a material by its legacy external id
	FindByExternalID(ctx context.Context, externalID string) (*Material, error)

	// FindAll lists materials; inactive materials are excluded unless requested
	FindAll(ctx context.Context, filter ListFilter) ([]Material, error)

	// Count counts materials matching the filter
	Count(ctx context.Context, filter ListFilter) (int64, error)

	// FindAllWithVariations loads every material, active or not, for id resolution
	FindAllWithVariations(ctx context.Context) ([]Material, error)

	// Save creates or updates a material and its variations.
	// Stock quantities are written only on insert.
	Save(ctx context.Context, m *Material) error

	// GetStock reads the stock level of a pool. When forUpdate is set the row
	// stays locked until the surrounding transaction ends.
	GetStock(ctx context.Context, key StockKey, forUpdate bool) (int, error)

	// SetStock writes the stock level of a pool
	SetStock(ctx context.Context, key StockKey, qty int) error
}
