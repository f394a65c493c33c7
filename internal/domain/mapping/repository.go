package mapping

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence for mappings
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Mapping, error)
	// FindForProduct returns mappings for a sellable item, exact on variation
	FindForProduct(ctx context.Context, productID string, variationID *string) ([]Mapping, error)
	// FindForMaterial is the inverse lookup; materialIDs lists the aliases of one material
	FindForMaterial(ctx context.Context, materialIDs []string, filter VariationFilter) ([]Mapping, error)
	FindAll(ctx context.Context) ([]Mapping, error)
	// Create fails with ErrAlreadyExists when the tuple is taken
	Create(ctx context.Context, m *Mapping) error
	// CreateMany inserts mappings, skipping tuples that already exist
	CreateMany(ctx context.Context, mappings []Mapping) (BulkResult, error)
	UpdateQuantity(ctx context.Context, id uuid.UUID, quantityUsed int) error
	Delete(ctx context.Context, id uuid.UUID) error
}
