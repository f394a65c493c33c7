package purchasing

import (
	"context"

	"github.com/google/uuid"
	"github.com/storeops/backend/internal/domain/shared"
)

// ListFilter narrows purchase order listings
type ListFilter struct {
	shared.Filter
	Status     Status
	SupplierID string
}

// Repository defines persistence for purchase orders and their items
type Repository interface {
	// FindByID loads an order with its items
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)

	// FindByIDForUpdate loads an order and locks its row for the rest of the transaction
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)

	// FindByPONumber loads an order by its human-facing number
	FindByPONumber(ctx context.Context, poNumber string) (*PurchaseOrder, error)

	// FindAll lists orders
	FindAll(ctx context.Context, filter ListFilter) ([]PurchaseOrder, error)

	// Count counts orders matching the filter
	Count(ctx context.Context, filter ListFilter) (int64, error)

	// Save persists an order and replaces its items. Updates only apply when
	// the stored version still equals po.Version, then bump it; otherwise
	// ErrConcurrencyConflict is returned.
	Save(ctx context.Context, po *PurchaseOrder) error

	// NextSequence returns the next PO sequence number for year
	NextSequence(ctx context.Context, year int) (int, error)
}
