package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/storeops/backend/internal/domain/material"
)

// DefaultQueryLimit caps ledger queries that do not set a limit
const DefaultQueryLimit = 100

// Query narrows a ledger read. Zero values mean "no filter".
type Query struct {
	MaterialID  *uuid.UUID
	VariationID *uuid.UUID
	Reason      Reason
	OrderID     string
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

// EffectiveLimit returns Limit or DefaultQueryLimit when unset
func (q Query) EffectiveLimit() int {
	if q.Limit <= 0 {
		return DefaultQueryLimit
	}
	return q.Limit
}

// Repository is append-only: entries are never updated or deleted.
type Repository interface {
	// Append writes one immutable entry
	Append(ctx context.Context, entry *Entry) error

	// Query returns entries ordered by creation time, oldest first
	Query(ctx context.Context, q Query) ([]Entry, error)

	// LatestFor returns the most recent entry of a stock pool
	LatestFor(ctx context.Context, key material.StockKey) (*Entry, error)
}
