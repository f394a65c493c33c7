package order

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/storeops/backend/internal/domain/shared"
)

// Status is the order status reported by the external store
type Status string

const (
	StatusPending      Status = "pending"
	StatusProcessing   Status = "processing"
	StatusOnHold       Status = "on-hold"
	StatusReceived     Status = "received"
	StatusInProduction Status = "in-production"
	StatusCompleted    Status = "completed"
	StatusCancelled    Status = "cancelled"
	StatusRefunded     Status = "refunded"
	StatusFailed       Status = "failed"
	// StatusCheckoutDraft marks abandoned checkout sessions; the feed filters them out
	StatusCheckoutDraft Status = "checkout-draft"
)

// IsAwaitingFulfillment reports whether an order in this status still competes for stock
func (s Status) IsAwaitingFulfillment() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusOnHold, StatusReceived, StatusInProduction:
		return true
	}
	return false
}

// AwaitingFulfillmentStatuses lists the non-terminal statuses
func AwaitingFulfillmentStatuses() []Status {
	return []Status{StatusPending, StatusProcessing, StatusOnHold, StatusReceived, StatusInProduction}
}

// LineItem is one sellable line of an external order
type LineItem struct {
	ProductID   string  `json:"product_id"`
	VariationID *string `json:"variation_id,omitempty"`
	Quantity    int     `json:"quantity" binding:"gt=0"`
	Name        string  `json:"name"`
}

// Order is a read-only projection of an order from the external feed
type Order struct {
	ID          string     `json:"id"`
	Number      string     `json:"number"`
	Status      Status     `json:"status"`
	DateCreated time.Time  `json:"date_created"`
	LineItems   []LineItem `json:"line_items"`
}

// FeedFilter selects orders from the external feed
type FeedFilter struct {
	After    *time.Time
	Before   *time.Time
	Statuses []Status
	Page     int
	PerPage  int
}

// CacheKey renders the filter deterministically for cache lookups
func (f FeedFilter) CacheKey() string {
	var b strings.Builder
	if f.After != nil {
		b.WriteString("a=" + f.After.UTC().Format(time.RFC3339))
	}
	if f.Before != nil {
		b.WriteString(";b=" + f.Before.UTC().Format(time.RFC3339))
	}
	if len(f.Statuses) > 0 {
		parts := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			parts[i] = string(s)
		}
		b.WriteString(";s=" + strings.Join(parts, ","))
	}
	b.WriteString(";p=" + strconv.Itoa(f.Page) + ";pp=" + strconv.Itoa(f.PerPage))
	return b.String()
}

// ErrFeedUnavailable is returned when the external store cannot be reached or rejects a request
var ErrFeedUnavailable = shared.NewDomainError("FEED_UNAVAILABLE", "Order feed request failed")

// Feed is the external order source. Results are already deduplicated and
// exclude checkout drafts. FetchOrder returns shared.ErrNotFound for unknown ids.
type Feed interface {
	FetchOrders(ctx context.Context, filter FeedFilter) ([]Order, error)
	FetchOrder(ctx context.Context, id string) (*Order, error)
}

// ProcessedOrder marks an order whose stock has been deducted.
// At most one marker exists per OrderID; storage enforces it.
type ProcessedOrder struct {
	shared.BaseEntity
	OrderID     string
	OrderNumber string
	ProcessedAt time.Time
}

// NewProcessedOrder creates a marker for orderID
func NewProcessedOrder(orderID, orderNumber string) (*ProcessedOrder, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order ID cannot be empty")
	}
	now := time.Now()
	return &ProcessedOrder{
		BaseEntity:  shared.NewBaseEntity(),
		OrderID:     orderID,
		OrderNumber: orderNumber,
		ProcessedAt: now,
	}, nil
}

// ErrAlreadyProcessed is returned when a marker for the order already exists
var ErrAlreadyProcessed = shared.NewDomainError("ORDER_ALREADY_PROCESSED", "Order stock has already been processed")

// ProcessedOrderRepository persists processed-order markers
type ProcessedOrderRepository interface {
	// Insert writes the marker, returning ErrAlreadyProcessed on a uniqueness violation
	Insert(ctx context.Context, marker *ProcessedOrder) error
	FindByOrderID(ctx context.Context, orderID string) (*ProcessedOrder, error)
	// ProcessedIDs returns which of orderIDs already carry a marker; nil means all markers
	ProcessedIDs(ctx context.Context, orderIDs []string) (map[string]bool, error)
	FindRecent(ctx context.Context, limit int) ([]ProcessedOrder, error)
}
