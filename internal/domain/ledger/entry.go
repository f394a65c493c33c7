package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/storeops/backend/internal/domain/material"
	"github.com/storeops/backend/internal/domain/shared"
)

// Reason tags what caused a stock mutation
type Reason string

const (
	// ReasonManual is an operator top-up
	ReasonManual Reason = "manual"
	// ReasonStockIn is a supplier receipt outside the purchase order flow
	ReasonStockIn Reason = "stock_in"
	// ReasonStockTake is an absolute level set after counting
	ReasonStockTake Reason = "stock_take"
	// ReasonOrder is a deduction made by order stock processing
	ReasonOrder Reason = "order"
	// ReasonPurchaseOrder is a purchase order receipt
	ReasonPurchaseOrder Reason = "purchase_order"
)

// String returns the string representation of Reason
func (r Reason) String() string {
	return string(r)
}

// IsValid returns true if the reason is one of the known tags
func (r Reason) IsValid() bool {
	switch r {
	case ReasonManual, ReasonStockIn, ReasonStockTake, ReasonOrder, ReasonPurchaseOrder:
		return true
	}
	return false
}

// Entry is an immutable record of one stock mutation.
// NewStock always equals PreviousStock + QuantityChange.
type Entry struct {
	ID                  uuid.UUID
	MaterialProductID   uuid.UUID
	MaterialVariationID *uuid.UUID
	OrderID             *string
	OrderNumber         *string
	QuantityChange      int
	PreviousStock       int
	NewStock            int
	Reason              Reason
	Notes               string
	CreatedAt           time.Time
}

// NewEntry creates a ledger entry for a change applied to the pool identified by key
func NewEntry(key material.StockKey, previousStock, quantityChange int, reason Reason) (*Entry, error) {
	if key.MaterialID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MATERIAL", "Material ID cannot be empty")
	}
	if !reason.IsValid() {
		return nil, shared.NewDomainError("INVALID_REASON", "Invalid stock ledger reason: "+string(reason))
	}

	return &Entry{
		ID:                  shared.NewID(),
		MaterialProductID:   key.MaterialID,
		MaterialVariationID: key.VariationID,
		QuantityChange:      quantityChange,
		PreviousStock:       previousStock,
		NewStock:            previousStock + quantityChange,
		Reason:              reason,
		CreatedAt:           time.Now(),
	}, nil
}

// WithOrder records the order that caused the mutation.
// orderID may be empty, e.g. purchase order receipts carry only the PO number.
func (e *Entry) WithOrder(orderID, orderNumber string) *Entry {
	if orderID != "" {
		e.OrderID = &orderID
	}
	if orderNumber != "" {
		e.OrderNumber = &orderNumber
	}
	return e
}

// WithNotes sets free-text notes
func (e *Entry) WithNotes(notes string) *Entry {
	e.Notes = notes
	return e
}

// Key returns the stock pool the entry belongs to
func (e *Entry) Key() material.StockKey {
	return material.StockKey{MaterialID: e.MaterialProductID, VariationID: e.MaterialVariationID}
}

// IsIncrease returns true if the entry added stock
func (e *Entry) IsIncrease() bool {
	return e.QuantityChange > 0
}

// IsDecrease returns true if the entry removed stock
func (e *Entry) IsDecrease() bool {
	return e.QuantityChange < 0
}
