package purchasing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storeops/backend/internal/domain/material"
	"github.com/storeops/backend/internal/domain/shared"
)

// Status represents the status of a purchase order
type Status string

const (
	StatusDraft             Status = "draft"
	StatusOrdered           Status = "ordered"
	StatusPartiallyReceived Status = "partially_received"
	StatusReceived          Status = "received"
	StatusCancelled         Status = "cancelled"
)

// IsValid checks if the status is a valid value
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusOrdered, StatusPartiallyReceived, StatusReceived, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusDraft:
		return target == StatusOrdered || target == StatusCancelled
	case StatusOrdered:
		return target == StatusPartiallyReceived || target == StatusReceived || target == StatusCancelled
	case StatusPartiallyReceived:
		return target == StatusReceived || target == StatusCancelled
	}
	return false
}

// IsTerminal returns true for received and cancelled orders
func (s Status) IsTerminal() bool {
	return s == StatusReceived || s == StatusCancelled
}

// CanReceive returns true unless the order is received or cancelled
func (s Status) CanReceive() bool {
	return !s.IsTerminal()
}

// ErrNotReceivable is returned when receiving against a received or cancelled order
var ErrNotReceivable = shared.NewDomainError("PO_NOT_RECEIVABLE", "Purchase order can no longer receive goods")

var hundred = decimal.NewFromInt(100)

// Item is one line of a purchase order
type Item struct {
	shared.BaseEntity
	PurchaseOrderID     uuid.UUID
	MaterialProductID   uuid.UUID
	MaterialVariationID *uuid.UUID
	Description         string
	QuantityOrdered     int
	QuantityReceived    int
	UnitPrice           decimal.Decimal
	VATRate             decimal.Decimal // percent, e.g. 21
	LineSubtotal        decimal.Decimal
	LineVAT             decimal.Decimal
	LineTotal           decimal.Decimal
}

// StockKey returns the stock pool the line replenishes
func (i *Item) StockKey() material.StockKey {
	return material.StockKey{MaterialID: i.MaterialProductID, VariationID: i.MaterialVariationID}
}

// RemainingQuantity returns the quantity still to be received
func (i *Item) RemainingQuantity() int {
	remaining := i.QuantityOrdered - i.QuantityReceived
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsFullyReceived returns true if all ordered quantity has been received
func (i *Item) IsFullyReceived() bool {
	return i.QuantityReceived >= i.QuantityOrdered
}

// recalculate derives line amounts, rounding each one to 2 decimal places
func (i *Item) recalculate() {
	i.LineSubtotal = decimal.NewFromInt(int64(i.QuantityOrdered)).Mul(i.UnitPrice).Round(2)
	i.LineVAT = i.LineSubtotal.Mul(i.VATRate).Div(hundred).Round(2)
	i.LineTotal = i.LineSubtotal.Add(i.LineVAT).Round(2)
}

// ItemInput carries the editable fields of a line
type ItemInput struct {
	MaterialProductID   uuid.UUID
	MaterialVariationID *uuid.UUID
	Description         string
	QuantityOrdered     int
	UnitPrice           decimal.Decimal
	VATRate             decimal.Decimal
}

func (in ItemInput) validate() error {
	if in.MaterialProductID == uuid.Nil {
		return shared.NewDomainError("INVALID_MATERIAL", "Material ID cannot be empty")
	}
	if in.QuantityOrdered <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Ordered quantity must be positive")
	}
	if in.UnitPrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if in.VATRate.IsNegative() {
		return shared.NewDomainError("INVALID_VAT_RATE", "VAT rate cannot be negative")
	}
	return nil
}

// PurchaseOrder is the aggregate root for supplier orders
type PurchaseOrder struct {
	shared.BaseAggregateRoot
	PONumber        string
	SupplierID      string
	Status          Status
	OrderDate       *time.Time
	ExpectedDate    *time.Time
	ReceivedDate    *time.Time
	Notes           string
	ShippingCost    decimal.Decimal
	ShippingVATRate decimal.Decimal
	Subtotal        decimal.Decimal
	ShippingVAT     decimal.Decimal
	VATTotal        decimal.Decimal
	GrandTotal      decimal.Decimal
	Items           []Item
}

// FormatPONumber renders PO-<year>-<sequence>
func FormatPONumber(year, sequence int) string {
	return fmt.Sprintf("PO-%d-%04d", year, sequence)
}

// NewPurchaseOrder creates a draft purchase order
func NewPurchaseOrder(poNumber, supplierID string) (*PurchaseOrder, error) {
	if strings.TrimSpace(poNumber) == "" {
		return nil, shared.NewDomainError("INVALID_PO_NUMBER", "PO number cannot be empty")
	}
	if strings.TrimSpace(supplierID) == "" {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier cannot be empty")
	}

	return &PurchaseOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PONumber:          poNumber,
		SupplierID:        strings.TrimSpace(supplierID),
		Status:            StatusDraft,
		ShippingCost:      decimal.Zero,
		ShippingVATRate:   decimal.Zero,
		Subtotal:          decimal.Zero,
		ShippingVAT:       decimal.Zero,
		VATTotal:          decimal.Zero,
		GrandTotal:        decimal.Zero,
		Items:             make([]Item, 0),
	}, nil
}

// SetDates sets the order and expected delivery dates
func (o *PurchaseOrder) SetDates(orderDate, expectedDate *time.Time) {
	o.OrderDate = orderDate
	o.ExpectedDate = expectedDate
	o.touch()
}

// SetNotes sets free-text notes
func (o *PurchaseOrder) SetNotes(notes string) {
	o.Notes = notes
	o.touch()
}

// AddItem adds a line to a draft order
func (o *PurchaseOrder) AddItem(in ItemInput) (*Item, error) {
	if err := o.requireDraft(); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	item := Item{
		BaseEntity:          shared.NewBaseEntity(),
		PurchaseOrderID:     o.ID,
		MaterialProductID:   in.MaterialProductID,
		MaterialVariationID: in.MaterialVariationID,
		Description:         in.Description,
		QuantityOrdered:     in.QuantityOrdered,
		UnitPrice:           in.UnitPrice,
		VATRate:             in.VATRate,
	}
	item.recalculate()
	o.Items = append(o.Items, item)
	o.RecalculateTotals()
	o.touch()
	return &o.Items[len(o.Items)-1], nil
}

// UpdateItem replaces the editable fields of a draft line
func (o *PurchaseOrder) UpdateItem(itemID uuid.UUID, in ItemInput) error {
	if err := o.requireDraft(); err != nil {
		return err
	}
	if err := in.validate(); err != nil {
		return err
	}
	item := o.GetItem(itemID)
	if item == nil {
		return shared.NewDomainError("ITEM_NOT_FOUND", "Purchase order item not found")
	}
	item.MaterialProductID = in.MaterialProductID
	item.MaterialVariationID = in.MaterialVariationID
	item.Description = in.Description
	item.QuantityOrdered = in.QuantityOrdered
	item.UnitPrice = in.UnitPrice
	item.VATRate = in.VATRate
	item.UpdatedAt = time.Now()
	item.recalculate()
	o.RecalculateTotals()
	o.touch()
	return nil
}

// RemoveItem removes a line from a draft order
func (o *PurchaseOrder) RemoveItem(itemID uuid.UUID) error {
	if err := o.requireDraft(); err != nil {
		return err
	}
	for idx := range o.Items {
		if o.Items[idx].ID == itemID {
			o.Items = append(o.Items[:idx], o.Items[idx+1:]...)
			o.RecalculateTotals()
			o.touch()
			return nil
		}
	}
	return shared.NewDomainError("ITEM_NOT_FOUND", "Purchase order item not found")
}

// SetShipping sets shipping cost and its VAT rate on a draft order
func (o *PurchaseOrder) SetShipping(cost, vatRate decimal.Decimal) error {
	if err := o.requireDraft(); err != nil {
		return err
	}
	if cost.IsNegative() {
		return shared.NewDomainError("INVALID_SHIPPING", "Shipping cost cannot be negative")
	}
	if vatRate.IsNegative() {
		return shared.NewDomainError("INVALID_VAT_RATE", "VAT rate cannot be negative")
	}
	o.ShippingCost = cost
	o.ShippingVATRate = vatRate
	o.RecalculateTotals()
	o.touch()
	return nil
}

// MarkOrdered sends a draft order to the supplier
func (o *PurchaseOrder) MarkOrdered(orderDate time.Time) error {
	if !o.Status.CanTransitionTo(StatusOrdered) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot mark order as ordered in %s status", o.Status))
	}
	if len(o.Items) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Cannot order a purchase order without items")
	}
	o.Status = StatusOrdered
	if o.OrderDate == nil {
		o.OrderDate = &orderDate
	}
	o.touch()
	return nil
}

// Cancel cancels the order. Stock already received stays in stock.
func (o *PurchaseOrder) Cancel() error {
	if !o.Status.CanTransitionTo(StatusCancelled) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel order in %s status", o.Status))
	}
	o.Status = StatusCancelled
	o.touch()
	return nil
}

// Receipt requests receiving quantity units against one line
type Receipt struct {
	ItemID   uuid.UUID
	Quantity int
}

// ReceivedLine reports what was accepted for one requested receipt
type ReceivedLine struct {
	ItemID    uuid.UUID
	Key       material.StockKey
	Requested int
	Accepted  int
	Remaining int
}

// Receive applies receipts. Requests above the remaining quantity are capped
// silently and non-positive amounts are skipped. Status only moves forward:
// received once every line is complete, partially_received once any line has
// goods.
func (o *PurchaseOrder) Receive(receipts []Receipt, now time.Time) ([]ReceivedLine, error) {
	if !o.Status.CanReceive() {
		return nil, ErrNotReceivable
	}

	accepted := make([]ReceivedLine, 0, len(receipts))
	for _, r := range receipts {
		item := o.GetItem(r.ItemID)
		if item == nil {
			return nil, shared.NewDomainError("ITEM_NOT_FOUND", fmt.Sprintf("Item %s not found in purchase order", r.ItemID))
		}
		qty := min(r.Quantity, item.RemainingQuantity())
		if qty <= 0 {
			continue
		}
		item.QuantityReceived += qty
		item.UpdatedAt = now
		accepted = append(accepted, ReceivedLine{
			ItemID:    item.ID,
			Key:       item.StockKey(),
			Requested: r.Quantity,
			Accepted:  qty,
			Remaining: item.RemainingQuantity(),
		})
	}

	switch {
	case o.isAllItemsReceived():
		o.Status = StatusReceived
		o.ReceivedDate = &now
	case o.hasReceivedAnyGoods():
		o.Status = StatusPartiallyReceived
	}
	o.touch()
	return accepted, nil
}

// RecalculateTotals derives subtotal, VAT and grand total.
// Each derived field is rounded to 2 decimal places when computed.
func (o *PurchaseOrder) RecalculateTotals() {
	subtotal := decimal.Zero
	lineVAT := decimal.Zero
	for idx := range o.Items {
		o.Items[idx].recalculate()
		subtotal = subtotal.Add(o.Items[idx].LineSubtotal)
		lineVAT = lineVAT.Add(o.Items[idx].LineVAT)
	}
	o.Subtotal = subtotal.Round(2)
	o.ShippingVAT = o.ShippingCost.Mul(o.ShippingVATRate).Div(hundred).Round(2)
	o.VATTotal = lineVAT.Add(o.ShippingVAT).Round(2)
	o.GrandTotal = o.Subtotal.Add(o.VATTotal).Add(o.ShippingCost).Round(2)
}

// GetItem returns the line with the given id
func (o *PurchaseOrder) GetItem(itemID uuid.UUID) *Item {
	for idx := range o.Items {
		if o.Items[idx].ID == itemID {
			return &o.Items[idx]
		}
	}
	return nil
}

// TotalOrderedQuantity sums ordered quantity over all lines
func (o *PurchaseOrder) TotalOrderedQuantity() int {
	total := 0
	for _, item := range o.Items {
		total += item.QuantityOrdered
	}
	return total
}

// TotalReceivedQuantity sums received quantity over all lines
func (o *PurchaseOrder) TotalReceivedQuantity() int {
	total := 0
	for _, item := range o.Items {
		total += item.QuantityReceived
	}
	return total
}

// ReceiveProgress returns received/ordered as a percentage with 2 decimals
func (o *PurchaseOrder) ReceiveProgress() decimal.Decimal {
	ordered := o.TotalOrderedQuantity()
	if ordered == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(o.TotalReceivedQuantity())).
		Div(decimal.NewFromInt(int64(ordered))).
		Mul(hundred).
		Round(2)
}

func (o *PurchaseOrder) isAllItemsReceived() bool {
	if len(o.Items) == 0 {
		return false
	}
	for _, item := range o.Items {
		if !item.IsFullyReceived() {
			return false
		}
	}
	return true
}

func (o *PurchaseOrder) hasReceivedAnyGoods() bool {
	for _, item := range o.Items {
		if item.QuantityReceived > 0 {
			return true
		}
	}
	return false
}

func (o *PurchaseOrder) requireDraft() error {
	if o.Status != StatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Items and shipping can only be changed on draft orders")
	}
	return nil
}

func (o *PurchaseOrder) touch() {
	o.UpdatedAt = time.Now()
}
