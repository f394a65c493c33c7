package purchasing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storeops/backend/internal/domain/purchasing"
)

// CreatePurchaseOrderRequest represents a request to create a purchase order
type CreatePurchaseOrderRequest struct {
	SupplierID      string                   `json:"supplier_id" binding:"required,max=100"`
	OrderDate       *time.Time               `json:"order_date"`
	ExpectedDate    *time.Time               `json:"expected_date"`
	Notes           string                   `json:"notes" binding:"max=2000"`
	ShippingCost    *decimal.Decimal         `json:"shipping_cost"`
	ShippingVATRate *decimal.Decimal         `json:"shipping_vat_rate"`
	Items           []PurchaseOrderItemInput `json:"items" binding:"dive"`
}

// PurchaseOrderItemInput describes one ordered material line. The material
// and variation may be referenced by local or external id.
type PurchaseOrderItemInput struct {
	MaterialID      string          `json:"material_id" binding:"required"`
	VariationID     *string         `json:"variation_id"`
	Description     string          `json:"description" binding:"max=500"`
	QuantityOrdered int             `json:"quantity_ordered" binding:"gt=0"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	VATRate         decimal.Decimal `json:"vat_rate"`
}

// SetShippingRequest sets shipping cost and its VAT rate
type SetShippingRequest struct {
	ShippingCost    decimal.Decimal `json:"shipping_cost"`
	ShippingVATRate decimal.Decimal `json:"shipping_vat_rate"`
}

// ReceiptInput is one received quantity for a line
type ReceiptInput struct {
	ItemID   uuid.UUID `json:"item_id" binding:"required"`
	Quantity int       `json:"quantity"`
}

// ReceivePurchaseOrderRequest receives goods against a purchase order
type ReceivePurchaseOrderRequest struct {
	Items []ReceiptInput `json:"items" binding:"required,min=1,dive"`
	Notes string         `json:"notes" binding:"max=500"`
}

// PurchaseOrderListFilter represents filter options for purchase order listings
type PurchaseOrderListFilter struct {
	Status     string `form:"status" binding:"omitempty,oneof=draft ordered partially_received received cancelled"`
	SupplierID string `form:"supplier_id"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string `form:"order_by"`
	OrderDir   string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// PurchaseOrderItemResponse represents a purchase order line in API responses
type PurchaseOrderItemResponse struct {
	ID                  uuid.UUID       `json:"id"`
	MaterialProductID   uuid.UUID       `json:"material_product_id"`
	MaterialVariationID *uuid.UUID      `json:"material_variation_id,omitempty"`
	Description         string          `json:"description"`
	QuantityOrdered     int             `json:"quantity_ordered"`
	QuantityReceived    int             `json:"quantity_received"`
	RemainingQuantity   int             `json:"remaining_quantity"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	VATRate             decimal.Decimal `json:"vat_rate"`
	LineSubtotal        decimal.Decimal `json:"line_subtotal"`
	LineVAT             decimal.Decimal `json:"line_vat"`
	LineTotal           decimal.Decimal `json:"line_total"`
}

// PurchaseOrderResponse represents a purchase order in API responses
type PurchaseOrderResponse struct {
	ID              uuid.UUID                   `json:"id"`
	PONumber        string                      `json:"po_number"`
	SupplierID      string                      `json:"supplier_id"`
	Status          string                      `json:"status"`
	OrderDate       *time.Time                  `json:"order_date,omitempty"`
	ExpectedDate    *time.Time                  `json:"expected_date,omitempty"`
	ReceivedDate    *time.Time                  `json:"received_date,omitempty"`
	Notes           string                      `json:"notes,omitempty"`
	ShippingCost    decimal.Decimal             `json:"shipping_cost"`
	ShippingVATRate decimal.Decimal             `json:"shipping_vat_rate"`
	Subtotal        decimal.Decimal             `json:"subtotal"`
	ShippingVAT     decimal.Decimal             `json:"shipping_vat"`
	VATTotal        decimal.Decimal             `json:"vat_total"`
	GrandTotal      decimal.Decimal             `json:"grand_total"`
	ReceiveProgress decimal.Decimal             `json:"receive_progress"`
	Items           []PurchaseOrderItemResponse `json:"items"`
	CreatedAt       time.Time                   `json:"created_at"`
	UpdatedAt       time.Time                   `json:"updated_at"`
	Version         int                         `json:"version"`
}

// ReceivedItemResponse reports what one receipt line did
type ReceivedItemResponse struct {
	ItemID        uuid.UUID  `json:"item_id"`
	MaterialID    uuid.UUID  `json:"material_id"`
	VariationID   *uuid.UUID `json:"variation_id,omitempty"`
	Requested     int        `json:"requested"`
	Accepted      int        `json:"accepted"`
	Remaining     int        `json:"remaining"`
	PreviousStock int        `json:"previous_stock"`
	NewStock      int        `json:"new_stock"`
	LedgerEntryID uuid.UUID  `json:"ledger_entry_id"`
}

// ReceiveResultResponse is the outcome of a receiving call
type ReceiveResultResponse struct {
	Order           PurchaseOrderResponse  `json:"order"`
	ReceivedItems   []ReceivedItemResponse `json:"received_items"`
	IsFullyReceived bool                   `json:"is_fully_received"`
}

// ToPurchaseOrderResponse converts a domain purchase order
func ToPurchaseOrderResponse(po *purchasing.PurchaseOrder) PurchaseOrderResponse {
	items := make([]PurchaseOrderItemResponse, 0, len(po.Items))
	for i := range po.Items {
		it := &po.Items[i]
		items = append(items, PurchaseOrderItemResponse{
			ID:                  it.ID,
			MaterialProductID:   it.MaterialProductID,
			MaterialVariationID: it.MaterialVariationID,
			Description:         it.Description,
			QuantityOrdered:     it.QuantityOrdered,
			QuantityReceived:    it.QuantityReceived,
			RemainingQuantity:   it.RemainingQuantity(),
			UnitPrice:           it.UnitPrice,
			VATRate:             it.VATRate,
			LineSubtotal:        it.LineSubtotal,
			LineVAT:             it.LineVAT,
			LineTotal:           it.LineTotal,
		})
	}
	return PurchaseOrderResponse{
		ID:              po.ID,
		PONumber:        po.PONumber,
		SupplierID:      po.SupplierID,
		Status:          po.Status.String(),
		OrderDate:       po.OrderDate,
		ExpectedDate:    po.ExpectedDate,
		ReceivedDate:    po.ReceivedDate,
		Notes:           po.Notes,
		ShippingCost:    po.ShippingCost,
		ShippingVATRate: po.ShippingVATRate,
		Subtotal:        po.Subtotal,
		ShippingVAT:     po.ShippingVAT,
		VATTotal:        po.VATTotal,
		GrandTotal:      po.GrandTotal,
		ReceiveProgress: po.ReceiveProgress(),
		Items:           items,
		CreatedAt:       po.CreatedAt,
		UpdatedAt:       po.UpdatedAt,
		Version:         po.Version,
	}
}
