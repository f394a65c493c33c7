package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/storeops/backend/internal/domain/ledger"
	"github.com/storeops/backend/internal/domain/order"
)

// AddStockCommand increments the stock of a material or one of its variations
type AddStockCommand struct {
	MaterialID  uuid.UUID  `json:"material_id" binding:"required"`
	VariationID *uuid.UUID `json:"variation_id,omitempty"`
	Quantity    int        `json:"quantity" binding:"gt=0"`
	Reason      string     `json:"reason" binding:"omitempty,oneof=manual stock_in"`
	Notes       string     `json:"notes" binding:"max=500"`
}

// SetStockCommand records an absolute stock level after counting
type SetStockCommand struct {
	MaterialID  uuid.UUID  `json:"material_id" binding:"required"`
	VariationID *uuid.UUID `json:"variation_id,omitempty"`
	NewStock    int        `json:"new_stock" binding:"gte=0"`
	Notes       string     `json:"notes" binding:"max=500"`
}

// StockChangeResponse reports one ledgered stock mutation
type StockChangeResponse struct {
	MaterialID    uuid.UUID  `json:"material_id"`
	VariationID   *uuid.UUID `json:"variation_id,omitempty"`
	PreviousStock int        `json:"previous_stock"`
	NewStock      int        `json:"new_stock"`
	LedgerEntryID uuid.UUID  `json:"ledger_entry_id"`
}

// ProcessOrderCommand deducts the materials consumed by one external order
type ProcessOrderCommand struct {
	OrderID     string           `json:"order_id" binding:"required"`
	OrderNumber string           `json:"order_number"`
	LineItems   []order.LineItem `json:"line_items" binding:"dive"`
}

// DeductionResult is one accepted deduction
type DeductionResult struct {
	MaterialID       uuid.UUID  `json:"material_id"`
	VariationID      *uuid.UUID `json:"variation_id,omitempty"`
	MaterialName     string     `json:"material_name"`
	QuantityDeducted int        `json:"quantity_deducted"`
	PreviousStock    int        `json:"previous_stock"`
	NewStock         int        `json:"new_stock"`
	LedgerEntryID    uuid.UUID  `json:"ledger_entry_id"`
}

// Skip reasons reported for mappings that did not deduct
const (
	SkipMaterialNotFound        = "material_not_found"
	SkipVariationNotFound       = "variation_not_found"
	SkipStockManagementDisabled = "stock_management_disabled"
)

// SkippedItem is a mapping that could not or should not deduct stock
type SkippedItem struct {
	ProductID           string  `json:"product_id"`
	VariationID         *string `json:"variation_id,omitempty"`
	MaterialProductID   string  `json:"material_product_id"`
	MaterialVariationID *string `json:"material_variation_id,omitempty"`
	Reason              string  `json:"reason"`
}

// FailedUpdate is a deduction whose storage write failed and was rolled back
type FailedUpdate struct {
	MaterialID   uuid.UUID  `json:"material_id"`
	VariationID  *uuid.UUID `json:"variation_id,omitempty"`
	MaterialName string     `json:"material_name"`
	Quantity     int        `json:"quantity"`
	Error        string     `json:"error"`
}

// ProcessOrderResult summarizes one order stock processing run
type ProcessOrderResult struct {
	OrderID       string            `json:"order_id"`
	OrderNumber   string            `json:"order_number"`
	Results       []DeductionResult `json:"results"`
	UnmappedItems []order.LineItem  `json:"unmapped_items"`
	SkippedItems  []SkippedItem     `json:"skipped_items"`
	FailedUpdates []FailedUpdate    `json:"failed_updates"`
}

// ProcessedOrderResponse describes a processed-order marker
type ProcessedOrderResponse struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	ProcessedAt time.Time `json:"processed_at"`
}

// OrderQuery selects the orders the fulfillment view evaluates
type OrderQuery struct {
	After    *time.Time
	Before   *time.Time
	Statuses []order.Status
	Page     int
	PerPage  int
}

// MissingMaterialResponse is one shortfall of an order
type MissingMaterialResponse struct {
	MaterialID  string  `json:"material_id"`
	VariationID *string `json:"variation_id,omitempty"`
	Name        string  `json:"name"`
	Needed      int     `json:"needed"`
	Available   int     `json:"available"`
}

// OrderFulfillmentResponse is the fulfillment verdict of one order
type OrderFulfillmentResponse struct {
	OrderID          string                    `json:"order_id"`
	OrderNumber      string                    `json:"order_number"`
	Status           order.Status              `json:"status"`
	DateCreated      time.Time                 `json:"date_created"`
	CanFulfill       bool                      `json:"can_fulfill"`
	IsProcessed      bool                      `json:"is_processed"`
	MissingMaterials []MissingMaterialResponse `json:"missing_materials"`
}

// LedgerQuery filters ledger reads
type LedgerQuery struct {
	MaterialID  *uuid.UUID
	VariationID *uuid.UUID
	Reason      string `binding:"omitempty,oneof=manual stock_in stock_take order purchase_order"`
	OrderID     string
	From        *time.Time
	To          *time.Time
	Limit       int `binding:"gte=0,max=1000"`
	Offset      int `binding:"gte=0"`
}

// LedgerEntryResponse is a ledger entry in API responses
type LedgerEntryResponse struct {
	ID                  uuid.UUID  `json:"id"`
	MaterialProductID   uuid.UUID  `json:"material_product_id"`
	MaterialVariationID *uuid.UUID `json:"material_variation_id,omitempty"`
	MaterialName        string     `json:"material_name,omitempty"`
	OrderID             *string    `json:"order_id,omitempty"`
	OrderNumber         *string    `json:"order_number,omitempty"`
	QuantityChange      int        `json:"quantity_change"`
	PreviousStock       int        `json:"previous_stock"`
	NewStock            int        `json:"new_stock"`
	Reason              string     `json:"reason"`
	Notes               string     `json:"notes,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

// ToLedgerEntryResponse converts a domain entry
func ToLedgerEntryResponse(e ledger.Entry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:                  e.ID,
		MaterialProductID:   e.MaterialProductID,
		MaterialVariationID: e.MaterialVariationID,
		OrderID:             e.OrderID,
		OrderNumber:         e.OrderNumber,
		QuantityChange:      e.QuantityChange,
		PreviousStock:       e.PreviousStock,
		NewStock:            e.NewStock,
		Reason:              e.Reason.String(),
		Notes:               e.Notes,
		CreatedAt:           e.CreatedAt,
	}
}

// LedgerExportResponse points at an uploaded ledger export
type LedgerExportResponse struct {
	StorageKey  string    `json:"storage_key"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
	EntryCount  int       `json:"entry_count"`
}
