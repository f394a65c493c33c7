package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/storeops/backend/internal/application/purchasing"
)

// PurchaseOrderHandler handles purchase order endpoints
type PurchaseOrderHandler struct {
	BaseHandler
	orders *purchasing.PurchaseOrderService
}

// NewPurchaseOrderHandler creates a new PurchaseOrderHandler
func NewPurchaseOrderHandler(orders *purchasing.PurchaseOrderService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{orders: orders}
}

// Create handles POST /purchase-orders
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	var req purchasing.CreatePurchaseOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	po, err := h.orders.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, po)
}

// List handles GET /purchase-orders
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	filter := purchasing.PurchaseOrderListFilter{Page: 1, PageSize: 20}
	if !h.bindQuery(c, &filter) {
		return
	}
	items, total, err := h.orders.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// Get handles GET /purchase-orders/:id
func (h *PurchaseOrderHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	po, err := h.orders.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, po)
}

// GetByNumber handles GET /purchase-orders/number/:number
func (h *PurchaseOrderHandler) GetByNumber(c *gin.Context) {
	po, err := h.orders.GetByPONumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, po)
}

// AddItem handles POST /purchase-orders/:id/items
func (h *PurchaseOrderHandler) AddItem(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req purchasing.PurchaseOrderItemInput
	if !h.bindJSON(c, &req) {
		return
	}
	po, err := h.orders.AddItem(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, po)
}

// UpdateItem handles PUT /purchase-orders/:id/items/:itemId
func (h *PurchaseOrderHandler) UpdateItem(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.uuidParam(c, "itemId")
	if !ok {
		return
	}
	var req purchasing.PurchaseOrderItemInput
	if !h.bindJSON(c, &req) {
		return
	}
	po, err := h.orders.UpdateItem(c.Request.Context(), id, itemID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, po)
}

// RemoveItem handles DELETE /purchase-orders/:id/items/:itemId
func (h *PurchaseOrderHandler) RemoveItem(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.uuidParam(c, "itemId")
	if !ok {
		return
	}
	po, err := h.orders.RemoveItem(c.Request.Context(), id, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, po)
}

// SetShipping handles PUT /purchase-orders/:id/shipping
func (h *PurchaseOrderHandler) SetShipping(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req purchasing.SetShippingRequest
	if !h.bindJSON(c, &req) {
		return
	}
	po, err := h.orders.SetShipping(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, po)
}

// MarkOrdered handles POST /purchase-orders/:id/order
func (h *PurchaseOrderHandler) MarkOrdered(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	po, err := h.orders.MarkOrdered(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, po)
}

// Cancel handles POST /purchase-orders/:id/cancel
func (h *PurchaseOrderHandler) Cancel(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	po, err := h.orders.Cancel(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, po)
}

// Receive handles POST /purchase-orders/:id/receive. Quantities beyond
// what is still outstanding are clamped, not rejected.
func (h *PurchaseOrderHandler) Receive(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req purchasing.ReceivePurchaseOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.orders.Receive(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
