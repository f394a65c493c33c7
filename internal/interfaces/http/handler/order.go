package handler

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/storeops/backend/internal/application/inventory"
	"github.com/storeops/backend/internal/domain/order"
	"github.com/storeops/backend/internal/interfaces/http/dto"
)

// OrderHandler serves the fulfillment view and order stock processing
type OrderHandler struct {
	BaseHandler
	fulfillment *inventory.FulfillmentService
	processor   *inventory.OrderStockProcessor
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(fulfillment *inventory.FulfillmentService, processor *inventory.OrderStockProcessor) *OrderHandler {
	return &OrderHandler{fulfillment: fulfillment, processor: processor}
}

// fulfillmentParams are the query parameters of GET /orders/fulfillment
type fulfillmentParams struct {
	After   *time.Time `form:"after" time_format:"2006-01-02T15:04:05Z07:00"`
	Before  *time.Time `form:"before" time_format:"2006-01-02T15:04:05Z07:00"`
	Status  string     `form:"status"`
	Page    int        `form:"page" binding:"gte=0"`
	PerPage int        `form:"per_page" binding:"gte=0,max=100"`
}

// Fulfillment handles GET /orders/fulfillment. status is a comma separated list.
func (h *OrderHandler) Fulfillment(c *gin.Context) {
	var params fulfillmentParams
	if !h.bindQuery(c, &params) {
		return
	}
	q := inventory.OrderQuery{
		After:   params.After,
		Before:  params.Before,
		Page:    params.Page,
		PerPage: params.PerPage,
	}
	for _, s := range strings.Split(params.Status, ",") {
		if s = strings.TrimSpace(s); s != "" {
			q.Statuses = append(q.Statuses, order.Status(s))
		}
	}

	result, err := h.fulfillment.FulfillmentStatus(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// requiredMaterialsRequest names an order in the feed or carries one inline
type requiredMaterialsRequest struct {
	OrderID string       `json:"order_id"`
	Order   *order.Order `json:"order"`
}

// RequiredMaterials handles POST /orders/required-materials
func (h *OrderHandler) RequiredMaterials(c *gin.Context) {
	var req requiredMaterialsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	switch {
	case req.Order != nil:
		result, err := h.fulfillment.RequiredMaterials(ctx, *req.Order)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, result)
	case req.OrderID != "":
		result, err := h.fulfillment.RequiredMaterialsForOrder(ctx, req.OrderID)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, result)
	default:
		h.ValidationError(c, []dto.ValidationDetail{{Field: "order_id", Message: "order_id or order is required"}})
	}
}

// processStockRequest optionally carries the order's line items. Without
// them the order is fetched from the feed.
type processStockRequest struct {
	OrderNumber string           `json:"order_number"`
	LineItems   []order.LineItem `json:"line_items"`
}

// ProcessStock handles POST /orders/:id/process-stock
func (h *OrderHandler) ProcessStock(c *gin.Context) {
	orderID := c.Param("id")
	var req processStockRequest
	if c.Request.ContentLength != 0 {
		if !h.bindJSON(c, &req) {
			return
		}
	}

	ctx := c.Request.Context()
	cmd := inventory.ProcessOrderCommand{
		OrderID:     orderID,
		OrderNumber: req.OrderNumber,
		LineItems:   req.LineItems,
	}
	if req.LineItems == nil {
		o, err := h.fulfillment.Order(ctx, orderID)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		cmd.OrderNumber = o.Number
		cmd.LineItems = o.LineItems
	}

	result, err := h.processor.Process(ctx, cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// processedStatus reports whether an order's stock was deducted
type processedStatus struct {
	OrderID     string     `json:"order_id"`
	Processed   bool       `json:"processed"`
	OrderNumber string     `json:"order_number,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// Processed handles GET /orders/:id/processed
func (h *OrderHandler) Processed(c *gin.Context) {
	orderID := c.Param("id")
	marker, ok, err := h.processor.IsProcessed(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	status := processedStatus{OrderID: orderID, Processed: ok}
	if ok {
		status.OrderNumber = marker.OrderNumber
		status.ProcessedAt = &marker.ProcessedAt
	}
	h.Success(c, status)
}

// recentParams are the query parameters of GET /orders/processed
type recentParams struct {
	Limit int `form:"limit" binding:"gte=0,max=1000"`
}

// ListProcessed handles GET /orders/processed, newest first
func (h *OrderHandler) ListProcessed(c *gin.Context) {
	var params recentParams
	if !h.bindQuery(c, &params) {
		return
	}
	result, err := h.processor.ListProcessed(c.Request.Context(), params.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
