package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/storeops/backend/internal/application/inventory"
)

// StockHandler handles manual stock adjustments
type StockHandler struct {
	BaseHandler
	stock *inventory.StockService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(stock *inventory.StockService) *StockHandler {
	return &StockHandler{stock: stock}
}

// addStockRequest is the body of POST /materials/:id/stock/add
type addStockRequest struct {
	VariationID *uuid.UUID `json:"variation_id"`
	Quantity    int        `json:"quantity" binding:"gt=0"`
	Reason      string     `json:"reason" binding:"omitempty,oneof=manual stock_in"`
	Notes       string     `json:"notes" binding:"max=500"`
}

// setStockRequest is the body of POST /materials/:id/stock/set
type setStockRequest struct {
	VariationID *uuid.UUID `json:"variation_id"`
	NewStock    int        `json:"new_stock" binding:"gte=0"`
	Notes       string     `json:"notes" binding:"max=500"`
}

// Add handles POST /materials/:id/stock/add
func (h *StockHandler) Add(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req addStockRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.stock.AddStock(c.Request.Context(), inventory.AddStockCommand{
		MaterialID:  id,
		VariationID: req.VariationID,
		Quantity:    req.Quantity,
		Reason:      req.Reason,
		Notes:       req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Set handles POST /materials/:id/stock/set
func (h *StockHandler) Set(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req setStockRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.stock.SetStock(c.Request.Context(), inventory.SetStockCommand{
		MaterialID:  id,
		VariationID: req.VariationID,
		NewStock:    req.NewStock,
		Notes:       req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
