package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/storeops/backend/internal/application/catalog"
)

// MaterialHandler handles material catalog endpoints
type MaterialHandler struct {
	BaseHandler
	materials *catalog.MaterialService
}

// NewMaterialHandler creates a new MaterialHandler
func NewMaterialHandler(materials *catalog.MaterialService) *MaterialHandler {
	return &MaterialHandler{materials: materials}
}

// Create handles POST /materials
func (h *MaterialHandler) Create(c *gin.Context) {
	var req catalog.CreateMaterialRequest
	if !h.bindJSON(c, &req) {
		return
	}
	m, err := h.materials.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, m)
}

// List handles GET /materials
func (h *MaterialHandler) List(c *gin.Context) {
	filter := catalog.MaterialListFilter{Page: 1, PageSize: 20}
	if !h.bindQuery(c, &filter) {
		return
	}
	items, total, err := h.materials.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// Get handles GET /materials/:id
func (h *MaterialHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	m, err := h.materials.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, m)
}

// Update handles PUT /materials/:id
func (h *MaterialHandler) Update(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req catalog.UpdateMaterialRequest
	if !h.bindJSON(c, &req) {
		return
	}
	m, err := h.materials.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, m)
}

// Deactivate handles DELETE /materials/:id. Materials are never removed
// because ledger entries keep referring to them.
func (h *MaterialHandler) Deactivate(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.materials.Deactivate(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Activate handles POST /materials/:id/activate
func (h *MaterialHandler) Activate(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	m, err := h.materials.Activate(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, m)
}

// AddVariation handles POST /materials/:id/variations
func (h *MaterialHandler) AddVariation(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req catalog.AddVariationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	m, err := h.materials.AddVariation(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, m)
}

// Import handles POST /materials/import
func (h *MaterialHandler) Import(c *gin.Context) {
	var req catalog.ImportMaterialsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.materials.ImportMaterials(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
