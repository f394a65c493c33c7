package handler

import (
	"fmt"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/storeops/backend/internal/application/catalog"
	"github.com/storeops/backend/internal/domain/mapping"
	"github.com/storeops/backend/internal/infrastructure/csvimport"
	"github.com/storeops/backend/internal/interfaces/http/dto"
)

// MappingHandler handles product to material mapping endpoints
type MappingHandler struct {
	BaseHandler
	mappings *catalog.MappingService
}

// NewMappingHandler creates a new MappingHandler
func NewMappingHandler(mappings *catalog.MappingService) *MappingHandler {
	return &MappingHandler{mappings: mappings}
}

// Create handles POST /mappings
func (h *MappingHandler) Create(c *gin.Context) {
	var req catalog.CreateMappingRequest
	if !h.bindJSON(c, &req) {
		return
	}
	m, err := h.mappings.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, m)
}

// BulkCreate handles POST /mappings/bulk
func (h *MappingHandler) BulkCreate(c *gin.Context) {
	var req catalog.BulkCreateMappingsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.mappings.BulkCreate(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Import handles POST /mappings/import.
// The CSV is sent as the multipart field "file" or as a text/csv body; a file
// with any bad row is rejected whole.
func (h *MappingHandler) Import(c *gin.Context) {
	var body io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			h.ValidationError(c, []dto.ValidationDetail{{Field: "file", Message: "file is required"}})
			return
		}
		f, err := fh.Open()
		if err != nil {
			h.HandleError(c, err)
			return
		}
		defer f.Close()
		body = f
	}

	file, err := csvimport.ReadMappings(body, csvimport.DefaultMaxRows)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if !file.Valid() {
		details := make([]dto.ValidationDetail, 0, len(file.Errors))
		for _, e := range file.Errors {
			field := fmt.Sprintf("line %d", e.Line)
			if e.Column != "" {
				field += "." + e.Column
			}
			details = append(details, dto.ValidationDetail{Field: field, Message: e.Message})
		}
		h.ValidationError(c, details)
		return
	}

	result, err := h.mappings.BulkCreate(c.Request.Context(), catalog.BulkCreateMappingsRequest{Mappings: file.Mappings})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// ForProduct handles GET /mappings?product_id=&variation_id=
func (h *MappingHandler) ForProduct(c *gin.Context) {
	productID := c.Query("product_id")
	if productID == "" {
		h.ValidationError(c, []dto.ValidationDetail{{Field: "product_id", Message: "product_id is required"}})
		return
	}
	var variationID *string
	if v := c.Query("variation_id"); v != "" {
		variationID = &v
	}
	ms, err := h.mappings.ForProduct(c.Request.Context(), productID, variationID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ms)
}

// ForMaterial handles GET /mappings/material/:id. Without variation_id every
// mapping of the material is listed; variation_id=null restricts the result
// to mappings of the parent material itself.
func (h *MappingHandler) ForMaterial(c *gin.Context) {
	filter := mapping.AnyVariation()
	if v, ok := c.GetQuery("variation_id"); ok {
		switch v {
		case "null", "":
			filter = mapping.NoVariation()
		default:
			filter = mapping.ForVariation(v)
		}
	}
	ms, err := h.mappings.ForMaterial(c.Request.Context(), c.Param("id"), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ms)
}

// UpdateQuantity handles PUT /mappings/:id
func (h *MappingHandler) UpdateQuantity(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req catalog.UpdateMappingRequest
	if !h.bindJSON(c, &req) {
		return
	}
	m, err := h.mappings.UpdateQuantity(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, m)
}

// Delete handles DELETE /mappings/:id
func (h *MappingHandler) Delete(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.mappings.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
