package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/storeops/backend/internal/domain/mapping"
	"github.com/storeops/backend/internal/domain/material"
)

// CreateMaterialRequest represents a request to create a material
type CreateMaterialRequest struct {
	Name              string `json:"name" binding:"required,min=1,max=255"`
	SKU               string `json:"sku" binding:"max=100"`
	Type              string `json:"type" binding:"omitempty,oneof=simple variable"`
	ManageStock       *bool  `json:"manage_stock"`
	LowStockThreshold int    `json:"low_stock_threshold" binding:"gte=0"`
	InitialStock      int    `json:"initial_stock"`
}

// UpdateMaterialRequest represents a request to update a material
type UpdateMaterialRequest struct {
	Name              string `json:"name" binding:"required,min=1,max=255"`
	SKU               string `json:"sku" binding:"max=100"`
	ManageStock       bool   `json:"manage_stock"`
	LowStockThreshold int    `json:"low_stock_threshold" binding:"gte=0"`
}

// AddVariationRequest represents a request to add a variation
type AddVariationRequest struct {
	Name              string               `json:"name" binding:"max=255"`
	SKU               string               `json:"sku" binding:"max=100"`
	Attributes        []material.Attribute `json:"attributes"`
	ManageStock       *bool                `json:"manage_stock"`
	LowStockThreshold int                  `json:"low_stock_threshold" binding:"gte=0"`
	InitialStock      int                  `json:"initial_stock"`
}

// ImportVariation is one variation of an externally sourced material
type ImportVariation struct {
	ExternalID    string               `json:"external_id" binding:"required"`
	Name          string               `json:"name"`
	SKU           string               `json:"sku"`
	Attributes    []material.Attribute `json:"attributes"`
	StockQuantity int                  `json:"stock_quantity"`
	ManageStock   bool                 `json:"manage_stock"`
}

// ImportMaterial is one material of the external catalog being imported
type ImportMaterial struct {
	ExternalID        string            `json:"external_id" binding:"required"`
	Name              string            `json:"name" binding:"required"`
	SKU               string            `json:"sku"`
	Type              string            `json:"type" binding:"omitempty,oneof=simple variable"`
	StockQuantity     int               `json:"stock_quantity"`
	ManageStock       bool              `json:"manage_stock"`
	LowStockThreshold int               `json:"low_stock_threshold"`
	Variations        []ImportVariation `json:"variations" binding:"dive"`
}

// ImportMaterialsRequest carries a batch of external materials
type ImportMaterialsRequest struct {
	Materials []ImportMaterial `json:"materials" binding:"required,min=1,dive"`
}

// ImportResult reports which external ids were created and which already existed
type ImportResult struct {
	Created []string `json:"created"`
	Skipped []string `json:"skipped"`
}

// MaterialListFilter represents filter options for material listings
type MaterialListFilter struct {
	Search          string `form:"search"`
	Type            string `form:"type" binding:"omitempty,oneof=simple variable"`
	IncludeInactive bool   `form:"include_inactive"`
	Page            int    `form:"page" binding:"omitempty,min=1"`
	PageSize        int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy         string `form:"order_by"`
	OrderDir        string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// VariationResponse represents a variation in API responses
type VariationResponse struct {
	ID                uuid.UUID            `json:"id"`
	ExternalID        *string              `json:"external_id,omitempty"`
	Name              string               `json:"name"`
	SKU               string               `json:"sku"`
	StockQuantity     int                  `json:"stock_quantity"`
	ManageStock       bool                 `json:"manage_stock"`
	LowStockThreshold int                  `json:"low_stock_threshold"`
	IsLowStock        bool                 `json:"is_low_stock"`
	Attributes        []material.Attribute `json:"attributes"`
	IsActive          bool                 `json:"is_active"`
}

// MaterialResponse represents a material in API responses
type MaterialResponse struct {
	ID                uuid.UUID           `json:"id"`
	ExternalID        *string             `json:"external_id,omitempty"`
	Name              string              `json:"name"`
	SKU               string              `json:"sku"`
	Type              string              `json:"type"`
	StockQuantity     int                 `json:"stock_quantity"`
	TotalStock        int                 `json:"total_stock"`
	ManageStock       bool                `json:"manage_stock"`
	LowStockThreshold int                 `json:"low_stock_threshold"`
	IsLowStock        bool                `json:"is_low_stock"`
	IsActive          bool                `json:"is_active"`
	Variations        []VariationResponse `json:"variations"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
	Version           int                 `json:"version"`
}

// ToMaterialResponse converts a domain material
func ToMaterialResponse(m *material.Material) MaterialResponse {
	variations := make([]VariationResponse, 0, len(m.Variations))
	for i := range m.Variations {
		v := &m.Variations[i]
		attrs := v.Attributes
		if attrs == nil {
			attrs = []material.Attribute{}
		}
		variations = append(variations, VariationResponse{
			ID:                v.ID,
			ExternalID:        v.ExternalID,
			Name:              v.Name,
			SKU:               v.SKU,
			StockQuantity:     v.StockQuantity,
			ManageStock:       v.ManageStock,
			LowStockThreshold: v.LowStockThreshold,
			IsLowStock:        v.IsLowStock(),
			Attributes:        attrs,
			IsActive:          v.IsActive,
		})
	}
	return MaterialResponse{
		ID:                m.ID,
		ExternalID:        m.ExternalID,
		Name:              m.Name,
		SKU:               m.SKU,
		Type:              string(m.Type),
		StockQuantity:     m.StockQuantity,
		TotalStock:        m.TotalStock(),
		ManageStock:       m.ManageStock,
		LowStockThreshold: m.LowStockThreshold,
		IsLowStock:        m.IsLowStock(),
		IsActive:          m.IsActive,
		Variations:        variations,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
		Version:           m.Version,
	}
}

// CreateMappingRequest represents a request to map a product to a material
type CreateMappingRequest struct {
	ProductID           string  `json:"product_id" binding:"required"`
	VariationID         *string `json:"variation_id"`
	MaterialProductID   string  `json:"material_product_id" binding:"required"`
	MaterialVariationID *string `json:"material_variation_id"`
	QuantityUsed        int     `json:"quantity_used" binding:"gt=0"`
}

// BulkCreateMappingsRequest creates several mappings at once
type BulkCreateMappingsRequest struct {
	Mappings []CreateMappingRequest `json:"mappings" binding:"required,min=1,dive"`
}

// UpdateMappingRequest changes the quantity consumed per unit
type UpdateMappingRequest struct {
	QuantityUsed int `json:"quantity_used" binding:"gt=0"`
}

// MappingResponse represents a mapping in API responses
type MappingResponse struct {
	ID                  uuid.UUID `json:"id"`
	ProductID           string    `json:"product_id"`
	VariationID         *string   `json:"variation_id,omitempty"`
	MaterialProductID   string    `json:"material_product_id"`
	MaterialVariationID *string   `json:"material_variation_id,omitempty"`
	QuantityUsed        int       `json:"quantity_used"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// BulkCreateMappingsResponse reports created and skipped duplicates
type BulkCreateMappingsResponse struct {
	Created []MappingResponse `json:"created"`
	Skipped []MappingResponse `json:"skipped"`
}

// ToMappingResponse converts a domain mapping
func ToMappingResponse(m *mapping.Mapping) MappingResponse {
	return MappingResponse{
		ID:                  m.ID,
		ProductID:           m.ProductID,
		VariationID:         m.VariationID,
		MaterialProductID:   m.MaterialProductID,
		MaterialVariationID: m.MaterialVariationID,
		QuantityUsed:        m.QuantityUsed,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

// ToMappingResponses converts a slice of domain mappings
func ToMappingResponses(ms []mapping.Mapping) []MappingResponse {
	out := make([]MappingResponse, 0, len(ms))
	for i := range ms {
		out = append(out, ToMappingResponse(&ms[i]))
	}
	return out
}
