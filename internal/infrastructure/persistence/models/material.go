package models

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/storeops/backend/internal/domain/material"
)

// MaterialModel is the persistence model for the Material aggregate root.
type MaterialModel struct {
	AggregateModel
	ExternalID        *string          `gorm:"type:varchar(64);uniqueIndex:idx_material_external_id"`
	Name              string           `gorm:"type:varchar(255);not null"`
	SKU               string           `gorm:"type:varchar(100);index"`
	Type              material.Type    `gorm:"type:varchar(20);not null;default:'simple'"`
	StockQuantity     int              `gorm:"not null;default:0"`
	ManageStock       bool             `gorm:"not null"`
	LowStockThreshold int              `gorm:"not null;default:0"`
	IsActive          bool             `gorm:"not null;index"`
	Variations        []VariationModel `gorm:"foreignKey:MaterialID;references:ID"`
}

// TableName returns the table name for GORM
func (MaterialModel) TableName() string {
	return "material_products"
}

// ToDomain converts the persistence model to a domain Material.
func (m *MaterialModel) ToDomain() *material.Material {
	mat := &material.Material{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		ExternalID:        m.ExternalID,
		Name:              m.Name,
		SKU:               m.SKU,
		Type:              m.Type,
		StockQuantity:     m.StockQuantity,
		ManageStock:       m.ManageStock,
		LowStockThreshold: m.LowStockThreshold,
		IsActive:          m.IsActive,
		Variations:        make([]material.Variation, len(m.Variations)),
	}
	for i := range m.Variations {
		mat.Variations[i] = *m.Variations[i].ToDomain()
	}
	return mat
}

// FromDomain populates the persistence model from a domain Material.
// Variations are persisted separately and are not copied.
func (m *MaterialModel) FromDomain(mat *material.Material) {
	m.FromDomainAggregateRoot(mat.BaseAggregateRoot)
	m.ExternalID = mat.ExternalID
	m.Name = mat.Name
	m.SKU = mat.SKU
	m.Type = mat.Type
	m.StockQuantity = mat.StockQuantity
	m.ManageStock = mat.ManageStock
	m.LowStockThreshold = mat.LowStockThreshold
	m.IsActive = mat.IsActive
}

// MaterialModelFromDomain creates a new persistence model from a domain Material.
func MaterialModelFromDomain(mat *material.Material) *MaterialModel {
	m := &MaterialModel{}
	m.FromDomain(mat)
	return m
}

// VariationModel is the persistence model for a material variation.
type VariationModel struct {
	BaseModel
	MaterialID        uuid.UUID `gorm:"type:uuid;not null;index"`
	ExternalID        *string   `gorm:"type:varchar(64);index"`
	Name              string    `gorm:"type:varchar(255);not null"`
	SKU               string    `gorm:"type:varchar(100)"`
	StockQuantity     int       `gorm:"not null;default:0"`
	ManageStock       bool      `gorm:"not null"`
	LowStockThreshold int       `gorm:"not null;default:0"`
	// Attributes holds the name/option pairs as a JSON array
	Attributes string `gorm:"type:text"`
	IsActive   bool   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (VariationModel) TableName() string {
	return "material_variations"
}

// ToDomain converts the persistence model to a domain Variation.
func (m *VariationModel) ToDomain() *material.Variation {
	v := &material.Variation{
		BaseEntity:        m.BaseModel.ToDomain(),
		MaterialID:        m.MaterialID,
		ExternalID:        m.ExternalID,
		Name:              m.Name,
		SKU:               m.SKU,
		StockQuantity:     m.StockQuantity,
		ManageStock:       m.ManageStock,
		LowStockThreshold: m.LowStockThreshold,
		IsActive:          m.IsActive,
		Attributes:        []material.Attribute{},
	}
	if m.Attributes != "" {
		// Malformed attribute JSON degrades to an empty list rather than failing the load
		_ = json.Unmarshal([]byte(m.Attributes), &v.Attributes)
	}
	return v
}

// FromDomain populates the persistence model from a domain Variation.
func (m *VariationModel) FromDomain(v *material.Variation) {
	m.FromDomainBaseEntity(v.BaseEntity)
	m.MaterialID = v.MaterialID
	m.ExternalID = v.ExternalID
	m.Name = v.Name
	m.SKU = v.SKU
	m.StockQuantity = v.StockQuantity
	m.ManageStock = v.ManageStock
	m.LowStockThreshold = v.LowStockThreshold
	m.IsActive = v.IsActive
	m.Attributes = "[]"
	if len(v.Attributes) > 0 {
		if data, err := json.Marshal(v.Attributes); err == nil {
			m.Attributes = string(data)
		}
	}
}

// VariationModelFromDomain creates a new persistence model from a domain Variation.
func VariationModelFromDomain(v *material.Variation) *VariationModel {
	m := &VariationModel{}
	m.FromDomain(v)
	return m
}
