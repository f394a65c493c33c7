package models

import (
	"github.com/storeops/backend/internal/domain/mapping"
)

// MappingModel is the persistence model for a product-to-material mapping.
// DedupeKey carries the uniqueness tuple because nullable columns cannot
// take part in a portable composite unique index.
type MappingModel struct {
	BaseModel
	ProductID           string  `gorm:"type:varchar(64);not null;index:idx_mapping_product"`
	VariationID         *string `gorm:"type:varchar(64);index:idx_mapping_product"`
	MaterialProductID   string  `gorm:"type:varchar(64);not null;index"`
	MaterialVariationID *string `gorm:"type:varchar(64)"`
	QuantityUsed        int     `gorm:"not null"`
	DedupeKey           string  `gorm:"type:varchar(300);not null;uniqueIndex:idx_mapping_dedupe_key"`
}

// TableName returns the table name for GORM
func (MappingModel) TableName() string {
	return "material_mappings"
}

// ToDomain converts the persistence model to a domain Mapping.
func (m *MappingModel) ToDomain() *mapping.Mapping {
	return &mapping.Mapping{
		BaseEntity:          m.BaseModel.ToDomain(),
		ProductID:           m.ProductID,
		VariationID:         m.VariationID,
		MaterialProductID:   m.MaterialProductID,
		MaterialVariationID: m.MaterialVariationID,
		QuantityUsed:        m.QuantityUsed,
	}
}

// FromDomain populates the persistence model from a domain Mapping.
func (m *MappingModel) FromDomain(mp *mapping.Mapping) {
	m.FromDomainBaseEntity(mp.BaseEntity)
	m.ProductID = mp.ProductID
	m.VariationID = mp.VariationID
	m.MaterialProductID = mp.MaterialProductID
	m.MaterialVariationID = mp.MaterialVariationID
	m.QuantityUsed = mp.QuantityUsed
	m.DedupeKey = mp.Key()
}

// MappingModelFromDomain creates a new persistence model from a domain Mapping.
func MappingModelFromDomain(mp *mapping.Mapping) *MappingModel {
	m := &MappingModel{}
	m.FromDomain(mp)
	return m
}
