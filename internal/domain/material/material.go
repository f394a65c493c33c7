package material

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storeops/backend/internal/domain/shared"
)

// Type distinguishes simple materials from materials stocked per variation
type Type string

const (
	// TypeSimple is a material tracked as a single stock pool
	TypeSimple Type = "simple"
	// TypeVariable is a material whose stock lives on its variations
	TypeVariable Type = "variable"
)

// IsValid returns true if the material type is valid
func (t Type) IsValid() bool {
	return t == TypeSimple || t == TypeVariable
}

// Attribute is one name/option pair of a variation, e.g. Color: Red
type Attribute struct {
	Name   string `json:"name"`
	Option string `json:"option"`
}

// Material is a locally tracked raw material.
// Materials are never hard-deleted: ledger entries, mappings and purchase
// order lines keep pointing at them after deactivation.
type Material struct {
	shared.BaseAggregateRoot
	ExternalID        *string
	Name              string
	SKU               string
	Type              Type
	StockQuantity     int
	ManageStock       bool
	LowStockThreshold int
	IsActive          bool
	Variations        []Variation
}

// Variation is one attribute combination of a variable material with its own stock
type Variation struct {
	shared.BaseEntity
	MaterialID        uuid.UUID
	ExternalID        *string
	Name              string
	SKU               string
	StockQuantity     int
	ManageStock       bool
	LowStockThreshold int
	Attributes        []Attribute
	IsActive          bool
}

// NewMaterial creates a new active material with stock management enabled
func NewMaterial(name, sku string, materialType Type) (*Material, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Material name cannot be empty")
	}
	if len(name) > 255 {
		return nil, shared.NewDomainError("INVALID_NAME", "Material name cannot exceed 255 characters")
	}
	if materialType == "" {
		materialType = TypeSimple
	}
	if !materialType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TYPE", "Material type must be simple or variable")
	}

	return &Material{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		SKU:               strings.TrimSpace(sku),
		Type:              materialType,
		ManageStock:       true,
		IsActive:          true,
		Variations:        make([]Variation, 0),
	}, nil
}

// WithExternalID records the identifier the material had in the external catalog
func (m *Material) WithExternalID(externalID string) *Material {
	if externalID = strings.TrimSpace(externalID); externalID != "" {
		m.ExternalID = &externalID
	}
	return m
}

// WithInitialStock seeds the stock level of a freshly created material.
// Stock of persisted materials only changes through ledgered operations.
func (m *Material) WithInitialStock(qty int) *Material {
	m.StockQuantity = qty
	return m
}

// Update edits the descriptive and stock-policy fields of the material
func (m *Material) Update(name, sku string, manageStock bool, lowStockThreshold int) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Material name cannot be empty")
	}
	if lowStockThreshold < 0 {
		return shared.NewDomainError("INVALID_THRESHOLD", "Low stock threshold cannot be negative")
	}
	m.Name = name
	m.SKU = strings.TrimSpace(sku)
	m.ManageStock = manageStock
	m.LowStockThreshold = lowStockThreshold
	m.Touch()
	return nil
}

// AddVariation appends a new variation to a variable material.
// A blank name is derived from the attribute options.
func (m *Material) AddVariation(name, sku string, attrs []Attribute) (*Variation, error) {
	if m.Type != TypeVariable {
		return nil, shared.NewDomainError("NOT_VARIABLE", "Variations can only be added to variable materials")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = VariationName(attrs)
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Variation needs a name or at least one attribute")
	}

	v := Variation{
		BaseEntity:  shared.NewBaseEntity(),
		MaterialID:  m.ID,
		Name:        name,
		SKU:         strings.TrimSpace(sku),
		ManageStock: true,
		Attributes:  attrs,
		IsActive:    true,
	}
	m.Variations = append(m.Variations, v)
	m.Touch()
	return &m.Variations[len(m.Variations)-1], nil
}

// VariationName joins attribute options into a human label
func VariationName(attrs []Attribute) string {
	parts := make([]string, 0, len(attrs))
	for _, a := range attrs {
		if opt := strings.TrimSpace(a.Option); opt != "" {
			parts = append(parts, opt)
		}
	}
	return strings.Join(parts, ", ")
}

// Deactivate soft-deletes the material together with its variations
func (m *Material) Deactivate() {
	m.IsActive = false
	for i := range m.Variations {
		m.Variations[i].IsActive = false
		m.Variations[i].UpdatedAt = time.Now()
	}
	m.Touch()
}

// Activate restores a soft-deleted material and its variations
func (m *Material) Activate() {
	m.IsActive = true
	for i := range m.Variations {
		m.Variations[i].IsActive = true
		m.Variations[i].UpdatedAt = time.Now()
	}
	m.Touch()
}

// Variation returns the variation with the given local id, if it belongs to this material
func (m *Material) Variation(id uuid.UUID) (*Variation, bool) {
	for i := range m.Variations {
		if m.Variations[i].ID == id {
			return &m.Variations[i], true
		}
	}
	return nil, false
}

// TotalStock returns the parent stock for simple materials and the sum of
// variation stock for variable ones.
func (m *Material) TotalStock() int {
	if m.Type != TypeVariable || len(m.Variations) == 0 {
		return m.StockQuantity
	}
	total := 0
	for _, v := range m.Variations {
		total += v.StockQuantity
	}
	return total
}

// IsLowStock is display-only; it never gates fulfillment.
func (m *Material) IsLowStock() bool {
	return m.ManageStock && m.StockQuantity <= m.LowStockThreshold
}

// DisplayName returns "parent" or "parent – variation"
func (m *Material) DisplayName(v *Variation) string {
	if v == nil {
		return m.Name
	}
	return m.Name + " – " + v.Name
}

// IsLowStock is display-only; it never gates fulfillment.
func (v *Variation) IsLowStock() bool {
	return v.ManageStock && v.StockQuantity <= v.LowStockThreshold
}

// WithExternalID records the identifier the variation had in the external catalog
func (v *Variation) WithExternalID(externalID string) *Variation {
	if externalID = strings.TrimSpace(externalID); externalID != "" {
		v.ExternalID = &externalID
	}
	return v
}
