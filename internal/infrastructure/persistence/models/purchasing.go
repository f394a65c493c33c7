package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storeops/backend/internal/domain/purchasing"
)

// PurchaseOrderModel is the persistence model for the PurchaseOrder aggregate root.
type PurchaseOrderModel struct {
	AggregateModel
	PONumber        string                   `gorm:"column:po_number;type:varchar(30);not null;uniqueIndex:idx_purchase_order_number"`
	SupplierID      string                   `gorm:"type:varchar(64);not null;index"`
	Status          purchasing.Status        `gorm:"type:varchar(20);not null;default:'draft';index"`
	OrderDate       *time.Time               `gorm:"index"`
	ExpectedDate    *time.Time
	ReceivedDate    *time.Time
	Notes           string                   `gorm:"type:text"`
	ShippingCost    decimal.Decimal          `gorm:"type:decimal(18,2);not null;default:0"`
	ShippingVATRate decimal.Decimal          `gorm:"column:shipping_vat_rate;type:decimal(6,2);not null;default:0"`
	Subtotal        decimal.Decimal          `gorm:"type:decimal(18,2);not null;default:0"`
	ShippingVAT     decimal.Decimal          `gorm:"column:shipping_vat;type:decimal(18,2);not null;default:0"`
	VATTotal        decimal.Decimal          `gorm:"column:vat_total;type:decimal(18,2);not null;default:0"`
	GrandTotal      decimal.Decimal          `gorm:"type:decimal(18,2);not null;default:0"`
	Items           []PurchaseOrderItemModel `gorm:"foreignKey:PurchaseOrderID;references:ID"`
}

// TableName returns the table name for GORM
func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// ToDomain converts the persistence model to a domain PurchaseOrder.
func (m *PurchaseOrderModel) ToDomain() *purchasing.PurchaseOrder {
	po := &purchasing.PurchaseOrder{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		PONumber:          m.PONumber,
		SupplierID:        m.SupplierID,
		Status:            m.Status,
		OrderDate:         m.OrderDate,
		ExpectedDate:      m.ExpectedDate,
		ReceivedDate:      m.ReceivedDate,
		Notes:             m.Notes,
		ShippingCost:      m.ShippingCost,
		ShippingVATRate:   m.ShippingVATRate,
		Subtotal:          m.Subtotal,
		ShippingVAT:       m.ShippingVAT,
		VATTotal:          m.VATTotal,
		GrandTotal:        m.GrandTotal,
		Items:             make([]purchasing.Item, len(m.Items)),
	}
	for i := range m.Items {
		po.Items[i] = *m.Items[i].ToDomain()
	}
	return po
}

// FromDomain populates the persistence model from a domain PurchaseOrder.
func (m *PurchaseOrderModel) FromDomain(po *purchasing.PurchaseOrder) {
	m.FromDomainAggregateRoot(po.BaseAggregateRoot)
	m.PONumber = po.PONumber
	m.SupplierID = po.SupplierID
	m.Status = po.Status
	m.OrderDate = po.OrderDate
	m.ExpectedDate = po.ExpectedDate
	m.ReceivedDate = po.ReceivedDate
	m.Notes = po.Notes
	m.ShippingCost = po.ShippingCost
	m.ShippingVATRate = po.ShippingVATRate
	m.Subtotal = po.Subtotal
	m.ShippingVAT = po.ShippingVAT
	m.VATTotal = po.VATTotal
	m.GrandTotal = po.GrandTotal
	m.Items = make([]PurchaseOrderItemModel, len(po.Items))
	for i := range po.Items {
		m.Items[i] = *PurchaseOrderItemModelFromDomain(&po.Items[i])
	}
}

// PurchaseOrderModelFromDomain creates a new persistence model from a domain PurchaseOrder.
func PurchaseOrderModelFromDomain(po *purchasing.PurchaseOrder) *PurchaseOrderModel {
	m := &PurchaseOrderModel{}
	m.FromDomain(po)
	return m
}

// PurchaseOrderItemModel is the persistence model for a purchase order line.
type PurchaseOrderItemModel struct {
	BaseModel
	PurchaseOrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	MaterialProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	MaterialVariationID *uuid.UUID      `gorm:"type:uuid"`
	Description         string          `gorm:"type:varchar(500)"`
	QuantityOrdered     int             `gorm:"not null"`
	QuantityReceived    int             `gorm:"not null;default:0"`
	UnitPrice           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	VATRate             decimal.Decimal `gorm:"column:vat_rate;type:decimal(6,2);not null;default:0"`
	LineSubtotal        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	LineVAT             decimal.Decimal `gorm:"column:line_vat;type:decimal(18,2);not null;default:0"`
	LineTotal           decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (PurchaseOrderItemModel) TableName() string {
	return "purchase_order_items"
}

// ToDomain converts the persistence model to a domain purchase order Item.
func (m *PurchaseOrderItemModel) ToDomain() *purchasing.Item {
	return &purchasing.Item{
		BaseEntity:          m.BaseModel.ToDomain(),
		PurchaseOrderID:     m.PurchaseOrderID,
		MaterialProductID:   m.MaterialProductID,
		MaterialVariationID: m.MaterialVariationID,
		Description:         m.Description,
		QuantityOrdered:     m.QuantityOrdered,
		QuantityReceived:    m.QuantityReceived,
		UnitPrice:           m.UnitPrice,
		VATRate:             m.VATRate,
		LineSubtotal:        m.LineSubtotal,
		LineVAT:             m.LineVAT,
		LineTotal:           m.LineTotal,
	}
}

// PurchaseOrderItemModelFromDomain creates a new persistence model from a domain purchase order Item.
func PurchaseOrderItemModelFromDomain(i *purchasing.Item) *PurchaseOrderItemModel {
	m := &PurchaseOrderItemModel{
		PurchaseOrderID:     i.PurchaseOrderID,
		MaterialProductID:   i.MaterialProductID,
		MaterialVariationID: i.MaterialVariationID,
		Description:         i.Description,
		QuantityOrdered:     i.QuantityOrdered,
		QuantityReceived:    i.QuantityReceived,
		UnitPrice:           i.UnitPrice,
		VATRate:             i.VATRate,
		LineSubtotal:        i.LineSubtotal,
		LineVAT:             i.LineVAT,
		LineTotal:           i.LineTotal,
	}
	m.FromDomainBaseEntity(i.BaseEntity)
	return m
}

// POSequenceModel holds the last issued PO number sequence per year.
type POSequenceModel struct {
	Year      int `gorm:"primaryKey;autoIncrement:false"`
	LastValue int `gorm:"not null"`
}

// TableName returns the table name for GORM
func (POSequenceModel) TableName() string {
	return "po_sequences"
}
