package models

import (
	"time"

	"github.com/storeops/backend/internal/domain/order"
)

// ProcessedOrderModel is the persistence model for a processed-order marker.
// The unique index on OrderID is what makes order processing idempotent.
type ProcessedOrderModel struct {
	BaseModel
	OrderID     string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_processed_order_order_id"`
	OrderNumber string    `gorm:"type:varchar(64)"`
	ProcessedAt time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ProcessedOrderModel) TableName() string {
	return "processed_orders"
}

// ToDomain converts the persistence model to a domain ProcessedOrder.
func (m *ProcessedOrderModel) ToDomain() *order.ProcessedOrder {
	return &order.ProcessedOrder{
		BaseEntity:  m.BaseModel.ToDomain(),
		OrderID:     m.OrderID,
		OrderNumber: m.OrderNumber,
		ProcessedAt: m.ProcessedAt,
	}
}

// ProcessedOrderModelFromDomain creates a new persistence model from a domain ProcessedOrder.
func ProcessedOrderModelFromDomain(p *order.ProcessedOrder) *ProcessedOrderModel {
	m := &ProcessedOrderModel{
		OrderID:     p.OrderID,
		OrderNumber: p.OrderNumber,
		ProcessedAt: p.ProcessedAt,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}
