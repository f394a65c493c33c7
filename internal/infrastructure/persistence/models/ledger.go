package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/storeops/backend/internal/domain/ledger"
)

// LedgerEntryModel is the persistence model for a stock ledger entry.
// Rows are insert-only; there is no UpdatedAt column.
type LedgerEntryModel struct {
	ID                  uuid.UUID     `gorm:"type:uuid;primary_key"`
	MaterialProductID   uuid.UUID     `gorm:"type:uuid;not null;index:idx_ledger_pool,priority:1"`
	MaterialVariationID *uuid.UUID    `gorm:"type:uuid;index:idx_ledger_pool,priority:2"`
	OrderID             *string       `gorm:"type:varchar(64);index"`
	OrderNumber         *string       `gorm:"type:varchar(64)"`
	QuantityChange      int           `gorm:"not null"`
	PreviousStock       int           `gorm:"not null"`
	NewStock            int           `gorm:"not null"`
	Reason              ledger.Reason `gorm:"type:varchar(20);not null;index"`
	Notes               string        `gorm:"type:text"`
	CreatedAt           time.Time     `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "stock_ledger"
}

// ToDomain converts the persistence model to a domain ledger Entry.
func (m *LedgerEntryModel) ToDomain() *ledger.Entry {
	return &ledger.Entry{
		ID:                  m.ID,
		MaterialProductID:   m.MaterialProductID,
		MaterialVariationID: m.MaterialVariationID,
		OrderID:             m.OrderID,
		OrderNumber:         m.OrderNumber,
		QuantityChange:      m.QuantityChange,
		PreviousStock:       m.PreviousStock,
		NewStock:            m.NewStock,
		Reason:              m.Reason,
		Notes:               m.Notes,
		CreatedAt:           m.CreatedAt,
	}
}

// LedgerEntryModelFromDomain creates a new persistence model from a domain ledger Entry.
func LedgerEntryModelFromDomain(e *ledger.Entry) *LedgerEntryModel {
	return &LedgerEntryModel{
		ID:                  e.ID,
		MaterialProductID:   e.MaterialProductID,
		MaterialVariationID: e.MaterialVariationID,
		OrderID:             e.OrderID,
		OrderNumber:         e.OrderNumber,
		QuantityChange:      e.QuantityChange,
		PreviousStock:       e.PreviousStock,
		NewStock:            e.NewStock,
		Reason:              e.Reason,
		Notes:               e.Notes,
		CreatedAt:           e.CreatedAt,
	}
}
