package persistence

import (
	"context"
	"errors"

	"github.com/storeops/backend/internal/domain/ledger"
	"github.com/storeops/backend/internal/domain/material"
	"github.com/storeops/backend/internal/domain/shared"
	"github.com/storeops/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormLedgerRepository implements ledger.Repository using GORM.
// The table is insert-only; no method updates or deletes rows.
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// Append writes one entry
func (r *GormLedgerRepository) Append(ctx context.Context, entry *ledger.Entry) error {
	return r.db.WithContext(ctx).Create(models.LedgerEntryModelFromDomain(entry)).Error
}

// Query returns matching entries oldest first. Entry IDs are time-ordered,
// so they break ties between entries written in the same instant.
func (r *GormLedgerRepository) Query(ctx context.Context, q ledger.Query) ([]ledger.Entry, error) {
	query := r.db.WithContext(ctx).Model(&models.LedgerEntryModel{})
	if q.MaterialID != nil {
		query = query.Where("material_product_id = ?", *q.MaterialID)
	}
	if q.VariationID != nil {
		query = query.Where("material_variation_id = ?", *q.VariationID)
	}
	if q.Reason != "" {
		query = query.Where("reason = ?", q.Reason)
	}
	if q.OrderID != "" {
		query = query.Where("order_id = ?", q.OrderID)
	}
	if q.From != nil {
		query = query.Where("created_at >= ?", *q.From)
	}
	if q.To != nil {
		query = query.Where("created_at <= ?", *q.To)
	}

	var entryModels []models.LedgerEntryModel
	if err := query.
		Order("created_at ASC, id ASC").
		Limit(q.EffectiveLimit()).
		Offset(q.Offset).
		Find(&entryModels).Error; err != nil {
		return nil, err
	}

	entries := make([]ledger.Entry, len(entryModels))
	for i := range entryModels {
		entries[i] = *entryModels[i].ToDomain()
	}
	return entries, nil
}

// LatestFor returns the newest entry of a stock pool
func (r *GormLedgerRepository) LatestFor(ctx context.Context, key material.StockKey) (*ledger.Entry, error) {
	query := r.db.WithContext(ctx).Where("material_product_id = ?", key.MaterialID)
	if key.IsVariation() {
		query = query.Where("material_variation_id = ?", *key.VariationID)
	} else {
		query = query.Where("material_variation_id IS NULL")
	}

	var model models.LedgerEntryModel
	if err := query.Order("created_at DESC, id DESC").First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Ensure GormLedgerRepository implements ledger.Repository
var _ ledger.Repository = (*GormLedgerRepository)(nil)
