package persistence

import (
	"context"
	"errors"

	"github.com/storeops/backend/internal/domain/order"
	"github.com/storeops/backend/internal/domain/shared"
	"github.com/storeops/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProcessedOrderRepository implements order.ProcessedOrderRepository using GORM
type GormProcessedOrderRepository struct {
	db *gorm.DB
}

// NewGormProcessedOrderRepository creates a new GormProcessedOrderRepository
func NewGormProcessedOrderRepository(db *gorm.DB) *GormProcessedOrderRepository {
	return &GormProcessedOrderRepository{db: db}
}

// Insert writes a marker. The unique index on order_id turns a second
// insert for the same order into ErrAlreadyProcessed, even across processes.
func (r *GormProcessedOrderRepository) Insert(ctx context.Context, marker *order.ProcessedOrder) error {
	err := r.db.WithContext(ctx).Create(models.ProcessedOrderModelFromDomain(marker)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return order.ErrAlreadyProcessed
	}
	return err
}

// FindByOrderID finds the marker of an order
func (r *GormProcessedOrderRepository) FindByOrderID(ctx context.Context, orderID string) (*order.ProcessedOrder, error) {
	var model models.ProcessedOrderModel
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ProcessedIDs returns the subset of orderIDs that carry a marker.
// A nil slice returns every marker.
func (r *GormProcessedOrderRepository) ProcessedIDs(ctx context.Context, orderIDs []string) (map[string]bool, error) {
	processed := make(map[string]bool)
	if orderIDs != nil && len(orderIDs) == 0 {
		return processed, nil
	}

	query := r.db.WithContext(ctx).Model(&models.ProcessedOrderModel{})
	if orderIDs != nil {
		query = query.Where("order_id IN ?", orderIDs)
	}
	var ids []string
	if err := query.Pluck("order_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		processed[id] = true
	}
	return processed, nil
}

// FindRecent returns the newest markers first
func (r *GormProcessedOrderRepository) FindRecent(ctx context.Context, limit int) ([]order.ProcessedOrder, error) {
	if limit <= 0 {
		limit = 50
	}
	var markerModels []models.ProcessedOrderModel
	if err := r.db.WithContext(ctx).
		Order("processed_at DESC, id DESC").
		Limit(limit).
		Find(&markerModels).Error; err != nil {
		return nil, err
	}
	markers := make([]order.ProcessedOrder, len(markerModels))
	for i := range markerModels {
		markers[i] = *markerModels[i].ToDomain()
	}
	return markers, nil
}

// Ensure GormProcessedOrderRepository implements order.ProcessedOrderRepository
var _ order.ProcessedOrderRepository = (*GormProcessedOrderRepository)(nil)
