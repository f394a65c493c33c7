package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storeops/backend/internal/domain/purchasing"
	"github.com/storeops/backend/internal/domain/shared"
	"github.com/storeops/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPurchaseOrderRepository implements purchasing.Repository using GORM
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC, id ASC")
}

// FindByID finds a purchase order by its ID
func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*purchasing.PurchaseOrder, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

// FindByIDForUpdate finds a purchase order and locks its row until the
// surrounding transaction ends. Concurrent receipts against one order queue
// up here instead of failing on the version check.
func (r *GormPurchaseOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*purchasing.PurchaseOrder, error) {
	query := r.db.WithContext(ctx)
	if supportsRowLocks(r.db) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.first(query.Where("id = ?", id))
}

// FindByPONumber finds a purchase order by its number
func (r *GormPurchaseOrderRepository) FindByPONumber(ctx context.Context, poNumber string) (*purchasing.PurchaseOrder, error) {
	return r.first(r.db.WithContext(ctx).Where("po_number = ?", poNumber))
}

// FindAll lists purchase orders with filtering and pagination
func (r *GormPurchaseOrderRepository) FindAll(ctx context.Context, filter purchasing.ListFilter) ([]purchasing.PurchaseOrder, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.PurchaseOrderModel{}), filter)

	orderBy := ValidateSortField(filter.OrderBy, PurchaseOrderSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir)).Order("id DESC")
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.Limit())
	}

	var orderModels []models.PurchaseOrderModel
	if err := query.Preload("Items", preloadItems).Find(&orderModels).Error; err != nil {
		return nil, err
	}
	orders := make([]purchasing.PurchaseOrder, len(orderModels))
	for i := range orderModels {
		orders[i] = *orderModels[i].ToDomain()
	}
	return orders, nil
}

// Count counts purchase orders matching the filter
func (r *GormPurchaseOrderRepository) Count(ctx context.Context, filter purchasing.ListFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.PurchaseOrderModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a purchase order with optimistic locking and
// replaces its items.
func (r *GormPurchaseOrderRepository) Save(ctx context.Context, po *purchasing.PurchaseOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.PurchaseOrderModelFromDomain(po)
		now := time.Now()

		result := tx.Model(&models.PurchaseOrderModel{}).
			Where("id = ? AND version = ?", po.ID, po.Version).
			Updates(map[string]interface{}{
				"supplier_id":       model.SupplierID,
				"status":            model.Status,
				"order_date":        model.OrderDate,
				"expected_date":     model.ExpectedDate,
				"received_date":     model.ReceivedDate,
				"notes":             model.Notes,
				"shipping_cost":     model.ShippingCost,
				"shipping_vat_rate": model.ShippingVATRate,
				"subtotal":          model.Subtotal,
				"shipping_vat":      model.ShippingVAT,
				"vat_total":         model.VATTotal,
				"grand_total":       model.GrandTotal,
				"version":           po.Version + 1,
				"updated_at":        now,
			})
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			var exists int64
			if err := tx.Model(&models.PurchaseOrderModel{}).Where("id = ?", po.ID).Count(&exists).Error; err != nil {
				return err
			}
			if exists > 0 {
				return shared.ErrConcurrencyConflict
			}
			if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
				return translateWriteError(err)
			}
		} else {
			po.Version++
			po.UpdatedAt = now
		}

		return r.replaceItems(tx, po)
	})
}

func (r *GormPurchaseOrderRepository) replaceItems(tx *gorm.DB, po *purchasing.PurchaseOrder) error {
	itemIDs := make([]uuid.UUID, len(po.Items))
	for i := range po.Items {
		itemIDs[i] = po.Items[i].ID
	}

	deleteQuery := tx.Where("purchase_order_id = ?", po.ID)
	if len(itemIDs) > 0 {
		deleteQuery = deleteQuery.Where("id NOT IN ?", itemIDs)
	}
	if err := deleteQuery.Delete(&models.PurchaseOrderItemModel{}).Error; err != nil {
		return err
	}

	for i := range po.Items {
		po.Items[i].PurchaseOrderID = po.ID
		if err := tx.Save(models.PurchaseOrderItemModelFromDomain(&po.Items[i])).Error; err != nil {
			return err
		}
	}
	return nil
}

// NextSequence hands out the next PO number sequence for year. The counter
// row is bumped in place, so the row lock serializes concurrent callers
// until their transactions end.
func (r *GormPurchaseOrderRepository) NextSequence(ctx context.Context, year int) (int, error) {
	var next int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bumped, err := r.bumpSequence(tx, year)
		if err != nil {
			return err
		}
		if !bumped {
			// First PO of the year. A concurrent creator may win the insert,
			// in which case the savepoint absorbs the violation and we bump.
			insertErr := tx.Transaction(func(sp *gorm.DB) error {
				return sp.Create(&models.POSequenceModel{Year: year, LastValue: 1}).Error
			})
			switch {
			case insertErr == nil:
				next = 1
				return nil
			case !errors.Is(insertErr, gorm.ErrDuplicatedKey):
				return insertErr
			}
			if _, err := r.bumpSequence(tx, year); err != nil {
				return err
			}
		}

		var seq models.POSequenceModel
		if err := tx.Where("year = ?", year).Take(&seq).Error; err != nil {
			return err
		}
		next = seq.LastValue
		return nil
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (r *GormPurchaseOrderRepository) bumpSequence(tx *gorm.DB, year int) (bool, error) {
	result := tx.Model(&models.POSequenceModel{}).
		Where("year = ?", year).
		UpdateColumn("last_value", gorm.Expr("last_value + ?", 1))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *GormPurchaseOrderRepository) first(query *gorm.DB) (*purchasing.PurchaseOrder, error) {
	var model models.PurchaseOrderModel
	if err := query.Preload("Items", preloadItems).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

func (r *GormPurchaseOrderRepository) applyFilter(query *gorm.DB, filter purchasing.ListFilter) *gorm.DB {
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.SupplierID != "" {
		query = query.Where("supplier_id = ?", filter.SupplierID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(po_number) LIKE ? OR LOWER(notes) LIKE ?", pattern, pattern)
	}
	return query
}

// Ensure GormPurchaseOrderRepository implements purchasing.Repository
var _ purchasing.Repository = (*GormPurchaseOrderRepository)(nil)
