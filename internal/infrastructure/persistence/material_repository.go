package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storeops/backend/internal/domain/material"
	"github.com/storeops/backend/internal/domain/shared"
	"github.com/storeops/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormMaterialRepository implements material.Repository using GORM
type GormMaterialRepository struct {
	db *gorm.DB
}

// NewGormMaterialRepository creates a new GormMaterialRepository
func NewGormMaterialRepository(db *gorm.DB) *GormMaterialRepository {
	return &GormMaterialRepository{db: db}
}

func preloadVariations(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC, id ASC")
}

// FindByID finds a material by its ID, active or not
func (r *GormMaterialRepository) FindByID(ctx context.Context, id uuid.UUID) (*material.Material, error) {
	var model models.MaterialModel
	if err := r.db.WithContext(ctx).
		Preload("Variations", preloadVariations).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByExternalID finds a material by its legacy external id
func (r *GormMaterialRepository) FindByExternalID(ctx context.Context, externalID string) (*material.Material, error) {
	var model models.MaterialModel
	if err := r.db.WithContext(ctx).
		Preload("Variations", preloadVariations).
		Where("external_id = ?", externalID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists materials with filtering and pagination
func (r *GormMaterialRepository) FindAll(ctx context.Context, filter material.ListFilter) ([]material.Material, error) {
	var materialModels []models.MaterialModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.MaterialModel{}), filter)

	orderBy := ValidateSortField(filter.OrderBy, MaterialSortFields, "name")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir)).Order("id ASC")
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.Limit())
	}

	if err := query.Preload("Variations", preloadVariations).Find(&materialModels).Error; err != nil {
		return nil, err
	}
	return toMaterials(materialModels), nil
}

// Count counts materials matching the filter
func (r *GormMaterialRepository) Count(ctx context.Context, filter material.ListFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.MaterialModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindAllWithVariations loads the whole catalog, inactive materials included
func (r *GormMaterialRepository) FindAllWithVariations(ctx context.Context) ([]material.Material, error) {
	var materialModels []models.MaterialModel
	if err := r.db.WithContext(ctx).
		Preload("Variations", preloadVariations).
		Order("created_at ASC, id ASC").
		Find(&materialModels).Error; err != nil {
		return nil, err
	}
	return toMaterials(materialModels), nil
}

// Save creates or updates a material and its variations.
// Updates use the version for optimistic locking and never touch stock
// columns; stock only changes through SetStock. New variations are inserted
// with their stock.
func (r *GormMaterialRepository) Save(ctx context.Context, m *material.Material) error {
	db := r.db.WithContext(ctx)
	now := time.Now()

	result := db.Model(&models.MaterialModel{}).
		Where("id = ? AND version = ?", m.ID, m.Version).
		Updates(map[string]interface{}{
			"external_id":         m.ExternalID,
			"name":                m.Name,
			"sku":                 m.SKU,
			"type":                m.Type,
			"manage_stock":        m.ManageStock,
			"low_stock_threshold": m.LowStockThreshold,
			"is_active":           m.IsActive,
			"version":             m.Version + 1,
			"updated_at":          now,
		})
	if result.Error != nil {
		return translateWriteError(result.Error)
	}

	if result.RowsAffected == 0 {
		var exists int64
		if err := db.Model(&models.MaterialModel{}).Where("id = ?", m.ID).Count(&exists).Error; err != nil {
			return err
		}
		if exists > 0 {
			return shared.ErrConcurrencyConflict
		}
		if err := db.Omit(clause.Associations).Create(models.MaterialModelFromDomain(m)).Error; err != nil {
			return translateWriteError(err)
		}
		return r.insertVariations(db, m.Variations)
	}

	m.Version++
	m.UpdatedAt = now
	return r.syncVariations(db, m)
}

func (r *GormMaterialRepository) syncVariations(db *gorm.DB, m *material.Material) error {
	if len(m.Variations) == 0 {
		return nil
	}
	var existing []uuid.UUID
	if err := db.Model(&models.VariationModel{}).
		Where("material_id = ?", m.ID).
		Pluck("id", &existing).Error; err != nil {
		return err
	}
	stored := make(map[uuid.UUID]bool, len(existing))
	for _, id := range existing {
		stored[id] = true
	}

	fresh := make([]material.Variation, 0)
	for i := range m.Variations {
		v := &m.Variations[i]
		if !stored[v.ID] {
			fresh = append(fresh, *v)
			continue
		}
		model := models.VariationModelFromDomain(v)
		if err := db.Model(&models.VariationModel{}).
			Where("id = ?", v.ID).
			Updates(map[string]interface{}{
				"external_id":         model.ExternalID,
				"name":                model.Name,
				"sku":                 model.SKU,
				"manage_stock":        model.ManageStock,
				"low_stock_threshold": model.LowStockThreshold,
				"attributes":          model.Attributes,
				"is_active":           model.IsActive,
				"updated_at":          model.UpdatedAt,
			}).Error; err != nil {
			return translateWriteError(err)
		}
	}
	return r.insertVariations(db, fresh)
}

func (r *GormMaterialRepository) insertVariations(db *gorm.DB, variations []material.Variation) error {
	if len(variations) == 0 {
		return nil
	}
	variationModels := make([]*models.VariationModel, len(variations))
	for i := range variations {
		variationModels[i] = models.VariationModelFromDomain(&variations[i])
	}
	return translateWriteError(db.Create(variationModels).Error)
}

// GetStock reads the stock level of a pool, optionally locking its row
func (r *GormMaterialRepository) GetStock(ctx context.Context, key material.StockKey, forUpdate bool) (int, error) {
	query := r.db.WithContext(ctx)
	if forUpdate && supportsRowLocks(r.db) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var row struct{ StockQuantity int }
	var err error
	if key.IsVariation() {
		err = query.Model(&models.VariationModel{}).
			Select("stock_quantity").
			Where("id = ? AND material_id = ?", *key.VariationID, key.MaterialID).
			Take(&row).Error
	} else {
		err = query.Model(&models.MaterialModel{}).
			Select("stock_quantity").
			Where("id = ?", key.MaterialID).
			Take(&row).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, shared.ErrNotFound
		}
		return 0, err
	}
	return row.StockQuantity, nil
}

// SetStock writes the stock level of a pool. The material version is left
// alone so that stock movements never conflict with catalog edits.
func (r *GormMaterialRepository) SetStock(ctx context.Context, key material.StockKey, qty int) error {
	db := r.db.WithContext(ctx)
	updates := map[string]interface{}{
		"stock_quantity": qty,
		"updated_at":     time.Now(),
	}
	if key.IsVariation() {
		return db.Model(&models.VariationModel{}).
			Where("id = ? AND material_id = ?", *key.VariationID, key.MaterialID).
			UpdateColumns(updates).Error
	}
	return db.Model(&models.MaterialModel{}).
		Where("id = ?", key.MaterialID).
		UpdateColumns(updates).Error
}

func (r *GormMaterialRepository) applyFilter(query *gorm.DB, filter material.ListFilter) *gorm.DB {
	if !filter.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", pattern, pattern)
	}
	return query
}

func toMaterials(materialModels []models.MaterialModel) []material.Material {
	materials := make([]material.Material, len(materialModels))
	for i := range materialModels {
		materials[i] = *materialModels[i].ToDomain()
	}
	return materials
}

// translateWriteError maps unique violations to ErrAlreadyExists
func translateWriteError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.ErrAlreadyExists
	}
	return err
}

// Ensure GormMaterialRepository implements material.Repository
var _ material.Repository = (*GormMaterialRepository)(nil)
