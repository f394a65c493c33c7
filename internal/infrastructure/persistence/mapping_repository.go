package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/storeops/backend/internal/domain/mapping"
	"github.com/storeops/backend/internal/domain/shared"
	"github.com/storeops/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormMappingRepository implements mapping.Repository using GORM
type GormMappingRepository struct {
	db *gorm.DB
}

// NewGormMappingRepository creates a new GormMappingRepository
func NewGormMappingRepository(db *gorm.DB) *GormMappingRepository {
	return &GormMappingRepository{db: db}
}

// FindByID finds a mapping by its ID
func (r *GormMappingRepository) FindByID(ctx context.Context, id uuid.UUID) (*mapping.Mapping, error) {
	var model models.MappingModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindForProduct returns the mappings of one sellable item.
// A nil variation matches only mappings without a variation.
func (r *GormMappingRepository) FindForProduct(ctx context.Context, productID string, variationID *string) ([]mapping.Mapping, error) {
	query := r.db.WithContext(ctx).Where("product_id = ?", productID)
	if variationID == nil || *variationID == "" {
		query = query.Where("variation_id IS NULL")
	} else {
		query = query.Where("variation_id = ?", *variationID)
	}
	return r.find(query)
}

// FindForMaterial returns the mappings consuming a material
func (r *GormMappingRepository) FindForMaterial(ctx context.Context, materialIDs []string, filter mapping.VariationFilter) ([]mapping.Mapping, error) {
	if len(materialIDs) == 0 {
		return []mapping.Mapping{}, nil
	}
	query := r.db.WithContext(ctx).Where("material_product_id IN ?", materialIDs)
	switch {
	case filter.IsNone():
		query = query.Where("material_variation_id IS NULL")
	case !filter.IsAny():
		ids, _ := filter.VariationIDs()
		if len(ids) == 0 {
			return []mapping.Mapping{}, nil
		}
		query = query.Where("material_variation_id IN ?", ids)
	}
	return r.find(query)
}

// FindAll returns every mapping
func (r *GormMappingRepository) FindAll(ctx context.Context) ([]mapping.Mapping, error) {
	return r.find(r.db.WithContext(ctx))
}

// Create inserts a mapping; an existing tuple yields ErrAlreadyExists
func (r *GormMappingRepository) Create(ctx context.Context, m *mapping.Mapping) error {
	return translateWriteError(r.db.WithContext(ctx).Create(models.MappingModelFromDomain(m)).Error)
}

// CreateMany inserts mappings in one transaction. Tuples repeated within the
// batch or already stored are reported as skipped.
func (r *GormMappingRepository) CreateMany(ctx context.Context, mappings []mapping.Mapping) (mapping.BulkResult, error) {
	result := mapping.BulkResult{
		Created: make([]mapping.Mapping, 0, len(mappings)),
		Skipped: make([]mapping.Mapping, 0),
	}
	if len(mappings) == 0 {
		return result, nil
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		keys := make([]string, 0, len(mappings))
		for i := range mappings {
			keys = append(keys, mappings[i].Key())
		}
		var stored []string
		if err := tx.Model(&models.MappingModel{}).
			Where("dedupe_key IN ?", keys).
			Pluck("dedupe_key", &stored).Error; err != nil {
			return err
		}
		seen := make(map[string]bool, len(mappings)+len(stored))
		for _, k := range stored {
			seen[k] = true
		}

		toInsert := make([]*models.MappingModel, 0, len(mappings))
		for i := range mappings {
			key := mappings[i].Key()
			if seen[key] {
				result.Skipped = append(result.Skipped, mappings[i])
				continue
			}
			seen[key] = true
			result.Created = append(result.Created, mappings[i])
			toInsert = append(toInsert, models.MappingModelFromDomain(&mappings[i]))
		}
		if len(toInsert) == 0 {
			return nil
		}
		return translateWriteError(tx.Create(toInsert).Error)
	})
	if err != nil {
		return mapping.BulkResult{}, err
	}
	return result, nil
}

// UpdateQuantity changes the per-unit consumption of a mapping
func (r *GormMappingRepository) UpdateQuantity(ctx context.Context, id uuid.UUID, quantityUsed int) error {
	result := r.db.WithContext(ctx).Model(&models.MappingModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"quantity_used": quantityUsed,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a mapping
func (r *GormMappingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.MappingModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormMappingRepository) find(query *gorm.DB) ([]mapping.Mapping, error) {
	var mappingModels []models.MappingModel
	if err := query.Order("created_at ASC, id ASC").Find(&mappingModels).Error; err != nil {
		return nil, err
	}
	mappings := make([]mapping.Mapping, len(mappingModels))
	for i := range mappingModels {
		mappings[i] = *mappingModels[i].ToDomain()
	}
	return mappings, nil
}

// Ensure GormMappingRepository implements mapping.Repository
var _ mapping.Repository = (*GormMappingRepository)(nil)
