package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/storeops/backend/internal/application/inventory"
	"github.com/storeops/backend/internal/application/validation"
	"github.com/storeops/backend/internal/domain/ledger"
	"github.com/storeops/backend/internal/domain/material"
	"github.com/storeops/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// MaterialService handles material catalog operations
type MaterialService struct {
	scope     inventory.TransactionScope
	materials material.Repository
	cache     inventory.CacheInvalidator
	logger    *zap.Logger
}

// NewMaterialService creates a new MaterialService
func NewMaterialService(
	scope inventory.TransactionScope,
	materials material.Repository,
	cache inventory.CacheInvalidator,
	logger *zap.Logger,
) *MaterialService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaterialService{
		scope:     scope,
		materials: materials,
		cache:     cache,
		logger:    logger,
	}
}

// Create creates a material. A non-zero initial stock is recorded in the ledger.
func (s *MaterialService) Create(ctx context.Context, req CreateMaterialRequest) (*MaterialResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	m, err := material.NewMaterial(req.Name, req.SKU, material.Type(req.Type))
	if err != nil {
		return nil, err
	}
	if req.ManageStock != nil {
		m.ManageStock = *req.ManageStock
	}
	m.LowStockThreshold = req.LowStockThreshold
	m.WithInitialStock(req.InitialStock)

	err = s.scope.Execute(ctx, func(repos inventory.TransactionalRepositories) error {
		if err := repos.MaterialRepo().Save(ctx, m); err != nil {
			return err
		}
		return appendInitialStock(ctx, repos, material.StockKey{MaterialID: m.ID}, m.StockQuantity, "Initial stock")
	})
	if err != nil {
		s.logger.Error("Failed to create material", zap.String("name", req.Name), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Material created", zap.String("material_id", m.ID.String()), zap.String("name", m.Name))
	s.invalidate(ctx)
	resp := ToMaterialResponse(m)
	return &resp, nil
}

// GetByID returns a material with its variations, active or not
func (s *MaterialService) GetByID(ctx context.Context, id uuid.UUID) (*MaterialResponse, error) {
	m, err := s.materials.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToMaterialResponse(m)
	return &resp, nil
}

// List lists materials, active only unless IncludeInactive is set
func (s *MaterialService) List(ctx context.Context, filter MaterialListFilter) ([]MaterialResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "name"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "asc"
	}

	domainFilter := material.ListFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
			Search:   filter.Search,
		},
		IncludeInactive: filter.IncludeInactive,
		Type:            material.Type(filter.Type),
	}

	materials, err := s.materials.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.materials.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	out := make([]MaterialResponse, 0, len(materials))
	for i := range materials {
		out = append(out, ToMaterialResponse(&materials[i]))
	}
	return out, total, nil
}

// Update edits descriptive fields and stock policy; stock levels are untouched
func (s *MaterialService) Update(ctx context.Context, id uuid.UUID, req UpdateMaterialRequest) (*MaterialResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(_ inventory.TransactionalRepositories, m *material.Material) error {
		return m.Update(req.Name, req.SKU, req.ManageStock, req.LowStockThreshold)
	})
}

// AddVariation adds a variation to a variable material
func (s *MaterialService) AddVariation(ctx context.Context, id uuid.UUID, req AddVariationRequest) (*MaterialResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	var added *material.Variation
	resp, err := s.mutate(ctx, id, func(_ inventory.TransactionalRepositories, m *material.Material) error {
		v, err := m.AddVariation(req.Name, req.SKU, req.Attributes)
		if err != nil {
			return err
		}
		if req.ManageStock != nil {
			v.ManageStock = *req.ManageStock
		}
		v.LowStockThreshold = req.LowStockThreshold
		v.StockQuantity = req.InitialStock
		added = v
		return nil
	}, func(repos inventory.TransactionalRepositories, m *material.Material) error {
		variationID := added.ID
		return appendInitialStock(ctx, repos, material.StockKey{MaterialID: m.ID, VariationID: &variationID}, added.StockQuantity, "Initial stock")
	})
	return resp, err
}

// Deactivate soft-deletes a material and its variations. Mappings and
// ledger entries keep referencing it.
func (s *MaterialService) Deactivate(ctx context.Context, id uuid.UUID) error {
	_, err := s.mutate(ctx, id, func(_ inventory.TransactionalRepositories, m *material.Material) error {
		m.Deactivate()
		return nil
	})
	return err
}

// Activate restores a soft-deleted material and its variations
func (s *MaterialService) Activate(ctx context.Context, id uuid.UUID) (*MaterialResponse, error) {
	return s.mutate(ctx, id, func(_ inventory.TransactionalRepositories, m *material.Material) error {
		m.Activate()
		return nil
	})
}

// ImportMaterials creates materials from an external catalog, keeping their
// external ids so existing mappings keep resolving. Materials whose external
// id is already known are skipped.
func (s *MaterialService) ImportMaterials(ctx context.Context, req ImportMaterialsRequest) (*ImportResult, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	result := &ImportResult{Created: []string{}, Skipped: []string{}}

	err := s.scope.Execute(ctx, func(repos inventory.TransactionalRepositories) error {
		for _, in := range req.Materials {
			_, err := repos.MaterialRepo().FindByExternalID(ctx, in.ExternalID)
			if err == nil {
				result.Skipped = append(result.Skipped, in.ExternalID)
				continue
			}
			if !errors.Is(err, shared.ErrNotFound) {
				return err
			}

			m, err := buildImported(in)
			if err != nil {
				return err
			}
			if err := repos.MaterialRepo().Save(ctx, m); err != nil {
				return err
			}
			if err := appendInitialStock(ctx, repos, material.StockKey{MaterialID: m.ID}, m.StockQuantity, "Imported stock"); err != nil {
				return err
			}
			for i := range m.Variations {
				variationID := m.Variations[i].ID
				key := material.StockKey{MaterialID: m.ID, VariationID: &variationID}
				if err := appendInitialStock(ctx, repos, key, m.Variations[i].StockQuantity, "Imported stock"); err != nil {
					return err
				}
			}
			result.Created = append(result.Created, in.ExternalID)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Material import failed", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Materials imported", zap.Int("created", len(result.Created)), zap.Int("skipped", len(result.Skipped)))
	s.invalidate(ctx)
	return result, nil
}

func buildImported(in ImportMaterial) (*material.Material, error) {
	m, err := material.NewMaterial(in.Name, in.SKU, material.Type(in.Type))
	if err != nil {
		return nil, err
	}
	m.WithExternalID(in.ExternalID).WithInitialStock(in.StockQuantity)
	m.ManageStock = in.ManageStock
	m.LowStockThreshold = in.LowStockThreshold
	for _, iv := range in.Variations {
		v, err := m.AddVariation(iv.Name, iv.SKU, iv.Attributes)
		if err != nil {
			return nil, err
		}
		v.WithExternalID(iv.ExternalID)
		v.StockQuantity = iv.StockQuantity
		v.ManageStock = iv.ManageStock
	}
	return m, nil
}

type materialMutation func(repos inventory.TransactionalRepositories, m *material.Material) error

// mutate loads the material, applies change, saves it and runs the follow-up
// steps, all in one transaction.
func (s *MaterialService) mutate(ctx context.Context, id uuid.UUID, change materialMutation, after ...materialMutation) (*MaterialResponse, error) {
	var m *material.Material
	err := s.scope.Execute(ctx, func(repos inventory.TransactionalRepositories) error {
		var err error
		m, err = repos.MaterialRepo().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := change(repos, m); err != nil {
			return err
		}
		if err := repos.MaterialRepo().Save(ctx, m); err != nil {
			return err
		}
		for _, step := range after {
			if err := step(repos, m); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	resp := ToMaterialResponse(m)
	return &resp, nil
}

func (s *MaterialService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePrefix(ctx, inventory.CachePrefixFulfillment); err != nil {
		s.logger.Warn("Failed to invalidate fulfillment cache", zap.Error(err))
	}
}

// appendInitialStock ledgers stock a record was created with, so the latest
// ledger entry of every pool matches its stored level.
func appendInitialStock(ctx context.Context, repos inventory.TransactionalRepositories, key material.StockKey, qty int, notes string) error {
	if qty == 0 {
		return nil
	}
	entry, err := ledger.NewEntry(key, 0, qty, ledger.ReasonStockTake)
	if err != nil {
		return err
	}
	entry.WithNotes(notes)
	return repos.LedgerRepo().Append(ctx, entry)
}
