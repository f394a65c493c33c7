package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/storeops/backend/internal/application/inventory"
	"github.com/storeops/backend/internal/application/validation"
	"github.com/storeops/backend/internal/domain/mapping"
	"github.com/storeops/backend/internal/domain/material"
	"go.uber.org/zap"
)

// MappingService manages product-to-material mappings
type MappingService struct {
	mappings  mapping.Repository
	materials material.Repository
	cache     inventory.CacheInvalidator
	logger    *zap.Logger
}

// NewMappingService creates a new MappingService
func NewMappingService(
	mappings mapping.Repository,
	materials material.Repository,
	cache inventory.CacheInvalidator,
	logger *zap.Logger,
) *MappingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MappingService{
		mappings:  mappings,
		materials: materials,
		cache:     cache,
		logger:    logger,
	}
}

// Create creates one mapping; an identical tuple yields ALREADY_EXISTS
func (s *MappingService) Create(ctx context.Context, req CreateMappingRequest) (*MappingResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	catalog, err := s.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	m, err := newCanonicalMapping(catalog, req)
	if err != nil {
		return nil, err
	}
	if err := s.mappings.Create(ctx, m); err != nil {
		return nil, err
	}
	s.logger.Info("Mapping created", zap.String("mapping_id", m.ID.String()), zap.String("key", m.Key()))
	s.invalidate(ctx)
	resp := ToMappingResponse(m)
	return &resp, nil
}

// BulkCreate creates many mappings. Duplicates, within the batch or against
// stored mappings, are skipped and reported instead of failing the batch.
func (s *MappingService) BulkCreate(ctx context.Context, req BulkCreateMappingsRequest) (*BulkCreateMappingsResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	catalog, err := s.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	batch := make([]mapping.Mapping, 0, len(req.Mappings))
	for _, r := range req.Mappings {
		m, err := newCanonicalMapping(catalog, r)
		if err != nil {
			return nil, err
		}
		batch = append(batch, *m)
	}

	result, err := s.mappings.CreateMany(ctx, batch)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Mappings bulk created", zap.Int("created", len(result.Created)), zap.Int("skipped", len(result.Skipped)))
	if len(result.Created) > 0 {
		s.invalidate(ctx)
	}
	return &BulkCreateMappingsResponse{
		Created: ToMappingResponses(result.Created),
		Skipped: ToMappingResponses(result.Skipped),
	}, nil
}

// ForProduct lists the mappings of a sellable item. A nil variation only
// matches mappings of the simple product.
func (s *MappingService) ForProduct(ctx context.Context, productID string, variationID *string) ([]MappingResponse, error) {
	ms, err := s.mappings.FindForProduct(ctx, productID, variationID)
	if err != nil {
		return nil, err
	}
	return ToMappingResponses(ms), nil
}

// ForMaterial is the inverse lookup. materialID and the variation may be
// given in either id space; both aliases of each are matched.
func (s *MappingService) ForMaterial(ctx context.Context, materialID string, filter mapping.VariationFilter) ([]MappingResponse, error) {
	catalog, err := s.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}

	ids := []string{materialID}
	m, ok := catalog.FindMaterial(materialID)
	if ok {
		ids = aliases(m.ID.String(), m.ExternalID)
		if variationIDs, exact := filter.VariationIDs(); exact && len(variationIDs) > 0 {
			if v, found := material.FindVariation(m, variationIDs[0]); found {
				filter = mapping.ForVariation(aliases(v.ID.String(), v.ExternalID)...)
			}
		}
	}

	ms, err := s.mappings.FindForMaterial(ctx, ids, filter)
	if err != nil {
		return nil, err
	}
	return ToMappingResponses(ms), nil
}

// UpdateQuantity changes the per-unit consumption of a mapping
func (s *MappingService) UpdateQuantity(ctx context.Context, id uuid.UUID, req UpdateMappingRequest) (*MappingResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if err := s.mappings.UpdateQuantity(ctx, id, req.QuantityUsed); err != nil {
		return nil, err
	}
	m, err := s.mappings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	resp := ToMappingResponse(m)
	return &resp, nil
}

// Delete removes a mapping
func (s *MappingService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.mappings.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *MappingService) loadCatalog(ctx context.Context) (*material.Catalog, error) {
	materials, err := s.materials.FindAllWithVariations(ctx)
	if err != nil {
		return nil, err
	}
	return material.NewCatalog(materials), nil
}

// newCanonicalMapping stores the material side in the local id space so that
// a pairing entered once by external id and once by local id is one mapping.
// References the catalog cannot resolve are kept as given.
func newCanonicalMapping(catalog *material.Catalog, req CreateMappingRequest) (*mapping.Mapping, error) {
	materialID, variationID := req.MaterialProductID, req.MaterialVariationID
	if m, ok := catalog.FindMaterial(materialID); ok {
		materialID = m.ID.String()
		variationID = catalog.NormalizeVariationID(m, variationID)
	}
	return mapping.NewMapping(req.ProductID, req.VariationID, materialID, variationID, req.QuantityUsed)
}

func (s *MappingService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePrefix(ctx, inventory.CachePrefixFulfillment); err != nil {
		s.logger.Warn("Failed to invalidate fulfillment cache", zap.Error(err))
	}
}

func aliases(local string, external *string) []string {
	if external == nil || *external == "" {
		return []string{local}
	}
	return []string{local, *external}
}
