package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/storeops/backend/internal/domain/fulfillment"
	"github.com/storeops/backend/internal/domain/mapping"
	"github.com/storeops/backend/internal/domain/material"
	"github.com/storeops/backend/internal/domain/order"
	"github.com/storeops/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrFeedNotConfigured is returned when no order feed credentials are available
var ErrFeedNotConfigured = shared.NewDomainError("FEED_NOT_CONFIGURED", "Order feed is not configured")

// DefaultFulfillmentTTL is how long a computed fulfillment view stays cached
const DefaultFulfillmentTTL = 2 * time.Minute

// FulfillmentService answers which awaiting orders current stock can cover.
// It never writes stock.
type FulfillmentService struct {
	feed       order.Feed
	materials  material.Repository
	mappings   mapping.Repository
	processed  order.ProcessedOrderRepository
	calculator *fulfillment.Calculator
	cache      Cache
	ttl        time.Duration
	logger     *zap.Logger
}

// NewFulfillmentService creates a new FulfillmentService. feed may be nil
// when the store is not configured; cache may be nil to disable caching.
func NewFulfillmentService(
	feed order.Feed,
	materials material.Repository,
	mappings mapping.Repository,
	processed order.ProcessedOrderRepository,
	cache Cache,
	ttl time.Duration,
	logger *zap.Logger,
) *FulfillmentService {
	if ttl <= 0 {
		ttl = DefaultFulfillmentTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FulfillmentService{
		feed:       feed,
		materials:  materials,
		mappings:   mappings,
		processed:  processed,
		calculator: fulfillment.NewCalculator(),
		cache:      cache,
		ttl:        ttl,
		logger:     logger,
	}
}

// FulfillmentStatus evaluates the awaiting orders matched by q, oldest first.
// Orders in terminal statuses are left out of the result.
func (s *FulfillmentService) FulfillmentStatus(ctx context.Context, q OrderQuery) ([]OrderFulfillmentResponse, error) {
	if s.feed == nil {
		return nil, ErrFeedNotConfigured
	}
	filter := order.FeedFilter{
		After:    q.After,
		Before:   q.Before,
		Statuses: q.Statuses,
		Page:     q.Page,
		PerPage:  q.PerPage,
	}
	cacheKey := CachePrefixFulfillment + filter.CacheKey()
	if cached, ok := s.fromCache(ctx, cacheKey); ok {
		return cached, nil
	}

	orders, err := s.feed.FetchOrders(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("fetch orders: %w", err)
	}
	catalog, mappings, err := s.loadReferenceData(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	processed, err := s.processed.ProcessedIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load processed orders: %w", err)
	}

	statuses := s.calculator.Calculate(fulfillment.Input{
		Orders:    orders,
		Catalog:   catalog,
		Mappings:  mappings,
		Processed: processed,
	})

	sorted := append([]order.Order(nil), orders...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].DateCreated.Equal(sorted[j].DateCreated) {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].DateCreated.Before(sorted[j].DateCreated)
	})

	out := make([]OrderFulfillmentResponse, 0, len(statuses))
	for _, o := range sorted {
		st, ok := statuses[o.ID]
		if !ok {
			continue
		}
		out = append(out, toOrderFulfillmentResponse(o, st))
	}

	s.toCache(ctx, cacheKey, out)
	return out, nil
}

// RequiredMaterials lists what a single order needs against current stock,
// without competition from other orders.
func (s *FulfillmentService) RequiredMaterials(ctx context.Context, o order.Order) (*fulfillment.Requirements, error) {
	catalog, mappings, err := s.loadReferenceData(ctx)
	if err != nil {
		return nil, err
	}
	req := fulfillment.RequiredMaterials(o, catalog, mappings)
	return &req, nil
}

// RequiredMaterialsForOrder fetches the order from the feed first
func (s *FulfillmentService) RequiredMaterialsForOrder(ctx context.Context, orderID string) (*fulfillment.Requirements, error) {
	o, err := s.Order(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.RequiredMaterials(ctx, *o)
}

// Order fetches one order from the feed
func (s *FulfillmentService) Order(ctx context.Context, orderID string) (*order.Order, error) {
	if s.feed == nil {
		return nil, ErrFeedNotConfigured
	}
	return s.feed.FetchOrder(ctx, orderID)
}

func (s *FulfillmentService) loadReferenceData(ctx context.Context) (*material.Catalog, []mapping.Mapping, error) {
	materials, err := s.materials.FindAllWithVariations(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load materials: %w", err)
	}
	mappings, err := s.mappings.FindAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load mappings: %w", err)
	}
	return material.NewCatalog(materials), mappings, nil
}

func (s *FulfillmentService) fromCache(ctx context.Context, key string) ([]OrderFulfillmentResponse, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Fulfillment cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var out []OrderFulfillmentResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	return out, true
}

func (s *FulfillmentService) toCache(ctx context.Context, key string, value []OrderFulfillmentResponse) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
		s.logger.Warn("Fulfillment cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func toOrderFulfillmentResponse(o order.Order, st fulfillment.Status) OrderFulfillmentResponse {
	missing := make([]MissingMaterialResponse, 0, len(st.MissingMaterials))
	for _, m := range st.MissingMaterials {
		missing = append(missing, MissingMaterialResponse{
			MaterialID:  m.MaterialID,
			VariationID: m.VariationID,
			Name:        m.Name,
			Needed:      m.Needed,
			Available:   m.Available,
		})
	}
	return OrderFulfillmentResponse{
		OrderID:          o.ID,
		OrderNumber:      o.Number,
		Status:           o.Status,
		DateCreated:      o.DateCreated,
		CanFulfill:       st.CanFulfill,
		IsProcessed:      st.IsProcessed,
		MissingMaterials: missing,
	}
}
