package feed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/storeops/backend/internal/application/inventory"
	"github.com/storeops/backend/internal/domain/order"
	"go.uber.org/zap"
)

// DefaultOrdersTTL is how long fetched orders are reused
const DefaultOrdersTTL = 5 * time.Minute

// CachedFeed memoizes another feed's answers in an inventory.Cache under
// the orders prefix, which stock mutations invalidate.
type CachedFeed struct {
	next   order.Feed
	cache  inventory.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedFeed wraps next with a cache-aside layer
func NewCachedFeed(next order.Feed, cache inventory.Cache, ttl time.Duration, logger *zap.Logger) *CachedFeed {
	if ttl <= 0 {
		ttl = DefaultOrdersTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedFeed{next: next, cache: cache, ttl: ttl, logger: logger}
}

// FetchOrders serves from cache when possible
func (f *CachedFeed) FetchOrders(ctx context.Context, filter order.FeedFilter) ([]order.Order, error) {
	key := inventory.CachePrefixOrders + "list:" + filter.CacheKey()
	var orders []order.Order
	if f.load(ctx, key, &orders) {
		return orders, nil
	}
	orders, err := f.next.FetchOrders(ctx, filter)
	if err != nil {
		return nil, err
	}
	f.store(ctx, key, orders)
	return orders, nil
}

// FetchOrder serves from cache when possible
func (f *CachedFeed) FetchOrder(ctx context.Context, id string) (*order.Order, error) {
	key := inventory.CachePrefixOrders + "one:" + id
	var o order.Order
	if f.load(ctx, key, &o) {
		return &o, nil
	}
	found, err := f.next.FetchOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	f.store(ctx, key, found)
	return found, nil
}

func (f *CachedFeed) load(ctx context.Context, key string, dst any) bool {
	raw, ok, err := f.cache.Get(ctx, key)
	if err != nil {
		f.logger.Warn("Order cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

func (f *CachedFeed) store(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := f.cache.Set(ctx, key, raw, f.ttl); err != nil {
		f.logger.Warn("Order cache write failed", zap.String("key", key), zap.Error(err))
	}
}

var _ order.Feed = (*CachedFeed)(nil)
