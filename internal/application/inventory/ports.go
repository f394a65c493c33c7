package inventory

import (
	"context"
	"io"
	"time"

	"github.com/storeops/backend/internal/domain/ledger"
	"github.com/storeops/backend/internal/domain/shared"
)

// ErrOrderBusy is returned when another caller is processing the same order right now
var ErrOrderBusy = shared.NewDomainError("ORDER_PROCESSING_IN_PROGRESS", "Order stock is being processed by another request")

// OrderLocker serializes processing of one order across instances.
// Obtain returns ErrOrderBusy when the lock is held elsewhere.
type OrderLocker interface {
	Obtain(ctx context.Context, orderID string) (release func(context.Context) error, err error)
}

// NopOrderLocker never blocks; the processed-order unique index stays the arbiter
type NopOrderLocker struct{}

// Obtain always succeeds
func (NopOrderLocker) Obtain(context.Context, string) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}

// CacheInvalidator drops cached read models after stock changes
type CacheInvalidator interface {
	InvalidatePrefix(ctx context.Context, prefix string) error
}

// Cache stores serialized read models with a time to live
type Cache interface {
	CacheInvalidator
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache key prefixes of the read models that depend on stock
const (
	CachePrefixOrders      = "orders:"
	CachePrefixFulfillment = "fulfillment:"
)

// StockMetrics records stock mutations
type StockMetrics interface {
	RecordLedgerAppend(ctx context.Context, reason ledger.Reason, quantityChange int)
	RecordOrderProcessed(ctx context.Context, deducted, skipped, failed, unmapped int)
	RecordFailedUpdate(ctx context.Context, reason ledger.Reason)
}

// NopStockMetrics discards all measurements
type NopStockMetrics struct{}

func (NopStockMetrics) RecordLedgerAppend(context.Context, ledger.Reason, int)    {}
func (NopStockMetrics) RecordOrderProcessed(context.Context, int, int, int, int) {}
func (NopStockMetrics) RecordFailedUpdate(context.Context, ledger.Reason)        {}

// LedgerExporter renders ledger entries into a downloadable document
type LedgerExporter interface {
	ContentType() string
	Extension() string
	Export(ctx context.Context, entries []LedgerEntryResponse, w io.Writer) error
}

// ExportStorage stores rendered exports and hands out download links
type ExportStorage interface {
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
}
