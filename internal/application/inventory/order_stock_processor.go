package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/storeops/backend/internal/application/validation"
	"github.com/storeops/backend/internal/domain/fulfillment"
	"github.com/storeops/backend/internal/domain/ledger"
	"github.com/storeops/backend/internal/domain/material"
	"github.com/storeops/backend/internal/domain/order"
	"github.com/storeops/backend/internal/domain/shared"
	"github.com/storeops/backend/internal/infrastructure/logger"
	"github.com/storeops/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// OrderStockProcessor deducts the materials an order consumed, exactly once per order.
//
// The processed-order marker is inserted first inside the same transaction
// as the deductions. A second call for the same order hits the marker's
// unique index and fails with order.ErrAlreadyProcessed before touching stock;
// a fatal error anywhere rolls the marker back with everything else.
type OrderStockProcessor struct {
	scope     TransactionScope
	processed order.ProcessedOrderRepository
	locker    OrderLocker
	cache     CacheInvalidator
	metrics   StockMetrics
	logger    *zap.Logger
}

// ProcessorOption configures an OrderStockProcessor
type ProcessorOption func(*OrderStockProcessor)

// WithOrderLocker sets the cross-instance lock taken before processing
func WithOrderLocker(l OrderLocker) ProcessorOption {
	return func(p *OrderStockProcessor) {
		p.locker = l
	}
}

// WithCacheInvalidator sets the cache dropped after a successful run
func WithCacheInvalidator(c CacheInvalidator) ProcessorOption {
	return func(p *OrderStockProcessor) {
		p.cache = c
	}
}

// WithStockMetrics sets the metrics recorder
func WithStockMetrics(m StockMetrics) ProcessorOption {
	return func(p *OrderStockProcessor) {
		p.metrics = m
	}
}

// NewOrderStockProcessor creates a new OrderStockProcessor
func NewOrderStockProcessor(
	scope TransactionScope,
	processed order.ProcessedOrderRepository,
	logger *zap.Logger,
	opts ...ProcessorOption,
) *OrderStockProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &OrderStockProcessor{
		scope:     scope,
		processed: processed,
		locker:    NopOrderLocker{},
		metrics:   NopStockMetrics{},
		logger:    logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process deducts stock for every mapped line item of the order and marks it processed.
//
// Unmapped items, skipped mappings and failed deductions are reported in the
// result and never abort the run. Loading the catalog or writing the marker
// are the only fatal steps.
func (p *OrderStockProcessor) Process(ctx context.Context, cmd ProcessOrderCommand) (_ *ProcessOrderResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, "inventory", "process_order_stock", attribute.String("order.id", cmd.OrderID))
	defer func() { telemetry.EndSpan(span, err) }()

	if err := validation.Struct(cmd); err != nil {
		return nil, err
	}
	ctx = logger.WithOrderID(ctx, cmd.OrderID)
	log := logger.For(ctx, p.logger)

	release, err := p.locker.Obtain(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			log.Warn("Failed to release order lock", zap.Error(err))
		}
	}()

	result := &ProcessOrderResult{
		OrderID:       cmd.OrderID,
		OrderNumber:   cmd.OrderNumber,
		Results:       []DeductionResult{},
		UnmappedItems: []order.LineItem{},
		SkippedItems:  []SkippedItem{},
		FailedUpdates: []FailedUpdate{},
	}

	err = p.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		marker, err := order.NewProcessedOrder(cmd.OrderID, cmd.OrderNumber)
		if err != nil {
			return err
		}
		if err := repos.ProcessedOrderRepo().Insert(ctx, marker); err != nil {
			return err
		}

		materials, err := repos.MaterialRepo().FindAllWithVariations(ctx)
		if err != nil {
			return fmt.Errorf("load materials: %w", err)
		}
		allMappings, err := repos.MappingRepo().FindAll(ctx)
		if err != nil {
			return fmt.Errorf("load mappings: %w", err)
		}

		p.deduct(ctx, cmd, material.NewCatalog(materials), fulfillment.NewMappingIndex(allMappings), NewStockWriter(repos, p.metrics), result)
		return nil
	})
	if err != nil {
		if errors.Is(err, order.ErrAlreadyProcessed) {
			log.Info("Order already processed")
		} else {
			log.Error("Order stock processing failed", zap.Error(err))
		}
		return nil, err
	}

	p.metrics.RecordOrderProcessed(ctx, len(result.Results), len(result.SkippedItems), len(result.FailedUpdates), len(result.UnmappedItems))
	log.Info("Order stock processed",
		zap.Int("deducted", len(result.Results)),
		zap.Int("skipped", len(result.SkippedItems)),
		zap.Int("failed", len(result.FailedUpdates)),
		zap.Int("unmapped", len(result.UnmappedItems)),
	)
	p.invalidate(ctx)
	return result, nil
}

func (p *OrderStockProcessor) deduct(
	ctx context.Context,
	cmd ProcessOrderCommand,
	catalog *material.Catalog,
	index *fulfillment.MappingIndex,
	writer *StockWriter,
	result *ProcessOrderResult,
) {
	for _, item := range cmd.LineItems {
		mps := index.ForProduct(item.ProductID, item.VariationID)
		if len(mps) == 0 {
			result.UnmappedItems = append(result.UnmappedItems, item)
			continue
		}

		for _, mp := range mps {
			skip := SkippedItem{
				ProductID:           item.ProductID,
				VariationID:         item.VariationID,
				MaterialProductID:   mp.MaterialProductID,
				MaterialVariationID: mp.MaterialVariationID,
			}

			m, ok := catalog.FindMaterial(mp.MaterialProductID)
			if !ok {
				skip.Reason = SkipMaterialNotFound
				result.SkippedItems = append(result.SkippedItems, skip)
				continue
			}

			key := material.StockKey{MaterialID: m.ID}
			manageStock := m.ManageStock
			var variation *material.Variation
			if mp.MaterialVariationID != nil {
				variation, ok = material.FindVariation(m, *mp.MaterialVariationID)
				if !ok {
					skip.Reason = SkipVariationNotFound
					result.SkippedItems = append(result.SkippedItems, skip)
					continue
				}
				variationID := variation.ID
				key.VariationID = &variationID
				manageStock = variation.ManageStock
			}
			if !manageStock {
				skip.Reason = SkipStockManagementDisabled
				result.SkippedItems = append(result.SkippedItems, skip)
				continue
			}

			quantity := mp.QuantityUsed * item.Quantity
			name := m.DisplayName(variation)
			entry, err := writer.Apply(ctx, StockChange{
				Key:         key,
				Delta:       -quantity,
				Reason:      ledger.ReasonOrder,
				OrderID:     cmd.OrderID,
				OrderNumber: cmd.OrderNumber,
				Notes:       deductionNote(cmd.OrderNumber, item),
			})
			if err != nil {
				logger.For(ctx, p.logger).Warn("Stock deduction failed",
					zap.String("stock_key", key.String()),
					zap.Error(err),
				)
				result.FailedUpdates = append(result.FailedUpdates, FailedUpdate{
					MaterialID:   key.MaterialID,
					VariationID:  key.VariationID,
					MaterialName: name,
					Quantity:     quantity,
					Error:        err.Error(),
				})
				continue
			}

			result.Results = append(result.Results, DeductionResult{
				MaterialID:       key.MaterialID,
				VariationID:      key.VariationID,
				MaterialName:     name,
				QuantityDeducted: quantity,
				PreviousStock:    entry.PreviousStock,
				NewStock:         entry.NewStock,
				LedgerEntryID:    entry.ID,
			})
		}
	}
}

func deductionNote(orderNumber string, item order.LineItem) string {
	if orderNumber == "" {
		return fmt.Sprintf("Order deduction: %d x %s", item.Quantity, item.Name)
	}
	return fmt.Sprintf("Order #%s: %d x %s", orderNumber, item.Quantity, item.Name)
}

func (p *OrderStockProcessor) invalidate(ctx context.Context) {
	if p.cache == nil {
		return
	}
	for _, prefix := range []string{CachePrefixFulfillment, CachePrefixOrders} {
		if err := p.cache.InvalidatePrefix(ctx, prefix); err != nil {
			p.logger.Warn("Failed to invalidate cache", zap.String("prefix", prefix), zap.Error(err))
		}
	}
}

// IsProcessed reports whether stock for the order has been deducted
func (p *OrderStockProcessor) IsProcessed(ctx context.Context, orderID string) (*ProcessedOrderResponse, bool, error) {
	marker, err := p.processed.FindByOrderID(ctx, orderID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return toProcessedOrderResponse(marker), true, nil
}

// ListProcessed returns the most recently processed orders
func (p *OrderStockProcessor) ListProcessed(ctx context.Context, limit int) ([]ProcessedOrderResponse, error) {
	if limit <= 0 {
		limit = ledger.DefaultQueryLimit
	}
	markers, err := p.processed.FindRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]ProcessedOrderResponse, 0, len(markers))
	for i := range markers {
		out = append(out, *toProcessedOrderResponse(&markers[i]))
	}
	return out, nil
}

func toProcessedOrderResponse(m *order.ProcessedOrder) *ProcessedOrderResponse {
	return &ProcessedOrderResponse{
		OrderID:     m.OrderID,
		OrderNumber: m.OrderNumber,
		ProcessedAt: m.ProcessedAt,
	}
}
