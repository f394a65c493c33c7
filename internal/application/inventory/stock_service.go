package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/storeops/backend/internal/application/validation"
	"github.com/storeops/backend/internal/domain/ledger"
	"github.com/storeops/backend/internal/domain/material"
	"github.com/storeops/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// StockService exposes the manual stock primitives: add and set
type StockService struct {
	scope   TransactionScope
	cache   CacheInvalidator
	metrics StockMetrics
	logger  *zap.Logger
}

// NewStockService creates a new StockService
func NewStockService(scope TransactionScope, cache CacheInvalidator, metrics StockMetrics, logger *zap.Logger) *StockService {
	if metrics == nil {
		metrics = NopStockMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockService{
		scope:   scope,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}
}

// AddStock increments stock of a material, or of one of its variations when
// VariationID is set.
func (s *StockService) AddStock(ctx context.Context, cmd AddStockCommand) (*StockChangeResponse, error) {
	if err := validation.Struct(cmd); err != nil {
		return nil, err
	}
	reason := ledger.Reason(cmd.Reason)
	if reason == "" {
		reason = ledger.ReasonManual
	}

	var entry *ledger.Entry
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		key, err := resolveTarget(ctx, repos.MaterialRepo(), cmd.MaterialID, cmd.VariationID)
		if err != nil {
			return err
		}
		writer := NewStockWriter(repos, s.metrics)
		entry, err = writer.Apply(ctx, StockChange{
			Key:    key,
			Delta:  cmd.Quantity,
			Reason: reason,
			Notes:  cmd.Notes,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Stock added",
		zap.String("material_id", cmd.MaterialID.String()),
		zap.Int("quantity", cmd.Quantity),
		zap.Int("new_stock", entry.NewStock),
	)
	s.invalidate(ctx)
	return toStockChangeResponse(entry), nil
}

// SetStock records an absolute level with reason stock_take
func (s *StockService) SetStock(ctx context.Context, cmd SetStockCommand) (*StockChangeResponse, error) {
	if err := validation.Struct(cmd); err != nil {
		return nil, err
	}

	var entry *ledger.Entry
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		key, err := resolveTarget(ctx, repos.MaterialRepo(), cmd.MaterialID, cmd.VariationID)
		if err != nil {
			return err
		}
		writer := NewStockWriter(repos, s.metrics)
		entry, err = writer.SetTo(ctx, key, cmd.NewStock, ledger.ReasonStockTake, cmd.Notes)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Stock set",
		zap.String("material_id", cmd.MaterialID.String()),
		zap.Int("previous_stock", entry.PreviousStock),
		zap.Int("new_stock", entry.NewStock),
	)
	s.invalidate(ctx)
	return toStockChangeResponse(entry), nil
}

func (s *StockService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePrefix(ctx, CachePrefixFulfillment); err != nil {
		s.logger.Warn("Failed to invalidate fulfillment cache", zap.Error(err))
	}
}

// resolveTarget picks the pool a manual change applies to: the variation
// when one is given, the parent otherwise. The variation must belong to the material.
func resolveTarget(ctx context.Context, repo material.Repository, materialID uuid.UUID, variationID *uuid.UUID) (material.StockKey, error) {
	m, err := repo.FindByID(ctx, materialID)
	if err != nil {
		return material.StockKey{}, err
	}
	key := material.StockKey{MaterialID: m.ID}
	if variationID == nil {
		return key, nil
	}
	if _, ok := m.Variation(*variationID); !ok {
		return material.StockKey{}, shared.NewDomainError("NOT_FOUND", "Variation not found on material")
	}
	key.VariationID = variationID
	return key, nil
}

func toStockChangeResponse(e *ledger.Entry) *StockChangeResponse {
	return &StockChangeResponse{
		MaterialID:    e.MaterialProductID,
		VariationID:   e.MaterialVariationID,
		PreviousStock: e.PreviousStock,
		NewStock:      e.NewStock,
		LedgerEntryID: e.ID,
	}
}
