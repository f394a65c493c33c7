package purchasing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/storeops/backend/internal/application/inventory"
	"github.com/storeops/backend/internal/application/validation"
	"github.com/storeops/backend/internal/domain/ledger"
	"github.com/storeops/backend/internal/domain/material"
	"github.com/storeops/backend/internal/domain/purchasing"
	"github.com/storeops/backend/internal/domain/shared"
	"github.com/storeops/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// PurchaseOrderService handles purchase order operations and goods receiving
type PurchaseOrderService struct {
	scope   inventory.TransactionScope
	orders  purchasing.Repository
	cache   inventory.CacheInvalidator
	metrics inventory.StockMetrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewPurchaseOrderService creates a new PurchaseOrderService
func NewPurchaseOrderService(
	scope inventory.TransactionScope,
	orders purchasing.Repository,
	cache inventory.CacheInvalidator,
	metrics inventory.StockMetrics,
	logger *zap.Logger,
) *PurchaseOrderService {
	if metrics == nil {
		metrics = inventory.NopStockMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PurchaseOrderService{
		scope:   scope,
		orders:  orders,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Create creates a draft purchase order numbered PO-<year>-<seq>
func (s *PurchaseOrderService) Create(ctx context.Context, req CreatePurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	var po *purchasing.PurchaseOrder
	err := s.scope.Execute(ctx, func(repos inventory.TransactionalRepositories) error {
		year := s.now().Year()
		seq, err := repos.PurchaseOrderRepo().NextSequence(ctx, year)
		if err != nil {
			return fmt.Errorf("allocate PO number: %w", err)
		}
		po, err = purchasing.NewPurchaseOrder(purchasing.FormatPONumber(year, seq), req.SupplierID)
		if err != nil {
			return err
		}
		po.SetDates(req.OrderDate, req.ExpectedDate)
		po.SetNotes(req.Notes)

		if len(req.Items) > 0 {
			catalog, err := loadCatalog(ctx, repos)
			if err != nil {
				return err
			}
			for _, in := range req.Items {
				itemInput, err := toItemInput(catalog, in)
				if err != nil {
					return err
				}
				if _, err := po.AddItem(itemInput); err != nil {
					return err
				}
			}
		}
		if req.ShippingCost != nil || req.ShippingVATRate != nil {
			cost, rate := po.ShippingCost, po.ShippingVATRate
			if req.ShippingCost != nil {
				cost = *req.ShippingCost
			}
			if req.ShippingVATRate != nil {
				rate = *req.ShippingVATRate
			}
			if err := po.SetShipping(cost, rate); err != nil {
				return err
			}
		}
		return repos.PurchaseOrderRepo().Save(ctx, po)
	})
	if err != nil {
		s.logger.Error("Failed to create purchase order", zap.String("supplier_id", req.SupplierID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Purchase order created", zap.String("po_number", po.PONumber))
	resp := ToPurchaseOrderResponse(po)
	return &resp, nil
}

// GetByID returns a purchase order with its items
func (s *PurchaseOrderService) GetByID(ctx context.Context, id uuid.UUID) (*PurchaseOrderResponse, error) {
	po, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToPurchaseOrderResponse(po)
	return &resp, nil
}

// GetByPONumber returns a purchase order by its human-facing number
func (s *PurchaseOrderService) GetByPONumber(ctx context.Context, poNumber string) (*PurchaseOrderResponse, error) {
	po, err := s.orders.FindByPONumber(ctx, poNumber)
	if err != nil {
		return nil, err
	}
	resp := ToPurchaseOrderResponse(po)
	return &resp, nil
}

// List lists purchase orders
func (s *PurchaseOrderService) List(ctx context.Context, filter PurchaseOrderListFilter) ([]PurchaseOrderResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := purchasing.ListFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
		},
		Status:     purchasing.Status(filter.Status),
		SupplierID: filter.SupplierID,
	}
	orders, err := s.orders.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orders.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	out := make([]PurchaseOrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, ToPurchaseOrderResponse(&orders[i]))
	}
	return out, total, nil
}

// AddItem adds a line to a draft purchase order
func (s *PurchaseOrderService) AddItem(ctx context.Context, id uuid.UUID, req PurchaseOrderItemInput) (*PurchaseOrderResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(repos inventory.TransactionalRepositories, po *purchasing.PurchaseOrder) error {
		catalog, err := loadCatalog(ctx, repos)
		if err != nil {
			return err
		}
		in, err := toItemInput(catalog, req)
		if err != nil {
			return err
		}
		_, err = po.AddItem(in)
		return err
	})
}

// UpdateItem replaces a line of a draft purchase order
func (s *PurchaseOrderService) UpdateItem(ctx context.Context, id, itemID uuid.UUID, req PurchaseOrderItemInput) (*PurchaseOrderResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(repos inventory.TransactionalRepositories, po *purchasing.PurchaseOrder) error {
		catalog, err := loadCatalog(ctx, repos)
		if err != nil {
			return err
		}
		in, err := toItemInput(catalog, req)
		if err != nil {
			return err
		}
		return po.UpdateItem(itemID, in)
	})
}

// RemoveItem removes a line from a draft purchase order
func (s *PurchaseOrderService) RemoveItem(ctx context.Context, id, itemID uuid.UUID) (*PurchaseOrderResponse, error) {
	return s.mutate(ctx, id, func(_ inventory.TransactionalRepositories, po *purchasing.PurchaseOrder) error {
		return po.RemoveItem(itemID)
	})
}

// SetShipping sets shipping cost and VAT rate of a draft purchase order
func (s *PurchaseOrderService) SetShipping(ctx context.Context, id uuid.UUID, req SetShippingRequest) (*PurchaseOrderResponse, error) {
	return s.mutate(ctx, id, func(_ inventory.TransactionalRepositories, po *purchasing.PurchaseOrder) error {
		return po.SetShipping(req.ShippingCost, req.ShippingVATRate)
	})
}

// MarkOrdered moves a draft purchase order to ordered
func (s *PurchaseOrderService) MarkOrdered(ctx context.Context, id uuid.UUID) (*PurchaseOrderResponse, error) {
	return s.mutate(ctx, id, func(_ inventory.TransactionalRepositories, po *purchasing.PurchaseOrder) error {
		return po.MarkOrdered(s.now())
	})
}

// Cancel cancels a purchase order that has not been fully received
func (s *PurchaseOrderService) Cancel(ctx context.Context, id uuid.UUID) (*PurchaseOrderResponse, error) {
	return s.mutate(ctx, id, func(_ inventory.TransactionalRepositories, po *purchasing.PurchaseOrder) error {
		return po.Cancel()
	})
}

// Receive applies received quantities to a purchase order.
//
// Quantities are clamped to what is still outstanding and non-positive
// receipts are ignored. Each accepted receipt raises the stock of its
// material or variation with a purchase_order ledger entry; the order row
// stays locked for the whole transaction so concurrent receipts serialize.
func (s *PurchaseOrderService) Receive(ctx context.Context, id uuid.UUID, req ReceivePurchaseOrderRequest) (_ *ReceiveResultResponse, err error) {
	ctx, span := telemetry.StartSpan(ctx, "purchasing", "receive", attribute.String("purchase_order.id", id.String()))
	defer func() { telemetry.EndSpan(span, err) }()

	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	receipts := make([]purchasing.Receipt, 0, len(req.Items))
	for _, in := range req.Items {
		receipts = append(receipts, purchasing.Receipt{ItemID: in.ItemID, Quantity: in.Quantity})
	}

	var (
		po       *purchasing.PurchaseOrder
		received []ReceivedItemResponse
	)
	err = s.scope.Execute(ctx, func(repos inventory.TransactionalRepositories) error {
		var err error
		po, err = repos.PurchaseOrderRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		lines, err := po.Receive(receipts, s.now())
		if err != nil {
			return err
		}

		writer := inventory.NewStockWriter(repos, s.metrics)
		received = make([]ReceivedItemResponse, 0, len(lines))
		for _, line := range lines {
			entry, err := writer.Apply(ctx, inventory.StockChange{
				Key:         line.Key,
				Delta:       line.Accepted,
				Reason:      ledger.ReasonPurchaseOrder,
				OrderNumber: po.PONumber,
				Notes:       receiptNote(po.PONumber, req.Notes),
			})
			if err != nil {
				return err
			}
			received = append(received, ReceivedItemResponse{
				ItemID:        line.ItemID,
				MaterialID:    line.Key.MaterialID,
				VariationID:   line.Key.VariationID,
				Requested:     line.Requested,
				Accepted:      line.Accepted,
				Remaining:     line.Remaining,
				PreviousStock: entry.PreviousStock,
				NewStock:      entry.NewStock,
				LedgerEntryID: entry.ID,
			})
		}
		return repos.PurchaseOrderRepo().Save(ctx, po)
	})
	if err != nil {
		s.logger.Warn("Purchase order receipt failed", zap.String("po_id", id.String()), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Purchase order goods received",
		zap.String("po_number", po.PONumber),
		zap.String("status", po.Status.String()),
		zap.Int("lines", len(received)),
	)
	if len(received) > 0 && s.cache != nil {
		if err := s.cache.InvalidatePrefix(ctx, inventory.CachePrefixFulfillment); err != nil {
			s.logger.Warn("Failed to invalidate fulfillment cache", zap.Error(err))
		}
	}
	return &ReceiveResultResponse{
		Order:           ToPurchaseOrderResponse(po),
		ReceivedItems:   received,
		IsFullyReceived: po.Status == purchasing.StatusReceived,
	}, nil
}

func receiptNote(poNumber, notes string) string {
	if notes == "" {
		return "Received against " + poNumber
	}
	return "Received against " + poNumber + ": " + notes
}

// mutate loads and locks the purchase order, applies change and saves it
// with the optimistic version check.
func (s *PurchaseOrderService) mutate(
	ctx context.Context,
	id uuid.UUID,
	change func(repos inventory.TransactionalRepositories, po *purchasing.PurchaseOrder) error,
) (*PurchaseOrderResponse, error) {
	var po *purchasing.PurchaseOrder
	err := s.scope.Execute(ctx, func(repos inventory.TransactionalRepositories) error {
		var err error
		po, err = repos.PurchaseOrderRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := change(repos, po); err != nil {
			return err
		}
		return repos.PurchaseOrderRepo().Save(ctx, po)
	})
	if err != nil {
		return nil, err
	}
	resp := ToPurchaseOrderResponse(po)
	return &resp, nil
}

func loadCatalog(ctx context.Context, repos inventory.TransactionalRepositories) (*material.Catalog, error) {
	materials, err := repos.MaterialRepo().FindAllWithVariations(ctx)
	if err != nil {
		return nil, fmt.Errorf("load materials: %w", err)
	}
	return material.NewCatalog(materials), nil
}

// toItemInput resolves the referenced material and variation to local ids
func toItemInput(catalog *material.Catalog, in PurchaseOrderItemInput) (purchasing.ItemInput, error) {
	m, ok := catalog.FindMaterial(in.MaterialID)
	if !ok {
		return purchasing.ItemInput{}, shared.NewDomainError("INVALID_MATERIAL", "Material not found: "+in.MaterialID)
	}
	out := purchasing.ItemInput{
		MaterialProductID: m.ID,
		Description:       in.Description,
		QuantityOrdered:   in.QuantityOrdered,
		UnitPrice:         in.UnitPrice,
		VATRate:           in.VATRate,
	}
	if in.VariationID != nil && *in.VariationID != "" {
		v, ok := material.FindVariation(m, *in.VariationID)
		if !ok {
			return purchasing.ItemInput{}, shared.NewDomainError("INVALID_VARIATION", "Variation not found: "+*in.VariationID)
		}
		variationID := v.ID
		out.MaterialVariationID = &variationID
	}
	if out.Description == "" {
		var v *material.Variation
		if out.MaterialVariationID != nil {
			v, _ = m.Variation(*out.MaterialVariationID)
		}
		out.Description = m.DisplayName(v)
	}
	return out, nil
}
