package telemetry

import (
	"context"
	"fmt"

	"github.com/storeops/backend/internal/domain/ledger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName scopes the stock instruments
const MeterName = "storeops/stock"

var attrReason = attribute.Key("reason")

// StockMetrics records stock mutations as OTel counters.
// It satisfies the inventory service metrics port.
type StockMetrics struct {
	ledgerAppends  metric.Int64Counter
	unitsIn        metric.Int64Counter
	unitsOut       metric.Int64Counter
	failedUpdates  metric.Int64Counter
	ordersDone     metric.Int64Counter
	orderLineItems metric.Int64Counter
}

// NewStockMetrics creates the instruments on meter
func NewStockMetrics(meter metric.Meter) (*StockMetrics, error) {
	m := &StockMetrics{}
	var err error
	if m.ledgerAppends, err = meter.Int64Counter("storeops.stock.ledger_entries",
		metric.WithDescription("Ledger entries appended"), metric.WithUnit("{entry}")); err != nil {
		return nil, fmt.Errorf("create ledger_entries counter: %w", err)
	}
	if m.unitsIn, err = meter.Int64Counter("storeops.stock.units_in",
		metric.WithDescription("Stock units added"), metric.WithUnit("{unit}")); err != nil {
		return nil, fmt.Errorf("create units_in counter: %w", err)
	}
	if m.unitsOut, err = meter.Int64Counter("storeops.stock.units_out",
		metric.WithDescription("Stock units removed"), metric.WithUnit("{unit}")); err != nil {
		return nil, fmt.Errorf("create units_out counter: %w", err)
	}
	if m.failedUpdates, err = meter.Int64Counter("storeops.stock.failed_updates",
		metric.WithDescription("Stock updates that could not be written"), metric.WithUnit("{update}")); err != nil {
		return nil, fmt.Errorf("create failed_updates counter: %w", err)
	}
	if m.ordersDone, err = meter.Int64Counter("storeops.orders.processed",
		metric.WithDescription("Orders whose stock was deducted"), metric.WithUnit("{order}")); err != nil {
		return nil, fmt.Errorf("create orders.processed counter: %w", err)
	}
	if m.orderLineItems, err = meter.Int64Counter("storeops.orders.line_outcomes",
		metric.WithDescription("Order processing outcomes per material or line item"), metric.WithUnit("{item}")); err != nil {
		return nil, fmt.Errorf("create orders.line_outcomes counter: %w", err)
	}
	return m, nil
}

// RecordLedgerAppend implements inventory.StockMetrics
func (m *StockMetrics) RecordLedgerAppend(ctx context.Context, reason ledger.Reason, quantityChange int) {
	attrs := metric.WithAttributes(attrReason.String(reason.String()))
	m.ledgerAppends.Add(ctx, 1, attrs)
	switch {
	case quantityChange > 0:
		m.unitsIn.Add(ctx, int64(quantityChange), attrs)
	case quantityChange < 0:
		m.unitsOut.Add(ctx, int64(-quantityChange), attrs)
	}
}

// RecordOrderProcessed implements inventory.StockMetrics
func (m *StockMetrics) RecordOrderProcessed(ctx context.Context, deducted, skipped, failed, unmapped int) {
	m.ordersDone.Add(ctx, 1)
	for outcome, n := range map[string]int{
		"deducted": deducted,
		"skipped":  skipped,
		"failed":   failed,
		"unmapped": unmapped,
	} {
		if n > 0 {
			m.orderLineItems.Add(ctx, int64(n), metric.WithAttributes(attribute.String("outcome", outcome)))
		}
	}
}

// RecordFailedUpdate implements inventory.StockMetrics
func (m *StockMetrics) RecordFailedUpdate(ctx context.Context, reason ledger.Reason) {
	m.failedUpdates.Add(ctx, 1, metric.WithAttributes(attrReason.String(reason.String())))
}
