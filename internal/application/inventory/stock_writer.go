package inventory

import (
	"context"
	"fmt"

	"github.com/storeops/backend/internal/domain/ledger"
	"github.com/storeops/backend/internal/domain/material"
)

// StockChange is one ledgered mutation of a stock pool
type StockChange struct {
	Key         material.StockKey
	Delta       int
	Reason      ledger.Reason
	OrderID     string
	OrderNumber string
	Notes       string
}

// StockWriter applies stock changes inside one transaction.
//
// It keeps a working set of the levels it has written so that several
// changes to the same pool within one operation build on each other instead
// of on the stale persisted value. Each change reads, locks and writes its
// pool inside its own savepoint, so a failure on any of those steps is
// confined to that change.
type StockWriter struct {
	repos   TransactionalRepositories
	metrics StockMetrics
	levels  map[string]int
}

// NewStockWriter creates a writer bound to the transaction behind repos
func NewStockWriter(repos TransactionalRepositories, metrics StockMetrics) *StockWriter {
	if metrics == nil {
		metrics = NopStockMetrics{}
	}
	return &StockWriter{
		repos:   repos,
		metrics: metrics,
		levels:  make(map[string]int),
	}
}

// Apply writes the new stock level and its ledger entry as one savepoint.
// On error none of the writes survive and the working level is unchanged.
func (w *StockWriter) Apply(ctx context.Context, change StockChange) (*ledger.Entry, error) {
	return w.write(ctx, change, func(int) int { return change.Delta })
}

// SetTo records an absolute level. A change of zero still writes an entry so
// that every count leaves a trace in the ledger.
func (w *StockWriter) SetTo(ctx context.Context, key material.StockKey, target int, reason ledger.Reason, notes string) (*ledger.Entry, error) {
	change := StockChange{Key: key, Reason: reason, Notes: notes}
	return w.write(ctx, change, func(current int) int { return target - current })
}

func (w *StockWriter) write(ctx context.Context, change StockChange, delta func(current int) int) (*ledger.Entry, error) {
	var entry *ledger.Entry
	err := w.repos.Savepoint(ctx, func(repos TransactionalRepositories) error {
		previous, err := w.level(ctx, repos, change.Key)
		if err != nil {
			return fmt.Errorf("read stock of %s: %w", change.Key, err)
		}

		e, err := ledger.NewEntry(change.Key, previous, delta(previous), change.Reason)
		if err != nil {
			return err
		}
		e.WithOrder(change.OrderID, change.OrderNumber).WithNotes(change.Notes)

		if err := repos.MaterialRepo().SetStock(ctx, change.Key, e.NewStock); err != nil {
			return fmt.Errorf("update stock of %s: %w", change.Key, err)
		}
		if err := repos.LedgerRepo().Append(ctx, e); err != nil {
			return fmt.Errorf("append ledger entry for %s: %w", change.Key, err)
		}
		entry = e
		return nil
	})
	if err != nil {
		w.metrics.RecordFailedUpdate(ctx, change.Reason)
		return nil, err
	}

	w.levels[change.Key.String()] = entry.NewStock
	w.metrics.RecordLedgerAppend(ctx, change.Reason, entry.QuantityChange)
	return entry, nil
}

// level returns the working level of key, reading and locking the row on
// first use. Only successful writes are remembered.
func (w *StockWriter) level(ctx context.Context, repos TransactionalRepositories, key material.StockKey) (int, error) {
	if level, ok := w.levels[key.String()]; ok {
		return level, nil
	}
	return repos.MaterialRepo().GetStock(ctx, key, true)
}
