package inventory

import (
	"context"

	"github.com/storeops/backend/internal/domain/ledger"
	"github.com/storeops/backend/internal/domain/mapping"
	"github.com/storeops/backend/internal/domain/material"
	"github.com/storeops/backend/internal/domain/order"
	"github.com/storeops/backend/internal/domain/purchasing"
)

// TransactionScope provides transactional access to the stock repositories.
// All repository operations inside Execute share one database transaction and
// are committed or rolled back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the repositories bound to the current transaction.
//
// Stock levels and the ledger are the shared mutable resources: every write
// to a stock field is paired with a ledger append through these repositories
// so both land in the same transaction.
type TransactionalRepositories interface {
	// MaterialRepo returns the material repository scoped to the current transaction
	MaterialRepo() material.Repository
	// MappingRepo returns the mapping repository scoped to the current transaction
	MappingRepo() mapping.Repository
	// LedgerRepo returns the append-only ledger repository scoped to the current transaction
	LedgerRepo() ledger.Repository
	// ProcessedOrderRepo returns the processed-order marker repository scoped to the current transaction
	ProcessedOrderRepo() order.ProcessedOrderRepository
	// PurchaseOrderRepo returns the purchase order repository scoped to the current transaction
	PurchaseOrderRepo() purchasing.Repository

	// Savepoint runs fn in a nested transaction. An error from fn rolls back
	// only the writes made inside it; the outer transaction stays usable.
	Savepoint(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}
