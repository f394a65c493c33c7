package persistence

import (
	"context"

	appinv "github.com/storeops/backend/internal/application/inventory"
	"github.com/storeops/backend/internal/domain/ledger"
	"github.com/storeops/backend/internal/domain/mapping"
	"github.com/storeops/backend/internal/domain/material"
	"github.com/storeops/backend/internal/domain/order"
	"github.com/storeops/backend/internal/domain/purchasing"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appinv.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// MaterialRepo returns the material repository scoped to the current transaction.
func (r *gormTransactionalRepositories) MaterialRepo() material.Repository {
	return NewGormMaterialRepository(r.tx)
}

// MappingRepo returns the mapping repository scoped to the current transaction.
func (r *gormTransactionalRepositories) MappingRepo() mapping.Repository {
	return NewGormMappingRepository(r.tx)
}

// LedgerRepo returns the ledger repository scoped to the current transaction.
func (r *gormTransactionalRepositories) LedgerRepo() ledger.Repository {
	return NewGormLedgerRepository(r.tx)
}

// ProcessedOrderRepo returns the processed-order repository scoped to the current transaction.
func (r *gormTransactionalRepositories) ProcessedOrderRepo() order.ProcessedOrderRepository {
	return NewGormProcessedOrderRepository(r.tx)
}

// PurchaseOrderRepo returns the purchase order repository scoped to the current transaction.
func (r *gormTransactionalRepositories) PurchaseOrderRepo() purchasing.Repository {
	return NewGormPurchaseOrderRepository(r.tx)
}

// Savepoint runs fn inside a nested transaction. GORM issues SAVEPOINT and
// ROLLBACK TO SAVEPOINT, so a failing fn leaves the outer transaction usable.
func (r *gormTransactionalRepositories) Savepoint(ctx context.Context, fn func(repos appinv.TransactionalRepositories) error) error {
	return r.tx.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// Ensure GormTransactionScope implements TransactionScope
var _ appinv.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appinv.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
