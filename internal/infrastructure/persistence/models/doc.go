// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
//   - base.go: shared persistence fields (BaseModel, AggregateModel)
//   - material.go: materials and their variations
//   - mapping.go: product-to-material mappings
//   - ledger.go: the append-only stock ledger
//   - order.go: processed-order markers
//   - purchasing.go: purchase orders, their items and the PO number sequence
package models
