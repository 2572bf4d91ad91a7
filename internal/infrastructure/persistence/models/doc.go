// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
//   - base.go: columns shared by aggregate tables (AggregateModel)
//   - order.go: orders with their installment schedule and production history
//   - catalog.go: catalog items, measurement sheets and measured items
//   - finance.go: expenses
//   - seller.go: sellers
package models
