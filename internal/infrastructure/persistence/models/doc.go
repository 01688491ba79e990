// Package models contains GORM-specific persistence models that map to database tables.
// Domain entities stay free of GORM tags; each model here carries the table mapping and
// converts to and from its domain type.
//
// Files:
// - base.go: BaseModel and AggregateModel shared by every table
// - catalog.go: products, product units and batches
// - ledger.go: stock lines, the movement journal and reservations
// - workflow.go: requests, holdings and corrections with their lines
package models
