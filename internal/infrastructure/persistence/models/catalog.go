package models

import (
	"time"

	"github.com/clinicstock/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for the Product aggregate root.
type ProductModel struct {
	AggregateModel
	Code        string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name        string `gorm:"type:varchar(200);not null"`
	Category    string `gorm:"type:varchar(100);index"`
	Description string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Code:              m.Code,
		Name:              m.Name,
		Category:          m.Category,
		Description:       m.Description,
	}
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{
		Code:        p.Code,
		Name:        p.Name,
		Category:    p.Category,
		Description: p.Description,
	}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	return m
}

// UnitModel is the persistence model for a product unit.
// Postgres additionally enforces one default per product with a partial unique index.
type UnitModel struct {
	BaseModel
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_product_unit_symbol,priority:1"`
	Symbol           string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_product_unit_symbol,priority:2"`
	Name             string          `gorm:"type:varchar(50);not null"`
	ConversionToBase decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	IsDefault        bool            `gorm:"not null;default:false"`
	SortOrder        int             `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (UnitModel) TableName() string {
	return "product_units"
}

// ToDomain converts the persistence model to a domain Unit.
func (m *UnitModel) ToDomain() *catalog.Unit {
	return &catalog.Unit{
		ID:               m.ID,
		ProductID:        m.ProductID,
		Symbol:           m.Symbol,
		Name:             m.Name,
		ConversionToBase: m.ConversionToBase,
		IsDefault:        m.IsDefault,
		SortOrder:        m.SortOrder,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// UnitModelFromDomain creates a new persistence model from a domain Unit.
func UnitModelFromDomain(u *catalog.Unit) *UnitModel {
	return &UnitModel{
		BaseModel: BaseModel{
			ID:        u.ID,
			CreatedAt: u.CreatedAt,
			UpdatedAt: u.UpdatedAt,
		},
		ProductID:        u.ProductID,
		Symbol:           u.Symbol,
		Name:             u.Name,
		ConversionToBase: u.ConversionToBase,
		IsDefault:        u.IsDefault,
		SortOrder:        u.SortOrder,
	}
}

// BatchModel is the persistence model for the Batch aggregate root.
type BatchModel struct {
	AggregateModel
	ProductID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_batch_product_number,priority:1"`
	BatchNumber    string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_batch_product_number,priority:2"`
	ProductionDate *time.Time      `gorm:"type:date"`
	ExpiryDate     *time.Time      `gorm:"type:date;index"`
	UnitCost       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Source         string          `gorm:"type:varchar(200)"`
	Posted         bool            `gorm:"not null;default:false"`
	PostedAt       *time.Time
}

// TableName returns the table name for GORM
func (BatchModel) TableName() string {
	return "batches"
}

// ToDomain converts the persistence model to a domain Batch entity.
func (m *BatchModel) ToDomain() *catalog.Batch {
	return &catalog.Batch{
		BaseAggregateRoot: m.ToAggregateRoot(),
		ProductID:         m.ProductID,
		BatchNumber:       m.BatchNumber,
		ProductionDate:    m.ProductionDate,
		ExpiryDate:        m.ExpiryDate,
		UnitCost:          m.UnitCost,
		Source:            m.Source,
		Posted:            m.Posted,
		PostedAt:          m.PostedAt,
	}
}

// BatchModelFromDomain creates a new persistence model from a domain Batch entity.
func BatchModelFromDomain(b *catalog.Batch) *BatchModel {
	m := &BatchModel{
		ProductID:      b.ProductID,
		BatchNumber:    b.BatchNumber,
		ProductionDate: b.ProductionDate,
		ExpiryDate:     b.ExpiryDate,
		UnitCost:       b.UnitCost,
		Source:         b.Source,
		Posted:         b.Posted,
		PostedAt:       b.PostedAt,
	}
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	return m
}
