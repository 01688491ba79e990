package models

import (
	"time"

	"github.com/clinicstock/backend/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockLineModel is one row per (pool, owner, product, batch, status).
// MAIN lines store the nil UUID as owner so the key index stays total.
type StockLineModel struct {
	ID        uuid.UUID             `gorm:"type:uuid;primary_key"`
	Pool      inventory.PoolKind    `gorm:"type:varchar(20);not null;uniqueIndex:idx_stock_line_key,priority:1"`
	OwnerID   uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:idx_stock_line_key,priority:2"`
	ProductID uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:idx_stock_line_key,priority:3;index"`
	BatchID   uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:idx_stock_line_key,priority:4;index"`
	Status    inventory.StockStatus `gorm:"type:varchar(20);not null;uniqueIndex:idx_stock_line_key,priority:5"`
	Quantity  decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0;check:chk_stock_line_quantity,quantity >= 0"`
	Version   int                   `gorm:"not null;default:1"`
	CreatedAt time.Time             `gorm:"not null"`
	UpdatedAt time.Time             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StockLineModel) TableName() string {
	return "stock_lines"
}

// ToDomain converts the persistence model to a domain StockLine.
func (m *StockLineModel) ToDomain() *inventory.StockLine {
	return &inventory.StockLine{
		ID: m.ID,
		StockKey: inventory.StockKey{
			Pool:      m.Pool,
			OwnerID:   m.OwnerID,
			ProductID: m.ProductID,
			BatchID:   m.BatchID,
			Status:    m.Status,
		},
		Quantity:  m.Quantity,
		Version:   m.Version,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// NewStockLineModel creates a row for key holding qty
func NewStockLineModel(key inventory.StockKey, qty decimal.Decimal) *StockLineModel {
	now := time.Now().UTC()
	return &StockLineModel{
		ID:        uuid.New(),
		Pool:      key.Pool,
		OwnerID:   key.OwnerID,
		ProductID: key.ProductID,
		BatchID:   key.BatchID,
		Status:    key.Status,
		Quantity:  qty,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// StockMovementModel is the append-only journal of ledger mutations.
type StockMovementModel struct {
	ID          uuid.UUID                `gorm:"type:uuid;primary_key"`
	Pool        inventory.PoolKind       `gorm:"type:varchar(20);not null;index:idx_stock_movement_line,priority:1"`
	OwnerID     uuid.UUID                `gorm:"type:uuid;not null;index:idx_stock_movement_line,priority:2"`
	ProductID   uuid.UUID                `gorm:"type:uuid;not null;index:idx_stock_movement_line,priority:3"`
	BatchID     uuid.UUID                `gorm:"type:uuid;not null;index:idx_stock_movement_line,priority:4"`
	Status      inventory.StockStatus    `gorm:"type:varchar(20);not null"`
	Delta       decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	Balance     decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	Reason      inventory.MovementReason `gorm:"type:varchar(30);not null"`
	ReferenceID uuid.UUID                `gorm:"type:uuid;not null;index"`
	ActorID     uuid.UUID                `gorm:"type:uuid;not null"`
	CreatedAt   time.Time                `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (StockMovementModel) TableName() string {
	return "stock_movements"
}

// ToDomain converts the persistence model to a domain StockMovement.
func (m *StockMovementModel) ToDomain() *inventory.StockMovement {
	return &inventory.StockMovement{
		ID: m.ID,
		StockKey: inventory.StockKey{
			Pool:      m.Pool,
			OwnerID:   m.OwnerID,
			ProductID: m.ProductID,
			BatchID:   m.BatchID,
			Status:    m.Status,
		},
		Delta:       m.Delta,
		Balance:     m.Balance,
		Reason:      m.Reason,
		ReferenceID: m.ReferenceID,
		ActorID:     m.ActorID,
		CreatedAt:   m.CreatedAt,
	}
}

// StockMovementModelFromDomain creates a new persistence model from a domain StockMovement.
func StockMovementModelFromDomain(mv *inventory.StockMovement) *StockMovementModel {
	return &StockMovementModel{
		ID:          mv.ID,
		Pool:        mv.Pool,
		OwnerID:     mv.OwnerID,
		ProductID:   mv.ProductID,
		BatchID:     mv.BatchID,
		Status:      mv.Status,
		Delta:       mv.Delta,
		Balance:     mv.Balance,
		Reason:      mv.Reason,
		ReferenceID: mv.ReferenceID,
		ActorID:     mv.ActorID,
		CreatedAt:   mv.CreatedAt,
	}
}

// StockReservationModel is the persistence model for a StockReservation.
type StockReservationModel struct {
	ID               uuid.UUID                   `gorm:"type:uuid;primary_key"`
	Pool             inventory.PoolKind          `gorm:"type:varchar(20);not null"`
	OwnerID          uuid.UUID                   `gorm:"type:uuid;not null"`
	ProductID        uuid.UUID                   `gorm:"type:uuid;not null"`
	BatchID          uuid.UUID                   `gorm:"type:uuid;not null;index"`
	ReferenceID      uuid.UUID                   `gorm:"type:uuid;not null;index"`
	Quantity         decimal.Decimal             `gorm:"type:decimal(18,4);not null"`
	ConsumedQuantity decimal.Decimal             `gorm:"type:decimal(18,4);not null;default:0"`
	Status           inventory.ReservationStatus `gorm:"type:varchar(20);not null;index"`
	Version          int                         `gorm:"not null;default:1"`
	CreatedAt        time.Time                   `gorm:"not null"`
	UpdatedAt        time.Time                   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StockReservationModel) TableName() string {
	return "stock_reservations"
}

// ToDomain converts the persistence model to a domain StockReservation.
func (m *StockReservationModel) ToDomain() *inventory.StockReservation {
	return &inventory.StockReservation{
		ID:               m.ID,
		Pool:             m.Pool,
		OwnerID:          m.OwnerID,
		ProductID:        m.ProductID,
		BatchID:          m.BatchID,
		ReferenceID:      m.ReferenceID,
		Quantity:         m.Quantity,
		ConsumedQuantity: m.ConsumedQuantity,
		Status:           m.Status,
		Version:          m.Version,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// StockReservationModelFromDomain creates a new persistence model from a domain StockReservation.
func StockReservationModelFromDomain(r *inventory.StockReservation) *StockReservationModel {
	return &StockReservationModel{
		ID:               r.ID,
		Pool:             r.Pool,
		OwnerID:          r.OwnerID,
		ProductID:        r.ProductID,
		BatchID:          r.BatchID,
		ReferenceID:      r.ReferenceID,
		Quantity:         r.Quantity,
		ConsumedQuantity: r.ConsumedQuantity,
		Status:           r.Status,
		Version:          r.Version,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}
