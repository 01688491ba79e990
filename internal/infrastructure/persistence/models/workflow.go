package models

import (
	"time"

	"github.com/clinicstock/backend/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RequestModel is the persistence model for the Request aggregate root.
type RequestModel struct {
	AggregateModel
	Number       string                   `gorm:"type:varchar(40);not null;uniqueIndex"`
	Kind         inventory.RequestKind    `gorm:"type:varchar(20);not null;index:idx_request_kind_status,priority:1"`
	Status       inventory.ApprovalStatus `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_request_kind_status,priority:2"`
	RequesterID  uuid.UUID                `gorm:"type:uuid;not null;index"`
	Notes        string                   `gorm:"type:varchar(500)"`
	Supplier     string                   `gorm:"type:varchar(200)"`
	ApprovedBy   *uuid.UUID               `gorm:"type:uuid"`
	ApprovedAt   *time.Time
	RejectedBy   *uuid.UUID `gorm:"type:uuid"`
	RejectedAt   *time.Time
	RejectReason string     `gorm:"type:varchar(500)"`
	IssuedBy     *uuid.UUID `gorm:"type:uuid"`
	IssuedAt     *time.Time
	Items        []RequestItemModel `gorm:"foreignKey:RequestID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (RequestModel) TableName() string {
	return "requests"
}

// ToDomain converts the persistence model to a domain Request.
func (m *RequestModel) ToDomain() *inventory.Request {
	r := &inventory.Request{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Number:            m.Number,
		Kind:              m.Kind,
		RequesterID:       m.RequesterID,
		Notes:             m.Notes,
		Supplier:          m.Supplier,
		Status:            m.Status,
		ApprovedBy:        m.ApprovedBy,
		ApprovedAt:        m.ApprovedAt,
		RejectedBy:        m.RejectedBy,
		RejectedAt:        m.RejectedAt,
		RejectReason:      m.RejectReason,
		IssuedBy:          m.IssuedBy,
		IssuedAt:          m.IssuedAt,
		Items:             make([]inventory.RequestItem, len(m.Items)),
	}
	for i := range m.Items {
		r.Items[i] = *m.Items[i].ToDomain()
	}
	return r
}

// RequestModelFromDomain creates a new persistence model from a domain Request.
func RequestModelFromDomain(r *inventory.Request) *RequestModel {
	m := &RequestModel{
		Number:       r.Number,
		Kind:         r.Kind,
		Status:       r.Status,
		RequesterID:  r.RequesterID,
		Notes:        r.Notes,
		Supplier:     r.Supplier,
		ApprovedBy:   r.ApprovedBy,
		ApprovedAt:   r.ApprovedAt,
		RejectedBy:   r.RejectedBy,
		RejectedAt:   r.RejectedAt,
		RejectReason: r.RejectReason,
		IssuedBy:     r.IssuedBy,
		IssuedAt:     r.IssuedAt,
		Items:        make([]RequestItemModel, len(r.Items)),
	}
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	for i := range r.Items {
		m.Items[i] = *RequestItemModelFromDomain(&r.Items[i])
	}
	return m
}

// RequestItemModel is the persistence model for a RequestItem.
// A nil batch on a purchase line is stored as the nil UUID until posting.
type RequestItemModel struct {
	ID                 uuid.UUID          `gorm:"type:uuid;primary_key"`
	RequestID          uuid.UUID          `gorm:"type:uuid;not null;index"`
	LineNo             int                `gorm:"not null"`
	ProductID          uuid.UUID          `gorm:"type:uuid;not null;index"`
	BatchID            uuid.UUID          `gorm:"type:uuid;not null"`
	BatchNumber        string             `gorm:"type:varchar(50)"`
	ExpiryDate         *time.Time         `gorm:"type:date"`
	UnitCost           decimal.Decimal    `gorm:"type:decimal(18,4);not null;default:0"`
	UnitID             uuid.UUID          `gorm:"type:uuid;not null;index"`
	RequestedQuantity  decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	ApprovedQuantity   decimal.Decimal    `gorm:"type:decimal(18,4);not null;default:0"`
	BaseQuantity       decimal.Decimal    `gorm:"type:decimal(18,4);not null;default:0"`
	IssuedQuantity     decimal.Decimal    `gorm:"type:decimal(18,4);not null;default:0"`
	IssuedBaseQuantity decimal.Decimal    `gorm:"type:decimal(18,4);not null;default:0"`
	FromPool           inventory.PoolKind `gorm:"type:varchar(20)"`
	FromOwnerID        uuid.UUID          `gorm:"type:uuid;not null"`
	ToPool             inventory.PoolKind `gorm:"type:varchar(20)"`
	ToOwnerID          uuid.UUID          `gorm:"type:uuid;not null"`
	ReservationID      *uuid.UUID         `gorm:"type:uuid"`
	Declined           bool               `gorm:"not null;default:false"`
	CreatedAt          time.Time          `gorm:"not null"`
	UpdatedAt          time.Time          `gorm:"not null"`
}

// TableName returns the table name for GORM
func (RequestItemModel) TableName() string {
	return "request_items"
}

// ToDomain converts the persistence model to a domain RequestItem.
func (m *RequestItemModel) ToDomain() *inventory.RequestItem {
	return &inventory.RequestItem{
		ID:                 m.ID,
		RequestID:          m.RequestID,
		LineNo:             m.LineNo,
		ProductID:          m.ProductID,
		BatchID:            m.BatchID,
		BatchNumber:        m.BatchNumber,
		ExpiryDate:         m.ExpiryDate,
		UnitCost:           m.UnitCost,
		UnitID:             m.UnitID,
		RequestedQuantity:  m.RequestedQuantity,
		ApprovedQuantity:   m.ApprovedQuantity,
		BaseQuantity:       m.BaseQuantity,
		IssuedQuantity:     m.IssuedQuantity,
		IssuedBaseQuantity: m.IssuedBaseQuantity,
		From:               inventory.Endpoint{Pool: m.FromPool, OwnerID: m.FromOwnerID},
		To:                 inventory.Endpoint{Pool: m.ToPool, OwnerID: m.ToOwnerID},
		ReservationID:      m.ReservationID,
		Declined:           m.Declined,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

// RequestItemModelFromDomain creates a new persistence model from a domain RequestItem.
func RequestItemModelFromDomain(i *inventory.RequestItem) *RequestItemModel {
	return &RequestItemModel{
		ID:                 i.ID,
		RequestID:          i.RequestID,
		LineNo:             i.LineNo,
		ProductID:          i.ProductID,
		BatchID:            i.BatchID,
		BatchNumber:        i.BatchNumber,
		ExpiryDate:         i.ExpiryDate,
		UnitCost:           i.UnitCost,
		UnitID:             i.UnitID,
		RequestedQuantity:  i.RequestedQuantity,
		ApprovedQuantity:   i.ApprovedQuantity,
		BaseQuantity:       i.BaseQuantity,
		IssuedQuantity:     i.IssuedQuantity,
		IssuedBaseQuantity: i.IssuedBaseQuantity,
		FromPool:           i.From.Pool,
		FromOwnerID:        i.From.OwnerID,
		ToPool:             i.To.Pool,
		ToOwnerID:          i.To.OwnerID,
		ReservationID:      i.ReservationID,
		Declined:           i.Declined,
		CreatedAt:          i.CreatedAt,
		UpdatedAt:          i.UpdatedAt,
	}
}

// StockHoldingModel is the persistence model for the StockHolding aggregate root.
type StockHoldingModel struct {
	AggregateModel
	RequestID     uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex"`
	HolderPool    inventory.PoolKind `gorm:"type:varchar(20);not null"`
	HolderOwnerID uuid.UUID          `gorm:"type:uuid;not null;index"`
	SourcePool    inventory.PoolKind `gorm:"type:varchar(20);not null"`
	SourceOwnerID uuid.UUID          `gorm:"type:uuid;not null"`
	IssuedBy      uuid.UUID          `gorm:"type:uuid;not null"`
	IssuedAt      time.Time          `gorm:"not null"`
	Items         []HoldingItemModel `gorm:"foreignKey:HoldingID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (StockHoldingModel) TableName() string {
	return "stock_holdings"
}

// ToDomain converts the persistence model to a domain StockHolding.
func (m *StockHoldingModel) ToDomain() *inventory.StockHolding {
	h := &inventory.StockHolding{
		BaseAggregateRoot: m.ToAggregateRoot(),
		RequestID:         m.RequestID,
		Holder:            inventory.Endpoint{Pool: m.HolderPool, OwnerID: m.HolderOwnerID},
		Source:            inventory.Endpoint{Pool: m.SourcePool, OwnerID: m.SourceOwnerID},
		IssuedBy:          m.IssuedBy,
		IssuedAt:          m.IssuedAt,
		Items:             make([]inventory.HoldingItem, len(m.Items)),
	}
	for i := range m.Items {
		h.Items[i] = *m.Items[i].ToDomain()
	}
	return h
}

// StockHoldingModelFromDomain creates a new persistence model from a domain StockHolding.
func StockHoldingModelFromDomain(h *inventory.StockHolding) *StockHoldingModel {
	m := &StockHoldingModel{
		RequestID:     h.RequestID,
		HolderPool:    h.Holder.Pool,
		HolderOwnerID: h.Holder.OwnerID,
		SourcePool:    h.Source.Pool,
		SourceOwnerID: h.Source.OwnerID,
		IssuedBy:      h.IssuedBy,
		IssuedAt:      h.IssuedAt,
		Items:         make([]HoldingItemModel, len(h.Items)),
	}
	m.FromDomainAggregateRoot(h.BaseAggregateRoot)
	for i := range h.Items {
		m.Items[i] = *HoldingItemModelFromDomain(&h.Items[i])
	}
	return m
}

// HoldingItemModel is the persistence model for a HoldingItem.
type HoldingItemModel struct {
	ID            uuid.UUID                   `gorm:"type:uuid;primary_key"`
	HoldingID     uuid.UUID                   `gorm:"type:uuid;not null;index"`
	RequestItemID uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex"`
	ProductID     uuid.UUID                   `gorm:"type:uuid;not null"`
	BatchID       uuid.UUID                   `gorm:"type:uuid;not null"`
	UnitID        uuid.UUID                   `gorm:"type:uuid;not null"`
	Quantity      decimal.Decimal             `gorm:"type:decimal(18,4);not null"`
	BaseQuantity  decimal.Decimal             `gorm:"type:decimal(18,4);not null"`
	Withdrawn     decimal.Decimal             `gorm:"type:decimal(18,4);not null;default:0"`
	Status        inventory.HoldingItemStatus `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	ResolvedBy    *uuid.UUID                  `gorm:"type:uuid"`
	ResolvedAt    *time.Time
	Note          string    `gorm:"type:varchar(500)"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (HoldingItemModel) TableName() string {
	return "holding_items"
}

// ToDomain converts the persistence model to a domain HoldingItem.
func (m *HoldingItemModel) ToDomain() *inventory.HoldingItem {
	return &inventory.HoldingItem{
		ID:            m.ID,
		HoldingID:     m.HoldingID,
		RequestItemID: m.RequestItemID,
		ProductID:     m.ProductID,
		BatchID:       m.BatchID,
		UnitID:        m.UnitID,
		Quantity:      m.Quantity,
		BaseQuantity:  m.BaseQuantity,
		Withdrawn:     m.Withdrawn,
		Status:        m.Status,
		ResolvedBy:    m.ResolvedBy,
		ResolvedAt:    m.ResolvedAt,
		Note:          m.Note,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// HoldingItemModelFromDomain creates a new persistence model from a domain HoldingItem.
func HoldingItemModelFromDomain(i *inventory.HoldingItem) *HoldingItemModel {
	return &HoldingItemModel{
		ID:            i.ID,
		HoldingID:     i.HoldingID,
		RequestItemID: i.RequestItemID,
		ProductID:     i.ProductID,
		BatchID:       i.BatchID,
		UnitID:        i.UnitID,
		Quantity:      i.Quantity,
		BaseQuantity:  i.BaseQuantity,
		Withdrawn:     i.Withdrawn,
		Status:        i.Status,
		ResolvedBy:    i.ResolvedBy,
		ResolvedAt:    i.ResolvedAt,
		Note:          i.Note,
		CreatedAt:     i.CreatedAt,
		UpdatedAt:     i.UpdatedAt,
	}
}

// StockCorrectionModel is the persistence model for the StockCorrection aggregate root.
type StockCorrectionModel struct {
	AggregateModel
	Reference    string                     `gorm:"type:varchar(64);not null;uniqueIndex"`
	Reason       string                     `gorm:"type:varchar(500);not null"`
	Status       inventory.CorrectionStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	CreatedBy    uuid.UUID                  `gorm:"type:uuid;not null"`
	ApprovedBy   *uuid.UUID                 `gorm:"type:uuid"`
	ApprovedAt   *time.Time
	RejectedBy   *uuid.UUID `gorm:"type:uuid"`
	RejectedAt   *time.Time
	RejectReason string                `gorm:"type:varchar(500)"`
	Items        []CorrectionItemModel `gorm:"foreignKey:CorrectionID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (StockCorrectionModel) TableName() string {
	return "stock_corrections"
}

// ToDomain converts the persistence model to a domain StockCorrection.
func (m *StockCorrectionModel) ToDomain() *inventory.StockCorrection {
	c := &inventory.StockCorrection{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Reference:         m.Reference,
		Reason:            m.Reason,
		Status:            m.Status,
		CreatedBy:         m.CreatedBy,
		ApprovedBy:        m.ApprovedBy,
		ApprovedAt:        m.ApprovedAt,
		RejectedBy:        m.RejectedBy,
		RejectedAt:        m.RejectedAt,
		RejectReason:      m.RejectReason,
		Items:             make([]inventory.CorrectionItem, len(m.Items)),
	}
	for i := range m.Items {
		c.Items[i] = *m.Items[i].ToDomain()
	}
	return c
}

// StockCorrectionModelFromDomain creates a new persistence model from a domain StockCorrection.
func StockCorrectionModelFromDomain(c *inventory.StockCorrection) *StockCorrectionModel {
	m := &StockCorrectionModel{
		Reference:    c.Reference,
		Reason:       c.Reason,
		Status:       c.Status,
		CreatedBy:    c.CreatedBy,
		ApprovedBy:   c.ApprovedBy,
		ApprovedAt:   c.ApprovedAt,
		RejectedBy:   c.RejectedBy,
		RejectedAt:   c.RejectedAt,
		RejectReason: c.RejectReason,
		Items:        make([]CorrectionItemModel, len(c.Items)),
	}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	for i := range c.Items {
		m.Items[i] = *CorrectionItemModelFromDomain(&c.Items[i])
	}
	return m
}

// CorrectionItemModel is the persistence model for a CorrectionItem.
type CorrectionItemModel struct {
	ID           uuid.UUID             `gorm:"type:uuid;primary_key"`
	CorrectionID uuid.UUID             `gorm:"type:uuid;not null;index"`
	LineNo       int                   `gorm:"not null"`
	Pool         inventory.PoolKind    `gorm:"type:varchar(20);not null"`
	OwnerID      uuid.UUID             `gorm:"type:uuid;not null"`
	ProductID    uuid.UUID             `gorm:"type:uuid;not null"`
	BatchID      uuid.UUID             `gorm:"type:uuid;not null"`
	Status       inventory.StockStatus `gorm:"type:varchar(20);not null"`
	OldQuantity  decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	NewQuantity  decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Difference   decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	AppliedAt    *time.Time
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CorrectionItemModel) TableName() string {
	return "correction_items"
}

// ToDomain converts the persistence model to a domain CorrectionItem.
func (m *CorrectionItemModel) ToDomain() *inventory.CorrectionItem {
	return &inventory.CorrectionItem{
		ID:           m.ID,
		CorrectionID: m.CorrectionID,
		LineNo:       m.LineNo,
		Target: inventory.StockKey{
			Pool:      m.Pool,
			OwnerID:   m.OwnerID,
			ProductID: m.ProductID,
			BatchID:   m.BatchID,
			Status:    m.Status,
		},
		OldQuantity: m.OldQuantity,
		NewQuantity: m.NewQuantity,
		Difference:  m.Difference,
		AppliedAt:   m.AppliedAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// CorrectionItemModelFromDomain creates a new persistence model from a domain CorrectionItem.
func CorrectionItemModelFromDomain(i *inventory.CorrectionItem) *CorrectionItemModel {
	return &CorrectionItemModel{
		ID:           i.ID,
		CorrectionID: i.CorrectionID,
		LineNo:       i.LineNo,
		Pool:         i.Target.Pool,
		OwnerID:      i.Target.OwnerID,
		ProductID:    i.Target.ProductID,
		BatchID:      i.Target.BatchID,
		Status:       i.Target.Status,
		OldQuantity:  i.OldQuantity,
		NewQuantity:  i.NewQuantity,
		Difference:   i.Difference,
		AppliedAt:    i.AppliedAt,
		CreatedAt:    i.CreatedAt,
		UpdatedAt:    i.UpdatedAt,
	}
}
