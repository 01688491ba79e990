package inventory

import (
	"time"

	"github.com/clinicstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockLine is the ledger primitive: a base-unit quantity for one StockKey
type StockLine struct {
	ID uuid.UUID
	StockKey
	Quantity  decimal.Decimal
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// InsufficientStock builds the error returned when a debit would drive a line negative
func InsufficientStock(key StockKey, requested, available decimal.Decimal) *shared.DomainError {
	return shared.ErrInsufficientStock.
		WithDetail("pool", key.Pool.String()).
		WithDetail("owner_id", key.OwnerID.String()).
		WithDetail("product_id", key.ProductID.String()).
		WithDetail("batch_id", key.BatchID.String()).
		WithDetail("status", key.Status.String()).
		WithDetail("requested", requested.String()).
		WithDetail("available", available.String())
}

// MovementReason explains why a ledger line changed
type MovementReason string

const (
	ReasonPurchaseReceipt MovementReason = "PURCHASE_RECEIPT"
	ReasonIssue           MovementReason = "ISSUE"
	ReasonWithdrawal      MovementReason = "WITHDRAWAL"
	ReasonConsumption     MovementReason = "CONSUMPTION"
	ReasonReserve         MovementReason = "RESERVE"
	ReasonRelease         MovementReason = "RELEASE"
	ReasonReturn          MovementReason = "RETURN"
	ReasonLoss            MovementReason = "LOSS"
	ReasonCorrection      MovementReason = "CORRECTION"
)

// MovementMeta travels with every ledger mutation into the movement journal
type MovementMeta struct {
	Reason      MovementReason
	ReferenceID uuid.UUID // request item, holding item or correction item
	ActorID     uuid.UUID
}

// StockMovement is one append-only journal entry of a ledger mutation
type StockMovement struct {
	ID uuid.UUID
	StockKey
	Delta       decimal.Decimal
	Balance     decimal.Decimal
	Reason      MovementReason
	ReferenceID uuid.UUID
	ActorID     uuid.UUID
	CreatedAt   time.Time
}

// NewStockMovement records a delta applied to key leaving balance behind
func NewStockMovement(key StockKey, delta, balance decimal.Decimal, meta MovementMeta) *StockMovement {
	return &StockMovement{
		ID:          uuid.New(),
		StockKey:    key,
		Delta:       delta,
		Balance:     balance,
		Reason:      meta.Reason,
		ReferenceID: meta.ReferenceID,
		ActorID:     meta.ActorID,
		CreatedAt:   time.Now().UTC(),
	}
}
