package inventory

import (
	"time"

	"github.com/clinicstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReservationStatus is the lifecycle of a stock reservation
type ReservationStatus string

const (
	ReservationHeld     ReservationStatus = "HELD"
	ReservationConsumed ReservationStatus = "CONSUMED"
	ReservationReleased ReservationStatus = "RELEASED"
)

// StockReservation earmarks quantity moved from ACTIVE to RESERVED on one pool for a request line.
// Only the holder of the reservation may draw from the RESERVED line.
type StockReservation struct {
	ID               uuid.UUID
	Pool             PoolKind
	OwnerID          uuid.UUID
	ProductID        uuid.UUID
	BatchID          uuid.UUID
	ReferenceID      uuid.UUID
	Quantity         decimal.Decimal
	ConsumedQuantity decimal.Decimal
	Status           ReservationStatus
	Version          int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewStockReservation creates a held reservation
func NewStockReservation(source Endpoint, productID, batchID, referenceID uuid.UUID, qty decimal.Decimal) (*StockReservation, error) {
	if !qty.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeInvalidQuantity, "Reservation quantity must be positive")
	}
	if err := source.Key(productID, batchID, StatusReserved).Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &StockReservation{
		ID:               uuid.New(),
		Pool:             source.Pool,
		OwnerID:          source.OwnerID,
		ProductID:        productID,
		BatchID:          batchID,
		ReferenceID:      referenceID,
		Quantity:         qty,
		ConsumedQuantity: decimal.Zero,
		Status:           ReservationHeld,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// Source returns the endpoint the reservation was taken on
func (r *StockReservation) Source() Endpoint {
	return Endpoint{Pool: r.Pool, OwnerID: r.OwnerID}
}

// ReservedKey returns the RESERVED line the reservation draws from
func (r *StockReservation) ReservedKey() StockKey {
	return r.Source().Key(r.ProductID, r.BatchID, StatusReserved)
}

// Remaining returns the unconsumed quantity
func (r *StockReservation) Remaining() decimal.Decimal {
	return r.Quantity.Sub(r.ConsumedQuantity)
}

// Covers reports whether the reservation was taken on the given line coordinates
func (r *StockReservation) Covers(source Endpoint, productID, batchID uuid.UUID) bool {
	return r.Source() == source && r.ProductID == productID && r.BatchID == batchID
}

// Consume draws qty from the reservation
func (r *StockReservation) Consume(qty decimal.Decimal) error {
	if r.Status != ReservationHeld {
		return shared.NewDomainErrorf(shared.CodeInvalidTransition, "Reservation is %s", r.Status)
	}
	if qty.GreaterThan(r.Remaining()) {
		return InsufficientStock(r.ReservedKey(), qty, r.Remaining())
	}
	r.ConsumedQuantity = r.ConsumedQuantity.Add(qty)
	if r.Remaining().IsZero() {
		r.Status = ReservationConsumed
	}
	r.Version++
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// Release closes the reservation and returns the quantity to hand back to ACTIVE
func (r *StockReservation) Release() (decimal.Decimal, error) {
	switch r.Status {
	case ReservationConsumed:
		return decimal.Zero, nil
	case ReservationReleased:
		return decimal.Zero, shared.NewDomainError(shared.CodeDoubleApplication, "Reservation already released")
	}
	remaining := r.Remaining()
	r.Status = ReservationReleased
	r.Version++
	r.UpdatedAt = time.Now().UTC()
	return remaining, nil
}
