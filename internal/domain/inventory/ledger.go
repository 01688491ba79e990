package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineFilter selects stock lines; zero values match everything
type LineFilter struct {
	Pool      PoolKind
	OwnerID   *uuid.UUID
	ProductID *uuid.UUID
	BatchID   *uuid.UUID
	Status    StockStatus
	NonZero   bool
	Page      int
	PageSize  int
	OrderBy   string // empty keeps the line key order
	OrderDir  string
}

// BatchTotal is the quantity of a batch summed over every pool for one status
type BatchTotal struct {
	BatchID  uuid.UUID
	Status   StockStatus
	Quantity decimal.Decimal
}

// StockLedger is the single source of quantity truth.
// Every mutation is one guarded statement; there is no read-modify-write.
type StockLedger interface {
	// Get returns the quantity of a line, zero if the line does not exist
	Get(ctx context.Context, key StockKey) (decimal.Decimal, error)

	// Adjust adds delta to a line and returns the new quantity.
	// It fails with INSUFFICIENT_STOCK instead of letting the line go negative.
	Adjust(ctx context.Context, key StockKey, delta decimal.Decimal, meta MovementMeta) (decimal.Decimal, error)

	// HasCustody reports whether the endpoint ever held the batch
	HasCustody(ctx context.Context, holder Endpoint, productID, batchID uuid.UUID) (bool, error)

	// FindLines lists lines matching the filter
	FindLines(ctx context.Context, filter LineFilter) ([]StockLine, error)

	// TotalsByBatch sums quantities per batch and status across all pools
	TotalsByBatch(ctx context.Context, batchIDs []uuid.UUID) ([]BatchTotal, error)

	// MovementsByReference lists journal entries recorded for a reference
	MovementsByReference(ctx context.Context, referenceID uuid.UUID) ([]StockMovement, error)
}

// ReservationRepository persists stock reservations
type ReservationRepository interface {
	// FindByID finds a reservation by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockReservation, error)

	// FindHeldByReference lists reservations still held for a reference
	FindHeldByReference(ctx context.Context, referenceID uuid.UUID) ([]StockReservation, error)

	// Create stores a new reservation
	Create(ctx context.Context, r *StockReservation) error

	// SaveWithLock updates a reservation only if its stored version is r.Version-1
	SaveWithLock(ctx context.Context, r *StockReservation) error
}
