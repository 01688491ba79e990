package inventory

import (
	"context"

	"github.com/clinicstock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// RequestFilter narrows request listings
type RequestFilter struct {
	shared.Filter
	Kind        RequestKind
	Status      ApprovalStatus
	RequesterID *uuid.UUID
}

// RequestRepository persists requests with their lines
type RequestRepository interface {
	// FindByID finds a request with its lines
	FindByID(ctx context.Context, id uuid.UUID) (*Request, error)

	// FindAll lists requests matching the filter with the total count
	FindAll(ctx context.Context, filter RequestFilter) ([]Request, int64, error)

	// FindPending lists PENDING requests of a kind, oldest first
	FindPending(ctx context.Context, kind RequestKind) ([]Request, error)

	// Create stores a new request and its lines
	Create(ctx context.Context, r *Request) error

	// SaveTransition stores the header and lines only if the stored header still has
	// status from and version r.Version-1; otherwise it returns CONCURRENCY_CONFLICT
	SaveTransition(ctx context.Context, r *Request, from ApprovalStatus) error
}

// HoldingRepository persists stock holdings with their lines
type HoldingRepository interface {
	// FindByID finds a holding with its lines
	FindByID(ctx context.Context, id uuid.UUID) (*StockHolding, error)

	// FindByItemID finds the holding owning a line
	FindByItemID(ctx context.Context, itemID uuid.UUID) (*StockHolding, error)

	// FindByRequest finds the holding created by a request
	FindByRequest(ctx context.Context, requestID uuid.UUID) (*StockHolding, error)

	// FindActiveByHolder lists holdings of a holder with at least one ACTIVE line
	FindActiveByHolder(ctx context.Context, holderID uuid.UUID) ([]StockHolding, error)

	// Create stores a new holding and its lines
	Create(ctx context.Context, h *StockHolding) error

	// SaveWithLock stores the holding only if its stored version is h.Version-1
	SaveWithLock(ctx context.Context, h *StockHolding) error
}

// CorrectionRepository persists manual stock corrections with their lines
type CorrectionRepository interface {
	// FindByID finds a correction with its lines
	FindByID(ctx context.Context, id uuid.UUID) (*StockCorrection, error)

	// FindAll lists corrections with the total count
	FindAll(ctx context.Context, filter shared.Filter) ([]StockCorrection, int64, error)

	// ExistsByReference checks whether the reference is taken
	ExistsByReference(ctx context.Context, reference string) (bool, error)

	// Create stores a new correction and its lines
	Create(ctx context.Context, c *StockCorrection) error

	// SaveTransition stores the header and lines only if the stored header still has
	// status from and version c.Version-1; otherwise it returns CONCURRENCY_CONFLICT
	SaveTransition(ctx context.Context, c *StockCorrection, from CorrectionStatus) error
}
