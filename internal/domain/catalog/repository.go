package catalog

import (
	"context"
	"time"

	"github.com/clinicstock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByCode finds a product by its code
	FindByCode(ctx context.Context, code string) (*Product, error)

	// FindAll finds all products matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, int64, error)

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error

	// ExistsByCode checks if a product code is taken
	ExistsByCode(ctx context.Context, code string) (bool, error)
}

// UnitRepository defines the interface for unit persistence
type UnitRepository interface {
	// FindByID finds a unit by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Unit, error)

	// FindByProduct returns all units of a product ordered by sort order
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]Unit, error)

	// FindByProductForUpdate returns all units of a product with row locks held until commit
	FindByProductForUpdate(ctx context.Context, productID uuid.UUID) ([]Unit, error)

	// Save creates or updates a unit
	Save(ctx context.Context, unit *Unit) error

	// ClearDefault removes the default flag from the given units
	ClearDefault(ctx context.Context, productID uuid.UUID, unitIDs []uuid.UUID) error

	// Delete removes a unit
	Delete(ctx context.Context, id uuid.UUID) error

	// IsReferenced reports whether any request item uses the unit
	IsReferenced(ctx context.Context, id uuid.UUID) (bool, error)
}

// BatchRepository defines the interface for batch persistence
type BatchRepository interface {
	// FindByID finds a batch by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Batch, error)

	// FindByNumber finds a batch by product and batch number
	FindByNumber(ctx context.Context, productID uuid.UUID, batchNumber string) (*Batch, error)

	// FindByProduct lists the batches of a product
	FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]Batch, error)

	// FindExpiringBefore lists batches whose expiry date is before the given time, soonest first
	FindExpiringBefore(ctx context.Context, before time.Time, filter shared.Filter) ([]Batch, error)

	// Save creates or updates a batch
	Save(ctx context.Context, batch *Batch) error

	// SaveWithLock updates a batch only if its stored version is batch.Version-1
	SaveWithLock(ctx context.Context, batch *Batch) error
}
