package inventory

import (
	"fmt"

	"github.com/clinicstock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// PoolKind tags the custody scope of a stock line
type PoolKind string

const (
	PoolMain     PoolKind = "MAIN"
	PoolLocation PoolKind = "LOCATION"
	PoolPersonal PoolKind = "PERSONAL"
)

// IsValid checks if the pool kind is known
func (p PoolKind) IsValid() bool {
	switch p {
	case PoolMain, PoolLocation, PoolPersonal:
		return true
	}
	return false
}

// RequiresOwner reports whether lines of this pool carry an owner dimension
func (p PoolKind) RequiresOwner() bool {
	return p == PoolLocation || p == PoolPersonal
}

// String returns the string representation of PoolKind
func (p PoolKind) String() string {
	return string(p)
}

// StockStatus is the condition of the quantity held on a line
type StockStatus string

const (
	StatusActive   StockStatus = "ACTIVE"
	StatusDamaged  StockStatus = "DAMAGED"
	StatusReserved StockStatus = "RESERVED"
	StatusReturned StockStatus = "RETURNED"
	StatusLost     StockStatus = "LOST"
)

// IsValid checks if the status is known
func (s StockStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusDamaged, StatusReserved, StatusReturned, StatusLost:
		return true
	}
	return false
}

// String returns the string representation of StockStatus
func (s StockStatus) String() string {
	return string(s)
}

// Endpoint names one custody holder: the main pool, a location or a person
type Endpoint struct {
	Pool    PoolKind  `json:"pool"`
	OwnerID uuid.UUID `json:"owner_id"`
}

// MainPool returns the organisation-wide endpoint
func MainPool() Endpoint {
	return Endpoint{Pool: PoolMain}
}

// LocationPool returns the endpoint of a location
func LocationPool(locationID uuid.UUID) Endpoint {
	return Endpoint{Pool: PoolLocation, OwnerID: locationID}
}

// PersonalPool returns the endpoint of an individual holder
func PersonalPool(holderID uuid.UUID) Endpoint {
	return Endpoint{Pool: PoolPersonal, OwnerID: holderID}
}

// IsZero reports whether the endpoint is unset
func (e Endpoint) IsZero() bool {
	return e.Pool == "" && e.OwnerID == uuid.Nil
}

// Validate checks the owner dimension matches the pool kind
func (e Endpoint) Validate() error {
	if !e.Pool.IsValid() {
		return shared.NewDomainErrorf(shared.CodeInvalidInput, "Unknown pool kind %q", e.Pool)
	}
	if e.Pool.RequiresOwner() && e.OwnerID == uuid.Nil {
		return shared.NewDomainErrorf(shared.CodeInvalidInput, "%s pool requires an owner", e.Pool)
	}
	if !e.Pool.RequiresOwner() && e.OwnerID != uuid.Nil {
		return shared.NewDomainError(shared.CodeInvalidInput, "MAIN pool has no owner")
	}
	return nil
}

// Key builds the stock key of this endpoint for a batch and status
func (e Endpoint) Key(productID, batchID uuid.UUID, status StockStatus) StockKey {
	return StockKey{
		Pool:      e.Pool,
		OwnerID:   e.OwnerID,
		ProductID: productID,
		BatchID:   batchID,
		Status:    status,
	}
}

// String returns "POOL" or "POOL:owner"
func (e Endpoint) String() string {
	if e.OwnerID == uuid.Nil {
		return e.Pool.String()
	}
	return fmt.Sprintf("%s:%s", e.Pool, e.OwnerID)
}

// StockKey identifies one stock line
type StockKey struct {
	Pool      PoolKind    `json:"pool"`
	OwnerID   uuid.UUID   `json:"owner_id"`
	ProductID uuid.UUID   `json:"product_id"`
	BatchID   uuid.UUID   `json:"batch_id"`
	Status    StockStatus `json:"status"`
}

// Endpoint returns the custody endpoint of the key
func (k StockKey) Endpoint() Endpoint {
	return Endpoint{Pool: k.Pool, OwnerID: k.OwnerID}
}

// WithStatus returns the same key with another status
func (k StockKey) WithStatus(status StockStatus) StockKey {
	k.Status = status
	return k
}

// Validate checks every key component
func (k StockKey) Validate() error {
	if err := k.Endpoint().Validate(); err != nil {
		return err
	}
	if k.ProductID == uuid.Nil {
		return shared.NewDomainError(shared.CodeInvalidInput, "Product ID cannot be empty")
	}
	if k.BatchID == uuid.Nil {
		return shared.NewDomainError(shared.CodeInvalidInput, "Batch ID cannot be empty")
	}
	if !k.Status.IsValid() {
		return shared.NewDomainErrorf(shared.CodeInvalidInput, "Unknown stock status %q", k.Status)
	}
	return nil
}

// String renders the key for logs
func (k StockKey) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", k.Endpoint(), k.ProductID, k.BatchID, k.Status)
}
