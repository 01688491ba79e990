package catalog

import (
	"time"

	"github.com/clinicstock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Event types
const (
	EventTypeProductCreated       = "ProductCreated"
	EventTypeBatchExpiryCorrected = "BatchExpiryCorrected"
	AggregateTypeProduct          = "Product"
	AggregateTypeBatch            = "Batch"
)

// ProductCreatedEvent is raised when a product is registered
type ProductCreatedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
}

// NewProductCreatedEvent creates a ProductCreatedEvent
func NewProductCreatedEvent(p *Product) *ProductCreatedEvent {
	return &ProductCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductCreated, AggregateTypeProduct, p.ID, uuid.Nil),
		ProductID:       p.ID,
		Code:            p.Code,
		Name:            p.Name,
	}
}

// BatchExpiryCorrectedEvent is raised when a batch's expiry date changes
type BatchExpiryCorrectedEvent struct {
	shared.BaseDomainEvent
	BatchID        uuid.UUID  `json:"batch_id"`
	ProductID      uuid.UUID  `json:"product_id"`
	PreviousExpiry *time.Time `json:"previous_expiry,omitempty"`
	NewExpiry      *time.Time `json:"new_expiry,omitempty"`
}

// NewBatchExpiryCorrectedEvent creates a BatchExpiryCorrectedEvent
func NewBatchExpiryCorrectedEvent(b *Batch, previous *time.Time, actorID uuid.UUID) *BatchExpiryCorrectedEvent {
	return &BatchExpiryCorrectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBatchExpiryCorrected, AggregateTypeBatch, b.ID, actorID),
		BatchID:         b.ID,
		ProductID:       b.ProductID,
		PreviousExpiry:  previous,
		NewExpiry:       b.ExpiryDate,
	}
}
