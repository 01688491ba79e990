package catalog

import (
	"strings"
	"time"

	"github.com/clinicstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Batch identifies a lot of a product with its expiry and informational cost.
// Once stock has been posted against it only the expiry dates may change.
type Batch struct {
	shared.BaseAggregateRoot
	ProductID      uuid.UUID
	BatchNumber    string
	ProductionDate *time.Time
	ExpiryDate     *time.Time
	UnitCost       decimal.Decimal // per base unit, informational only
	Source         string          // supplier or origin note
	Posted         bool
	PostedAt       *time.Time
}

// NewBatch creates a new batch
func NewBatch(productID uuid.UUID, batchNumber string, productionDate, expiryDate *time.Time, unitCost decimal.Decimal, source string) (*Batch, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Product ID cannot be empty")
	}
	if err := validateBatchNumber(batchNumber); err != nil {
		return nil, err
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_UNIT_COST", "Unit cost cannot be negative")
	}
	if err := validateDates(productionDate, expiryDate); err != nil {
		return nil, err
	}

	b := &Batch{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		BatchNumber:       strings.TrimSpace(batchNumber),
		ProductionDate:    productionDate,
		ExpiryDate:        expiryDate,
		UnitCost:          unitCost,
		Source:            source,
	}
	return b, nil
}

// UpdateDetails changes number, cost and source; only allowed before stock is posted
func (b *Batch) UpdateDetails(batchNumber string, unitCost decimal.Decimal, source string) error {
	if b.Posted {
		return shared.ErrBatchImmutable.WithDetail("batch_id", b.ID.String())
	}
	if err := validateBatchNumber(batchNumber); err != nil {
		return err
	}
	if unitCost.IsNegative() {
		return shared.NewDomainError("INVALID_UNIT_COST", "Unit cost cannot be negative")
	}
	b.BatchNumber = strings.TrimSpace(batchNumber)
	b.UnitCost = unitCost
	b.Source = source
	b.IncrementVersion()
	return nil
}

// CorrectExpiry changes the dates; allowed at any time
func (b *Batch) CorrectExpiry(productionDate, expiryDate *time.Time, actorID uuid.UUID) error {
	if err := validateDates(productionDate, expiryDate); err != nil {
		return err
	}
	previous := b.ExpiryDate
	b.ProductionDate = productionDate
	b.ExpiryDate = expiryDate
	b.IncrementVersion()
	b.AddDomainEvent(NewBatchExpiryCorrectedEvent(b, previous, actorID))
	return nil
}

// MarkPosted freezes the batch once a ledger credit references it
func (b *Batch) MarkPosted() {
	if b.Posted {
		return
	}
	now := time.Now().UTC()
	b.Posted = true
	b.PostedAt = &now
	b.IncrementVersion()
}

// IsExpiredAt reports whether the batch is expired at t
func (b *Batch) IsExpiredAt(t time.Time) bool {
	if b.ExpiryDate == nil {
		return false
	}
	return !b.ExpiryDate.After(t)
}

// IsExpired reports whether the batch is expired now
func (b *Batch) IsExpired() bool {
	return b.IsExpiredAt(time.Now())
}

// WillExpireWithin reports whether the batch expires before now+d
func (b *Batch) WillExpireWithin(d time.Duration) bool {
	if b.ExpiryDate == nil {
		return false
	}
	return b.ExpiryDate.Before(time.Now().Add(d))
}

// DaysUntilExpiry returns whole days until expiry, -1 if there is no expiry date
func (b *Batch) DaysUntilExpiry() int {
	if b.ExpiryDate == nil {
		return -1
	}
	return int(time.Until(*b.ExpiryDate).Hours() / 24)
}

func validateBatchNumber(number string) error {
	number = strings.TrimSpace(number)
	if number == "" {
		return shared.NewDomainError("INVALID_BATCH_NUMBER", "Batch number cannot be empty")
	}
	if len(number) > 64 {
		return shared.NewDomainError("INVALID_BATCH_NUMBER", "Batch number cannot exceed 64 characters")
	}
	return nil
}

func validateDates(production, expiry *time.Time) error {
	if production != nil && expiry != nil && expiry.Before(*production) {
		return shared.NewDomainError("INVALID_EXPIRY_DATE", "Expiry date cannot be before production date")
	}
	return nil
}
