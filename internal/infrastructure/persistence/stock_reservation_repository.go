package persistence

import (
	"context"
	"fmt"

	"github.com/clinicstock/backend/internal/domain/inventory"
	"github.com/clinicstock/backend/internal/domain/shared"
	"github.com/clinicstock/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormReservationRepository implements ReservationRepository using GORM
type GormReservationRepository struct {
	db *gorm.DB
}

// NewGormReservationRepository creates a new GormReservationRepository
func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

// FindByID finds a reservation by its ID
func (r *GormReservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockReservation, error) {
	var model models.StockReservationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindHeldByReference lists reservations still held for a reference
func (r *GormReservationRepository) FindHeldByReference(ctx context.Context, referenceID uuid.UUID) ([]inventory.StockReservation, error) {
	var reservationModels []models.StockReservationModel
	if err := r.db.WithContext(ctx).
		Where("reference_id = ? AND status = ?", referenceID, inventory.ReservationHeld).
		Order("created_at ASC").
		Find(&reservationModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	reservations := make([]inventory.StockReservation, len(reservationModels))
	for i := range reservationModels {
		reservations[i] = *reservationModels[i].ToDomain()
	}
	return reservations, nil
}

// Create stores a new reservation
func (r *GormReservationRepository) Create(ctx context.Context, res *inventory.StockReservation) error {
	return translateError(r.db.WithContext(ctx).Create(models.StockReservationModelFromDomain(res)).Error)
}

// SaveWithLock updates a reservation only if its stored version is res.Version-1
func (r *GormReservationRepository) SaveWithLock(ctx context.Context, res *inventory.StockReservation) error {
	result := r.db.WithContext(ctx).
		Model(&models.StockReservationModel{}).
		Where("id = ? AND version = ?", res.ID, res.Version-1).
		Updates(map[string]any{
			"consumed_quantity": res.ConsumedQuantity,
			"status":            res.Status,
			"version":           res.Version,
			"updated_at":        res.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict.WithDetail("reservation_id", res.ID.String())
	}
	return nil
}

// Ensure GormReservationRepository implements ReservationRepository
var _ inventory.ReservationRepository = (*GormReservationRepository)(nil)
