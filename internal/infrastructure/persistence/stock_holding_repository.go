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

// GormHoldingRepository implements HoldingRepository using GORM
type GormHoldingRepository struct {
	db *gorm.DB
}

// NewGormHoldingRepository creates a new GormHoldingRepository
func NewGormHoldingRepository(db *gorm.DB) *GormHoldingRepository {
	return &GormHoldingRepository{db: db}
}

func (r *GormHoldingRepository) findOne(ctx context.Context, query string, args ...any) (*inventory.StockHolding, error) {
	var model models.StockHoldingModel
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where(query, args...).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByID finds a holding with its lines
func (r *GormHoldingRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockHolding, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByItemID finds the holding owning a line
func (r *GormHoldingRepository) FindByItemID(ctx context.Context, itemID uuid.UUID) (*inventory.StockHolding, error) {
	var item models.HoldingItemModel
	if err := r.db.WithContext(ctx).Select("holding_id").First(&item, "id = ?", itemID).Error; err != nil {
		return nil, translateError(err)
	}
	return r.FindByID(ctx, item.HoldingID)
}

// FindByRequest finds the holding created by a request
func (r *GormHoldingRepository) FindByRequest(ctx context.Context, requestID uuid.UUID) (*inventory.StockHolding, error) {
	return r.findOne(ctx, "request_id = ?", requestID)
}

// FindActiveByHolder lists holdings of a holder with at least one ACTIVE line
func (r *GormHoldingRepository) FindActiveByHolder(ctx context.Context, holderID uuid.UUID) ([]inventory.StockHolding, error) {
	active := r.db.Model(&models.HoldingItemModel{}).
		Select("holding_id").
		Where("status = ?", inventory.HoldingItemActive)

	var holdingModels []models.StockHoldingModel
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("holder_owner_id = ? AND id IN (?)", holderID, active).
		Order("issued_at ASC").
		Find(&holdingModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}
	holdings := make([]inventory.StockHolding, len(holdingModels))
	for i := range holdingModels {
		holdings[i] = *holdingModels[i].ToDomain()
	}
	return holdings, nil
}

// Create stores a new holding and its lines
func (r *GormHoldingRepository) Create(ctx context.Context, h *inventory.StockHolding) error {
	return translateError(r.db.WithContext(ctx).Create(models.StockHoldingModelFromDomain(h)).Error)
}

// SaveWithLock stores the holding only if its stored version is h.Version-1
func (r *GormHoldingRepository) SaveWithLock(ctx context.Context, h *inventory.StockHolding) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.StockHoldingModel{}).
			Where("id = ? AND version = ?", h.ID, h.Version-1).
			Updates(map[string]any{
				"version":    h.Version,
				"updated_at": h.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict.WithDetail("holding_id", h.ID.String())
		}

		for i := range h.Items {
			if err := tx.Save(models.HoldingItemModelFromDomain(&h.Items[i])).Error; err != nil {
				return translateError(err)
			}
		}
		return nil
	})
}

// Ensure GormHoldingRepository implements HoldingRepository
var _ inventory.HoldingRepository = (*GormHoldingRepository)(nil)
