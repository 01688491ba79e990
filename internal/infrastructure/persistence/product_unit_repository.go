package persistence

import (
	"context"
	"fmt"

	"github.com/clinicstock/backend/internal/domain/catalog"
	"github.com/clinicstock/backend/internal/domain/shared"
	"github.com/clinicstock/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormUnitRepository implements UnitRepository using GORM
type GormUnitRepository struct {
	db *gorm.DB
}

// NewGormUnitRepository creates a new GormUnitRepository
func NewGormUnitRepository(db *gorm.DB) *GormUnitRepository {
	return &GormUnitRepository{db: db}
}

// FindByID finds a unit by its ID
func (r *GormUnitRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Unit, error) {
	var model models.UnitModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByProduct returns all units of a product ordered by sort order
func (r *GormUnitRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]catalog.Unit, error) {
	return r.findByProduct(r.db.WithContext(ctx), productID)
}

// FindByProductForUpdate locks the product row and its units until the transaction ends,
// serialising default-unit changes of one product
func (r *GormUnitRepository) FindByProductForUpdate(ctx context.Context, productID uuid.UUID) ([]catalog.Unit, error) {
	locking := clause.Locking{Strength: "UPDATE"}
	var product models.ProductModel
	if err := r.db.WithContext(ctx).
		Clauses(locking).
		Select("id").
		First(&product, "id = ?", productID).Error; err != nil {
		return nil, translateError(err)
	}
	return r.findByProduct(r.db.WithContext(ctx).Clauses(locking), productID)
}

func (r *GormUnitRepository) findByProduct(db *gorm.DB, productID uuid.UUID) ([]catalog.Unit, error) {
	var unitModels []models.UnitModel
	if err := db.
		Where("product_id = ?", productID).
		Order("sort_order ASC, symbol ASC").
		Find(&unitModels).Error; err != nil {
		return nil, fmt.Errorf("failed to load units: %w", err)
	}
	units := make([]catalog.Unit, len(unitModels))
	for i := range unitModels {
		units[i] = *unitModels[i].ToDomain()
	}
	return units, nil
}

// Save creates or updates a unit
func (r *GormUnitRepository) Save(ctx context.Context, unit *catalog.Unit) error {
	return translateError(r.db.WithContext(ctx).Save(models.UnitModelFromDomain(unit)).Error)
}

// ClearDefault removes the default flag from the given units
func (r *GormUnitRepository) ClearDefault(ctx context.Context, productID uuid.UUID, unitIDs []uuid.UUID) error {
	if len(unitIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.UnitModel{}).
		Where("product_id = ? AND id IN ?", productID, unitIDs).
		Update("is_default", false).Error
}

// Delete removes a unit
func (r *GormUnitRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.UnitModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// IsReferenced reports whether any request item uses the unit
func (r *GormUnitRepository) IsReferenced(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.RequestItemModel{}).
		Where("unit_id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormUnitRepository implements UnitRepository
var _ catalog.UnitRepository = (*GormUnitRepository)(nil)
