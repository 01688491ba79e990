package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/clinicstock/backend/internal/domain/catalog"
	"github.com/clinicstock/backend/internal/domain/shared"
	"github.com/clinicstock/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBatchRepository implements BatchRepository using GORM
type GormBatchRepository struct {
	db *gorm.DB
}

// NewGormBatchRepository creates a new GormBatchRepository
func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

// FindByID finds a batch by its ID
func (r *GormBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Batch, error) {
	var model models.BatchModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByNumber finds a batch by product and batch number
func (r *GormBatchRepository) FindByNumber(ctx context.Context, productID uuid.UUID, batchNumber string) (*catalog.Batch, error) {
	var model models.BatchModel
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND batch_number = ?", productID, strings.TrimSpace(batchNumber)).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByProduct lists the batches of a product
func (r *GormBatchRepository) FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]catalog.Batch, error) {
	query := r.db.WithContext(ctx).
		Model(&models.BatchModel{}).
		Where("product_id = ?", productID)
	orderBy := ValidateSortField(filter.OrderBy, BatchSortFields, "created_at")
	query = paginate(query, filter).Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
	return r.find(query)
}

// FindExpiringBefore lists batches whose expiry date is before the given time, soonest first.
// Already expired batches are included.
func (r *GormBatchRepository) FindExpiringBefore(ctx context.Context, before time.Time, filter shared.Filter) ([]catalog.Batch, error) {
	query := r.db.WithContext(ctx).
		Model(&models.BatchModel{}).
		Where("expiry_date IS NOT NULL AND expiry_date < ?", before)
	if productID, ok := filter.Filters["product_id"]; ok {
		query = query.Where("product_id = ?", productID)
	}
	query = paginate(query, filter).Order("expiry_date ASC, batch_number ASC")
	return r.find(query)
}

func (r *GormBatchRepository) find(query *gorm.DB) ([]catalog.Batch, error) {
	var batchModels []models.BatchModel
	if err := query.Find(&batchModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	batches := make([]catalog.Batch, len(batchModels))
	for i := range batchModels {
		batches[i] = *batchModels[i].ToDomain()
	}
	return batches, nil
}

// Save creates or updates a batch
func (r *GormBatchRepository) Save(ctx context.Context, batch *catalog.Batch) error {
	return translateError(r.db.WithContext(ctx).Save(models.BatchModelFromDomain(batch)).Error)
}

// SaveWithLock updates a batch only if its stored version is batch.Version-1
func (r *GormBatchRepository) SaveWithLock(ctx context.Context, batch *catalog.Batch) error {
	result := r.db.WithContext(ctx).
		Model(&models.BatchModel{}).
		Where("id = ? AND version = ?", batch.ID, batch.Version-1).
		Updates(map[string]any{
			"batch_number":    batch.BatchNumber,
			"production_date": batch.ProductionDate,
			"expiry_date":     batch.ExpiryDate,
			"unit_cost":       batch.UnitCost,
			"source":          batch.Source,
			"posted":          batch.Posted,
			"posted_at":       batch.PostedAt,
			"version":         batch.Version,
			"updated_at":      batch.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict.WithDetail("batch_id", batch.ID.String())
	}
	return nil
}

// Ensure GormBatchRepository implements BatchRepository
var _ catalog.BatchRepository = (*GormBatchRepository)(nil)
