package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/clinicstock/backend/internal/domain/inventory"
	"github.com/clinicstock/backend/internal/domain/shared"
	"github.com/clinicstock/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCorrectionRepository implements CorrectionRepository using GORM
type GormCorrectionRepository struct {
	db *gorm.DB
}

// NewGormCorrectionRepository creates a new GormCorrectionRepository
func NewGormCorrectionRepository(db *gorm.DB) *GormCorrectionRepository {
	return &GormCorrectionRepository{db: db}
}

func preloadCorrectionItems(db *gorm.DB) *gorm.DB {
	return db.Order("line_no ASC")
}

// FindByID finds a correction with its lines
func (r *GormCorrectionRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockCorrection, error) {
	var model models.StockCorrectionModel
	if err := r.db.WithContext(ctx).
		Preload("Items", preloadCorrectionItems).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists corrections with the total count
func (r *GormCorrectionRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.StockCorrection, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.StockCorrectionModel{})
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(reference) LIKE ? OR LOWER(reason) LIKE ?", like, like)
	}
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count corrections: %w", err)
	}

	var correctionModels []models.StockCorrectionModel
	orderBy := ValidateSortField(filter.OrderBy, CorrectionSortFields, "created_at")
	if err := paginate(query, filter).
		Preload("Items", preloadCorrectionItems).
		Order(orderBy + " " + ValidateSortOrder(filter.OrderDir)).
		Find(&correctionModels).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list corrections: %w", err)
	}

	corrections := make([]inventory.StockCorrection, len(correctionModels))
	for i := range correctionModels {
		corrections[i] = *correctionModels[i].ToDomain()
	}
	return corrections, total, nil
}

// ExistsByReference checks whether the reference is taken
func (r *GormCorrectionRepository) ExistsByReference(ctx context.Context, reference string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.StockCorrectionModel{}).
		Where("reference = ?", reference).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create stores a new correction and its lines
func (r *GormCorrectionRepository) Create(ctx context.Context, c *inventory.StockCorrection) error {
	return translateError(r.db.WithContext(ctx).Create(models.StockCorrectionModelFromDomain(c)).Error)
}

// SaveTransition stores the header guarded by status and version, then the lines
func (r *GormCorrectionRepository) SaveTransition(ctx context.Context, c *inventory.StockCorrection, from inventory.CorrectionStatus) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.StockCorrectionModel{}).
			Where("id = ? AND status = ? AND version = ?", c.ID, from, c.Version-1).
			Updates(map[string]any{
				"status":        c.Status,
				"approved_by":   c.ApprovedBy,
				"approved_at":   c.ApprovedAt,
				"rejected_by":   c.RejectedBy,
				"rejected_at":   c.RejectedAt,
				"reject_reason": c.RejectReason,
				"version":       c.Version,
				"updated_at":    c.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict.WithDetail("correction_id", c.ID.String())
		}

		for i := range c.Items {
			if err := tx.Save(models.CorrectionItemModelFromDomain(&c.Items[i])).Error; err != nil {
				return translateError(err)
			}
		}
		return nil
	})
}

// Ensure GormCorrectionRepository implements CorrectionRepository
var _ inventory.CorrectionRepository = (*GormCorrectionRepository)(nil)
