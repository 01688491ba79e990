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

// GormRequestRepository implements RequestRepository using GORM
type GormRequestRepository struct {
	db *gorm.DB
}

// NewGormRequestRepository creates a new GormRequestRepository
func NewGormRequestRepository(db *gorm.DB) *GormRequestRepository {
	return &GormRequestRepository{db: db}
}

func preloadRequestItems(db *gorm.DB) *gorm.DB {
	return db.Order("line_no ASC")
}

// FindByID finds a request with its lines
func (r *GormRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Request, error) {
	var model models.RequestModel
	if err := r.db.WithContext(ctx).
		Preload("Items", preloadRequestItems).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists requests matching the filter with the total count
func (r *GormRequestRepository) FindAll(ctx context.Context, filter inventory.RequestFilter) ([]inventory.Request, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.RequestModel{})
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.RequesterID != nil {
		query = query.Where("requester_id = ?", *filter.RequesterID)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(number) LIKE ? OR LOWER(notes) LIKE ?", like, like)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count requests: %w", err)
	}

	var requestModels []models.RequestModel
	orderBy := ValidateSortField(filter.OrderBy, RequestSortFields, "created_at")
	if err := paginate(query, filter.Filter).
		Preload("Items", preloadRequestItems).
		Order(orderBy + " " + ValidateSortOrder(filter.OrderDir)).
		Find(&requestModels).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list requests: %w", err)
	}

	requests := make([]inventory.Request, len(requestModels))
	for i := range requestModels {
		requests[i] = *requestModels[i].ToDomain()
	}
	return requests, total, nil
}

// FindPending lists PENDING requests of a kind, oldest first
func (r *GormRequestRepository) FindPending(ctx context.Context, kind inventory.RequestKind) ([]inventory.Request, error) {
	var requestModels []models.RequestModel
	if err := r.db.WithContext(ctx).
		Preload("Items", preloadRequestItems).
		Where("kind = ? AND status = ?", kind, inventory.ApprovalPending).
		Order("created_at ASC").
		Find(&requestModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}
	requests := make([]inventory.Request, len(requestModels))
	for i := range requestModels {
		requests[i] = *requestModels[i].ToDomain()
	}
	return requests, nil
}

// Create stores a new request and its lines
func (r *GormRequestRepository) Create(ctx context.Context, req *inventory.Request) error {
	return translateError(r.db.WithContext(ctx).Create(models.RequestModelFromDomain(req)).Error)
}

// SaveTransition stores the header guarded by status and version, then the lines
func (r *GormRequestRepository) SaveTransition(ctx context.Context, req *inventory.Request, from inventory.ApprovalStatus) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.RequestModel{}).
			Where("id = ? AND status = ? AND version = ?", req.ID, from, req.Version-1).
			Updates(map[string]any{
				"status":        req.Status,
				"approved_by":   req.ApprovedBy,
				"approved_at":   req.ApprovedAt,
				"rejected_by":   req.RejectedBy,
				"rejected_at":   req.RejectedAt,
				"reject_reason": req.RejectReason,
				"issued_by":     req.IssuedBy,
				"issued_at":     req.IssuedAt,
				"version":       req.Version,
				"updated_at":    req.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict.WithDetail("request_id", req.ID.String())
		}

		for i := range req.Items {
			if err := tx.Save(models.RequestItemModelFromDomain(&req.Items[i])).Error; err != nil {
				return translateError(err)
			}
		}
		return nil
	})
}

// Ensure GormRequestRepository implements RequestRepository
var _ inventory.RequestRepository = (*GormRequestRepository)(nil)
