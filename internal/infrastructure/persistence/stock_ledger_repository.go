package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clinicstock/backend/internal/domain/catalog"
	"github.com/clinicstock/backend/internal/domain/inventory"
	"github.com/clinicstock/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var stockLineKeyColumns = []clause.Column{
	{Name: "pool"},
	{Name: "owner_id"},
	{Name: "product_id"},
	{Name: "batch_id"},
	{Name: "status"},
}

// GormStockLedger implements StockLedger on the stock_lines table.
// Debits are a single conditional UPDATE and credits a single upsert, so concurrent writers
// on one line serialise on the row and can never drive it negative.
type GormStockLedger struct {
	db *gorm.DB
}

// NewGormStockLedger creates a new GormStockLedger
func NewGormStockLedger(db *gorm.DB) *GormStockLedger {
	return &GormStockLedger{db: db}
}

func whereKey(db *gorm.DB, key inventory.StockKey) *gorm.DB {
	return db.Where("pool = ? AND owner_id = ? AND product_id = ? AND batch_id = ? AND status = ?",
		key.Pool, key.OwnerID, key.ProductID, key.BatchID, key.Status)
}

// Get returns the quantity of a line, zero if the line does not exist
func (l *GormStockLedger) Get(ctx context.Context, key inventory.StockKey) (decimal.Decimal, error) {
	var model models.StockLineModel
	err := whereKey(l.db.WithContext(ctx), key).
		Select("quantity").
		Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read stock line %s: %w", key, err)
	}
	return model.Quantity, nil
}

// Adjust adds delta to a line and journals the change
func (l *GormStockLedger) Adjust(ctx context.Context, key inventory.StockKey, delta decimal.Decimal, meta inventory.MovementMeta) (decimal.Decimal, error) {
	if err := key.Validate(); err != nil {
		return decimal.Zero, err
	}
	delta = delta.Round(catalog.QuantityScale)
	if delta.IsZero() {
		return l.Get(ctx, key)
	}

	if delta.IsNegative() {
		if err := l.debit(ctx, key, delta); err != nil {
			return decimal.Zero, err
		}
	} else if err := l.credit(ctx, key, delta); err != nil {
		return decimal.Zero, err
	}

	balance, err := l.Get(ctx, key)
	if err != nil {
		return decimal.Zero, err
	}
	movement := models.StockMovementModelFromDomain(inventory.NewStockMovement(key, delta, balance, meta))
	if err := l.db.WithContext(ctx).Create(movement).Error; err != nil {
		return decimal.Zero, fmt.Errorf("failed to journal stock movement: %w", err)
	}
	return balance, nil
}

func (l *GormStockLedger) debit(ctx context.Context, key inventory.StockKey, delta decimal.Decimal) error {
	result := whereKey(l.db.WithContext(ctx).Model(&models.StockLineModel{}), key).
		Where("quantity + ? >= 0", delta).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity + ?", delta),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to debit stock line %s: %w", key, result.Error)
	}
	if result.RowsAffected == 0 {
		available, err := l.Get(ctx, key)
		if err != nil {
			return err
		}
		return inventory.InsufficientStock(key, delta.Neg(), available)
	}
	return nil
}

func (l *GormStockLedger) credit(ctx context.Context, key inventory.StockKey, delta decimal.Decimal) error {
	line := models.NewStockLineModel(key, delta)
	err := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: stockLineKeyColumns,
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   gorm.Expr("stock_lines.quantity + excluded.quantity"),
				"version":    gorm.Expr("stock_lines.version + 1"),
				"updated_at": gorm.Expr("excluded.updated_at"),
			}),
		}).
		Create(line).Error
	if err != nil {
		return fmt.Errorf("failed to credit stock line %s: %w", key, err)
	}
	return nil
}

// HasCustody reports whether any line of the holder exists for the batch
func (l *GormStockLedger) HasCustody(ctx context.Context, holder inventory.Endpoint, productID, batchID uuid.UUID) (bool, error) {
	var count int64
	if err := l.db.WithContext(ctx).
		Model(&models.StockLineModel{}).
		Where("pool = ? AND owner_id = ? AND product_id = ? AND batch_id = ?", holder.Pool, holder.OwnerID, productID, batchID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check custody: %w", err)
	}
	return count > 0, nil
}

// FindLines lists lines matching the filter
func (l *GormStockLedger) FindLines(ctx context.Context, filter inventory.LineFilter) ([]inventory.StockLine, error) {
	query := l.db.WithContext(ctx).Model(&models.StockLineModel{})
	if filter.Pool != "" {
		query = query.Where("pool = ?", filter.Pool)
	}
	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.BatchID != nil {
		query = query.Where("batch_id = ?", *filter.BatchID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.NonZero {
		query = query.Where("quantity > 0")
	}
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderBy := ValidateSortField(filter.OrderBy, StockLineSortFields, "pool")
		query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
	}

	var lineModels []models.StockLineModel
	if err := query.Order("pool ASC, owner_id ASC, product_id ASC, batch_id ASC, status ASC").
		Find(&lineModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list stock lines: %w", err)
	}
	lines := make([]inventory.StockLine, len(lineModels))
	for i := range lineModels {
		lines[i] = *lineModels[i].ToDomain()
	}
	return lines, nil
}

// TotalsByBatch sums quantities per batch and status across all pools
func (l *GormStockLedger) TotalsByBatch(ctx context.Context, batchIDs []uuid.UUID) ([]inventory.BatchTotal, error) {
	if len(batchIDs) == 0 {
		return []inventory.BatchTotal{}, nil
	}
	var rows []struct {
		BatchID  uuid.UUID
		Status   inventory.StockStatus
		Quantity decimal.Decimal
	}
	if err := l.db.WithContext(ctx).
		Model(&models.StockLineModel{}).
		Select("batch_id, status, COALESCE(SUM(quantity), 0) AS quantity").
		Where("batch_id IN ?", batchIDs).
		Group("batch_id, status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to total stock by batch: %w", err)
	}
	totals := make([]inventory.BatchTotal, len(rows))
	for i, row := range rows {
		totals[i] = inventory.BatchTotal{BatchID: row.BatchID, Status: row.Status, Quantity: row.Quantity}
	}
	return totals, nil
}

// MovementsByReference lists journal entries recorded for a reference, oldest first
func (l *GormStockLedger) MovementsByReference(ctx context.Context, referenceID uuid.UUID) ([]inventory.StockMovement, error) {
	var movementModels []models.StockMovementModel
	if err := l.db.WithContext(ctx).
		Where("reference_id = ?", referenceID).
		Order("created_at ASC").
		Find(&movementModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list stock movements: %w", err)
	}
	movements := make([]inventory.StockMovement, len(movementModels))
	for i := range movementModels {
		movements[i] = *movementModels[i].ToDomain()
	}
	return movements, nil
}

// Ensure GormStockLedger implements StockLedger
var _ inventory.StockLedger = (*GormStockLedger)(nil)
