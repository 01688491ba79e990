package persistence

import (
	"context"

	appcatalog "github.com/clinicstock/backend/internal/application/catalog"
	appinv "github.com/clinicstock/backend/internal/application/inventory"
	"github.com/clinicstock/backend/internal/domain/catalog"
	"github.com/clinicstock/backend/internal/domain/inventory"
	"gorm.io/gorm"
)

// GormTransactionScope implements the application transaction scopes using GORM transactions.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appinv.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// CatalogScope returns a view of the scope usable by the catalog services.
func (s *GormTransactionScope) CatalogScope() appcatalog.TransactionScope {
	return gormCatalogScope{db: s.db}
}

type gormCatalogScope struct {
	db *gorm.DB
}

func (s gormCatalogScope) Execute(ctx context.Context, fn func(repos appcatalog.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories builds repositories bound to the current transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) Ledger() inventory.StockLedger {
	return NewGormStockLedger(r.tx)
}

func (r *gormTransactionalRepositories) Reservations() inventory.ReservationRepository {
	return NewGormReservationRepository(r.tx)
}

func (r *gormTransactionalRepositories) Requests() inventory.RequestRepository {
	return NewGormRequestRepository(r.tx)
}

func (r *gormTransactionalRepositories) Holdings() inventory.HoldingRepository {
	return NewGormHoldingRepository(r.tx)
}

func (r *gormTransactionalRepositories) Corrections() inventory.CorrectionRepository {
	return NewGormCorrectionRepository(r.tx)
}

func (r *gormTransactionalRepositories) Products() catalog.ProductRepository {
	return NewGormProductRepository(r.tx)
}

func (r *gormTransactionalRepositories) Units() catalog.UnitRepository {
	return NewGormUnitRepository(r.tx)
}

func (r *gormTransactionalRepositories) Batches() catalog.BatchRepository {
	return NewGormBatchRepository(r.tx)
}

var (
	_ appinv.TransactionScope              = (*GormTransactionScope)(nil)
	_ appinv.TransactionalRepositories     = (*gormTransactionalRepositories)(nil)
	_ appcatalog.TransactionScope          = gormCatalogScope{}
	_ appcatalog.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
