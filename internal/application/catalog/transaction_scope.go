package catalog

import (
	"context"

	"github.com/clinicstock/backend/internal/domain/catalog"
)

// TransactionScope runs catalog writes in one database transaction.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes catalog repositories sharing one transaction.
type TransactionalRepositories interface {
	Products() catalog.ProductRepository
	Units() catalog.UnitRepository
	Batches() catalog.BatchRepository
}
