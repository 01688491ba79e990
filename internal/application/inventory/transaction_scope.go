package inventory

import (
	"context"

	"github.com/clinicstock/backend/internal/domain/catalog"
	"github.com/clinicstock/backend/internal/domain/inventory"
)

// TransactionScope provides transactional access to inventory repositories.
// All repository operations inside fn commit or roll back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes repositories sharing one transaction.
//
// Ledger and Reservations are the only writers of stock quantities. Requests, Holdings and
// Corrections persist workflow documents whose header updates are compare-and-set on
// status and version. Units and Batches are read for conversion and purchase posting.
type TransactionalRepositories interface {
	Ledger() inventory.StockLedger
	Reservations() inventory.ReservationRepository
	Requests() inventory.RequestRepository
	Holdings() inventory.HoldingRepository
	Corrections() inventory.CorrectionRepository
	Units() catalog.UnitRepository
	Batches() catalog.BatchRepository
}

// NoOpTransactionScope runs fn against fixed repositories without a transaction.
// Used by tests with in-memory repositories.
type NoOpTransactionScope struct {
	ledger       inventory.StockLedger
	reservations inventory.ReservationRepository
	requests     inventory.RequestRepository
	holdings     inventory.HoldingRepository
	corrections  inventory.CorrectionRepository
	units        catalog.UnitRepository
	batches      catalog.BatchRepository
}

// NoOpRepositories groups the repositories handed to NewNoOpTransactionScope
type NoOpRepositories struct {
	Ledger       inventory.StockLedger
	Reservations inventory.ReservationRepository
	Requests     inventory.RequestRepository
	Holdings     inventory.HoldingRepository
	Corrections  inventory.CorrectionRepository
	Units        catalog.UnitRepository
	Batches      catalog.BatchRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(repos NoOpRepositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		ledger:       repos.Ledger,
		reservations: repos.Reservations,
		requests:     repos.Requests,
		holdings:     repos.Holdings,
		corrections:  repos.Corrections,
		units:        repos.Units,
		batches:      repos.Batches,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) Ledger() inventory.StockLedger { return s.ledger }
func (s *NoOpTransactionScope) Reservations() inventory.ReservationRepository { return s.reservations }
func (s *NoOpTransactionScope) Requests() inventory.RequestRepository { return s.requests }
func (s *NoOpTransactionScope) Holdings() inventory.HoldingRepository { return s.holdings }
func (s *NoOpTransactionScope) Corrections() inventory.CorrectionRepository { return s.corrections }
func (s *NoOpTransactionScope) Units() catalog.UnitRepository { return s.units }
func (s *NoOpTransactionScope) Batches() catalog.BatchRepository { return s.batches }

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
