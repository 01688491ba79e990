package inventory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	appcatalog "github.com/clinicstock/backend/internal/application/catalog"
	appinv "github.com/clinicstock/backend/internal/application/inventory"
	"github.com/clinicstock/backend/internal/domain/inventory"
	"github.com/clinicstock/backend/internal/domain/shared"
	"github.com/clinicstock/backend/internal/infrastructure/persistence"
	"github.com/clinicstock/backend/internal/infrastructure/persistence/sqlitetest"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

type countingMetrics struct {
	appinv.NoopMetrics
	mu           sync.Mutex
	insufficient int
	transitions  map[string]int
	adjusted     float64
	resolved     float64
}

func (m *countingMetrics) RecordInsufficientStock(context.Context, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insufficient++
}

func (m *countingMetrics) RecordRequestTransition(_ context.Context, kind, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.transitions == nil {
		m.transitions = make(map[string]int)
	}
	m.transitions[kind+"/"+status]++
}

func (m *countingMetrics) RecordStockAdjusted(_ context.Context, _ string, difference float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adjusted += difference
}

func (m *countingMetrics) RecordHoldingResolved(_ context.Context, _ string, baseQty float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolved += baseQty
}

type fixture struct {
	t           *testing.T
	db          *gorm.DB
	ledger      *persistence.GormStockLedger
	publisher   *recordingPublisher
	metrics     *countingMetrics
	products    *appcatalog.ProductService
	units       *appcatalog.UnitService
	batches     *appcatalog.BatchService
	requests    *appinv.RequestService
	holdings    *appinv.HoldingService
	corrections *appinv.CorrectionService
	stock       *appinv.StockService
}

// product is a catalogued product with a base "pc" unit, a "box" of 10 and one batch
type product struct {
	ID      uuid.UUID
	Piece   uuid.UUID
	Box     uuid.UUID
	BatchID uuid.UUID
}

func newFixture(t *testing.T, opts ...appinv.RequestServiceOption) *fixture {
	t.Helper()
	db := sqlitetest.New(t)
	scope := persistence.NewGormTransactionScope(db)
	ledger := persistence.NewGormStockLedger(db)
	productRepo := persistence.NewGormProductRepository(db)
	unitRepo := persistence.NewGormUnitRepository(db)
	batchRepo := persistence.NewGormBatchRepository(db)
	pub := &recordingPublisher{}
	metrics := &countingMetrics{}
	log := zap.NewNop()

	opts = append([]appinv.RequestServiceOption{appinv.WithMetrics(metrics)}, opts...)
	return &fixture{
		t:           t,
		db:          db,
		ledger:      ledger,
		publisher:   pub,
		metrics:     metrics,
		products:    appcatalog.NewProductService(scope.CatalogScope(), productRepo, unitRepo, nil, log),
		units:       appcatalog.NewUnitService(scope.CatalogScope(), unitRepo),
		batches:     appcatalog.NewBatchService(scope.CatalogScope(), batchRepo, productRepo, ledger, nil, log),
		requests:    appinv.NewRequestService(scope, persistence.NewGormRequestRepository(db), pub, log, opts...),
		holdings:    appinv.NewHoldingService(scope, persistence.NewGormHoldingRepository(db), ledger, pub, log),
		corrections: appinv.NewCorrectionService(scope, persistence.NewGormCorrectionRepository(db), pub, log),
		stock:       appinv.NewStockService(ledger),
	}
}

func (f *fixture) product(code string, expiry *time.Time) product {
	f.t.Helper()
	ctx := context.Background()
	p, err := f.products.Create(ctx, appcatalog.CreateProductRequest{
		Code:     code,
		Name:     "Syringe " + code,
		BaseUnit: &appcatalog.CreateUnitRequest{Symbol: "pc", Name: "piece"},
	})
	require.NoError(f.t, err)
	box, err := f.units.Create(ctx, p.ID, appcatalog.CreateUnitRequest{
		Symbol:           "box",
		Name:             "box of 10",
		ConversionToBase: decimal.NewFromInt(10),
	})
	require.NoError(f.t, err)
	batch, err := f.batches.Create(ctx, appcatalog.CreateBatchRequest{
		ProductID:   p.ID,
		BatchNumber: "B-" + code,
		ExpiryDate:  expiry,
	})
	require.NoError(f.t, err)
	return product{ID: p.ID, Piece: p.Units[0].ID, Box: box.ID, BatchID: batch.ID}
}

// seed credits ACTIVE stock on an endpoint
func (f *fixture) seed(at inventory.Endpoint, p product, qty int64) {
	f.t.Helper()
	meta := inventory.MovementMeta{Reason: inventory.ReasonPurchaseReceipt, ReferenceID: uuid.New(), ActorID: uuid.New()}
	_, err := f.ledger.Adjust(context.Background(), at.Key(p.ID, p.BatchID, inventory.StatusActive), decimal.NewFromInt(qty), meta)
	require.NoError(f.t, err)
}

func (f *fixture) qty(at inventory.Endpoint, p product, status inventory.StockStatus) decimal.Decimal {
	f.t.Helper()
	q, err := f.ledger.Get(context.Background(), at.Key(p.ID, p.BatchID, status))
	require.NoError(f.t, err)
	return q
}

// total sums every line of the product's batch across all pools and statuses
func (f *fixture) total(p product) decimal.Decimal {
	f.t.Helper()
	totals, err := f.ledger.TotalsByBatch(context.Background(), []uuid.UUID{p.BatchID})
	require.NoError(f.t, err)
	sum := decimal.Zero
	for _, bt := range totals {
		sum = sum.Add(bt.Quantity)
	}
	return sum
}

func assertQty(t *testing.T, want int64, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(decimal.NewFromInt(want)), "want %d, got %s", want, got.String())
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, shared.IsDomainError(err, code), "want %s, got %v", code, err)
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func line(p product, unit uuid.UUID, qty int64) appinv.LineRequest {
	return appinv.LineRequest{ProductID: p.ID, BatchID: p.BatchID, UnitID: unit, Quantity: dec(qty)}
}

func endpoint(e inventory.Endpoint) appinv.EndpointRequest {
	return appinv.EndpointRequest{Pool: e.Pool.String(), OwnerID: e.OwnerID}
}
