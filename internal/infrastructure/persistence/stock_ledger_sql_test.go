package persistence

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/clinicstock/backend/internal/domain/inventory"
	"github.com/clinicstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockDB opens gorm with the postgres dialect on top of sqlmock
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	dialector := postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"})
	gormDB, err := gorm.Open(dialector, &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return gormDB, mock
}

func testKey() inventory.StockKey {
	return inventory.MainPool().Key(uuid.New(), uuid.New(), inventory.StatusActive)
}

func TestStockLedgerSQL_DebitIsGuarded(t *testing.T) {
	db, mock := newMockDB(t)
	ledger := NewGormStockLedger(db)
	key := testKey()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "stock_lines" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT quantity FROM "stock_lines"`)).
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow("3"))

	_, err := ledger.Adjust(context.Background(), key, decimal.NewFromInt(-5),
		inventory.MovementMeta{Reason: inventory.ReasonIssue, ReferenceID: uuid.New(), ActorID: uuid.New()})
	require.Error(t, err)
	assert.True(t, shared.IsDomainError(err, shared.CodeInsufficientStock))

	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "MAIN", de.Details["pool"])
	assert.Equal(t, "5", de.Details["requested"])
	assert.Equal(t, "3", de.Details["available"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStockLedgerSQL_DebitJournals(t *testing.T) {
	db, mock := newMockDB(t)
	ledger := NewGormStockLedger(db)
	key := testKey()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "stock_lines" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT quantity FROM "stock_lines"`)).
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow("7"))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "stock_movements"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	balance, err := ledger.Adjust(context.Background(), key, decimal.NewFromInt(-3),
		inventory.MovementMeta{Reason: inventory.ReasonIssue, ReferenceID: uuid.New(), ActorID: uuid.New()})
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(7)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStockLedgerSQL_ZeroDeltaDoesNotWrite(t *testing.T) {
	db, mock := newMockDB(t)
	ledger := NewGormStockLedger(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT quantity FROM "stock_lines"`)).
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow("4"))

	balance, err := ledger.Adjust(context.Background(), testKey(), decimal.RequireFromString("0.00001"),
		inventory.MovementMeta{Reason: inventory.ReasonIssue, ReferenceID: uuid.New(), ActorID: uuid.New()})
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(4)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStockLedgerSQL_HasCustody(t *testing.T) {
	db, mock := newMockDB(t)
	ledger := NewGormStockLedger(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "stock_lines"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	held, err := ledger.HasCustody(context.Background(), inventory.PersonalPool(uuid.New()), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.True(t, held)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStockLedgerSQL_TotalsByBatch(t *testing.T) {
	db, mock := newMockDB(t)
	ledger := NewGormStockLedger(db)
	batchID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT batch_id, status, COALESCE(SUM(quantity), 0) AS quantity FROM "stock_lines"`)).
		WillReturnRows(sqlmock.NewRows([]string{"batch_id", "status", "quantity"}).
			AddRow(batchID.String(), "ACTIVE", "12.5").
			AddRow(batchID.String(), "LOST", "2"))

	totals, err := ledger.TotalsByBatch(context.Background(), []uuid.UUID{batchID})
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, batchID, totals[0].BatchID)
	assert.Equal(t, inventory.StatusActive, totals[0].Status)
	assert.True(t, totals[0].Quantity.Equal(decimal.RequireFromString("12.5")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositorySQL_StaleTransitionConflicts(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGormRequestRepository(db)

	req := &inventory.Request{Status: inventory.ApprovalApproved}
	req.ID = uuid.New()
	req.Version = 2

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "requests" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.SaveTransition(context.Background(), req, inventory.ApprovalPending)
	require.Error(t, err)
	assert.True(t, shared.IsDomainError(err, shared.CodeConcurrencyConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}
