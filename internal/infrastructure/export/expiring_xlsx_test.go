package export

import (
	"bytes"
	"testing"
	"time"

	appcatalog "github.com/clinicstock/backend/internal/application/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExpiringXLSXWriter_WriteExpiring(t *testing.T) {
	expiry := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	report := &appcatalog.ExpiringReport{
		GeneratedAt: time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC),
		HorizonDays: 30,
		Batches: []appcatalog.ExpiringBatch{
			{
				BatchResponse: appcatalog.BatchResponse{ID: uuid.New(), BatchNumber: "L-001", ExpiryDate: &expiry, DaysUntilExpiry: 17},
				ProductCode:   "SYR-5",
				ProductName:   "Syringe 5ml",
				OnHand:        decimal.NewFromInt(120),
				Reserved:      decimal.NewFromInt(20),
			},
			{
				BatchResponse: appcatalog.BatchResponse{ID: uuid.New(), BatchNumber: "L-000", Expired: true},
				ProductCode:   "GLV-M",
				ProductName:   "Gloves M",
				OnHand:        decimal.NewFromInt(4),
			},
		},
		TotalOnHand: decimal.NewFromInt(124),
	}

	w := NewExpiringXLSXWriter()
	var buf bytes.Buffer
	require.NoError(t, w.WriteExpiring(&buf, report))
	assert.Equal(t, XLSXContentType, w.ContentType())

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(expiringSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Product code", rows[0][0])
	assert.Equal(t, []string{"SYR-5", "Syringe 5ml", "L-001", "2026-11-01", "17", "FALSE", "120", "20"}, rows[1])
	assert.Equal(t, "", rows[2][3])
	assert.Equal(t, "TRUE", rows[2][5])
	assert.Equal(t, "Total (30 days)", rows[3][0])
	assert.Equal(t, "124", rows[3][6])
}

func TestExpiringXLSXWriter_EmptyReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewExpiringXLSXWriter().WriteExpiring(&buf, &appcatalog.ExpiringReport{TotalOnHand: decimal.Zero}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(expiringSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
