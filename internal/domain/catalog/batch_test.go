package catalog

import (
	"testing"
	"time"

	"github.com/clinicstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBatch(t *testing.T) {
	productID := uuid.New()
	expiry := time.Now().Add(90 * 24 * time.Hour)

	t.Run("creates an unposted batch", func(t *testing.T) {
		b, err := NewBatch(productID, " LOT-1 ", nil, &expiry, decimal.NewFromFloat(1.25), "Acme")
		require.NoError(t, err)
		assert.Equal(t, "LOT-1", b.BatchNumber)
		assert.False(t, b.Posted)
		assert.Equal(t, 1, b.Version)
	})

	t.Run("rejects expiry before production", func(t *testing.T) {
		production := expiry.Add(24 * time.Hour)
		_, err := NewBatch(productID, "LOT-1", &production, &expiry, decimal.Zero, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Expiry date cannot be before production date")
	})

	t.Run("rejects negative cost", func(t *testing.T) {
		_, err := NewBatch(productID, "LOT-1", nil, nil, decimal.NewFromInt(-1), "")
		require.Error(t, err)
	})
}

func TestBatch_Immutability(t *testing.T) {
	b, err := NewBatch(uuid.New(), "LOT-1", nil, nil, decimal.NewFromInt(2), "")
	require.NoError(t, err)

	require.NoError(t, b.UpdateDetails("LOT-1A", decimal.NewFromInt(3), "Acme"))
	assert.Equal(t, "LOT-1A", b.BatchNumber)

	b.MarkPosted()
	require.True(t, b.Posted)
	require.NotNil(t, b.PostedAt)

	err = b.UpdateDetails("LOT-2", decimal.NewFromInt(3), "Acme")
	assert.True(t, shared.IsDomainError(err, shared.CodeBatchImmutable))

	newExpiry := time.Now().Add(10 * 24 * time.Hour)
	actor := uuid.New()
	require.NoError(t, b.CorrectExpiry(nil, &newExpiry, actor))
	assert.Equal(t, &newExpiry, b.ExpiryDate)

	events := b.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeBatchExpiryCorrected, events[0].EventType())
	assert.Equal(t, actor, events[0].ActorID())
}

func TestBatch_Expiry(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	soon := time.Now().Add(5 * 24 * time.Hour)

	expired, _ := NewBatch(uuid.New(), "A", nil, &past, decimal.Zero, "")
	expiring, _ := NewBatch(uuid.New(), "B", nil, &soon, decimal.Zero, "")
	open, _ := NewBatch(uuid.New(), "C", nil, nil, decimal.Zero, "")

	assert.True(t, expired.IsExpired())
	assert.False(t, expiring.IsExpired())
	assert.True(t, expiring.WillExpireWithin(30*24*time.Hour))
	assert.False(t, expiring.WillExpireWithin(24*time.Hour))
	assert.False(t, open.IsExpired())
	assert.Equal(t, -1, open.DaysUntilExpiry())
	assert.Equal(t, 4, expiring.DaysUntilExpiry())
}
