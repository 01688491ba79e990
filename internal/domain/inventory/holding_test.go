package inventory

import (
	"testing"

	"github.com/clinicstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issuedInventoryRequest(t *testing.T, quantities ...int64) *Request {
	t.Helper()
	inputs := make([]ItemInput, len(quantities))
	for i, q := range quantities {
		inputs[i] = line(q)
	}
	r, err := NewInventoryRequest(uuid.New(), MainPool(), Endpoint{}, "", inputs)
	require.NoError(t, err)
	require.NoError(t, r.PrepareApproval(nil))
	for i := range r.Items {
		r.Items[i].SetBaseQuantity(r.Items[i].ApprovedQuantity)
	}
	require.NoError(t, r.Approve(uuid.New()))
	require.NoError(t, r.PrepareIssue(nil))
	for i := range r.Items {
		r.Items[i].SetIssuedBaseQuantity(r.Items[i].IssuedQuantity)
	}
	return r
}

func TestNewStockHolding(t *testing.T) {
	t.Run("one item per issued line", func(t *testing.T) {
		r := issuedInventoryRequest(t, 20, 5)
		h, err := NewStockHolding(r, uuid.New())
		require.NoError(t, err)

		assert.Equal(t, r.ID, h.RequestID)
		assert.Equal(t, PersonalPool(r.RequesterID), h.Holder)
		assert.Equal(t, MainPool(), h.Source)
		require.Len(t, h.Items, 2)
		assert.Equal(t, r.Items[0].ID, h.Items[0].RequestItemID)
		assert.True(t, h.Items[0].BaseQuantity.Equal(decimal.NewFromInt(20)))
		assert.Equal(t, HoldingItemActive, h.Items[0].Status)
	})

	t.Run("lines issued at zero are skipped", func(t *testing.T) {
		r := issuedInventoryRequest(t, 20, 5)
		r.Items[1].SetIssuedBaseQuantity(decimal.Zero)
		h, err := NewStockHolding(r, uuid.New())
		require.NoError(t, err)
		assert.Len(t, h.Items, 1)
	})

	t.Run("only inventory requests", func(t *testing.T) {
		in := line(2)
		in.From, in.To = LocationPool(uuid.New()), MainPool()
		r, _ := NewWithdrawalRequest(uuid.New(), "", []ItemInput{in})
		_, err := NewStockHolding(r, uuid.New())
		assert.Error(t, err)
	})
}

func TestStockHolding_Resolve(t *testing.T) {
	t.Run("lost then lost again is double application", func(t *testing.T) {
		h, err := NewStockHolding(issuedInventoryRequest(t, 20), uuid.New())
		require.NoError(t, err)
		itemID := h.Items[0].ID

		item, err := h.Resolve(itemID, HoldingItemLost, uuid.New(), "dropped in transit")
		require.NoError(t, err)
		assert.Equal(t, HoldingItemLost, item.Status)
		assert.NotNil(t, item.ResolvedAt)
		assert.False(t, h.HasActiveItems())

		_, err = h.Resolve(itemID, HoldingItemReturned, uuid.New(), "")
		assert.True(t, shared.IsDomainError(err, shared.CodeDoubleApplication))
	})

	t.Run("cannot resolve back to active", func(t *testing.T) {
		h, _ := NewStockHolding(issuedInventoryRequest(t, 20), uuid.New())
		_, err := h.Resolve(h.Items[0].ID, HoldingItemActive, uuid.New(), "")
		assert.True(t, shared.IsDomainError(err, shared.CodeInvalidInput))
	})

	t.Run("unknown item", func(t *testing.T) {
		h, _ := NewStockHolding(issuedInventoryRequest(t, 20), uuid.New())
		_, err := h.Resolve(uuid.New(), HoldingItemReturned, uuid.New(), "")
		assert.True(t, shared.IsDomainError(err, shared.CodeNotFound))
	})
}

func TestStockHolding_Reconcile(t *testing.T) {
	h, err := NewStockHolding(issuedInventoryRequest(t, 20), uuid.New())
	require.NoError(t, err)
	item := &h.Items[0]
	held := h.Holder.Key(item.ProductID, item.BatchID, StatusActive)
	issue := *NewStockMovement(held, decimal.NewFromInt(20), decimal.NewFromInt(20), MovementMeta{Reason: ReasonIssue, ReferenceID: item.RequestItemID})

	t.Run("active item balanced by its issue credit", func(t *testing.T) {
		rec := h.Reconcile(item, []StockMovement{issue})
		assert.True(t, rec.Balanced)
		assert.True(t, rec.Outstanding.Equal(decimal.NewFromInt(20)))
	})

	t.Run("missing credit is unbalanced", func(t *testing.T) {
		rec := h.Reconcile(item, nil)
		assert.False(t, rec.Balanced)
	})

	t.Run("lost item balanced by its debit", func(t *testing.T) {
		_, err := h.Resolve(item.ID, HoldingItemLost, uuid.New(), "")
		require.NoError(t, err)
		loss := *NewStockMovement(held, decimal.NewFromInt(-20), decimal.Zero, MovementMeta{Reason: ReasonLoss, ReferenceID: item.ID})
		other := *NewStockMovement(h.Holder.Key(item.ProductID, item.BatchID, StatusLost), decimal.NewFromInt(20), decimal.NewFromInt(20), MovementMeta{Reason: ReasonLoss, ReferenceID: item.ID})

		rec := h.Reconcile(item, []StockMovement{issue, loss, other})
		assert.True(t, rec.Balanced)
		assert.True(t, rec.Outstanding.IsZero())
	})
}

func TestStockHolding_DrawDown(t *testing.T) {
	h, err := NewStockHolding(issuedInventoryRequest(t, 20, 5), uuid.New())
	require.NoError(t, err)
	first, second := &h.Items[0], &h.Items[1]
	actor := uuid.New()
	version := h.Version

	left := h.DrawDown(first.ProductID, first.BatchID, decimal.NewFromInt(8), actor)
	assert.True(t, left.IsZero())
	assert.True(t, first.Withdrawn.Equal(decimal.NewFromInt(8)))
	assert.True(t, first.Outstanding().Equal(decimal.NewFromInt(12)))
	assert.Equal(t, HoldingItemActive, first.Status)
	assert.Equal(t, version+1, h.Version)

	left = h.DrawDown(first.ProductID, first.BatchID, decimal.NewFromInt(15), actor)
	assert.True(t, left.Equal(decimal.NewFromInt(3)))
	assert.Equal(t, HoldingItemWithdrawn, first.Status)
	assert.Equal(t, &actor, first.ResolvedBy)
	assert.True(t, first.Outstanding().IsZero())
	assert.Equal(t, HoldingItemActive, second.Status)
	assert.True(t, h.HasActiveItems())

	left = h.DrawDown(uuid.New(), second.BatchID, decimal.NewFromInt(4), actor)
	assert.True(t, left.Equal(decimal.NewFromInt(4)))
	assert.Equal(t, version+2, h.Version)

	_, err = h.Resolve(first.ID, HoldingItemReturned, actor, "")
	assert.True(t, shared.IsDomainError(err, shared.CodeDoubleApplication))
}

func TestStockHolding_ReconcilePartlyWithdrawn(t *testing.T) {
	h, err := NewStockHolding(issuedInventoryRequest(t, 20), uuid.New())
	require.NoError(t, err)
	item := &h.Items[0]
	held := h.Holder.Key(item.ProductID, item.BatchID, StatusActive)
	issue := *NewStockMovement(held, decimal.NewFromInt(20), decimal.NewFromInt(20), MovementMeta{Reason: ReasonIssue, ReferenceID: item.RequestItemID})

	h.DrawDown(item.ProductID, item.BatchID, decimal.NewFromInt(8), uuid.New())
	rec := h.Reconcile(item, []StockMovement{issue})
	assert.True(t, rec.Balanced)
	assert.True(t, rec.Outstanding.Equal(decimal.NewFromInt(12)))

	_, err = h.Resolve(item.ID, HoldingItemReturned, uuid.New(), "")
	require.NoError(t, err)
	back := *NewStockMovement(held, decimal.NewFromInt(-12), decimal.Zero, MovementMeta{Reason: ReasonReturn, ReferenceID: item.ID})
	rec = h.Reconcile(item, []StockMovement{issue, back})
	assert.True(t, rec.Balanced)
	assert.True(t, rec.Withdrawn.Equal(decimal.NewFromInt(8)))
	assert.True(t, rec.Outstanding.IsZero())
}
