package inventory_test

import (
	"context"
	"sync"
	"testing"

	appinv "github.com/clinicstock/backend/internal/application/inventory"
	"github.com/clinicstock/backend/internal/domain/inventory"
	"github.com/clinicstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// issueToPerson runs an inventory request of boxes from MAIN to holder and returns the holding
func (f *fixture) issueToPerson(p product, holder uuid.UUID, boxes int64) appinv.HoldingResponse {
	f.t.Helper()
	ctx := context.Background()
	r, err := f.requests.CreateInventory(ctx, holder, appinv.CreateInventoryRequest{
		Source: endpoint(inventory.MainPool()),
		Items:  []appinv.LineRequest{line(p, p.Box, boxes)},
	})
	require.NoError(f.t, err)
	approver := uuid.New()
	_, err = f.requests.Approve(ctx, r.ID, approver, appinv.TransitionRequest{})
	require.NoError(f.t, err)
	_, err = f.requests.Issue(ctx, r.ID, approver, appinv.TransitionRequest{})
	require.NoError(f.t, err)

	holdings, err := f.holdings.ListActiveByHolder(ctx, holder)
	require.NoError(f.t, err)
	for _, h := range holdings {
		if h.RequestID == r.ID {
			return h
		}
	}
	f.t.Fatalf("no holding for request %s", r.ID)
	return appinv.HoldingResponse{}
}

func TestHoldingService_MarkReturned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product("HD-1", nil)
	f.seed(inventory.MainPool(), p, 100)
	holder := uuid.New()
	h := f.issueToPerson(p, holder, 3)
	itemID := h.Items[0].ID

	resp, err := f.holdings.MarkReturned(ctx, itemID, holder, appinv.ResolveHoldingItemRequest{Note: "unused"})
	require.NoError(t, err)
	assert.Equal(t, "RETURNED", resp.Items[0].Status)
	assert.Equal(t, "unused", resp.Items[0].Note)

	assertQty(t, 0, f.qty(inventory.PersonalPool(holder), p, inventory.StatusActive))
	assertQty(t, 100, f.qty(inventory.MainPool(), p, inventory.StatusActive))
	assertQty(t, 100, f.total(p))

	_, err = f.holdings.MarkReturned(ctx, itemID, holder, appinv.ResolveHoldingItemRequest{})
	assertCode(t, err, shared.CodeDoubleApplication)
	_, err = f.holdings.MarkLost(ctx, itemID, holder, appinv.ResolveHoldingItemRequest{})
	assertCode(t, err, shared.CodeDoubleApplication)
	assertQty(t, 100, f.qty(inventory.MainPool(), p, inventory.StatusActive))

	active, err := f.holdings.ListActiveByHolder(ctx, holder)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestHoldingService_MarkLost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product("HD-2", nil)
	f.seed(inventory.MainPool(), p, 100)
	holder := uuid.New()
	h := f.issueToPerson(p, holder, 3)

	_, err := f.holdings.MarkLost(ctx, h.Items[0].ID, holder, appinv.ResolveHoldingItemRequest{Note: "dropped"})
	require.NoError(t, err)

	assertQty(t, 0, f.qty(inventory.PersonalPool(holder), p, inventory.StatusActive))
	assertQty(t, 30, f.qty(inventory.PersonalPool(holder), p, inventory.StatusLost))
	assertQty(t, 70, f.qty(inventory.MainPool(), p, inventory.StatusActive))
	assertQty(t, 100, f.total(p))

	assert.Contains(t, f.publisher.types(), inventory.EventTypeHoldingItemLost)
}

func TestHoldingService_ConcurrentResolution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product("HD-3", nil)
	f.seed(inventory.MainPool(), p, 100)
	holder := uuid.New()
	h := f.issueToPerson(p, holder, 2)
	itemID := h.Items[0].ID

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = f.holdings.MarkReturned(ctx, itemID, holder, appinv.ResolveHoldingItemRequest{})
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = f.holdings.MarkLost(ctx, itemID, holder, appinv.ResolveHoldingItemRequest{})
	}()
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			failures++
			assertCode(t, err, shared.CodeDoubleApplication)
		}
	}
	assert.Equal(t, 1, failures)
	assertQty(t, 0, f.qty(inventory.PersonalPool(holder), p, inventory.StatusActive))
	assertQty(t, 100, f.total(p))
}

func TestHoldingService_Reconcile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product("HD-4", nil)
	f.seed(inventory.MainPool(), p, 100)
	holder := uuid.New()
	h := f.issueToPerson(p, holder, 4)

	rec, err := f.holdings.Reconcile(ctx, h.ID)
	require.NoError(t, err)
	assert.True(t, rec.Balanced)
	require.Len(t, rec.Items, 1)
	assertQty(t, 40, rec.Items[0].Issued)
	assertQty(t, 40, rec.Items[0].Outstanding)

	_, err = f.holdings.MarkReturned(ctx, h.Items[0].ID, holder, appinv.ResolveHoldingItemRequest{})
	require.NoError(t, err)

	rec, err = f.holdings.Reconcile(ctx, h.ID)
	require.NoError(t, err)
	assert.True(t, rec.Balanced)
	assertQty(t, 40, rec.Items[0].Resolved)
	assertQty(t, 0, rec.Items[0].Outstanding)

	_, err = f.holdings.Reconcile(ctx, uuid.New())
	assertCode(t, err, shared.CodeNotFound)
}

func TestHoldingService_Get(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product("HD-5", nil)
	f.seed(inventory.MainPool(), p, 10)
	holder := uuid.New()
	h := f.issueToPerson(p, holder, 1)

	got, err := f.holdings.Get(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, inventory.PersonalPool(holder), got.Holder)
	assert.Equal(t, inventory.MainPool(), got.Source)

	_, err = f.holdings.ListActiveByHolder(ctx, uuid.Nil)
	assertCode(t, err, shared.CodeInvalidInput)
}

// consumeFrom withdraws pieces out of holder's personal pool without a destination
func (f *fixture) consumeFrom(p product, holder uuid.UUID, pieces int64) {
	f.t.Helper()
	ctx := context.Background()
	r, err := f.requests.CreateWithdrawal(ctx, holder, appinv.CreateWithdrawalRequest{
		Items: []appinv.WithdrawalLineRequest{{
			LineRequest: line(p, p.Piece, pieces),
			From:        endpoint(inventory.PersonalPool(holder)),
		}},
	})
	require.NoError(f.t, err)
	_, err = f.requests.Issue(ctx, r.ID, uuid.New(), appinv.TransitionRequest{})
	require.NoError(f.t, err)
}

func TestHoldingService_WithdrawalsDrawDownHoldings(t *testing.T) {
	t.Run("return moves only what is still held", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		p := f.product("HD-6", nil)
		f.seed(inventory.MainPool(), p, 100)
		holder := uuid.New()
		h := f.issueToPerson(p, holder, 3)

		f.consumeFrom(p, holder, 12)

		got, err := f.holdings.Get(ctx, h.ID)
		require.NoError(t, err)
		assert.Equal(t, "ACTIVE", got.Items[0].Status)
		assertQty(t, 12, got.Items[0].Withdrawn)
		assertQty(t, 18, got.Items[0].Outstanding)

		_, err = f.holdings.MarkReturned(ctx, h.Items[0].ID, holder, appinv.ResolveHoldingItemRequest{})
		require.NoError(t, err)
		assertQty(t, 0, f.qty(inventory.PersonalPool(holder), p, inventory.StatusActive))
		assertQty(t, 88, f.qty(inventory.MainPool(), p, inventory.StatusActive))
		assertQty(t, 88, f.total(p))

		rec, err := f.holdings.Reconcile(ctx, h.ID)
		require.NoError(t, err)
		assert.True(t, rec.Balanced)
		assertQty(t, 18, rec.Items[0].Resolved)
		assertQty(t, 0, rec.Items[0].Outstanding)
	})

	t.Run("fully consumed lines leave the active list", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		p := f.product("HD-7", nil)
		f.seed(inventory.MainPool(), p, 100)
		holder := uuid.New()
		first := f.issueToPerson(p, holder, 1)
		second := f.issueToPerson(p, holder, 1)

		f.consumeFrom(p, holder, 14)

		older, err := f.holdings.Get(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "WITHDRAWN", older.Items[0].Status)
		newer, err := f.holdings.Get(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, "ACTIVE", newer.Items[0].Status)
		assertQty(t, 6, newer.Items[0].Outstanding)

		active, err := f.holdings.ListActiveByHolder(ctx, holder)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, second.ID, active[0].ID)

		_, err = f.holdings.MarkLost(ctx, first.Items[0].ID, holder, appinv.ResolveHoldingItemRequest{})
		assertCode(t, err, shared.CodeDoubleApplication)

		_, err = f.holdings.MarkLost(ctx, second.Items[0].ID, holder, appinv.ResolveHoldingItemRequest{})
		require.NoError(t, err)
		assertQty(t, 0, f.qty(inventory.PersonalPool(holder), p, inventory.StatusActive))
		assertQty(t, 6, f.qty(inventory.PersonalPool(holder), p, inventory.StatusLost))
		assertQty(t, 86, f.total(p))
	})
}
