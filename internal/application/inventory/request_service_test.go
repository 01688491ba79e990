package inventory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	appinv "github.com/clinicstock/backend/internal/application/inventory"
	"github.com/clinicstock/backend/internal/domain/inventory"
	"github.com/clinicstock/backend/internal/domain/shared"
	"github.com/clinicstock/backend/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestService_InventoryRequestToPersonalPool(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product("SY-1", nil)
	f.seed(inventory.MainPool(), p, 100)

	requester, approver := uuid.New(), uuid.New()
	created, err := f.requests.CreateInventory(ctx, requester, appinv.CreateInventoryRequest{
		Source: endpoint(inventory.MainPool()),
		Items:  []appinv.LineRequest{line(p, p.Box, 3)},
	})
	require.NoError(t, err)
	assert.Equal(t, "PENDING", created.Status)
	assert.Equal(t, inventory.PersonalPool(requester), created.Items[0].To)

	approved, err := f.requests.Approve(ctx, created.ID, approver, appinv.TransitionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", approved.Status)
	assertQty(t, 30, approved.Items[0].BaseQuantity)
	require.NotNil(t, approved.Items[0].ReservationID)
	assertQty(t, 70, f.qty(inventory.MainPool(), p, inventory.StatusActive))
	assertQty(t, 30, f.qty(inventory.MainPool(), p, inventory.StatusReserved))

	issued, err := f.requests.Issue(ctx, created.ID, approver, appinv.TransitionRequest{
		Lines: []appinv.LineOverride{{ItemID: created.Items[0].ID, Quantity: dec(2)}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ISSUED", issued.Status)
	assertQty(t, 20, issued.Items[0].IssuedBaseQuantity)

	assertQty(t, 20, f.qty(inventory.PersonalPool(requester), p, inventory.StatusActive))
	assertQty(t, 80, f.qty(inventory.MainPool(), p, inventory.StatusActive))
	assertQty(t, 0, f.qty(inventory.MainPool(), p, inventory.StatusReserved))
	assertQty(t, 100, f.total(p))

	holdings, err := f.holdings.ListActiveByHolder(ctx, requester)
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.Equal(t, created.ID, holdings[0].RequestID)
	require.Len(t, holdings[0].Items, 1)
	assertQty(t, 20, holdings[0].Items[0].BaseQuantity)
	assertQty(t, 2, holdings[0].Items[0].Quantity)

	assert.Equal(t, []string{
		inventory.EventTypeRequestCreated,
		inventory.EventTypeRequestApproved,
		inventory.EventTypeRequestIssued,
	}, f.publisher.types())
}

func TestRequestService_InventoryRequestFromLocation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product("SY-2", nil)
	ward, theatre := inventory.LocationPool(uuid.New()), inventory.LocationPool(uuid.New())
	f.seed(ward, p, 40)

	dest := endpoint(theatre)
	created, err := f.requests.CreateInventory(ctx, uuid.New(), appinv.CreateInventoryRequest{
		Source:      endpoint(ward),
		Destination: &dest,
		Items:       []appinv.LineRequest{line(p, p.Piece, 15)},
	})
	require.NoError(t, err)

	approver := uuid.New()
	_, err = f.requests.Approve(ctx, created.ID, approver, appinv.TransitionRequest{})
	require.NoError(t, err)
	_, err = f.requests.Issue(ctx, created.ID, approver, appinv.TransitionRequest{})
	require.NoError(t, err)

	assertQty(t, 25, f.qty(ward, p, inventory.StatusActive))
	assertQty(t, 15, f.qty(theatre, p, inventory.StatusActive))
	assertQty(t, 40, f.total(p))
}

func TestRequestService_WithdrawalIsIssuedByApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product("SY-3", nil)
	ward := inventory.LocationPool(uuid.New())
	f.seed(ward, p, 50)

	main := endpoint(inventory.MainPool())
	created, err := f.requests.CreateWithdrawal(ctx, uuid.New(), appinv.CreateWithdrawalRequest{
		Items: []appinv.WithdrawalLineRequest{{
			LineRequest: line(p, p.Box, 2),
			From:        endpoint(ward),
			To:          &main,
		}},
	})
	require.NoError(t, err)

	resp, err := f.requests.Approve(ctx, created.ID, uuid.New(), appinv.TransitionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ISSUED", resp.Status)
	assertQty(t, 20, resp.Items[0].IssuedBaseQuantity)
	assertQty(t, 30, f.qty(ward, p, inventory.StatusActive))
	assertQty(t, 20, f.qty(inventory.MainPool(), p, inventory.StatusActive))

	_, err = f.requests.Issue(ctx, created.ID, uuid.New(), appinv.TransitionRequest{})
	assertCode(t, err, shared.CodeInvalidTransition)
}

func TestRequestService_WithdrawalConsumesPersonalStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product("SY-4", nil)
	nurse := uuid.New()
	f.seed(inventory.PersonalPool(nurse), p, 5)

	created, err := f.requests.CreateWithdrawal(ctx, nurse, appinv.CreateWithdrawalRequest{
		Items: []appinv.WithdrawalLineRequest{{
			LineRequest: line(p, p.Piece, 2),
			From:        endpoint(inventory.PersonalPool(nurse)),
		}},
	})
	require.NoError(t, err)
	assert.True(t, created.Items[0].Consumption)

	_, err = f.requests.Issue(ctx, created.ID, uuid.New(), appinv.TransitionRequest{})
	require.NoError(t, err)
	assertQty(t, 3, f.qty(inventory.PersonalPool(nurse), p, inventory.StatusActive))
	assertQty(t, 3, f.total(p))

	movements, err := f.stock.Movements(ctx, created.Items[0].ID)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, inventory.ReasonConsumption, movements[0].Reason)
	assertQty(t, -2, movements[0].Delta)
}

func TestRequestService_WithdrawalValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product("SY-5", nil)
	ward := inventory.LocationPool(uuid.New())
	main := endpoint(inventory.MainPool())

	t.Run("source without custody", func(t *testing.T) {
		_, err := f.requests.CreateWithdrawal(ctx, uuid.New(), appinv.CreateWithdrawalRequest{
			Items: []appinv.WithdrawalLineRequest{{LineRequest: line(p, p.Piece, 1), From: endpoint(ward), To: &main}},
		})
		assertCode(t, err, shared.CodeCustodyNotEstablished)
	})

	t.Run("personal stock cannot move to a location", func(t *testing.T) {
		to := endpoint(ward)
		_, err := f.requests.CreateWithdrawal(ctx, uuid.New(), appinv.CreateWithdrawalRequest{
			Items: []appinv.WithdrawalLineRequest{{
				LineRequest: line(p, p.Piece, 1),
				From:        endpoint(inventory.PersonalPool(uuid.New())),
				To:          &to,
			}},
		})
		assertCode(t, err, shared.CodeInvalidInput)
	})

	t.Run("custody established but stock gone", func(t *testing.T) {
		f.seed(ward, p, 1)
		created, err := f.requests.CreateWithdrawal(ctx, uuid.New(), appinv.CreateWithdrawalRequest{
			Items: []appinv.WithdrawalLineRequest{{LineRequest: line(p, p.Piece, 4), From: endpoint(ward), To: &main}},
		})
		require.NoError(t, err)
		_, err = f.requests.Approve(ctx, created.ID, uuid.New(), appinv.TransitionRequest{})
		assertCode(t, err, shared.CodeInsufficientStock)
		assertQty(t, 1, f.qty(ward, p, inventory.StatusActive))
	})
}

func TestRequestService_PurchaseCreatesAndPostsBatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product("SY-6", nil)
	expiry := time.Now().UTC().AddDate(1, 0, 0).Truncate(24 * time.Hour)

	created, err := f.requests.CreatePurchase(ctx, uuid.New(), appinv.CreatePurchaseRequest{
		Supplier: "MedSupply",
		Items: []appinv.PurchaseLineRequest{
			{ProductID: p.ID, BatchNumber: "NEW-1", ExpiryDate: &expiry, UnitCost: decimal.RequireFromString("0.25"), UnitID: p.Box, Quantity: dec(5)},
			{ProductID: p.ID, BatchID: &p.BatchID, UnitID: p.Piece, Quantity: dec(7)},
		},
	})
	require.NoError(t, err)

	approver := uuid.New()
	approved, err := f.requests.Approve(ctx, created.ID, approver, appinv.TransitionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", approved.Status)
	assertQty(t, 50, approved.Items[0].BaseQuantity)
	assertQty(t, 0, f.total(p))

	issued, err := f.requests.Issue(ctx, created.ID, approver, appinv.TransitionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ISSUED", issued.Status)
	require.NotNil(t, issued.Items[0].BatchID)

	newBatch, err := f.batches.Get(ctx, *issued.Items[0].BatchID)
	require.NoError(t, err)
	assert.Equal(t, "NEW-1", newBatch.BatchNumber)
	assert.Equal(t, "MedSupply", newBatch.Source)
	assert.True(t, newBatch.Posted)

	received, err := f.ledger.Get(ctx, inventory.MainPool().Key(p.ID, newBatch.ID, inventory.StatusActive))
	require.NoError(t, err)
	assertQty(t, 50, received)
	assertQty(t, 7, f.qty(inventory.MainPool(), p, inventory.StatusActive))

	existing, err := f.batches.Get(ctx, p.BatchID)
	require.NoError(t, err)
	assert.True(t, existing.Posted)
}

func TestRequestService_AllOrNothingAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gauze := f.product("GZ-1", nil)
	tape := f.product("TP-1", nil)
	f.seed(inventory.MainPool(), gauze, 100)
	f.seed(inventory.MainPool(), tape, 5)

	created, err := f.requests.CreateInventory(ctx, uuid.New(), appinv.CreateInventoryRequest{
		Source: endpoint(inventory.MainPool()),
		Items:  []appinv.LineRequest{line(gauze, gauze.Box, 3), line(tape, tape.Box, 1)},
	})
	require.NoError(t, err)

	_, err = f.requests.Approve(ctx, created.ID, uuid.New(), appinv.TransitionRequest{})
	assertCode(t, err, shared.CodeInsufficientStock)
	assert.Equal(t, 1, f.metrics.insufficient)

	assertQty(t, 100, f.qty(inventory.MainPool(), gauze, inventory.StatusActive))
	assertQty(t, 0, f.qty(inventory.MainPool(), gauze, inventory.StatusReserved))
	stored, err := f.requests.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "PENDING", stored.Status)

	approved, err := f.requests.Approve(ctx, created.ID, uuid.New(), appinv.TransitionRequest{
		Lines: []appinv.LineOverride{{ItemID: created.Items[1].ID, Quantity: decimal.Zero}},
	})
	require.NoError(t, err)
	assert.True(t, approved.Items[1].Declined)
	assertQty(t, 30, f.qty(inventory.MainPool(), gauze, inventory.StatusReserved))
	assertQty(t, 5, f.qty(inventory.MainPool(), tape, inventory.StatusActive))
}

func TestRequestService_TransitionGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product("SY-7", nil)
	f.seed(inventory.MainPool(), p, 100)

	newRequest := func() *appinv.RequestResponse {
		r, err := f.requests.CreateInventory(ctx, uuid.New(), appinv.CreateInventoryRequest{
			Source: endpoint(inventory.MainPool()),
			Items:  []appinv.LineRequest{line(p, p.Piece, 10)},
		})
		require.NoError(t, err)
		return r
	}

	t.Run("approve twice", func(t *testing.T) {
		r := newRequest()
		_, err := f.requests.Approve(ctx, r.ID, uuid.New(), appinv.TransitionRequest{})
		require.NoError(t, err)
		_, err = f.requests.Approve(ctx, r.ID, uuid.New(), appinv.TransitionRequest{})
		assertCode(t, err, shared.CodeInvalidTransition)
	})

	t.Run("issue before approval", func(t *testing.T) {
		r := newRequest()
		_, err := f.requests.Issue(ctx, r.ID, uuid.New(), appinv.TransitionRequest{})
		assertCode(t, err, shared.CodeInvalidTransition)
	})

	t.Run("reject leaves the ledger alone", func(t *testing.T) {
		r := newRequest()
		before := f.qty(inventory.MainPool(), p, inventory.StatusActive)
		rejected, err := f.requests.Reject(ctx, r.ID, uuid.New(), appinv.RejectRequest{Reason: "not needed"})
		require.NoError(t, err)
		assert.Equal(t, "REJECTED", rejected.Status)
		assert.Equal(t, "not needed", rejected.RejectReason)
		assert.True(t, before.Equal(f.qty(inventory.MainPool(), p, inventory.StatusActive)))

		_, err = f.requests.Approve(ctx, r.ID, uuid.New(), appinv.TransitionRequest{})
		assertCode(t, err, shared.CodeInvalidTransition)
	})

	t.Run("override above requested", func(t *testing.T) {
		r := newRequest()
		_, err := f.requests.Approve(ctx, r.ID, uuid.New(), appinv.TransitionRequest{
			Lines: []appinv.LineOverride{{ItemID: r.Items[0].ID, Quantity: dec(11)}},
		})
		assertCode(t, err, shared.CodeInvalidQuantity)
	})

	t.Run("unit of another product", func(t *testing.T) {
		other := f.product("SY-8", nil)
		_, err := f.requests.CreateInventory(ctx, uuid.New(), appinv.CreateInventoryRequest{
			Source: endpoint(inventory.MainPool()),
			Items:  []appinv.LineRequest{{ProductID: p.ID, BatchID: p.BatchID, UnitID: other.Box, Quantity: dec(1)}},
		})
		assertCode(t, err, shared.CodeUnknownUnit)
	})
}

func TestRequestService_ConcurrentApprovals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product("SY-9", nil)
	f.seed(inventory.MainPool(), p, 100)

	r, err := f.requests.CreateInventory(ctx, uuid.New(), appinv.CreateInventoryRequest{
		Source: endpoint(inventory.MainPool()),
		Items:  []appinv.LineRequest{line(p, p.Box, 3)},
	})
	require.NoError(t, err)

	const workers = 5
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.requests.Approve(ctx, r.ID, uuid.New(), appinv.TransitionRequest{})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, shared.IsDomainError(err, shared.CodeInvalidTransition) ||
			shared.IsDomainError(err, shared.CodeConcurrencyConflict), "unexpected error %v", err)
	}
	assert.Equal(t, 1, succeeded)
	assertQty(t, 30, f.qty(inventory.MainPool(), p, inventory.StatusReserved))
	assertQty(t, 70, f.qty(inventory.MainPool(), p, inventory.StatusActive))
}

func TestRequestService_CompetingRequestsNeverOverdraw(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product("SY-10", nil)
	f.seed(inventory.MainPool(), p, 100)

	ids := make([]uuid.UUID, 2)
	for i := range ids {
		r, err := f.requests.CreateInventory(ctx, uuid.New(), appinv.CreateInventoryRequest{
			Source: endpoint(inventory.MainPool()),
			Items:  []appinv.LineRequest{line(p, p.Box, 6)},
		})
		require.NoError(t, err)
		ids[i] = r.ID
	}

	var wg sync.WaitGroup
	errs := make([]error, len(ids))
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			if _, err := f.requests.Approve(ctx, id, uuid.New(), appinv.TransitionRequest{}); err != nil {
				errs[i] = err
				return
			}
			_, errs[i] = f.requests.Issue(ctx, id, uuid.New(), appinv.TransitionRequest{})
		}(i, id)
	}
	wg.Wait()

	var issued, refused int
	for i, err := range errs {
		stored, getErr := f.requests.Get(ctx, ids[i])
		require.NoError(t, getErr)
		if err == nil {
			issued++
			assert.Equal(t, "ISSUED", stored.Status)
			continue
		}
		refused++
		assertCode(t, err, shared.CodeInsufficientStock)
		assert.Equal(t, "PENDING", stored.Status)
	}
	assert.Equal(t, 1, issued)
	assert.Equal(t, 1, refused)
	assertQty(t, 40, f.qty(inventory.MainPool(), p, inventory.StatusActive))
	assertQty(t, 0, f.qty(inventory.MainPool(), p, inventory.StatusReserved))
	assertQty(t, 100, f.total(p))
}

func TestRequestService_IssueRequiresHeldReservation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product("SY-11", nil)
	f.seed(inventory.MainPool(), p, 100)

	r, err := f.requests.CreateInventory(ctx, uuid.New(), appinv.CreateInventoryRequest{
		Source: endpoint(inventory.MainPool()),
		Items:  []appinv.LineRequest{line(p, p.Box, 2)},
	})
	require.NoError(t, err)
	approved, err := f.requests.Approve(ctx, r.ID, uuid.New(), appinv.TransitionRequest{})
	require.NoError(t, err)
	require.NotNil(t, approved.Items[0].ReservationID)

	reservations := persistence.NewGormReservationRepository(f.db)
	res, err := reservations.FindByID(ctx, *approved.Items[0].ReservationID)
	require.NoError(t, err)
	_, err = res.Release()
	require.NoError(t, err)
	require.NoError(t, reservations.SaveWithLock(ctx, res))

	_, err = f.requests.Issue(ctx, r.ID, uuid.New(), appinv.TransitionRequest{})
	assertCode(t, err, shared.CodeDataIntegrity)

	stored, err := f.requests.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", stored.Status)
	assertQty(t, 20, f.qty(inventory.MainPool(), p, inventory.StatusReserved))
}

func TestRequestService_ExpiryPolicy(t *testing.T) {
	yesterday := time.Now().UTC().AddDate(0, 0, -1)

	run := func(t *testing.T, policy appinv.ExpiryPolicy) (*fixture, product, *appinv.RequestResponse, error) {
		f := newFixture(t, appinv.WithExpiryPolicy(policy))
		p := f.product("EX-1", &yesterday)
		f.seed(inventory.MainPool(), p, 10)
		r, err := f.requests.CreateInventory(context.Background(), uuid.New(), appinv.CreateInventoryRequest{
			Source: endpoint(inventory.MainPool()),
			Items:  []appinv.LineRequest{line(p, p.Piece, 4)},
		})
		require.NoError(t, err)
		resp, err := f.requests.Approve(context.Background(), r.ID, uuid.New(), appinv.TransitionRequest{})
		return f, p, resp, err
	}

	t.Run("block", func(t *testing.T) {
		f, p, _, err := run(t, appinv.ExpiryBlock)
		assertCode(t, err, shared.CodeBatchExpired)
		assertQty(t, 10, f.qty(inventory.MainPool(), p, inventory.StatusActive))
	})

	t.Run("warn", func(t *testing.T) {
		_, _, resp, err := run(t, appinv.ExpiryWarn)
		require.NoError(t, err)
		require.Len(t, resp.Warnings, 1)
		assert.Contains(t, resp.Warnings[0], "B-EX-1")
	})

	t.Run("allow", func(t *testing.T) {
		_, _, resp, err := run(t, appinv.ExpiryAllow)
		require.NoError(t, err)
		assert.Empty(t, resp.Warnings)
	})
}

func TestRequestService_Queries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product("SY-10", nil)
	f.seed(inventory.MainPool(), p, 100)

	requester := uuid.New()
	for i := 0; i < 3; i++ {
		_, err := f.requests.CreateInventory(ctx, requester, appinv.CreateInventoryRequest{
			Source: endpoint(inventory.MainPool()),
			Items:  []appinv.LineRequest{line(p, p.Piece, int64(i+1))},
		})
		require.NoError(t, err)
	}
	_, err := f.requests.CreatePurchase(ctx, uuid.New(), appinv.CreatePurchaseRequest{
		Items: []appinv.PurchaseLineRequest{{ProductID: p.ID, BatchNumber: "P-1", UnitID: p.Piece, Quantity: dec(1)}},
	})
	require.NoError(t, err)

	pending, err := f.requests.ListPending(ctx, inventory.RequestKindInventory)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assertQty(t, 1, pending[0].Items[0].RequestedQuantity)

	page, err := f.requests.List(ctx, inventory.RequestFilter{
		Filter:      shared.Filter{Page: 1, PageSize: 2},
		RequesterID: &requester,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.TotalPages)

	_, err = f.requests.ListPending(ctx, "TRANSFER")
	assertCode(t, err, shared.CodeInvalidInput)

	_, err = f.requests.Get(ctx, uuid.New())
	assertCode(t, err, shared.CodeNotFound)
}
