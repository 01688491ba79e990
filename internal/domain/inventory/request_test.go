package inventory

import (
	"testing"

	"github.com/clinicstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(qty int64) ItemInput {
	return ItemInput{
		ProductID: uuid.New(),
		BatchID:   uuid.New(),
		UnitID:    uuid.New(),
		Quantity:  decimal.NewFromInt(qty),
	}
}

func TestStateMachine(t *testing.T) {
	tests := []struct {
		kind    RequestKind
		from    ApprovalStatus
		to      ApprovalStatus
		allowed bool
	}{
		{RequestKindInventory, ApprovalPending, ApprovalApproved, true},
		{RequestKindInventory, ApprovalPending, ApprovalRejected, true},
		{RequestKindInventory, ApprovalApproved, ApprovalIssued, true},
		{RequestKindInventory, ApprovalPending, ApprovalIssued, false},
		{RequestKindInventory, ApprovalApproved, ApprovalRejected, false},
		{RequestKindInventory, ApprovalIssued, ApprovalApproved, false},
		{RequestKindWithdrawal, ApprovalPending, ApprovalIssued, true},
		{RequestKindWithdrawal, ApprovalPending, ApprovalRejected, true},
		{RequestKindWithdrawal, ApprovalPending, ApprovalApproved, false},
		{RequestKindPurchase, ApprovalPending, ApprovalApproved, true},
		{RequestKindPurchase, ApprovalApproved, ApprovalIssued, true},
		{RequestKindPurchase, ApprovalRejected, ApprovalPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind)+" "+string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			m, err := StateMachineFor(tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, m.CanTransition(tt.from, tt.to))
			if !tt.allowed {
				assert.True(t, shared.IsDomainError(m.Check(tt.from, tt.to), shared.CodeInvalidTransition))
			}
		})
	}

	t.Run("terminal states", func(t *testing.T) {
		inv, _ := StateMachineFor(RequestKindInventory)
		assert.True(t, inv.IsTerminal(ApprovalIssued))
		assert.True(t, inv.IsTerminal(ApprovalRejected))
		assert.False(t, inv.IsTerminal(ApprovalApproved))
	})

	t.Run("approval target", func(t *testing.T) {
		wd, _ := StateMachineFor(RequestKindWithdrawal)
		pr, _ := StateMachineFor(RequestKindPurchase)
		assert.Equal(t, ApprovalIssued, wd.ApprovalTarget())
		assert.Equal(t, ApprovalApproved, pr.ApprovalTarget())
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := StateMachineFor("LOAN")
		assert.Error(t, err)
	})
}

func TestNewInventoryRequest(t *testing.T) {
	requester := uuid.New()

	t.Run("defaults destination to the requester", func(t *testing.T) {
		r, err := NewInventoryRequest(requester, MainPool(), Endpoint{}, "ward round", []ItemInput{line(5)})
		require.NoError(t, err)
		assert.Equal(t, ApprovalPending, r.Status)
		assert.Equal(t, RequestKindInventory, r.Kind)
		assert.Equal(t, PersonalPool(requester), r.Items[0].To)
		assert.Equal(t, MainPool(), r.Items[0].From)
		assert.Equal(t, 1, r.Items[0].LineNo)
		assert.Contains(t, r.Number, "IR-")
		assert.Len(t, r.GetDomainEvents(), 1)
	})

	t.Run("rejects personal source", func(t *testing.T) {
		_, err := NewInventoryRequest(requester, PersonalPool(uuid.New()), Endpoint{}, "", []ItemInput{line(5)})
		assert.True(t, shared.IsDomainError(err, shared.CodeInvalidInput))
	})

	t.Run("rejects main destination", func(t *testing.T) {
		_, err := NewInventoryRequest(requester, LocationPool(uuid.New()), MainPool(), "", []ItemInput{line(5)})
		assert.True(t, shared.IsDomainError(err, shared.CodeInvalidInput))
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		_, err := NewInventoryRequest(requester, MainPool(), Endpoint{}, "", []ItemInput{line(0)})
		assert.True(t, shared.IsDomainError(err, shared.CodeInvalidQuantity))
	})

	t.Run("rejects empty request", func(t *testing.T) {
		_, err := NewInventoryRequest(requester, MainPool(), Endpoint{}, "", nil)
		assert.True(t, shared.IsDomainError(err, shared.CodeInvalidInput))
	})

	t.Run("rejects duplicate lines", func(t *testing.T) {
		l := line(1)
		_, err := NewInventoryRequest(requester, MainPool(), Endpoint{}, "", []ItemInput{l, l})
		assert.True(t, shared.IsDomainError(err, shared.CodeInvalidInput))
	})
}

func TestNewWithdrawalRequest(t *testing.T) {
	requester := uuid.New()
	l1, l2 := LocationPool(uuid.New()), LocationPool(uuid.New())
	holder := PersonalPool(uuid.New())

	tests := []struct {
		name  string
		from  Endpoint
		to    Endpoint
		valid bool
	}{
		{"location to location", l1, l2, true},
		{"location to main", l1, MainPool(), true},
		{"personal consumption", holder, Endpoint{}, true},
		{"same location", l1, l1, false},
		{"main to location", MainPool(), l1, false},
		{"personal to location", holder, l1, false},
		{"location to personal", l1, holder, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := line(3)
			in.From, in.To = tt.from, tt.to
			r, err := NewWithdrawalRequest(requester, "", []ItemInput{in})
			if tt.valid {
				require.NoError(t, err)
				assert.Equal(t, tt.to.IsZero(), r.Items[0].IsConsumption())
				return
			}
			assert.True(t, shared.IsDomainError(err, shared.CodeInvalidInput))
		})
	}
}

func TestNewPurchaseRequest(t *testing.T) {
	requester := uuid.New()

	t.Run("new batch needs a number", func(t *testing.T) {
		in := line(10)
		in.BatchID = uuid.Nil
		_, err := NewPurchaseRequest(requester, "Acme", "", []ItemInput{in})
		assert.True(t, shared.IsDomainError(err, shared.CodeInvalidInput))

		in.BatchNumber = " B-2026-01 "
		r, err := NewPurchaseRequest(requester, "Acme", "", []ItemInput{in})
		require.NoError(t, err)
		assert.Equal(t, "B-2026-01", r.Items[0].BatchNumber)
		assert.False(t, r.Items[0].HasBatch())
		assert.Equal(t, MainPool(), r.Items[0].To)
	})

	t.Run("rejects negative cost", func(t *testing.T) {
		in := line(10)
		in.UnitCost = decimal.NewFromInt(-1)
		_, err := NewPurchaseRequest(requester, "", "", []ItemInput{in})
		assert.True(t, shared.IsDomainError(err, shared.CodeInvalidInput))
	})
}

func TestRequest_Approve(t *testing.T) {
	requester, approver := uuid.New(), uuid.New()

	t.Run("overrides cap and decline lines", func(t *testing.T) {
		r, err := NewInventoryRequest(requester, MainPool(), Endpoint{}, "", []ItemInput{line(10), line(4)})
		require.NoError(t, err)

		overrides := map[uuid.UUID]decimal.Decimal{
			r.Items[0].ID: decimal.NewFromInt(6),
			r.Items[1].ID: decimal.Zero,
		}
		require.NoError(t, r.PrepareApproval(overrides))
		assert.True(t, r.Items[0].ApprovedQuantity.Equal(decimal.NewFromInt(6)))
		assert.True(t, r.Items[1].Declined)
		assert.Len(t, r.ActiveItems(), 1)

		require.NoError(t, r.Approve(approver))
		assert.Equal(t, ApprovalApproved, r.Status)
		assert.Equal(t, 2, r.Version)
		assert.Equal(t, approver, *r.ApprovedBy)
	})

	t.Run("override above requested is refused", func(t *testing.T) {
		r, _ := NewInventoryRequest(requester, MainPool(), Endpoint{}, "", []ItemInput{line(10)})
		err := r.PrepareApproval(map[uuid.UUID]decimal.Decimal{r.Items[0].ID: decimal.NewFromInt(11)})
		assert.True(t, shared.IsDomainError(err, shared.CodeInvalidQuantity))
	})

	t.Run("override for unknown line is refused", func(t *testing.T) {
		r, _ := NewInventoryRequest(requester, MainPool(), Endpoint{}, "", []ItemInput{line(10)})
		err := r.PrepareApproval(map[uuid.UUID]decimal.Decimal{uuid.New(): decimal.NewFromInt(1)})
		assert.True(t, shared.IsDomainError(err, shared.CodeInvalidInput))
	})

	t.Run("declining every line is refused", func(t *testing.T) {
		r, _ := NewInventoryRequest(requester, MainPool(), Endpoint{}, "", []ItemInput{line(10)})
		err := r.PrepareApproval(map[uuid.UUID]decimal.Decimal{r.Items[0].ID: decimal.Zero})
		assert.True(t, shared.IsDomainError(err, shared.CodeInvalidInput))
	})

	t.Run("approving twice is an invalid transition", func(t *testing.T) {
		r, _ := NewInventoryRequest(requester, MainPool(), Endpoint{}, "", []ItemInput{line(10)})
		require.NoError(t, r.PrepareApproval(nil))
		require.NoError(t, r.Approve(approver))

		assert.True(t, shared.IsDomainError(r.PrepareApproval(nil), shared.CodeInvalidTransition))
		assert.True(t, shared.IsDomainError(r.Approve(approver), shared.CodeInvalidTransition))
	})

	t.Run("withdrawal approval issues", func(t *testing.T) {
		in := line(3)
		in.From, in.To = LocationPool(uuid.New()), MainPool()
		r, _ := NewWithdrawalRequest(requester, "", []ItemInput{in})
		require.NoError(t, r.PrepareApproval(nil))
		assert.True(t, r.Items[0].IssuedQuantity.Equal(decimal.NewFromInt(3)))

		require.NoError(t, r.Approve(approver))
		assert.Equal(t, ApprovalIssued, r.Status)
		assert.NotNil(t, r.IssuedAt)
		assert.True(t, r.IsTerminal())
	})
}

func TestRequest_Reject(t *testing.T) {
	r, _ := NewInventoryRequest(uuid.New(), MainPool(), Endpoint{}, "", []ItemInput{line(10)})

	assert.Error(t, r.Reject(uuid.New(), "  "))
	require.NoError(t, r.Reject(uuid.New(), "out of budget"))
	assert.Equal(t, ApprovalRejected, r.Status)
	assert.Equal(t, "out of budget", r.RejectReason)

	assert.True(t, shared.IsDomainError(r.Reject(uuid.New(), "again"), shared.CodeInvalidTransition))
	assert.True(t, shared.IsDomainError(r.PrepareApproval(nil), shared.CodeInvalidTransition))
}

func TestRequest_Issue(t *testing.T) {
	requester, approver := uuid.New(), uuid.New()

	t.Run("issue override stays within approved", func(t *testing.T) {
		r, _ := NewInventoryRequest(requester, MainPool(), Endpoint{}, "", []ItemInput{line(10)})
		require.NoError(t, r.PrepareApproval(map[uuid.UUID]decimal.Decimal{r.Items[0].ID: decimal.NewFromInt(8)}))
		require.NoError(t, r.Approve(approver))

		err := r.PrepareIssue(map[uuid.UUID]decimal.Decimal{r.Items[0].ID: decimal.NewFromInt(9)})
		assert.True(t, shared.IsDomainError(err, shared.CodeInvalidQuantity))

		require.NoError(t, r.PrepareIssue(map[uuid.UUID]decimal.Decimal{r.Items[0].ID: decimal.NewFromInt(7)}))
		assert.True(t, r.Items[0].IssuedQuantity.Equal(decimal.NewFromInt(7)))

		require.NoError(t, r.MarkIssued(approver))
		assert.Equal(t, ApprovalIssued, r.Status)
		assert.True(t, shared.IsDomainError(r.MarkIssued(approver), shared.CodeInvalidTransition))
	})

	t.Run("pending inventory request cannot be issued", func(t *testing.T) {
		r, _ := NewInventoryRequest(requester, MainPool(), Endpoint{}, "", []ItemInput{line(10)})
		assert.True(t, shared.IsDomainError(r.PrepareIssue(nil), shared.CodeInvalidTransition))
	})

	t.Run("pending withdrawal is issued by approval only", func(t *testing.T) {
		in := line(3)
		in.From, in.To = LocationPool(uuid.New()), MainPool()
		r, _ := NewWithdrawalRequest(requester, "", []ItemInput{in})
		assert.True(t, shared.IsDomainError(r.PrepareIssue(nil), shared.CodeInvalidTransition))
	})
}
