package inventory

import (
	"github.com/clinicstock/backend/internal/domain/shared"
)

// RequestKind selects the workflow a request follows
type RequestKind string

const (
	RequestKindInventory  RequestKind = "INVENTORY"
	RequestKindWithdrawal RequestKind = "WITHDRAWAL"
	RequestKindPurchase   RequestKind = "PURCHASE"
)

// IsValid checks if the kind is known
func (k RequestKind) IsValid() bool {
	switch k {
	case RequestKindInventory, RequestKindWithdrawal, RequestKindPurchase:
		return true
	}
	return false
}

// String returns the string representation of RequestKind
func (k RequestKind) String() string {
	return string(k)
}

// NumberPrefix returns the document number prefix of the kind
func (k RequestKind) NumberPrefix() string {
	switch k {
	case RequestKindInventory:
		return "IR"
	case RequestKindWithdrawal:
		return "WD"
	case RequestKindPurchase:
		return "PR"
	}
	return "RQ"
}

// ApprovalStatus is the header status of a request
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
	ApprovalIssued   ApprovalStatus = "ISSUED"
)

// IsValid checks if the status is known
func (s ApprovalStatus) IsValid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected, ApprovalIssued:
		return true
	}
	return false
}

// String returns the string representation of ApprovalStatus
func (s ApprovalStatus) String() string {
	return string(s)
}

// StateMachine holds the allowed header transitions of one request kind.
// All kinds share the same states; they differ only in which edges exist.
type StateMachine struct {
	kind        RequestKind
	transitions map[ApprovalStatus][]ApprovalStatus
}

var stateMachines = map[RequestKind]StateMachine{
	RequestKindInventory: {
		kind: RequestKindInventory,
		transitions: map[ApprovalStatus][]ApprovalStatus{
			ApprovalPending:  {ApprovalApproved, ApprovalRejected},
			ApprovalApproved: {ApprovalIssued},
		},
	},
	RequestKindWithdrawal: {
		kind: RequestKindWithdrawal,
		transitions: map[ApprovalStatus][]ApprovalStatus{
			ApprovalPending: {ApprovalIssued, ApprovalRejected},
		},
	},
	RequestKindPurchase: {
		kind: RequestKindPurchase,
		transitions: map[ApprovalStatus][]ApprovalStatus{
			ApprovalPending:  {ApprovalApproved, ApprovalRejected},
			ApprovalApproved: {ApprovalIssued},
		},
	},
}

// StateMachineFor returns the state machine of a request kind
func StateMachineFor(kind RequestKind) (StateMachine, error) {
	m, ok := stateMachines[kind]
	if !ok {
		return StateMachine{}, shared.NewDomainErrorf(shared.CodeInvalidInput, "Unknown request kind %q", kind)
	}
	return m, nil
}

// Kind returns the request kind the machine belongs to
func (m StateMachine) Kind() RequestKind {
	return m.kind
}

// CanTransition reports whether from -> to is an edge of the machine
func (m StateMachine) CanTransition(from, to ApprovalStatus) bool {
	for _, next := range m.transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Check returns INVALID_TRANSITION unless from -> to is allowed
func (m StateMachine) Check(from, to ApprovalStatus) error {
	if m.CanTransition(from, to) {
		return nil
	}
	return shared.NewDomainErrorf(shared.CodeInvalidTransition,
		"%s request cannot move from %s to %s", m.kind, from, to).
		WithDetail("kind", m.kind.String()).
		WithDetail("from", from.String()).
		WithDetail("to", to.String())
}

// IsTerminal reports whether no transition leaves the status
func (m StateMachine) IsTerminal(status ApprovalStatus) bool {
	return len(m.transitions[status]) == 0
}

// ApprovalTarget is the status reached by approving a pending request.
// Withdrawals are issued on approval.
func (m StateMachine) ApprovalTarget() ApprovalStatus {
	if m.CanTransition(ApprovalPending, ApprovalApproved) {
		return ApprovalApproved
	}
	return ApprovalIssued
}
