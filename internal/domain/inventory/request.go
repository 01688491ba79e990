package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/clinicstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemInput describes one requested line before it becomes a RequestItem
type ItemInput struct {
	ProductID uuid.UUID
	BatchID   uuid.UUID
	UnitID    uuid.UUID
	Quantity  decimal.Decimal
	From      Endpoint
	To        Endpoint

	// Purchase lines without a batch describe the batch to create on posting
	BatchNumber string
	ExpiryDate  *time.Time
	UnitCost    decimal.Decimal
}

// RequestItem is one ordered line of a request.
// Quantities are in the requester's unit; base quantities are resolved at approval and issue.
type RequestItem struct {
	ID                 uuid.UUID
	RequestID          uuid.UUID
	LineNo             int
	ProductID          uuid.UUID
	BatchID            uuid.UUID
	BatchNumber        string
	ExpiryDate         *time.Time
	UnitCost           decimal.Decimal
	UnitID             uuid.UUID
	RequestedQuantity  decimal.Decimal
	ApprovedQuantity   decimal.Decimal
	BaseQuantity       decimal.Decimal
	IssuedQuantity     decimal.Decimal
	IssuedBaseQuantity decimal.Decimal
	From               Endpoint
	To                 Endpoint // zero for consumption
	ReservationID      *uuid.UUID
	Declined           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsConsumption reports whether the line debits its source without crediting anything
func (i *RequestItem) IsConsumption() bool {
	return i.To.IsZero()
}

// HasBatch reports whether the line already references a catalogued batch
func (i *RequestItem) HasBatch() bool {
	return i.BatchID != uuid.Nil
}

// SetBaseQuantity stores the base quantity resolved for the approved quantity
func (i *RequestItem) SetBaseQuantity(base decimal.Decimal) {
	i.BaseQuantity = base
	i.UpdatedAt = time.Now().UTC()
}

// SetIssuedBaseQuantity stores the base quantity resolved for the issued quantity
func (i *RequestItem) SetIssuedBaseQuantity(base decimal.Decimal) {
	i.IssuedBaseQuantity = base
	i.UpdatedAt = time.Now().UTC()
}

// AttachReservation links the reservation taken for the line
func (i *RequestItem) AttachReservation(id uuid.UUID) {
	i.ReservationID = &id
	i.UpdatedAt = time.Now().UTC()
}

// AssignBatch binds a purchase line to the batch created or found at posting
func (i *RequestItem) AssignBatch(batchID uuid.UUID) {
	i.BatchID = batchID
	i.UpdatedAt = time.Now().UTC()
}

// Request is the aggregate root of the three request workflows
type Request struct {
	shared.BaseAggregateRoot
	Number       string
	Kind         RequestKind
	RequesterID  uuid.UUID
	Notes        string
	Supplier     string
	Status       ApprovalStatus
	ApprovedBy   *uuid.UUID
	ApprovedAt   *time.Time
	RejectedBy   *uuid.UUID
	RejectedAt   *time.Time
	RejectReason string
	IssuedBy     *uuid.UUID
	IssuedAt     *time.Time
	Items        []RequestItem
}

// NewInventoryRequest creates a request to draw stock from MAIN or a LOCATION into a holder.
// A zero destination means the requester's personal pool.
func NewInventoryRequest(requesterID uuid.UUID, source, destination Endpoint, notes string, items []ItemInput) (*Request, error) {
	if source.Pool != PoolMain && source.Pool != PoolLocation {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Inventory requests draw from MAIN or a LOCATION")
	}
	if destination.IsZero() {
		destination = PersonalPool(requesterID)
	}
	if destination.Pool != PoolPersonal && destination.Pool != PoolLocation {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Inventory requests deliver to a PERSONAL or LOCATION pool")
	}
	if err := validateRoute(source, destination); err != nil {
		return nil, err
	}

	routed := make([]ItemInput, len(items))
	for idx, in := range items {
		in.From = source
		in.To = destination
		routed[idx] = in
	}
	return newRequest(RequestKindInventory, requesterID, notes, "", routed)
}

// NewWithdrawalRequest creates a request moving stock out of a location or a holder.
// Allowed routes are LOCATION to LOCATION, LOCATION to MAIN and PERSONAL to consumption.
func NewWithdrawalRequest(requesterID uuid.UUID, notes string, items []ItemInput) (*Request, error) {
	for idx, in := range items {
		if err := validateWithdrawalRoute(in.From, in.To); err != nil {
			return nil, fmt.Errorf("line %d: %w", idx+1, err)
		}
	}
	return newRequest(RequestKindWithdrawal, requesterID, notes, "", items)
}

// NewPurchaseRequest creates a request receiving stock into MAIN
func NewPurchaseRequest(requesterID uuid.UUID, supplier, notes string, items []ItemInput) (*Request, error) {
	routed := make([]ItemInput, len(items))
	for idx, in := range items {
		if in.BatchID == uuid.Nil {
			in.BatchNumber = strings.TrimSpace(in.BatchNumber)
			if in.BatchNumber == "" {
				return nil, shared.NewDomainErrorf(shared.CodeInvalidInput,
					"Line %d needs a batch or a batch number for a new batch", idx+1)
			}
		}
		if in.UnitCost.IsNegative() {
			return nil, shared.NewDomainErrorf(shared.CodeInvalidInput, "Line %d unit cost cannot be negative", idx+1)
		}
		in.From = Endpoint{}
		in.To = MainPool()
		routed[idx] = in
	}
	return newRequest(RequestKindPurchase, requesterID, notes, strings.TrimSpace(supplier), routed)
}

func newRequest(kind RequestKind, requesterID uuid.UUID, notes, supplier string, items []ItemInput) (*Request, error) {
	if requesterID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Requester ID cannot be empty")
	}
	if len(items) == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Request needs at least one line")
	}

	r := &Request{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Kind:              kind,
		RequesterID:       requesterID,
		Notes:             strings.TrimSpace(notes),
		Supplier:          supplier,
		Status:            ApprovalPending,
		Items:             make([]RequestItem, 0, len(items)),
	}
	r.Number = generateRequestNumber(kind, r.ID, r.CreatedAt)

	seen := make(map[string]int, len(items))
	for idx, in := range items {
		lineNo := idx + 1
		if err := validateItemInput(kind, in); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		sig := fmt.Sprintf("%s|%s|%s|%s|%s", in.ProductID, in.BatchID, in.BatchNumber, in.From, in.To)
		if prev, dup := seen[sig]; dup {
			return nil, shared.NewDomainErrorf(shared.CodeInvalidInput, "Line %d duplicates line %d", lineNo, prev)
		}
		seen[sig] = lineNo

		r.Items = append(r.Items, RequestItem{
			ID:                 uuid.New(),
			RequestID:          r.ID,
			LineNo:             lineNo,
			ProductID:          in.ProductID,
			BatchID:            in.BatchID,
			BatchNumber:        in.BatchNumber,
			ExpiryDate:         in.ExpiryDate,
			UnitCost:           in.UnitCost,
			UnitID:             in.UnitID,
			RequestedQuantity:  in.Quantity,
			ApprovedQuantity:   decimal.Zero,
			BaseQuantity:       decimal.Zero,
			IssuedQuantity:     decimal.Zero,
			IssuedBaseQuantity: decimal.Zero,
			From:               in.From,
			To:                 in.To,
			CreatedAt:          r.CreatedAt,
			UpdatedAt:          r.CreatedAt,
		})
	}

	r.AddDomainEvent(NewRequestCreatedEvent(r))
	return r, nil
}

func validateItemInput(kind RequestKind, in ItemInput) error {
	if in.ProductID == uuid.Nil {
		return shared.NewDomainError(shared.CodeInvalidInput, "Product ID cannot be empty")
	}
	if in.UnitID == uuid.Nil {
		return shared.NewDomainError(shared.CodeInvalidInput, "Unit ID cannot be empty")
	}
	if kind != RequestKindPurchase && in.BatchID == uuid.Nil {
		return shared.NewDomainError(shared.CodeInvalidInput, "Batch ID cannot be empty")
	}
	if !in.Quantity.IsPositive() {
		return shared.NewDomainError(shared.CodeInvalidQuantity, "Requested quantity must be positive")
	}
	return nil
}

func validateRoute(from, to Endpoint) error {
	if err := from.Validate(); err != nil {
		return err
	}
	if err := to.Validate(); err != nil {
		return err
	}
	if from == to {
		return shared.NewDomainError(shared.CodeInvalidInput, "Source and destination must differ")
	}
	return nil
}

func validateWithdrawalRoute(from, to Endpoint) error {
	switch {
	case from.Pool == PoolLocation && (to.Pool == PoolLocation || to.Pool == PoolMain):
		return validateRoute(from, to)
	case from.Pool == PoolPersonal && to.IsZero():
		return from.Validate()
	}
	return shared.NewDomainErrorf(shared.CodeInvalidInput, "Withdrawal route %s -> %s is not allowed", from, to).
		WithDetail("from", from.String()).
		WithDetail("to", to.String())
}

func generateRequestNumber(kind RequestKind, id uuid.UUID, at time.Time) string {
	return fmt.Sprintf("%s-%s-%s", kind.NumberPrefix(), at.Format("20060102"), strings.ToUpper(id.String()[:8]))
}

// StateMachine returns the state machine of the request kind
func (r *Request) StateMachine() StateMachine {
	m, _ := StateMachineFor(r.Kind)
	return m
}

// Item returns the line with the given ID
func (r *Request) Item(itemID uuid.UUID) (*RequestItem, error) {
	for idx := range r.Items {
		if r.Items[idx].ID == itemID {
			return &r.Items[idx], nil
		}
	}
	return nil, shared.NewDomainError(shared.CodeNotFound, "Request line not found").
		WithDetail("item_id", itemID.String())
}

// ActiveItems returns pointers to lines that were not declined
func (r *Request) ActiveItems() []*RequestItem {
	active := make([]*RequestItem, 0, len(r.Items))
	for idx := range r.Items {
		if !r.Items[idx].Declined {
			active = append(active, &r.Items[idx])
		}
	}
	return active
}

// PrepareApproval fixes the approved quantity of every line.
// An override must not exceed the requested quantity; an override of zero declines the line.
// Withdrawals also fix the issued quantity since approval issues them.
func (r *Request) PrepareApproval(overrides map[uuid.UUID]decimal.Decimal) error {
	m := r.StateMachine()
	if err := m.Check(r.Status, m.ApprovalTarget()); err != nil {
		return err
	}
	if err := r.checkOverrideKeys(overrides); err != nil {
		return err
	}

	approved := 0
	for idx := range r.Items {
		item := &r.Items[idx]
		qty := item.RequestedQuantity
		if override, ok := overrides[item.ID]; ok {
			if override.IsNegative() {
				return shared.NewDomainErrorf(shared.CodeInvalidQuantity, "Line %d override cannot be negative", item.LineNo)
			}
			if override.GreaterThan(item.RequestedQuantity) {
				return shared.NewDomainErrorf(shared.CodeInvalidQuantity,
					"Line %d override %s exceeds requested %s", item.LineNo, override, item.RequestedQuantity)
			}
			qty = override
		}
		item.ApprovedQuantity = qty
		item.Declined = qty.IsZero()
		if r.Kind == RequestKindWithdrawal {
			item.IssuedQuantity = qty
		}
		item.UpdatedAt = time.Now().UTC()
		if !item.Declined {
			approved++
		}
	}
	if approved == 0 {
		return shared.NewDomainError(shared.CodeInvalidInput, "Every line is declined, reject the request instead")
	}
	return nil
}

// PrepareIssue fixes the issued quantity of every approved line.
// An override must not exceed the approved quantity.
func (r *Request) PrepareIssue(overrides map[uuid.UUID]decimal.Decimal) error {
	if err := r.StateMachine().Check(r.Status, ApprovalIssued); err != nil {
		return err
	}
	if r.Status == ApprovalPending {
		return shared.NewDomainError(shared.CodeInvalidTransition, "Pending withdrawals are issued by approval")
	}
	if err := r.checkOverrideKeys(overrides); err != nil {
		return err
	}

	for idx := range r.Items {
		item := &r.Items[idx]
		qty := item.ApprovedQuantity
		if override, ok := overrides[item.ID]; ok {
			if item.Declined && !override.IsZero() {
				return shared.NewDomainErrorf(shared.CodeInvalidQuantity, "Line %d was declined at approval", item.LineNo)
			}
			if override.IsNegative() || override.GreaterThan(item.ApprovedQuantity) {
				return shared.NewDomainErrorf(shared.CodeInvalidQuantity,
					"Line %d override %s must be between 0 and approved %s", item.LineNo, override, item.ApprovedQuantity)
			}
			qty = override
		}
		item.IssuedQuantity = qty
		item.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (r *Request) checkOverrideKeys(overrides map[uuid.UUID]decimal.Decimal) error {
	for itemID := range overrides {
		if _, err := r.Item(itemID); err != nil {
			return shared.NewDomainError(shared.CodeInvalidInput, "Override references an unknown line").
				WithDetail("item_id", itemID.String())
		}
	}
	return nil
}

// Approve moves the request out of PENDING.
// Withdrawals land in ISSUED directly.
func (r *Request) Approve(approverID uuid.UUID) error {
	if approverID == uuid.Nil {
		return shared.NewDomainError(shared.CodeInvalidInput, "Approver ID cannot be empty")
	}
	m := r.StateMachine()
	target := m.ApprovalTarget()
	if err := m.Check(r.Status, target); err != nil {
		return err
	}

	now := time.Now().UTC()
	r.Status = target
	r.ApprovedBy = &approverID
	r.ApprovedAt = &now
	r.AddDomainEvent(NewRequestApprovedEvent(r, approverID))
	if target == ApprovalIssued {
		r.IssuedBy = &approverID
		r.IssuedAt = &now
		r.AddDomainEvent(NewRequestIssuedEvent(r, approverID))
	}
	r.IncrementVersion()
	return nil
}

// Reject closes a pending request without touching the ledger
func (r *Request) Reject(actorID uuid.UUID, reason string) error {
	if actorID == uuid.Nil {
		return shared.NewDomainError(shared.CodeInvalidInput, "Actor ID cannot be empty")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "Rejection reason cannot be empty")
	}
	if err := r.StateMachine().Check(r.Status, ApprovalRejected); err != nil {
		return err
	}

	now := time.Now().UTC()
	r.Status = ApprovalRejected
	r.RejectedBy = &actorID
	r.RejectedAt = &now
	r.RejectReason = reason
	r.AddDomainEvent(NewRequestRejectedEvent(r, actorID))
	r.IncrementVersion()
	return nil
}

// MarkIssued moves an approved request to ISSUED
func (r *Request) MarkIssued(issuerID uuid.UUID) error {
	if issuerID == uuid.Nil {
		return shared.NewDomainError(shared.CodeInvalidInput, "Issuer ID cannot be empty")
	}
	if err := r.StateMachine().Check(r.Status, ApprovalIssued); err != nil {
		return err
	}

	now := time.Now().UTC()
	r.Status = ApprovalIssued
	r.IssuedBy = &issuerID
	r.IssuedAt = &now
	r.AddDomainEvent(NewRequestIssuedEvent(r, issuerID))
	r.IncrementVersion()
	return nil
}

// IsTerminal reports whether the request can no longer change
func (r *Request) IsTerminal() bool {
	return r.StateMachine().IsTerminal(r.Status)
}
