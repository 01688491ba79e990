package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/clinicstock/backend/internal/domain/catalog"
	"github.com/clinicstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CorrectionStatus is the status of a manual stock correction
type CorrectionStatus string

const (
	CorrectionPending  CorrectionStatus = "PENDING"
	CorrectionApproved CorrectionStatus = "APPROVED"
	CorrectionRejected CorrectionStatus = "REJECTED"
)

// IsValid checks if the status is known
func (s CorrectionStatus) IsValid() bool {
	switch s {
	case CorrectionPending, CorrectionApproved, CorrectionRejected:
		return true
	}
	return false
}

// String returns the string representation of CorrectionStatus
func (s CorrectionStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s CorrectionStatus) CanTransitionTo(target CorrectionStatus) bool {
	if s == CorrectionPending {
		return target == CorrectionApproved || target == CorrectionRejected
	}
	return false
}

// CorrectionTarget is one requested line change with the ledger quantity read at submission
type CorrectionTarget struct {
	Key         StockKey
	OldQuantity decimal.Decimal
	NewQuantity decimal.Decimal
}

// CorrectionItem is a snapshot line of a correction
type CorrectionItem struct {
	ID           uuid.UUID
	CorrectionID uuid.UUID
	LineNo       int
	Target       StockKey
	OldQuantity  decimal.Decimal
	NewQuantity  decimal.Decimal
	Difference   decimal.Decimal // NewQuantity - OldQuantity at submission
	AppliedAt    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsApplied reports whether the difference already reached the ledger
func (i *CorrectionItem) IsApplied() bool {
	return i.AppliedAt != nil
}

// StockCorrection is an audited manual adjustment of ledger lines
type StockCorrection struct {
	shared.BaseAggregateRoot
	Reference    string
	Reason       string
	Status       CorrectionStatus
	CreatedBy    uuid.UUID
	ApprovedBy   *uuid.UUID
	ApprovedAt   *time.Time
	RejectedBy   *uuid.UUID
	RejectedAt   *time.Time
	RejectReason string
	Items        []CorrectionItem
}

// NewStockCorrection snapshots the requested changes; difference is fixed here and never recomputed.
// RESERVED lines belong to a reservation and are never corrected directly.
func NewStockCorrection(reference, reason string, createdBy uuid.UUID, targets []CorrectionTarget) (*StockCorrection, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Correction reference cannot be empty")
	}
	if len(reference) > 64 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Correction reference cannot exceed 64 characters")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Correction reason cannot be empty")
	}
	if createdBy == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Creator ID cannot be empty")
	}
	if len(targets) == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Correction needs at least one line")
	}

	c := &StockCorrection{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Reference:         reference,
		Reason:            reason,
		Status:            CorrectionPending,
		CreatedBy:         createdBy,
		Items:             make([]CorrectionItem, 0, len(targets)),
	}

	seen := make(map[StockKey]int, len(targets))
	for idx, t := range targets {
		lineNo := idx + 1
		if err := t.Key.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if t.Key.Status == StatusReserved {
			return nil, shared.NewDomainErrorf(shared.CodeInvalidInput, "Line %d targets reserved stock", lineNo).
				WithDetail("status", t.Key.Status.String())
		}
		newQty := t.NewQuantity.Round(catalog.QuantityScale)
		if newQty.IsNegative() || t.OldQuantity.IsNegative() {
			return nil, shared.NewDomainErrorf(shared.CodeInvalidQuantity, "Line %d quantities cannot be negative", lineNo)
		}
		if prev, dup := seen[t.Key]; dup {
			return nil, shared.NewDomainErrorf(shared.CodeInvalidInput, "Line %d targets the same stock line as line %d", lineNo, prev)
		}
		seen[t.Key] = lineNo

		c.Items = append(c.Items, CorrectionItem{
			ID:           uuid.New(),
			CorrectionID: c.ID,
			LineNo:       lineNo,
			Target:       t.Key,
			OldQuantity:  t.OldQuantity,
			NewQuantity:  newQty,
			Difference:   newQty.Sub(t.OldQuantity),
			CreatedAt:    c.CreatedAt,
			UpdatedAt:    c.CreatedAt,
		})
	}
	return c, nil
}

// Approve moves the correction to APPROVED; the caller then applies every line
func (c *StockCorrection) Approve(approverID uuid.UUID) error {
	if approverID == uuid.Nil {
		return shared.NewDomainError(shared.CodeInvalidInput, "Approver ID cannot be empty")
	}
	if !c.Status.CanTransitionTo(CorrectionApproved) {
		return shared.NewDomainErrorf(shared.CodeInvalidTransition, "Correction is already %s", c.Status).
			WithDetail("from", c.Status.String()).
			WithDetail("to", CorrectionApproved.String())
	}

	now := time.Now().UTC()
	c.Status = CorrectionApproved
	c.ApprovedBy = &approverID
	c.ApprovedAt = &now
	c.IncrementVersion()
	return nil
}

// MarkApplied records that a line's difference reached the ledger
func (c *StockCorrection) MarkApplied(itemID uuid.UUID, balance decimal.Decimal, actorID uuid.UUID) error {
	if c.Status != CorrectionApproved {
		return shared.NewDomainError(shared.CodeInvalidTransition, "Only approved corrections are applied")
	}
	for idx := range c.Items {
		item := &c.Items[idx]
		if item.ID != itemID {
			continue
		}
		if item.IsApplied() {
			return shared.NewDomainError(shared.CodeDoubleApplication, "Correction line already applied").
				WithDetail("item_id", item.ID.String())
		}
		now := time.Now().UTC()
		item.AppliedAt = &now
		item.UpdatedAt = now
		c.AddDomainEvent(NewStockAdjustedEvent(c, item, balance, actorID))
		return nil
	}
	return shared.NewDomainError(shared.CodeNotFound, "Correction line not found").
		WithDetail("item_id", itemID.String())
}

// Complete raises the applied event once every line reached the ledger
func (c *StockCorrection) Complete(actorID uuid.UUID) error {
	for idx := range c.Items {
		if !c.Items[idx].IsApplied() {
			return shared.NewDomainErrorf(shared.CodeInvalidTransition, "Line %d is not applied", c.Items[idx].LineNo)
		}
	}
	c.AddDomainEvent(NewCorrectionAppliedEvent(c, actorID))
	return nil
}

// Reject closes a pending correction without touching the ledger
func (c *StockCorrection) Reject(actorID uuid.UUID, reason string) error {
	if actorID == uuid.Nil {
		return shared.NewDomainError(shared.CodeInvalidInput, "Actor ID cannot be empty")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "Rejection reason cannot be empty")
	}
	if !c.Status.CanTransitionTo(CorrectionRejected) {
		return shared.NewDomainErrorf(shared.CodeInvalidTransition, "Correction is already %s", c.Status).
			WithDetail("from", c.Status.String()).
			WithDetail("to", CorrectionRejected.String())
	}

	now := time.Now().UTC()
	c.Status = CorrectionRejected
	c.RejectedBy = &actorID
	c.RejectedAt = &now
	c.RejectReason = reason
	c.AddDomainEvent(NewCorrectionRejectedEvent(c, actorID))
	c.IncrementVersion()
	return nil
}
