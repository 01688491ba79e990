package inventory

import (
	"strings"
	"time"

	"github.com/clinicstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HoldingItemStatus is the custody state of an issued line
type HoldingItemStatus string

const (
	HoldingItemActive    HoldingItemStatus = "ACTIVE"
	HoldingItemReturned  HoldingItemStatus = "RETURNED"
	HoldingItemLost      HoldingItemStatus = "LOST"
	HoldingItemWithdrawn HoldingItemStatus = "WITHDRAWN" // drawn down in full by withdrawals
)

// IsValid checks if the status is known
func (s HoldingItemStatus) IsValid() bool {
	switch s {
	case HoldingItemActive, HoldingItemReturned, HoldingItemLost, HoldingItemWithdrawn:
		return true
	}
	return false
}

// String returns the string representation of HoldingItemStatus
func (s HoldingItemStatus) String() string {
	return string(s)
}

// HoldingItem snapshots one issued request line
type HoldingItem struct {
	ID            uuid.UUID
	HoldingID     uuid.UUID
	RequestItemID uuid.UUID
	ProductID     uuid.UUID
	BatchID       uuid.UUID
	UnitID        uuid.UUID
	Quantity      decimal.Decimal
	BaseQuantity  decimal.Decimal
	Withdrawn     decimal.Decimal
	Status        HoldingItemStatus
	ResolvedBy    *uuid.UUID
	ResolvedAt    *time.Time
	Note          string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsActive reports whether the holder still has custody of the line
func (i *HoldingItem) IsActive() bool {
	return i.Status == HoldingItemActive
}

// Outstanding is the base quantity still held once withdrawals are taken out
func (i *HoldingItem) Outstanding() decimal.Decimal {
	return i.BaseQuantity.Sub(i.Withdrawn)
}

// StockHolding is the custody record created when an inventory request is issued
type StockHolding struct {
	shared.BaseAggregateRoot
	RequestID uuid.UUID
	Holder    Endpoint
	Source    Endpoint
	IssuedBy  uuid.UUID
	IssuedAt  time.Time
	Items     []HoldingItem
}

// NewStockHolding builds a holding from the issued lines of an inventory request
func NewStockHolding(req *Request, issuerID uuid.UUID) (*StockHolding, error) {
	if req.Kind != RequestKindInventory {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Only inventory requests create holdings")
	}

	h := &StockHolding{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		RequestID:         req.ID,
		IssuedBy:          issuerID,
		IssuedAt:          time.Now().UTC(),
		Items:             make([]HoldingItem, 0, len(req.Items)),
	}

	for _, line := range req.Items {
		if line.Declined || !line.IssuedBaseQuantity.IsPositive() {
			continue
		}
		if h.Holder.IsZero() {
			h.Holder = line.To
			h.Source = line.From
		}
		h.Items = append(h.Items, HoldingItem{
			ID:            uuid.New(),
			HoldingID:     h.ID,
			RequestItemID: line.ID,
			ProductID:     line.ProductID,
			BatchID:       line.BatchID,
			UnitID:        line.UnitID,
			Quantity:      line.IssuedQuantity,
			BaseQuantity:  line.IssuedBaseQuantity,
			Status:        HoldingItemActive,
			CreatedAt:     h.CreatedAt,
			UpdatedAt:     h.CreatedAt,
		})
	}
	if len(h.Items) == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "No line was issued")
	}
	return h, nil
}

// Item returns the holding line with the given ID
func (h *StockHolding) Item(itemID uuid.UUID) (*HoldingItem, error) {
	for idx := range h.Items {
		if h.Items[idx].ID == itemID {
			return &h.Items[idx], nil
		}
	}
	return nil, shared.NewDomainError(shared.CodeNotFound, "Holding item not found").
		WithDetail("item_id", itemID.String())
}

// HasActiveItems reports whether any line is still held
func (h *StockHolding) HasActiveItems() bool {
	for idx := range h.Items {
		if h.Items[idx].IsActive() {
			return true
		}
	}
	return false
}

// Resolve closes a held line as RETURNED or LOST.
// A line is resolved once; a second attempt is DOUBLE_APPLICATION.
func (h *StockHolding) Resolve(itemID uuid.UUID, status HoldingItemStatus, actorID uuid.UUID, note string) (*HoldingItem, error) {
	if status != HoldingItemReturned && status != HoldingItemLost {
		return nil, shared.NewDomainErrorf(shared.CodeInvalidInput, "Holding item cannot be resolved as %s", status)
	}
	if actorID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Actor ID cannot be empty")
	}
	item, err := h.Item(itemID)
	if err != nil {
		return nil, err
	}
	if !item.IsActive() {
		return nil, shared.NewDomainErrorf(shared.CodeDoubleApplication, "Holding item is already %s", item.Status).
			WithDetail("item_id", item.ID.String())
	}

	now := time.Now().UTC()
	item.Status = status
	item.ResolvedBy = &actorID
	item.ResolvedAt = &now
	item.Note = strings.TrimSpace(note)
	item.UpdatedAt = now

	switch status {
	case HoldingItemReturned:
		h.AddDomainEvent(NewHoldingItemReturnedEvent(h, item, actorID))
	case HoldingItemLost:
		h.AddDomainEvent(NewHoldingItemLostEvent(h, item, actorID))
	}
	h.IncrementVersion()
	return item, nil
}

// DrawDown attributes qty withdrawn from the holder's pool to the active lines of
// (product, batch), oldest first. A line drawn to zero becomes WITHDRAWN.
// It returns the part of qty no line could absorb.
func (h *StockHolding) DrawDown(productID, batchID uuid.UUID, qty decimal.Decimal, actorID uuid.UUID) decimal.Decimal {
	remaining := qty
	now := time.Now().UTC()
	changed := false
	for idx := range h.Items {
		if !remaining.IsPositive() {
			break
		}
		item := &h.Items[idx]
		if !item.IsActive() || item.ProductID != productID || item.BatchID != batchID {
			continue
		}
		take := decimal.Min(remaining, item.Outstanding())
		if !take.IsPositive() {
			continue
		}
		item.Withdrawn = item.Withdrawn.Add(take)
		item.UpdatedAt = now
		if !item.Outstanding().IsPositive() {
			item.Status = HoldingItemWithdrawn
			item.ResolvedBy = &actorID
			item.ResolvedAt = &now
		}
		remaining = remaining.Sub(take)
		changed = true
	}
	if changed {
		h.IncrementVersion()
	}
	return remaining
}

// ItemReconciliation compares a holding line with the journal entries recorded for it
type ItemReconciliation struct {
	ItemID       uuid.UUID       `json:"item_id"`
	Status       string          `json:"status"`
	BaseQuantity decimal.Decimal `json:"base_quantity"`
	Issued       decimal.Decimal `json:"issued"`
	Resolved     decimal.Decimal `json:"resolved"`
	Withdrawn    decimal.Decimal `json:"withdrawn"`
	Outstanding  decimal.Decimal `json:"outstanding"`
	Balanced     bool            `json:"balanced"`
}

// Reconcile checks one line against the holder's ACTIVE journal.
// Issue credits reference the request line, return and loss debits reference the holding line.
// Withdrawals are journaled against their own request lines and counted from the item.
func (h *StockHolding) Reconcile(item *HoldingItem, movements []StockMovement) ItemReconciliation {
	held := h.Holder.Key(item.ProductID, item.BatchID, StatusActive)
	issued := decimal.Zero
	resolved := decimal.Zero
	for _, mv := range movements {
		if mv.StockKey != held {
			continue
		}
		switch mv.ReferenceID {
		case item.RequestItemID:
			issued = issued.Add(mv.Delta)
		case item.ID:
			resolved = resolved.Sub(mv.Delta)
		}
	}

	expectedResolved := decimal.Zero
	if !item.IsActive() {
		expectedResolved = item.Outstanding()
	}
	return ItemReconciliation{
		ItemID:       item.ID,
		Status:       item.Status.String(),
		BaseQuantity: item.BaseQuantity,
		Issued:       issued,
		Resolved:     resolved,
		Withdrawn:    item.Withdrawn,
		Outstanding:  issued.Sub(resolved).Sub(item.Withdrawn),
		Balanced:     issued.Equal(item.BaseQuantity) && resolved.Equal(expectedResolved),
	}
}
