package inventory

import (
	"github.com/clinicstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeRequestCreated      = "RequestCreated"
	EventTypeRequestApproved     = "RequestApproved"
	EventTypeRequestRejected     = "RequestRejected"
	EventTypeRequestIssued       = "RequestIssued"
	EventTypeHoldingItemReturned = "HoldingItemReturned"
	EventTypeHoldingItemLost     = "HoldingItemLost"
	EventTypeCorrectionApplied   = "CorrectionApplied"
	EventTypeCorrectionRejected  = "CorrectionRejected"
	EventTypeStockAdjusted       = "StockAdjusted"
)

// Aggregate types
const (
	AggregateTypeRequest    = "Request"
	AggregateTypeHolding    = "StockHolding"
	AggregateTypeCorrection = "StockCorrection"
)

// RequestLineSummary is the event view of a request line
type RequestLineSummary struct {
	ItemID       uuid.UUID       `json:"item_id"`
	ProductID    uuid.UUID       `json:"product_id"`
	BatchID      uuid.UUID       `json:"batch_id"`
	From         string          `json:"from,omitempty"`
	To           string          `json:"to,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	BaseQuantity decimal.Decimal `json:"base_quantity"`
}

// RequestCreatedEvent is raised when a request is submitted
type RequestCreatedEvent struct {
	shared.BaseDomainEvent
	RequestID uuid.UUID   `json:"request_id"`
	Number    string      `json:"number"`
	Kind      RequestKind `json:"kind"`
	LineCount int         `json:"line_count"`
}

// NewRequestCreatedEvent creates a RequestCreatedEvent
func NewRequestCreatedEvent(r *Request) *RequestCreatedEvent {
	return &RequestCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRequestCreated, AggregateTypeRequest, r.ID, r.RequesterID),
		RequestID:       r.ID,
		Number:          r.Number,
		Kind:            r.Kind,
		LineCount:       len(r.Items),
	}
}

// RequestApprovedEvent is raised when a request leaves PENDING by approval
type RequestApprovedEvent struct {
	shared.BaseDomainEvent
	RequestID uuid.UUID            `json:"request_id"`
	Number    string               `json:"number"`
	Kind      RequestKind          `json:"kind"`
	Lines     []RequestLineSummary `json:"lines"`
}

// NewRequestApprovedEvent creates a RequestApprovedEvent
func NewRequestApprovedEvent(r *Request, approverID uuid.UUID) *RequestApprovedEvent {
	lines := make([]RequestLineSummary, 0, len(r.Items))
	for _, item := range r.Items {
		if item.Declined {
			continue
		}
		lines = append(lines, summarize(item, item.ApprovedQuantity, item.BaseQuantity))
	}
	return &RequestApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRequestApproved, AggregateTypeRequest, r.ID, approverID),
		RequestID:       r.ID,
		Number:          r.Number,
		Kind:            r.Kind,
		Lines:           lines,
	}
}

// RequestRejectedEvent is raised when a pending request is rejected
type RequestRejectedEvent struct {
	shared.BaseDomainEvent
	RequestID uuid.UUID   `json:"request_id"`
	Number    string      `json:"number"`
	Kind      RequestKind `json:"kind"`
	Reason    string      `json:"reason"`
}

// NewRequestRejectedEvent creates a RequestRejectedEvent
func NewRequestRejectedEvent(r *Request, actorID uuid.UUID) *RequestRejectedEvent {
	return &RequestRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRequestRejected, AggregateTypeRequest, r.ID, actorID),
		RequestID:       r.ID,
		Number:          r.Number,
		Kind:            r.Kind,
		Reason:          r.RejectReason,
	}
}

// RequestIssuedEvent is raised when stock of a request actually moved
type RequestIssuedEvent struct {
	shared.BaseDomainEvent
	RequestID uuid.UUID            `json:"request_id"`
	Number    string               `json:"number"`
	Kind      RequestKind          `json:"kind"`
	Lines     []RequestLineSummary `json:"lines"`
}

// NewRequestIssuedEvent creates a RequestIssuedEvent
func NewRequestIssuedEvent(r *Request, issuerID uuid.UUID) *RequestIssuedEvent {
	lines := make([]RequestLineSummary, 0, len(r.Items))
	for _, item := range r.Items {
		if item.Declined || !item.IssuedQuantity.IsPositive() {
			continue
		}
		lines = append(lines, summarize(item, item.IssuedQuantity, item.IssuedBaseQuantity))
	}
	return &RequestIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRequestIssued, AggregateTypeRequest, r.ID, issuerID),
		RequestID:       r.ID,
		Number:          r.Number,
		Kind:            r.Kind,
		Lines:           lines,
	}
}

func summarize(item RequestItem, qty, base decimal.Decimal) RequestLineSummary {
	s := RequestLineSummary{
		ItemID:       item.ID,
		ProductID:    item.ProductID,
		BatchID:      item.BatchID,
		Quantity:     qty,
		BaseQuantity: base,
	}
	if !item.From.IsZero() {
		s.From = item.From.String()
	}
	if !item.To.IsZero() {
		s.To = item.To.String()
	}
	return s
}

// HoldingItemResolvedEvent is the payload shared by return and loss events
type HoldingItemResolvedEvent struct {
	shared.BaseDomainEvent
	HoldingID    uuid.UUID       `json:"holding_id"`
	ItemID       uuid.UUID       `json:"item_id"`
	ProductID    uuid.UUID       `json:"product_id"`
	BatchID      uuid.UUID       `json:"batch_id"`
	Holder       string          `json:"holder"`
	BaseQuantity decimal.Decimal `json:"base_quantity"`
	Note         string          `json:"note,omitempty"`
}

// HoldingItemReturnedEvent is raised when held stock goes back to its source pool
type HoldingItemReturnedEvent struct {
	HoldingItemResolvedEvent
}

// HoldingItemLostEvent is raised when held stock is written off
type HoldingItemLostEvent struct {
	HoldingItemResolvedEvent
}

func newHoldingItemResolvedEvent(eventType string, h *StockHolding, item *HoldingItem, actorID uuid.UUID) HoldingItemResolvedEvent {
	return HoldingItemResolvedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeHolding, h.ID, actorID),
		HoldingID:       h.ID,
		ItemID:          item.ID,
		ProductID:       item.ProductID,
		BatchID:         item.BatchID,
		Holder:          h.Holder.String(),
		BaseQuantity:    item.BaseQuantity,
		Note:            item.Note,
	}
}

// NewHoldingItemReturnedEvent creates a HoldingItemReturnedEvent
func NewHoldingItemReturnedEvent(h *StockHolding, item *HoldingItem, actorID uuid.UUID) *HoldingItemReturnedEvent {
	return &HoldingItemReturnedEvent{newHoldingItemResolvedEvent(EventTypeHoldingItemReturned, h, item, actorID)}
}

// NewHoldingItemLostEvent creates a HoldingItemLostEvent
func NewHoldingItemLostEvent(h *StockHolding, item *HoldingItem, actorID uuid.UUID) *HoldingItemLostEvent {
	return &HoldingItemLostEvent{newHoldingItemResolvedEvent(EventTypeHoldingItemLost, h, item, actorID)}
}

// StockAdjustedEvent is raised for each correction line applied to the ledger
type StockAdjustedEvent struct {
	shared.BaseDomainEvent
	CorrectionID uuid.UUID       `json:"correction_id"`
	ItemID       uuid.UUID       `json:"item_id"`
	Key          StockKey        `json:"key"`
	Difference   decimal.Decimal `json:"difference"`
	Balance      decimal.Decimal `json:"balance"`
}

// NewStockAdjustedEvent creates a StockAdjustedEvent
func NewStockAdjustedEvent(c *StockCorrection, item *CorrectionItem, balance decimal.Decimal, actorID uuid.UUID) *StockAdjustedEvent {
	return &StockAdjustedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockAdjusted, AggregateTypeCorrection, c.ID, actorID),
		CorrectionID:    c.ID,
		ItemID:          item.ID,
		Key:             item.Target,
		Difference:      item.Difference,
		Balance:         balance,
	}
}

// CorrectionAppliedEvent is raised once every line of an approved correction reached the ledger
type CorrectionAppliedEvent struct {
	shared.BaseDomainEvent
	CorrectionID uuid.UUID `json:"correction_id"`
	Reference    string    `json:"reference"`
	LineCount    int       `json:"line_count"`
}

// NewCorrectionAppliedEvent creates a CorrectionAppliedEvent
func NewCorrectionAppliedEvent(c *StockCorrection, actorID uuid.UUID) *CorrectionAppliedEvent {
	return &CorrectionAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCorrectionApplied, AggregateTypeCorrection, c.ID, actorID),
		CorrectionID:    c.ID,
		Reference:       c.Reference,
		LineCount:       len(c.Items),
	}
}

// CorrectionRejectedEvent is raised when a correction is rejected
type CorrectionRejectedEvent struct {
	shared.BaseDomainEvent
	CorrectionID uuid.UUID `json:"correction_id"`
	Reference    string    `json:"reference"`
	Reason       string    `json:"reason"`
}

// NewCorrectionRejectedEvent creates a CorrectionRejectedEvent
func NewCorrectionRejectedEvent(c *StockCorrection, actorID uuid.UUID) *CorrectionRejectedEvent {
	return &CorrectionRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCorrectionRejected, AggregateTypeCorrection, c.ID, actorID),
		CorrectionID:    c.ID,
		Reference:       c.Reference,
		Reason:          c.RejectReason,
	}
}
