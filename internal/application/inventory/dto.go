package inventory

import (
	"time"

	"github.com/clinicstock/backend/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EndpointRequest names a custody holder in API requests
type EndpointRequest struct {
	Pool    string    `json:"pool" binding:"required,oneof=MAIN LOCATION PERSONAL"`
	OwnerID uuid.UUID `json:"owner_id"`
}

// ToEndpoint converts the request into a domain endpoint
func (e EndpointRequest) ToEndpoint() inventory.Endpoint {
	return inventory.Endpoint{Pool: inventory.PoolKind(e.Pool), OwnerID: e.OwnerID}
}

func optionalEndpoint(e *EndpointRequest) inventory.Endpoint {
	if e == nil {
		return inventory.Endpoint{}
	}
	return e.ToEndpoint()
}

// LineRequest is one requested line of an inventory request
type LineRequest struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	BatchID   uuid.UUID       `json:"batch_id" binding:"required"`
	UnitID    uuid.UUID       `json:"unit_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"decimal_gt0"`
}

// CreateInventoryRequest asks for stock from MAIN or a LOCATION.
// A nil destination delivers to the requester's personal pool.
type CreateInventoryRequest struct {
	Source      EndpointRequest  `json:"source" binding:"required"`
	Destination *EndpointRequest `json:"destination"`
	Notes       string           `json:"notes" binding:"max=500"`
	Items       []LineRequest    `json:"items" binding:"required,min=1,dive"`
}

// WithdrawalLineRequest is one line of a withdrawal; a nil To consumes the stock
type WithdrawalLineRequest struct {
	LineRequest
	From EndpointRequest  `json:"from" binding:"required"`
	To   *EndpointRequest `json:"to"`
}

// CreateWithdrawalRequest moves stock out of a location or a holder
type CreateWithdrawalRequest struct {
	Notes string                  `json:"notes" binding:"max=500"`
	Items []WithdrawalLineRequest `json:"items" binding:"required,min=1,dive"`
}

// PurchaseLineRequest is one received line; without a batch id the batch is created on posting
type PurchaseLineRequest struct {
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	BatchID     *uuid.UUID      `json:"batch_id"`
	BatchNumber string          `json:"batch_number" binding:"max=64"`
	ExpiryDate  *time.Time      `json:"expiry_date"`
	UnitCost    decimal.Decimal `json:"unit_cost" binding:"decimal_gte0"`
	UnitID      uuid.UUID       `json:"unit_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"decimal_gt0"`
}

// CreatePurchaseRequest receives stock into MAIN
type CreatePurchaseRequest struct {
	Supplier string                `json:"supplier" binding:"max=200"`
	Notes    string                `json:"notes" binding:"max=500"`
	Items    []PurchaseLineRequest `json:"items" binding:"required,min=1,dive"`
}

// LineOverride replaces the quantity of one line at approval or issue; zero declines it
type LineOverride struct {
	ItemID   uuid.UUID       `json:"item_id" binding:"required"`
	Quantity decimal.Decimal `json:"quantity" binding:"decimal_gte0"`
}

// TransitionRequest carries the optional per-line overrides of approve and issue
type TransitionRequest struct {
	Lines []LineOverride `json:"lines" binding:"dive"`
}

// Overrides indexes the overrides by line
func (r TransitionRequest) Overrides() map[uuid.UUID]decimal.Decimal {
	if len(r.Lines) == 0 {
		return nil
	}
	out := make(map[uuid.UUID]decimal.Decimal, len(r.Lines))
	for _, l := range r.Lines {
		out[l.ItemID] = l.Quantity
	}
	return out
}

// RejectRequest carries the rejection reason
type RejectRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// RequestItemResponse represents a request line in API responses
type RequestItemResponse struct {
	ID                 uuid.UUID          `json:"id"`
	LineNo             int                `json:"line_no"`
	ProductID          uuid.UUID          `json:"product_id"`
	BatchID            *uuid.UUID         `json:"batch_id,omitempty"`
	BatchNumber        string             `json:"batch_number,omitempty"`
	UnitID             uuid.UUID          `json:"unit_id"`
	RequestedQuantity  decimal.Decimal    `json:"requested_quantity"`
	ApprovedQuantity   decimal.Decimal    `json:"approved_quantity"`
	BaseQuantity       decimal.Decimal    `json:"base_quantity"`
	IssuedQuantity     decimal.Decimal    `json:"issued_quantity"`
	IssuedBaseQuantity decimal.Decimal    `json:"issued_base_quantity"`
	From               inventory.Endpoint `json:"from"`
	To                 inventory.Endpoint `json:"to"`
	Consumption        bool               `json:"consumption"`
	ReservationID      *uuid.UUID         `json:"reservation_id,omitempty"`
	Declined           bool               `json:"declined"`
}

// RequestResponse represents a request in API responses.
// Warnings list expired batches let through by the warn policy.
type RequestResponse struct {
	ID           uuid.UUID             `json:"id"`
	Number       string                `json:"number"`
	Kind         string                `json:"kind"`
	Status       string                `json:"status"`
	RequesterID  uuid.UUID             `json:"requester_id"`
	Supplier     string                `json:"supplier,omitempty"`
	Notes        string                `json:"notes,omitempty"`
	ApprovedBy   *uuid.UUID            `json:"approved_by,omitempty"`
	ApprovedAt   *time.Time            `json:"approved_at,omitempty"`
	RejectedBy   *uuid.UUID            `json:"rejected_by,omitempty"`
	RejectedAt   *time.Time            `json:"rejected_at,omitempty"`
	RejectReason string                `json:"reject_reason,omitempty"`
	IssuedBy     *uuid.UUID            `json:"issued_by,omitempty"`
	IssuedAt     *time.Time            `json:"issued_at,omitempty"`
	Items        []RequestItemResponse `json:"items"`
	Warnings     []string              `json:"warnings,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
	Version      int                   `json:"version"`
}

// ToRequestResponse converts a domain Request to RequestResponse
func ToRequestResponse(r *inventory.Request) RequestResponse {
	resp := RequestResponse{
		ID:           r.ID,
		Number:       r.Number,
		Kind:         r.Kind.String(),
		Status:       r.Status.String(),
		RequesterID:  r.RequesterID,
		Supplier:     r.Supplier,
		Notes:        r.Notes,
		ApprovedBy:   r.ApprovedBy,
		ApprovedAt:   r.ApprovedAt,
		RejectedBy:   r.RejectedBy,
		RejectedAt:   r.RejectedAt,
		RejectReason: r.RejectReason,
		IssuedBy:     r.IssuedBy,
		IssuedAt:     r.IssuedAt,
		Items:        make([]RequestItemResponse, len(r.Items)),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		Version:      r.Version,
	}
	for i := range r.Items {
		item := &r.Items[i]
		line := RequestItemResponse{
			ID:                 item.ID,
			LineNo:             item.LineNo,
			ProductID:          item.ProductID,
			BatchNumber:        item.BatchNumber,
			UnitID:             item.UnitID,
			RequestedQuantity:  item.RequestedQuantity,
			ApprovedQuantity:   item.ApprovedQuantity,
			BaseQuantity:       item.BaseQuantity,
			IssuedQuantity:     item.IssuedQuantity,
			IssuedBaseQuantity: item.IssuedBaseQuantity,
			From:               item.From,
			To:                 item.To,
			Consumption:        r.Kind == inventory.RequestKindWithdrawal && item.IsConsumption(),
			ReservationID:      item.ReservationID,
			Declined:           item.Declined,
		}
		if item.HasBatch() {
			id := item.BatchID
			line.BatchID = &id
		}
		resp.Items[i] = line
	}
	return resp
}

// StockLineResponse represents a ledger line in API responses
type StockLineResponse struct {
	inventory.StockKey
	Quantity  decimal.Decimal `json:"quantity"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// MovementResponse represents a journal entry in API responses
type MovementResponse struct {
	ID uuid.UUID `json:"id"`
	inventory.StockKey
	Delta       decimal.Decimal          `json:"delta"`
	Balance     decimal.Decimal          `json:"balance"`
	Reason      inventory.MovementReason `json:"reason"`
	ReferenceID uuid.UUID                `json:"reference_id"`
	ActorID     uuid.UUID                `json:"actor_id"`
	CreatedAt   time.Time                `json:"created_at"`
}

// QuantityResponse answers a single-line quantity lookup
type QuantityResponse struct {
	inventory.StockKey
	Quantity decimal.Decimal `json:"quantity"`
}

// HoldingItemResponse represents a holding line in API responses
type HoldingItemResponse struct {
	ID            uuid.UUID       `json:"id"`
	RequestItemID uuid.UUID       `json:"request_item_id"`
	ProductID     uuid.UUID       `json:"product_id"`
	BatchID       uuid.UUID       `json:"batch_id"`
	UnitID        uuid.UUID       `json:"unit_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	BaseQuantity  decimal.Decimal `json:"base_quantity"`
	Withdrawn     decimal.Decimal `json:"withdrawn"`
	Outstanding   decimal.Decimal `json:"outstanding"`
	Status        string          `json:"status"`
	ResolvedBy    *uuid.UUID      `json:"resolved_by,omitempty"`
	ResolvedAt    *time.Time      `json:"resolved_at,omitempty"`
	Note          string          `json:"note,omitempty"`
}

// HoldingResponse represents a stock holding in API responses
type HoldingResponse struct {
	ID        uuid.UUID             `json:"id"`
	RequestID uuid.UUID             `json:"request_id"`
	Holder    inventory.Endpoint    `json:"holder"`
	Source    inventory.Endpoint    `json:"source"`
	IssuedBy  uuid.UUID             `json:"issued_by"`
	IssuedAt  time.Time             `json:"issued_at"`
	Items     []HoldingItemResponse `json:"items"`
	Version   int                   `json:"version"`
}

// ToHoldingResponse converts a domain StockHolding to HoldingResponse
func ToHoldingResponse(h *inventory.StockHolding) HoldingResponse {
	resp := HoldingResponse{
		ID:        h.ID,
		RequestID: h.RequestID,
		Holder:    h.Holder,
		Source:    h.Source,
		IssuedBy:  h.IssuedBy,
		IssuedAt:  h.IssuedAt,
		Items:     make([]HoldingItemResponse, len(h.Items)),
		Version:   h.Version,
	}
	for i, item := range h.Items {
		resp.Items[i] = HoldingItemResponse{
			ID:            item.ID,
			RequestItemID: item.RequestItemID,
			ProductID:     item.ProductID,
			BatchID:       item.BatchID,
			UnitID:        item.UnitID,
			Quantity:      item.Quantity,
			BaseQuantity:  item.BaseQuantity,
			Withdrawn:     item.Withdrawn,
			Outstanding:   item.Outstanding(),
			Status:        item.Status.String(),
			ResolvedBy:    item.ResolvedBy,
			ResolvedAt:    item.ResolvedAt,
			Note:          item.Note,
		}
	}
	return resp
}

// ResolveHoldingItemRequest carries the note recorded when a holding item is returned or lost
type ResolveHoldingItemRequest struct {
	Note string `json:"note" binding:"max=500"`
}

// ReconciliationResponse compares each holding line with its journal entries
type ReconciliationResponse struct {
	HoldingID uuid.UUID                      `json:"holding_id"`
	Balanced  bool                           `json:"balanced"`
	Items     []inventory.ItemReconciliation `json:"items"`
}

// CorrectionLineRequest targets one ledger line with its counted quantity
type CorrectionLineRequest struct {
	Pool        string          `json:"pool" binding:"required,oneof=MAIN LOCATION PERSONAL"`
	OwnerID     uuid.UUID       `json:"owner_id"`
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	BatchID     uuid.UUID       `json:"batch_id" binding:"required"`
	Status      string          `json:"status" binding:"omitempty,oneof=ACTIVE DAMAGED RETURNED LOST"`
	NewQuantity decimal.Decimal `json:"new_quantity" binding:"decimal_gte0"`
}

// Key returns the ledger line the correction targets; status defaults to ACTIVE
func (l CorrectionLineRequest) Key() inventory.StockKey {
	status := inventory.StockStatus(l.Status)
	if status == "" {
		status = inventory.StatusActive
	}
	return inventory.Endpoint{Pool: inventory.PoolKind(l.Pool), OwnerID: l.OwnerID}.Key(l.ProductID, l.BatchID, status)
}

// CreateCorrectionRequest submits a manual correction
type CreateCorrectionRequest struct {
	Reference string                  `json:"reference" binding:"required,min=1,max=64"`
	Reason    string                  `json:"reason" binding:"required,min=1,max=500"`
	Items     []CorrectionLineRequest `json:"items" binding:"required,min=1,dive"`
}

// CorrectionItemResponse represents a correction line in API responses
type CorrectionItemResponse struct {
	ID          uuid.UUID          `json:"id"`
	LineNo      int                `json:"line_no"`
	Target      inventory.StockKey `json:"target"`
	OldQuantity decimal.Decimal    `json:"old_quantity"`
	NewQuantity decimal.Decimal    `json:"new_quantity"`
	Difference  decimal.Decimal    `json:"difference"`
	AppliedAt   *time.Time         `json:"applied_at,omitempty"`
}

// CorrectionResponse represents a manual correction in API responses
type CorrectionResponse struct {
	ID           uuid.UUID                `json:"id"`
	Reference    string                   `json:"reference"`
	Reason       string                   `json:"reason"`
	Status       string                   `json:"status"`
	CreatedBy    uuid.UUID                `json:"created_by"`
	ApprovedBy   *uuid.UUID               `json:"approved_by,omitempty"`
	ApprovedAt   *time.Time               `json:"approved_at,omitempty"`
	RejectedBy   *uuid.UUID               `json:"rejected_by,omitempty"`
	RejectedAt   *time.Time               `json:"rejected_at,omitempty"`
	RejectReason string                   `json:"reject_reason,omitempty"`
	Items        []CorrectionItemResponse `json:"items"`
	CreatedAt    time.Time                `json:"created_at"`
	Version      int                      `json:"version"`
}

// ToCorrectionResponse converts a domain StockCorrection to CorrectionResponse
func ToCorrectionResponse(c *inventory.StockCorrection) CorrectionResponse {
	resp := CorrectionResponse{
		ID:           c.ID,
		Reference:    c.Reference,
		Reason:       c.Reason,
		Status:       c.Status.String(),
		CreatedBy:    c.CreatedBy,
		ApprovedBy:   c.ApprovedBy,
		ApprovedAt:   c.ApprovedAt,
		RejectedBy:   c.RejectedBy,
		RejectedAt:   c.RejectedAt,
		RejectReason: c.RejectReason,
		Items:        make([]CorrectionItemResponse, len(c.Items)),
		CreatedAt:    c.CreatedAt,
		Version:      c.Version,
	}
	for i, item := range c.Items {
		resp.Items[i] = CorrectionItemResponse{
			ID:          item.ID,
			LineNo:      item.LineNo,
			Target:      item.Target,
			OldQuantity: item.OldQuantity,
			NewQuantity: item.NewQuantity,
			Difference:  item.Difference,
			AppliedAt:   item.AppliedAt,
		}
	}
	return resp
}
