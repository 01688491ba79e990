package inventory

import (
	"context"

	"github.com/clinicstock/backend/internal/domain/inventory"
	"github.com/clinicstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HoldingService resolves custody of issued stock
type HoldingService struct {
	scope     TransactionScope
	holdings  inventory.HoldingRepository
	ledger    inventory.StockLedger
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewHoldingService creates a new HoldingService
func NewHoldingService(
	scope TransactionScope,
	holdings inventory.HoldingRepository,
	ledger inventory.StockLedger,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *HoldingService {
	return &HoldingService{
		scope:     scope,
		holdings:  holdings,
		ledger:    ledger,
		publisher: publisher,
		logger:    logger,
	}
}

// MarkReturned moves what is still held of a line back to the pool it was issued from
func (s *HoldingService) MarkReturned(ctx context.Context, itemID, actorID uuid.UUID, req ResolveHoldingItemRequest) (*HoldingResponse, error) {
	return s.resolve(ctx, itemID, actorID, inventory.HoldingItemReturned, req.Note)
}

// MarkLost moves a held line to the holder's LOST line; no ACTIVE pool is credited
func (s *HoldingService) MarkLost(ctx context.Context, itemID, actorID uuid.UUID, req ResolveHoldingItemRequest) (*HoldingResponse, error) {
	return s.resolve(ctx, itemID, actorID, inventory.HoldingItemLost, req.Note)
}

func (s *HoldingService) resolve(ctx context.Context, itemID, actorID uuid.UUID, status inventory.HoldingItemStatus, note string) (*HoldingResponse, error) {
	var h *inventory.StockHolding
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		h, err = repos.Holdings().FindByItemID(ctx, itemID)
		if err != nil {
			return err
		}
		item, err := h.Resolve(itemID, status, actorID, note)
		if err != nil {
			return err
		}

		cmd := inventory.MoveCommand{
			From:      h.Holder,
			ProductID: item.ProductID,
			BatchID:   item.BatchID,
			Quantity:  item.Outstanding(),
			Meta:      inventory.MovementMeta{ReferenceID: item.ID, ActorID: actorID},
		}
		switch status {
		case inventory.HoldingItemReturned:
			cmd.To = h.Source
			cmd.Meta.Reason = inventory.ReasonReturn
		case inventory.HoldingItemLost:
			cmd.To = h.Holder
			cmd.ToStatus = inventory.StatusLost
			cmd.Meta.Reason = inventory.ReasonLoss
		}
		ledger := inventory.NewLedgerService(repos.Ledger(), repos.Reservations())
		if _, err := ledger.Move(ctx, cmd); err != nil {
			return err
		}
		return repos.Holdings().SaveWithLock(ctx, h)
	})
	if err != nil {
		return nil, s.resolveError(ctx, itemID, err)
	}

	s.logger.Info("Holding item resolved",
		zap.String("holding_id", h.ID.String()),
		zap.String("item_id", itemID.String()),
		zap.String("status", status.String()),
	)
	s.publish(ctx, h)
	resp := ToHoldingResponse(h)
	return &resp, nil
}

// resolveError answers DOUBLE_APPLICATION when a concurrent resolution of the same line won
func (s *HoldingService) resolveError(ctx context.Context, itemID uuid.UUID, err error) error {
	if !shared.IsDomainError(err, shared.CodeConcurrencyConflict) {
		return err
	}
	h, findErr := s.holdings.FindByItemID(ctx, itemID)
	if findErr != nil {
		return err
	}
	item, findErr := h.Item(itemID)
	if findErr == nil && !item.IsActive() {
		return shared.NewDomainErrorf(shared.CodeDoubleApplication, "Holding item is already %s", item.Status).
			WithDetail("item_id", itemID.String())
	}
	return err
}

func (s *HoldingService) publish(ctx context.Context, h *inventory.StockHolding) {
	events := h.GetDomainEvents()
	h.ClearDomainEvents()
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish holding events", zap.String("holding_id", h.ID.String()), zap.Error(err))
	}
}

// Get returns a holding
func (s *HoldingService) Get(ctx context.Context, id uuid.UUID) (*HoldingResponse, error) {
	h, err := s.holdings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToHoldingResponse(h)
	return &resp, nil
}

// ListActiveByHolder lists holdings with at least one line still held by holderID
func (s *HoldingService) ListActiveByHolder(ctx context.Context, holderID uuid.UUID) ([]HoldingResponse, error) {
	if holderID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Holder ID cannot be empty")
	}
	holdings, err := s.holdings.FindActiveByHolder(ctx, holderID)
	if err != nil {
		return nil, err
	}
	out := make([]HoldingResponse, len(holdings))
	for i := range holdings {
		out[i] = ToHoldingResponse(&holdings[i])
	}
	return out, nil
}

// Reconcile compares every line of a holding with the journal entries recorded for it
func (s *HoldingService) Reconcile(ctx context.Context, id uuid.UUID) (*ReconciliationResponse, error) {
	h, err := s.holdings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := &ReconciliationResponse{
		HoldingID: h.ID,
		Balanced:  true,
		Items:     make([]inventory.ItemReconciliation, 0, len(h.Items)),
	}
	for idx := range h.Items {
		item := &h.Items[idx]
		issued, err := s.ledger.MovementsByReference(ctx, item.RequestItemID)
		if err != nil {
			return nil, err
		}
		resolved, err := s.ledger.MovementsByReference(ctx, item.ID)
		if err != nil {
			return nil, err
		}
		rec := h.Reconcile(item, append(issued, resolved...))
		if !rec.Balanced {
			resp.Balanced = false
			s.logger.Warn("Holding item out of balance",
				zap.String("holding_id", h.ID.String()),
				zap.String("item_id", item.ID.String()),
				zap.String("outstanding", rec.Outstanding.String()),
			)
		}
		resp.Items = append(resp.Items, rec)
	}
	return resp, nil
}
