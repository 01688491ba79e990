package inventory

import (
	"context"

	"github.com/clinicstock/backend/internal/domain/inventory"
	"github.com/google/uuid"
)

// StockService answers read-only questions about the ledger
type StockService struct {
	ledger inventory.StockLedger
}

// NewStockService creates a new StockService
func NewStockService(ledger inventory.StockLedger) *StockService {
	return &StockService{ledger: ledger}
}

// Quantity returns the quantity of one line; a line that never existed reads as zero
func (s *StockService) Quantity(ctx context.Context, key inventory.StockKey) (*QuantityResponse, error) {
	if key.Status == "" {
		key.Status = inventory.StatusActive
	}
	if err := key.Validate(); err != nil {
		return nil, err
	}
	qty, err := s.ledger.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return &QuantityResponse{StockKey: key, Quantity: qty}, nil
}

// ListLines lists ledger lines matching the filter
func (s *StockService) ListLines(ctx context.Context, filter inventory.LineFilter) ([]StockLineResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 500 {
		filter.PageSize = 100
	}
	lines, err := s.ledger.FindLines(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]StockLineResponse, len(lines))
	for i, l := range lines {
		out[i] = StockLineResponse{StockKey: l.StockKey, Quantity: l.Quantity, UpdatedAt: l.UpdatedAt}
	}
	return out, nil
}

// Movements lists the journal entries recorded for a reference
func (s *StockService) Movements(ctx context.Context, referenceID uuid.UUID) ([]MovementResponse, error) {
	movements, err := s.ledger.MovementsByReference(ctx, referenceID)
	if err != nil {
		return nil, err
	}
	out := make([]MovementResponse, len(movements))
	for i, m := range movements {
		out[i] = MovementResponse{
			ID:          m.ID,
			StockKey:    m.StockKey,
			Delta:       m.Delta,
			Balance:     m.Balance,
			Reason:      m.Reason,
			ReferenceID: m.ReferenceID,
			ActorID:     m.ActorID,
			CreatedAt:   m.CreatedAt,
		}
	}
	return out, nil
}
