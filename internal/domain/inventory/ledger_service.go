package inventory

import (
	"context"

	"github.com/clinicstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MoveCommand transfers quantity of one batch between two stock lines
type MoveCommand struct {
	From       Endpoint
	To         Endpoint
	ProductID  uuid.UUID
	BatchID    uuid.UUID
	Quantity   decimal.Decimal
	FromStatus StockStatus // ACTIVE by default, RESERVED when ReservationID is set
	ToStatus   StockStatus // ACTIVE by default
	Meta       MovementMeta

	// ReservationID lets the holder of a reservation draw from the RESERVED line
	ReservationID *uuid.UUID
}

// MoveResult carries the balances left on both legs
type MoveResult struct {
	SourceBalance      decimal.Decimal
	DestinationBalance decimal.Decimal
}

// LedgerService composes the atomic ledger primitives into moves and reservations.
// It must be constructed from repositories bound to one transaction so that a failed
// credit leg rolls the debit back.
type LedgerService struct {
	ledger       StockLedger
	reservations ReservationRepository
}

// NewLedgerService creates a ledger service
func NewLedgerService(ledger StockLedger, reservations ReservationRepository) *LedgerService {
	return &LedgerService{ledger: ledger, reservations: reservations}
}

// Move debits the source line and credits the destination line
func (s *LedgerService) Move(ctx context.Context, cmd MoveCommand) (*MoveResult, error) {
	if err := s.normalize(&cmd); err != nil {
		return nil, err
	}

	if cmd.FromStatus == StatusReserved && cmd.ReservationID == nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Reserved stock can only be drawn through its reservation")
	}
	if cmd.ReservationID != nil {
		if err := s.consumeReservation(ctx, cmd); err != nil {
			return nil, err
		}
	}
	return s.transfer(ctx, cmd)
}

func (s *LedgerService) transfer(ctx context.Context, cmd MoveCommand) (*MoveResult, error) {
	source := cmd.From.Key(cmd.ProductID, cmd.BatchID, cmd.FromStatus)
	srcBalance, err := s.ledger.Adjust(ctx, source, cmd.Quantity.Neg(), cmd.Meta)
	if err != nil {
		return nil, err
	}

	dest := cmd.To.Key(cmd.ProductID, cmd.BatchID, cmd.ToStatus)
	dstBalance, err := s.ledger.Adjust(ctx, dest, cmd.Quantity, cmd.Meta)
	if err != nil {
		return nil, err
	}

	return &MoveResult{SourceBalance: srcBalance, DestinationBalance: dstBalance}, nil
}

// Consume debits quantity from a holder without crediting any pool
func (s *LedgerService) Consume(ctx context.Context, from Endpoint, productID, batchID uuid.UUID, qty decimal.Decimal, meta MovementMeta) (decimal.Decimal, error) {
	if !qty.IsPositive() {
		return decimal.Zero, shared.NewDomainError(shared.CodeInvalidQuantity, "Quantity must be positive")
	}
	key := from.Key(productID, batchID, StatusActive)
	if err := key.Validate(); err != nil {
		return decimal.Zero, err
	}
	return s.ledger.Adjust(ctx, key, qty.Neg(), meta)
}

// Reserve earmarks ACTIVE quantity on source for referenceID
func (s *LedgerService) Reserve(ctx context.Context, source Endpoint, productID, batchID, referenceID uuid.UUID, qty decimal.Decimal, meta MovementMeta) (*StockReservation, error) {
	reservation, err := NewStockReservation(source, productID, batchID, referenceID, qty)
	if err != nil {
		return nil, err
	}

	meta.Reason = ReasonReserve
	if _, err := s.Move(ctx, MoveCommand{
		From:       source,
		To:         source,
		ProductID:  productID,
		BatchID:    batchID,
		Quantity:   qty,
		FromStatus: StatusActive,
		ToStatus:   StatusReserved,
		Meta:       meta,
	}); err != nil {
		return nil, err
	}

	if err := s.reservations.Create(ctx, reservation); err != nil {
		return nil, err
	}
	return reservation, nil
}

// Release hands the unconsumed part of a reservation back to ACTIVE
func (s *LedgerService) Release(ctx context.Context, reservationID uuid.UUID, meta MovementMeta) (decimal.Decimal, error) {
	reservation, err := s.reservations.FindByID(ctx, reservationID)
	if err != nil {
		return decimal.Zero, err
	}
	if reservation.Status == ReservationConsumed {
		return decimal.Zero, nil
	}
	remaining, err := reservation.Release()
	if err != nil {
		return decimal.Zero, err
	}
	if err := s.reservations.SaveWithLock(ctx, reservation); err != nil {
		return decimal.Zero, err
	}
	if remaining.IsZero() {
		return remaining, nil
	}

	meta.Reason = ReasonRelease
	source := reservation.Source()
	cmd := MoveCommand{
		From:       source,
		To:         source,
		ProductID:  reservation.ProductID,
		BatchID:    reservation.BatchID,
		Quantity:   remaining,
		FromStatus: StatusReserved,
		ToStatus:   StatusActive,
		Meta:       meta,
	}
	if err := s.normalize(&cmd); err != nil {
		return decimal.Zero, err
	}
	if _, err := s.transfer(ctx, cmd); err != nil {
		return decimal.Zero, err
	}
	return remaining, nil
}

func (s *LedgerService) consumeReservation(ctx context.Context, cmd MoveCommand) error {
	reservation, err := s.reservations.FindByID(ctx, *cmd.ReservationID)
	if err != nil {
		return err
	}
	if !reservation.Covers(cmd.From, cmd.ProductID, cmd.BatchID) {
		return shared.NewDomainError(shared.CodeInvalidInput, "Reservation does not cover the source line").
			WithDetail("reservation_id", reservation.ID.String())
	}
	if err := reservation.Consume(cmd.Quantity); err != nil {
		return err
	}
	return s.reservations.SaveWithLock(ctx, reservation)
}

func (s *LedgerService) normalize(cmd *MoveCommand) error {
	if !cmd.Quantity.IsPositive() {
		return shared.NewDomainError(shared.CodeInvalidQuantity, "Move quantity must be positive")
	}
	if cmd.FromStatus == "" {
		cmd.FromStatus = StatusActive
		if cmd.ReservationID != nil {
			cmd.FromStatus = StatusReserved
		}
	}
	if cmd.ToStatus == "" {
		cmd.ToStatus = StatusActive
	}
	if cmd.ReservationID != nil && cmd.FromStatus != StatusReserved {
		return shared.NewDomainError(shared.CodeInvalidInput, "A reservation can only draw from RESERVED stock")
	}
	source := cmd.From.Key(cmd.ProductID, cmd.BatchID, cmd.FromStatus)
	if err := source.Validate(); err != nil {
		return err
	}
	dest := cmd.To.Key(cmd.ProductID, cmd.BatchID, cmd.ToStatus)
	if err := dest.Validate(); err != nil {
		return err
	}
	if source == dest {
		return shared.NewDomainError(shared.CodeInvalidInput, "Source and destination are the same line")
	}
	return nil
}
