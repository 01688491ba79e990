package inventory

import (
	"context"
	"fmt"

	"github.com/clinicstock/backend/internal/domain/inventory"
	"github.com/clinicstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CorrectionService submits and applies audited manual corrections of ledger lines
type CorrectionService struct {
	scope       TransactionScope
	corrections inventory.CorrectionRepository
	publisher   shared.EventPublisher
	logger      *zap.Logger
}

// NewCorrectionService creates a new CorrectionService
func NewCorrectionService(
	scope TransactionScope,
	corrections inventory.CorrectionRepository,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *CorrectionService {
	return &CorrectionService{
		scope:       scope,
		corrections: corrections,
		publisher:   publisher,
		logger:      logger,
	}
}

// Create snapshots the current quantity of every targeted line.
// Lines outside MAIN must belong to a holder that already had custody of the batch.
func (s *CorrectionService) Create(ctx context.Context, createdBy uuid.UUID, req CreateCorrectionRequest) (*CorrectionResponse, error) {
	var c *inventory.StockCorrection
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		taken, err := repos.Corrections().ExistsByReference(ctx, req.Reference)
		if err != nil {
			return err
		}
		if taken {
			return shared.ErrAlreadyExists.WithDetail("reference", req.Reference)
		}

		targets := make([]inventory.CorrectionTarget, len(req.Items))
		for i, line := range req.Items {
			key := line.Key()
			if err := key.Validate(); err != nil {
				return fmt.Errorf("line %d: %w", i+1, err)
			}
			if key.Pool != inventory.PoolMain {
				ok, err := repos.Ledger().HasCustody(ctx, key.Endpoint(), key.ProductID, key.BatchID)
				if err != nil {
					return err
				}
				if !ok {
					return shared.ErrCustodyNotEstablished.
						WithDetail("line", i+1).
						WithDetail("holder", key.Endpoint().String()).
						WithDetail("batch_id", key.BatchID.String())
				}
			}
			old, err := repos.Ledger().Get(ctx, key)
			if err != nil {
				return err
			}
			targets[i] = inventory.CorrectionTarget{Key: key, OldQuantity: old, NewQuantity: line.NewQuantity}
		}

		c, err = inventory.NewStockCorrection(req.Reference, req.Reason, createdBy, targets)
		if err != nil {
			return err
		}
		return repos.Corrections().Create(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Stock correction submitted",
		zap.String("correction_id", c.ID.String()),
		zap.String("reference", c.Reference),
		zap.Int("lines", len(c.Items)),
	)
	resp := ToCorrectionResponse(c)
	return &resp, nil
}

// Approve applies every line's stored difference to the ledger in one transaction
func (s *CorrectionService) Approve(ctx context.Context, id, approverID uuid.UUID) (*CorrectionResponse, error) {
	var (
		c    *inventory.StockCorrection
		from inventory.CorrectionStatus
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		c, err = repos.Corrections().FindByID(ctx, id)
		if err != nil {
			return err
		}
		from = c.Status
		if err := c.Approve(approverID); err != nil {
			return err
		}
		for idx := range c.Items {
			item := &c.Items[idx]
			if item.IsApplied() {
				return shared.ErrDoubleApplication.WithDetail("item_id", item.ID.String())
			}
			balance := item.NewQuantity
			if !item.Difference.IsZero() {
				meta := inventory.MovementMeta{Reason: inventory.ReasonCorrection, ReferenceID: item.ID, ActorID: approverID}
				balance, err = repos.Ledger().Adjust(ctx, item.Target, item.Difference, meta)
				if err != nil {
					return err
				}
				if item.Difference.IsPositive() {
					if err := markBatchPosted(ctx, repos, item.Target.BatchID); err != nil {
						return err
					}
				}
			} else if balance, err = repos.Ledger().Get(ctx, item.Target); err != nil {
				return err
			}
			if err := c.MarkApplied(item.ID, balance, approverID); err != nil {
				return err
			}
		}
		if err := c.Complete(approverID); err != nil {
			return err
		}
		return repos.Corrections().SaveTransition(ctx, c, from)
	})
	if err != nil {
		return nil, s.transitionError(ctx, id, from, err)
	}
	s.logger.Info("Stock correction applied",
		zap.String("correction_id", c.ID.String()),
		zap.String("approved_by", approverID.String()),
	)
	s.publish(ctx, c)
	resp := ToCorrectionResponse(c)
	return &resp, nil
}

// markBatchPosted freezes a batch once a correction credits stock against it
func markBatchPosted(ctx context.Context, repos TransactionalRepositories, batchID uuid.UUID) error {
	batch, err := repos.Batches().FindByID(ctx, batchID)
	if err != nil {
		return err
	}
	if batch.Posted {
		return nil
	}
	batch.MarkPosted()
	return repos.Batches().SaveWithLock(ctx, batch)
}

// Reject closes a pending correction without touching the ledger
func (s *CorrectionService) Reject(ctx context.Context, id, actorID uuid.UUID, req RejectRequest) (*CorrectionResponse, error) {
	var (
		c    *inventory.StockCorrection
		from inventory.CorrectionStatus
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		c, err = repos.Corrections().FindByID(ctx, id)
		if err != nil {
			return err
		}
		from = c.Status
		if err := c.Reject(actorID, req.Reason); err != nil {
			return err
		}
		return repos.Corrections().SaveTransition(ctx, c, from)
	})
	if err != nil {
		return nil, s.transitionError(ctx, id, from, err)
	}
	s.publish(ctx, c)
	resp := ToCorrectionResponse(c)
	return &resp, nil
}

func (s *CorrectionService) transitionError(ctx context.Context, id uuid.UUID, from inventory.CorrectionStatus, err error) error {
	if !shared.IsDomainError(err, shared.CodeConcurrencyConflict) {
		return err
	}
	stored, findErr := s.corrections.FindByID(ctx, id)
	if findErr != nil {
		return err
	}
	if stored.Status != from {
		return shared.ErrInvalidTransition.
			WithDetail("from", from.String()).
			WithDetail("current", stored.Status.String())
	}
	return err
}

func (s *CorrectionService) publish(ctx context.Context, c *inventory.StockCorrection) {
	events := c.GetDomainEvents()
	c.ClearDomainEvents()
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish correction events", zap.String("correction_id", c.ID.String()), zap.Error(err))
	}
}

// Get returns a correction
func (s *CorrectionService) Get(ctx context.Context, id uuid.UUID) (*CorrectionResponse, error) {
	c, err := s.corrections.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToCorrectionResponse(c)
	return &resp, nil
}

// List lists corrections, newest first
func (s *CorrectionService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[CorrectionResponse], error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	corrections, total, err := s.corrections.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]CorrectionResponse, len(corrections))
	for i := range corrections {
		out[i] = ToCorrectionResponse(&corrections[i])
	}
	page := shared.NewPaginated(out, total, filter.Page, filter.PageSize)
	return &page, nil
}
