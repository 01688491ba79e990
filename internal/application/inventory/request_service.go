package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/clinicstock/backend/internal/domain/catalog"
	"github.com/clinicstock/backend/internal/domain/inventory"
	"github.com/clinicstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ExpiryPolicy decides what happens when a transition draws from an expired batch
type ExpiryPolicy string

const (
	ExpiryAllow ExpiryPolicy = "allow"
	ExpiryWarn  ExpiryPolicy = "warn"
	ExpiryBlock ExpiryPolicy = "block"
)

// RequestService drives inventory, withdrawal and purchase requests through their workflows.
// Every transition runs the ledger work and the header compare-and-set in one transaction.
type RequestService struct {
	scope        TransactionScope
	requests     inventory.RequestRepository
	publisher    shared.EventPublisher
	metrics      Metrics
	expiryPolicy ExpiryPolicy
	conversion   *catalog.ConversionService
	logger       *zap.Logger
	now          func() time.Time
}

// RequestServiceOption configures a RequestService
type RequestServiceOption func(*RequestService)

// WithExpiryPolicy sets the expired-batch policy; unknown values fall back to warn
func WithExpiryPolicy(p ExpiryPolicy) RequestServiceOption {
	return func(s *RequestService) {
		switch p {
		case ExpiryAllow, ExpiryWarn, ExpiryBlock:
			s.expiryPolicy = p
		}
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(m Metrics) RequestServiceOption {
	return func(s *RequestService) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithClock overrides the time source used for expiry checks
func WithClock(now func() time.Time) RequestServiceOption {
	return func(s *RequestService) { s.now = now }
}

// NewRequestService creates a new RequestService
func NewRequestService(
	scope TransactionScope,
	requests inventory.RequestRepository,
	publisher shared.EventPublisher,
	logger *zap.Logger,
	opts ...RequestServiceOption,
) *RequestService {
	s := &RequestService{
		scope:        scope,
		requests:     requests,
		publisher:    publisher,
		metrics:      NoopMetrics{},
		expiryPolicy: ExpiryWarn,
		conversion:   catalog.NewConversionService(),
		logger:       logger,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInventory files a request to draw stock from MAIN or a location
func (s *RequestService) CreateInventory(ctx context.Context, requesterID uuid.UUID, req CreateInventoryRequest) (*RequestResponse, error) {
	items := make([]inventory.ItemInput, len(req.Items))
	for i, l := range req.Items {
		items[i] = inventory.ItemInput{
			ProductID: l.ProductID,
			BatchID:   l.BatchID,
			UnitID:    l.UnitID,
			Quantity:  l.Quantity,
		}
	}
	r, err := inventory.NewInventoryRequest(requesterID, req.Source.ToEndpoint(), optionalEndpoint(req.Destination), req.Notes, items)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, r)
}

// CreateWithdrawal files a request to move stock out of a location or a holder
func (s *RequestService) CreateWithdrawal(ctx context.Context, requesterID uuid.UUID, req CreateWithdrawalRequest) (*RequestResponse, error) {
	items := make([]inventory.ItemInput, len(req.Items))
	for i, l := range req.Items {
		items[i] = inventory.ItemInput{
			ProductID: l.ProductID,
			BatchID:   l.BatchID,
			UnitID:    l.UnitID,
			Quantity:  l.Quantity,
			From:      l.From.ToEndpoint(),
			To:        optionalEndpoint(l.To),
		}
	}
	r, err := inventory.NewWithdrawalRequest(requesterID, req.Notes, items)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, r)
}

// CreatePurchase files a request to receive stock into MAIN
func (s *RequestService) CreatePurchase(ctx context.Context, requesterID uuid.UUID, req CreatePurchaseRequest) (*RequestResponse, error) {
	items := make([]inventory.ItemInput, len(req.Items))
	for i, l := range req.Items {
		in := inventory.ItemInput{
			ProductID:   l.ProductID,
			UnitID:      l.UnitID,
			Quantity:    l.Quantity,
			BatchNumber: l.BatchNumber,
			ExpiryDate:  l.ExpiryDate,
			UnitCost:    l.UnitCost,
		}
		if l.BatchID != nil {
			in.BatchID = *l.BatchID
		}
		items[i] = in
	}
	r, err := inventory.NewPurchaseRequest(requesterID, req.Supplier, req.Notes, items)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, r)
}

func (s *RequestService) create(ctx context.Context, r *inventory.Request) (*RequestResponse, error) {
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		for _, item := range r.ActiveItems() {
			if _, err := s.unitOf(ctx, repos, item); err != nil {
				return err
			}
			if item.HasBatch() {
				if _, err := s.batchOf(ctx, repos, item); err != nil {
					return err
				}
			}
			if r.Kind == inventory.RequestKindWithdrawal {
				if err := requireCustody(ctx, repos.Ledger(), item.From, item); err != nil {
					return err
				}
			}
		}
		return repos.Requests().Create(ctx, r)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Request created",
		zap.String("request_id", r.ID.String()),
		zap.String("number", r.Number),
		zap.String("kind", r.Kind.String()),
		zap.Int("lines", len(r.Items)),
	)
	s.publish(ctx, r)
	resp := ToRequestResponse(r)
	return &resp, nil
}

// Approve fixes approved quantities and applies the kind's approval effect:
// inventory requests reserve, withdrawals move stock, purchases only resolve base quantities.
func (s *RequestService) Approve(ctx context.Context, id, approverID uuid.UUID, req TransitionRequest) (*RequestResponse, error) {
	var (
		r        *inventory.Request
		from     inventory.ApprovalStatus
		warnings []string
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		r, err = repos.Requests().FindByID(ctx, id)
		if err != nil {
			return err
		}
		from = r.Status
		if err := r.PrepareApproval(req.Overrides()); err != nil {
			return err
		}

		ledger := inventory.NewLedgerService(repos.Ledger(), repos.Reservations())
		for _, item := range r.ActiveItems() {
			unit, err := s.unitOf(ctx, repos, item)
			if err != nil {
				return err
			}
			base, err := s.conversion.ToBase(item.ProductID, unit, item.ApprovedQuantity)
			if err != nil {
				return err
			}
			if !base.IsPositive() {
				return shared.NewDomainErrorf(shared.CodeInvalidQuantity, "Line %d converts to zero base units", item.LineNo)
			}
			item.SetBaseQuantity(base)

			switch r.Kind {
			case inventory.RequestKindInventory:
				if err := s.checkBatchExpiry(ctx, repos, item, &warnings); err != nil {
					return err
				}
				reservation, err := ledger.Reserve(ctx, item.From, item.ProductID, item.BatchID, item.ID, base,
					inventory.MovementMeta{ReferenceID: item.ID, ActorID: approverID})
				if err != nil {
					return err
				}
				item.AttachReservation(reservation.ID)

			case inventory.RequestKindWithdrawal:
				if err := s.checkBatchExpiry(ctx, repos, item, &warnings); err != nil {
					return err
				}
				if err := requireCustody(ctx, repos.Ledger(), item.From, item); err != nil {
					return err
				}
				item.SetIssuedBaseQuantity(base)
				if err := withdraw(ctx, ledger, item, approverID); err != nil {
					return err
				}
				if err := drawDownHoldings(ctx, repos, item, approverID); err != nil {
					return err
				}
			}
		}

		if err := r.Approve(approverID); err != nil {
			return err
		}
		return repos.Requests().SaveTransition(ctx, r, from)
	})
	if err != nil {
		return nil, s.transitionError(ctx, id, from, r, err)
	}
	return s.finish(ctx, r, "Request approved", warnings)
}

// Reject closes a pending request
func (s *RequestService) Reject(ctx context.Context, id, actorID uuid.UUID, req RejectRequest) (*RequestResponse, error) {
	var (
		r    *inventory.Request
		from inventory.ApprovalStatus
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		r, err = repos.Requests().FindByID(ctx, id)
		if err != nil {
			return err
		}
		from = r.Status
		if err := r.Reject(actorID, req.Reason); err != nil {
			return err
		}
		return repos.Requests().SaveTransition(ctx, r, from)
	})
	if err != nil {
		return nil, s.transitionError(ctx, id, from, r, err)
	}
	return s.finish(ctx, r, "Request rejected", nil)
}

// Issue moves the stock of an approved request.
// Inventory requests draw from their reservations and open a holding; purchases post into MAIN.
// A pending withdrawal is issued by approval.
func (s *RequestService) Issue(ctx context.Context, id, issuerID uuid.UUID, req TransitionRequest) (*RequestResponse, error) {
	current, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Kind == inventory.RequestKindWithdrawal {
		return s.Approve(ctx, id, issuerID, req)
	}

	var (
		r        *inventory.Request
		from     inventory.ApprovalStatus
		warnings []string
	)
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		r, err = repos.Requests().FindByID(ctx, id)
		if err != nil {
			return err
		}
		from = r.Status
		if err := r.PrepareIssue(req.Overrides()); err != nil {
			return err
		}

		switch r.Kind {
		case inventory.RequestKindInventory:
			err = s.issueInventory(ctx, repos, r, issuerID)
		case inventory.RequestKindPurchase:
			err = s.postPurchase(ctx, repos, r, issuerID, &warnings)
		}
		if err != nil {
			return err
		}

		if err := r.MarkIssued(issuerID); err != nil {
			return err
		}
		return repos.Requests().SaveTransition(ctx, r, from)
	})
	if err != nil {
		return nil, s.transitionError(ctx, id, from, r, err)
	}
	return s.finish(ctx, r, "Request issued", warnings)
}

func (s *RequestService) issueInventory(ctx context.Context, repos TransactionalRepositories, r *inventory.Request, issuerID uuid.UUID) error {
	ledger := inventory.NewLedgerService(repos.Ledger(), repos.Reservations())
	issued := false
	for _, item := range r.ActiveItems() {
		if item.ReservationID == nil {
			return shared.ErrDataIntegrity.
				WithDetail("item_id", item.ID.String()).
				WithDetail("reason", "approved line has no reservation")
		}
		held, err := repos.Reservations().FindHeldByReference(ctx, item.ID)
		if err != nil {
			return err
		}
		if len(held) != 1 || held[0].ID != *item.ReservationID {
			return shared.ErrDataIntegrity.
				WithDetail("item_id", item.ID.String()).
				WithDetail("reason", "approved line does not hold exactly its own reservation")
		}
		base, err := s.issuedBase(ctx, repos, item)
		if err != nil {
			return err
		}
		item.SetIssuedBaseQuantity(base)

		meta := inventory.MovementMeta{Reason: inventory.ReasonIssue, ReferenceID: item.ID, ActorID: issuerID}
		if base.IsPositive() {
			if _, err := ledger.Move(ctx, inventory.MoveCommand{
				From:          item.From,
				To:            item.To,
				ProductID:     item.ProductID,
				BatchID:       item.BatchID,
				Quantity:      base,
				Meta:          meta,
				ReservationID: item.ReservationID,
			}); err != nil {
				return err
			}
			issued = true
		}
		if _, err := ledger.Release(ctx, *item.ReservationID, meta); err != nil {
			return err
		}
	}
	if !issued {
		return nil
	}

	holding, err := inventory.NewStockHolding(r, issuerID)
	if err != nil {
		return err
	}
	return repos.Holdings().Create(ctx, holding)
}

func (s *RequestService) postPurchase(ctx context.Context, repos TransactionalRepositories, r *inventory.Request, issuerID uuid.UUID, warnings *[]string) error {
	for _, item := range r.ActiveItems() {
		base, err := s.issuedBase(ctx, repos, item)
		if err != nil {
			return err
		}
		item.SetIssuedBaseQuantity(base)
		if !base.IsPositive() {
			continue
		}

		batch, err := s.receiveBatch(ctx, repos, r, item)
		if err != nil {
			return err
		}
		if err := s.checkExpiry(item, batch.BatchNumber, batch.ExpiryDate, warnings); err != nil {
			return err
		}

		key := inventory.MainPool().Key(item.ProductID, batch.ID, inventory.StatusActive)
		meta := inventory.MovementMeta{Reason: inventory.ReasonPurchaseReceipt, ReferenceID: item.ID, ActorID: issuerID}
		if _, err := repos.Ledger().Adjust(ctx, key, base, meta); err != nil {
			return err
		}
	}
	return nil
}

// receiveBatch resolves the batch a purchase line posts into, creating it from the line when needed.
// The batch leaves posted.
func (s *RequestService) receiveBatch(ctx context.Context, repos TransactionalRepositories, r *inventory.Request, item *inventory.RequestItem) (*catalog.Batch, error) {
	var batch *catalog.Batch
	var err error
	if item.HasBatch() {
		batch, err = s.batchOf(ctx, repos, item)
	} else {
		batch, err = repos.Batches().FindByNumber(ctx, item.ProductID, item.BatchNumber)
		if shared.IsDomainError(err, shared.CodeNotFound) {
			batch, err = catalog.NewBatch(item.ProductID, item.BatchNumber, nil, item.ExpiryDate, item.UnitCost, r.Supplier)
			if err != nil {
				return nil, err
			}
			batch.MarkPosted()
			if err := repos.Batches().Save(ctx, batch); err != nil {
				return nil, err
			}
			item.AssignBatch(batch.ID)
			return batch, nil
		}
	}
	if err != nil {
		return nil, err
	}

	item.AssignBatch(batch.ID)
	if !batch.Posted {
		batch.MarkPosted()
		if err := repos.Batches().SaveWithLock(ctx, batch); err != nil {
			return nil, err
		}
	}
	return batch, nil
}

// issuedBase converts the issued quantity and caps it at the approved base quantity
// so rounding never draws more than was reserved.
func (s *RequestService) issuedBase(ctx context.Context, repos TransactionalRepositories, item *inventory.RequestItem) (decimal.Decimal, error) {
	if item.IssuedQuantity.IsZero() {
		return decimal.Zero, nil
	}
	if item.IssuedQuantity.Equal(item.ApprovedQuantity) {
		return item.BaseQuantity, nil
	}
	unit, err := s.unitOf(ctx, repos, item)
	if err != nil {
		return decimal.Zero, err
	}
	base, err := s.conversion.ToBase(item.ProductID, unit, item.IssuedQuantity)
	if err != nil {
		return decimal.Zero, err
	}
	if base.GreaterThan(item.BaseQuantity) {
		base = item.BaseQuantity
	}
	return base, nil
}

func withdraw(ctx context.Context, ledger *inventory.LedgerService, item *inventory.RequestItem, actorID uuid.UUID) error {
	meta := inventory.MovementMeta{Reason: inventory.ReasonWithdrawal, ReferenceID: item.ID, ActorID: actorID}
	if item.IsConsumption() {
		meta.Reason = inventory.ReasonConsumption
		_, err := ledger.Consume(ctx, item.From, item.ProductID, item.BatchID, item.BaseQuantity, meta)
		return err
	}
	_, err := ledger.Move(ctx, inventory.MoveCommand{
		From:      item.From,
		To:        item.To,
		ProductID: item.ProductID,
		BatchID:   item.BatchID,
		Quantity:  item.BaseQuantity,
		Meta:      meta,
	})
	return err
}

// drawDownHoldings charges a withdrawal out of a holder's pool to the holder's open holding lines,
// so returns and losses only move what is still held.
func drawDownHoldings(ctx context.Context, repos TransactionalRepositories, item *inventory.RequestItem, actorID uuid.UUID) error {
	if item.From.Pool == inventory.PoolMain {
		return nil
	}
	holdings, err := repos.Holdings().FindActiveByHolder(ctx, item.From.OwnerID)
	if err != nil {
		return err
	}
	remaining := item.BaseQuantity
	for idx := range holdings {
		if !remaining.IsPositive() {
			break
		}
		h := &holdings[idx]
		if h.Holder != item.From {
			continue
		}
		left := h.DrawDown(item.ProductID, item.BatchID, remaining, actorID)
		if left.Equal(remaining) {
			continue
		}
		remaining = left
		if err := repos.Holdings().SaveWithLock(ctx, h); err != nil {
			return err
		}
	}
	return nil
}

func requireCustody(ctx context.Context, ledger inventory.StockLedger, holder inventory.Endpoint, item *inventory.RequestItem) error {
	if holder.Pool == inventory.PoolMain {
		return nil
	}
	ok, err := ledger.HasCustody(ctx, holder, item.ProductID, item.BatchID)
	if err != nil {
		return err
	}
	if !ok {
		return shared.ErrCustodyNotEstablished.
			WithDetail("holder", holder.String()).
			WithDetail("product_id", item.ProductID.String()).
			WithDetail("batch_id", item.BatchID.String())
	}
	return nil
}

func (s *RequestService) unitOf(ctx context.Context, repos TransactionalRepositories, item *inventory.RequestItem) (*catalog.Unit, error) {
	unit, err := repos.Units().FindByID(ctx, item.UnitID)
	if shared.IsDomainError(err, shared.CodeNotFound) || (err == nil && unit.ProductID != item.ProductID) {
		return nil, shared.ErrUnknownUnit.
			WithDetail("product_id", item.ProductID.String()).
			WithDetail("unit_id", item.UnitID.String())
	}
	return unit, err
}

func (s *RequestService) batchOf(ctx context.Context, repos TransactionalRepositories, item *inventory.RequestItem) (*catalog.Batch, error) {
	batch, err := repos.Batches().FindByID(ctx, item.BatchID)
	if err != nil {
		return nil, err
	}
	if batch.ProductID != item.ProductID {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Batch belongs to another product").
			WithDetail("product_id", item.ProductID.String()).
			WithDetail("batch_id", item.BatchID.String())
	}
	return batch, nil
}

func (s *RequestService) checkBatchExpiry(ctx context.Context, repos TransactionalRepositories, item *inventory.RequestItem, warnings *[]string) error {
	if s.expiryPolicy == ExpiryAllow {
		return nil
	}
	batch, err := s.batchOf(ctx, repos, item)
	if err != nil {
		return err
	}
	return s.checkExpiry(item, batch.BatchNumber, batch.ExpiryDate, warnings)
}

func (s *RequestService) checkExpiry(item *inventory.RequestItem, batchNumber string, expiry *time.Time, warnings *[]string) error {
	if s.expiryPolicy == ExpiryAllow || expiry == nil || expiry.After(s.now()) {
		return nil
	}
	if s.expiryPolicy == ExpiryBlock {
		return shared.ErrBatchExpired.
			WithDetail("line", item.LineNo).
			WithDetail("batch_number", batchNumber).
			WithDetail("expiry_date", expiry.Format(time.DateOnly))
	}
	msg := fmt.Sprintf("line %d: batch %s expired on %s", item.LineNo, batchNumber, expiry.Format(time.DateOnly))
	*warnings = append(*warnings, msg)
	s.logger.Warn("Expired batch used",
		zap.String("request_id", item.RequestID.String()),
		zap.Int("line", item.LineNo),
		zap.String("batch_number", batchNumber),
		zap.Time("expiry_date", *expiry),
	)
	return nil
}

// transitionError turns a lost header race into INVALID_TRANSITION when the stored status moved on
func (s *RequestService) transitionError(ctx context.Context, id uuid.UUID, from inventory.ApprovalStatus, r *inventory.Request, err error) error {
	if shared.IsDomainError(err, shared.CodeInsufficientStock) && r != nil {
		s.metrics.RecordInsufficientStock(ctx, r.Kind.String())
	}
	if !shared.IsDomainError(err, shared.CodeConcurrencyConflict) {
		return err
	}
	stored, findErr := s.requests.FindByID(ctx, id)
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

func (s *RequestService) finish(ctx context.Context, r *inventory.Request, msg string, warnings []string) (*RequestResponse, error) {
	s.logger.Info(msg,
		zap.String("request_id", r.ID.String()),
		zap.String("kind", r.Kind.String()),
		zap.String("status", r.Status.String()),
	)
	s.publish(ctx, r)
	resp := ToRequestResponse(r)
	resp.Warnings = warnings
	return &resp, nil
}

func (s *RequestService) publish(ctx context.Context, r *inventory.Request) {
	events := r.GetDomainEvents()
	r.ClearDomainEvents()
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish request events", zap.String("request_id", r.ID.String()), zap.Error(err))
	}
}

// Get returns a request with its lines
func (s *RequestService) Get(ctx context.Context, id uuid.UUID) (*RequestResponse, error) {
	r, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToRequestResponse(r)
	return &resp, nil
}

// ListPending lists pending requests of a kind, oldest first
func (s *RequestService) ListPending(ctx context.Context, kind inventory.RequestKind) ([]RequestResponse, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainErrorf(shared.CodeInvalidInput, "Unknown request kind %q", kind)
	}
	requests, err := s.requests.FindPending(ctx, kind)
	if err != nil {
		return nil, err
	}
	out := make([]RequestResponse, len(requests))
	for i := range requests {
		out[i] = ToRequestResponse(&requests[i])
	}
	return out, nil
}

// List lists requests matching the filter
func (s *RequestService) List(ctx context.Context, filter inventory.RequestFilter) (*shared.Paginated[RequestResponse], error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	requests, total, err := s.requests.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]RequestResponse, len(requests))
	for i := range requests {
		out[i] = ToRequestResponse(&requests[i])
	}
	page := shared.NewPaginated(out, total, filter.Page, filter.PageSize)
	return &page, nil
}
