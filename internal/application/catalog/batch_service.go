package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/clinicstock/backend/internal/domain/catalog"
	"github.com/clinicstock/backend/internal/domain/inventory"
	"github.com/clinicstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxExpiringRows = 1000

// ExpiringReportWriter renders the expiring-batch listing into a document
type ExpiringReportWriter interface {
	WriteExpiring(w io.Writer, report *ExpiringReport) error
	ContentType() string
}

// ReportArchive keeps rendered reports and hands out time-limited download links
type ReportArchive interface {
	Store(ctx context.Context, key string, data []byte, contentType string) error
	DownloadURL(ctx context.Context, key string) (string, time.Time, error)
}

// BatchService catalogues batches and reports on expiry
type BatchService struct {
	scope          TransactionScope
	batches        catalog.BatchRepository
	products       catalog.ProductRepository
	ledger         inventory.StockLedger
	publisher      shared.EventPublisher
	reportWriter   ExpiringReportWriter
	archive        ReportArchive
	defaultHorizon time.Duration
	logger         *zap.Logger
	now            func() time.Time
}

// BatchServiceOption configures a BatchService
type BatchServiceOption func(*BatchService)

// WithReportWriter enables the expiring-batch export
func WithReportWriter(w ExpiringReportWriter) BatchServiceOption {
	return func(s *BatchService) { s.reportWriter = w }
}

// WithReportArchive enables archiving exported reports
func WithReportArchive(a ReportArchive) BatchServiceOption {
	return func(s *BatchService) { s.archive = a }
}

// WithDefaultHorizon sets the horizon used when a listing does not name one
func WithDefaultHorizon(d time.Duration) BatchServiceOption {
	return func(s *BatchService) { s.defaultHorizon = d }
}

// NewBatchService creates a new BatchService
func NewBatchService(
	scope TransactionScope,
	batches catalog.BatchRepository,
	products catalog.ProductRepository,
	ledger inventory.StockLedger,
	publisher shared.EventPublisher,
	logger *zap.Logger,
	opts ...BatchServiceOption,
) *BatchService {
	s := &BatchService{
		scope:          scope,
		batches:        batches,
		products:       products,
		ledger:         ledger,
		publisher:      publisher,
		defaultHorizon: 30 * 24 * time.Hour,
		logger:         logger,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create catalogues a batch; batch numbers are unique per product
func (s *BatchService) Create(ctx context.Context, req CreateBatchRequest) (*BatchResponse, error) {
	batch, err := catalog.NewBatch(req.ProductID, req.BatchNumber, req.ProductionDate, req.ExpiryDate, req.UnitCost, req.Source)
	if err != nil {
		return nil, err
	}
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.Products().FindByID(ctx, req.ProductID); err != nil {
			return err
		}
		_, err := repos.Batches().FindByNumber(ctx, req.ProductID, batch.BatchNumber)
		switch {
		case err == nil:
			return shared.ErrAlreadyExists.WithDetail("batch_number", batch.BatchNumber)
		case !shared.IsDomainError(err, shared.CodeNotFound):
			return err
		}
		return repos.Batches().Save(ctx, batch)
	})
	if err != nil {
		return nil, err
	}
	resp := ToBatchResponse(batch)
	return &resp, nil
}

// Get returns a batch
func (s *BatchService) Get(ctx context.Context, id uuid.UUID) (*BatchResponse, error) {
	batch, err := s.batches.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToBatchResponse(batch)
	return &resp, nil
}

// ListByProduct returns the batches of a product
func (s *BatchService) ListByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]BatchResponse, error) {
	batches, err := s.batches.FindByProduct(ctx, productID, filter)
	if err != nil {
		return nil, err
	}
	out := make([]BatchResponse, len(batches))
	for i := range batches {
		out[i] = ToBatchResponse(&batches[i])
	}
	return out, nil
}

// Update changes number, cost and source of a batch nothing has been posted against
func (s *BatchService) Update(ctx context.Context, id uuid.UUID, req UpdateBatchRequest) (*BatchResponse, error) {
	var batch *catalog.Batch
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		batch, err = repos.Batches().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := batch.UpdateDetails(req.BatchNumber, req.UnitCost, req.Source); err != nil {
			return err
		}
		existing, err := repos.Batches().FindByNumber(ctx, batch.ProductID, batch.BatchNumber)
		switch {
		case err == nil && existing.ID != batch.ID:
			return shared.ErrAlreadyExists.WithDetail("batch_number", batch.BatchNumber)
		case err != nil && !shared.IsDomainError(err, shared.CodeNotFound):
			return err
		}
		return repos.Batches().SaveWithLock(ctx, batch)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Batch updated",
		zap.String("batch_id", batch.ID.String()),
		zap.String("batch_number", batch.BatchNumber),
	)
	resp := ToBatchResponse(batch)
	return &resp, nil
}

// CorrectExpiry changes a batch's dates. Allowed on posted batches.
func (s *BatchService) CorrectExpiry(ctx context.Context, id, actorID uuid.UUID, req CorrectExpiryRequest) (*BatchResponse, error) {
	var batch *catalog.Batch
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		batch, err = repos.Batches().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := batch.CorrectExpiry(req.ProductionDate, req.ExpiryDate, actorID); err != nil {
			return err
		}
		return repos.Batches().SaveWithLock(ctx, batch)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, batch)
	resp := ToBatchResponse(batch)
	return &resp, nil
}

// ListExpiring lists batches expiring within horizon (already expired included) with the
// quantity still on hand across all pools
func (s *BatchService) ListExpiring(ctx context.Context, horizon time.Duration) (*ExpiringReport, error) {
	if horizon <= 0 {
		horizon = s.defaultHorizon
	}
	now := s.now().UTC()
	filter := shared.DefaultFilter()
	filter.PageSize = maxExpiringRows

	batches, err := s.batches.FindExpiringBefore(ctx, now.Add(horizon), filter)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(batches))
	for i := range batches {
		ids[i] = batches[i].ID
	}
	totals, err := s.ledger.TotalsByBatch(ctx, ids)
	if err != nil {
		return nil, err
	}
	onHand := make(map[uuid.UUID]decimal.Decimal, len(ids))
	reserved := make(map[uuid.UUID]decimal.Decimal, len(ids))
	for _, t := range totals {
		switch t.Status {
		case inventory.StatusActive:
			onHand[t.BatchID] = onHand[t.BatchID].Add(t.Quantity)
		case inventory.StatusReserved:
			onHand[t.BatchID] = onHand[t.BatchID].Add(t.Quantity)
			reserved[t.BatchID] = reserved[t.BatchID].Add(t.Quantity)
		}
	}

	report := &ExpiringReport{
		GeneratedAt: now,
		Horizon:     horizon,
		HorizonDays: int(horizon.Hours() / 24),
		Batches:     make([]ExpiringBatch, 0, len(batches)),
		TotalOnHand: decimal.Zero,
	}
	products := make(map[uuid.UUID]*catalog.Product)
	for i := range batches {
		b := &batches[i]
		p, ok := products[b.ProductID]
		if !ok {
			p, err = s.products.FindByID(ctx, b.ProductID)
			if err != nil {
				return nil, err
			}
			products[b.ProductID] = p
		}
		row := ExpiringBatch{
			BatchResponse: ToBatchResponse(b),
			ProductCode:   p.Code,
			ProductName:   p.Name,
			OnHand:        onHand[b.ID],
			Reserved:      reserved[b.ID],
		}
		row.Expired = b.IsExpiredAt(now)
		report.Batches = append(report.Batches, row)
		report.TotalOnHand = report.TotalOnHand.Add(row.OnHand)
	}
	return report, nil
}

// ExportExpiring writes the expiring-batch listing through the configured report writer
// and returns its content type
func (s *BatchService) ExportExpiring(ctx context.Context, horizon time.Duration, w io.Writer) (string, error) {
	if s.reportWriter == nil {
		return "", shared.NewDomainError(shared.CodeInvalidInput, "Export is not configured")
	}
	report, err := s.ListExpiring(ctx, horizon)
	if err != nil {
		return "", err
	}
	if err := s.reportWriter.WriteExpiring(w, report); err != nil {
		return "", err
	}
	return s.reportWriter.ContentType(), nil
}

// ArchiveExpiring renders the expiring-batch listing, stores it in the report archive
// and returns a download link
func (s *BatchService) ArchiveExpiring(ctx context.Context, horizon time.Duration) (*ArchivedReportResponse, error) {
	if s.archive == nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Report archive is not configured")
	}
	if s.reportWriter == nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Export is not configured")
	}
	report, err := s.ListExpiring(ctx, horizon)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := s.reportWriter.WriteExpiring(&buf, report); err != nil {
		return nil, err
	}

	key := expiringReportKey(report.GeneratedAt)
	if err := s.archive.Store(ctx, key, buf.Bytes(), s.reportWriter.ContentType()); err != nil {
		return nil, fmt.Errorf("failed to archive report: %w", err)
	}
	url, expiresAt, err := s.archive.DownloadURL(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign report link: %w", err)
	}
	s.logger.Info("Expiring-batch report archived",
		zap.String("key", key),
		zap.Int("batches", len(report.Batches)),
	)
	return &ArchivedReportResponse{
		Key:         key,
		URL:         url,
		ExpiresAt:   expiresAt,
		GeneratedAt: report.GeneratedAt,
		BatchCount:  len(report.Batches),
		Size:        buf.Len(),
	}, nil
}

func expiringReportKey(at time.Time) string {
	return fmt.Sprintf("reports/expiring/%s/expiring-batches-%s.xlsx",
		at.Format("2006/01/02"), at.Format("20060102T150405Z"))
}

func (s *BatchService) publish(ctx context.Context, batch *catalog.Batch) {
	events := batch.GetDomainEvents()
	batch.ClearDomainEvents()
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish batch events", zap.String("batch_id", batch.ID.String()), zap.Error(err))
	}
}
