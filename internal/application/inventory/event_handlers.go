package inventory

import (
	"context"

	"github.com/clinicstock/backend/internal/domain/inventory"
	"github.com/clinicstock/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AuditLogHandler writes every inventory event to the audit log
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates a new AuditLogHandler
func NewAuditLogHandler(logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{logger: logger.Named("audit")}
}

// EventTypes returns the event types this handler is interested in
func (h *AuditLogHandler) EventTypes() []string {
	return []string{
		inventory.EventTypeRequestCreated,
		inventory.EventTypeRequestApproved,
		inventory.EventTypeRequestRejected,
		inventory.EventTypeRequestIssued,
		inventory.EventTypeHoldingItemReturned,
		inventory.EventTypeHoldingItemLost,
		inventory.EventTypeStockAdjusted,
		inventory.EventTypeCorrectionApplied,
		inventory.EventTypeCorrectionRejected,
	}
}

// Handle logs the event with its aggregate and actor
func (h *AuditLogHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_id", event.EventID().String()),
		zap.String("event_type", event.EventType()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.String("actor_id", event.ActorID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	}
	switch e := event.(type) {
	case *inventory.RequestIssuedEvent:
		fields = append(fields, zap.String("number", e.Number), zap.Int("lines", len(e.Lines)))
	case *inventory.RequestRejectedEvent:
		fields = append(fields, zap.String("number", e.Number), zap.String("reason", e.Reason))
	case *inventory.StockAdjustedEvent:
		fields = append(fields,
			zap.String("stock_line", e.Key.String()),
			zap.String("difference", e.Difference.String()),
			zap.String("balance", e.Balance.String()),
		)
	case *inventory.HoldingItemReturnedEvent:
		fields = append(fields, zap.String("holder", e.Holder), zap.String("base_quantity", e.BaseQuantity.String()))
	case *inventory.HoldingItemLostEvent:
		fields = append(fields, zap.String("holder", e.Holder), zap.String("base_quantity", e.BaseQuantity.String()))
	}
	h.logger.Info("Inventory event", fields...)
	return nil
}

// MetricsHandler turns inventory events into counters
type MetricsHandler struct {
	metrics Metrics
}

// NewMetricsHandler creates a new MetricsHandler
func NewMetricsHandler(metrics Metrics) *MetricsHandler {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &MetricsHandler{metrics: metrics}
}

// EventTypes returns the event types this handler is interested in
func (h *MetricsHandler) EventTypes() []string {
	return []string{
		inventory.EventTypeRequestCreated,
		inventory.EventTypeRequestApproved,
		inventory.EventTypeRequestRejected,
		inventory.EventTypeRequestIssued,
		inventory.EventTypeHoldingItemReturned,
		inventory.EventTypeHoldingItemLost,
		inventory.EventTypeStockAdjusted,
	}
}

// Handle records the measurement matching the event
func (h *MetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *inventory.RequestCreatedEvent:
		h.metrics.RecordRequestTransition(ctx, e.Kind.String(), inventory.ApprovalPending.String())
	case *inventory.RequestApprovedEvent:
		// withdrawals are counted once, as ISSUED
		if e.Kind != inventory.RequestKindWithdrawal {
			h.metrics.RecordRequestTransition(ctx, e.Kind.String(), inventory.ApprovalApproved.String())
		}
	case *inventory.RequestRejectedEvent:
		h.metrics.RecordRequestTransition(ctx, e.Kind.String(), inventory.ApprovalRejected.String())
	case *inventory.RequestIssuedEvent:
		h.metrics.RecordRequestTransition(ctx, e.Kind.String(), inventory.ApprovalIssued.String())
		for _, line := range e.Lines {
			h.metrics.RecordStockIssued(ctx, e.Kind.String(), line.BaseQuantity.InexactFloat64())
		}
	case *inventory.HoldingItemReturnedEvent:
		h.metrics.RecordHoldingResolved(ctx, inventory.HoldingItemReturned.String(), e.BaseQuantity.InexactFloat64())
	case *inventory.HoldingItemLostEvent:
		h.metrics.RecordHoldingResolved(ctx, inventory.HoldingItemLost.String(), e.BaseQuantity.InexactFloat64())
	case *inventory.StockAdjustedEvent:
		h.metrics.RecordStockAdjusted(ctx, e.Key.Pool.String(), e.Difference.Abs().InexactFloat64())
	}
	return nil
}

var (
	_ shared.EventHandler = (*AuditLogHandler)(nil)
	_ shared.EventHandler = (*MetricsHandler)(nil)
)
