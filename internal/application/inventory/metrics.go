package inventory

import "context"

// Metrics receives workflow counters. telemetry.InventoryMetrics implements it.
type Metrics interface {
	RecordRequestTransition(ctx context.Context, kind, status string)
	RecordStockIssued(ctx context.Context, kind string, baseQty float64)
	RecordHoldingResolved(ctx context.Context, status string, baseQty float64)
	RecordStockAdjusted(ctx context.Context, pool string, difference float64)
	RecordInsufficientStock(ctx context.Context, kind string)
}

// NoopMetrics discards every measurement
type NoopMetrics struct{}

func (NoopMetrics) RecordRequestTransition(context.Context, string, string) {}
func (NoopMetrics) RecordStockIssued(context.Context, string, float64) {}
func (NoopMetrics) RecordHoldingResolved(context.Context, string, float64) {}
func (NoopMetrics) RecordStockAdjusted(context.Context, string, float64) {}
func (NoopMetrics) RecordInsufficientStock(context.Context, string) {}

var _ Metrics = NoopMetrics{}
