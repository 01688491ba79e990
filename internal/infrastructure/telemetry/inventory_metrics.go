package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/clinicstock/backend/inventory"

// InventoryMetrics records inventory workflow counters on an OpenTelemetry meter.
type InventoryMetrics struct {
	transitions  metric.Int64Counter
	issuedQty    metric.Float64Counter
	resolvedQty  metric.Float64Counter
	adjustments  metric.Float64Counter
	stockRejects metric.Int64Counter
}

// NewInventoryMetrics creates the instruments on the given provider, or the global one when nil.
func NewInventoryMetrics(mp metric.MeterProvider) (*InventoryMetrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(meterName)

	m := &InventoryMetrics{}
	var err error
	if m.transitions, err = meter.Int64Counter("inventory.request.transitions",
		metric.WithDescription("Request status transitions"),
		metric.WithUnit("{transition}"),
	); err != nil {
		return nil, err
	}
	if m.issuedQty, err = meter.Float64Counter("inventory.stock.issued",
		metric.WithDescription("Base quantity moved by issued requests"),
	); err != nil {
		return nil, err
	}
	if m.resolvedQty, err = meter.Float64Counter("inventory.holding.resolved",
		metric.WithDescription("Base quantity of holding items returned or lost"),
	); err != nil {
		return nil, err
	}
	if m.adjustments, err = meter.Float64Counter("inventory.stock.adjusted",
		metric.WithDescription("Absolute base quantity changed by manual corrections"),
	); err != nil {
		return nil, err
	}
	if m.stockRejects, err = meter.Int64Counter("inventory.stock.insufficient",
		metric.WithDescription("Transitions refused for insufficient stock"),
		metric.WithUnit("{refusal}"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordRequestTransition counts a request reaching a status.
func (m *InventoryMetrics) RecordRequestTransition(ctx context.Context, kind, status string) {
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("status", status),
	))
}

// RecordStockIssued adds the base quantity of one issued line.
func (m *InventoryMetrics) RecordStockIssued(ctx context.Context, kind string, baseQty float64) {
	m.issuedQty.Add(ctx, baseQty, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordHoldingResolved adds the base quantity of a returned or lost holding item.
func (m *InventoryMetrics) RecordHoldingResolved(ctx context.Context, status string, baseQty float64) {
	m.resolvedQty.Add(ctx, baseQty, metric.WithAttributes(attribute.String("status", status)))
}

// RecordStockAdjusted adds the magnitude of one applied correction line.
func (m *InventoryMetrics) RecordStockAdjusted(ctx context.Context, pool string, difference float64) {
	direction := "increase"
	if difference < 0 {
		direction = "decrease"
		difference = -difference
	}
	m.adjustments.Add(ctx, difference, metric.WithAttributes(
		attribute.String("pool", pool),
		attribute.String("direction", direction),
	))
}

// RecordInsufficientStock counts a transition refused for missing stock.
func (m *InventoryMetrics) RecordInsufficientStock(ctx context.Context, kind string) {
	m.stockRejects.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}
