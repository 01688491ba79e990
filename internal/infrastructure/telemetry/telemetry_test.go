package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestSetup_Disabled(t *testing.T) {
	p, err := Setup(context.Background(), Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, p.TracingEnabled())
	assert.False(t, p.ZapCore(zapcore.InfoLevel).Enabled(zapcore.ErrorLevel))
	p.EnableSpanProfiles()
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestSampler(t *testing.T) {
	assert.Contains(t, sampler(1).Description(), "AlwaysOn")
	assert.Contains(t, sampler(0).Description(), "AlwaysOff")
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased")
}

func TestLevelFilterCore(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}
	log := zap.New(core).With(zap.String("component", "ledger"))

	log.Info("dropped")
	log.Warn("kept")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "kept", entry.Message)
	assert.Equal(t, "ledger", entry.ContextMap()["component"])
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func TestInventoryMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewInventoryMetrics(mp)
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordRequestTransition(ctx, "INVENTORY", "APPROVED")
	m.RecordRequestTransition(ctx, "INVENTORY", "APPROVED")
	m.RecordStockIssued(ctx, "WITHDRAWAL", 12.5)
	m.RecordHoldingResolved(ctx, "LOST", 3)
	m.RecordStockAdjusted(ctx, "MAIN", -15)
	m.RecordInsufficientStock(ctx, "INVENTORY")

	data := collect(t, reader)

	transitions, ok := data["inventory.request.transitions"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, transitions.DataPoints, 1)
	assert.Equal(t, int64(2), transitions.DataPoints[0].Value)

	issued, ok := data["inventory.stock.issued"].(metricdata.Sum[float64])
	require.True(t, ok)
	assert.InDelta(t, 12.5, issued.DataPoints[0].Value, 1e-9)

	adjusted, ok := data["inventory.stock.adjusted"].(metricdata.Sum[float64])
	require.True(t, ok)
	require.Len(t, adjusted.DataPoints, 1)
	assert.InDelta(t, 15, adjusted.DataPoints[0].Value, 1e-9)
	direction, _ := adjusted.DataPoints[0].Attributes.Value("direction")
	assert.Equal(t, "decrease", direction.AsString())

	assert.Contains(t, data, "inventory.holding.resolved")
	assert.Contains(t, data, "inventory.stock.insufficient")
}

func TestRegisterDBTracing(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	t.Run("disabled is a no-op", func(t *testing.T) {
		require.NoError(t, RegisterDBTracing(db, DBTracingConfig{}, zap.NewNop()))
	})

	t.Run("enabled registers callbacks", func(t *testing.T) {
		require.NoError(t, RegisterDBTracing(db, DBTracingConfig{Enabled: true, DBName: "sqlite"}, zap.NewNop()))
		assert.NoError(t, db.Exec("SELECT 1").Error)
	})
}

func TestStartProfiler_Disabled(t *testing.T) {
	p, err := StartProfiler(ProfilerConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.Running())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())

	_, err = StartProfiler(ProfilerConfig{Enabled: true}, zap.NewNop())
	assert.Error(t, err)
}
