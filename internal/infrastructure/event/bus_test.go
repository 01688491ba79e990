package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/clinicstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEvent struct {
	shared.BaseDomainEvent
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "StockHolding", uuid.New(), uuid.New())}
}

type recordingHandler struct {
	types   []string
	mu      sync.Mutex
	handled []shared.DomainEvent
	err     error
	panics  bool
}

func (h *recordingHandler) Handle(_ context.Context, e shared.DomainEvent) error {
	if h.panics {
		panic("boom")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, e)
	return h.err
}

func (h *recordingHandler) EventTypes() []string { return h.types }

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func TestInMemoryEventBus_RoutesByType(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	issued := &recordingHandler{types: []string{"RequestIssued"}}
	all := &recordingHandler{}
	bus.Subscribe(issued)
	bus.Subscribe(all)

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, newTestEvent("RequestIssued"), newTestEvent("HoldingItemLost")))

	assert.Equal(t, 1, issued.count())
	assert.Equal(t, 2, all.count())
}

func TestInMemoryEventBus_ExplicitTypesOverrideHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := &recordingHandler{types: []string{"RequestIssued"}}
	bus.Subscribe(h, "StockAdjusted")

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("RequestIssued"), newTestEvent("StockAdjusted")))
	assert.Equal(t, 1, h.count())
	assert.Equal(t, "StockAdjusted", h.handled[0].EventType())
}

func TestInMemoryEventBus_FailingHandlerDoesNotStopOthers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	failing := &recordingHandler{types: []string{"StockAdjusted"}, err: errors.New("sink down")}
	panicking := &recordingHandler{types: []string{"StockAdjusted"}, panics: true}
	ok := &recordingHandler{types: []string{"StockAdjusted"}}
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(ok)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("StockAdjusted")))
	assert.Equal(t, 1, ok.count())
	assert.Equal(t, int64(2), bus.Failures())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := &recordingHandler{types: []string{"RequestIssued", "RequestRejected"}}
	bus.Subscribe(h)
	bus.Unsubscribe(h)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("RequestIssued"), newTestEvent("RequestRejected")))
	assert.Zero(t, h.count())
	assert.Empty(t, bus.byType)
}

func TestInMemoryEventBus_StopRejectsPublish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	ctx := context.Background()
	require.NoError(t, bus.Start(ctx))

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, bus.Stop(stopCtx))

	err := bus.Publish(ctx, newTestEvent("RequestIssued"))
	assert.ErrorIs(t, err, ErrBusStopped)

	require.NoError(t, bus.Start(ctx))
	assert.NoError(t, bus.Publish(ctx, newTestEvent("RequestIssued")))
}
