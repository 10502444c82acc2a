package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEvent struct {
	shared.BaseDomainEvent
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Test", uuid.New(), uuid.New())}
}

type recordingHandler struct {
	types   []string
	err     error
	panics  bool
	mu      sync.Mutex
	handled []string
}

func (h *recordingHandler) Handle(_ context.Context, ev shared.DomainEvent) error {
	h.mu.Lock()
	h.handled = append(h.handled, ev.EventType())
	h.mu.Unlock()
	if h.panics {
		panic("boom")
	}
	return h.err
}

func (h *recordingHandler) EventTypes() []string { return h.types }

func (h *recordingHandler) seen() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.handled...)
}

type countingRecorder struct {
	mu    sync.Mutex
	types []string
}

func (r *countingRecorder) HandlerFailed(_ context.Context, eventType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, eventType)
}

func TestInMemoryEventBus_RoutesByType(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	delivered := &recordingHandler{types: []string{"purchase_order.delivered"}}
	all := &recordingHandler{}
	bus.Subscribe(delivered)
	bus.Subscribe(all)

	err := bus.Publish(context.Background(),
		newTestEvent("purchase_order.delivered"),
		newTestEvent("sale.completed"),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"purchase_order.delivered"}, delivered.seen())
	assert.Equal(t, []string{"purchase_order.delivered", "sale.completed"}, all.seen())
}

func TestInMemoryEventBus_ExplicitTypesOverrideHandlerTypes(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := &recordingHandler{types: []string{"a"}}
	bus.Subscribe(h, "b")

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("a"), newTestEvent("b")))
	assert.Equal(t, []string{"b"}, h.seen())
}

func TestInMemoryEventBus_FailuresAreIsolated(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	rec := &countingRecorder{}
	bus.SetFailureRecorder(rec)

	failing := &recordingHandler{types: []string{"sale.completed"}, err: errors.New("redis down")}
	panicking := &recordingHandler{types: []string{"sale.completed"}, panics: true}
	healthy := &recordingHandler{types: []string{"sale.completed"}}
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("sale.completed")))
	assert.Len(t, healthy.seen(), 1)
	assert.Equal(t, []string{"sale.completed", "sale.completed"}, rec.types)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := &recordingHandler{types: []string{"x"}}
	bus.Subscribe(h)
	require.NoError(t, bus.Publish(context.Background(), newTestEvent("x")))

	bus.Unsubscribe(h)
	require.NoError(t, bus.Publish(context.Background(), newTestEvent("x")))
	assert.Len(t, h.seen(), 1)
}

func TestInMemoryEventBus_CancelledContext(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := &recordingHandler{types: []string{"x"}}
	bus.Subscribe(h)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, bus.Publish(ctx, newTestEvent("x")), context.Canceled)
	assert.Empty(t, h.seen())
}

func TestInMemoryEventBus_StopDropsEvents(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := &recordingHandler{types: []string{"x"}}
	bus.Subscribe(h)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, bus.Stop(ctx))
	require.NoError(t, bus.Publish(context.Background(), newTestEvent("x")))
	assert.Empty(t, h.seen())

	require.NoError(t, bus.Start(ctx))
	require.NoError(t, bus.Publish(context.Background(), newTestEvent("x")))
	assert.Len(t, h.seen(), 1)
}

func TestHandlerFunc(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	var got shared.DomainEvent
	bus.Subscribe(&HandlerFunc{Types: []string{"y"}, Fn: func(_ context.Context, ev shared.DomainEvent) error {
		got = ev
		return nil
	}})
	ev := newTestEvent("y")
	require.NoError(t, bus.Publish(context.Background(), ev))
	assert.Equal(t, ev, got)
}
