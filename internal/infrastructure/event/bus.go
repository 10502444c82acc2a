// Package event provides the in-process domain event bus. Publishing is
// synchronous: handlers run on the publisher's goroutine, one after the
// other, and a failing or panicking handler never affects the publisher or
// the remaining handlers.
package event

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// FailureRecorder is told about every handler failure (metrics hook)
type FailureRecorder interface {
	HandlerFailed(ctx context.Context, eventType string)
}

// InMemoryEventBus implements shared.EventBus
type InMemoryEventBus struct {
	mu       sync.RWMutex
	byType   map[string][]shared.EventHandler
	wildcard []shared.EventHandler
	running  atomic.Bool
	inflight sync.WaitGroup
	logger   *zap.Logger
	failures FailureRecorder
}

// NewInMemoryEventBus creates a bus. The bus accepts events before Start;
// after Stop, Publish drops events.
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	b := &InMemoryEventBus{
		byType: make(map[string][]shared.EventHandler),
		logger: logger,
	}
	b.running.Store(true)
	return b
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)

// SetFailureRecorder installs a metrics hook
func (b *InMemoryEventBus) SetFailureRecorder(r FailureRecorder) {
	b.failures = r
}

// Publish delivers events in order. It only fails for a cancelled context.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if !b.running.Load() {
		b.logger.Warn("event bus stopped, dropping events", zap.Int("count", len(events)))
		return nil
	}
	b.inflight.Add(1)
	defer b.inflight.Done()

	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, h := range b.handlersFor(ev.EventType()) {
			if err := b.dispatch(ctx, h, ev); err != nil {
				logger.L(ctx).Error("event handler failed",
					zap.String("event_type", ev.EventType()),
					zap.String("event_id", ev.EventID().String()),
					zap.String("tenant_id", ev.TenantID().String()),
					zap.Error(err),
				)
				if b.failures != nil {
					b.failures.HandlerFailed(ctx, ev.EventType())
				}
			}
		}
	}
	return nil
}

// Subscribe registers handler for eventTypes, or for handler.EventTypes()
// when none are given. A handler with no types at all receives every event.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(eventTypes) == 0 {
		b.wildcard = append(b.wildcard, handler)
		return
	}
	for _, t := range eventTypes {
		b.byType[t] = append(b.byType[t], handler)
	}
	b.logger.Debug("event handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes handler from every event type
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.wildcard = without(b.wildcard, handler)
	for t, hs := range b.byType {
		if hs = without(hs, handler); len(hs) == 0 {
			delete(b.byType, t)
		} else {
			b.byType[t] = hs
		}
	}
}

// Start (re)enables delivery
func (b *InMemoryEventBus) Start(context.Context) error {
	b.running.Store(true)
	b.logger.Info("event bus started")
	return nil
}

// Stop disables delivery and waits for in-flight publishes or ctx
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.running.Store(false)
	done := make(chan struct{})
	go func() {
		b.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		b.logger.Info("event bus stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *InMemoryEventBus) handlersFor(eventType string) []shared.EventHandler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]shared.EventHandler, 0, len(b.byType[eventType])+len(b.wildcard))
	out = append(out, b.byType[eventType]...)
	return append(out, b.wildcard...)
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, h shared.EventHandler, ev shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h.Handle(ctx, ev)
}

func without(hs []shared.EventHandler, target shared.EventHandler) []shared.EventHandler {
	out := hs[:0:0]
	for _, h := range hs {
		if h != target {
			out = append(out, h)
		}
	}
	return out
}

// HandlerFunc adapts a function to shared.EventHandler
type HandlerFunc struct {
	Types []string
	Fn    func(ctx context.Context, ev shared.DomainEvent) error
}

// Handle calls Fn
func (h *HandlerFunc) Handle(ctx context.Context, ev shared.DomainEvent) error { return h.Fn(ctx, ev) }

// EventTypes returns Types
func (h *HandlerFunc) EventTypes() []string { return h.Types }
