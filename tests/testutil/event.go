// Package testutil holds test doubles and helpers shared by CoreTrack tests.
package testutil

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/coretrack/backend/internal/domain/shared"
)

// TestEvent is a minimal domain event
type TestEvent struct {
	shared.BaseDomainEvent
	Data string
}

// NewTestEvent creates an event of eventType for tenantID
func NewTestEvent(eventType string, tenantID uuid.UUID) *TestEvent {
	return &TestEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "TestAggregate", uuid.New(), tenantID),
		Data:            "test-data",
	}
}

// RecordingPublisher is a shared.EventPublisher that keeps what it was given
type RecordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
	Err    error
}

// Publish records events and returns Err
func (p *RecordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return p.Err
}

// Events returns everything published so far
func (p *RecordingPublisher) Events() []shared.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]shared.DomainEvent(nil), p.events...)
}

// Types returns the event types published so far, in order
func (p *RecordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

// OfType returns the published events of one type
func (p *RecordingPublisher) OfType(eventType string) []shared.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []shared.DomainEvent
	for _, e := range p.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}
