// Package realtime delivers tenant scoped change notifications to connected
// clients over SSE and websockets, fanned out across instances.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultBufferSize = 64

// Message is one notification on the change feed
type Message struct {
	ID       string          `json:"id"`
	TenantID uuid.UUID       `json:"tenant_id"`
	Topic    string          `json:"topic"`
	Data     json.RawMessage `json:"data"`
	SentAt   time.Time       `json:"sent_at"`
}

// Fanout carries messages between instances. Publish sends a message to every
// instance, Run delivers what arrives until ctx is done.
type Fanout interface {
	Publish(ctx context.Context, msg Message) error
	Run(ctx context.Context, deliver func(Message)) error
}

// Subscriber is a single connected client
type Subscriber struct {
	ID       string
	TenantID uuid.UUID
	UserID   uuid.UUID
	C        <-chan Message

	ch     chan Message
	closed bool
}

// Hub keeps the local subscribers grouped by tenant
type Hub struct {
	fanout     Fanout
	logger     *zap.Logger
	bufferSize int
	maxClients int

	mu      sync.RWMutex
	tenants map[uuid.UUID]map[string]*Subscriber
	count   int
}

// HubOption configures a Hub
type HubOption func(*Hub)

// WithFanout routes broadcasts through a cross-instance fanout
func WithFanout(f Fanout) HubOption {
	return func(h *Hub) { h.fanout = f }
}

// WithBufferSize sets the per-client queue length
func WithBufferSize(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.bufferSize = n
		}
	}
}

// WithMaxClients caps concurrent subscribers; zero means unlimited
func WithMaxClients(n int) HubOption {
	return func(h *Hub) { h.maxClients = n }
}

// ErrTooManyClients is returned by Subscribe when the hub is full
var ErrTooManyClients = errors.New("realtime: maximum number of clients reached")

// NewHub creates a hub. Without a fanout messages are delivered in process.
func NewHub(logger *zap.Logger, opts ...HubOption) *Hub {
	h := &Hub{
		logger:     logger,
		bufferSize: defaultBufferSize,
		tenants:    make(map[uuid.UUID]map[string]*Subscriber),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers a client. The returned func unregisters it and closes C.
func (h *Hub) Subscribe(tenantID, userID uuid.UUID) (*Subscriber, func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.maxClients > 0 && h.count >= h.maxClients {
		return nil, nil, ErrTooManyClients
	}

	ch := make(chan Message, h.bufferSize)
	sub := &Subscriber{ID: uuid.NewString(), TenantID: tenantID, UserID: userID, C: ch, ch: ch}
	if h.tenants[tenantID] == nil {
		h.tenants[tenantID] = make(map[string]*Subscriber)
	}
	h.tenants[tenantID][sub.ID] = sub
	h.count++

	var once sync.Once
	return sub, func() { once.Do(func() { h.unsubscribe(sub) }) }, nil
}

func (h *Hub) unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.tenants[sub.TenantID]
	if _, ok := subs[sub.ID]; !ok {
		return
	}
	delete(subs, sub.ID)
	if len(subs) == 0 {
		delete(h.tenants, sub.TenantID)
	}
	h.count--
	sub.closed = true
	close(sub.ch)
}

// Broadcast sends data on topic to every client of the tenant
func (h *Hub) Broadcast(ctx context.Context, tenantID uuid.UUID, topic string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", topic, err)
	}
	msg := Message{
		ID:       uuid.NewString(),
		TenantID: tenantID,
		Topic:    topic,
		Data:     payload,
		SentAt:   time.Now().UTC(),
	}
	if h.fanout == nil {
		h.Deliver(msg)
		return nil
	}
	if err := h.fanout.Publish(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", topic, err)
	}
	return nil
}

// Deliver hands a message to the local clients of its tenant. A client whose
// queue is full misses the message rather than stalling the others.
func (h *Hub) Deliver(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.tenants[msg.TenantID] {
		if sub.closed {
			continue
		}
		select {
		case sub.ch <- msg:
		default:
			h.logger.Warn("Realtime client queue full, dropping message",
				zap.String("client_id", sub.ID),
				zap.String("topic", msg.Topic))
		}
	}
}

// Run pumps the fanout into local delivery until ctx is done.
// Without a fanout it just waits.
func (h *Hub) Run(ctx context.Context) error {
	if h.fanout == nil {
		<-ctx.Done()
		return nil
	}
	err := h.fanout.Run(ctx, h.Deliver)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for tenantID, subs := range h.tenants {
		for _, sub := range subs {
			sub.closed = true
			close(sub.ch)
		}
		delete(h.tenants, tenantID)
	}
	h.count = 0
}
