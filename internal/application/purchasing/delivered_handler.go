package purchasing

import (
	"context"
	"fmt"

	"github.com/coretrack/backend/internal/domain/purchasing"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TopicOrderDelivered is the realtime topic for received purchase orders
const TopicOrderDelivered = "purchasing.delivered"

// Broadcaster pushes a message to the connected clients of a tenant
type Broadcaster interface {
	Broadcast(ctx context.Context, tenantID uuid.UUID, topic string, data any) error
}

// DeliveryRecorder counts deliveries
type DeliveryRecorder interface {
	RecordDelivery(ctx context.Context, tenantID uuid.UUID, lines int, total decimal.Decimal)
}

// DeliveryNotice is the payload sent to clients
type DeliveryNotice struct {
	OrderID    uuid.UUID       `json:"order_id"`
	Number     string          `json:"number"`
	LocationID string          `json:"location_id"`
	Lines      int             `json:"lines"`
	Total      decimal.Decimal `json:"total"`
}

// DeliveredHandler reacts to PurchaseOrderDelivered events
type DeliveredHandler struct {
	broadcaster Broadcaster
	metrics     DeliveryRecorder
	logger      *zap.Logger
}

// NewDeliveredHandler creates the handler. metrics may be nil.
func NewDeliveredHandler(broadcaster Broadcaster, metrics DeliveryRecorder, logger *zap.Logger) *DeliveredHandler {
	return &DeliveredHandler{broadcaster: broadcaster, metrics: metrics, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *DeliveredHandler) EventTypes() []string {
	return []string{purchasing.EventTypePurchaseOrderDelivered}
}

// Handle processes a PurchaseOrderDeliveredEvent
func (h *DeliveredHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	delivered, ok := event.(*purchasing.PurchaseOrderDeliveredEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			purchasing.EventTypePurchaseOrderDelivered, event.EventType())
	}

	if h.metrics != nil {
		h.metrics.RecordDelivery(ctx, event.TenantID(), len(delivered.Lines), delivered.Total)
	}

	notice := DeliveryNotice{
		OrderID:    delivered.AggregateID(),
		Number:     delivered.Number,
		LocationID: delivered.LocationID.String(),
		Lines:      len(delivered.Lines),
		Total:      delivered.Total,
	}
	if err := h.broadcaster.Broadcast(ctx, event.TenantID(), TopicOrderDelivered, notice); err != nil {
		h.logger.Error("broadcast delivery", zap.String("number", delivered.Number), zap.Error(err))
	}
	return nil
}

var _ shared.EventHandler = (*DeliveredHandler)(nil)
