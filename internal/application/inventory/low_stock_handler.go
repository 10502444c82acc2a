package inventory

import (
	"context"
	"fmt"

	"github.com/coretrack/backend/internal/domain/inventory"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TopicLowStock is the realtime topic for low stock alerts
const TopicLowStock = "inventory.low_stock"

// Broadcaster pushes a message to the connected clients of a tenant
type Broadcaster interface {
	Broadcast(ctx context.Context, tenantID uuid.UUID, topic string, data any) error
}

// LowStockRecorder counts low stock alerts
type LowStockRecorder interface {
	RecordLowStock(ctx context.Context, tenantID uuid.UUID, outOfStock bool)
}

// LowStockAlert is the payload sent to clients
type LowStockAlert struct {
	ItemID           uuid.UUID       `json:"item_id"`
	LocationID       string          `json:"location_id"`
	Name             string          `json:"name"`
	Quantity         decimal.Decimal `json:"quantity"`
	MinStock         decimal.Decimal `json:"min_stock"`
	SuggestedReorder decimal.Decimal `json:"suggested_reorder"`
	OutOfStock       bool            `json:"out_of_stock"`
}

// LowStockHandler forwards StockLow events to realtime clients
type LowStockHandler struct {
	broadcaster Broadcaster
	metrics     LowStockRecorder
	logger      *zap.Logger
}

// NewLowStockHandler creates the handler. metrics may be nil.
func NewLowStockHandler(broadcaster Broadcaster, metrics LowStockRecorder, logger *zap.Logger) *LowStockHandler {
	return &LowStockHandler{broadcaster: broadcaster, metrics: metrics, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *LowStockHandler) EventTypes() []string {
	return []string{inventory.EventTypeStockLow}
}

// Handle processes a StockLowEvent
func (h *LowStockHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	low, ok := event.(*inventory.StockLowEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			inventory.EventTypeStockLow, event.EventType())
	}

	h.logger.Warn("stock below minimum",
		zap.String("tenant_id", event.TenantID().String()),
		zap.String("item_id", low.AggregateID().String()),
		zap.String("location_id", low.LocationID.String()),
		zap.String("quantity", low.Quantity.String()),
		zap.String("min_stock", low.MinStock.String()),
	)

	alert := LowStockAlert{
		ItemID:           low.AggregateID(),
		LocationID:       low.LocationID.String(),
		Name:             low.ItemName,
		Quantity:         low.Quantity,
		MinStock:         low.MinStock,
		SuggestedReorder: low.SuggestedReorder,
		OutOfStock:       !low.Quantity.IsPositive(),
	}
	if h.metrics != nil {
		h.metrics.RecordLowStock(ctx, event.TenantID(), alert.OutOfStock)
	}
	if err := h.broadcaster.Broadcast(ctx, event.TenantID(), TopicLowStock, alert); err != nil {
		// the alert is advisory; the stock change already committed
		h.logger.Error("broadcast low stock alert", zap.Error(err))
	}
	return nil
}

var _ shared.EventHandler = (*LowStockHandler)(nil)
