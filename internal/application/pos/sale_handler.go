package pos

import (
	"context"
	"fmt"

	"github.com/coretrack/backend/internal/domain/pos"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// TopicSaleCompleted is the realtime topic for new sales
	TopicSaleCompleted = "pos.sale_completed"
	// TopicSaleVoided is the realtime topic for voided sales
	TopicSaleVoided = "pos.sale_voided"
)

// Broadcaster pushes a message to the connected clients of a tenant
type Broadcaster interface {
	Broadcast(ctx context.Context, tenantID uuid.UUID, topic string, data any) error
}

// SaleRecorder counts sales
type SaleRecorder interface {
	RecordSale(ctx context.Context, tenantID uuid.UUID, method string, total decimal.Decimal)
	RecordSaleVoided(ctx context.Context, tenantID uuid.UUID, method string, total decimal.Decimal)
}

// SaleNotice is the payload sent to clients
type SaleNotice struct {
	SaleID        uuid.UUID       `json:"sale_id"`
	Number        string          `json:"number"`
	LocationID    string          `json:"location_id"`
	ShiftID       uuid.UUID       `json:"shift_id"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod string          `json:"payment_method"`
}

// SaleEventHandler forwards completed and voided sales to metrics and
// realtime clients
type SaleEventHandler struct {
	broadcaster Broadcaster
	metrics     SaleRecorder
	logger      *zap.Logger
}

// NewSaleEventHandler creates the handler. metrics may be nil.
func NewSaleEventHandler(broadcaster Broadcaster, metrics SaleRecorder, logger *zap.Logger) *SaleEventHandler {
	return &SaleEventHandler{broadcaster: broadcaster, metrics: metrics, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *SaleEventHandler) EventTypes() []string {
	return []string{pos.EventTypeSaleCompleted, pos.EventTypeSaleVoided}
}

// Handle processes SaleCompleted and SaleVoided events
func (h *SaleEventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var (
		topic  string
		notice SaleNotice
	)
	switch e := event.(type) {
	case *pos.SaleCompletedEvent:
		if h.metrics != nil {
			h.metrics.RecordSale(ctx, event.TenantID(), string(e.PaymentMethod), e.Total)
		}
		topic = TopicSaleCompleted
		notice = SaleNotice{SaleID: e.AggregateID(), Number: e.Number, LocationID: e.LocationID.String(),
			ShiftID: e.ShiftID, Total: e.Total, PaymentMethod: string(e.PaymentMethod)}
	case *pos.SaleVoidedEvent:
		if h.metrics != nil {
			h.metrics.RecordSaleVoided(ctx, event.TenantID(), string(e.PaymentMethod), e.Total)
		}
		topic = TopicSaleVoided
		notice = SaleNotice{SaleID: e.AggregateID(), Number: e.Number, LocationID: e.LocationID.String(),
			ShiftID: e.ShiftID, Total: e.Total, PaymentMethod: string(e.PaymentMethod)}
	default:
		return fmt.Errorf("unexpected event type: expected %s or %s, got %s",
			pos.EventTypeSaleCompleted, pos.EventTypeSaleVoided, event.EventType())
	}

	if err := h.broadcaster.Broadcast(ctx, event.TenantID(), topic, notice); err != nil {
		h.logger.Error("broadcast sale", zap.String("number", notice.Number), zap.Error(err))
	}
	return nil
}

var _ shared.EventHandler = (*SaleEventHandler)(nil)
