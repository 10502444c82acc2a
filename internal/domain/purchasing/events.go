package purchasing

import (
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	AggregateTypePurchaseOrder = "PurchaseOrder"

	EventTypePurchaseOrderCreated   = "PurchaseOrderCreated"
	EventTypePurchaseOrderSubmitted = "PurchaseOrderSubmitted"
	EventTypePurchaseOrderDelivered = "PurchaseOrderDelivered"
	EventTypePurchaseOrderCancelled = "PurchaseOrderCancelled"
)

// PurchaseOrderCreatedEvent is raised when a draft is created
type PurchaseOrderCreatedEvent struct {
	shared.BaseDomainEvent
	Number     string            `json:"number"`
	LocationID shared.LocationID `json:"location_id"`
}

func NewPurchaseOrderCreatedEvent(p *PurchaseOrder) *PurchaseOrderCreatedEvent {
	return &PurchaseOrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderCreated, AggregateTypePurchaseOrder, p.ID, p.TenantID),
		Number:          p.Number,
		LocationID:      p.LocationID,
	}
}

// PurchaseOrderSubmittedEvent is raised when a draft is sent to the supplier
type PurchaseOrderSubmittedEvent struct {
	shared.BaseDomainEvent
	Number string          `json:"number"`
	Total  decimal.Decimal `json:"total"`
}

func NewPurchaseOrderSubmittedEvent(p *PurchaseOrder) *PurchaseOrderSubmittedEvent {
	return &PurchaseOrderSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderSubmitted, AggregateTypePurchaseOrder, p.ID, p.TenantID),
		Number:          p.Number,
		Total:           p.Total,
	}
}

// PurchaseOrderDeliveredEvent is raised when goods are received
type PurchaseOrderDeliveredEvent struct {
	shared.BaseDomainEvent
	Number      string            `json:"number"`
	LocationID  shared.LocationID `json:"location_id"`
	ShippingFee decimal.Decimal   `json:"shipping_fee"`
	Total       decimal.Decimal   `json:"total"`
	Lines       []DeliveredLine   `json:"lines"`
}

func NewPurchaseOrderDeliveredEvent(p *PurchaseOrder, lines []DeliveredLine) *PurchaseOrderDeliveredEvent {
	return &PurchaseOrderDeliveredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderDelivered, AggregateTypePurchaseOrder, p.ID, p.TenantID),
		Number:          p.Number,
		LocationID:      p.LocationID,
		ShippingFee:     p.ShippingFee,
		Total:           p.Total,
		Lines:           lines,
	}
}

// PurchaseOrderCancelledEvent is raised when an order is abandoned
type PurchaseOrderCancelledEvent struct {
	shared.BaseDomainEvent
	Number string `json:"number"`
	Reason string `json:"reason"`
}

func NewPurchaseOrderCancelledEvent(p *PurchaseOrder) *PurchaseOrderCancelledEvent {
	return &PurchaseOrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderCancelled, AggregateTypePurchaseOrder, p.ID, p.TenantID),
		Number:          p.Number,
		Reason:          p.CancelReason,
	}
}
