package pos

import (
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AggregateTypeSaleOrder = "SaleOrder"

	EventTypeSaleCompleted = "SaleCompleted"
	EventTypeSaleVoided    = "SaleVoided"
)

// SaleCompletedEvent is raised when a ticket is rung up
type SaleCompletedEvent struct {
	shared.BaseDomainEvent
	Number        string            `json:"number"`
	LocationID    shared.LocationID `json:"location_id"`
	ShiftID       uuid.UUID         `json:"shift_id"`
	Total         decimal.Decimal   `json:"total"`
	PaymentMethod PaymentMethod     `json:"payment_method"`
}

func NewSaleCompletedEvent(o *SaleOrder) *SaleCompletedEvent {
	return &SaleCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCompleted, AggregateTypeSaleOrder, o.ID, o.TenantID),
		Number:          o.Number,
		LocationID:      o.LocationID,
		ShiftID:         o.ShiftID,
		Total:           o.Total,
		PaymentMethod:   o.PaymentMethod,
	}
}

// SaleVoidedEvent is raised when a ticket is cancelled
type SaleVoidedEvent struct {
	shared.BaseDomainEvent
	Number        string            `json:"number"`
	LocationID    shared.LocationID `json:"location_id"`
	ShiftID       uuid.UUID         `json:"shift_id"`
	Total         decimal.Decimal   `json:"total"`
	PaymentMethod PaymentMethod     `json:"payment_method"`
	Reason        string            `json:"reason"`
}

func NewSaleVoidedEvent(o *SaleOrder) *SaleVoidedEvent {
	return &SaleVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleVoided, AggregateTypeSaleOrder, o.ID, o.TenantID),
		Number:          o.Number,
		LocationID:      o.LocationID,
		ShiftID:         o.ShiftID,
		Total:           o.Total,
		PaymentMethod:   o.PaymentMethod,
		Reason:          o.VoidReason,
	}
}
