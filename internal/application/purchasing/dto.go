package purchasing

import (
	"time"

	"github.com/coretrack/backend/internal/domain/purchasing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItemRequest is one line of a purchase order request
type OrderItemRequest struct {
	InventoryItemID *uuid.UUID      `json:"inventory_item_id"`
	Name            string          `json:"name" binding:"required,max=200"`
	Unit            string          `json:"unit" binding:"max=20"`
	Quantity        decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
}

// CreateOrderRequest creates a draft purchase order
type CreateOrderRequest struct {
	LocationID   string             `json:"location_id" binding:"required,location_id"`
	SupplierID   *uuid.UUID         `json:"supplier_id"`
	SupplierName string             `json:"supplier_name" binding:"max=200"`
	Notes        string             `json:"notes" binding:"max=2000"`
	ExpectedAt   *time.Time         `json:"expected_at"`
	ShippingFee  decimal.Decimal    `json:"shipping_fee"`
	Items        []OrderItemRequest `json:"items" binding:"dive"`
}

// UpdateOrderRequest replaces the editable parts of a draft
type UpdateOrderRequest struct {
	SupplierID   *uuid.UUID         `json:"supplier_id"`
	SupplierName string             `json:"supplier_name" binding:"max=200"`
	Notes        string             `json:"notes" binding:"max=2000"`
	ExpectedAt   *time.Time         `json:"expected_at"`
	ShippingFee  decimal.Decimal    `json:"shipping_fee"`
	Items        []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// DeliveryLineRequest overrides the received quantity of a line
type DeliveryLineRequest struct {
	LineID           uuid.UUID       `json:"line_id" binding:"required"`
	ReceivedQuantity decimal.Decimal `json:"received_quantity"`
}

// DeliverOrderRequest records the goods received. Lines not listed are
// received in full.
type DeliverOrderRequest struct {
	Lines       []DeliveryLineRequest `json:"lines" binding:"dive"`
	ShippingFee *decimal.Decimal      `json:"shipping_fee"`
}

// CancelOrderRequest abandons an order
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// OrderListFilter is bound from list query parameters
type OrderListFilter struct {
	LocationID string     `form:"location_id" binding:"omitempty,location_id"`
	Status     string     `form:"status" binding:"omitempty,oneof=draft ordered delivered cancelled"`
	SupplierID *uuid.UUID `form:"supplier_id"`
	Search     string     `form:"search"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// OrderItemResponse is one line as returned by the API
type OrderItemResponse struct {
	ID                uuid.UUID       `json:"id"`
	InventoryItemID   *uuid.UUID      `json:"inventory_item_id,omitempty"`
	Name              string          `json:"name"`
	Unit              string          `json:"unit"`
	Quantity          decimal.Decimal `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	ReceivedQuantity  decimal.Decimal `json:"received_quantity"`
	AllocatedShipping decimal.Decimal `json:"allocated_shipping"`
	EffectiveUnitCost decimal.Decimal `json:"effective_unit_cost"`
}

// OrderResponse is a purchase order as returned by the API
type OrderResponse struct {
	ID           uuid.UUID           `json:"id"`
	LocationID   string              `json:"location_id"`
	Number       string              `json:"number"`
	SupplierID   *uuid.UUID          `json:"supplier_id,omitempty"`
	SupplierName string              `json:"supplier_name,omitempty"`
	Status       string              `json:"status"`
	Items        []OrderItemResponse `json:"items"`
	ShippingFee  decimal.Decimal     `json:"shipping_fee"`
	Subtotal     decimal.Decimal     `json:"subtotal"`
	Total        decimal.Decimal     `json:"total"`
	Notes        string              `json:"notes,omitempty"`
	ExpectedAt   *time.Time          `json:"expected_at,omitempty"`
	OrderedAt    *time.Time          `json:"ordered_at,omitempty"`
	DeliveredAt  *time.Time          `json:"delivered_at,omitempty"`
	CancelledAt  *time.Time          `json:"cancelled_at,omitempty"`
	CancelReason string              `json:"cancel_reason,omitempty"`
	Version      int                 `json:"version"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// ToOrderResponse maps a purchase order
func ToOrderResponse(p *purchasing.PurchaseOrder) OrderResponse {
	items := make([]OrderItemResponse, len(p.Items))
	for i, it := range p.Items {
		items[i] = OrderItemResponse{
			ID:                it.ID,
			InventoryItemID:   it.InventoryItemID,
			Name:              it.Name,
			Unit:              it.Unit,
			Quantity:          it.Quantity,
			UnitPrice:         it.UnitPrice,
			Subtotal:          it.Subtotal(),
			ReceivedQuantity:  it.ReceivedQuantity,
			AllocatedShipping: it.AllocatedShipping,
			EffectiveUnitCost: it.EffectiveUnitCost,
		}
	}
	return OrderResponse{
		ID:           p.ID,
		LocationID:   p.LocationID.String(),
		Number:       p.Number,
		SupplierID:   p.SupplierID,
		SupplierName: p.SupplierName,
		Status:       string(p.Status),
		Items:        items,
		ShippingFee:  p.ShippingFee,
		Subtotal:     p.Subtotal,
		Total:        p.Total,
		Notes:        p.Notes,
		ExpectedAt:   p.ExpectedAt,
		OrderedAt:    p.OrderedAt,
		DeliveredAt:  p.DeliveredAt,
		CancelledAt:  p.CancelledAt,
		CancelReason: p.CancelReason,
		Version:      p.Version,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// DeliveryResponse reports the order and the stock booked in
type DeliveryResponse struct {
	Order OrderResponse          `json:"order"`
	Lines []DeliveredLineResponse `json:"lines"`
}

// DeliveredLineResponse is one received line and the inventory it updated
type DeliveredLineResponse struct {
	LineID            uuid.UUID       `json:"line_id"`
	InventoryItemID   uuid.UUID       `json:"inventory_item_id"`
	Name              string          `json:"name"`
	Quantity          decimal.Decimal `json:"quantity"`
	EffectiveUnitCost decimal.Decimal `json:"effective_unit_cost"`
	NewUnitCost       decimal.Decimal `json:"new_unit_cost"`
	QuantityAfter     decimal.Decimal `json:"quantity_after"`
	Created           bool            `json:"created"`
}

// SupplierRequest creates or updates a supplier
type SupplierRequest struct {
	Name        string `json:"name" binding:"required,max=200"`
	ContactName string `json:"contact_name" binding:"max=100"`
	Email       string `json:"email" binding:"omitempty,email"`
	Phone       string `json:"phone" binding:"max=50"`
	Address     string `json:"address" binding:"max=500"`
}

func (r SupplierRequest) details() purchasing.SupplierDetails {
	return purchasing.SupplierDetails{
		Name:        r.Name,
		ContactName: r.ContactName,
		Email:       r.Email,
		Phone:       r.Phone,
		Address:     r.Address,
	}
}

// SupplierResponse is a supplier as returned by the API
type SupplierResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	ContactName string    `json:"contact_name,omitempty"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Address     string    `json:"address,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToSupplierResponse maps a supplier
func ToSupplierResponse(s *purchasing.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:          s.ID,
		Name:        s.Name,
		ContactName: s.ContactName,
		Email:       s.Email,
		Phone:       s.Phone,
		Address:     s.Address,
		Active:      s.Active,
		CreatedAt:   s.CreatedAt,
	}
}
