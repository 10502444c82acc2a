package purchasing

import (
	"strings"
	"time"

	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of a purchase order
type OrderStatus string

const (
	OrderStatusDraft     OrderStatus = "draft"
	OrderStatusOrdered   OrderStatus = "ordered"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsValid reports whether s is a known status
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusDraft, OrderStatusOrdered, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state machine allows moving to target
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusDraft:
		return target == OrderStatusOrdered || target == OrderStatusDelivered || target == OrderStatusCancelled
	case OrderStatusOrdered:
		return target == OrderStatusDelivered || target == OrderStatusCancelled
	}
	return false
}

// OrderItem is one line of a purchase order. InventoryItemID is nil for
// goods not yet tracked in inventory; delivery creates the item.
type OrderItem struct {
	ID                uuid.UUID
	InventoryItemID   *uuid.UUID
	Name              string
	Unit              string
	Quantity          decimal.Decimal
	UnitPrice         decimal.Decimal
	ReceivedQuantity  decimal.Decimal
	AllocatedShipping decimal.Decimal
	EffectiveUnitCost decimal.Decimal
}

// Subtotal is ordered quantity times unit price
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}

// ItemInput describes a line when creating or editing an order
type ItemInput struct {
	InventoryItemID *uuid.UUID
	Name            string
	Unit            string
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
}

func newOrderItem(in ItemInput) (OrderItem, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return OrderItem{}, shared.NewDomainError("INVALID_ITEM_NAME", "Order line needs an item name")
	}
	if !in.Quantity.IsPositive() {
		return OrderItem{}, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if in.UnitPrice.IsNegative() {
		return OrderItem{}, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	unit := strings.TrimSpace(in.Unit)
	if unit == "" {
		unit = "pcs"
	}
	return OrderItem{
		ID:                uuid.New(),
		InventoryItemID:   in.InventoryItemID,
		Name:              name,
		Unit:              unit,
		Quantity:          in.Quantity,
		UnitPrice:         in.UnitPrice,
		ReceivedQuantity:  decimal.Zero,
		AllocatedShipping: decimal.Zero,
		EffectiveUnitCost: decimal.Zero,
	}, nil
}

// PurchaseOrder records goods ordered from a supplier for one location
type PurchaseOrder struct {
	shared.TenantAggregateRoot
	LocationID   shared.LocationID
	Number       string
	SupplierID   *uuid.UUID
	SupplierName string
	Status       OrderStatus
	Items        []OrderItem
	ShippingFee  decimal.Decimal
	Subtotal     decimal.Decimal
	Total        decimal.Decimal
	Notes        string
	ExpectedAt   *time.Time
	OrderedAt    *time.Time
	DeliveredAt  *time.Time
	CancelledAt  *time.Time
	CancelReason string
}

// NewPurchaseOrder creates a draft order
func NewPurchaseOrder(tenantID uuid.UUID, loc shared.LocationID, number string, supplierID *uuid.UUID, supplierName string) (*PurchaseOrder, error) {
	if _, err := shared.ParseLocationID(loc.String()); err != nil {
		return nil, err
	}
	if strings.TrimSpace(number) == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	po := &PurchaseOrder{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		LocationID:          loc,
		Number:              number,
		SupplierID:          supplierID,
		SupplierName:        strings.TrimSpace(supplierName),
		Status:              OrderStatusDraft,
		Items:               []OrderItem{},
		ShippingFee:         decimal.Zero,
		Subtotal:            decimal.Zero,
		Total:               decimal.Zero,
	}
	po.AddDomainEvent(NewPurchaseOrderCreatedEvent(po))
	return po, nil
}

// SetItems replaces every line. Lines referencing the same inventory item are rejected.
func (p *PurchaseOrder) SetItems(inputs []ItemInput) error {
	if p.Status != OrderStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Only draft orders can be edited")
	}
	items := make([]OrderItem, 0, len(inputs))
	seen := make(map[uuid.UUID]bool)
	for _, in := range inputs {
		if in.InventoryItemID != nil {
			if seen[*in.InventoryItemID] {
				return shared.NewDomainError("DUPLICATE_ITEM", "Inventory item appears on more than one line")
			}
			seen[*in.InventoryItemID] = true
		}
		item, err := newOrderItem(in)
		if err != nil {
			return err
		}
		items = append(items, item)
	}
	p.Items = items
	p.recalculateTotals()
	p.IncrementVersion()
	return nil
}

// SetShippingFee records the freight charge. It can change until delivery.
func (p *PurchaseOrder) SetShippingFee(fee decimal.Decimal) error {
	if p.Status != OrderStatusDraft && p.Status != OrderStatusOrdered {
		return shared.NewDomainError("INVALID_STATE", "Shipping fee cannot change after delivery or cancellation")
	}
	if fee.IsNegative() {
		return shared.NewDomainError("INVALID_SHIPPING_FEE", "Shipping fee cannot be negative")
	}
	p.ShippingFee = fee
	p.recalculateTotals()
	return nil
}

// SetDetails updates supplier, notes and expected date on a draft
func (p *PurchaseOrder) SetDetails(supplierID *uuid.UUID, supplierName, notes string, expectedAt *time.Time) error {
	if p.Status != OrderStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Only draft orders can be edited")
	}
	p.SupplierID = supplierID
	p.SupplierName = strings.TrimSpace(supplierName)
	p.Notes = strings.TrimSpace(notes)
	p.ExpectedAt = expectedAt
	return nil
}

// Submit sends a draft to the supplier
func (p *PurchaseOrder) Submit() error {
	if !p.Status.CanTransitionTo(OrderStatusOrdered) {
		return shared.NewDomainError("INVALID_STATE", "Only draft orders can be submitted")
	}
	if len(p.Items) == 0 {
		return shared.NewDomainError("EMPTY_ORDER", "Order has no items")
	}
	now := time.Now().UTC()
	p.Status = OrderStatusOrdered
	p.OrderedAt = &now
	p.IncrementVersion()
	p.AddDomainEvent(NewPurchaseOrderSubmittedEvent(p))
	return nil
}

// Cancel abandons an order that has not been delivered
func (p *PurchaseOrder) Cancel(reason string) error {
	if !p.Status.CanTransitionTo(OrderStatusCancelled) {
		return shared.NewDomainError("INVALID_STATE", "Only draft or ordered purchase orders can be cancelled")
	}
	now := time.Now().UTC()
	p.Status = OrderStatusCancelled
	p.CancelledAt = &now
	p.CancelReason = strings.TrimSpace(reason)
	p.IncrementVersion()
	p.AddDomainEvent(NewPurchaseOrderCancelledEvent(p))
	return nil
}

// DeliveryInput overrides the received quantity per line (keyed by line id)
// and optionally the final shipping fee.
type DeliveryInput struct {
	Received    map[uuid.UUID]decimal.Decimal
	ShippingFee *decimal.Decimal
}

// DeliveredLine is the outcome of delivery for one line, used to update inventory
type DeliveredLine struct {
	LineID            uuid.UUID
	InventoryItemID   *uuid.UUID
	Name              string
	Unit              string
	Quantity          decimal.Decimal
	EffectiveUnitCost decimal.Decimal
}

// Deliver marks the order received, distributes the shipping fee over the
// received lines and computes each line's effective unit cost. Lines with a
// zero received quantity are kept on the order but produce no DeliveredLine.
func (p *PurchaseOrder) Deliver(in DeliveryInput) ([]DeliveredLine, error) {
	if !p.Status.CanTransitionTo(OrderStatusDelivered) {
		return nil, shared.WrapDomainError(shared.ErrInvalidState.Code,
			"Purchase order "+p.Number+" cannot be delivered from status "+string(p.Status), shared.ErrInvalidState)
	}
	if len(p.Items) == 0 {
		return nil, shared.NewDomainError("EMPTY_ORDER", "Order has no items")
	}
	fee := p.ShippingFee
	if in.ShippingFee != nil {
		if in.ShippingFee.IsNegative() {
			return nil, shared.NewDomainError("INVALID_SHIPPING_FEE", "Shipping fee cannot be negative")
		}
		fee = *in.ShippingFee
	}

	received := make([]decimal.Decimal, len(p.Items))
	lines := make([]AllocationLine, len(p.Items))
	anyReceived := false
	for i, item := range p.Items {
		qty := item.Quantity
		if override, ok := in.Received[item.ID]; ok {
			qty = override
		}
		if qty.IsNegative() {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Received quantity cannot be negative")
		}
		if qty.IsPositive() {
			anyReceived = true
		}
		received[i] = qty
		lines[i] = AllocationLine{Subtotal: qty.Mul(item.UnitPrice), Units: qty}
	}
	if !anyReceived {
		return nil, shared.NewDomainError("NOTHING_RECEIVED", "At least one line must have a received quantity")
	}

	p.ShippingFee = fee
	shares := AllocateShipping(fee, lines)
	delivered := make([]DeliveredLine, 0, len(p.Items))
	for i := range p.Items {
		item := &p.Items[i]
		item.ReceivedQuantity = received[i]
		item.AllocatedShipping = shares[i]
		if !received[i].IsPositive() {
			item.EffectiveUnitCost = decimal.Zero
			continue
		}
		item.EffectiveUnitCost = EffectiveUnitPrice(item.UnitPrice, shares[i], received[i])
		delivered = append(delivered, DeliveredLine{
			LineID:            item.ID,
			InventoryItemID:   item.InventoryItemID,
			Name:              item.Name,
			Unit:              item.Unit,
			Quantity:          received[i],
			EffectiveUnitCost: item.EffectiveUnitCost,
		})
	}

	now := time.Now().UTC()
	p.Status = OrderStatusDelivered
	p.DeliveredAt = &now
	p.recalculateTotals()
	p.IncrementVersion()
	p.AddDomainEvent(NewPurchaseOrderDeliveredEvent(p, delivered))
	return delivered, nil
}

// LinkInventoryItem records the inventory item created for an unlinked line
func (p *PurchaseOrder) LinkInventoryItem(lineID, inventoryItemID uuid.UUID) {
	for i := range p.Items {
		if p.Items[i].ID == lineID {
			id := inventoryItemID
			p.Items[i].InventoryItemID = &id
			return
		}
	}
}

// UnlinkInventoryItem clears a line's reference to a deleted inventory item
func (p *PurchaseOrder) UnlinkInventoryItem(inventoryItemID uuid.UUID) bool {
	changed := false
	for i := range p.Items {
		if p.Items[i].InventoryItemID != nil && *p.Items[i].InventoryItemID == inventoryItemID {
			p.Items[i].InventoryItemID = nil
			changed = true
		}
	}
	if changed {
		p.IncrementVersion()
	}
	return changed
}

// recalculateTotals uses received quantities once delivered
func (p *PurchaseOrder) recalculateTotals() {
	subtotal := decimal.Zero
	for _, item := range p.Items {
		qty := item.Quantity
		if p.Status == OrderStatusDelivered {
			qty = item.ReceivedQuantity
		}
		subtotal = subtotal.Add(qty.Mul(item.UnitPrice))
	}
	p.Subtotal = subtotal.Round(2)
	p.Total = p.Subtotal.Add(p.ShippingFee)
}
