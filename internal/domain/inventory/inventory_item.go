package inventory

import (
	"strings"

	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryItem is a stock-keeping record at one location. UnitCost is the
// moving weighted-average cost of the units on hand.
type InventoryItem struct {
	shared.TenantAggregateRoot
	LocationID      shared.LocationID
	Name            string
	SKU             string
	Unit            string
	Category        string
	Quantity        decimal.Decimal
	UnitCost        decimal.Decimal
	MinStock        decimal.Decimal
	ReorderQuantity decimal.Decimal
	SupplierID      *uuid.UUID
}

// NewInventoryItem creates an empty item at a location
func NewInventoryItem(tenantID uuid.UUID, loc shared.LocationID, name, unit string) (*InventoryItem, error) {
	if _, err := shared.ParseLocationID(loc.String()); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_ITEM_NAME", "Item name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_ITEM_NAME", "Item name cannot exceed 200 characters")
	}
	unit = strings.TrimSpace(unit)
	if unit == "" {
		unit = "pcs"
	}
	return &InventoryItem{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		LocationID:          loc,
		Name:                name,
		Unit:                unit,
		Quantity:            decimal.Zero,
		UnitCost:            decimal.Zero,
		MinStock:            decimal.Zero,
		ReorderQuantity:     decimal.Zero,
	}, nil
}

// ItemDetails holds the editable descriptive fields of an item
type ItemDetails struct {
	Name            string
	SKU             string
	Unit            string
	Category        string
	MinStock        decimal.Decimal
	ReorderQuantity decimal.Decimal
	SupplierID      *uuid.UUID
}

// UpdateDetails changes descriptive fields and thresholds. Quantity and cost
// only change through movements.
func (i *InventoryItem) UpdateDetails(d ItemDetails) error {
	if name := strings.TrimSpace(d.Name); name != "" {
		i.Name = name
	}
	if unit := strings.TrimSpace(d.Unit); unit != "" {
		i.Unit = unit
	}
	if d.MinStock.IsNegative() || d.ReorderQuantity.IsNegative() {
		return shared.NewDomainError("INVALID_THRESHOLD", "Stock thresholds cannot be negative")
	}
	i.SKU = strings.TrimSpace(d.SKU)
	i.Category = strings.TrimSpace(d.Category)
	i.MinStock = d.MinStock
	i.ReorderQuantity = d.ReorderQuantity
	i.SupplierID = d.SupplierID
	i.IncrementVersion()
	return nil
}

// Receive adds delivered stock at an effective unit price and folds it into
// the weighted-average cost.
func (i *InventoryItem) Receive(qty, effectiveUnitPrice decimal.Decimal, reference string) (*StockMovement, error) {
	if !qty.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Received quantity must be positive")
	}
	if effectiveUnitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_UNIT_COST", "Unit cost cannot be negative")
	}

	oldCost := i.UnitCost
	i.UnitCost = WeightedAverageCost(i.Quantity, i.UnitCost, qty, effectiveUnitPrice)
	i.Quantity = i.Quantity.Add(qty)
	i.IncrementVersion()

	i.AddDomainEvent(NewStockReceivedEvent(i, qty, effectiveUnitPrice, reference))
	if !oldCost.Equal(i.UnitCost) {
		i.AddDomainEvent(NewCostChangedEvent(i, oldCost, reference))
	}
	return newMovement(i, MovementReceive, qty, effectiveUnitPrice, reference, ""), nil
}

// Consume removes stock for a sale. It refuses to go below zero.
func (i *InventoryItem) Consume(qty decimal.Decimal, reference string) (*StockMovement, error) {
	if !qty.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Consumed quantity must be positive")
	}
	if i.Quantity.LessThan(qty) {
		return nil, shared.WrapDomainError(shared.ErrInsufficientStock.Code,
			"Insufficient stock for "+i.Name, shared.ErrInsufficientStock)
	}
	wasLow := i.IsLowStock()
	i.Quantity = i.Quantity.Sub(qty)
	i.IncrementVersion()
	if !wasLow && i.IsLowStock() {
		i.AddDomainEvent(NewStockLowEvent(i))
	}
	return newMovement(i, MovementSale, qty.Neg(), i.UnitCost, reference, ""), nil
}

// Restock returns previously consumed stock (voided sale) at the current cost
func (i *InventoryItem) Restock(qty decimal.Decimal, reference string) (*StockMovement, error) {
	if !qty.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Restocked quantity must be positive")
	}
	i.Quantity = i.Quantity.Add(qty)
	i.IncrementVersion()
	return newMovement(i, MovementVoid, qty, i.UnitCost, reference, ""), nil
}

// Adjust applies a manual correction (spoilage, count differences). The
// result may reach zero but never go negative.
func (i *InventoryItem) Adjust(delta decimal.Decimal, reason string) (*StockMovement, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, shared.NewDomainError("REASON_REQUIRED", "Adjustment reason is required")
	}
	if delta.IsZero() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Adjustment cannot be zero")
	}
	next := i.Quantity.Add(delta)
	if next.IsNegative() {
		return nil, shared.WrapDomainError(shared.ErrInsufficientStock.Code,
			"Adjustment would make stock negative", shared.ErrInsufficientStock)
	}
	wasLow := i.IsLowStock()
	i.Quantity = next
	i.IncrementVersion()
	if !wasLow && i.IsLowStock() {
		i.AddDomainEvent(NewStockLowEvent(i))
	}
	return newMovement(i, MovementAdjust, delta, i.UnitCost, "", reason), nil
}

// ClampNegative resets a negative balance left by legacy data to zero
func (i *InventoryItem) ClampNegative(reason string) *StockMovement {
	if !i.Quantity.IsNegative() {
		return nil
	}
	delta := i.Quantity.Neg()
	i.Quantity = decimal.Zero
	i.IncrementVersion()
	return newMovement(i, MovementAdjust, delta, i.UnitCost, "", reason)
}

// MoveTo re-homes an item to another location (integrity repair). The
// returned transfer movement carries no quantity change.
func (i *InventoryItem) MoveTo(loc shared.LocationID, reason string) (*StockMovement, error) {
	if _, err := shared.ParseLocationID(loc.String()); err != nil {
		return nil, err
	}
	from := i.LocationID
	i.LocationID = loc
	i.IncrementVersion()
	if reason == "" {
		reason = "moved from " + from.String()
	}
	return newMovement(i, MovementTransfer, decimal.Zero, i.UnitCost, "", reason), nil
}

// IsLowStock reports whether quantity is at or below the minimum threshold
func (i *InventoryItem) IsLowStock() bool {
	return i.MinStock.IsPositive() && i.Quantity.LessThanOrEqual(i.MinStock)
}

// SuggestedReorder returns how much to order to get comfortably above the minimum
func (i *InventoryItem) SuggestedReorder() decimal.Decimal {
	if i.ReorderQuantity.IsPositive() {
		return i.ReorderQuantity
	}
	target := i.MinStock.Mul(decimal.NewFromInt(2)).Sub(i.Quantity)
	if target.IsNegative() {
		return decimal.Zero
	}
	return target
}

// StockValue is the on-hand quantity valued at the average cost
func (i *InventoryItem) StockValue() decimal.Decimal {
	if i.Quantity.IsNegative() {
		return decimal.Zero
	}
	return i.Quantity.Mul(i.UnitCost).Round(2)
}
