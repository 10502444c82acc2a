package inventory

import (
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	AggregateTypeInventoryItem = "InventoryItem"

	EventTypeStockReceived = "StockReceived"
	EventTypeCostChanged   = "InventoryCostChanged"
	EventTypeStockLow      = "StockLow"
)

// StockReceivedEvent is raised when delivered stock is booked in
type StockReceivedEvent struct {
	shared.BaseDomainEvent
	LocationID    shared.LocationID `json:"location_id"`
	ItemName      string            `json:"item_name"`
	Quantity      decimal.Decimal   `json:"quantity"`
	UnitCost      decimal.Decimal   `json:"unit_cost"`
	QuantityAfter decimal.Decimal   `json:"quantity_after"`
	Reference     string            `json:"reference"`
}

func NewStockReceivedEvent(i *InventoryItem, qty, unitCost decimal.Decimal, reference string) *StockReceivedEvent {
	return &StockReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReceived, AggregateTypeInventoryItem, i.ID, i.TenantID),
		LocationID:      i.LocationID,
		ItemName:        i.Name,
		Quantity:        qty,
		UnitCost:        unitCost,
		QuantityAfter:   i.Quantity,
		Reference:       reference,
	}
}

// CostChangedEvent is raised when the weighted-average cost moves
type CostChangedEvent struct {
	shared.BaseDomainEvent
	LocationID shared.LocationID `json:"location_id"`
	OldCost    decimal.Decimal   `json:"old_cost"`
	NewCost    decimal.Decimal   `json:"new_cost"`
	Reference  string            `json:"reference"`
}

func NewCostChangedEvent(i *InventoryItem, oldCost decimal.Decimal, reference string) *CostChangedEvent {
	return &CostChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCostChanged, AggregateTypeInventoryItem, i.ID, i.TenantID),
		LocationID:      i.LocationID,
		OldCost:         oldCost,
		NewCost:         i.UnitCost,
		Reference:       reference,
	}
}

// StockLowEvent is raised when quantity first drops to the minimum threshold
type StockLowEvent struct {
	shared.BaseDomainEvent
	LocationID       shared.LocationID `json:"location_id"`
	ItemName         string            `json:"item_name"`
	Quantity         decimal.Decimal   `json:"quantity"`
	MinStock         decimal.Decimal   `json:"min_stock"`
	SuggestedReorder decimal.Decimal   `json:"suggested_reorder"`
}

func NewStockLowEvent(i *InventoryItem) *StockLowEvent {
	return &StockLowEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeStockLow, AggregateTypeInventoryItem, i.ID, i.TenantID),
		LocationID:       i.LocationID,
		ItemName:         i.Name,
		Quantity:         i.Quantity,
		MinStock:         i.MinStock,
		SuggestedReorder: i.SuggestedReorder(),
	}
}
