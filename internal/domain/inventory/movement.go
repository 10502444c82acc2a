package inventory

import (
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementType classifies a stock movement
type MovementType string

const (
	MovementReceive  MovementType = "receive"
	MovementSale     MovementType = "sale"
	MovementAdjust   MovementType = "adjust"
	MovementVoid     MovementType = "void"
	MovementTransfer MovementType = "transfer"
)

// StockMovement is one ledger line of an inventory item. Quantity is signed:
// positive for stock in, negative for stock out.
type StockMovement struct {
	shared.BaseEntity
	TenantID      uuid.UUID
	ItemID        uuid.UUID
	LocationID    shared.LocationID
	Type          MovementType
	Quantity      decimal.Decimal
	UnitCost      decimal.Decimal
	QuantityAfter decimal.Decimal
	CostAfter     decimal.Decimal
	Reference     string
	Reason        string
	CreatedBy     *uuid.UUID
}

func newMovement(item *InventoryItem, typ MovementType, qty, unitCost decimal.Decimal, reference, reason string) *StockMovement {
	return &StockMovement{
		BaseEntity:    shared.NewBaseEntity(),
		TenantID:      item.TenantID,
		ItemID:        item.ID,
		LocationID:    item.LocationID,
		Type:          typ,
		Quantity:      qty,
		UnitCost:      unitCost,
		QuantityAfter: item.Quantity,
		CostAfter:     item.UnitCost,
		Reference:     reference,
		Reason:        reason,
	}
}
