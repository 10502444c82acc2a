package inventory

import (
	"time"

	"github.com/coretrack/backend/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateItemRequest adds an inventory item at a location
type CreateItemRequest struct {
	LocationID      string           `json:"location_id" binding:"required,location_id"`
	Name            string           `json:"name" binding:"required,max=200"`
	SKU             string           `json:"sku" binding:"max=64"`
	Unit            string           `json:"unit" binding:"max=20"`
	Category        string           `json:"category" binding:"max=100"`
	MinStock        decimal.Decimal  `json:"min_stock"`
	ReorderQuantity decimal.Decimal  `json:"reorder_quantity"`
	SupplierID      *uuid.UUID       `json:"supplier_id"`
	OpeningQuantity *decimal.Decimal `json:"opening_quantity"`
	OpeningCost     *decimal.Decimal `json:"opening_cost"`
}

// UpdateItemRequest changes descriptive fields and thresholds
type UpdateItemRequest struct {
	Name            string          `json:"name" binding:"max=200"`
	SKU             string          `json:"sku" binding:"max=64"`
	Unit            string          `json:"unit" binding:"max=20"`
	Category        string          `json:"category" binding:"max=100"`
	MinStock        decimal.Decimal `json:"min_stock"`
	ReorderQuantity decimal.Decimal `json:"reorder_quantity"`
	SupplierID      *uuid.UUID      `json:"supplier_id"`
}

// AdjustStockRequest is a manual correction
type AdjustStockRequest struct {
	Delta  decimal.Decimal `json:"delta" binding:"required"`
	Reason string          `json:"reason" binding:"required,max=255"`
}

// ReceiveStockRequest books in stock outside of a purchase order
type ReceiveStockRequest struct {
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Reference string          `json:"reference" binding:"max=100"`
}

// ConsumeStockRequest removes stock for usage outside of a sale
type ConsumeStockRequest struct {
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	Reference string          `json:"reference" binding:"max=100"`
}

// ItemListFilter is bound from list query parameters
type ItemListFilter struct {
	LocationID   string `form:"location_id" binding:"omitempty,location_id"`
	Search       string `form:"search"`
	Category     string `form:"category"`
	LowStockOnly bool   `form:"low_stock"`
	Page         int    `form:"page" binding:"omitempty,min=1"`
	PageSize     int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy      string `form:"order_by"`
	OrderDir     string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ItemResponse is an inventory item as returned by the API
type ItemResponse struct {
	ID               uuid.UUID       `json:"id"`
	LocationID       string          `json:"location_id"`
	Name             string          `json:"name"`
	SKU              string          `json:"sku,omitempty"`
	Unit             string          `json:"unit"`
	Category         string          `json:"category,omitempty"`
	Quantity         decimal.Decimal `json:"quantity"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	StockValue       decimal.Decimal `json:"stock_value"`
	MinStock         decimal.Decimal `json:"min_stock"`
	ReorderQuantity  decimal.Decimal `json:"reorder_quantity"`
	SuggestedReorder decimal.Decimal `json:"suggested_reorder"`
	LowStock         bool            `json:"low_stock"`
	SupplierID       *uuid.UUID      `json:"supplier_id,omitempty"`
	Version          int             `json:"version"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ToItemResponse maps an inventory item
func ToItemResponse(i *inventory.InventoryItem) ItemResponse {
	return ItemResponse{
		ID:               i.ID,
		LocationID:       i.LocationID.String(),
		Name:             i.Name,
		SKU:              i.SKU,
		Unit:             i.Unit,
		Category:         i.Category,
		Quantity:         i.Quantity,
		UnitCost:         i.UnitCost,
		StockValue:       i.StockValue(),
		MinStock:         i.MinStock,
		ReorderQuantity:  i.ReorderQuantity,
		SuggestedReorder: i.SuggestedReorder(),
		LowStock:         i.IsLowStock(),
		SupplierID:       i.SupplierID,
		Version:          i.Version,
		CreatedAt:        i.CreatedAt,
		UpdatedAt:        i.UpdatedAt,
	}
}

// MovementResponse is one stock ledger line
type MovementResponse struct {
	ID            uuid.UUID       `json:"id"`
	ItemID        uuid.UUID       `json:"item_id"`
	LocationID    string          `json:"location_id"`
	Type          string          `json:"type"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	QuantityAfter decimal.Decimal `json:"quantity_after"`
	CostAfter     decimal.Decimal `json:"cost_after"`
	Reference     string          `json:"reference,omitempty"`
	Reason        string          `json:"reason,omitempty"`
	CreatedBy     *uuid.UUID      `json:"created_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToMovementResponse maps a movement
func ToMovementResponse(m *inventory.StockMovement) MovementResponse {
	return MovementResponse{
		ID:            m.ID,
		ItemID:        m.ItemID,
		LocationID:    m.LocationID.String(),
		Type:          string(m.Type),
		Quantity:      m.Quantity,
		UnitCost:      m.UnitCost,
		QuantityAfter: m.QuantityAfter,
		CostAfter:     m.CostAfter,
		Reference:     m.Reference,
		Reason:        m.Reason,
		CreatedBy:     m.CreatedBy,
		CreatedAt:     m.CreatedAt,
	}
}
