package models

import (
	"time"

	"github.com/coretrack/backend/internal/domain/inventory"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryItemModel is the persistence model for the InventoryItem aggregate root.
// LocationID is stored as plain text so legacy rows with malformed values
// can still be loaded by the integrity checker.
type InventoryItemModel struct {
	TenantAggregateModel
	LocationID      string          `gorm:"type:varchar(64);index"`
	Name            string          `gorm:"type:varchar(200);not null"`
	SKU             string          `gorm:"column:sku;type:varchar(64)"`
	Unit            string          `gorm:"type:varchar(20);not null;default:'pcs'"`
	Category        string          `gorm:"type:varchar(100)"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitCost        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	MinStock        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ReorderQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	SupplierID      *uuid.UUID      `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (InventoryItemModel) TableName() string {
	return "inventory_items"
}

// ToDomain converts the persistence model to a domain InventoryItem.
func (m *InventoryItemModel) ToDomain() *inventory.InventoryItem {
	return &inventory.InventoryItem{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		LocationID:          shared.LocationID(m.LocationID),
		Name:                m.Name,
		SKU:                 m.SKU,
		Unit:                m.Unit,
		Category:            m.Category,
		Quantity:            m.Quantity,
		UnitCost:            m.UnitCost,
		MinStock:            m.MinStock,
		ReorderQuantity:     m.ReorderQuantity,
		SupplierID:          m.SupplierID,
	}
}

// InventoryItemModelFromDomain creates a persistence model from a domain InventoryItem.
func InventoryItemModelFromDomain(i *inventory.InventoryItem) *InventoryItemModel {
	m := &InventoryItemModel{
		LocationID:      i.LocationID.String(),
		Name:            i.Name,
		SKU:             i.SKU,
		Unit:            i.Unit,
		Category:        i.Category,
		Quantity:        i.Quantity,
		UnitCost:        i.UnitCost,
		MinStock:        i.MinStock,
		ReorderQuantity: i.ReorderQuantity,
		SupplierID:      i.SupplierID,
	}
	m.FromDomainTenantAggregateRoot(i.TenantAggregateRoot)
	return m
}

// StockMovementModel is the persistence model for the stock ledger. Rows are
// append-only.
type StockMovementModel struct {
	ID            uuid.UUID              `gorm:"type:uuid;primaryKey"`
	TenantID      uuid.UUID              `gorm:"type:uuid;not null;index:idx_movement_item,priority:1"`
	ItemID        uuid.UUID              `gorm:"type:uuid;not null;index:idx_movement_item,priority:2"`
	LocationID    string                 `gorm:"type:varchar(64);not null"`
	Type          inventory.MovementType `gorm:"type:varchar(20);not null"`
	Quantity      decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	UnitCost      decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	QuantityAfter decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	CostAfter     decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	Reference     string                 `gorm:"type:varchar(100);index"`
	Reason        string                 `gorm:"type:varchar(500)"`
	CreatedBy     *uuid.UUID             `gorm:"type:uuid"`
	CreatedAt     time.Time              `gorm:"not null;index:idx_movement_item,priority:3"`
}

// TableName returns the table name for GORM
func (StockMovementModel) TableName() string {
	return "stock_movements"
}

// ToDomain converts the persistence model to a domain StockMovement.
func (m *StockMovementModel) ToDomain() *inventory.StockMovement {
	return &inventory.StockMovement{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.CreatedAt,
		},
		TenantID:      m.TenantID,
		ItemID:        m.ItemID,
		LocationID:    shared.LocationID(m.LocationID),
		Type:          m.Type,
		Quantity:      m.Quantity,
		UnitCost:      m.UnitCost,
		QuantityAfter: m.QuantityAfter,
		CostAfter:     m.CostAfter,
		Reference:     m.Reference,
		Reason:        m.Reason,
		CreatedBy:     m.CreatedBy,
	}
}

// StockMovementModelFromDomain creates a persistence model from a domain StockMovement.
func StockMovementModelFromDomain(s *inventory.StockMovement) *StockMovementModel {
	return &StockMovementModel{
		ID:            s.ID,
		TenantID:      s.TenantID,
		ItemID:        s.ItemID,
		LocationID:    s.LocationID.String(),
		Type:          s.Type,
		Quantity:      s.Quantity,
		UnitCost:      s.UnitCost,
		QuantityAfter: s.QuantityAfter,
		CostAfter:     s.CostAfter,
		Reference:     s.Reference,
		Reason:        s.Reason,
		CreatedBy:     s.CreatedBy,
		CreatedAt:     s.CreatedAt,
	}
}
