package models

import (
	"time"

	"github.com/coretrack/backend/internal/domain/purchasing"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SupplierModel is the persistence model for the Supplier aggregate root.
type SupplierModel struct {
	TenantAggregateModel
	Name        string `gorm:"type:varchar(200);not null"`
	ContactName string `gorm:"type:varchar(200)"`
	Email       string `gorm:"type:varchar(200)"`
	Phone       string `gorm:"type:varchar(50)"`
	Address     string `gorm:"type:varchar(500)"`
	Active      bool   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SupplierModel) TableName() string {
	return "suppliers"
}

// ToDomain converts the persistence model to a domain Supplier.
func (m *SupplierModel) ToDomain() *purchasing.Supplier {
	return &purchasing.Supplier{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Name:                m.Name,
		ContactName:         m.ContactName,
		Email:               m.Email,
		Phone:               m.Phone,
		Address:             m.Address,
		Active:              m.Active,
	}
}

// SupplierModelFromDomain creates a persistence model from a domain Supplier.
func SupplierModelFromDomain(s *purchasing.Supplier) *SupplierModel {
	m := &SupplierModel{
		Name:        s.Name,
		ContactName: s.ContactName,
		Email:       s.Email,
		Phone:       s.Phone,
		Address:     s.Address,
		Active:      s.Active,
	}
	m.FromDomainTenantAggregateRoot(s.TenantAggregateRoot)
	return m
}

// PurchaseOrderModel is the persistence model for the PurchaseOrder aggregate root.
type PurchaseOrderModel struct {
	TenantAggregateModel
	LocationID   string                 `gorm:"type:varchar(64);not null;index"`
	Number       string                 `gorm:"type:varchar(32);not null;index"`
	SupplierID   *uuid.UUID             `gorm:"type:uuid;index"`
	SupplierName string                 `gorm:"type:varchar(200)"`
	Status       purchasing.OrderStatus `gorm:"type:varchar(20);not null;index"`
	ShippingFee  decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	Subtotal     decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	Total        decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	Notes        string                 `gorm:"type:text"`
	ExpectedAt   *time.Time             `gorm:"column:expected_at"`
	OrderedAt    *time.Time             `gorm:"column:ordered_at"`
	DeliveredAt  *time.Time             `gorm:"column:delivered_at;index"`
	CancelledAt  *time.Time             `gorm:"column:cancelled_at"`
	CancelReason string                 `gorm:"type:varchar(500)"`
	// Associations
	Items []PurchaseOrderItemModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// ToDomain converts the persistence model to a domain PurchaseOrder.
func (m *PurchaseOrderModel) ToDomain() *purchasing.PurchaseOrder {
	po := &purchasing.PurchaseOrder{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		LocationID:          shared.LocationID(m.LocationID),
		Number:              m.Number,
		SupplierID:          m.SupplierID,
		SupplierName:        m.SupplierName,
		Status:              m.Status,
		Items:               make([]purchasing.OrderItem, len(m.Items)),
		ShippingFee:         m.ShippingFee,
		Subtotal:            m.Subtotal,
		Total:               m.Total,
		Notes:               m.Notes,
		ExpectedAt:          m.ExpectedAt,
		OrderedAt:           m.OrderedAt,
		DeliveredAt:         m.DeliveredAt,
		CancelledAt:         m.CancelledAt,
		CancelReason:        m.CancelReason,
	}
	for i, item := range m.Items {
		po.Items[i] = item.ToDomain()
	}
	return po
}

// PurchaseOrderModelFromDomain creates a persistence model from a domain PurchaseOrder.
func PurchaseOrderModelFromDomain(p *purchasing.PurchaseOrder) *PurchaseOrderModel {
	m := &PurchaseOrderModel{
		LocationID:   p.LocationID.String(),
		Number:       p.Number,
		SupplierID:   p.SupplierID,
		SupplierName: p.SupplierName,
		Status:       p.Status,
		ShippingFee:  p.ShippingFee,
		Subtotal:     p.Subtotal,
		Total:        p.Total,
		Notes:        p.Notes,
		ExpectedAt:   p.ExpectedAt,
		OrderedAt:    p.OrderedAt,
		DeliveredAt:  p.DeliveredAt,
		CancelledAt:  p.CancelledAt,
		CancelReason: p.CancelReason,
		Items:        make([]PurchaseOrderItemModel, len(p.Items)),
	}
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	for i, item := range p.Items {
		m.Items[i] = PurchaseOrderItemModel{
			ID:                item.ID,
			TenantID:          p.TenantID,
			OrderID:           p.ID,
			Position:          i,
			InventoryItemID:   item.InventoryItemID,
			Name:              item.Name,
			Unit:              item.Unit,
			Quantity:          item.Quantity,
			UnitPrice:         item.UnitPrice,
			ReceivedQuantity:  item.ReceivedQuantity,
			AllocatedShipping: item.AllocatedShipping,
			EffectiveUnitCost: item.EffectiveUnitCost,
		}
	}
	return m
}

// PurchaseOrderItemModel is one line of a purchase order.
type PurchaseOrderItemModel struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position          int             `gorm:"not null;default:0"`
	InventoryItemID   *uuid.UUID      `gorm:"type:uuid;index"`
	Name              string          `gorm:"type:varchar(200);not null"`
	Unit              string          `gorm:"type:varchar(20);not null"`
	Quantity          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ReceivedQuantity  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	AllocatedShipping decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	EffectiveUnitCost decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (PurchaseOrderItemModel) TableName() string {
	return "purchase_order_items"
}

// ToDomain converts the persistence model to a domain OrderItem.
func (m *PurchaseOrderItemModel) ToDomain() purchasing.OrderItem {
	return purchasing.OrderItem{
		ID:                m.ID,
		InventoryItemID:   m.InventoryItemID,
		Name:              m.Name,
		Unit:              m.Unit,
		Quantity:          m.Quantity,
		UnitPrice:         m.UnitPrice,
		ReceivedQuantity:  m.ReceivedQuantity,
		AllocatedShipping: m.AllocatedShipping,
		EffectiveUnitCost: m.EffectiveUnitCost,
	}
}
