package models

import (
	"time"

	"github.com/coretrack/backend/internal/domain/pos"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/domain/shift"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShiftModel is the persistence model for the Shift aggregate root.
type ShiftModel struct {
	TenantAggregateModel
	LocationID   string          `gorm:"type:varchar(64);not null;index:idx_shift_open,priority:1"`
	UserID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_shift_open,priority:2"`
	Status       shift.Status    `gorm:"type:varchar(20);not null;index:idx_shift_open,priority:3"`
	OpenedAt     time.Time       `gorm:"not null;index"`
	ClosedAt     *time.Time      `gorm:"column:closed_at"`
	StartingCash decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	CashSales    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	CardSales    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	OtherSales   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	SalesCount   int             `gorm:"not null;default:0"`
	EndingCash   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Variance     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Notes        string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ShiftModel) TableName() string {
	return "shifts"
}

// ToDomain converts the persistence model to a domain Shift.
func (m *ShiftModel) ToDomain() *shift.Shift {
	return &shift.Shift{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		LocationID:          shared.LocationID(m.LocationID),
		UserID:              m.UserID,
		Status:              m.Status,
		OpenedAt:            m.OpenedAt,
		ClosedAt:            m.ClosedAt,
		StartingCash:        m.StartingCash,
		CashSales:           m.CashSales,
		CardSales:           m.CardSales,
		OtherSales:          m.OtherSales,
		SalesCount:          m.SalesCount,
		EndingCash:          m.EndingCash,
		Variance:            m.Variance,
		Notes:               m.Notes,
	}
}

// ShiftModelFromDomain creates a persistence model from a domain Shift.
func ShiftModelFromDomain(s *shift.Shift) *ShiftModel {
	m := &ShiftModel{
		LocationID:   s.LocationID.String(),
		UserID:       s.UserID,
		Status:       s.Status,
		OpenedAt:     s.OpenedAt,
		ClosedAt:     s.ClosedAt,
		StartingCash: s.StartingCash,
		CashSales:    s.CashSales,
		CardSales:    s.CardSales,
		OtherSales:   s.OtherSales,
		SalesCount:   s.SalesCount,
		EndingCash:   s.EndingCash,
		Variance:     s.Variance,
		Notes:        s.Notes,
	}
	m.FromDomainTenantAggregateRoot(s.TenantAggregateRoot)
	return m
}

// SaleOrderModel is the persistence model for the SaleOrder aggregate root.
// ShiftID is nullable so that legacy sales recorded without a shift load.
type SaleOrderModel struct {
	TenantAggregateModel
	LocationID    string            `gorm:"type:varchar(64);not null;index"`
	ShiftID       *uuid.UUID        `gorm:"type:uuid;index"`
	CashierID     uuid.UUID         `gorm:"type:uuid;not null"`
	Number        string            `gorm:"type:varchar(40);not null;index"`
	Subtotal      decimal.Decimal   `gorm:"type:decimal(18,2);not null"`
	Discount      decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0"`
	TaxRate       decimal.Decimal   `gorm:"type:decimal(6,4);not null;default:0"`
	Tax           decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0"`
	Total         decimal.Decimal   `gorm:"type:decimal(18,2);not null"`
	PaymentMethod pos.PaymentMethod `gorm:"type:varchar(20);not null"`
	PaymentStatus pos.PaymentStatus `gorm:"type:varchar(20);not null"`
	PaymentRef    string            `gorm:"type:varchar(100);index"`
	Status        pos.Status        `gorm:"type:varchar(20);not null;index"`
	VoidReason    string            `gorm:"type:varchar(500)"`
	VoidedAt      *time.Time        `gorm:"column:voided_at"`
	// Associations
	Lines []SaleLineModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (SaleOrderModel) TableName() string {
	return "sale_orders"
}

// ToDomain converts the persistence model to a domain SaleOrder.
func (m *SaleOrderModel) ToDomain() *pos.SaleOrder {
	o := &pos.SaleOrder{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		LocationID:          shared.LocationID(m.LocationID),
		CashierID:           m.CashierID,
		Number:              m.Number,
		Lines:               make([]pos.SaleLine, len(m.Lines)),
		Subtotal:            m.Subtotal,
		Discount:            m.Discount,
		TaxRate:             m.TaxRate,
		Tax:                 m.Tax,
		Total:               m.Total,
		PaymentMethod:       m.PaymentMethod,
		PaymentStatus:       m.PaymentStatus,
		PaymentRef:          m.PaymentRef,
		Status:              m.Status,
		VoidReason:          m.VoidReason,
		VoidedAt:            m.VoidedAt,
	}
	if m.ShiftID != nil {
		o.ShiftID = *m.ShiftID
	}
	for i, l := range m.Lines {
		o.Lines[i] = pos.SaleLine{
			ID:         l.ID,
			MenuItemID: l.MenuItemID,
			Name:       l.Name,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice,
			LineTotal:  l.LineTotal,
		}
	}
	return o
}

// SaleOrderModelFromDomain creates a persistence model from a domain SaleOrder.
func SaleOrderModelFromDomain(o *pos.SaleOrder) *SaleOrderModel {
	m := &SaleOrderModel{
		LocationID:    o.LocationID.String(),
		CashierID:     o.CashierID,
		Number:        o.Number,
		Subtotal:      o.Subtotal,
		Discount:      o.Discount,
		TaxRate:       o.TaxRate,
		Tax:           o.Tax,
		Total:         o.Total,
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: o.PaymentStatus,
		PaymentRef:    o.PaymentRef,
		Status:        o.Status,
		VoidReason:    o.VoidReason,
		VoidedAt:      o.VoidedAt,
		Lines:         make([]SaleLineModel, len(o.Lines)),
	}
	m.FromDomainTenantAggregateRoot(o.TenantAggregateRoot)
	if o.ShiftID != uuid.Nil {
		id := o.ShiftID
		m.ShiftID = &id
	}
	for i, l := range o.Lines {
		m.Lines[i] = SaleLineModel{
			ID:         l.ID,
			TenantID:   o.TenantID,
			OrderID:    o.ID,
			Position:   i,
			MenuItemID: l.MenuItemID,
			Name:       l.Name,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice,
			LineTotal:  l.LineTotal,
		}
	}
	return m
}

// SaleLineModel is one line of a sale.
type SaleLineModel struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position   int             `gorm:"not null;default:0"`
	MenuItemID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name       string          `gorm:"type:varchar(200);not null"`
	Quantity   int             `gorm:"not null"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	LineTotal  decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (SaleLineModel) TableName() string {
	return "sale_order_lines"
}
