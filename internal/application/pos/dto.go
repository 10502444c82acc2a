package pos

import (
	"time"

	"github.com/coretrack/backend/internal/domain/pos"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleLineRequest is one menu item on a new sale
type SaleLineRequest struct {
	MenuItemID uuid.UUID `json:"menu_item_id" binding:"required"`
	Quantity   int       `json:"quantity" binding:"required,min=1,max=999"`
}

// CreateSaleRequest rings up a sale in the caller's open shift
type CreateSaleRequest struct {
	LocationID    string            `json:"location_id" binding:"required,location_id"`
	Lines         []SaleLineRequest `json:"lines" binding:"required,min=1,dive"`
	Discount      decimal.Decimal   `json:"discount"`
	TaxRate       decimal.Decimal   `json:"tax_rate"`
	PaymentMethod string            `json:"payment_method" binding:"required,oneof=cash card ewallet xendit"`
}

// VoidSaleRequest cancels a sale
type VoidSaleRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// SaleListFilter is bound from list query parameters
type SaleListFilter struct {
	LocationID string     `form:"location_id" binding:"omitempty,location_id"`
	ShiftID    *uuid.UUID `form:"shift_id"`
	Status     string     `form:"status" binding:"omitempty,oneof=completed voided"`
	From       *time.Time `form:"from" time_format:"2006-01-02"`
	To         *time.Time `form:"to" time_format:"2006-01-02"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// SaleLineResponse is one line of a sale
type SaleLineResponse struct {
	MenuItemID uuid.UUID       `json:"menu_item_id"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	LineTotal  decimal.Decimal `json:"line_total"`
}

// SaleResponse is a sale as returned by the API
type SaleResponse struct {
	ID            uuid.UUID          `json:"id"`
	LocationID    string             `json:"location_id"`
	ShiftID       uuid.UUID          `json:"shift_id"`
	CashierID     uuid.UUID          `json:"cashier_id"`
	Number        string             `json:"number"`
	Lines         []SaleLineResponse `json:"lines"`
	Subtotal      decimal.Decimal    `json:"subtotal"`
	Discount      decimal.Decimal    `json:"discount"`
	TaxRate       decimal.Decimal    `json:"tax_rate"`
	Tax           decimal.Decimal    `json:"tax"`
	Total         decimal.Decimal    `json:"total"`
	PaymentMethod string             `json:"payment_method"`
	PaymentStatus string             `json:"payment_status"`
	PaymentURL    string             `json:"payment_url,omitempty"`
	Status        string             `json:"status"`
	VoidReason    string             `json:"void_reason,omitempty"`
	VoidedAt      *time.Time         `json:"voided_at,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

// ToSaleResponse maps a sale
func ToSaleResponse(o *pos.SaleOrder) SaleResponse {
	lines := make([]SaleLineResponse, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = SaleLineResponse{
			MenuItemID: l.MenuItemID,
			Name:       l.Name,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice,
			LineTotal:  l.LineTotal,
		}
	}
	return SaleResponse{
		ID:            o.ID,
		LocationID:    o.LocationID.String(),
		ShiftID:       o.ShiftID,
		CashierID:     o.CashierID,
		Number:        o.Number,
		Lines:         lines,
		Subtotal:      o.Subtotal,
		Discount:      o.Discount,
		TaxRate:       o.TaxRate,
		Tax:           o.Tax,
		Total:         o.Total,
		PaymentMethod: string(o.PaymentMethod),
		PaymentStatus: string(o.PaymentStatus),
		Status:        string(o.Status),
		VoidReason:    o.VoidReason,
		VoidedAt:      o.VoidedAt,
		CreatedAt:     o.CreatedAt,
	}
}

// ReceiptFormat selects the receipt rendering
type ReceiptFormat string

const (
	ReceiptHTML ReceiptFormat = "html"
	ReceiptPDF  ReceiptFormat = "pdf"
)

// ReceiptView is everything a receipt template prints
type ReceiptView struct {
	BusinessName string
	BranchName   string
	Address      string
	Phone        string
	Currency     string
	Locale       string
	Timezone     string
	Sale         SaleResponse
}

// FormatSettings returns the tenant's locale, currency and timezone
func (v ReceiptView) FormatSettings() (string, string, string) {
	return v.Locale, v.Currency, v.Timezone
}

// Receipt is a rendered receipt
type Receipt struct {
	ContentType string
	FileName    string
	Body        []byte
}
