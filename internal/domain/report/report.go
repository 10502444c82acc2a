// Package report defines the read models behind the owner dashboards.
// These are query projections, not aggregates: nothing here is persisted.
package report

import (
	"context"
	"sort"
	"time"

	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxRange bounds the period a single report can span
const MaxRange = 366 * 24 * time.Hour

// TopItemsLimit is the size of the best sellers list
const TopItemsLimit = 10

// Filter scopes a report to a tenant, an optional location and a period
type Filter struct {
	TenantID   uuid.UUID
	LocationID shared.LocationID
	From       time.Time
	To         time.Time
}

// NewFilter validates the period. A zero To means now; a zero From means
// the start of To's day.
func NewFilter(tenantID uuid.UUID, location string, from, to time.Time, now time.Time) (Filter, error) {
	f := Filter{TenantID: tenantID, From: from, To: to}
	if location != "" {
		loc, err := shared.ParseLocationID(location)
		if err != nil {
			return Filter{}, err
		}
		f.LocationID = loc
	}
	if f.To.IsZero() {
		f.To = now
	}
	if f.From.IsZero() {
		y, m, d := f.To.Date()
		f.From = time.Date(y, m, d, 0, 0, 0, 0, f.To.Location())
	}
	if f.To.Before(f.From) {
		return Filter{}, shared.NewDomainError("INVALID_DATE_RANGE", "From must not be after to")
	}
	if f.To.Sub(f.From) > MaxRange {
		return Filter{}, shared.NewDomainError("INVALID_DATE_RANGE", "Report period cannot exceed one year")
	}
	return f, nil
}

// SalesSummary aggregates completed sales over a period
type SalesSummary struct {
	PeriodStart     time.Time            `json:"period_start"`
	PeriodEnd       time.Time            `json:"period_end"`
	OrderCount      int64                `json:"order_count"`
	GrossSales      decimal.Decimal      `json:"gross_sales"`
	Discounts       decimal.Decimal      `json:"discounts"`
	Tax             decimal.Decimal      `json:"tax"`
	NetSales        decimal.Decimal      `json:"net_sales"`
	AverageTicket   decimal.Decimal      `json:"average_ticket"`
	VoidedCount     int64                `json:"voided_count"`
	ByDay           []DailySales         `json:"by_day"`
	ByPaymentMethod []PaymentMethodTotal `json:"by_payment_method"`
	TopItems        []TopItem            `json:"top_items"`
}

// Finalize derives the average ticket and orders the series
func (s *SalesSummary) Finalize() {
	if s.OrderCount > 0 {
		s.AverageTicket = s.NetSales.Div(decimal.NewFromInt(s.OrderCount)).Round(2)
	} else {
		s.AverageTicket = decimal.Zero
	}
	sort.Slice(s.ByDay, func(i, j int) bool { return s.ByDay[i].Date < s.ByDay[j].Date })
	sort.SliceStable(s.ByPaymentMethod, func(i, j int) bool {
		return s.ByPaymentMethod[i].Total.GreaterThan(s.ByPaymentMethod[j].Total)
	})
	s.TopItems = RankTopItems(s.TopItems, TopItemsLimit)
}

// DailySales is one point of the by-day series; Date is YYYY-MM-DD
type DailySales struct {
	Date       string          `json:"date"`
	OrderCount int64           `json:"order_count"`
	Total      decimal.Decimal `json:"total"`
}

// PaymentMethodTotal splits sales by tender
type PaymentMethodTotal struct {
	Method     string          `json:"method"`
	OrderCount int64           `json:"order_count"`
	Total      decimal.Decimal `json:"total"`
}

// TopItem is a best-selling menu item
type TopItem struct {
	Rank       int             `json:"rank"`
	MenuItemID uuid.UUID       `json:"menu_item_id"`
	Name       string          `json:"name"`
	Quantity   int64           `json:"quantity"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// RankTopItems orders items by quantity then revenue, keeps the first limit
// and numbers them from 1
func RankTopItems(items []TopItem, limit int) []TopItem {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Quantity != items[j].Quantity {
			return items[i].Quantity > items[j].Quantity
		}
		if !items[i].Revenue.Equal(items[j].Revenue) {
			return items[i].Revenue.GreaterThan(items[j].Revenue)
		}
		return items[i].Name < items[j].Name
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	for i := range items {
		items[i].Rank = i + 1
	}
	return items
}

// ValuationRow is the stock value of one location and category
type ValuationRow struct {
	LocationID string          `json:"location_id"`
	Category   string          `json:"category"`
	ItemCount  int64           `json:"item_count"`
	Quantity   decimal.Decimal `json:"quantity"`
	Value      decimal.Decimal `json:"value"`
}

// InventoryValuation totals stock value (quantity x unit cost)
type InventoryValuation struct {
	TotalValue decimal.Decimal `json:"total_value"`
	Rows       []ValuationRow  `json:"rows"`
}

// NewInventoryValuation sums the rows
func NewInventoryValuation(rows []ValuationRow) InventoryValuation {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Value)
	}
	if rows == nil {
		rows = []ValuationRow{}
	}
	return InventoryValuation{TotalValue: total.Round(2), Rows: rows}
}

// LowStockRow is an item at or below its minimum stock
type LowStockRow struct {
	ItemID           uuid.UUID       `json:"item_id"`
	LocationID       string          `json:"location_id"`
	Name             string          `json:"name"`
	Unit             string          `json:"unit"`
	Quantity         decimal.Decimal `json:"quantity"`
	MinStock         decimal.Decimal `json:"min_stock"`
	ReorderQuantity  decimal.Decimal `json:"reorder_quantity"`
	SuggestedReorder decimal.Decimal `json:"suggested_reorder"`
	SupplierID       *uuid.UUID      `json:"supplier_id,omitempty"`
}

// SuggestReorder fills SuggestedReorder: the configured reorder quantity,
// or enough to get back to twice the minimum when none is set
func (r *LowStockRow) SuggestReorder() {
	if r.ReorderQuantity.IsPositive() {
		r.SuggestedReorder = r.ReorderQuantity
		return
	}
	gap := r.MinStock.Mul(decimal.NewFromInt(2)).Sub(r.Quantity)
	if gap.IsNegative() {
		gap = decimal.Zero
	}
	r.SuggestedReorder = gap
}

// SupplierSpend totals delivered purchase orders of one supplier
type SupplierSpend struct {
	SupplierID   *uuid.UUID      `json:"supplier_id,omitempty"`
	SupplierName string          `json:"supplier_name"`
	OrderCount   int64           `json:"order_count"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Shipping     decimal.Decimal `json:"shipping"`
	Total        decimal.Decimal `json:"total"`
}

// PurchaseSpend is the purchase report over a period
type PurchaseSpend struct {
	PeriodStart time.Time       `json:"period_start"`
	PeriodEnd   time.Time       `json:"period_end"`
	Total       decimal.Decimal `json:"total"`
	Suppliers   []SupplierSpend `json:"suppliers"`
}

// NewPurchaseSpend sums the supplier rows, largest spend first
func NewPurchaseSpend(f Filter, rows []SupplierSpend) PurchaseSpend {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Total)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Total.GreaterThan(rows[j].Total) })
	if rows == nil {
		rows = []SupplierSpend{}
	}
	return PurchaseSpend{PeriodStart: f.From, PeriodEnd: f.To, Total: total, Suppliers: rows}
}

// ShiftRow is one shift in the variance report
type ShiftRow struct {
	ShiftID      uuid.UUID       `json:"shift_id"`
	LocationID   string          `json:"location_id"`
	UserID       uuid.UUID       `json:"user_id"`
	Status       string          `json:"status"`
	OpenedAt     time.Time       `json:"opened_at"`
	ClosedAt     *time.Time      `json:"closed_at,omitempty"`
	SalesCount   int             `json:"sales_count"`
	TotalSales   decimal.Decimal `json:"total_sales"`
	ExpectedCash decimal.Decimal `json:"expected_cash"`
	EndingCash   decimal.Decimal `json:"ending_cash"`
	Variance     decimal.Decimal `json:"variance"`
}

// ShiftReport lists shifts and the net cash variance of the closed ones
type ShiftReport struct {
	Shifts        []ShiftRow      `json:"shifts"`
	TotalVariance decimal.Decimal `json:"total_variance"`
	OpenCount     int             `json:"open_count"`
}

// NewShiftReport totals the variance of closed shifts
func NewShiftReport(rows []ShiftRow) ShiftReport {
	r := ShiftReport{Shifts: rows, TotalVariance: decimal.Zero}
	if r.Shifts == nil {
		r.Shifts = []ShiftRow{}
	}
	for _, s := range rows {
		if s.ClosedAt == nil {
			r.OpenCount++
			continue
		}
		r.TotalVariance = r.TotalVariance.Add(s.Variance)
	}
	return r
}

// OpenPurchaseOrder is a PO still waiting for delivery
type OpenPurchaseOrder struct {
	ID           uuid.UUID       `json:"id"`
	Number       string          `json:"number"`
	SupplierName string          `json:"supplier_name"`
	Status       string          `json:"status"`
	Total        decimal.Decimal `json:"total"`
	ExpectedAt   *time.Time      `json:"expected_at,omitempty"`
}

// Dashboard bundles the reports shown on the owner home screen
type Dashboard struct {
	GeneratedAt   time.Time          `json:"generated_at"`
	Sales         SalesSummary       `json:"sales"`
	Valuation     InventoryValuation `json:"valuation"`
	LowStock      []LowStockRow      `json:"low_stock"`
	PurchaseSpend PurchaseSpend      `json:"purchase_spend"`
	Shifts        ShiftReport        `json:"shifts"`
}

// Repository runs the aggregate queries. Every method is scoped by the
// filter's tenant and, when set, location.
type Repository interface {
	SalesSummary(ctx context.Context, f Filter) (*SalesSummary, error)
	InventoryValuation(ctx context.Context, f Filter) ([]ValuationRow, error)
	LowStock(ctx context.Context, f Filter) ([]LowStockRow, error)
	PurchaseSpend(ctx context.Context, f Filter) ([]SupplierSpend, error)
	Shifts(ctx context.Context, f Filter) ([]ShiftRow, error)
	OpenPurchaseOrders(ctx context.Context, f Filter) ([]OpenPurchaseOrder, error)
}
