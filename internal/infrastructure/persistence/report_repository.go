package persistence

import (
	"context"
	"time"

	"github.com/coretrack/backend/internal/domain/pos"
	"github.com/coretrack/backend/internal/domain/purchasing"
	"github.com/coretrack/backend/internal/domain/report"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormReportRepository implements report.Repository with aggregate SQL
type GormReportRepository struct {
	db *gorm.DB
}

// NewGormReportRepository creates a new GormReportRepository
func NewGormReportRepository(db *gorm.DB) *GormReportRepository {
	return &GormReportRepository{db: db}
}

var _ report.Repository = (*GormReportRepository)(nil)

// dayExpr truncates a timestamp column to YYYY-MM-DD on either dialect
func dayExpr(db *gorm.DB, column string) string {
	if db.Dialector.Name() == "sqlite" {
		return "substr(" + column + ", 1, 10)"
	}
	return "to_char(" + column + " AT TIME ZONE 'UTC', 'YYYY-MM-DD')"
}

// salesScope limits sale_orders (aliased so) to the filter and a status
func salesScope(f report.Filter, status pos.Status) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		q = q.Where("so.tenant_id = ?", f.TenantID).
			Where("so.created_at BETWEEN ? AND ?", f.From, f.To).
			Where("so.status = ?", status)
		if !f.LocationID.IsZero() {
			q = q.Where("so.location_id = ?", f.LocationID.String())
		}
		return q
	}
}

// SalesSummary aggregates completed sales, their daily series, tenders and best sellers
func (r *GormReportRepository) SalesSummary(ctx context.Context, f report.Filter) (*report.SalesSummary, error) {
	db := dbFrom(ctx, r.db)

	type totalsResult struct {
		OrderCount int64
		GrossSales decimal.Decimal
		Discounts  decimal.Decimal
		Tax        decimal.Decimal
		NetSales   decimal.Decimal
	}
	var totals totalsResult
	if err := db.Table("sale_orders so").
		Select(`
			COUNT(*) as order_count,
			COALESCE(SUM(so.subtotal), 0) as gross_sales,
			COALESCE(SUM(so.discount), 0) as discounts,
			COALESCE(SUM(so.tax), 0) as tax,
			COALESCE(SUM(so.total), 0) as net_sales
		`).
		Scopes(salesScope(f, pos.StatusCompleted)).
		Scan(&totals).Error; err != nil {
		return nil, translateError(err)
	}

	var voided int64
	if err := db.Table("sale_orders so").
		Scopes(salesScope(f, pos.StatusVoided)).
		Count(&voided).Error; err != nil {
		return nil, translateError(err)
	}

	day := dayExpr(db, "so.created_at")
	var byDay []report.DailySales
	if err := db.Table("sale_orders so").
		Select(day + " as date, COUNT(*) as order_count, COALESCE(SUM(so.total), 0) as total").
		Scopes(salesScope(f, pos.StatusCompleted)).
		Group(day).
		Order("date ASC").
		Scan(&byDay).Error; err != nil {
		return nil, translateError(err)
	}

	var byMethod []report.PaymentMethodTotal
	if err := db.Table("sale_orders so").
		Select("so.payment_method as method, COUNT(*) as order_count, COALESCE(SUM(so.total), 0) as total").
		Scopes(salesScope(f, pos.StatusCompleted)).
		Group("so.payment_method").
		Scan(&byMethod).Error; err != nil {
		return nil, translateError(err)
	}

	type itemResult struct {
		MenuItemID uuid.UUID
		Name       string
		Quantity   int64
		Revenue    decimal.Decimal
	}
	var items []itemResult
	if err := db.Table("sale_order_lines sl").
		Select(`
			sl.menu_item_id as menu_item_id,
			MAX(sl.name) as name,
			COALESCE(SUM(sl.quantity), 0) as quantity,
			COALESCE(SUM(sl.line_total), 0) as revenue
		`).
		Joins("JOIN sale_orders so ON so.id = sl.order_id").
		Scopes(salesScope(f, pos.StatusCompleted)).
		Group("sl.menu_item_id").
		Order("quantity DESC").
		Limit(report.TopItemsLimit * 2).
		Scan(&items).Error; err != nil {
		return nil, translateError(err)
	}

	summary := &report.SalesSummary{
		PeriodStart:     f.From,
		PeriodEnd:       f.To,
		OrderCount:      totals.OrderCount,
		GrossSales:      totals.GrossSales,
		Discounts:       totals.Discounts,
		Tax:             totals.Tax,
		NetSales:        totals.NetSales,
		VoidedCount:     voided,
		ByDay:           nonNil(byDay),
		ByPaymentMethod: nonNil(byMethod),
		TopItems:        make([]report.TopItem, len(items)),
	}
	for i, it := range items {
		summary.TopItems[i] = report.TopItem{
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			Quantity:   it.Quantity,
			Revenue:    it.Revenue,
		}
	}
	summary.Finalize()
	return summary, nil
}

// InventoryValuation sums quantity x unit cost per location and category
func (r *GormReportRepository) InventoryValuation(ctx context.Context, f report.Filter) ([]report.ValuationRow, error) {
	var rows []report.ValuationRow
	q := dbFrom(ctx, r.db).Table("inventory_items").
		Select(`
			location_id,
			category,
			COUNT(*) as item_count,
			COALESCE(SUM(quantity), 0) as quantity,
			COALESCE(SUM(quantity * unit_cost), 0) as value
		`).
		Where("tenant_id = ?", f.TenantID)
	if !f.LocationID.IsZero() {
		q = q.Where("location_id = ?", f.LocationID.String())
	}
	if err := q.Group("location_id, category").
		Order("location_id ASC, category ASC").
		Scan(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return nonNil(rows), nil
}

// LowStock lists items at or below a positive minimum stock
func (r *GormReportRepository) LowStock(ctx context.Context, f report.Filter) ([]report.LowStockRow, error) {
	type lowStockResult struct {
		ID              uuid.UUID
		LocationID      string
		Name            string
		Unit            string
		Quantity        decimal.Decimal
		MinStock        decimal.Decimal
		ReorderQuantity decimal.Decimal
		SupplierID      *uuid.UUID
	}
	var results []lowStockResult
	q := dbFrom(ctx, r.db).Table("inventory_items").
		Select("id, location_id, name, unit, quantity, min_stock, reorder_quantity, supplier_id").
		Where("tenant_id = ?", f.TenantID).
		Where("min_stock > 0 AND quantity <= min_stock")
	if !f.LocationID.IsZero() {
		q = q.Where("location_id = ?", f.LocationID.String())
	}
	if err := q.Order("name ASC").Scan(&results).Error; err != nil {
		return nil, translateError(err)
	}

	rows := make([]report.LowStockRow, len(results))
	for i, res := range results {
		rows[i] = report.LowStockRow{
			ItemID:          res.ID,
			LocationID:      res.LocationID,
			Name:            res.Name,
			Unit:            res.Unit,
			Quantity:        res.Quantity,
			MinStock:        res.MinStock,
			ReorderQuantity: res.ReorderQuantity,
			SupplierID:      res.SupplierID,
		}
		rows[i].SuggestReorder()
	}
	return rows, nil
}

// PurchaseSpend totals delivered purchase orders per supplier, shipping included
func (r *GormReportRepository) PurchaseSpend(ctx context.Context, f report.Filter) ([]report.SupplierSpend, error) {
	var rows []report.SupplierSpend
	q := dbFrom(ctx, r.db).Table("purchase_orders po").
		Select(`
			po.supplier_id as supplier_id,
			MAX(po.supplier_name) as supplier_name,
			COUNT(*) as order_count,
			COALESCE(SUM(po.subtotal), 0) as subtotal,
			COALESCE(SUM(po.shipping_fee), 0) as shipping,
			COALESCE(SUM(po.total), 0) as total
		`).
		Where("po.tenant_id = ?", f.TenantID).
		Where("po.status = ?", purchasing.OrderStatusDelivered).
		Where("po.delivered_at BETWEEN ? AND ?", f.From, f.To)
	if !f.LocationID.IsZero() {
		q = q.Where("po.location_id = ?", f.LocationID.String())
	}
	if err := q.Group("po.supplier_id").Scan(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return nonNil(rows), nil
}

// Shifts lists the shifts opened in the period
func (r *GormReportRepository) Shifts(ctx context.Context, f report.Filter) ([]report.ShiftRow, error) {
	type shiftResult struct {
		ID           uuid.UUID
		LocationID   string
		UserID       uuid.UUID
		Status       string
		OpenedAt     time.Time
		ClosedAt     *time.Time
		SalesCount   int
		StartingCash decimal.Decimal
		CashSales    decimal.Decimal
		CardSales    decimal.Decimal
		OtherSales   decimal.Decimal
		EndingCash   decimal.Decimal
		Variance     decimal.Decimal
	}
	var results []shiftResult
	q := dbFrom(ctx, r.db).Table("shifts").
		Select("id, location_id, user_id, status, opened_at, closed_at, sales_count, starting_cash, cash_sales, card_sales, other_sales, ending_cash, variance").
		Where("tenant_id = ?", f.TenantID).
		Where("opened_at BETWEEN ? AND ?", f.From, f.To)
	if !f.LocationID.IsZero() {
		q = q.Where("location_id = ?", f.LocationID.String())
	}
	if err := q.Order("opened_at DESC").Scan(&results).Error; err != nil {
		return nil, translateError(err)
	}

	rows := make([]report.ShiftRow, len(results))
	for i, res := range results {
		rows[i] = report.ShiftRow{
			ShiftID:      res.ID,
			LocationID:   res.LocationID,
			UserID:       res.UserID,
			Status:       res.Status,
			OpenedAt:     res.OpenedAt,
			ClosedAt:     res.ClosedAt,
			SalesCount:   res.SalesCount,
			TotalSales:   res.CashSales.Add(res.CardSales).Add(res.OtherSales),
			ExpectedCash: res.StartingCash.Add(res.CashSales),
			EndingCash:   res.EndingCash,
			Variance:     res.Variance,
		}
	}
	return rows, nil
}

// OpenPurchaseOrders lists draft and ordered POs, soonest expected first
func (r *GormReportRepository) OpenPurchaseOrders(ctx context.Context, f report.Filter) ([]report.OpenPurchaseOrder, error) {
	var rows []report.OpenPurchaseOrder
	q := dbFrom(ctx, r.db).Table("purchase_orders").
		Select("id, number, supplier_name, status, total, expected_at").
		Where("tenant_id = ?", f.TenantID).
		Where("status IN ?", []purchasing.OrderStatus{purchasing.OrderStatusDraft, purchasing.OrderStatusOrdered})
	if !f.LocationID.IsZero() {
		q = q.Where("location_id = ?", f.LocationID.String())
	}
	if err := q.Order("expected_at ASC").Order("created_at ASC").Limit(20).Scan(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return nonNil(rows), nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
