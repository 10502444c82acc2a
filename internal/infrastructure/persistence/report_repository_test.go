package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/coretrack/backend/internal/domain/inventory"
	"github.com/coretrack/backend/internal/domain/pos"
	"github.com/coretrack/backend/internal/domain/report"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormReportRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormReportRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	loc := shared.NewLocationID(uuid.New())
	otherLoc := shared.NewLocationID(uuid.New())

	shifts := NewGormShiftRepository(db)
	sales := NewGormSaleOrderRepository(db)
	items := NewGormInventoryItemRepository(db)

	sh := openTestShift(t, tenantID, loc)
	require.NoError(t, shifts.Save(ctx, sh))

	cash := newTestSale(t, sh, "S-0001", pos.PaymentCash)
	require.NoError(t, sales.Save(ctx, cash))
	card := newTestSale(t, sh, "S-0002", pos.PaymentCard)
	require.NoError(t, sales.Save(ctx, card))
	voided := newTestSale(t, sh, "S-0003", pos.PaymentCash)
	require.NoError(t, voided.Void("wrong order"))
	require.NoError(t, sales.Save(ctx, voided))

	beans := newTestItem(t, tenantID, loc, "Coffee Beans")
	require.NoError(t, beans.UpdateDetails(inventory.ItemDetails{Category: "coffee", MinStock: decimal.NewFromInt(5)}))
	_, err := beans.Receive(decimal.NewFromInt(2), decimal.NewFromInt(10), "PO-1")
	require.NoError(t, err)
	require.NoError(t, items.Save(ctx, beans))

	milk := newTestItem(t, tenantID, otherLoc, "Milk")
	require.NoError(t, milk.UpdateDetails(inventory.ItemDetails{Category: "dairy", MinStock: decimal.NewFromInt(1)}))
	_, err = milk.Receive(decimal.NewFromInt(4), decimal.NewFromInt(3), "PO-2")
	require.NoError(t, err)
	require.NoError(t, items.Save(ctx, milk))

	now := time.Now().UTC()
	filter := report.Filter{TenantID: tenantID, From: now.Add(-time.Hour), To: now.Add(time.Hour)}

	t.Run("sales summary counts completed sales only", func(t *testing.T) {
		summary, err := repo.SalesSummary(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(2), summary.OrderCount)
		assert.Equal(t, int64(1), summary.VoidedCount)
		assertDecimal(t, "24.5", summary.GrossSales)
		assert.True(t, summary.NetSales.Equal(cash.Total.Add(card.Total)))
		require.Len(t, summary.ByDay, 1)
		assert.Equal(t, now.Format("2006-01-02"), summary.ByDay[0].Date)
		assert.Len(t, summary.ByPaymentMethod, 2)
		require.NotEmpty(t, summary.TopItems)
		assert.Equal(t, 1, summary.TopItems[0].Rank)
	})

	t.Run("sales summary outside the period is empty", func(t *testing.T) {
		past := report.Filter{TenantID: tenantID, From: now.AddDate(0, -1, 0), To: now.AddDate(0, 0, -7)}
		summary, err := repo.SalesSummary(ctx, past)
		require.NoError(t, err)
		assert.Zero(t, summary.OrderCount)
		assert.Empty(t, summary.ByDay)
		assert.True(t, summary.AverageTicket.IsZero())
	})

	t.Run("valuation groups by location and category", func(t *testing.T) {
		rows, err := repo.InventoryValuation(ctx, filter)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		v := report.NewInventoryValuation(rows)
		assertDecimal(t, "32", v.TotalValue)

		scoped := filter
		scoped.LocationID = loc
		rows, err = repo.InventoryValuation(ctx, scoped)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assertDecimal(t, "20", rows[0].Value)
	})

	t.Run("low stock lists items at or below minimum", func(t *testing.T) {
		rows, err := repo.LowStock(ctx, filter)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Coffee Beans", rows[0].Name)
		assertDecimal(t, "8", rows[0].SuggestedReorder)
	})

	t.Run("shifts report expected cash", func(t *testing.T) {
		rows, err := repo.Shifts(ctx, filter)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, sh.ID, rows[0].ShiftID)
		assert.Nil(t, rows[0].ClosedAt)
	})

	t.Run("no delivered orders means no spend", func(t *testing.T) {
		rows, err := repo.PurchaseSpend(ctx, filter)
		require.NoError(t, err)
		assert.Empty(t, rows)

		open, err := repo.OpenPurchaseOrders(ctx, filter)
		require.NoError(t, err)
		assert.Empty(t, open)
	})
}
