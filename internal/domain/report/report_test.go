package report

import (
	"testing"
	"time"

	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFilter(t *testing.T) {
	tenantID := uuid.New()
	now := time.Date(2026, 3, 14, 15, 30, 0, 0, time.UTC)

	t.Run("defaults to today", func(t *testing.T) {
		f, err := NewFilter(tenantID, "", time.Time{}, time.Time{}, now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), f.From)
		assert.Equal(t, now, f.To)
		assert.True(t, f.LocationID.IsZero())
	})

	t.Run("parses location", func(t *testing.T) {
		branchID := uuid.New()
		f, err := NewFilter(tenantID, "location_"+branchID.String(), time.Time{}, time.Time{}, now)
		require.NoError(t, err)
		assert.Equal(t, shared.NewLocationID(branchID), f.LocationID)
	})

	t.Run("rejects malformed location", func(t *testing.T) {
		_, err := NewFilter(tenantID, "main-branch", time.Time{}, time.Time{}, now)
		assert.ErrorIs(t, err, shared.ErrInvalidLocationID)
	})

	t.Run("rejects inverted range", func(t *testing.T) {
		_, err := NewFilter(tenantID, "", now, now.Add(-time.Hour), now)
		require.Error(t, err)
		assert.Equal(t, "INVALID_DATE_RANGE", shared.ErrorCode(err))
	})

	t.Run("rejects range over a year", func(t *testing.T) {
		_, err := NewFilter(tenantID, "", now.AddDate(-2, 0, 0), now, now)
		assert.Equal(t, "INVALID_DATE_RANGE", shared.ErrorCode(err))
	})
}

func TestSalesSummaryFinalize(t *testing.T) {
	s := SalesSummary{
		OrderCount: 3,
		NetSales:   decimal.NewFromInt(100),
		ByDay: []DailySales{
			{Date: "2026-03-02", OrderCount: 1, Total: decimal.NewFromInt(40)},
			{Date: "2026-03-01", OrderCount: 2, Total: decimal.NewFromInt(60)},
		},
		ByPaymentMethod: []PaymentMethodTotal{
			{Method: "card", Total: decimal.NewFromInt(30)},
			{Method: "cash", Total: decimal.NewFromInt(70)},
		},
	}
	s.Finalize()

	assert.True(t, decimal.RequireFromString("33.33").Equal(s.AverageTicket), s.AverageTicket.String())
	assert.Equal(t, "2026-03-01", s.ByDay[0].Date)
	assert.Equal(t, "cash", s.ByPaymentMethod[0].Method)

	empty := SalesSummary{}
	empty.Finalize()
	assert.True(t, empty.AverageTicket.IsZero())
}

func TestRankTopItems(t *testing.T) {
	items := []TopItem{
		{Name: "Es Teh", Quantity: 10, Revenue: decimal.NewFromInt(50)},
		{Name: "Nasi Goreng", Quantity: 10, Revenue: decimal.NewFromInt(250)},
		{Name: "Sate", Quantity: 4, Revenue: decimal.NewFromInt(120)},
	}
	ranked := RankTopItems(items, 2)

	require.Len(t, ranked, 2)
	assert.Equal(t, "Nasi Goreng", ranked[0].Name)
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, "Es Teh", ranked[1].Name)
	assert.Equal(t, 2, ranked[1].Rank)
}

func TestLowStockRowSuggestReorder(t *testing.T) {
	row := LowStockRow{Quantity: decimal.NewFromInt(2), MinStock: decimal.NewFromInt(5), ReorderQuantity: decimal.NewFromInt(20)}
	row.SuggestReorder()
	assert.True(t, decimal.NewFromInt(20).Equal(row.SuggestedReorder))

	row = LowStockRow{Quantity: decimal.NewFromInt(2), MinStock: decimal.NewFromInt(5)}
	row.SuggestReorder()
	assert.True(t, decimal.NewFromInt(8).Equal(row.SuggestedReorder))

	row = LowStockRow{Quantity: decimal.NewFromInt(12), MinStock: decimal.NewFromInt(5)}
	row.SuggestReorder()
	assert.True(t, row.SuggestedReorder.IsZero())
}

func TestShiftReportAndTotals(t *testing.T) {
	closed := time.Now()
	r := NewShiftReport([]ShiftRow{
		{Variance: decimal.NewFromInt(-5), ClosedAt: &closed},
		{Variance: decimal.NewFromInt(2), ClosedAt: &closed},
		{Variance: decimal.NewFromInt(100)},
	})
	assert.True(t, decimal.NewFromInt(-3).Equal(r.TotalVariance))
	assert.Equal(t, 1, r.OpenCount)

	v := NewInventoryValuation([]ValuationRow{
		{Value: decimal.RequireFromString("10.005")},
		{Value: decimal.NewFromInt(5)},
	})
	assert.Equal(t, "15.01", v.TotalValue.StringFixed(2))
	assert.NotNil(t, NewInventoryValuation(nil).Rows)

	spend := NewPurchaseSpend(Filter{}, []SupplierSpend{
		{SupplierName: "A", Total: decimal.NewFromInt(10)},
		{SupplierName: "B", Total: decimal.NewFromInt(30)},
	})
	assert.Equal(t, "B", spend.Suppliers[0].SupplierName)
	assert.True(t, decimal.NewFromInt(40).Equal(spend.Total))
}
