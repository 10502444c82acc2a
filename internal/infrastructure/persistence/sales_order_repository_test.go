package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/coretrack/backend/internal/domain/pos"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/domain/shift"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestShift(t *testing.T, tenantID uuid.UUID, loc shared.LocationID) *shift.Shift {
	t.Helper()
	sh, err := shift.Open(tenantID, loc, uuid.New(), decimal.NewFromInt(100))
	require.NoError(t, err)
	return sh
}

func newTestSale(t *testing.T, sh *shift.Shift, number string, method pos.PaymentMethod) *pos.SaleOrder {
	t.Helper()
	sale, err := pos.NewSaleOrder(sh.TenantID, sh, number, []pos.LineInput{
		{MenuItemID: uuid.New(), Name: "Latte", Quantity: 2, UnitPrice: decimal.RequireFromString("4.50")},
		{MenuItemID: uuid.New(), Name: "Croissant", Quantity: 1, UnitPrice: decimal.RequireFromString("3.25")},
	}, decimal.Zero, decimal.RequireFromString("0.10"), method)
	require.NoError(t, err)
	return sale
}

func TestGormShiftRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormShiftRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	loc := shared.NewLocationID(uuid.New())

	sh := openTestShift(t, tenantID, loc)
	require.NoError(t, repo.Save(ctx, sh))

	t.Run("finds the open shift of a cashier", func(t *testing.T) {
		found, err := repo.FindOpen(ctx, tenantID, loc, sh.UserID)
		require.NoError(t, err)
		assert.Equal(t, sh.ID, found.ID)
		assertDecimal(t, "100", found.StartingCash)

		_, err = repo.FindOpen(ctx, tenantID, loc, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)

		count, err := repo.CountOpenAtLocation(ctx, tenantID, loc)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("closing keeps totals and removes it from open lookups", func(t *testing.T) {
		found, err := repo.FindByID(ctx, tenantID, sh.ID)
		require.NoError(t, err)
		require.NoError(t, found.RecordSale(shift.BucketCash, decimal.RequireFromString("12.50")))
		require.NoError(t, found.Close(found.UserID, false, decimal.RequireFromString("110"), "short"))
		require.NoError(t, repo.Save(ctx, found))

		closed, err := repo.FindByID(ctx, tenantID, sh.ID)
		require.NoError(t, err)
		assert.Equal(t, shift.StatusClosed, closed.Status)
		assert.Equal(t, 1, closed.SalesCount)
		assertDecimal(t, "-2.5", closed.Variance)
		require.NotNil(t, closed.ClosedAt)

		_, err = repo.FindOpen(ctx, tenantID, loc, sh.UserID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("lists by status", func(t *testing.T) {
		other := openTestShift(t, tenantID, loc)
		require.NoError(t, repo.Save(ctx, other))

		shifts, total, err := repo.FindAll(ctx, tenantID, shift.Filter{Filter: shared.DefaultFilter(), Status: shift.StatusOpen})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, other.ID, shifts[0].ID)

		_, total, err = repo.FindAll(ctx, tenantID, shift.Filter{Filter: shared.DefaultFilter(), LocationID: loc})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})
}

func TestGormSaleOrderRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSaleOrderRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	loc := shared.NewLocationID(uuid.New())
	otherLoc := shared.NewLocationID(uuid.New())
	day := time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC)
	sh := openTestShift(t, tenantID, loc)

	number, err := repo.NextNumber(ctx, tenantID, loc, day)
	require.NoError(t, err)
	assert.Equal(t, "S-20260502-0001", number)

	sale := newTestSale(t, sh, number, pos.PaymentCash)
	require.NoError(t, repo.Save(ctx, sale))

	t.Run("numbers run per location", func(t *testing.T) {
		next, err := repo.NextNumber(ctx, tenantID, loc, day)
		require.NoError(t, err)
		assert.Equal(t, "S-20260502-0002", next)

		next, err = repo.NextNumber(ctx, tenantID, otherLoc, day)
		require.NoError(t, err)
		assert.Equal(t, "S-20260502-0001", next)
	})

	t.Run("stores lines and totals", func(t *testing.T) {
		found, err := repo.FindByID(ctx, tenantID, sale.ID)
		require.NoError(t, err)
		require.Len(t, found.Lines, 2)
		assert.Equal(t, "Latte", found.Lines[0].Name)
		assert.Equal(t, 2, found.Lines[0].Quantity)
		assertDecimal(t, "12.25", found.Subtotal)
		assertDecimal(t, "1.23", found.Tax)
		assertDecimal(t, "13.48", found.Total)
		assert.Equal(t, sh.ID, found.ShiftID)
	})

	t.Run("updates only the header", func(t *testing.T) {
		found, err := repo.FindByID(ctx, tenantID, sale.ID)
		require.NoError(t, err)
		require.NoError(t, found.Void("wrong order"))
		require.NoError(t, repo.Save(ctx, found))

		voided, err := repo.FindByID(ctx, tenantID, sale.ID)
		require.NoError(t, err)
		assert.Equal(t, pos.StatusVoided, voided.Status)
		assert.Equal(t, pos.PaymentRefunded, voided.PaymentStatus)
		assert.Len(t, voided.Lines, 2)
	})

	t.Run("finds by payment reference", func(t *testing.T) {
		pending := newTestSale(t, sh, "S-20260502-0002", pos.PaymentXendit)
		pending.PaymentRef = "inv_123"
		require.NoError(t, repo.Save(ctx, pending))

		found, err := repo.FindByPaymentRef(ctx, tenantID, "inv_123")
		require.NoError(t, err)
		assert.Equal(t, pending.ID, found.ID)
		assert.Equal(t, pos.PaymentPending, found.PaymentStatus)

		_, err = repo.FindByPaymentRef(ctx, tenantID, "")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("lists by status", func(t *testing.T) {
		sales, total, err := repo.FindAll(ctx, tenantID, pos.Filter{Filter: shared.DefaultFilter(), Status: pos.StatusCompleted})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Len(t, sales[0].Lines, 2)

		_, total, err = repo.FindAll(ctx, tenantID, pos.Filter{Filter: shared.DefaultFilter(), ShiftID: &sh.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})
}
