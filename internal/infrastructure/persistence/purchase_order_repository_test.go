package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/coretrack/backend/internal/domain/purchasing"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(t *testing.T, tenantID uuid.UUID, loc shared.LocationID, number string, items ...purchasing.ItemInput) *purchasing.PurchaseOrder {
	t.Helper()
	po, err := purchasing.NewPurchaseOrder(tenantID, loc, number, nil, "Fresh Farms")
	require.NoError(t, err)
	if len(items) > 0 {
		require.NoError(t, po.SetItems(items))
	}
	return po
}

func TestGormPurchaseOrderRepository_NextNumber(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPurchaseOrderRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	loc := shared.NewLocationID(uuid.New())
	day := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	number, err := repo.NextNumber(ctx, tenantID, day)
	require.NoError(t, err)
	assert.Equal(t, "PO-20260314-0001", number)

	require.NoError(t, repo.Save(ctx, newTestOrder(t, tenantID, loc, number)))
	require.NoError(t, repo.Save(ctx, newTestOrder(t, tenantID, loc, "PO-20260314-0009")))

	number, err = repo.NextNumber(ctx, tenantID, day)
	require.NoError(t, err)
	assert.Equal(t, "PO-20260314-0010", number)

	number, err = repo.NextNumber(ctx, tenantID, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, "PO-20260315-0001", number)

	number, err = repo.NextNumber(ctx, uuid.New(), day)
	require.NoError(t, err)
	assert.Equal(t, "PO-20260314-0001", number)
}

func TestGormPurchaseOrderRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPurchaseOrderRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	loc := shared.NewLocationID(uuid.New())
	flour := uuid.New()

	po := newTestOrder(t, tenantID, loc, "PO-20260314-0001",
		purchasing.ItemInput{InventoryItemID: &flour, Name: "Flour", Unit: "kg", Quantity: decimal.NewFromInt(10), UnitPrice: decimal.RequireFromString("1.20")},
		purchasing.ItemInput{Name: "Yeast", Unit: "g", Quantity: decimal.NewFromInt(500), UnitPrice: decimal.RequireFromString("0.02")},
	)
	require.NoError(t, repo.Save(ctx, po))

	t.Run("loads lines in order", func(t *testing.T) {
		found, err := repo.FindByID(ctx, tenantID, po.ID)
		require.NoError(t, err)
		assert.Equal(t, purchasing.OrderStatusDraft, found.Status)
		require.Len(t, found.Items, 2)
		assert.Equal(t, "Flour", found.Items[0].Name)
		require.NotNil(t, found.Items[0].InventoryItemID)
		assert.Equal(t, flour, *found.Items[0].InventoryItemID)
		assert.Nil(t, found.Items[1].InventoryItemID)
		assertDecimal(t, "22", found.Subtotal)
	})

	t.Run("finds orders referencing an item", func(t *testing.T) {
		orders, err := repo.FindReferencingItem(ctx, tenantID, flour)
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, po.ID, orders[0].ID)

		orders, err = repo.FindReferencingItem(ctx, tenantID, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, orders)
	})

	t.Run("rewrites lines and status", func(t *testing.T) {
		found, err := repo.FindByID(ctx, tenantID, po.ID)
		require.NoError(t, err)
		require.NoError(t, found.SetItems([]purchasing.ItemInput{
			{InventoryItemID: &flour, Name: "Flour", Unit: "kg", Quantity: decimal.NewFromInt(20), UnitPrice: decimal.RequireFromString("1.10")},
		}))
		require.NoError(t, found.Submit())
		require.NoError(t, repo.Save(ctx, found))

		reloaded, err := repo.FindByID(ctx, tenantID, po.ID)
		require.NoError(t, err)
		assert.Equal(t, purchasing.OrderStatusOrdered, reloaded.Status)
		require.Len(t, reloaded.Items, 1)
		assertDecimal(t, "20", reloaded.Items[0].Quantity)
		assertDecimal(t, "22", reloaded.Total)
	})

	t.Run("filters by status", func(t *testing.T) {
		orders, total, err := repo.FindAll(ctx, tenantID, purchasing.OrderFilter{Filter: shared.DefaultFilter(), Status: purchasing.OrderStatusOrdered})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Len(t, orders[0].Items, 1)

		_, total, err = repo.FindAll(ctx, tenantID, purchasing.OrderFilter{Filter: shared.DefaultFilter(), Status: purchasing.OrderStatusDraft})
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("deletes with lines", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, tenantID, po.ID))
		_, err := repo.FindByID(ctx, tenantID, po.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		orders, err := repo.FindReferencingItem(ctx, tenantID, flour)
		require.NoError(t, err)
		assert.Empty(t, orders)
	})
}

func TestGormSupplierRepository_SQLite(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSupplierRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	farms, err := purchasing.NewSupplier(tenantID, purchasing.SupplierDetails{Name: "Fresh Farms", Email: "Sales@Farms.test"})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, farms))

	dairy, err := purchasing.NewSupplier(tenantID, purchasing.SupplierDetails{Name: "Dairy Co", ContactName: "Budi"})
	require.NoError(t, err)
	dairy.Deactivate()
	require.NoError(t, repo.Save(ctx, dairy))

	filter := shared.DefaultFilter()
	filter.Search = "budi"
	suppliers, total, err := repo.FindAll(ctx, tenantID, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, dairy.ID, suppliers[0].ID)
	assert.False(t, suppliers[0].Active)

	filter = shared.DefaultFilter()
	filter.Filters["active"] = true
	suppliers, total, err = repo.FindAll(ctx, tenantID, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "sales@farms.test", suppliers[0].Email)
}
