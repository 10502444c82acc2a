package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/domain/location"
	"github.com/coretrack/backend/internal/domain/menu"
	"github.com/coretrack/backend/internal/domain/pos"
	"github.com/coretrack/backend/internal/domain/purchasing"
	"github.com/coretrack/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormIntegrityStore(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	store := NewGormIntegrityStore(db)

	tenant, err := identity.NewTrialTenant("Warung", "owner@warung.test", 14)
	require.NoError(t, err)
	require.NoError(t, NewGormTenantRepository(db).Save(ctx, tenant))
	tenantID := tenant.ID

	branches := NewGormBranchRepository(db)
	closed, err := location.NewBranch(tenantID, "Old", "OLD")
	require.NoError(t, err)
	require.NoError(t, closed.Deactivate())
	require.NoError(t, branches.Save(ctx, closed))
	main, err := location.NewBranch(tenantID, "Main", "MAIN")
	require.NoError(t, err)
	main.CreatedAt = closed.CreatedAt.Add(time.Minute)
	require.NoError(t, branches.Save(ctx, main))

	items := NewGormInventoryItemRepository(db)
	rice := newTestItem(t, tenantID, main.LocationID(), "Rice")
	require.NoError(t, items.Save(ctx, rice))
	salt := newTestItem(t, tenantID, main.LocationID(), "Salt")
	require.NoError(t, items.Save(ctx, salt))
	require.NoError(t, db.Model(&models.InventoryItemModel{}).
		Where("id = ?", salt.ID).
		Updates(map[string]any{"location_id": "store-1", "quantity": -3}).Error)

	ghost := uuid.New()
	nasi, err := menu.NewMenuItem(tenantID, main.LocationID(), "Nasi Goreng", decimal.NewFromInt(5))
	require.NoError(t, err)
	require.NoError(t, nasi.SetIngredients([]menu.Ingredient{
		{InventoryItemID: rice.ID, Quantity: decimal.RequireFromString("0.2")},
		{InventoryItemID: ghost, Quantity: decimal.RequireFromString("0.01")},
	}))
	require.NoError(t, NewGormMenuItemRepository(db).Save(ctx, nasi))

	po := newTestOrder(t, tenantID, main.LocationID(), "PO-20260101-0001",
		purchasing.ItemInput{InventoryItemID: &ghost, Name: "Chili", Unit: "kg", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(3)},
		purchasing.ItemInput{Name: "Garlic", Unit: "kg", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(2)},
	)
	require.NoError(t, NewGormPurchaseOrderRepository(db).Save(ctx, po))

	sh := openTestShift(t, tenantID, main.LocationID())
	sale := newTestSale(t, sh, "S-20260101-0001", pos.PaymentCash)
	require.NoError(t, NewGormSaleOrderRepository(db).Save(ctx, sale))

	t.Run("lists tenants", func(t *testing.T) {
		ids, err := store.TenantIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{tenantID}, ids)
	})

	t.Run("builds the snapshot", func(t *testing.T) {
		snap, err := store.Snapshot(ctx, tenantID)
		require.NoError(t, err)

		assert.Len(t, snap.Branches, 2)
		require.NotNil(t, snap.DefaultBranchID)
		assert.Equal(t, main.ID, *snap.DefaultBranchID)

		require.Len(t, snap.Items, 2)
		assert.Equal(t, "Rice", snap.Items[0].Name)
		assert.Equal(t, "store-1", snap.Items[1].LocationID)
		assertDecimal(t, "-3", snap.Items[1].Quantity)

		require.Len(t, snap.Ingredients, 2)
		assert.Equal(t, "Nasi Goreng", snap.Ingredients[0].MenuItemName)

		require.Len(t, snap.POLines, 1)
		assert.Equal(t, ghost, snap.POLines[0].InventoryItemID)
		assert.Equal(t, "PO-20260101-0001", snap.POLines[0].OrderNumber)

		require.Len(t, snap.ShiftlessSales, 1)
		assert.Equal(t, sale.ID, snap.ShiftlessSales[0].ID)
		assert.Equal(t, sh.ID, snap.ShiftlessSales[0].ShiftID)

		assert.Equal(t, map[uuid.UUID]bool{ghost: true}, snap.MissingItems)
	})

	t.Run("sales with a stored shift are not reported", func(t *testing.T) {
		require.NoError(t, NewGormShiftRepository(db).Save(ctx, sh))

		snap, err := store.Snapshot(ctx, tenantID)
		require.NoError(t, err)
		assert.Empty(t, snap.ShiftlessSales)
	})

	t.Run("unknown tenants have an empty snapshot", func(t *testing.T) {
		snap, err := store.Snapshot(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, snap.Branches)
		assert.Nil(t, snap.DefaultBranchID)
		assert.Empty(t, snap.MissingItems)
	})
}
