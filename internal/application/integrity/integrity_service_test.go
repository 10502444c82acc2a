package integrity

import (
	"context"
	"errors"
	"testing"

	"github.com/coretrack/backend/internal/domain/integrity"
	"github.com/coretrack/backend/internal/domain/inventory"
	"github.com/coretrack/backend/internal/domain/location"
	"github.com/coretrack/backend/internal/domain/menu"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStore struct {
	snapshots map[uuid.UUID]*integrity.Snapshot
	err       error
}

func (s *fakeStore) TenantIDs(context.Context) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(s.snapshots))
	for id := range s.snapshots {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *fakeStore) Snapshot(_ context.Context, tenantID uuid.UUID) (*integrity.Snapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.snapshots[tenantID], nil
}

type integrityFixture struct {
	store     *fakeStore
	branches  *testutil.MockBranchRepository
	items     *testutil.MockInventoryItemRepository
	movements *testutil.MockMovementRepository
	menuItems *testutil.MockMenuItemRepository
	orders    *testutil.MockPurchaseOrderRepository
	svc       *IntegrityService
	tenantID  uuid.UUID
	branch    *location.Branch
}

func newIntegrityFixture(t *testing.T) *integrityFixture {
	t.Helper()
	tenantID := uuid.New()
	branch, err := location.NewBranch(tenantID, "Main", "MAIN")
	require.NoError(t, err)

	f := &integrityFixture{
		store:     &fakeStore{snapshots: map[uuid.UUID]*integrity.Snapshot{}},
		branches:  new(testutil.MockBranchRepository),
		items:     new(testutil.MockInventoryItemRepository),
		movements: new(testutil.MockMovementRepository),
		menuItems: new(testutil.MockMenuItemRepository),
		orders:    new(testutil.MockPurchaseOrderRepository),
		tenantID:  tenantID,
		branch:    branch,
	}
	f.svc = NewIntegrityService(IntegrityServiceConfig{
		Store:     f.store,
		Branches:  f.branches,
		Items:     f.items,
		Movements: f.movements,
		MenuItems: f.menuItems,
		Orders:    f.orders,
		TX:        shared.NoOpTransactionScope{},
		Logger:    zap.NewNop(),
	})
	return f
}

func (f *integrityFixture) item(t *testing.T, name string) *inventory.InventoryItem {
	t.Helper()
	item, err := inventory.NewInventoryItem(f.tenantID, f.branch.LocationID(), name, "kg")
	require.NoError(t, err)
	item.MarkPersisted()
	return item
}

func TestIntegrityService_Scan(t *testing.T) {
	ctx := context.Background()

	t.Run("aggregates findings across tenants", func(t *testing.T) {
		f := newIntegrityFixture(t)
		other := uuid.New()
		defaultID := f.branch.ID
		f.store.snapshots[f.tenantID] = &integrity.Snapshot{
			TenantID:        f.tenantID,
			Branches:        []integrity.BranchRef{{ID: f.branch.ID, Active: true}},
			DefaultBranchID: &defaultID,
			Items: []integrity.ItemRef{
				{ID: uuid.New(), Name: "Rice", Quantity: decimal.NewFromInt(3)},
				{ID: uuid.New(), Name: "Salt", LocationID: f.branch.LocationID().String(), Quantity: decimal.NewFromInt(-2)},
			},
		}
		f.store.snapshots[other] = &integrity.Snapshot{TenantID: other}

		result, err := f.svc.Scan(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, result.Tenants)
		require.Len(t, result.Findings, 2)
		assert.Equal(t, 1, result.Summary[integrity.CheckInventoryMissingLocation])
		assert.Equal(t, 1, result.Summary[integrity.CheckNegativeStock])
	})

	t.Run("single tenant with selected checks", func(t *testing.T) {
		f := newIntegrityFixture(t)
		f.store.snapshots[f.tenantID] = &integrity.Snapshot{
			TenantID: f.tenantID,
			Items: []integrity.ItemRef{
				{ID: uuid.New(), Name: "Rice"},
				{ID: uuid.New(), Name: "Salt", LocationID: f.branch.LocationID().String(), Quantity: decimal.NewFromInt(-2)},
			},
		}
		result, err := f.svc.Scan(ctx, &f.tenantID, integrity.CheckNegativeStock)
		require.NoError(t, err)
		require.Len(t, result.Findings, 1)
		assert.Equal(t, integrity.CheckNegativeStock, result.Findings[0].Check)
	})

	t.Run("store failure", func(t *testing.T) {
		f := newIntegrityFixture(t)
		f.store.err = errors.New("db down")
		_, err := f.svc.Scan(ctx, &f.tenantID)
		assert.Error(t, err)
	})
}

func TestIntegrityService_Fix(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns the default branch", func(t *testing.T) {
		f := newIntegrityFixture(t)
		item := f.item(t, "Rice")
		item.LocationID = ""
		f.branches.On("FindDefault", ctx, f.tenantID).Return(f.branch, nil)
		f.items.On("FindByID", ctx, f.tenantID, item.ID).Return(item, nil)
		f.items.On("Save", ctx, item).Return(nil)
		f.movements.On("Save", ctx, mock.MatchedBy(func(m *inventory.StockMovement) bool {
			return m.Type == inventory.MovementTransfer
		})).Return(nil)

		out, err := f.svc.Fix(ctx, []integrity.Finding{{
			Check: integrity.CheckInventoryMissingLocation, TenantID: f.tenantID, EntityID: item.ID, Fixable: true,
		}}, false)
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.True(t, out[0].Applied)
		assert.Empty(t, out[0].Error)
		assert.Equal(t, f.branch.LocationID(), item.LocationID)
	})

	t.Run("normalises a bare branch id", func(t *testing.T) {
		f := newIntegrityFixture(t)
		item := f.item(t, "Salt")
		raw := f.branch.ID.String()
		item.LocationID = shared.LocationID(raw)
		f.branches.On("FindByLocationID", ctx, f.tenantID, f.branch.LocationID()).Return(f.branch, nil)
		f.items.On("FindByID", ctx, f.tenantID, item.ID).Return(item, nil)
		f.items.On("Save", ctx, item).Return(nil)
		f.movements.On("Save", ctx, mock.Anything).Return(nil)

		out, err := f.svc.Fix(ctx, []integrity.Finding{{
			Check: integrity.CheckInvalidLocationFormat, TenantID: f.tenantID, EntityID: item.ID, Value: raw, Fixable: true,
		}}, false)
		require.NoError(t, err)
		assert.True(t, out[0].Applied)
		assert.Equal(t, f.branch.LocationID(), item.LocationID)
	})

	t.Run("clamps negative stock with an adjustment", func(t *testing.T) {
		f := newIntegrityFixture(t)
		item := f.item(t, "Salt")
		item.Quantity = decimal.NewFromInt(-3)
		f.items.On("FindByID", ctx, f.tenantID, item.ID).Return(item, nil)
		f.items.On("Save", ctx, item).Return(nil)
		f.movements.On("Save", ctx, mock.MatchedBy(func(m *inventory.StockMovement) bool {
			return m.Type == inventory.MovementAdjust && m.Quantity.Equal(decimal.NewFromInt(3))
		})).Return(nil)

		out, err := f.svc.Fix(ctx, []integrity.Finding{{
			Check: integrity.CheckNegativeStock, TenantID: f.tenantID, EntityID: item.ID, Value: "-3", Fixable: true,
		}}, false)
		require.NoError(t, err)
		assert.True(t, out[0].Applied)
		assert.True(t, item.Quantity.IsZero())
		f.movements.AssertExpectations(t)
	})

	t.Run("drops an orphaned ingredient", func(t *testing.T) {
		f := newIntegrityFixture(t)
		ghost := uuid.New()
		dish, err := menu.NewMenuItem(f.tenantID, f.branch.LocationID(), "Nasi Goreng", decimal.NewFromInt(5))
		require.NoError(t, err)
		require.NoError(t, dish.SetIngredients([]menu.Ingredient{{InventoryItemID: ghost, Quantity: decimal.NewFromInt(1)}}))
		f.menuItems.On("FindByID", ctx, f.tenantID, dish.ID).Return(dish, nil)
		f.menuItems.On("Save", ctx, dish).Return(nil)

		out, err := f.svc.Fix(ctx, []integrity.Finding{{
			Check: integrity.CheckOrphanedMenuIngredient, TenantID: f.tenantID, EntityID: dish.ID, RelatedID: &ghost, Fixable: true,
		}}, false)
		require.NoError(t, err)
		assert.True(t, out[0].Applied)
		assert.Empty(t, dish.Ingredients)
	})

	t.Run("dry run writes nothing", func(t *testing.T) {
		f := newIntegrityFixture(t)
		id := uuid.New()
		out, err := f.svc.Fix(ctx, []integrity.Finding{
			{Check: integrity.CheckNegativeStock, TenantID: f.tenantID, EntityID: id, Value: "-1", Fixable: true},
			{Check: integrity.CheckUnknownBranch, TenantID: f.tenantID, EntityID: id},
		}, true)
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.False(t, out[0].Applied)
		assert.Equal(t, "clamp stock -1 to 0", out[0].Action)
		assert.Equal(t, "manual review required", out[1].Action)
		f.items.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("a failed repair is reported and the rest continue", func(t *testing.T) {
		f := newIntegrityFixture(t)
		missing := uuid.New()
		item := f.item(t, "Salt")
		item.Quantity = decimal.NewFromInt(-1)
		f.items.On("FindByID", ctx, f.tenantID, missing).Return(nil, shared.ErrNotFound)
		f.items.On("FindByID", ctx, f.tenantID, item.ID).Return(item, nil)
		f.items.On("Save", ctx, item).Return(nil)
		f.movements.On("Save", ctx, mock.Anything).Return(nil)

		out, err := f.svc.Fix(ctx, []integrity.Finding{
			{Check: integrity.CheckNegativeStock, TenantID: f.tenantID, EntityID: missing, Fixable: true},
			{Check: integrity.CheckNegativeStock, TenantID: f.tenantID, EntityID: item.ID, Fixable: true},
		}, false)
		require.NoError(t, err)
		assert.False(t, out[0].Applied)
		assert.NotEmpty(t, out[0].Error)
		assert.True(t, out[1].Applied)
	})
}
