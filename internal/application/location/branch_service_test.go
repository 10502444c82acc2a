package location

import (
	"context"
	"testing"

	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/domain/location"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	tenants  *testutil.MockTenantRepository
	branches *testutil.MockBranchRepository
	shifts   *testutil.MockShiftRepository
	events   *testutil.RecordingPublisher
	svc      *BranchService
	tenant   *identity.Tenant
	owner    identity.Actor
}

func newFixture(t *testing.T, trialDays int) *fixture {
	t.Helper()
	tenant, err := identity.NewTrialTenant("Kopi Kita", "owner@kopikita.example", trialDays)
	require.NoError(t, err)
	f := &fixture{
		tenants:  new(testutil.MockTenantRepository),
		branches: new(testutil.MockBranchRepository),
		shifts:   new(testutil.MockShiftRepository),
		events:   &testutil.RecordingPublisher{},
		tenant:   tenant,
		owner:    identity.Actor{TenantID: tenant.ID, UserID: uuid.New(), Role: identity.RoleOwner},
	}
	f.tenants.On("FindByID", mock.Anything, tenant.ID).Return(tenant, nil).Maybe()
	f.svc = NewBranchService(shared.NoOpTransactionScope{}, f.tenants, f.branches, f.shifts, f.events, zap.NewNop())
	return f
}

func (f *fixture) branch(t *testing.T, code string) *location.Branch {
	t.Helper()
	b, err := location.NewBranch(f.tenant.ID, "Branch "+code, code)
	require.NoError(t, err)
	b.ClearDomainEvents()
	f.branches.On("FindByID", mock.Anything, f.tenant.ID, b.ID).Return(b, nil).Maybe()
	return b
}

func TestBranchService_Create(t *testing.T) {
	t.Run("within the trial limit", func(t *testing.T) {
		f := newFixture(t, 14)
		f.branches.On("CountActive", mock.Anything, f.tenant.ID).Return(int64(2), nil)
		f.branches.On("ExistsByCode", mock.Anything, f.tenant.ID, "NORTH").Return(false, nil)
		f.branches.On("Save", mock.Anything, mock.AnythingOfType("*location.Branch")).Return(nil)

		resp, err := f.svc.Create(context.Background(), f.owner, CreateBranchRequest{Name: "North", Code: "north", Phone: " 555 "})
		require.NoError(t, err)
		assert.Equal(t, "NORTH", resp.Code)
		assert.Equal(t, "555", resp.Phone)
		assert.Equal(t, "location_"+resp.ID.String(), resp.LocationID)
		assert.Equal(t, []string{location.EventTypeBranchCreated}, f.events.Types())
	})

	t.Run("free plan allows one location", func(t *testing.T) {
		f := newFixture(t, 0)
		f.branches.On("CountActive", mock.Anything, f.tenant.ID).Return(int64(1), nil)

		_, err := f.svc.Create(context.Background(), f.owner, CreateBranchRequest{Name: "North", Code: "NORTH"})
		assert.ErrorIs(t, err, shared.ErrPlanLimitExceeded)
		f.branches.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("duplicate code", func(t *testing.T) {
		f := newFixture(t, 14)
		f.branches.On("CountActive", mock.Anything, f.tenant.ID).Return(int64(1), nil)
		f.branches.On("ExistsByCode", mock.Anything, f.tenant.ID, "MAIN").Return(true, nil)

		_, err := f.svc.Create(context.Background(), f.owner, CreateBranchRequest{Name: "Main 2", Code: "MAIN"})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})
}

func TestBranchService_Deactivate(t *testing.T) {
	ctx := context.Background()

	t.Run("refused with an open shift", func(t *testing.T) {
		f := newFixture(t, 14)
		b := f.branch(t, "NORTH")
		f.shifts.On("CountOpenAtLocation", mock.Anything, f.tenant.ID, b.LocationID()).Return(int64(1), nil)

		err := f.svc.Deactivate(ctx, f.owner, b.ID)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		assert.True(t, b.Active)
	})

	t.Run("refused for the last active branch", func(t *testing.T) {
		f := newFixture(t, 14)
		b := f.branch(t, "MAIN")
		f.shifts.On("CountOpenAtLocation", mock.Anything, f.tenant.ID, b.LocationID()).Return(int64(0), nil)
		f.branches.On("CountActive", mock.Anything, f.tenant.ID).Return(int64(1), nil)

		err := f.svc.Deactivate(ctx, f.owner, b.ID)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("deactivates", func(t *testing.T) {
		f := newFixture(t, 14)
		b := f.branch(t, "NORTH")
		f.shifts.On("CountOpenAtLocation", mock.Anything, f.tenant.ID, b.LocationID()).Return(int64(0), nil)
		f.branches.On("CountActive", mock.Anything, f.tenant.ID).Return(int64(2), nil)
		f.branches.On("Save", mock.Anything, b).Return(nil)

		require.NoError(t, f.svc.Deactivate(ctx, f.owner, b.ID))
		assert.False(t, b.Active)
		assert.Equal(t, []string{location.EventTypeBranchDeactivated}, f.events.Types())
	})

	t.Run("managers cannot deactivate", func(t *testing.T) {
		f := newFixture(t, 14)
		err := f.svc.Deactivate(ctx, identity.Actor{TenantID: f.tenant.ID, Role: identity.RoleManager}, uuid.New())
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})
}

func TestBranchService_List_FiltersStaffLocations(t *testing.T) {
	f := newFixture(t, 14)
	main := f.branch(t, "MAIN")
	north := f.branch(t, "NORTH")
	f.branches.On("FindAll", mock.Anything, f.tenant.ID, false).Return([]location.Branch{*main, *north}, nil)

	staff := identity.Actor{TenantID: f.tenant.ID, Role: identity.RoleStaff, LocationIDs: []shared.LocationID{north.LocationID()}}
	out, err := f.svc.List(context.Background(), staff, true)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "NORTH", out[0].Code)
}
