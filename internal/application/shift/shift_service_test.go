package shift

import (
	"context"
	"testing"

	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/domain/location"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/domain/shift"
	"github.com/coretrack/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	shifts   *testutil.MockShiftRepository
	branches *testutil.MockBranchRepository
	events   *testutil.RecordingPublisher
	svc      *ShiftService
	tenantID uuid.UUID
	branch   *location.Branch
	cashier  identity.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		shifts:   new(testutil.MockShiftRepository),
		branches: new(testutil.MockBranchRepository),
		events:   &testutil.RecordingPublisher{},
		tenantID: uuid.New(),
	}
	branch, err := location.NewBranch(f.tenantID, "Main", "MAIN")
	require.NoError(t, err)
	f.branch = branch
	f.cashier = identity.Actor{TenantID: f.tenantID, UserID: uuid.New(), Role: identity.RoleStaff,
		LocationIDs: []shared.LocationID{branch.LocationID()}}
	f.branches.On("FindByLocationID", mock.Anything, f.tenantID, branch.LocationID()).Return(branch, nil).Maybe()
	f.svc = NewShiftService(shared.NoOpTransactionScope{}, f.shifts, f.branches, f.events, zap.NewNop())
	return f
}

func TestShiftService_Open(t *testing.T) {
	ctx := context.Background()

	t.Run("opens", func(t *testing.T) {
		f := newFixture(t)
		f.shifts.On("FindOpen", mock.Anything, f.tenantID, f.branch.LocationID(), f.cashier.UserID).Return(nil, shared.ErrNotFound)
		f.shifts.On("Save", mock.Anything, mock.AnythingOfType("*shift.Shift")).Return(nil)

		resp, err := f.svc.Open(ctx, f.cashier, OpenShiftRequest{LocationID: f.branch.LocationID().String(), StartingCash: decimal.NewFromInt(100)})
		require.NoError(t, err)
		assert.Equal(t, "open", resp.Status)
		assert.Equal(t, "100", resp.ExpectedCash.String())
		assert.Equal(t, []string{shift.EventTypeShiftOpened}, f.events.Types())
	})

	t.Run("one open shift per location", func(t *testing.T) {
		f := newFixture(t)
		existing, err := shift.Open(f.tenantID, f.branch.LocationID(), f.cashier.UserID, decimal.Zero)
		require.NoError(t, err)
		f.shifts.On("FindOpen", mock.Anything, f.tenantID, f.branch.LocationID(), f.cashier.UserID).Return(existing, nil)

		_, err = f.svc.Open(ctx, f.cashier, OpenShiftRequest{LocationID: f.branch.LocationID().String()})
		assert.ErrorIs(t, err, ErrShiftAlreadyOpen)
	})

	t.Run("inactive branch", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.branch.Deactivate())
		_, err := f.svc.Open(ctx, f.cashier, OpenShiftRequest{LocationID: f.branch.LocationID().String()})
		assert.Equal(t, "BRANCH_INACTIVE", shared.ErrorCode(err))
	})
}

func TestShiftService_Close(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	open, err := shift.Open(f.tenantID, f.branch.LocationID(), f.cashier.UserID, decimal.NewFromInt(100))
	require.NoError(t, err)
	require.NoError(t, open.RecordSale(shift.BucketCash, decimal.NewFromInt(40)))
	require.NoError(t, open.RecordSale(shift.BucketCard, decimal.NewFromInt(25)))
	open.ClearDomainEvents()
	f.shifts.On("FindByID", mock.Anything, f.tenantID, open.ID).Return(open, nil)
	f.shifts.On("Save", mock.Anything, open).Return(nil)

	colleague := identity.Actor{TenantID: f.tenantID, UserID: uuid.New(), Role: identity.RoleStaff,
		LocationIDs: []shared.LocationID{f.branch.LocationID()}}
	_, err = f.svc.Close(ctx, colleague, open.ID, CloseShiftRequest{EndingCash: decimal.NewFromInt(140)})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	resp, err := f.svc.Close(ctx, f.cashier, open.ID, CloseShiftRequest{EndingCash: decimal.NewFromInt(135), Notes: "short"})
	require.NoError(t, err)
	assert.Equal(t, "closed", resp.Status)
	assert.Equal(t, "140", resp.ExpectedCash.String())
	assert.Equal(t, "-5", resp.Variance.String())
	assert.Equal(t, "65", resp.TotalSales.String())
	assert.Equal(t, []string{shift.EventTypeShiftClosed}, f.events.Types())
}

func TestShiftService_List_StaffSeeOwnShifts(t *testing.T) {
	f := newFixture(t)
	f.shifts.On("FindAll", mock.Anything, f.tenantID, mock.MatchedBy(func(filter shift.Filter) bool {
		return filter.UserID != nil && *filter.UserID == f.cashier.UserID
	})).Return([]shift.Shift{}, int64(0), nil)

	other := uuid.New()
	_, _, err := f.svc.List(context.Background(), f.cashier, ListFilter{UserID: &other})
	require.NoError(t, err)
	f.shifts.AssertExpectations(t)
}
