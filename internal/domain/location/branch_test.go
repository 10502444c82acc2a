package location

import (
	"testing"

	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBranch(t *testing.T) {
	tenantID := uuid.New()
	b, err := NewBranch(tenantID, "Main Street", " main-01 ")
	require.NoError(t, err)

	assert.Equal(t, "MAIN-01", b.Code)
	assert.True(t, b.Active)
	assert.Equal(t, shared.NewLocationID(b.ID), b.LocationID())
	require.Len(t, b.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeBranchCreated, b.GetDomainEvents()[0].EventType())
}

func TestNewBranch_Validation(t *testing.T) {
	_, err := NewBranch(uuid.New(), "", "A1")
	assert.Equal(t, "INVALID_BRANCH_NAME", shared.ErrorCode(err))

	_, err = NewBranch(uuid.New(), "Mall", "has space")
	assert.Equal(t, "INVALID_BRANCH_CODE", shared.ErrorCode(err))

	_, err = NewBranch(uuid.New(), "Mall", "")
	assert.Equal(t, "INVALID_BRANCH_CODE", shared.ErrorCode(err))
}

func TestBranch_DeactivateReactivate(t *testing.T) {
	b, _ := NewBranch(uuid.New(), "Mall", "MALL")

	require.NoError(t, b.EnsureOperational())
	require.NoError(t, b.Deactivate())
	assert.Equal(t, "BRANCH_INACTIVE", shared.ErrorCode(b.EnsureOperational()))
	assert.Error(t, b.Deactivate())

	require.NoError(t, b.Reactivate())
	assert.True(t, b.Active)
	assert.Error(t, b.Reactivate())
}
