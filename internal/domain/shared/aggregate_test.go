package shared

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestBaseAggregateRoot_PersistedVersion(t *testing.T) {
	agg := NewTenantAggregateRoot(uuid.New())
	assert.True(t, agg.IsNew())
	assert.Equal(t, 1, agg.GetVersion())

	agg.MarkPersisted()
	assert.False(t, agg.IsNew())

	agg.IncrementVersion()
	agg.IncrementVersion()
	assert.Equal(t, 3, agg.GetVersion())
	assert.Equal(t, 1, agg.PersistedVersion())
}

func TestTenantAggregateRoot_SetCreatedBy(t *testing.T) {
	tenantID := uuid.New()
	agg := NewTenantAggregateRoot(tenantID)

	agg.SetCreatedBy(uuid.Nil)
	assert.Nil(t, agg.CreatedBy)

	userID := uuid.New()
	agg.SetCreatedBy(userID)
	assert.Equal(t, userID, *agg.CreatedBy)
	assert.True(t, agg.BelongsTo(tenantID))
	assert.False(t, agg.BelongsTo(uuid.New()))
}
