package integrity

import (
	"strings"
	"testing"

	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot() (Snapshot, uuid.UUID) {
	branch := uuid.New()
	return Snapshot{
		TenantID:        uuid.New(),
		Branches:        []BranchRef{{ID: branch, Active: true}},
		DefaultBranchID: &branch,
		MissingItems:    map[uuid.UUID]bool{},
	}, branch
}

func TestInspect_CleanSnapshot(t *testing.T) {
	snap, branch := snapshot()
	snap.Items = []ItemRef{{ID: uuid.New(), Name: "Rice", LocationID: shared.NewLocationID(branch).String(), Quantity: decimal.NewFromInt(3)}}
	assert.Empty(t, Inspect(snap))
}

func TestInspect_LocationProblems(t *testing.T) {
	snap, branch := snapshot()
	foreign := uuid.New()
	snap.Items = []ItemRef{
		{ID: uuid.New(), Name: "No location", Quantity: decimal.Zero},
		{ID: uuid.New(), Name: "Bare id", LocationID: branch.String(), Quantity: decimal.Zero},
		{ID: uuid.New(), Name: "Garbage", LocationID: "main-store", Quantity: decimal.Zero},
		{ID: uuid.New(), Name: "Foreign", LocationID: shared.NewLocationID(foreign).String(), Quantity: decimal.NewFromInt(-2)},
	}

	findings := Inspect(snap)
	require.Len(t, findings, 5)

	assert.Equal(t, CheckInventoryMissingLocation, findings[0].Check)
	assert.True(t, findings[0].Fixable)
	assert.Equal(t, snap.TenantID, findings[0].TenantID)

	assert.Equal(t, CheckInvalidLocationFormat, findings[1].Check)
	assert.True(t, findings[1].Fixable)
	assert.Equal(t, CheckInvalidLocationFormat, findings[2].Check)
	assert.False(t, findings[2].Fixable)

	assert.Equal(t, CheckUnknownBranch, findings[3].Check)
	require.NotNil(t, findings[3].RelatedID)
	assert.Equal(t, foreign, *findings[3].RelatedID)
	assert.False(t, findings[3].Fixable)

	assert.Equal(t, CheckNegativeStock, findings[4].Check)
	assert.Equal(t, "-2", findings[4].Value)
}

func TestInspect_NonCanonicalLocation(t *testing.T) {
	snap, branch := snapshot()
	upper := "location_" + strings.ToUpper(branch.String())
	snap.Items = []ItemRef{{ID: uuid.New(), Name: "Oat milk", LocationID: upper, Quantity: decimal.NewFromInt(4)}}

	findings := Inspect(snap)
	require.Len(t, findings, 1)
	assert.Equal(t, CheckInvalidLocationFormat, findings[0].Check)
	assert.Equal(t, upper, findings[0].Value)
	assert.True(t, findings[0].Fixable)
}

func TestInspect_MissingLocationWithoutDefaultBranch(t *testing.T) {
	snap, _ := snapshot()
	snap.DefaultBranchID = nil
	snap.Items = []ItemRef{{ID: uuid.New(), Name: "x", Quantity: decimal.Zero}}
	findings := Inspect(snap)
	require.Len(t, findings, 1)
	assert.False(t, findings[0].Fixable)
}

func TestInspect_Orphans(t *testing.T) {
	snap, _ := snapshot()
	gone := uuid.New()
	snap.MissingItems[gone] = true
	snap.Ingredients = []IngredientRef{
		{MenuItemID: uuid.New(), MenuItemName: "Latte", InventoryItemID: gone},
		{MenuItemID: uuid.New(), MenuItemName: "Tea", InventoryItemID: uuid.New()},
	}
	snap.POLines = []POLineRef{{OrderID: uuid.New(), OrderNumber: "PO-20260101-0001", LineID: uuid.New(), InventoryItemID: gone}}
	snap.ShiftlessSales = []SaleRef{{ID: uuid.New(), Number: "S-1", ShiftID: uuid.New()}}

	findings := Inspect(snap)
	summary := Summary(findings)
	assert.Equal(t, 1, summary[CheckOrphanedMenuIngredient])
	assert.Equal(t, 1, summary[CheckOrphanedPOItem])
	assert.Equal(t, 1, summary[CheckSaleWithoutShift])

	only := Inspect(snap, CheckSaleWithoutShift)
	require.Len(t, only, 1)
	assert.False(t, only[0].Fixable)
}

func TestParseCheck(t *testing.T) {
	c, err := ParseCheck("negative_stock")
	require.NoError(t, err)
	assert.Equal(t, CheckNegativeStock, c)

	_, err = ParseCheck("nope")
	assert.Error(t, err)
}
