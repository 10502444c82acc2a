package menu

import (
	"testing"

	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestMenuItem(t *testing.T, price string) *MenuItem {
	t.Helper()
	m, err := NewMenuItem(uuid.New(), shared.NewLocationID(uuid.New()), "Flat white", dec(price))
	require.NoError(t, err)
	return m
}

func TestNewMenuItem(t *testing.T) {
	m := newTestMenuItem(t, "4.505")
	assert.True(t, dec("4.51").Equal(m.Price))
	assert.True(t, m.Available)
	assert.Empty(t, m.Ingredients)

	_, err := NewMenuItem(uuid.New(), shared.NewLocationID(uuid.New()), "Latte", dec("-1"))
	assert.Equal(t, "INVALID_PRICE", shared.ErrorCode(err))

	_, err = NewMenuItem(uuid.New(), "", "Latte", dec("1"))
	assert.ErrorIs(t, err, shared.ErrInvalidLocationID)
}

func TestMenuItem_SetIngredientsMergesDuplicates(t *testing.T) {
	m := newTestMenuItem(t, "5")
	milk, beans := uuid.New(), uuid.New()

	err := m.SetIngredients([]Ingredient{
		{InventoryItemID: beans, Quantity: dec("0.018")},
		{InventoryItemID: milk, Quantity: dec("0.15")},
		{InventoryItemID: beans, Quantity: dec("0.002")},
	})
	require.NoError(t, err)
	require.Len(t, m.Ingredients, 2)
	assert.Equal(t, beans, m.Ingredients[0].InventoryItemID)
	assert.True(t, dec("0.02").Equal(m.Ingredients[0].Quantity))
	assert.ElementsMatch(t, []uuid.UUID{milk, beans}, m.IngredientIDs())

	err = m.SetIngredients([]Ingredient{{InventoryItemID: milk, Quantity: decimal.Zero}})
	assert.Equal(t, "INVALID_INGREDIENT", shared.ErrorCode(err))
	err = m.SetIngredients([]Ingredient{{InventoryItemID: uuid.Nil, Quantity: dec("1")}})
	assert.Equal(t, "INVALID_INGREDIENT", shared.ErrorCode(err))
}

func TestMenuItem_RemoveIngredient(t *testing.T) {
	m := newTestMenuItem(t, "5")
	milk := uuid.New()
	require.NoError(t, m.SetIngredients([]Ingredient{{InventoryItemID: milk, Quantity: dec("1")}}))

	assert.False(t, m.RemoveIngredient(uuid.New()))
	assert.True(t, m.RemoveIngredient(milk))
	assert.Empty(t, m.Ingredients)
}

func TestMenuItem_CalculateCosting(t *testing.T) {
	m := newTestMenuItem(t, "5.00")
	milk, beans, syrup := uuid.New(), uuid.New(), uuid.New()
	require.NoError(t, m.SetIngredients([]Ingredient{
		{InventoryItemID: beans, Quantity: dec("0.02")},
		{InventoryItemID: milk, Quantity: dec("0.2")},
		{InventoryItemID: syrup, Quantity: dec("1")},
	}))

	c := m.CalculateCosting(map[uuid.UUID]decimal.Decimal{
		beans: dec("30"),
		milk:  dec("1.5"),
	})

	assert.True(t, dec("0.9").Equal(c.FoodCost), c.FoodCost.String())
	assert.True(t, dec("4.1").Equal(c.Margin))
	assert.True(t, dec("82").Equal(c.MarginPercent))
	assert.Equal(t, []uuid.UUID{syrup}, c.Missing)
}

func TestMenuItem_CostingFreeItem(t *testing.T) {
	m := newTestMenuItem(t, "0")
	c := m.CalculateCosting(nil)
	assert.True(t, c.MarginPercent.IsZero())
	assert.True(t, c.FoodCost.IsZero())
}

func TestMenuItem_SetAvailability(t *testing.T) {
	m := newTestMenuItem(t, "5")
	m.SetAvailability(true)
	assert.Equal(t, 1, m.Version)
	m.SetAvailability(false)
	assert.False(t, m.Available)
	assert.Equal(t, 2, m.Version)
}
