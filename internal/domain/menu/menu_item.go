package menu

import (
	"strings"

	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category groups menu items on the POS screen
type Category struct {
	shared.TenantAggregateRoot
	Name      string
	SortOrder int
}

// NewCategory creates a menu category
func NewCategory(tenantID uuid.UUID, name string, sortOrder int) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_CATEGORY_NAME", "Category name cannot be empty")
	}
	return &Category{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		SortOrder:           sortOrder,
	}, nil
}

// Rename changes name and position of the category
func (c *Category) Rename(name string, sortOrder int) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_CATEGORY_NAME", "Category name cannot be empty")
	}
	c.Name = name
	c.SortOrder = sortOrder
	c.IncrementVersion()
	return nil
}

// Ingredient links a menu item to the inventory it consumes per portion
type Ingredient struct {
	InventoryItemID uuid.UUID
	Quantity        decimal.Decimal
}

// MenuItem is a sellable product built from inventory ingredients
type MenuItem struct {
	shared.TenantAggregateRoot
	LocationID  shared.LocationID
	CategoryID  *uuid.UUID
	Name        string
	Description string
	Price       decimal.Decimal
	Ingredients []Ingredient
	Available   bool
	ImageKey    string
}

// NewMenuItem creates an available menu item without ingredients
func NewMenuItem(tenantID uuid.UUID, loc shared.LocationID, name string, price decimal.Decimal) (*MenuItem, error) {
	if _, err := shared.ParseLocationID(loc.String()); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_MENU_ITEM_NAME", "Menu item name cannot be empty")
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	return &MenuItem{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		LocationID:          loc,
		Name:                name,
		Price:               price.Round(2),
		Ingredients:         []Ingredient{},
		Available:           true,
	}, nil
}

// Update changes the descriptive fields and price
func (m *MenuItem) Update(name, description string, price decimal.Decimal, categoryID *uuid.UUID) error {
	if name = strings.TrimSpace(name); name != "" {
		m.Name = name
	}
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	m.Description = strings.TrimSpace(description)
	m.Price = price.Round(2)
	m.CategoryID = categoryID
	m.IncrementVersion()
	return nil
}

// SetIngredients replaces the recipe. Duplicate references are merged by
// summing their quantities; every quantity must be positive.
func (m *MenuItem) SetIngredients(ingredients []Ingredient) error {
	merged := make([]Ingredient, 0, len(ingredients))
	index := make(map[uuid.UUID]int, len(ingredients))
	for _, ing := range ingredients {
		if ing.InventoryItemID == uuid.Nil {
			return shared.NewDomainError("INVALID_INGREDIENT", "Ingredient must reference an inventory item")
		}
		if !ing.Quantity.IsPositive() {
			return shared.NewDomainError("INVALID_INGREDIENT", "Ingredient quantity must be positive")
		}
		if pos, ok := index[ing.InventoryItemID]; ok {
			merged[pos].Quantity = merged[pos].Quantity.Add(ing.Quantity)
			continue
		}
		index[ing.InventoryItemID] = len(merged)
		merged = append(merged, ing)
	}
	m.Ingredients = merged
	m.IncrementVersion()
	return nil
}

// RemoveIngredient drops a recipe line; reports whether anything was removed
func (m *MenuItem) RemoveIngredient(inventoryItemID uuid.UUID) bool {
	for i, ing := range m.Ingredients {
		if ing.InventoryItemID == inventoryItemID {
			m.Ingredients = append(m.Ingredients[:i], m.Ingredients[i+1:]...)
			m.IncrementVersion()
			return true
		}
	}
	return false
}

// IngredientIDs lists the referenced inventory items
func (m *MenuItem) IngredientIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(m.Ingredients))
	for i, ing := range m.Ingredients {
		ids[i] = ing.InventoryItemID
	}
	return ids
}

// SetAvailability toggles whether the item can be sold
func (m *MenuItem) SetAvailability(available bool) {
	if m.Available == available {
		return
	}
	m.Available = available
	m.IncrementVersion()
}

// SetImage stores the object key of the item picture
func (m *MenuItem) SetImage(key string) {
	m.ImageKey = key
	m.IncrementVersion()
}

// Costing is the food-cost breakdown of a menu item
type Costing struct {
	Price         decimal.Decimal
	FoodCost      decimal.Decimal
	Margin        decimal.Decimal
	MarginPercent decimal.Decimal
	Missing       []uuid.UUID
}

// CalculateCosting sums ingredient quantity times the current unit cost.
// unitCosts maps inventory item id to its weighted-average cost; ingredients
// missing from the map are reported in Missing and count as zero.
func (m *MenuItem) CalculateCosting(unitCosts map[uuid.UUID]decimal.Decimal) Costing {
	c := Costing{Price: m.Price, FoodCost: decimal.Zero, Missing: []uuid.UUID{}}
	for _, ing := range m.Ingredients {
		cost, ok := unitCosts[ing.InventoryItemID]
		if !ok {
			c.Missing = append(c.Missing, ing.InventoryItemID)
			continue
		}
		c.FoodCost = c.FoodCost.Add(ing.Quantity.Mul(cost))
	}
	c.FoodCost = c.FoodCost.Round(2)
	c.Margin = m.Price.Sub(c.FoodCost)
	c.MarginPercent = decimal.Zero
	if m.Price.IsPositive() {
		c.MarginPercent = c.Margin.Div(m.Price).Mul(decimal.NewFromInt(100)).Round(2)
	}
	return c
}
