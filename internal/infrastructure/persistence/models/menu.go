package models

import (
	"github.com/coretrack/backend/internal/domain/menu"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MenuCategoryModel is the persistence model for menu categories.
type MenuCategoryModel struct {
	TenantAggregateModel
	Name      string `gorm:"type:varchar(100);not null"`
	SortOrder int    `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (MenuCategoryModel) TableName() string {
	return "menu_categories"
}

// ToDomain converts the persistence model to a domain Category.
func (m *MenuCategoryModel) ToDomain() *menu.Category {
	return &menu.Category{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Name:                m.Name,
		SortOrder:           m.SortOrder,
	}
}

// MenuCategoryModelFromDomain creates a persistence model from a domain Category.
func MenuCategoryModelFromDomain(c *menu.Category) *MenuCategoryModel {
	m := &MenuCategoryModel{
		Name:      c.Name,
		SortOrder: c.SortOrder,
	}
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	return m
}

// MenuItemModel is the persistence model for the MenuItem aggregate root.
type MenuItemModel struct {
	TenantAggregateModel
	LocationID  string          `gorm:"type:varchar(64);index"`
	CategoryID  *uuid.UUID      `gorm:"type:uuid;index"`
	Name        string          `gorm:"type:varchar(200);not null"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Available   bool            `gorm:"not null"`
	ImageKey    string          `gorm:"type:varchar(500)"`
	// Associations
	Ingredients []MenuIngredientModel `gorm:"foreignKey:MenuItemID;references:ID"`
}

// TableName returns the table name for GORM
func (MenuItemModel) TableName() string {
	return "menu_items"
}

// ToDomain converts the persistence model to a domain MenuItem.
func (m *MenuItemModel) ToDomain() *menu.MenuItem {
	item := &menu.MenuItem{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		LocationID:          shared.LocationID(m.LocationID),
		CategoryID:          m.CategoryID,
		Name:                m.Name,
		Description:         m.Description,
		Price:               m.Price,
		Ingredients:         make([]menu.Ingredient, len(m.Ingredients)),
		Available:           m.Available,
		ImageKey:            m.ImageKey,
	}
	for i, ing := range m.Ingredients {
		item.Ingredients[i] = menu.Ingredient{
			InventoryItemID: ing.InventoryItemID,
			Quantity:        ing.Quantity,
		}
	}
	return item
}

// MenuItemModelFromDomain creates a persistence model from a domain MenuItem.
func MenuItemModelFromDomain(i *menu.MenuItem) *MenuItemModel {
	m := &MenuItemModel{
		LocationID:  i.LocationID.String(),
		CategoryID:  i.CategoryID,
		Name:        i.Name,
		Description: i.Description,
		Price:       i.Price,
		Available:   i.Available,
		ImageKey:    i.ImageKey,
		Ingredients: make([]MenuIngredientModel, len(i.Ingredients)),
	}
	m.FromDomainTenantAggregateRoot(i.TenantAggregateRoot)
	for idx, ing := range i.Ingredients {
		m.Ingredients[idx] = MenuIngredientModel{
			TenantID:        i.TenantID,
			MenuItemID:      i.ID,
			InventoryItemID: ing.InventoryItemID,
			Quantity:        ing.Quantity,
			Position:        idx,
		}
	}
	return m
}

// MenuIngredientModel is one recipe line of a menu item.
type MenuIngredientModel struct {
	TenantID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	MenuItemID      uuid.UUID       `gorm:"type:uuid;primaryKey"`
	InventoryItemID uuid.UUID       `gorm:"type:uuid;primaryKey;index"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Position        int             `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (MenuIngredientModel) TableName() string {
	return "menu_ingredients"
}
