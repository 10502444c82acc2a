package menu

import (
	"time"

	"github.com/coretrack/backend/internal/domain/menu"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CategoryRequest creates or renames a category
type CategoryRequest struct {
	Name      string `json:"name" binding:"required,max=100"`
	SortOrder int    `json:"sort_order"`
}

// CategoryResponse is a category as returned by the API
type CategoryResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	SortOrder int       `json:"sort_order"`
}

// ToCategoryResponse maps a category
func ToCategoryResponse(c *menu.Category) CategoryResponse {
	return CategoryResponse{ID: c.ID, Name: c.Name, SortOrder: c.SortOrder}
}

// IngredientRequest is one recipe line
type IngredientRequest struct {
	InventoryItemID uuid.UUID       `json:"inventory_item_id" binding:"required"`
	Quantity        decimal.Decimal `json:"quantity" binding:"required"`
}

// CreateItemRequest adds a menu item at a location
type CreateItemRequest struct {
	LocationID  string              `json:"location_id" binding:"required,location_id"`
	CategoryID  *uuid.UUID          `json:"category_id"`
	Name        string              `json:"name" binding:"required,max=200"`
	Description string              `json:"description" binding:"max=1000"`
	Price       decimal.Decimal     `json:"price"`
	Ingredients []IngredientRequest `json:"ingredients" binding:"dive"`
}

// UpdateItemRequest replaces the editable fields and the recipe
type UpdateItemRequest struct {
	CategoryID  *uuid.UUID          `json:"category_id"`
	Name        string              `json:"name" binding:"max=200"`
	Description string              `json:"description" binding:"max=1000"`
	Price       decimal.Decimal     `json:"price"`
	Ingredients []IngredientRequest `json:"ingredients" binding:"dive"`
}

// AvailabilityRequest toggles an item on the POS
type AvailabilityRequest struct {
	Available bool `json:"available"`
}

// ItemListFilter is bound from list query parameters
type ItemListFilter struct {
	LocationID    string     `form:"location_id" binding:"omitempty,location_id"`
	CategoryID    *uuid.UUID `form:"category_id"`
	AvailableOnly bool       `form:"available"`
	Search        string     `form:"search"`
	Page          int        `form:"page" binding:"omitempty,min=1"`
	PageSize      int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// IngredientResponse is one recipe line
type IngredientResponse struct {
	InventoryItemID uuid.UUID       `json:"inventory_item_id"`
	Quantity        decimal.Decimal `json:"quantity"`
}

// ItemResponse is a menu item as returned by the API
type ItemResponse struct {
	ID          uuid.UUID            `json:"id"`
	LocationID  string               `json:"location_id"`
	CategoryID  *uuid.UUID           `json:"category_id,omitempty"`
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	Price       decimal.Decimal      `json:"price"`
	Ingredients []IngredientResponse `json:"ingredients"`
	Available   bool                 `json:"available"`
	ImageURL    string               `json:"image_url,omitempty"`
	Version     int                  `json:"version"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// ToItemResponse maps a menu item. The image URL is filled in by the service.
func ToItemResponse(m *menu.MenuItem) ItemResponse {
	ingredients := make([]IngredientResponse, len(m.Ingredients))
	for i, ing := range m.Ingredients {
		ingredients[i] = IngredientResponse{InventoryItemID: ing.InventoryItemID, Quantity: ing.Quantity}
	}
	return ItemResponse{
		ID:          m.ID,
		LocationID:  m.LocationID.String(),
		CategoryID:  m.CategoryID,
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price,
		Ingredients: ingredients,
		Available:   m.Available,
		Version:     m.Version,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// CostingLine is the cost contribution of one ingredient
type CostingLine struct {
	InventoryItemID uuid.UUID       `json:"inventory_item_id"`
	Name            string          `json:"name"`
	Unit            string          `json:"unit"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	Cost            decimal.Decimal `json:"cost"`
}

// CostingResponse is the food-cost breakdown of a menu item
type CostingResponse struct {
	MenuItemID    uuid.UUID       `json:"menu_item_id"`
	Price         decimal.Decimal `json:"price"`
	FoodCost      decimal.Decimal `json:"food_cost"`
	Margin        decimal.Decimal `json:"margin"`
	MarginPercent decimal.Decimal `json:"margin_percent"`
	Lines         []CostingLine   `json:"lines"`
	Missing       []uuid.UUID     `json:"missing,omitempty"`
}

// ImageUpload is a picture streamed through the API
type ImageUpload struct {
	FileName    string
	ContentType string
	Size        int64
}

// UploadURLResponse lets the client put the image directly into storage
type UploadURLResponse struct {
	Key       string    `json:"key"`
	UploadURL string    `json:"upload_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ConfirmImageRequest attaches an image uploaded through a presigned URL
type ConfirmImageRequest struct {
	Key string `json:"key" binding:"required"`
}
