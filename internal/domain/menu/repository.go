package menu

import (
	"context"

	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ListFilter narrows menu listings
type ListFilter struct {
	shared.Filter
	LocationID    shared.LocationID
	CategoryID    *uuid.UUID
	AvailableOnly bool
}

// ItemRepository persists menu items and their recipes
type ItemRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*MenuItem, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]MenuItem, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]MenuItem, int64, error)
	FindUsingIngredient(ctx context.Context, tenantID, inventoryItemID uuid.UUID) ([]MenuItem, error)
	Save(ctx context.Context, item *MenuItem) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// CategoryRepository persists menu categories
type CategoryRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Category, error)
	FindAll(ctx context.Context, tenantID uuid.UUID) ([]Category, error)
	Save(ctx context.Context, category *Category) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
