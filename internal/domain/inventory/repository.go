package inventory

import (
	"context"

	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ListFilter narrows inventory listings
type ListFilter struct {
	shared.Filter
	LocationID   shared.LocationID
	Category     string
	LowStockOnly bool
}

// ItemRepository persists inventory items
type ItemRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*InventoryItem, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]InventoryItem, error)
	FindByName(ctx context.Context, tenantID uuid.UUID, loc shared.LocationID, name string) (*InventoryItem, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]InventoryItem, int64, error)
	// Save inserts new items and updates existing ones guarded by version;
	// a stale version yields shared.ErrConcurrencyConflict.
	Save(ctx context.Context, item *InventoryItem) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// MovementRepository persists the stock ledger
type MovementRepository interface {
	Save(ctx context.Context, movement *StockMovement) error
	FindByItem(ctx context.Context, tenantID, itemID uuid.UUID, filter shared.Filter) ([]StockMovement, int64, error)
}
