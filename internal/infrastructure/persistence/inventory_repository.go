package persistence

import (
	"context"

	"github.com/coretrack/backend/internal/domain/inventory"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormInventoryItemRepository implements inventory.ItemRepository using GORM
type GormInventoryItemRepository struct {
	db *gorm.DB
}

// NewGormInventoryItemRepository creates a new GormInventoryItemRepository
func NewGormInventoryItemRepository(db *gorm.DB) *GormInventoryItemRepository {
	return &GormInventoryItemRepository{db: db}
}

var _ inventory.ItemRepository = (*GormInventoryItemRepository)(nil)

// FindByID finds an inventory item by ID within a tenant
func (r *GormInventoryItemRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*inventory.InventoryItem, error) {
	var model models.InventoryItemModel
	if err := first(dbFrom(ctx, r.db).Where("tenant_id = ? AND id = ?", tenantID, id), &model); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs loads the given items of a tenant. Missing ids are skipped.
func (r *GormInventoryItemRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]inventory.InventoryItem, error) {
	if len(ids) == 0 {
		return []inventory.InventoryItem{}, nil
	}
	var rows []models.InventoryItemModel
	if err := dbFrom(ctx, r.db).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	items := make([]inventory.InventoryItem, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items, nil
}

// FindByName finds an item by exact name, ignoring case, at a location
func (r *GormInventoryItemRepository) FindByName(ctx context.Context, tenantID uuid.UUID, loc shared.LocationID, name string) (*inventory.InventoryItem, error) {
	var model models.InventoryItemModel
	if err := first(dbFrom(ctx, r.db).
		Where("tenant_id = ? AND location_id = ? AND LOWER(name) = LOWER(?)", tenantID, loc.String(), name).
		Order("created_at ASC"), &model); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists the items of a tenant
func (r *GormInventoryItemRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter inventory.ListFilter) ([]inventory.InventoryItem, int64, error) {
	where := func(q *gorm.DB) *gorm.DB {
		q = q.Where("tenant_id = ?", tenantID)
		if !filter.LocationID.IsZero() {
			q = q.Where("location_id = ?", filter.LocationID.String())
		}
		if filter.Category != "" {
			q = q.Where("category = ?", filter.Category)
		}
		if filter.LowStockOnly {
			q = q.Where("min_stock > 0 AND quantity <= min_stock")
		}
		if filter.Search != "" {
			p := likePattern(filter.Search)
			q = q.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", p, p)
		}
		return q
	}

	var rows []models.InventoryItemModel
	total, err := findPage(dbFrom(ctx, r.db), &models.InventoryItemModel{}, where, filter.Filter, InventorySortFields, "name", &rows)
	if err != nil {
		return nil, 0, err
	}
	items := make([]inventory.InventoryItem, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items, total, nil
}

// Save inserts a new item or updates an existing one guarded by version
func (r *GormInventoryItemRepository) Save(ctx context.Context, item *inventory.InventoryItem) error {
	return saveVersioned(dbFrom(ctx, r.db), item, func() any {
		return models.InventoryItemModelFromDomain(item)
	}, tenantScope(item.TenantID))
}

// Delete removes an item. Its movements are kept as history.
func (r *GormInventoryItemRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := dbFrom(ctx, r.db).Delete(&models.InventoryItemModel{}, "tenant_id = ? AND id = ?", tenantID, id)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GormStockMovementRepository implements inventory.MovementRepository using GORM
type GormStockMovementRepository struct {
	db *gorm.DB
}

// NewGormStockMovementRepository creates a new GormStockMovementRepository
func NewGormStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{db: db}
}

var _ inventory.MovementRepository = (*GormStockMovementRepository)(nil)

// Save appends a movement to the ledger
func (r *GormStockMovementRepository) Save(ctx context.Context, movement *inventory.StockMovement) error {
	return translateError(dbFrom(ctx, r.db).Create(models.StockMovementModelFromDomain(movement)).Error)
}

// FindByItem lists the movements of one item, newest first by default
func (r *GormStockMovementRepository) FindByItem(ctx context.Context, tenantID, itemID uuid.UUID, filter shared.Filter) ([]inventory.StockMovement, int64, error) {
	where := func(q *gorm.DB) *gorm.DB {
		q = q.Where("tenant_id = ? AND item_id = ?", tenantID, itemID)
		if typ, ok := filter.Filters["type"]; ok {
			q = q.Where("type = ?", typ)
		}
		return q
	}

	var rows []models.StockMovementModel
	total, err := findPage(dbFrom(ctx, r.db), &models.StockMovementModel{}, where, filter, StockMovementSortFields, "created_at", &rows)
	if err != nil {
		return nil, 0, err
	}
	movements := make([]inventory.StockMovement, len(rows))
	for i := range rows {
		movements[i] = *rows[i].ToDomain()
	}
	return movements, total, nil
}
