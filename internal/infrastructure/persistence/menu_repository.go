package persistence

import (
	"context"

	"github.com/coretrack/backend/internal/domain/menu"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormMenuItemRepository implements menu.ItemRepository using GORM.
// Recipes live in menu_ingredients and are rewritten on every save.
type GormMenuItemRepository struct {
	db *gorm.DB
}

// NewGormMenuItemRepository creates a new GormMenuItemRepository
func NewGormMenuItemRepository(db *gorm.DB) *GormMenuItemRepository {
	return &GormMenuItemRepository{db: db}
}

var _ menu.ItemRepository = (*GormMenuItemRepository)(nil)

func (r *GormMenuItemRepository) query(ctx context.Context) *gorm.DB {
	return dbFrom(ctx, r.db).Scopes(preloadIngredients)
}

func preloadIngredients(db *gorm.DB) *gorm.DB {
	return db.Preload("Ingredients", orderedBy("position"))
}

// FindByID finds a menu item with its recipe
func (r *GormMenuItemRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*menu.MenuItem, error) {
	var model models.MenuItemModel
	if err := first(r.query(ctx).Where("tenant_id = ? AND id = ?", tenantID, id), &model); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs loads the given menu items of a tenant. Missing ids are skipped.
func (r *GormMenuItemRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]menu.MenuItem, error) {
	if len(ids) == 0 {
		return []menu.MenuItem{}, nil
	}
	var rows []models.MenuItemModel
	if err := r.query(ctx).Where("tenant_id = ? AND id IN ?", tenantID, ids).Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return menuItemsToDomain(rows), nil
}

// FindAll lists menu items with their recipes
func (r *GormMenuItemRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter menu.ListFilter) ([]menu.MenuItem, int64, error) {
	where := func(q *gorm.DB) *gorm.DB {
		q = q.Where("tenant_id = ?", tenantID)
		if !filter.LocationID.IsZero() {
			q = q.Where("location_id = ?", filter.LocationID.String())
		}
		if filter.CategoryID != nil {
			q = q.Where("category_id = ?", *filter.CategoryID)
		}
		if filter.AvailableOnly {
			q = q.Where("available = ?", true)
		}
		if filter.Search != "" {
			q = q.Where("LOWER(name) LIKE ?", likePattern(filter.Search))
		}
		return q
	}

	var rows []models.MenuItemModel
	total, err := findPage(dbFrom(ctx, r.db), &models.MenuItemModel{}, where, filter.Filter, MenuItemSortFields, "name", &rows, preloadIngredients)
	if err != nil {
		return nil, 0, err
	}
	return menuItemsToDomain(rows), total, nil
}

// FindUsingIngredient returns the menu items whose recipe references an inventory item
func (r *GormMenuItemRepository) FindUsingIngredient(ctx context.Context, tenantID, inventoryItemID uuid.UUID) ([]menu.MenuItem, error) {
	sub := dbFrom(ctx, r.db).
		Model(&models.MenuIngredientModel{}).
		Select("menu_item_id").
		Where("tenant_id = ? AND inventory_item_id = ?", tenantID, inventoryItemID)

	var rows []models.MenuItemModel
	if err := r.query(ctx).
		Where("tenant_id = ? AND id IN (?)", tenantID, sub).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return menuItemsToDomain(rows), nil
}

// Save creates or updates a menu item and rewrites its recipe
func (r *GormMenuItemRepository) Save(ctx context.Context, item *menu.MenuItem) error {
	model := models.MenuItemModelFromDomain(item)
	return saveWithChildren(dbFrom(ctx, r.db), item,
		func() any { return models.MenuItemModelFromDomain(item) },
		func(tx *gorm.DB) error {
			return replaceRows(tx, &models.MenuIngredientModel{}, "menu_item_id", item.ID, &model.Ingredients, len(model.Ingredients))
		},
		tenantScope(item.TenantID),
	)
}

// Delete removes a menu item and its recipe
func (r *GormMenuItemRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return dbFrom(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.MenuIngredientModel{}, "tenant_id = ? AND menu_item_id = ?", tenantID, id).Error; err != nil {
			return translateError(err)
		}
		result := tx.Delete(&models.MenuItemModel{}, "tenant_id = ? AND id = ?", tenantID, id)
		if result.Error != nil {
			return translateError(result.Error)
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func menuItemsToDomain(rows []models.MenuItemModel) []menu.MenuItem {
	items := make([]menu.MenuItem, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items
}

// GormMenuCategoryRepository implements menu.CategoryRepository using GORM
type GormMenuCategoryRepository struct {
	db *gorm.DB
}

// NewGormMenuCategoryRepository creates a new GormMenuCategoryRepository
func NewGormMenuCategoryRepository(db *gorm.DB) *GormMenuCategoryRepository {
	return &GormMenuCategoryRepository{db: db}
}

var _ menu.CategoryRepository = (*GormMenuCategoryRepository)(nil)

// FindByID finds a category by ID within a tenant
func (r *GormMenuCategoryRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*menu.Category, error) {
	var model models.MenuCategoryModel
	if err := first(dbFrom(ctx, r.db).Where("tenant_id = ? AND id = ?", tenantID, id), &model); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists the categories of a tenant in display order
func (r *GormMenuCategoryRepository) FindAll(ctx context.Context, tenantID uuid.UUID) ([]menu.Category, error) {
	var rows []models.MenuCategoryModel
	if err := dbFrom(ctx, r.db).
		Where("tenant_id = ?", tenantID).
		Order("sort_order ASC, name ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	categories := make([]menu.Category, len(rows))
	for i := range rows {
		categories[i] = *rows[i].ToDomain()
	}
	return categories, nil
}

// Save creates or updates a category
func (r *GormMenuCategoryRepository) Save(ctx context.Context, category *menu.Category) error {
	return saveVersioned(dbFrom(ctx, r.db), category, func() any {
		return models.MenuCategoryModelFromDomain(category)
	}, tenantScope(category.TenantID))
}

// Delete removes a category; items in it become uncategorised
func (r *GormMenuCategoryRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return dbFrom(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.MenuItemModel{}).
			Where("tenant_id = ? AND category_id = ?", tenantID, id).
			Update("category_id", nil).Error; err != nil {
			return translateError(err)
		}
		result := tx.Delete(&models.MenuCategoryModel{}, "tenant_id = ? AND id = ?", tenantID, id)
		if result.Error != nil {
			return translateError(result.Error)
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}
