package persistence

import (
	"context"

	"github.com/coretrack/backend/internal/domain/integrity"
	"github.com/coretrack/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormIntegrityStore implements integrity.Store with read-only projections
type GormIntegrityStore struct {
	db *gorm.DB
}

// NewGormIntegrityStore creates a new GormIntegrityStore
func NewGormIntegrityStore(db *gorm.DB) *GormIntegrityStore {
	return &GormIntegrityStore{db: db}
}

var _ integrity.Store = (*GormIntegrityStore)(nil)

// TenantIDs lists every tenant in creation order
func (s *GormIntegrityStore) TenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := dbFrom(ctx, s.db).
		Model(&models.TenantModel{}).
		Order("created_at ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, translateError(err)
	}
	return ids, nil
}

// Snapshot loads what the integrity checks need for one tenant
func (s *GormIntegrityStore) Snapshot(ctx context.Context, tenantID uuid.UUID) (*integrity.Snapshot, error) {
	db := dbFrom(ctx, s.db)
	snap := &integrity.Snapshot{TenantID: tenantID, MissingItems: make(map[uuid.UUID]bool)}

	var branches []models.BranchModel
	if err := db.Select("id", "active", "created_at").
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC").
		Find(&branches).Error; err != nil {
		return nil, translateError(err)
	}
	for _, b := range branches {
		snap.Branches = append(snap.Branches, integrity.BranchRef{ID: b.ID, Active: b.Active})
		if b.Active && snap.DefaultBranchID == nil {
			id := b.ID
			snap.DefaultBranchID = &id
		}
	}

	if err := db.Model(&models.InventoryItemModel{}).
		Select("id", "name", "location_id", "quantity").
		Where("tenant_id = ?", tenantID).
		Order("name ASC").
		Scan(&snap.Items).Error; err != nil {
		return nil, translateError(err)
	}

	if err := db.Table("menu_ingredients AS mi").
		Select("mi.menu_item_id AS menu_item_id, m.name AS menu_item_name, mi.inventory_item_id AS inventory_item_id").
		Joins("JOIN menu_items m ON m.id = mi.menu_item_id").
		Where("mi.tenant_id = ?", tenantID).
		Order("m.name ASC, mi.position ASC").
		Scan(&snap.Ingredients).Error; err != nil {
		return nil, translateError(err)
	}

	if err := db.Table("purchase_order_items AS pi").
		Select("pi.order_id AS order_id, po.number AS order_number, pi.id AS line_id, pi.inventory_item_id AS inventory_item_id").
		Joins("JOIN purchase_orders po ON po.id = pi.order_id").
		Where("pi.tenant_id = ? AND pi.inventory_item_id IS NOT NULL", tenantID).
		Order("po.number ASC, pi.position ASC").
		Scan(&snap.POLines).Error; err != nil {
		return nil, translateError(err)
	}

	if err := db.Table("sale_orders AS so").
		Select("so.id AS id, so.number AS number, so.shift_id AS shift_id").
		Joins("LEFT JOIN shifts sh ON sh.id = so.shift_id AND sh.tenant_id = so.tenant_id").
		Where("so.tenant_id = ? AND so.shift_id IS NOT NULL AND sh.id IS NULL", tenantID).
		Order("so.number ASC").
		Scan(&snap.ShiftlessSales).Error; err != nil {
		return nil, translateError(err)
	}

	referenced := make(map[uuid.UUID]bool)
	for _, ing := range snap.Ingredients {
		referenced[ing.InventoryItemID] = true
	}
	for _, line := range snap.POLines {
		referenced[line.InventoryItemID] = true
	}
	existing := make(map[uuid.UUID]bool, len(snap.Items))
	for _, item := range snap.Items {
		existing[item.ID] = true
	}
	for id := range referenced {
		if !existing[id] {
			snap.MissingItems[id] = true
		}
	}
	return snap, nil
}
