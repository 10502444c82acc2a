package persistence

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/coretrack/backend/internal/domain/purchasing"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPurchaseOrderRepository implements purchasing.OrderRepository using GORM.
// Order lines live in purchase_order_items and are rewritten on every save.
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

var _ purchasing.OrderRepository = (*GormPurchaseOrderRepository)(nil)

func preloadOrderItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", orderedBy("position"))
}

// FindByID finds a purchase order with its lines
func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*purchasing.PurchaseOrder, error) {
	var model models.PurchaseOrderModel
	if err := first(dbFrom(ctx, r.db).Scopes(preloadOrderItems).Where("tenant_id = ? AND id = ?", tenantID, id), &model); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists purchase orders with their lines
func (r *GormPurchaseOrderRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter purchasing.OrderFilter) ([]purchasing.PurchaseOrder, int64, error) {
	where := func(q *gorm.DB) *gorm.DB {
		q = q.Where("tenant_id = ?", tenantID)
		if !filter.LocationID.IsZero() {
			q = q.Where("location_id = ?", filter.LocationID.String())
		}
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		if filter.SupplierID != nil {
			q = q.Where("supplier_id = ?", *filter.SupplierID)
		}
		if filter.Search != "" {
			p := likePattern(filter.Search)
			q = q.Where("LOWER(number) LIKE ? OR LOWER(supplier_name) LIKE ?", p, p)
		}
		return q
	}

	var rows []models.PurchaseOrderModel
	total, err := findPage(dbFrom(ctx, r.db), &models.PurchaseOrderModel{}, where, filter.Filter, PurchaseOrderSortFields, "created_at", &rows, preloadOrderItems)
	if err != nil {
		return nil, 0, err
	}
	return purchaseOrdersToDomain(rows), total, nil
}

// FindReferencingItem returns the orders with a line linked to an inventory item
func (r *GormPurchaseOrderRepository) FindReferencingItem(ctx context.Context, tenantID, inventoryItemID uuid.UUID) ([]purchasing.PurchaseOrder, error) {
	sub := dbFrom(ctx, r.db).
		Model(&models.PurchaseOrderItemModel{}).
		Select("order_id").
		Where("tenant_id = ? AND inventory_item_id = ?", tenantID, inventoryItemID)

	var rows []models.PurchaseOrderModel
	if err := dbFrom(ctx, r.db).
		Scopes(preloadOrderItems).
		Where("tenant_id = ? AND id IN (?)", tenantID, sub).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return purchaseOrdersToDomain(rows), nil
}

// NextNumber returns the next PO-YYYYMMDD-NNNN number of the tenant for the day.
// Numbers are unique per tenant; two writers racing for the same number make
// the second insert fail and its unit of work retry.
func (r *GormPurchaseOrderRepository) NextNumber(ctx context.Context, tenantID uuid.UUID, day time.Time) (string, error) {
	prefix := fmt.Sprintf("PO-%s-", day.Format("20060102"))
	seq, err := nextDailySequence(dbFrom(ctx, r.db).Model(&models.PurchaseOrderModel{}).Where("tenant_id = ?", tenantID), prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", prefix, seq), nil
}

// Save creates or updates an order and rewrites its lines
func (r *GormPurchaseOrderRepository) Save(ctx context.Context, order *purchasing.PurchaseOrder) error {
	model := models.PurchaseOrderModelFromDomain(order)
	return saveWithChildren(dbFrom(ctx, r.db), order,
		func() any { return models.PurchaseOrderModelFromDomain(order) },
		func(tx *gorm.DB) error {
			return replaceRows(tx, &models.PurchaseOrderItemModel{}, "order_id", order.ID, &model.Items, len(model.Items))
		},
		tenantScope(order.TenantID),
	)
}

// Delete removes an order and its lines
func (r *GormPurchaseOrderRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return dbFrom(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.PurchaseOrderItemModel{}, "tenant_id = ? AND order_id = ?", tenantID, id).Error; err != nil {
			return translateError(err)
		}
		result := tx.Delete(&models.PurchaseOrderModel{}, "tenant_id = ? AND id = ?", tenantID, id)
		if result.Error != nil {
			return translateError(result.Error)
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func purchaseOrdersToDomain(rows []models.PurchaseOrderModel) []purchasing.PurchaseOrder {
	orders := make([]purchasing.PurchaseOrder, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders
}

// nextDailySequence finds the highest number starting with prefix in the
// scoped query and returns its numeric suffix plus one.
func nextDailySequence(scoped *gorm.DB, prefix string) (int, error) {
	var numbers []string
	if err := scoped.
		Where("number LIKE ?", prefix+"%").
		Order("number DESC").
		Limit(1).
		Pluck("number", &numbers).Error; err != nil {
		return 0, translateError(err)
	}
	if len(numbers) == 0 {
		return 1, nil
	}
	n, err := strconv.Atoi(strings.TrimPrefix(numbers[0], prefix))
	if err != nil {
		return 0, fmt.Errorf("parse document number %q: %w", numbers[0], err)
	}
	return n + 1, nil
}
