package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/coretrack/backend/internal/domain/pos"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSaleOrderRepository implements pos.Repository using GORM. Sale lines
// are written once with the sale; later saves only touch the header.
type GormSaleOrderRepository struct {
	db *gorm.DB
}

// NewGormSaleOrderRepository creates a new GormSaleOrderRepository
func NewGormSaleOrderRepository(db *gorm.DB) *GormSaleOrderRepository {
	return &GormSaleOrderRepository{db: db}
}

var _ pos.Repository = (*GormSaleOrderRepository)(nil)

func preloadSaleLines(db *gorm.DB) *gorm.DB {
	return db.Preload("Lines", orderedBy("position"))
}

// FindByID finds a sale with its lines
func (r *GormSaleOrderRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*pos.SaleOrder, error) {
	var model models.SaleOrderModel
	if err := first(dbFrom(ctx, r.db).Scopes(preloadSaleLines).Where("tenant_id = ? AND id = ?", tenantID, id), &model); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByPaymentRef finds the sale paid through a provider reference
func (r *GormSaleOrderRepository) FindByPaymentRef(ctx context.Context, tenantID uuid.UUID, ref string) (*pos.SaleOrder, error) {
	if ref == "" {
		return nil, shared.ErrNotFound
	}
	var model models.SaleOrderModel
	if err := first(dbFrom(ctx, r.db).Scopes(preloadSaleLines).Where("tenant_id = ? AND payment_ref = ?", tenantID, ref), &model); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists sales with their lines, newest first by default
func (r *GormSaleOrderRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter pos.Filter) ([]pos.SaleOrder, int64, error) {
	where := func(q *gorm.DB) *gorm.DB {
		q = q.Where("tenant_id = ?", tenantID)
		if !filter.LocationID.IsZero() {
			q = q.Where("location_id = ?", filter.LocationID.String())
		}
		if filter.ShiftID != nil {
			q = q.Where("shift_id = ?", *filter.ShiftID)
		}
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		if filter.From != nil {
			q = q.Where("created_at >= ?", *filter.From)
		}
		if filter.To != nil {
			q = q.Where("created_at < ?", *filter.To)
		}
		if filter.Search != "" {
			q = q.Where("LOWER(number) LIKE ?", likePattern(filter.Search))
		}
		return q
	}

	var rows []models.SaleOrderModel
	total, err := findPage(dbFrom(ctx, r.db), &models.SaleOrderModel{}, where, filter.Filter, SaleOrderSortFields, "created_at", &rows, preloadSaleLines)
	if err != nil {
		return nil, 0, err
	}
	orders := make([]pos.SaleOrder, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders, total, nil
}

// NextNumber returns the next S-YYYYMMDD-NNNN number of a location for the day
func (r *GormSaleOrderRepository) NextNumber(ctx context.Context, tenantID uuid.UUID, loc shared.LocationID, day time.Time) (string, error) {
	prefix := fmt.Sprintf("S-%s-", day.Format("20060102"))
	seq, err := nextDailySequence(dbFrom(ctx, r.db).
		Model(&models.SaleOrderModel{}).
		Where("tenant_id = ? AND location_id = ?", tenantID, loc.String()), prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", prefix, seq), nil
}

// Save inserts a new sale with its lines, or updates the header of an existing one
func (r *GormSaleOrderRepository) Save(ctx context.Context, order *pos.SaleOrder) error {
	build := func() any { return models.SaleOrderModelFromDomain(order) }
	if !order.IsNew() {
		return saveVersioned(dbFrom(ctx, r.db), order, build, tenantScope(order.TenantID))
	}
	lines := models.SaleOrderModelFromDomain(order).Lines
	return saveWithChildren(dbFrom(ctx, r.db), order, build, func(tx *gorm.DB) error {
		if len(lines) == 0 {
			return nil
		}
		return translateError(tx.Create(&lines).Error)
	})
}
