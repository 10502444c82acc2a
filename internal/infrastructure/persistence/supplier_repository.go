package persistence

import (
	"context"

	"github.com/coretrack/backend/internal/domain/purchasing"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSupplierRepository implements purchasing.SupplierRepository using GORM
type GormSupplierRepository struct {
	db *gorm.DB
}

// NewGormSupplierRepository creates a new GormSupplierRepository
func NewGormSupplierRepository(db *gorm.DB) *GormSupplierRepository {
	return &GormSupplierRepository{db: db}
}

var _ purchasing.SupplierRepository = (*GormSupplierRepository)(nil)

// FindByID finds a supplier by ID within a tenant
func (r *GormSupplierRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*purchasing.Supplier, error) {
	var model models.SupplierModel
	if err := first(dbFrom(ctx, r.db).Where("tenant_id = ? AND id = ?", tenantID, id), &model); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists the suppliers of a tenant
func (r *GormSupplierRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]purchasing.Supplier, int64, error) {
	where := func(q *gorm.DB) *gorm.DB {
		q = q.Where("tenant_id = ?", tenantID)
		if filter.Search != "" {
			p := likePattern(filter.Search)
			q = q.Where("LOWER(name) LIKE ? OR LOWER(contact_name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?", p, p, p, p)
		}
		if active, ok := filter.Filters["active"]; ok {
			q = q.Where("active = ?", active)
		}
		return q
	}

	var rows []models.SupplierModel
	total, err := findPage(dbFrom(ctx, r.db), &models.SupplierModel{}, where, filter, SupplierSortFields, "name", &rows)
	if err != nil {
		return nil, 0, err
	}
	suppliers := make([]purchasing.Supplier, len(rows))
	for i := range rows {
		suppliers[i] = *rows[i].ToDomain()
	}
	return suppliers, total, nil
}

// Save creates or updates a supplier
func (r *GormSupplierRepository) Save(ctx context.Context, supplier *purchasing.Supplier) error {
	return saveVersioned(dbFrom(ctx, r.db), supplier, func() any {
		return models.SupplierModelFromDomain(supplier)
	}, tenantScope(supplier.TenantID))
}
