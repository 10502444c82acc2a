package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTenantRepository implements identity.TenantRepository using GORM
type GormTenantRepository struct {
	db *gorm.DB
}

// NewGormTenantRepository creates a new GormTenantRepository
func NewGormTenantRepository(db *gorm.DB) *GormTenantRepository {
	return &GormTenantRepository{db: db}
}

var _ identity.TenantRepository = (*GormTenantRepository)(nil)

// FindByID finds a tenant by its ID
func (r *GormTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	var model models.TenantModel
	if err := first(dbFrom(ctx, r.db).Where("id = ?", id), &model); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySlug finds a tenant by its slug
func (r *GormTenantRepository) FindBySlug(ctx context.Context, slug string) (*identity.Tenant, error) {
	var model models.TenantModel
	if err := first(dbFrom(ctx, r.db).Where("slug = ?", strings.ToLower(slug)), &model); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByStripeCustomerID finds the tenant linked to a Stripe customer
func (r *GormTenantRepository) FindByStripeCustomerID(ctx context.Context, customerID string) (*identity.Tenant, error) {
	if customerID == "" {
		return nil, shared.ErrNotFound
	}
	var model models.TenantModel
	if err := first(dbFrom(ctx, r.db).Where("stripe_customer_id = ?", customerID), &model); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByStripeSubscriptionID finds the tenant linked to a Stripe subscription
func (r *GormTenantRepository) FindByStripeSubscriptionID(ctx context.Context, subscriptionID string) (*identity.Tenant, error) {
	if subscriptionID == "" {
		return nil, shared.ErrNotFound
	}
	var model models.TenantModel
	if err := first(dbFrom(ctx, r.db).Where("stripe_subscription_id = ?", subscriptionID), &model); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists tenants, optionally filtered by status and a name/slug search
func (r *GormTenantRepository) FindAll(ctx context.Context, filter shared.Filter) ([]identity.Tenant, int64, error) {
	where := func(q *gorm.DB) *gorm.DB {
		if filter.Search != "" {
			p := likePattern(filter.Search)
			q = q.Where("LOWER(name) LIKE ? OR slug LIKE ?", p, p)
		}
		if status, ok := filter.Filters["status"]; ok {
			q = q.Where("status = ?", status)
		}
		if plan, ok := filter.Filters["plan"]; ok {
			q = q.Where("plan = ?", plan)
		}
		return q
	}

	var rows []models.TenantModel
	total, err := findPage(dbFrom(ctx, r.db), &models.TenantModel{}, where, filter, TenantSortFields, "created_at", &rows)
	if err != nil {
		return nil, 0, err
	}
	tenants := make([]identity.Tenant, len(rows))
	for i := range rows {
		tenants[i] = *rows[i].ToDomain()
	}
	return tenants, total, nil
}

// FindTrialsEndingBefore returns trial tenants whose trial ended before the given time
func (r *GormTenantRepository) FindTrialsEndingBefore(ctx context.Context, before time.Time) ([]identity.Tenant, error) {
	var rows []models.TenantModel
	if err := dbFrom(ctx, r.db).
		Where("status = ? AND trial_ends_at IS NOT NULL AND trial_ends_at < ?", identity.TenantStatusTrial, before).
		Order("trial_ends_at ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	tenants := make([]identity.Tenant, len(rows))
	for i := range rows {
		tenants[i] = *rows[i].ToDomain()
	}
	return tenants, nil
}

// ExistsBySlug checks whether a slug is taken
func (r *GormTenantRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := dbFrom(ctx, r.db).
		Model(&models.TenantModel{}).
		Where("slug = ?", strings.ToLower(slug)).
		Count(&count).Error; err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

// Save creates or updates a tenant
func (r *GormTenantRepository) Save(ctx context.Context, tenant *identity.Tenant) error {
	return saveVersioned(dbFrom(ctx, r.db), tenant, func() any {
		return models.TenantModelFromDomain(tenant)
	})
}
