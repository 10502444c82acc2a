package persistence

import (
	"context"

	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSubscriptionRepository implements identity.SubscriptionRepository using GORM
type GormSubscriptionRepository struct {
	db *gorm.DB
}

// NewGormSubscriptionRepository creates a new GormSubscriptionRepository
func NewGormSubscriptionRepository(db *gorm.DB) *GormSubscriptionRepository {
	return &GormSubscriptionRepository{db: db}
}

var _ identity.SubscriptionRepository = (*GormSubscriptionRepository)(nil)

// FindByExternalID finds a subscription by its provider reference
func (r *GormSubscriptionRepository) FindByExternalID(ctx context.Context, provider identity.PaymentProvider, externalID string) (*identity.Subscription, error) {
	var model models.SubscriptionModel
	if err := first(dbFrom(ctx, r.db).Where("provider = ? AND external_id = ?", provider, externalID), &model); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindLatestForTenant returns the most recently updated subscription of a tenant
func (r *GormSubscriptionRepository) FindLatestForTenant(ctx context.Context, tenantID uuid.UUID) (*identity.Subscription, error) {
	var model models.SubscriptionModel
	if err := first(dbFrom(ctx, r.db).Where("tenant_id = ?", tenantID).Order("updated_at DESC"), &model); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a subscription
func (r *GormSubscriptionRepository) Save(ctx context.Context, sub *identity.Subscription) error {
	return saveVersioned(dbFrom(ctx, r.db), sub, func() any {
		return models.SubscriptionModelFromDomain(sub)
	}, tenantScope(sub.TenantID))
}
