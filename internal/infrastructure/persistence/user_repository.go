package persistence

import (
	"context"
	"strings"

	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormUserRepository implements identity.UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

var _ identity.UserRepository = (*GormUserRepository)(nil)

// FindByID finds a user by ID within a tenant
func (r *GormUserRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*identity.User, error) {
	var model models.UserModel
	if err := first(dbFrom(ctx, r.db).Where("tenant_id = ? AND id = ?", tenantID, id), &model); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByEmail finds a user by email across all tenants. Emails are stored
// lowercased so the lookup is case-insensitive.
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	var model models.UserModel
	if err := first(dbFrom(ctx, r.db).Where("email = ?", strings.ToLower(strings.TrimSpace(email))), &model); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists the users of a tenant
func (r *GormUserRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]identity.User, int64, error) {
	where := func(q *gorm.DB) *gorm.DB {
		q = q.Where("tenant_id = ?", tenantID)
		if filter.Search != "" {
			p := likePattern(filter.Search)
			q = q.Where("LOWER(name) LIKE ? OR email LIKE ?", p, p)
		}
		if role, ok := filter.Filters["role"]; ok {
			q = q.Where("role = ?", role)
		}
		if active, ok := filter.Filters["active"]; ok {
			q = q.Where("active = ?", active)
		}
		return q
	}

	var rows []models.UserModel
	total, err := findPage(dbFrom(ctx, r.db), &models.UserModel{}, where, filter, UserSortFields, "created_at", &rows)
	if err != nil {
		return nil, 0, err
	}
	users := make([]identity.User, len(rows))
	for i := range rows {
		users[i] = *rows[i].ToDomain()
	}
	return users, total, nil
}

// ExistsByEmail checks whether any tenant already uses the email
func (r *GormUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := dbFrom(ctx, r.db).
		Model(&models.UserModel{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Count(&count).Error; err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

// CountActive counts the active users of a tenant
func (r *GormUserRepository) CountActive(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	if err := dbFrom(ctx, r.db).
		Model(&models.UserModel{}).
		Where("tenant_id = ? AND active = ?", tenantID, true).
		Count(&count).Error; err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

// CountActiveOwners counts the active owners of a tenant
func (r *GormUserRepository) CountActiveOwners(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	if err := dbFrom(ctx, r.db).
		Model(&models.UserModel{}).
		Where("tenant_id = ? AND active = ? AND role = ?", tenantID, true, identity.RoleOwner).
		Count(&count).Error; err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

// Save creates or updates a user
func (r *GormUserRepository) Save(ctx context.Context, user *identity.User) error {
	return saveVersioned(dbFrom(ctx, r.db), user, func() any {
		return models.UserModelFromDomain(user)
	}, tenantScope(user.TenantID))
}
