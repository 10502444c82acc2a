package persistence

import (
	"context"
	"strings"

	"github.com/coretrack/backend/internal/domain/location"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBranchRepository implements location.Repository using GORM
type GormBranchRepository struct {
	db *gorm.DB
}

// NewGormBranchRepository creates a new GormBranchRepository
func NewGormBranchRepository(db *gorm.DB) *GormBranchRepository {
	return &GormBranchRepository{db: db}
}

var _ location.Repository = (*GormBranchRepository)(nil)

// FindByID finds a branch by ID within a tenant
func (r *GormBranchRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*location.Branch, error) {
	var model models.BranchModel
	if err := first(dbFrom(ctx, r.db).Where("tenant_id = ? AND id = ?", tenantID, id), &model); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByLocationID resolves a location id to its branch. A malformed id is
// reported as shared.ErrInvalidLocationID, an unknown one as not found.
func (r *GormBranchRepository) FindByLocationID(ctx context.Context, tenantID uuid.UUID, loc shared.LocationID) (*location.Branch, error) {
	branchID, err := loc.BranchID()
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, tenantID, branchID)
}

// FindAll lists the branches of a tenant ordered by creation
func (r *GormBranchRepository) FindAll(ctx context.Context, tenantID uuid.UUID, includeInactive bool) ([]location.Branch, error) {
	query := dbFrom(ctx, r.db).Where("tenant_id = ?", tenantID)
	if !includeInactive {
		query = query.Where("active = ?", true)
	}

	var rows []models.BranchModel
	if err := query.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	branches := make([]location.Branch, len(rows))
	for i := range rows {
		branches[i] = *rows[i].ToDomain()
	}
	return branches, nil
}

// FindDefault returns the oldest active branch of a tenant
func (r *GormBranchRepository) FindDefault(ctx context.Context, tenantID uuid.UUID) (*location.Branch, error) {
	var model models.BranchModel
	if err := first(dbFrom(ctx, r.db).
		Where("tenant_id = ? AND active = ?", tenantID, true).
		Order("created_at ASC"), &model); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsByCode checks if a branch code is taken within the tenant
func (r *GormBranchRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	var count int64
	if err := dbFrom(ctx, r.db).
		Model(&models.BranchModel{}).
		Where("tenant_id = ? AND code = ?", tenantID, strings.ToUpper(strings.TrimSpace(code))).
		Count(&count).Error; err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

// CountActive counts the active branches of a tenant
func (r *GormBranchRepository) CountActive(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	if err := dbFrom(ctx, r.db).
		Model(&models.BranchModel{}).
		Where("tenant_id = ? AND active = ?", tenantID, true).
		Count(&count).Error; err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

// Save creates or updates a branch
func (r *GormBranchRepository) Save(ctx context.Context, branch *location.Branch) error {
	return saveVersioned(dbFrom(ctx, r.db), branch, func() any {
		return models.BranchModelFromDomain(branch)
	}, tenantScope(branch.TenantID))
}
