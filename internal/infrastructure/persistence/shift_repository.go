package persistence

import (
	"context"

	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/domain/shift"
	"github.com/coretrack/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormShiftRepository implements shift.Repository using GORM
type GormShiftRepository struct {
	db *gorm.DB
}

// NewGormShiftRepository creates a new GormShiftRepository
func NewGormShiftRepository(db *gorm.DB) *GormShiftRepository {
	return &GormShiftRepository{db: db}
}

var _ shift.Repository = (*GormShiftRepository)(nil)

// FindByID finds a shift by ID within a tenant
func (r *GormShiftRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*shift.Shift, error) {
	var model models.ShiftModel
	if err := first(dbFrom(ctx, r.db).Where("tenant_id = ? AND id = ?", tenantID, id), &model); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindOpen returns the open shift of a user at a location
func (r *GormShiftRepository) FindOpen(ctx context.Context, tenantID uuid.UUID, loc shared.LocationID, userID uuid.UUID) (*shift.Shift, error) {
	var model models.ShiftModel
	if err := first(dbFrom(ctx, r.db).
		Where("tenant_id = ? AND location_id = ? AND user_id = ? AND status = ?", tenantID, loc.String(), userID, shift.StatusOpen).
		Order("opened_at DESC"), &model); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// CountOpenAtLocation counts the open shifts at a location
func (r *GormShiftRepository) CountOpenAtLocation(ctx context.Context, tenantID uuid.UUID, loc shared.LocationID) (int64, error) {
	var count int64
	if err := dbFrom(ctx, r.db).
		Model(&models.ShiftModel{}).
		Where("tenant_id = ? AND location_id = ? AND status = ?", tenantID, loc.String(), shift.StatusOpen).
		Count(&count).Error; err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

// FindAll lists shifts, newest first by default
func (r *GormShiftRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shift.Filter) ([]shift.Shift, int64, error) {
	where := func(q *gorm.DB) *gorm.DB {
		q = q.Where("tenant_id = ?", tenantID)
		if !filter.LocationID.IsZero() {
			q = q.Where("location_id = ?", filter.LocationID.String())
		}
		if filter.UserID != nil {
			q = q.Where("user_id = ?", *filter.UserID)
		}
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		if filter.From != nil {
			q = q.Where("opened_at >= ?", *filter.From)
		}
		if filter.To != nil {
			q = q.Where("opened_at < ?", *filter.To)
		}
		return q
	}

	var rows []models.ShiftModel
	total, err := findPage(dbFrom(ctx, r.db), &models.ShiftModel{}, where, filter.Filter, ShiftSortFields, "opened_at", &rows)
	if err != nil {
		return nil, 0, err
	}
	shifts := make([]shift.Shift, len(rows))
	for i := range rows {
		shifts[i] = *rows[i].ToDomain()
	}
	return shifts, total, nil
}

// Save creates or updates a shift
func (r *GormShiftRepository) Save(ctx context.Context, s *shift.Shift) error {
	return saveVersioned(dbFrom(ctx, r.db), s, func() any {
		return models.ShiftModelFromDomain(s)
	}, tenantScope(s.TenantID))
}
