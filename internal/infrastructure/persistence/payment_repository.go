package persistence

import (
	"context"

	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/domain/payment"
	"github.com/coretrack/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPaymentRepository implements payment.Repository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

var _ payment.Repository = (*GormPaymentRepository)(nil)

// FindByExternalID finds a payment by its provider reference
func (r *GormPaymentRepository) FindByExternalID(ctx context.Context, provider identity.PaymentProvider, externalID string) (*payment.Record, error) {
	var model models.PaymentRecordModel
	if err := first(dbFrom(ctx, r.db).Where("provider = ? AND external_id = ?", provider, externalID), &model); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByReference lists the payments made for one sale or subscription, newest first
func (r *GormPaymentRepository) FindByReference(ctx context.Context, tenantID uuid.UUID, referenceID string) ([]payment.Record, error) {
	var rows []models.PaymentRecordModel
	if err := dbFrom(ctx, r.db).
		Where("tenant_id = ? AND reference_id = ?", tenantID, referenceID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	records := make([]payment.Record, len(rows))
	for i := range rows {
		records[i] = *rows[i].ToDomain()
	}
	return records, nil
}

// Save creates or updates a payment record
func (r *GormPaymentRepository) Save(ctx context.Context, rec *payment.Record) error {
	return translateError(dbFrom(ctx, r.db).Save(models.PaymentRecordModelFromDomain(rec)).Error)
}
