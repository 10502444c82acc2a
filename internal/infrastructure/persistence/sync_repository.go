package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/coretrack/backend/internal/domain/datasync"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSyncDocumentRepository implements datasync.DocumentRepository using GORM
type GormSyncDocumentRepository struct {
	db *gorm.DB
}

// NewGormSyncDocumentRepository creates a new GormSyncDocumentRepository
func NewGormSyncDocumentRepository(db *gorm.DB) *GormSyncDocumentRepository {
	return &GormSyncDocumentRepository{db: db}
}

var _ datasync.DocumentRepository = (*GormSyncDocumentRepository)(nil)

// Find loads the server copy of one document
func (r *GormSyncDocumentRepository) Find(ctx context.Context, tenantID uuid.UUID, collection, documentID string) (*datasync.Document, error) {
	var model models.SyncDocumentModel
	if err := first(dbFrom(ctx, r.db).
		Where("tenant_id = ? AND collection = ? AND document_id = ?", tenantID, collection, documentID), &model); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindChangedSince returns the documents written after the since watermark, in write order
func (r *GormSyncDocumentRepository) FindChangedSince(ctx context.Context, tenantID uuid.UUID, collection string, since int64, limit int) ([]datasync.Document, error) {
	query := dbFrom(ctx, r.db).Where("tenant_id = ? AND seq > ?", tenantID, since)
	if collection != "" {
		query = query.Where("collection = ?", collection)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []models.SyncDocumentModel
	if err := query.Order("seq ASC").Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	docs := make([]datasync.Document, len(rows))
	for i := range rows {
		docs[i] = *rows[i].ToDomain()
	}
	return docs, nil
}

// Save writes a document at its new version and stamps the next tenant Seq.
// Version 1 is an insert; later versions update the row still holding the
// previous version. Losing either race, or the Seq race, is a concurrency
// conflict the caller may retry.
func (r *GormSyncDocumentRepository) Save(ctx context.Context, doc *datasync.Document) error {
	db := dbFrom(ctx, r.db)

	var maxSeq int64
	if err := db.Model(&models.SyncDocumentModel{}).
		Where("tenant_id = ?", doc.TenantID).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&maxSeq).Error; err != nil {
		return translateError(err)
	}
	doc.Seq = maxSeq + 1
	model := models.SyncDocumentModelFromDomain(doc)

	if doc.Version <= 1 {
		return conflictOnDuplicate(db.Create(model).Error)
	}

	result := db.Model(model).
		Where("tenant_id = ? AND version = ?", doc.TenantID, doc.Version-1).
		Select("*").
		Omit("created_at").
		Updates(model)
	if result.Error != nil {
		return conflictOnDuplicate(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// conflictOnDuplicate turns a unique violation into a retryable conflict
func conflictOnDuplicate(err error) error {
	err = translateError(err)
	if errors.Is(err, shared.ErrAlreadyExists) {
		return shared.WrapDomainError(shared.ErrConcurrencyConflict.Code, shared.ErrConcurrencyConflict.Message, err)
	}
	return err
}

// GormSyncConflictRepository implements datasync.ConflictRepository using GORM
type GormSyncConflictRepository struct {
	db *gorm.DB
}

// NewGormSyncConflictRepository creates a new GormSyncConflictRepository
func NewGormSyncConflictRepository(db *gorm.DB) *GormSyncConflictRepository {
	return &GormSyncConflictRepository{db: db}
}

var _ datasync.ConflictRepository = (*GormSyncConflictRepository)(nil)

// FindByID finds a conflict within a tenant
func (r *GormSyncConflictRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*datasync.Conflict, error) {
	var model models.SyncConflictModel
	if err := first(dbFrom(ctx, r.db).Where("tenant_id = ? AND id = ?", tenantID, id), &model); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindOpen lists the unresolved conflicts of a tenant, oldest first by default
func (r *GormSyncConflictRepository) FindOpen(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]datasync.Conflict, int64, error) {
	where := func(q *gorm.DB) *gorm.DB {
		q = q.Where("tenant_id = ? AND status = ?", tenantID, datasync.ConflictOpen)
		if collection, ok := filter.Filters["collection"]; ok {
			q = q.Where("collection = ?", collection)
		}
		return q
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
		filter.OrderDir = "asc"
	}

	var rows []models.SyncConflictModel
	total, err := findPage(dbFrom(ctx, r.db), &models.SyncConflictModel{}, where, filter, SyncConflictSortFields, "created_at", &rows)
	if err != nil {
		return nil, 0, err
	}
	conflicts := make([]datasync.Conflict, len(rows))
	for i := range rows {
		conflicts[i] = *rows[i].ToDomain()
	}
	return conflicts, total, nil
}

// Save creates or updates a conflict
func (r *GormSyncConflictRepository) Save(ctx context.Context, c *datasync.Conflict) error {
	return translateError(dbFrom(ctx, r.db).Save(models.SyncConflictModelFromDomain(c)).Error)
}

// GormSyncPendingWriteRepository implements datasync.PendingWriteRepository using GORM
type GormSyncPendingWriteRepository struct {
	db *gorm.DB
}

// NewGormSyncPendingWriteRepository creates a new GormSyncPendingWriteRepository
func NewGormSyncPendingWriteRepository(db *gorm.DB) *GormSyncPendingWriteRepository {
	return &GormSyncPendingWriteRepository{db: db}
}

var _ datasync.PendingWriteRepository = (*GormSyncPendingWriteRepository)(nil)

// FindDue returns queued writes whose next attempt is due, across tenants
func (r *GormSyncPendingWriteRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]datasync.PendingWrite, error) {
	query := dbFrom(ctx, r.db).
		Where("status = ? AND next_attempt_at <= ?", datasync.PendingQueued, now).
		Order("next_attempt_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []models.SyncPendingWriteModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	writes := make([]datasync.PendingWrite, len(rows))
	for i := range rows {
		writes[i] = *rows[i].ToDomain()
	}
	return writes, nil
}

// CountQueued counts the writes of a client still waiting for a retry
func (r *GormSyncPendingWriteRepository) CountQueued(ctx context.Context, tenantID uuid.UUID, clientID string) (int64, error) {
	var count int64
	if err := dbFrom(ctx, r.db).
		Model(&models.SyncPendingWriteModel{}).
		Where("tenant_id = ? AND client_id = ? AND status = ?", tenantID, clientID, datasync.PendingQueued).
		Count(&count).Error; err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

// Save creates or updates a pending write
func (r *GormSyncPendingWriteRepository) Save(ctx context.Context, p *datasync.PendingWrite) error {
	return translateError(dbFrom(ctx, r.db).Save(models.SyncPendingWriteModelFromDomain(p)).Error)
}
