package models

import (
	"encoding/json"
	"time"

	"github.com/coretrack/backend/internal/domain/datasync"
	"github.com/google/uuid"
)

// SyncDocumentModel is the server copy of a synced record. Payload holds
// JSON text; Seq is unique per tenant and orders the change feed.
type SyncDocumentModel struct {
	BaseModel
	TenantID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_sync_doc_key,priority:1;uniqueIndex:idx_sync_doc_seq,priority:1"`
	Collection string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_sync_doc_key,priority:2"`
	DocumentID string    `gorm:"type:varchar(128);not null;uniqueIndex:idx_sync_doc_key,priority:3"`
	Version    int64     `gorm:"not null"`
	Seq        int64     `gorm:"not null;uniqueIndex:idx_sync_doc_seq,priority:2"`
	Payload    *string   `gorm:"type:jsonb"`
	Deleted    bool      `gorm:"not null;default:false"`
	UpdatedBy  uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (SyncDocumentModel) TableName() string {
	return "sync_documents"
}

// ToDomain converts the persistence model to a domain Document.
func (m *SyncDocumentModel) ToDomain() *datasync.Document {
	return &datasync.Document{
		BaseEntity: m.BaseModel.ToDomain(),
		TenantID:   m.TenantID,
		Collection: m.Collection,
		DocumentID: m.DocumentID,
		Version:    m.Version,
		Seq:        m.Seq,
		Payload:    rawJSON(m.Payload),
		Deleted:    m.Deleted,
		UpdatedBy:  m.UpdatedBy,
	}
}

// SyncDocumentModelFromDomain creates a persistence model from a domain Document.
func SyncDocumentModelFromDomain(d *datasync.Document) *SyncDocumentModel {
	m := &SyncDocumentModel{
		TenantID:   d.TenantID,
		Collection: d.Collection,
		DocumentID: d.DocumentID,
		Version:    d.Version,
		Seq:        d.Seq,
		Payload:    jsonText(d.Payload),
		Deleted:    d.Deleted,
		UpdatedBy:  d.UpdatedBy,
	}
	m.FromDomainBaseEntity(d.BaseEntity)
	return m
}

// SyncConflictModel records a rejected change next to the server copy.
type SyncConflictModel struct {
	BaseModel
	TenantID      uuid.UUID               `gorm:"type:uuid;not null;index:idx_sync_conflict_open,priority:1"`
	Collection    string                  `gorm:"type:varchar(64);not null"`
	DocumentID    string                  `gorm:"type:varchar(128);not null"`
	ClientID      string                  `gorm:"type:varchar(128);not null"`
	UserID        uuid.UUID               `gorm:"type:uuid;not null"`
	ChangeID      string                  `gorm:"type:varchar(128)"`
	BaseVersion   int64                   `gorm:"not null"`
	LocalPayload  *string                 `gorm:"type:jsonb"`
	LocalDelete   bool                    `gorm:"not null;default:false"`
	RemotePayload *string                 `gorm:"type:jsonb"`
	RemoteDeleted bool                    `gorm:"not null;default:false"`
	RemoteVersion int64                   `gorm:"not null"`
	Status        datasync.ConflictStatus `gorm:"type:varchar(20);not null;index:idx_sync_conflict_open,priority:2"`
	Resolution    datasync.Resolution     `gorm:"type:varchar(20)"`
	ResolvedBy    *uuid.UUID              `gorm:"type:uuid"`
	ResolvedAt    *time.Time              `gorm:"column:resolved_at"`
}

// TableName returns the table name for GORM
func (SyncConflictModel) TableName() string {
	return "sync_conflicts"
}

// ToDomain converts the persistence model to a domain Conflict.
func (m *SyncConflictModel) ToDomain() *datasync.Conflict {
	return &datasync.Conflict{
		BaseEntity:    m.BaseModel.ToDomain(),
		TenantID:      m.TenantID,
		Collection:    m.Collection,
		DocumentID:    m.DocumentID,
		ClientID:      m.ClientID,
		UserID:        m.UserID,
		ChangeID:      m.ChangeID,
		BaseVersion:   m.BaseVersion,
		LocalPayload:  rawJSON(m.LocalPayload),
		LocalDelete:   m.LocalDelete,
		RemotePayload: rawJSON(m.RemotePayload),
		RemoteDeleted: m.RemoteDeleted,
		RemoteVersion: m.RemoteVersion,
		Status:        m.Status,
		Resolution:    m.Resolution,
		ResolvedBy:    m.ResolvedBy,
		ResolvedAt:    m.ResolvedAt,
	}
}

// SyncConflictModelFromDomain creates a persistence model from a domain Conflict.
func SyncConflictModelFromDomain(c *datasync.Conflict) *SyncConflictModel {
	m := &SyncConflictModel{
		TenantID:      c.TenantID,
		Collection:    c.Collection,
		DocumentID:    c.DocumentID,
		ClientID:      c.ClientID,
		UserID:        c.UserID,
		ChangeID:      c.ChangeID,
		BaseVersion:   c.BaseVersion,
		LocalPayload:  jsonText(c.LocalPayload),
		LocalDelete:   c.LocalDelete,
		RemotePayload: jsonText(c.RemotePayload),
		RemoteDeleted: c.RemoteDeleted,
		RemoteVersion: c.RemoteVersion,
		Status:        c.Status,
		Resolution:    c.Resolution,
		ResolvedBy:    c.ResolvedBy,
		ResolvedAt:    c.ResolvedAt,
	}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}

// SyncPendingWriteModel is an entry of the sync retry list.
type SyncPendingWriteModel struct {
	BaseModel
	TenantID      uuid.UUID              `gorm:"type:uuid;not null;index:idx_sync_pending_client,priority:1"`
	ClientID      string                 `gorm:"type:varchar(128);not null;index:idx_sync_pending_client,priority:2"`
	UserID        uuid.UUID              `gorm:"type:uuid;not null"`
	ChangeID      string                 `gorm:"type:varchar(128)"`
	Collection    string                 `gorm:"type:varchar(64);not null"`
	DocumentID    string                 `gorm:"type:varchar(128);not null"`
	BaseVersion   int64                  `gorm:"not null"`
	Payload       *string                `gorm:"type:jsonb"`
	Delete        bool                   `gorm:"column:is_delete;not null;default:false"`
	Attempts      int                    `gorm:"not null;default:0"`
	NextAttemptAt time.Time              `gorm:"not null;index:idx_sync_pending_due,priority:2"`
	LastError     string                 `gorm:"type:text"`
	Status        datasync.PendingStatus `gorm:"type:varchar(20);not null;index:idx_sync_pending_due,priority:1"`
}

// TableName returns the table name for GORM
func (SyncPendingWriteModel) TableName() string {
	return "sync_pending_writes"
}

// ToDomain converts the persistence model to a domain PendingWrite.
func (m *SyncPendingWriteModel) ToDomain() *datasync.PendingWrite {
	return &datasync.PendingWrite{
		BaseEntity: m.BaseModel.ToDomain(),
		TenantID:   m.TenantID,
		ClientID:   m.ClientID,
		UserID:     m.UserID,
		Change: datasync.Change{
			ChangeID:    m.ChangeID,
			Collection:  m.Collection,
			DocumentID:  m.DocumentID,
			BaseVersion: m.BaseVersion,
			Payload:     rawJSON(m.Payload),
			Delete:      m.Delete,
		},
		Attempts:      m.Attempts,
		NextAttemptAt: m.NextAttemptAt,
		LastError:     m.LastError,
		Status:        m.Status,
	}
}

// SyncPendingWriteModelFromDomain creates a persistence model from a domain PendingWrite.
func SyncPendingWriteModelFromDomain(p *datasync.PendingWrite) *SyncPendingWriteModel {
	m := &SyncPendingWriteModel{
		TenantID:      p.TenantID,
		ClientID:      p.ClientID,
		UserID:        p.UserID,
		ChangeID:      p.Change.ChangeID,
		Collection:    p.Change.Collection,
		DocumentID:    p.Change.DocumentID,
		BaseVersion:   p.Change.BaseVersion,
		Payload:       jsonText(p.Change.Payload),
		Delete:        p.Change.Delete,
		Attempts:      p.Attempts,
		NextAttemptAt: p.NextAttemptAt,
		LastError:     p.LastError,
		Status:        p.Status,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}

// rawJSON maps a NULL column to a nil payload
func rawJSON(s *string) json.RawMessage {
	if s == nil || *s == "" {
		return nil
	}
	return json.RawMessage(*s)
}

// jsonText stores an empty payload as NULL
func jsonText(raw json.RawMessage) *string {
	if len(raw) == 0 {
		return nil
	}
	s := string(raw)
	return &s
}
