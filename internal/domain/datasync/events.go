package datasync

import (
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

const (
	AggregateTypeDocument = "SyncDocument"

	EventTypeDocumentChanged  = "sync.document_changed"
	EventTypeConflictDetected = "sync.conflict_detected"
	EventTypeConflictResolved = "sync.conflict_resolved"
)

// DocumentChangedEvent is broadcast after a document is written
type DocumentChangedEvent struct {
	shared.BaseDomainEvent
	Collection string `json:"collection"`
	DocumentID string `json:"document_id"`
	Version    int64  `json:"version"`
	Seq        int64  `json:"seq"`
	Deleted    bool   `json:"deleted"`
	ClientID   string `json:"client_id,omitempty"`
}

// NewDocumentChangedEvent builds the change notification for doc
func NewDocumentChangedEvent(doc *Document, clientID string) *DocumentChangedEvent {
	return &DocumentChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentChanged, AggregateTypeDocument, doc.ID, doc.TenantID),
		Collection:      doc.Collection,
		DocumentID:      doc.DocumentID,
		Version:         doc.Version,
		Seq:             doc.Seq,
		Deleted:         doc.Deleted,
		ClientID:        clientID,
	}
}

// ConflictEvent is broadcast when a conflict opens or closes
type ConflictEvent struct {
	shared.BaseDomainEvent
	ConflictID uuid.UUID  `json:"conflict_id"`
	Collection string     `json:"collection"`
	DocumentID string     `json:"document_id"`
	ClientID   string     `json:"client_id"`
	Resolution Resolution `json:"resolution,omitempty"`
}

// NewConflictEvent builds a detected or resolved notification
func NewConflictEvent(eventType string, c *Conflict) *ConflictEvent {
	return &ConflictEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeDocument, c.ID, c.TenantID),
		ConflictID:      c.ID,
		Collection:      c.Collection,
		DocumentID:      c.DocumentID,
		ClientID:        c.ClientID,
		Resolution:      c.Resolution,
	}
}
