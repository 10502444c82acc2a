// Package datasync models the versioned document store behind client
// real-time sync: optimistic writes against a base version, conflicts kept
// for a human to resolve, and a retry list for writes that failed transiently.
package datasync

import (
	"bytes"
	"encoding/json"
	"regexp"
	"time"

	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

var collectionRe = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)

// ErrVersionMismatch means the client wrote against a stale version
var ErrVersionMismatch = shared.NewDomainError("VERSION_MISMATCH", "Document changed since the client last read it")

// ValidateCollection checks a collection name
func ValidateCollection(name string) error {
	if !collectionRe.MatchString(name) {
		return shared.NewDomainError("INVALID_COLLECTION", "Collection must be lower_snake_case")
	}
	return nil
}

// Change is one client write. BaseVersion is the document version the
// client last saw; zero means the client believes the document is new.
type Change struct {
	ChangeID    string          `json:"change_id"`
	Collection  string          `json:"collection"`
	DocumentID  string          `json:"document_id"`
	BaseVersion int64           `json:"base_version"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Delete      bool            `json:"delete,omitempty"`
}

// Validate checks the shape of a change
func (c Change) Validate() error {
	if c.ChangeID == "" {
		return shared.NewDomainError("INVALID_CHANGE", "change_id is required")
	}
	if err := ValidateCollection(c.Collection); err != nil {
		return err
	}
	if c.DocumentID == "" || len(c.DocumentID) > 128 {
		return shared.NewDomainError("INVALID_CHANGE", "document_id must be 1-128 characters")
	}
	if c.BaseVersion < 0 {
		return shared.NewDomainError("INVALID_CHANGE", "base_version cannot be negative")
	}
	if !c.Delete && !json.Valid(c.Payload) {
		return shared.NewDomainError("INVALID_CHANGE", "payload must be valid JSON")
	}
	return nil
}

// Document is the server copy of a synced record
type Document struct {
	shared.BaseEntity
	TenantID   uuid.UUID
	Collection string
	DocumentID string
	Version    int64
	// Seq is the tenant-wide change sequence stamped by the store on every
	// write; clients pull with the highest Seq they have seen.
	Seq       int64
	Payload   json.RawMessage
	Deleted   bool
	UpdatedBy uuid.UUID
}

// NewDocument creates the server copy from a first write
func NewDocument(tenantID uuid.UUID, change Change, userID uuid.UUID) (*Document, error) {
	if change.BaseVersion != 0 {
		return nil, ErrVersionMismatch
	}
	doc := &Document{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		Collection: change.Collection,
		DocumentID: change.DocumentID,
	}
	doc.write(change.Payload, change.Delete, userID)
	return doc, nil
}

// Apply writes change if it was made against the current version
func (d *Document) Apply(change Change, userID uuid.UUID) error {
	if change.BaseVersion != d.Version {
		return ErrVersionMismatch
	}
	d.write(change.Payload, change.Delete, userID)
	return nil
}

// Overwrite writes payload regardless of version (manual conflict resolution)
func (d *Document) Overwrite(payload json.RawMessage, deleted bool, userID uuid.UUID) {
	d.write(payload, deleted, userID)
}

func (d *Document) write(payload json.RawMessage, deleted bool, userID uuid.UUID) {
	d.Version++
	d.Deleted = deleted
	if deleted {
		d.Payload = nil
	} else {
		d.Payload = compact(payload)
	}
	d.UpdatedBy = userID
	d.UpdatedAt = time.Now().UTC()
}

// SameContent reports whether applying change would leave the document unchanged
func (d *Document) SameContent(change Change) bool {
	if change.Delete || d.Deleted {
		return change.Delete == d.Deleted
	}
	return bytes.Equal(compact(change.Payload), d.Payload)
}

func compact(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}
